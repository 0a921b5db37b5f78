package mask

// DefaultHistoryLimit caps the undo depth; the oldest snapshot is dropped
// once the cap is exceeded.
const DefaultHistoryLimit = 50

// History is a bounded stack of full raster snapshots. Callers push a copy
// of the raster before each mutation; the history never inspects contents.
type History struct {
	snapshots []*Raster
	limit     int
}

// NewHistory creates a history with the default depth limit.
func NewHistory() *History {
	return &History{limit: DefaultHistoryLimit}
}

// Push appends a snapshot, discarding the oldest if the cap is exceeded.
func (h *History) Push(r *Raster) {
	h.snapshots = append(h.snapshots, r)
	if len(h.snapshots) > h.limit {
		h.snapshots = h.snapshots[1:]
	}
}

// Pop removes and returns the most recent snapshot, or nil if empty.
func (h *History) Pop() *Raster {
	if len(h.snapshots) == 0 {
		return nil
	}
	r := h.snapshots[len(h.snapshots)-1]
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	return r
}

// Clear discards all snapshots. Called when switching images.
func (h *History) Clear() {
	h.snapshots = nil
}

// Len returns the number of stored snapshots.
func (h *History) Len() int {
	return len(h.snapshots)
}
