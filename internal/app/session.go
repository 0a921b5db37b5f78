// Package app coordinates the annotation session: the open image, its mask
// store, undo history, directory navigation, and autosave. UI components
// subscribe to session events instead of polling state.
package app

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"

	"cell-annotator/internal/container"
	"cell-annotator/internal/imaging"
	"cell-annotator/internal/mask"
	"cell-annotator/pkg/geometry"
)

// EventType identifies session events UI components can subscribe to.
type EventType int

const (
	// EventImageLoaded fires after a new image and its masks are loaded.
	EventImageLoaded EventType = iota
	// EventMaskChanged fires after any mutation of the mask raster.
	EventMaskChanged
)

// EventListener receives session event payloads.
type EventListener func(data interface{})

// ErrNoImage is returned by operations that need an open image.
var ErrNoImage = errors.New("app: no image open")

// Session is the mutable state of one annotation run. Every mask mutation
// snapshots the raster first and saves the container afterwards, so the
// on-disk state always tracks the screen and undo is always available.
type Session struct {
	mu sync.RWMutex

	frame   *imaging.Frame
	store   *mask.Store
	history *mask.History

	files     []string
	fileIndex int

	listeners map[EventType][]EventListener
}

// NewSession creates an empty session with no image open.
func NewSession() *Session {
	return &Session{
		history:   mask.NewHistory(),
		fileIndex: -1,
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers a listener for an event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit notifies all listeners of an event. Listeners run synchronously
// outside the session lock.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := make([]EventListener, len(s.listeners[event]))
	copy(listeners, s.listeners[event])
	s.mu.RUnlock()

	for _, l := range listeners {
		l(data)
	}
}

// OpenImage loads the image at path together with any existing container.
// A missing container starts an empty annotation; an unreadable one is
// logged and treated as empty rather than blocking the image. The sibling
// file list is rebuilt for Next/Prev navigation.
func (s *Session) OpenImage(path string) error {
	frame, err := imaging.Load(path)
	if err != nil {
		return err
	}

	segPath := container.SegPath(path)
	raster, err := container.Load(segPath, frame.Width(), frame.Height())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Ignoring container %s: %v", segPath, err)
		}
		raster = mask.NewRaster(frame.Width(), frame.Height())
	}

	files, err := imaging.ListImages(filepath.Dir(path))
	if err != nil {
		log.Printf("Could not list images in %s: %v", filepath.Dir(path), err)
		files = []string{path}
	}
	index := 0
	for i, f := range files {
		if f == path {
			index = i
			break
		}
	}

	s.mu.Lock()
	s.frame = frame
	s.store = mask.NewStoreFromRaster(raster)
	s.history.Clear()
	s.files = files
	s.fileIndex = index
	s.mu.Unlock()

	log.Printf("Opened %s (%dx%d, %d instances)",
		path, frame.Width(), frame.Height(), raster.InstanceCount())

	s.Emit(EventImageLoaded, path)
	return nil
}

// Frame returns the open image frame, or nil.
func (s *Session) Frame() *imaging.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Raster returns the live mask raster, or nil when no image is open.
// Callers must treat it as read-only.
func (s *Session) Raster() *mask.Raster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil
	}
	return s.store.Raster()
}

// InstanceCount returns the number of annotated instances.
func (s *Session) InstanceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return 0
	}
	return s.store.InstanceCount()
}

// PaintPolygon adds a new instance from a freehand polygon. A stroke that
// lands entirely on existing instances is a no-op: no ID consumed, no undo
// entry, no save.
func (s *Session) PaintPolygon(polygon []geometry.Point2D) (uint16, error) {
	s.mu.Lock()
	if s.store == nil {
		s.mu.Unlock()
		return 0, ErrNoImage
	}

	snapshot := s.store.Snapshot()
	id, err := s.store.Paint(polygon)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.history.Push(snapshot)
	s.saveLocked()
	s.mu.Unlock()

	s.Emit(EventMaskChanged, id)
	return id, nil
}

// DeleteAt removes the instance under the given image pixel.
func (s *Session) DeleteAt(x, y int) (uint16, error) {
	s.mu.Lock()
	if s.store == nil {
		s.mu.Unlock()
		return 0, ErrNoImage
	}

	snapshot := s.store.Snapshot()
	id, err := s.store.EraseAt(x, y)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.history.Push(snapshot)
	s.saveLocked()
	s.mu.Unlock()

	s.Emit(EventMaskChanged, id)
	return id, nil
}

// Undo restores the most recent snapshot. Returns false when the history
// is empty.
func (s *Session) Undo() bool {
	s.mu.Lock()
	if s.store == nil {
		s.mu.Unlock()
		return false
	}
	snapshot := s.history.Pop()
	if snapshot == nil {
		s.mu.Unlock()
		return false
	}
	s.store.Replace(snapshot)
	s.saveLocked()
	s.mu.Unlock()

	s.Emit(EventMaskChanged, nil)
	return true
}

// saveLocked persists the current raster next to the image. Save failures
// are logged, never fatal: annotation work continues in memory.
func (s *Session) saveLocked() {
	if err := container.Save(s.store.Raster(), s.frame.Path); err != nil {
		log.Printf("Autosave failed for %s: %v", s.frame.Path, err)
	}
}

// NextImage opens the next image in the directory, wrapping at the end.
func (s *Session) NextImage() error {
	return s.step(1)
}

// PrevImage opens the previous image in the directory, wrapping at the
// start.
func (s *Session) PrevImage() error {
	return s.step(-1)
}

func (s *Session) step(delta int) error {
	s.mu.RLock()
	if s.frame == nil || len(s.files) == 0 {
		s.mu.RUnlock()
		return ErrNoImage
	}
	n := len(s.files)
	next := s.files[((s.fileIndex+delta)%n+n)%n]
	s.mu.RUnlock()

	return s.OpenImage(next)
}

// Files returns the current directory's image list and the open index.
func (s *Session) Files() ([]string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files, s.fileIndex
}
