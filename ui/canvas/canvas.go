// Package canvas provides the annotation canvas: the source image with the
// instance mask overlay, freehand polygon drawing, and right-click delete.
package canvas

import (
	"image"
	"image/color"
	"math"

	"cell-annotator/internal/app"
	"cell-annotator/internal/imaging"
	"cell-annotator/pkg/colorutil"
	"cell-annotator/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25

	// Drag points closer than this (in image pixels) to the previous
	// captured point are discarded, thinning the freehand stroke.
	captureSpacing = 2.0

	// Simplification tolerance for the finished stroke, in image pixels.
	simplifyEpsilon = 1.0
)

// AnnotationCanvas displays the open image with the mask overlay and turns
// pointer gestures into session operations.
type AnnotationCanvas struct {
	widget.BaseWidget

	session *app.Session

	// Cached display-stretched copy of the open image
	display *image.RGBA

	// Displayed channel: -1 for composite RGB, 0..2 for a single channel
	channel int

	raster  *fynecanvas.Raster
	surface *drawSurface
	scroll  *zoomScroll

	zoom    float64
	opacity float64

	// In-progress freehand polygon, image coordinates
	stroke []geometry.Point2D

	onMaskChanged func()
}

// New creates an annotation canvas bound to a session.
func New(session *app.Session) *AnnotationCanvas {
	ac := &AnnotationCanvas{
		session: session,
		zoom:    1.0,
		opacity: 0.5,
		channel: -1,
	}
	ac.ExtendBaseWidget(ac)

	ac.raster = fynecanvas.NewRaster(ac.draw)
	ac.raster.ScaleMode = fynecanvas.ImageScalePixels
	ac.surface = newDrawSurface(ac, ac.raster)
	ac.scroll = newZoomScroll(ac.surface, ac)

	session.On(app.EventImageLoaded, func(interface{}) {
		ac.reloadDisplay()
		ac.Refresh()
	})
	session.On(app.EventMaskChanged, func(interface{}) {
		ac.Refresh()
	})

	return ac
}

// CreateRenderer implements fyne.Widget.
func (ac *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ac.scroll)
}

// SetOnMaskChanged registers a callback fired after a paint or delete.
func (ac *AnnotationCanvas) SetOnMaskChanged(fn func()) {
	ac.onMaskChanged = fn
}

// SetChannel selects the displayed channel: -1 for composite RGB,
// 0..2 for red, green, or blue alone.
func (ac *AnnotationCanvas) SetChannel(channel int) {
	ac.channel = channel
	ac.reloadDisplay()
	ac.Refresh()
}

// SetOpacity updates the overlay blend factor (0..1).
func (ac *AnnotationCanvas) SetOpacity(opacity float64) {
	ac.opacity = opacity
	ac.Refresh()
}

// Opacity returns the current overlay blend factor.
func (ac *AnnotationCanvas) Opacity() float64 {
	return ac.opacity
}

// ZoomIn increases the zoom by one step.
func (ac *AnnotationCanvas) ZoomIn() {
	ac.setZoom(ac.zoom * zoomStep)
}

// ZoomOut decreases the zoom by one step.
func (ac *AnnotationCanvas) ZoomOut() {
	ac.setZoom(ac.zoom / zoomStep)
}

// ActualSize resets the zoom to 1:1.
func (ac *AnnotationCanvas) ActualSize() {
	ac.setZoom(1.0)
}

// FitToWindow scales the image to fill the visible scroll area.
func (ac *AnnotationCanvas) FitToWindow() {
	frame := ac.session.Frame()
	if frame == nil {
		return
	}
	size := ac.scroll.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	zx := float64(size.Width) / float64(frame.Width())
	zy := float64(size.Height) / float64(frame.Height())
	ac.setZoom(math.Min(zx, zy))
}

func (ac *AnnotationCanvas) setZoom(z float64) {
	if z < minZoom {
		z = minZoom
	}
	if z > maxZoom {
		z = maxZoom
	}
	ac.zoom = z
	ac.Refresh()
}

// Refresh redraws the raster at the current zoom.
func (ac *AnnotationCanvas) Refresh() {
	frame := ac.session.Frame()
	if frame != nil {
		w := float32(float64(frame.Width()) * ac.zoom)
		h := float32(float64(frame.Height()) * ac.zoom)
		ac.surface.Resize(fyne.NewSize(w, h))
		ac.raster.Resize(fyne.NewSize(w, h))
	}
	ac.raster.Refresh()
	ac.scroll.Refresh()
	ac.BaseWidget.Refresh()
}

func (ac *AnnotationCanvas) reloadDisplay() {
	frame := ac.session.Frame()
	if frame == nil {
		ac.display = nil
		return
	}
	if ac.channel >= 0 && frame.Channels() > 1 {
		ac.display = imaging.DisplayImage(frame.Channel(ac.channel))
		return
	}
	ac.display = imaging.DisplayImage(frame.Image)
}

// imagePos converts a surface position to image pixel coordinates.
func (ac *AnnotationCanvas) imagePos(pos fyne.Position) geometry.Point2D {
	return geometry.Point2D{
		X: float64(pos.X) / ac.zoom,
		Y: float64(pos.Y) / ac.zoom,
	}
}

// strokePoint appends a drag sample, thinning points closer than the
// capture spacing.
func (ac *AnnotationCanvas) strokePoint(p geometry.Point2D) {
	if n := len(ac.stroke); n > 0 && ac.stroke[n-1].Distance(p) < captureSpacing {
		return
	}
	ac.stroke = append(ac.stroke, p)
	ac.Refresh()
}

// finishStroke closes the freehand polygon and commits it to the session.
func (ac *AnnotationCanvas) finishStroke() {
	stroke := ac.stroke
	ac.stroke = nil

	if len(stroke) >= 3 {
		polygon := geometry.SimplifyPath(stroke, simplifyEpsilon)
		if _, err := ac.session.PaintPolygon(polygon); err == nil {
			if ac.onMaskChanged != nil {
				ac.onMaskChanged()
			}
		}
	}
	ac.Refresh()
}

// deleteAt removes the instance under a surface position.
func (ac *AnnotationCanvas) deleteAt(pos fyne.Position) {
	p := ac.imagePos(pos)
	if _, err := ac.session.DeleteAt(int(p.X), int(p.Y)); err == nil {
		if ac.onMaskChanged != nil {
			ac.onMaskChanged()
		}
	}
}

// draw renders the composited view: stretched image, mask overlay, and the
// in-progress stroke.
func (ac *AnnotationCanvas) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if ac.display == nil {
		return out
	}

	raster := ac.session.Raster()
	iw := ac.display.Bounds().Dx()
	ih := ac.display.Bounds().Dy()

	for y := 0; y < h; y++ {
		sy := int(float64(y) / ac.zoom)
		if sy >= ih {
			continue
		}
		for x := 0; x < w; x++ {
			sx := int(float64(x) / ac.zoom)
			if sx >= iw {
				continue
			}
			c := ac.display.RGBAAt(sx, sy)

			if raster != nil {
				if id := raster.At(sx, sy); id != 0 {
					or, og, ob := colorutil.InstanceColor(id)
					c.R = blend(c.R, or, ac.opacity)
					c.G = blend(c.G, og, ac.opacity)
					c.B = blend(c.B, ob, ac.opacity)
				}
			}

			out.SetRGBA(x, y, c)
		}
	}

	ac.drawStroke(out)
	return out
}

// drawStroke overlays the in-progress polygon in yellow.
func (ac *AnnotationCanvas) drawStroke(out *image.RGBA) {
	if len(ac.stroke) == 0 {
		return
	}
	yellow := color.RGBA{R: 255, G: 255, B: 0, A: 255}

	for i := 0; i+1 < len(ac.stroke); i++ {
		ac.drawSegment(out, ac.stroke[i], ac.stroke[i+1], yellow)
	}
	for _, p := range ac.stroke {
		x := int(math.Round(p.X * ac.zoom))
		y := int(math.Round(p.Y * ac.zoom))
		setPixel(out, x, y, yellow)
	}
}

func (ac *AnnotationCanvas) drawSegment(out *image.RGBA, p1, p2 geometry.Point2D, c color.RGBA) {
	x0 := int(math.Round(p1.X * ac.zoom))
	y0 := int(math.Round(p1.Y * ac.zoom))
	x1 := int(math.Round(p2.X * ac.zoom))
	y1 := int(math.Round(p2.Y * ac.zoom))

	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		setPixel(out, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func setPixel(out *image.RGBA, x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= out.Bounds().Dx() || y >= out.Bounds().Dy() {
		return
	}
	out.SetRGBA(x, y, c)
}

func blend(base, over uint8, alpha float64) uint8 {
	return uint8(float64(base)*(1-alpha) + float64(over)*alpha)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// zoomScroll wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *AnnotationCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *AnnotationCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Size returns the scroll container's size.
func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// drawSurface wraps the raster and handles pointer events.
type drawSurface struct {
	widget.BaseWidget
	canvas *AnnotationCanvas
	raster *fynecanvas.Raster
}

func newDrawSurface(ac *AnnotationCanvas, raster *fynecanvas.Raster) *drawSurface {
	ds := &drawSurface{canvas: ac, raster: raster}
	ds.ExtendBaseWidget(ds)
	return ds
}

func (ds *drawSurface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ds.raster)
}

func (ds *drawSurface) MinSize() fyne.Size {
	return ds.raster.Size()
}

// Dragged captures freehand stroke points in image coordinates.
func (ds *drawSurface) Dragged(ev *fyne.DragEvent) {
	ds.canvas.strokePoint(ds.canvas.imagePos(ev.Position))
}

// DragEnd closes the stroke and paints the instance.
func (ds *drawSurface) DragEnd() {
	ds.canvas.finishStroke()
}

// Tapped is required for TappedSecondary to be delivered.
func (ds *drawSurface) Tapped(*fyne.PointEvent) {}

// TappedSecondary deletes the instance under the cursor.
func (ds *drawSurface) TappedSecondary(ev *fyne.PointEvent) {
	ds.canvas.deleteAt(ev.Position)
}
