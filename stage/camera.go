package stage

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Default zoom limits.
const (
	DefaultMinZoom = 0.05
	DefaultMaxZoom = 8.0
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera controls the view into the scene: position, zoom and viewport.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	// MinZoom and MaxZoom clamp every zoom change made through the camera's
	// methods. Direct writes to Zoom are not clamped.
	MinZoom, MaxZoom float64

	scrollTween *scrollAnim
	zoomTween   *gween.Tween
}

// newCamera creates a Camera whose view maps world (0,0) to the viewport's
// top-left corner at zoom 1.
func newCamera(viewport Rect) *Camera {
	return &Camera{
		X:        viewport.Width / 2,
		Y:        viewport.Height / 2,
		Zoom:     1.0,
		Viewport: viewport,
		MinZoom:  DefaultMinZoom,
		MaxZoom:  DefaultMaxZoom,
	}
}

// ScrollTo animates the camera to the given world position over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// ZoomTo animates the zoom to z over duration seconds, keeping the camera center.
func (c *Camera) ZoomTo(z float64, duration float32, easeFn ease.TweenFunc) {
	c.zoomTween = gween.New(float32(c.Zoom), float32(c.clampZoom(z)), duration, easeFn)
}

// Animating reports whether a scroll or zoom animation is running.
func (c *Camera) Animating() bool {
	return c.scrollTween != nil || c.zoomTween != nil
}

// StopAnimations cancels running scroll and zoom animations in place.
func (c *Camera) StopAnimations() {
	c.scrollTween = nil
	c.zoomTween = nil
}

// SetZoom sets the zoom, clamped to [MinZoom, MaxZoom], keeping the center.
func (c *Camera) SetZoom(z float64) {
	c.Zoom = c.clampZoom(z)
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// screen position (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float64) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Zoom = c.clampZoom(c.Zoom * factor)
	cx, cy := c.Viewport.Center()
	c.X = wx - (sx-cx)/c.Zoom
	c.Y = wy - (sy-cy)/c.Zoom
}

// Pan moves the view by a screen-space delta, so content follows the pointer.
func (c *Camera) Pan(dsx, dsy float64) {
	c.X -= dsx / c.Zoom
	c.Y -= dsy / c.Zoom
}

func (c *Camera) clampZoom(z float64) float64 {
	lo, hi := c.MinZoom, c.MaxZoom
	if lo <= 0 {
		lo = DefaultMinZoom
	}
	if hi <= 0 {
		hi = DefaultMaxZoom
	}
	return math.Max(lo, math.Min(z, hi))
}

// update advances scroll and zoom animations. Reports whether the view changed.
func (c *Camera) update(dt float32) bool {
	prevX, prevY, prevZoom := c.X, c.Y, c.Zoom

	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(dt)
			c.X = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(dt)
			c.Y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	if c.zoomTween != nil {
		val, done := c.zoomTween.Update(dt)
		c.Zoom = float64(val)
		if done {
			c.zoomTween = nil
		}
	}

	return c.X != prevX || c.Y != prevY || c.Zoom != prevZoom
}

// viewMatrix returns Translate(cx, cy) * Scale(zoom) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera) viewMatrix() [6]float64 {
	cx, cy := c.Viewport.Center()
	z := c.Zoom
	return [6]float64{z, 0, 0, z, cx - z*c.X, cy - z*c.Y}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return transformPoint(c.viewMatrix(), wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	return transformPoint(invertAffine(c.viewMatrix()), sx, sy)
}

// VisibleBounds returns the world-space rectangle the camera currently shows.
func (c *Camera) VisibleBounds() Rect {
	x0, y0 := c.ScreenToWorld(c.Viewport.X, c.Viewport.Y)
	x1, y1 := c.ScreenToWorld(c.Viewport.X+c.Viewport.Width, c.Viewport.Y+c.Viewport.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Center returns the world point at the center of the viewport.
func (c *Camera) Center() (float64, float64) {
	return c.X, c.Y
}
