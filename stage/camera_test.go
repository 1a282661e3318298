package stage

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestCameraIdentityAtZoomOne(t *testing.T) {
	c := newCamera(Rect{Width: 800, Height: 600})
	sx, sy := c.WorldToScreen(123, 45)
	if !approxEqual(sx, 123) || !approxEqual(sy, 45) {
		t.Errorf("WorldToScreen = (%v, %v), want (123, 45)", sx, sy)
	}
}

func TestCameraZoomAtKeepsPoint(t *testing.T) {
	c := newCamera(Rect{Width: 800, Height: 600})
	wx, wy := c.ScreenToWorld(200, 150)
	c.ZoomAt(200, 150, 2)
	if c.Zoom != 2 {
		t.Errorf("Zoom = %v, want 2", c.Zoom)
	}
	gx, gy := c.ScreenToWorld(200, 150)
	if !approxEqual(gx, wx) || !approxEqual(gy, wy) {
		t.Errorf("point under cursor moved: (%v, %v) -> (%v, %v)", wx, wy, gx, gy)
	}
}

func TestCameraZoomClamped(t *testing.T) {
	c := newCamera(Rect{Width: 800, Height: 600})
	c.SetZoom(100)
	if c.Zoom != DefaultMaxZoom {
		t.Errorf("Zoom = %v, want %v", c.Zoom, DefaultMaxZoom)
	}
	c.SetZoom(0)
	if c.Zoom != DefaultMinZoom {
		t.Errorf("Zoom = %v, want %v", c.Zoom, DefaultMinZoom)
	}
}

func TestCameraPanFollowsPointer(t *testing.T) {
	c := newCamera(Rect{Width: 800, Height: 600})
	c.SetZoom(2)
	wx, wy := c.ScreenToWorld(100, 100)
	c.Pan(30, -10)
	gx, gy := c.ScreenToWorld(130, 90)
	if !approxEqual(gx, wx) || !approxEqual(gy, wy) {
		t.Errorf("pan: world point (%v, %v) now at (%v, %v)", wx, wy, gx, gy)
	}
}

func TestCameraScrollToAnimates(t *testing.T) {
	c := newCamera(Rect{Width: 800, Height: 600})
	c.ScrollTo(500, 300, 1, ease.Linear)
	if !c.Animating() {
		t.Fatal("Animating = false after ScrollTo")
	}
	if !c.update(0.5) {
		t.Error("update should report a change")
	}
	if !approxEqual(c.X, 450) {
		t.Errorf("X mid-animation = %v, want 450", c.X)
	}
	c.update(0.6)
	if c.X != 500 || c.Y != 300 {
		t.Errorf("final = (%v, %v), want (500, 300)", c.X, c.Y)
	}
	if c.Animating() {
		t.Error("Animating = true after completion")
	}
}

func TestCameraVisibleBounds(t *testing.T) {
	c := newCamera(Rect{Width: 800, Height: 600})
	c.SetZoom(2)
	got := c.VisibleBounds()
	want := Rect{X: 200, Y: 150, Width: 400, Height: 300}
	if got != want {
		t.Errorf("VisibleBounds = %v, want %v", got, want)
	}
}
