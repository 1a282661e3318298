package stage

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestLocalToWorldRoundTrip(t *testing.T) {
	parent := NewGroup("p")
	parent.SetPosition(100, 50)
	parent.SetScale(2, 2)
	child := NewRect("c", 10, 10)
	child.SetPosition(5, 5)
	child.SetRotation(math.Pi / 2)
	parent.AddChild(child)

	wx, wy := child.LocalToWorld(10, 0)
	// (10,0) rotated 90 degrees is (0,10); +5,5 -> (5,15); *2 +100,50 -> (110,80)
	if !approxEqual(wx, 110) || !approxEqual(wy, 80) {
		t.Errorf("LocalToWorld = (%v, %v), want (110, 80)", wx, wy)
	}
	lx, ly := child.WorldToLocal(wx, wy)
	if !approxEqual(lx, 10) || !approxEqual(ly, 0) {
		t.Errorf("WorldToLocal = (%v, %v), want (10, 0)", lx, ly)
	}
}

func TestInvertSingularReturnsIdentity(t *testing.T) {
	if got := invertAffine([6]float64{0, 0, 0, 0, 5, 5}); got != identityTransform {
		t.Errorf("invertAffine(singular) = %v, want identity", got)
	}
}

func TestClientRectRectStroke(t *testing.T) {
	r := NewRect("r", 100, 50)
	r.SetPosition(10, 20)
	r.Stroke = ColorBlack
	r.StrokeWidth = 4
	got := r.ClientRect()
	want := Rect{X: 8, Y: 18, Width: 104, Height: 54}
	if got != want {
		t.Errorf("ClientRect = %v, want %v", got, want)
	}
}

func TestClientRectGroupClip(t *testing.T) {
	g := NewGroup("g")
	g.SetPosition(50, 50)
	g.Clip = &Rect{Width: 200, Height: 100}
	big := NewRect("big", 1000, 1000)
	g.AddChild(big)
	got := g.ClientRect()
	want := Rect{X: 50, Y: 50, Width: 200, Height: 100}
	if got != want {
		t.Errorf("ClientRect = %v, want %v", got, want)
	}
}

func TestClientRectGroupUnion(t *testing.T) {
	g := NewGroup("g")
	a := NewRect("a", 10, 10)
	b := NewRect("b", 10, 10)
	b.SetPosition(20, 30)
	hidden := NewRect("h", 500, 500)
	hidden.Visible = false
	g.AddChild(a)
	g.AddChild(b)
	g.AddChild(hidden)
	got := g.ClientRect()
	want := Rect{X: 0, Y: 0, Width: 30, Height: 40}
	if got != want {
		t.Errorf("ClientRect = %v, want %v", got, want)
	}
}

func TestClientRectRotated(t *testing.T) {
	r := NewRect("r", 10, 20)
	r.SetRotation(math.Pi / 2)
	got := r.ClientRect()
	if !approxEqual(got.X, -20) || !approxEqual(got.Width, 20) || !approxEqual(got.Height, 10) {
		t.Errorf("ClientRect = %v, want {-20 0 20 10}", got)
	}
}
