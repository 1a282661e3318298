package storyboard

import (
	"context"
	"math"
	"testing"

	"github.com/phanxgames/storyboard/stage"
	"github.com/yohamta/donburi"
)

func TestClickSelects(t *testing.T) {
	c := newTestCanvas(t)
	c.Rebuild(context.Background(), Snapshot{App: AppState{
		pageNode("p1", 0, 0, 400, 400, textNode("t1", 10, 10, "Hi")),
		markNode("m1", 600, 0),
	}})
	var changes []*Selection
	SelectionChangedEvent.Subscribe(c.World(), func(_ donburi.World, e SelectionChanged) {
		changes = append(changes, e.Selection)
	})

	tests := []struct {
		name   string
		x, y   float64
		wantID string
	}{
		{"panel body selects the panel", 300, 300, "p1"},
		{"mark area", 700, 100, "m1"},
		{"empty canvas clears", 1000, 700, ""},
	}
	for _, tt := range tests {
		c.Scene().InjectClick(tt.x, tt.y)
		stepInput(c)
		s := c.Selection()
		switch {
		case tt.wantID == "" && s != nil:
			t.Errorf("%s: selection = %s, want none", tt.name, s.ID)
		case tt.wantID != "" && (s == nil || s.ID != tt.wantID):
			t.Errorf("%s: selection = %+v, want %s", tt.name, s, tt.wantID)
		}
	}
	if len(changes) != 3 || changes[2] != nil {
		t.Errorf("selection events = %d, want 3 ending with a clear", len(changes))
	}

	p1, _ := c.lookup("p1")
	if err := c.Select("p1"); err != nil || c.Selection().Handle != p1 {
		t.Errorf("Select(p1) should attach to the panel group")
	}
	if c.Scene().Transformer().Target() != p1 {
		t.Error("transformer not attached to the panel group")
	}
}

func TestWheel(t *testing.T) {
	c := newTestCanvas(t)
	cam := c.Scene().Camera()
	x0 := cam.X

	c.Scene().InjectWheel(640, 400, 1, 0, 0)
	stepInput(c)
	if cam.X != x0-wheelPanStep {
		t.Errorf("camera x after wheel = %v, want %v", cam.X, x0-wheelPanStep)
	}

	c.Scene().InjectWheel(640, 400, 0, 1, stage.ModCtrl)
	stepInput(c)
	if math.Abs(cam.Zoom-DefaultZoomStep) > 1e-9 {
		t.Errorf("zoom = %v, want %v", cam.Zoom, DefaultZoomStep)
	}
	c.Scene().InjectWheel(640, 400, 0, -1, stage.ModCtrl)
	stepInput(c)
	if math.Abs(cam.Zoom-1) > 1e-9 {
		t.Errorf("zoom = %v, want 1", cam.Zoom)
	}
}

func TestMoveToolPans(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	c.Rebuild(ctx, Snapshot{App: AppState{markNode("m1", 0, 0)}})
	c.SetTool(ctx, ToolMove)
	cam := c.Scene().Camera()
	x0, y0 := cam.X, cam.Y

	c.Scene().InjectDrag(100, 100, 200, 150, 4)
	stepInput(c)

	if cam.X >= x0 || cam.Y >= y0 {
		t.Errorf("camera = (%v, %v), want moved left and up from (%v, %v)", cam.X, cam.Y, x0, y0)
	}
	if n, _ := c.History().Find("m1"); n.Attrs.X != 0 {
		t.Error("move tool dragged a node")
	}
}

func TestFocusContent(t *testing.T) {
	c := newTestCanvas(t)
	c.Rebuild(context.Background(), Snapshot{App: AppState{markNode("m1", 1000, 1000)}})

	c.FocusContent()
	for range 60 {
		c.Step(1.0 / 60)
	}
	cam := c.Scene().Camera()
	if math.Abs(cam.X-1100) > 0.01 || math.Abs(cam.Y-1100) > 0.01 {
		t.Errorf("camera = (%v, %v), want (1100, 1100)", cam.X, cam.Y)
	}
	if cam.Zoom <= 1 {
		t.Errorf("zoom = %v, want zoomed in on a small area", cam.Zoom)
	}
}

func TestMobilePlacesAtCenter(t *testing.T) {
	ctx := context.Background()
	cfg := NewDefaultConfig()
	cfg.Canvas.Mobile = true
	c := NewCanvas(Options{Config: cfg, Loader: testLoader(), Clipboard: &MemoryClipboard{}})

	c.SetTool(ctx, ToolMarkArea)
	app := c.History().App()
	if len(app) != 1 || app[0].Kind != KindMarkArea {
		t.Fatalf("state = %+v, want one mark area", app)
	}
	if app[0].Attrs.X != 640 || app[0].Attrs.Y != 400 {
		t.Errorf("position = (%v, %v), want the view center", app[0].Attrs.X, app[0].Attrs.Y)
	}
	if c.Tool() != ToolSelect {
		t.Errorf("tool = %v, want %v", c.Tool(), ToolSelect)
	}

	c.SetTool(ctx, ToolText)
	if !c.Editing() {
		t.Error("a new text node should open the editor")
	}
}
