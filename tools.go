package storyboard

import (
	"context"
	"fmt"
	"math"

	"github.com/phanxgames/storyboard/stage"
	"github.com/tanema/gween/ease"
)

// Tool is the current interaction mode.
type Tool uint8

const (
	ToolSelect Tool = iota
	ToolMove        // drag pans the camera
	ToolPanel
	ToolBubble
	ToolText
	ToolImage
	ToolMarkArea
)

var toolNames = [...]string{
	ToolSelect:   "select",
	ToolMove:     "move",
	ToolPanel:    "panel",
	ToolBubble:   "bubble",
	ToolText:     "text",
	ToolImage:    "image",
	ToolMarkArea: "mark_area",
}

func (t Tool) String() string {
	if int(t) >= len(toolNames) {
		return fmt.Sprintf("Tool(%d)", uint8(t))
	}
	return toolNames[t]
}

// Drawing reports whether the tool creates a shape by dragging.
func (t Tool) Drawing() bool {
	switch t {
	case ToolPanel, ToolBubble, ToolText, ToolMarkArea:
		return true
	}
	return false
}

// New shape defaults.
const (
	defaultFontFamily   = "Wildwords"
	defaultFontSize     = 75.0
	panelStrokeWidth    = 8.0
	defaultMarkAreaSide = 200.0
	wheelPanStep        = 40.0
	focusDuration       = 0.4
)

var draftStroke = stage.Color{R: 0.2, G: 0.5, B: 1, A: 1}

// Draft is a shape being dragged out with a drawing tool. X and Y are the
// world-space anchor; Width and Height may be negative until finished.
type Draft struct {
	Tool          Tool
	X, Y          float64
	Width, Height float64

	preview *stage.Node
}

// Rect returns the draft box with a non-negative size.
func (d *Draft) Rect() stage.Rect {
	x, y := d.X, d.Y
	if d.Width < 0 {
		x += d.Width
	}
	if d.Height < 0 {
		y += d.Height
	}
	return stage.Rect{X: x, Y: y, Width: math.Abs(d.Width), Height: math.Abs(d.Height)}
}

// Tool returns the current tool.
func (c *Canvas) Tool() Tool { return c.tool }

// Draft returns the shape being drawn, or nil.
func (c *Canvas) Draft() *Draft { return c.draft }

// SetTool switches the interaction mode. Drawing tools drop the selection;
// on mobile they place their shape at the viewport center immediately.
func (c *Canvas) SetTool(ctx context.Context, t Tool) {
	if c.editor != nil {
		c.CommitTextEdit()
	}
	c.discardDraft()
	c.tool = t
	c.scene.SetNodeDragging(t == ToolSelect)
	if !t.Drawing() {
		return
	}
	c.ClearSelection()
	if c.cfg.Canvas.Mobile {
		if err := c.placeAtCenter(ctx, t); err != nil {
			c.log.Warn("place shape", "tool", t, "err", err)
		}
	}
}

// bindScene registers the canvas handlers on the scene.
func (c *Canvas) bindScene() {
	c.scene.OnPointerDown(c.onPointerDown)
	c.scene.OnPointerMove(c.onPointerMove)
	c.scene.OnPointerUp(c.onPointerUp)
	c.scene.OnClick(c.onClick)
	c.scene.OnDrag(c.onDrag)
	c.scene.OnWheel(c.onWheel)
	c.scene.OnPinch(c.onPinch)
}

func (c *Canvas) onPointerDown(pc stage.PointerContext) {
	if c.editor != nil {
		c.CommitTextEdit()
	}
	if !c.tool.Drawing() || c.cfg.Canvas.Mobile || pc.Button != stage.MouseButtonLeft {
		return
	}
	d := &Draft{Tool: c.tool, X: pc.GlobalX, Y: pc.GlobalY}
	d.preview = stage.NewRect("draft", 0, 0)
	d.preview.Stroke = draftStroke
	d.preview.StrokeWidth = 1
	d.preview.Dash = []float64{4, 4}
	d.preview.Listening = false
	d.preview.X, d.preview.Y = d.X, d.Y
	c.overlay.AddChild(d.preview)
	c.draft = d
	c.scene.BatchDraw()
}

func (c *Canvas) onPointerMove(pc stage.PointerContext) {
	d := c.draft
	if d == nil {
		return
	}
	d.Width, d.Height = pc.GlobalX-d.X, pc.GlobalY-d.Y
	r := d.Rect()
	d.preview.X, d.preview.Y = r.X, r.Y
	d.preview.Width, d.preview.Height = r.Width, r.Height
	c.scene.BatchDraw()
}

func (c *Canvas) onPointerUp(pc stage.PointerContext) {
	if c.draft == nil {
		return
	}
	c.draft.Width, c.draft.Height = pc.GlobalX-c.draft.X, pc.GlobalY-c.draft.Y
	if _, err := c.FinishDraft(context.Background()); err != nil {
		c.log.Warn("finish shape", "err", err)
	}
}

func (c *Canvas) discardDraft() {
	if c.draft == nil {
		return
	}
	c.draft.preview.Destroy()
	c.draft = nil
	c.scene.BatchDraw()
}

// FinishDraft turns the current draft into a node, adds it, switches back to
// the select tool and selects the node. A new text node opens the editor
// instead.
func (c *Canvas) FinishDraft(ctx context.Context) (*CNode, error) {
	d := c.draft
	if d == nil {
		return nil, nil
	}
	c.discardDraft()
	r := d.Rect()
	n := c.newShape(d.Tool, r.X, r.Y, r.Width, r.Height)
	return c.placeShape(ctx, n)
}

// placeShape adds a freshly created top-level shape and hands it to the user.
func (c *Canvas) placeShape(ctx context.Context, n *CNode) (*CNode, error) {
	c.SetTool(ctx, ToolSelect)
	if _, err := c.addTopLevel(ctx, n); err != nil {
		return nil, err
	}
	if n.Kind == KindText {
		if _, err := c.BeginTextEdit(n.Attrs.ID); err != nil {
			return nil, err
		}
	} else if err := c.Select(n.Attrs.ID); err != nil {
		return nil, err
	}
	added, _ := c.history.Find(n.Attrs.ID)
	return added, nil
}

// newShape returns the node a drawing tool produces for a box. Boxes smaller
// than the minimum draw size take the tool's default size.
func (c *Canvas) newShape(t Tool, x, y, w, h float64) *CNode {
	cc := c.cfg.Canvas
	n := &CNode{Attrs: Geometry{ID: NewID(), X: x, Y: y, ScaleX: 1, ScaleY: 1}}
	small := func(v float64) bool { return v <= cc.MinDrawSize }
	switch t {
	case ToolPanel:
		if small(w) {
			w = cc.Width
		}
		if small(h) {
			h = cc.PanelHeight
		}
		n.Kind = KindPage
		n.Attrs.Width, n.Attrs.Height = w, h
		n.Style = &Style{Fill: "white", Stroke: "black", StrokeWidth: panelStrokeWidth}
	case ToolBubble:
		n.Kind = KindBubble
		n.ImageURL = cc.BubbleURL
	case ToolText:
		n.Kind = KindText
		n.Style = &Style{Fill: "black", Stroke: "white"}
		n.Text = &TextPayload{FontFamily: defaultFontFamily, FontSize: defaultFontSize, Align: "left"}
	case ToolMarkArea:
		if small(w) || small(h) {
			w, h = defaultMarkAreaSide, defaultMarkAreaSide
		}
		n.Kind = KindMarkArea
		n.Attrs.Width, n.Attrs.Height = w, h
		n.Style = &Style{Stroke: "black", StrokeWidth: markAreaStrokeWidth, Dash: markAreaDash}
	}
	return n
}

// placeAtCenter creates the shape of t around the viewport center without a
// drag.
func (c *Canvas) placeAtCenter(ctx context.Context, t Tool) error {
	cx, cy := c.scene.Camera().Center()
	var n *CNode
	switch t {
	case ToolText:
		n = c.newShape(t, cx-200, cy-500, 0, 0)
		n.Text.Content = "Double click to edit"
	case ToolPanel:
		w := c.cfg.Canvas.Width
		n = c.newShape(t, 0, cy-600, w, w/2)
	case ToolBubble:
		n = c.newShape(t, cx-300, cy-600, 0, 0)
	case ToolMarkArea:
		n = c.newShape(t, cx, cy, 0, 0)
	default:
		return nil
	}
	_, err := c.placeShape(ctx, n)
	return err
}

func (c *Canvas) onClick(cc stage.ClickContext) {
	if c.tool != ToolSelect {
		return
	}
	if cc.Node == nil {
		c.ClearSelection()
		return
	}
	c.selectNode(cc.Node)
}

func (c *Canvas) onDrag(dc stage.DragContext) {
	if c.tool != ToolMove {
		return
	}
	c.scene.Camera().Pan(dc.ScreenDeltaX, dc.ScreenDeltaY)
	c.scene.BatchDraw()
}

// onWheel zooms around the pointer with Ctrl held and pans otherwise.
func (c *Canvas) onWheel(wc stage.WheelContext) {
	cam := c.scene.Camera()
	if wc.Modifiers&stage.ModCtrl != 0 {
		if wc.DeltaY == 0 {
			return
		}
		f := c.cfg.Canvas.ZoomStep
		if wc.DeltaY < 0 {
			f = 1 / f
		}
		cam.ZoomAt(wc.ScreenX, wc.ScreenY, f)
	} else {
		cam.Pan(wc.DeltaX*wheelPanStep, wc.DeltaY*wheelPanStep)
	}
	c.scene.BatchDraw()
}

func (c *Canvas) onPinch(pc stage.PinchContext) {
	c.scene.Camera().ZoomAt(pc.CenterX, pc.CenterY, 1+pc.ScaleDelta)
	c.scene.BatchDraw()
}

// FocusContent animates the camera to the center of the content, zoomed so
// it fits the viewport.
func (c *Canvas) FocusContent() {
	r := c.layer.ClientRect()
	if r.Empty() {
		return
	}
	cam := c.scene.Camera()
	cx, cy := r.Center()
	zoom := min(cam.Viewport.Width/r.Width, cam.Viewport.Height/r.Height)
	cam.ScrollTo(cx, cy, focusDuration, ease.OutCubic)
	cam.ZoomTo(zoom, focusDuration, ease.OutCubic)
}
