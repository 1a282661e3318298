package storyboard

import (
	"fmt"
	"math"

	"github.com/phanxgames/storyboard/stage"
	"github.com/rivo/uniseg"
)

const caret = "|"

// EditorGeometry places a text input over the text being edited so that it
// looks like the rendered text.
type EditorGeometry struct {
	ID         string
	ScreenX    float64
	ScreenY    float64
	Scale      float64
	Rotation   float64
	FontFamily string
	FontSize   float64
	Align      string
	Value      string
}

type textEditor struct {
	id      string
	before  *CNode
	value   string
	target  *stage.Node
	preview *stage.Node
}

// Editing reports whether a text node is being edited.
func (c *Canvas) Editing() bool { return c.editor != nil }

// EditorValue returns the text being edited.
func (c *Canvas) EditorValue() string {
	if c.editor == nil {
		return ""
	}
	return c.editor.value
}

// BeginTextEdit opens the overlay editor on a text node. The live text is
// emptied while the overlay shows the value, so the two are never visible at
// once. Any other edit in progress is committed first.
func (c *Canvas) BeginTextEdit(id string) (EditorGeometry, error) {
	if c.editor != nil {
		c.CommitTextEdit()
	}
	ln, err := c.lookup(id)
	if err != nil {
		return EditorGeometry{}, fmt.Errorf("edit %s: %w", id, err)
	}
	n, _ := c.history.Find(id)
	if n == nil || n.Kind != KindText || ln.Text == nil {
		return EditorGeometry{}, fmt.Errorf("edit %s: %w", id, ErrInvalidNode)
	}
	if n.Text == nil {
		n.Text = &TextPayload{}
	}
	c.ClearSelection()

	m := ln.WorldTransform()
	wx, wy := ln.LocalToWorld(0, 0)
	scale := math.Hypot(m[0], m[1])
	rot := math.Atan2(m[1], m[0])

	src := ln.Text
	preview := stage.NewText("text-editor", &stage.TextRun{
		FontFamily: src.FontFamily,
		FontSize:   src.FontSize,
		Align:      src.Align,
		LineHeight: src.LineHeight,
		Fonts:      src.Fonts,
	})
	preview.X, preview.Y = wx, wy
	preview.ScaleX, preview.ScaleY = scale, scale
	preview.Rotation = rot
	preview.Width = ln.Width
	preview.Fill, preview.Stroke, preview.StrokeWidth = ln.Fill, ln.Stroke, ln.StrokeWidth
	preview.Listening = false
	c.overlay.AddChild(preview)

	c.editor = &textEditor{id: id, before: n, value: n.Text.Content, target: ln, preview: preview}
	ln.Text.Content = ""
	c.syncEditor()

	cam := c.scene.Camera()
	sx, sy := cam.WorldToScreen(wx, wy)
	return EditorGeometry{
		ID:         id,
		ScreenX:    sx,
		ScreenY:    sy,
		Scale:      scale * cam.Zoom,
		Rotation:   rot,
		FontFamily: n.Text.FontFamily,
		FontSize:   n.Text.FontSize,
		Align:      n.Text.Align,
		Value:      n.Text.Content,
	}, nil
}

func (c *Canvas) syncEditor() {
	c.editor.preview.Text.Content = c.editor.value + caret
	c.scene.BatchDraw()
}

// Insert appends s at the end of the value.
func (c *Canvas) Insert(s string) {
	if c.editor == nil || s == "" {
		return
	}
	c.editor.value += s
	c.syncEditor()
}

// Backspace removes the last user-perceived character.
func (c *Canvas) Backspace() {
	if c.editor == nil || c.editor.value == "" {
		return
	}
	c.editor.value = dropLastGrapheme(c.editor.value)
	c.syncEditor()
}

// SetValue replaces the value.
func (c *Canvas) SetValue(s string) {
	if c.editor == nil {
		return
	}
	c.editor.value = s
	c.syncEditor()
}

func dropLastGrapheme(s string) string {
	last := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		last, _ = g.Positions()
	}
	return s[:last]
}

func (c *Canvas) closeEditor() *textEditor {
	ed := c.editor
	c.editor = nil
	ed.preview.Destroy()
	c.scene.BatchDraw()
	return ed
}

// CommitTextEdit closes the editor and writes the value to the live text.
// An AttrChange is recorded only when the value changed. It reports whether
// one was recorded.
func (c *Canvas) CommitTextEdit() bool {
	if c.editor == nil {
		return false
	}
	ed := c.closeEditor()
	if ed.target.IsDisposed() {
		c.log.Warn("commit text", "id", ed.id, "err", ErrLiveObjectMissing)
		return false
	}
	ed.target.Text.Content = ed.value
	if ed.value == ed.before.Text.Content {
		return false
	}
	app := c.history.App()
	n, _ := app.Find(ed.id)
	if n == nil {
		c.log.Warn("commit text", "id", ed.id, "err", ErrNotFound)
		return false
	}
	if n.Text == nil {
		n.Text = &TextPayload{}
	}
	n.Text.Content = ed.value
	c.history.Update(app, nil, NewAttrChange(ed.before, n))
	c.log.Debug("edit text", "id", ed.id, "len", len(ed.value))
	return true
}

// CancelTextEdit closes the editor and restores the original text.
func (c *Canvas) CancelTextEdit() {
	if c.editor == nil {
		return
	}
	ed := c.closeEditor()
	if !ed.target.IsDisposed() {
		ed.target.Text.Content = ed.before.Text.Content
	}
}
