package storyboard

import (
	"context"
	"fmt"
	"image"

	"github.com/phanxgames/storyboard/stage"
)

// applyDiff patches the live scene for one diff in one direction without
// rebuilding. The state side is handled by History. It always schedules a
// single redraw.
func (c *Canvas) applyDiff(ctx context.Context, d Diff, dir Direction) error {
	var err error
	switch d := d.(type) {
	case *AttrChange:
		err = c.applyAttrs(ctx, pick(dir, d.Old, d.New), pick(dir, d.New, d.Old))
	case *Transform:
		err = c.applyTransform(pick(dir, d.Old, d.New))
	case *Add:
		err = c.setLiveVisible(d.Node.Attrs.ID, dir == DirRedo)
	case *Remove:
		err = c.setLiveVisible(d.Node.Attrs.ID, dir == DirUndo)
	case *Move:
		err = c.applyMove(d, dir)
	}
	c.scene.BatchDraw()
	if err != nil {
		return fmt.Errorf("%s %s %s: %w", dir, DiffType(d), d.TargetID(), err)
	}
	return nil
}

// bare returns the primary live object of a node: the page rect or bubble
// artwork inside a container group, the handle itself otherwise.
func bare(handle *stage.Node, n *CNode) *stage.Node {
	if !n.Kind.Container() {
		return handle
	}
	if handle.NumChildren() == 0 {
		return nil
	}
	return handle.ChildAt(0)
}

// applyAttrs sets the patchable attributes of target on the live object.
// from is the other side of the diff and decides whether pixels reload.
func (c *Canvas) applyAttrs(ctx context.Context, target, from *CNode) error {
	handle, err := c.lookup(target.Attrs.ID)
	if err != nil {
		return err
	}
	ln := bare(handle, target)
	if ln == nil {
		return ErrLiveObjectMissing
	}
	st := styleOf(target)
	resized := false
	for _, f := range patchable(target.Kind) {
		switch f {
		case fieldWidth:
			if target.Attrs.Width > 0 {
				resized = resized || ln.Width != target.Attrs.Width
				ln.Width = target.Attrs.Width
			}
		case fieldHeight:
			if target.Attrs.Height > 0 {
				resized = resized || ln.Height != target.Attrs.Height
				ln.Height = target.Attrs.Height
			}
		case fieldFill:
			if target.Style != nil {
				ln.Fill = colorOr(st.Fill, fillDefault(target.Kind))
			}
		case fieldStroke:
			if target.Style != nil && st.Stroke != "" {
				ln.Stroke = stage.MustColor(st.Stroke, ln.Stroke)
			}
		case fieldStrokeWidth:
			if target.Style != nil && target.Kind != KindMarkArea {
				resized = resized || ln.StrokeWidth != st.StrokeWidth
				ln.StrokeWidth = st.StrokeWidth
			}
		case fieldFontSize:
			if target.Text != nil && target.Text.FontSize > 0 {
				ln.Text.FontSize = target.Text.FontSize
			}
		case fieldFontFamily:
			if target.Text != nil && target.Text.FontFamily != "" {
				ln.Text.FontFamily = target.Text.FontFamily
			}
		case fieldAlign:
			if target.Text != nil && target.Text.Align != "" {
				ln.Text.Align = stage.ParseAlign(target.Text.Align)
			}
		}
	}

	switch target.Kind {
	case KindText:
		if target.Text != nil {
			ln.Text.Content = target.Text.Content
		}
	case KindImage:
		if from == nil || target.DisplayURL() != from.DisplayURL() || imageIndex(target) != imageIndex(from) {
			c.reloadPixels(ctx, target.Attrs.ID, target.DisplayURL())
		}
	}
	if target.Kind.Container() && resized {
		handle.Width, handle.Height = ln.Width, ln.Height
		layoutContainer(handle)
	}
	return nil
}

func fillDefault(k Kind) stage.Color {
	if k == KindText {
		return stage.ColorBlack
	}
	return stage.ColorTransparent
}

func imageIndex(n *CNode) int {
	if n.Image == nil {
		return 0
	}
	return n.Image.Index
}

// reloadPixels loads url off the game loop. The pixels are swapped in when
// the load completes and the node still shows url; a failed load keeps the
// current pixels.
func (c *Canvas) reloadPixels(ctx context.Context, id, url string) {
	c.jobs.Add(1)
	go func() {
		defer c.jobs.Done()
		img, err := c.factory.loadImage(ctx, url)
		c.post(ctx, func() { c.swapPixels(id, url, img, err) })
	}()
}

func (c *Canvas) swapPixels(id, url string, img image.Image, err error) {
	n, _ := c.history.Find(id)
	if n == nil || n.DisplayURL() != url {
		c.log.Debug("reload superseded", "id", id, "url", url)
		return
	}
	if err != nil {
		c.log.Warn("reload image", "id", id, "url", url, "err", err)
		return
	}
	ln, err := c.lookup(id)
	if err != nil {
		return
	}
	ln.Image = img
	c.scene.BatchDraw()
}

// applyTransform blind-sets the geometry of target on its live handle.
func (c *Canvas) applyTransform(target *CNode) error {
	ln, err := c.lookup(target.Attrs.ID)
	if err != nil {
		return err
	}
	applyGeometry(ln, target.Attrs)
	ln.Width, ln.Height = target.Attrs.Width, target.Attrs.Height
	if target.Kind.Container() {
		layoutContainer(ln)
	}
	return nil
}

// setLiveVisible shows or hides a live handle. Hiding the selected object
// clears the selection.
func (c *Canvas) setLiveVisible(id string, visible bool) error {
	ln, err := c.lookup(id)
	if err != nil {
		return err
	}
	ln.Visible = visible
	if !visible && c.selection != nil && c.selection.ID == id {
		c.ClearSelection()
	}
	return nil
}

// applyMove sets the recorded sibling index, clamped to the current range.
func (c *Canvas) applyMove(d *Move, dir Direction) error {
	ln, err := c.lookup(d.Ref.ID)
	if err != nil {
		return err
	}
	z := d.NewZ
	if dir == DirUndo {
		z = d.OldZ
	}
	ln.SetZIndex(z)
	return nil
}
