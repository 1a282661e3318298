package storyboard

import (
	"context"
	"fmt"

	"github.com/phanxgames/storyboard/stage"
)

// Layering is a z-order change of one node among its siblings.
type Layering uint8

const (
	LayerForward Layering = iota
	LayerBackward
	LayerToFront
	LayerToBack
)

func (l Layering) String() string {
	switch l {
	case LayerForward:
		return "forward"
	case LayerBackward:
		return "backward"
	case LayerToFront:
		return "to_front"
	case LayerToBack:
		return "to_back"
	}
	return fmt.Sprintf("Layering(%d)", uint8(l))
}

// addTopLevel builds n, appends it to the layer and the state and records an
// Add. n receives whatever the factory recorded on it.
func (c *Canvas) addTopLevel(ctx context.Context, n *CNode) (*stage.Node, error) {
	ln, err := c.factory.Build(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("add %s: %w", n.Kind, err)
	}
	c.layer.AddChild(ln)

	app := append(c.history.App(), n.Clone())
	sorting := c.history.Sorting()
	if len(sorting) > 0 {
		sorting = append(sorting, n.Attrs.ID)
	}
	c.history.Update(app, sorting, NewAdd(ParentLayer, n))
	c.scene.BatchDraw()
	c.log.Debug("add", "id", n.Attrs.ID, "kind", n.Kind)
	return ln, nil
}

// addChild builds n inside the page or bubble parentID and records an Add.
// A text child without a position is centered.
func (c *Canvas) addChild(ctx context.Context, parentID string, n *CNode) (*stage.Node, error) {
	handle, err := c.lookup(parentID)
	if err != nil {
		return nil, fmt.Errorf("add to %s: %w", parentID, err)
	}
	app := c.history.App()
	p, _ := app.Find(parentID)
	if p == nil || !p.Kind.Container() || handle.NumChildren() < 2 {
		return nil, fmt.Errorf("add to %s: %w", parentID, ErrInvalidNode)
	}
	if n.Kind == KindText && n.Attrs.X == 0 {
		c.factory.centerText(n, p)
	}
	ln, err := c.factory.build(ctx, n, parentID)
	if err != nil {
		return nil, fmt.Errorf("add %s to %s: %w", n.Kind, parentID, err)
	}
	handle.ChildAt(1).AddChild(ln)

	p.Children = append(p.Children, n.Clone())
	if len(p.ChildSorting) > 0 {
		p.ChildSorting = append(p.ChildSorting, n.Attrs.ID)
	}
	c.history.Update(app, nil, NewAdd(parentID, n))
	c.scene.BatchDraw()
	c.log.Debug("add", "id", n.Attrs.ID, "kind", n.Kind, "parent", parentID)
	return ln, nil
}

// AddChild adds n to the page or bubble parentID.
func (c *Canvas) AddChild(ctx context.Context, parentID string, n *CNode) error {
	if err := n.Validate(); err != nil {
		return err
	}
	_, err := c.addChild(ctx, parentID, n)
	return err
}

// Delete hides the node and records a Remove carrying its prior state.
// Deleting a hidden node does nothing.
func (c *Canvas) Delete(id string) error {
	app := c.history.App()
	n, parent := app.Find(id)
	if n == nil {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	if !n.Visible() {
		return nil
	}
	ln, err := c.lookup(id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	before := n.Clone()
	ln.Visible = false
	n.State = Hidden
	parentID := ParentLayer
	if parent != nil {
		parentID = parent.Attrs.ID
	}
	if c.selection != nil && c.selection.ID == id {
		c.ClearSelection()
	}
	c.history.Update(app, nil, NewRemove(parentID, before))
	c.scene.BatchDraw()
	c.log.Debug("delete", "id", id, "kind", n.Kind)
	return nil
}

// DeleteSelected deletes the selected node.
func (c *Canvas) DeleteSelected() error {
	if c.selection == nil {
		return ErrNoSelection
	}
	return c.Delete(c.selection.ID)
}

// Duplicate copies the node with fresh ids, offset from the original, into
// the same parent, and selects the copy.
func (c *Canvas) Duplicate(ctx context.Context, id string) (*CNode, error) {
	src, parentID := c.history.Find(id)
	if src == nil {
		return nil, fmt.Errorf("duplicate %s: %w", id, ErrNotFound)
	}
	dup := src.Clone()
	dup.State = Active
	reassignIDs(dup)
	off := c.cfg.Canvas.DuplicateOffset
	dup.Attrs.X += off
	dup.Attrs.Y += off
	if err := c.insert(ctx, parentID, dup); err != nil {
		return nil, err
	}
	if err := c.Select(dup.Attrs.ID); err != nil {
		return nil, err
	}
	out, _ := c.history.Find(dup.Attrs.ID)
	return out, nil
}

// DuplicateSelected duplicates the selected node.
func (c *Canvas) DuplicateSelected(ctx context.Context) (*CNode, error) {
	if c.selection == nil {
		return nil, ErrNoSelection
	}
	return c.Duplicate(ctx, c.selection.ID)
}

func (c *Canvas) insert(ctx context.Context, parentID string, n *CNode) error {
	var err error
	if parentID == ParentLayer || parentID == "" {
		_, err = c.addTopLevel(ctx, n)
	} else {
		_, err = c.addChild(ctx, parentID, n)
	}
	return err
}

// reassignIDs gives n and every descendant a fresh id. Child ordering is
// remapped so the copy paints its children in the same order.
func reassignIDs(n *CNode) {
	n.Attrs.ID = NewID()
	if len(n.Children) == 0 {
		n.ChildSorting = nil
		return
	}
	remap := make(map[string]string, len(n.Children))
	for _, ch := range n.Children {
		old := ch.Attrs.ID
		reassignIDs(ch)
		remap[old] = ch.Attrs.ID
	}
	if len(n.ChildSorting) == 0 {
		return
	}
	sorting := make([]string, 0, len(n.ChildSorting))
	for _, id := range n.ChildSorting {
		if v, ok := remap[id]; ok {
			sorting = append(sorting, v)
		}
	}
	n.ChildSorting = sorting
}

// Reorder changes the z-order of a node among its siblings and records a
// Move. It reports false when the node was already at the limit.
func (c *Canvas) Reorder(id string, l Layering) (bool, error) {
	ln, err := c.lookup(id)
	if err != nil {
		return false, fmt.Errorf("reorder %s: %w", id, err)
	}
	oldZ := ln.ZIndex()
	var moved bool
	switch l {
	case LayerForward:
		moved = ln.MoveUp()
	case LayerBackward:
		moved = ln.MoveDown()
	case LayerToFront:
		moved = ln.MoveToTop()
	case LayerToBack:
		moved = ln.MoveToBottom()
	}
	if !moved {
		return false, nil
	}
	newZ := ln.ZIndex()
	order := siblingOrder(ln.Parent)

	app := c.history.App()
	n, parent := app.Find(id)
	if n == nil {
		return false, fmt.Errorf("reorder %s: %w", id, ErrNotFound)
	}
	if parent == nil {
		c.history.Update(app, order, NewMove(ParentLayer, n, oldZ, newZ))
	} else {
		parent.ChildSorting = order
		c.history.Update(app, nil, NewMove(parent.Attrs.ID, n, oldZ, newZ))
	}
	c.scene.BatchDraw()
	c.log.Debug("reorder", "id", id, "layering", l, "from", oldZ, "to", newZ)
	return true, nil
}

// ReorderSelected reorders the selected node.
func (c *Canvas) ReorderSelected(l Layering) (bool, error) {
	if c.selection == nil {
		return false, ErrNoSelection
	}
	return c.Reorder(c.selection.ID, l)
}

// siblingOrder reads the logical ids of the children of p in paint order.
func siblingOrder(p *stage.Node) []string {
	if p == nil {
		return nil
	}
	ids := make([]string, 0, p.NumChildren())
	for _, ch := range p.Children() {
		ids = append(ids, LogicalID(ch.ID))
	}
	return ids
}

// UpdateElement edits the style, text, image and box size of a node through
// fn and records an AttrChange. Position, scale, rotation, children and
// lifecycle are restored after fn; they change through other operations.
func (c *Canvas) UpdateElement(ctx context.Context, id string, fn func(n *CNode)) error {
	app := c.history.App()
	n, _ := app.Find(id)
	if n == nil {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	before := n.Clone()
	fn(n)
	g := before.Attrs
	g.Name = n.Attrs.Name
	g.Width, g.Height = n.Attrs.Width, n.Attrs.Height
	n.Attrs = g
	n.Kind = before.Kind
	n.Children, n.ChildSorting, n.State = before.Children, before.ChildSorting, before.State
	if err := n.Validate(); err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	if err := c.applyAttrs(ctx, n, before); err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	c.history.Update(app, nil, NewAttrChange(before, n))
	c.scene.BatchDraw()
	c.refreshSelection()
	return nil
}

// SetStyle replaces the paint of a node.
func (c *Canvas) SetStyle(ctx context.Context, id string, st Style) error {
	return c.UpdateElement(ctx, id, func(n *CNode) {
		s := st
		s.Dash = append([]float64(nil), st.Dash...)
		n.Style = &s
	})
}
