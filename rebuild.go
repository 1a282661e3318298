package storyboard

import (
	"context"

	"github.com/phanxgames/storyboard/stage"
)

// Rebuild destroys the live layer and recreates it from snap. Hidden nodes
// and nodes that fail to build are dropped, and the canonical state is
// replaced with what was actually built, in paint order with an empty
// sorting. The undo and redo stacks are kept.
func (c *Canvas) Rebuild(ctx context.Context, snap Snapshot) {
	c.rebuild(ctx, snap, false)
	c.scene.BatchDraw()
}

// resyncLive rebuilds the live layer from the canonical state after a live
// apply failed. Hidden nodes are built as hidden live objects so their Add
// and Remove diffs stay replayable; diffs naming a node that could not be
// built are dropped from both stacks.
func (c *Canvas) resyncLive(ctx context.Context) {
	c.rebuild(ctx, c.history.Snapshot(), true)
	dropped := c.history.Filter(func(d Diff) bool {
		_, err := c.lookup(d.TargetID())
		return err == nil
	})
	if dropped > 0 {
		c.log.Warn("dropped history of unbuildable nodes", "diffs", dropped)
	}
	c.scene.BatchDraw()
}

func (c *Canvas) rebuild(ctx context.Context, snap Snapshot, keepHidden bool) {
	c.CancelTextEdit()
	c.ClearSelection()
	c.layer.DestroyChildren()
	clear(c.live)
	c.factory.keepHidden = keepHidden
	defer func() { c.factory.keepHidden = false }()

	var built AppState
	for _, n := range snap.App.Order(snap.Sorting) {
		if n == nil || (!n.Visible() && !keepHidden) {
			continue
		}
		n = n.Clone()
		ln, err := c.factory.Build(ctx, n)
		if err != nil {
			c.log.Warn("skip node", "id", n.Attrs.ID, "kind", n.Kind, "err", err)
			continue
		}
		c.layer.AddChild(ln)
		built = append(built, n)
	}
	c.log.Debug("rebuild", "nodes", len(built), "of", len(snap.App))
	c.history.Reset(built, nil)
}

// Derive reads the state back from the live layer: top-level nodes in paint
// order with their live geometry, lifecycle and child order. Payloads the
// live scene does not carry are taken from the canonical state.
func (c *Canvas) Derive() Snapshot {
	app := c.history.App()
	var out AppState
	for _, ln := range c.layer.Children() {
		ref, ok := RefOf(ln)
		if !ok {
			continue
		}
		n, _ := app.Find(ref.ID)
		if n == nil {
			continue
		}
		deriveNode(n, ln)
		if n.Kind.Container() && ln.NumChildren() > 1 {
			deriveChildren(n, ln.ChildAt(1))
		}
		out = append(out, n)
	}
	return Snapshot{App: out}
}

// deriveNode copies live geometry and visibility onto n. A bare object
// without an explicit live box keeps the size recorded in state.
func deriveNode(n *CNode, ln *stage.Node) {
	w, h := n.Attrs.Width, n.Attrs.Height
	writeGeometry(n, ln)
	if !n.Kind.Container() {
		n.Attrs.Width, n.Attrs.Height = w, h
		if ln.Width > 0 {
			n.Attrs.Width = ln.Width
		}
		if ln.Height > 0 {
			n.Attrs.Height = ln.Height
		}
	}
	if ln.Visible {
		n.State = Active
	} else {
		n.State = Hidden
	}
}

// deriveChildren reads the live children of a container wrapper. The child
// order is written back only when the node already had an explicit one.
func deriveChildren(n *CNode, wrap *stage.Node) {
	var (
		kept  []*CNode
		order []string
	)
	for _, cl := range wrap.Children() {
		ref, ok := RefOf(cl)
		if !ok {
			continue
		}
		ch := n.Child(ref.ID)
		if ch == nil {
			continue
		}
		deriveNode(ch, cl)
		kept = append(kept, ch)
		order = append(order, ch.Attrs.ID)
	}
	byID := make(map[string]*CNode, len(kept))
	for _, ch := range kept {
		byID[ch.Attrs.ID] = ch
	}
	children := make([]*CNode, 0, len(kept))
	for _, ch := range n.Children {
		if byID[ch.Attrs.ID] != nil {
			children = append(children, ch)
		}
	}
	n.Children = children
	if len(n.ChildSorting) > 0 {
		n.ChildSorting = order
	}
}
