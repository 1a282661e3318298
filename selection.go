package storyboard

import (
	"fmt"

	"github.com/phanxgames/storyboard/stage"
)

// Selection describes the selected node for a property panel.
type Selection struct {
	Kind Kind
	ID   string
	// Parent is the id of the containing page or bubble, ParentLayer at the
	// top level.
	Parent string
	// Node is a copy of the current state of the node.
	Node *CNode
	// Origin is a copy of the node as it was when it was selected.
	Origin *CNode
	// Handle is the live object the transformer is attached to.
	Handle *stage.Node
}

// Selection returns the current selection, or nil.
func (c *Canvas) Selection() *Selection { return c.selection }

// Select selects the node with the given id.
func (c *Canvas) Select(id string) error {
	ln, err := c.lookup(id)
	if err != nil {
		return fmt.Errorf("select %s: %w", id, err)
	}
	if !ln.Visible {
		return fmt.Errorf("select %s: %w", id, ErrNotFound)
	}
	c.selectNode(ln)
	return nil
}

// selectNode resolves a hit live object to the handle of its logical node,
// which for page and bubble internals is the outer group, and attaches the
// transformer to it.
func (c *Canvas) selectNode(hit *stage.Node) {
	ref, ok := RefOf(hit)
	if !ok {
		c.ClearSelection()
		return
	}
	ln, err := c.lookup(ref.ID)
	if err != nil {
		c.log.Warn("select", "id", ref.ID, "err", err)
		c.ClearSelection()
		return
	}
	n, parent := c.history.Find(ref.ID)
	if n == nil {
		c.ClearSelection()
		return
	}
	c.selection = &Selection{
		Kind:   n.Kind,
		ID:     ref.ID,
		Parent: parent,
		Node:   n,
		Origin: n.Clone(),
		Handle: ln,
	}
	c.scene.Transformer().Attach(ln)
	c.scene.BatchDraw()
	c.log.Debug("select", "id", ref.ID, "kind", n.Kind)
	SelectionChangedEvent.Publish(c.world, SelectionChanged{Selection: c.selection})
}

// ClearSelection detaches the transformer and forgets the selection.
func (c *Canvas) ClearSelection() {
	c.scene.Transformer().Detach()
	if c.selection == nil {
		return
	}
	c.selection = nil
	c.scene.BatchDraw()
	SelectionChangedEvent.Publish(c.world, SelectionChanged{})
}

// refreshSelection re-reads the selected node after the state changed. The
// selection is dropped when the node is gone or hidden.
func (c *Canvas) refreshSelection() {
	s := c.selection
	if s == nil {
		return
	}
	n, _ := c.history.Find(s.ID)
	ln, err := c.lookup(s.ID)
	if n == nil || !n.Visible() || err != nil || !ln.Visible {
		c.ClearSelection()
		return
	}
	s.Node = n
	s.Handle = ln
	if c.scene.Transformer().Target() != ln {
		c.scene.Transformer().Attach(ln)
	}
	SelectionChangedEvent.Publish(c.world, SelectionChanged{Selection: s})
}
