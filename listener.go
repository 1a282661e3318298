package storyboard

import (
	"github.com/phanxgames/storyboard/stage"
	"github.com/yohamta/donburi"
)

// attach registers a freshly built live handle and wires its transform
// listener. The listener only queues an event; the reducer runs later
// against whatever state is current then.
func (c *Canvas) attach(ln *stage.Node) {
	ref, ok := RefOf(ln)
	if !ok {
		return
	}
	c.live[ref.ID] = ln
	ln.OnTransformEnd = func(tc stage.TransformContext) {
		transformEndedEvent.Publish(c.world, transformEnded{node: tc.Node, kind: tc.Kind})
	}
}

// lookup returns the registered live handle for a logical id: the outer
// group of a page or bubble, the bare object otherwise.
func (c *Canvas) lookup(id string) (*stage.Node, error) {
	ln, ok := c.live[id]
	if !ok || ln.IsDisposed() {
		return nil, ErrLiveObjectMissing
	}
	return ln, nil
}

// onTransformEnded writes the live geometry of a released node back into
// the state and records a Transform.
func (c *Canvas) onTransformEnded(_ donburi.World, e transformEnded) {
	if e.node == nil || e.node.IsDisposed() {
		return
	}
	ref, ok := RefOf(e.node)
	if !ok {
		return
	}
	app := c.history.App()
	var target *CNode
	if ref.Container != "" {
		if p, _ := app.Find(ref.Container); p != nil {
			target = p.Child(ref.ID)
		}
	} else {
		for _, n := range app {
			if n.Attrs.ID == ref.ID {
				target = n
				break
			}
		}
	}
	if target == nil {
		c.log.Warn("transform of unknown node", "id", ref.ID, "container", ref.Container)
		return
	}

	old := target.Clone()
	writeGeometry(target, e.node)
	c.history.Update(app, nil, NewTransform(old, target))
	c.log.Debug("transform", "id", ref.ID, "kind", e.kind, "x", target.Attrs.X, "y", target.Attrs.Y)
	c.refreshSelection()
}

// writeGeometry copies the live transform of ln onto n. Containers keep the
// box of their group; bare objects take the box of the live object, which
// covers the first transform of a node that never had a size.
func writeGeometry(n *CNode, ln *stage.Node) {
	g := &n.Attrs
	g.X, g.Y = ln.X, ln.Y
	g.ScaleX, g.ScaleY = ln.ScaleX, ln.ScaleY
	g.SkewX, g.SkewY = ln.SkewX, ln.SkewY
	g.Rotation = ln.Rotation
	if n.Kind.Container() {
		g.Width, g.Height = ln.Width, ln.Height
		return
	}
	g.Width, g.Height = ln.Size()
}
