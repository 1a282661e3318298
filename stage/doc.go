// Package stage is a retained-mode 2D scene graph for canvas editors built on
// [Ebitengine].
//
// A [Scene] owns a tree of [Node] values rooted at [Scene.Root]. Nodes are
// groups, rectangles, images or text runs. Children inherit their parent's
// transform and are clipped by any ancestor group with a [Node.Clip].
//
//	scene := stage.NewScene(stage.Rect{Width: 1280, Height: 800})
//	panel := stage.NewGroup("group-p1")
//	panel.Width, panel.Height = 1024, 512
//	scene.Root().AddChild(panel)
//
// Sibling order is paint order. [Node.ZIndex] reports a node's position
// among its siblings and [Node.SetZIndex], [Node.MoveUp], [Node.MoveDown],
// [Node.MoveToTop] and [Node.MoveToBottom] change it.
//
// The scene runs a pointer state machine (press, release, click, double
// click, drag, pinch, wheel) with hit testing in reverse paint order. A
// [Camera] provides pan and zoom, and its scroll and zoom animations use
// [gween]. A [Transformer] attaches resize and rotate handles to one node at a
// time.
//
// Frames are rasterized in software with [gg] only when something requested
// a redraw ([Scene.BatchDraw]). The same [Rasterizer] exports any world
// rectangle to an image.
//
// Tests drive the scene without a window through [Scene.InjectPress],
// [Scene.InjectMove], [Scene.InjectRelease] and [Scene.Step].
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [gg]: https://github.com/fogleman/gg
package stage
