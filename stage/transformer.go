package stage

import "math"

// Anchor identifies a transformer handle.
type Anchor uint8

const (
	AnchorNone Anchor = iota
	AnchorTopLeft
	AnchorTop
	AnchorTopRight
	AnchorRight
	AnchorBottomRight
	AnchorBottom
	AnchorBottomLeft
	AnchorLeft
	AnchorRotate
)

const (
	defaultHandleSize   = 10.0 // screen pixels
	defaultRotateOffset = 40.0 // screen pixels above the top edge
	defaultMinBoxSize   = 4.0  // local units
)

// Transformer is the resize/rotate handle affordance. It is attached to at
// most one node at a time.
type Transformer struct {
	// HandleSize is the side of a square handle in screen pixels.
	HandleSize float64
	// RotateOffset is the distance of the rotate handle above the box.
	RotateOffset float64
	// MinSize is the smallest box a resize can produce.
	MinSize float64
	// RotateEnabled shows the rotate handle.
	RotateEnabled bool

	target *Node
	active Anchor

	startLocal    [6]float64
	startParent   [6]float64
	startInv      [6]float64
	startW        float64
	startH        float64
	startScaleX   float64
	startScaleY   float64
	startCenterPX float64
	startCenterPY float64
}

func newTransformer() *Transformer {
	return &Transformer{
		HandleSize:    defaultHandleSize,
		RotateOffset:  defaultRotateOffset,
		MinSize:       defaultMinBoxSize,
		RotateEnabled: true,
	}
}

// Attach shows handles around n, replacing any previous attachment.
func (t *Transformer) Attach(n *Node) {
	t.target = n
	t.active = AnchorNone
}

// Detach hides the handles.
func (t *Transformer) Detach() {
	t.target = nil
	t.active = AnchorNone
}

// Target returns the attached node, or nil.
func (t *Transformer) Target() *Node {
	if t.target != nil && t.target.IsDisposed() {
		t.target = nil
	}
	return t.target
}

// Active reports whether a handle is being dragged.
func (t *Transformer) Active() bool {
	return t.active != AnchorNone
}

// anchorLocal returns the local-space position of a box anchor.
func anchorLocal(a Anchor, w, h float64) (float64, float64) {
	switch a {
	case AnchorTopLeft:
		return 0, 0
	case AnchorTop:
		return w / 2, 0
	case AnchorTopRight:
		return w, 0
	case AnchorRight:
		return w, h / 2
	case AnchorBottomRight:
		return w, h
	case AnchorBottom:
		return w / 2, h
	case AnchorBottomLeft:
		return 0, h
	case AnchorLeft:
		return 0, h / 2
	}
	return w / 2, h / 2
}

// HandlePositions returns the screen-space center of every visible handle.
func (t *Transformer) HandlePositions(cam *Camera) map[Anchor]Vec2 {
	n := t.Target()
	if n == nil || !effectivelyVisible(n) {
		return nil
	}
	w, h := n.Size()
	m := n.WorldTransform()
	out := make(map[Anchor]Vec2, 9)
	for a := AnchorTopLeft; a <= AnchorLeft; a++ {
		lx, ly := anchorLocal(a, w, h)
		wx, wy := transformPoint(m, lx, ly)
		sx, sy := cam.WorldToScreen(wx, wy)
		out[a] = Vec2{sx, sy}
	}
	if t.RotateEnabled {
		top := out[AnchorTop]
		cwx, cwy := transformPoint(m, w/2, h/2)
		csx, csy := cam.WorldToScreen(cwx, cwy)
		dx, dy := top.X-csx, top.Y-csy
		d := math.Hypot(dx, dy)
		if d > 0 {
			out[AnchorRotate] = Vec2{top.X + dx/d*t.RotateOffset, top.Y + dy/d*t.RotateOffset}
		}
	}
	return out
}

// anchorAt returns the handle under screen point (sx, sy).
func (t *Transformer) anchorAt(sx, sy float64, cam *Camera) Anchor {
	half := t.HandleSize / 2
	pos := t.HandlePositions(cam)
	for a := AnchorRotate; a > AnchorNone; a-- {
		p, ok := pos[a]
		if ok && math.Abs(sx-p.X) <= half && math.Abs(sy-p.Y) <= half {
			return a
		}
	}
	return AnchorNone
}

// begin records the target's geometry at handle press.
func (t *Transformer) begin(a Anchor, wx, wy float64) {
	n := t.target
	t.active = a
	t.startLocal = computeLocalTransform(n)
	t.startParent = identityTransform
	if n.Parent != nil {
		t.startParent = n.Parent.WorldTransform()
	}
	t.startInv = invertAffine(multiplyAffine(t.startParent, t.startLocal))
	t.startW, t.startH = n.Size()
	t.startScaleX, t.startScaleY = n.ScaleX, n.ScaleY
	t.startCenterPX, t.startCenterPY = transformPoint(t.startLocal, t.startW/2, t.startH/2)
}

// drag updates the target for a pointer at world (wx, wy).
func (t *Transformer) drag(wx, wy float64) {
	if t.active == AnchorRotate {
		t.rotate(wx, wy)
		return
	}
	t.resize(wx, wy)
}

func (t *Transformer) resize(wx, wy float64) {
	n := t.target
	w, h := t.startW, t.startH
	lx, ly := transformPoint(t.startInv, wx, wy)

	left, top, right, bottom := 0.0, 0.0, w, h
	switch t.active {
	case AnchorTopLeft, AnchorLeft, AnchorBottomLeft:
		left = math.Min(lx, right-t.MinSize)
	case AnchorTopRight, AnchorRight, AnchorBottomRight:
		right = math.Max(lx, left+t.MinSize)
	}
	switch t.active {
	case AnchorTopLeft, AnchorTop, AnchorTopRight:
		top = math.Min(ly, bottom-t.MinSize)
	case AnchorBottomLeft, AnchorBottom, AnchorBottomRight:
		bottom = math.Max(ly, top+t.MinSize)
	}
	nw, nh := right-left, bottom-top

	n.X, n.Y = transformPoint(t.startLocal, left, top)
	switch n.Resize {
	case ResizeBox:
		n.Width, n.Height = nw, nh
		if n.OnResize != nil {
			n.OnResize(n)
		}
	default:
		if w > 0 {
			n.ScaleX = t.startScaleX * nw / w
		}
		if h > 0 {
			n.ScaleY = t.startScaleY * nh / h
		}
	}
}

func (t *Transformer) rotate(wx, wy float64) {
	n := t.target
	px, py := transformPoint(invertAffine(t.startParent), wx, wy)
	n.Rotation = math.Atan2(py-t.startCenterPY, px-t.startCenterPX) + math.Pi/2

	// Keep the box center fixed in the parent.
	n.X, n.Y = 0, 0
	ox, oy := transformPoint(computeLocalTransform(n), t.startW/2, t.startH/2)
	n.X = t.startCenterPX - ox
	n.Y = t.startCenterPY - oy
}

// end finishes the active handle drag.
func (t *Transformer) end() TransformKind {
	kind := TransformResize
	if t.active == AnchorRotate {
		kind = TransformRotate
	}
	t.active = AnchorNone
	return kind
}
