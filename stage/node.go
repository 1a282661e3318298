package stage

import (
	"image"
)

// PointerContext carries pointer event data.
type PointerContext struct {
	Node      *Node
	Ref       any
	GlobalX   float64
	GlobalY   float64
	ScreenX   float64
	ScreenY   float64
	LocalX    float64
	LocalY    float64
	Button    MouseButton
	PointerID int
	Modifiers KeyModifiers
}

// ClickContext carries click and double-click event data.
type ClickContext struct {
	Node      *Node
	Ref       any
	GlobalX   float64
	GlobalY   float64
	ScreenX   float64
	ScreenY   float64
	Button    MouseButton
	PointerID int
	Modifiers KeyModifiers
}

// DragContext carries drag event data. Deltas are in world units; the
// Screen deltas are in pixels and stay valid while the camera pans.
type DragContext struct {
	Node         *Node
	Ref          any
	GlobalX      float64
	GlobalY      float64
	ScreenX      float64
	ScreenY      float64
	StartX       float64
	StartY       float64
	DeltaX       float64
	DeltaY       float64
	ScreenDeltaX float64
	ScreenDeltaY float64
	Button       MouseButton
	PointerID    int
	Modifiers    KeyModifiers
}

// PinchContext carries pinch gesture data in screen space.
type PinchContext struct {
	CenterX, CenterY  float64
	Scale, ScaleDelta float64
}

// WheelContext carries mouse wheel data.
type WheelContext struct {
	ScreenX, ScreenY float64
	GlobalX, GlobalY float64
	DeltaX, DeltaY   float64
	Modifiers        KeyModifiers
}

// TransformKind says which interaction produced a TransformContext.
type TransformKind uint8

const (
	TransformDrag TransformKind = iota
	TransformResize
	TransformRotate
)

// TransformContext is passed to OnTransformEnd after an interactive move,
// resize or rotate has been released.
type TransformContext struct {
	Node *Node
	Kind TransformKind
}

// Node is the fundamental scene graph element. A single flat struct is used for
// all node types to avoid interface dispatch on the hot path.
type Node struct {
	// Identity
	ID   string
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local)
	X, Y         float64
	ScaleX       float64
	ScaleY       float64
	Rotation     float64
	SkewX, SkewY float64

	// Box size. Zero means "derive from content" for images and text.
	Width, Height float64

	// Visibility & interaction
	Visible   bool
	Listening bool
	Draggable bool
	Resize    ResizeMode

	// Paint
	Fill        Color
	Stroke      Color
	StrokeWidth float64
	Dash        []float64

	// Image fields (NodeTypeImage)
	Image image.Image

	// Text fields (NodeTypeText)
	Text *TextRun

	// Clip, in local coordinates, applied to this node's children.
	Clip *Rect

	// Ref is an opaque back-reference owned by the caller.
	Ref any

	// Per-node callbacks (nil by default)
	OnPointerDown  func(PointerContext)
	OnPointerUp    func(PointerContext)
	OnClick        func(ClickContext)
	OnDblClick     func(ClickContext)
	OnDragStart    func(DragContext)
	OnDrag         func(DragContext)
	OnDragEnd      func(DragContext)
	OnTransformEnd func(TransformContext)
	// OnResize fires while the transformer changes Width/Height of a
	// ResizeBox node, so owners can lay out dependents.
	OnResize func(*Node)

	disposed bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ScaleX = 1
	n.ScaleY = 1
	n.Visible = true
	n.Listening = true
}

// NewGroup creates a container node with no visual representation.
func NewGroup(id string) *Node {
	n := &Node{ID: id, Type: NodeTypeGroup}
	nodeDefaults(n)
	return n
}

// NewRect creates a rectangle of the given size.
func NewRect(id string, w, h float64) *Node {
	n := &Node{ID: id, Type: NodeTypeRect, Width: w, Height: h}
	nodeDefaults(n)
	return n
}

// NewImage creates an image node. A zero box uses the image's pixel size.
func NewImage(id string, img image.Image) *Node {
	n := &Node{ID: id, Type: NodeTypeImage, Image: img}
	nodeDefaults(n)
	return n
}

// NewText creates a text node with the given run.
func NewText(id string, run *TextRun) *Node {
	if run == nil {
		run = &TextRun{}
	}
	n := &Node{ID: id, Type: NodeTypeText, Text: run, Fill: ColorBlack}
	nodeDefaults(n)
	return n
}

// Size returns the node's box in local units.
func (n *Node) Size() (w, h float64) {
	switch n.Type {
	case NodeTypeImage:
		if n.Width > 0 || n.Height > 0 || n.Image == nil {
			return n.Width, n.Height
		}
		b := n.Image.Bounds()
		return float64(b.Dx()), float64(b.Dy())
	case NodeTypeText:
		tw, th := n.Text.Measure()
		if n.Width > 0 {
			tw = n.Width
		}
		return tw, th
	default:
		return n.Width, n.Height
	}
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("stage: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("stage: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	if child == nil {
		panic("stage: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("stage: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	if index < 0 || index > len(n.children) {
		panic("stage: child index out of range")
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("stage: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Find returns the first node in this subtree (including n) with the given
// id, or nil.
func (n *Node) Find(id string) *Node {
	if n.ID == id {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Walk calls fn for n and every descendant in paint order. Returning false
// from fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// --- Z-order ---

// ZIndex returns the node's position among its siblings, or 0 without a parent.
func (n *Node) ZIndex() int {
	if n.Parent == nil {
		return 0
	}
	for i, c := range n.Parent.children {
		if c == n {
			return i
		}
	}
	return 0
}

// SetZIndex moves the node to index among its siblings. Out-of-range indexes
// are clamped. Returns the index actually applied.
func (n *Node) SetZIndex(index int) int {
	p := n.Parent
	if p == nil {
		return 0
	}
	last := len(p.children) - 1
	if index < 0 {
		index = 0
	}
	if index > last {
		index = last
	}
	p.setChildIndex(n, index)
	return index
}

// MoveUp swaps the node with its next sibling. Reports whether it moved.
func (n *Node) MoveUp() bool {
	if n.Parent == nil {
		return false
	}
	z := n.ZIndex()
	if z >= len(n.Parent.children)-1 {
		return false
	}
	n.Parent.setChildIndex(n, z+1)
	return true
}

// MoveDown swaps the node with its previous sibling. Reports whether it moved.
func (n *Node) MoveDown() bool {
	if n.Parent == nil {
		return false
	}
	z := n.ZIndex()
	if z == 0 {
		return false
	}
	n.Parent.setChildIndex(n, z-1)
	return true
}

// MoveToTop paints the node above all its siblings. Reports whether it moved.
func (n *Node) MoveToTop() bool {
	if n.Parent == nil {
		return false
	}
	last := len(n.Parent.children) - 1
	if n.ZIndex() == last {
		return false
	}
	n.Parent.setChildIndex(n, last)
	return true
}

// MoveToBottom paints the node below all its siblings. Reports whether it moved.
func (n *Node) MoveToBottom() bool {
	if n.Parent == nil || n.ZIndex() == 0 {
		return false
	}
	n.Parent.setChildIndex(n, 0)
	return true
}

// setChildIndex moves child to a new index among its siblings.
func (n *Node) setChildIndex(child *Node, index int) {
	if child.Parent != n {
		panic("stage: child's parent is not this node")
	}
	if index < 0 || index >= len(n.children) {
		panic("stage: child index out of range")
	}
	oldIndex := -1
	for i, c := range n.children {
		if c == child {
			oldIndex = i
			break
		}
	}
	if oldIndex == index {
		return
	}
	// Shift elements to fill the gap and open the target slot.
	if oldIndex < index {
		copy(n.children[oldIndex:], n.children[oldIndex+1:index+1])
	} else {
		copy(n.children[index+1:], n.children[index:oldIndex])
	}
	n.children[index] = child
}

// --- Disposal ---

// Destroy removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants.
func (n *Node) Destroy() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

// DestroyChildren destroys every child of n.
func (n *Node) DestroyChildren() {
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = n.children[:0]
}

func (n *Node) dispose() {
	n.disposed = true
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.Image = nil
	n.Text = nil
	n.Clip = nil
	n.Ref = nil
	n.OnPointerDown = nil
	n.OnPointerUp = nil
	n.OnClick = nil
	n.OnDblClick = nil
	n.OnDragStart = nil
	n.OnDrag = nil
	n.OnDragEnd = nil
	n.OnTransformEnd = nil
	n.OnResize = nil
}

// IsDisposed returns true if this node has been destroyed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// effectivelyVisible reports whether n and all its ancestors are visible.
func effectivelyVisible(n *Node) bool {
	for p := n; p != nil; p = p.Parent {
		if !p.Visible {
			return false
		}
	}
	return true
}
