package stage

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Constants ---

const (
	maxPointers           = 10  // pointer 0 = mouse, 1-9 = touch
	defaultDragDeadZone   = 4.0 // pixels
	defaultDblClickFrames = 18  // ~300ms at 60 TPS
)

// --- Per-pointer state ---

type pointerState struct {
	down     bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	lastSX   float64
	lastSY   float64
	hitNode  *Node
	dragNode *Node // nearest draggable ancestor-or-self of hitNode
	dragging bool
	handle   Anchor // transformer anchor grabbed at press time
	button   MouseButton
}

// --- Pinch state ---

type pinchState struct {
	active      bool
	pointer0    int
	pointer1    int
	initialDist float64
	prevDist    float64
}

// --- Handler registry ---

type handler[C any] struct {
	id uint32
	fn func(C)
}

func removeHandler[C any](s []handler[C], id uint32) []handler[C] {
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = handler[C]{}
			return s[:len(s)-1]
		}
	}
	return s
}

type handlerRegistry struct {
	pointerDown []handler[PointerContext]
	pointerUp   []handler[PointerContext]
	pointerMove []handler[PointerContext]
	click       []handler[ClickContext]
	dblClick    []handler[ClickContext]
	dragStart   []handler[DragContext]
	drag        []handler[DragContext]
	dragEnd     []handler[DragContext]
	pinch       []handler[PinchContext]
	wheel       []handler[WheelContext]
	nextID      uint32
}

// CallbackHandle allows removing a registered scene-level callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case EventPointerDown:
		h.reg.pointerDown = removeHandler(h.reg.pointerDown, h.id)
	case EventPointerUp:
		h.reg.pointerUp = removeHandler(h.reg.pointerUp, h.id)
	case EventPointerMove:
		h.reg.pointerMove = removeHandler(h.reg.pointerMove, h.id)
	case EventClick:
		h.reg.click = removeHandler(h.reg.click, h.id)
	case EventDblClick:
		h.reg.dblClick = removeHandler(h.reg.dblClick, h.id)
	case EventDragStart:
		h.reg.dragStart = removeHandler(h.reg.dragStart, h.id)
	case EventDrag:
		h.reg.drag = removeHandler(h.reg.drag, h.id)
	case EventDragEnd:
		h.reg.dragEnd = removeHandler(h.reg.dragEnd, h.id)
	case EventPinch:
		h.reg.pinch = removeHandler(h.reg.pinch, h.id)
	case EventWheel:
		h.reg.wheel = removeHandler(h.reg.wheel, h.id)
	}
}

func register[C any](reg *handlerRegistry, list *[]handler[C], event EventType, fn func(C)) CallbackHandle {
	reg.nextID++
	id := reg.nextID
	*list = append(*list, handler[C]{id: id, fn: fn})
	return CallbackHandle{id: id, reg: reg, event: event}
}

// --- Scene-level event registration ---

// OnPointerDown registers a scene-level callback for pointer down events.
func (s *Scene) OnPointerDown(fn func(PointerContext)) CallbackHandle {
	return register(&s.handlers, &s.handlers.pointerDown, EventPointerDown, fn)
}

// OnPointerUp registers a scene-level callback for pointer up events.
func (s *Scene) OnPointerUp(fn func(PointerContext)) CallbackHandle {
	return register(&s.handlers, &s.handlers.pointerUp, EventPointerUp, fn)
}

// OnPointerMove registers a scene-level callback for pointer move events,
// both hovering and with a button held.
func (s *Scene) OnPointerMove(fn func(PointerContext)) CallbackHandle {
	return register(&s.handlers, &s.handlers.pointerMove, EventPointerMove, fn)
}

// OnClick registers a scene-level callback for click events. It also fires
// for clicks on empty canvas, with a nil Node.
func (s *Scene) OnClick(fn func(ClickContext)) CallbackHandle {
	return register(&s.handlers, &s.handlers.click, EventClick, fn)
}

// OnDblClick registers a scene-level callback for double-click events.
func (s *Scene) OnDblClick(fn func(ClickContext)) CallbackHandle {
	return register(&s.handlers, &s.handlers.dblClick, EventDblClick, fn)
}

// OnDragStart registers a scene-level callback for drag start events.
func (s *Scene) OnDragStart(fn func(DragContext)) CallbackHandle {
	return register(&s.handlers, &s.handlers.dragStart, EventDragStart, fn)
}

// OnDrag registers a scene-level callback for drag events.
func (s *Scene) OnDrag(fn func(DragContext)) CallbackHandle {
	return register(&s.handlers, &s.handlers.drag, EventDrag, fn)
}

// OnDragEnd registers a scene-level callback for drag end events.
func (s *Scene) OnDragEnd(fn func(DragContext)) CallbackHandle {
	return register(&s.handlers, &s.handlers.dragEnd, EventDragEnd, fn)
}

// OnPinch registers a scene-level callback for pinch events.
func (s *Scene) OnPinch(fn func(PinchContext)) CallbackHandle {
	return register(&s.handlers, &s.handlers.pinch, EventPinch, fn)
}

// OnWheel registers a scene-level callback for mouse wheel events.
func (s *Scene) OnWheel(fn func(WheelContext)) CallbackHandle {
	return register(&s.handlers, &s.handlers.wheel, EventWheel, fn)
}

// SetDragDeadZone sets the minimum movement in pixels before a drag starts.
func (s *Scene) SetDragDeadZone(pixels float64) {
	s.dragDeadZone = pixels
}

// SetNodeDragging enables or disables moving Draggable nodes with the pointer.
// Drag events still fire when disabled.
func (s *Scene) SetNodeDragging(enabled bool) {
	s.nodeDragging = enabled
}

// --- Hit testing ---

// nodeContainsLocal tests whether (lx, ly) falls inside a node's box.
func nodeContainsLocal(n *Node, lx, ly float64) bool {
	w, h := n.Size()
	if w == 0 && h == 0 {
		return false
	}
	return lx >= 0 && lx <= w && ly >= 0 && ly <= h
}

// clippedOut reports whether an ancestor clip excludes the world point.
func clippedOut(n *Node, wx, wy float64) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Clip == nil {
			continue
		}
		lx, ly := p.WorldToLocal(wx, wy)
		if !p.Clip.Contains(lx, ly) {
			return true
		}
	}
	return false
}

// collectInteractable walks the tree in paint order, appending listening
// shapes to buf. Skips Visible=false or Listening=false subtrees.
func collectInteractable(n *Node, buf []*Node) []*Node {
	if !n.Visible || !n.Listening {
		return buf
	}
	if n.Type != NodeTypeGroup {
		buf = append(buf, n)
	}
	for _, child := range n.children {
		buf = collectInteractable(child, buf)
	}
	return buf
}

// HitTest finds the topmost listening shape at (worldX, worldY).
// Returns nil if nothing is hit.
func (s *Scene) HitTest(worldX, worldY float64) *Node {
	s.hitBuf = collectInteractable(s.root, s.hitBuf[:0])

	// Iterate backward (reverse paint order): topmost visual node first.
	for i := len(s.hitBuf) - 1; i >= 0; i-- {
		n := s.hitBuf[i]
		lx, ly := n.WorldToLocal(worldX, worldY)
		if nodeContainsLocal(n, lx, ly) && !clippedOut(n, worldX, worldY) {
			return n
		}
	}
	return nil
}

// draggableOwner returns the nearest Draggable ancestor-or-self of n below the root.
func (s *Scene) draggableOwner(n *Node) *Node {
	for p := n; p != nil && p != s.root; p = p.Parent {
		if p.Draggable {
			return p
		}
	}
	return nil
}

// --- Input processing ---

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}

// processInput handles real mouse, wheel and touch input.
func (s *Scene) processInput() {
	mods := readModifiers()

	if dx, dy := ebiten.Wheel(); dx != 0 || dy != 0 {
		mx, my := ebiten.CursorPosition()
		s.processWheel(float64(mx), float64(my), dx, dy, mods)
	}

	s.processMousePointer(mods)
	s.processTouchPointers(mods)
	s.detectPinch()
}

// processMousePointer handles mouse input (pointer 0).
func (s *Scene) processMousePointer(mods KeyModifiers) {
	mx, my := ebiten.CursorPosition()

	// If the pointer is already down, the stored button is used so it can't
	// change mid-interaction.
	var pressed bool
	var button MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)

	if left || right || middle {
		pressed = true
		if left {
			button = MouseButtonLeft
		} else if right {
			button = MouseButtonRight
		} else {
			button = MouseButtonMiddle
		}
	}

	s.processPointer(0, float64(mx), float64(my), pressed, button, mods)
}

// processTouchPointers handles touch input (pointers 1-9).
func (s *Scene) processTouchPointers(mods KeyModifiers) {
	touchIDs := ebiten.AppendTouchIDs(s.prevTouchIDs[:0])
	s.prevTouchIDs = touchIDs

	var activeSlots [maxPointers]bool
	for _, tid := range touchIDs {
		slot := s.touchSlot(tid)
		if slot < 0 {
			continue
		}
		activeSlots[slot] = true

		tx, ty := ebiten.TouchPosition(tid)
		s.processPointer(slot, float64(tx), float64(ty), true, MouseButtonLeft, mods)
	}

	// Release any touch slots that are no longer active.
	for i := 1; i < maxPointers; i++ {
		if s.touchUsed[i] && !activeSlots[i] {
			ps := &s.pointers[i]
			if ps.down {
				s.processPointer(i, ps.lastSX, ps.lastSY, false, MouseButtonLeft, mods)
			}
			s.touchUsed[i] = false
			s.touchMap[i] = 0
		}
	}
}

// touchSlot maps an ebiten.TouchID to a pointer slot (1-9).
// Returns the existing slot or allocates a new one. Returns -1 if full.
func (s *Scene) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if s.touchUsed[i] && s.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !s.touchUsed[i] {
			s.touchUsed[i] = true
			s.touchMap[i] = tid
			return i
		}
	}
	return -1
}

// processWheel dispatches a wheel event at screen position (sx, sy).
func (s *Scene) processWheel(sx, sy, dx, dy float64, mods KeyModifiers) {
	wx, wy := s.camera.ScreenToWorld(sx, sy)
	ctx := WheelContext{
		ScreenX: sx, ScreenY: sy, GlobalX: wx, GlobalY: wy,
		DeltaX: dx, DeltaY: dy, Modifiers: mods,
	}
	for _, h := range s.handlers.wheel {
		h.fn(ctx)
	}
	s.BatchDraw()
}

// processPointer runs the pointer state machine for a single pointer.
// (sx, sy) are screen coordinates.
func (s *Scene) processPointer(pointerID int, sx, sy float64, pressed bool, button MouseButton, mods KeyModifiers) {
	ps := &s.pointers[pointerID]
	wx, wy := s.camera.ScreenToWorld(sx, sy)

	if pressed && !ps.down {
		ps.down = true
		ps.button = button
		ps.startX, ps.startY = wx, wy
		ps.lastX, ps.lastY = wx, wy
		ps.lastSX, ps.lastSY = sx, sy
		ps.dragging = false
		ps.dragNode = nil
		ps.handle = AnchorNone
		if s.transformer.target != nil {
			ps.handle = s.transformer.anchorAt(sx, sy, s.camera)
		}
		if ps.handle != AnchorNone {
			ps.hitNode = s.transformer.target
			s.transformer.begin(ps.handle, wx, wy)
			return
		}
		ps.hitNode = s.HitTest(wx, wy)
		s.firePointerDown(ps.hitNode, pointerID, wx, wy, sx, sy, ps.button, mods)
		return
	}

	if !pressed && ps.down {
		ps.down = false
		if ps.handle != AnchorNone {
			target := s.transformer.target
			if sx != ps.lastSX || sy != ps.lastSY {
				s.transformer.drag(wx, wy)
			}
			kind := s.transformer.end()
			s.BatchDraw()
			ps.handle = AnchorNone
			ps.hitNode = nil
			s.fireTransformEnd(target, kind)
			return
		}
		target := s.HitTest(wx, wy)
		if ps.dragging {
			ddx, ddy := wx-ps.lastX, wy-ps.lastY
			if ps.dragNode != nil && (ddx != 0 || ddy != 0) {
				moveInParent(ps.dragNode, ddx, ddy)
				s.BatchDraw()
			}
			s.fireDragEnd(ps.hitNode, pointerID, wx, wy, sx, sy, ps, ddx, ddy, mods)
			if ps.dragNode != nil {
				s.fireTransformEnd(ps.dragNode, TransformDrag)
			}
		} else if ps.hitNode == target {
			s.fireClick(target, pointerID, wx, wy, sx, sy, ps.button, mods)
		}
		s.firePointerUp(target, pointerID, wx, wy, sx, sy, ps.button, mods)
		ps.hitNode = nil
		ps.dragNode = nil
		ps.dragging = false
		return
	}

	if pressed && ps.down {
		if sx == ps.lastSX && sy == ps.lastSY {
			return
		}
		if ps.handle != AnchorNone {
			s.transformer.drag(wx, wy)
			ps.lastX, ps.lastY = wx, wy
			ps.lastSX, ps.lastSY = sx, sy
			s.BatchDraw()
			return
		}
		if !ps.dragging {
			dx := wx - ps.startX
			dy := wy - ps.startY
			if math.Sqrt(dx*dx+dy*dy)*s.camera.Zoom > s.dragDeadZone {
				ps.dragging = true
				if s.nodeDragging && !s.pinch.active {
					ps.dragNode = s.draggableOwner(ps.hitNode)
				}
				s.fireDragStart(ps.hitNode, pointerID, wx, wy, sx, sy, ps, wx-ps.startX, wy-ps.startY, mods)
			}
		}
		if ps.dragging {
			ddx, ddy := wx-ps.lastX, wy-ps.lastY
			if ps.dragNode != nil {
				moveInParent(ps.dragNode, ddx, ddy)
				s.BatchDraw()
			}
			s.fireDrag(ps.hitNode, pointerID, wx, wy, sx, sy, ps, ddx, ddy, mods)
		}
		s.firePointerMove(ps.hitNode, pointerID, wx, wy, sx, sy, ps.button, mods)
		ps.lastX, ps.lastY = wx, wy
		ps.lastSX, ps.lastSY = sx, sy
		return
	}

	// Hover move.
	if sx != ps.lastSX || sy != ps.lastSY {
		s.firePointerMove(nil, pointerID, wx, wy, sx, sy, button, mods)
		ps.lastX, ps.lastY = wx, wy
		ps.lastSX, ps.lastSY = sx, sy
	}
}

// moveInParent translates n by a world-space delta expressed in its parent's
// coordinate space.
func moveInParent(n *Node, dwx, dwy float64) {
	if n.Parent == nil {
		n.X += dwx
		n.Y += dwy
		return
	}
	inv := invertAffine(n.Parent.WorldTransform())
	n.X += inv[0]*dwx + inv[2]*dwy
	n.Y += inv[1]*dwx + inv[3]*dwy
}

// --- Pinch detection ---

func (s *Scene) detectPinch() {
	var p [2]int
	count := 0
	for i := 1; i < maxPointers && count < 3; i++ {
		if s.pointers[i].down {
			if count < 2 {
				p[count] = i
			}
			count++
		}
	}

	if count != 2 {
		s.pinch.active = false
		return
	}

	ps0 := &s.pointers[p[0]]
	ps1 := &s.pointers[p[1]]
	cx := (ps0.lastSX + ps1.lastSX) / 2
	cy := (ps0.lastSY + ps1.lastSY) / 2
	dist := math.Hypot(ps1.lastSX-ps0.lastSX, ps1.lastSY-ps0.lastSY)

	// Suppress drag for the two pinch pointers.
	ps0.dragging, ps1.dragging = false, false
	ps0.dragNode, ps1.dragNode = nil, nil

	if !s.pinch.active {
		s.pinch = pinchState{active: true, pointer0: p[0], pointer1: p[1], initialDist: dist, prevDist: dist}
		return
	}

	scale, scaleDelta := 1.0, 0.0
	if s.pinch.initialDist > 0 {
		scale = dist / s.pinch.initialDist
	}
	if s.pinch.prevDist > 0 {
		scaleDelta = dist/s.pinch.prevDist - 1.0
	}
	s.pinch.prevDist = dist
	if scaleDelta == 0 {
		return
	}
	ctx := PinchContext{CenterX: cx, CenterY: cy, Scale: scale, ScaleDelta: scaleDelta}
	for _, h := range s.handlers.pinch {
		h.fn(ctx)
	}
	s.BatchDraw()
}

// --- Event dispatch ---

func (s *Scene) pointerContext(node *Node, pointerID int, wx, wy, sx, sy float64, button MouseButton, mods KeyModifiers) PointerContext {
	ctx := PointerContext{
		Node: node, GlobalX: wx, GlobalY: wy, ScreenX: sx, ScreenY: sy,
		Button: button, PointerID: pointerID, Modifiers: mods,
	}
	if node != nil {
		ctx.LocalX, ctx.LocalY = node.WorldToLocal(wx, wy)
		ctx.Ref = node.Ref
	}
	return ctx
}

func (s *Scene) firePointerDown(node *Node, pointerID int, wx, wy, sx, sy float64, button MouseButton, mods KeyModifiers) {
	ctx := s.pointerContext(node, pointerID, wx, wy, sx, sy, button, mods)
	// Scene-level handlers first.
	for _, h := range s.handlers.pointerDown {
		h.fn(ctx)
	}
	if node != nil && node.OnPointerDown != nil {
		node.OnPointerDown(ctx)
	}
}

func (s *Scene) firePointerUp(node *Node, pointerID int, wx, wy, sx, sy float64, button MouseButton, mods KeyModifiers) {
	ctx := s.pointerContext(node, pointerID, wx, wy, sx, sy, button, mods)
	for _, h := range s.handlers.pointerUp {
		h.fn(ctx)
	}
	if node != nil && node.OnPointerUp != nil {
		node.OnPointerUp(ctx)
	}
}

func (s *Scene) firePointerMove(node *Node, pointerID int, wx, wy, sx, sy float64, button MouseButton, mods KeyModifiers) {
	ctx := s.pointerContext(node, pointerID, wx, wy, sx, sy, button, mods)
	for _, h := range s.handlers.pointerMove {
		h.fn(ctx)
	}
}

func (s *Scene) fireClick(node *Node, pointerID int, wx, wy, sx, sy float64, button MouseButton, mods KeyModifiers) {
	ctx := ClickContext{
		Node: node, GlobalX: wx, GlobalY: wy, ScreenX: sx, ScreenY: sy,
		Button: button, PointerID: pointerID, Modifiers: mods,
	}
	if node != nil {
		ctx.Ref = node.Ref
	}
	double := node != nil && node == s.lastClickNode && s.tick-s.lastClickTick <= defaultDblClickFrames

	for _, h := range s.handlers.click {
		h.fn(ctx)
	}
	if node != nil && node.OnClick != nil {
		node.OnClick(ctx)
	}

	if !double {
		s.lastClickNode = node
		s.lastClickTick = s.tick
		return
	}
	s.lastClickNode = nil
	for _, h := range s.handlers.dblClick {
		h.fn(ctx)
	}
	if node.OnDblClick != nil {
		node.OnDblClick(ctx)
	}
}

func (s *Scene) dragContext(node *Node, pointerID int, wx, wy, sx, sy float64, ps *pointerState, dx, dy float64, mods KeyModifiers) DragContext {
	ctx := DragContext{
		Node: node, GlobalX: wx, GlobalY: wy, ScreenX: sx, ScreenY: sy,
		StartX: ps.startX, StartY: ps.startY, DeltaX: dx, DeltaY: dy,
		ScreenDeltaX: sx - ps.lastSX, ScreenDeltaY: sy - ps.lastSY,
		Button: ps.button, PointerID: pointerID, Modifiers: mods,
	}
	if node != nil {
		ctx.Ref = node.Ref
	}
	return ctx
}

func (s *Scene) fireDragStart(node *Node, pointerID int, wx, wy, sx, sy float64, ps *pointerState, dx, dy float64, mods KeyModifiers) {
	ctx := s.dragContext(node, pointerID, wx, wy, sx, sy, ps, dx, dy, mods)
	for _, h := range s.handlers.dragStart {
		h.fn(ctx)
	}
	if node != nil && node.OnDragStart != nil {
		node.OnDragStart(ctx)
	}
}

func (s *Scene) fireDrag(node *Node, pointerID int, wx, wy, sx, sy float64, ps *pointerState, dx, dy float64, mods KeyModifiers) {
	ctx := s.dragContext(node, pointerID, wx, wy, sx, sy, ps, dx, dy, mods)
	for _, h := range s.handlers.drag {
		h.fn(ctx)
	}
	if node != nil && node.OnDrag != nil {
		node.OnDrag(ctx)
	}
}

func (s *Scene) fireDragEnd(node *Node, pointerID int, wx, wy, sx, sy float64, ps *pointerState, dx, dy float64, mods KeyModifiers) {
	ctx := s.dragContext(node, pointerID, wx, wy, sx, sy, ps, dx, dy, mods)
	for _, h := range s.handlers.dragEnd {
		h.fn(ctx)
	}
	if node != nil && node.OnDragEnd != nil {
		node.OnDragEnd(ctx)
	}
}

func (s *Scene) fireTransformEnd(node *Node, kind TransformKind) {
	if node == nil || node.OnTransformEnd == nil {
		return
	}
	node.OnTransformEnd(TransformContext{Node: node, Kind: kind})
}
