package stage

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Scene is the top-level object that owns the node tree, camera, transformer
// and input state. Rendering is retained: the tree is drawn into an offscreen
// frame only after BatchDraw marks it dirty.
type Scene struct {
	root        *Node
	camera      *Camera
	transformer *Transformer
	debug       bool

	// ClearColor fills the frame before the tree is drawn.
	ClearColor Color

	// Render state
	dirty    bool
	renderer renderer
	frame    *ebiten.Image
	draws    int

	// Input state
	handlers      handlerRegistry
	pointers      [maxPointers]pointerState
	hitBuf        []*Node
	dragDeadZone  float64
	nodeDragging  bool
	touchMap      [maxPointers]ebiten.TouchID
	touchUsed     [maxPointers]bool
	prevTouchIDs  []ebiten.TouchID
	pinch         pinchState
	injectQueue   []syntheticEvent
	tick          uint64
	lastClickNode *Node
	lastClickTick uint64
}

// NewScene creates a scene with a root group and a camera over viewport.
func NewScene(viewport Rect) *Scene {
	root := NewGroup("root")
	return &Scene{
		root:         root,
		camera:       newCamera(viewport),
		transformer:  newTransformer(),
		dirty:        true,
		dragDeadZone: defaultDragDeadZone,
		nodeDragging: true,
	}
}

// Root returns the scene's root group.
func (s *Scene) Root() *Node {
	return s.root
}

// Camera returns the scene camera.
func (s *Scene) Camera() *Camera {
	return s.camera
}

// Transformer returns the scene's resize/rotate handles.
func (s *Scene) Transformer() *Transformer {
	return s.transformer
}

// Find returns the node with the given id anywhere in the tree.
func (s *Scene) Find(id string) *Node {
	return s.root.Find(id)
}

// BatchDraw schedules a redraw on the next Draw. Multiple calls within a
// frame coalesce.
func (s *Scene) BatchDraw() {
	s.dirty = true
}

// Dirty reports whether a redraw is pending.
func (s *Scene) Dirty() bool {
	return s.dirty
}

// Draws returns how many times the tree has been drawn.
func (s *Scene) Draws() int {
	return s.draws
}

// Tick returns the number of frames stepped so far.
func (s *Scene) Tick() uint64 {
	return s.tick
}

// SetDebugMode enables tree checks and frame timing on stderr.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// Update advances one frame using the real input devices. Queued synthetic
// events take priority over device input for the frame they are consumed.
func (s *Scene) Update() {
	dt := float32(1.0 / float64(ebiten.TPS()))
	s.advance(dt)
	if !s.processInjectedInput() {
		s.processInput()
	}
}

// Step advances one frame without reading input devices. At most one
// synthetic event is consumed.
func (s *Scene) Step(dt float32) {
	s.advance(dt)
	s.processInjectedInput()
}

func (s *Scene) advance(dt float32) {
	s.tick++
	if s.camera.update(dt) {
		s.BatchDraw()
	}
}

// Draw renders the scene to screen. The tree is drawn again only when the
// scene is dirty; transformer handles are drawn every frame.
func (s *Scene) Draw(screen *ebiten.Image) {
	b := screen.Bounds()
	w, h := b.Dx(), b.Dy()
	if s.frame == nil || s.frame.Bounds().Dx() != w || s.frame.Bounds().Dy() != h {
		if s.frame != nil {
			s.frame.Deallocate()
		}
		s.frame = ebiten.NewImage(w, h)
		s.dirty = true
	}
	if s.dirty {
		var stats frameStats
		t0 := time.Now()
		s.frame.Fill(s.ClearColor.NRGBA())
		s.renderer.draw(s.frame, s.root, s.camera)
		stats.drawTime = time.Since(t0)
		stats.commands = len(s.renderer.cmds)
		if s.debug {
			stats.nodeCount = countNodes(s.root)
			s.debugLog(stats)
		}
		s.dirty = false
		s.draws++
	}
	screen.DrawImage(s.frame, nil)
	s.drawTransformer(screen)
}

var (
	handleFill   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	handleStroke = color.NRGBA{R: 0, G: 161, B: 255, A: 255}
)

func (s *Scene) drawTransformer(screen *ebiten.Image) {
	pos := s.transformer.HandlePositions(s.camera)
	if len(pos) == 0 {
		return
	}
	corners := [4]Anchor{AnchorTopLeft, AnchorTopRight, AnchorBottomRight, AnchorBottomLeft}
	for i, a := range corners {
		p, q := pos[a], pos[corners[(i+1)%4]]
		vector.StrokeLine(screen, float32(p.X), float32(p.Y), float32(q.X), float32(q.Y), 1, handleStroke, true)
	}
	if r, ok := pos[AnchorRotate]; ok {
		t := pos[AnchorTop]
		vector.StrokeLine(screen, float32(t.X), float32(t.Y), float32(r.X), float32(r.Y), 1, handleStroke, true)
	}
	hs := float32(s.transformer.HandleSize)
	for _, p := range pos {
		x, y := float32(p.X)-hs/2, float32(p.Y)-hs/2
		vector.DrawFilledRect(screen, x, y, hs, hs, handleFill, true)
		vector.StrokeRect(screen, x, y, hs, hs, 1, handleStroke, true)
	}
}
