package storyboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/storyboard/stage"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

const (
	layerID   = "layer"
	overlayID = "overlay"

	taskQueueSize = 64
)

// Options configures a Canvas. Every field is optional.
type Options struct {
	Config *Config
	// Loader resolves image URLs. Defaults to a Loader rooted at the
	// configured asset directory.
	Loader ImageLoader
	Fonts  *stage.FontBook
	// Store receives an autosave after every state change.
	Store     Store
	Clipboard Clipboard
	Logger    *slog.Logger
}

// Canvas is the editor: the canonical state and history, the live scene
// built from it, and the interaction layer on top. It implements
// ebiten.Game. All methods must be called from the goroutine running the
// game loop.
type Canvas struct {
	cfg *Config
	log *slog.Logger

	scene   *stage.Scene
	layer   *stage.Node
	overlay *stage.Node

	history *History
	factory *Factory
	world   donburi.World
	// live maps a logical id to its live handle: the outer group of a page
	// or bubble, the bare object otherwise.
	live map[string]*stage.Node

	tool      Tool
	draft     *Draft
	selection *Selection
	editor    *textEditor
	keys      keyBindings

	store    Store
	autosave Subscription
	clip     Clipboard

	// tasks carries completions of background work back to the game loop.
	tasks chan func()
	jobs  sync.WaitGroup
	// pending tracks the latest generation started per image id.
	pending map[string]pendingGen
	genSeq  uint64
}

// NewCanvas creates an empty canvas.
func NewCanvas(opts Options) *Canvas {
	cfg := opts.Config
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}
	fonts := opts.Fonts
	if fonts == nil {
		fonts = stage.NewFontBook()
	}
	for family, path := range cfg.Fonts {
		if err := fonts.LoadFile(family, path); err != nil {
			logger.Warn("load font", "family", family, "path", path, "err", err)
		}
	}
	loader := opts.Loader
	if loader == nil {
		loader = NewLoader(cfg.Canvas.AssetDir)
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = SystemClipboard{}
	}

	c := &Canvas{
		cfg:     cfg,
		log:     logger,
		scene:   stage.NewScene(stage.Rect{Width: float64(cfg.Canvas.ViewWidth), Height: float64(cfg.Canvas.ViewHeight)}),
		layer:   stage.NewGroup(layerID),
		overlay: stage.NewGroup(overlayID),
		history: NewHistory(nil, nil),
		world:   donburi.NewWorld(),
		live:    make(map[string]*stage.Node),
		keys:    newKeyBindings(cfg.Keys),
		store:   opts.Store,
		clip:    clip,
		tasks:   make(chan func(), taskQueueSize),

		pending: make(map[string]pendingGen),
	}
	c.overlay.Listening = false
	c.scene.Root().AddChild(c.layer)
	c.scene.Root().AddChild(c.overlay)

	cam := c.scene.Camera()
	cam.MinZoom, cam.MaxZoom = cfg.Canvas.MinZoom, cfg.Canvas.MaxZoom

	c.factory = &Factory{
		Loader:       loader,
		Fonts:        fonts,
		BubbleTarget: cfg.Canvas.BubbleTarget,
		BubbleURL:    cfg.Canvas.BubbleURL,
		Placeholder:  c.isPlaceholderURL,
		Logger:       logger,
		OnBuild:      c.attach,
		OnEditText: func(id string) {
			if _, err := c.BeginTextEdit(id); err != nil {
				c.log.Warn("edit text", "id", id, "err", err)
			}
		},
	}

	transformEndedEvent.Subscribe(c.world, c.onTransformEnded)
	if c.store != nil {
		c.autosave = c.history.OnChange(c.save)
	}
	c.bindScene()
	return c
}

// Scene returns the live scene.
func (c *Canvas) Scene() *stage.Scene { return c.scene }

// History returns the state and edit history.
func (c *Canvas) History() *History { return c.history }

// Config returns the configuration the canvas was created with.
func (c *Canvas) Config() *Config { return c.cfg }

// Update implements ebiten.Game.
func (c *Canvas) Update() error {
	ctx := context.Background()
	c.drainTasks()
	c.handleKeys(ctx)
	c.handleDroppedFiles(ctx)
	c.scene.Update()
	events.ProcessAllEvents(c.world)
	return nil
}

// Draw implements ebiten.Game.
func (c *Canvas) Draw(screen *ebiten.Image) {
	c.scene.Draw(screen)
}

// Layout implements ebiten.Game. The viewport follows the window.
func (c *Canvas) Layout(w, h int) (int, int) {
	cam := c.scene.Camera()
	if cam.Viewport.Width != float64(w) || cam.Viewport.Height != float64(h) {
		cam.Viewport = stage.Rect{Width: float64(w), Height: float64(h)}
		c.scene.BatchDraw()
	}
	return w, h
}

// Step advances one frame without reading input devices: background
// completions are applied, one injected input event is processed and queued
// events are delivered.
func (c *Canvas) Step(dt float32) {
	c.drainTasks()
	c.scene.Step(dt)
	events.ProcessAllEvents(c.world)
}

// drainTasks runs every queued completion without blocking.
func (c *Canvas) drainTasks() {
	for {
		select {
		case fn := <-c.tasks:
			fn()
		default:
			return
		}
	}
}

// post queues fn to run on the game loop. It is safe to call from any
// goroutine.
func (c *Canvas) post(ctx context.Context, fn func()) {
	select {
	case c.tasks <- fn:
	case <-ctx.Done():
	}
}

// Undo reverts the latest edit on the live scene and the state. It reports
// whether there was anything to undo. A live scene that no longer matches
// the state is rebuilt from the state, keeping hidden nodes.
func (c *Canvas) Undo(ctx context.Context) bool {
	return c.step(ctx, DirUndo)
}

// Redo replays the latest undone edit.
func (c *Canvas) Redo(ctx context.Context) bool {
	return c.step(ctx, DirRedo)
}

func (c *Canvas) step(ctx context.Context, dir Direction) bool {
	if c.editor != nil {
		c.CommitTextEdit()
	}
	run := c.history.Undo
	if dir == DirRedo {
		run = c.history.Redo
	}
	d, ok, err := run(func(d Diff, dir Direction) error {
		return c.applyDiff(ctx, d, dir)
	})
	if !ok {
		return false
	}
	if err != nil {
		c.log.Error("live scene out of sync, rebuilding", "commit", d.CommitID(), "err", err)
		c.resyncLive(ctx)
		return true
	}
	c.log.Debug(dir.String(), "type", DiffType(d), "id", d.TargetID())
	c.refreshSelection()
	return true
}
