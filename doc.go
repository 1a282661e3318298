// Package storyboard is an infinite-canvas editor for comic storyboards built
// on [Ebitengine].
//
// The canonical state is an [AppState]: an ordered list of [CNode] values.
// Panels (pages) and bubbles are containers that hold image and text
// children; text, image and mark-area nodes may also sit at the top level.
// Deleting a node only hides it, so its identity survives for undo.
//
// A [Canvas] keeps the state, a [History] of reversible [Diff] values and a
// live [stage.Scene] built from the state in sync:
//
//	cfg, err := storyboard.LoadConfig("storyboard.toml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	store, err := storyboard.OpenBoltStore(cfg.Session.StorePath)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//	c := storyboard.NewCanvas(storyboard.Options{Config: cfg, Store: store})
//	c.Resume(context.Background())
//	ebiten.RunGame(c)
//
// # Editing
//
// Every edit is applied to the live scene first and then recorded with
// [History.Update]. [Canvas.Undo] and [Canvas.Redo] replay one diff against
// the live scene and the state. [Canvas.Rebuild] discards the live scene and
// builds it again from a [Snapshot]; [Canvas.Derive] reads a snapshot back
// from the live scene.
//
// Tools ([Tool]) decide what a press on the canvas does: select, pan, or draw
// a panel, bubble, text or mark area. Text is edited in place through
// [Canvas.BeginTextEdit] and [Canvas.CommitTextEdit].
//
// # Persistence
//
// With a [Store] the state is saved after every change. [BoltStore] keeps it
// in a bbolt file; [Canvas.Archive] and [Canvas.Checkout] manage named
// versions.
//
// # Events
//
// Selection changes and user notices are published as donburi events on
// [Canvas.World].
//
// [Ebitengine]: https://ebitengine.org
package storyboard
