package storyboard

import (
	"context"
	"errors"
	"testing"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func generated(urls ...string) GenerateFunc {
	return func(ctx context.Context) ([]ImageVariant, error) {
		vs := make([]ImageVariant, len(urls))
		for i, u := range urls {
			vs[i] = ImageVariant{ID: 100 + i, URL: u}
		}
		return vs, nil
	}
}

func TestInsertGenerated(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)

	n, err := c.InsertGenerated(ctx, Placement{}, generated("https://cdn.example.com/g1.png", "https://cdn.example.com/g2.png"))
	if err != nil {
		t.Fatal(err)
	}
	if n.DisplayURL() != TempImageURL {
		t.Errorf("display url before completion = %q, want %q", n.DisplayURL(), TempImageURL)
	}
	if !c.ShouldDisablePublish() {
		t.Error("publish enabled while the only image is generating")
	}

	c.Settle()

	got, _ := c.History().Find(n.Attrs.ID)
	if len(got.Image.URLs) != 2 || got.Image.Index != 0 {
		t.Fatalf("variants = %+v, want the two generated images", got.Image)
	}
	if got.DisplayURL() != "https://cdn.example.com/g1.png" || got.ImageURL != got.DisplayURL() {
		t.Errorf("display url = %q (imageUrl %q), want g1", got.DisplayURL(), got.ImageURL)
	}
	if c.ShouldDisablePublish() {
		t.Error("publish still disabled after generation")
	}
	if prev, _ := c.History().Steps(); len(prev) != 1 {
		t.Errorf("steps = %d, want 1 (the add only)", len(prev))
	}
}

func TestInsertGeneratedIntoPanel(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	c.Rebuild(ctx, Snapshot{App: AppState{pageNode("p1", 0, 0, 1024, 800)}})

	n, err := c.InsertGenerated(ctx, Placement{PanelID: "p1", Width: 512, Height: 512}, generated("https://cdn.example.com/g.png"))
	if err != nil {
		t.Fatal(err)
	}
	c.Settle()
	if n.Attrs.Width != 1024 || n.Attrs.Height != 1024 {
		t.Errorf("size = (%v, %v), want the panel covered at (1024, 1024)", n.Attrs.Width, n.Attrs.Height)
	}
	if _, parent := c.History().Find(n.Attrs.ID); parent != "p1" {
		t.Errorf("parent = %q, want p1", parent)
	}

	if _, err := c.InsertGenerated(ctx, Placement{PanelID: "nope"}, generated("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("InsertGenerated into unknown panel = %v, want ErrNotFound", err)
	}
}

func TestGenerationFailureKeepsPlaceholder(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	var notices []Notice
	NoticeEvent.Subscribe(c.World(), func(_ donburi.World, n Notice) {
		notices = append(notices, n)
	})

	boom := errors.New("quota exceeded")
	n, err := c.InsertGenerated(ctx, Placement{}, func(context.Context) ([]ImageVariant, error) {
		return nil, boom
	})
	if err != nil {
		t.Fatal(err)
	}
	c.Settle()
	events.ProcessAllEvents(c.World())

	got, _ := c.History().Find(n.Attrs.ID)
	if got.DisplayURL() != TempImageURL {
		t.Errorf("display url = %q, want the placeholder", got.DisplayURL())
	}
	if len(notices) != 1 || !errors.Is(notices[0].Err, boom) {
		t.Errorf("notices = %+v, want one carrying the generation error", notices)
	}
}

func TestReplaceImage(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	c.Rebuild(ctx, Snapshot{App: AppState{imageNode("i1", 0, 0, "https://cdn.example.com/a.png")}})

	err := c.ReplaceImage(ctx, "i1", ReplaceRequest{Mode: ReplaceExtend, Generate: generated("https://cdn.example.com/b.png")})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := c.History().Find("i1")
	if len(n.Image.URLs) != 2 || n.Image.Index != 1 || n.DisplayURL() != TempImageURL {
		t.Errorf("pending variants = %+v, want a placeholder at index 1", n.Image)
	}
	c.Settle()
	n, _ = c.History().Find("i1")
	if n.DisplayURL() != "https://cdn.example.com/b.png" || n.Image.Index != 1 {
		t.Errorf("variants = %+v, want b shown at index 1", n.Image)
	}

	if err := c.SelectVariant(ctx, "i1", 0); err != nil {
		t.Fatal(err)
	}
	n, _ = c.History().Find("i1")
	if n.DisplayURL() != "https://cdn.example.com/a.png" {
		t.Errorf("display url = %q, want a", n.DisplayURL())
	}
	if err := c.SelectVariant(ctx, "i1", 5); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("SelectVariant(5) = %v, want ErrInvalidNode", err)
	}

	err = c.ReplaceImage(ctx, "i1", ReplaceRequest{Mode: ReplaceRefresh, URLs: []ImageVariant{{ID: 9, URL: "https://cdn.example.com/c.png"}}})
	if err != nil {
		t.Fatal(err)
	}
	n, _ = c.History().Find("i1")
	if len(n.Image.URLs) != 3 || n.Image.Index != 0 || n.DisplayURL() != "https://cdn.example.com/c.png" {
		t.Errorf("refreshed variants = %+v, want c first and shown", n.Image)
	}

	c.Undo(ctx)
	n, _ = c.History().Find("i1")
	if n.DisplayURL() != "https://cdn.example.com/a.png" {
		t.Errorf("display url after undo = %q, want a", n.DisplayURL())
	}
}

func TestExtendRecordsGeneratedVariants(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	c.Rebuild(ctx, Snapshot{App: AppState{imageNode("i1", 0, 0, "https://cdn.example.com/a.png")}})

	if err := c.ReplaceImage(ctx, "i1", ReplaceRequest{Mode: ReplaceExtend, Generate: generated("https://cdn.example.com/b.png")}); err != nil {
		t.Fatal(err)
	}
	if c.History().CanUndo() {
		t.Error("pending extend recorded before the images arrived")
	}
	c.Settle()

	d, ok := lastDiff(t, c).(*AttrChange)
	if !ok {
		t.Fatalf("last diff = %T, want *AttrChange", lastDiff(t, c))
	}
	if len(d.Old.Image.URLs) != 1 || d.Old.DisplayURL() != "https://cdn.example.com/a.png" {
		t.Errorf("old variants = %+v, want only a", d.Old.Image)
	}
	if d.New.DisplayURL() != "https://cdn.example.com/b.png" || d.New.ImageURL != d.New.DisplayURL() {
		t.Errorf("new display url = %q (imageUrl %q), want b", d.New.DisplayURL(), d.New.ImageURL)
	}

	c.Undo(ctx)
	c.Settle()
	n, _ := c.History().Find("i1")
	if len(n.Image.URLs) != 1 || n.Image.Index != 0 || n.DisplayURL() != "https://cdn.example.com/a.png" {
		t.Errorf("after undo = %+v, want [a] at index 0", n.Image)
	}

	c.Redo(ctx)
	c.Settle()
	n, _ = c.History().Find("i1")
	if len(n.Image.URLs) != 2 || n.Image.Index != 1 || n.DisplayURL() != "https://cdn.example.com/b.png" {
		t.Errorf("after redo = %+v, want b shown at index 1", n.Image)
	}
}

func TestExtendUndoneBeforeCompletion(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	img := imageNode("i1", 0, 0, "https://cdn.example.com/a.png")
	img.Image.URLs = append(img.Image.URLs, ImageVariant{ID: 2, URL: "https://cdn.example.com/a2.png"})
	c.Rebuild(ctx, Snapshot{App: AppState{img}})
	if err := c.SelectVariant(ctx, "i1", 1); err != nil {
		t.Fatal(err)
	}

	release := make(chan struct{})
	slow := func(ctx context.Context) ([]ImageVariant, error) {
		<-release
		return generated("https://cdn.example.com/late.png")(ctx)
	}
	if err := c.ReplaceImage(ctx, "i1", ReplaceRequest{Mode: ReplaceExtend, Generate: slow}); err != nil {
		t.Fatal(err)
	}
	if err := c.ReplaceImage(ctx, "i1", ReplaceRequest{Mode: ReplaceExtend, Generate: slow}); !errors.Is(err, ErrGenerating) {
		t.Errorf("second extend = %v, want ErrGenerating", err)
	}

	if !c.Undo(ctx) {
		t.Fatal("Undo = false, want the variant switch undone")
	}
	close(release)
	c.Settle()

	n, _ := c.History().Find("i1")
	want := []string{"https://cdn.example.com/a.png", "https://cdn.example.com/a2.png"}
	if len(n.Image.URLs) != len(want) || n.Image.Index != 0 {
		t.Fatalf("variants = %+v, want %v at index 0", n.Image, want)
	}
	for i, u := range want {
		if n.Image.URLs[i].URL != u {
			t.Errorf("variant %d = %q, want %q", i, n.Image.URLs[i].URL, u)
		}
	}
	prev, redo := c.History().Steps()
	if len(prev) != 0 || len(redo) != 1 {
		t.Errorf("steps = %d undo, %d redo, want 0 and 1", len(prev), len(redo))
	}
}

func TestExtendFailureRestoresVariants(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	c.Rebuild(ctx, Snapshot{App: AppState{imageNode("i1", 0, 0, "https://cdn.example.com/a.png")}})

	boom := errors.New("quota exceeded")
	err := c.ReplaceImage(ctx, "i1", ReplaceRequest{Mode: ReplaceExtend, Generate: func(context.Context) ([]ImageVariant, error) {
		return nil, boom
	}})
	if err != nil {
		t.Fatal(err)
	}
	c.Settle()

	n, _ := c.History().Find("i1")
	if len(n.Image.URLs) != 1 || n.DisplayURL() != "https://cdn.example.com/a.png" {
		t.Errorf("variants = %+v, want a restored", n.Image)
	}
	if c.History().CanUndo() {
		t.Error("failed generation recorded a diff")
	}
}

func TestReloadSkipsSupersededURL(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	img := imageNode("i1", 0, 0, "https://cdn.example.com/a.png")
	img.Image.URLs = append(img.Image.URLs, ImageVariant{ID: 2, URL: "https://cdn.example.com/b.png"})
	c.Rebuild(ctx, Snapshot{App: AppState{img}})
	ln := c.Scene().Find("i1")
	shown := ln.Image

	// Switch to b and back before either load lands: only a may be applied.
	if err := c.SelectVariant(ctx, "i1", 1); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectVariant(ctx, "i1", 0); err != nil {
		t.Fatal(err)
	}
	if ln.Image != shown {
		t.Error("pixels swapped on the game loop before the load completed")
	}
	c.Settle()
	if ln.Image == shown {
		t.Error("pixels not swapped after the load completed")
	}
}
