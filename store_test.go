package storyboard

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	bs, err := OpenBoltStore(filepath.Join(t.TempDir(), "story.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { bs.Close() })
	return map[string]Store{"bolt": bs, "memory": NewMemoryStore()}
}

func TestStore(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) = %v, want ErrNotFound", err)
			}
			if err := s.Put("k", []byte("v1")); err != nil {
				t.Fatal(err)
			}
			if err := s.Put("k", []byte("v2")); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get("k")
			if err != nil || string(got) != "v2" {
				t.Errorf("Get(k) = %q, %v; want v2", got, err)
			}
		})
	}
}

func TestBoltStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.db")
	s, err := OpenBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	snap := Snapshot{App: AppState{markNode("m1", 1, 2)}, Sorting: []string{"m1"}}
	if err := SaveSession(s, snap); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := LoadSession(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.App) != 1 || got.App[0].Attrs.X != 1 || len(got.Sorting) != 1 {
		t.Errorf("loaded = %+v, want the saved snapshot", got)
	}
	if !HasSession(s) {
		t.Error("HasSession = false")
	}
}

func TestLoadSessionErrors(t *testing.T) {
	s := NewMemoryStore()
	if _, err := LoadSession(s); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadSession on empty store = %v, want ErrNotFound", err)
	}
	if HasSession(s) {
		t.Error("HasSession on empty store = true")
	}
	if err := s.Put(KeyAppState, []byte(`[{"cType":"comic_video","attrs":{"id":"x"}}]`)); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSession(s); err == nil {
		t.Error("LoadSession accepted an unknown kind")
	}
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := SaveSession(store, Snapshot{App: AppState{markNode("m1", 0, 0), markNode("m2", 0, 0)}, Sorting: []string{"m2", "m1"}}); err != nil {
		t.Fatal(err)
	}
	c := NewCanvas(Options{Loader: testLoader(), Store: store, Clipboard: &MemoryClipboard{}})
	c.Resume(ctx)
	if got := siblingOrder(c.layer); len(got) != 2 || got[0] != "m2" {
		t.Errorf("live order = %v, want [m2 m1]", got)
	}

	empty := NewCanvas(Options{Loader: testLoader(), Store: NewMemoryStore(), Clipboard: &MemoryClipboard{}})
	empty.Resume(ctx)
	app := empty.History().App()
	if len(app) != 1 || app[0].Kind != KindPage || len(app[0].Children) != 1 {
		t.Errorf("resumed without a session = %+v, want the tutorial panel", app)
	}

	empty.NewStory(ctx)
	if n := len(empty.History().App()); n != 0 {
		t.Errorf("NewStory left %d nodes", n)
	}
}

func TestArchiveCheckout(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	c.Rebuild(ctx, Snapshot{App: AppState{markNode("m1", 0, 0)}})

	v1, err := c.Archive("first")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Delete("m1"); err != nil {
		t.Fatal(err)
	}
	v2, err := c.Archive("second")
	if err != nil {
		t.Fatal(err)
	}
	if v2.ID <= v1.ID {
		t.Errorf("version ids %d, %d not increasing", v1.ID, v2.ID)
	}
	vs, err := c.Versions()
	if err != nil || len(vs) != 2 || vs[0].Label != "first" {
		t.Fatalf("Versions = %+v, %v", vs, err)
	}

	if err := c.Checkout(ctx, v1.ID); err != nil {
		t.Fatal(err)
	}
	n, _ := c.History().Find("m1")
	if n == nil || !n.Visible() {
		t.Errorf("m1 after checkout = %+v, want visible", n)
	}
	if c.History().CanUndo() {
		t.Error("history kept across checkout")
	}
	if err := c.Checkout(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Checkout(unknown) = %v, want ErrNotFound", err)
	}
}
