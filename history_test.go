package storyboard

import (
	"errors"
	"strings"
	"testing"
)

func TestMoveID(t *testing.T) {
	tests := []struct {
		ids  string
		id   string
		z    int
		want string
	}{
		{"a,b,c", "a", 2, "b,c,a"},
		{"a,b,c", "c", 0, "c,a,b"},
		{"a,b,c", "b", 1, "a,b,c"},
		{"a,b,c", "a", 99, "b,c,a"},
		{"a,b,c", "c", -3, "c,a,b"},
		{"a,b,c", "x", 0, "a,b,c"},
	}
	for _, tt := range tests {
		got := strings.Join(moveID(strings.Split(tt.ids, ","), tt.id, tt.z), ",")
		if got != tt.want {
			t.Errorf("moveID(%s, %s, %d) = %s, want %s", tt.ids, tt.id, tt.z, got, tt.want)
		}
	}
}

func noopApply(Diff, Direction) error { return nil }

func TestHistoryPatch(t *testing.T) {
	h := NewHistory(AppState{markNode("m1", 0, 0), markNode("m2", 0, 0)}, nil)

	app := h.App()
	added := markNode("m3", 5, 5)
	app = append(app, added)
	h.Update(app, nil, NewAdd(ParentLayer, added))

	app = h.App()
	m1, _ := app.Find("m1")
	before := m1.Clone()
	m1.Attrs.X = 50
	h.Update(app, nil, NewTransform(before, m1))

	app = h.App()
	h.Update(app, []string{"m2", "m3", "m1"}, NewMove(ParentLayer, m1, 0, 2))

	if _, ok, err := h.Undo(noopApply); !ok || err != nil {
		t.Fatalf("Undo = %v, %v", ok, err)
	}
	if got := strings.Join(orderIDs(h.App().Order(h.Sorting())), ","); got != "m1,m2,m3" {
		t.Errorf("order after undoing move = %s, want m1,m2,m3", got)
	}
	h.Undo(noopApply)
	if n, _ := h.Find("m1"); n.Attrs.X != 0 {
		t.Errorf("x after undoing transform = %v, want 0", n.Attrs.X)
	}
	h.Undo(noopApply)
	if n, _ := h.Find("m3"); n == nil || n.Visible() {
		t.Errorf("m3 after undoing add = %+v, want present and hidden", n)
	}
	if h.CanUndo() {
		t.Error("CanUndo = true with an empty stack")
	}
	if _, ok, _ := h.Undo(noopApply); ok {
		t.Error("Undo on an empty stack = true")
	}

	for h.CanRedo() {
		h.Redo(noopApply)
	}
	if n, _ := h.Find("m1"); n.Attrs.X != 50 {
		t.Errorf("x after redo = %v, want 50", n.Attrs.X)
	}
	if n, _ := h.Find("m3"); !n.Visible() {
		t.Error("m3 hidden after redo")
	}
	if got := strings.Join(h.Sorting(), ","); got != "m2,m3,m1" {
		t.Errorf("sorting after redo = %s, want m2,m3,m1", got)
	}
}

func TestHistoryStateIsCopied(t *testing.T) {
	app := AppState{markNode("m1", 0, 0)}
	h := NewHistory(app, nil)
	app[0].Attrs.X = 99
	if n, _ := h.Find("m1"); n.Attrs.X != 0 {
		t.Errorf("history shares the caller's state: x = %v", n.Attrs.X)
	}
	got := h.App()
	got[0].Attrs.X = 42
	if n, _ := h.Find("m1"); n.Attrs.X != 0 {
		t.Errorf("App returns shared state: x = %v", n.Attrs.X)
	}
}

func TestHistoryOnChange(t *testing.T) {
	h := NewHistory(nil, nil)
	calls := 0
	sub := h.OnChange(func(Snapshot) { calls++ })

	h.Reset(AppState{markNode("m1", 0, 0)}, nil)
	h.Resync(h.App())
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	sub.Remove()
	sub.Remove()
	h.Reset(nil, nil)
	if calls != 2 {
		t.Errorf("calls after Remove = %d, want 2", calls)
	}
}

func TestApplyFailureStillPatchesState(t *testing.T) {
	h := NewHistory(AppState{markNode("m1", 0, 0)}, nil)
	app := h.App()
	before := app[0].Clone()
	app[0].State = Hidden
	h.Update(app, nil, NewRemove(ParentLayer, before))

	_, ok, err := h.Undo(func(Diff, Direction) error { return ErrLiveObjectMissing })
	if !ok || !errors.Is(err, ErrLiveObjectMissing) {
		t.Fatalf("Undo = %v, %v; want true, ErrLiveObjectMissing", ok, err)
	}
	if n, _ := h.Find("m1"); !n.Visible() {
		t.Error("state not reverted when apply failed")
	}
	if !h.CanRedo() {
		t.Error("failed undo not moved to the redo stack")
	}
}

func TestHistoryFilter(t *testing.T) {
	m1, m2 := markNode("m1", 0, 0), markNode("m2", 0, 0)
	h := NewHistory(AppState{m1, m2}, nil)
	for _, n := range []*CNode{m1, m2, m1} {
		h.Update(h.App(), nil, NewAttrChange(n, n))
	}
	h.Undo(func(Diff, Direction) error { return nil })

	dropped := h.Filter(func(d Diff) bool { return d.TargetID() != "m1" })
	if dropped != 2 {
		t.Errorf("Filter dropped %d, want 2", dropped)
	}
	prev, redo := h.Steps()
	if len(prev) != 1 || prev[0].TargetID() != "m2" {
		t.Errorf("undo stack = %v, want the m2 change", prev)
	}
	if len(redo) != 0 {
		t.Errorf("redo stack = %v, want empty", redo)
	}
}
