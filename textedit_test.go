package storyboard

import (
	"context"
	"testing"
)

func TestDropLastGrapheme(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "ab"},
		{"é", ""},
		{"a👍🏽", "a"},
		{"héllo", "héll"},
	}
	for _, tt := range tests {
		if got := dropLastGrapheme(tt.in); got != tt.want {
			t.Errorf("dropLastGrapheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextEditCommit(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	c.Rebuild(ctx, Snapshot{App: AppState{textNode("t1", 100, 100, "Hi")}})
	ln, _ := c.lookup("t1")

	g, err := c.BeginTextEdit("t1")
	if err != nil {
		t.Fatal(err)
	}
	if g.Value != "Hi" || g.ID != "t1" {
		t.Errorf("editor = %+v, want value Hi for t1", g)
	}
	if g.ScreenX != 100 || g.ScreenY != 100 || g.Scale != 1 {
		t.Errorf("editor position = (%v, %v) scale %v, want (100, 100) scale 1", g.ScreenX, g.ScreenY, g.Scale)
	}
	if ln.Text.Content != "" {
		t.Errorf("live text while editing = %q, want empty", ln.Text.Content)
	}

	c.SetValue("Hellx")
	c.Backspace()
	c.Insert("o")
	if got := c.EditorValue(); got != "Hello" {
		t.Errorf("EditorValue = %q, want Hello", got)
	}
	if !c.CommitTextEdit() {
		t.Fatal("CommitTextEdit = false, want true")
	}
	if c.Editing() {
		t.Error("still editing after commit")
	}
	n, _ := c.History().Find("t1")
	if n.Text.Content != "Hello" || ln.Text.Content != "Hello" {
		t.Errorf("text = state %q live %q, want Hello", n.Text.Content, ln.Text.Content)
	}
	ac, ok := lastDiff(t, c).(*AttrChange)
	if !ok || ac.Old.Text.Content != "Hi" || ac.New.Text.Content != "Hello" {
		t.Errorf("diff = %+v, want AttrChange Hi -> Hello", lastDiff(t, c))
	}

	c.Undo(ctx)
	if ln.Text.Content != "Hi" {
		t.Errorf("live text after undo = %q, want Hi", ln.Text.Content)
	}
}

func TestTextEditUnchangedOrCancelled(t *testing.T) {
	ctx := context.Background()
	c := newTestCanvas(t)
	c.Rebuild(ctx, Snapshot{App: AppState{textNode("t1", 0, 0, "Hi")}})
	ln, _ := c.lookup("t1")

	if _, err := c.BeginTextEdit("t1"); err != nil {
		t.Fatal(err)
	}
	if c.CommitTextEdit() {
		t.Error("CommitTextEdit with unchanged text = true, want false")
	}

	if _, err := c.BeginTextEdit("t1"); err != nil {
		t.Fatal(err)
	}
	c.SetValue("discarded")
	c.CancelTextEdit()
	if ln.Text.Content != "Hi" {
		t.Errorf("live text after cancel = %q, want Hi", ln.Text.Content)
	}
	if c.History().CanUndo() {
		t.Error("history recorded an edit")
	}
}

func TestBeginTextEditRejectsOtherKinds(t *testing.T) {
	c := newTestCanvas(t)
	c.Rebuild(context.Background(), Snapshot{App: AppState{markNode("m1", 0, 0)}})
	if _, err := c.BeginTextEdit("m1"); err == nil {
		t.Error("BeginTextEdit on a mark area should fail")
	}
	if _, err := c.BeginTextEdit("nope"); err == nil {
		t.Error("BeginTextEdit on an unknown id should fail")
	}
}
