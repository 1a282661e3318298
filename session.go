package storyboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// LoadSession reads the saved state from s. A missing ordering is treated as
// empty; a missing state is ErrNotFound.
func LoadSession(s Store) (Snapshot, error) {
	var snap Snapshot
	b, err := s.Get(KeyAppState)
	if err != nil {
		return snap, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal(b, &snap.App); err != nil {
		return snap, fmt.Errorf("load session: decode %s: %w", KeyAppState, err)
	}
	if err := snap.App.Validate(); err != nil {
		return snap, fmt.Errorf("load session: %w", err)
	}
	b, err = s.Get(KeySorting)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return snap, fmt.Errorf("load session: %w", err)
	default:
		if err := json.Unmarshal(b, &snap.Sorting); err != nil {
			return snap, fmt.Errorf("load session: decode %s: %w", KeySorting, err)
		}
	}
	return snap, nil
}

// SaveSession writes snap to s.
func SaveSession(s Store, snap Snapshot) error {
	app := snap.App
	if app == nil {
		app = AppState{}
	}
	b, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := s.Put(KeyAppState, b); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sorting := snap.Sorting
	if sorting == nil {
		sorting = []string{}
	}
	b, err = json.Marshal(sorting)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := s.Put(KeySorting, b); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// HasSession reports whether s holds a non-empty saved story.
func HasSession(s Store) bool {
	snap, err := LoadSession(s)
	return err == nil && len(snap.App) > 0
}

// save is the autosave subscriber.
func (c *Canvas) save(snap Snapshot) {
	if err := SaveSession(c.store, snap); err != nil {
		c.log.Error("autosave", "err", err)
	}
}

// Resume rebuilds the canvas from the saved session. When nothing usable is
// saved the tutorial is shown instead.
func (c *Canvas) Resume(ctx context.Context) {
	if c.store == nil {
		c.StartTutorial(ctx)
		return
	}
	snap, err := LoadSession(c.store)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn("resume session", "err", err)
		}
		c.StartTutorial(ctx)
		return
	}
	c.history.Clear()
	c.Rebuild(ctx, snap)
	c.log.Info("session resumed", "nodes", len(snap.App))
}

// NewStory discards all content and history.
func (c *Canvas) NewStory(ctx context.Context) {
	c.history.Clear()
	c.Rebuild(ctx, Snapshot{})
}

// StartTutorial replaces the content with the starter story.
func (c *Canvas) StartTutorial(ctx context.Context) {
	c.history.Clear()
	c.Rebuild(ctx, TutorialState(c.cfg))
}

// TutorialState is the starter story: one panel holding a hint text.
func TutorialState(cfg *Config) Snapshot {
	w := cfg.Canvas.Width
	page := &CNode{
		Kind: KindPage,
		Attrs: Geometry{
			ID: NewID(), ScaleX: 1, ScaleY: 1,
			Width: w, Height: cfg.Canvas.PanelHeight,
		},
		Style: &Style{Fill: "white", Stroke: "black", StrokeWidth: panelStrokeWidth},
	}
	hint := &CNode{
		Kind:  KindText,
		Attrs: Geometry{ID: NewID(), ScaleX: 1, ScaleY: 1},
		Style: &Style{Fill: "black", Stroke: "white"},
		Text: &TextPayload{
			Content:    "Double click to edit",
			FontFamily: defaultFontFamily,
			FontSize:   defaultFontSize,
			Align:      "center",
		},
	}
	page.Children = []*CNode{hint}
	return Snapshot{App: AppState{page}}
}
