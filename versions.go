package storyboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Version is an archived copy of the story.
type Version struct {
	ID      int64    `json:"versionId"` // unix milliseconds
	Label   string   `json:"label,omitempty"`
	App     AppState `json:"appState"`
	Sorting []string `json:"comicPageSorting"`
}

// LoadVersions reads the archived versions from s, oldest first.
func LoadVersions(s Store) ([]Version, error) {
	b, err := s.Get(KeyVersions)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load versions: %w", err)
	}
	var vs []Version
	if err := json.Unmarshal(b, &vs); err != nil {
		return nil, fmt.Errorf("load versions: %w", err)
	}
	return vs, nil
}

func saveVersions(s Store, vs []Version) error {
	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Errorf("save versions: %w", err)
	}
	if err := s.Put(KeyVersions, b); err != nil {
		return fmt.Errorf("save versions: %w", err)
	}
	return nil
}

// Archive stores the current state as a new version.
func (c *Canvas) Archive(label string) (Version, error) {
	if c.store == nil {
		return Version{}, fmt.Errorf("archive: no store")
	}
	vs, err := LoadVersions(c.store)
	if err != nil {
		return Version{}, err
	}
	snap := c.history.Snapshot()
	v := Version{ID: time.Now().UnixMilli(), Label: label, App: snap.App, Sorting: snap.Sorting}
	if n := len(vs); n > 0 && v.ID <= vs[n-1].ID {
		v.ID = vs[n-1].ID + 1
	}
	if err := saveVersions(c.store, append(vs, v)); err != nil {
		return Version{}, err
	}
	c.log.Info("archive", "version", v.ID, "label", label, "nodes", len(v.App))
	return v, nil
}

// Versions lists the archived versions, oldest first.
func (c *Canvas) Versions() ([]Version, error) {
	if c.store == nil {
		return nil, nil
	}
	return LoadVersions(c.store)
}

// Checkout replaces the content with an archived version. History is
// cleared.
func (c *Canvas) Checkout(ctx context.Context, id int64) error {
	vs, err := c.Versions()
	if err != nil {
		return err
	}
	for _, v := range vs {
		if v.ID == id {
			c.history.Clear()
			c.Rebuild(ctx, Snapshot{App: v.App, Sorting: v.Sorting})
			c.log.Info("checkout", "version", id)
			return nil
		}
	}
	return fmt.Errorf("checkout version %d: %w", id, ErrNotFound)
}
