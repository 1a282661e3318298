package storyboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard reads and writes text.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard is the desktop clipboard.
type SystemClipboard struct{}

// ReadAll implements Clipboard.
func (SystemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// MemoryClipboard keeps the text in memory.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

// ReadAll implements Clipboard.
func (m *MemoryClipboard) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// WriteAll implements Clipboard.
func (m *MemoryClipboard) WriteAll(text string) error {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
	return nil
}

// clipEntry is what Copy writes: the node and the container it came from.
type clipEntry struct {
	Parent string `json:"parentCNodeId"`
	Node   *CNode `json:"node"`
}

// Copy writes the node to the clipboard as JSON.
func (c *Canvas) Copy(id string) error {
	n, parent := c.history.Find(id)
	if n == nil {
		return fmt.Errorf("copy %s: %w", id, ErrNotFound)
	}
	b, err := json.Marshal(clipEntry{Parent: parent, Node: n})
	if err != nil {
		return fmt.Errorf("copy %s: %w", id, err)
	}
	if err := c.clip.WriteAll(string(b)); err != nil {
		return fmt.Errorf("copy %s: %w", id, err)
	}
	return nil
}

// CopySelected copies the selected node.
func (c *Canvas) CopySelected() error {
	if c.selection == nil {
		return ErrNoSelection
	}
	return c.Copy(c.selection.ID)
}

// Paste inserts the node on the clipboard with fresh ids, offset from where
// it was copied. It goes back into its container when that still exists and
// to the top level otherwise.
func (c *Canvas) Paste(ctx context.Context) (*CNode, error) {
	text, err := c.clip.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("paste: %w", err)
	}
	var e clipEntry
	if err := json.Unmarshal([]byte(text), &e); err != nil || e.Node == nil {
		return nil, fmt.Errorf("paste: clipboard holds no node: %w", ErrInvalidNode)
	}
	n := e.Node
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("paste: %w", err)
	}
	n.State = Active
	reassignIDs(n)
	off := c.cfg.Canvas.DuplicateOffset
	n.Attrs.X += off
	n.Attrs.Y += off

	parent := ParentLayer
	if e.Parent != ParentLayer {
		if p, _ := c.history.Find(e.Parent); p != nil && p.Visible() {
			parent = e.Parent
		}
	}
	if err := c.insert(ctx, parent, n); err != nil {
		return nil, fmt.Errorf("paste: %w", err)
	}
	if err := c.Select(n.Attrs.ID); err != nil {
		return nil, err
	}
	out, _ := c.history.Find(n.Attrs.ID)
	return out, nil
}
