package storyboard

// Direction selects which way a diff is applied.
type Direction uint8

const (
	DirUndo Direction = iota
	DirRedo
)

func (d Direction) String() string {
	if d == DirUndo {
		return "undo"
	}
	return "redo"
}

// Snapshot is the canonical state at one point in time.
type Snapshot struct {
	App     AppState `json:"appState"`
	Sorting []string `json:"comicPageSorting"`
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{App: s.App.Clone(), Sorting: append([]string(nil), s.Sorting...)}
}

// Subscription is returned by OnChange. Call Remove to unsubscribe.
type Subscription struct {
	h  *History
	id uint32
}

// Remove unregisters the subscriber. Calling it twice is a no-op.
func (s Subscription) Remove() {
	if s.h == nil {
		return
	}
	for i, sub := range s.h.subs {
		if sub.id == s.id {
			s.h.subs = append(s.h.subs[:i], s.h.subs[i+1:]...)
			return
		}
	}
}

type subscriber struct {
	id uint32
	fn func(Snapshot)
}

// History owns the canonical AppState, the top-level ordering and the undo
// and redo stacks. Every persistent change goes through Update, Undo, Redo,
// Reset or Resync, so the three always move together.
type History struct {
	app     AppState
	sorting []string
	prev    []Diff
	redo    []Diff

	subs   []subscriber
	nextID uint32
}

// NewHistory creates a history holding a clone of app and sorting.
func NewHistory(app AppState, sorting []string) *History {
	return &History{
		app:     app.Clone(),
		sorting: append([]string(nil), sorting...),
	}
}

// App returns a deep copy of the current state.
func (h *History) App() AppState {
	return h.app.Clone()
}

// Sorting returns a copy of the top-level ordering. Empty means array order.
func (h *History) Sorting() []string {
	return append([]string(nil), h.sorting...)
}

// Snapshot returns a deep copy of the state and ordering.
func (h *History) Snapshot() Snapshot {
	return Snapshot{App: h.App(), Sorting: h.Sorting()}
}

// Find returns a clone of the node with the given id and the id of its
// parent, ParentLayer for top-level nodes.
func (h *History) Find(id string) (*CNode, string) {
	n, parent := h.app.Find(id)
	if n == nil {
		return nil, ""
	}
	if parent == nil {
		return n.Clone(), ParentLayer
	}
	return n.Clone(), parent.Attrs.ID
}

// Update stores a deep copy of app as the canonical state and records d.
// A non-empty sorting replaces the ordering; an empty one keeps it. The redo
// stack is always cleared.
func (h *History) Update(app AppState, sorting []string, d Diff) {
	h.app = app.Clone()
	if len(sorting) > 0 {
		h.sorting = append([]string(nil), sorting...)
	}
	h.prev = append(h.prev, d)
	h.redo = nil
	h.notify()
}

// Undo pops the latest diff, hands it to apply for the live scene, moves it
// to the redo stack and reverts it on the state. It reports false when there
// is nothing to undo. The state is reverted even when apply fails, so a
// caller can rebuild the live scene from it.
func (h *History) Undo(apply func(Diff, Direction) error) (Diff, bool, error) {
	if len(h.prev) == 0 {
		return nil, false, nil
	}
	d := h.prev[len(h.prev)-1]
	h.prev = h.prev[:len(h.prev)-1]
	err := apply(d, DirUndo)
	h.redo = append(h.redo, d)
	h.patch(d, DirUndo)
	h.notify()
	return d, true, err
}

// Redo is the mirror of Undo.
func (h *History) Redo(apply func(Diff, Direction) error) (Diff, bool, error) {
	if len(h.redo) == 0 {
		return nil, false, nil
	}
	d := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	err := apply(d, DirRedo)
	h.prev = append(h.prev, d)
	h.patch(d, DirRedo)
	h.notify()
	return d, true, err
}

// Reset replaces state and ordering without touching the stacks.
func (h *History) Reset(app AppState, sorting []string) {
	h.app = app.Clone()
	h.sorting = append([]string(nil), sorting...)
	h.notify()
}

// Resync replaces the state without recording a diff. It is used for changes
// the user cannot undo, such as a generated image arriving.
func (h *History) Resync(app AppState) {
	h.app = app.Clone()
	h.notify()
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.prev = nil
	h.redo = nil
}

// Filter removes from both stacks every diff for which keep returns false
// and reports how many were removed. The state is not touched.
func (h *History) Filter(keep func(Diff) bool) int {
	n := len(h.prev) + len(h.redo)
	h.prev = filterDiffs(h.prev, keep)
	h.redo = filterDiffs(h.redo, keep)
	return n - len(h.prev) - len(h.redo)
}

func filterDiffs(ds []Diff, keep func(Diff) bool) []Diff {
	out := ds[:0]
	for _, d := range ds {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.prev) > 0 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Steps returns copies of the undo and redo stacks, oldest first.
func (h *History) Steps() (prev, redo []Diff) {
	return append([]Diff(nil), h.prev...), append([]Diff(nil), h.redo...)
}

// OnChange registers fn to run after every state change. fn receives the
// canonical state and must not retain or mutate it.
func (h *History) OnChange(fn func(Snapshot)) Subscription {
	h.nextID++
	h.subs = append(h.subs, subscriber{id: h.nextID, fn: fn})
	return Subscription{h: h, id: h.nextID}
}

func (h *History) notify() {
	snap := Snapshot{App: h.app, Sorting: h.sorting}
	for _, s := range h.subs {
		s.fn(snap)
	}
}

// patch applies d to the state in the given direction. It mirrors what the
// live updater does to the scene.
func (h *History) patch(d Diff, dir Direction) {
	switch d := d.(type) {
	case *AttrChange:
		h.replaceNode(pick(dir, d.Old, d.New))
	case *Transform:
		h.replaceNode(pick(dir, d.Old, d.New))
	case *Add:
		h.setState(d.Node.Attrs.ID, pickState(dir, Hidden, Active))
	case *Remove:
		h.setState(d.Node.Attrs.ID, pickState(dir, Active, Hidden))
	case *Move:
		z := d.NewZ
		if dir == DirUndo {
			z = d.OldZ
		}
		h.reorder(d.Parent, d.Ref.ID, z)
	}
}

func pick(dir Direction, before, after *CNode) *CNode {
	if dir == DirUndo {
		return before
	}
	return after
}

func pickState(dir Direction, undo, redo Lifecycle) Lifecycle {
	if dir == DirUndo {
		return undo
	}
	return redo
}

// replaceNode copies payload and geometry of src onto the node with the same
// id. Children, ordering and lifecycle stay as they are.
func (h *History) replaceNode(src *CNode) {
	if src == nil {
		return
	}
	n, _ := h.app.Find(src.Attrs.ID)
	if n == nil {
		return
	}
	c := src.Clone()
	n.Attrs = c.Attrs
	n.Style = c.Style
	n.Text = c.Text
	n.Image = c.Image
	n.ImageURL = c.ImageURL
}

func (h *History) setState(id string, st Lifecycle) {
	if n, _ := h.app.Find(id); n != nil {
		n.State = st
	}
}

// reorder moves id to index z of its sibling order list, clamped, and stores
// the result as the explicit ordering.
func (h *History) reorder(parent, id string, z int) {
	if parent == ParentLayer {
		h.sorting = moveID(orderIDs(h.app.Order(h.sorting)), id, z)
		return
	}
	p, _ := h.app.Find(parent)
	if p == nil {
		return
	}
	p.ChildSorting = moveID(orderIDs(p.SortedChildren()), id, z)
}

func orderIDs(nodes []*CNode) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.Attrs.ID
	}
	return ids
}

// moveID returns ids with id moved to index z, clamped to the list bounds.
// An id not in the list leaves it unchanged.
func moveID(ids []string, id string, z int) []string {
	from := -1
	for i, v := range ids {
		if v == id {
			from = i
			break
		}
	}
	if from < 0 {
		return ids
	}
	rest := append(ids[:from:from], ids[from+1:]...)
	z = max(0, min(z, len(rest)))
	out := make([]string, 0, len(ids))
	out = append(out, rest[:z]...)
	out = append(out, id)
	return append(out, rest[z:]...)
}
