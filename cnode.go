package storyboard

import (
	"encoding/json"
	"fmt"
)

// Kind tags the variant of a CNode.
type Kind uint8

const (
	KindPage Kind = iota + 1 // bordered panel that may hold children
	KindImage
	KindText
	KindBubble // speech bubble artwork, may hold children
	KindMarkArea
)

var kindNames = [...]string{
	KindPage:     "comic_page",
	KindImage:    "comic_image",
	KindText:     "comic_text",
	KindBubble:   "comic_bubble",
	KindMarkArea: "comic_mark_area",
}

func (k Kind) String() string {
	if k == 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind maps a stored tag such as "comic_page" to a Kind.
func ParseKind(s string) (Kind, error) {
	for k := KindPage; int(k) < len(kindNames); k++ {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("kind %q: %w", s, ErrUnknownKind)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k == 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("kind %d: %w", uint8(k), ErrUnknownKind)
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Container reports whether nodes of this kind are built as a wrapper group
// with a clipped children area.
func (k Kind) Container() bool {
	return k == KindPage || k == KindBubble
}

// Lifecycle is the soft-delete state of a node. Hidden nodes keep their
// identity and history.
type Lifecycle uint8

const (
	Active Lifecycle = iota
	Hidden
)

// Geometry holds the attributes every node carries. Rotation and skew are in
// radians.
type Geometry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
	SkewX    float64 `json:"skewX"`
	SkewY    float64 `json:"skewY"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
}

// HasSize reports whether a box size has ever been recorded.
func (g Geometry) HasSize() bool {
	return g.Width > 0 || g.Height > 0
}

// Style is the paint of pages, bubbles, mark areas and text.
type Style struct {
	Fill        string    `json:"fill,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
	Dash        []float64 `json:"dash,omitempty"`
}

// TextPayload is the content and font of a text node.
type TextPayload struct {
	Content    string  `json:"text"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	Align      string  `json:"align,omitempty"`
}

// ImageVariant is one generated or uploaded version of an image.
type ImageVariant struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// ImagePayload is the variant history of an image node.
type ImagePayload struct {
	URLs   []ImageVariant `json:"imageUrls"`
	Index  int            `json:"imageIndex"`
	Prompt string         `json:"prompt,omitempty"`
}

// CNode is the durable description of one canvas element.
type CNode struct {
	Kind  Kind
	Attrs Geometry
	Style *Style
	Text  *TextPayload
	Image *ImagePayload

	// ImageURL is the last applied display URL of an image or bubble.
	ImageURL string

	Children     []*CNode
	ChildSorting []string
	State        Lifecycle
}

// Visible reports whether the node is not soft-deleted.
func (n *CNode) Visible() bool {
	return n.State == Active
}

// DisplayURL returns the URL of the active variant, falling back to ImageURL.
func (n *CNode) DisplayURL() string {
	if n.Image != nil && n.Image.Index >= 0 && n.Image.Index < len(n.Image.URLs) {
		return n.Image.URLs[n.Image.Index].URL
	}
	return n.ImageURL
}

// Clone returns a deep copy of n.
func (n *CNode) Clone() *CNode {
	if n == nil {
		return nil
	}
	c := *n
	if n.Style != nil {
		s := *n.Style
		s.Dash = append([]float64(nil), n.Style.Dash...)
		c.Style = &s
	}
	if n.Text != nil {
		t := *n.Text
		c.Text = &t
	}
	if n.Image != nil {
		im := *n.Image
		im.URLs = append([]ImageVariant(nil), n.Image.URLs...)
		c.Image = &im
	}
	if n.Children != nil {
		c.Children = make([]*CNode, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	if n.ChildSorting != nil {
		c.ChildSorting = append([]string(nil), n.ChildSorting...)
	}
	return &c
}

// Validate checks that the payloads match the kind.
func (n *CNode) Validate() error {
	if n.Attrs.ID == "" {
		return fmt.Errorf("node without id: %w", ErrInvalidNode)
	}
	if n.Kind == 0 || int(n.Kind) >= len(kindNames) {
		return fmt.Errorf("node %s kind %d: %w", n.Attrs.ID, n.Kind, ErrUnknownKind)
	}
	if n.Text != nil && n.Kind != KindText {
		return fmt.Errorf("node %s: text payload on %s: %w", n.Attrs.ID, n.Kind, ErrInvalidNode)
	}
	if n.Image != nil {
		if n.Kind != KindImage {
			return fmt.Errorf("node %s: image payload on %s: %w", n.Attrs.ID, n.Kind, ErrInvalidNode)
		}
		if len(n.Image.URLs) > 0 && (n.Image.Index < 0 || n.Image.Index >= len(n.Image.URLs)) {
			return fmt.Errorf("node %s: image index %d of %d: %w", n.Attrs.ID, n.Image.Index, len(n.Image.URLs), ErrInvalidNode)
		}
	}
	if len(n.Children) > 0 && !n.Kind.Container() {
		return fmt.Errorf("node %s: children on %s: %w", n.Attrs.ID, n.Kind, ErrInvalidNode)
	}
	for _, ch := range n.Children {
		if err := ch.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Child returns the direct child with the given id.
func (n *CNode) Child(id string) *CNode {
	for _, ch := range n.Children {
		if ch.Attrs.ID == id {
			return ch
		}
	}
	return nil
}

// SortedChildren returns the children in paint order: ChildSorting first,
// then any child it does not name, in insertion order.
func (n *CNode) SortedChildren() []*CNode {
	return sortNodes(n.Children, n.ChildSorting)
}

func sortNodes(nodes []*CNode, sorting []string) []*CNode {
	if len(sorting) == 0 {
		return nodes
	}
	byID := make(map[string]*CNode, len(nodes))
	for _, ch := range nodes {
		byID[ch.Attrs.ID] = ch
	}
	out := make([]*CNode, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, id := range sorting {
		if ch, ok := byID[id]; ok && !seen[id] {
			out = append(out, ch)
			seen[id] = true
		}
	}
	for _, ch := range nodes {
		if !seen[ch.Attrs.ID] {
			out = append(out, ch)
		}
	}
	return out
}

// cnodeJSON is the stored shape. Attributes are flattened into attrs the way
// sessions were written before typed payloads existed.
type cnodeJSON struct {
	Kind         Kind      `json:"cType"`
	Attrs        attrsJSON `json:"attrs"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Children     []*CNode  `json:"children,omitempty"`
	ChildSorting []string  `json:"childSorting,omitempty"`
	Visible      *bool     `json:"visible,omitempty"`
}

type attrsJSON struct {
	Geometry
	*Style
	*TextPayload
	*ImagePayload
}

// MarshalJSON implements json.Marshaler.
func (n *CNode) MarshalJSON() ([]byte, error) {
	v := cnodeJSON{
		Kind:         n.Kind,
		Attrs:        attrsJSON{n.Attrs, n.Style, n.Text, n.Image},
		ImageURL:     n.ImageURL,
		Children:     n.Children,
		ChildSorting: n.ChildSorting,
	}
	if n.State == Hidden {
		f := false
		v.Visible = &f
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler. Payloads are attached according
// to the kind.
func (n *CNode) UnmarshalJSON(b []byte) error {
	v := cnodeJSON{Attrs: attrsJSON{Style: &Style{}, TextPayload: &TextPayload{}, ImagePayload: &ImagePayload{}}}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = CNode{
		Kind:         v.Kind,
		Attrs:        v.Attrs.Geometry,
		ImageURL:     v.ImageURL,
		Children:     v.Children,
		ChildSorting: v.ChildSorting,
	}
	if v.Visible != nil && !*v.Visible {
		n.State = Hidden
	}
	switch n.Kind {
	case KindPage, KindBubble, KindMarkArea:
		n.Style = v.Attrs.Style
	case KindText:
		n.Style = v.Attrs.Style
		n.Text = v.Attrs.TextPayload
	case KindImage:
		n.Image = v.Attrs.ImagePayload
	}
	return nil
}

// AppState is the ordered list of top-level nodes.
type AppState []*CNode

// Clone deep-copies the state.
func (s AppState) Clone() AppState {
	if s == nil {
		return nil
	}
	out := make(AppState, len(s))
	for i, n := range s {
		out[i] = n.Clone()
	}
	return out
}

// Find returns the node with the given id and its container, which is nil
// for top-level nodes.
func (s AppState) Find(id string) (node, parent *CNode) {
	for _, n := range s {
		if n.Attrs.ID == id {
			return n, nil
		}
	}
	for _, n := range s {
		if ch := n.Child(id); ch != nil {
			return ch, n
		}
	}
	return nil, nil
}

// Order returns the top-level nodes in paint order under sorting.
func (s AppState) Order(sorting []string) []*CNode {
	return sortNodes(s, sorting)
}

// IDs returns the top-level ids in array order.
func (s AppState) IDs() []string {
	ids := make([]string, len(s))
	for i, n := range s {
		ids[i] = n.Attrs.ID
	}
	return ids
}

// Walk calls fn for every node, parents before children. parent is nil for
// top-level nodes.
func (s AppState) Walk(fn func(n, parent *CNode)) {
	for _, n := range s {
		fn(n, nil)
		for _, ch := range n.Children {
			fn(ch, n)
		}
	}
}

// Validate validates every node and rejects duplicate ids.
func (s AppState) Validate() error {
	seen := make(map[string]bool)
	var err error
	s.Walk(func(n, _ *CNode) {
		if err != nil {
			return
		}
		if err = n.Validate(); err != nil {
			return
		}
		if seen[n.Attrs.ID] {
			err = fmt.Errorf("duplicate id %s: %w", n.Attrs.ID, ErrInvalidNode)
		}
		seen[n.Attrs.ID] = true
	})
	return err
}
