package storyboard

import (
	"strings"

	"github.com/google/uuid"
	"github.com/phanxgames/storyboard/stage"
)

const (
	groupPrefix    = "group-"
	childrenPrefix = "images-wrapper-"
)

// GroupID returns the id of the outer transform group of a container node.
func GroupID(id string) string {
	return groupPrefix + id
}

// ChildrenID returns the id of the clipped children group of a container node.
func ChildrenID(id string) string {
	return childrenPrefix + id
}

// LogicalID recovers a node id from any live id. The group prefix is checked
// before the children prefix; bare ids are returned unchanged.
func LogicalID(v string) string {
	if s, ok := strings.CutPrefix(v, groupPrefix); ok {
		return s
	}
	if s, ok := strings.CutPrefix(v, childrenPrefix); ok {
		return s
	}
	return v
}

// NewID returns a fresh random node id.
func NewID() string {
	return uuid.NewString()
}

// Ref is the back-reference every live handle carries to its logical node.
// Container is the id of the page or bubble holding a child, empty at the
// top level.
type Ref struct {
	ID        string
	Kind      Kind
	Container string
}

// RefOf returns the back-reference of a live node.
func RefOf(n *stage.Node) (Ref, bool) {
	if n == nil {
		return Ref{}, false
	}
	r, ok := n.Ref.(Ref)
	return r, ok
}

func kindOf(n *stage.Node) Kind {
	r, _ := RefOf(n)
	return r.Kind
}

// IsPage reports whether n belongs to a page. A nil node is not a page.
func IsPage(n *stage.Node) bool { return kindOf(n) == KindPage }

// IsImage reports whether n is an image node.
func IsImage(n *stage.Node) bool { return kindOf(n) == KindImage }

// IsBubble reports whether n belongs to a bubble.
func IsBubble(n *stage.Node) bool { return kindOf(n) == KindBubble }

// IsText reports whether n is a text node.
func IsText(n *stage.Node) bool { return kindOf(n) == KindText }

// IsMarkArea reports whether n is a mark area.
func IsMarkArea(n *stage.Node) bool { return kindOf(n) == KindMarkArea }
