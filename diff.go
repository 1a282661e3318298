package storyboard

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ParentLayer is the parent id of top-level nodes in Add, Remove and Move.
const ParentLayer = "Layer"

// Diff is one reversible edit. The set of implementations is closed.
type Diff interface {
	// CommitID returns the unique id of the edit.
	CommitID() string
	// TargetID returns the id of the node the edit applies to.
	TargetID() string
	diffType() string
}

// Commit carries the id shared by every diff variant.
type Commit struct {
	ID string `json:"commitId"`
}

// CommitID implements Diff.
func (c Commit) CommitID() string { return c.ID }

func newCommit() Commit {
	return Commit{ID: uuid.NewString()}
}

// AttrChange replaces style, text or image attributes of one node.
type AttrChange struct {
	Commit
	Old *CNode `json:"old"`
	New *CNode `json:"new"`
}

// Transform replaces the geometry of one node after an interactive move,
// resize or rotate.
type Transform struct {
	Commit
	Old *CNode `json:"old"`
	New *CNode `json:"new"`
}

// Add records a node created under Parent.
type Add struct {
	Commit
	Parent string `json:"parentCNodeId"`
	Node   *CNode `json:"node"`
}

// Remove records a soft delete. Node is the clone taken before deletion.
type Remove struct {
	Commit
	Parent string `json:"parentCNodeId"`
	Node   *CNode `json:"node"`
}

// NodeRef is the minimal descriptor a Move carries.
type NodeRef struct {
	Kind Kind   `json:"cType"`
	ID   string `json:"id"`
}

// Move records a sibling index change.
type Move struct {
	Commit
	Parent string  `json:"parentCNodeId"`
	Ref    NodeRef `json:"ref"`
	OldZ   int     `json:"oldZIndex"`
	NewZ   int     `json:"newZIndex"`
}

// NewAttrChange returns an AttrChange with a fresh commit id.
func NewAttrChange(before, after *CNode) *AttrChange {
	return &AttrChange{Commit: newCommit(), Old: before.Clone(), New: after.Clone()}
}

// NewTransform returns a Transform with a fresh commit id.
func NewTransform(before, after *CNode) *Transform {
	return &Transform{Commit: newCommit(), Old: before.Clone(), New: after.Clone()}
}

// NewAdd returns an Add with a fresh commit id.
func NewAdd(parent string, n *CNode) *Add {
	return &Add{Commit: newCommit(), Parent: parent, Node: n.Clone()}
}

// NewRemove returns a Remove with a fresh commit id.
func NewRemove(parent string, n *CNode) *Remove {
	return &Remove{Commit: newCommit(), Parent: parent, Node: n.Clone()}
}

// NewMove returns a Move with a fresh commit id.
func NewMove(parent string, n *CNode, oldZ, newZ int) *Move {
	return &Move{
		Commit: newCommit(),
		Parent: parent,
		Ref:    NodeRef{Kind: n.Kind, ID: n.Attrs.ID},
		OldZ:   oldZ,
		NewZ:   newZ,
	}
}

func (d *AttrChange) TargetID() string { return d.Old.Attrs.ID }
func (d *Transform) TargetID() string  { return d.Old.Attrs.ID }
func (d *Add) TargetID() string        { return d.Node.Attrs.ID }
func (d *Remove) TargetID() string     { return d.Node.Attrs.ID }
func (d *Move) TargetID() string       { return d.Ref.ID }

func (*AttrChange) diffType() string { return "NodeAttrChange" }
func (*Transform) diffType() string  { return "NodeTransform" }
func (*Add) diffType() string        { return "NodeAdd" }
func (*Remove) diffType() string     { return "NodeRemove" }
func (*Move) diffType() string       { return "NodeMove" }

// DiffType returns the stored tag of d, such as "NodeMove".
func DiffType(d Diff) string {
	return d.diffType()
}

type diffEnvelope struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"diff"`
}

// MarshalDiff encodes d inside a {"type": ..., "diff": ...} envelope.
func MarshalDiff(d Diff) ([]byte, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", d.diffType(), err)
	}
	return json.Marshal(diffEnvelope{Type: d.diffType(), Body: body})
}

// UnmarshalDiff decodes an envelope written by MarshalDiff.
func UnmarshalDiff(b []byte) (Diff, error) {
	var env diffEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("unmarshal diff: %w", err)
	}
	var d Diff
	switch env.Type {
	case "NodeAttrChange":
		d = &AttrChange{}
	case "NodeTransform":
		d = &Transform{}
	case "NodeAdd":
		d = &Add{}
	case "NodeRemove":
		d = &Remove{}
	case "NodeMove":
		d = &Move{}
	default:
		return nil, fmt.Errorf("diff type %q: %w", env.Type, ErrUnknownKind)
	}
	if err := json.Unmarshal(env.Body, d); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
	}
	return d, nil
}

// attrField names an attribute the partial updater may blind-patch.
type attrField uint8

const (
	fieldWidth attrField = iota
	fieldHeight
	fieldFill
	fieldStroke
	fieldStrokeWidth
	fieldFontSize
	fieldFontFamily
	fieldAlign
)

// patchableFields lists, per kind, the attributes an AttrChange may set on
// the live object. Geometry other than the box belongs to Transform.
var patchableFields = map[Kind][]attrField{
	KindPage:     {fieldWidth, fieldHeight, fieldFill, fieldStroke, fieldStrokeWidth},
	KindBubble:   {fieldWidth, fieldHeight},
	KindImage:    {fieldWidth, fieldHeight},
	KindText:     {fieldWidth, fieldHeight, fieldFill, fieldStroke, fieldStrokeWidth, fieldFontSize, fieldFontFamily, fieldAlign},
	KindMarkArea: {fieldWidth, fieldHeight, fieldFill, fieldStroke, fieldStrokeWidth},
}

func patchable(k Kind) []attrField {
	return patchableFields[k]
}
