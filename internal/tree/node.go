package tree

// NodeID identifies a node within a Tree. IDs are assigned by the producer
// and are stable for the lifetime of the node, including across reparenting.
type NodeID int32

const (
	// RootID is the reserved id of the tree root.
	RootID NodeID = 0

	// InvalidNodeID is the sentinel for "no node" (focus, selection, parent
	// of the root).
	InvalidNodeID NodeID = -1
)

// TextDirection is the resolved reading direction of a node's text.
type TextDirection int32

const (
	TextDirectionUnknown TextDirection = iota
	TextDirectionRTL
	TextDirectionLTR
)

func (d TextDirection) String() string {
	switch d {
	case TextDirectionRTL:
		return "rtl"
	case TextDirectionLTR:
		return "ltr"
	default:
		return "unknown"
	}
}

// Rect is a node's bounding box in its local coordinate space.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Transform maps a node's local coordinates into its parent's space.
// Row-major 3x3 affine matrix; the zero value is not a valid transform,
// use IdentityTransform for nodes without one.
type Transform [9]float64

// IdentityTransform returns the identity affine transform.
func IdentityTransform() Transform {
	return Transform{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// CustomActionData is a resolved custom action attached to a node.
type CustomActionData struct {
	ID             int32
	OverrideAction Action
	Label          string
	Hint           string
}

// NodeData is the attribute bag of a single node. It is a value type: the
// tree stores one per node and hands out deep copies, so callers can hold a
// snapshot across a commit without it mutating underneath them.
type NodeData struct {
	ID      NodeID
	Role    Role
	States  State
	Actions Action

	Name           string
	Value          string
	Description    string
	IncreasedValue string
	DecreasedValue string
	TextDirection  TextDirection

	TextSelectionBase   int32
	TextSelectionExtent int32

	ScrollChildCount int32
	ScrollIndex      int32
	ScrollPosition   float64
	ScrollExtentMin  float64
	ScrollExtentMax  float64

	Elevation float64
	Thickness float64
	Rect      Rect
	Transform Transform

	ChildIDs      []NodeID
	CustomActions []CustomActionData
}

// Clone returns a deep copy of the data.
func (d NodeData) Clone() NodeData {
	out := d
	if d.ChildIDs != nil {
		out.ChildIDs = make([]NodeID, len(d.ChildIDs))
		copy(out.ChildIDs, d.ChildIDs)
	}
	if d.CustomActions != nil {
		out.CustomActions = make([]CustomActionData, len(d.CustomActions))
		copy(out.CustomActions, d.CustomActions)
	}
	return out
}

// Node is a live tree node. Nodes are owned exclusively by their Tree and
// must not be retained across an Apply; look them up again by id instead.
type Node struct {
	tree   *Tree
	data   NodeData
	parent NodeID
}

// ID returns the node's id.
func (n *Node) ID() NodeID { return n.data.ID }

// Data returns a deep copy of the node's attribute bag.
func (n *Node) Data() NodeData { return n.data.Clone() }

// ParentID returns the parent's id, or InvalidNodeID for the root.
func (n *Node) ParentID() NodeID { return n.parent }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	if n.parent == InvalidNodeID {
		return nil
	}
	return n.tree.Node(n.parent)
}

// ChildIDs returns the ordered child ids. The returned slice is owned by the
// node; callers must not mutate it.
func (n *Node) ChildIDs() []NodeID { return n.data.ChildIDs }

// Children returns the child nodes in traversal order.
func (n *Node) Children() []*Node {
	if len(n.data.ChildIDs) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(n.data.ChildIDs))
	for _, id := range n.data.ChildIDs {
		if c := n.tree.Node(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// IsRoot reports whether this node is the tree root.
func (n *Node) IsRoot() bool { return n.parent == InvalidNodeID }
