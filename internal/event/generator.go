// Package event derives semantic change events from two tree snapshots.
//
// Generate is a pure function: no side effects, and byte-identical inputs
// produce identical ordered output, which is what makes commit behavior
// testable. Structural events (created, deleted, reparented, role-changed)
// always precede attribute-derived events for the same commit, and the
// sequence is deduplicated by (target id, kind).
package event

import "github.com/jward/semabridge/internal/tree"

// Kind identifies what changed for the target node.
type Kind int

const (
	KindNodeCreated Kind = iota
	KindNodeDeleted
	KindNodeReparented
	KindRoleChanged
	KindStateChanged
	KindNameChanged
	KindValueChanged
	KindDescriptionChanged
	KindScrollPositionChanged
	KindChildrenChanged
	KindSelectionChanged
	KindFocusChanged
)

func (k Kind) String() string {
	switch k {
	case KindNodeCreated:
		return "node_created"
	case KindNodeDeleted:
		return "node_deleted"
	case KindNodeReparented:
		return "node_reparented"
	case KindRoleChanged:
		return "role_changed"
	case KindStateChanged:
		return "state_changed"
	case KindNameChanged:
		return "name_changed"
	case KindValueChanged:
		return "value_changed"
	case KindDescriptionChanged:
		return "description_changed"
	case KindScrollPositionChanged:
		return "scroll_position_changed"
	case KindChildrenChanged:
		return "children_changed"
	case KindSelectionChanged:
		return "selection_changed"
	case KindFocusChanged:
		return "focus_changed"
	default:
		return "unknown"
	}
}

// TargetedEvent pairs an event kind with its target node. Node carries the
// post-commit snapshot, or the last-known snapshot for KindNodeDeleted, so a
// consumer can act on the event without re-querying the tree.
type TargetedEvent struct {
	TargetID tree.NodeID
	Kind     Kind
	Node     tree.NodeData
}

// Generate compares the tree state before and after one commit and returns
// the ordered, deduplicated event sequence. changes is the tagged change
// list the tree produced during Apply; its order fixes the event order.
func Generate(prev, next tree.Snapshot, changes []tree.Change) []TargetedEvent {
	g := generator{
		prev: prev,
		next: next,
		seen: make(map[eventKey]bool),
	}

	// Structural events first, in change-list order.
	for _, c := range changes {
		switch c.Kind {
		case tree.ChangeNodeCreated:
			g.add(c.ID, KindNodeCreated, g.next.Nodes[c.ID])
		case tree.ChangeNodeDeleted:
			g.add(c.ID, KindNodeDeleted, g.prev.Nodes[c.ID])
		case tree.ChangeNodeReparented:
			g.add(c.ID, KindNodeReparented, g.next.Nodes[c.ID])
		case tree.ChangeRoleChanged:
			g.add(c.ID, KindRoleChanged, g.next.Nodes[c.ID])
		}
	}

	// Attribute events for nodes that existed before and still exist.
	for _, c := range changes {
		if c.Kind == tree.ChangeNodeCreated || c.Kind == tree.ChangeNodeDeleted {
			continue
		}
		old, existed := g.prev.Nodes[c.ID]
		now, exists := g.next.Nodes[c.ID]
		if !existed || !exists {
			continue
		}
		g.diffNode(c.ID, old, now)
	}

	// Tree-wide data last.
	g.diffTreeData()

	return g.events
}

type eventKey struct {
	id   tree.NodeID
	kind Kind
}

type generator struct {
	prev   tree.Snapshot
	next   tree.Snapshot
	seen   map[eventKey]bool
	events []TargetedEvent
}

func (g *generator) add(id tree.NodeID, kind Kind, node tree.NodeData) {
	key := eventKey{id: id, kind: kind}
	if g.seen[key] {
		return
	}
	g.seen[key] = true
	g.events = append(g.events, TargetedEvent{TargetID: id, Kind: kind, Node: node})
}

func (g *generator) diffNode(id tree.NodeID, old, now tree.NodeData) {
	if old.States != now.States {
		g.add(id, KindStateChanged, now)
	}
	if old.Name != now.Name {
		g.add(id, KindNameChanged, now)
	}
	if old.Value != now.Value {
		g.add(id, KindValueChanged, now)
	}
	if old.Description != now.Description {
		g.add(id, KindDescriptionChanged, now)
	}
	if old.ScrollPosition != now.ScrollPosition ||
		old.ScrollExtentMin != now.ScrollExtentMin ||
		old.ScrollExtentMax != now.ScrollExtentMax {
		g.add(id, KindScrollPositionChanged, now)
	}
	if !childListsEqual(old.ChildIDs, now.ChildIDs) {
		g.add(id, KindChildrenChanged, now)
	}
	if old.TextSelectionBase != now.TextSelectionBase ||
		old.TextSelectionExtent != now.TextSelectionExtent {
		g.add(id, KindSelectionChanged, now)
	}
}

func (g *generator) diffTreeData() {
	if g.prev.Data.FocusedID != g.next.Data.FocusedID {
		if id := g.next.Data.FocusedID; id != tree.InvalidNodeID {
			g.add(id, KindFocusChanged, g.next.Nodes[id])
		} else if old := g.prev.Data.FocusedID; old != tree.InvalidNodeID {
			// Focus cleared: target the node that lost it, if it survived.
			if node, ok := g.next.Nodes[old]; ok {
				g.add(old, KindFocusChanged, node)
			}
		}
	}
	if selectionDiffers(g.prev.Data, g.next.Data) {
		if id := g.next.Data.SelectionExtentID; id != tree.InvalidNodeID {
			g.add(id, KindSelectionChanged, g.next.Nodes[id])
		}
	}
}

func selectionDiffers(a, b tree.TreeData) bool {
	return a.SelectionBaseID != b.SelectionBaseID ||
		a.SelectionBaseOffset != b.SelectionBaseOffset ||
		a.SelectionExtentID != b.SelectionExtentID ||
		a.SelectionExtentOffset != b.SelectionExtentOffset
}

func childListsEqual(a, b []tree.NodeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
