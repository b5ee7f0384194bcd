package tree

// ChangeKind tags what happened to a node during an Apply. At most one
// structural kind applies per node per batch; when several could, the
// precedence is created > deleted > reparented > role-changed > updated.
type ChangeKind int

const (
	ChangeNodeCreated ChangeKind = iota
	ChangeNodeDeleted
	ChangeNodeReparented
	ChangeRoleChanged
	ChangeNodeUpdated
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeNodeCreated:
		return "created"
	case ChangeNodeDeleted:
		return "deleted"
	case ChangeNodeReparented:
		return "reparented"
	case ChangeRoleChanged:
		return "role_changed"
	case ChangeNodeUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// Change is one tagged change record from an atomic update. The full list is
// delivered to Observer.OnAtomicUpdateFinished and returned from Apply, in
// deterministic order: deletions first (depth-first, children before
// parents), then surviving nodes in depth-first traversal order from the
// root.
type Change struct {
	ID      NodeID
	Kind    ChangeKind
	OldRole Role // set for ChangeRoleChanged
	NewRole Role // set for ChangeRoleChanged
}

// Observer receives callbacks while an Apply mutates the tree. Callbacks run
// synchronously inside Apply; an observer must not call back into Apply.
type Observer interface {
	// OnNodeCreated fires after a node is inserted and linked to its parent.
	OnNodeCreated(n *Node)

	// OnSubtreeWillBeDeleted fires once for the root of each deleted subtree
	// that has children, before any per-node deletion callbacks in that
	// subtree. The subtree is still intact and walkable.
	OnSubtreeWillBeDeleted(n *Node)

	// OnNodeWillBeDeleted fires before a node is unlinked; the node is still
	// in the tree.
	OnNodeWillBeDeleted(n *Node)

	// OnNodeDeleted fires after the node is gone; only the id survives.
	OnNodeDeleted(id NodeID)

	// OnNodeReparented fires when an existing node's parent changed. The
	// node's delegate identity is expected to be preserved by consumers.
	OnNodeReparented(n *Node)

	// OnRoleChanged fires when an existing node kept its parent but changed
	// role.
	OnRoleChanged(n *Node, oldRole, newRole Role)

	// OnAtomicUpdateFinished fires exactly once per successful Apply, after
	// all per-node callbacks, with the complete change list.
	OnAtomicUpdateFinished(rootChanged bool, changes []Change)
}
