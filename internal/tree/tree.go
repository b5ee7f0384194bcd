// Package tree maintains a persistent accessibility tree: an id-indexed
// table of nodes with parent tracked as a plain id field and children as
// ordered id lists, so cross-references never form ownership cycles.
//
// The tree mutates only through Apply, which validates a whole batch before
// touching anything: either every insertion, removal, reparenting, and
// attribute change in the batch takes effect, or a StructuralError is
// returned and the tree is bit-identical to its pre-Apply state.
package tree

import "sort"

// TreeData is tree-wide scalar state, as opposed to per-node attributes:
// which node holds focus and where the text selection sits.
type TreeData struct {
	FocusedID             NodeID
	SelectionBaseID       NodeID
	SelectionBaseOffset   int32
	SelectionExtentID     NodeID
	SelectionExtentOffset int32
}

// EmptyTreeData returns tree data with every id field set to InvalidNodeID.
// The TreeData zero value is not usable: a zero FocusedID would claim the
// root is focused.
func EmptyTreeData() TreeData {
	return TreeData{
		FocusedID:         InvalidNodeID,
		SelectionBaseID:   InvalidNodeID,
		SelectionExtentID: InvalidNodeID,
	}
}

// Update is one atomic batch of node data to reconcile into the tree.
// Node order within the batch is irrelevant; Apply derives its own
// deterministic traversal order from the resulting structure.
type Update struct {
	Nodes []NodeData

	// Data replaces the tree-wide data when HasData is set.
	Data    TreeData
	HasData bool
}

// Snapshot is a deep copy of the tree's visible state at one instant, safe
// to hold across later Applies. Parents maps each id to its parent id
// (InvalidNodeID for the root).
type Snapshot struct {
	Nodes   map[NodeID]NodeData
	Parents map[NodeID]NodeID
	Data    TreeData
}

// Tree is the persistent accessibility tree. It is not safe for concurrent
// use; the owning bridge serializes all access on one goroutine.
type Tree struct {
	nodes map[NodeID]*Node
	data  TreeData
	obs   Observer
}

// New creates an empty tree. obs may be nil; pass an Observer to receive
// per-node callbacks during Apply.
func New(obs Observer) *Tree {
	if obs == nil {
		obs = noopObserver{}
	}
	return &Tree{
		nodes: make(map[NodeID]*Node),
		data:  EmptyTreeData(),
		obs:   obs,
	}
}

// SetObserver replaces the observer without touching tree state.
func (t *Tree) SetObserver(obs Observer) {
	if obs == nil {
		obs = noopObserver{}
	}
	t.obs = obs
}

// Node returns the node with the given id, or nil.
func (t *Tree) Node(id NodeID) *Node { return t.nodes[id] }

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node { return t.nodes[RootID] }

// Size returns the number of live nodes.
func (t *Tree) Size() int { return len(t.nodes) }

// Data returns the tree-wide data.
func (t *Tree) Data() TreeData { return t.data }

// Walk traverses the tree depth-first in traversal order, calling fn for
// each node. Returning false stops the walk.
func (t *Tree) Walk(fn func(n *Node) bool) {
	if root := t.Root(); root != nil {
		walkNode(root, fn)
	}
}

func walkNode(n *Node, fn func(n *Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children() {
		if !walkNode(c, fn) {
			return false
		}
	}
	return true
}

// Snapshot captures the current nodes, parent links, and tree data.
func (t *Tree) Snapshot() Snapshot {
	s := Snapshot{
		Nodes:   make(map[NodeID]NodeData, len(t.nodes)),
		Parents: make(map[NodeID]NodeID, len(t.nodes)),
		Data:    t.data,
	}
	for id, n := range t.nodes {
		s.Nodes[id] = n.data.Clone()
		s.Parents[id] = n.parent
	}
	return s
}

// Apply reconciles one batch into the tree. On success it returns the tagged
// change list (the same list passed to OnAtomicUpdateFinished) plus the ids
// of update records that were dropped because the same batch deleted their
// ancestor — a tolerated degradation the caller should surface as a warning.
// On a structural violation it returns a *StructuralError and the tree is
// unchanged; no observer callback fires.
func (t *Tree) Apply(u Update) (changes []Change, dropped []NodeID, err error) {
	updated := make(map[NodeID]NodeData, len(u.Nodes))
	for _, nd := range u.Nodes {
		if _, dup := updated[nd.ID]; dup {
			return nil, nil, structuralErrorf(ErrCodeDuplicateNode, nd.ID,
				"node %d appears twice in one batch", nd.ID)
		}
		updated[nd.ID] = nd
	}

	exists := func(id NodeID) bool {
		if _, ok := updated[id]; ok {
			return true
		}
		_, ok := t.nodes[id]
		return ok
	}
	childIDs := func(id NodeID) []NodeID {
		if nd, ok := updated[id]; ok {
			return nd.ChildIDs
		}
		if n, ok := t.nodes[id]; ok {
			return n.data.ChildIDs
		}
		return nil
	}

	if !exists(RootID) {
		return nil, nil, structuralErrorf(ErrCodeNoRoot, RootID,
			"neither the batch nor the tree contains root node %d", RootID)
	}

	// Validation walk over the structure the batch would produce. Records
	// each reachable id's new parent and the deterministic traversal order.
	newParent := make(map[NodeID]NodeID)
	onStack := make(map[NodeID]bool)
	var order []NodeID

	var walk func(id, parent NodeID) error
	walk = func(id, parent NodeID) error {
		if onStack[id] {
			return structuralErrorf(ErrCodeCycle, id,
				"node %d is its own ancestor", id)
		}
		if _, seen := newParent[id]; seen {
			return structuralErrorf(ErrCodeDuplicateChild, id,
				"node %d is claimed as a child by more than one parent", id)
		}
		newParent[id] = parent
		order = append(order, id)
		onStack[id] = true
		for _, c := range childIDs(id) {
			if !exists(c) {
				return structuralErrorf(ErrCodeUnknownChild, id,
					"node %d references child %d which is in neither the batch nor the tree", id, c)
			}
			if err := walk(c, id); err != nil {
				return err
			}
		}
		onStack[id] = false
		return nil
	}
	if err := walk(RootID, InvalidNodeID); err != nil {
		return nil, nil, err
	}

	// Update records for nodes that did not end up reachable: a brand-new
	// unattached node rejects the batch; an existing node being deleted by
	// the same batch has its record dropped, non-fatally.
	for id := range updated {
		if _, reached := newParent[id]; reached {
			continue
		}
		if _, existed := t.nodes[id]; !existed {
			return nil, nil, structuralErrorf(ErrCodeUnattachedNode, id,
				"node %d is not reachable from the root", id)
		}
		dropped = append(dropped, id)
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i] < dropped[j] })

	// Validation passed; from here on every mutation succeeds.

	// Deletions: subtree roots in old traversal order, each torn down
	// depth-first with children before parents.
	deleted := make(map[NodeID]bool)
	for id := range t.nodes {
		if _, reached := newParent[id]; !reached {
			deleted[id] = true
		}
	}
	if len(deleted) > 0 {
		var delRoots []*Node
		t.Walk(func(n *Node) bool {
			if deleted[n.ID()] && (n.IsRoot() || !deleted[n.ParentID()]) {
				delRoots = append(delRoots, n)
			}
			return true
		})
		for _, root := range delRoots {
			if len(root.ChildIDs()) > 0 {
				t.obs.OnSubtreeWillBeDeleted(root)
			}
			changes = t.deleteSubtree(root, deleted, changes)
		}
	}

	// Creations, reparents, and attribute changes in new traversal order.
	rootChanged := false
	for _, id := range order {
		nd, inUpdate := updated[id]
		parent := newParent[id]
		n, existed := t.nodes[id]
		if !existed {
			n = &Node{tree: t, data: nd.Clone(), parent: parent}
			t.nodes[id] = n
			if id == RootID {
				rootChanged = true
			}
			changes = append(changes, Change{ID: id, Kind: ChangeNodeCreated})
			t.obs.OnNodeCreated(n)
			continue
		}
		oldParent := n.parent
		oldRole := n.data.Role
		if inUpdate {
			n.data = nd.Clone()
		}
		n.parent = parent
		switch {
		case oldParent != parent:
			changes = append(changes, Change{ID: id, Kind: ChangeNodeReparented})
			t.obs.OnNodeReparented(n)
		case inUpdate && oldRole != n.data.Role:
			changes = append(changes, Change{
				ID: id, Kind: ChangeRoleChanged, OldRole: oldRole, NewRole: n.data.Role,
			})
			t.obs.OnRoleChanged(n, oldRole, n.data.Role)
		case inUpdate:
			changes = append(changes, Change{ID: id, Kind: ChangeNodeUpdated})
		}
	}

	if u.HasData {
		t.data = u.Data
	}

	// Tree data may only reference live nodes. Deletions in this batch can
	// orphan the focused or selection ids even when the batch carried no
	// data update, e.g. when the focused node is removed by omission.
	if id := t.data.FocusedID; id != InvalidNodeID {
		if _, ok := t.nodes[id]; !ok {
			t.data.FocusedID = InvalidNodeID
		}
	}
	if t.data.SelectionBaseID != InvalidNodeID || t.data.SelectionExtentID != InvalidNodeID {
		_, baseOK := t.nodes[t.data.SelectionBaseID]
		_, extentOK := t.nodes[t.data.SelectionExtentID]
		if !baseOK || !extentOK {
			t.data.SelectionBaseID = InvalidNodeID
			t.data.SelectionBaseOffset = 0
			t.data.SelectionExtentID = InvalidNodeID
			t.data.SelectionExtentOffset = 0
		}
	}

	t.obs.OnAtomicUpdateFinished(rootChanged, changes)
	return changes, dropped, nil
}

// deleteSubtree removes n and its doomed descendants, children before
// parents. Descendants being reparented elsewhere in the same batch are not
// in the deleted set and are left alone.
func (t *Tree) deleteSubtree(n *Node, deleted map[NodeID]bool, changes []Change) []Change {
	for _, c := range n.Children() {
		if deleted[c.ID()] {
			changes = t.deleteSubtree(c, deleted, changes)
		}
	}
	id := n.ID()
	t.obs.OnNodeWillBeDeleted(n)
	delete(t.nodes, id)
	t.obs.OnNodeDeleted(id)
	return append(changes, Change{ID: id, Kind: ChangeNodeDeleted})
}

// noopObserver discards every callback.
type noopObserver struct{}

func (noopObserver) OnNodeCreated(*Node)                   {}
func (noopObserver) OnSubtreeWillBeDeleted(*Node)          {}
func (noopObserver) OnNodeWillBeDeleted(*Node)             {}
func (noopObserver) OnNodeDeleted(NodeID)                  {}
func (noopObserver) OnNodeReparented(*Node)                {}
func (noopObserver) OnRoleChanged(*Node, Role, Role)       {}
func (noopObserver) OnAtomicUpdateFinished(bool, []Change) {}
