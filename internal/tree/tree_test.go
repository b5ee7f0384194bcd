package tree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver captures every callback as a readable string so tests
// can assert on exact ordering.
type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) OnNodeCreated(n *Node) {
	r.calls = append(r.calls, fmt.Sprintf("created(%d)", n.ID()))
}

func (r *recordingObserver) OnSubtreeWillBeDeleted(n *Node) {
	r.calls = append(r.calls, fmt.Sprintf("subtree_will_be_deleted(%d)", n.ID()))
}

func (r *recordingObserver) OnNodeWillBeDeleted(n *Node) {
	r.calls = append(r.calls, fmt.Sprintf("will_be_deleted(%d)", n.ID()))
}

func (r *recordingObserver) OnNodeDeleted(id NodeID) {
	r.calls = append(r.calls, fmt.Sprintf("deleted(%d)", id))
}

func (r *recordingObserver) OnNodeReparented(n *Node) {
	r.calls = append(r.calls, fmt.Sprintf("reparented(%d)", n.ID()))
}

func (r *recordingObserver) OnRoleChanged(n *Node, oldRole, newRole Role) {
	r.calls = append(r.calls, fmt.Sprintf("role_changed(%d,%s,%s)", n.ID(), oldRole, newRole))
}

func (r *recordingObserver) OnAtomicUpdateFinished(rootChanged bool, changes []Change) {
	r.calls = append(r.calls, fmt.Sprintf("finished(root=%v,changes=%d)", rootChanged, len(changes)))
}

func (r *recordingObserver) reset() { r.calls = nil }

// nd builds a minimal group node with the given children.
func nd(id NodeID, children ...NodeID) NodeData {
	return NodeData{ID: id, Role: RoleGroup, ChildIDs: children}
}

// mustApply applies and fails the test on error.
func mustApply(t *testing.T, tr *Tree, u Update) []Change {
	t.Helper()
	changes, dropped, err := tr.Apply(u)
	require.NoError(t, err)
	require.Empty(t, dropped)
	return changes
}

// =============================================================================
// Creation
// =============================================================================

func TestApply_CreatesRootAndChildren(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	tr := New(obs)

	changes := mustApply(t, tr, Update{Nodes: []NodeData{
		nd(0, 1, 2),
		nd(1),
		nd(2),
	}})

	require.Equal(t, 3, tr.Size())
	require.Equal(t, []Change{
		{ID: 0, Kind: ChangeNodeCreated},
		{ID: 1, Kind: ChangeNodeCreated},
		{ID: 2, Kind: ChangeNodeCreated},
	}, changes)

	root := tr.Root()
	require.NotNil(t, root)
	assert.True(t, root.IsRoot())
	assert.Equal(t, []NodeID{1, 2}, root.ChildIDs())

	child := tr.Node(1)
	require.NotNil(t, child)
	assert.Equal(t, NodeID(0), child.ParentID())
	assert.Same(t, root, child.Parent())

	assert.Equal(t, []string{
		"created(0)", "created(1)", "created(2)",
		"finished(root=true,changes=3)",
	}, obs.calls)
}

func TestApply_EmptyUpdateOnEmptyTreeNeedsRoot(t *testing.T) {
	t.Parallel()
	tr := New(nil)

	_, _, err := tr.Apply(Update{Nodes: []NodeData{nd(1)}})
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrCodeNoRoot, serr.Code)
	assert.Equal(t, 0, tr.Size())
}

func TestApply_CreationOrderIsTraversalOrder(t *testing.T) {
	t.Parallel()
	tr := New(nil)

	// Batch order deliberately scrambled; the change list must follow
	// depth-first traversal order from the root.
	changes := mustApply(t, tr, Update{Nodes: []NodeData{
		nd(4),
		nd(2, 4),
		nd(0, 1, 2),
		nd(1, 3),
		nd(3),
	}})

	ids := make([]NodeID, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []NodeID{0, 1, 3, 2, 4}, ids)
}

// =============================================================================
// Structural validation
// =============================================================================

func TestApply_UnknownChildRejected(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0, 1), nd(1)}})

	before := tr.Snapshot()
	_, _, err := tr.Apply(Update{Nodes: []NodeData{nd(1, 99)}})

	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrCodeUnknownChild, serr.Code)
	assert.Equal(t, NodeID(1), serr.NodeID)

	// Failed apply must leave the tree bit-identical.
	assert.Equal(t, before, tr.Snapshot())
}

func TestApply_CycleRejected(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0, 1), nd(1, 2), nd(2)}})

	before := tr.Snapshot()
	// 2 adopts its grandparent's parent chain: 2 -> 1 forms a cycle.
	_, _, err := tr.Apply(Update{Nodes: []NodeData{nd(2, 1)}})

	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrCodeCycle, serr.Code)
	assert.Equal(t, before, tr.Snapshot())
}

func TestApply_SelfReferenceRejected(t *testing.T) {
	t.Parallel()
	tr := New(nil)

	_, _, err := tr.Apply(Update{Nodes: []NodeData{nd(0, 0)}})
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrCodeCycle, serr.Code)
}

func TestApply_DuplicateParentRejected(t *testing.T) {
	t.Parallel()
	tr := New(nil)

	// Both 1 and 2 claim 3 as a child.
	_, _, err := tr.Apply(Update{Nodes: []NodeData{
		nd(0, 1, 2),
		nd(1, 3),
		nd(2, 3),
		nd(3),
	}})
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrCodeDuplicateChild, serr.Code)
	assert.Equal(t, NodeID(3), serr.NodeID)
	assert.Equal(t, 0, tr.Size())
}

func TestApply_DuplicateNodeInBatchRejected(t *testing.T) {
	t.Parallel()
	tr := New(nil)

	_, _, err := tr.Apply(Update{Nodes: []NodeData{nd(0), nd(0)}})
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrCodeDuplicateNode, serr.Code)
}

func TestApply_UnattachedNewNodeRejected(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0)}})

	// 7 is brand new and nothing references it.
	_, _, err := tr.Apply(Update{Nodes: []NodeData{nd(7)}})
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrCodeUnattachedNode, serr.Code)
	assert.Equal(t, NodeID(7), serr.NodeID)
	assert.Equal(t, 1, tr.Size())
}

func TestApply_NoCallbacksOnFailure(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	tr := New(obs)
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0)}})
	obs.reset()

	_, _, err := tr.Apply(Update{Nodes: []NodeData{nd(0, 99)}})
	require.Error(t, err)
	assert.Empty(t, obs.calls)
}

// =============================================================================
// Deletion
// =============================================================================

func TestApply_DeletionCallbackOrdering(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	tr := New(obs)
	mustApply(t, tr, Update{Nodes: []NodeData{
		nd(0, 1),
		nd(1, 2, 3),
		nd(2),
		nd(3),
	}})
	obs.reset()

	// Root drops its only child: 1, 2, 3 all go.
	changes := mustApply(t, tr, Update{Nodes: []NodeData{nd(0)}})

	// One subtree notice for the subtree root, then per-node teardown with
	// children before parents.
	assert.Equal(t, []string{
		"subtree_will_be_deleted(1)",
		"will_be_deleted(2)", "deleted(2)",
		"will_be_deleted(3)", "deleted(3)",
		"will_be_deleted(1)", "deleted(1)",
		"finished(root=false,changes=4)",
	}, obs.calls)

	require.Equal(t, []Change{
		{ID: 2, Kind: ChangeNodeDeleted},
		{ID: 3, Kind: ChangeNodeDeleted},
		{ID: 1, Kind: ChangeNodeDeleted},
		{ID: 0, Kind: ChangeNodeUpdated},
	}, changes)
	assert.Equal(t, 1, tr.Size())
}

func TestApply_LeafDeletionHasNoSubtreeNotice(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	tr := New(obs)
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0, 1), nd(1)}})
	obs.reset()

	mustApply(t, tr, Update{Nodes: []NodeData{nd(0)}})

	assert.Equal(t, []string{
		"will_be_deleted(1)", "deleted(1)",
		"finished(root=false,changes=2)",
	}, obs.calls)
}

func TestApply_OrphanUpdateDroppedWhenAncestorDeleted(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0, 1), nd(1, 2), nd(2)}})

	// The batch deletes 1 (and with it 2) but also carries an update for 2.
	update2 := nd(2)
	update2.Name = "doomed"
	changes, dropped, err := tr.Apply(Update{Nodes: []NodeData{nd(0), update2}})
	require.NoError(t, err)

	assert.Equal(t, []NodeID{2}, dropped)
	assert.Nil(t, tr.Node(2))
	assert.Equal(t, 1, tr.Size())

	for _, c := range changes {
		if c.ID == 2 {
			assert.Equal(t, ChangeNodeDeleted, c.Kind)
		}
	}
}

// =============================================================================
// Reparenting and attribute changes
// =============================================================================

func TestApply_ReparentEmitsSingleReparentChange(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	tr := New(obs)
	mustApply(t, tr, Update{Nodes: []NodeData{
		nd(0, 1, 2),
		nd(1, 3),
		nd(2),
		nd(3),
	}})
	obs.reset()

	// Move 3 from under 1 to under 2.
	changes := mustApply(t, tr, Update{Nodes: []NodeData{nd(1), nd(2, 3)}})

	var kinds []ChangeKind
	for _, c := range changes {
		if c.ID == 3 {
			kinds = append(kinds, c.Kind)
		}
	}
	require.Equal(t, []ChangeKind{ChangeNodeReparented}, kinds)
	assert.Equal(t, NodeID(2), tr.Node(3).ParentID())
	assert.Contains(t, obs.calls, "reparented(3)")
	assert.NotContains(t, obs.calls, "created(3)")
	assert.NotContains(t, obs.calls, "deleted(3)")
}

func TestApply_ReparentOutOfDeletedSubtreeSurvives(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	tr := New(obs)
	mustApply(t, tr, Update{Nodes: []NodeData{
		nd(0, 1, 2),
		nd(1, 3),
		nd(2),
		nd(3),
	}})
	obs.reset()

	// Delete 1 while 2 adopts 3 in the same batch.
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0, 2), nd(2, 3)}})

	require.NotNil(t, tr.Node(3))
	assert.Equal(t, NodeID(2), tr.Node(3).ParentID())
	assert.Nil(t, tr.Node(1))
	assert.NotContains(t, obs.calls, "deleted(3)")
	assert.Contains(t, obs.calls, "deleted(1)")
	assert.Contains(t, obs.calls, "reparented(3)")
}

func TestApply_RoleChange(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	tr := New(obs)
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0, 1), {ID: 1, Role: RoleStaticText}}})
	obs.reset()

	changes := mustApply(t, tr, Update{Nodes: []NodeData{{ID: 1, Role: RoleButton}}})

	require.Equal(t, []Change{
		{ID: 1, Kind: ChangeRoleChanged, OldRole: RoleStaticText, NewRole: RoleButton},
	}, changes)
	assert.Contains(t, obs.calls, "role_changed(1,static_text,button)")
}

func TestApply_ReparentTakesPrecedenceOverRoleChange(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	mustApply(t, tr, Update{Nodes: []NodeData{
		nd(0, 1, 2),
		{ID: 1, Role: RoleGroup, ChildIDs: []NodeID{3}},
		nd(2),
		{ID: 3, Role: RoleStaticText},
	}})

	changes := mustApply(t, tr, Update{Nodes: []NodeData{
		nd(1),
		nd(2, 3),
		{ID: 3, Role: RoleButton},
	}})

	for _, c := range changes {
		if c.ID == 3 {
			assert.Equal(t, ChangeNodeReparented, c.Kind)
		}
	}
	// The role change itself still lands in the node data.
	assert.Equal(t, RoleButton, tr.Node(3).Data().Role)
}

func TestApply_PlainAttributeMutation(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0)}})

	update := nd(0)
	update.Name = "App"
	changes := mustApply(t, tr, Update{Nodes: []NodeData{update}})

	require.Equal(t, []Change{{ID: 0, Kind: ChangeNodeUpdated}}, changes)
	assert.Equal(t, "App", tr.Root().Data().Name)
}

// =============================================================================
// Tree data and snapshots
// =============================================================================

func TestEmptyTreeData(t *testing.T) {
	t.Parallel()
	d := EmptyTreeData()
	assert.Equal(t, InvalidNodeID, d.FocusedID)
	assert.Equal(t, InvalidNodeID, d.SelectionBaseID)
	assert.Equal(t, InvalidNodeID, d.SelectionExtentID)

	tr := New(nil)
	assert.Equal(t, d, tr.Data())
}

func TestApply_SetsTreeData(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	data := EmptyTreeData()
	data.FocusedID = 1

	mustApply(t, tr, Update{
		Nodes:   []NodeData{nd(0, 1), nd(1)},
		Data:    data,
		HasData: true,
	})
	assert.Equal(t, NodeID(1), tr.Data().FocusedID)

	// Without HasData the previous tree data is untouched.
	mustApply(t, tr, Update{Nodes: []NodeData{nd(1)}})
	assert.Equal(t, NodeID(1), tr.Data().FocusedID)
}

func TestApply_ClearsFocusWhenFocusedNodeDeleted(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	focused := EmptyTreeData()
	focused.FocusedID = 1
	mustApply(t, tr, Update{
		Nodes:   []NodeData{nd(0, 1), nd(1)},
		Data:    focused,
		HasData: true,
	})

	// The batch deletes 1 by omission and carries no data update; the
	// focused id must not survive pointing at a dead node.
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0)}})
	assert.Equal(t, InvalidNodeID, tr.Data().FocusedID)
}

func TestApply_ClearsSelectionWhenOwnerDeleted(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	sel := EmptyTreeData()
	sel.SelectionBaseID = 1
	sel.SelectionBaseOffset = 2
	sel.SelectionExtentID = 1
	sel.SelectionExtentOffset = 5
	mustApply(t, tr, Update{
		Nodes:   []NodeData{nd(0, 1), nd(1)},
		Data:    sel,
		HasData: true,
	})

	mustApply(t, tr, Update{Nodes: []NodeData{nd(0)}})
	assert.Equal(t, EmptyTreeData(), tr.Data())
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0, 1), nd(1)}})

	snap := tr.Snapshot()
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0)}})

	// The snapshot still sees the old structure.
	assert.Len(t, snap.Nodes, 2)
	assert.Equal(t, []NodeID{1}, snap.Nodes[0].ChildIDs)
	assert.Equal(t, NodeID(0), snap.Parents[1])
	assert.Equal(t, 1, tr.Size())
}

func TestWalk_TraversalOrder(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	mustApply(t, tr, Update{Nodes: []NodeData{
		nd(0, 2, 1),
		nd(1),
		nd(2, 3),
		nd(3),
	}})

	var ids []NodeID
	tr.Walk(func(n *Node) bool {
		ids = append(ids, n.ID())
		return true
	})
	assert.Equal(t, []NodeID{0, 2, 3, 1}, ids)
}

func TestNode_DataIsACopy(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	mustApply(t, tr, Update{Nodes: []NodeData{nd(0, 1), nd(1)}})

	d := tr.Root().Data()
	d.ChildIDs[0] = 99
	d.Name = "mutated"

	assert.Equal(t, []NodeID{1}, tr.Root().ChildIDs())
	assert.Empty(t, tr.Root().Data().Name)
}
