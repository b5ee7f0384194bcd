package semabridge

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jward/semabridge/internal/event"
	"github.com/jward/semabridge/internal/trace"
	"github.com/jward/semabridge/internal/tree"
)

// ErrCommitInProgress is returned when Commit is entered reentrantly, which
// means a collaborator callback (delegate factory or event sink) violated
// the single-threaded contract by calling back into the bridge mid-commit.
var ErrCommitInProgress = errors.New("semabridge: commit already in progress")

// BridgeDelegate is the platform collaborator: it receives accessibility
// events generated by tree changes, routes actions from native assistive
// technologies back to the producer, and manufactures per-node platform
// delegates.
type BridgeDelegate interface {
	// OnAccessibilityEvent is called once per event during
	// DrainPendingEvents, synchronously in the caller's context.
	OnAccessibilityEvent(ev TargetedEvent)

	// DispatchAccessibilityAction routes an action originating from native
	// assistive technology back to the producer. The bridge forwards the
	// payload unmodified and does not interpret it.
	DispatchAccessibilityAction(target NodeID, action SemanticsAction, payload []byte)

	// CreateNodeDelegate is invoked once per newly created node id.
	// Returning nil leaves the node without a native object, which callers
	// of GetDelegate must tolerate.
	CreateNodeDelegate() NodeDelegate
}

// Warning is a non-fatal degradation detected during a commit: a dangling
// custom action reference, an update record orphaned by a deletion in the
// same batch, or a trace recording failure. NodeID is InvalidNodeID when no
// single node is at fault.
type Warning struct {
	NodeID  NodeID
	Message string
}

// CommitResult summarizes one successful commit.
type CommitResult struct {
	// Seq is the 1-based commit sequence number; 0 for a no-op commit.
	Seq uint64

	// NodesApplied is the number of node records reconciled into the tree.
	NodesApplied int

	// Events is the number of events this commit appended to the pending
	// queue.
	Events int

	Warnings []Warning
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTrace records every commit and its events into rec under a new
// session labeled label. Trace failures degrade to warnings on the
// CommitResult; they never fail a commit.
func WithTrace(rec *trace.Recorder, label string) Option {
	return func(b *Bridge) {
		b.trace = rec
		b.traceLabel = label
	}
}

// WithEventCapacity pre-sizes the pending event queue for producers with
// known batch shapes.
func WithEventCapacity(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.pendingEvents = make([]TargetedEvent, 0, n)
		}
	}
}

// Bridge consumes flat semantics update records and maintains the
// persistent accessibility tree that mirrors them. All methods must run on
// one designated goroutine; the bridge has no internal locking.
type Bridge struct {
	delegate BridgeDelegate
	tree     *tree.Tree
	registry *delegateRegistry

	// Staging buffer: pending updates keyed by id, applied on Commit.
	pendingNodes   map[NodeID]SemanticsNode
	pendingActions map[int32]SemanticsCustomAction

	// customActions is the committed custom action table, resolved against
	// by node records.
	customActions map[int32]tree.CustomActionData

	pendingEvents []TargetedEvent
	lastFocused   NodeID
	committing    bool
	commitSeq     uint64

	trace        *trace.Recorder
	traceLabel   string
	traceSession string
}

// New creates a bridge with an empty tree. delegate may be nil, in which
// case no node delegates are created and drained events are only returned,
// not forwarded; SetDelegate can supply a collaborator later without losing
// tree state.
func New(delegate BridgeDelegate, opts ...Option) (*Bridge, error) {
	b := &Bridge{
		delegate:       delegate,
		registry:       newDelegateRegistry(),
		pendingNodes:   make(map[NodeID]SemanticsNode),
		pendingActions: make(map[int32]SemanticsCustomAction),
		customActions:  make(map[int32]tree.CustomActionData),
		lastFocused:    InvalidNodeID,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.tree = tree.New(&bridgeObserver{b: b})

	if b.trace != nil {
		session, err := b.trace.BeginSession(b.traceLabel)
		if err != nil {
			return nil, fmt.Errorf("semabridge: begin trace session: %w", err)
		}
		b.traceSession = session
	}
	return b, nil
}

// SetDelegate swaps the platform collaborator without touching tree state.
// Existing node delegates stay registered; only future node creations use
// the new factory.
func (b *Bridge) SetDelegate(delegate BridgeDelegate) {
	b.delegate = delegate
}

// AddNodeUpdate stages one node record, replacing any staged record with
// the same id. Nothing is visible until Commit.
func (b *Bridge) AddNodeUpdate(n SemanticsNode) {
	b.pendingNodes[n.ID] = n
}

// AddCustomActionUpdate stages one custom action record, replacing any
// staged record with the same id. Nothing is visible until Commit.
func (b *Bridge) AddCustomActionUpdate(a SemanticsCustomAction) {
	b.pendingActions[a.ID] = a
}

// Commit atomically applies all staged updates to the tree. With nothing
// staged it is a no-op. On a structural violation it returns a
// *tree.StructuralError, the tree is untouched, and the staging buffer is
// retained so a corrected batch can be resubmitted; on success the staging
// buffer is cleared and the generated events are appended to the pending
// queue for DrainPendingEvents.
func (b *Bridge) Commit() (CommitResult, error) {
	if b.committing {
		return CommitResult{}, ErrCommitInProgress
	}
	if len(b.pendingNodes) == 0 && len(b.pendingActions) == 0 {
		return CommitResult{}, nil
	}
	b.committing = true
	defer func() { b.committing = false }()

	upd, warnings := b.buildUpdate()
	prev := b.tree.Snapshot()

	// Custom actions live independently of nodes: a batch holding only
	// action records merges the action table without touching the tree, so
	// it commits even against an empty tree.
	var changes []tree.Change
	var dropped []tree.NodeID
	if len(upd.Nodes) > 0 {
		var err error
		changes, dropped, err = b.tree.Apply(upd)
		if err != nil {
			return CommitResult{}, err
		}
	}
	for _, id := range dropped {
		warnings = append(warnings, Warning{
			NodeID:  id,
			Message: fmt.Sprintf("update for node %d dropped: deleted by the same batch", id),
		})
	}

	// Custom actions survive commits independently of nodes.
	for id, a := range b.pendingActions {
		b.customActions[id] = tree.CustomActionData{
			ID:             a.ID,
			OverrideAction: projectActions(a.OverrideAction),
			Label:          a.Label,
			Hint:           a.Hint,
		}
	}

	next := b.tree.Snapshot()
	evs := event.Generate(prev, next, changes)
	b.pendingEvents = append(b.pendingEvents, evs...)

	if focused := next.Data.FocusedID; focused != InvalidNodeID {
		b.lastFocused = focused
	} else if b.lastFocused != InvalidNodeID {
		if _, alive := next.Nodes[b.lastFocused]; !alive {
			b.lastFocused = InvalidNodeID
		}
	}

	b.pendingNodes = make(map[NodeID]SemanticsNode)
	b.pendingActions = make(map[int32]SemanticsCustomAction)
	b.commitSeq++

	res := CommitResult{
		Seq:          b.commitSeq,
		NodesApplied: len(upd.Nodes),
		Events:       len(evs),
		Warnings:     warnings,
	}

	if b.trace != nil {
		if terr := b.trace.RecordCommit(b.traceSession, b.commitSeq, len(upd.Nodes), len(warnings), evs); terr != nil {
			res.Warnings = append(res.Warnings, Warning{
				NodeID:  InvalidNodeID,
				Message: fmt.Sprintf("trace: %v", terr),
			})
		}
	}
	return res, nil
}

// buildUpdate converts the staging buffer into a structural update in
// deterministic (ascending id) order and recomputes the tree-wide data from
// whichever staged nodes carry focus and selection.
func (b *Bridge) buildUpdate() (tree.Update, []Warning) {
	ids := make([]NodeID, 0, len(b.pendingNodes))
	for id := range b.pendingNodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var warnings []Warning
	upd := tree.Update{Nodes: make([]tree.NodeData, 0, len(ids))}
	data := b.tree.Data()

	for _, id := range ids {
		sn := b.pendingNodes[id]
		nd, w := deriveNodeData(sn, b.lookupCustomAction)
		warnings = append(warnings, w...)
		upd.Nodes = append(upd.Nodes, nd)

		if sn.Flags.Has(FlagIsFocused) {
			data.FocusedID = id
		} else if data.FocusedID == id {
			data.FocusedID = InvalidNodeID
		}

		if sn.TextSelectionBase >= 0 && sn.TextSelectionExtent >= 0 {
			data.SelectionBaseID = id
			data.SelectionBaseOffset = sn.TextSelectionBase
			data.SelectionExtentID = id
			data.SelectionExtentOffset = sn.TextSelectionExtent
		} else if data.SelectionBaseID == id {
			data.SelectionBaseID = InvalidNodeID
			data.SelectionBaseOffset = 0
			data.SelectionExtentID = InvalidNodeID
			data.SelectionExtentOffset = 0
		}
	}

	upd.Data = data
	upd.HasData = true
	return upd, warnings
}

func (b *Bridge) lookupCustomAction(id int32) (tree.CustomActionData, bool) {
	if a, ok := b.pendingActions[id]; ok {
		return tree.CustomActionData{
			ID:             a.ID,
			OverrideAction: projectActions(a.OverrideAction),
			Label:          a.Label,
			Hint:           a.Hint,
		}, true
	}
	a, ok := b.customActions[id]
	return a, ok
}

// DrainPendingEvents returns the accumulated event sequence and clears it,
// forwarding each event to the delegate's OnAccessibilityEvent on the way
// out. Callers must drain after every Commit that produced events;
// undrained events accumulate without bound.
func (b *Bridge) DrainPendingEvents() []TargetedEvent {
	if len(b.pendingEvents) == 0 {
		return nil
	}
	evs := b.pendingEvents
	b.pendingEvents = nil
	if b.delegate != nil {
		for _, ev := range evs {
			b.delegate.OnAccessibilityEvent(ev)
		}
	}
	return evs
}

// PendingEvents returns a copy of the accumulated events without draining,
// for collaborators that decide how to handle one event based on all.
func (b *Bridge) PendingEvents() []TargetedEvent {
	if len(b.pendingEvents) == 0 {
		return nil
	}
	out := make([]TargetedEvent, len(b.pendingEvents))
	copy(out, b.pendingEvents)
	return out
}

// GetDelegate returns a weak handle for the node's platform delegate. The
// handle is expired if the id was never created, the factory declined, or
// the node has since left the tree.
func (b *Bridge) GetDelegate(id NodeID) DelegateHandle {
	return DelegateHandle{reg: b.registry, id: id}
}

// DispatchAccessibilityAction forwards an action from native assistive
// technology to the producer via the delegate, payload unmodified.
func (b *Bridge) DispatchAccessibilityAction(target NodeID, action SemanticsAction, payload []byte) {
	if b.delegate != nil {
		b.delegate.DispatchAccessibilityAction(target, action, payload)
	}
}

// Node returns the live tree node for id, or nil. The pointer is only valid
// until the next Commit; re-resolve by id instead of caching it.
func (b *Bridge) Node(id NodeID) *Node {
	return b.tree.Node(id)
}

// Walk traverses the tree depth-first in traversal order.
func (b *Bridge) Walk(fn func(n *Node) bool) {
	b.tree.Walk(fn)
}

// TreeSize returns the number of live nodes.
func (b *Bridge) TreeSize() int {
	return b.tree.Size()
}

// TreeData returns the tree-wide data: focused node id and text selection.
func (b *Bridge) TreeData() TreeData {
	return b.tree.Data()
}

// LastFocusedID returns the id of the node that most recently held
// accessibility focus, or InvalidNodeID.
func (b *Bridge) LastFocusedID() NodeID {
	return b.lastFocused
}

// SetLastFocusedID overrides focus bookkeeping; platform delegates call
// this when they move native focus themselves.
func (b *Bridge) SetLastFocusedID(id NodeID) {
	b.lastFocused = id
}

// bridgeObserver adapts tree callbacks onto registry lifecycle. It is a
// separate type so the Observer methods stay off the Bridge's public API.
type bridgeObserver struct {
	b *Bridge
}

func (o *bridgeObserver) OnNodeCreated(n *tree.Node) {
	b := o.b
	if b.delegate == nil {
		return
	}
	b.registry.create(n.ID(), b.delegate.CreateNodeDelegate)
}

func (o *bridgeObserver) OnSubtreeWillBeDeleted(n *tree.Node) {
	// Nothing to release yet: the per-node deletion callbacks that follow
	// arrive children-first, so registry teardown is already depth-first.
	// A descendant being reparented out of this subtree keeps its delegate.
}

func (o *bridgeObserver) OnNodeWillBeDeleted(n *tree.Node) {}

func (o *bridgeObserver) OnNodeDeleted(id tree.NodeID) {
	o.b.registry.remove(id)
}

func (o *bridgeObserver) OnNodeReparented(n *tree.Node) {
	// Identity is preserved across reparenting: the registry entry stays.
}

func (o *bridgeObserver) OnRoleChanged(n *tree.Node, oldRole, newRole tree.Role) {}

func (o *bridgeObserver) OnAtomicUpdateFinished(rootChanged bool, changes []tree.Change) {}
