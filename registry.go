package semabridge

import "github.com/jward/semabridge/internal/tree"

// NodeDelegate is the opaque per-node platform object produced by the
// collaborator's factory. The bridge never inspects or mutates a delegate;
// it only creates and destroys its own reference in lockstep with the
// node's tree membership.
type NodeDelegate interface{}

// DelegateHandle is a non-owning, weak reference to a node delegate. It
// re-resolves through the registry by id on every Get, so a handle held
// across a commit boundary observes expiry instead of a stale delegate.
// The zero value is expired.
type DelegateHandle struct {
	reg *delegateRegistry
	id  NodeID
}

// ID returns the node id this handle refers to.
func (h DelegateHandle) ID() NodeID { return h.id }

// Get resolves the delegate. ok is false when the id was never registered
// or has since been removed from the tree.
func (h DelegateHandle) Get() (NodeDelegate, bool) {
	if h.reg == nil {
		return nil, false
	}
	return h.reg.get(h.id)
}

// Expired reports whether the handle no longer resolves.
func (h DelegateHandle) Expired() bool {
	_, ok := h.Get()
	return !ok
}

// delegateRegistry holds the sole strong reference to each live node's
// delegate, keyed by id. Entries are created on node creation and erased on
// node deletion; reparenting leaves them untouched.
type delegateRegistry struct {
	entries map[tree.NodeID]NodeDelegate
}

func newDelegateRegistry() *delegateRegistry {
	return &delegateRegistry{entries: make(map[tree.NodeID]NodeDelegate)}
}

// create invokes the factory for a newly created node id. A nil factory or
// a nil delegate leaves the id unregistered: "no native object yet" is a
// tolerated state, not an error.
func (r *delegateRegistry) create(id tree.NodeID, factory func() NodeDelegate) {
	if factory == nil {
		return
	}
	d := factory()
	if d == nil {
		return
	}
	r.entries[id] = d
}

func (r *delegateRegistry) get(id tree.NodeID) (NodeDelegate, bool) {
	d, ok := r.entries[id]
	return d, ok
}

// remove erases the registry's reference. Idempotent: subtree teardown may
// have already released the id before the per-node deletion callback.
func (r *delegateRegistry) remove(id tree.NodeID) {
	delete(r.entries, id)
}

func (r *delegateRegistry) size() int { return len(r.entries) }
