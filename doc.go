// Package semabridge maintains an accessibility tree from a stream of flat
// semantics update records. It bridges a rendering framework's semantics
// output and a platform's native assistive-technology APIs: the producer
// describes nodes one record at a time, and the bridge keeps a persistent,
// structurally valid tree mirroring them, reporting what changed after each
// commit.
//
// # Pipeline
//
// The bridge operates as a staged, atomic pipeline:
//
//  1. Stage: [Bridge.AddNodeUpdate] and [Bridge.AddCustomActionUpdate]
//     collect partial records keyed by id. Producers may restage the same id
//     many times within a frame; the last write wins and nothing is visible
//     yet.
//
//  2. Commit: [Bridge.Commit] converts the staged records into one
//     structural update, validates it (rooted tree, no cycles, no orphan
//     references), and applies it atomically — on a structural error
//     nothing mutates and the staging buffer is retained for a corrected
//     retry.
//
//  3. Report: comparing the tree before and after yields an ordered,
//     deduplicated event sequence (created, reparented, focus-changed, …)
//     which [Bridge.DrainPendingEvents] delivers to the platform
//     collaborator.
//
// # Usage
//
// Create a Bridge with a platform collaborator, feed it batches, and drain
// events after each commit:
//
//	b, err := semabridge.New(platformDelegate)
//	if err != nil { ... }
//
//	root := semabridge.NewSemanticsNode(semabridge.RootID)
//	root.Label = "App"
//	root.ChildrenInTraversalOrder = []semabridge.NodeID{1}
//	b.AddNodeUpdate(root)
//
//	button := semabridge.NewSemanticsNode(1)
//	button.Label = "Save"
//	button.Flags = semabridge.FlagIsButton
//	button.Actions = semabridge.ActionTap
//	b.AddNodeUpdate(button)
//
//	if _, err := b.Commit(); err != nil { ... }
//	for _, ev := range b.DrainPendingEvents() { ... }
//
// # Node identity and delegates
//
// A node id is stable for the node's whole lifetime, including reparenting:
// moving a node to a new parent emits a reparented event and preserves its
// platform delegate. Delegates are created once per node id through the
// collaborator's factory and released when the id leaves the tree;
// [Bridge.GetDelegate] hands out weak handles that re-resolve by id, so no
// caller ever observes a stale delegate across a commit.
//
// # Concurrency
//
// The bridge is single-threaded by contract: all methods must run on one
// designated goroutine, and collaborator callbacks must not re-enter
// [Bridge.Commit] (a nested commit is rejected with [ErrCommitInProgress]).
//
// # Tracing
//
// [WithTrace] records every commit and its events into a SQLite database
// for offline inspection with the semabridge CLI. The trace is a debugging
// sidecar: the tree itself is purely in-memory and rebuilt from the next
// full batch after a restart.
package semabridge
