package trace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/semabridge/internal/event"
	"github.com/jward/semabridge/internal/tree"
)

// newTestRecorder opens a recorder backed by a temp file cleaned up with
// the test.
func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t)
	// Open already migrated once.
	require.NoError(t, r.Migrate())
	require.NoError(t, r.Migrate())
}

func TestBeginSession(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t)

	id, err := r.BeginSession("unit")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	sessions, err := r.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].ID)
	assert.Equal(t, "unit", sessions[0].Label)
	assert.False(t, sessions[0].StartedAt.IsZero())
}

func TestRecordCommitRoundTrip(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t)

	sid, err := r.BeginSession("roundtrip")
	require.NoError(t, err)

	events := []event.TargetedEvent{
		{TargetID: 0, Kind: event.KindNodeCreated, Node: tree.NodeData{ID: 0, Role: tree.RoleGroup, Name: "App"}},
		{TargetID: 1, Kind: event.KindNodeCreated, Node: tree.NodeData{ID: 1, Role: tree.RoleButton, Name: "Save"}},
	}
	require.NoError(t, r.RecordCommit(sid, 1, 2, 0, events))
	require.NoError(t, r.RecordCommit(sid, 2, 2, 1, []event.TargetedEvent{
		{TargetID: 1, Kind: event.KindFocusChanged, Node: tree.NodeData{ID: 1, Role: tree.RoleButton, Name: "Save"}},
	}))

	commits, err := r.Commits(sid)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, uint64(1), commits[0].Seq)
	assert.Equal(t, 2, commits[0].NodeCount)
	assert.Equal(t, 2, commits[0].EventCount)
	assert.Equal(t, 0, commits[0].WarningCount)
	assert.Equal(t, 1, commits[1].WarningCount)

	got, err := r.Events(sid)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "node_created", got[0].Kind)
	assert.Equal(t, "group", got[0].Role)
	assert.Equal(t, "App", got[0].Name)
	assert.Equal(t, int32(1), got[1].TargetID)
	assert.Equal(t, "focus_changed", got[2].Kind)
	assert.Equal(t, uint64(2), got[2].Seq)
}

func TestEventsOrderedBySeqAndOrdinal(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t)

	sid, err := r.BeginSession("")
	require.NoError(t, err)

	for seq := uint64(1); seq <= 3; seq++ {
		evs := []event.TargetedEvent{
			{TargetID: tree.NodeID(seq), Kind: event.KindNameChanged},
			{TargetID: tree.NodeID(seq), Kind: event.KindValueChanged},
		}
		require.NoError(t, r.RecordCommit(sid, seq, 1, 0, evs))
	}

	got, err := r.Events(sid)
	require.NoError(t, err)
	require.Len(t, got, 6)
	for i, e := range got {
		assert.Equal(t, uint64(i/2+1), e.Seq)
		assert.Equal(t, i%2, e.Ordinal)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t)

	a, err := r.BeginSession("a")
	require.NoError(t, err)
	b, err := r.BeginSession("b")
	require.NoError(t, err)

	require.NoError(t, r.RecordCommit(a, 1, 1, 0, []event.TargetedEvent{
		{TargetID: 0, Kind: event.KindNodeCreated},
	}))

	got, err := r.Events(b)
	require.NoError(t, err)
	assert.Empty(t, got)

	commits, err := r.Commits(a)
	require.NoError(t, err)
	assert.Len(t, commits, 1)
}

func TestRecordCommitEmptyEvents(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t)

	sid, err := r.BeginSession("")
	require.NoError(t, err)
	require.NoError(t, r.RecordCommit(sid, 1, 0, 0, nil))

	commits, err := r.Commits(sid)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, 0, commits[0].EventCount)
}
