package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/semabridge"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const sampleScenario = `
label = "save flow"

[[batch]]
description = "initial frame"

[[batch.action]]
id = 7
label = "Archive"

[[batch.node]]
id = 0
label = "App"
children = [1]

[[batch.node]]
id = 1
label = "Save"
flags = ["button", "focusable"]
actions = ["tap"]
custom_actions = [7]

[[batch]]
description = "focus moves to the button"

[[batch.node]]
id = 1
label = "Save"
flags = ["button", "focusable", "focused"]
actions = ["tap"]
custom_actions = [7]
`

func TestLoadScenario(t *testing.T) {
	t.Parallel()
	path := writeScenario(t, sampleScenario)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "save flow", s.Label)
	require.Len(t, s.Batches, 2)
	assert.Equal(t, "initial frame", s.Batches[0].Description)
	require.Len(t, s.Batches[0].Nodes, 2)
	require.Len(t, s.Batches[0].Actions, 1)
	assert.Equal(t, []int32{1}, s.Batches[0].Nodes[0].Children)
	assert.Equal(t, []string{"button", "focusable", "focused"}, s.Batches[1].Nodes[0].Flags)
}

func TestLoadScenario_Validation(t *testing.T) {
	t.Parallel()

	_, err := LoadScenario(writeScenario(t, `label = "empty"`))
	assert.ErrorContains(t, err, "no batches")

	_, err = LoadScenario(writeScenario(t, `
[[batch]]
[[batch.node]]
id = 0
rect = [1.0, 2.0]
`))
	assert.ErrorContains(t, err, "rect needs 4 values")

	_, err = LoadScenario(writeScenario(t, `
[[batch]]
[[batch.node]]
id = -3
`))
	assert.ErrorContains(t, err, "negative id")

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "reading scenario")
}

func TestNodeRecordToSemanticsNode(t *testing.T) {
	t.Parallel()

	base := int32(2)
	extent := int32(5)
	r := NodeRecord{
		ID:                  3,
		Flags:               []string{"text-field", "multiline"},
		Actions:             []string{"tap", "set-text"},
		Label:               "Notes",
		TextDirection:       "rtl",
		TextSelectionBase:   &base,
		TextSelectionExtent: &extent,
		Rect:                []float64{0, 0, 100, 40},
		Children:            []int32{4},
		CustomActions:       []int32{7},
	}

	n, err := r.toSemanticsNode()
	require.NoError(t, err)
	assert.Equal(t, semabridge.NodeID(3), n.ID)
	assert.True(t, n.Flags.Has(semabridge.FlagIsTextField|semabridge.FlagIsMultiline))
	assert.True(t, n.Actions.Has(semabridge.ActionTap|semabridge.ActionSetText))
	assert.Equal(t, semabridge.TextDirectionRTL, n.TextDirection)
	assert.Equal(t, int32(2), n.TextSelectionBase)
	assert.Equal(t, int32(5), n.TextSelectionExtent)
	assert.Equal(t, semabridge.Rect{Left: 0, Top: 0, Right: 100, Bottom: 40}, n.Rect)
	assert.Equal(t, []semabridge.NodeID{4}, n.ChildrenInTraversalOrder)
	assert.Equal(t, []int32{7}, n.CustomAccessibilityActions)
}

func TestNodeRecordSelectionDefaultsToSentinels(t *testing.T) {
	t.Parallel()

	n, err := NodeRecord{ID: 1}.toSemanticsNode()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), n.TextSelectionBase)
	assert.Equal(t, int32(-1), n.TextSelectionExtent)
}

func TestNodeRecordUnknownNames(t *testing.T) {
	t.Parallel()

	_, err := NodeRecord{ID: 1, Flags: []string{"bogus"}}.toSemanticsNode()
	assert.ErrorContains(t, err, `unknown flag "bogus"`)

	_, err = NodeRecord{ID: 1, Actions: []string{"bogus"}}.toSemanticsNode()
	assert.ErrorContains(t, err, `unknown action "bogus"`)

	_, err = NodeRecord{ID: 1, TextDirection: "sideways"}.toSemanticsNode()
	assert.ErrorContains(t, err, "unknown text direction")
}

func TestActionRecordToCustomAction(t *testing.T) {
	t.Parallel()

	a, err := ActionRecord{ID: 7, OverrideAction: "long-press", Label: "Archive"}.toCustomAction()
	require.NoError(t, err)
	assert.Equal(t, int32(7), a.ID)
	assert.Equal(t, semabridge.ActionLongPress, a.OverrideAction)
	assert.Equal(t, "Archive", a.Label)

	_, err = ActionRecord{ID: 7, OverrideAction: "bogus"}.toCustomAction()
	assert.ErrorContains(t, err, "unknown override action")
}

func TestReplayScenarioEndToEnd(t *testing.T) {
	t.Parallel()
	path := writeScenario(t, sampleScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	b, err := semabridge.New(replayDelegate{})
	require.NoError(t, err)

	var commits []CLICommit
	for _, batch := range scenario.Batches {
		for _, ar := range batch.Actions {
			a, err := ar.toCustomAction()
			require.NoError(t, err)
			b.AddCustomActionUpdate(a)
		}
		for _, nr := range batch.Nodes {
			n, err := nr.toSemanticsNode()
			require.NoError(t, err)
			b.AddNodeUpdate(n)
		}
		res, err := b.Commit()
		require.NoError(t, err)
		require.Empty(t, res.Warnings)

		commit := CLICommit{Seq: res.Seq, Nodes: res.NodesApplied}
		for _, ev := range b.DrainPendingEvents() {
			commit.Events = append(commit.Events, CLIEvent{
				TargetID: int32(ev.TargetID),
				Kind:     ev.Kind.String(),
			})
		}
		commits = append(commits, commit)
	}

	require.Len(t, commits, 2)
	assert.Equal(t, []CLIEvent{
		{TargetID: 0, Kind: "node_created"},
		{TargetID: 1, Kind: "node_created"},
	}, commits[0].Events)
	assert.Equal(t, []CLIEvent{
		{TargetID: 1, Kind: "focus_changed"},
	}, commits[1].Events)

	assert.Equal(t, 2, b.TreeSize())
	assert.Equal(t, semabridge.NodeID(1), b.LastFocusedID())

	tree := collectTree(b)
	require.Len(t, tree, 2)
	assert.Equal(t, int32(0), tree[0].ID)
	assert.Equal(t, 0, tree[0].Depth)
	assert.Equal(t, int32(1), tree[1].ID)
	assert.Equal(t, 1, tree[1].Depth)
	assert.Equal(t, "button", tree[1].Role)
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.ErrorContains(t, validateFormat("yaml"), `invalid format "yaml"`)
}
