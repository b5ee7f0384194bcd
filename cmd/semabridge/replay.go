package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/semabridge"
)

var flagTraceOut string

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.toml>",
	Short: "Replay a scenario of semantics update batches",
	Long:  "Stages and commits each batch of the scenario in order, printing the events every commit generated and the final tree.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&flagTraceOut, "trace", "", "record commits into a SQLite trace database at this path")
}

// replayDelegate is the platform collaborator for replays: it only needs to
// exist so node delegates are exercised; events are read off the bridge
// directly.
type replayDelegate struct{}

func (replayDelegate) OnAccessibilityEvent(ev semabridge.TargetedEvent) {}

func (replayDelegate) DispatchAccessibilityAction(target semabridge.NodeID, action semabridge.SemanticsAction, payload []byte) {
}

func (replayDelegate) CreateNodeDelegate() semabridge.NodeDelegate {
	return struct{}{}
}

func runReplay(cmd *cobra.Command, args []string) error {
	scenario, err := LoadScenario(args[0])
	if err != nil {
		return outputError("replay", err)
	}

	var opts []semabridge.Option
	if flagTraceOut != "" {
		rec, err := semabridge.OpenTrace(flagTraceOut)
		if err != nil {
			return outputError("replay", err)
		}
		defer rec.Close()
		opts = append(opts, semabridge.WithTrace(rec, scenario.Label))
	}

	b, err := semabridge.New(replayDelegate{}, opts...)
	if err != nil {
		return outputError("replay", err)
	}

	out := CLIReplay{Scenario: scenario.Label}
	for bi, batch := range scenario.Batches {
		for _, ar := range batch.Actions {
			a, err := ar.toCustomAction()
			if err != nil {
				return outputError("replay", fmt.Errorf("batch %d: %w", bi, err))
			}
			b.AddCustomActionUpdate(a)
		}
		for _, nr := range batch.Nodes {
			n, err := nr.toSemanticsNode()
			if err != nil {
				return outputError("replay", fmt.Errorf("batch %d: %w", bi, err))
			}
			b.AddNodeUpdate(n)
		}

		res, err := b.Commit()
		if err != nil {
			return outputError("replay", fmt.Errorf("batch %d (%s): %w", bi, batch.Description, err))
		}

		commit := CLICommit{
			Seq:   res.Seq,
			Batch: batch.Description,
			Nodes: res.NodesApplied,
		}
		for _, w := range res.Warnings {
			commit.Warnings = append(commit.Warnings, w.Message)
		}
		for _, ev := range b.DrainPendingEvents() {
			commit.Events = append(commit.Events, CLIEvent{
				TargetID: int32(ev.TargetID),
				Kind:     ev.Kind.String(),
				Role:     ev.Node.Role.String(),
				Name:     ev.Node.Name,
			})
		}
		out.Commits = append(out.Commits, commit)
	}

	if id := b.TreeData().FocusedID; id != semabridge.InvalidNodeID {
		focused := int32(id)
		out.FocusedID = &focused
	}
	out.TreeSize = b.TreeSize()
	out.Tree = collectTree(b)

	return outputResult(CLIResult{Command: "replay", Results: out})
}

// collectTree flattens the final tree in traversal order with depths for
// indentation.
func collectTree(b *semabridge.Bridge) []CLITreeNode {
	depths := map[semabridge.NodeID]int{}
	var out []CLITreeNode
	b.Walk(func(n *semabridge.Node) bool {
		depth := 0
		if p := n.Parent(); p != nil {
			depth = depths[p.ID()] + 1
		}
		depths[n.ID()] = depth

		data := n.Data()
		node := CLITreeNode{
			ID:     int32(data.ID),
			Depth:  depth,
			Role:   data.Role.String(),
			Name:   data.Name,
			Value:  data.Value,
			States: data.States.Names(),
		}
		for _, c := range data.ChildIDs {
			node.Children = append(node.Children, int32(c))
		}
		out = append(out, node)
		return true
	})
	return out
}
