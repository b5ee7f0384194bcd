package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case CLIReplay:
		formatReplayText(w, v)
	case []CLISession:
		formatSessionsText(w, v)
	case []CLITraceCommit:
		formatTraceCommitsText(w, v)
	case []CLITraceEvent:
		formatTraceEventsText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatReplayText prints per-commit events followed by the final tree.
func formatReplayText(w io.Writer, r CLIReplay) {
	if r.Scenario != "" {
		fmt.Fprintf(w, "Scenario: %s\n", r.Scenario)
	}
	for _, c := range r.Commits {
		label := c.Batch
		if label == "" {
			label = fmt.Sprintf("commit %d", c.Seq)
		}
		fmt.Fprintf(w, "\n[%d] %s (%d nodes, %d events)\n", c.Seq, label, c.Nodes, len(c.Events))
		for _, ev := range c.Events {
			fmt.Fprintf(w, "  %s -> #%d", ev.Kind, ev.TargetID)
			if ev.Name != "" {
				fmt.Fprintf(w, " %q", ev.Name)
			}
			fmt.Fprintln(w)
		}
		for _, warn := range c.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
	}

	fmt.Fprintf(w, "\nFinal tree (%d nodes)", r.TreeSize)
	if r.FocusedID != nil {
		fmt.Fprintf(w, ", focus on #%d", *r.FocusedID)
	}
	fmt.Fprintln(w, ":")
	for _, n := range r.Tree {
		indent := strings.Repeat("  ", n.Depth)
		fmt.Fprintf(w, "%s#%d %s", indent, n.ID, n.Role)
		if n.Name != "" {
			fmt.Fprintf(w, " %q", n.Name)
		}
		if n.Value != "" {
			fmt.Fprintf(w, " value=%q", n.Value)
		}
		if len(n.States) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(n.States, ","))
		}
		fmt.Fprintln(w)
	}
}

// formatSessionsText formats trace sessions as aligned columns.
func formatSessionsText(w io.Writer, sessions []CLISession) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tSTARTED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Label, s.StartedAt)
	}
	tw.Flush()
}

// formatTraceCommitsText formats recorded commits as aligned columns.
func formatTraceCommitsText(w io.Writer, commits []CLITraceCommit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tCOMMITTED\tNODES\tEVENTS\tWARNINGS")
	for _, c := range commits {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n",
			c.Seq, c.CommittedAt, c.NodeCount, c.EventCount, c.WarningCount)
	}
	tw.Flush()
}

// formatTraceEventsText formats recorded events as aligned columns.
func formatTraceEventsText(w io.Writer, events []CLITraceEvent) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tORD\tTARGET\tKIND\tROLE\tNAME")
	for _, e := range events {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\n",
			e.Seq, e.Ordinal, e.TargetID, e.Kind, e.Role, e.Name)
	}
	tw.Flush()
}
