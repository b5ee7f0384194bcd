package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/semabridge"
)

var flagSession string

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect a recorded trace database",
	Long:  "Reads the SQLite trace database written by 'replay --trace' or a bridge configured with WithTrace.",
}

func init() {
	traceCmd.PersistentFlags().StringVar(&flagSession, "session", "", "session id (default: the most recent session)")

	traceCmd.AddCommand(traceSessionsCmd)
	traceCmd.AddCommand(traceCommitsCmd)
	traceCmd.AddCommand(traceEventsCmd)
}

var traceSessionsCmd = &cobra.Command{
	Use:   "sessions <trace.db>",
	Short: "List recorded sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceSessions,
}

var traceCommitsCmd = &cobra.Command{
	Use:   "commits <trace.db>",
	Short: "List the commits of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceCommits,
}

var traceEventsCmd = &cobra.Command{
	Use:   "events <trace.db>",
	Short: "List every event of a session in commit order",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceEvents,
}

// openTrace opens an existing trace database, refusing to create one.
func openTrace(path string) (*semabridge.TraceRecorder, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("trace database not found: %s", path)
	}
	return semabridge.OpenTrace(path)
}

// resolveSession returns the --session flag or the most recent session id.
func resolveSession(rec *semabridge.TraceRecorder) (string, error) {
	if flagSession != "" {
		return flagSession, nil
	}
	sessions, err := rec.Sessions()
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("trace database has no sessions")
	}
	return sessions[len(sessions)-1].ID, nil
}

func runTraceSessions(cmd *cobra.Command, args []string) error {
	rec, err := openTrace(args[0])
	if err != nil {
		return outputError("trace sessions", err)
	}
	defer rec.Close()

	sessions, err := rec.Sessions()
	if err != nil {
		return outputError("trace sessions", err)
	}

	out := make([]CLISession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, CLISession{
			ID:        s.ID,
			Label:     s.Label,
			StartedAt: s.StartedAt.Format(time.RFC3339),
		})
	}
	return outputResult(CLIResult{Command: "trace sessions", Results: out})
}

func runTraceCommits(cmd *cobra.Command, args []string) error {
	rec, err := openTrace(args[0])
	if err != nil {
		return outputError("trace commits", err)
	}
	defer rec.Close()

	session, err := resolveSession(rec)
	if err != nil {
		return outputError("trace commits", err)
	}
	commits, err := rec.Commits(session)
	if err != nil {
		return outputError("trace commits", err)
	}

	out := make([]CLITraceCommit, 0, len(commits))
	for _, c := range commits {
		out = append(out, CLITraceCommit{
			Seq:          c.Seq,
			CommittedAt:  c.CommittedAt.Format(time.RFC3339),
			NodeCount:    c.NodeCount,
			EventCount:   c.EventCount,
			WarningCount: c.WarningCount,
		})
	}
	return outputResult(CLIResult{Command: "trace commits", Results: out})
}

func runTraceEvents(cmd *cobra.Command, args []string) error {
	rec, err := openTrace(args[0])
	if err != nil {
		return outputError("trace events", err)
	}
	defer rec.Close()

	session, err := resolveSession(rec)
	if err != nil {
		return outputError("trace events", err)
	}
	events, err := rec.Events(session)
	if err != nil {
		return outputError("trace events", err)
	}

	out := make([]CLITraceEvent, 0, len(events))
	for _, e := range events {
		out = append(out, CLITraceEvent{
			Seq:      e.Seq,
			Ordinal:  e.Ordinal,
			TargetID: e.TargetID,
			Kind:     e.Kind,
			Role:     e.Role,
			Name:     e.Name,
		})
	}
	return outputResult(CLIResult{Command: "trace events", Results: out})
}
