package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIEvent is a JSON-friendly targeted event.
type CLIEvent struct {
	TargetID int32  `json:"target_id"`
	Kind     string `json:"kind"`
	Role     string `json:"role,omitempty"`
	Name     string `json:"name,omitempty"`
}

// CLICommit summarizes one replayed commit.
type CLICommit struct {
	Seq      uint64     `json:"seq"`
	Batch    string     `json:"batch,omitempty"`
	Nodes    int        `json:"nodes"`
	Events   []CLIEvent `json:"events"`
	Warnings []string   `json:"warnings,omitempty"`
}

// CLITreeNode is one node of the final tree, in traversal order.
type CLITreeNode struct {
	ID       int32    `json:"id"`
	Depth    int      `json:"depth"`
	Role     string   `json:"role"`
	Name     string   `json:"name,omitempty"`
	Value    string   `json:"value,omitempty"`
	States   []string `json:"states,omitempty"`
	Children []int32  `json:"children,omitempty"`
}

// CLIReplay is the full result of replaying a scenario.
type CLIReplay struct {
	Scenario  string        `json:"scenario"`
	Commits   []CLICommit   `json:"commits"`
	FocusedID *int32        `json:"focused_id,omitempty"`
	TreeSize  int           `json:"tree_size"`
	Tree      []CLITreeNode `json:"tree"`
}

// CLISession is a JSON-friendly trace session.
type CLISession struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	StartedAt string `json:"started_at"`
}

// CLITraceCommit is a JSON-friendly recorded commit.
type CLITraceCommit struct {
	Seq          uint64 `json:"seq"`
	CommittedAt  string `json:"committed_at"`
	NodeCount    int    `json:"node_count"`
	EventCount   int    `json:"event_count"`
	WarningCount int    `json:"warning_count"`
}

// CLITraceEvent is a JSON-friendly recorded event.
type CLITraceEvent struct {
	Seq      uint64 `json:"seq"`
	Ordinal  int    `json:"ordinal"`
	TargetID int32  `json:"target_id"`
	Kind     string `json:"kind"`
	Role     string `json:"role,omitempty"`
	Name     string `json:"name,omitempty"`
}
