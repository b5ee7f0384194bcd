package tree

import "fmt"

// StructuralErrorCode classifies why a batch was rejected.
type StructuralErrorCode int

const (
	ErrCodeNoRoot StructuralErrorCode = iota
	ErrCodeUnknownChild
	ErrCodeDuplicateChild
	ErrCodeCycle
	ErrCodeUnattachedNode
	ErrCodeDuplicateNode
)

func (c StructuralErrorCode) String() string {
	switch c {
	case ErrCodeNoRoot:
		return "no_root"
	case ErrCodeUnknownChild:
		return "unknown_child"
	case ErrCodeDuplicateChild:
		return "duplicate_child"
	case ErrCodeCycle:
		return "cycle"
	case ErrCodeUnattachedNode:
		return "unattached_node"
	case ErrCodeDuplicateNode:
		return "duplicate_node"
	default:
		return "unknown"
	}
}

// StructuralError reports a batch that would leave the tree structurally
// invalid. Apply returns it before any mutation: the tree is untouched and
// the caller may correct and resubmit the batch.
type StructuralError struct {
	Code   StructuralErrorCode
	NodeID NodeID
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error (%s) at node %d: %s", e.Code, e.NodeID, e.Detail)
}

func structuralErrorf(code StructuralErrorCode, id NodeID, format string, args ...any) error {
	return &StructuralError{Code: code, NodeID: id, Detail: fmt.Sprintf(format, args...)}
}
