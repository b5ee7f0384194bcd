package semabridge

import (
	"github.com/jward/semabridge/internal/event"
	"github.com/jward/semabridge/internal/trace"
	"github.com/jward/semabridge/internal/tree"
)

// Public type aliases for internal types used in the Bridge API. These are
// Go type aliases (=) — identical to the internal types at compile time.
// External consumers use these names; no conversion is needed.

type NodeID = tree.NodeID
type Node = tree.Node
type NodeData = tree.NodeData
type TreeData = tree.TreeData
type Role = tree.Role
type State = tree.State
type NodeAction = tree.Action
type TextDirection = tree.TextDirection
type Rect = tree.Rect
type Transform = tree.Transform
type CustomActionData = tree.CustomActionData
type StructuralError = tree.StructuralError
type StructuralErrorCode = tree.StructuralErrorCode
type Change = tree.Change
type ChangeKind = tree.ChangeKind
type TargetedEvent = event.TargetedEvent
type EventKind = event.Kind
type TraceRecorder = trace.Recorder

// Id conventions: RootID is the reserved root, InvalidNodeID the sentinel
// for "no node" (focus, selection, parent of the root).
const (
	RootID        = tree.RootID
	InvalidNodeID = tree.InvalidNodeID
)

// Derived node roles.
const (
	RoleUnknown     = tree.RoleUnknown
	RoleButton      = tree.RoleButton
	RoleTextField   = tree.RoleTextField
	RoleHeader      = tree.RoleHeader
	RoleImage       = tree.RoleImage
	RoleLink        = tree.RoleLink
	RoleRadioButton = tree.RoleRadioButton
	RoleCheckBox    = tree.RoleCheckBox
	RoleSwitch      = tree.RoleSwitch
	RoleSlider      = tree.RoleSlider
	RoleStaticText  = tree.RoleStaticText
	RoleGroup       = tree.RoleGroup
)

// Derived node state bits.
const (
	StateCheckable  = tree.StateCheckable
	StateChecked    = tree.StateChecked
	StateToggleable = tree.StateToggleable
	StateToggled    = tree.StateToggled
	StateSelected   = tree.StateSelected
	StateFocusable  = tree.StateFocusable
	StateEditable   = tree.StateEditable
	StateReadOnly   = tree.StateReadOnly
	StateHidden     = tree.StateHidden
	StateDisabled   = tree.StateDisabled
	StateObscured   = tree.StateObscured
	StateMultiline  = tree.StateMultiline
	StateLiveRegion = tree.StateLiveRegion
)

// Derived node action bits, distinct from the producer-facing
// SemanticsAction bitset.
const (
	NodeActionTap                = tree.ActionTap
	NodeActionLongPress          = tree.ActionLongPress
	NodeActionScrollLeft         = tree.ActionScrollLeft
	NodeActionScrollRight        = tree.ActionScrollRight
	NodeActionScrollUp           = tree.ActionScrollUp
	NodeActionScrollDown         = tree.ActionScrollDown
	NodeActionIncrease           = tree.ActionIncrease
	NodeActionDecrease           = tree.ActionDecrease
	NodeActionShowOnScreen       = tree.ActionShowOnScreen
	NodeActionMoveCursorForward  = tree.ActionMoveCursorForward
	NodeActionMoveCursorBackward = tree.ActionMoveCursorBackward
	NodeActionSetSelection       = tree.ActionSetSelection
	NodeActionCopy               = tree.ActionCopy
	NodeActionCut                = tree.ActionCut
	NodeActionPaste              = tree.ActionPaste
	NodeActionDismiss            = tree.ActionDismiss
	NodeActionSetText            = tree.ActionSetText
	NodeActionCustomAction       = tree.ActionCustomAction
)

// Text directions.
const (
	TextDirectionUnknown = tree.TextDirectionUnknown
	TextDirectionRTL     = tree.TextDirectionRTL
	TextDirectionLTR     = tree.TextDirectionLTR
)

// Event kinds, in structural-before-attribute precedence order.
const (
	EventNodeCreated           = event.KindNodeCreated
	EventNodeDeleted           = event.KindNodeDeleted
	EventNodeReparented        = event.KindNodeReparented
	EventRoleChanged           = event.KindRoleChanged
	EventStateChanged          = event.KindStateChanged
	EventNameChanged           = event.KindNameChanged
	EventValueChanged          = event.KindValueChanged
	EventDescriptionChanged    = event.KindDescriptionChanged
	EventScrollPositionChanged = event.KindScrollPositionChanged
	EventChildrenChanged       = event.KindChildrenChanged
	EventSelectionChanged      = event.KindSelectionChanged
	EventFocusChanged          = event.KindFocusChanged
)

// IdentityTransform returns the identity local-to-parent transform.
func IdentityTransform() Transform { return tree.IdentityTransform() }

// OpenTrace opens (creating if needed) a SQLite trace database for use with
// WithTrace.
func OpenTrace(path string) (*TraceRecorder, error) { return trace.Open(path) }
