package semabridge

import (
	"fmt"
	"math"

	"github.com/jward/semabridge/internal/tree"
)

// SemanticsFlag is the producer-facing bitset of boolean node capabilities.
// Bit positions are part of the in-process contract with the producer and
// must not be reordered.
type SemanticsFlag uint32

const (
	FlagHasCheckedState SemanticsFlag = 1 << iota
	FlagIsChecked
	FlagIsSelected
	FlagIsButton
	FlagIsTextField
	FlagIsFocused
	FlagHasEnabledState
	FlagIsEnabled
	FlagIsInMutuallyExclusiveGroup
	FlagIsHeader
	FlagIsObscured
	FlagScopesRoute
	FlagNamesRoute
	FlagIsHidden
	FlagIsImage
	FlagIsLiveRegion
	FlagHasToggledState
	FlagIsToggled
	FlagHasImplicitScrolling
	FlagIsMultiline
	FlagIsReadOnly
	FlagIsFocusable
	FlagIsLink
	FlagIsSlider
	FlagIsKeyboardKey
)

// Has reports whether every bit in mask is set.
func (f SemanticsFlag) Has(mask SemanticsFlag) bool { return f&mask == mask }

// SemanticsAction is the producer-facing bitset of supported interactive
// actions. Bit positions are part of the in-process contract.
type SemanticsAction uint32

const (
	ActionTap SemanticsAction = 1 << iota
	ActionLongPress
	ActionScrollLeft
	ActionScrollRight
	ActionScrollUp
	ActionScrollDown
	ActionIncrease
	ActionDecrease
	ActionShowOnScreen
	ActionMoveCursorForwardByCharacter
	ActionMoveCursorBackwardByCharacter
	ActionSetSelection
	ActionCopy
	ActionCut
	ActionPaste
	ActionDidGainAccessibilityFocus
	ActionDidLoseAccessibilityFocus
	ActionCustomAction
	ActionDismiss
	ActionMoveCursorForwardByWord
	ActionMoveCursorBackwardByWord
	ActionSetText
)

// Has reports whether every bit in mask is set.
func (a SemanticsAction) Has(mask SemanticsAction) bool { return a&mask == mask }

// SemanticsNode is one flat, partial update record for a single node,
// keyed by a process-unique id. Id 0 is reserved for the root; ids are
// stable across updates, including reparenting.
type SemanticsNode struct {
	ID      NodeID
	Flags   SemanticsFlag
	Actions SemanticsAction

	Label          string
	Hint           string
	Value          string
	IncreasedValue string
	DecreasedValue string
	TextDirection  TextDirection

	// Text selection within this node; -1 means no selection.
	TextSelectionBase   int32
	TextSelectionExtent int32

	ScrollChildCount int32
	ScrollIndex      int32
	ScrollPosition   float64
	ScrollExtentMax  float64
	ScrollExtentMin  float64

	Elevation float64
	Thickness float64
	Rect      Rect
	Transform Transform

	// ChildrenInTraversalOrder lists child ids in traversal order. Every id
	// must be present in the same committed batch or already in the tree.
	ChildrenInTraversalOrder []NodeID

	// CustomAccessibilityActions lists custom action ids attached to this
	// node; resolved against the custom action table at commit time.
	CustomAccessibilityActions []int32
}

// NewSemanticsNode returns a record for id with the no-selection sentinels
// in place. A zero-valued SemanticsNode claims a text selection at offset 0;
// producers building records by hand should start from this.
func NewSemanticsNode(id NodeID) SemanticsNode {
	return SemanticsNode{
		ID:                  id,
		TextSelectionBase:   -1,
		TextSelectionExtent: -1,
	}
}

// SemanticsCustomAction is one custom action update record. Custom actions
// live independently of nodes and are referenced from SemanticsNode records
// by id.
type SemanticsCustomAction struct {
	ID             int32
	OverrideAction SemanticsAction
	Label          string
	Hint           string
}

// role derives the single node role from the flag combination. The
// precedence below is a product decision pinned by test fixtures; changing
// the order changes what assistive technologies announce. Unresolvable
// combinations fall back to static-text (leaf) or group (container), never
// an error.
func (n SemanticsNode) role() tree.Role {
	f := n.Flags
	switch {
	case f.Has(FlagIsButton):
		return tree.RoleButton
	case f.Has(FlagIsTextField) && !f.Has(FlagIsReadOnly):
		return tree.RoleTextField
	case f.Has(FlagIsHeader):
		return tree.RoleHeader
	case f.Has(FlagIsImage):
		return tree.RoleImage
	case f.Has(FlagIsLink):
		return tree.RoleLink
	case f.Has(FlagIsInMutuallyExclusiveGroup | FlagHasCheckedState):
		return tree.RoleRadioButton
	case f.Has(FlagHasCheckedState):
		return tree.RoleCheckBox
	case f.Has(FlagHasToggledState):
		return tree.RoleSwitch
	case f.Has(FlagIsSlider):
		return tree.RoleSlider
	}
	if len(n.ChildrenInTraversalOrder) == 0 {
		return tree.RoleStaticText
	}
	return tree.RoleGroup
}

// states projects the flag bits onto the derived state set. The focused
// flag is deliberately absent here: focus is tree-wide data, not node state,
// so a focus move does not masquerade as a state change on the node.
func (n SemanticsNode) states() tree.State {
	f := n.Flags
	var s tree.State
	if f.Has(FlagHasCheckedState) {
		s |= tree.StateCheckable
		if f.Has(FlagIsChecked) {
			s |= tree.StateChecked
		}
	}
	if f.Has(FlagHasToggledState) {
		s |= tree.StateToggleable
		if f.Has(FlagIsToggled) {
			s |= tree.StateToggled
		}
	}
	if f.Has(FlagIsSelected) {
		s |= tree.StateSelected
	}
	if f.Has(FlagIsFocusable) {
		s |= tree.StateFocusable
	}
	if n.editable() {
		s |= tree.StateEditable
	}
	if f.Has(FlagIsReadOnly) {
		s |= tree.StateReadOnly
	}
	if f.Has(FlagIsHidden) {
		s |= tree.StateHidden
	}
	if f.Has(FlagHasEnabledState) && !f.Has(FlagIsEnabled) {
		s |= tree.StateDisabled
	}
	if f.Has(FlagIsObscured) {
		s |= tree.StateObscured
	}
	if f.Has(FlagIsMultiline) {
		s |= tree.StateMultiline
	}
	if f.Has(FlagIsLiveRegion) {
		s |= tree.StateLiveRegion
	}
	return s
}

func (n SemanticsNode) editable() bool {
	return n.Flags.Has(FlagIsTextField) && !n.Flags.Has(FlagIsReadOnly)
}

// actionProjection maps producer action bits onto the derived action set.
// Producer bits with no entry (focus gain/loss notifications) are dropped.
var actionProjection = []struct {
	from SemanticsAction
	to   tree.Action
}{
	{ActionTap, tree.ActionTap},
	{ActionLongPress, tree.ActionLongPress},
	{ActionScrollLeft, tree.ActionScrollLeft},
	{ActionScrollRight, tree.ActionScrollRight},
	{ActionScrollUp, tree.ActionScrollUp},
	{ActionScrollDown, tree.ActionScrollDown},
	{ActionIncrease, tree.ActionIncrease},
	{ActionDecrease, tree.ActionDecrease},
	{ActionShowOnScreen, tree.ActionShowOnScreen},
	{ActionMoveCursorForwardByCharacter, tree.ActionMoveCursorForward},
	{ActionMoveCursorBackwardByCharacter, tree.ActionMoveCursorBackward},
	{ActionMoveCursorForwardByWord, tree.ActionMoveCursorForward},
	{ActionMoveCursorBackwardByWord, tree.ActionMoveCursorBackward},
	{ActionSetSelection, tree.ActionSetSelection},
	{ActionCopy, tree.ActionCopy},
	{ActionCut, tree.ActionCut},
	{ActionPaste, tree.ActionPaste},
	{ActionDismiss, tree.ActionDismiss},
	{ActionSetText, tree.ActionSetText},
	{ActionCustomAction, tree.ActionCustomAction},
}

// projectActions converts a producer action bitset to the derived set,
// dropping unknown bits.
func projectActions(a SemanticsAction) tree.Action {
	var out tree.Action
	for _, m := range actionProjection {
		if a&m.from != 0 {
			out |= m.to
		}
	}
	return out
}

// name derives the accessible name: the label when non-empty, else the value
// when the node is not editable (an editable node's value is its content,
// not its name), else empty.
func (n SemanticsNode) name() string {
	if n.Label != "" {
		return n.Label
	}
	if !n.editable() && n.Value != "" {
		return n.Value
	}
	return ""
}

// value derives the accessible value: the value field, or a synthesized
// range description for scrollable containers without one.
func (n SemanticsNode) value() string {
	if n.Value != "" {
		return n.Value
	}
	if span := n.ScrollExtentMax - n.ScrollExtentMin; span > 0 {
		pos := n.ScrollPosition
		if pos < n.ScrollExtentMin {
			pos = n.ScrollExtentMin
		}
		if pos > n.ScrollExtentMax {
			pos = n.ScrollExtentMax
		}
		pct := int(math.Round((pos - n.ScrollExtentMin) / span * 100))
		return fmt.Sprintf("scrolled to %d%%", pct)
	}
	return ""
}

// customActionLookup resolves a custom action id against the staged and
// previously committed custom action tables.
type customActionLookup func(id int32) (tree.CustomActionData, bool)

// deriveNodeData synthesizes the tree node attribute bag from one record.
// Unresolvable custom action references are dropped with a warning; they
// never fail the commit.
func deriveNodeData(n SemanticsNode, lookup customActionLookup) (tree.NodeData, []Warning) {
	var warnings []Warning

	var customs []tree.CustomActionData
	for _, actionID := range n.CustomAccessibilityActions {
		ca, ok := lookup(actionID)
		if !ok {
			warnings = append(warnings, Warning{
				NodeID:  n.ID,
				Message: fmt.Sprintf("node %d references unknown custom action %d", n.ID, actionID),
			})
			continue
		}
		customs = append(customs, ca)
	}

	transform := n.Transform
	if transform == (Transform{}) {
		transform = tree.IdentityTransform()
	}

	var children []NodeID
	if n.ChildrenInTraversalOrder != nil {
		children = make([]NodeID, len(n.ChildrenInTraversalOrder))
		copy(children, n.ChildrenInTraversalOrder)
	}

	actions := projectActions(n.Actions)
	if len(customs) > 0 {
		actions |= tree.ActionCustomAction
	}

	return tree.NodeData{
		ID:                  n.ID,
		Role:                n.role(),
		States:              n.states(),
		Actions:             actions,
		Name:                n.name(),
		Value:               n.value(),
		Description:         n.Hint,
		IncreasedValue:      n.IncreasedValue,
		DecreasedValue:      n.DecreasedValue,
		TextDirection:       n.TextDirection,
		TextSelectionBase:   n.TextSelectionBase,
		TextSelectionExtent: n.TextSelectionExtent,
		ScrollChildCount:    n.ScrollChildCount,
		ScrollIndex:         n.ScrollIndex,
		ScrollPosition:      n.ScrollPosition,
		ScrollExtentMin:     n.ScrollExtentMin,
		ScrollExtentMax:     n.ScrollExtentMax,
		Elevation:           n.Elevation,
		Thickness:           n.Thickness,
		Rect:                n.Rect,
		Transform:           transform,
		ChildIDs:            children,
		CustomActions:       customs,
	}, warnings
}
