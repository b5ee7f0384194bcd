package tree

// Role classifies a node for assistive technologies. Exactly one role is
// derived per node; combinations that fit no specific role fall back to
// RoleStaticText (leaf) or RoleGroup (container).
type Role int

const (
	RoleUnknown Role = iota
	RoleButton
	RoleTextField
	RoleHeader
	RoleImage
	RoleLink
	RoleRadioButton
	RoleCheckBox
	RoleSwitch
	RoleSlider
	RoleStaticText
	RoleGroup
)

func (r Role) String() string {
	switch r {
	case RoleButton:
		return "button"
	case RoleTextField:
		return "text_field"
	case RoleHeader:
		return "header"
	case RoleImage:
		return "image"
	case RoleLink:
		return "link"
	case RoleRadioButton:
		return "radio_button"
	case RoleCheckBox:
		return "check_box"
	case RoleSwitch:
		return "switch"
	case RoleSlider:
		return "slider"
	case RoleStaticText:
		return "static_text"
	case RoleGroup:
		return "group"
	default:
		return "unknown"
	}
}

// State is a bit in a node's derived state set.
type State uint32

const (
	StateCheckable State = 1 << iota
	StateChecked
	StateToggleable
	StateToggled
	StateSelected
	StateFocusable
	StateEditable
	StateReadOnly
	StateHidden
	StateDisabled
	StateObscured
	StateMultiline
	StateLiveRegion
)

// stateNames is ordered by bit position.
var stateNames = []string{
	"checkable", "checked", "toggleable", "toggled", "selected",
	"focusable", "editable", "read_only", "hidden", "disabled",
	"obscured", "multiline", "live_region",
}

// Names returns the symbolic names of every state bit set, in bit order.
func (s State) Names() []string {
	var out []string
	for i, name := range stateNames {
		if s&(1<<uint(i)) != 0 {
			out = append(out, name)
		}
	}
	return out
}

// Has reports whether every bit in mask is set.
func (s State) Has(mask State) bool { return s&mask == mask }

// Action is a bit in a node's supported-action set.
type Action uint32

const (
	ActionTap Action = 1 << iota
	ActionLongPress
	ActionScrollLeft
	ActionScrollRight
	ActionScrollUp
	ActionScrollDown
	ActionIncrease
	ActionDecrease
	ActionShowOnScreen
	ActionMoveCursorForward
	ActionMoveCursorBackward
	ActionSetSelection
	ActionCopy
	ActionCut
	ActionPaste
	ActionDismiss
	ActionSetText
	ActionCustomAction
)

// actionNames is ordered by bit position.
var actionNames = []string{
	"tap", "long_press", "scroll_left", "scroll_right", "scroll_up",
	"scroll_down", "increase", "decrease", "show_on_screen",
	"move_cursor_forward", "move_cursor_backward", "set_selection",
	"copy", "cut", "paste", "dismiss", "set_text", "custom_action",
}

// Names returns the symbolic names of every action bit set, in bit order.
func (a Action) Names() []string {
	var out []string
	for i, name := range actionNames {
		if a&(1<<uint(i)) != 0 {
			out = append(out, name)
		}
	}
	return out
}

// Has reports whether every bit in mask is set.
func (a Action) Has(mask Action) bool { return a&mask == mask }
