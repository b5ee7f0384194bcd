package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/jward/semabridge"
)

// Scenario is a replayable stream of semantics update batches, one commit
// per batch.
type Scenario struct {
	Label   string  `toml:"label"`
	Batches []Batch `toml:"batch"`
}

// Batch holds the records staged together before one commit.
type Batch struct {
	Description string         `toml:"description"`
	Nodes       []NodeRecord   `toml:"node"`
	Actions     []ActionRecord `toml:"action"`
}

// NodeRecord is the TOML shape of one node update. Flags and actions are
// symbolic names resolved against the bitset tables below.
type NodeRecord struct {
	ID             int32    `toml:"id"`
	Flags          []string `toml:"flags"`
	Actions        []string `toml:"actions"`
	Label          string   `toml:"label"`
	Hint           string   `toml:"hint"`
	Value          string   `toml:"value"`
	IncreasedValue string   `toml:"increased_value"`
	DecreasedValue string   `toml:"decreased_value"`
	TextDirection  string   `toml:"text_direction"`

	// Pointers so "absent" is distinguishable from offset 0.
	TextSelectionBase   *int32 `toml:"text_selection_base"`
	TextSelectionExtent *int32 `toml:"text_selection_extent"`

	ScrollChildCount int32   `toml:"scroll_child_count"`
	ScrollIndex      int32   `toml:"scroll_index"`
	ScrollPosition   float64 `toml:"scroll_position"`
	ScrollExtentMax  float64 `toml:"scroll_extent_max"`
	ScrollExtentMin  float64 `toml:"scroll_extent_min"`

	Elevation float64   `toml:"elevation"`
	Thickness float64   `toml:"thickness"`
	Rect      []float64 `toml:"rect"`
	Transform []float64 `toml:"transform"`

	Children      []int32 `toml:"children"`
	CustomActions []int32 `toml:"custom_actions"`
}

// ActionRecord is the TOML shape of one custom action update.
type ActionRecord struct {
	ID             int32  `toml:"id"`
	OverrideAction string `toml:"override_action"`
	Label          string `toml:"label"`
	Hint           string `toml:"hint"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s Scenario
	if err := toml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if len(s.Batches) == 0 {
		return nil, fmt.Errorf("scenario %s has no batches", path)
	}
	for bi, b := range s.Batches {
		for ni, n := range b.Nodes {
			if n.ID < 0 {
				return nil, fmt.Errorf("batch %d node %d: negative id %d", bi, ni, n.ID)
			}
			if len(n.Rect) != 0 && len(n.Rect) != 4 {
				return nil, fmt.Errorf("batch %d node %d: rect needs 4 values, got %d", bi, ni, len(n.Rect))
			}
			if len(n.Transform) != 0 && len(n.Transform) != 9 {
				return nil, fmt.Errorf("batch %d node %d: transform needs 9 values, got %d", bi, ni, len(n.Transform))
			}
		}
	}
	return &s, nil
}

var flagNames = map[string]semabridge.SemanticsFlag{
	"has-checked-state":  semabridge.FlagHasCheckedState,
	"checked":            semabridge.FlagIsChecked,
	"selected":           semabridge.FlagIsSelected,
	"button":             semabridge.FlagIsButton,
	"text-field":         semabridge.FlagIsTextField,
	"focused":            semabridge.FlagIsFocused,
	"has-enabled-state":  semabridge.FlagHasEnabledState,
	"enabled":            semabridge.FlagIsEnabled,
	"mutually-exclusive": semabridge.FlagIsInMutuallyExclusiveGroup,
	"header":             semabridge.FlagIsHeader,
	"obscured":           semabridge.FlagIsObscured,
	"scopes-route":       semabridge.FlagScopesRoute,
	"names-route":        semabridge.FlagNamesRoute,
	"hidden":             semabridge.FlagIsHidden,
	"image":              semabridge.FlagIsImage,
	"live-region":        semabridge.FlagIsLiveRegion,
	"has-toggled-state":  semabridge.FlagHasToggledState,
	"toggled":            semabridge.FlagIsToggled,
	"implicit-scrolling": semabridge.FlagHasImplicitScrolling,
	"multiline":          semabridge.FlagIsMultiline,
	"read-only":          semabridge.FlagIsReadOnly,
	"focusable":          semabridge.FlagIsFocusable,
	"link":               semabridge.FlagIsLink,
	"slider":             semabridge.FlagIsSlider,
	"keyboard-key":       semabridge.FlagIsKeyboardKey,
}

var actionNames = map[string]semabridge.SemanticsAction{
	"tap":                        semabridge.ActionTap,
	"long-press":                 semabridge.ActionLongPress,
	"scroll-left":                semabridge.ActionScrollLeft,
	"scroll-right":               semabridge.ActionScrollRight,
	"scroll-up":                  semabridge.ActionScrollUp,
	"scroll-down":                semabridge.ActionScrollDown,
	"increase":                   semabridge.ActionIncrease,
	"decrease":                   semabridge.ActionDecrease,
	"show-on-screen":             semabridge.ActionShowOnScreen,
	"move-cursor-forward":        semabridge.ActionMoveCursorForwardByCharacter,
	"move-cursor-backward":       semabridge.ActionMoveCursorBackwardByCharacter,
	"move-cursor-forward-word":   semabridge.ActionMoveCursorForwardByWord,
	"move-cursor-backward-word":  semabridge.ActionMoveCursorBackwardByWord,
	"set-selection":              semabridge.ActionSetSelection,
	"copy":                       semabridge.ActionCopy,
	"cut":                        semabridge.ActionCut,
	"paste":                      semabridge.ActionPaste,
	"dismiss":                    semabridge.ActionDismiss,
	"set-text":                   semabridge.ActionSetText,
	"custom-action":              semabridge.ActionCustomAction,
}

func parseFlags(names []string) (semabridge.SemanticsFlag, error) {
	var f semabridge.SemanticsFlag
	for _, name := range names {
		bit, ok := flagNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q (known: %s)", name, knownNames(flagNames))
		}
		f |= bit
	}
	return f, nil
}

func parseActions(names []string) (semabridge.SemanticsAction, error) {
	var a semabridge.SemanticsAction
	for _, name := range names {
		bit, ok := actionNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown action %q (known: %s)", name, knownNames(actionNames))
		}
		a |= bit
	}
	return a, nil
}

func parseTextDirection(name string) (semabridge.TextDirection, error) {
	switch name {
	case "", "unknown":
		return semabridge.TextDirectionUnknown, nil
	case "ltr":
		return semabridge.TextDirectionLTR, nil
	case "rtl":
		return semabridge.TextDirectionRTL, nil
	default:
		return 0, fmt.Errorf("unknown text direction %q: must be ltr, rtl or unknown", name)
	}
}

func knownNames[V any](m map[string]V) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// toSemanticsNode converts a TOML record into the producer-facing update
// record.
func (r NodeRecord) toSemanticsNode() (semabridge.SemanticsNode, error) {
	n := semabridge.NewSemanticsNode(semabridge.NodeID(r.ID))

	flags, err := parseFlags(r.Flags)
	if err != nil {
		return n, fmt.Errorf("node %d: %w", r.ID, err)
	}
	actions, err := parseActions(r.Actions)
	if err != nil {
		return n, fmt.Errorf("node %d: %w", r.ID, err)
	}
	dir, err := parseTextDirection(r.TextDirection)
	if err != nil {
		return n, fmt.Errorf("node %d: %w", r.ID, err)
	}

	n.Flags = flags
	n.Actions = actions
	n.Label = r.Label
	n.Hint = r.Hint
	n.Value = r.Value
	n.IncreasedValue = r.IncreasedValue
	n.DecreasedValue = r.DecreasedValue
	n.TextDirection = dir

	if r.TextSelectionBase != nil {
		n.TextSelectionBase = *r.TextSelectionBase
	}
	if r.TextSelectionExtent != nil {
		n.TextSelectionExtent = *r.TextSelectionExtent
	}

	n.ScrollChildCount = r.ScrollChildCount
	n.ScrollIndex = r.ScrollIndex
	n.ScrollPosition = r.ScrollPosition
	n.ScrollExtentMax = r.ScrollExtentMax
	n.ScrollExtentMin = r.ScrollExtentMin
	n.Elevation = r.Elevation
	n.Thickness = r.Thickness

	if len(r.Rect) == 4 {
		n.Rect = semabridge.Rect{Left: r.Rect[0], Top: r.Rect[1], Right: r.Rect[2], Bottom: r.Rect[3]}
	}
	if len(r.Transform) == 9 {
		var tf semabridge.Transform
		copy(tf[:], r.Transform)
		n.Transform = tf
	}

	for _, c := range r.Children {
		n.ChildrenInTraversalOrder = append(n.ChildrenInTraversalOrder, semabridge.NodeID(c))
	}
	n.CustomAccessibilityActions = append(n.CustomAccessibilityActions, r.CustomActions...)
	return n, nil
}

// toCustomAction converts a TOML record into the producer-facing custom
// action record.
func (r ActionRecord) toCustomAction() (semabridge.SemanticsCustomAction, error) {
	var override semabridge.SemanticsAction
	if r.OverrideAction != "" {
		bit, ok := actionNames[r.OverrideAction]
		if !ok {
			return semabridge.SemanticsCustomAction{}, fmt.Errorf("action %d: unknown override action %q", r.ID, r.OverrideAction)
		}
		override = bit
	}
	return semabridge.SemanticsCustomAction{
		ID:             r.ID,
		OverrideAction: override,
		Label:          r.Label,
		Hint:           r.Hint,
	}, nil
}
