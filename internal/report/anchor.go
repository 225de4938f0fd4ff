package report

import "strings"

// AnchorState is the canonical per-report supplement-context state.
type AnchorState string

const (
	// StateInherit means the stack is unchanged from the most recent
	// anchor/none/unknown report.
	StateInherit AnchorState = "inherit"

	// StateAnchor means the stack changed starting at this report, with an
	// explicit replacement list.
	StateAnchor AnchorState = "anchor"

	// StateNone means no supplements were being taken as of this report.
	StateNone AnchorState = "none"

	// StateUnknown means the stack for this report cannot be determined.
	StateUnknown AnchorState = "unknown"
)

// ValidAnchorState reports whether s is one of the four canonical values.
func ValidAnchorState(s string) bool {
	switch AnchorState(strings.ToLower(strings.TrimSpace(s))) {
	case StateInherit, StateAnchor, StateNone, StateUnknown:
		return true
	}
	return false
}

// NormalizeAnchorState maps raw annotations to a canonical state.
//
// An explicitly authored canonical value wins. Otherwise the state is derived
// from the legacy override field: absent → inherit, empty list → none,
// non-empty list → anchor. Legacy data only ever set the override field, so
// this fallback reinterprets it without migration; only explicitly authored
// annotations can express "unknown" or a deliberate "inherit".
func NormalizeAnchorState(ann Annotations) AnchorState {
	if ann.AnchorState != nil {
		switch s := AnchorState(strings.ToLower(strings.TrimSpace(*ann.AnchorState))); s {
		case StateInherit, StateAnchor, StateNone, StateUnknown:
			return s
		}
	}

	if ann.StackOverride == nil {
		return StateInherit
	}
	if len(*ann.StackOverride) == 0 {
		return StateNone
	}
	return StateAnchor
}
