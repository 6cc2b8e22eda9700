package enums

import "fmt"

// HistoryAction is the closed set of structured action codes recorded on an
// item's history. Human-readable text is projected by presentation layers,
// never stored.
type HistoryAction string

const (
	HistoryActionCreatedByAdmin   HistoryAction = "created_by_admin"
	HistoryActionAssignedForStage HistoryAction = "assigned_for_stage"
	HistoryActionCompletedStage   HistoryAction = "completed_stage"
)

var validHistoryActions = []HistoryAction{
	HistoryActionCreatedByAdmin,
	HistoryActionAssignedForStage,
	HistoryActionCompletedStage,
}

// String implements fmt.Stringer.
func (h HistoryAction) String() string {
	return string(h)
}

// IsValid reports whether the value is a known HistoryAction.
func (h HistoryAction) IsValid() bool {
	for _, candidate := range validHistoryActions {
		if candidate == h {
			return true
		}
	}
	return false
}

// ParseHistoryAction converts raw input into a HistoryAction.
func ParseHistoryAction(value string) (HistoryAction, error) {
	for _, candidate := range validHistoryActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid history action %q", value)
}
