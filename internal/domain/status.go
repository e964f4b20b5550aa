package domain

// Status represents where a task is in its lifecycle.
type Status string

// Possible task status values
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// allStatuses lists the statuses in lifecycle order.
var allStatuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// transitions is the single source of truth for legal status changes.
// Identity transitions are not edges and are handled by CanTransition.
var transitions = map[Status]map[Status]struct{}{
	StatusTodo: {
		StatusInProgress: {},
	},
	StatusInProgress: {
		StatusTodo:   {},
		StatusReview: {},
		StatusDone:   {},
	},
	StatusReview: {
		StatusInProgress: {},
		StatusDone:       {},
	},
	StatusDone: {
		StatusInProgress: {},
	},
}

var statusLabels = map[Status]string{
	StatusTodo:       "To Do",
	StatusInProgress: "In Progress",
	StatusReview:     "In Review",
	StatusDone:       "Done",
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// String returns the raw status token.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a raw token into a Status.
// Returns an *InvalidStatusError for anything outside the known set.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.IsValid() {
		return "", &InvalidStatusError{Value: value}
	}
	return s, nil
}

// CanTransition reports whether a task may move from one status to another.
// A transition to the same status is always allowed and never consults the table.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	_, ok := transitions[from][to]
	return ok
}

// PermittedTargets returns the statuses reachable from the given status in a
// single step, in lifecycle order. The identity transition is not included.
func PermittedTargets(from Status) []Status {
	targets := transitions[from]
	out := make([]Status, 0, len(targets))
	for _, s := range allStatuses {
		if _, ok := targets[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Label returns the display label for a status, or the raw token if none is registered.
func Label(s Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}
