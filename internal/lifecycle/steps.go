package lifecycle

import "aura-taste/internal/domain"

// StepState is how a single step renders in a progress indicator.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepActive    StepState = "active"
	StepPending   StepState = "pending"
)

// Step pairs a status with its rendered state.
type Step struct {
	Index  int                `json:"index"`
	Status domain.OrderStatus `json:"status"`
	State  StepState          `json:"state"`
}

// StepStates renders every step relative to current. Steps before current are
// completed, current is active, the rest are pending. An unknown current status
// renders everything pending.
func StepStates(current domain.OrderStatus) []Step {
	ci := Index(current)
	out := make([]Step, len(steps))
	for i, s := range steps {
		st := StepPending
		switch {
		case ci < 0:
		case i < ci:
			st = StepCompleted
		case i == ci:
			st = StepActive
		}
		out[i] = Step{Index: i, Status: s, State: st}
	}
	return out
}

// Tab groups statuses the way the admin console lists orders.
type Tab string

const (
	TabPending    Tab = "Pending"
	TabInProgress Tab = "In Progress"
	TabCompleted  Tab = "Completed"
	TabAll        Tab = ""
)

// TabOf returns the console tab an order with status s belongs to.
func TabOf(s domain.OrderStatus) Tab {
	switch s {
	case domain.StatusPending:
		return TabPending
	case domain.StatusCompleted:
		return TabCompleted
	default:
		if Index(s) > 0 {
			return TabInProgress
		}
		return TabAll
	}
}

// ParseTab maps a query value to a Tab. Empty or unknown values mean all orders.
func ParseTab(raw string) Tab {
	switch compact(raw) {
	case "pending":
		return TabPending
	case "inprogress":
		return TabInProgress
	case "completed":
		return TabCompleted
	}
	return TabAll
}

// InTab reports whether an order with status s is listed under t.
func InTab(t Tab, s domain.OrderStatus) bool {
	if t == TabAll {
		return true
	}
	return TabOf(s) == t
}

// StatusesOf lists the statuses shown under t. TabAll returns nil, which
// filters nothing.
func StatusesOf(t Tab) []domain.OrderStatus {
	if t == TabAll {
		return nil
	}
	var out []domain.OrderStatus
	for _, s := range steps {
		if TabOf(s) == t {
			out = append(out, s)
		}
	}
	return out
}
