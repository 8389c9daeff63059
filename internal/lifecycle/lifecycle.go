// Package lifecycle implements the order status state machine shared by the
// customer tracker and the admin console.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"aura-taste/internal/domain"
)

var (
	// ErrUnknownStatus is returned for a status outside the lifecycle.
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrStatusRegression is returned when a transition moves backwards.
	ErrStatusRegression = errors.New("order status cannot move backwards")
	// ErrTerminal is returned when the order is already completed.
	ErrTerminal = errors.New("order is already completed")
)

var steps = []domain.OrderStatus{
	domain.StatusPending,
	domain.StatusApproved,
	domain.StatusInKitchen,
	domain.StatusFinishing,
	domain.StatusDelivering,
	domain.StatusCompleted,
}

// Steps returns the statuses in lifecycle order.
func Steps() []domain.OrderStatus {
	return append([]domain.OrderStatus(nil), steps...)
}

// Initial is the status assigned at order creation.
func Initial() domain.OrderStatus {
	return domain.StatusPending
}

// Index returns the position of s in the lifecycle, or -1.
func Index(s domain.OrderStatus) int {
	for i, step := range steps {
		if step == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether no transition leaves s.
func Terminal(s domain.OrderStatus) bool {
	return s == domain.StatusCompleted
}

// Parse accepts the display name ("In Kitchen") or the compact form
// ("InKitchen"), case-insensitively.
func Parse(raw string) (domain.OrderStatus, error) {
	norm := compact(raw)
	for _, s := range steps {
		if compact(string(s)) == norm {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

func compact(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "-", "")
}

// Policy decides whether an admin may move an order from one status to another.
type Policy interface {
	Transition(current, next domain.OrderStatus) error
}

// Forward only allows progress. Skipping steps is a valid fast-forward and
// re-issuing the current status is a no-op.
type Forward struct{}

func (Forward) Transition(current, next domain.OrderStatus) error {
	ci, ni := Index(current), Index(next)
	if ci < 0 {
		return fmt.Errorf("%w: current %q", ErrUnknownStatus, current)
	}
	if ni < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}
	if Terminal(current) && ni != ci {
		return ErrTerminal
	}
	if ni < ci {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, current, next)
	}
	return nil
}

// Permissive accepts any known status, mirroring an unrestricted console.
type Permissive struct{}

func (Permissive) Transition(_, next domain.OrderStatus) error {
	if Index(next) < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}
	return nil
}

// PolicyFromName maps a config value to a Policy. Unknown names fall back to Forward.
func PolicyFromName(name string) Policy {
	if strings.EqualFold(strings.TrimSpace(name), "permissive") {
		return Permissive{}
	}
	return Forward{}
}
