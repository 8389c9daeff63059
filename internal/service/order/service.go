// Package order serves order tracking to customers and status control to
// the admin console.
package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"aura-taste/internal/domain"
	"aura-taste/internal/events"
	"aura-taste/internal/lifecycle"
	orderrepo "aura-taste/internal/repository/order"
)

type repository interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f orderrepo.Filter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, guard orderrepo.Guard) (*domain.Order, error)
	CountByStatus(ctx context.Context, status domain.OrderStatus) (int, error)
}

type notifier interface {
	Notify()
}

type recorder interface {
	StatusChanged(status string)
}

type Service struct {
	repo      repository
	policy    lifecycle.Policy
	target    time.Duration
	publisher events.Publisher
	notifier  notifier
	metrics   recorder
	logger    *log.Logger
	now       func() time.Time
}

// Options configure Service. Zero values pick the defaults.
type Options struct {
	Policy    lifecycle.Policy
	Target    time.Duration
	Publisher events.Publisher
	Notifier  notifier
	Metrics   recorder
	Logger    *log.Logger
}

func New(repo repository, opts Options) *Service {
	s := &Service{
		repo:      repo,
		policy:    opts.Policy,
		target:    opts.Target,
		publisher: opts.Publisher,
		notifier:  opts.Notifier,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if s.policy == nil {
		s.policy = lifecycle.Forward{}
	}
	if s.target <= 0 {
		s.target = lifecycle.DefaultTarget
	}
	if s.publisher == nil {
		s.publisher = events.Noop{}
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	return s
}

// View is an order with its derived tracking state.
type View struct {
	domain.Order
	Steps     []lifecycle.Step   `json:"steps"`
	StepIndex int                `json:"stepIndex"`
	Tab       lifecycle.Tab      `json:"tab"`
	Countdown lifecycle.Snapshot `json:"countdown"`
}

// Describe derives the tracking view of o at now.
func (s *Service) Describe(o domain.Order, now time.Time) View {
	return View{
		Order:     o,
		Steps:     lifecycle.StepStates(o.Status),
		StepIndex: lifecycle.Index(o.Status),
		Tab:       lifecycle.TabOf(o.Status),
		Countdown: lifecycle.NewCountdown(o.CreatedAt, s.target).At(now),
	}
}

// Target is the preparation estimate used for countdowns.
func (s *Service) Target() time.Duration {
	return s.target
}

// Mine lists the principal's orders, newest first. Orders are matched by the
// email they were placed with, which also picks up guest orders of the same
// address.
func (s *Service) Mine(ctx context.Context, p domain.Principal) ([]domain.Order, error) {
	if p.Anonymous() {
		return nil, domain.ErrUnauthorized
	}
	if p.Email != "" {
		return s.repo.List(ctx, orderrepo.Filter{CustomerEmail: p.Email})
	}
	return s.repo.List(ctx, orderrepo.Filter{CustomerID: p.CustomerID})
}

// Track returns the view of one order. Admins see every order and customers
// see their own. Guest orders are reachable by id alone, which is what the
// tracking QR code carries.
func (s *Service) Track(ctx context.Context, p domain.Principal, id string) (*View, error) {
	o, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	v := s.Describe(*o, s.now())
	return &v, nil
}

// Get loads an order the principal may see.
func (s *Service) Get(ctx context.Context, p domain.Principal, id string) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(p, *o) {
		// Hide the existence of other customers' orders.
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// CanView reports whether p may read o.
func CanView(p domain.Principal, o domain.Order) bool {
	if p.Admin || o.CustomerID == nil {
		return true
	}
	return !p.Anonymous() && *o.CustomerID == p.CustomerID
}

// ByTab lists orders for an admin tab, newest first.
func (s *Service) ByTab(ctx context.Context, tab lifecycle.Tab) ([]domain.Order, error) {
	return s.repo.List(ctx, orderrepo.Filter{Statuses: lifecycle.StatusesOf(tab)})
}

func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.repo.CountByStatus(ctx, domain.StatusPending)
}

// UpdateStatus moves an order to the status named by raw. The policy check
// runs against the stored status inside the write. A failed write leaves the
// stored status unchanged and wraps domain.ErrPersistence; nothing is retried.
func (s *Service) UpdateStatus(ctx context.Context, id, raw string) (*domain.Order, error) {
	next, err := lifecycle.Parse(raw)
	if err != nil {
		return nil, err
	}
	var previous domain.OrderStatus
	updated, err := s.repo.UpdateStatus(ctx, id, next, func(current domain.OrderStatus) error {
		previous = current
		return s.policy.Transition(current, next)
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, lifecycle.ErrStatusRegression),
			errors.Is(err, lifecycle.ErrTerminal),
			errors.Is(err, lifecycle.ErrUnknownStatus):
			return nil, err
		}
		s.logger.Printf("order service: update status id=%s next=%s error=%v", id, next, err)
		return nil, fmt.Errorf("%w: update status: %v", domain.ErrPersistence, err)
	}

	if previous != updated.Status {
		if err := s.publisher.Publish(ctx, events.StatusChanged(*updated, previous)); err != nil {
			s.logger.Printf("order service: publish id=%s error=%v", id, err)
		}
		if s.metrics != nil {
			s.metrics.StatusChanged(string(updated.Status))
		}
	}
	if s.notifier != nil {
		s.notifier.Notify()
	}
	s.logger.Printf("order service: status id=%s %s -> %s", id, previous, updated.Status)
	return updated, nil
}
