// Package checkout turns a shopper's cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"aura-taste/internal/cart"
	"aura-taste/internal/domain"
	"aura-taste/internal/events"
	"github.com/go-playground/validator/v10"
)

// ErrEmptyCart is returned when there is nothing to order.
var ErrEmptyCart = errors.New("cart is empty")

type carts interface {
	With(ctx context.Context, owner string, fn func(*cart.Store) error) error
	RememberAddress(ctx context.Context, owner, address string) error
}

type orderRepo interface {
	Create(ctx context.Context, in domain.NewOrder) (*domain.Order, error)
}

type branchRepo interface {
	GetByKey(ctx context.Context, key string) (*domain.Branch, error)
}

type notifier interface {
	Notify()
}

type recorder interface {
	OrderPlaced(method string, totalCents int64)
	CheckoutFailed(kind string)
}

type Service struct {
	carts     carts
	orders    orderRepo
	branches  branchRepo
	publisher events.Publisher
	notifier  notifier
	metrics   recorder
	validate  *validator.Validate
	logger    *log.Logger
}

// Deps are the optional collaborators of Service.
type Deps struct {
	Publisher events.Publisher
	Notifier  notifier
	Metrics   recorder
	Logger    *log.Logger
}

func New(c carts, orders orderRepo, branches branchRepo, deps Deps) *Service {
	s := &Service{
		carts:     c,
		orders:    orders,
		branches:  branches,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		validate:  newValidator(),
		logger:    deps.Logger,
	}
	if s.publisher == nil {
		s.publisher = events.Noop{}
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	return s
}

// Place validates in, snapshots the principal's cart into a new Pending order
// and clears the cart. Validation problems come back as
// *domain.ValidationError before anything is read or written. When the order
// cannot be stored the cart is left untouched and the error wraps
// domain.ErrPersistence.
func (s *Service) Place(ctx context.Context, p domain.Principal, in Input) (*domain.Order, error) {
	in.normalize()
	if !p.Anonymous() && p.Email != "" {
		in.Email = p.Email
	}
	if err := s.validate.Struct(in); err != nil {
		s.failed("validation")
		return nil, validationError(err)
	}
	if err := s.checkBranch(ctx, in); err != nil {
		return nil, err
	}

	var customerID *string
	if !p.Anonymous() {
		id := p.CustomerID
		customerID = &id
	}
	owner := p.CartOwner()

	var placed *domain.Order
	err := s.carts.With(ctx, owner, func(c *cart.Store) error {
		lines := c.Lines()
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		o, err := s.orders.Create(ctx, domain.NewOrder{
			CustomerID: customerID,
			Lines:      lines,
			Customer: domain.OrderCustomer{
				Name:     in.Name,
				Phone:    in.Phone,
				Email:    in.Email,
				Location: in.location(),
			},
			FulfillmentMethod: in.Method,
			TotalAmountCents:  domain.SumLines(lines),
		})
		if err != nil {
			return fmt.Errorf("%w: create order: %v", domain.ErrPersistence, err)
		}
		placed = o
		if _, err := c.Clear(ctx); err != nil {
			s.logger.Printf("checkout: clear cart owner=%s order_id=%s error=%v", owner, o.ID, err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			s.failed("empty_cart")
		case errors.Is(err, domain.ErrPersistence):
			s.failed("persistence")
			s.logger.Printf("checkout: owner=%s error=%v", owner, err)
		}
		return nil, err
	}

	if in.Method == domain.FulfillmentDelivery {
		if err := s.carts.RememberAddress(ctx, owner, in.Address); err != nil {
			s.logger.Printf("checkout: remember address owner=%s error=%v", owner, err)
		}
	}
	if err := s.publisher.Publish(ctx, events.OrderCreated(*placed)); err != nil {
		s.logger.Printf("checkout: publish order_id=%s error=%v", placed.ID, err)
	}
	if s.notifier != nil {
		s.notifier.Notify()
	}
	if s.metrics != nil {
		s.metrics.OrderPlaced(string(placed.FulfillmentMethod), placed.TotalAmountCents)
	}
	s.logger.Printf("checkout: placed order_id=%s method=%s total=%d lines=%d", placed.ID, placed.FulfillmentMethod, placed.TotalAmountCents, len(placed.Lines))
	return placed, nil
}

func (s *Service) checkBranch(ctx context.Context, in Input) error {
	if in.Method == domain.FulfillmentDelivery || s.branches == nil {
		return nil
	}
	b, err := s.branches.GetByKey(ctx, in.Branch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.failed("validation")
			return domain.NewValidationError("branch", "unknown branch")
		}
		s.failed("persistence")
		return fmt.Errorf("%w: load branch: %v", domain.ErrPersistence, err)
	}
	if in.Method == domain.FulfillmentDineIn && b.Tables > 0 {
		n, err := strconv.Atoi(in.Table)
		if err != nil || n < 1 || n > b.Tables {
			s.failed("validation")
			return domain.NewValidationError("table", fmt.Sprintf("must be a table number between 1 and %d", b.Tables))
		}
	}
	return nil
}

func (s *Service) failed(kind string) {
	if s.metrics != nil {
		s.metrics.CheckoutFailed(kind)
	}
}
