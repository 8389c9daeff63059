package order

import (
	"context"

	"aura-taste/internal/domain"
)

// Filter narrows List. Zero fields match everything.
type Filter struct {
	ID            string
	CustomerID    string
	CustomerEmail string
	Statuses      []domain.OrderStatus
	Limit         int
}

// Guard inspects the current status inside the update transaction and
// rejects the change by returning an error.
type Guard func(current domain.OrderStatus) error

type Repository interface {
	Create(ctx context.Context, in domain.NewOrder) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f Filter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, guard Guard) (*domain.Order, error)
	CountByStatus(ctx context.Context, status domain.OrderStatus) (int, error)
}
