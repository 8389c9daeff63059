package branch

import (
	"context"

	"aura-taste/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Branch, error)
	GetByKey(ctx context.Context, key string) (*domain.Branch, error)
	Upsert(ctx context.Context, b domain.Branch) (*domain.Branch, error)
}
