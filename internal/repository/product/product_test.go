package product

import (
	"context"
	"errors"
	"testing"

	"aura-taste/internal/dbtest"
	"aura-taste/internal/domain"
)

func TestPostgres_UpsertListGet(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	p, err := repo.Upsert(ctx, domain.Product{
		Key:            "margherita",
		Name:           "Margherita",
		Category:       "Pizza",
		BasePriceCents: 1000,
		Sizes:          []domain.Option{{Name: "Large", PriceCents: 1400}},
		Extras:         []domain.Option{{Name: "Olives", PriceCents: 100}},
	})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected ID set")
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 product, got %d", len(list))
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Sizes) != 1 || got.Sizes[0].PriceCents != 1400 || len(got.Extras) != 1 {
		t.Fatalf("unexpected options %+v", got)
	}
}

func TestPostgres_UpsertUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	first, err := repo.Upsert(ctx, domain.Product{Key: "fries", Name: "Fries", Category: "Sides", BasePriceCents: 300})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	updated, err := repo.Upsert(ctx, domain.Product{Key: "fries", Name: "Loaded Fries", Category: "Sides", BasePriceCents: 450, Description: "cheese"})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if updated.ID != first.ID {
		t.Fatalf("expected same ID after update")
	}
	got, err := repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Loaded Fries" || got.BasePriceCents != 450 || got.Description != "cheese" {
		t.Fatalf("unexpected updated product %+v", got)
	}
}

func TestPostgres_GetByIDs(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	a, _ := repo.Upsert(ctx, domain.Product{Key: "a", Name: "A", BasePriceCents: 100})
	b, _ := repo.Upsert(ctx, domain.Product{Key: "b", Name: "B", BasePriceCents: 200})

	got, err := repo.GetByIDs(ctx, []string{b.ID, a.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 2 || got[0].Key != "b" || got[1].Key != "a" {
		t.Fatalf("unexpected order %+v", got)
	}

	_, err = repo.GetByIDs(ctx, []string{a.ID, "00000000-0000-0000-0000-000000000000"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgres_GetMissing(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)
	_, err := repo.GetByID(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
