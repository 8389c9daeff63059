package branch

import (
	"context"
	"errors"
	"testing"

	"aura-taste/internal/dbtest"
	"aura-taste/internal/domain"
)

func TestPostgres_GetByKeyOrName(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(t))

	created, err := repo.Upsert(ctx, domain.Branch{Key: "downtown", Name: "Downtown", Address: "1 Main St", Tables: 12})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	for _, key := range []string{"downtown", "DOWNTOWN", "Downtown"} {
		got, err := repo.GetByKey(ctx, key)
		if err != nil {
			t.Fatalf("get %q: %v", key, err)
		}
		if got.ID != created.ID || got.Tables != 12 {
			t.Fatalf("unexpected branch %+v", got)
		}
	}

	if _, err := repo.GetByKey(ctx, "uptown"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
}
