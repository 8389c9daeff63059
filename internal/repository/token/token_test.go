package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"aura-taste/internal/dbtest"
	"aura-taste/internal/domain"
)

func TestPostgres_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool)

	var customerID string
	if err := pool.QueryRow(ctx, `INSERT INTO customers (email, password_hash) VALUES ('t@example.com', 'x') RETURNING id::text`).Scan(&customerID); err != nil {
		t.Fatalf("insert customer: %v", err)
	}

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := repo.Create(ctx, Token{Token: "tok-1", CustomerID: &customerID, Kind: KindAccess, ExpiresAt: expires}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, Token{Token: "tok-1", CustomerID: &customerID, Kind: KindAccess, ExpiresAt: expires}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	session := "sess-1"
	if err := repo.Create(ctx, Token{Token: "tok-2", SessionID: &session, Kind: KindSession, ExpiresAt: expires}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := repo.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CustomerID == nil || *got.CustomerID != customerID || got.SessionID != nil {
		t.Fatalf("unexpected token %+v", got)
	}

	if err := repo.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "tok-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.Get(ctx, "tok-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
