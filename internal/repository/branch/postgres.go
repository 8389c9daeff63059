package branch

import (
	"context"
	"errors"

	"aura-taste/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Branch, error) {
	const q = `
SELECT id::text, key, name, COALESCE(address, ''), tables, created_at
FROM branches
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Branch
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.Key, &b.Name, &b.Address, &b.Tables, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetByKey matches the branch key or its display name, ignoring case.
func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Branch, error) {
	const q = `
SELECT id::text, key, name, COALESCE(address, ''), tables, created_at
FROM branches
WHERE lower(key) = lower($1) OR lower(name) = lower($1)
ORDER BY (lower(key) = lower($1)) DESC
LIMIT 1
`
	var b domain.Branch
	err := r.pool.QueryRow(ctx, q, key).Scan(&b.ID, &b.Key, &b.Name, &b.Address, &b.Tables, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, b domain.Branch) (*domain.Branch, error) {
	const q = `
INSERT INTO branches (key, name, address, tables)
VALUES ($1, $2, NULLIF($3, ''), $4)
ON CONFLICT (key) DO UPDATE
SET name = EXCLUDED.name,
    address = EXCLUDED.address,
    tables = EXCLUDED.tables
RETURNING id::text, created_at
`
	out := b
	if err := r.pool.QueryRow(ctx, q, b.Key, b.Name, b.Address, b.Tables).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
