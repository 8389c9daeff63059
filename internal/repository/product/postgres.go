package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"aura-taste/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const selectColumns = `id::text, key, name, COALESCE(description, ''), category, base_price_cents, sizes, extras, COALESCE(image, ''), created_at`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products ORDER BY category ASC, name ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	result, err := scanAll(rows)
	if err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("product repo: list count=%d", len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products WHERE id::text = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

// GetByIDs returns the products in the order of ids. Any missing id is
// reported as domain.ErrNotFound.
func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + selectColumns + ` FROM products WHERE id::text = ANY($1)`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		r.logger.Printf("product repo: get many count=%d error=%v", len(ids), err)
		return nil, err
	}
	defer rows.Close()

	found, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	sizes, err := marshalOptions(product.Sizes)
	if err != nil {
		return nil, err
	}
	extras, err := marshalOptions(product.Extras)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO products (key, name, description, category, base_price_cents, sizes, extras, image)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NULLIF($8, ''))
ON CONFLICT (key) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    category = EXCLUDED.category,
    base_price_cents = EXCLUDED.base_price_cents,
    sizes = EXCLUDED.sizes,
    extras = EXCLUDED.extras,
    image = EXCLUDED.image
RETURNING id::text, created_at
`
	res := product
	err = r.pool.QueryRow(ctx, q,
		product.Key,
		product.Name,
		product.Description,
		product.Category,
		product.BasePriceCents,
		sizes,
		extras,
		product.Image,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert key=%s error=%v", product.Key, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted key=%s id=%s", res.Key, res.ID)
	return &res, nil
}

func marshalOptions(opts []domain.Option) ([]byte, error) {
	if opts == nil {
		opts = []domain.Option{}
	}
	return json.Marshal(opts)
}

func scanAll(rows pgx.Rows) ([]domain.Product, error) {
	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p             domain.Product
		sizes, extras []byte
	)
	if err := row.Scan(&p.ID, &p.Key, &p.Name, &p.Description, &p.Category, &p.BasePriceCents, &sizes, &extras, &p.Image, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return nil, fmt.Errorf("decode sizes for %s: %w", p.Key, err)
	}
	if err := json.Unmarshal(extras, &p.Extras); err != nil {
		return nil, fmt.Errorf("decode extras for %s: %w", p.Key, err)
	}
	if len(p.Sizes) == 0 {
		p.Sizes = nil
	}
	if len(p.Extras) == 0 {
		p.Extras = nil
	}
	return &p, nil
}
