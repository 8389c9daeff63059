package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

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

const selectColumns = `id::text, customer_id::text, customer, lines, fulfillment_method, total_amount_cents, status, created_at, updated_at`

// Create inserts the order with status Pending and lets the database stamp
// created_at.
func (r *postgresRepo) Create(ctx context.Context, in domain.NewOrder) (*domain.Order, error) {
	lines, err := json.Marshal(in.Lines)
	if err != nil {
		return nil, fmt.Errorf("encode lines: %w", err)
	}
	customer, err := json.Marshal(in.Customer)
	if err != nil {
		return nil, fmt.Errorf("encode customer: %w", err)
	}
	q := `
INSERT INTO orders (customer_id, customer_email, customer, lines, fulfillment_method, total_amount_cents, status)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
RETURNING ` + selectColumns
	o, err := scanOrder(r.pool.QueryRow(ctx, q,
		in.CustomerID,
		strings.ToLower(in.Customer.Email),
		customer,
		lines,
		string(in.FulfillmentMethod),
		in.TotalAmountCents,
		string(domain.StatusPending),
	))
	if err != nil {
		r.logger.Printf("order repo: create method=%s error=%v", in.FulfillmentMethod, err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s total=%d", o.ID, o.TotalAmountCents)
	return o, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + selectColumns + ` FROM orders WHERE id::text = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return o, nil
}

// List returns matching orders, newest first.
func (r *postgresRepo) List(ctx context.Context, f Filter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ID != "" {
		add("id::text = $%d", f.ID)
	}
	if f.CustomerID != "" {
		add("customer_id::text = $%d", f.CustomerID)
	}
	if f.CustomerEmail != "" {
		add("lower(customer_email) = lower($%d)", f.CustomerEmail)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		add("status = ANY($%d)", statuses)
	}

	q := `SELECT ` + selectColumns + ` FROM orders`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("order repo: list rows error=%v", err)
		return nil, err
	}
	return out, nil
}

// UpdateStatus locks the row, lets guard veto the change and writes next.
func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, guard Guard) (*domain.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id::text = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if guard != nil {
		if err := guard(domain.OrderStatus(current)); err != nil {
			return nil, err
		}
	}

	q := `UPDATE orders SET status = $2, updated_at = now() WHERE id::text = $1 RETURNING ` + selectColumns
	o, err := scanOrder(tx.QueryRow(ctx, q, id, string(next)))
	if err != nil {
		r.logger.Printf("order repo: update status id=%s error=%v", id, err)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: status id=%s %s -> %s", id, current, next)
	return o, nil
}

func (r *postgresRepo) CountByStatus(ctx context.Context, status domain.OrderStatus) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE status = $1`, string(status)).Scan(&n)
	return n, err
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o               domain.Order
		customer, lines []byte
		method, status  string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &customer, &lines, &method, &o.TotalAmountCents, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("decode customer for order %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return nil, fmt.Errorf("decode lines for order %s: %w", o.ID, err)
	}
	o.FulfillmentMethod = domain.FulfillmentMethod(method)
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
