package feed

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Channel is the Postgres notification channel fed by the orders trigger.
const Channel = "order_changes"

type notifier interface {
	Notify()
}

// Listener turns Postgres notifications into hub signals.
type Listener struct {
	pool    *pgxpool.Pool
	hub     notifier
	logger  *log.Logger
	backoff time.Duration
}

func NewListener(pool *pgxpool.Pool, hub notifier, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Listener{pool: pool, hub: hub, logger: logger, backoff: time.Second}
}

// Run listens until ctx ends, reconnecting after connection failures. Each
// reconnect also signals the hub, since notifications may have been missed.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Printf("feed listener: channel=%s error=%v retry_in=%s", Channel, err, l.backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
		l.hub.Notify()
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return err
	}
	l.logger.Printf("feed listener: listening channel=%s", Channel)
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			conn.Conn().Close(context.Background()) //nolint:errcheck
			return err
		}
		if n.Channel == Channel {
			l.hub.Notify()
		}
	}
}
