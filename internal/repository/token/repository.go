package token

import (
	"context"
	"time"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
	KindSession = "session"
)

// Token is an opaque credential. Customer tokens carry CustomerID, anonymous
// shopper tokens carry SessionID.
type Token struct {
	Token      string
	CustomerID *string
	SessionID  *string
	Kind       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	DeleteByCustomer(ctx context.Context, customerID string) (int64, error)
}
