// Package auth resolves the principal behind a request.
package auth

import (
	"context"
	"strings"

	"aura-taste/internal/domain"
)

// SessionHeader carries the anonymous shopper session token.
const SessionHeader = "X-Session-Token"

type customerLookup interface {
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
}

type sessionLookup interface {
	LookupByToken(ctx context.Context, token string) (string, error)
}

// Resolver turns request credentials into a domain.Principal.
type Resolver struct {
	customers  customerLookup
	sessions   sessionLookup
	adminEmail string
}

func NewResolver(customers customerLookup, sessions sessionLookup, adminEmail string) *Resolver {
	return &Resolver{customers: customers, sessions: sessions, adminEmail: strings.TrimSpace(adminEmail)}
}

// IsAdmin reports whether email is the configured admin address.
func (r *Resolver) IsAdmin(email string) bool {
	return r.adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), r.adminEmail)
}

// Resolve prefers a customer bearer token and falls back to the anonymous
// session token. A logged-in principal keeps the session id when both are
// sent so the anonymous cart can be merged.
func (r *Resolver) Resolve(ctx context.Context, bearer, session string) (domain.Principal, error) {
	var p domain.Principal
	if session != "" && r.sessions != nil {
		if id, err := r.sessions.LookupByToken(ctx, session); err == nil {
			p.SessionID = id
		}
	}
	if bearer != "" {
		c, err := r.customers.LookupByToken(ctx, bearer)
		if err != nil || c == nil {
			return domain.Principal{}, domain.ErrUnauthorized
		}
		p.CustomerID = c.ID
		p.Email = c.Email
		p.Admin = r.IsAdmin(c.Email)
		return p, nil
	}
	if p.SessionID == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
