// Package anonymous issues shopper session tokens so guests can keep a cart
// before they log in.
package anonymous

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"aura-taste/internal/domain"
	tokenrepo "aura-taste/internal/repository/token"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	tokens tokenrepo.Repository
	ttl    time.Duration
	now    func() time.Time
}

// New returns a Service storing tokens in repo. A nil repo keeps them in
// process memory.
func New(repo tokenrepo.Repository) *Service {
	if repo == nil {
		repo = NewMemoryTokens()
	}
	return &Service{
		tokens: repo,
		ttl:    30 * 24 * time.Hour,
		now:    time.Now,
	}
}

// Issue creates a new session and returns its token and id.
func (s *Service) Issue(ctx context.Context) (token, sessionID string, err error) {
	sessionID = uuid.NewString()
	for i := 0; i < 5; i++ {
		token, err = randomToken()
		if err != nil {
			return "", "", err
		}
		sid := sessionID
		err = s.tokens.Create(ctx, tokenrepo.Token{
			Token:     token,
			SessionID: &sid,
			Kind:      tokenrepo.KindSession,
			ExpiresAt: s.now().Add(s.ttl),
		})
		if err == nil {
			return token, sessionID, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return "", "", err
		}
	}
	return "", "", errors.New("token collision")
}

// LookupByToken returns the session id bound to token.
func (s *Service) LookupByToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	meta, err := s.tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if meta.Kind != tokenrepo.KindSession || meta.SessionID == nil {
		return "", ErrInvalidToken
	}
	if s.now().After(meta.ExpiresAt) {
		_ = s.tokens.Delete(ctx, token)
		return "", ErrInvalidToken
	}
	return *meta.SessionID, nil
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
