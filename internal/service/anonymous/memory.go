package anonymous

import (
	"context"
	"sync"

	"aura-taste/internal/domain"
	tokenrepo "aura-taste/internal/repository/token"
)

// MemoryTokens is a process-local token repository.
type MemoryTokens struct {
	mu     sync.RWMutex
	tokens map[string]tokenrepo.Token
}

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{tokens: make(map[string]tokenrepo.Token)}
}

func (m *MemoryTokens) Create(_ context.Context, t tokenrepo.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[t.Token]; ok {
		return domain.ErrAlreadyExists
	}
	m.tokens[t.Token] = t
	return nil
}

func (m *MemoryTokens) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	m.mu.RLock()
	t, ok := m.tokens[token]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *MemoryTokens) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tokens, token)
	return nil
}

func (m *MemoryTokens) DeleteByCustomer(_ context.Context, customerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, t := range m.tokens {
		if t.CustomerID != nil && *t.CustomerID == customerID {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}
