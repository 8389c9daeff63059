package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"aura-taste/internal/domain"
	"aura-taste/internal/kv"
)

const (
	// AddressKey is the record key of the saved delivery addresses.
	AddressKey   = "aura-addresses"
	maxAddresses = 5
)

// AddressKeyFor returns the address record key for an owner.
func AddressKeyFor(owner string) string {
	if owner == "" {
		return AddressKey
	}
	return AddressKey + ":" + owner
}

// Addresses is the most-recent-first list of delivery addresses an owner has
// checked out with.
type Addresses struct {
	kv kv.Store
}

func NewAddresses(store kv.Store) *Addresses {
	return &Addresses{kv: store}
}

func (a *Addresses) List(ctx context.Context, owner string) ([]string, error) {
	raw, err := a.kv.Get(ctx, AddressKeyFor(owner))
	if errors.Is(err, domain.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}, nil
	}
	return out, nil
}

// Remember moves address to the front of the list. Matching is
// case-insensitive and the list keeps at most five entries.
func (a *Addresses) Remember(ctx context.Context, owner, address string) ([]string, error) {
	address = strings.TrimSpace(address)
	current, err := a.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if address == "" {
		return current, nil
	}
	next := []string{address}
	for _, existing := range current {
		if strings.EqualFold(existing, address) {
			continue
		}
		if len(next) == maxAddresses {
			break
		}
		next = append(next, existing)
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if err := a.kv.Set(ctx, AddressKeyFor(owner), string(raw)); err != nil {
		return nil, err
	}
	return next, nil
}
