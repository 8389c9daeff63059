// Package cart keeps a shopper's cart in memory and mirrors every change to a
// key-value store.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"aura-taste/internal/domain"
	"aura-taste/internal/kv"
)

// Key is the record key of a device cart.
const Key = "aura-cart"

// ErrUnsynced is returned when a change was applied in memory but could not be
// written to the key-value store.
var ErrUnsynced = errors.New("cart not persisted")

// KeyFor returns the record key for an owner, or Key when owner is empty.
func KeyFor(owner string) string {
	if owner == "" {
		return Key
	}
	return Key + ":" + owner
}

// Snapshot is a point-in-time copy of the cart.
type Snapshot struct {
	Lines      []domain.CartLine `json:"lines"`
	TotalCents int64             `json:"total"`
	Count      int               `json:"count"`
	Synced     bool              `json:"synced"`
}

// Store is a single cart. All methods are safe for concurrent use; writes to
// the key-value store happen in mutation order.
type Store struct {
	mu     sync.Mutex
	kv     kv.Store
	key    string
	lines  []domain.CartLine
	synced bool
	logger *log.Logger
}

// Open loads the cart stored under key. A missing or unreadable record gives
// an empty cart.
func Open(ctx context.Context, store kv.Store, key string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Store{kv: store, key: key, synced: true, logger: logger}

	raw, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return s
	case err != nil:
		logger.Printf("cart: load key=%s error=%v", key, err)
		return s
	}
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		logger.Printf("cart: decode key=%s error=%v", key, err)
		return s
	}
	s.lines = sanitize(lines)
	return s
}

func sanitize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 || l.ProductRef == "" {
			continue
		}
		l.SelectedExtras = NormalizeExtras(l.SelectedExtras)
		l.LineID = LineID(l.ProductRef, l.SelectedSize, l.SelectedExtras)
		if i, ok := index[l.LineID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.LineID] = len(out)
		out = append(out, l)
	}
	return out
}

// AddItem adds sel to the cart. Quantities below one count as one. A selection
// matching an existing line increments that line.
func (s *Store) AddItem(ctx context.Context, sel Selection) (Snapshot, error) {
	qty := sel.Quantity
	if qty < 1 {
		qty = 1
	}
	extras := NormalizeExtras(sel.Extras)
	id := LineID(sel.ProductRef, sel.Size, extras)

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(id); i >= 0 {
		s.lines[i].Quantity += qty
	} else {
		s.lines = append(s.lines, domain.CartLine{
			LineID:         id,
			ProductRef:     sel.ProductRef,
			Name:           sel.Name,
			UnitPriceCents: sel.UnitPriceCents,
			Quantity:       qty,
			SelectedSize:   sel.Size,
			SelectedExtras: extras,
			Image:          sel.Image,
		})
	}
	return s.commit(ctx)
}

// RemoveLine drops a line. Unknown ids are ignored.
func (s *Store) RemoveLine(ctx context.Context, lineID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(lineID)
	if i < 0 {
		return s.snapshot(), nil
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return s.commit(ctx)
}

// SetQuantity replaces a line's quantity. Zero or less removes the line.
// Unknown ids are ignored.
func (s *Store) SetQuantity(ctx context.Context, lineID string, quantity int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(lineID)
	if i < 0 {
		return s.snapshot(), nil
	}
	if quantity <= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	} else {
		s.lines[i].Quantity = quantity
	}
	return s.commit(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	return s.commit(ctx)
}

// Flush writes the current cart if an earlier write failed.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.synced {
		return nil
	}
	_, err := s.commit(ctx)
	return err
}

// Total is the cart total in cents at the stored unit prices.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SumLines(s.lines)
}

// Count is the number of items, summed over line quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return count(s.lines)
}

// Lines returns a deep copy of the cart lines.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneLines(s.lines)
}

// Synced reports whether the last change reached the key-value store.
func (s *Store) Synced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced
}

// Snapshot returns a copy of the cart with its totals and sync state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) find(lineID string) int {
	for i, l := range s.lines {
		if l.LineID == lineID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() Snapshot {
	lines := domain.CloneLines(s.lines)
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return Snapshot{
		Lines:      lines,
		TotalCents: domain.SumLines(s.lines),
		Count:      count(s.lines),
		Synced:     s.synced,
	}
}

// commit must be called with mu held.
func (s *Store) commit(ctx context.Context) (Snapshot, error) {
	lines := s.lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		s.synced = false
		s.logger.Printf("cart: encode key=%s error=%v", s.key, err)
		return s.snapshot(), fmt.Errorf("%w: encode: %v", ErrUnsynced, err)
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		s.synced = false
		s.logger.Printf("cart: save key=%s error=%v", s.key, err)
		return s.snapshot(), fmt.Errorf("%w: %v", ErrUnsynced, err)
	}
	s.synced = true
	return s.snapshot(), nil
}

func count(lines []domain.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
