// Package cart exposes per-owner carts backed by the shared key-value store.
package cart

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log"
	"strings"
	"sync"

	"aura-taste/internal/cart"
	"aura-taste/internal/domain"
	"aura-taste/internal/kv"
)

// ErrInvalidSelection is returned for unknown products, sizes or extras.
var ErrInvalidSelection = errors.New("invalid selection")

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

type unsyncedRecorder interface {
	CartUnsynced()
}

// lockStripes bounds the owner locks; owners hashing to one stripe share it.
const lockStripes = 64

// Service opens the owner's cart for every call. Calls for the same owner are
// serialized so read-modify-write cycles do not interleave. A cart whose last
// write failed stays in memory until a later write reaches the store.
type Service struct {
	kv        kv.Store
	products  productRepo
	addresses *cart.Addresses
	logger    *log.Logger
	metrics   unsyncedRecorder

	locks [lockStripes]sync.Mutex

	mu       sync.Mutex
	unsynced map[string]*cart.Store
}

func New(store kv.Store, products productRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		kv:        store,
		products:  products,
		addresses: cart.NewAddresses(store),
		logger:    logger,
		unsynced:  make(map[string]*cart.Store),
	}
}

// WithMetrics counts cart writes that failed to persist.
func (s *Service) WithMetrics(m unsyncedRecorder) *Service {
	s.metrics = m
	return s
}

// AddInput is a menu selection.
type AddInput struct {
	ProductID string   `json:"productId"`
	Size      string   `json:"size,omitempty"`
	Extras    []string `json:"extras,omitempty"`
	Quantity  int      `json:"quantity"`
}

func (s *Service) lock(owner string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(owner))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// With runs fn on the owner's cart while holding the owner's lock.
func (s *Service) With(ctx context.Context, owner string, fn func(*cart.Store) error) error {
	unlock := s.lock(owner)
	defer unlock()
	c := s.open(ctx, owner)
	err := fn(c)
	s.track(owner, c)
	return err
}

// open returns the owner's unsynced cart, retrying its write first, or loads
// the cart from the store.
func (s *Service) open(ctx context.Context, owner string) *cart.Store {
	s.mu.Lock()
	c, ok := s.unsynced[owner]
	s.mu.Unlock()
	if !ok {
		return cart.Open(ctx, s.kv, cart.KeyFor(owner), s.logger)
	}
	if err := c.Flush(ctx); err != nil {
		s.logger.Printf("cart service: flush owner=%s error=%v", owner, err)
	}
	return c
}

func (s *Service) track(owner string, c *cart.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Synced() {
		delete(s.unsynced, owner)
		return
	}
	s.unsynced[owner] = c
}

func (s *Service) Get(ctx context.Context, owner string) (cart.Snapshot, error) {
	var snap cart.Snapshot
	err := s.With(ctx, owner, func(c *cart.Store) error {
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

// Add prices the selection from the catalog and adds it.
func (s *Service) Add(ctx context.Context, owner string, in AddInput) (cart.Snapshot, error) {
	id := strings.TrimSpace(in.ProductID)
	if id == "" {
		return cart.Snapshot{}, fmt.Errorf("%w: productId required", ErrInvalidSelection)
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return cart.Snapshot{}, fmt.Errorf("%w: product %s not found", ErrInvalidSelection, id)
		}
		return cart.Snapshot{}, err
	}
	sel, err := cart.Select(*p, in.Size, in.Extras, in.Quantity)
	if err != nil {
		return cart.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	return s.mutate(ctx, owner, func(c *cart.Store) (cart.Snapshot, error) {
		return c.AddItem(ctx, sel)
	})
}

// AddDeal bundles the given products into one discounted line.
func (s *Service) AddDeal(ctx context.Context, owner string, productIDs []string) (cart.Snapshot, error) {
	if len(productIDs) == 0 {
		return cart.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSelection, cart.ErrEmptyDeal)
	}
	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return cart.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
		}
		return cart.Snapshot{}, err
	}
	sel, err := cart.CustomDeal(products)
	if err != nil {
		return cart.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	return s.mutate(ctx, owner, func(c *cart.Store) (cart.Snapshot, error) {
		return c.AddItem(ctx, sel)
	})
}

func (s *Service) SetQuantity(ctx context.Context, owner, lineID string, quantity int) (cart.Snapshot, error) {
	return s.mutate(ctx, owner, func(c *cart.Store) (cart.Snapshot, error) {
		return c.SetQuantity(ctx, lineID, quantity)
	})
}

func (s *Service) RemoveLine(ctx context.Context, owner, lineID string) (cart.Snapshot, error) {
	return s.mutate(ctx, owner, func(c *cart.Store) (cart.Snapshot, error) {
		return c.RemoveLine(ctx, lineID)
	})
}

func (s *Service) Clear(ctx context.Context, owner string) (cart.Snapshot, error) {
	return s.mutate(ctx, owner, func(c *cart.Store) (cart.Snapshot, error) {
		return c.Clear(ctx)
	})
}

// Merge moves every line of the from cart into the to cart, then empties the
// from cart. Used when a guest logs in.
func (s *Service) Merge(ctx context.Context, from, to string) (cart.Snapshot, error) {
	if from == to {
		return s.Get(ctx, to)
	}
	var lines []domain.CartLine
	err := s.With(ctx, from, func(c *cart.Store) error {
		lines = c.Lines()
		return nil
	})
	if err != nil {
		return cart.Snapshot{}, err
	}
	if len(lines) == 0 {
		return s.Get(ctx, to)
	}

	snap, err := s.mutate(ctx, to, func(c *cart.Store) (cart.Snapshot, error) {
		var (
			snap cart.Snapshot
			err  error
		)
		for _, l := range lines {
			snap, err = c.AddItem(ctx, cart.Selection{
				ProductRef:     l.ProductRef,
				Name:           l.Name,
				UnitPriceCents: l.UnitPriceCents,
				Quantity:       l.Quantity,
				Size:           l.SelectedSize,
				Extras:         l.SelectedExtras,
				Image:          l.Image,
			})
			if err != nil {
				return snap, err
			}
		}
		return snap, nil
	})
	if err != nil {
		return snap, err
	}
	if _, err := s.Clear(ctx, from); err != nil {
		s.logger.Printf("cart service: clear merged owner=%s error=%v", from, err)
	}
	s.logger.Printf("cart service: merged from=%s to=%s lines=%d", from, to, len(lines))
	return snap, nil
}

func (s *Service) Addresses(ctx context.Context, owner string) ([]string, error) {
	return s.addresses.List(ctx, owner)
}

func (s *Service) RememberAddress(ctx context.Context, owner, address string) error {
	_, err := s.addresses.Remember(ctx, owner, address)
	return err
}

func (s *Service) mutate(ctx context.Context, owner string, fn func(*cart.Store) (cart.Snapshot, error)) (cart.Snapshot, error) {
	var snap cart.Snapshot
	err := s.With(ctx, owner, func(c *cart.Store) error {
		var err error
		snap, err = fn(c)
		return err
	})
	if errors.Is(err, cart.ErrUnsynced) {
		s.logger.Printf("cart service: write owner=%s error=%v", owner, err)
		if s.metrics != nil {
			s.metrics.CartUnsynced()
		}
	}
	return snap, err
}
