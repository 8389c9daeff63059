// Package feed delivers live order snapshots to subscribers.
package feed

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"

	"aura-taste/internal/domain"
	orderrepo "aura-taste/internal/repository/order"
)

// Loader reads the orders a filter selects.
type Loader interface {
	List(ctx context.Context, f orderrepo.Filter) ([]domain.Order, error)
}

// Filter selects the orders of a subscription.
type Filter struct {
	Name  string
	query orderrepo.Filter
}

func All() Filter {
	return Filter{Name: "all"}
}

func ByCustomer(email string) Filter {
	return Filter{Name: "customer:" + strings.ToLower(email), query: orderrepo.Filter{CustomerEmail: email}}
}

func ByStatus(statuses ...domain.OrderStatus) Filter {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return Filter{Name: "status:" + strings.Join(names, ","), query: orderrepo.Filter{Statuses: statuses}}
}

func ByID(id string) Filter {
	return Filter{Name: "order:" + id, query: orderrepo.Filter{ID: id}}
}

type observer interface {
	SubscriberAdded()
	SubscriberRemoved()
}

// Hub fans change signals out to subscribers. Each subscriber owns a
// goroutine and a one-slot wake-up mailbox: signals arriving while a load is
// pending collapse into one, and every load reads the current state, so the
// last snapshot a subscriber sees is never older than the last signal.
type Hub struct {
	loader Loader
	logger *log.Logger
	obs    observer

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	closed bool
}

type subscriber struct {
	filter Filter
	fn     func([]domain.Order)
	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	exited chan struct{}
}

func NewHub(loader Loader, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{loader: loader, logger: logger, subs: make(map[int]*subscriber)}
}

// WithObserver reports subscriber counts to obs.
func (h *Hub) WithObserver(obs observer) *Hub {
	h.obs = obs
	return h
}

// Subscribe delivers a snapshot immediately and after every change until ctx
// ends or cancel is called. fn runs on the subscription's own goroutine, one
// call at a time. cancel is idempotent and returns once no further call to fn
// can happen, so it must not be called from inside fn.
func (h *Hub) Subscribe(ctx context.Context, filter Filter, fn func([]domain.Order)) (cancel func()) {
	subCtx, stop := context.WithCancel(ctx)
	s := &subscriber{
		filter: filter,
		fn:     fn,
		wake:   make(chan struct{}, 1),
		ctx:    subCtx,
		cancel: stop,
		exited: make(chan struct{}),
	}
	s.wake <- struct{}{}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		stop()
		close(s.exited)
		return func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = s
	h.mu.Unlock()
	if h.obs != nil {
		h.obs.SubscriberAdded()
	}

	go h.run(s)

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			<-s.exited
			h.mu.Lock()
			_, ok := h.subs[id]
			delete(h.subs, id)
			h.mu.Unlock()
			if ok && h.obs != nil {
				h.obs.SubscriberRemoved()
			}
		})
	}
}

func (h *Hub) run(s *subscriber) {
	defer close(s.exited)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		}
		orders, err := h.loader.List(s.ctx, s.filter.query)
		if err != nil {
			if s.ctx.Err() == nil {
				h.logger.Printf("feed: load filter=%s error=%v", s.filter.Name, err)
			}
			continue
		}
		if s.ctx.Err() != nil {
			return
		}
		s.fn(orders)
	}
}

// Notify signals that orders changed.
func (h *Hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[int]*subscriber)
	h.mu.Unlock()
	for _, s := range subs {
		s.cancel()
		<-s.exited
		if h.obs != nil {
			h.obs.SubscriberRemoved()
		}
	}
}
