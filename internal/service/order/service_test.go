package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"aura-taste/internal/domain"
	"aura-taste/internal/events"
	"aura-taste/internal/lifecycle"
	orderrepo "aura-taste/internal/repository/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOrders struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	lastList orderrepo.Filter
	writeErr error
}

func newMemOrders(orders ...domain.Order) *memOrders {
	m := &memOrders{orders: map[string]*domain.Order{}}
	for i := range orders {
		o := orders[i]
		m.orders[o.ID] = &o
	}
	return m
}

func (m *memOrders) Get(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) List(_ context.Context, f orderrepo.Filter) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = f
	var out []domain.Order
	for _, o := range m.orders {
		if f.CustomerID != "" && (o.CustomerID == nil || *o.CustomerID != f.CustomerID) {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, next domain.OrderStatus, guard orderrepo.Guard) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if guard != nil {
		if err := guard(o.Status); err != nil {
			return nil, err
		}
	}
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	o.Status = next
	cp := *o
	return &cp, nil
}

func (m *memOrders) CountByStatus(_ context.Context, status domain.OrderStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

type stubPublisher struct{ events []events.Event }

func (s *stubPublisher) Publish(_ context.Context, e events.Event) error {
	s.events = append(s.events, e)
	return nil
}

type stubNotifier struct{ n int }

func (s *stubNotifier) Notify() { s.n++ }

type stubRecorder struct{ statuses []string }

func (s *stubRecorder) StatusChanged(status string) { s.statuses = append(s.statuses, status) }

func strptr(s string) *string { return &s }

func fixture() *memOrders {
	return newMemOrders(
		domain.Order{ID: "o1", CustomerID: strptr("c1"), Status: domain.StatusPending},
		domain.Order{ID: "o2", CustomerID: strptr("c2"), Status: domain.StatusApproved},
		domain.Order{ID: "guest", Status: domain.StatusPending},
	)
}

func TestUpdateStatus_ForwardMoves(t *testing.T) {
	repo := fixture()
	pub := &stubPublisher{}
	hub := &stubNotifier{}
	rec := &stubRecorder{}
	svc := New(repo, Options{Publisher: pub, Notifier: hub, Metrics: rec})

	got, err := svc.UpdateStatus(context.Background(), "o1", "approved")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)

	got, err = svc.UpdateStatus(context.Background(), "o1", "In Kitchen")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInKitchen, got.Status)

	require.Len(t, pub.events, 2)
	assert.Equal(t, domain.StatusApproved, pub.events[1].Previous)
	assert.Equal(t, domain.StatusInKitchen, pub.events[1].Status)
	assert.Equal(t, 2, hub.n)
	assert.Equal(t, []string{"Approved", "In Kitchen"}, rec.statuses)
}

func TestUpdateStatus_RejectsRegressionAndTerminal(t *testing.T) {
	repo := fixture()
	svc := New(repo, Options{})

	_, err := svc.UpdateStatus(context.Background(), "o2", "Pending")
	assert.ErrorIs(t, err, lifecycle.ErrStatusRegression)

	_, err = svc.UpdateStatus(context.Background(), "o2", "Completed")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "o2", "Delivering")
	assert.ErrorIs(t, err, lifecycle.ErrTerminal)

	o, _ := repo.Get(context.Background(), "o2")
	assert.Equal(t, domain.StatusCompleted, o.Status)
}

func TestUpdateStatus_UnknownStatusAndOrder(t *testing.T) {
	svc := New(fixture(), Options{})

	_, err := svc.UpdateStatus(context.Background(), "o1", "Cancelled")
	assert.ErrorIs(t, err, lifecycle.ErrUnknownStatus)

	_, err = svc.UpdateStatus(context.Background(), "missing", "Approved")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateStatus_PermissivePolicyAllowsBackwards(t *testing.T) {
	svc := New(fixture(), Options{Policy: lifecycle.Permissive{}})

	got, err := svc.UpdateStatus(context.Background(), "o2", "Pending")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestUpdateStatus_WriteFailureKeepsStatus(t *testing.T) {
	repo := fixture()
	repo.writeErr = errors.New("connection reset")
	pub := &stubPublisher{}
	svc := New(repo, Options{Publisher: pub})

	_, err := svc.UpdateStatus(context.Background(), "o1", "Approved")
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, pub.events)

	o, _ := repo.Get(context.Background(), "o1")
	assert.Equal(t, domain.StatusPending, o.Status)
}

func TestUpdateStatus_SameStatusPublishesNothing(t *testing.T) {
	pub := &stubPublisher{}
	svc := New(fixture(), Options{Publisher: pub})

	_, err := svc.UpdateStatus(context.Background(), "o2", "Approved")
	require.NoError(t, err)
	assert.Empty(t, pub.events)
}

func TestGet_Visibility(t *testing.T) {
	svc := New(fixture(), Options{})
	ctx := context.Background()

	_, err := svc.Get(ctx, domain.Principal{CustomerID: "c1"}, "o1")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, domain.Principal{CustomerID: "c1"}, "o2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, domain.Principal{SessionID: "s1"}, "o1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, domain.Principal{SessionID: "s1"}, "guest")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, domain.Principal{CustomerID: "admin", Admin: true}, "o2")
	assert.NoError(t, err)
}

func TestMine(t *testing.T) {
	svc := New(fixture(), Options{})

	_, err := svc.Mine(context.Background(), domain.Principal{SessionID: "s1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	got, err := svc.Mine(context.Background(), domain.Principal{CustomerID: "c1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].ID)
}

func TestTrack_BuildsView(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemOrders(domain.Order{ID: "o1", Status: domain.StatusInKitchen, CreatedAt: created})
	svc := New(repo, Options{})
	svc.now = func() time.Time { return created.Add(15 * time.Minute) }

	v, err := svc.Track(context.Background(), domain.Principal{SessionID: "s"}, "o1")
	require.NoError(t, err)
	assert.Equal(t, 2, v.StepIndex)
	assert.Equal(t, lifecycle.TabInProgress, v.Tab)
	assert.Equal(t, lifecycle.StepActive, v.Steps[2].State)
	assert.Equal(t, int64(30*60), v.Countdown.RemainingSeconds)
	assert.False(t, v.Countdown.Ready)

	svc.now = func() time.Time { return created.Add(50 * time.Minute) }
	v, err = svc.Track(context.Background(), domain.Principal{SessionID: "s"}, "o1")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ReadyLabel, v.Countdown.Label)
}

func TestByTabAndPendingCount(t *testing.T) {
	repo := fixture()
	svc := New(repo, Options{})

	_, err := svc.ByTab(context.Background(), lifecycle.TabPending)
	require.NoError(t, err)
	assert.Equal(t, []domain.OrderStatus{domain.StatusPending}, repo.lastList.Statuses)

	n, err := svc.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
