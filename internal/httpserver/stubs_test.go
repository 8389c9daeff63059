package httpserver

import (
	"context"
	"log"
	"sync"
	"testing"
	"time"

	"aura-taste/internal/domain"
	"aura-taste/internal/feed"
	"aura-taste/internal/kv"
	"aura-taste/internal/lifecycle"
	orderrepo "aura-taste/internal/repository/order"
	cartsvc "aura-taste/internal/service/cart"
	"aura-taste/internal/service/checkout"
	customersvc "aura-taste/internal/service/customer"
	"aura-taste/internal/service/menu"
	ordersvc "aura-taste/internal/service/order"
	"aura-taste/internal/tracking"
	"github.com/gin-gonic/gin"
)

type stubCustomerService struct {
	customer  *domain.Customer
	loginErr  error
	signErr   error
	logoutErr error
	loggedOut []string
}

func (s *stubCustomerService) Signup(_ context.Context, in customersvc.SignupInput) (*domain.Customer, error) {
	if s.signErr != nil {
		return nil, s.signErr
	}
	return &domain.Customer{ID: "cust-new", Email: in.Email, Name: in.Name}, nil
}

func (s *stubCustomerService) Login(_ context.Context, _, _ string) (*domain.Customer, string, string, error) {
	if s.loginErr != nil {
		return nil, "", "", s.loginErr
	}
	return s.customer, "access", "refresh", nil
}

func (s *stubCustomerService) LookupByToken(_ context.Context, _ string) (*domain.Customer, error) {
	return s.customer, nil
}

func (s *stubCustomerService) Logout(_ context.Context, token string, _ bool) error {
	s.loggedOut = append(s.loggedOut, token)
	return s.logoutErr
}

func (s *stubCustomerService) AccessTTLSeconds() int { return 3600 }

type stubSessionService struct{}

func (stubSessionService) Issue(context.Context) (string, string, error) {
	return "sess-new", "s-new", nil
}

func (stubSessionService) TTLSeconds() int { return 60 }

// stubResolver knows a guest session, a customer and an admin.
type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, bearer, session string) (domain.Principal, error) {
	var p domain.Principal
	if session == "sess-guest" {
		p.SessionID = "guest"
	}
	switch bearer {
	case "":
	case "tok-ana":
		p.CustomerID, p.Email = "c1", "ana@example.com"
		return p, nil
	case "tok-admin":
		p.CustomerID, p.Email, p.Admin = "c-admin", "admin@aurataste.com", true
		return p, nil
	default:
		return domain.Principal{}, domain.ErrUnauthorized
	}
	if p.SessionID == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

type stubMenuService struct {
	sections []menu.Section
}

func (s *stubMenuService) Menu(context.Context) ([]menu.Section, error) {
	return s.sections, nil
}

func (s *stubMenuService) Product(_ context.Context, id string) (*domain.Product, error) {
	for _, sec := range s.sections {
		for _, p := range sec.Products {
			if p.ID == id {
				return &p, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

type stubProducts map[string]domain.Product

func (s stubProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s stubProducts) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

var testProducts = stubProducts{
	"burger": {ID: "burger", Name: "Burger", Category: "Burgers", BasePriceCents: 500,
		Sizes:  []domain.Option{{Name: "Large", PriceCents: 700}},
		Extras: []domain.Option{{Name: "Cheese", PriceCents: 100}}},
	"fries": {ID: "fries", Name: "Fries", Category: "Sides", BasePriceCents: 300},
}

type stubCheckout struct {
	got   checkout.Input
	order *domain.Order
	err   error
}

func (s *stubCheckout) Place(_ context.Context, _ domain.Principal, in checkout.Input) (*domain.Order, error) {
	s.got = in
	return s.order, s.err
}

// memOrders is an in-memory order repository shared by the order service and
// the live feed.
type memOrders struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (m *memOrders) set(orders ...domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = orders
}

func (m *memOrders) Get(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) List(_ context.Context, f orderrepo.Filter) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if f.ID != "" && o.ID != f.ID {
			continue
		}
		if f.CustomerEmail != "" && o.Customer.Email != f.CustomerEmail {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func containsStatus(list []domain.OrderStatus, s domain.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, next domain.OrderStatus, guard orderrepo.Guard) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID != id {
			continue
		}
		if err := guard(m.orders[i].Status); err != nil {
			return nil, err
		}
		m.orders[i].Status = next
		o := m.orders[i]
		return &o, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) CountByStatus(ctx context.Context, status domain.OrderStatus) (int, error) {
	list, err := m.List(ctx, orderrepo.Filter{Statuses: []domain.OrderStatus{status}})
	return len(list), err
}

func strptr(s string) *string { return &s }

func sampleOrders() []domain.Order {
	now := time.Now().Add(-10 * time.Minute)
	return []domain.Order{
		{ID: "o-ana", CustomerID: strptr("c1"), Customer: domain.OrderCustomer{Name: "Ana", Email: "ana@example.com"},
			FulfillmentMethod: domain.FulfillmentPickup, TotalAmountCents: 1300, Status: domain.StatusPending, CreatedAt: now},
		{ID: "o-bo", CustomerID: strptr("c2"), Customer: domain.OrderCustomer{Name: "Bo", Email: "bo@example.com"},
			FulfillmentMethod: domain.FulfillmentDelivery, TotalAmountCents: 900, Status: domain.StatusInKitchen, CreatedAt: now},
		{ID: "o-guest", Customer: domain.OrderCustomer{Name: "Guest"},
			FulfillmentMethod: domain.FulfillmentDineIn, TotalAmountCents: 500, Status: domain.StatusCompleted, CreatedAt: now},
	}
}

type testEnv struct {
	router    *gin.Engine
	customers *stubCustomerService
	checkout  *stubCheckout
	orders    *memOrders
	hub       *feed.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, logDiscard())
}

func newTestEnvWithLogger(t *testing.T, logger *log.Logger) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orders := &memOrders{}
	orders.set(sampleOrders()...)
	hub := feed.NewHub(orders, nil)
	t.Cleanup(hub.Close)

	env := &testEnv{
		customers: &stubCustomerService{customer: &domain.Customer{ID: "c1", Email: "ana@example.com"}},
		checkout:  &stubCheckout{},
		orders:    orders,
		hub:       hub,
	}
	router, err := buildRouter(logger, nil, Deps{
		CustomerSvc: env.customers,
		SessionSvc:  stubSessionService{},
		Resolver:    stubResolver{},
		MenuSvc: &stubMenuService{sections: []menu.Section{
			{Category: "Burgers", Products: []domain.Product{testProducts["burger"]}},
			{Category: "Sides", Products: []domain.Product{testProducts["fries"]}},
		}},
		CartSvc:           cartsvc.New(kv.NewMemory(), testProducts, nil),
		CheckoutSvc:       env.checkout,
		OrderSvc:          ordersvc.New(orders, ordersvc.Options{Policy: lifecycle.Forward{}, Notifier: hub}),
		Feed:              hub,
		QR:                tracking.New("http://aura.test"),
		CheckoutPerMinute: 2,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	env.router = router
	return env
}
