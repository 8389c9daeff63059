package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"aura-taste/internal/cart"
	"aura-taste/internal/domain"
	"aura-taste/internal/feed"
	"aura-taste/internal/lifecycle"
	cartsvc "aura-taste/internal/service/cart"
	"aura-taste/internal/service/checkout"
	customersvc "aura-taste/internal/service/customer"
	"aura-taste/internal/service/menu"
	ordersvc "aura-taste/internal/service/order"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type CustomerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	Logout(ctx context.Context, token string, everywhere bool) error
	AccessTTLSeconds() int
}

type SessionService interface {
	Issue(ctx context.Context) (token, sessionID string, err error)
	TTLSeconds() int
}

type PrincipalResolver interface {
	Resolve(ctx context.Context, bearer, session string) (domain.Principal, error)
}

type MenuService interface {
	Menu(ctx context.Context) ([]menu.Section, error)
	Product(ctx context.Context, id string) (*domain.Product, error)
}

type CartService interface {
	Get(ctx context.Context, owner string) (cart.Snapshot, error)
	Add(ctx context.Context, owner string, in cartsvc.AddInput) (cart.Snapshot, error)
	AddDeal(ctx context.Context, owner string, productIDs []string) (cart.Snapshot, error)
	SetQuantity(ctx context.Context, owner, lineID string, quantity int) (cart.Snapshot, error)
	RemoveLine(ctx context.Context, owner, lineID string) (cart.Snapshot, error)
	Clear(ctx context.Context, owner string) (cart.Snapshot, error)
	Merge(ctx context.Context, from, to string) (cart.Snapshot, error)
	Addresses(ctx context.Context, owner string) ([]string, error)
}

type CheckoutService interface {
	Place(ctx context.Context, p domain.Principal, in checkout.Input) (*domain.Order, error)
}

type OrderService interface {
	Mine(ctx context.Context, p domain.Principal) ([]domain.Order, error)
	Get(ctx context.Context, p domain.Principal, id string) (*domain.Order, error)
	Track(ctx context.Context, p domain.Principal, id string) (*ordersvc.View, error)
	Describe(o domain.Order, now time.Time) ordersvc.View
	ByTab(ctx context.Context, tab lifecycle.Tab) ([]domain.Order, error)
	PendingCount(ctx context.Context) (int, error)
	UpdateStatus(ctx context.Context, id, raw string) (*domain.Order, error)
}

type Feed interface {
	Subscribe(ctx context.Context, filter feed.Filter, fn func([]domain.Order)) (cancel func())
}

type QREncoder interface {
	URL(orderID string) string
	PNG(orderID string, size int) ([]byte, error)
}

type Metrics interface {
	ObserveRequest(method, route string, code int, d time.Duration)
	Handler() http.Handler
}

// Deps bundles the services the routes call.
type Deps struct {
	CustomerSvc CustomerService
	SessionSvc  SessionService
	Resolver    PrincipalResolver
	MenuSvc     MenuService
	CartSvc     CartService
	CheckoutSvc CheckoutService
	OrderSvc    OrderService
	Feed        Feed
	QR          QREncoder
	Metrics     Metrics

	// CheckoutPerMinute caps order placement per principal. Zero disables it.
	CheckoutPerMinute int
	CORSOrigins       []string
	// FeedContext ends every live websocket when done. Defaults to Background.
	FeedContext context.Context
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}

func (d Deps) validate() error {
	switch {
	case d.CustomerSvc == nil:
		return errors.New("httpserver: customer service required")
	case d.SessionSvc == nil:
		return errors.New("httpserver: session service required")
	case d.Resolver == nil:
		return errors.New("httpserver: principal resolver required")
	case d.MenuSvc == nil:
		return errors.New("httpserver: menu service required")
	case d.CartSvc == nil:
		return errors.New("httpserver: cart service required")
	case d.CheckoutSvc == nil:
		return errors.New("httpserver: checkout service required")
	case d.OrderSvc == nil:
		return errors.New("httpserver: order service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db Pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logDiscard()
	}
	if deps.FeedContext == nil {
		deps.FeedContext = context.Background()
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	// Websocket clients pass credentials in the query string.
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{Output: logger.Writer(), SkipQueryString: true}), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))
	if deps.Metrics != nil {
		router.Use(metricsMiddleware(deps.Metrics))
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	h := &handlers{deps: deps, logger: logger}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/auth/signup", h.signup)
	router.POST("/auth/token", h.token)
	router.POST("/auth/logout", h.logout)
	router.POST("/sessions", h.newSession)

	router.GET("/menu", h.menu)
	router.GET("/products/:id", h.product)

	session := router.Group("/", principalMiddleware(deps.Resolver))
	session.GET("/me", requireCustomer(), h.me)

	session.GET("/cart", h.getCart)
	session.DELETE("/cart", h.clearCart)
	session.POST("/cart/lines", h.addLine)
	session.POST("/cart/deals", h.addDeal)
	session.PATCH("/cart/lines/:lineId", h.setQuantity)
	session.DELETE("/cart/lines/:lineId", h.removeLine)
	session.GET("/addresses", h.addresses)

	session.POST("/orders", checkoutLimiter(deps.CheckoutPerMinute), h.placeOrder)
	session.GET("/orders", requireCustomer(), h.myOrders)
	session.GET("/orders/live", requireCustomer(), h.myOrdersLive)
	session.GET("/orders/:id", h.order)
	session.GET("/orders/:id/qr", h.orderQR)
	session.GET("/orders/:id/live", h.orderLive)

	admin := session.Group("/admin", requireAdmin())
	admin.GET("/orders", h.adminOrders)
	admin.GET("/orders/pending-count", h.pendingCount)
	admin.GET("/orders/live", h.adminOrdersLive)
	admin.PATCH("/orders/:id/status", h.updateStatus)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", sessionHeader)
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
