package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"aura-taste/internal/auth"
	"aura-taste/internal/config"
	"aura-taste/internal/db"
	"aura-taste/internal/events"
	"aura-taste/internal/feed"
	"aura-taste/internal/httpserver"
	"aura-taste/internal/kv"
	"aura-taste/internal/lifecycle"
	"aura-taste/internal/metrics"
	branchrepo "aura-taste/internal/repository/branch"
	categoryrepo "aura-taste/internal/repository/category"
	customerrepo "aura-taste/internal/repository/customer"
	orderrepo "aura-taste/internal/repository/order"
	productrepo "aura-taste/internal/repository/product"
	tokenrepo "aura-taste/internal/repository/token"
	anonymoussvc "aura-taste/internal/service/anonymous"
	cartsvc "aura-taste/internal/service/cart"
	checkoutsvc "aura-taste/internal/service/checkout"
	customersvc "aura-taste/internal/service/customer"
	menusvc "aura-taste/internal/service/menu"
	ordersvc "aura-taste/internal/service/order"
	"aura-taste/internal/tracking"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.Options{Attempts: 10, Logger: logger})
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	store, closeStore := cartStore(ctx, cfg, logger)
	defer closeStore()

	publisher := events.Publisher(events.Noop{})
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaOrdersTopic), logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Printf("close kafka writer: %v", err)
			}
		}()
		publisher = kp
		logger.Printf("publishing order events to %s on %v", cfg.KafkaOrdersTopic, cfg.KafkaBrokers)
	}

	m := metrics.New()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool)
	branchRepo := branchrepo.NewPostgres(dbpool)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	hub := feed.NewHub(orderRepo, logger).WithObserver(m)
	defer hub.Close()

	customerService := customersvc.New(customerRepo, tokenRepo)
	sessionService := anonymoussvc.New(tokenRepo)
	cartService := cartsvc.New(store, productRepo, logger).WithMetrics(m)
	checkoutService := checkoutsvc.New(cartService, orderRepo, branchRepo, checkoutsvc.Deps{
		Publisher: publisher,
		Notifier:  hub,
		Metrics:   m,
		Logger:    logger,
	})
	orderService := ordersvc.New(orderRepo, ordersvc.Options{
		Policy:    lifecycle.PolicyFromName(cfg.OrderStatusPolicy),
		Target:    cfg.OrderTarget,
		Publisher: publisher,
		Notifier:  hub,
		Metrics:   m,
		Logger:    logger,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CustomerSvc:       customerService,
		SessionSvc:        sessionService,
		Resolver:          auth.NewResolver(customerService, sessionService, cfg.AdminEmail),
		MenuSvc:           menusvc.New(productRepo, categoryRepo),
		CartSvc:           cartService,
		CheckoutSvc:       checkoutService,
		OrderSvc:          orderService,
		Feed:              hub,
		QR:                tracking.New(cfg.PublicBaseURL),
		Metrics:           m,
		CheckoutPerMinute: cfg.CheckoutRatePerMinute,
		CORSOrigins:       cfg.CORSOrigins,
		FeedContext:       ctx,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return feed.NewListener(dbpool, hub, logger).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("graceful shutdown failed: %v", err)
			return err
		}
		logger.Printf("server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Printf("server error: %v", err)
	}
}

// cartStore picks Redis when REDIS_ADDR is set and process memory otherwise.
func cartStore(ctx context.Context, cfg config.Config, logger *log.Logger) (kv.Store, func()) {
	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not set, carts are kept in memory")
		return kv.NewMemory(), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatalf("connect to redis: %v", err)
	}
	return kv.NewRedis(client, "aura:", cfg.CartTTL), func() {
		if err := client.Close(); err != nil {
			logger.Printf("close redis: %v", err)
		}
	}
}
