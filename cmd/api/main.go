package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/retailcart/cart-service/api/controllers"
	"github.com/retailcart/cart-service/api/routes"
	cartsvc "github.com/retailcart/cart-service/internal/cart"
	"github.com/retailcart/cart-service/internal/promotions"
	"github.com/retailcart/cart-service/pkg/config"
	"github.com/retailcart/cart-service/pkg/db"
	"github.com/retailcart/cart-service/pkg/enums"
	"github.com/retailcart/cart-service/pkg/logger"
	"github.com/retailcart/cart-service/pkg/metrics"
	"github.com/retailcart/cart-service/pkg/migrate"
	"github.com/retailcart/cart-service/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	// The promotion catalog comes from postgres when a DSN is configured;
	// otherwise the seeded in-memory catalog keeps the API fully usable for
	// local development.
	var (
		catalog  promotions.Catalog
		dbPinger controllers.Pinger
	)
	if cfg.DB.Enabled() {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(ctx, "error closing database", err)
			}
		}()

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}

		repo, err := promotions.NewRepository(dbClient.DB())
		if err != nil {
			logg.Error(ctx, "failed to create promotion repository", err)
			os.Exit(1)
		}
		catalog = repo
		dbPinger = dbClient
	} else {
		logg.Warn(ctx, "no database configured, using seeded in-memory promotion catalog")
		seeded, err := promotions.NewSeededCatalog(time.Now())
		if err != nil {
			logg.Error(ctx, "failed to build seeded catalog", err)
			os.Exit(1)
		}
		catalog = seeded
	}

	// Carts live in redis so they survive restarts and expire with the
	// session; the in-process store is the DB-less dev fallback.
	var (
		store       cartsvc.Store
		redisPinger controllers.Pinger
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()

		store, err = cartsvc.NewRedisStore(redisClient, cfg.Cart.TTL)
		if err != nil {
			logg.Error(ctx, "failed to create redis cart store", err)
			os.Exit(1)
		}
		redisPinger = redisClient
	} else {
		logg.Warn(ctx, "no redis configured, carts will not survive restarts")
		store = cartsvc.NewMemoryStore()
	}

	currency, err := enums.ParseCurrency(cfg.Cart.Currency)
	if err != nil {
		logg.Error(ctx, "invalid default currency", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		Store:           store,
		Catalog:         catalog,
		TaxRate:         cfg.Cart.TaxRate,
		DefaultCurrency: currency,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:      cfg,
		Logger:      logg,
		DBPinger:    dbPinger,
		RedisPinger: redisPinger,
		CartService: cartService,
		Catalog:     catalog,
		Clock:       time.Now,
		HTTPMetrics: metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	startCtx := logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(startCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(startCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(startCtx, "graceful shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(startCtx, "api server stopped")
	}
}
