// Package app loads configuration and wires every dependency of the API
// server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/shopcart/internal/cache"
	"github.com/xenking/shopcart/internal/domain/auth"
	"github.com/xenking/shopcart/internal/domain/cart"
	"github.com/xenking/shopcart/internal/domain/coupon"
	"github.com/xenking/shopcart/internal/domain/order"
	"github.com/xenking/shopcart/internal/domain/product"
	"github.com/xenking/shopcart/internal/handler"
	storage "github.com/xenking/shopcart/internal/storage/mongo"
	"github.com/xenking/shopcart/pkg/health"
	"github.com/xenking/shopcart/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// MongoDB connection + indexes.
	db, err := storage.Connect(ctx, cfg.MongoURI, cfg.Database)
	if err != nil {
		return errors.Wrap(err, "connect mongo")
	}
	defer func() {
		_ = db.Client().Disconnect(context.Background())
	}()

	if err := storage.EnsureIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("mongo", 5*time.Second, func(ctx context.Context) error {
		return db.Client().Ping(ctx, nil)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories.
	userRepo := storage.NewUserRepository(db)
	cartRepo := storage.NewCartRepository(db)
	orderRepo := storage.NewOrderRepository(db)
	apikeyRepo := storage.NewAPIKeyRepository(db)

	var productRepo product.Repository = storage.NewProductRepository(db)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = redisClient.Close() }()

		productRepo = cache.NewProductCache(productRepo, redisClient)
		healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		lg.Info("Product cache enabled", zap.String("redis", cfg.RedisAddr))
	}

	healthSvc.SetReady(true)

	// Domain services.
	coupons := coupon.DefaultTable()
	tokens := auth.NewTokens(auth.TokensConfig{
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		RefreshSecret: []byte(cfg.Auth.RefreshSecret),
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
	authSvc := auth.NewService(userRepo, tokens)
	cartSvc := cart.NewService(cartRepo, productRepo, coupons)
	orderSvc := order.NewService(cartRepo, productRepo, coupons, orderRepo)

	// HTTP surface.
	h := handler.NewHandler(authSvc, cartSvc, orderSvc, productRepo, apikeyRepo, []byte(cfg.APIKeyPepper))

	mux := h.Routes()
	mux.Get("/livez", healthSvc.LiveEndpoint)
	mux.Get("/readyz", healthSvc.ReadyEndpoint)

	instrumented := otelhttp.NewHandler(mux, "shopcart-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-API-Key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
