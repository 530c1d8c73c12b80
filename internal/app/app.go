package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/auth"
	"github.com/xenking/food-kart/internal/domain/cart"
	"github.com/xenking/food-kart/internal/domain/catalog"
	"github.com/xenking/food-kart/internal/domain/monitor"
	"github.com/xenking/food-kart/internal/handler"
	"github.com/xenking/food-kart/internal/pkg/clock"
	"github.com/xenking/food-kart/pkg/health"
	"github.com/xenking/food-kart/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Backend),
		zap.String("sessions", cfg.Session.Backend),
	)
	loc, err := cfg.location()
	if err != nil {
		return err
	}
	clk := clock.RealClock{}

	// Document store, one breaker per collection.
	be, err := openStore(ctx, lg, cfg.Store)
	if err != nil {
		return err
	}
	defer be.close()

	products := docstore.NewBreaker(be.store.Collection(docstore.Products), docstore.Products, cfg.Store.Breaker.settings(), lg)
	orders := docstore.NewBreaker(be.store.Collection(docstore.Orders), docstore.Orders, cfg.Store.Breaker.settings(), lg)

	// Live views.
	cat := catalog.New()
	stopCatalog := cat.Watch(products.Feed(catalog.ByName), lg)
	defer stopCatalog()

	mon := monitor.New(orders, cat, clk, loc)
	stopMonitor := mon.Watch(lg)
	defer stopMonitor()

	// Sessions.
	carts := cart.NewSessions(cat, clk, cfg.Session.CartTTL)
	go carts.Run(ctx, cfg.Checkout.SweepInterval)

	admins, err := openSessions(ctx, cfg.Session, clk)
	if err != nil {
		return err
	}
	defer admins.close()
	auth.LogDefaultPassword(lg, cfg.AdminPassword)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("store", 5*time.Second, be.ping)
	healthSvc.AddReadinessCheck("catalog", time.Second,
		health.SignalCheck(cat.Loaded(), "waiting for first catalog snapshot"),
		health.StartUnhealthy(), health.WithThresholds(1, 1),
	)
	healthSvc.AddReadinessCheck("products_breaker", time.Second, health.BreakerCheck(products.State))
	healthSvc.AddReadinessCheck("orders_breaker", time.Second, health.BreakerCheck(orders.State))
	if admins.ping != nil {
		healthSvc.AddReadinessCheck("sessions", 2*time.Second, admins.ping)
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	h := handler.NewHandler(handler.Config{
		DismissClearDelay: cfg.Checkout.DismissClearDelay,
		SecureCookies:     cfg.SecureCookies,
		Currency:          cfg.Currency,
	}, handler.Deps{
		Catalog:  cat,
		Renderer: catalog.NewRenderer(cat),
		Editor:   catalog.NewEditor(products, cat, clk),
		Sessions: carts,
		Checkout: cart.NewCheckout(orders, cfg.Currency),
		Monitor:  mon,
		Gate:     auth.NewGate(cfg.AdminPassword, admins.store, cfg.Session.TTL),
	})

	router := chi.NewRouter()
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	router.Mount("/api", h.Router())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Routes(),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-Confirm"},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:     cfg.RateLimit.Max,
				Window:  cfg.RateLimit.Window,
				KeyFunc: httpmiddleware.SessionOrIP(handler.SessionCookie),
				Skip:    skipRateLimit,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Instrument("kart-api", m),
			httpmiddleware.LogRequests(),
			httpmiddleware.Labeler(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		// Event streams never go idle on their own.
		h.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// skipRateLimit exempts probes and the long-lived admin order stream.
func skipRateLimit(r *http.Request) bool {
	switch r.URL.Path {
	case "/livez", "/readyz":
		return true
	}
	return httpmiddleware.IsEventStream(r)
}
