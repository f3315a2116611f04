// Package app wires configuration, storage, domain services, and the HTTP
// server into a running process.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Bruce101github/crochethairbygg/internal/domain/analytics"
	"github.com/Bruce101github/crochethairbygg/internal/domain/auth"
	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
	"github.com/Bruce101github/crochethairbygg/internal/domain/payment"
	"github.com/Bruce101github/crochethairbygg/internal/domain/returns"
	"github.com/Bruce101github/crochethairbygg/internal/httpapi"
	"github.com/Bruce101github/crochethairbygg/internal/notify"
	"github.com/Bruce101github/crochethairbygg/internal/paystack"
	"github.com/Bruce101github/crochethairbygg/internal/repository"
	"github.com/Bruce101github/crochethairbygg/pkg/health"
	"github.com/Bruce101github/crochethairbygg/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Payment gateway client and webhook verifier.
	gateway := paystack.NewClient(paystack.Config{
		SecretKey:   cfg.Paystack.SecretKey,
		PublicKey:   cfg.Paystack.PublicKey,
		BaseURL:     cfg.Paystack.BaseURL,
		CallbackURL: cfg.Paystack.CallbackURL,
		Timeout:     cfg.Paystack.Timeout,
	})
	webhooks := paystack.NewVerifier(cfg.Paystack.SecretKey, cfg.Paystack.RelaxedWebhooks)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("paystack", 10*time.Second,
		health.HTTPReachableCheck(cfg.Paystack.BaseURL))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	variantRepo := repository.NewVariantRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	shippingRepo := repository.NewShippingRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	returnRepo := repository.NewReturnRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	// Outbound email.
	mailer := notify.NewMailer(notify.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		ShopName: cfg.SMTP.ShopName,
	})

	// Domain services.
	authenticator := auth.NewAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper))
	checkoutSvc := order.NewCheckoutService(
		variantRepo, cartRepo, discountRepo, shippingRepo, customerRepo, orderRepo, mailer)
	statusSvc := order.NewStatusService(orderRepo, mailer)
	paymentSvc := payment.NewService(orderRepo, gateway, mailer)
	returnsSvc := returns.NewService(returnRepo, orderRepo, variantRepo, gateway)
	analyticsSvc := analytics.NewService(analyticsRepo)

	api := httpapi.NewServer(
		authenticator, variantRepo, cartRepo, customerRepo, shippingRepo,
		discountRepo, orderRepo, checkoutSvc, statusSvc, paymentSvc,
		returnsSvc, analyticsSvc, webhooks,
	)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", api.Routes()))

	instrumented := otelhttp.NewHandler(mux, "shop-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "api_key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				// Paystack retries webhook deliveries from shared IPs.
				Skip: func(r *http.Request) bool {
					return r.URL.Path == "/api/payments/webhook"
				},
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
