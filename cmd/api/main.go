package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexti-ec/facturacion-api/internal/accesskey"
	"github.com/nexti-ec/facturacion-api/internal/catalog"
	"github.com/nexti-ec/facturacion-api/internal/config"
	"github.com/nexti-ec/facturacion-api/internal/document"
	"github.com/nexti-ec/facturacion-api/internal/fiscal"
	"github.com/nexti-ec/facturacion-api/internal/health"
	"github.com/nexti-ec/facturacion-api/internal/obs"
	"github.com/nexti-ec/facturacion-api/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	if cfg.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	}

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "facturacion-api",
			Endpoint:      cfg.TracingEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	rates := catalog.DefaultRates()
	payments := catalog.DefaultPaymentMethods()
	catalogHandler := &catalog.Handler{Rates: rates, Payments: payments}

	engine := fiscal.NewEngine(rates, &accesskey.Generator{Source: accesskey.RandomSource{}})
	docSvc := &document.Service{
		Engine: engine,
		Issuer: document.IssuerDefaults{
			RUC:           cfg.IssuerRUC,
			Establishment: cfg.IssuerEstablishment,
			EmissionPoint: cfg.IssuerEmissionPoint,
			Environment:   accesskey.Environment(cfg.SRIEnvironment),
		},
		Payments: payments,
		Validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	docHandler := &document.Handler{Svc: docSvc}

	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.MetricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.AppEnv != "development", EnableHSTS: true}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:        catalogChecker{rates: rates},
		CatalogTimeout: envDurationMillis("HEALTH_READY_CATALOG_TIMEOUT_MS", 100),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/catalogo/tarifas", catalogHandler.Tarifas)
		v.Get("/catalogo/formas-pago", catalogHandler.FormasPago)
		v.Post("/documentos/calcular", docHandler.Calcular)
		v.Post("/documentos/clave-acceso", docHandler.ClaveAcceso)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		health.SetReady(false)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	<-done
	logger.Info().Msg("server stopped")
}

// catalogChecker reports readiness of the in-memory tariff catalog.
type catalogChecker struct {
	rates *catalog.RateTable
}

func (c catalogChecker) PingCatalog(_ context.Context, _ time.Duration) error {
	if c.rates == nil || c.rates.Len() == 0 {
		return errors.New("rate catalog is empty")
	}
	return nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envDurationMillis(key string, fallback int64) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return time.Duration(fallback) * time.Millisecond
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Duration(fallback) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}
