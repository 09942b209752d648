package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/commission"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/common"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/config"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/events"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/health"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/lock"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/obs"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/order"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/payroll"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/ratelimit"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/resilience"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/stock"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store/memory"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store/postgres"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/tax"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "dashboard")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "dashboard-api",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var recordStore store.Store
	var pgStore *postgres.Store
	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse database config")
		}
		poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolConfig.ConnConfig.RuntimeParams["application_name"] = "dashboard-api"

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("ping database")
		}
		pgStore = postgres.New(pool)
		recordStore = pgStore
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
		recordStore = memory.New()
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		if tracingEnabled {
			if err := redisotel.InstrumentTracing(redisClient); err != nil {
				logger.Error().Err(err).Msg("instrument redis tracing")
			}
		}
		if metricsEnabled {
			if err := redisotel.InstrumentMetrics(redisClient); err != nil {
				logger.Error().Err(err).Msg("instrument redis metrics")
			}
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
	} else {
		logger.Warn().Msg("REDIS_URL not set, per-item locking and rate limiting disabled")
	}

	bus := &events.Bus{
		Store:     recordStore,
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}
	locker := lock.Locker{Client: redisClient}

	resilience.MustRegisterMetrics(metricsNamespace, nil)
	var payrollClient payroll.Client
	if cfg.PayrollBaseURL != "" {
		payrollClient = payroll.HTTPClient{
			BaseURL: cfg.PayrollBaseURL,
			APIKey:  cfg.PayrollAPIKey,
			HTTP: &resilience.Client{
				Base: &http.Client{
					Timeout:   10 * time.Second,
					Transport: otelhttp.NewTransport(http.DefaultTransport),
				},
				Breaker:     resilience.NewBreaker("payroll", 5, 30*time.Second),
				MaxAttempts: 3,
				BaseBackoff: 200 * time.Millisecond,
				Jitter:      0.2,
			},
		}
	} else {
		logger.Warn().Msg("PAYROLL_BASE_URL not set, commission approvals will fail")
	}

	ledger := &stock.Ledger{
		Store:   recordStore,
		Locker:  locker,
		LockTTL: cfg.StockLockTTL,
		Events:  bus,
		Logger:  logger,
	}
	orderService := &order.Service{Store: recordStore, Events: bus, Logger: logger}
	workflow := &commission.Workflow{
		Store:   recordStore,
		Payroll: payrollClient,
		Locker:  locker,
		LockTTL: cfg.StockLockTTL,
		Events:  bus,
		Logger:  logger,
	}
	taxConfig := tax.Config{
		VATRate:              decimal.NewFromFloat(cfg.VATRate),
		WithholdingThreshold: decimal.NewFromFloat(cfg.WithholdingThreshold),
		WithholdingRate:      decimal.NewFromFloat(cfg.WithholdingRate),
	}

	stockHandler := stock.NewHandler(stock.HandlerConfig{Ledger: ledger})
	orderHandler := order.NewHandler(order.HandlerConfig{Service: orderService})
	commissionHandler := commission.NewHandler(commission.HandlerConfig{Workflow: workflow})
	taxHandler := tax.NewHandler(tax.HandlerConfig{Config: taxConfig})

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, nil)
	}

	limit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:dashboard"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) },
			Window: cfg.RateLimitWindow,
			Max:    int(cfg.RateLimitMax),
		},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", !cfg.IsProduction()) {
		r.Mount("/debug/pprof", pprofMux())
	}

	healthHandler := health.Handler{Probes: healthProbes(pgStore, redisClient)}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limit.Middleware)

		v.Route("/stock", func(s chi.Router) {
			s.Get("/", stockHandler.List)
			s.Post("/", stockHandler.Create)
			s.Get("/{id}", stockHandler.Get)
			s.Patch("/{id}/quantity", stockHandler.Adjust)
			s.Patch("/{id}/buffer", stockHandler.SetBuffer)
			s.Post("/{id}/buffer/reserve", stockHandler.Reserve)
			s.Post("/{id}/buffer/release", stockHandler.Release)
			s.Post("/{id}/deliver", stockHandler.Deliver)
		})

		v.Route("/orders", func(o chi.Router) {
			o.Get("/", orderHandler.List)
			o.Post("/", orderHandler.Create)
			o.Get("/{id}", orderHandler.Get)
			o.Get("/{id}/delivery-check", orderHandler.DeliveryCheck)
			o.Post("/{id}/payments", orderHandler.RecordPayment)
			o.Patch("/{id}/status", orderHandler.UpdateStatus)
		})

		v.Route("/commissions", func(c chi.Router) {
			c.Get("/", commissionHandler.List)
			c.Post("/", commissionHandler.Create)
			c.Post("/preview/sales", commissionHandler.PreviewSales)
			c.Post("/preview/package", commissionHandler.PreviewPackage)
			c.Get("/{id}", commissionHandler.Get)
			c.Post("/{id}/approve/{part}", commissionHandler.Approve)
		})

		v.Post("/tax/compute", taxHandler.Compute)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func healthProbes(pg *postgres.Store, redisClient *redis.Client) map[string]health.Probe {
	probes := map[string]health.Probe{"db": nil, "redis": nil}
	if pg != nil {
		probes["db"] = pg.Ping
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	return probes
}

func pprofMux() http.Handler {
	mux := chi.NewRouter()
	mux.Get("/", pprof.Index)
	mux.Get("/cmdline", pprof.Cmdline)
	mux.Get("/profile", pprof.Profile)
	mux.Get("/symbol", pprof.Symbol)
	mux.Get("/trace", pprof.Trace)
	mux.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler(chi.URLParam(r, "name")).ServeHTTP(w, r)
	})
	return mux
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
