package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/config"
	"github.com/xavierca1/ligue-crm/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/llm"
	"github.com/xavierca1/ligue-crm/internal/infra/secrets"
	"github.com/xavierca1/ligue-crm/internal/logger"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

// The edge binary hosts generate-deal-email on its own, so the CRM API
// can reach it over HTTP through EMAIL_FUNCTION_URL.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		log.Fatal("llm provider", zap.Error(err))
	}

	// Zero disables the limiter; exempt ranges cover callers such as the
	// CRM API that speak for many users.
	var limiter handlers.RequestLimiter
	if cfg.RateLimitPerMinute > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		rl.Exempt(cfg.RateLimitExempt...)
		defer rl.Stop()
		limiter = rl
	}

	generateUC := usecase.NewGenerateDealEmailUseCase(provider, secrets.NewEnvStore(), log)
	emailHandler := handlers.NewEmailFunctionHandler(generateUC, cfg.LLM.Provider, limiter, log)
	healthHandler := handlers.NewHealthHandler(nil, nil, map[string]string{
		"llm_provider": cfg.LLM.Provider,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
	}))

	// Mounted for every method; the handler answers wrong verbs itself.
	r.Handle("/generate-deal-email", emailHandler)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.EdgeHTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("email function listening", zap.String("addr", srv.Addr), zap.String("provider", provider.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
