package main

import (
	"context"
	"database/sql"
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
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/config"
	"github.com/xavierca1/ligue-crm/internal/infra/database"
	"github.com/xavierca1/ligue-crm/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/emailfn"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/llm"
	"github.com/xavierca1/ligue-crm/internal/infra/mail"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"github.com/xavierca1/ligue-crm/internal/infra/recordstore"
	"github.com/xavierca1/ligue-crm/internal/infra/secrets"
	"github.com/xavierca1/ligue-crm/internal/logger"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

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

	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal("invalid api configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Record store
	var (
		store recordstore.Store
		db    *sql.DB
	)
	switch cfg.RecordStore.Driver {
	case "postgres":
		db, err = database.NewDBConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database unavailable", zap.Error(err))
		}
		defer db.Close()

		pg := recordstore.NewPostgresStore(db, recordstore.References{
			database.DealTable: {"contact_id_c": database.ContactTable},
		}, log)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("schema setup failed", zap.Error(err))
		}
		store = pg
	default:
		store = recordstore.NewClient(cfg.RecordStore.URL, cfg.RecordStore.Token, cfg.RecordStore.ProjectID, cfg.RecordStore.Timeout, log)
	}

	dealRepo := database.NewDealRepository(store, log)

	// 2. Email generator: remote function when configured, in-process otherwise
	var generator usecase.EmailDraftGenerator
	if cfg.EmailFunctionURL != "" {
		generator = emailfn.NewClient(cfg.EmailFunctionURL, cfg.EmailFunctionTimeout)
	} else {
		provider, err := llm.NewProvider(cfg.LLM)
		if err != nil {
			log.Fatal("llm provider", zap.Error(err))
		}
		generator = usecase.NewGenerateDealEmailUseCase(provider, secrets.NewEnvStore(), log)
	}

	// 3. Drafts queue
	var (
		publisher usecase.DraftPublisher
		amqpConn  *amqp.Connection
	)
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Fatal("rabbitmq unavailable", zap.Error(err))
		}
		defer rabbitMQ.Close()

		amqpConn = rabbitMQ.Conn
		publisher = queue.NewProducer(rabbitMQ.Ch)

		if cfg.Mail.Enabled() {
			sender := mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Pass, cfg.Mail.From)
			worker := queue.NewWorker(rabbitMQ.Ch, sender, cfg.Mail.SalesInbox, log)
			go func() {
				if err := worker.Start(ctx, queue.QueueName); err != nil {
					log.Error("drafts worker stopped", zap.Error(err))
				}
			}()
		}
	}

	// 4. UseCases
	updateDealUC := usecase.NewUpdateDealUseCase(dealRepo, generator, publisher, log)
	manageDealsUC := usecase.NewManageDealsUseCase(dealRepo, log)

	// 5. Handlers
	dealHandler := handlers.NewDealHandler(updateDealUC, manageDealsUC, log)
	healthHandler := handlers.NewHealthHandler(db, amqpConn, map[string]string{
		"record_store":   cfg.RecordStore.URL,
		"email_function": cfg.EmailFunctionURL,
	})

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())
	dealHandler.Routes(r)

	serve(ctx, log, &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second})
}

// serve blocks until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, log *zap.Logger, srv *http.Server) {
	go func() {
		log.Info("crm api listening", zap.String("addr", srv.Addr))
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
	log.Info("crm api stopped")
}
