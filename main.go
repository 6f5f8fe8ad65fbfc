package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"club-pos/internal/analytics"
	analytics_api "club-pos/internal/analytics/api"
	"club-pos/internal/auth"
	"club-pos/internal/card"
	"club-pos/internal/config"
	"club-pos/internal/database/migrations"
	"club-pos/internal/kafka"
	"club-pos/internal/ledger"
	ledger_api "club-pos/internal/ledger/api"
	ledger_db "club-pos/internal/ledger/db"
	"club-pos/internal/logger"
	"club-pos/internal/payments"
	payments_api "club-pos/internal/payments/api"
	payments_db "club-pos/internal/payments/db"
	payments_kafka "club-pos/internal/payments/kafka"
	"club-pos/internal/player"
	player_api "club-pos/internal/player/api"
	player_db "club-pos/internal/player/db"
	"club-pos/internal/session"
	session_api "club-pos/internal/session/api"
	session_db "club-pos/internal/session/db"
	session_kafka "club-pos/internal/session/kafka"
	rediswrap "club-pos/internal/session/redis"
	"club-pos/internal/sse"
	"club-pos/internal/stock"
	stock_api "club-pos/internal/stock/api"
	stock_db "club-pos/internal/stock/db"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN)))

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		sqldb.Close()
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Club POS initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}

	// --- Kafka ---
	var sessionPublisher session.KafkaPublisher
	var paymentPublisher payments.EventPublisher
	var reminderPublisher payments.ReminderPublisher
	var reminderConsumer *kafka.ReminderConsumer

	if cfg.Kafka.Enabled && !cfg.Kafka.MockMode {
		topics := []string{
			cfg.Kafka.Topics.SessionEvents,
			cfg.Kafka.Topics.PaymentEvents,
			cfg.Kafka.Topics.PaymentReminders,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}

		producer := session_kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.SessionEvents, cfg.Kafka.Topics.PaymentEvents)
		defer producer.Close()
		sessionPublisher = producer
		paymentPublisher = producer

		reminders := payments_kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.PaymentReminders)
		defer reminders.Close()
		reminderPublisher = reminders

		reminderConsumer = kafka.NewReminderConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.PaymentReminders, cfg.Kafka.GroupID)
		log.Info("KAFKA", "Kafka producers initialized successfully")
	} else {
		log.Warn("KAFKA", "Kafka disabled, events will not be published")
	}

	// --- Services ---
	stockService := stock.NewStockService(&stock_db.DB{Bun: bunDB})
	playerService := player.NewPlayerService(&player_db.DB{Bun: bunDB})
	ledgerService := ledger.NewLedgerService(&ledger_db.DB{Bun: bunDB})

	sessionService := session.NewSessionService(
		&session_db.DB{Bun: bunDB},
		rediswrap.NewRedis(redisClient, 0),
		stockService,
		sessionPublisher,
		ledgerService,
		playerService,
		cfg.Billing.DefaultRatePerMinute,
	)

	if cfg.Stripe.Enabled {
		gateway, err := card.NewStripeGateway(cfg.Stripe.SecretKey, log)
		if err != nil {
			log.Fatal("STRIPE", fmt.Sprintf("Stripe initialization failed: %v", err))
		}
		sessionService.Card = gateway
		log.Info("STRIPE", "Card payments enabled")
	}

	sseHandler := sse.NewSSEHandler(log, sessionService)
	sessionService.Events = sseHandler.EventEmitter

	paymentService := payments.NewPaymentService(
		&payments_db.DB{Bun: bunDB},
		reminderPublisher,
		paymentPublisher,
		ledgerService,
		cfg.Billing.OverdueAfter,
		cfg.Billing.UPIAddress,
		cfg.Billing.ClubName,
	)

	analyticsService := analytics.NewService(bunDB)

	issuer := auth.NewTokenIssuer(cfg.Owner.PIN, cfg.Owner.TokenSecret, cfg.Owner.TokenTTL)
	tokenCache := auth.NewRedisTokenCache(redisClient)

	// --- Handlers ---
	sessionHandler := &session_api.Handler{SessionService: sessionService}
	stockHandler := &stock_api.Handler{StockService: stockService}
	playerHandler := &player_api.Handler{PlayerService: playerService, Ledger: ledgerService}
	ledgerHandler := &ledger_api.Handler{LedgerService: ledgerService}
	paymentsHandler := &payments_api.Handler{PaymentService: paymentService}
	analyticsHandler := &analytics_api.Handler{Service: analyticsService}
	authHandler := &auth.Handler{Issuer: issuer, Cache: tokenCache}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.StartSession)
			r.Get("/", sessionHandler.ListSessions)
			r.Get("/{sessionId}", sessionHandler.GetSession)
			r.Post("/{sessionId}/items", sessionHandler.AddItem)
			r.Put("/{sessionId}/items/{categoryId}", sessionHandler.UpdateItem)
			r.Delete("/{sessionId}/items/{categoryId}", sessionHandler.RemoveItem)
			r.Put("/{sessionId}/player", sessionHandler.EditPlayer)
			r.Post("/{sessionId}/close", sessionHandler.CloseSession)
		})
		log.Info("ROUTER", "Session routes registered under /api/v1/sessions")

		r.Get("/ended-sessions", sessionHandler.ListEndedSessions)

		r.Route("/pending-payments", func(r chi.Router) {
			r.Get("/", paymentsHandler.ListPayments)
			r.Get("/export", paymentsHandler.ExportCSV)
			r.Get("/{paymentId}", paymentsHandler.GetPayment)
			r.Put("/{paymentId}/mode", paymentsHandler.UpdateMode)
			r.Post("/{paymentId}/settle", paymentsHandler.SettlePayment)
			r.Post("/{paymentId}/mark-paid", paymentsHandler.MarkPaid)
			r.Get("/{paymentId}/qr", paymentsHandler.ReceiptQR)
			r.Post("/{paymentId}/remind", paymentsHandler.SendReminder)
		})
		log.Info("ROUTER", "Payment routes registered under /api/v1/pending-payments")

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", stockHandler.CreateCategory)
			r.Get("/", stockHandler.ListCategories)
			r.Get("/{categoryId}", stockHandler.GetCategory)
			r.Put("/{categoryId}", stockHandler.UpdateCategory)
			r.Delete("/{categoryId}", stockHandler.DeleteCategory)
			r.Post("/{categoryId}/reserve", stockHandler.ReserveStock)
		})

		r.Route("/players", func(r chi.Router) {
			r.Post("/", playerHandler.RegisterPlayer)
			r.Get("/", playerHandler.ListPlayers)
			r.Get("/{playerId}", playerHandler.GetPlayer)
			r.Put("/{playerId}", playerHandler.UpdatePlayer)
			r.Delete("/{playerId}", playerHandler.DeletePlayer)
			r.Get("/{playerId}/transactions", playerHandler.ListTransactions)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/transactions", ledgerHandler.ListTransactions)
			r.Get("/{playerName}/statement", ledgerHandler.GetStatement)
			r.Post("/{playerName}/payments", ledgerHandler.RecordPayment)
		})

		r.Post("/auth/owner", authHandler.Login)

		// Owner-gated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(issuer, tokenCache))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/analytics/summary", analyticsHandler.GetSummary)
			r.Get("/analytics/daily", analyticsHandler.GetDailyRevenue)
			r.Get("/analytics/categories", analyticsHandler.GetCategoryBreakdown)
		})
		log.Info("ROUTER", "Analytics routes registered behind owner gate")

		r.Get("/live", sseHandler.HandleSessionFeed)
		r.Get("/live/tables/{table}", sseHandler.HandleTableFeed)
		r.Get("/live/timers", sseHandler.HandleTimers)
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// --- Background workers ---
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	checkpointWorker := session.NewCheckpointWorker(sessionService, cfg.Billing.SnapshotInterval)
	go checkpointWorker.Run(workerCtx)
	log.Info("APP", "Checkpoint worker started")

	reminderWorker := payments.NewReminderWorker(paymentService, cfg.Billing.ReminderInterval)
	go reminderWorker.Run(workerCtx)
	log.Info("APP", "Reminder worker started")

	if reminderConsumer != nil {
		go reminderConsumer.Start(workerCtx, payments.NotifyHandler(func(phone, message string) {
			log.LogPayment("SMS", phone, message)
		}))
		defer reminderConsumer.Close()
		log.Info("KAFKA", "Reminder consumer started")
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Club POS running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	stopWorkers()

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Club POS shutdown complete")
	}
}
