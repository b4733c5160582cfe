package app

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib" //для goose миграций

	httpapi "github.com/Beki78/fetan-pay-sub004/internal/api/http"
	"github.com/Beki78/fetan-pay-sub004/internal/config"
	eventkafka "github.com/Beki78/fetan-pay-sub004/internal/event/kafka"
	platformlogging "github.com/Beki78/fetan-pay-sub004/internal/platform/logging"
	platformshutdown "github.com/Beki78/fetan-pay-sub004/internal/platform/shutdown"
	"github.com/Beki78/fetan-pay-sub004/internal/provider"
	"github.com/Beki78/fetan-pay-sub004/internal/repository/postgres"
	"github.com/Beki78/fetan-pay-sub004/internal/service"
)

// App содержит все зависимости для запуска и корректного shutdown сервиса
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	shutdownMgr *platformshutdown.Manager
	readiness   func() bool
}

// Build создаёт и настраивает все зависимости Verification Service
func Build(cfg config.Config) (*App, error) {
	const op = "app.Build"

	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "verification",
		Env:         string(cfg.AppEnv),
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      os.Getenv("LOG_FORMAT"),
	})
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("op", op))
	logger.Info("Building Verification service", zap.String("http_addr", cfg.HTTPAddr))

	// Подключаемся к PostgreSQL
	logger.Info("Connecting to PostgreSQL")
	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("PostgreSQL connection established")

	// Накатываем миграции через goose
	if err := runMigrations(cfg.PostgresDSN); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("Migrations applied")

	// Функция readiness для health check
	readiness := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx) == nil
	}

	// Репозитории
	transactionRepo := postgres.NewTransactionRepository(pool)
	claimRepo := postgres.NewClaimRepository(pool)

	// Регистрируем провайдерские адаптеры
	registry := provider.NewRegistry()
	registry.Register(provider.NewCBEAdapter(logger, cfg.Providers.CBEBaseURL))
	registry.Register(provider.NewTelebirrAdapter(logger, cfg.Providers.TelebirrBaseURL))
	registry.Register(provider.NewAwashAdapter(logger, cfg.Providers.AwashBaseURL))
	registry.Register(provider.NewBOAAdapter(logger, cfg.Providers.BOABaseURL))
	registry.Register(provider.NewDashenAdapter(logger, cfg.Providers.DashenBaseURL))
	if cfg.Providers.CustomURLTemplate != "" {
		registry.Register(provider.NewCustomAdapter(logger, cfg.Providers.CustomURLTemplate))
	}

	// Shutdown manager создаём до publisher-а, чтобы зарегистрировать его закрытие
	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)

	// Publisher событий: Kafka при настроенных брокерах, иначе no-op
	var events service.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := eventkafka.NewVerificationEventPublisher(logger, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		shutdownMgr.Add("kafka_writer", platformshutdown.CloseWriter(kafkaPublisher))
		events = kafkaPublisher
		logger.Info("Kafka publisher enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		events = eventkafka.NewNoOpPublisher(logger)
		logger.Info("Kafka brokers not configured, using no-op publisher")
	}

	// Service слой
	verificationService := service.NewService(logger, registry, transactionRepo, claimRepo, events, cfg.MerchantAccount)

	// HTTP handler и роутер
	handler := httpapi.NewHandler(verificationService, logger)
	router := httpapi.NewRouter(handler, readiness, cfg.AdminAPIKey)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Регистрируем shutdown функции (выполняются в обратном порядке)
	shutdownMgr.Add("postgres_pool", platformshutdown.ClosePool(pool))
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))

	return &App{
		logger:      logger,
		httpServer:  httpServer,
		shutdownMgr: shutdownMgr,
		readiness:   readiness,
	}, nil
}

// Run запускает HTTP сервер и блокируется до получения сигнала shutdown
func (a *App) Run() error {
	errChan := make(chan error, 1)

	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	go func() {
		a.shutdownMgr.Wait()
		errChan <- nil
	}()

	err := <-errChan
	platformlogging.Sync(a.logger)
	return err
}

// runMigrations накатывает goose миграции из директории migrations
func runMigrations(dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return goose.UpContext(ctx, db, "migrations")
}
