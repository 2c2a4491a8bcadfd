package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hotdesk/internal/api"
	"hotdesk/internal/bot"
	"hotdesk/internal/config"
	"hotdesk/internal/database"
	"hotdesk/internal/domain"
	"hotdesk/internal/escalation"
	"hotdesk/internal/events"
	"hotdesk/internal/google"
	"hotdesk/internal/logging"
	"hotdesk/internal/metrics"
	"hotdesk/internal/reports"
	"hotdesk/internal/repository"
	"hotdesk/internal/service"
	"hotdesk/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := initSeatLedger(ctx, cfg, &logger)
	if err != nil {
		return err
	}

	redisClient, correlation := initCorrelationStore(ctx, cfg, &logger)

	ledgerWorker := worker.NewLedgerWorker(db, ledger, redisClient, worker.RetryPolicy{}, &logger)
	go ledgerWorker.Start(ctx)

	reconciler := worker.NewReconciler(db, ledger, ledgerWorker,
		cfg.Ledger.ReconcileAfterDays, cfg.Ledger.ReconcileTime, &logger)
	go reconciler.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug
	tgService := service.NewTelegramService(bot.NewBotWrapper(botAPI))

	eventBus := events.NewEventBus()
	directory := service.NewDirectory(db, &logger)

	scheduler := escalation.NewScheduler(db, correlation, tgService, cfg.Escalation, &logger)
	escalationWorker := escalation.NewWorker(db, scheduler, tgService, eventBus, cfg.Escalation.AlertChatID, &logger)
	go escalationWorker.Start(ctx)

	requestService := service.NewRequestService(
		db, scheduler, correlation, ledgerWorker, tgService, directory, eventBus, &logger,
	)
	// Таймеры обрабатывает воркер эскалации.
	requestService.SetTimeoutHandler(escalationWorker.HandleTimeout)

	if cfg.API.Enabled && cfg.API.HTTP.Enabled {
		apiServer := api.NewServer(cfg.API, requestService, &logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = apiServer.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Exports.Schedule != "" {
		exporter := reports.NewExporter(requestService, cfg.Exports.Path, &logger)
		go exporter.Start(ctx, cfg.Exports.Schedule)
	}

	listener := bot.NewListener(tgService, requestService, directory, bot.NewReasonStore(redisClient), &logger)
	defer listener.Stop()

	logger.Info().Msg("Бот запущен...")
	listener.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initSeatLedger(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*google.SeatLedger, error) {
	if cfg.Ledger.CredentialsFile == "" || cfg.Ledger.SpreadsheetID == "" {
		logger.Error().Msg("Нехватает переменных для подключения к таблице мест")
		return nil, os.ErrInvalid
	}

	ledger, err := google.NewSeatLedger(cfg.Ledger.CredentialsFile, cfg.Ledger.SpreadsheetID, cfg.Ledger.SheetName)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize seat ledger")
		return nil, err
	}

	if err := ledger.TestConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Seat ledger connection test failed")
		return nil, err
	}

	logger.Info().Msg("Seat ledger initialized successfully")
	return ledger, nil
}

func initCorrelationStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.CorrelationStore) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primary := repository.NewRedisCorrelationStore(redisClient)
	fallback := repository.NewMemoryCorrelationStore()
	return redisClient, repository.NewFailoverCorrelationStore(primary, fallback, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
