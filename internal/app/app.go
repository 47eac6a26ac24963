package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/iwtcode/ct400Adapter/internal/adapters/handlers"
	"github.com/iwtcode/ct400Adapter/internal/adapters/repositories/memory"
	"github.com/iwtcode/ct400Adapter/internal/adapters/repositories/postgres"
	"github.com/iwtcode/ct400Adapter/internal/config"
	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	"github.com/iwtcode/ct400Adapter/internal/middleware/logging"
	"github.com/iwtcode/ct400Adapter/internal/services/ct400_service"
	"github.com/iwtcode/ct400Adapter/internal/services/kafka"
	"github.com/iwtcode/ct400Adapter/internal/usecases"

	"go.uber.org/fx"
)

// New создает новый экземпляр fx.App
func New() *fx.App {
	return fx.New(
		ConfigModule,
		LoggingModule,
		RepositoryModule,
		ProducerModule,
		ServiceModule,
		UsecaseModule,
		HttpServerModule,
		// Invoke-функции для запуска фоновых задач и хуков жизненного цикла
		fx.Invoke(InvokeRestoreSessions),
		fx.Invoke(InvokeShutdown),
	)
}

// --- Модули FX ---

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadConfiguration),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "CT400ServiceApp")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

// ProvideStorage выбирает хранилище по DB_DRIVER.
func ProvideStorage(cfg *config.AppConfig, logger *logging.Logger) (interfaces.Storage, error) {
	if strings.EqualFold(cfg.Database.Driver, "memory") {
		logger.Warn("Using in-memory storage, sessions will not survive a restart")
		return memory.NewRepository(), nil
	}
	repo, err := postgres.NewRepository(cfg, logger)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func ProvideSessionRepository(s interfaces.Storage) interfaces.SessionRepository {
	return s.Sessions()
}

func ProvideScanRecordRepository(s interfaces.Storage) interfaces.ScanRecordRepository {
	return s.Scans()
}

var RepositoryModule = fx.Module("repository_module",
	fx.Provide(
		ProvideStorage,
		ProvideSessionRepository,
		ProvideScanRecordRepository,
	),
)

var ProducerModule = fx.Module("producer_module",
	fx.Provide(kafka.NewKafkaProducer),
)

var ServiceModule = fx.Module("service_module",
	fx.Provide(ct400_service.NewCT400Service),
)

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(usecases.NewUsecases),
)

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
	fx.Invoke(InvokeHttpServer),
)

// InvokeRestoreSessions восстанавливает сессии и мониторинг при старте.
func InvokeRestoreSessions(lc fx.Lifecycle, uc interfaces.Usecases, dbRepo interfaces.SessionRepository, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			RestoreSessions(uc, dbRepo, logger)
			return nil
		},
	})
}

// RestoreSessions открывает сохраненные в БД сессии и перезапускает их мониторинг.
func RestoreSessions(uc interfaces.Usecases, dbRepo interfaces.SessionRepository, logger *logging.Logger) {
	logger.Info("Restoring sessions from the database...")
	sessions, err := dbRepo.GetAll()
	if err != nil {
		logger.Error("Failed to get session list from DB", "error", err)
		return // Не фатально, просто продолжаем
	}

	if len(sessions) == 0 {
		logger.Info("No saved sessions found to restore.")
		return
	}

	for _, saved := range sessions {
		logger.Info("Attempting to restore session", "sessionID", saved.SessionID, "backend", saved.Backend)

		info, err := uc.RestoreSession(saved)
		if err == nil && info.IsHealthy {
			logger.Info("Session restored successfully in pool", "sessionID", saved.SessionID)
		} else {
			logger.Warn("Session restored in pool but is unhealthy.", "sessionID", saved.SessionID, "error", err)
			continue
		}

		if saved.Status == entities.StatusMonitored && saved.Interval > 0 {
			interval := time.Duration(saved.Interval) * time.Millisecond
			logger.Info("Starting restored monitoring", "sessionID", saved.SessionID, "interval", interval)
			if err := uc.StartMonitoring(saved.SessionID, interval); err != nil {
				logger.Warn("Failed to start monitoring for restored session", "sessionID", saved.SessionID, "error", err)
			}
		}
	}
}

// InvokeShutdown закрывает приборы, Kafka и БД при остановке.
func InvokeShutdown(lc fx.Lifecycle, svc interfaces.CT400Service, producer interfaces.KafkaService, storage interfaces.Storage, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing CT400 sessions...")
			svc.CloseAll()
			if err := producer.Close(); err != nil {
				logger.Warn("Failed to close Kafka producer", "error", err)
			}
			if err := storage.Close(); err != nil {
				logger.Warn("Failed to close database", "error", err)
			}
			return logger.Close()
		},
	})
}

// InvokeHttpServer запускает HTTP-сервер.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     h,
		ReadTimeout: 10 * time.Second,
		// Свип держит запрос до конца сканирования
		WriteTimeout: cfg.ScanTimeout + 10*time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
