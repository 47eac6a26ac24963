package ct400_service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/iwtcode/ct400Adapter/internal/config"
	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	"github.com/iwtcode/ct400Adapter/internal/domain/models"
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	"github.com/iwtcode/ct400Adapter/internal/middleware/logging"
	apperrors "github.com/iwtcode/ct400Adapter/pkg/errors"
)

type activeMonitor struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// MonitorManager периодически читает мощность детекторов и публикует показания в Kafka.
type MonitorManager struct {
	sessions       *SessionManager
	dbRepo         interfaces.SessionRepository
	producer       interfaces.KafkaService
	cfg            *config.AppConfig
	logger         *logging.Logger
	activeMonitors map[string]*activeMonitor
	monitorsMutex  sync.Mutex
}

func NewMonitorManager(dbRepo interfaces.SessionRepository, producer interfaces.KafkaService, cfg *config.AppConfig, logger *logging.Logger) *MonitorManager {
	return &MonitorManager{
		dbRepo:         dbRepo,
		producer:       producer,
		cfg:            cfg,
		logger:         logger.WithPrefix("MONITOR"),
		activeMonitors: make(map[string]*activeMonitor),
	}
}

// attach связывает менеджер с пулом сессий, который создается после него.
func (mm *MonitorManager) attach(sessions *SessionManager) {
	mm.sessions = sessions
}

func (mm *MonitorManager) IsMonitoringActive(sessionID string) bool {
	mm.monitorsMutex.Lock()
	defer mm.monitorsMutex.Unlock()
	_, exists := mm.activeMonitors[sessionID]
	return exists
}

func (mm *MonitorManager) StartMonitoring(sessionID string, interval time.Duration) error {
	if interval <= 0 {
		return badRequest("интервал опроса должен быть больше нуля")
	}

	mm.monitorsMutex.Lock()
	defer mm.monitorsMutex.Unlock()

	if _, exists := mm.activeMonitors[sessionID]; exists {
		return apperrors.NewAppError(apperrors.ConflictErrorCode,
			fmt.Sprintf("мониторинг для сессии '%s' уже запущен", sessionID), apperrors.ErrMonitorActive, false)
	}

	client, err := mm.sessions.reserveMonitor(sessionID)
	if err != nil {
		return err
	}

	if err := mm.dbRepo.UpdateMonitorState(sessionID, entities.StatusMonitored, int(interval.Milliseconds())); err != nil {
		mm.sessions.releaseMonitor(sessionID)
		return fmt.Errorf("не удалось обновить статус сессии в БД: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	monitor := &activeMonitor{cancel: cancel, done: make(chan struct{})}
	mm.activeMonitors[sessionID] = monitor

	go func() {
		defer close(monitor.done)
		mm.logger.Info("Starting monitoring goroutine", "sessionID", sessionID, "interval", interval)
		defer func() {
			mm.logger.Info("Monitoring goroutine stopped", "sessionID", sessionID)
		}()

		for r := range client.MonitorPower(ctx, interval) {
			if r.Err != nil {
				mm.logger.Error("Error reading detector power", "sessionID", sessionID, "error", r.Err)
				continue // Пропускаем этот тик
			}

			jsonData, err := json.Marshal(models.PowerMessage{SessionID: sessionID, Reading: r.Reading})
			if err != nil {
				mm.logger.Error("Failed to serialize reading for Kafka", "sessionID", sessionID, "error", err)
				continue
			}

			if err := mm.producer.Produce(ctx, mm.cfg.KafkaPowerTopic, []byte(sessionID), jsonData); err != nil && ctx.Err() == nil {
				mm.logger.Error("Failed to send reading to Kafka", "sessionID", sessionID, "error", err)
			}
		}
	}()
	return nil
}

func (mm *MonitorManager) StopMonitoring(sessionID string) error {
	mm.monitorsMutex.Lock()
	defer mm.monitorsMutex.Unlock()

	if _, exists := mm.activeMonitors[sessionID]; !exists {
		return apperrors.NewAppError(apperrors.NotFoundErrorCode,
			fmt.Sprintf("мониторинг для сессии '%s' не запущен", sessionID), nil, false)
	}

	if err := mm.dbRepo.UpdateMonitorState(sessionID, entities.StatusConnected, 0); err != nil {
		mm.logger.Error("Failed to update status in DB when stopping monitoring", "sessionID", sessionID, "error", err)
	}

	mm.stopMonitoringUnsafe(sessionID)
	return nil
}

// StopMonitoringForSession останавливает опрос без изменения статуса в БД.
func (mm *MonitorManager) StopMonitoringForSession(sessionID string) {
	mm.monitorsMutex.Lock()
	defer mm.monitorsMutex.Unlock()
	mm.stopMonitoringUnsafe(sessionID)
}

// StopAll останавливает все опросы при остановке сервиса.
func (mm *MonitorManager) StopAll() {
	mm.monitorsMutex.Lock()
	defer mm.monitorsMutex.Unlock()
	for sessionID := range mm.activeMonitors {
		mm.stopMonitoringUnsafe(sessionID)
	}
}

func (mm *MonitorManager) stopMonitoringUnsafe(sessionID string) {
	monitor, exists := mm.activeMonitors[sessionID]
	if !exists {
		return
	}
	monitor.cancel()
	<-monitor.done
	delete(mm.activeMonitors, sessionID)
	mm.sessions.releaseMonitor(sessionID)
	mm.logger.Info("Monitoring stopped", "sessionID", sessionID)
}
