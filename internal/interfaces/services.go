package interfaces

import (
	"context"
	"time"

	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	"github.com/iwtcode/ct400Adapter/internal/domain/models"
)

// CT400Service - это агрегирующий интерфейс для всей бизнес-логики.
type CT400Service interface {
	SessionManager
	ScanRunner
	InstrumentControl
	MonitorManager
}

// SessionManager определяет контракт для управления пулом сессий.
type SessionManager interface {
	CreateSession(req models.CreateSessionRequest) (*models.SessionInfo, error)
	RestoreSession(session entities.InstrumentSession) (*models.SessionInfo, error)
	GetSession(sessionID string) (*models.SessionInfo, bool)
	GetAllSessions() []*models.SessionInfo
	DeleteSession(sessionID string) error
	CheckSession(sessionID string) (*models.SessionInfo, error)
	CloseAll()
}

// ScanRunner выполняет свипы и ведет их историю.
type ScanRunner interface {
	RunScan(ctx context.Context, req models.ScanRequest) (*models.ScanResponse, error)
	StopScan(sessionID string) error
	ScanHistory(sessionID string, limit int) ([]entities.ScanRecord, error)
}

// InstrumentControl - разовые команды прибору.
type InstrumentControl interface {
	ReadPower(req models.PowerRequest) (*models.PowerResponse, error)
	SetLaser(req models.LaserRequest) error
	Calibrate(req models.CalibrationRequest) error
}

// MonitorManager определяет контракт для периодического опроса мощности.
type MonitorManager interface {
	StartMonitoring(sessionID string, interval time.Duration) error
	StopMonitoring(sessionID string) error
	IsMonitoringActive(sessionID string) bool
}
