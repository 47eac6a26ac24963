package interfaces

import (
	"context"
	"time"

	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	"github.com/iwtcode/ct400Adapter/internal/domain/models"
)

// Usecases - это агрегирующий интерфейс для всех use cases
type Usecases interface {
	CreateSession(req models.CreateSessionRequest) (*models.SessionInfo, error)
	RestoreSession(session entities.InstrumentSession) (*models.SessionInfo, error)
	GetAllSessions() []*models.SessionInfo
	DeleteSession(sessionID string) error
	CheckSession(sessionID string) (*models.SessionInfo, error)
	RunScan(ctx context.Context, req models.ScanRequest) (*models.ScanResponse, error)
	StopScan(sessionID string) error
	ScanHistory(sessionID string, limit int) ([]entities.ScanRecord, error)
	ReadPower(req models.PowerRequest) (*models.PowerResponse, error)
	SetLaser(req models.LaserRequest) error
	Calibrate(req models.CalibrationRequest) error
	StartMonitoring(sessionID string, interval time.Duration) error
	StopMonitoring(sessionID string) error
}
