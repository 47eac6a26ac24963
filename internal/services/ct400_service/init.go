package ct400_service

import (
	"time"

	"github.com/iwtcode/ct400Adapter/internal/config"
	"github.com/iwtcode/ct400Adapter/internal/domain/models"
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	"github.com/iwtcode/ct400Adapter/internal/middleware/logging"
	"github.com/iwtcode/ct400Adapter/yenista"
)

type ct400Service struct {
	*SessionManager
	*ScanRunner
	*Control
	monitorMgr *MonitorManager
}

// NewCT400Service собирает пул сессий, запуск свипов и мониторинг мощности.
func NewCT400Service(sessionRepo interfaces.SessionRepository, scanRepo interfaces.ScanRecordRepository, producer interfaces.KafkaService, cfg *config.AppConfig, logger *logging.Logger) interfaces.CT400Service {
	return newService(sessionRepo, scanRepo, producer, cfg, yenista.OpenLibrary, logger)
}

func newService(sessionRepo interfaces.SessionRepository, scanRepo interfaces.ScanRecordRepository, producer interfaces.KafkaService, cfg *config.AppConfig, open LibraryOpener, logger *logging.Logger) *ct400Service {
	monitorManager := NewMonitorManager(sessionRepo, producer, cfg, logger)
	sessionManager := NewSessionManager(monitorManager, sessionRepo, cfg, open, logger)
	monitorManager.attach(sessionManager)

	return &ct400Service{
		SessionManager: sessionManager,
		ScanRunner:     NewScanRunner(sessionManager, scanRepo, producer, cfg, logger),
		Control:        NewControl(sessionManager, logger),
		monitorMgr:     monitorManager,
	}
}

// --- Методы, которым нужен статус мониторинга ---

func (s *ct400Service) withMonitoring(info *models.SessionInfo) *models.SessionInfo {
	if info != nil {
		info.Monitoring = s.monitorMgr.IsMonitoringActive(info.SessionID)
	}
	return info
}

func (s *ct400Service) GetSession(sessionID string) (*models.SessionInfo, bool) {
	info, found := s.SessionManager.GetSession(sessionID)
	return s.withMonitoring(info), found
}

func (s *ct400Service) GetAllSessions() []*models.SessionInfo {
	infos := s.SessionManager.GetAllSessions()
	for _, info := range infos {
		s.withMonitoring(info)
	}
	return infos
}

func (s *ct400Service) CheckSession(sessionID string) (*models.SessionInfo, error) {
	info, err := s.SessionManager.CheckSession(sessionID)
	return s.withMonitoring(info), err
}

func (s *ct400Service) CloseAll() {
	s.monitorMgr.StopAll()
	s.SessionManager.CloseAll()
}

// --- MonitorManager ---

func (s *ct400Service) StartMonitoring(sessionID string, interval time.Duration) error {
	return s.monitorMgr.StartMonitoring(sessionID, interval)
}

func (s *ct400Service) StopMonitoring(sessionID string) error {
	return s.monitorMgr.StopMonitoring(sessionID)
}

func (s *ct400Service) IsMonitoringActive(sessionID string) bool {
	return s.monitorMgr.IsMonitoringActive(sessionID)
}
