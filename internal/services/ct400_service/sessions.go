package ct400_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	ct400 "github.com/iwtcode/ct400Adapter"
	"github.com/iwtcode/ct400Adapter/internal/config"
	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	"github.com/iwtcode/ct400Adapter/internal/domain/models"
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	"github.com/iwtcode/ct400Adapter/internal/middleware/logging"
	apperrors "github.com/iwtcode/ct400Adapter/pkg/errors"
	"github.com/iwtcode/ct400Adapter/yenista"
	"github.com/iwtcode/ct400Adapter/yenista/model"
	"gorm.io/gorm"
)

// LibraryOpener открывает реализацию CT400_lib для новой сессии.
type LibraryOpener func(backend, profilePath string) (model.Library, error)

// MonitorStopper определяет методы, которые SessionManager может вызывать у MonitorManager.
type MonitorStopper interface {
	StopMonitoringForSession(sessionID string)
}

type session struct {
	info   *models.SessionInfo
	client *ct400.Client // nil, если прибор не удалось открыть при восстановлении

	scanCancel context.CancelFunc
	scanDone   chan struct{}
	monitoring bool // свип и опрос мощности взаимно исключаются под SessionManager.mu
}

type SessionManager struct {
	mu         sync.RWMutex
	pool       map[string]*session
	monitorMgr MonitorStopper
	dbRepo     interfaces.SessionRepository
	cfg        *config.AppConfig
	open       LibraryOpener
	logger     *logging.Logger
}

func NewSessionManager(monitorMgr MonitorStopper, dbRepo interfaces.SessionRepository, cfg *config.AppConfig, open LibraryOpener, logger *logging.Logger) *SessionManager {
	if open == nil {
		open = yenista.OpenLibrary
	}
	return &SessionManager{
		pool:       make(map[string]*session),
		monitorMgr: monitorMgr,
		dbRepo:     dbRepo,
		cfg:        cfg,
		open:       open,
		logger:     logger.WithPrefix("SESSIONS"),
	}
}

func normalizeBackend(backend string) string {
	switch b := strings.ToLower(strings.TrimSpace(backend)); b {
	case "sim", "":
		return yenista.BackendSimulator
	default:
		return b
	}
}

func (sm *SessionManager) CreateSession(req models.CreateSessionRequest) (*models.SessionInfo, error) {
	backend := req.Backend
	if backend == "" {
		backend = sm.cfg.Instrument.Backend
	}
	backend = normalizeBackend(backend)
	profile := req.SimProfile
	if profile == "" && backend == yenista.BackendSimulator {
		profile = sm.cfg.Instrument.SimProfile
	}
	input := req.LaserInput
	if input == 0 {
		input = sm.cfg.Instrument.LaserInput
	}

	sm.mu.RLock()
	poolSize := len(sm.pool)
	dllBusy := ""
	for id, s := range sm.pool {
		if s.info.Backend == yenista.BackendDLL {
			dllBusy = id
		}
	}
	sm.mu.RUnlock()

	if sm.cfg.MaxSessions > 0 && poolSize >= sm.cfg.MaxSessions {
		return nil, apperrors.NewAppError(apperrors.ConflictErrorCode,
			fmt.Sprintf("достигнут предел сессий (%d)", sm.cfg.MaxSessions), nil, false)
	}
	// К USB подключен один прибор, вторая сессия DLL получила бы чужой handle
	if backend == yenista.BackendDLL && dllBusy != "" {
		return nil, apperrors.NewAppError(apperrors.ConflictErrorCode,
			fmt.Sprintf("прибор уже открыт в сессии %s", dllBusy), nil, false)
	}

	client, err := sm.openClient(backend, profile, input)
	if err != nil {
		if errors.Is(err, yenista.ErrInvalidArgument) {
			return nil, apperrors.NewAppError(apperrors.BadRequestCode, apperrors.BadRequest, err, true)
		}
		return nil, apperrors.NewAppError(apperrors.UnavailableErrorCode, "не удалось открыть CT400", err, true)
	}

	info, err := client.Info()
	if err != nil || !info.Connected {
		_ = client.Close()
		return nil, apperrors.NewAppError(apperrors.UnavailableErrorCode, "первичная проверка подключения провалена", err, true)
	}

	sessionID := uuid.New().String()
	toSave := &entities.InstrumentSession{
		SessionID:  sessionID,
		Backend:    backend,
		SimProfile: profile,
		LaserInput: input,
		Status:     entities.StatusConnected,
	}
	if err := sm.dbRepo.Create(toSave); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("не удалось сохранить новую сессию %s в БД: %w", sessionID, err)
	}

	now := time.Now()
	s := &session{
		info: &models.SessionInfo{
			SessionID:  sessionID,
			Backend:    backend,
			SimProfile: profile,
			LaserInput: input,
			CreatedAt:  now,
			LastUsed:   now,
			UseCount:   1,
			IsHealthy:  true,
			Device:     info,
		},
		client: client,
	}

	sm.mu.Lock()
	sm.pool[sessionID] = s
	sm.mu.Unlock()

	sm.logger.Info("Session created successfully", "sessionID", sessionID, "backend", backend, "type", info.Type)
	return s.snapshot(), nil
}

func (sm *SessionManager) openClient(backend, profile string, input int32) (*ct400.Client, error) {
	lib, err := sm.open(backend, profile)
	if err != nil {
		return nil, err
	}
	cfg := *sm.cfg.Instrument
	cfg.Backend = backend
	cfg.SimProfile = profile
	cfg.LaserInput = input
	return ct400.NewWithLogger(&cfg, lib, sm.logger.Logrus())
}

func (sm *SessionManager) RestoreSession(saved entities.InstrumentSession) (*models.SessionInfo, error) {
	s := &session{
		info: &models.SessionInfo{
			SessionID:  saved.SessionID,
			Backend:    saved.Backend,
			SimProfile: saved.SimProfile,
			LaserInput: saved.LaserInput,
			CreatedAt:  saved.CreatedAt,
			LastUsed:   time.Now(),
			IsHealthy:  false, // По умолчанию нездоровое, пока не проверим
		},
	}

	client, err := sm.openClient(saved.Backend, saved.SimProfile, saved.LaserInput)
	if err == nil {
		s.client = client
		s.info.Device, err = client.Info()
		s.info.IsHealthy = err == nil && s.info.Device.Connected
	}

	sm.mu.Lock()
	sm.pool[saved.SessionID] = s
	sm.mu.Unlock()

	return s.snapshot(), err
}

func (sm *SessionManager) GetSession(sessionID string) (*models.SessionInfo, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, found := sm.pool[sessionID]
	if !found {
		return nil, false
	}
	return s.snapshot(), true
}

func (sm *SessionManager) GetAllSessions() []*models.SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	infos := make([]*models.SessionInfo, 0, len(sm.pool))
	for _, s := range sm.pool {
		infos = append(infos, s.snapshot())
	}
	return infos
}

func (sm *SessionManager) DeleteSession(sessionID string) error {
	// Сначала останавливаем мониторинг, если он был
	sm.monitorMgr.StopMonitoringForSession(sessionID)

	sm.mu.Lock()
	s, exists := sm.pool[sessionID]
	if !exists {
		sm.mu.Unlock()
		err := sm.dbRepo.Delete(sessionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("ошибка удаления сессии '%s' из БД: %w", sessionID, err)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sessionNotFound(sessionID)
		}
		sm.logger.Info("Session (not in pool) successfully deleted from DB.", "sessionID", sessionID)
		return nil
	}
	delete(sm.pool, sessionID)
	cancel, done := s.scanCancel, s.scanDone
	sm.mu.Unlock()

	if cancel != nil {
		sm.logger.Warn("Stopping running scan before closing session", "sessionID", sessionID)
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			sm.logger.Warn("Scan did not finish in time, closing anyway", "sessionID", sessionID)
		}
	}
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			sm.logger.Warn("Failed to close CT400 session", "sessionID", sessionID, "error", err)
		}
	}

	if err := sm.dbRepo.Delete(sessionID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("ошибка удаления сессии '%s' из БД: %w", sessionID, err)
	}

	sm.logger.Info("Session deleted successfully.", "sessionID", sessionID)
	return nil
}

// CheckSession опрашивает прибор; сессию без прибора пытается переоткрыть.
func (sm *SessionManager) CheckSession(sessionID string) (*models.SessionInfo, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, exists := sm.pool[sessionID]
	if !exists {
		return nil, sessionNotFound(sessionID)
	}

	previousHealth := s.info.IsHealthy
	var err error
	if s.client == nil {
		s.client, err = sm.openClient(s.info.Backend, s.info.SimProfile, s.info.LaserInput)
	}
	if err == nil {
		s.info.Device, err = s.client.Info()
		if err == nil && !s.info.Device.Connected {
			err = yenista.ErrNotConnected
		}
	}
	s.info.IsHealthy = err == nil
	s.info.LastUsed = time.Now()
	s.info.UseCount++

	if previousHealth != s.info.IsHealthy {
		sm.logger.Info("Session health status changed", "sessionID", sessionID, "from", previousHealth, "to", s.info.IsHealthy)
	}

	return s.snapshot(), err
}

// CloseAll закрывает все сессии при остановке сервиса, не трогая БД.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, s := range sm.pool {
		if s.scanCancel != nil {
			s.scanCancel()
		}
		if s.client != nil {
			_ = s.client.Close()
		}
		delete(sm.pool, id)
	}
}

// client возвращает клиента сессии и отмечает использование.
func (sm *SessionManager) client(sessionID string) (*ct400.Client, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, exists := sm.pool[sessionID]
	if !exists {
		return nil, sessionNotFound(sessionID)
	}
	if s.client == nil {
		return nil, apperrors.NewAppError(apperrors.UnavailableErrorCode, apperrors.Unavailable,
			fmt.Errorf("сессия '%s' не подключена к прибору", sessionID), true)
	}
	s.info.LastUsed = time.Now()
	s.info.UseCount++
	return s.client, nil
}

// beginScan помечает сессию как выполняющую свип. Вызывающий обязан вызвать finish.
func (sm *SessionManager) beginScan(parent context.Context, sessionID string, timeout time.Duration) (*ct400.Client, context.Context, func(), error) {
	client, err := sm.client(sessionID)
	if err != nil {
		return nil, nil, nil, err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, exists := sm.pool[sessionID]
	if !exists {
		return nil, nil, nil, sessionNotFound(sessionID)
	}
	if s.scanCancel != nil {
		return nil, nil, nil, apperrors.NewAppError(apperrors.ConflictErrorCode, apperrors.Conflict, apperrors.ErrScanInProgress, true)
	}
	if s.monitoring {
		return nil, nil, nil, apperrors.NewAppError(apperrors.ConflictErrorCode,
			"остановите мониторинг мощности перед свипом", apperrors.ErrMonitorActive, true)
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	done := make(chan struct{})
	s.scanCancel, s.scanDone = cancel, done

	finish := func() {
		cancel()
		sm.mu.Lock()
		if s.scanDone == done {
			s.scanCancel, s.scanDone = nil, nil
		}
		sm.mu.Unlock()
		close(done)
	}
	return client, ctx, finish, nil
}

// reserveMonitor помечает сессию как опрашиваемую. Свип в это время запрещен,
// а опрос во время свипа отклоняется с 409.
func (sm *SessionManager) reserveMonitor(sessionID string) (*ct400.Client, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, exists := sm.pool[sessionID]
	if !exists {
		return nil, sessionNotFound(sessionID)
	}
	if s.client == nil {
		return nil, apperrors.NewAppError(apperrors.UnavailableErrorCode, apperrors.Unavailable,
			fmt.Errorf("сессия '%s' не подключена к прибору", sessionID), true)
	}
	if s.scanCancel != nil {
		return nil, apperrors.NewAppError(apperrors.ConflictErrorCode,
			"дождитесь окончания свипа перед мониторингом", apperrors.ErrScanInProgress, true)
	}
	s.monitoring = true
	s.info.LastUsed = time.Now()
	s.info.UseCount++
	return s.client, nil
}

func (sm *SessionManager) releaseMonitor(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, exists := sm.pool[sessionID]; exists {
		s.monitoring = false
	}
}

// stopScan отменяет контекст свипа; Device по отмене вызывает CT400_ScanStop.
func (sm *SessionManager) stopScan(sessionID string) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, exists := sm.pool[sessionID]
	if !exists {
		return sessionNotFound(sessionID)
	}
	if s.scanCancel == nil {
		return apperrors.NewAppError(apperrors.ConflictErrorCode, apperrors.Conflict, apperrors.ErrNoActiveScan, true)
	}
	s.scanCancel()
	return nil
}

func (s *session) snapshot() *models.SessionInfo {
	info := *s.info
	info.Scanning = s.scanCancel != nil
	return &info
}

func sessionNotFound(sessionID string) error {
	return apperrors.NewAppError(apperrors.NotFoundErrorCode,
		fmt.Sprintf("сессия '%s' не найдена", sessionID), apperrors.ErrSessionNotFound, false)
}
