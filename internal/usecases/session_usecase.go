package usecases

import (
	"fmt"
	"time"

	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	"github.com/iwtcode/ct400Adapter/internal/domain/models"
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	apperrors "github.com/iwtcode/ct400Adapter/pkg/errors"
)

type Usecase struct {
	ct400Svc interfaces.CT400Service
}

func NewUsecase(ct400Svc interfaces.CT400Service) interfaces.Usecases {
	return &Usecase{
		ct400Svc: ct400Svc,
	}
}

func (u *Usecase) CreateSession(req models.CreateSessionRequest) (*models.SessionInfo, error) {
	return u.ct400Svc.CreateSession(req)
}

func (u *Usecase) RestoreSession(session entities.InstrumentSession) (*models.SessionInfo, error) {
	return u.ct400Svc.RestoreSession(session)
}

func (u *Usecase) GetAllSessions() []*models.SessionInfo {
	return u.ct400Svc.GetAllSessions()
}

func (u *Usecase) DeleteSession(sessionID string) error {
	return u.ct400Svc.DeleteSession(sessionID)
}

func (u *Usecase) CheckSession(sessionID string) (*models.SessionInfo, error) {
	return u.ct400Svc.CheckSession(sessionID)
}

func (u *Usecase) StartMonitoring(sessionID string, interval time.Duration) error {
	if _, found := u.ct400Svc.GetSession(sessionID); !found {
		return apperrors.NewAppError(apperrors.NotFoundErrorCode,
			fmt.Sprintf("не удалось запустить мониторинг: сессия '%s' не найдена в активном пуле", sessionID),
			apperrors.ErrSessionNotFound, false)
	}
	return u.ct400Svc.StartMonitoring(sessionID, interval)
}

func (u *Usecase) StopMonitoring(sessionID string) error {
	return u.ct400Svc.StopMonitoring(sessionID)
}
