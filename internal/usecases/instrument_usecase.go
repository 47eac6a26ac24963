package usecases

import (
	"context"

	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	"github.com/iwtcode/ct400Adapter/internal/domain/models"
	apperrors "github.com/iwtcode/ct400Adapter/pkg/errors"
)

func (u *Usecase) RunScan(ctx context.Context, req models.ScanRequest) (*models.ScanResponse, error) {
	// Мониторинг и свип делят прибор; показания во время свипа бессмысленны
	if u.ct400Svc.IsMonitoringActive(req.SessionID) {
		return nil, apperrors.NewAppError(apperrors.ConflictErrorCode,
			"остановите мониторинг мощности перед свипом", apperrors.ErrMonitorActive, true)
	}
	return u.ct400Svc.RunScan(ctx, req)
}

func (u *Usecase) StopScan(sessionID string) error {
	return u.ct400Svc.StopScan(sessionID)
}

func (u *Usecase) ScanHistory(sessionID string, limit int) ([]entities.ScanRecord, error) {
	return u.ct400Svc.ScanHistory(sessionID, limit)
}

func (u *Usecase) ReadPower(req models.PowerRequest) (*models.PowerResponse, error) {
	return u.ct400Svc.ReadPower(req)
}

func (u *Usecase) SetLaser(req models.LaserRequest) error {
	return u.ct400Svc.SetLaser(req)
}

func (u *Usecase) Calibrate(req models.CalibrationRequest) error {
	return u.ct400Svc.Calibrate(req)
}
