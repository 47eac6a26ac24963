package ct400_service

import (
	"errors"
	"fmt"

	"github.com/iwtcode/ct400Adapter/internal/domain/models"
	"github.com/iwtcode/ct400Adapter/internal/middleware/logging"
	apperrors "github.com/iwtcode/ct400Adapter/pkg/errors"
	"github.com/iwtcode/ct400Adapter/yenista"
)

// instrumentError переводит ошибку прибора в AppError с подходящим HTTP кодом.
// Текст ошибки CT400_lib показывается клиенту.
func instrumentError(message string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	code := apperrors.InternalServerErrorCode
	switch {
	case errors.Is(err, yenista.ErrInvalidArgument):
		code = apperrors.BadRequestCode
	case errors.Is(err, yenista.ErrScanRunning), errors.Is(err, yenista.ErrNoScan):
		code = apperrors.ConflictErrorCode
	case errors.Is(err, yenista.ErrNotConnected), errors.Is(err, yenista.ErrInvalidHandle), errors.Is(err, yenista.ErrNotBuilt):
		code = apperrors.UnavailableErrorCode
	}
	return apperrors.NewAppError(code, message, err, true)
}

func badRequest(format string, args ...interface{}) error {
	return apperrors.NewAppError(apperrors.BadRequestCode, apperrors.BadRequest, fmt.Errorf(format, args...), true)
}

// Control выполняет разовые команды: мощность, лазер, калибровка.
type Control struct {
	sessions *SessionManager
	logger   *logging.Logger
}

func NewControl(sessions *SessionManager, logger *logging.Logger) *Control {
	return &Control{sessions: sessions, logger: logger.WithPrefix("CONTROL")}
}

func (c *Control) ReadPower(req models.PowerRequest) (*models.PowerResponse, error) {
	dets := req.Detectors
	if len(dets) == 0 {
		dets = []int32{0, 1}
	}
	for _, d := range dets {
		if d < 0 || d > 5 {
			return nil, badRequest("неверный детектор %d (0 - выход, 1-4, 5 - Vext)", d)
		}
	}

	client, err := c.sessions.client(req.SessionID)
	if err != nil {
		return nil, err
	}
	reading, err := client.ReadPower()
	if err != nil {
		return nil, instrumentError("не удалось прочитать мощность", err)
	}
	return &models.PowerResponse{
		Status:    "ok",
		Detectors: dets,
		Values:    reading.Select(dets...),
		Reading:   reading,
	}, nil
}

func (c *Control) SetLaser(req models.LaserRequest) error {
	client, err := c.sessions.client(req.SessionID)
	if err != nil {
		return err
	}

	if req.Enabled != nil && *req.Enabled {
		if req.WavelengthNm <= 0 {
			return badRequest("для включения лазера нужна wavelength_nm")
		}
		if err := client.LaserOn(req.WavelengthNm, req.PowerMw); err != nil {
			return instrumentError("не удалось включить лазер", err)
		}
		c.logger.Info("Laser on", "sessionID", req.SessionID, "wavelength_nm", req.WavelengthNm, "power_mw", req.PowerMw)
		return nil
	}

	if err := client.LaserOff(); err != nil {
		return instrumentError("не удалось выключить лазер", err)
	}
	c.logger.Info("Laser off", "sessionID", req.SessionID)
	return nil
}

func (c *Control) Calibrate(req models.CalibrationRequest) error {
	if req.Action == models.CalibrationUpdate && (req.Detector < 1 || req.Detector > 4) {
		return badRequest("неверный детектор %d для калибровки (1-4)", req.Detector)
	}

	client, err := c.sessions.client(req.SessionID)
	if err != nil {
		return err
	}

	switch req.Action {
	case models.CalibrationUpdate:
		err = client.UpdateCalibration(req.Detector)
	case models.CalibrationReset:
		err = client.ResetCalibration()
	default:
		return badRequest("неизвестное действие %q", req.Action)
	}
	if err != nil {
		return instrumentError("калибровка не выполнена", err)
	}
	c.logger.Info("Calibration changed", "sessionID", req.SessionID, "action", req.Action, "detector", req.Detector)
	return nil
}
