package models

import (
	"time"

	instrument "github.com/iwtcode/ct400Adapter/models"
)

const (
	CalibrationUpdate = "update"
	CalibrationReset  = "reset"
)

// ScanRequest описывает свип: конфигурацию прибора и набор возвращаемых данных.
type ScanRequest struct {
	SessionID string                 `json:"session_id" binding:"required"`
	Config    instrument.ScanConfig  `json:"config"`
	Options   instrument.ScanRequest `json:"options"`
	Export    bool                   `json:"export"` // сохранить текстовые файлы в EXPORT_DIR
}

// PowerRequest запрашивает мгновенную мощность детекторов (0 - выход, 5 - Vext).
type PowerRequest struct {
	SessionID string  `json:"session_id" binding:"required"`
	Detectors []int32 `json:"detectors"`
}

// LaserRequest включает или выключает лазер сессии.
type LaserRequest struct {
	SessionID    string  `json:"session_id" binding:"required"`
	Enabled      *bool   `json:"enabled" binding:"required"`
	WavelengthNm float64 `json:"wavelength_nm" binding:"omitempty,gt=0"`
	PowerMw      float64 `json:"power_mw" binding:"omitempty,gt=0"`
}

// CalibrationRequest обновляет калибровку детектора по последнему свипу или сбрасывает все.
type CalibrationRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Action    string `json:"action" binding:"required,oneof=update reset"`
	Detector  int32  `json:"detector"`
}

// ScanMessage - сообщение Kafka о завершенном свипе.
type ScanMessage struct {
	SessionID string                 `json:"session_id"`
	RecordID  uint                   `json:"record_id"`
	Timestamp time.Time              `json:"timestamp"`
	Status    string                 `json:"status"`
	Error     string                 `json:"error,omitempty"`
	Result    *instrument.ScanResult `json:"result,omitempty"`
}

// PowerMessage - сообщение Kafka с показаниями детекторов.
type PowerMessage struct {
	SessionID string                   `json:"session_id"`
	Reading   *instrument.PowerReading `json:"reading"`
}
