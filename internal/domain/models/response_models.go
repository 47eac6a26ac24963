package models

import (
	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	instrument "github.com/iwtcode/ct400Adapter/models"
)

// ErrorResponse представляет стандартный ответ с ошибкой.
type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	Error  struct {
		Code    int    `json:"code" example:"404"`
		Message string `json:"message" example:"Сессия не найдена"`
	} `json:"error"`
}

// MessageResponse представляет стандартный успешный ответ с сообщением.
type MessageResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"Monitoring started"`
}

// SessionResponse представляет ответ с информацией о сессии.
type SessionResponse struct {
	Status      string       `json:"status" example:"ok"`
	Error       string       `json:"error,omitempty"`
	SessionInfo *SessionInfo `json:"session_info"`
}

// GetSessionsResponse представляет ответ со списком всех сессий.
type GetSessionsResponse struct {
	Status   string         `json:"status" example:"ok"`
	PoolSize int            `json:"pool_size" example:"1"`
	Sessions []*SessionInfo `json:"sessions"`
}

// ScanResponse представляет результат свипа.
type ScanResponse struct {
	Status   string                    `json:"status" example:"ok"`
	RecordID uint                      `json:"record_id"`
	Result   *instrument.ScanResult    `json:"result"`
	Files    *instrument.ExportedFiles `json:"files,omitempty"`
}

// PowerResponse представляет показания детекторов.
type PowerResponse struct {
	Status    string                   `json:"status" example:"ok"`
	Detectors []int32                  `json:"detectors"`
	Values    []float64                `json:"values"`
	Reading   *instrument.PowerReading `json:"reading"`
}

// ScanHistoryResponse представляет историю свипов.
type ScanHistoryResponse struct {
	Status string                `json:"status" example:"ok"`
	Count  int                   `json:"count"`
	Scans  []entities.ScanRecord `json:"scans"`
}
