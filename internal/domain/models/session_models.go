package models

import (
	"time"

	instrument "github.com/iwtcode/ct400Adapter/models"
)

// CreateSessionRequest определяет структуру запроса на открытие сессии CT400.
// Пустые поля берутся из конфигурации сервиса.
type CreateSessionRequest struct {
	Backend    string `json:"backend"`     // "dll" или "simulator"
	SimProfile string `json:"sim_profile"` // путь к YAML профилю симулятора
	LaserInput int32  `json:"laser_input" binding:"omitempty,min=1,max=4"`
}

// SessionRequest определяет структуру для запросов, использующих SessionID.
type SessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// MonitorRequest определяет структуру для запроса на запуск мониторинга мощности.
type MonitorRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Interval  int    `json:"interval" binding:"required,gt=0"` // в миллисекундах
}

// SessionInfo представляет открытую сессию в пуле.
type SessionInfo struct {
	SessionID  string                 `json:"session_id"`
	Backend    string                 `json:"backend"`
	SimProfile string                 `json:"sim_profile,omitempty"`
	LaserInput int32                  `json:"laser_input"`
	CreatedAt  time.Time              `json:"created_at"`
	LastUsed   time.Time              `json:"last_used"`
	UseCount   int64                  `json:"use_count"`
	IsHealthy  bool                   `json:"is_healthy"`
	Scanning   bool                   `json:"scanning"`
	Monitoring bool                   `json:"monitoring"`
	Device     *instrument.DeviceInfo `json:"device,omitempty"`
}
