package entities

import "time"

const (
	StatusConnected = "connected"
	StatusMonitored = "monitored"
)

// InstrumentSession - сохраненная сессия CT400, восстанавливается при старте сервиса.
type InstrumentSession struct {
	SessionID  string    `gorm:"primaryKey;not null" json:"session_id"`
	Backend    string    `gorm:"not null" json:"backend"` // dll / simulator
	SimProfile string    `json:"sim_profile,omitempty"`
	LaserInput int32     `json:"laser_input"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Status     string    `gorm:"not null" json:"status"` // connected / monitored
	Interval   int       `json:"interval"`               // Интервал опроса мощности в мс
}
