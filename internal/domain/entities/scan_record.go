package entities

import "time"

const (
	ScanCompleted = "completed"
	ScanFailed    = "failed"
	ScanStopped   = "stopped"
)

// ScanRecord - запись истории свипов.
type ScanRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SessionID       string    `gorm:"index;not null" json:"session_id"`
	Status          string    `gorm:"not null" json:"status"`
	Error           string    `json:"error,omitempty"`
	MinNm           float64   `json:"min_wavelength_nm"`
	MaxNm           float64   `json:"max_wavelength_nm"`
	PowerMw         float64   `json:"power_mw"`
	ResolutionPm    uint32    `json:"resolution_pm"`
	Speed           int32     `json:"speed_nm_s"`
	Detectors       []int32   `gorm:"serializer:json" json:"detectors"`
	DataPoints      int32     `json:"data_points"`
	DiscardPoints   int32     `json:"discard_points"`
	ResampledPoints int32     `json:"resampled_points"`
	Lines           []float64 `gorm:"serializer:json" json:"lines_nm,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
	ExportDir       string    `json:"export_dir,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
