package models

import "time"

// DeviceInfo содержит сведения о подключенном CT400
type DeviceInfo struct {
	Connected bool   `json:"connected"`
	Inputs    int32  `json:"inputs"`
	Detectors int32  `json:"detectors"`
	Type      string `json:"type"`
	TypeCode  int32  `json:"type_code"`
}

// LaserConfig содержит настройки лазера на одном входе (CT400_SetLaser)
type LaserConfig struct {
	Input       int32   `json:"input"`
	Enabled     bool    `json:"enabled"`
	GPIBAddress int32   `json:"gpib_address"`
	Model       string  `json:"model"`
	MinNm       float64 `json:"min_wavelength_nm"`
	MaxNm       float64 `json:"max_wavelength_nm"`
	Speed       int32   `json:"speed_nm_s"`
}

// DetectorArray включает дополнительные детекторы и вход BNC C
type DetectorArray struct {
	Detector2 bool `json:"detector_2"`
	Detector3 bool `json:"detector_3"`
	Detector4 bool `json:"detector_4"`
	External  bool `json:"external"`
}

// BNCConfig - настройка внешнего детектора BNC (out = Alpha*x + Beta)
type BNCConfig struct {
	Enabled bool    `json:"enabled"`
	Alpha   float64 `json:"alpha"`
	Beta    float64 `json:"beta"`
	Unit    string  `json:"unit"`
}

// ScanConfig - полная конфигурация свипа
type ScanConfig struct {
	Laser          LaserConfig   `json:"laser"`
	PowerMw        float64       `json:"power_mw"`
	MinNm          float64       `json:"min_wavelength_nm"`
	MaxNm          float64       `json:"max_wavelength_nm"`
	ResolutionPm   uint32        `json:"resolution_pm"`
	Detectors      DetectorArray `json:"detectors"`
	BNC            BNCConfig     `json:"bnc"`
	ExternalSync   bool          `json:"external_sync"`
	ExternalSyncIn bool          `json:"external_sync_in"`
}

// ScanRequest описывает, какие данные забрать после свипа
type ScanRequest struct {
	Detectors   []int32 `json:"detectors"`
	IncludeSync bool    `json:"include_sync"`
	Heterodyne  bool    `json:"heterodyne"`
	ParkLaser   bool    `json:"park_laser"`
	ParkPowerMw float64 `json:"park_power_mw"`
}

// DetectorTrace - ряд мощности одного детектора
type DetectorTrace struct {
	Detector int32     `json:"detector"`
	Power    []float64 `json:"power_dbm"`
}

// SyncData - синхронизированные (не пересчитанные) данные свипа
type SyncData struct {
	Wavelengths []float64       `json:"wavelengths_nm"`
	OutputPower []float64       `json:"output_power_dbm"`
	Detectors   []DetectorTrace `json:"detectors"`
}

// ScanResult содержит результаты одного свипа
type ScanResult struct {
	StartedAt       time.Time       `json:"started_at"`
	Duration        time.Duration   `json:"duration"`
	DataPoints      int32           `json:"data_points"`
	DiscardPoints   int32           `json:"discard_points"`
	ResampledPoints int32           `json:"resampled_points"`
	Wavelengths     []float64       `json:"wavelengths_nm"`
	OutputPower     []float64       `json:"output_power_dbm"`
	Detectors       []DetectorTrace `json:"detectors"`
	Sync            *SyncData       `json:"sync,omitempty"`
	Lines           []float64       `json:"lines_nm,omitempty"`
}

// PowerReading - мгновенные показания детекторов (CT400_ReadPowerDetectors)
type PowerReading struct {
	Timestamp time.Time `json:"timestamp"`
	Pout      float64   `json:"pout_dbm"`
	P1        float64   `json:"p1_dbm"`
	P2        float64   `json:"p2_dbm"`
	P3        float64   `json:"p3_dbm"`
	P4        float64   `json:"p4_dbm"`
	Vext      float64   `json:"vext"`
}

// Select возвращает показания по номерам детекторов (0 - выход, 5 - Vext).
func (r PowerReading) Select(detectors ...int32) []float64 {
	all := [...]float64{r.Pout, r.P1, r.P2, r.P3, r.P4, r.Vext}
	out := make([]float64, 0, len(detectors))
	for _, d := range detectors {
		if d >= 0 && int(d) < len(all) {
			out = append(out, all[d])
		}
	}
	return out
}

// ExportedFiles - пути текстовых файлов, записанных библиотекой
type ExportedFiles struct {
	WavelengthSync      string           `json:"wavelength_sync"`
	WavelengthResampled string           `json:"wavelength_resampled"`
	PowerSync           string           `json:"power_sync"`
	PowerResampled      string           `json:"power_resampled"`
	DetectorSync        map[int32]string `json:"detector_sync"`
	DetectorResampled   map[int32]string `json:"detector_resampled"`
}
