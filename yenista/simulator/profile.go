package simulator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Feature - спектральная особенность (лоренцев провал) на одном детекторе.
type Feature struct {
	Detector int32   `yaml:"detector"`
	Center   float64 `yaml:"center_nm"`
	DepthDB  float64 `yaml:"depth_db"`
	WidthNm  float64 `yaml:"width_nm"`
}

// Profile описывает эмулируемый прибор.
type Profile struct {
	Devices              int       `yaml:"devices"`
	Inputs               int32     `yaml:"inputs"`
	Detectors            int32     `yaml:"detectors"`
	Type                 int32     `yaml:"type"`
	IncompatibleFirmware bool      `yaml:"incompatible_firmware"`
	Disconnected         bool      `yaml:"disconnected"`
	TimeScale            float64   `yaml:"time_scale"`
	DiscardPoints        int32     `yaml:"discard_points"`
	NoiseFloorDBm        float64   `yaml:"noise_floor_dbm"`
	InsertionLossDB      float64   `yaml:"insertion_loss_db"`
	FailScans            string    `yaml:"fail_scans"`
	Features             []Feature `yaml:"features"`
	Lines                []float64 `yaml:"lines_nm"`
}

// DefaultProfile - один CT400 SMF с четырьмя входами и детекторами.
func DefaultProfile() Profile {
	return Profile{
		Devices:         1,
		Inputs:          4,
		Detectors:       4,
		Type:            0,
		TimeScale:       0.01,
		DiscardPoints:   3,
		NoiseFloorDBm:   -80,
		InsertionLossDB: 1.5,
		Features: []Feature{
			{Detector: 1, Center: 1550.0, DepthDB: 20, WidthNm: 0.8},
			{Detector: 2, Center: 1555.0, DepthDB: 12, WidthNm: 2.0},
			{Detector: 3, Center: 1540.0, DepthDB: 6, WidthNm: 5.0},
		},
		Lines: []float64{1520.0866, 1530.3711, 1540.5584, 1550.6370, 1560.5117},
	}
}

// ParseProfile разбирает YAML-профиль; незаданные поля берутся из DefaultProfile.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	p.Features = nil
	p.Lines = nil

	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("error parsing simulator profile: %w", err)
	}
	if err := p.normalize(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadProfile читает профиль из файла. Пустой путь - профиль по умолчанию.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read simulator profile %s: %w", path, err)
	}
	return ParseProfile(data)
}

func (p *Profile) normalize() error {
	if p.Devices <= 0 {
		p.Devices = 1
	}
	if p.Inputs < 1 || p.Inputs > 4 {
		return fmt.Errorf("inputs must be within 1..4, got %d", p.Inputs)
	}
	if p.Detectors < 1 || p.Detectors > 5 {
		return fmt.Errorf("detectors must be within 1..5, got %d", p.Detectors)
	}
	if p.Type < 0 || p.Type > 2 {
		return fmt.Errorf("unknown CT400 type %d", p.Type)
	}
	if p.TimeScale < 0 {
		return fmt.Errorf("time_scale must not be negative")
	}
	for _, f := range p.Features {
		if f.Detector < 1 || f.Detector > 5 {
			return fmt.Errorf("feature at %.3f nm references detector %d", f.Center, f.Detector)
		}
		if f.WidthNm <= 0 {
			return fmt.Errorf("feature at %.3f nm has non-positive width", f.Center)
		}
	}
	return nil
}
