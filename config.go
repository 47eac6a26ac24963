package ct400

import (
	"os"
	"strconv"
)

// Config хранит модель конфигурации клиента
type Config struct {
	Backend        string
	SimProfile     string
	GPIBAddress    int32
	LaserModel     string
	LaserInput     int32
	LaserMinNm     float64
	LaserMaxNm     float64
	DefaultPowerMw float64
	LogLevel       string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	backend := os.Getenv("CT400_BACKEND")
	if backend == "" {
		backend = "simulator"
	}

	gpib, err := strconv.ParseInt(os.Getenv("CT400_GPIB"), 10, 32)
	if err != nil || gpib <= 0 {
		gpib = 10
	}

	laserModel := os.Getenv("CT400_LASER_MODEL")
	if laserModel == "" {
		laserModel = "T100S_HP"
	}

	input, err := strconv.ParseInt(os.Getenv("CT400_LASER_INPUT"), 10, 32)
	if err != nil || input < 1 || input > 4 {
		input = 1
	}

	minNm := envFloat("CT400_LASER_MIN_NM", 1500.0)
	maxNm := envFloat("CT400_LASER_MAX_NM", 1630.0)
	if minNm >= maxNm {
		minNm, maxNm = 1500.0, 1630.0
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		Backend:        backend,
		SimProfile:     os.Getenv("CT400_SIM_PROFILE"),
		GPIBAddress:    int32(gpib),
		LaserModel:     laserModel,
		LaserInput:     int32(input),
		LaserMinNm:     minNm,
		LaserMaxNm:     maxNm,
		DefaultPowerMw: envFloat("CT400_DEFAULT_POWER_MW", 6.0),
		LogLevel:       logLevel,
	}
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
