package ct400

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/iwtcode/ct400Adapter/models"
	"github.com/iwtcode/ct400Adapter/yenista"
	"github.com/iwtcode/ct400Adapter/yenista/model"
	"github.com/sirupsen/logrus"
)

const (
	defaultSpeed      int32  = 100
	defaultResolution uint32 = 1
)

// Client является основной точкой входа для работы с CT400.
type Client struct {
	device *yenista.Device
	config *Config
	logger *logrus.Logger
}

// New создает клиента и открывает сессию CT400 через выбранный бэкенд.
func New(cfg *Config) (*Client, error) {
	lib, err := yenista.OpenLibrary(cfg.Backend, cfg.SimProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to open CT400 library: %w", err)
	}
	return NewWithLibrary(cfg, lib)
}

// NewWithLibrary создает клиента поверх готовой реализации CT400_lib.
func NewWithLibrary(cfg *Config, lib model.Library) (*Client, error) {
	return NewWithLogger(cfg, lib, NewLogger(cfg.LogLevel))
}

// NewWithLogger то же, что NewWithLibrary, но пишет в переданный логгер.
func NewWithLogger(cfg *Config, lib model.Library, logger *logrus.Logger) (*Client, error) {
	device, err := yenista.Open(lib)
	if err != nil {
		return nil, fmt.Errorf("CT400 initialisation failed: %w", err)
	}

	c := &Client{device: device, config: cfg, logger: logger}
	if info, err := device.Info(); err == nil {
		logger.WithFields(logrus.Fields{
			"inputs":    info.Inputs,
			"detectors": info.Detectors,
			"type":      info.Type,
		}).Infof("CT400 initialised, default laser power %.1f mW", cfg.DefaultPowerMw)
	}
	return c, nil
}

// NewLogger настраивает logrus по уровню из конфигурации ("off" отключает вывод).
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()

	if level == "off" || level == "none" {
		logger.SetOutput(io.Discard)
	} else {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		logger.SetLevel(lvl)
		logger.SetOutput(os.Stdout)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		ForceColors:     true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

// Close закрывает соединение с CT400.
func (c *Client) Close() error {
	if c.device == nil {
		return nil
	}
	return c.device.Close()
}

// GetLogger возвращает используемый логгер.
func (c *Client) GetLogger() *logrus.Logger {
	return c.logger
}

// Device возвращает сессию для низкоуровневых вызовов.
func (c *Client) Device() *yenista.Device {
	return c.device
}

// Info возвращает сведения о приборе.
func (c *Client) Info() (*models.DeviceInfo, error) {
	return c.device.Info()
}

func (c *Client) ensureConnected() error {
	if !c.device.Connected() {
		return yenista.ErrNotConnected
	}
	return nil
}

func (c *Client) laserConfig(speed int32) models.LaserConfig {
	return models.LaserConfig{
		Input:       c.config.LaserInput,
		Enabled:     true,
		GPIBAddress: c.config.GPIBAddress,
		Model:       c.config.LaserModel,
		MinNm:       c.config.LaserMinNm,
		MaxNm:       c.config.LaserMaxNm,
		Speed:       speed,
	}
}

// LaserOn включает лазер на длине волны wavelengthNm. При powerMw <= 0
// используется мощность по умолчанию.
func (c *Client) LaserOn(wavelengthNm, powerMw float64) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	if powerMw <= 0 {
		powerMw = c.config.DefaultPowerMw
	}
	if err := c.device.ConfigureLaser(c.laserConfig(defaultSpeed)); err != nil {
		return err
	}
	if err := c.device.CmdLaser(c.config.LaserInput, true, wavelengthNm, powerMw); err != nil {
		return err
	}
	c.logger.Infof("Laser on and set to %.3fnm and %.2fmW", wavelengthNm, powerMw)
	return nil
}

// LaserOff выключает лазер: вход перенастраивается с DISABLE, затем
// CmdLaser оставляет 1550 нм и мощность по умолчанию.
func (c *Client) LaserOff() error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	cfg := c.laserConfig(defaultSpeed)
	cfg.Enabled = false
	if err := c.device.ConfigureLaser(cfg); err != nil {
		return err
	}
	if err := c.device.CmdLaser(c.config.LaserInput, false, yenista.ParkWavelengthNm, c.config.DefaultPowerMw); err != nil {
		return err
	}
	c.logger.Info("Laser switched off")
	return nil
}

// DetectorPowers возвращает мгновенную мощность выбранных детекторов
// (0 - выход, 1..4 - детекторы, 5 - Vext). По умолчанию выход и детектор 1.
func (c *Client) DetectorPowers(detectors ...int32) ([]float64, error) {
	if len(detectors) == 0 {
		detectors = []int32{int32(model.DE_out), int32(model.DE_1)}
	}
	reading, err := c.device.ReadPower()
	if err != nil {
		return nil, err
	}
	return reading.Select(detectors...), nil
}

// ReadPower возвращает полные показания детекторов.
func (c *Client) ReadPower() (*models.PowerReading, error) {
	return c.device.ReadPower()
}

// withScanDefaults заполняет незаданные поля конфигурации свипа.
func (c *Client) withScanDefaults(cfg models.ScanConfig) models.ScanConfig {
	if cfg.Laser.Model == "" {
		speed := cfg.Laser.Speed
		if speed == 0 {
			speed = defaultSpeed
		}
		cfg.Laser = c.laserConfig(speed)
	}
	if cfg.MinNm == 0 && cfg.MaxNm == 0 {
		cfg.MinNm, cfg.MaxNm = c.config.LaserMinNm, c.config.LaserMaxNm
	}
	if cfg.PowerMw <= 0 {
		cfg.PowerMw = c.config.DefaultPowerMw
	}
	if cfg.ResolutionPm == 0 {
		cfg.ResolutionPm = defaultResolution
	}
	return cfg
}

// ConfigureScan настраивает свип; незаданные поля берутся из конфигурации клиента.
func (c *Client) ConfigureScan(cfg models.ScanConfig) (models.ScanConfig, error) {
	if err := c.ensureConnected(); err != nil {
		return cfg, err
	}
	cfg = c.withScanDefaults(cfg)
	if err := c.device.Configure(cfg); err != nil {
		return cfg, err
	}
	c.logger.WithFields(logrus.Fields{
		"range_nm":      fmt.Sprintf("%.3f-%.3f", cfg.MinNm, cfg.MaxNm),
		"power_mw":      cfg.PowerMw,
		"resolution_pm": cfg.ResolutionPm,
		"speed_nm_s":    cfg.Laser.Speed,
		"det2":          cfg.Detectors.Detector2,
		"det3":          cfg.Detectors.Detector3,
		"det4":          cfg.Detectors.Detector4,
		"bnc":           cfg.Detectors.External,
	}).Info("Scan configuration complete")
	return cfg, nil
}

// Scan выполняет предварительно настроенный свип.
func (c *Client) Scan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error) {
	if req.ParkLaser && req.ParkPowerMw <= 0 {
		req.ParkPowerMw = c.config.DefaultPowerMw
	}
	c.logger.Info("Beginning scan...")
	res, err := c.device.RunScan(ctx, req)
	if err != nil {
		c.logger.WithError(err).Error("Scan failed")
		return res, err
	}
	c.logger.Infof("Scan executed in %.2fs", res.Duration.Seconds())
	c.logger.Infof("Total number of points, discarded points, resampled points: %d, %d, %d",
		res.DataPoints, res.DiscardPoints, res.ResampledPoints)
	for i, line := range res.Lines {
		c.logger.Infof("Spectral line #%d: %.4f", i+1, line)
	}
	if req.ParkLaser {
		c.logger.Infof("Laser set to %.0fnm and %.2fmW", yenista.ParkWavelengthNm, req.ParkPowerMw)
	}
	return res, nil
}

// StopScan прерывает свип, запущенный из другой горутины.
func (c *Client) StopScan() error {
	return c.device.StopScan()
}

// UpdateCalibration делает последний свип детектора опорным уровнем.
// Выход CT400 при этом должен быть подключен напрямую к детектору.
func (c *Client) UpdateCalibration(det int32) error {
	if err := c.device.UpdateCalibration(det); err != nil {
		return err
	}
	c.logger.Infof("Calibration for detector %d updated", det)
	return nil
}

// ResetCalibration сбрасывает калибровку всех детекторов.
func (c *Client) ResetCalibration() error {
	if err := c.device.ResetCalibration(); err != nil {
		return err
	}
	c.logger.Info("Calibration for all detectors reset")
	return nil
}

// ExportFiles сохраняет файлы последнего свипа в dir.
func (c *Client) ExportFiles(dir string, detectors ...int32) (*models.ExportedFiles, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}
	files, err := c.device.ExportFiles(dir, detectors...)
	if err != nil {
		return nil, err
	}
	c.logger.Infof("Scan files saved to %s", dir)
	return files, nil
}

// MonitorPower периодически читает мощность детекторов до отмены ctx.
func (c *Client) MonitorPower(ctx context.Context, interval time.Duration) <-chan yenista.PowerResult {
	return c.device.StartPowerMonitor(ctx, interval)
}
