package ct400

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iwtcode/ct400Adapter/models"
	"github.com/iwtcode/ct400Adapter/yenista"
	"github.com/iwtcode/ct400Adapter/yenista/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T, mutate func(p *simulator.Profile)) *Client {
	t.Helper()
	p := simulator.DefaultProfile()
	p.TimeScale = 0.001
	if mutate != nil {
		mutate(&p)
	}

	cfg := &Config{
		Backend:        "simulator",
		GPIBAddress:    10,
		LaserModel:     "T100S_HP",
		LaserInput:     1,
		LaserMinNm:     1500,
		LaserMaxNm:     1630,
		DefaultPowerMw: 1,
		LogLevel:       "off",
	}
	c, err := NewWithLibrary(cfg, simulator.New(p))
	require.NoError(t, err, "Не удалось создать клиента CT400")
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"CT400_BACKEND", "CT400_SIM_PROFILE", "CT400_GPIB", "CT400_LASER_MODEL",
		"CT400_LASER_INPUT", "CT400_LASER_MIN_NM", "CT400_LASER_MAX_NM", "CT400_DEFAULT_POWER_MW", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	assert.Equal(t, "simulator", cfg.Backend)
	assert.Equal(t, int32(10), cfg.GPIBAddress)
	assert.Equal(t, "T100S_HP", cfg.LaserModel)
	assert.Equal(t, int32(1), cfg.LaserInput)
	assert.Equal(t, 1500.0, cfg.LaserMinNm)
	assert.Equal(t, 1630.0, cfg.LaserMaxNm)
	assert.Equal(t, 6.0, cfg.DefaultPowerMw)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CT400_BACKEND", "dll")
	t.Setenv("CT400_GPIB", "12")
	t.Setenv("CT400_LASER_INPUT", "3")
	t.Setenv("CT400_LASER_MIN_NM", "1520")
	t.Setenv("CT400_LASER_MAX_NM", "1580")
	t.Setenv("CT400_DEFAULT_POWER_MW", "2.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "dll", cfg.Backend)
	assert.Equal(t, int32(12), cfg.GPIBAddress)
	assert.Equal(t, int32(3), cfg.LaserInput)
	assert.Equal(t, 1520.0, cfg.LaserMinNm)
	assert.Equal(t, 1580.0, cfg.LaserMaxNm)
	assert.Equal(t, 2.5, cfg.DefaultPowerMw)
	assert.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("CT400_LASER_INPUT", "9")
	t.Setenv("CT400_LASER_MIN_NM", "1600")
	cfg = Load()
	assert.Equal(t, int32(1), cfg.LaserInput)
	assert.Equal(t, 1500.0, cfg.LaserMinNm, "перевернутый диапазон заменяется значением по умолчанию")
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(&Config{Backend: "usb", LogLevel: "off"})
	assert.ErrorIs(t, err, yenista.ErrInvalidArgument)
}

func TestClientInfo(t *testing.T) {
	c := setupTest(t, nil)
	info, err := c.Info()
	require.NoError(t, err)
	assert.True(t, info.Connected)
	assert.Equal(t, int32(4), info.Detectors)
	assert.NotNil(t, c.GetLogger())
}

func TestLaserOnOffAndPowers(t *testing.T) {
	c := setupTest(t, nil)

	require.NoError(t, c.LaserOn(1550, 0))
	powers, err := c.DetectorPowers()
	require.NoError(t, err)
	require.Len(t, powers, 2)
	assert.InDelta(t, 0.0, powers[0], 1e-9, "1 мВт по умолчанию = 0 дБм")
	assert.InDelta(t, -21.5, powers[1], 0.01)

	require.NoError(t, c.LaserOff())
	powers, err = c.DetectorPowers(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{-80}, powers)
}

func TestLaserOffDisablesScanSource(t *testing.T) {
	c := setupTest(t, nil)
	_, err := c.ConfigureScan(models.ScanConfig{MinNm: 1549, MaxNm: 1551, ResolutionPm: 10})
	require.NoError(t, err)

	require.NoError(t, c.LaserOff())
	// без включенного лазера свип не стартует
	assert.Error(t, c.Device().StartScan())

	require.NoError(t, c.LaserOn(1550, 1))
	require.NoError(t, c.Device().StartScan())
	require.NoError(t, c.Device().WaitScan(context.Background()))
}

func TestDisconnectedDevice(t *testing.T) {
	c := setupTest(t, func(p *simulator.Profile) { p.Disconnected = true })
	assert.ErrorIs(t, c.LaserOn(1550, 1), yenista.ErrNotConnected)
	assert.ErrorIs(t, c.LaserOff(), yenista.ErrNotConnected)
	_, err := c.ConfigureScan(models.ScanConfig{})
	assert.ErrorIs(t, err, yenista.ErrNotConnected)
}

func TestConfigureScanDefaults(t *testing.T) {
	c := setupTest(t, nil)
	cfg, err := c.ConfigureScan(models.ScanConfig{MinNm: 1549, MaxNm: 1551, ResolutionPm: 10})
	require.NoError(t, err)
	assert.Equal(t, "T100S_HP", cfg.Laser.Model)
	assert.Equal(t, int32(100), cfg.Laser.Speed)
	assert.Equal(t, 1.0, cfg.PowerMw)

	cfg = c.withScanDefaults(models.ScanConfig{})
	assert.Equal(t, 1500.0, cfg.MinNm)
	assert.Equal(t, 1630.0, cfg.MaxNm)
	assert.Equal(t, uint32(1), cfg.ResolutionPm)
}

func TestScanCalibrateExport(t *testing.T) {
	c := setupTest(t, nil)
	// источник на входе 2 нужен для детектирования линий
	c.config.LaserInput = 2
	_, err := c.ConfigureScan(models.ScanConfig{MinNm: 1549, MaxNm: 1551, ResolutionPm: 10})
	require.NoError(t, err)

	res, err := c.Scan(context.Background(), models.ScanRequest{Heterodyne: true, ParkLaser: true})
	require.NoError(t, err)
	assert.Equal(t, int32(201), res.ResampledPoints)
	assert.Len(t, res.Lines, 1)

	require.NoError(t, c.UpdateCalibration(1))
	res, err = c.Scan(context.Background(), models.ScanRequest{})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Detectors[0].Power[100], 0.05)
	require.NoError(t, c.ResetCalibration())

	dir := filepath.Join(t.TempDir(), "export")
	files, err := c.ExportFiles(dir)
	require.NoError(t, err)
	_, err = os.Stat(files.DetectorResampled[1])
	assert.NoError(t, err)
}

func TestScanStoppedByContext(t *testing.T) {
	c := setupTest(t, func(p *simulator.Profile) { p.TimeScale = 100 })
	_, err := c.ConfigureScan(models.ScanConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = c.Scan(ctx, models.ScanRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestMonitorPower(t *testing.T) {
	c := setupTest(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	select {
	case r := <-c.MonitorPower(ctx, 5*time.Millisecond):
		require.NoError(t, r.Err)
		assert.Equal(t, -80.0, r.Reading.Pout)
	case <-time.After(time.Second):
		t.Fatal("нет показаний")
	}
}
