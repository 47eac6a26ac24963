package yenista

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwtcode/ct400Adapter/models"
	"github.com/iwtcode/ct400Adapter/yenista/model"
	"github.com/iwtcode/ct400Adapter/yenista/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDevice(t *testing.T, mutate func(p *simulator.Profile)) *Device {
	t.Helper()
	p := simulator.DefaultProfile()
	p.TimeScale = 0.001
	if mutate != nil {
		mutate(&p)
	}
	dev, err := Open(simulator.New(p))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })
	return dev
}

func testScanConfig(minNm, maxNm float64, resPm uint32) models.ScanConfig {
	return models.ScanConfig{
		Laser: models.LaserConfig{
			Input:       1,
			Enabled:     true,
			GPIBAddress: 10,
			Model:       "T100S_HP",
			MinNm:       1500,
			MaxNm:       1630,
			Speed:       100,
		},
		PowerMw:      1.0,
		MinNm:        minNm,
		MaxNm:        maxNm,
		ResolutionPm: resPm,
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	p := simulator.DefaultProfile()
	p.IncompatibleFirmware = true
	_, err = Open(simulator.New(p))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFirmwareIncompatible)
	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, int32(model.ErrFirmwareIncompatible), callErr.Code)

	sim := simulator.New(simulator.DefaultProfile())
	first, err := Open(sim)
	require.NoError(t, err)
	_, err = Open(sim)
	assert.Error(t, err, "единственный прибор уже занят")
	require.NoError(t, first.Close())
	second, err := Open(sim)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestInfo(t *testing.T) {
	dev := openTestDevice(t, nil)
	info, err := dev.Info()
	require.NoError(t, err)
	assert.True(t, info.Connected)
	assert.Equal(t, int32(4), info.Inputs)
	assert.Equal(t, int32(4), info.Detectors)
	assert.Equal(t, model.TypeSMF.String(), info.Type)
	assert.True(t, dev.Connected())
}

func TestClosedDeviceRejectsCalls(t *testing.T) {
	dev := openTestDevice(t, nil)
	require.NoError(t, dev.Close())
	assert.NoError(t, dev.Close(), "повторный Close безопасен")
	assert.Zero(t, dev.Handle())

	_, err := dev.Info()
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.ErrorIs(t, dev.StartScan(), ErrInvalidHandle)
	assert.ErrorIs(t, dev.WaitScan(context.Background()), ErrInvalidHandle)
	_, err = dev.ReadPower()
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.False(t, dev.Connected())
}

func TestArgumentValidation(t *testing.T) {
	dev := openTestDevice(t, nil)

	cfg := testScanConfig(1549, 1551, 10)
	cfg.Laser.Model = "UNKNOWN"
	assert.ErrorIs(t, dev.ConfigureLaser(cfg.Laser), ErrInvalidArgument)

	cfg = testScanConfig(1549, 1551, 10)
	cfg.Laser.Input = 7
	assert.ErrorIs(t, dev.ConfigureLaser(cfg.Laser), ErrInvalidArgument)

	assert.ErrorIs(t, dev.Configure(testScanConfig(1551, 1549, 10)), ErrInvalidArgument)
	assert.ErrorIs(t, dev.SwitchInput(0), ErrInvalidArgument)
	assert.ErrorIs(t, dev.UpdateCalibration(0), ErrInvalidArgument)
	assert.ErrorIs(t, dev.SetBNC(models.BNCConfig{Unit: "W"}), ErrInvalidArgument)
	assert.ErrorIs(t, dev.SaveWavelengthSyncFile(""), ErrInvalidArgument)
	assert.ErrorIs(t, dev.CmdLaser(5, true, 1550, 1), ErrInvalidArgument)

	_, err := dev.DetectorResampled(9)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLibraryFailureBecomesCallError(t *testing.T) {
	dev := openTestDevice(t, nil)

	err := dev.SetSamplingResolution(500)
	require.Error(t, err)
	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "SetSamplingResolution", callErr.Func)
	assert.Equal(t, model.RcFail, callErr.Code)
	assert.Contains(t, err.Error(), "CT400_SetSamplingResolution")
}

func TestRunScan(t *testing.T) {
	dev := openTestDevice(t, nil)
	// линии детектируются только с источником на входе 2 или 4
	cfg := testScanConfig(1549, 1551, 10)
	cfg.Laser.Input = 2
	require.NoError(t, dev.Configure(cfg))

	res, err := dev.RunScan(context.Background(), models.ScanRequest{
		IncludeSync: true,
		Heterodyne:  true,
		ParkLaser:   true,
		ParkPowerMw: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(401), res.DataPoints)
	assert.Equal(t, int32(3), res.DiscardPoints)
	assert.Equal(t, int32(201), res.ResampledPoints)
	require.Len(t, res.Wavelengths, 201)
	assert.InDelta(t, 1549.0, res.Wavelengths[0], 1e-9)
	assert.InDelta(t, 1551.0, res.Wavelengths[200], 1e-9)
	assert.Len(t, res.OutputPower, 201)

	require.Len(t, res.Detectors, 1)
	assert.Equal(t, int32(1), res.Detectors[0].Detector)
	assert.InDelta(t, -21.5, res.Detectors[0].Power[100], 0.01)

	require.NotNil(t, res.Sync)
	assert.Len(t, res.Sync.Wavelengths, 401)
	assert.Len(t, res.Sync.OutputPower, 401)
	require.Len(t, res.Sync.Detectors, 1)
	assert.Len(t, res.Sync.Detectors[0].Power, 401)

	require.Len(t, res.Lines, 1)
	assert.InDelta(t, 1550.6370, res.Lines[0], 1e-9)

	reading, err := dev.ReadPower()
	require.NoError(t, err)
	assert.False(t, reading.Timestamp.IsZero())
	assert.InDelta(t, -21.5+3.0103, reading.P1, 0.01, "лазер запаркован на 1550 нм и 2 мВт")
}

func TestRunScanSkipsOptionalData(t *testing.T) {
	dev := openTestDevice(t, nil)
	require.NoError(t, dev.Configure(testScanConfig(1549, 1551, 10)))

	res, err := dev.RunScan(context.Background(), models.ScanRequest{Detectors: []int32{1}})
	require.NoError(t, err)
	assert.Nil(t, res.Sync)
	assert.Nil(t, res.Lines)
}

func TestRunScanDisabledDetector(t *testing.T) {
	dev := openTestDevice(t, nil)
	require.NoError(t, dev.Configure(testScanConfig(1549, 1551, 10)))

	_, err := dev.RunScan(context.Background(), models.ScanRequest{Detectors: []int32{1, 3}})
	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "ScanGetDetectorResampledArray", callErr.Func)
}

func TestRunScanWithoutConfiguration(t *testing.T) {
	dev := openTestDevice(t, nil)
	_, err := dev.RunScan(context.Background(), models.ScanRequest{})
	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "ScanStart", callErr.Func)
}

func TestScanFailureReported(t *testing.T) {
	dev := openTestDevice(t, func(p *simulator.Profile) { p.FailScans = "Laser not ready" })
	require.NoError(t, dev.Configure(testScanConfig(1549, 1551, 10)))

	_, err := dev.RunScan(context.Background(), models.ScanRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScanFailed)
	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, simulator.ScanErrFailed, callErr.Code)
	assert.Equal(t, "Laser not ready", callErr.Message)
}

func TestWaitScanCancelStopsSweep(t *testing.T) {
	dev := openTestDevice(t, func(p *simulator.Profile) { p.TimeScale = 100 })
	require.NoError(t, dev.Configure(testScanConfig(1500, 1630, 10)))
	require.NoError(t, dev.StartScan())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	err := dev.WaitScan(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "Scan stopped by user")
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestStopScanFromAnotherGoroutine(t *testing.T) {
	dev := openTestDevice(t, func(p *simulator.Profile) { p.TimeScale = 100 })
	require.NoError(t, dev.Configure(testScanConfig(1500, 1630, 10)))
	require.NoError(t, dev.StartScan())

	errCh := make(chan error, 1)
	go func() { errCh <- dev.WaitScan(context.Background()) }()

	require.Eventually(t, func() bool { return dev.StopScan() == nil }, time.Second, 10*time.Millisecond)

	select {
	case err := <-errCh:
		var callErr *CallError
		require.True(t, errors.As(err, &callErr))
		assert.Equal(t, simulator.ScanErrStopped, callErr.Code)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitScan не вернулся после StopScan")
	}

	assert.ErrorIs(t, dev.StopScan(), ErrNoScan)
}

func TestCalibration(t *testing.T) {
	dev := openTestDevice(t, nil)
	require.NoError(t, dev.Configure(testScanConfig(1549, 1551, 10)))

	_, err := dev.RunScan(context.Background(), models.ScanRequest{})
	require.NoError(t, err)
	require.NoError(t, dev.UpdateCalibration(1))

	res, err := dev.RunScan(context.Background(), models.ScanRequest{})
	require.NoError(t, err)
	for _, v := range res.Detectors[0].Power {
		assert.InDelta(t, 0.0, v, 0.05)
	}

	require.NoError(t, dev.ResetCalibration())
	res, err = dev.RunScan(context.Background(), models.ScanRequest{})
	require.NoError(t, err)
	assert.InDelta(t, -21.5, res.Detectors[0].Power[100], 0.01)
}

func TestExportFiles(t *testing.T) {
	dev := openTestDevice(t, nil)
	require.NoError(t, dev.Configure(testScanConfig(1549, 1551, 10)))
	_, err := dev.RunScan(context.Background(), models.ScanRequest{})
	require.NoError(t, err)

	dir := t.TempDir()
	files, err := dev.ExportFiles(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Lambda_Resampled.txt"), files.WavelengthResampled)
	assert.Equal(t, filepath.Join(dir, "Output_Detector1_Sync.txt"), files.DetectorSync[1])

	counts := map[string]int{
		files.WavelengthSync:       401,
		files.WavelengthResampled:  201,
		files.PowerSync:            401,
		files.PowerResampled:       201,
		files.DetectorSync[1]:      401,
		files.DetectorResampled[1]: 201,
	}
	for path, want := range counts {
		data, err := os.ReadFile(path)
		require.NoError(t, err, path)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		assert.Len(t, lines, want, path)
	}
}

func TestLaserCommands(t *testing.T) {
	dev := openTestDevice(t, nil)

	err := dev.CmdLaser(1, true, 1550, 6)
	assert.Error(t, err, "лазер не настроен")

	cfg := testScanConfig(1549, 1551, 10)
	require.NoError(t, dev.ConfigureLaser(cfg.Laser))
	require.NoError(t, dev.CmdLaser(1, true, 1550, 6))
	require.NoError(t, dev.CmdLaser(1, false, 1550, 6))

	reading, err := dev.ReadPower()
	require.NoError(t, err)
	assert.Equal(t, -80.0, reading.P1)

	require.NoError(t, dev.SwitchInput(2))
	assert.Equal(t, int32(2), dev.Input())
}

func TestStartPowerMonitor(t *testing.T) {
	dev := openTestDevice(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	results := dev.StartPowerMonitor(ctx, 5*time.Millisecond)
	for i := 0; i < 3; i++ {
		select {
		case r := <-results:
			require.NoError(t, r.Err)
			require.NotNil(t, r.Reading)
		case <-time.After(time.Second):
			t.Fatal("нет показаний")
		}
	}
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-results:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestStartPowerMonitorRejectsInterval(t *testing.T) {
	dev := openTestDevice(t, nil)

	for _, interval := range []time.Duration{0, -time.Second} {
		results := dev.StartPowerMonitor(context.Background(), interval)
		r, ok := <-results
		require.True(t, ok)
		assert.ErrorIs(t, r.Err, ErrInvalidArgument)
		assert.Nil(t, r.Reading)

		_, ok = <-results
		assert.False(t, ok, "канал должен закрыться после ошибки")
	}
}

func TestOpenLibrary(t *testing.T) {
	lib, err := OpenLibrary("simulator", "")
	require.NoError(t, err)
	assert.IsType(t, &simulator.Simulator{}, lib)

	_, err = OpenLibrary("serial", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = OpenLibrary("sim", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	if !NativeAvailable {
		_, err = OpenLibrary("dll", "")
		assert.ErrorIs(t, err, ErrNotBuilt)
	}
}
