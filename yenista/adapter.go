package yenista

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iwtcode/ct400Adapter/models"
	"github.com/iwtcode/ct400Adapter/yenista/model"
)

// Device инкапсулирует один хендл CT400 и все вызовы к CT400_lib.
// Вызовы сериализуются мьютексом; ожидание конца свипа выполняется без него,
// чтобы свип можно было остановить из другой горутины.
type Device struct {
	lib    model.Library
	mu     sync.Mutex
	handle uint64
	input  model.LaserInput

	waiting bool
}

// Open вызывает CT400_Init и возвращает открытую сессию.
func Open(lib model.Library) (*Device, error) {
	if lib == nil {
		return nil, fmt.Errorf("%w: nil library", ErrInvalidArgument)
	}
	var code int32
	handle := lib.Init(&code)
	if handle == 0 {
		return nil, initError(code)
	}
	return &Device{lib: lib, handle: handle, input: model.LI_1}, nil
}

// Handle возвращает текущий хендл (0 после Close).
func (d *Device) Handle() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handle
}

// Input возвращает вход лазера, выбранный последним ConfigureLaser или SwitchInput.
func (d *Device) Input() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int32(d.input)
}

// call выполняет f под мьютексом с действующим хендлом.
func (d *Device) call(f func(handle uint64) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle == 0 {
		return ErrInvalidHandle
	}
	return f(d.handle)
}

// Close закрывает соединение и освобождает память, выделенную CT400_Init.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle == 0 {
		return nil
	}
	rc := d.lib.Close(d.handle)
	d.handle = 0
	return check("Close", rc)
}

// Connected возвращает результат CT400_CheckConnected.
func (d *Device) Connected() bool {
	connected := false
	_ = d.call(func(handle uint64) error {
		connected = d.lib.CheckConnected(handle) != 0
		return nil
	})
	return connected
}

// Info считывает число входов, детекторов и тип прибора.
func (d *Device) Info() (*models.DeviceInfo, error) {
	var info models.DeviceInfo
	err := d.call(func(handle uint64) error {
		info.Connected = d.lib.CheckConnected(handle) != 0
		info.Inputs = d.lib.GetNbInputs(handle)
		if info.Inputs < 0 {
			return callError("GetNbInputs", info.Inputs)
		}
		info.Detectors = d.lib.GetNbDetectors(handle)
		if info.Detectors < 0 {
			return callError("GetNbDetectors", info.Detectors)
		}
		info.TypeCode = d.lib.GetCT400Type(handle)
		if info.TypeCode < 0 {
			return callError("GetCT400Type", info.TypeCode)
		}
		info.Type = model.CT400Type(info.TypeCode).String()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ConfigureLaser вызывает CT400_SetLaser для одного входа.
func (d *Device) ConfigureLaser(cfg models.LaserConfig) error {
	source, err := model.ParseLaserSource(cfg.Model)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	input := model.LaserInput(cfg.Input)
	if !input.Valid() {
		return fmt.Errorf("%w: laser input %d", ErrInvalidArgument, cfg.Input)
	}
	return d.call(func(handle uint64) error {
		rc := d.lib.SetLaser(handle, input, model.EnableFrom(cfg.Enabled),
			cfg.GPIBAddress, source, cfg.MinNm, cfg.MaxNm, cfg.Speed)
		if rc != model.RcOK {
			return callError("SetLaser", rc)
		}
		if cfg.Enabled {
			d.input = input
		}
		return nil
	})
}

func (d *Device) SetSamplingResolution(pm uint32) error {
	return d.call(func(handle uint64) error {
		return check("SetSamplingResolution", d.lib.SetSamplingResolution(handle, pm))
	})
}

// ConfigureScan задает мощность лазера (мВт) и диапазон свипа (нм).
func (d *Device) ConfigureScan(powerMw, minNm, maxNm float64) error {
	return d.call(func(handle uint64) error {
		return check("SetScan", d.lib.SetScan(handle, powerMw, minNm, maxNm))
	})
}

func (d *Device) SetDetectorArray(arr models.DetectorArray) error {
	return d.call(func(handle uint64) error {
		return check("SetDetectorArray", d.lib.SetDetectorArray(handle,
			model.EnableFrom(arr.Detector2), model.EnableFrom(arr.Detector3),
			model.EnableFrom(arr.Detector4), model.EnableFrom(arr.External)))
	})
}

func (d *Device) SetBNC(cfg models.BNCConfig) error {
	unit, err := model.ParseUnit(cfg.Unit)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return d.call(func(handle uint64) error {
		return check("SetBNC", d.lib.SetBNC(handle, model.EnableFrom(cfg.Enabled), cfg.Alpha, cfg.Beta, unit))
	})
}

func (d *Device) SetExternalSync(enabled bool) error {
	return d.call(func(handle uint64) error {
		return check("SetExternalSynchronization", d.lib.SetExternalSynchronization(handle, model.EnableFrom(enabled)))
	})
}

func (d *Device) SetExternalSyncIn(enabled bool) error {
	return d.call(func(handle uint64) error {
		return check("SetExternalSynchronizationIN", d.lib.SetExternalSynchronizationIN(handle, model.EnableFrom(enabled)))
	})
}

func (d *Device) SwitchInput(input int32) error {
	in := model.LaserInput(input)
	if !in.Valid() {
		return fmt.Errorf("%w: laser input %d", ErrInvalidArgument, input)
	}
	return d.call(func(handle uint64) error {
		if rc := d.lib.SwitchInput(handle, in); rc != model.RcOK {
			return callError("SwitchInput", rc)
		}
		d.input = in
		return nil
	})
}

// StartScan запускает свип с текущей конфигурацией.
func (d *Device) StartScan() error {
	return d.call(func(handle uint64) error {
		if d.waiting {
			return ErrScanRunning
		}
		return check("ScanStart", d.lib.ScanStart(handle))
	})
}

// StopScan прерывает текущий свип.
func (d *Device) StopScan() error {
	return d.call(func(handle uint64) error {
		if rc := d.lib.ScanStop(handle); rc != model.RcOK {
			return fmt.Errorf("%w: %v", ErrNoScan, callError("ScanStop", rc))
		}
		return nil
	})
}

// WaitScan блокируется до конца свипа. Отмена ctx вызывает CT400_ScanStop,
// после чего WaitScan дожидается возврата из библиотеки.
func (d *Device) WaitScan(ctx context.Context) error {
	d.mu.Lock()
	handle := d.handle
	if handle == 0 {
		d.mu.Unlock()
		return ErrInvalidHandle
	}
	if d.waiting {
		d.mu.Unlock()
		return ErrScanRunning
	}
	d.waiting = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.waiting = false
		d.mu.Unlock()
	}()

	type waitResult struct {
		rc   int32
		text string
	}
	done := make(chan waitResult, 1)
	go func() {
		buf := make([]byte, model.ErrorBufferSize)
		rc := d.lib.ScanWaitEnd(handle, buf)
		if i := bytes.IndexByte(buf, 0); i >= 0 {
			buf = buf[:i]
		}
		done <- waitResult{rc: rc, text: string(buf)}
	}()

	var res waitResult
	select {
	case res = <-done:
	case <-ctx.Done():
		d.mu.Lock()
		if d.handle != 0 {
			d.lib.ScanStop(d.handle)
		}
		d.mu.Unlock()
		res = <-done
		if res.rc != model.RcOK {
			return fmt.Errorf("%w: %v", ctx.Err(), scanError(res.rc, res.text))
		}
	}

	if res.rc != model.RcOK {
		return scanError(res.rc, res.text)
	}
	return nil
}

// Points - количество точек последнего свипа.
type Points struct {
	Data      int32
	Discard   int32
	Resampled int32
	Lines     int32
}

// DataPoints возвращает размеры массивов последнего свипа.
func (d *Device) DataPoints() (Points, error) {
	var p Points
	err := d.call(func(handle uint64) error {
		if rc := d.lib.GetNbDataPoints(handle, &p.Data, &p.Discard); rc < 0 {
			return callError("GetNbDataPoints", rc)
		}
		p.Resampled = d.lib.GetNbDataPointsResampled(handle)
		if p.Resampled < 0 {
			return callError("GetNbDataPointsResampled", p.Resampled)
		}
		p.Lines = d.lib.GetNbLinesDetected(handle)
		if p.Lines < 0 {
			return callError("GetNbLinesDetected", p.Lines)
		}
		return nil
	})
	return p, err
}

// readArray запрашивает размер через count и заполняет массив через get.
func (d *Device) readArray(name string, count func(handle uint64) int32, get func(handle uint64, arr []float64) int32) ([]float64, error) {
	var out []float64
	err := d.call(func(handle uint64) error {
		n := count(handle)
		if n < 0 {
			return callError(name, n)
		}
		if n == 0 {
			out = []float64{}
			return nil
		}
		arr := make([]float64, n)
		rc := get(handle, arr)
		if rc < 0 {
			return callError(name, rc)
		}
		if int(rc) < len(arr) {
			arr = arr[:rc]
		}
		out = arr
		return nil
	})
	return out, err
}

func (d *Device) syncCount(handle uint64) int32 {
	var points, discard int32
	if rc := d.lib.GetNbDataPoints(handle, &points, &discard); rc < 0 {
		return rc
	}
	return points
}

func (d *Device) WavelengthSync() ([]float64, error) {
	return d.readArray("ScanGetWavelengthSyncArray", d.syncCount, d.lib.ScanGetWavelengthSyncArray)
}

func (d *Device) WavelengthResampled() ([]float64, error) {
	return d.readArray("ScanGetWavelengthResampledArray", d.lib.GetNbDataPointsResampled, d.lib.ScanGetWavelengthResampledArray)
}

func (d *Device) PowerSync() ([]float64, error) {
	return d.readArray("ScanGetPowerSyncArray", d.syncCount, d.lib.ScanGetPowerSyncArray)
}

func (d *Device) PowerResampled() ([]float64, error) {
	return d.readArray("ScanGetPowerResampledArray", d.lib.GetNbDataPointsResampled, d.lib.ScanGetPowerResampledArray)
}

func (d *Device) DetectorSync(det int32) ([]float64, error) {
	detector, err := scanDetector(det)
	if err != nil {
		return nil, err
	}
	return d.readArray("ScanGetDetectorArray", d.syncCount, func(handle uint64, arr []float64) int32 {
		return d.lib.ScanGetDetectorArray(handle, detector, arr)
	})
}

func (d *Device) DetectorResampled(det int32) ([]float64, error) {
	detector, err := scanDetector(det)
	if err != nil {
		return nil, err
	}
	return d.readArray("ScanGetDetectorResampledArray", d.lib.GetNbDataPointsResampled, func(handle uint64, arr []float64) int32 {
		return d.lib.ScanGetDetectorResampledArray(handle, detector, arr)
	})
}

// Lines возвращает спектральные линии, найденные гетеродинным детектированием.
func (d *Device) Lines() ([]float64, error) {
	return d.readArray("ScanGetLinesDetectionArray", d.lib.GetNbLinesDetected, d.lib.ScanGetLinesDetectionArray)
}

func scanDetector(det int32) (model.Detector, error) {
	detector := model.Detector(det)
	if !detector.Valid() {
		return 0, fmt.Errorf("%w: detector %d", ErrInvalidArgument, det)
	}
	return detector, nil
}

func (d *Device) save(name, path string, f func(handle uint64, path string) int32) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}
	return d.call(func(handle uint64) error {
		if rc := f(handle, path); rc != model.RcOK {
			return &CallError{Func: name, Code: rc, Message: path}
		}
		return nil
	})
}

func (d *Device) SaveWavelengthSyncFile(path string) error {
	return d.save("ScanSaveWavelengthSyncFile", path, d.lib.ScanSaveWavelengthSyncFile)
}

func (d *Device) SaveWavelengthResampledFile(path string) error {
	return d.save("ScanSaveWavelengthResampledFile", path, d.lib.ScanSaveWavelengthResampledFile)
}

func (d *Device) SavePowerSyncFile(path string) error {
	return d.save("ScanSavePowerSyncFile", path, d.lib.ScanSavePowerSyncFile)
}

func (d *Device) SavePowerResampledFile(path string) error {
	return d.save("ScanSavePowerResampledFile", path, d.lib.ScanSavePowerResampledFile)
}

func (d *Device) SaveDetectorFile(det int32, path string) error {
	detector, err := scanDetector(det)
	if err != nil {
		return err
	}
	return d.save("ScanSaveDetectorFile", path, func(handle uint64, p string) int32 {
		return d.lib.ScanSaveDetectorFile(handle, detector, p)
	})
}

func (d *Device) SaveDetectorResampledFile(det int32, path string) error {
	detector, err := scanDetector(det)
	if err != nil {
		return err
	}
	return d.save("ScanSaveDetectorResampledFile", path, func(handle uint64, p string) int32 {
		return d.lib.ScanSaveDetectorResampledFile(handle, detector, p)
	})
}

// UpdateCalibration делает последний свип детектора опорным уровнем 0 дБм.
func (d *Device) UpdateCalibration(det int32) error {
	detector, err := scanDetector(det)
	if err != nil {
		return err
	}
	return d.call(func(handle uint64) error {
		return check("UpdateCalibration", d.lib.UpdateCalibration(handle, detector))
	})
}

func (d *Device) ResetCalibration() error {
	return d.call(func(handle uint64) error {
		return check("ResetCalibration", d.lib.ResetCalibration(handle))
	})
}

// CmdLaser включает или выключает лазер на входе и задает длину волны и мощность.
func (d *Device) CmdLaser(input int32, enabled bool, wavelengthNm, powerMw float64) error {
	in := model.LaserInput(input)
	if !in.Valid() {
		return fmt.Errorf("%w: laser input %d", ErrInvalidArgument, input)
	}
	return d.call(func(handle uint64) error {
		return check("CmdLaser", d.lib.CmdLaser(handle, in, model.EnableFrom(enabled), wavelengthNm, powerMw))
	})
}

// ReadPower считывает мгновенную мощность на выходе и всех детекторах.
func (d *Device) ReadPower() (*models.PowerReading, error) {
	var r models.PowerReading
	err := d.call(func(handle uint64) error {
		return check("ReadPowerDetectors", d.lib.ReadPowerDetectors(handle, &r.Pout, &r.P1, &r.P2, &r.P3, &r.P4, &r.Vext))
	})
	if err != nil {
		return nil, err
	}
	r.Timestamp = time.Now()
	return &r, nil
}
