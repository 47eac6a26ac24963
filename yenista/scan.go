package yenista

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/iwtcode/ct400Adapter/models"
	"github.com/iwtcode/ct400Adapter/yenista/model"
)

// ParkWavelengthNm - длина волны, на которую лазер возвращается после свипа.
const ParkWavelengthNm = 1550.0

// Имена файлов, под которыми ExportFiles сохраняет данные свипа.
const (
	FileWavelengthResampled = "Lambda_Resampled.txt"
	FileWavelengthSync      = "Lambda_Sync.txt"
	FilePowerSync           = "Output_Sync.txt"
	FilePowerResampled      = "Output_Resampled.txt"
)

func detectorSyncFile(det int32) string {
	return fmt.Sprintf("Output_Detector%d_Sync.txt", det)
}

func detectorResampledFile(det int32) string {
	return fmt.Sprintf("Output_Detector%d_Resampled.txt", det)
}

// Configure применяет конфигурацию свипа в порядке
// SetLaser, SetScan, SetSamplingResolution, SetDetectorArray, SetBNC
// и затем настраивает внешнюю синхронизацию.
func (d *Device) Configure(cfg models.ScanConfig) error {
	if cfg.MinNm >= cfg.MaxNm {
		return fmt.Errorf("%w: scan range %.3f-%.3f nm", ErrInvalidArgument, cfg.MinNm, cfg.MaxNm)
	}
	if err := d.ConfigureLaser(cfg.Laser); err != nil {
		return err
	}
	if err := d.ConfigureScan(cfg.PowerMw, cfg.MinNm, cfg.MaxNm); err != nil {
		return err
	}
	if err := d.SetSamplingResolution(cfg.ResolutionPm); err != nil {
		return err
	}
	if err := d.SetDetectorArray(cfg.Detectors); err != nil {
		return err
	}
	if err := d.SetBNC(cfg.BNC); err != nil {
		return err
	}
	if err := d.SetExternalSync(cfg.ExternalSync); err != nil {
		return err
	}
	return d.SetExternalSyncIn(cfg.ExternalSyncIn)
}

// RunScan выполняет свип и забирает результаты.
// По умолчанию читается только детектор 1. При ParkLaser лазер текущего входа
// после свипа выставляется на 1550 нм.
func (d *Device) RunScan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error) {
	dets := req.Detectors
	if len(dets) == 0 {
		dets = []int32{int32(model.DE_1)}
	}
	for _, det := range dets {
		if _, err := scanDetector(det); err != nil {
			return nil, err
		}
	}

	started := time.Now()
	if err := d.StartScan(); err != nil {
		return nil, err
	}
	if err := d.WaitScan(ctx); err != nil {
		return nil, err
	}

	res := &models.ScanResult{StartedAt: started, Duration: time.Since(started)}

	points, err := d.DataPoints()
	if err != nil {
		return nil, err
	}
	res.DataPoints = points.Data
	res.DiscardPoints = points.Discard
	res.ResampledPoints = points.Resampled

	if res.Wavelengths, err = d.WavelengthResampled(); err != nil {
		return nil, err
	}
	if res.OutputPower, err = d.PowerResampled(); err != nil {
		return nil, err
	}
	for _, det := range dets {
		power, err := d.DetectorResampled(det)
		if err != nil {
			return nil, err
		}
		res.Detectors = append(res.Detectors, models.DetectorTrace{Detector: det, Power: power})
	}

	if req.IncludeSync {
		syncData := &models.SyncData{}
		if syncData.Wavelengths, err = d.WavelengthSync(); err != nil {
			return nil, err
		}
		if syncData.OutputPower, err = d.PowerSync(); err != nil {
			return nil, err
		}
		for _, det := range dets {
			power, err := d.DetectorSync(det)
			if err != nil {
				return nil, err
			}
			syncData.Detectors = append(syncData.Detectors, models.DetectorTrace{Detector: det, Power: power})
		}
		res.Sync = syncData
	}

	if req.Heterodyne {
		if res.Lines, err = d.Lines(); err != nil {
			return nil, err
		}
	}

	if req.ParkLaser {
		if err := d.CmdLaser(d.Input(), true, ParkWavelengthNm, req.ParkPowerMw); err != nil {
			return res, fmt.Errorf("scan done but laser park failed: %w", err)
		}
	}
	return res, nil
}

// ExportFiles сохраняет в dir все текстовые файлы последнего свипа.
func (d *Device) ExportFiles(dir string, detectors ...int32) (*models.ExportedFiles, error) {
	if len(detectors) == 0 {
		detectors = []int32{int32(model.DE_1)}
	}
	files := &models.ExportedFiles{
		WavelengthSync:      filepath.Join(dir, FileWavelengthSync),
		WavelengthResampled: filepath.Join(dir, FileWavelengthResampled),
		PowerSync:           filepath.Join(dir, FilePowerSync),
		PowerResampled:      filepath.Join(dir, FilePowerResampled),
		DetectorSync:        make(map[int32]string, len(detectors)),
		DetectorResampled:   make(map[int32]string, len(detectors)),
	}

	if err := d.SaveWavelengthResampledFile(files.WavelengthResampled); err != nil {
		return nil, err
	}
	if err := d.SaveWavelengthSyncFile(files.WavelengthSync); err != nil {
		return nil, err
	}
	for _, det := range detectors {
		syncPath := filepath.Join(dir, detectorSyncFile(det))
		if err := d.SaveDetectorFile(det, syncPath); err != nil {
			return nil, err
		}
		resPath := filepath.Join(dir, detectorResampledFile(det))
		if err := d.SaveDetectorResampledFile(det, resPath); err != nil {
			return nil, err
		}
		files.DetectorSync[det] = syncPath
		files.DetectorResampled[det] = resPath
	}
	if err := d.SavePowerSyncFile(files.PowerSync); err != nil {
		return nil, err
	}
	if err := d.SavePowerResampledFile(files.PowerResampled); err != nil {
		return nil, err
	}
	return files, nil
}
