package simulator

import (
	"bufio"
	"fmt"
	"os"

	"github.com/iwtcode/ct400Adapter/yenista/model"
)

// writeColumn пишет значения в текстовый файл, по одному на строку.
func writeColumn(path string, values []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, v := range values {
		if _, err := fmt.Fprintf(w, "%.4f\n", v); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Simulator) saveFile(h uint64, path string, pick func(*scanData) ([]float64, bool)) int32 {
	if path == "" {
		return model.RcFail
	}

	s.mu.Lock()
	data, ok := s.scanResult(h)
	var values []float64
	if ok {
		values, ok = pick(data)
	}
	s.mu.Unlock()

	if !ok {
		return model.RcFail
	}
	if err := writeColumn(path, values); err != nil {
		return model.RcFail
	}
	return model.RcOK
}

func (s *Simulator) ScanSaveWavelengthSyncFile(h uint64, path string) int32 {
	return s.saveFile(h, path, func(d *scanData) ([]float64, bool) { return always(d.wavelengthSync) })
}

func (s *Simulator) ScanSaveWavelengthResampledFile(h uint64, path string) int32 {
	return s.saveFile(h, path, func(d *scanData) ([]float64, bool) { return always(d.grid) })
}

func (s *Simulator) ScanSavePowerSyncFile(h uint64, path string) int32 {
	return s.saveFile(h, path, func(d *scanData) ([]float64, bool) { return always(d.powerSync) })
}

func (s *Simulator) ScanSavePowerResampledFile(h uint64, path string) int32 {
	return s.saveFile(h, path, func(d *scanData) ([]float64, bool) { return always(d.powerRes) })
}

func (s *Simulator) ScanSaveDetectorFile(h uint64, det model.Detector, path string) int32 {
	return s.saveFile(h, path, func(d *scanData) ([]float64, bool) {
		v, ok := d.detectorSync[det]
		return v, ok
	})
}

func (s *Simulator) ScanSaveDetectorResampledFile(h uint64, det model.Detector, path string) int32 {
	return s.saveFile(h, path, func(d *scanData) ([]float64, bool) {
		v, ok := d.detectorRes[det]
		return v, ok
	})
}
