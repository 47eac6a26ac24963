//go:build cgo && ct400dll

package yenista

/*
#cgo CFLAGS: -I${SRCDIR}
#cgo LDFLAGS: -L${SRCDIR} -lCT400_lib
#cgo linux LDFLAGS: -Wl,-rpath,${SRCDIR}

#include <stdlib.h>
#include "ct400_helpers.h"
*/
import "C"

import (
	"unsafe"

	"github.com/iwtcode/ct400Adapter/yenista/model"
)

// dllLibrary вызывает экспорты CT400_lib напрямую через cgo.
type dllLibrary struct{}

var _ model.Library = dllLibrary{}

// NativeAvailable сообщает, собран ли бинарник с нативной библиотекой.
const NativeAvailable = true

func OpenDLL() (model.Library, error) {
	return dllLibrary{}, nil
}

func h(handle uint64) C.uint64_t { return C.uint64_t(handle) }

func f64ptr(arr []float64) *C.double {
	if len(arr) == 0 {
		return nil
	}
	return (*C.double)(unsafe.Pointer(&arr[0]))
}

func withPath(path string, fn func(*C.char) C.int32_t) int32 {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return int32(fn(cpath))
}

func (dllLibrary) Init(iError *int32) uint64 {
	var code C.int32_t
	handle := C.CT400_Init(&code)
	if iError != nil {
		*iError = int32(code)
	}
	return uint64(handle)
}

func (dllLibrary) CheckConnected(handle uint64) int32 {
	return int32(C.CT400_CheckConnected(h(handle)))
}

func (dllLibrary) GetNbInputs(handle uint64) int32 {
	return int32(C.CT400_GetNbInputs(h(handle)))
}

func (dllLibrary) GetNbDetectors(handle uint64) int32 {
	return int32(C.CT400_GetNbDetectors(h(handle)))
}

func (dllLibrary) GetCT400Type(handle uint64) int32 {
	return int32(C.CT400_GetCT400Type(h(handle)))
}

func (dllLibrary) SetLaser(handle uint64, laser model.LaserInput, enable model.Enable, gpibAddress int32, laserType model.LaserSource, minWavelength, maxWavelength float64, speed int32) int32 {
	return int32(C.CT400_SetLaser(h(handle), C.int32_t(laser), C.int32_t(enable), C.int32_t(gpibAddress),
		C.int32_t(laserType), C.double(minWavelength), C.double(maxWavelength), C.int32_t(speed)))
}

func (dllLibrary) SetSamplingResolution(handle uint64, resolution uint32) int32 {
	return int32(C.CT400_SetSamplingResolution(h(handle), C.uint32_t(resolution)))
}

func (dllLibrary) SetScan(handle uint64, laserPower, minWavelength, maxWavelength float64) int32 {
	return int32(C.CT400_SetScan(h(handle), C.double(laserPower), C.double(minWavelength), C.double(maxWavelength)))
}

func (dllLibrary) SetDetectorArray(handle uint64, det2, det3, det4, ext model.Enable) int32 {
	return int32(C.CT400_SetDetectorArray(h(handle), C.int32_t(det2), C.int32_t(det3), C.int32_t(det4), C.int32_t(ext)))
}

func (dllLibrary) SetBNC(handle uint64, enable model.Enable, alpha, beta float64, unit model.Unit) int32 {
	return int32(C.CT400_SetBNC(h(handle), C.int32_t(enable), C.double(alpha), C.double(beta), C.int32_t(unit)))
}

func (dllLibrary) SetExternalSynchronization(handle uint64, enable model.Enable) int32 {
	return int32(C.CT400_SetExternalSynchronization(h(handle), C.int32_t(enable)))
}

func (dllLibrary) SetExternalSynchronizationIN(handle uint64, enable model.Enable) int32 {
	return int32(C.CT400_SetExternalSynchronizationIN(h(handle), C.int32_t(enable)))
}

func (dllLibrary) ScanStart(handle uint64) int32 {
	return int32(C.CT400_ScanStart(h(handle)))
}

func (dllLibrary) ScanStop(handle uint64) int32 {
	return int32(C.CT400_ScanStop(h(handle)))
}

// ScanWaitEnd требует буфер не меньше model.ErrorBufferSize: библиотека пишет в него без проверки длины.
func (dllLibrary) ScanWaitEnd(handle uint64, tcError []byte) int32 {
	buf := tcError
	if len(buf) < model.ErrorBufferSize {
		buf = make([]byte, model.ErrorBufferSize)
	}
	rc := int32(C.CT400_ScanWaitEnd(h(handle), (*C.char)(unsafe.Pointer(&buf[0]))))
	if len(tcError) > 0 && len(tcError) < model.ErrorBufferSize {
		n := copy(tcError, buf[:len(tcError)-1])
		tcError[n] = 0
	}
	return rc
}

func (dllLibrary) GetNbDataPoints(handle uint64, dataPoints, discardPoints *int32) int32 {
	var points, discard C.int32_t
	rc := int32(C.CT400_GetNbDataPoints(h(handle), &points, &discard))
	if dataPoints != nil {
		*dataPoints = int32(points)
	}
	if discardPoints != nil {
		*discardPoints = int32(discard)
	}
	return rc
}

func (dllLibrary) GetNbDataPointsResampled(handle uint64) int32 {
	return int32(C.CT400_GetNbDataPointsResampled(h(handle)))
}

func (dllLibrary) GetNbLinesDetected(handle uint64) int32 {
	return int32(C.CT400_GetNbLinesDetected(h(handle)))
}

func (dllLibrary) ScanGetLinesDetectionArray(handle uint64, arr []float64) int32 {
	return int32(C.CT400_ScanGetLinesDetectionArray(h(handle), f64ptr(arr), C.int32_t(len(arr))))
}

func (dllLibrary) ScanGetWavelengthSyncArray(handle uint64, arr []float64) int32 {
	return int32(C.CT400_ScanGetWavelengthSyncArray(h(handle), f64ptr(arr), C.int32_t(len(arr))))
}

func (dllLibrary) ScanGetWavelengthResampledArray(handle uint64, arr []float64) int32 {
	return int32(C.CT400_ScanGetWavelengthResampledArray(h(handle), f64ptr(arr), C.int32_t(len(arr))))
}

func (dllLibrary) ScanGetPowerSyncArray(handle uint64, arr []float64) int32 {
	return int32(C.CT400_ScanGetPowerSyncArray(h(handle), f64ptr(arr), C.int32_t(len(arr))))
}

func (dllLibrary) ScanGetPowerResampledArray(handle uint64, arr []float64) int32 {
	return int32(C.CT400_ScanGetPowerResampledArray(h(handle), f64ptr(arr), C.int32_t(len(arr))))
}

func (dllLibrary) ScanGetDetectorArray(handle uint64, det model.Detector, arr []float64) int32 {
	return int32(C.CT400_ScanGetDetectorArray(h(handle), C.int32_t(det), f64ptr(arr), C.int32_t(len(arr))))
}

func (dllLibrary) ScanGetDetectorResampledArray(handle uint64, det model.Detector, arr []float64) int32 {
	return int32(C.CT400_ScanGetDetectorResampledArray(h(handle), C.int32_t(det), f64ptr(arr), C.int32_t(len(arr))))
}

func (dllLibrary) ScanSaveWavelengthSyncFile(handle uint64, path string) int32 {
	return withPath(path, func(p *C.char) C.int32_t { return C.CT400_ScanSaveWavelengthSyncFile(h(handle), p) })
}

func (dllLibrary) ScanSaveWavelengthResampledFile(handle uint64, path string) int32 {
	return withPath(path, func(p *C.char) C.int32_t { return C.CT400_ScanSaveWavelengthResampledFile(h(handle), p) })
}

func (dllLibrary) ScanSavePowerSyncFile(handle uint64, path string) int32 {
	return withPath(path, func(p *C.char) C.int32_t { return C.CT400_ScanSavePowerSyncFile(h(handle), p) })
}

func (dllLibrary) ScanSavePowerResampledFile(handle uint64, path string) int32 {
	return withPath(path, func(p *C.char) C.int32_t { return C.CT400_ScanSavePowerResampledFile(h(handle), p) })
}

func (dllLibrary) ScanSaveDetectorFile(handle uint64, det model.Detector, path string) int32 {
	return withPath(path, func(p *C.char) C.int32_t {
		return C.CT400_ScanSaveDetectorFile(h(handle), C.int32_t(det), p)
	})
}

func (dllLibrary) ScanSaveDetectorResampledFile(handle uint64, det model.Detector, path string) int32 {
	return withPath(path, func(p *C.char) C.int32_t {
		return C.CT400_ScanSaveDetectorResampledFile(h(handle), C.int32_t(det), p)
	})
}

func (dllLibrary) UpdateCalibration(handle uint64, det model.Detector) int32 {
	return int32(C.CT400_UpdateCalibration(h(handle), C.int32_t(det)))
}

func (dllLibrary) ResetCalibration(handle uint64) int32 {
	return int32(C.CT400_ResetCalibration(h(handle)))
}

func (dllLibrary) SwitchInput(handle uint64, laser model.LaserInput) int32 {
	return int32(C.CT400_SwitchInput(h(handle), C.int32_t(laser)))
}

func (dllLibrary) ReadPowerDetectors(handle uint64, pout, p1, p2, p3, p4, vext *float64) int32 {
	var o, d1, d2, d3, d4, v C.double
	rc := int32(C.CT400_ReadPowerDetectors(h(handle), &o, &d1, &d2, &d3, &d4, &v))
	for _, pair := range []struct {
		dst *float64
		src C.double
	}{{pout, o}, {p1, d1}, {p2, d2}, {p3, d3}, {p4, d4}, {vext, v}} {
		if pair.dst != nil {
			*pair.dst = float64(pair.src)
		}
	}
	return rc
}

func (dllLibrary) CmdLaser(handle uint64, laser model.LaserInput, enable model.Enable, wavelength, power float64) int32 {
	return int32(C.CT400_CmdLaser(h(handle), C.int32_t(laser), C.int32_t(enable), C.double(wavelength), C.double(power)))
}

func (dllLibrary) Close(handle uint64) int32 {
	return int32(C.CT400_Close(h(handle)))
}
