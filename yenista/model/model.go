package model

import (
	"fmt"
	"strings"
)

// Коды возврата CT400_lib.
const (
	RcOK   int32 = 0
	RcFail int32 = -1

	// ErrFirmwareIncompatible возвращается CT400_Init через iError,
	// если версия прошивки DSP не совместима с DLL.
	ErrFirmwareIncompatible int32 = -1001
)

// ErrorBufferSize - размер буфера tcError для CT400_ScanWaitEnd.
const ErrorBufferSize = 1024

// LaserSource - модель лазера, подключенного к CT400 (rLaserSource).
type LaserSource int32

const (
	LS_TunicsPlus LaserSource = iota
	LS_TunicsPurity
	LS_TunicsReference
	LS_TunicsT100s_HP
	LS_TunicsT100r
	LS_JdsuSws
	LS_Agilent
	NB_SOURCE
)

var laserSourceNames = [...]string{
	LS_TunicsPlus:      "TUNICS_PLUS",
	LS_TunicsPurity:    "TUNICS_PURITY",
	LS_TunicsReference: "TUNICS_REFERENCE",
	LS_TunicsT100s_HP:  "T100S_HP",
	LS_TunicsT100r:     "T100R",
	LS_JdsuSws:         "JDSU_SWS",
	LS_Agilent:         "AGILENT",
}

func (s LaserSource) Valid() bool { return s >= LS_TunicsPlus && s < NB_SOURCE }

func (s LaserSource) String() string {
	if !s.Valid() {
		return fmt.Sprintf("LaserSource(%d)", int32(s))
	}
	return laserSourceNames[s]
}

// ParseLaserSource разбирает имя модели лазера без учета регистра.
func ParseLaserSource(name string) (LaserSource, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, v := range laserSourceNames {
		if v == n {
			return LaserSource(i), nil
		}
	}
	return 0, fmt.Errorf("unknown laser source %q", name)
}

// LaserInput - номер лазерного входа CT400 (rLaserInput).
type LaserInput int32

const (
	LI_1 LaserInput = iota + 1
	LI_2
	LI_3
	LI_4
)

func (i LaserInput) Valid() bool { return i >= LI_1 && i <= LI_4 }

func (i LaserInput) String() string { return fmt.Sprintf("LI_%d", int32(i)) }

// Detector - номер детектора (rDetector). DE_out не входит в перечисление DLL,
// им обозначается выходная мощность при чтении показаний.
type Detector int32

const (
	DE_out Detector = iota
	DE_1
	DE_2
	DE_3
	DE_4
	DE_5
)

// Valid сообщает, может ли детектор передаваться в функции DLL.
func (d Detector) Valid() bool { return d >= DE_1 && d <= DE_5 }

func (d Detector) String() string {
	if d == DE_out {
		return "DE_out"
	}
	return fmt.Sprintf("DE_%d", int32(d))
}

// Enable - rEnable.
type Enable int32

const (
	DISABLE Enable = iota
	ENABLE
)

// EnableFrom переводит bool в Enable.
func EnableFrom(b bool) Enable {
	if b {
		return ENABLE
	}
	return DISABLE
}

func (e Enable) Valid() bool { return e == DISABLE || e == ENABLE }

func (e Enable) Bool() bool { return e == ENABLE }

// Unit - единицы внешнего детектора BNC (rUnit).
type Unit int32

const (
	Unit_mW Unit = iota
	Unit_dBm
)

func (u Unit) Valid() bool { return u == Unit_mW || u == Unit_dBm }

func (u Unit) String() string {
	switch u {
	case Unit_mW:
		return "mW"
	case Unit_dBm:
		return "dBm"
	}
	return fmt.Sprintf("Unit(%d)", int32(u))
}

// ParseUnit разбирает "mW" или "dBm".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mw", "":
		return Unit_mW, nil
	case "dbm":
		return Unit_dBm, nil
	}
	return 0, fmt.Errorf("unknown unit %q", s)
}

// CT400Type - исполнение прибора, возвращаемое CT400_GetCT400Type.
type CT400Type int32

const (
	TypeSMF CT400Type = iota
	TypePM13
	TypePM15
)

func (t CT400Type) String() string {
	switch t {
	case TypeSMF:
		return "SMF"
	case TypePM13:
		return "PM13"
	case TypePM15:
		return "PM15"
	}
	return fmt.Sprintf("CT400Type(%d)", int32(t))
}

// Library - таблица экспортируемых функций CT400_lib.dll.
// Сигнатуры повторяют C ABI: коды возврата int32, массивы передаются
// срезами (указатель и емкость), выходные параметры - указателями.
// Реализации: привязка к DLL через cgo и программный симулятор.
type Library interface {
	Init(iError *int32) uint64
	CheckConnected(h uint64) int32
	GetNbInputs(h uint64) int32
	GetNbDetectors(h uint64) int32
	GetCT400Type(h uint64) int32

	SetLaser(h uint64, laser LaserInput, enable Enable, gpibAddress int32, laserType LaserSource, minWavelength, maxWavelength float64, speed int32) int32
	SetSamplingResolution(h uint64, resolution uint32) int32
	SetScan(h uint64, laserPower, minWavelength, maxWavelength float64) int32
	SetDetectorArray(h uint64, det2, det3, det4, ext Enable) int32
	SetBNC(h uint64, enable Enable, alpha, beta float64, unit Unit) int32
	SetExternalSynchronization(h uint64, enable Enable) int32
	SetExternalSynchronizationIN(h uint64, enable Enable) int32

	ScanStart(h uint64) int32
	ScanStop(h uint64) int32
	ScanWaitEnd(h uint64, tcError []byte) int32

	GetNbDataPoints(h uint64, dataPoints, discardPoints *int32) int32
	GetNbDataPointsResampled(h uint64) int32
	GetNbLinesDetected(h uint64) int32

	ScanGetLinesDetectionArray(h uint64, arr []float64) int32
	ScanGetWavelengthSyncArray(h uint64, arr []float64) int32
	ScanGetWavelengthResampledArray(h uint64, arr []float64) int32
	ScanGetPowerSyncArray(h uint64, arr []float64) int32
	ScanGetPowerResampledArray(h uint64, arr []float64) int32
	ScanGetDetectorArray(h uint64, det Detector, arr []float64) int32
	ScanGetDetectorResampledArray(h uint64, det Detector, arr []float64) int32

	ScanSaveWavelengthSyncFile(h uint64, path string) int32
	ScanSaveWavelengthResampledFile(h uint64, path string) int32
	ScanSavePowerSyncFile(h uint64, path string) int32
	ScanSavePowerResampledFile(h uint64, path string) int32
	ScanSaveDetectorFile(h uint64, det Detector, path string) int32
	ScanSaveDetectorResampledFile(h uint64, det Detector, path string) int32

	UpdateCalibration(h uint64, det Detector) int32
	ResetCalibration(h uint64) int32
	SwitchInput(h uint64, laser LaserInput) int32
	ReadPowerDetectors(h uint64, pout, p1, p2, p3, p4, vext *float64) int32
	CmdLaser(h uint64, laser LaserInput, enable Enable, wavelength, power float64) int32

	Close(h uint64) int32
}
