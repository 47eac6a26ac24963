// Package simulator эмулирует CT400_lib.dll за той же таблицей функций,
// что и настоящая DLL. Используется для тестов и стендов без прибора.
package simulator

import (
	"math"
	"sync"
	"time"

	"github.com/iwtcode/ct400Adapter/yenista/model"
)

// Коды ошибок, которые эмулятор возвращает из ScanWaitEnd.
const (
	ScanErrStopped int32 = 1
	ScanErrFailed  int32 = 3
)

const (
	minSpeed      = 10
	maxSpeed      = 100
	maxResolution = 250
	maxPowerMw    = 20.0
	handleBase    = 0x4354_0000_0000
)

type laserState struct {
	configured bool
	enabled    bool
	gpib       int32
	source     model.LaserSource
	minNm      float64
	maxNm      float64
	speed      int32
}

type bncState struct {
	enabled bool
	alpha   float64
	beta    float64
	unit    model.Unit
}

type laserCmd struct {
	input      model.LaserInput
	enabled    bool
	wavelength float64
	powerMw    float64
}

type calibration struct {
	grid []float64
	loss []float64
}

type scanData struct {
	wavelengthSync []float64
	powerSync      []float64
	detectorSync   map[model.Detector][]float64
	grid           []float64
	powerRes       []float64
	detectorRes    map[model.Detector][]float64
	rawRes         map[model.Detector][]float64
	lines          []float64
}

type scanOutcome struct {
	code    int32
	message string
}

type session struct {
	lasers     [5]laserState
	selected   model.LaserInput
	resolution uint32
	scanPower  float64
	scanMin    float64
	scanMax    float64
	scanSet    bool
	detEnabled [6]bool
	bnc        bncState
	extSync    bool
	extSyncIn  bool
	cmd        laserCmd

	scanning bool
	stop     chan struct{}
	done     chan struct{}
	outcome  *scanOutcome
	data     *scanData
	cal      map[model.Detector]*calibration
}

// Simulator реализует model.Library.
type Simulator struct {
	mu       sync.Mutex
	profile  Profile
	next     uint64
	sessions map[uint64]*session
}

var _ model.Library = (*Simulator)(nil)

// New создает эмулятор с заданным профилем.
func New(p Profile) *Simulator {
	if err := p.normalize(); err != nil {
		p = DefaultProfile()
	}
	return &Simulator{
		profile:  p,
		next:     handleBase,
		sessions: make(map[uint64]*session),
	}
}

// Profile возвращает профиль эмулятора.
func (s *Simulator) Profile() Profile { return s.profile }

// lookup возвращает сессию по хендлу. Вызывается под s.mu.
func (s *Simulator) lookup(h uint64) (*session, bool) {
	if h == 0 {
		return nil, false
	}
	ss, ok := s.sessions[h]
	return ss, ok
}

// ready - сессия существует и прибор на связи.
func (s *Simulator) ready(h uint64) (*session, bool) {
	ss, ok := s.lookup(h)
	if !ok || s.profile.Disconnected {
		return nil, false
	}
	return ss, true
}

func (s *Simulator) Init(iError *int32) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	setErr := func(code int32) {
		if iError != nil {
			*iError = code
		}
	}

	if s.profile.IncompatibleFirmware {
		setErr(model.ErrFirmwareIncompatible)
		return 0
	}
	if len(s.sessions) >= s.profile.Devices {
		setErr(model.RcFail)
		return 0
	}

	s.next++
	h := s.next
	ss := &session{
		selected:   model.LI_1,
		resolution: 1,
		cal:        make(map[model.Detector]*calibration),
	}
	ss.detEnabled[model.DE_1] = true
	s.sessions[h] = ss
	setErr(model.RcOK)
	return h
}

func (s *Simulator) CheckConnected(h uint64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ready(h); !ok {
		return 0
	}
	return 1
}

func (s *Simulator) GetNbInputs(h uint64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(h); !ok {
		return model.RcFail
	}
	return s.profile.Inputs
}

func (s *Simulator) GetNbDetectors(h uint64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(h); !ok {
		return model.RcFail
	}
	return s.profile.Detectors
}

func (s *Simulator) GetCT400Type(h uint64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(h); !ok {
		return model.RcFail
	}
	return s.profile.Type
}

func (s *Simulator) validInput(in model.LaserInput) bool {
	return in.Valid() && int32(in) <= s.profile.Inputs
}

func (s *Simulator) SetLaser(h uint64, laser model.LaserInput, enable model.Enable, gpibAddress int32, laserType model.LaserSource, minWavelength, maxWavelength float64, speed int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || ss.scanning {
		return model.RcFail
	}
	if !s.validInput(laser) || !enable.Valid() || !laserType.Valid() {
		return model.RcFail
	}
	if gpibAddress < 0 || gpibAddress > 30 {
		return model.RcFail
	}
	if minWavelength <= 0 || minWavelength >= maxWavelength {
		return model.RcFail
	}
	if speed < minSpeed || speed > maxSpeed {
		return model.RcFail
	}

	ss.lasers[laser] = laserState{
		configured: true,
		enabled:    enable.Bool(),
		gpib:       gpibAddress,
		source:     laserType,
		minNm:      minWavelength,
		maxNm:      maxWavelength,
		speed:      speed,
	}
	return model.RcOK
}

func (s *Simulator) SetSamplingResolution(h uint64, resolution uint32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || ss.scanning {
		return model.RcFail
	}
	if resolution < 1 || resolution > maxResolution {
		return model.RcFail
	}
	ss.resolution = resolution
	return model.RcOK
}

func (s *Simulator) SetScan(h uint64, laserPower, minWavelength, maxWavelength float64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || ss.scanning {
		return model.RcFail
	}
	if laserPower <= 0 || laserPower > maxPowerMw {
		return model.RcFail
	}
	if minWavelength <= 0 || minWavelength >= maxWavelength {
		return model.RcFail
	}
	ss.scanPower = laserPower
	ss.scanMin = minWavelength
	ss.scanMax = maxWavelength
	ss.scanSet = true
	return model.RcOK
}

func (s *Simulator) SetDetectorArray(h uint64, det2, det3, det4, ext model.Enable) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || ss.scanning {
		return model.RcFail
	}
	flags := []model.Enable{det2, det3, det4, ext}
	for i, e := range flags {
		if !e.Valid() {
			return model.RcFail
		}
		det := model.Detector(i + 2)
		if e.Bool() && int32(det) > s.profile.Detectors && det != model.DE_5 {
			return model.RcFail
		}
	}
	ss.detEnabled[model.DE_2] = det2.Bool()
	ss.detEnabled[model.DE_3] = det3.Bool()
	ss.detEnabled[model.DE_4] = det4.Bool()
	ss.detEnabled[model.DE_5] = ext.Bool()
	return model.RcOK
}

func (s *Simulator) SetBNC(h uint64, enable model.Enable, alpha, beta float64, unit model.Unit) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || ss.scanning {
		return model.RcFail
	}
	if !enable.Valid() || !unit.Valid() {
		return model.RcFail
	}
	ss.bnc = bncState{enabled: enable.Bool(), alpha: alpha, beta: beta, unit: unit}
	return model.RcOK
}

func (s *Simulator) SetExternalSynchronization(h uint64, enable model.Enable) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || !enable.Valid() {
		return model.RcFail
	}
	ss.extSync = enable.Bool()
	return model.RcOK
}

func (s *Simulator) SetExternalSynchronizationIN(h uint64, enable model.Enable) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || !enable.Valid() {
		return model.RcFail
	}
	ss.extSyncIn = enable.Bool()
	return model.RcOK
}

func (s *Simulator) SwitchInput(h uint64, laser model.LaserInput) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || ss.scanning || !s.validInput(laser) {
		return model.RcFail
	}
	ss.selected = laser
	return model.RcOK
}

// scanLaser выбирает лазер для свипа: выбранный вход, если на нем включен
// лазер, иначе включенный лазер с наименьшим номером входа.
func (ss *session) scanLaser() (laserState, bool) {
	if l := ss.lasers[ss.selected]; l.configured && l.enabled {
		return l, true
	}
	for in := model.LI_1; in <= model.LI_4; in++ {
		if l := ss.lasers[in]; l.configured && l.enabled {
			return l, true
		}
	}
	return laserState{}, false
}

// heterodyneSource сообщает, подключен ли источник на вход 2 или 4:
// только тогда прибор детектирует спектральные линии.
func (ss *session) heterodyneSource() bool {
	for _, in := range []model.LaserInput{model.LI_2, model.LI_4} {
		if l := ss.lasers[in]; l.configured && l.enabled {
			return true
		}
	}
	return false
}

func (s *Simulator) ScanStart(h uint64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || ss.scanning || !ss.scanSet {
		return model.RcFail
	}
	laser, ok := ss.scanLaser()
	if !ok {
		return model.RcFail
	}
	if ss.scanMin < laser.minNm || ss.scanMax > laser.maxNm {
		return model.RcFail
	}

	sweep := time.Duration((ss.scanMax - ss.scanMin) / float64(laser.speed) * s.profile.TimeScale * float64(time.Second))

	ss.scanning = true
	ss.outcome = nil
	ss.data = nil
	ss.stop = make(chan struct{})
	ss.done = make(chan struct{})

	go s.sweep(ss, sweep, ss.stop, ss.done)
	return model.RcOK
}

// sweep ждет окончания эмулированного свипа или остановки.
func (s *Simulator) sweep(ss *session, d time.Duration, stop, done chan struct{}) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	var outcome scanOutcome
	select {
	case <-stop:
		outcome = scanOutcome{code: ScanErrStopped, message: "Scan stopped by user"}
	case <-timer.C:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if outcome.code == 0 && s.profile.FailScans != "" {
		outcome = scanOutcome{code: ScanErrFailed, message: s.profile.FailScans}
	}
	if outcome.code == 0 {
		ss.data = s.acquire(ss)
	}
	ss.outcome = &outcome
	ss.scanning = false
	close(done)
}

// acquire формирует массивы результатов свипа. Вызывается под s.mu.
func (s *Simulator) acquire(ss *session) *scanData {
	step := float64(ss.resolution) / 1000
	pout := mwToDBm(ss.scanPower)

	data := &scanData{
		wavelengthSync: syncGrid(ss.scanMin, ss.scanMax, step),
		grid:           uniformGrid(ss.scanMin, ss.scanMax, step),
		detectorSync:   make(map[model.Detector][]float64),
		detectorRes:    make(map[model.Detector][]float64),
		rawRes:         make(map[model.Detector][]float64),
	}
	if ss.heterodyneSource() {
		data.lines = linesInRange(s.profile.Lines, ss.scanMin, ss.scanMax)
	}

	data.powerSync = make([]float64, len(data.wavelengthSync))
	for i, w := range data.wavelengthSync {
		data.powerSync[i] = pout + 0.01*math.Sin(w*3)
	}
	data.powerRes = resample(data.wavelengthSync, data.powerSync, data.grid)

	for det := model.DE_1; det <= model.DE_5; det++ {
		if !ss.detEnabled[det] {
			continue
		}
		raw := make([]float64, len(data.wavelengthSync))
		for i, w := range data.wavelengthSync {
			raw[i] = s.detectorValue(ss, det, w, data.powerSync[i])
		}
		data.rawRes[det] = resample(data.wavelengthSync, raw, data.grid)

		synced := raw
		if cal, ok := ss.cal[det]; ok && det != model.DE_5 {
			synced = make([]float64, len(raw))
			for i, w := range data.wavelengthSync {
				synced[i] = raw[i] + interpolate(cal.grid, cal.loss, w)
			}
		}
		data.detectorSync[det] = synced
		data.detectorRes[det] = resample(data.wavelengthSync, synced, data.grid)
	}
	return data
}

// detectorValue - показание детектора без калибровки.
func (s *Simulator) detectorValue(ss *session, det model.Detector, w, poutDBm float64) float64 {
	if det == model.DE_5 {
		return ss.bncValue(w)
	}
	if int32(det) > s.profile.Detectors {
		return s.profile.NoiseFloorDBm
	}
	return math.Max(poutDBm-s.profile.lossDB(int32(det), w), s.profile.NoiseFloorDBm)
}

// bncValue - значение на входе BNC C: напряжение или, при включенном
// преобразовании, alpha*x + beta.
func (ss *session) bncValue(w float64) float64 {
	v := 1.0 + 0.1*math.Sin(w)
	if !ss.bnc.enabled {
		return v
	}
	return ss.bnc.alpha*v + ss.bnc.beta
}

func (s *Simulator) ScanStop(h uint64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.lookup(h)
	if !ok || !ss.scanning {
		return model.RcFail
	}
	select {
	case <-ss.stop:
	default:
		close(ss.stop)
	}
	return model.RcOK
}

func (s *Simulator) ScanWaitEnd(h uint64, tcError []byte) int32 {
	s.mu.Lock()
	ss, ok := s.lookup(h)
	if !ok {
		s.mu.Unlock()
		writeCString(tcError, "Invalid handle")
		return model.RcFail
	}
	done := ss.done
	s.mu.Unlock()

	if done == nil {
		writeCString(tcError, "No scan started")
		return model.RcFail
	}
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	outcome := ss.outcome
	if outcome == nil {
		writeCString(tcError, "Scan state lost")
		return model.RcFail
	}
	writeCString(tcError, outcome.message)
	return outcome.code
}

// writeCString копирует msg в буфер с завершающим нулем, не выходя за его границы.
func writeCString(buf []byte, msg string) {
	if len(buf) == 0 {
		return
	}
	n := copy(buf[:len(buf)-1], msg)
	buf[n] = 0
}

func (s *Simulator) scanResult(h uint64) (*scanData, bool) {
	ss, ok := s.lookup(h)
	if !ok || ss.scanning || ss.data == nil {
		return nil, false
	}
	return ss.data, true
}

func (s *Simulator) GetNbDataPoints(h uint64, dataPoints, discardPoints *int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.scanResult(h)
	if !ok {
		return model.RcFail
	}
	if dataPoints != nil {
		*dataPoints = int32(len(data.wavelengthSync))
	}
	if discardPoints != nil {
		*discardPoints = s.profile.DiscardPoints
	}
	return model.RcOK
}

func (s *Simulator) GetNbDataPointsResampled(h uint64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.scanResult(h)
	if !ok {
		return model.RcFail
	}
	return int32(len(data.grid))
}

func (s *Simulator) GetNbLinesDetected(h uint64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.scanResult(h)
	if !ok {
		return model.RcFail
	}
	return int32(len(data.lines))
}

// fill копирует src в arr в пределах его емкости.
func fill(arr, src []float64) int32 {
	if len(arr) == 0 {
		return model.RcFail
	}
	return int32(copy(arr, src))
}

func (s *Simulator) getArray(h uint64, arr []float64, pick func(*scanData) ([]float64, bool)) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.scanResult(h)
	if !ok {
		return model.RcFail
	}
	src, ok := pick(data)
	if !ok {
		return model.RcFail
	}
	return fill(arr, src)
}

func always(v []float64) ([]float64, bool) { return v, true }

func (s *Simulator) ScanGetLinesDetectionArray(h uint64, arr []float64) int32 {
	return s.getArray(h, arr, func(d *scanData) ([]float64, bool) { return always(d.lines) })
}

func (s *Simulator) ScanGetWavelengthSyncArray(h uint64, arr []float64) int32 {
	return s.getArray(h, arr, func(d *scanData) ([]float64, bool) { return always(d.wavelengthSync) })
}

func (s *Simulator) ScanGetWavelengthResampledArray(h uint64, arr []float64) int32 {
	return s.getArray(h, arr, func(d *scanData) ([]float64, bool) { return always(d.grid) })
}

func (s *Simulator) ScanGetPowerSyncArray(h uint64, arr []float64) int32 {
	return s.getArray(h, arr, func(d *scanData) ([]float64, bool) { return always(d.powerSync) })
}

func (s *Simulator) ScanGetPowerResampledArray(h uint64, arr []float64) int32 {
	return s.getArray(h, arr, func(d *scanData) ([]float64, bool) { return always(d.powerRes) })
}

func (s *Simulator) ScanGetDetectorArray(h uint64, det model.Detector, arr []float64) int32 {
	return s.getArray(h, arr, func(d *scanData) ([]float64, bool) {
		v, ok := d.detectorSync[det]
		return v, ok
	})
}

func (s *Simulator) ScanGetDetectorResampledArray(h uint64, det model.Detector, arr []float64) int32 {
	return s.getArray(h, arr, func(d *scanData) ([]float64, bool) {
		v, ok := d.detectorRes[det]
		return v, ok
	})
}

func (s *Simulator) UpdateCalibration(h uint64, det model.Detector) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || !det.Valid() || det == model.DE_5 {
		return model.RcFail
	}
	data, ok := s.scanResult(h)
	if !ok {
		return model.RcFail
	}
	raw, ok := data.rawRes[det]
	if !ok {
		return model.RcFail
	}

	cal := &calibration{
		grid: append([]float64(nil), data.grid...),
		loss: make([]float64, len(raw)),
	}
	for i := range raw {
		cal.loss[i] = data.powerRes[i] - raw[i]
	}
	ss.cal[det] = cal
	return model.RcOK
}

func (s *Simulator) ResetCalibration(h uint64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok {
		return model.RcFail
	}
	ss.cal = make(map[model.Detector]*calibration)
	return model.RcOK
}

func (s *Simulator) CmdLaser(h uint64, laser model.LaserInput, enable model.Enable, wavelength, power float64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok || ss.scanning || !s.validInput(laser) || !enable.Valid() {
		return model.RcFail
	}
	l := ss.lasers[laser]
	if !l.configured {
		return model.RcFail
	}
	if enable.Bool() {
		if wavelength < l.minNm || wavelength > l.maxNm {
			return model.RcFail
		}
		if power <= 0 || power > maxPowerMw {
			return model.RcFail
		}
	}
	ss.cmd = laserCmd{input: laser, enabled: enable.Bool(), wavelength: wavelength, powerMw: power}
	return model.RcOK
}

func (s *Simulator) ReadPowerDetectors(h uint64, pout, p1, p2, p3, p4, vext *float64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.ready(h)
	if !ok {
		return model.RcFail
	}

	out := s.profile.NoiseFloorDBm
	if ss.cmd.enabled {
		out = mwToDBm(ss.cmd.powerMw)
	}
	w := ss.cmd.wavelength

	set := func(p *float64, v float64) {
		if p != nil {
			*p = v
		}
	}
	set(pout, out)
	for i, p := range []*float64{p1, p2, p3, p4} {
		det := model.Detector(i + 1)
		if !ss.cmd.enabled {
			set(p, s.profile.NoiseFloorDBm)
			continue
		}
		v := s.detectorValue(ss, det, w, out)
		if cal, ok := ss.cal[det]; ok {
			v += interpolate(cal.grid, cal.loss, w)
		}
		set(p, v)
	}
	set(vext, ss.bncValue(w))
	return model.RcOK
}

func (s *Simulator) Close(h uint64) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.lookup(h)
	if !ok {
		return model.RcFail
	}
	if ss.scanning {
		select {
		case <-ss.stop:
		default:
			close(ss.stop)
		}
	}
	delete(s.sessions, h)
	return model.RcOK
}
