package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	ct400 "github.com/iwtcode/ct400Adapter"
	"github.com/iwtcode/ct400Adapter/internal/adapters/repositories/memory"
	"github.com/iwtcode/ct400Adapter/internal/config"
	"github.com/iwtcode/ct400Adapter/internal/domain/models"
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	"github.com/iwtcode/ct400Adapter/internal/middleware/logging"
	"github.com/iwtcode/ct400Adapter/internal/services/ct400_service"
	"github.com/iwtcode/ct400Adapter/internal/usecases"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopProducer struct{}

func (nopProducer) Produce(context.Context, string, []byte, []byte) error { return nil }
func (nopProducer) Close() error                                          { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	profile := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("time_scale: 0.001\n"), 0o644))

	cfg := &config.AppConfig{
		GinMode:         gin.TestMode,
		KafkaScanTopic:  "scans",
		KafkaPowerTopic: "power",
		ExportDir:       t.TempDir(),
		ScanTimeout:     10 * time.Second,
		Instrument: &ct400.Config{
			Backend:        "simulator",
			SimProfile:     profile,
			GPIBAddress:    10,
			LaserModel:     "T100S_HP",
			LaserInput:     1,
			LaserMinNm:     1500,
			LaserMaxNm:     1630,
			DefaultPowerMw: 1,
			LogLevel:       "off",
		},
	}
	logger := logging.NewLogger(&logging.Config{Enabled: false}, "TEST")
	repo := memory.NewRepository()

	var producer interfaces.KafkaService = nopProducer{}
	svc := ct400_service.NewCT400Service(repo.Sessions(), repo.Scans(), producer, cfg, logger)
	t.Cleanup(svc.CloseAll)

	return ProvideRouter(NewHandler(usecases.NewUsecases(svc), logger), cfg)
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc), w.Body.String())
	return w, doc
}

func openSession(t *testing.T, h http.Handler) string {
	t.Helper()
	w, doc := do(t, h, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	info := doc["session_info"].(map[string]any)
	return info["session_id"].(string)
}

func TestSessionRoutes(t *testing.T) {
	h := newTestRouter(t)
	id := openSession(t, h)

	w, doc := do(t, h, http.MethodGet, "/api/v1/sessions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), doc["pool_size"])

	w, doc = do(t, h, http.MethodPost, "/api/v1/sessions/check", models.SessionRequest{SessionID: id})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", doc["status"])

	w, _ = do(t, h, http.MethodPost, "/api/v1/sessions/check", models.SessionRequest{SessionID: "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Backend: "gpib"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, http.MethodDelete, "/api/v1/sessions", models.SessionRequest{SessionID: id})
	assert.Equal(t, http.StatusOK, w.Code)

	w, doc = do(t, h, http.MethodDelete, "/api/v1/sessions", models.SessionRequest{SessionID: id})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", doc["status"])

	w, _ = do(t, h, http.MethodDelete, "/api/v1/sessions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestID(t *testing.T) {
	h := newTestRouter(t)

	w, _ := do(t, h, http.MethodGet, "/api/v1/sessions", nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestScanRoutes(t *testing.T) {
	h := newTestRouter(t)
	w, doc := do(t, h, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{LaserInput: 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := doc["session_info"].(map[string]any)["session_id"].(string)

	req := map[string]any{
		"session_id": id,
		"config":     map[string]any{"min_wavelength_nm": 1549, "max_wavelength_nm": 1551, "resolution_pm": 10},
		"options":    map[string]any{"detectors": []int{1, 2}, "heterodyne": true},
	}
	w, doc = do(t, h, http.MethodPost, "/api/v1/scan", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := doc["result"].(map[string]any)
	assert.Equal(t, float64(201), result["resampled_points"])
	assert.Len(t, result["detectors"], 2)
	assert.Len(t, result["lines_nm"], 1)

	bad := map[string]any{
		"session_id": id,
		"config":     map[string]any{"min_wavelength_nm": 1551, "max_wavelength_nm": 1549},
	}
	w, _ = do(t, h, http.MethodPost, "/api/v1/scan", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/scan/stop", models.SessionRequest{SessionID: id})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, doc = do(t, h, http.MethodGet, "/api/v1/scans?session_id="+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), doc["count"])

	w, _ = do(t, h, http.MethodGet, "/api/v1/scans?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInstrumentRoutes(t *testing.T) {
	h := newTestRouter(t)
	id := openSession(t, h)

	w, doc := do(t, h, http.MethodPost, "/api/v1/power", models.PowerRequest{SessionID: id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, doc["values"], 2)

	w, _ = do(t, h, http.MethodPost, "/api/v1/laser", map[string]any{"session_id": id, "enabled": true, "wavelength_nm": 1550})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/laser", map[string]any{"session_id": id})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, doc = do(t, h, http.MethodPost, "/api/v1/laser", map[string]any{"session_id": id, "enabled": false})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Laser switched off", doc["message"])

	w, _ = do(t, h, http.MethodPost, "/api/v1/calibration", map[string]any{"session_id": id, "action": "flatten"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/calibration", map[string]any{"session_id": id, "action": "reset"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMonitorRoutes(t *testing.T) {
	h := newTestRouter(t)
	id := openSession(t, h)

	w, _ := do(t, h, http.MethodPost, "/api/v1/monitor/start", models.MonitorRequest{SessionID: id})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/monitor/start", models.MonitorRequest{SessionID: "missing", Interval: 10})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/monitor/start", models.MonitorRequest{SessionID: id, Interval: 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = do(t, h, http.MethodPost, "/api/v1/scan", map[string]any{"session_id": id})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/monitor/stop", models.SessionRequest{SessionID: id})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/monitor/stop", models.SessionRequest{SessionID: id})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
