package simulator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileKeepsDefaults(t *testing.T) {
	p, err := ParseProfile([]byte(`
devices: 2
type: 1
lines_nm: [1531.5, 1532.8]
features:
  - detector: 2
    center_nm: 1545
    depth_db: 3
    width_nm: 1
`))
	require.NoError(t, err)

	assert.Equal(t, 2, p.Devices)
	assert.Equal(t, int32(1), p.Type)
	assert.Equal(t, int32(4), p.Inputs, "незаданные поля берутся по умолчанию")
	assert.Equal(t, -80.0, p.NoiseFloorDBm)
	assert.Equal(t, []float64{1531.5, 1532.8}, p.Lines)
	require.Len(t, p.Features, 1)
	assert.Equal(t, int32(2), p.Features[0].Detector)
}

func TestParseProfileRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"inputs":    "inputs: 6",
		"detectors": "detectors: 0",
		"type":      "type: 7",
		"feature":   "features: [{detector: 9, center_nm: 1550, depth_db: 1, width_nm: 1}]",
		"width":     "features: [{detector: 1, center_nm: 1550, depth_db: 1, width_nm: 0}]",
		"yaml":      "devices: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProfile([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile().Devices, p.Devices)

	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("devices: 3\ntime_scale: 0\n"), 0o644))
	p, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Devices)
	assert.Equal(t, 0.0, p.TimeScale)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInterpolate(t *testing.T) {
	xs := []float64{1, 2, 4}
	ys := []float64{10, 20, 0}

	assert.Equal(t, 10.0, interpolate(xs, ys, 0))
	assert.Equal(t, 0.0, interpolate(xs, ys, 5))
	assert.InDelta(t, 15.0, interpolate(xs, ys, 1.5), 1e-12)
	assert.InDelta(t, 10.0, interpolate(xs, ys, 3), 1e-12)
	assert.InDelta(t, 20.0, interpolate(xs, ys, 2), 1e-12)
	assert.Equal(t, 0.0, interpolate(nil, nil, 3))
}

func TestResampleOntoGrid(t *testing.T) {
	xs := []float64{0, 1, 2}
	ys := []float64{0, 2, 4}
	got := resample(xs, ys, uniformGrid(0, 2, 0.5))
	assert.InDeltaSlice(t, []float64{0, 1, 2, 3, 4}, got, 1e-12)
}

func TestLinesInRange(t *testing.T) {
	got := linesInRange([]float64{1560, 1520, 1540}, 1530, 1560)
	assert.Equal(t, []float64{1540, 1560}, got)
}
