package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&Config{Enabled: true, Level: "INFO", LogsDir: dir}, "CT400")
	defer l.Close()

	l.WithPrefix("SESSIONS").Info("Session created", "sessionID", "abc", "backend")
	l.Debug("hidden at info level")

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "CT400 [SESSIONS] Session created")
	assert.Contains(t, out, "sessionID=abc")
	assert.Contains(t, out, "backend=\"?\"")
	assert.NotContains(t, out, "hidden at info level")
}

func TestLoggerDisabledCreatesNoFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := NewLogger(&Config{Enabled: false, Level: "DEBUG", LogsDir: dir}, "")
	l.Error("nothing")
	require.NoError(t, l.Close())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2000-01-01.log")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0644))
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	l := &Logger{config: &Config{Enabled: true, LogsDir: dir, SavingDays: 7}, logger: NewLogger(&Config{}, "").logger}
	l.removeOldLogs()

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "warning", parseLevel("WARN").String())
	assert.Equal(t, "debug", parseLevel("DEBUG").String())
	assert.Equal(t, "info", parseLevel("verbose").String())
}
