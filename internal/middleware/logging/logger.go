package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Enabled    bool   // Включено ли логирование
	Level      string // DEBUG, INFO, WARN, ERROR
	LogsDir    string // Директория для логов
	SavingDays uint   // Сколько дней хранить логи
}

type Logger struct {
	config *Config
	logger *logrus.Logger
	file   *os.File
	prefix string
}

func NewLogger(cfg *Config, prefix string) *Logger {
	l := &Logger{
		config: cfg,
		prefix: prefix,
	}

	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	base.SetLevel(parseLevel(cfg.Level))

	var output io.Writer = os.Stdout
	if !cfg.Enabled {
		output = io.Discard
	} else if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err == nil {
			logFile := filepath.Join(cfg.LogsDir, time.Now().Format("2006-01-02")+".log")
			if file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				l.file = file
				output = io.MultiWriter(os.Stdout, file)
			}
		}
	}
	base.SetOutput(output)
	l.logger = base

	if cfg.Enabled && cfg.LogsDir != "" && cfg.SavingDays > 0 {
		go l.cleanOldLogs()
	}

	return l
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logrus.InfoLevel // INFO по умолчанию
	}
	return lvl
}

func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := l.prefix
	if newPrefix != "" {
		newPrefix += " "
	}
	newPrefix += "[" + prefix + "]"

	return &Logger{
		config: l.config,
		logger: l.logger,
		file:   l.file,
		prefix: newPrefix,
	}
}

// Logrus отдает базовый логгер для библиотек, которые принимают *logrus.Logger.
func (l *Logger) Logrus() *logrus.Logger {
	return l.logger
}

func (l *Logger) cleanOldLogs() {
	l.removeOldLogs()
	for range time.Tick(24 * time.Hour) {
		l.removeOldLogs()
	}
}

func (l *Logger) removeOldLogs() {
	files, err := os.ReadDir(l.config.LogsDir)
	if err != nil {
		l.Error("Failed to read logs directory", "error", err)
		return
	}

	cutoff := time.Now().AddDate(0, 0, int(-l.config.SavingDays))
	for _, file := range files {
		if info, err := file.Info(); err == nil && !file.IsDir() && info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(l.config.LogsDir, file.Name())); err != nil {
				l.Error("Failed to delete old log file", "file", file.Name(), "error", err)
			}
		}
	}
}

func (l *Logger) log(level logrus.Level, msg string, fields ...interface{}) {
	if !l.logger.IsLevelEnabled(level) {
		return
	}

	entryFields := make(logrus.Fields, len(fields)/2+1)
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		var val interface{} = "?"
		if i+1 < len(fields) {
			val = fields[i+1]
		}
		entryFields[key] = val
	}

	if l.prefix != "" {
		msg = l.prefix + " " + msg
	}
	l.logger.WithFields(entryFields).Log(level, msg)
}

func (l *Logger) Debug(msg string, fields ...interface{}) { l.log(logrus.DebugLevel, msg, fields...) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.log(logrus.InfoLevel, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.log(logrus.WarnLevel, msg, fields...) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.log(logrus.ErrorLevel, msg, fields...) }

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
