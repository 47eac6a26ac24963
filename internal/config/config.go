package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	ct400 "github.com/iwtcode/ct400Adapter"
	"github.com/joho/godotenv"
)

// AppConfig содержит конфигурацию приложения
type AppConfig struct {
	ServerPort      string
	KafkaBroker     string
	KafkaScanTopic  string
	KafkaPowerTopic string
	GinMode         string
	ExportDir       string
	ScanTimeout     time.Duration
	MaxSessions     int
	Instrument      *ct400.Config
	Database        DatabaseConfig
	Logging         LoggerConfig
}

// LoggerConfig содержит настройки логгера
type LoggerConfig struct {
	Enable     bool
	LogsDir    string
	Level      string
	SavingDays int
}

// DatabaseConfig содержит конфигурацию для подключения к базе данных
type DatabaseConfig struct {
	Driver   string // postgres / memory
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

// LoadConfiguration загружает конфигурацию из .env файла или переменных окружения
func LoadConfiguration() (*AppConfig, error) {
	_ = godotenv.Load()

	config := &AppConfig{
		ServerPort:      getEnv("APP_PORT", "8082"),
		KafkaBroker:     getEnv("KAFKA_BROKER", "localhost:9092"),
		KafkaScanTopic:  getEnv("KAFKA_SCAN_TOPIC", "ct400_scans"),
		KafkaPowerTopic: getEnv("KAFKA_POWER_TOPIC", "ct400_power"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		ExportDir:       getEnv("EXPORT_DIR", "./exports"),
		ScanTimeout:     time.Duration(getEnvAsInt("SCAN_TIMEOUT_SEC", 120)) * time.Second,
		MaxSessions:     getEnvAsInt("MAX_SESSIONS", 4),
		Instrument:      ct400.Load(), // общие с CLI переменные CT400_*
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Username: getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "root"),
			DBName:   getEnv("DB_NAME", "ct400_db"),
		},
		Logging: LoggerConfig{
			Enable:     getEnvAsBool("LOGGER_ENABLE", true),
			LogsDir:    getEnv("LOGGER_LOGS_DIR", "./logs"),
			Level:      getEnv("LOGGER_LOG_LEVEL", "DEBUG"),
			SavingDays: getEnvAsInt("LOGGER_SAVING_DAYS", 7),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *AppConfig) validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("DB_DRIVER: unknown driver %q", c.Database.Driver)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("MAX_SESSIONS must be positive, got %d", c.MaxSessions)
	}
	if c.ScanTimeout <= 0 {
		return fmt.Errorf("SCAN_TIMEOUT_SEC must be positive, got %s", c.ScanTimeout)
	}
	if c.KafkaScanTopic == "" || c.KafkaPowerTopic == "" {
		return fmt.Errorf("kafka topics must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, _ := strconv.ParseBool(value)
	return val
}
