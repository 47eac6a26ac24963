package interfaces

import (
	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
)

// SessionRepository определяет контракт для работы с сохраненными сессиями CT400 в БД
type SessionRepository interface {
	Create(session *entities.InstrumentSession) error
	UpdateMonitorState(sessionID, status string, interval int) error
	Delete(sessionID string) error
	GetBySessionID(sessionID string) (*entities.InstrumentSession, error)
	GetAll() ([]entities.InstrumentSession, error)
}

// ScanRecordRepository хранит историю свипов
type ScanRecordRepository interface {
	Create(record *entities.ScanRecord) error
	// List возвращает последние записи, новые первыми. Пустой sessionID - все сессии.
	List(sessionID string, limit int) ([]entities.ScanRecord, error)
}

// Storage - хранилище сервиса: Postgres или память (DB_DRIVER=memory).
type Storage interface {
	Sessions() SessionRepository
	Scans() ScanRecordRepository
	Close() error
}
