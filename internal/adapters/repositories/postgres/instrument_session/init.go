package instrument_session

import (
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	"gorm.io/gorm"
)

type InstrumentSessionRepositoryImpl struct {
	db *gorm.DB
}

func NewInstrumentSessionRepository(db *gorm.DB) interfaces.SessionRepository {
	return &InstrumentSessionRepositoryImpl{db: db}
}
