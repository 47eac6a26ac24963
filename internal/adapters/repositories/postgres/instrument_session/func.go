package instrument_session

import (
	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	"gorm.io/gorm"
)

func (r *InstrumentSessionRepositoryImpl) Create(session *entities.InstrumentSession) error {
	return r.db.Create(session).Error
}

// UpdateMonitorState обновляет статус и интервал опроса мощности
func (r *InstrumentSessionRepositoryImpl) UpdateMonitorState(sessionID, status string, interval int) error {
	updates := map[string]interface{}{
		"status":   status,
		"interval": interval,
	}
	result := r.db.Model(&entities.InstrumentSession{}).Where("session_id = ?", sessionID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *InstrumentSessionRepositoryImpl) Delete(sessionID string) error {
	result := r.db.Where("session_id = ?", sessionID).Delete(&entities.InstrumentSession{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *InstrumentSessionRepositoryImpl) GetBySessionID(sessionID string) (*entities.InstrumentSession, error) {
	var session entities.InstrumentSession
	err := r.db.Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetAll возвращает все сохраненные сессии
func (r *InstrumentSessionRepositoryImpl) GetAll() ([]entities.InstrumentSession, error) {
	var sessions []entities.InstrumentSession
	if err := r.db.Order("created_at").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
