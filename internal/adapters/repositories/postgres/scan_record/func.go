package scan_record

import (
	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
)

func (r *ScanRecordRepositoryImpl) Create(record *entities.ScanRecord) error {
	return r.db.Create(record).Error
}

// List возвращает последние свипы, новые первыми
func (r *ScanRecordRepositoryImpl) List(sessionID string, limit int) ([]entities.ScanRecord, error) {
	query := r.db.Order("created_at DESC, id DESC").Limit(limit)
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	var records []entities.ScanRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
