package scan_record

import (
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	"gorm.io/gorm"
)

type ScanRecordRepositoryImpl struct {
	db *gorm.DB
}

func NewScanRecordRepository(db *gorm.DB) interfaces.ScanRecordRepository {
	return &ScanRecordRepositoryImpl{db: db}
}
