package ct400_service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/iwtcode/ct400Adapter/internal/config"
	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	"github.com/iwtcode/ct400Adapter/internal/domain/models"
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	"github.com/iwtcode/ct400Adapter/internal/middleware/logging"
	apperrors "github.com/iwtcode/ct400Adapter/pkg/errors"
	instrument "github.com/iwtcode/ct400Adapter/models"
)

const defaultHistoryLimit = 50

// ScanRunner выполняет свипы, сохраняет историю и публикует результаты.
type ScanRunner struct {
	sessions *SessionManager
	records  interfaces.ScanRecordRepository
	producer interfaces.KafkaService
	cfg      *config.AppConfig
	logger   *logging.Logger
}

func NewScanRunner(sessions *SessionManager, records interfaces.ScanRecordRepository, producer interfaces.KafkaService, cfg *config.AppConfig, logger *logging.Logger) *ScanRunner {
	return &ScanRunner{
		sessions: sessions,
		records:  records,
		producer: producer,
		cfg:      cfg,
		logger:   logger.WithPrefix("SCANNER"),
	}
}

func (sr *ScanRunner) RunScan(ctx context.Context, req models.ScanRequest) (*models.ScanResponse, error) {
	client, scanCtx, finish, err := sr.sessions.beginScan(ctx, req.SessionID, sr.cfg.ScanTimeout)
	if err != nil {
		return nil, err
	}
	defer finish()

	scanCfg, err := client.ConfigureScan(req.Config)
	if err != nil {
		return nil, instrumentError("не удалось настроить свип", err)
	}

	opts := req.Options
	if len(opts.Detectors) == 0 {
		opts.Detectors = []int32{1}
	}

	started := time.Now()
	res, scanErr := client.Scan(scanCtx, opts)

	record := &entities.ScanRecord{
		SessionID:    req.SessionID,
		Status:       entities.ScanCompleted,
		MinNm:        scanCfg.MinNm,
		MaxNm:        scanCfg.MaxNm,
		PowerMw:      scanCfg.PowerMw,
		ResolutionPm: scanCfg.ResolutionPm,
		Speed:        scanCfg.Laser.Speed,
		Detectors:    opts.Detectors,
		DurationMs:   time.Since(started).Milliseconds(),
	}
	switch {
	case scanErr == nil:
	case errors.Is(scanErr, context.Canceled):
		record.Status = entities.ScanStopped
		record.Error = scanErr.Error()
	default:
		record.Status = entities.ScanFailed
		record.Error = scanErr.Error()
	}
	if res != nil {
		record.DataPoints = res.DataPoints
		record.DiscardPoints = res.DiscardPoints
		record.ResampledPoints = res.ResampledPoints
		record.Lines = res.Lines
		record.DurationMs = res.Duration.Milliseconds()
	}

	var files *instrument.ExportedFiles
	if scanErr == nil && req.Export {
		dir := filepath.Join(sr.cfg.ExportDir, req.SessionID, started.Format("20060102_150405.000"))
		if files, err = client.ExportFiles(dir, opts.Detectors...); err != nil {
			sr.logger.Error("Failed to export scan files", "sessionID", req.SessionID, "dir", dir, "error", err)
		} else {
			record.ExportDir = dir
		}
	}

	if err := sr.records.Create(record); err != nil {
		sr.logger.Error("Failed to save scan record", "sessionID", req.SessionID, "error", err)
	}
	sr.publish(record, res)

	if scanErr != nil {
		sr.logger.Warn("Scan finished with error", "sessionID", req.SessionID, "status", record.Status, "error", scanErr)
		if record.Status == entities.ScanStopped {
			return nil, apperrors.NewAppError(apperrors.ConflictErrorCode, "свип остановлен", scanErr, true)
		}
		return nil, instrumentError("свип завершился с ошибкой", scanErr)
	}

	sr.logger.Info("Scan completed", "sessionID", req.SessionID, "recordID", record.ID,
		"points", record.ResampledPoints, "lines", len(record.Lines))
	return &models.ScanResponse{
		Status:   "ok",
		RecordID: record.ID,
		Result:   res,
		Files:    files,
	}, nil
}

func (sr *ScanRunner) publish(record *entities.ScanRecord, res *instrument.ScanResult) {
	msg := models.ScanMessage{
		SessionID: record.SessionID,
		RecordID:  record.ID,
		Timestamp: time.Now(),
		Status:    record.Status,
		Error:     record.Error,
	}
	if record.Status == entities.ScanCompleted {
		msg.Result = res
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		sr.logger.Error("Failed to serialize scan for Kafka", "sessionID", record.SessionID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sr.producer.Produce(ctx, sr.cfg.KafkaScanTopic, []byte(record.SessionID), jsonData); err != nil {
		sr.logger.Error("Failed to send scan to Kafka", "sessionID", record.SessionID, "error", err)
	}
}

func (sr *ScanRunner) StopScan(sessionID string) error {
	if err := sr.sessions.stopScan(sessionID); err != nil {
		return err
	}
	sr.logger.Info("Scan stop requested", "sessionID", sessionID)
	return nil
}

func (sr *ScanRunner) ScanHistory(sessionID string, limit int) ([]entities.ScanRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	records, err := sr.records.List(sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить историю свипов: %w", err)
	}
	return records, nil
}
