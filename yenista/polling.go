package yenista

import (
	"context"
	"fmt"
	"time"

	"github.com/iwtcode/ct400Adapter/models"
)

// PowerResult содержит показания или ошибку от одного опроса детекторов.
type PowerResult struct {
	Reading *models.PowerReading
	Err     error
}

// StartPowerMonitor периодически читает мощность детекторов.
// Если чтение длится дольше интервала, тик пропускается.
// Опрос прекращается при отмене контекста, после чего канал закрывается.
// При interval <= 0 в канал уходит одна ошибка ErrInvalidArgument.
func (d *Device) StartPowerMonitor(ctx context.Context, interval time.Duration) <-chan PowerResult {
	results := make(chan PowerResult)

	go func() {
		defer close(results)
		if interval <= 0 {
			select {
			case results <- PowerResult{Err: fmt.Errorf("%w: polling interval %s", ErrInvalidArgument, interval)}:
			case <-ctx.Done():
			}
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reading, err := d.ReadPower()
				select {
				case results <- PowerResult{Reading: reading, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return results
}
