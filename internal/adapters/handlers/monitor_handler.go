package handlers

import (
	"fmt"
	"time"

	"github.com/iwtcode/ct400Adapter/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// StartMonitoring запускает периодическое чтение мощности с публикацией в Kafka.
// @Summary Запустить мониторинг мощности
// @Tags Monitor
// @Accept json
// @Produce json
// @Param input body models.MonitorRequest true "Параметры для запуска мониторинга"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Failure 409 {object} models.ErrorResponse "Мониторинг уже запущен"
// @Router /monitor/start [post]
func (h *Handler) StartMonitoring(c *gin.Context) {
	var req models.MonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	duration := time.Duration(req.Interval) * time.Millisecond
	h.logger.Info("Attempting to start monitoring", "sessionID", req.SessionID, "interval", duration)

	if err := h.usecase.StartMonitoring(req.SessionID, duration); err != nil {
		h.Fail(c, err)
		return
	}

	h.logger.Info("Monitoring started successfully", "sessionID", req.SessionID)
	h.OK(c, fmt.Sprintf("Monitoring started for session %s", req.SessionID))
}

// StopMonitoring останавливает мониторинг мощности.
// @Summary Остановить мониторинг мощности
// @Tags Monitor
// @Accept json
// @Produce json
// @Param input body models.SessionRequest true "ID сессии"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse "Мониторинг не запущен"
// @Router /monitor/stop [post]
func (h *Handler) StopMonitoring(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Missing or invalid SessionID")
		return
	}

	h.logger.Info("Attempting to stop monitoring", "sessionID", req.SessionID)

	if err := h.usecase.StopMonitoring(req.SessionID); err != nil {
		h.Fail(c, err)
		return
	}

	h.logger.Info("Monitoring stopped successfully", "sessionID", req.SessionID)
	h.OK(c, fmt.Sprintf("Monitoring stopped for session %s", req.SessionID))
}
