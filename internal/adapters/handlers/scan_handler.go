package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/iwtcode/ct400Adapter/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// RunScan выполняет свип и возвращает ресэмплированные трассы.
// @Summary Выполнить свип
// @Description Настраивает лазер и детекторы, выполняет свип, сохраняет запись в историю и публикует результат в Kafka.
// @Tags Scan
// @Accept json
// @Produce json
// @Param input body models.ScanRequest true "Конфигурация свипа"
// @Success 200 {object} models.ScanResponse
// @Failure 400 {object} models.ErrorResponse "Неверная конфигурация"
// @Failure 409 {object} models.ErrorResponse "Свип уже выполняется или остановлен"
// @Failure 500 {object} models.ErrorResponse "Ошибка прибора"
// @Router /scan [post]
func (h *Handler) RunScan(c *gin.Context) {
	var req models.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	h.logger.Info("Starting scan", "sessionID", req.SessionID,
		"range", fmt.Sprintf("%.3f-%.3f", req.Config.MinNm, req.Config.MaxNm))

	resp, err := h.usecase.RunScan(c.Request.Context(), req)
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// StopScan прерывает свип, выполняющийся в сессии.
// @Summary Остановить свип
// @Tags Scan
// @Accept json
// @Produce json
// @Param input body models.SessionRequest true "ID сессии"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse "Нет активного свипа"
// @Router /scan/stop [post]
func (h *Handler) StopScan(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Missing or invalid SessionID")
		return
	}

	if err := h.usecase.StopScan(req.SessionID); err != nil {
		h.Fail(c, err)
		return
	}

	h.OK(c, fmt.Sprintf("Scan stop requested for session %s", req.SessionID))
}

// GetScanHistory возвращает последние свипы.
// @Summary История свипов
// @Tags Scan
// @Produce json
// @Param session_id query string false "Фильтр по сессии"
// @Param limit query int false "Количество записей (по умолчанию 50)"
// @Success 200 {object} models.ScanHistoryResponse
// @Router /scans [get]
func (h *Handler) GetScanHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.BadRequest(c, err, "Invalid limit")
			return
		}
		limit = n
	}

	records, err := h.usecase.ScanHistory(c.Query("session_id"), limit)
	if err != nil {
		h.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ScanHistoryResponse{Status: "ok", Count: len(records), Scans: records})
}
