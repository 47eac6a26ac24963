package handlers

import (
	"net/http"

	"github.com/iwtcode/ct400Adapter/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// CreateSession открывает новую сессию CT400.
// @Summary Открыть сессию
// @Description Открывает CT400 через DLL или симулятор и сохраняет сессию в БД.
// @Tags Session
// @Accept json
// @Produce json
// @Param input body models.CreateSessionRequest false "Бэкенд, профиль симулятора, вход лазера"
// @Success 200 {object} models.SessionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Прибор уже открыт или пул заполнен"
// @Failure 503 {object} models.ErrorResponse "Прибор недоступен"
// @Router /sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err, "Invalid request payload")
			return
		}
	}

	h.logger.Info("Attempting to open a new session", "backend", req.Backend, "profile", req.SimProfile)

	info, err := h.usecase.CreateSession(req)
	if err != nil {
		h.Fail(c, err)
		return
	}

	h.logger.Info("Successfully opened session", "sessionID", info.SessionID)
	c.JSON(http.StatusOK, models.SessionResponse{Status: "ok", SessionInfo: info})
}

// GetSessions возвращает список всех открытых сессий.
// @Summary Получить список сессий
// @Tags Session
// @Produce json
// @Success 200 {object} models.GetSessionsResponse
// @Router /sessions [get]
func (h *Handler) GetSessions(c *gin.Context) {
	sessions := h.usecase.GetAllSessions()
	c.JSON(http.StatusOK, models.GetSessionsResponse{
		Status:   "ok",
		PoolSize: len(sessions),
		Sessions: sessions,
	})
}

// DeleteSession закрывает сессию по SessionID.
// @Summary Закрыть сессию
// @Description Останавливает свип и мониторинг, закрывает прибор и удаляет запись из БД.
// @Tags Session
// @Accept json
// @Produce json
// @Param input body models.SessionRequest true "ID сессии"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Router /sessions [delete]
func (h *Handler) DeleteSession(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Missing or invalid SessionID")
		return
	}

	h.logger.Info("Attempting to close session", "sessionID", req.SessionID)

	if err := h.usecase.DeleteSession(req.SessionID); err != nil {
		h.Fail(c, err)
		return
	}

	h.logger.Info("Successfully closed session", "sessionID", req.SessionID)
	h.OK(c, "Session "+req.SessionID+" closed successfully")
}

// CheckSession проверяет состояние прибора сессии.
// @Summary Проверить сессию
// @Tags Session
// @Accept json
// @Produce json
// @Param input body models.SessionRequest true "ID сессии"
// @Success 200 {object} models.SessionResponse "Статус 'healthy' или 'unhealthy'"
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Router /sessions/check [post]
func (h *Handler) CheckSession(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Missing or invalid SessionID")
		return
	}

	info, err := h.usecase.CheckSession(req.SessionID)

	if info == nil {
		h.NotFound(c, err)
		return
	}

	if err != nil {
		c.JSON(http.StatusOK, models.SessionResponse{Status: "unhealthy", Error: err.Error(), SessionInfo: info})
		return
	}

	c.JSON(http.StatusOK, models.SessionResponse{Status: "healthy", SessionInfo: info})
}
