package handlers

import (
	"net/http"

	"github.com/iwtcode/ct400Adapter/internal/domain/models"
	"github.com/iwtcode/ct400Adapter/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse возвращает стандартизированный ответ с ошибкой
func (h *Handler) ErrorResponse(c *gin.Context, err error, statusCode int, message string, showError bool) {
	errorMessage := message
	if showError && err != nil {
		errorMessage = message + ": " + err.Error()
	}

	h.logger.Error(message, "error", err, "statusCode", statusCode)
	resp := models.ErrorResponse{Status: "error"}
	resp.Error.Code = statusCode
	resp.Error.Message = errorMessage
	c.AbortWithStatusJSON(statusCode, resp)
}

// BadRequest возвращает ошибку 400
func (h *Handler) BadRequest(c *gin.Context, err error, message string) {
	if message == "" {
		message = errors.BadRequest
	}
	h.ErrorResponse(c, err, http.StatusBadRequest, message, true)
}

// InternalError возвращает ошибку 500
func (h *Handler) InternalError(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusInternalServerError, errors.InternalServerError, false)
}

// NotFound возвращает ошибку 404
func (h *Handler) NotFound(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusNotFound, errors.NotFound, true)
}

// Fail отвечает кодом из AppError; прочие ошибки считаются внутренними.
func (h *Handler) Fail(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		h.InternalError(c, err)
		return
	}
	h.ErrorResponse(c, appErr.Err, appErr.Code, appErr.Message, appErr.IsUserFacing)
}

// OK отвечает стандартным сообщением об успехе
func (h *Handler) OK(c *gin.Context, message string) {
	c.JSON(http.StatusOK, models.MessageResponse{Status: "ok", Message: message})
}
