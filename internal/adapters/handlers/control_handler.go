package handlers

import (
	"fmt"
	"net/http"

	"github.com/iwtcode/ct400Adapter/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// ReadPower возвращает мгновенную мощность детекторов.
// @Summary Прочитать мощность
// @Tags Instrument
// @Accept json
// @Produce json
// @Param input body models.PowerRequest true "ID сессии и детекторы (0 - выход, 1-4, 5 - Vext)"
// @Success 200 {object} models.PowerResponse
// @Router /power [post]
func (h *Handler) ReadPower(c *gin.Context) {
	var req models.PowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	resp, err := h.usecase.ReadPower(req)
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetLaser включает лазер на заданной длине волны или выключает его.
// @Summary Управление лазером
// @Tags Instrument
// @Accept json
// @Produce json
// @Param input body models.LaserRequest true "Состояние, длина волны и мощность"
// @Success 200 {object} models.MessageResponse
// @Router /laser [post]
func (h *Handler) SetLaser(c *gin.Context) {
	var req models.LaserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	if err := h.usecase.SetLaser(req); err != nil {
		h.Fail(c, err)
		return
	}

	if *req.Enabled {
		h.OK(c, fmt.Sprintf("Laser on at %.3f nm", req.WavelengthNm))
		return
	}
	h.OK(c, "Laser switched off")
}

// Calibrate обновляет калибровку детектора по последнему свипу или сбрасывает все.
// @Summary Калибровка детекторов
// @Tags Instrument
// @Accept json
// @Produce json
// @Param input body models.CalibrationRequest true "update (с детектором) или reset"
// @Success 200 {object} models.MessageResponse
// @Router /calibration [post]
func (h *Handler) Calibrate(c *gin.Context) {
	var req models.CalibrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	if err := h.usecase.Calibrate(req); err != nil {
		h.Fail(c, err)
		return
	}

	if req.Action == models.CalibrationReset {
		h.OK(c, "Calibration for all detectors reset")
		return
	}
	h.OK(c, fmt.Sprintf("Calibration for detector %d updated", req.Detector))
}
