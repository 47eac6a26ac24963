package handlers

import (
	"net/http"

	"github.com/iwtcode/ct400Adapter/internal/config"
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	"github.com/iwtcode/ct400Adapter/internal/middleware/logging"

	"github.com/gin-gonic/gin"
)

// Handler - структура для обработчиков HTTP-запросов
type Handler struct {
	usecase interfaces.Usecases
	logger  *logging.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(usecase interfaces.Usecases, logger *logging.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		logger:  logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter настраивает и возвращает HTTP-роутер
func ProvideRouter(h *Handler, cfg *config.AppConfig) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// Logger Middleware
	router.Use(LoggingMiddleware(h.logger))

	// Группа API v1
	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.CreateSession)
			sessions.GET("", h.GetSessions)
			sessions.DELETE("", h.DeleteSession)
			sessions.POST("/check", h.CheckSession)
		}

		scan := v1.Group("/scan")
		{
			scan.POST("", h.RunScan)
			scan.POST("/stop", h.StopScan)
		}
		v1.GET("/scans", h.GetScanHistory)

		v1.POST("/power", h.ReadPower)
		v1.POST("/laser", h.SetLaser)
		v1.POST("/calibration", h.Calibrate)

		monitor := v1.Group("/monitor")
		{
			monitor.POST("/start", h.StartMonitoring)
			monitor.POST("/stop", h.StopMonitoring)
		}
	}

	return router
}
