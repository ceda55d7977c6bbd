package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatbot-server/internal/db"
)

// HealthHandler expone el chequeo de conectividad con la base.
type HealthHandler struct {
	logger *zap.Logger
	pinger db.Pinger
}

func NewHealthHandler(logger *zap.Logger, pinger db.Pinger) *HealthHandler {
	return &HealthHandler{logger: logger, pinger: pinger}
}

// Health maneja GET /healthz.
func (h *HealthHandler) Health(c *gin.Context) {
	if err := db.Ping(c.Request.Context(), h.pinger); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
