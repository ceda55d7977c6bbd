package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatbot-server/internal/auth"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	trustedOrigin string,
	verifier auth.Verifier,
	msgH *MessageHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()

	// CORS va antes que auth para que los 401/500 del middleware sean legibles en el browser.
	r.Use(
		requestIDMiddleware(),
		zapLoggerMiddleware(logger),
		recoveryMiddleware(logger),
		corsMiddleware(trustedOrigin),
		jsonContentTypeMiddleware(),
	)

	r.NoRoute(func(c *gin.Context) {
		abortDetail(c, http.StatusNotFound, "Not Found")
	})

	r.GET("/healthz", healthH.Health)

	api := r.Group("/", IdentityMiddleware(verifier, logger))
	api.POST("/message", msgH.PostMessage)
	api.GET("/message/:id", msgH.GetMessage)
	api.PUT("/message/:id", msgH.PutMessage)
	api.DELETE("/message/:id", msgH.DeleteMessage)
	api.GET("/messages", msgH.ListMessages)

	return r
}
