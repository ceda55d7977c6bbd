package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatbot-server/internal/auth"
	"chatbot-server/internal/domain"
)

const (
	identityKey     = "auth_identity"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// requestIDMiddleware propaga X-Request-ID o genera uno nuevo.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}

// recoveryMiddleware convierte panics en 500 con el envelope de detalle.
func recoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
		abortDetail(c, http.StatusInternalServerError, detailServerError)
	})
}

// corsMiddleware agrega headers CORS para el origen confiable en toda respuesta,
// incluidos los errores de auth, y responde preflights.
func corsMiddleware(trustedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", trustedOrigin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// IdentityMiddleware valida el bearer token con el proveedor y guarda la identidad en el contexto.
func IdentityMiddleware(verifier auth.Verifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			abortDetail(c, http.StatusUnauthorized, detailTokenMissing)
			return
		}
		if verifier == nil {
			logger.Error("identity verifier not configured")
			abortDetail(c, http.StatusInternalServerError, detailServerError)
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), bearerToken(header))
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				abortDetail(c, http.StatusUnauthorized, detailInvalidToken)
				return
			}
			logger.Error("identity verification failed",
				zap.Error(err),
				zap.String("request_id", c.GetString(requestIDKey)),
			)
			abortDetail(c, http.StatusInternalServerError, detailServerError)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// bearerToken quita el esquema "Bearer" (sin importar mayúsculas) si está presente.
func bearerToken(header string) string {
	const scheme = "bearer"
	if len(header) >= len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		rest := header[len(scheme):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			return strings.TrimSpace(rest)
		}
	}
	return header
}

// IdentityFromContext obtiene la identidad autenticada desde el contexto.
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := val.(domain.Identity)
	return identity, ok
}
