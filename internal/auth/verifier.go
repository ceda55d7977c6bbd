package auth

import (
	"context"
	"errors"

	"chatbot-server/internal/domain"
)

// Verifier resuelve un bearer token a la identidad del usuario.
type Verifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

var (
	// ErrInvalidToken indica que el proveedor rechazó el token (malformado, vencido o desconocido).
	ErrInvalidToken = errors.New("invalid token")
	// ErrProviderUnavailable cubre respuestas inesperadas del proveedor de identidad.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)
