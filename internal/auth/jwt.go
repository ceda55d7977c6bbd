package auth

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"chatbot-server/internal/domain"
)

// Claims son los campos que Supabase firma en sus access tokens.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier valida access tokens HS256 localmente con el secreto del proveedor.
type JWTVerifier struct {
	secret   []byte
	audience string
}

func NewJWTVerifier(secret, audience string) *JWTVerifier {
	return &JWTVerifier{
		secret:   []byte(secret),
		audience: audience,
	}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	if len(v.secret) == 0 || strings.TrimSpace(token) == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
