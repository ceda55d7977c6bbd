package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatbot-server/internal/domain"
)

// SupabaseVerifier valida tokens contra el endpoint /auth/v1/user de Supabase.
type SupabaseVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSupabaseVerifier(baseURL, apiKey string, httpClient *http.Client) *SupabaseVerifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SupabaseVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpClient,
	}
}

type supabaseError struct {
	ErrorCode string `json:"error_code"`
}

// isUserNotFound distingue el 404 de GoTrue de un 404 por URL base mal configurada.
func isUserNotFound(body []byte) bool {
	var e supabaseError
	if err := json.Unmarshal(body, &e); err != nil {
		return false
	}
	return e.ErrorCode == "user_not_found"
}

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", v.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return domain.Identity{}, ErrInvalidToken
	case resp.StatusCode == http.StatusNotFound && isUserNotFound(body):
		// El token es válido pero su usuario ya no existe.
		return domain.Identity{}, ErrInvalidToken
	case resp.StatusCode >= 300:
		return domain.Identity{}, fmt.Errorf("%w: status=%d", ErrProviderUnavailable, resp.StatusCode)
	}

	var u supabaseUser
	if err := json.Unmarshal(body, &u); err != nil {
		return domain.Identity{}, fmt.Errorf("unmarshal user: %w", err)
	}
	if strings.TrimSpace(u.ID) == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}, nil
}
