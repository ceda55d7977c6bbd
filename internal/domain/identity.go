package domain

// Identity es el usuario autenticado de la request actual; no se persiste.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}
