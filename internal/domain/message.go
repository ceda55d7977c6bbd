package domain

import "time"

// Author identifica quién escribió un mensaje.
type Author string

const (
	AuthorUser    Author = "user"
	AuthorChatbot Author = "chatbot"
)

// Timestamps agrupa los campos de auditoría compartidos por registros persistidos.
type Timestamps struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted indica si el registro tiene marca de soft-delete.
func (t Timestamps) IsDeleted() bool {
	return t.DeletedAt != nil
}

type Message struct {
	ID      int64  `json:"id"`
	Author  Author `json:"author"`
	Content string `json:"message"`
	Timestamps
}

// NewMessage es un mensaje todavía sin id ni timestamps asignados por el store.
type NewMessage struct {
	Author  Author
	Content string
}

// Exchange es el par mensaje de usuario + respuesta del chatbot, en ese orden.
type Exchange struct {
	User    Message
	Chatbot Message
}

// Messages devuelve el exchange en orden de creación.
func (e Exchange) Messages() []Message {
	return []Message{e.User, e.Chatbot}
}
