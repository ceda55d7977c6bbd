package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"chatbot-server/internal/domain"
	"chatbot-server/internal/llm"
	"chatbot-server/internal/repository"
)

// MessageService encapsula la lógica de exchanges y edición de mensajes.
type MessageService struct {
	logger    *zap.Logger
	repo      repository.MessageRepository
	responder llm.ChatResponder
	limiter   ExchangeRateLimiter
	now       func() time.Time
}

var (
	ErrMessageServiceNotConfigured = errors.New("message service not configured")
	ErrMessageEmpty                = errors.New("message cannot be empty")
	ErrMessageNotFound             = errors.New("message not found")
	ErrRateLimited                 = errors.New("rate limited")
	ErrChatResponder               = errors.New("chat responder failed")
)

func NewMessageService(logger *zap.Logger, repo repository.MessageRepository, responder llm.ChatResponder, limiter ExchangeRateLimiter) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{
		logger:    logger,
		repo:      repo,
		responder: responder,
		limiter:   limiter,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ValidateContent rechaza contenido vacío o sólo espacios; no modifica el contenido.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrMessageEmpty
	}
	return nil
}

// CreateExchange genera la respuesta del chatbot y persiste ambos mensajes juntos.
func (s *MessageService) CreateExchange(ctx context.Context, identity domain.Identity, content string) (domain.Exchange, error) {
	if s == nil || s.repo == nil || s.responder == nil {
		return domain.Exchange{}, ErrMessageServiceNotConfigured
	}
	if err := ValidateContent(content); err != nil {
		return domain.Exchange{}, err
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, identity.UserID) {
		return domain.Exchange{}, ErrRateLimited
	}

	reply, err := s.responder.Generate(ctx, content)
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("%w: %w", ErrChatResponder, err)
	}

	created, err := s.repo.CreateBatch(ctx, []domain.NewMessage{
		{Author: domain.AuthorUser, Content: content},
		{Author: domain.AuthorChatbot, Content: reply},
	})
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("create exchange: %w", err)
	}
	if len(created) != 2 {
		return domain.Exchange{}, fmt.Errorf("create exchange: expected 2 messages, got %d", len(created))
	}

	s.logger.Info("exchange created",
		zap.String("user_id", identity.UserID),
		zap.Int64("user_message_id", created[0].ID),
		zap.Int64("chatbot_message_id", created[1].ID),
	)
	return domain.Exchange{User: created[0], Chatbot: created[1]}, nil
}

// UpdateMessage reemplaza el contenido; id y author no cambian.
func (s *MessageService) UpdateMessage(ctx context.Context, id int64, content string) (domain.Message, error) {
	if s == nil || s.repo == nil {
		return domain.Message{}, ErrMessageServiceNotConfigured
	}
	if err := ValidateContent(content); err != nil {
		return domain.Message{}, err
	}

	msg, err := s.repo.UpdateContent(ctx, id, content, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return domain.Message{}, ErrMessageNotFound
		}
		return domain.Message{}, fmt.Errorf("update message %d: %w", id, err)
	}
	return msg, nil
}

// DeleteMessage marca el mensaje con deleted_at.
func (s *MessageService) DeleteMessage(ctx context.Context, id int64) error {
	if s == nil || s.repo == nil {
		return ErrMessageServiceNotConfigured
	}
	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("delete message %d: %w", id, err)
	}
	return nil
}

// GetMessage y ListMessages nunca exponen registros con deleted_at, aunque el repositorio los devuelva.
func (s *MessageService) GetMessage(ctx context.Context, id int64) (domain.Message, error) {
	if s == nil || s.repo == nil {
		return domain.Message{}, ErrMessageServiceNotConfigured
	}
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return domain.Message{}, ErrMessageNotFound
		}
		return domain.Message{}, fmt.Errorf("get message %d: %w", id, err)
	}
	if msg.IsDeleted() {
		return domain.Message{}, ErrMessageNotFound
	}
	return msg, nil
}

func (s *MessageService) ListMessages(ctx context.Context, opts repository.ListOptions) ([]domain.Message, error) {
	if s == nil || s.repo == nil {
		return nil, ErrMessageServiceNotConfigured
	}
	msgs, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	live := msgs[:0]
	for _, m := range msgs {
		if !m.IsDeleted() {
			live = append(live, m)
		}
	}
	return live, nil
}
