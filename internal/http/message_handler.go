package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatbot-server/internal/domain"
	"chatbot-server/internal/repository"
	"chatbot-server/internal/service"
)

// MessageHandler mantiene dependencias para los endpoints de mensajes.
type MessageHandler struct {
	logger  *zap.Logger
	msgServ *service.MessageService
}

// NewMessageHandler crea una instancia de MessageHandler con dependencias necesarias.
func NewMessageHandler(logger *zap.Logger, msgServ *service.MessageService) *MessageHandler {
	return &MessageHandler{
		logger:  logger,
		msgServ: msgServ,
	}
}

// Message es nullable para distinguir "ausente" (422) de "" (400).
type messageRequest struct {
	Message *string `json:"message" binding:"required"`
}

type messageResponse struct {
	ID      int64  `json:"id"`
	Author  string `json:"author"`
	Message string `json:"message"`
}

type exchangeResponse struct {
	Exchange []messageResponse `json:"exchange"`
}

type listResponse struct {
	Messages []messageResponse `json:"messages"`
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{ID: m.ID, Author: string(m.Author), Message: m.Content}
}

// PostMessage maneja POST /message.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	content, ok := h.bindContent(c)
	if !ok {
		return
	}
	identity, _ := IdentityFromContext(c)

	ex, err := h.msgServ.CreateExchange(c.Request.Context(), identity, content)
	if err != nil {
		h.abortServiceError(c, "create exchange failed", 0, err)
		return
	}

	msgs := ex.Messages()
	resp := exchangeResponse{Exchange: make([]messageResponse, 0, len(msgs))}
	for _, m := range msgs {
		resp.Exchange = append(resp.Exchange, toMessageResponse(m))
	}
	c.JSON(http.StatusOK, resp)
}

// PutMessage maneja PUT /message/:id.
func (h *MessageHandler) PutMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	content, ok := h.bindContent(c)
	if !ok {
		return
	}

	msg, err := h.msgServ.UpdateMessage(c.Request.Context(), id, content)
	if err != nil {
		h.abortServiceError(c, "update message failed", id, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponse(msg))
}

// DeleteMessage maneja DELETE /message/:id.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.msgServ.DeleteMessage(c.Request.Context(), id); err != nil {
		h.abortServiceError(c, "delete message failed", id, err)
		return
	}
	c.JSON(http.StatusOK, true)
}

// GetMessage maneja GET /message/:id.
func (h *MessageHandler) GetMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	msg, err := h.msgServ.GetMessage(c.Request.Context(), id)
	if err != nil {
		h.abortServiceError(c, "get message failed", id, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponse(msg))
}

// ListMessages maneja GET /messages?after=&limit=.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	var opts repository.ListOptions
	var details []fieldError
	if raw, ok := c.GetQuery("after"); ok {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			details = append(details, intParsingError("query", "after"))
		}
		opts.AfterID = v
	}
	if raw, ok := c.GetQuery("limit"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, intParsingError("query", "limit"))
		}
		opts.Limit = v
	}
	if len(details) > 0 {
		abortSchemaViolation(c, details...)
		return
	}

	msgs, err := h.msgServ.ListMessages(c.Request.Context(), opts)
	if err != nil {
		h.abortServiceError(c, "list messages failed", 0, err)
		return
	}

	resp := listResponse{Messages: make([]messageResponse, 0, len(msgs))}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, toMessageResponse(m))
	}
	c.JSON(http.StatusOK, resp)
}

// bindContent aplica validación de esquema (422) y luego la de contenido vacío (400).
func (h *MessageHandler) bindContent(c *gin.Context) (string, bool) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid message request", zap.Error(err))
		abortSchemaViolation(c, bindingErrorDetails(err)...)
		return "", false
	}
	if err := service.ValidateContent(*req.Message); err != nil {
		abortDetail(c, http.StatusBadRequest, detailEmptyMessage)
		return "", false
	}
	return *req.Message, true
}

func (h *MessageHandler) abortServiceError(c *gin.Context, msg string, id int64, err error) {
	switch {
	case errors.Is(err, service.ErrMessageEmpty):
		abortDetail(c, http.StatusBadRequest, detailEmptyMessage)
	case errors.Is(err, service.ErrMessageNotFound):
		abortDetail(c, http.StatusNotFound, notFoundDetail(id))
	case errors.Is(err, service.ErrRateLimited):
		abortDetail(c, http.StatusTooManyRequests, detailTooManyRequest)
	case errors.Is(err, repository.ErrStoreUnavailable):
		h.logger.Error(msg, zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
		abortStoreUnavailable(c)
	default:
		h.logger.Error(msg, zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
		abortDetail(c, http.StatusInternalServerError, detailUnexpected)
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortSchemaViolation(c, intParsingError("path", "id"))
		return 0, false
	}
	return id, true
}

func intParsingError(where, name string) fieldError {
	return fieldError{
		Loc:  []string{where, name},
		Msg:  "Input should be a valid integer, unable to parse string as an integer",
		Type: "int_parsing",
	}
}
