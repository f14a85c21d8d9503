package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reprint-api/internal/models"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
	"github.com/noah-isme/reprint-api/pkg/response"
)

type chatService interface {
	Send(ctx context.Context, key, text string) (*models.ChatReply, error)
	History(key string) []models.ChatMessage
	Reset(key string) []models.ChatMessage
	Presets() []string
}

// ChatHandler exposes the printing consultant.
type ChatHandler struct {
	service chatService
}

// NewChatHandler constructs the handler.
func NewChatHandler(svc chatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// Send godoc
// @Summary Ask the consultant
// @Description Gateway failures are answered with a fallback reply, never an error.
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body models.ChatRequest true "Question"
// @Param X-Session-ID header string false "Guest session id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /chat/messages [post]
func (h *ChatHandler) Send(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid chat payload"))
		return
	}
	if len([]rune(req.Message)) > 2000 {
		response.Error(c, appErrors.Field("message", "message too long"))
		return
	}
	reply, err := h.service.Send(c.Request.Context(), sessionKey(c), req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply)
}

// History godoc
// @Summary Conversation history
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chat/messages [get]
func (h *ChatHandler) History(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.History(sessionKey(c)))
}

// Reset godoc
// @Summary Clear the conversation
// @Description A reply still in flight is discarded.
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chat/messages [delete]
func (h *ChatHandler) Reset(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Reset(sessionKey(c)))
}

// Presets godoc
// @Summary Suggested questions
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chat/presets [get]
func (h *ChatHandler) Presets(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Presets())
}
