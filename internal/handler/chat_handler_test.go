package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reprint-api/internal/middleware"
	"github.com/noah-isme/reprint-api/internal/models"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
)

type fakeChatService struct {
	lastKey  string
	lastText string
	resets   int
}

func (f *fakeChatService) Send(_ context.Context, key, text string) (*models.ChatReply, error) {
	f.lastKey, f.lastText = key, text
	if text == "" {
		return nil, appErrors.Field("message", "請輸入訊息")
	}
	return &models.ChatReply{Reply: models.ChatMessage{ID: "r1", Role: models.ChatRoleModel, Text: "ok"}}, nil
}

func (f *fakeChatService) History(key string) []models.ChatMessage {
	f.lastKey = key
	return []models.ChatMessage{{ID: "welcome", Role: models.ChatRoleModel, Text: "hi"}}
}

func (f *fakeChatService) Reset(key string) []models.ChatMessage {
	f.lastKey = key
	f.resets++
	return f.History(key)
}

func (f *fakeChatService) Presets() []string { return []string{"什麼是霧膜？"} }

func TestChatHandlerSendUsesSessionKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeChatService{}
	handler := NewChatHandler(svc)

	c, w := newGinContext(http.MethodPost, "/chat/messages", []byte(`{"message":"什麼是霧膜？"}`))
	c.Request.Header.Set(middleware.SessionHeader, "browser-1")
	handler.Send(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session:browser-1", svc.lastKey)
	assert.Equal(t, "什麼是霧膜？", svc.lastText)

	c, w = newGinContext(http.MethodPost, "/chat/messages", []byte(`{"message":"hi"}`))
	c.Set(middleware.ContextUserKey, studentClaims)
	handler.Send(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user:student-demo", svc.lastKey)
}

func TestChatHandlerRejectsEmptyMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewChatHandler(&fakeChatService{})

	c, w := newGinContext(http.MethodPost, "/chat/messages", []byte(`{"message":""}`))
	handler.Send(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandlerHistoryResetPresets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeChatService{}
	handler := NewChatHandler(svc)

	c, w := newGinContext(http.MethodGet, "/chat/messages", nil)
	handler.History(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, svc.lastKey, "guest:")

	c, w = newGinContext(http.MethodDelete, "/chat/messages", nil)
	handler.Reset(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.resets)

	c, w = newGinContext(http.MethodGet, "/chat/presets", nil)
	handler.Presets(c)
	assert.Contains(t, w.Body.String(), "霧膜")
}
