package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/models"
)

type stubHTTPClient struct {
	status   int
	body     string
	err      error
	requests []*http.Request
	payloads []map[string]any
	before   func()
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.requests = append(c.requests, req)
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		var payload map[string]any
		_ = json.Unmarshal(raw, &payload)
		c.payloads = append(c.payloads, payload)
	}
	if c.before != nil {
		c.before()
	}
	if c.err != nil {
		return nil, c.err
	}
	return &http.Response{StatusCode: c.status, Body: io.NopCloser(strings.NewReader(c.body)), Header: http.Header{}}, nil
}

func completionBody(content string) string {
	raw, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return string(raw)
}

func newTestChatService(client HTTPClient, key string) *ChatService {
	return NewChatService(ChatConfig{
		APIKey:  key,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
		Model:   "gemini-2.5-flash",
	}, client, nil, zap.NewNop())
}

func TestChatServiceSendRelaysConversation(t *testing.T) {
	client := &stubHTTPClient{status: http.StatusOK, body: completionBody("霧膜是一層保護膜。")}
	svc := newTestChatService(client, "secret")

	reply, err := svc.Send(context.Background(), "student-demo", "什麼是霧膜？")
	require.NoError(t, err)
	assert.Equal(t, "霧膜是一層保護膜。", reply.Reply.Text)
	assert.Equal(t, models.ChatRoleModel, reply.Reply.Role)
	assert.False(t, reply.Reply.IsError)
	assert.False(t, reply.Reply.Fallback)
	require.Len(t, reply.History, 3)
	assert.Equal(t, "welcome", reply.History[0].ID)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions", req.URL.String())
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))

	messages := client.payloads[0]["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Contains(t, messages[0].(map[string]any)["content"], "Re:Print AI")
	assert.Equal(t, "什麼是霧膜？", messages[1].(map[string]any)["content"])
	assert.Equal(t, "gemini-2.5-flash", client.payloads[0]["model"])
}

func TestChatServiceFallbacks(t *testing.T) {
	ctx := context.Background()

	noKey := newTestChatService(&stubHTTPClient{status: http.StatusOK}, "")
	reply, err := noKey.Send(ctx, "s", "hi")
	require.NoError(t, err)
	assert.Equal(t, ReplyMissingKey, reply.Reply.Text)
	assert.True(t, reply.Reply.Fallback)

	failing := newTestChatService(&stubHTTPClient{status: http.StatusInternalServerError, body: "boom"}, "k")
	reply, err = failing.Send(ctx, "s", "hi")
	require.NoError(t, err)
	assert.Equal(t, ReplyTransport, reply.Reply.Text)
	assert.True(t, reply.Reply.IsError)

	empty := newTestChatService(&stubHTTPClient{status: http.StatusOK, body: `{"choices":[]}`}, "k")
	reply, err = empty.Send(ctx, "s", "hi")
	require.NoError(t, err)
	assert.Equal(t, ReplyEmpty, reply.Reply.Text)
	assert.True(t, reply.Reply.Fallback)
	assert.False(t, reply.Reply.IsError)

	_, err = empty.Send(ctx, "s", "   ")
	require.Error(t, err)
}

func TestChatServiceOmitsCannedRepliesFromContext(t *testing.T) {
	ctx := context.Background()
	client := &stubHTTPClient{status: http.StatusOK, body: `{"choices":[]}`}
	svc := newTestChatService(client, "k")

	reply, err := svc.Send(ctx, "s", "出血是什麼？")
	require.NoError(t, err)
	assert.Equal(t, ReplyEmpty, reply.Reply.Text)

	client.status = http.StatusBadGateway
	client.body = "upstream down"
	reply, err = svc.Send(ctx, "s", "還在嗎？")
	require.NoError(t, err)
	assert.Equal(t, ReplyTransport, reply.Reply.Text)

	client.status = http.StatusOK
	client.body = completionBody("出血是四邊多留 3mm。")
	reply, err = svc.Send(ctx, "s", "再問一次出血")
	require.NoError(t, err)
	assert.Equal(t, "出血是四邊多留 3mm。", reply.Reply.Text)
	require.Len(t, reply.History, 7)

	require.Len(t, client.payloads, 3)
	messages := client.payloads[2]["messages"].([]any)
	roles := make([]string, 0, len(messages))
	for _, m := range messages {
		msg := m.(map[string]any)
		roles = append(roles, msg["role"].(string))
		assert.NotEqual(t, ReplyEmpty, msg["content"])
		assert.NotEqual(t, ReplyTransport, msg["content"])
	}
	assert.Equal(t, []string{"system", "user", "user", "user"}, roles)
}

func TestChatServiceResetDropsInFlightReply(t *testing.T) {
	client := &stubHTTPClient{status: http.StatusOK, body: completionBody("late answer")}
	svc := newTestChatService(client, "k")
	client.before = func() { svc.Reset("s") }

	reply, err := svc.Send(context.Background(), "s", "question")
	require.NoError(t, err)
	assert.True(t, reply.Dropped)
	require.Len(t, reply.History, 1)
	assert.Equal(t, "welcome", reply.History[0].ID)
	assert.Len(t, svc.History("s"), 1)
}

func TestChatServiceEmbeddedWelcome(t *testing.T) {
	svc := newTestChatService(&stubHTTPClient{}, "")

	assert.Contains(t, svc.History("s")[0].Text, "Re:Print AI")
	assert.Contains(t, svc.History(EmbeddedSessionPrefix+"s")[0].Text, "印刷規格顧問")
	assert.Len(t, svc.Presets(), 4)
}

func TestNormalizeOpenAIEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", normalizeOpenAIEndpoint(""))
	assert.Equal(t, "https://x.test/v1/chat/completions", normalizeOpenAIEndpoint("https://x.test/v1/"))
	assert.Equal(t, "https://x.test/chat/completions", normalizeOpenAIEndpoint("https://x.test/chat/completions"))
	assert.Equal(t, "https://x.test/openai/chat/completions", normalizeOpenAIEndpoint("https://x.test/openai"))
	assert.Equal(t, "https://x.test/v1/chat/completions", normalizeOpenAIEndpoint("https://x.test"))
}
