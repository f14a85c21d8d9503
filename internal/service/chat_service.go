package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/models"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
)

// Fallback replies substituted for gateway failures.
const (
	ReplyMissingKey = "請先設定 Google Gemini API Key 才能啟用 AI 諮詢功能。(這是一個示範回應)"
	ReplyTransport  = "連線發生錯誤，請檢查您的網路或 API Key。"
	ReplyEmpty      = "抱歉，我現在無法回答，請稍後再試。"
)

const (
	welcomeID       = "welcome"
	welcomeText     = "嗨！我是你的印刷小幫手 Re:Print AI。我可以幫你解答關於紙張選擇、報價估算或檔案規格的問題。例如你可以問我：「霧膜是什麼？」或「印 50 本 A4 彩色要多少錢？」"
	embeddedWelcome = "嗨！我是你的印刷規格顧問。正在修圖遇到困難嗎？你可以問我「出血要怎麼加？」或「為什麼解析度不足？」"
	// EmbeddedSessionPrefix marks chat sessions shown inside the proofing workspace.
	EmbeddedSessionPrefix = "proofing:"
	maxContextMessages    = 20
)

const systemPrompt = `You are "Re:Print AI", a specialized printing consultant for the platform "Student Printing Band-Aid" (學生印刷 OK 蹦).
Your goal is to help students with printing tasks, explaining technical terms, and providing estimates.

Key Knowledge Base:
1. Pricing:
   - A4 B/W: $1, Color: $5
   - A3 B/W: $2, Color: $10 (approximate)
   - Coating/Matte finish (霧膜) adds protection and a premium feel, good for waterproofing. adds about $2-5 per sheet.
   - Binding (膠裝) usually takes 1 working day.

2. Common Issues:
   - "Bleed" (出血): Essential for edge-to-edge printing. Needs 3mm extra on all sides.
   - "Resolution" (解析度): For print, always recommend 300dpi. 72dpi is for screens and will look blurry.
   - "CMYK vs RGB": Screens use RGB, Printers use CMYK. Colors might shift.

3. Persona:
   - Friendly, encouraging, but professional.
   - Use Traditional Chinese (繁體中文).
   - If a student asks "How much is...", give an estimate but remind them to use the calculator for exact pricing.
   - If a student asks about "Canva", remind them to export as "PDF Print" (PDF 列印) not "Standard".

Answer concisely.`

var presetQuestions = []string{
	"A3 彩色銅版紙 50 張多少錢？",
	"什麼是霧膜？",
	"Canva 做海報解析度夠嗎？",
	"出血是什麼意思？",
}

// HTTPClient is the subset of http.Client used by the gateway.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatConfig points the gateway at an OpenAI-compatible endpoint.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type chatSession struct {
	history    []models.ChatMessage
	generation uint64
}

// ChatService relays consultant questions to the completion endpoint. Every
// failure becomes a canned reply; callers never see gateway errors.
type ChatService struct {
	cfg     ChatConfig
	client  HTTPClient
	logger  *zap.Logger
	metrics *MetricsService

	mu       sync.Mutex
	sessions map[string]*chatSession
}

// NewChatService constructs the chat gateway.
func NewChatService(cfg ChatConfig, client HTTPClient, metrics *MetricsService, logger *zap.Logger) *ChatService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{cfg: cfg, client: client, logger: logger, metrics: metrics, sessions: map[string]*chatSession{}}
}

// Presets returns the suggested questions for the full chat page.
func (s *ChatService) Presets() []string {
	return append([]string(nil), presetQuestions...)
}

// History returns the conversation of a session, starting with the welcome message.
func (s *ChatService) History(key string) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.session(key).history...)
}

// Reset clears a conversation. A reply still in flight is dropped.
func (s *ChatService) Reset(key string) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(key)
	sess.generation++
	sess.history = []models.ChatMessage{welcomeFor(key)}
	return append([]models.ChatMessage(nil), sess.history...)
}

// Send appends a user question, asks the completion endpoint and appends the reply.
func (s *ChatService) Send(ctx context.Context, key, text string) (*models.ChatReply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, appErrors.Field("message", "message required")
	}

	s.mu.Lock()
	sess := s.session(key)
	sess.history = append(sess.history, models.ChatMessage{ID: uuid.NewString(), Role: models.ChatRoleUser, Text: text})
	generation := sess.generation
	transcript := append([]models.ChatMessage(nil), sess.history...)
	s.mu.Unlock()

	reply := s.complete(ctx, transcript)
	reply.ID = uuid.NewString()
	reply.Role = models.ChatRoleModel

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.generation != generation || s.sessions[key] != sess {
		s.logger.Info("dropping chat reply for reset conversation", zap.String("session", key))
		return &models.ChatReply{Reply: reply, History: append([]models.ChatMessage(nil), s.session(key).history...), Dropped: true}, nil
	}
	sess.history = append(sess.history, reply)
	return &models.ChatReply{Reply: reply, History: append([]models.ChatMessage(nil), sess.history...)}, nil
}

func (s *ChatService) session(key string) *chatSession {
	sess, ok := s.sessions[key]
	if !ok {
		sess = &chatSession{history: []models.ChatMessage{welcomeFor(key)}}
		s.sessions[key] = sess
	}
	return sess
}

func welcomeFor(key string) models.ChatMessage {
	text := welcomeText
	if strings.HasPrefix(key, EmbeddedSessionPrefix) {
		text = embeddedWelcome
	}
	return models.ChatMessage{ID: welcomeID, Role: models.ChatRoleModel, Text: text}
}

// complete produces the reply text. Canned replies are flagged Fallback so
// later completions leave them out of the context.
func (s *ChatService) complete(ctx context.Context, transcript []models.ChatMessage) models.ChatMessage {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		s.metrics.RecordChatReply("missing_key")
		return models.ChatMessage{Text: ReplyMissingKey, Fallback: true}
	}

	text, err := s.callCompletion(ctx, transcript)
	if err != nil {
		s.logger.Warn("chat completion failed", zap.Error(err))
		s.metrics.RecordChatReply("transport_error")
		return models.ChatMessage{Text: ReplyTransport, IsError: true, Fallback: true}
	}
	if strings.TrimSpace(text) == "" {
		s.metrics.RecordChatReply("empty")
		return models.ChatMessage{Text: ReplyEmpty, Fallback: true}
	}
	s.metrics.RecordChatReply("ok")
	return models.ChatMessage{Text: text}
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *ChatService) callCompletion(ctx context.Context, transcript []models.ChatMessage) (string, error) {
	messages := []completionMessage{{Role: "system", Content: systemPrompt}}
	convo := make([]completionMessage, 0, len(transcript))
	for _, m := range transcript {
		if m.ID == welcomeID || m.IsError || m.Fallback {
			continue
		}
		role := "user"
		if m.Role == models.ChatRoleModel {
			role = "assistant"
		}
		convo = append(convo, completionMessage{Role: role, Content: m.Text})
	}
	if len(convo) > maxContextMessages {
		convo = convo[len(convo)-maxContextMessages:]
	}
	messages = append(messages, convo...)

	payload, err := json.Marshal(map[string]any{
		"model":       s.cfg.Model,
		"temperature": s.cfg.Temperature,
		"messages":    messages,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, normalizeOpenAIEndpoint(s.cfg.BaseURL), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cc); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", nil
	}
	return cc.Choices[0].Message.Content, nil
}

func normalizeOpenAIEndpoint(base string) string {
	endpoint := strings.TrimRight(strings.TrimSpace(base), "/")
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	switch {
	case strings.HasSuffix(endpoint, "/chat/completions"):
		return endpoint
	case strings.HasSuffix(endpoint, "/v1"), strings.HasSuffix(endpoint, "/openai"):
		return endpoint + "/chat/completions"
	default:
		return endpoint + "/v1/chat/completions"
	}
}
