package models

// ChatRole identifies the speaker of a chat message.
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatMessage is one line of a consultant conversation.
type ChatMessage struct {
	ID       string   `json:"id"`
	Role     ChatRole `json:"role"`
	Text     string   `json:"text"`
	IsError  bool     `json:"is_error,omitempty"`
	Fallback bool     `json:"fallback,omitempty"` // canned reply, never sent back as context
}

// ChatRequest carries a user question.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// ChatReply is returned after a question has been answered.
type ChatReply struct {
	Reply   ChatMessage   `json:"reply"`
	History []ChatMessage `json:"history"`
	Dropped bool          `json:"dropped,omitempty"`
}
