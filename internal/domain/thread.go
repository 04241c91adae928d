package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a thread. Immutable once appended.
type Message struct {
	Role    Role
	Content string
}

// Thread holds the identity and append-only message history of one
// conversation. Exactly one thread is live at a time.
type Thread struct {
	ID        string
	Title     string
	CreatedAt time.Time
	Messages  []Message
}

func NewThread(title string, now time.Time) *Thread {
	return &Thread{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
	}
}

func (t *Thread) Append(role Role, content string) {
	t.Messages = append(t.Messages, Message{Role: role, Content: content})
}
