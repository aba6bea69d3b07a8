package models

import "time"

type Chat struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatParticipant struct {
	ID       int64     `json:"id"`
	ChatID   int64     `json:"chat_id"`
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageResponse is the wire shape of a chat message.
type MessageResponse struct {
	User      string    `json:"user"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatResponse is one chat tab: the event it belongs to, its ordered messages
// and a warning once the chat is close to deletion.
type ChatResponse struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	EventID  int64             `json:"event_pk"`
	Warning  *string           `json:"warning"`
	Messages []MessageResponse `json:"messages"`
}

// MessageListResponse is the payload of the message-list endpoint.
type MessageListResponse struct {
	Warning  *string           `json:"warning"`
	Messages []MessageResponse `json:"messages"`
}
