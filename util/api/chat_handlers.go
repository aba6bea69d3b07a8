package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"gatherly-backend/database"
	"gatherly-backend/middleware"
	"gatherly-backend/models"
)

const chatDeletionWarning = "This chat will be deleted soon."

// chatError writes the chat API's JSON error envelope.
func chatError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": message})
}

// chatWarning returns the deletion warning once the event date has passed.
// The cleanup job removes the chat two days later.
func chatWarning(eventDate time.Time) *string {
	if eventDate.Before(time.Now()) {
		warning := chatDeletionWarning
		return &warning
	}
	return nil
}

// isChatParticipant reports whether the user belongs to the chat.
func isChatParticipant(chatID, userID int64) (bool, error) {
	var exists bool
	err := database.DB.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id = ? AND user_id = ?)",
		chatID, userID,
	).Scan(&exists)
	return exists, err
}

// fetchChatMessages returns a chat's messages ordered by creation time.
func fetchChatMessages(chatID int64) ([]models.MessageResponse, error) {
	rows, err := database.DB.Query(`
        SELECT u.username, m.content, m.created_at
        FROM messages m
        JOIN users u ON m.user_id = u.id
        WHERE m.chat_id = ?
        ORDER BY m.created_at ASC
    `, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.MessageResponse{}
	for rows.Next() {
		var m models.MessageResponse
		if err := rows.Scan(&m.User, &m.Message, &m.CreatedAt); err != nil {
			continue
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// GET /api/chats - chats the caller participates in, each with its ordered
// messages and a deletion warning for past events.
func GetChatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		chatError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rows, err := database.DB.Query(`
        SELECT c.id, e.id, e.title, e.date
        FROM chat_participants cp
        JOIN chats c ON cp.chat_id = c.id
        JOIN events e ON c.event_id = e.id
        WHERE cp.user_id = ?
        ORDER BY e.date ASC
    `, userID)
	if err != nil {
		chatError(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	chats := []models.ChatResponse{}
	for rows.Next() {
		var chat models.ChatResponse
		var eventDate time.Time
		if err := rows.Scan(&chat.ID, &chat.EventID, &chat.Name, &eventDate); err != nil {
			continue
		}
		chat.Warning = chatWarning(eventDate)
		chats = append(chats, chat)
	}
	rows.Close()

	for i := range chats {
		messages, err := fetchChatMessages(chats[i].ID)
		if err != nil {
			chatError(w, http.StatusInternalServerError, "Database error")
			return
		}
		chats[i].Messages = messages
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chats)
}

// GET /api/chats/{chatID}/messages - ordered messages plus the deletion
// warning, participants only.
func ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		chatError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	chatID, _ := strconv.ParseInt(r.PathValue("chatID"), 10, 64)

	var eventDate time.Time
	err := database.DB.QueryRow(
		"SELECT e.date FROM chats c JOIN events e ON c.event_id = e.id WHERE c.id = ?",
		chatID,
	).Scan(&eventDate)
	if err == sql.ErrNoRows {
		chatError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err != nil {
		chatError(w, http.StatusInternalServerError, "Database error")
		return
	}

	participant, err := isChatParticipant(chatID, userID)
	if err != nil {
		chatError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !participant {
		chatError(w, http.StatusForbidden, "Not a chat participant")
		return
	}

	messages, err := fetchChatMessages(chatID)
	if err != nil {
		chatError(w, http.StatusInternalServerError, "Database error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.MessageListResponse{
		Warning:  chatWarning(eventDate),
		Messages: messages,
	})
}

// POST /api/chats/{chatID}/messages - append a message, participants only.
// Online participants get the message pushed over the websocket hub.
func AddMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		chatError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	chatID, _ := strconv.ParseInt(r.PathValue("chatID"), 10, 64)

	var exists bool
	if err := database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM chats WHERE id = ?)", chatID).Scan(&exists); err != nil || !exists {
		chatError(w, http.StatusNotFound, "Chat not found")
		return
	}

	participant, err := isChatParticipant(chatID, userID)
	if err != nil {
		chatError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !participant {
		chatError(w, http.StatusForbidden, "Not a chat participant")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		chatError(w, http.StatusBadRequest, "Message text is required")
		return
	}

	now := time.Now()
	_, err = database.DB.Exec(
		"INSERT INTO messages (chat_id, user_id, content, created_at) VALUES (?, ?, ?, ?)",
		chatID, userID, req.Message, now,
	)
	if err != nil {
		chatError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}

	var username string
	if err := database.DB.QueryRow("SELECT username FROM users WHERE id = ?", userID).Scan(&username); err != nil {
		username = "Unknown"
	}
	go BroadcastToChat(chatID, "chat_message", models.MessageResponse{
		User:      username,
		Message:   req.Message,
		CreatedAt: now,
	}, &userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}
