package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"gatherly-backend/database"
	"gatherly-backend/middleware"
	"gatherly-backend/models"
	"gatherly-backend/util"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev (restrict in production)
	},
}

// Active WebSocket connections per user.
var (
	activeConnections = make(map[int64]*websocket.Conn)
	connectionsMutex  sync.RWMutex
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WebSocketHandler keeps one connection per user and relays chat messages to
// online participants.
func WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	// Try to get session token from query string for local dev
	userID := int64(0)
	token := r.URL.Query().Get("token")
	if token != "" {
		userID = util.GetUserIDFromSession(token)
	}
	if userID == 0 {
		ctxUserID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if ok {
			userID = ctxUserID
		}
	}
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	connectionsMutex.Lock()
	activeConnections[userID] = conn
	connectionsMutex.Unlock()

	log.Printf("User %d connected via WebSocket", userID)

	defer func() {
		connectionsMutex.Lock()
		delete(activeConnections, userID)
		connectionsMutex.Unlock()
		log.Printf("User %d disconnected from WebSocket", userID)
	}()

	conn.WriteJSON(WSMessage{
		Type: "connected",
		Data: map[string]string{"status": "connected"},
	})

	for {
		var msg WSMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			log.Printf("WebSocket read error for user %d: %v", userID, err)
			break
		}

		switch msg.Type {
		case "chat_message":
			var req struct {
				ChatID  int64  `json:"chat_id"`
				Message string `json:"message"`
			}
			msgData, err := json.Marshal(msg.Data)
			if err != nil {
				log.Printf("Error marshaling chat message data: %v", err)
				continue
			}
			if err := json.Unmarshal(msgData, &req); err != nil {
				log.Printf("Error unmarshaling chat message: %v", err)
				continue
			}
			if req.Message == "" {
				conn.WriteJSON(WSMessage{Type: "error", Data: "Message text cannot be empty"})
				continue
			}

			// Same membership rule as the REST endpoint.
			var isParticipant bool
			err = database.DB.QueryRow(`
                SELECT EXISTS(
                    SELECT 1 FROM chat_participants
                    WHERE chat_id = ? AND user_id = ?
                )
            `, req.ChatID, userID).Scan(&isParticipant)
			if err != nil || !isParticipant {
				conn.WriteJSON(WSMessage{Type: "error", Data: "Not a chat participant"})
				continue
			}

			now := time.Now()
			_, err = database.DB.Exec(
				"INSERT INTO messages (chat_id, user_id, content, created_at) VALUES (?, ?, ?, ?)",
				req.ChatID, userID, req.Message, now,
			)
			if err != nil {
				log.Printf("Error saving chat message: %v", err)
				conn.WriteJSON(WSMessage{Type: "error", Data: "Failed to save message"})
				continue
			}

			var username string
			if err := database.DB.QueryRow("SELECT username FROM users WHERE id = ?", userID).Scan(&username); err != nil {
				log.Printf("Error getting username: %v", err)
				username = "Unknown"
			}

			response := models.MessageResponse{
				User:      username,
				Message:   req.Message,
				CreatedAt: now,
			}
			BroadcastToChat(req.ChatID, "chat_message", response, &userID)
			conn.WriteJSON(WSMessage{Type: "chat_message_sent", Data: response})

		case "heartbeat":
			conn.WriteJSON(WSMessage{Type: "heartbeat_ack", Data: "ok"})

		case "ping":
			conn.WriteJSON(WSMessage{Type: "pong", Data: "pong"})

		default:
			log.Printf("Unknown message type from user %d: %s", userID, msg.Type)
		}
	}
}

// BroadcastToUser sends a message to a specific user if they are online.
func BroadcastToUser(receiverID int64, msgType string, data interface{}) {
	connectionsMutex.RLock()
	conn, exists := activeConnections[receiverID]
	connectionsMutex.RUnlock()

	if exists {
		msg := WSMessage{
			Type: msgType,
			Data: data,
		}
		err := conn.WriteJSON(msg)
		if err != nil {
			log.Printf("Error broadcasting to user %d: %v", receiverID, err)
			// Remove dead connection
			connectionsMutex.Lock()
			delete(activeConnections, receiverID)
			connectionsMutex.Unlock()
		}
	}
}

// BroadcastToChat sends a message to all participants of a chat.
func BroadcastToChat(chatID int64, msgType string, data interface{}, excludeUserID *int64) {
	rows, err := database.DB.Query("SELECT user_id FROM chat_participants WHERE chat_id = ?", chatID)
	if err != nil {
		log.Printf("Error getting chat participants: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var participantID int64
		if err := rows.Scan(&participantID); err != nil {
			continue
		}
		if excludeUserID != nil && participantID == *excludeUserID {
			continue
		}
		BroadcastToUser(participantID, msgType, data)
	}
}

// IsUserOnline reports whether the user has an active websocket connection.
func IsUserOnline(userID int64) bool {
	connectionsMutex.RLock()
	defer connectionsMutex.RUnlock()
	_, exists := activeConnections[userID]
	return exists
}
