package util

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"

	"gatherly-backend/database"
)

const SessionCookieName = "session_token"

// In-memory session store, maps session token to user ID.
var (
	sessions = make(map[string]int64)
	mu       sync.RWMutex
)

// GenerateSessionToken creates a cryptographically secure random session token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateSession creates a new session for the user and returns the session token.
func CreateSession(userID int64) (string, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return "", err
	}

	mu.Lock()
	sessions[token] = userID
	mu.Unlock()
	return token, nil
}

// GetUserIDFromSession retrieves the user ID associated with a session token.
// Returns 0 if the session is not valid.
func GetUserIDFromSession(token string) int64 {
	mu.RLock()
	userID, ok := sessions[token]
	mu.RUnlock()
	if !ok {
		return 0
	}
	return userID
}

// DeleteSession removes a session from the store.
func DeleteSession(token string) {
	mu.Lock()
	delete(sessions, token)
	mu.Unlock()
}

// GetUserIDFromRequest extracts the user ID from the session cookie.
// Returns 0 without an error when there is no valid session; the auth
// middleware turns that into a 401.
func GetUserIDFromRequest(r *http.Request) (int64, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if err == http.ErrNoCookie {
			return 0, nil
		}
		return 0, err
	}

	userID := GetUserIDFromSession(cookie.Value)
	if userID == 0 {
		return 0, nil
	}

	// The user may have been deleted since the session was created.
	var exists bool
	err = database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", userID).Scan(&exists)
	if err != nil || !exists {
		DeleteSession(cookie.Value)
		return 0, nil
	}

	return userID, nil
}
