package middleware

import (
	"context"
	"log"
	"net/http"

	"gatherly-backend/util"
)

// UserIDKey is the key used to store the user ID in the request context.
type UserIDKeyType string

const UserIDKey UserIDKeyType = "userID"

// AuthMiddleware checks for a valid session. If valid, it stores the user ID
// in the request context and proceeds; otherwise it returns 401.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := util.GetUserIDFromRequest(r)
		if err != nil {
			log.Printf("Error getting user ID from request in middleware: %v", err)
			http.Error(w, "Server error processing authentication", http.StatusInternalServerError)
			return
		}

		if userID == 0 {
			log.Printf("AuthMiddleware: Unauthorized access attempt from %s to %s", r.RemoteAddr, r.URL.Path)
			http.Error(w, "Unauthorized: You must be logged in.", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
