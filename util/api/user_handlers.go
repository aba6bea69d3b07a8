package api

import (
	"encoding/json"
	"net/http"

	"gatherly-backend/database"
	"gatherly-backend/middleware"
	"gatherly-backend/models"
)

// GET /whoami - return the authenticated user's basic info.
func WhoAmIHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.UserResponse
	err := database.DB.QueryRow("SELECT id, username, email FROM users WHERE id = ?", userID).
		Scan(&user.ID, &user.Username, &user.Email)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// GET /users/search?q= - search users by username or email, used by the event
// invite dialog. The caller is excluded from the results.
func SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.UserResponse{})
		return
	}

	rows, err := database.DB.Query(`
        SELECT id, username, email FROM users
        WHERE (username LIKE ? OR email LIKE ?) AND id != ?
        ORDER BY username ASC
        LIMIT 20
    `, "%"+query+"%", "%"+query+"%", userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var users []models.UserResponse
	for rows.Next() {
		var u models.UserResponse
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			continue
		}
		users = append(users, u)
	}
	if users == nil {
		users = []models.UserResponse{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}
