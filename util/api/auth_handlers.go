package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"gatherly-backend/database"
	"gatherly-backend/models"
	"gatherly-backend/util"

	"golang.org/x/crypto/bcrypt"
)

// RegisterHandler handles user registration.
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" || req.Username == "" {
		http.Error(w, "Email, password, and username are required", http.StatusBadRequest)
		return
	}

	// Duplicate email/username is a validation error, not a 500.
	var taken bool
	err := database.DB.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = ? OR username = ?)",
		req.Email, req.Username,
	).Scan(&taken)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if taken {
		http.Error(w, "Email or username is already registered. Please use a different one.", http.StatusBadRequest)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error processing password", http.StatusInternalServerError)
		log.Printf("Error hashing password: %v", err)
		return
	}

	result, err := database.DB.Exec(
		"INSERT INTO users (username, email, password, created_at) VALUES (?, ?, ?, ?)",
		req.Username, req.Email, string(hashedPassword), time.Now(),
	)
	if err != nil {
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		log.Printf("Error inserting user: %v", err)
		return
	}

	userID, err := result.LastInsertId()
	if err != nil {
		http.Error(w, "Failed to retrieve user ID", http.StatusInternalServerError)
		return
	}

	sessionToken, err := util.CreateSession(userID)
	if err != nil {
		log.Printf("Failed to create session for new user %d after registration: %v", userID, err)
	} else {
		http.SetCookie(w, &http.Cookie{
			Name:     util.SessionCookieName,
			Value:    sessionToken,
			Path:     "/",
			Expires:  time.Now().Add(24 * time.Hour),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   false,
		})
		log.Printf("User %s (ID: %d) registered and session created.", req.Username, userID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.UserResponse{
		ID:       userID,
		Username: req.Username,
		Email:    req.Email,
	})
}

// LoginHandler handles user login by username or email.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" || req.Password == "" {
		http.Error(w, "Username/email and password are required", http.StatusBadRequest)
		return
	}

	var userID int64
	var storedPasswordHash, username, email string
	err := database.DB.QueryRow(
		"SELECT id, password, username, email FROM users WHERE username = ? OR email = ?",
		identifier, identifier,
	).Scan(&userID, &storedPasswordHash, &username, &email)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		} else {
			log.Printf("Login failed - database error: %v", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedPasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	sessionToken, err := util.CreateSession(userID)
	if err != nil {
		log.Printf("Login failed - session creation error: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     util.SessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	})

	log.Printf("Login successful for user: %s (ID: %d)", username, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.UserResponse{
		ID:       userID,
		Username: username,
		Email:    email,
	})
}

// LogoutHandler handles user logout.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(util.SessionCookieName)
	if err != nil {
		if err == http.ErrNoCookie {
			http.Error(w, "No active session", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Server error reading cookie", http.StatusInternalServerError)
		log.Printf("Error reading session cookie on logout: %v", err)
		return
	}

	util.DeleteSession(cookie.Value)

	http.SetCookie(w, &http.Cookie{
		Name:     util.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logged out successfully"})
}
