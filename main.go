package main

import (
	"fmt"
	"log"
	"net/http"

	"gatherly-backend/config"
	"gatherly-backend/database"
	"gatherly-backend/middleware"
	"gatherly-backend/pkg/db/sqlite"
	"gatherly-backend/scheduler"
	"gatherly-backend/util"
	"gatherly-backend/util/api"

	"github.com/rs/cors"
)

// localCheckAuth validates the session cookie without going through the
// middleware, so the frontend can probe auth state cheaply.
func localCheckAuth(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(util.SessionCookieName)
	if err != nil {
		if err == http.ErrNoCookie {
			http.Error(w, "Unauthorized: No session cookie", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Error reading session cookie", http.StatusInternalServerError)
		return
	}
	if cookie.Value == "" {
		http.Error(w, "Unauthorized: Empty session token", http.StatusUnauthorized)
		return
	}

	userID := util.GetUserIDFromSession(cookie.Value)
	if userID == 0 {
		http.Error(w, "Unauthorized: Invalid session token", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Authenticated request"))
}

func main() {
	log.Println("Initializing application...")
	cfg := config.Load()
	log.Printf("Using database at: %s", cfg.DBPath)

	// Apply migrations before initializing the database
	_, err := sqlite.ConnectAndMigrate(cfg.DBPath, cfg.MigrationsPath)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Initialize Database
	if err := database.InitDB(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Periodic maintenance: retire past events, purge old ones.
	stop := make(chan struct{})
	defer close(stop)
	scheduler.RunOnce()
	scheduler.Start(cfg.MaintenanceInterval, stop)

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.AuthMiddleware(http.HandlerFunc(api.WebSocketHandler)))

	// Auth handlers
	mux.HandleFunc("POST /register", api.RegisterHandler)
	mux.HandleFunc("POST /login", api.LoginHandler)
	mux.HandleFunc("POST /logout", api.LogoutHandler)
	mux.Handle("GET /checkAuth", middleware.AuthMiddleware(http.HandlerFunc(localCheckAuth)))
	mux.Handle("GET /whoami", middleware.AuthMiddleware(http.HandlerFunc(api.WhoAmIHandler)))
	mux.Handle("GET /users/search", middleware.AuthMiddleware(http.HandlerFunc(api.SearchUsersHandler)))

	// Dashboard
	mux.Handle("GET /dashboard", middleware.AuthMiddleware(http.HandlerFunc(api.DashboardHandler)))

	// Event handlers
	mux.Handle("GET /events", middleware.AuthMiddleware(http.HandlerFunc(api.ListEventsHandler)))
	mux.Handle("POST /events", middleware.AuthMiddleware(http.HandlerFunc(api.CreateEventHandler)))
	mux.Handle("GET /events/{eventID}", middleware.AuthMiddleware(http.HandlerFunc(api.GetEventHandler)))
	mux.Handle("PUT /events/{eventID}", middleware.AuthMiddleware(http.HandlerFunc(api.UpdateEventHandler)))
	mux.Handle("DELETE /events/{eventID}", middleware.AuthMiddleware(http.HandlerFunc(api.DeleteEventHandler)))
	mux.Handle("POST /events/{eventID}/invite", middleware.AuthMiddleware(http.HandlerFunc(api.InviteToEventHandler)))

	// RSVP handlers
	mux.Handle("POST /events/{eventID}/rsvp", middleware.AuthMiddleware(http.HandlerFunc(api.RSVPEventHandler)))
	mux.Handle("GET /rsvps", middleware.AuthMiddleware(http.HandlerFunc(api.ListRSVPsHandler)))

	// Task handlers
	mux.Handle("GET /events/{eventID}/tasks", middleware.AuthMiddleware(http.HandlerFunc(api.ListTasksHandler)))
	mux.Handle("POST /events/{eventID}/tasks", middleware.AuthMiddleware(http.HandlerFunc(api.CreateTaskHandler)))
	mux.Handle("GET /events/{eventID}/assignable-users", middleware.AuthMiddleware(http.HandlerFunc(api.AssignableUsersHandler)))
	mux.Handle("PUT /tasks/{taskID}", middleware.AuthMiddleware(http.HandlerFunc(api.UpdateTaskHandler)))
	mux.Handle("POST /tasks/{taskID}/toggle", middleware.AuthMiddleware(http.HandlerFunc(api.ToggleTaskHandler)))
	mux.Handle("DELETE /tasks/{taskID}", middleware.AuthMiddleware(http.HandlerFunc(api.DeleteTaskHandler)))

	// Chat handlers
	mux.Handle("GET /api/chats", middleware.AuthMiddleware(http.HandlerFunc(api.GetChatsHandler)))
	mux.Handle("GET /api/chats/{chatID}/messages", middleware.AuthMiddleware(http.HandlerFunc(api.ListMessagesHandler)))
	mux.Handle("POST /api/chats/{chatID}/messages", middleware.AuthMiddleware(http.HandlerFunc(api.AddMessageHandler)))

	// --- CORS Middleware ---
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true, // Required for cookies!
	})

	handler := c.Handler(mux)

	fmt.Printf("Server running on localhost:%s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
