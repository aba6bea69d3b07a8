package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"gatherly-backend/database"
	"gatherly-backend/middleware"
	"gatherly-backend/models"
	"gatherly-backend/service"
)

// validateAssignee rejects an assignment to anyone outside the event's
// assignable set (creator + YES RSVPs). The set is recomputed on every call.
func validateAssignee(w http.ResponseWriter, eventID int64, assignedTo *int64) bool {
	if assignedTo == nil {
		return true
	}
	allowed, err := service.CanAssign(database.DB, eventID, *assignedTo)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return false
	}
	if !allowed {
		http.Error(w, "Tasks can only be assigned to the event creator or users who RSVP'd YES", http.StatusBadRequest)
		return false
	}
	return true
}

// GET /events/{eventID}/tasks - list an event's tasks, newest first.
func ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	eventID, _ := strconv.ParseInt(r.PathValue("eventID"), 10, 64)

	rows, err := database.DB.Query(`
        SELECT t.id, t.event_id, t.assigned_to, COALESCE(u.username, ''), t.description, t.is_completed
        FROM tasks t
        LEFT JOIN users u ON t.assigned_to = u.id
        WHERE t.event_id = ?
        ORDER BY t.id DESC
    `, eventID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var tasks []models.TaskResponse
	for rows.Next() {
		var t models.TaskResponse
		if err := rows.Scan(&t.ID, &t.EventID, &t.AssignedTo, &t.AssigneeName, &t.Description, &t.IsCompleted); err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	if tasks == nil {
		tasks = []models.TaskResponse{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

// POST /events/{eventID}/tasks - create a task for an event.
func CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	eventID, _ := strconv.ParseInt(r.PathValue("eventID"), 10, 64)

	var exists bool
	if err := database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)", eventID).Scan(&exists); err != nil || !exists {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	var req models.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Description == "" {
		http.Error(w, "Description is required", http.StatusBadRequest)
		return
	}
	if !validateAssignee(w, eventID, req.AssignedTo) {
		return
	}

	res, err := database.DB.Exec(
		"INSERT INTO tasks (event_id, assigned_to, description, is_completed) VALUES (?, ?, ?, ?)",
		eventID, req.AssignedTo, req.Description, req.IsCompleted,
	)
	if err != nil {
		http.Error(w, "Failed to create task", http.StatusInternalServerError)
		return
	}
	taskID, _ := res.LastInsertId()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"task_id": taskID})
}

// PUT /tasks/{taskID} - edit a task. The assignee is re-validated against the
// event's current assignable set.
func UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	taskID, _ := strconv.ParseInt(r.PathValue("taskID"), 10, 64)

	var eventID int64
	err := database.DB.QueryRow("SELECT event_id FROM tasks WHERE id = ?", taskID).Scan(&eventID)
	if err == sql.ErrNoRows {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	var req models.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Description == "" {
		http.Error(w, "Description is required", http.StatusBadRequest)
		return
	}
	if !validateAssignee(w, eventID, req.AssignedTo) {
		return
	}

	_, err = database.DB.Exec(
		"UPDATE tasks SET assigned_to = ?, description = ?, is_completed = ? WHERE id = ?",
		req.AssignedTo, req.Description, req.IsCompleted, taskID,
	)
	if err != nil {
		http.Error(w, "Failed to update task", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// POST /tasks/{taskID}/toggle - flip a task's completion flag.
func ToggleTaskHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	taskID, _ := strconv.ParseInt(r.PathValue("taskID"), 10, 64)

	res, err := database.DB.Exec("UPDATE tasks SET is_completed = NOT is_completed WHERE id = ?", taskID)
	if err != nil {
		http.Error(w, "Failed to toggle task", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	var t models.Task
	err = database.DB.QueryRow("SELECT id, event_id, assigned_to, description, is_completed FROM tasks WHERE id = ?", taskID).
		Scan(&t.ID, &t.EventID, &t.AssignedTo, &t.Description, &t.IsCompleted)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(t)
}

// DELETE /tasks/{taskID} - delete a task.
func DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	taskID, _ := strconv.ParseInt(r.PathValue("taskID"), 10, 64)

	res, err := database.DB.Exec("DELETE FROM tasks WHERE id = ?", taskID)
	if err != nil {
		http.Error(w, "Failed to delete task", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /events/{eventID}/assignable-users - the users a task for this event may
// be assigned to.
func AssignableUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	eventID, _ := strconv.ParseInt(r.PathValue("eventID"), 10, 64)

	var exists bool
	if err := database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)", eventID).Scan(&exists); err != nil || !exists {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	rows, err := database.DB.Query(`
        SELECT u.id, u.username, u.email
        FROM users u
        WHERE u.id IN (
            SELECT creator_id FROM events WHERE id = ?
            UNION
            SELECT user_id FROM rsvps WHERE event_id = ? AND status = 'YES'
        )
        ORDER BY u.username ASC
    `, eventID, eventID)
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
