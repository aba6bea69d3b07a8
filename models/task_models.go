package models

type Task struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"event_id"`
	AssignedTo  *int64 `json:"assigned_to"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
}

// TaskRequest is the create/edit request body. AssignedTo is optional; when
// set it must be the event creator or a user who RSVP'd YES.
type TaskRequest struct {
	AssignedTo  *int64 `json:"assigned_to"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
}

// TaskResponse is a task enriched with the assignee's username.
type TaskResponse struct {
	ID           int64  `json:"id"`
	EventID      int64  `json:"event_id"`
	AssignedTo   *int64 `json:"assigned_to"`
	AssigneeName string `json:"assignee_name,omitempty"`
	Description  string `json:"description"`
	IsCompleted  bool   `json:"is_completed"`
}
