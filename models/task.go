package models

// Task status values. Toggling walks them as a ring:
// open -> in-progress -> completed -> open.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task is a to-do item owned by one user.
type Task struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Status string `json:"status"`
	UserID int    `json:"userId"`
}

// NextStatus returns the successor of status on the ring. Unknown values are
// returned unchanged.
func NextStatus(status string) string {
	switch status {
	case StatusOpen:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	case StatusCompleted:
		return StatusOpen
	default:
		return status
	}
}
