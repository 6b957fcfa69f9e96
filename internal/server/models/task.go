package models

import "time"

// TaskItem is a unit of work owned by exactly one project. Assignees are
// free-form strings kept in insertion order.
type TaskItem struct {
	ID          int64
	ProjectID   int64
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *time.Time
	Assignees   []string
}
