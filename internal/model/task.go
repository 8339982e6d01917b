package model

import "time"

// TaskPriority represents how urgent a task is.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// TaskPriorities lists every priority in display order.
var TaskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// TaskStatus represents the progress of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task is a to-do item owned by exactly one account.
type Task struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"size:200;not null"`
	Description *string      `json:"description" gorm:"size:1000"`
	Priority    TaskPriority `json:"priority" gorm:"type:varchar(20);not null;index"`
	Status      TaskStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	UserID      uint         `json:"user_id" gorm:"not null;index"`
	CreatedAt   time.Time    `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NoLimit as a TaskFilter limit returns every matching task.
const NoLimit = -1

// TaskFilter narrows a task listing. Nil filters match everything.
// A nil Limit leaves the page size to the caller's default.
type TaskFilter struct {
	Status   *TaskStatus
	Priority *TaskPriority
	Limit    *int
	Offset   int
}

// PageLimit returns n as a TaskFilter limit.
func PageLimit(n int) *int {
	return &n
}

// TaskInput carries the fields of a new task.
type TaskInput struct {
	Title       string
	Description *string
	Priority    TaskPriority
	Status      TaskStatus
}

// TaskUpdate is a partial update: only non-nil slots are applied.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *TaskPriority
	Status      *TaskStatus
}

// Empty reports whether no field was supplied.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil && u.Status == nil
}
