package model

import "time"

// TaskStats is the per-account aggregate returned by the stats endpoint.
type TaskStats struct {
	TotalTasks           int64                  `json:"total_tasks"`
	RecentTasks          int64                  `json:"recent_tasks"`
	StatusDistribution   map[TaskStatus]int64   `json:"status_distribution"`
	PriorityDistribution map[TaskPriority]int64 `json:"priority_distribution"`
	CompletionRate       float64                `json:"completion_rate"`
}

// Completed returns the number of completed tasks.
func (s *TaskStats) Completed() int64 {
	return s.StatusDistribution[TaskStatusCompleted]
}

// RecentAccount is the trimmed account view shown on the admin overview.
type RecentAccount struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminOverview aggregates counts across all accounts.
type AdminOverview struct {
	TotalUsers         int64                `json:"total_users"`
	TotalTasks         int64                `json:"total_tasks"`
	RecentUsers        []RecentAccount      `json:"recent_users"`
	StatusDistribution map[TaskStatus]int64 `json:"status_distribution"`
}
