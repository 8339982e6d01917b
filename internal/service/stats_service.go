package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	apperrors "taskdesk/internal/errors"
	"taskdesk/internal/model"
	"taskdesk/internal/repository"
)

const (
	recentWindow      = 7 * 24 * time.Hour
	recentUsersOnView = 5
)

// StatsService computes read-only aggregates. Nothing is cached; every call hits storage.
type StatsService interface {
	Compute(ctx context.Context, ownerID uint) (*model.TaskStats, error)
	AdminOverview(ctx context.Context) (*model.AdminOverview, error)
}

type statsService struct {
	taskRepo    repository.TaskRepository
	accountRepo repository.AccountRepository
	now         func() time.Time
}

// NewStatsService creates a new stats service.
func NewStatsService(taskRepo repository.TaskRepository, accountRepo repository.AccountRepository) StatsService {
	return &statsService{
		taskRepo:    taskRepo,
		accountRepo: accountRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Compute returns the owner's task statistics.
func (s *statsService) Compute(ctx context.Context, ownerID uint) (*model.TaskStats, error) {
	total, err := s.taskRepo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal("count tasks", err)
	}

	recent, err := s.taskRepo.CountCreatedSince(ctx, ownerID, s.now().Add(-recentWindow))
	if err != nil {
		return nil, apperrors.Internal("count recent tasks", err)
	}

	byStatus, err := s.taskRepo.CountGroupedByOwner(ctx, ownerID, "status")
	if err != nil {
		return nil, apperrors.Internal("count tasks by status", err)
	}
	byPriority, err := s.taskRepo.CountGroupedByOwner(ctx, ownerID, "priority")
	if err != nil {
		return nil, apperrors.Internal("count tasks by priority", err)
	}

	stats := &model.TaskStats{
		TotalTasks:           total,
		RecentTasks:          recent,
		StatusDistribution:   statusDistribution(byStatus),
		PriorityDistribution: priorityDistribution(byPriority),
	}
	stats.CompletionRate = CompletionRate(stats.Completed(), total)
	return stats, nil
}

// AdminOverview returns counts across all accounts.
func (s *statsService) AdminOverview(ctx context.Context) (*model.AdminOverview, error) {
	users, err := s.accountRepo.Count(ctx)
	if err != nil {
		return nil, apperrors.Internal("count accounts", err)
	}
	tasks, err := s.taskRepo.CountAll(ctx)
	if err != nil {
		return nil, apperrors.Internal("count all tasks", err)
	}
	recent, err := s.accountRepo.ListRecent(ctx, recentUsersOnView)
	if err != nil {
		return nil, apperrors.Internal("list recent accounts", err)
	}
	byStatus, err := s.taskRepo.CountGroupedAll(ctx, "status")
	if err != nil {
		return nil, apperrors.Internal("count all tasks by status", err)
	}

	overview := &model.AdminOverview{
		TotalUsers:         users,
		TotalTasks:         tasks,
		RecentUsers:        make([]model.RecentAccount, 0, len(recent)),
		StatusDistribution: statusDistribution(byStatus),
	}
	for _, a := range recent {
		overview.RecentUsers = append(overview.RecentUsers, model.RecentAccount{
			Username:  a.Username,
			Email:     a.Email,
			CreatedAt: a.CreatedAt,
		})
	}
	return overview, nil
}

// CompletionRate is completed/total as a percentage rounded to two decimals, 0 for an empty list.
func CompletionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	rate := decimal.NewFromInt(completed).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total), 2)
	f, _ := rate.Float64()
	return f
}

func statusDistribution(rows []repository.GroupCount) map[model.TaskStatus]int64 {
	dist := make(map[model.TaskStatus]int64, len(model.TaskStatuses))
	for _, st := range model.TaskStatuses {
		dist[st] = 0
	}
	for _, row := range rows {
		dist[model.TaskStatus(row.Key)] += row.Count
	}
	return dist
}

func priorityDistribution(rows []repository.GroupCount) map[model.TaskPriority]int64 {
	dist := make(map[model.TaskPriority]int64, len(model.TaskPriorities))
	for _, p := range model.TaskPriorities {
		dist[p] = 0
	}
	for _, row := range rows {
		dist[model.TaskPriority(row.Key)] += row.Count
	}
	return dist
}
