package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	apperrors "taskdesk/internal/errors"
	"taskdesk/internal/model"
	"taskdesk/internal/repository"
)

const (
	titleMaxLength       = 200
	descriptionMaxLength = 1000

	// DefaultListLimit is used when a listing does not ask for a page size.
	DefaultListLimit = 100
)

// TaskService handles owner-scoped task operations.
type TaskService interface {
	List(ctx context.Context, ownerID uint, filter model.TaskFilter) ([]model.Task, error)
	Create(ctx context.Context, ownerID uint, in model.TaskInput) (*model.Task, error)
	Get(ctx context.Context, ownerID, taskID uint) (*model.Task, error)
	Update(ctx context.Context, ownerID, taskID uint, update model.TaskUpdate) (*model.Task, error)
	UpdateStatus(ctx context.Context, ownerID, taskID uint, status model.TaskStatus) (*model.Task, error)
	Delete(ctx context.Context, ownerID, taskID uint) error
}

type taskService struct {
	repo repository.TaskRepository
	now  func() time.Time
}

// NewTaskService creates a new task service.
func NewTaskService(repo repository.TaskRepository) TaskService {
	return &taskService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// List returns the owner's tasks, newest first.
func (s *taskService) List(ctx context.Context, ownerID uint, filter model.TaskFilter) ([]model.Task, error) {
	var details []string
	if filter.Status != nil && !filter.Status.Valid() {
		details = append(details, "status: must be one of pending, in_progress, completed")
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		details = append(details, "priority: must be one of low, medium, high")
	}
	limit := DefaultListLimit
	if filter.Limit != nil {
		limit = *filter.Limit
	}
	if limit < 0 && limit != model.NoLimit {
		details = append(details, "limit: must not be negative")
	}
	filter.Limit = &limit
	if filter.Offset < 0 {
		details = append(details, "offset: must not be negative")
	}
	if len(details) > 0 {
		return nil, apperrors.Validation("invalid task filter", details...)
	}
	if limit == 0 {
		return []model.Task{}, nil
	}

	tasks, err := s.repo.List(ctx, ownerID, filter)
	if err != nil {
		return nil, apperrors.Internal("list tasks", err)
	}
	return tasks, nil
}

// Create stores a new task for the owner.
func (s *taskService) Create(ctx context.Context, ownerID uint, in model.TaskInput) (*model.Task, error) {
	if in.Priority == "" {
		in.Priority = model.TaskPriorityMedium
	}
	if in.Status == "" {
		in.Status = model.TaskStatusPending
	}

	title := strings.TrimSpace(in.Title)
	description := normalizeDescription(in.Description)
	details := validateTaskFields(&title, description, &in.Priority, &in.Status)
	if len(details) > 0 {
		return nil, apperrors.Validation("invalid task", details...)
	}

	now := s.now()
	task := &model.Task{
		Title:       title,
		Description: description,
		Priority:    in.Priority,
		Status:      in.Status,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, apperrors.Internal("create task", err)
	}
	return task, nil
}

// Get returns one of the owner's tasks. Tasks of other owners are reported as not found.
func (s *taskService) Get(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	task, err := s.repo.FindByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, mapTaskError("get task", err)
	}
	return task, nil
}

// Update applies the supplied fields and refreshes UpdatedAt.
func (s *taskService) Update(ctx context.Context, ownerID, taskID uint, update model.TaskUpdate) (*model.Task, error) {
	if update.Empty() {
		return nil, apperrors.ErrNoFieldsToUpdate
	}

	fields := make(map[string]interface{}, 5)
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		update.Title = &title
		fields["title"] = title
	}
	if update.Description != nil {
		update.Description = normalizeDescription(update.Description)
		fields["description"] = *update.Description
	}
	if update.Priority != nil {
		fields["priority"] = string(*update.Priority)
	}
	if update.Status != nil {
		fields["status"] = string(*update.Status)
	}
	if details := validateTaskFields(update.Title, update.Description, update.Priority, update.Status); len(details) > 0 {
		return nil, apperrors.Validation("invalid task update", details...)
	}
	fields["updated_at"] = s.now()

	var updated *model.Task
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.TaskRepository) error {
		if _, err := repo.FindByIDAndOwner(ctx, taskID, ownerID); err != nil {
			return err
		}
		if _, err := repo.UpdateFields(ctx, taskID, ownerID, fields); err != nil {
			return err
		}
		task, err := repo.FindByIDAndOwner(ctx, taskID, ownerID)
		if err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, mapTaskError("update task", err)
	}
	return updated, nil
}

// UpdateStatus changes only the status of a task.
func (s *taskService) UpdateStatus(ctx context.Context, ownerID, taskID uint, status model.TaskStatus) (*model.Task, error) {
	return s.Update(ctx, ownerID, taskID, model.TaskUpdate{Status: &status})
}

// Delete removes one of the owner's tasks.
func (s *taskService) Delete(ctx context.Context, ownerID, taskID uint) error {
	affected, err := s.repo.Delete(ctx, taskID, ownerID)
	if err != nil {
		return apperrors.Internal("delete task", err)
	}
	if affected == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

// validateTaskFields checks every non-nil field. A nil pointer means "not supplied".
func validateTaskFields(title, description *string, priority *model.TaskPriority, status *model.TaskStatus) []string {
	var details []string
	if title != nil {
		switch {
		case *title == "":
			details = append(details, "title: is required")
		case utf8.RuneCountInString(*title) > titleMaxLength:
			details = append(details, fmt.Sprintf("title: must be at most %d characters", titleMaxLength))
		}
	}
	if description != nil && utf8.RuneCountInString(*description) > descriptionMaxLength {
		details = append(details, fmt.Sprintf("description: must be at most %d characters", descriptionMaxLength))
	}
	if priority != nil && !priority.Valid() {
		details = append(details, "priority: must be one of low, medium, high")
	}
	if status != nil && !status.Valid() {
		details = append(details, "status: must be one of pending, in_progress, completed")
	}
	return details
}

func normalizeDescription(description *string) *string {
	if description == nil {
		return nil
	}
	d := strings.TrimSpace(*description)
	return &d
}

func mapTaskError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrTaskNotFound
	}
	return apperrors.Internal(op, err)
}
