package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"taskdesk/internal/model"
)

// GroupCount is one row of a GROUP BY count.
type GroupCount struct {
	Key   string `gorm:"column:grp_key"`
	Count int64  `gorm:"column:grp_count"`
}

// TaskRepository defines task persistence operations. Every read and write is scoped to an owner.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*model.Task, error)
	List(ctx context.Context, ownerID uint, filter model.TaskFilter) ([]model.Task, error)
	UpdateFields(ctx context.Context, id, ownerID uint, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id, ownerID uint) (int64, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	CountCreatedSince(ctx context.Context, ownerID uint, since time.Time) (int64, error)
	CountGroupedByOwner(ctx context.Context, ownerID uint, column string) ([]GroupCount, error)
	CountAll(ctx context.Context) (int64, error)
	CountGroupedAll(ctx context.Context, column string) ([]GroupCount, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TaskRepository) error) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create inserts a task.
func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByIDAndOwner finds a task by ID, only if it belongs to ownerID.
func (r *taskRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns the owner's tasks, newest first. A nil limit returns every match.
func (r *taskRepository) List(ctx context.Context, ownerID uint, filter model.TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		q = q.Where("priority = ?", *filter.Priority)
	}

	if filter.Limit != nil && *filter.Limit != model.NoLimit {
		q = q.Limit(*filter.Limit)
	}

	tasks := make([]model.Task, 0)
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(filter.Offset).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateFields applies the given column values and reports the number of rows touched.
func (r *taskRepository) UpdateFields(ctx context.Context, id, ownerID uint, fields map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// Delete removes the task row.
func (r *taskRepository) Delete(ctx context.Context, id, ownerID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&model.Task{})
	return res.RowsAffected, res.Error
}

// CountByOwner counts the owner's tasks.
func (r *taskRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

// CountCreatedSince counts the owner's tasks created at or after since.
func (r *taskRepository) CountCreatedSince(ctx context.Context, ownerID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND created_at >= ?", ownerID, since).
		Count(&count).Error
	return count, err
}

// CountGroupedByOwner counts the owner's tasks grouped by column (status or priority).
func (r *taskRepository) CountGroupedByOwner(ctx context.Context, ownerID uint, column string) ([]GroupCount, error) {
	return r.countGrouped(r.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", ownerID), column)
}

// CountAll counts tasks across every account.
func (r *taskRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).Count(&count).Error
	return count, err
}

// CountGroupedAll counts tasks across every account grouped by column.
func (r *taskRepository) CountGroupedAll(ctx context.Context, column string) ([]GroupCount, error) {
	return r.countGrouped(r.db.WithContext(ctx).Model(&model.Task{}), column)
}

func (r *taskRepository) countGrouped(q *gorm.DB, column string) ([]GroupCount, error) {
	switch column {
	case "status", "priority":
	default:
		return nil, gorm.ErrInvalidField
	}

	var rows []GroupCount
	err := q.Select(column + " AS grp_key, COUNT(*) AS grp_count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WithTransaction executes a function within a database transaction.
func (r *taskRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &taskRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
