// Package seed creates the demo and admin accounts shipped with both apps.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskdesk/internal/model"
	"taskdesk/internal/repository"
)

// DemoTask is a task created for a seeded account.
type DemoTask struct {
	Title       string
	Description string
	Priority    model.TaskPriority
	Status      model.TaskStatus
}

// DemoAccount describes one seeded account.
type DemoAccount struct {
	Username string
	Email    string
	FullName string
	Password string
	IsAdmin  bool
	Tasks    []DemoTask
}

// DemoAccounts are the accounts Run creates.
var DemoAccounts = []DemoAccount{
	{
		Username: "demo",
		Email:    "demo@taskdesk.local",
		FullName: "Demo User",
		Password: "demo123",
		Tasks: []DemoTask{
			{"Implement JWT authentication", "Secure token based authentication", model.TaskPriorityHigh, model.TaskStatusCompleted},
			{"Write API documentation", "Generated Swagger/OpenAPI docs", model.TaskPriorityMedium, model.TaskStatusCompleted},
			{"Request validation", "Strict input validation for every endpoint", model.TaskPriorityMedium, model.TaskStatusInProgress},
			{"Error handling", "Consistent error envelopes", model.TaskPriorityLow, model.TaskStatusPending},
			{"Unit tests", "Cover services and handlers", model.TaskPriorityMedium, model.TaskStatusPending},
		},
	},
	{
		Username: "admin",
		Email:    "admin@taskdesk.local",
		FullName: "Administrator",
		Password: "admin123",
		IsAdmin:  true,
	},
}

// Result counts what a run did.
type Result struct {
	Created int
	Skipped int
}

// Seeder creates missing demo accounts.
type Seeder struct {
	accounts   repository.AccountRepository
	tasks      repository.TaskRepository
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a seeder.
func New(accounts repository.AccountRepository, tasks repository.TaskRepository, bcryptCost int, logger *slog.Logger) *Seeder {
	return &Seeder{
		accounts:   accounts,
		tasks:      tasks,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run creates every account in DemoAccounts that does not exist yet. Existing usernames are left untouched.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	for _, demo := range DemoAccounts {
		_, err := s.accounts.FindByUsername(ctx, demo.Username)
		if err == nil {
			s.logger.InfoContext(ctx, "seed account exists, skipping", "username", demo.Username)
			res.Skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return res, fmt.Errorf("check account %s: %w", demo.Username, err)
		}

		if err := s.create(ctx, demo); err != nil {
			return res, err
		}
		s.logger.InfoContext(ctx, "seed account created",
			"username", demo.Username,
			"admin", demo.IsAdmin,
			"tasks", len(demo.Tasks),
		)
		res.Created++
	}
	return res, nil
}

func (s *Seeder) create(ctx context.Context, demo DemoAccount) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(demo.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", demo.Username, err)
	}
	fullName := demo.FullName
	account := &model.Account{
		Username:     demo.Username,
		Email:        demo.Email,
		FullName:     &fullName,
		PasswordHash: string(hash),
		IsActive:     true,
		IsAdmin:      demo.IsAdmin,
		CreatedAt:    s.now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return fmt.Errorf("create account %s: %w", demo.Username, err)
	}

	for _, t := range demo.Tasks {
		description := t.Description
		now := s.now()
		task := &model.Task{
			Title:       t.Title,
			Description: &description,
			Priority:    t.Priority,
			Status:      t.Status,
			UserID:      account.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("create task %q for %s: %w", t.Title, demo.Username, err)
		}
	}
	return nil
}
