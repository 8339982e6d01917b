package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskdesk/internal/model"
	"taskdesk/internal/repository"
	"taskdesk/internal/testutil"
)

func TestSeeder_Run(t *testing.T) {
	gormDB := testutil.NewDB(t)
	accounts := repository.NewAccountRepository(gormDB)
	tasks := repository.NewTaskRepository(gormDB)
	seeder := New(accounts, tasks, bcrypt.MinCost, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	res, err := seeder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2}, res)

	demo, err := accounts.FindByUsername(ctx, "demo")
	require.NoError(t, err)
	assert.True(t, demo.IsActive)
	assert.False(t, demo.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(demo.PasswordHash), []byte("demo123")))

	demoTasks, err := tasks.List(ctx, demo.ID, model.TaskFilter{Limit: model.PageLimit(100)})
	require.NoError(t, err)
	assert.Len(t, demoTasks, 5)

	completed, err := tasks.CountGroupedByOwner(ctx, demo.ID, "status")
	require.NoError(t, err)
	assert.Contains(t, completed, repository.GroupCount{Key: "completed", Count: 2})

	admin, err := accounts.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")))
	adminTasks, err := tasks.CountByOwner(ctx, admin.ID)
	require.NoError(t, err)
	assert.Zero(t, adminTasks)

	t.Run("second run is a no-op", func(t *testing.T) {
		res, err := seeder.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, Result{Skipped: 2}, res)

		total, err := tasks.CountAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		count, err := accounts.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}
