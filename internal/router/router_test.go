package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskdesk/internal/auth"
	apperrors "taskdesk/internal/errors"
	"taskdesk/internal/model"
	"taskdesk/internal/repository"
	"taskdesk/internal/service"
	"taskdesk/internal/testutil"
)

type apiFixture struct {
	e  *echo.Echo
	db *gorm.DB
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gormDB := testutil.NewDB(t)
	accountRepo := repository.NewAccountRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)
	jwtService := auth.NewJWTService("router-test-secret", 30*time.Minute)

	e := echo.New()
	Register(e, slog.New(slog.NewTextHandler(io.Discard, nil)), Services{
		Auth:  service.NewAuthService(accountRepo, jwtService, service.AuthOptions{BcryptCost: bcrypt.MinCost}),
		Tasks: service.NewTaskService(taskRepo),
		Stats: service.NewStatsService(taskRepo, accountRepo),
	})
	return &apiFixture{e: e, db: gormDB}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) register(t *testing.T, username, email, password string) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (f *apiFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp
}

func TestAPI_DemoScenario(t *testing.T) {
	api := newAPI(t)
	api.register(t, "demo", "demo@example.com", "demo123")
	token := api.login(t, "demo", "demo123")

	rec := api.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": "X", "priority": "high"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, model.TaskStatusPending, created.Status)

	// A second task that must not match the filter.
	rec = api.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": "Y"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/tasks?priority=high", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, "X", listed[0].Title)

	taskPath := "/api/tasks/" + strconv.FormatUint(uint64(created.ID), 10)
	rec = api.do(t, http.MethodDelete, taskPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"task deleted successfully"}`, rec.Body.String())

	rec = api.do(t, http.MethodGet, taskPath, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	api := newAPI(t)

	rec := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "Demo", "email": "demo@example.com", "password": "demo123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered struct {
		Success bool `json:"success"`
		Data    struct {
			UserID uint `json:"user_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	assert.True(t, registered.Success)
	assert.NotZero(t, registered.Data.UserID)

	t.Run("duplicate after lowercasing", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "DEMO", "email": "other@example.com", "password": "demo123",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		decodeError(t, rec)

		var count int64
		require.NoError(t, api.db.Model(&model.Account{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("field level validation", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "x", "email": "nope", "password": "",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", resp.Code)
		assert.NotEmpty(t, resp.Errors)
	})

	t.Run("password longer than bcrypt accepts", func(t *testing.T) {
		for _, password := range []string{strings.Repeat("p", 80), strings.Repeat("é", 40)} {
			rec := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
				"username": "longpass", "email": "longpass@example.com", "password": password,
			})
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decodeError(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", resp.Code)
			assert.Contains(t, strings.Join(resp.Errors, "\n"), "password")
		}
	})

	t.Run("unicode letters in username", func(t *testing.T) {
		api.register(t, "Ñandú", "nandu@example.com", "demo123")
		token := api.login(t, "ñandú", "demo123")
		assert.NotEmpty(t, token)

		rec := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "nan_du", "email": "nan@example.com", "password": "demo123",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Errors, "username: may only contain letters and digits")
	})

	t.Run("login response hides the hash", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "demo", "password": "demo123",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
		assert.NotContains(t, rec.Body.String(), "$2a$")

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "bearer", resp["token_type"])
		assert.EqualValues(t, 1800, resp["expires_in"])
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		wrong := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "demo", "password": "nope"})
		unknown := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "ghost", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, wrong.Code, unknown.Code)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	})

	t.Run("me", func(t *testing.T) {
		token := api.login(t, "demo", "demo123")
		rec := api.do(t, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var account model.Account
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
		assert.Equal(t, "demo", account.Username)
	})
}

func TestAPI_BearerRequired(t *testing.T) {
	api := newAPI(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing header", token: ""},
		{name: "garbage token", token: "not-a-jwt"},
		{name: "foreign signature", token: mustForeignToken(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, "/api/tasks", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
			assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
		})
	}
}

func mustForeignToken(t *testing.T) string {
	t.Helper()
	token, err := auth.NewJWTService("someone-else", time.Minute).GenerateAccessToken("demo")
	require.NoError(t, err)
	return token
}

func TestAPI_InactiveAccountForbidden(t *testing.T) {
	api := newAPI(t)
	api.register(t, "demo", "demo@example.com", "demo123")
	token := api.login(t, "demo", "demo123")

	require.NoError(t, api.db.Model(&model.Account{}).Where("username = ?", "demo").Update("is_active", false).Error)

	rec := api.do(t, http.MethodGet, "/api/tasks", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "demo", "password": "demo123"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPI_OwnershipIsolation(t *testing.T) {
	api := newAPI(t)
	api.register(t, "alice", "alice@example.com", "secret1")
	api.register(t, "bob", "bob@example.com", "secret2")
	alice := api.login(t, "alice", "secret1")
	bob := api.login(t, "bob", "secret2")

	rec := api.do(t, http.MethodPost, "/api/tasks", alice, map[string]string{"title": "private"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	path := "/api/tasks/" + strconv.FormatUint(uint64(task.ID), 10)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, path, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodPatch, path, bob, map[string]string{"title": "mine"}).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, path, bob, nil).Code)

	rec = api.do(t, http.MethodGet, "/api/tasks?limit=1000&offset=0", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = api.do(t, http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var unchanged model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unchanged))
	assert.Equal(t, "private", unchanged.Title)
}

func TestAPI_PartialUpdate(t *testing.T) {
	api := newAPI(t)
	api.register(t, "demo", "demo@example.com", "demo123")
	token := api.login(t, "demo", "demo123")

	rec := api.do(t, http.MethodPost, "/api/tasks", token, map[string]string{
		"title": "Write docs", "description": "all of them", "priority": "low",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := "/api/tasks/" + strconv.FormatUint(uint64(created.ID), 10)

	t.Run("empty body is rejected and changes nothing", func(t *testing.T) {
		rec := api.do(t, http.MethodPatch, path, token, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "no fields to update", decodeError(t, rec).Message)

		var stored model.Task
		require.NoError(t, api.db.First(&stored, created.ID).Error)
		assert.True(t, created.UpdatedAt.Equal(stored.UpdatedAt))
	})

	t.Run("only supplied fields change", func(t *testing.T) {
		rec := api.do(t, http.MethodPut, path, token, map[string]string{"status": "completed"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated model.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, model.TaskStatusCompleted, updated.Status)
		assert.Equal(t, "Write docs", updated.Title)
		assert.Equal(t, model.TaskPriorityLow, updated.Priority)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "all of them", *updated.Description)
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	})

	t.Run("invalid enum", func(t *testing.T) {
		rec := api.do(t, http.MethodPatch, path, token, map[string]string{"priority": "urgent"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non numeric id", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/tasks/abc", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPI_ListLimit(t *testing.T) {
	api := newAPI(t)
	api.register(t, "demo", "demo@example.com", "demo123")
	token := api.login(t, "demo", "demo123")
	for _, title := range []string{"a", "b", "c"} {
		rec := api.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": title})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?limit=2", 2},
		{"?limit=0", 0},
		{"?limit=5&offset=2", 1},
	}
	for _, tt := range tests {
		t.Run("limit"+tt.query, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, "/api/tasks"+tt.query, token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var listed []model.Task
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
			assert.NotNil(t, listed)
			assert.Len(t, listed, tt.want)
		})
	}

	rec := api.do(t, http.MethodGet, "/api/tasks?limit=-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_MultibyteTitle(t *testing.T) {
	api := newAPI(t)
	api.register(t, "demo", "demo@example.com", "demo123")
	token := api.login(t, "demo", "demo123")

	title := strings.Repeat("é", 150)
	rec := api.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, title, created.Title)

	rec = api.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": strings.Repeat("é", 201)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Stats(t *testing.T) {
	api := newAPI(t)
	api.register(t, "demo", "demo@example.com", "demo123")
	token := api.login(t, "demo", "demo123")

	rec := api.do(t, http.MethodGet, "/api/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var empty model.TaskStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	assert.Zero(t, empty.CompletionRate)
	assert.Len(t, empty.StatusDistribution, 3)

	for _, status := range []string{"completed", "pending", "pending"} {
		rec := api.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": "t", "status": status})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats model.TaskStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.TotalTasks)
	assert.Equal(t, int64(3), stats.RecentTasks)
	assert.Equal(t, 33.33, stats.CompletionRate)
	assert.Equal(t, int64(3), stats.PriorityDistribution[model.TaskPriorityMedium])
}

func TestAPI_AdminOverview(t *testing.T) {
	api := newAPI(t)
	api.register(t, "demo", "demo@example.com", "demo123")
	api.register(t, "boss", "boss@example.com", "boss123")
	require.NoError(t, api.db.Model(&model.Account{}).Where("username = ?", "boss").Update("is_admin", true).Error)

	rec := api.do(t, http.MethodGet, "/api/admin/overview", api.login(t, "demo", "demo123"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)

	rec = api.do(t, http.MethodGet, "/api/admin/overview", api.login(t, "boss", "boss123"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var overview model.AdminOverview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.Equal(t, int64(2), overview.TotalUsers)
	assert.Len(t, overview.RecentUsers, 2)
}

func TestAPI_InfoEndpoints(t *testing.T) {
	api := newAPI(t)

	rec := api.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "1.0.0", health["version"])

	rec = api.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "demo_credentials")

	rec = api.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}
