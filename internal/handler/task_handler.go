package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"taskdesk/internal/errors"
	"taskdesk/internal/model"
	"taskdesk/internal/service"
)

// TaskHandler handles the owner-scoped task endpoints.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// ListTasksQuery holds the list filters.
type ListTasksQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority string `query:"priority" validate:"omitempty,oneof=low medium high"`
	Limit    int    `query:"limit" validate:"gte=0"`
	Offset   int    `query:"offset" validate:"gte=0"`
}

// CreateTaskRequest represents a new task.
type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      string  `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
}

// UpdateTaskRequest carries a partial update. Absent fields keep their value.
type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
}

// ToModel converts the request into a model.TaskUpdate.
func (r UpdateTaskRequest) ToModel() model.TaskUpdate {
	update := model.TaskUpdate{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Priority != nil {
		p := model.TaskPriority(*r.Priority)
		update.Priority = &p
	}
	if r.Status != nil {
		s := model.TaskStatus(*r.Status)
		update.Status = &s
	}
	return update
}

func taskID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Validation("invalid task id", "id: must be a positive integer")
	}
	return uint(id), nil
}

// List godoc
// @Summary List the caller's tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(pending, in_progress, completed)
// @Param priority query string false "Filter by priority" Enums(low, medium, high)
// @Param limit query int false "Maximum number of tasks" default(100)
// @Param offset query int false "Number of tasks to skip" default(0)
// @Success 200 {array} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	account, err := CurrentAccount(c)
	if err != nil {
		return respondError(err)
	}

	var q ListTasksQuery
	if err := bindAndValidate(c, &q); err != nil {
		return respondError(err)
	}

	filter := model.TaskFilter{Offset: q.Offset}
	// An explicit limit=0 asks for an empty page.
	if c.QueryParam("limit") != "" {
		filter.Limit = model.PageLimit(q.Limit)
	}
	if q.Status != "" {
		s := model.TaskStatus(q.Status)
		filter.Status = &s
	}
	if q.Priority != "" {
		p := model.TaskPriority(q.Priority)
		filter.Priority = &p
	}

	tasks, err := h.taskService.List(c.Request().Context(), account.ID, filter)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	account, err := CurrentAccount(c)
	if err != nil {
		return respondError(err)
	}

	var req CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(err)
	}

	task, err := h.taskService.Create(c.Request().Context(), account.ID, model.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.TaskPriority(req.Priority),
		Status:      model.TaskStatus(req.Status),
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, task)
}

// Get godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} model.Task
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	account, err := CurrentAccount(c)
	if err != nil {
		return respondError(err)
	}
	id, err := taskID(c)
	if err != nil {
		return respondError(err)
	}

	task, err := h.taskService.Get(c.Request().Context(), account.ID, id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// Update godoc
// @Summary Partially update a task
// @Description Only the supplied fields change. An empty body is rejected.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to change"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/tasks/{id} [put]
// @Router /api/tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	account, err := CurrentAccount(c)
	if err != nil {
		return respondError(err)
	}
	id, err := taskID(c)
	if err != nil {
		return respondError(err)
	}

	var req UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(err)
	}

	task, err := h.taskService.Update(c.Request().Context(), account.ID, id, req.ToModel())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} APIResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	account, err := CurrentAccount(c)
	if err != nil {
		return respondError(err)
	}
	id, err := taskID(c)
	if err != nil {
		return respondError(err)
	}

	if err := h.taskService.Delete(c.Request().Context(), account.ID, id); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "task deleted successfully",
	})
}
