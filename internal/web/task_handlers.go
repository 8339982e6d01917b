package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "taskdesk/internal/errors"
	"taskdesk/internal/model"
)

type taskForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Priority    string `form:"priority"`
	Status      string `form:"status"`
}

func (f taskForm) values() map[string]string {
	return map[string]string{
		"title":       f.Title,
		"description": f.Description,
		"priority":    f.Priority,
		"status":      f.Status,
	}
}

func taskFormValues(task *model.Task) map[string]string {
	description := ""
	if task.Description != nil {
		description = *task.Description
	}
	return map[string]string{
		"title":       task.Title,
		"description": description,
		"priority":    string(task.Priority),
		"status":      string(task.Status),
	}
}

func (s *Server) dashboard(c echo.Context) error {
	user := currentUser(c)
	ctx := c.Request().Context()

	stats, err := s.svc.Stats.Compute(ctx, user.ID)
	if err != nil {
		return err
	}
	tasks, err := s.svc.Tasks.List(ctx, user.ID, model.TaskFilter{Limit: model.PageLimit(model.NoLimit)})
	if err != nil {
		return err
	}
	return s.render(c, http.StatusOK, "dashboard.html", &page{
		Title: "Dashboard",
		Stats: stats,
		Tasks: tasks,
	})
}

func (s *Server) listTasks(c echo.Context) error {
	user := currentUser(c)
	filter := model.TaskFilter{Limit: model.PageLimit(model.NoLimit)}
	status := c.QueryParam("status")
	if status != "" {
		st := model.TaskStatus(status)
		filter.Status = &st
	}

	tasks, err := s.svc.Tasks.List(c.Request().Context(), user.ID, filter)
	if err != nil {
		return err
	}
	return s.render(c, http.StatusOK, "tasks.html", &page{
		Title:    "Tasks",
		Tasks:    tasks,
		Filter:   status,
		Statuses: model.TaskStatuses,
	})
}

func (s *Server) newTaskPage(form map[string]string) *page {
	return &page{
		Title:      "New task",
		Action:     "/tasks/create",
		Form:       form,
		Priorities: model.TaskPriorities,
		Statuses:   model.TaskStatuses,
	}
}

func (s *Server) createTaskForm(c echo.Context) error {
	p := s.newTaskPage(map[string]string{"priority": string(model.TaskPriorityMedium)})
	return s.render(c, http.StatusOK, "task_form.html", p)
}

func (s *Server) createTask(c echo.Context) error {
	var form taskForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	in := model.TaskInput{
		Title:    form.Title,
		Priority: model.TaskPriority(form.Priority),
	}
	if strings.TrimSpace(form.Description) != "" {
		in.Description = &form.Description
	}
	if _, err := s.svc.Tasks.Create(c.Request().Context(), currentUser(c).ID, in); err != nil {
		flashes, err := formError(err)
		if err != nil {
			return err
		}
		p := s.newTaskPage(form.values())
		p.Flashes = flashes
		return s.render(c, http.StatusUnprocessableEntity, "task_form.html", p)
	}

	addFlash(c, FlashSuccess, "Task created.")
	return redirect(c, "/tasks")
}

func (s *Server) editTaskPage(task *model.Task, form map[string]string) *page {
	return &page{
		Title:      "Edit task",
		Action:     fmt.Sprintf("/tasks/%d/edit", task.ID),
		Task:       task,
		Form:       form,
		Priorities: model.TaskPriorities,
		Statuses:   model.TaskStatuses,
	}
}

func (s *Server) editTaskForm(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.taskMissing(c, err)
	}
	task, err := s.svc.Tasks.Get(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		return s.taskMissing(c, err)
	}
	return s.render(c, http.StatusOK, "task_form.html", s.editTaskPage(task, taskFormValues(task)))
}

// editTask submits every form field, so the update replaces title, description, priority and status together.
func (s *Server) editTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.taskMissing(c, err)
	}
	var form taskForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	priority := model.TaskPriority(form.Priority)
	status := model.TaskStatus(form.Status)
	update := model.TaskUpdate{
		Title:       &form.Title,
		Description: &form.Description,
		Priority:    &priority,
		Status:      &status,
	}
	ctx := c.Request().Context()
	if _, err := s.svc.Tasks.Update(ctx, currentUser(c).ID, id, update); err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return s.taskMissing(c, err)
		}
		flashes, ferr := formError(err)
		if ferr != nil {
			return ferr
		}
		task, gerr := s.svc.Tasks.Get(ctx, currentUser(c).ID, id)
		if gerr != nil {
			return s.taskMissing(c, gerr)
		}
		p := s.editTaskPage(task, form.values())
		p.Flashes = flashes
		return s.render(c, http.StatusUnprocessableEntity, "task_form.html", p)
	}

	addFlash(c, FlashSuccess, "Task updated.")
	return redirect(c, "/tasks")
}

func (s *Server) deleteTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.taskMissing(c, err)
	}
	if err := s.svc.Tasks.Delete(c.Request().Context(), currentUser(c).ID, id); err != nil {
		return s.taskMissing(c, err)
	}
	addFlash(c, FlashSuccess, "Task deleted.")
	return redirect(c, "/tasks")
}

// taskMissing redirects to the task list with a flash when err is a not-found. Other errors propagate.
func (s *Server) taskMissing(c echo.Context, err error) error {
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		return err
	}
	addFlash(c, FlashError, "Task not found.")
	return redirect(c, "/tasks")
}

func (s *Server) admin(c echo.Context) error {
	ctx := c.Request().Context()
	// The session flag only drives the navigation; the stored account decides.
	account, err := s.svc.Auth.GetAccount(ctx, currentUser(c).ID)
	if err != nil {
		return err
	}
	if !account.IsAdmin {
		return apperrors.ErrAdminRequired
	}

	overview, err := s.svc.Stats.AdminOverview(ctx)
	if err != nil {
		return err
	}
	return s.render(c, http.StatusOK, "admin.html", &page{Title: "Administration", Overview: overview})
}

type tasksResponse struct {
	Success bool         `json:"success"`
	Tasks   []model.Task `json:"tasks"`
	Total   int          `json:"total"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Task    *model.Task `json:"task"`
}

func (s *Server) apiListTasks(c echo.Context) error {
	tasks, err := s.svc.Tasks.List(c.Request().Context(), currentUser(c).ID, model.TaskFilter{Limit: model.PageLimit(model.NoLimit)})
	if err != nil {
		return apiError(err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return c.JSON(http.StatusOK, tasksResponse{Success: true, Tasks: tasks, Total: len(tasks)})
}

func (s *Server) apiUpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apiError(err)
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return apiError(apperrors.Validation("invalid request"))
	}
	status := model.TaskStatus(req.Status)
	if !status.Valid() {
		return apiError(apperrors.Validation("invalid status", "status: must be one of pending, in_progress, completed"))
	}

	task, err := s.svc.Tasks.UpdateStatus(c.Request().Context(), currentUser(c).ID, id, status)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "status updated", Task: task})
}
