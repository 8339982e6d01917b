package web

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apperrors "taskdesk/internal/errors"
	"taskdesk/internal/handler"
	"taskdesk/internal/logging"
	"taskdesk/internal/model"
	"taskdesk/internal/service"
)

// Services are the dependencies the web routes delegate to.
type Services struct {
	Auth  service.AuthService
	Tasks service.TaskService
	Stats service.StatsService
}

// Server holds the web handlers.
type Server struct {
	store  sessions.Store
	svc    Services
	logger *slog.Logger
}

var errLoginRequired = &apperrors.Error{Kind: apperrors.KindUnauthorized, Message: "login required"}

// Register wires the server-rendered routes and middleware onto e.
func Register(e *echo.Echo, logger *slog.Logger, store sessions.Store, svc Services) error {
	renderer, err := NewRenderer()
	if err != nil {
		return err
	}
	s := &Server{store: store, svc: svc, logger: logger}

	e.HideBanner = true
	e.Renderer = renderer
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(loadSession(store))

	e.GET("/", s.index)
	e.GET("/health", handler.NewInfoHandler().Health)
	e.GET("/login", s.loginForm)
	e.POST("/login", s.login)
	e.GET("/register", s.registerForm)
	e.POST("/register", s.register)
	e.GET("/logout", s.logout)
	e.POST("/logout", s.logout)

	// Per-route middleware: a group with an empty prefix would also catch unknown paths.
	e.GET("/dashboard", s.dashboard, requireLogin)
	e.GET("/tasks", s.listTasks, requireLogin)
	e.GET("/tasks/create", s.createTaskForm, requireLogin)
	e.POST("/tasks/create", s.createTask, requireLogin)
	e.GET("/tasks/:id/edit", s.editTaskForm, requireLogin)
	e.POST("/tasks/:id/edit", s.editTask, requireLogin)
	e.POST("/tasks/:id/delete", s.deleteTask, requireLogin)
	e.GET("/admin", s.admin, requireLogin)

	e.GET("/api/tasks", s.apiListTasks, requireLogin)
	e.PUT("/api/tasks/:id/status", s.apiUpdateStatus, requireLogin)
	return nil
}

// requireLogin sends anonymous page requests to /login and answers anonymous API calls with 401.
func requireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if currentUser(c) != nil {
			return next(c)
		}
		if isAPIRequest(c) {
			return apiError(errLoginRequired)
		}
		addFlash(c, FlashWarning, "Please log in to access this page.")
		return redirect(c, "/login")
	}
}

func isAPIRequest(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

func apiError(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

// errorHandler answers API paths with the JSON envelope and everything else with the error page.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, resp := handler.ToErrorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"error", err,
			"method", c.Request().Method,
			"path", c.Path(),
			"request_id", logging.RequestID(c),
		)
	}

	var writeErr error
	switch {
	case c.Request().Method == http.MethodHead:
		writeErr = c.NoContent(status)
	case isAPIRequest(c):
		writeErr = c.JSON(status, resp)
	default:
		writeErr = c.Render(status, "error.html", &page{
			Title:   http.StatusText(status),
			User:    currentUser(c),
			Form:    map[string]string{},
			Status:  status,
			Message: resp.Message,
		})
	}
	if writeErr != nil {
		s.logger.ErrorContext(c.Request().Context(), "write error response", "error", writeErr)
	}
}

// page is the data every template receives.
type page struct {
	Title      string
	User       *SessionUser
	Flashes    []Flash
	Form       map[string]string
	Action     string
	Tasks      []model.Task
	Task       *model.Task
	Stats      *model.TaskStats
	Overview   *model.AdminOverview
	Filter     string
	Statuses   []model.TaskStatus
	Priorities []model.TaskPriority
	Status     int
	Message    string
}

// render fills the shared page fields and renders name. Flashes already on p are shown after queued ones.
func (s *Server) render(c echo.Context, status int, name string, p *page) error {
	p.User = currentUser(c)
	queued := popFlashes(c)
	if len(queued) > 0 {
		if err := saveSession(c); err != nil {
			return err
		}
	}
	p.Flashes = append(queued, p.Flashes...)
	if p.Form == nil {
		p.Form = map[string]string{}
	}
	return c.Render(status, name, p)
}

func (s *Server) index(c echo.Context) error {
	return s.render(c, http.StatusOK, "index.html", &page{Title: "Welcome"})
}

// pathID parses the :id route parameter. Malformed ids read as a missing task.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrTaskNotFound
	}
	return uint(id), nil
}

// formError turns a validation or conflict failure into flash messages. Other errors are returned as is.
func formError(err error) ([]Flash, error) {
	var appErr *apperrors.Error
	if !stderrors.As(err, &appErr) {
		return nil, err
	}
	switch appErr.Kind {
	case apperrors.KindValidation, apperrors.KindConflict, apperrors.KindUnauthorized:
	default:
		return nil, err
	}
	if len(appErr.Details) == 0 {
		return []Flash{{Kind: FlashError, Message: capitalize(appErr.Message) + "."}}, nil
	}
	flashes := make([]Flash, 0, len(appErr.Details))
	for _, d := range appErr.Details {
		flashes = append(flashes, Flash{Kind: FlashError, Message: capitalize(d) + "."})
	}
	return flashes, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
