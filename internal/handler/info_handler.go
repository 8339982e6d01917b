package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Version is reported by the info and health endpoints.
const Version = "1.0.0"

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// InfoHandler serves static service metadata.
type InfoHandler struct {
	now func() time.Time
}

// NewInfoHandler creates a new info handler.
func NewInfoHandler() *InfoHandler {
	return &InfoHandler{now: func() time.Time { return time.Now().UTC() }}
}

// Root godoc
// @Summary Service information
// @Tags info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *InfoHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":       "taskdesk API",
		"version":       Version,
		"description":   "To-do REST API with JWT authentication",
		"documentation": "/swagger/index.html",
		"endpoints": map[string][]string{
			"auth":  {"/api/auth/register", "/api/auth/login", "/api/auth/me"},
			"tasks": {"/api/tasks", "/api/tasks/{id}"},
			"stats": {"/api/stats"},
			"admin": {"/api/admin/overview"},
		},
		"demo_credentials": map[string]string{
			"username": "demo",
			"password": "demo123",
		},
	})
}

// Health godoc
// @Summary Liveness probe
// @Tags info
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *InfoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now(),
		Version:   Version,
	})
}
