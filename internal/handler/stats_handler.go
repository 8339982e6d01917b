package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskdesk/internal/service"
)

// StatsHandler serves the aggregate views.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Stats godoc
// @Summary Task statistics for the caller
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.TaskStats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/stats [get]
func (h *StatsHandler) Stats(c echo.Context) error {
	account, err := CurrentAccount(c)
	if err != nil {
		return respondError(err)
	}

	stats, err := h.statsService.Compute(c.Request().Context(), account.ID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// AdminOverview godoc
// @Summary Counts across all accounts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AdminOverview
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/overview [get]
func (h *StatsHandler) AdminOverview(c echo.Context) error {
	overview, err := h.statsService.AdminOverview(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, overview)
}
