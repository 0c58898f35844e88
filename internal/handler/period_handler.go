package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

type periodService interface {
	ListPeriods(ctx context.Context, classInstanceID string) ([]models.Period, error)
	AddPeriod(ctx context.Context, classInstanceID string, req dto.AddPeriodRequest) (*models.Period, error)
}

// PeriodHandler exposes the period catalog.
type PeriodHandler struct {
	service periodService
}

// NewPeriodHandler constructs handler.
func NewPeriodHandler(svc periodService) *PeriodHandler {
	return &PeriodHandler{service: svc}
}

// List godoc
// @Summary List periods of a class instance
// @Tags Periods
// @Produce json
// @Param id path string true "Class instance ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /class-instances/{id}/periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	periods, err := h.service.ListPeriods(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods)
}

// Create godoc
// @Summary Append a period
// @Description The period number is one past the highest existing number; end time is start time plus duration.
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path string true "Class instance ID"
// @Param payload body dto.AddPeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-instances/{id}/periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req dto.AddPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.service.AddPeriod(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Durations godoc
// @Summary Suggested period durations in minutes
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/durations [get]
func (h *PeriodHandler) Durations(c *gin.Context) {
	response.JSON(c, http.StatusOK, wallclock.SuggestedDurations)
}
