package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

type timetableService interface {
	GetAssignments(ctx context.Context, classInstanceID string, date wallclock.Date) ([]models.Assignment, error)
	Assign(ctx context.Context, classInstanceID string, date wallclock.Date, periodNumber int, req dto.AssignRequest, identity models.Identity) (*models.Assignment, error)
	CopyDay(ctx context.Context, classInstanceID string, req dto.CopyDayRequest, identity models.Identity) (*dto.CopyDayResult, error)
}

type timetableViewService interface {
	ProjectDay(ctx context.Context, classInstanceID string, date wallclock.Date) (*dto.DayView, error)
	ProjectMonth(ctx context.Context, classInstanceID, month string) (*dto.MonthView, bool, error)
	ExportDay(ctx context.Context, classInstanceID string, date wallclock.Date, format string) (*dto.ExportFile, error)
}

// TimetableHandler manages timetable assignment and projection endpoints.
type TimetableHandler struct {
	timetable timetableService
	views     timetableViewService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(timetable timetableService, views timetableViewService) *TimetableHandler {
	return &TimetableHandler{timetable: timetable, views: views}
}

// List godoc
// @Summary List assignments of one date
// @Tags Timetable
// @Produce json
// @Param id path string true "Class instance ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /class-instances/{id}/timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	date, err := parseDate(c.Query("date"), "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.timetable.GetAssignments(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Assign godoc
// @Summary Assign subject and teacher to a period
// @Description Replaces any assignment already occupying the period on that date.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Class instance ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param number path int true "Period number"
// @Param payload body dto.AssignRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-instances/{id}/timetable/{date}/periods/{number} [put]
func (h *TimetableHandler) Assign(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := parseDate(c.Param("date"), "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	number, err := parsePeriodNumber(c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.timetable.Assign(c.Request.Context(), c.Param("id"), date, number, req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry)
}

// CopyDay godoc
// @Summary Copy one date's timetable onto another
// @Description Every assignment of the target date is replaced by those of the source date.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Class instance ID"
// @Param payload body dto.CopyDayRequest true "Copy payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-instances/{id}/timetable/copy [post]
func (h *TimetableHandler) CopyDay(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CopyDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.timetable.CopyDay(c.Request.Context(), c.Param("id"), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Day godoc
// @Summary Day grid of a class instance
// @Tags Timetable
// @Produce json
// @Param id path string true "Class instance ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /class-instances/{id}/timetable/day [get]
func (h *TimetableHandler) Day(c *gin.Context) {
	date, err := parseDate(c.Query("date"), "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.views.ProjectDay(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}

// Month godoc
// @Summary Assignment counts per date of a month
// @Description Dates without assignments are omitted.
// @Tags Timetable
// @Produce json
// @Param id path string true "Class instance ID"
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /class-instances/{id}/timetable/month [get]
func (h *TimetableHandler) Month(c *gin.Context) {
	view, hit, err := h.views.ProjectMonth(c.Request.Context(), c.Param("id"), c.Query("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}

// ExportDay godoc
// @Summary Download the day grid
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Class instance ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /class-instances/{id}/timetable/day/export [get]
func (h *TimetableHandler) ExportDay(c *gin.Context) {
	date, err := parseDate(c.Query("date"), "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.views.ExportDay(c.Request.Context(), c.Param("id"), date, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
