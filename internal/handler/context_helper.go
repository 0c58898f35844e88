package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

// identityFromContext turns the caller's claims into the identity mutations are tagged with.
func identityFromContext(c *gin.Context) (models.Identity, error) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		return models.Identity{}, appErrors.ErrUnauthorized
	}
	return models.IdentityFromClaims(claims), nil
}

func parseDate(raw, field string) (wallclock.Date, error) {
	if raw == "" {
		return wallclock.Date{}, appErrors.Clone(appErrors.ErrValidation, field+" is required")
	}
	date, err := wallclock.ParseDate(raw)
	if err != nil {
		return wallclock.Date{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, field+" must be YYYY-MM-DD")
	}
	return date, nil
}

func parsePeriodNumber(raw string) (int, error) {
	number, err := strconv.Atoi(raw)
	if err != nil || number <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "period number must be a positive integer")
	}
	return number, nil
}
