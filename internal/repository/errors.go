package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const uniqueViolation pq.ErrorCode = "23505"

// writeError wraps a failed write with its step, tagging unique index violations
// with appErrors.ErrDuplicate.
func writeError(step string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w: %w", step, appErrors.ErrDuplicate, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}
