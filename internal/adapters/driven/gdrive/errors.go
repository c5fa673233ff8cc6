package gdrive

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// ErrRateLimited indicates the Drive API rate limit was exceeded.
var ErrRateLimited = errors.New("gdrive: rate limit exceeded")

// wrapError maps Drive API status codes to domain errors.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch gerr.Code {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %s", op, domain.ErrForbidden, gerr.Message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", op, ErrRateLimited)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
