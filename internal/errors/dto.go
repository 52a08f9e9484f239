package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Display       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds the wire response for an error. Hints are shown to
// the caller; the raw provider/internal error text is never included.
func NewErrorResponse(err error) *ErrorResponse {
	detail := ErrorDetail{
		Display: displayMessage(err),
	}

	for _, d := range errors.GetAllSafeDetails(err) {
		for _, s := range d.SafeDetails {
			if rest, ok := strings.CutPrefix(s, "__json__:"); ok {
				var parsed map[string]any
				if json.Unmarshal([]byte(rest), &parsed) == nil {
					detail.Details = parsed
				}
			}
		}
	}

	return &ErrorResponse{Success: false, Error: detail}
}

func displayMessage(err error) string {
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return strings.Join(hints, "; ")
	}
	var internal *InternalError
	if errors.As(err, &internal) {
		return internal.DisplayError()
	}
	return "something went wrong"
}
