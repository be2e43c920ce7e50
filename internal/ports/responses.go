package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/clinova/beacon/internal/domain"
	e "github.com/clinova/beacon/internal/errors"
	"github.com/clinova/beacon/internal/logging"
	"github.com/clinova/beacon/internal/reporting"
)

type errorResponse struct {
	Error string `json:"error"`
}

func errorResponseData(message string) []byte {
	data, err := json.Marshal(errorResponse{Error: message})
	if err != nil {
		return []byte(`{"error":"Internal server error"}`)
	}
	return data
}

// writeErrorResponse maps sentinel errors to status codes and writes the
// error envelope. Returns the status code written, for logging.
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, responseError error) int {
	w.Header().Set("Content-Type", "application/json")

	// Unknown error: default to 500
	statusCode := http.StatusInternalServerError
	cause := "Internal server error"

	switch {
	case errors.Is(responseError, domain.ErrNotFound):
		statusCode = http.StatusNotFound
		cause = "Not found"
	case errors.Is(responseError, e.RatelimitExceededError):
		statusCode = http.StatusTooManyRequests
		cause = "Rate limit exceeded"
	case errors.Is(responseError, domain.ErrTemporarilyUnavailable):
		statusCode = http.StatusServiceUnavailable
		cause = "Service temporarily unavailable"
	case errors.Is(responseError, e.APIClientError):
		statusCode = http.StatusBadRequest
		cause = "Bad request"
	}

	w.WriteHeader(statusCode)
	w.Write(errorResponseData(cause))

	return statusCode
}

func writeJSONResponse(ctx context.Context, w http.ResponseWriter, payload any) int {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.FromContext(ctx).Error("Failed to marshal response", "error", err.Error())
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		return writeErrorResponse(ctx, w, err)
	}

	statusCode := http.StatusOK
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)

	return statusCode
}
