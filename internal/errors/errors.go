// Package errors holds the sentinel errors the HTTP layer maps to response
// status codes. Adapters wrap these around upstream clinic API failures so
// handlers never inspect raw status codes.
package errors

import "errors"

var (
	// APIServerError covers upstream 5xx responses and unparseable payloads.
	APIServerError = errors.New("Server error")
	// APIClientError covers upstream auth and request-shape failures.
	APIClientError = errors.New("Client error")
	// RatelimitExceededError covers upstream 429s and our own limiters.
	RatelimitExceededError = errors.New("Ratelimit exceeded")
)
