package ports

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clinova/beacon/internal/logging"
	"github.com/clinova/beacon/internal/ratelimiting"
	"github.com/clinova/beacon/internal/reporting"
	"github.com/clinova/beacon/internal/tenant"
)

// clinicContext scopes the request context to the calling clinic. All cache
// key derivation downstream picks the clinic up from the context.
func clinicContext(r *http.Request) (context.Context, string) {
	ctx := r.Context()

	clinicID := r.Header.Get("X-Clinic-Id")
	ctx = tenant.AddToContext(ctx, clinicID)

	loggedClinicID := clinicID
	if loggedClinicID == "" {
		loggedClinicID = "<missing>"
	}
	ctx = logging.AddMetaToContext(ctx, slog.String("clinicId", loggedClinicID))
	ctx = reporting.SetClinicIDInContext(ctx, loggedClinicID)
	if userID := r.Header.Get("X-User-Id"); userID != "" {
		ctx = reporting.SetUserIDInContext(ctx, userID)
	}

	return ctx, clinicID
}

// forceRefresh honors Cache-Control: no-cache from the caller. The in-flight
// fetch for the same key is still joined, never duplicated.
func forceRefresh(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Cache-Control")), "no-cache")
}

func makeOnLimitExceeded(rateLimiter ratelimiting.RequestRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		statusCode := http.StatusTooManyRequests

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(errorResponseData("Rate limit exceeded"))

		logger.Info("Returning response", "statusCode", statusCode, "reason", "ratelimit exceeded", "key", rateLimiter.KeyFor(r))
	}
}

func buildRateLimitMiddlewares() []func(http.HandlerFunc) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(8),
		ratelimiting.BurstSize(480),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)
	clinicLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(2),
		ratelimiting.BurstSize(120),
	)
	clinicRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on caller controlled value
		clinicLimiter,
		ratelimiting.ClinicKeyFunc,
	)

	return []func(http.HandlerFunc) http.HandlerFunc{
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
		NewRateLimitMiddleware(clinicRateLimiter, makeOnLimitExceeded(clinicRateLimiter)),
	}
}
