package ports

import (
	"log/slog"
	"net/http"

	"github.com/clinova/beacon/internal/app"
	"github.com/clinova/beacon/internal/logging"
	"github.com/clinova/beacon/internal/reporting"
)

func MakeGetSettingsHandler(
	getClinicSettings app.GetClinicSettings,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	rateLimitMiddlewares := buildRateLimitMiddlewares()

	middleware := ComposeMiddlewares(
		append([]func(http.HandlerFunc) http.HandlerFunc{
			logging.NewRequestLoggerMiddleware(rootLogger),
			sentryMiddleware,
			reporting.NewAddMetaMiddleware("get-settings"),
			buildMetricsMiddleware(),
		}, rateLimitMiddlewares...)...,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx, clinicID := clinicContext(r)
		logger := logging.FromContext(ctx)

		if clinicID == "" {
			statusCode := http.StatusBadRequest
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statusCode)
			w.Write(errorResponseData("Missing X-Clinic-Id header"))
			logger.Info("Returning response", "statusCode", statusCode, "reason", "missing clinic id")
			return
		}

		settings, err := getClinicSettings(ctx, clinicID, forceRefresh(r))
		if err != nil {
			// NOTE: GetClinicSettings implementations handle their own error reporting
			logger.Error("Error getting clinic settings", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, clinicSettingsToResponse(settings))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success")
	}

	return middleware(handler)
}
