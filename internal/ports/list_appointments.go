package ports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/clinova/beacon/internal/app"
	"github.com/clinova/beacon/internal/logging"
	"github.com/clinova/beacon/internal/reporting"
)

// Default appointment window served when the caller does not ask for one.
const defaultAppointmentWindow = 7 * 24 * time.Hour

func MakeListAppointmentsHandler(
	listAppointments app.ListAppointments,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	rateLimitMiddlewares := buildRateLimitMiddlewares()

	middleware := ComposeMiddlewares(
		append([]func(http.HandlerFunc) http.HandlerFunc{
			logging.NewRequestLoggerMiddleware(rootLogger),
			sentryMiddleware,
			reporting.NewAddMetaMiddleware("list-appointments"),
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

		from := time.Now().UTC().Truncate(time.Minute)
		to := from.Add(defaultAppointmentWindow)

		query := r.URL.Query()
		if rawFrom := query.Get("from"); rawFrom != "" {
			parsed, err := time.Parse(time.RFC3339, rawFrom)
			if err != nil {
				statusCode := http.StatusBadRequest
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(statusCode)
				w.Write(errorResponseData("Invalid from timestamp"))
				logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid from")
				return
			}
			from = parsed
			to = from.Add(defaultAppointmentWindow)
		}
		if rawTo := query.Get("to"); rawTo != "" {
			parsed, err := time.Parse(time.RFC3339, rawTo)
			if err != nil {
				statusCode := http.StatusBadRequest
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(statusCode)
				w.Write(errorResponseData("Invalid to timestamp"))
				logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid to")
				return
			}
			to = parsed
		}

		if !to.After(from) {
			statusCode := http.StatusBadRequest
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statusCode)
			w.Write(errorResponseData("Appointment window is empty"))
			logger.Info("Returning response", "statusCode", statusCode, "reason", "empty window")
			return
		}

		appointments, err := listAppointments(ctx, clinicID, from, to, forceRefresh(r))
		if err != nil {
			// NOTE: ListAppointments implementations handle their own error reporting
			logger.Error("Error listing appointments", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		queriedAt := time.Now()
		if len(appointments) > 0 {
			queriedAt = appointments[0].QueriedAt
		}

		statusCode := writeJSONResponse(ctx, w, appointmentsToResponse(appointments, queriedAt))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success")
	}

	return middleware(handler)
}
