package ports

import (
	"log/slog"
	"net/http"

	"github.com/clinova/beacon/internal/app"
	"github.com/clinova/beacon/internal/logging"
	"github.com/clinova/beacon/internal/reporting"
)

func MakeGetPatientHandler(
	getPatient app.GetPatient,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	rateLimitMiddlewares := buildRateLimitMiddlewares()

	middleware := ComposeMiddlewares(
		append([]func(http.HandlerFunc) http.HandlerFunc{
			logging.NewRequestLoggerMiddleware(rootLogger),
			sentryMiddleware,
			reporting.NewAddMetaMiddleware("get-patient"),
			buildMetricsMiddleware(),
		}, rateLimitMiddlewares...)...,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx, clinicID := clinicContext(r)

		patientID := r.PathValue("patientId")
		ctx = logging.AddMetaToContext(ctx, slog.String("patientId", patientID))
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"patientId": patientID,
		})
		logger := logging.FromContext(ctx)

		if clinicID == "" {
			statusCode := http.StatusBadRequest
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statusCode)
			w.Write(errorResponseData("Missing X-Clinic-Id header"))
			logger.Info("Returning response", "statusCode", statusCode, "reason", "missing clinic id")
			return
		}

		if patientID == "" {
			statusCode := http.StatusBadRequest
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statusCode)
			w.Write(errorResponseData("Missing patient id"))
			logger.Info("Returning response", "statusCode", statusCode, "reason", "missing patient id")
			return
		}

		patient, err := getPatient(ctx, clinicID, patientID, forceRefresh(r))
		if err != nil {
			// NOTE: GetPatient implementations handle their own error reporting
			logger.Error("Error getting patient", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := writeJSONResponse(ctx, w, patientToResponse(patient))
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success")
	}

	return middleware(handler)
}
