package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/clinova/beacon/internal/adapters/clinicapi"
	"github.com/clinova/beacon/internal/adapters/database"
	"github.com/clinova/beacon/internal/adapters/snapshotrepository"
	"github.com/clinova/beacon/internal/app"
	"github.com/clinova/beacon/internal/cachekey"
	"github.com/clinova/beacon/internal/config"
	"github.com/clinova/beacon/internal/domain"
	"github.com/clinova/beacon/internal/fetch"
	"github.com/clinova/beacon/internal/ports"
	"github.com/clinova/beacon/internal/ratelimiting"
	"github.com/clinova/beacon/internal/reporting"
	"github.com/clinova/beacon/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	// Embedded CA bundle so the container does not need system certificates
	_ "golang.org/x/crypto/x509roots/fallback"
)

// Operations matching these patterns get the calling clinic mixed into their
// cache keys. Everything this service serves is per-clinic.
var tenantScopedNames = []string{
	`^settings\.`,
	`^appointments\.`,
	`^patient\.`,
}

var tenantScopedPaths = []string{
	`^/v1/clinics/`,
}

func main() {
	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	ctx := context.Background()

	if !config.IsDevelopment() {
		shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "beacon", config.Environment(), instanceID)
		if err != nil {
			fail("Failed to initialize telemetry", "error", err.Error())
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				logger.Error("Failed to shut down telemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized telemetry")
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	// The upstream clinic API allows 120 calls per minute per key
	outboundLimiter := ratelimiting.NewWindowBudgetLimiter(120, time.Minute, time.Now, time.After)

	clinicAPI, err := clinicapi.NewClinicAPIOrMock(config, httpClient, outboundLimiter)
	if err != nil {
		fail("Failed to initialize clinic API", "error", err.Error())
	}
	logger.Info("Initialized clinic API")

	clinicProvider, err := clinicapi.NewProvider(clinicAPI)
	if err != nil {
		fail("Failed to initialize clinic provider", "error", err.Error())
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	var snapshotRepo snapshotrepository.SnapshotRepository
	if config.IsDevelopment() && config.DBHost() == "" {
		snapshotRepo = snapshotrepository.NewInMemorySnapshotRepository()
		logger.Info("Using in-memory snapshot repository")
	} else {
		logger.Info("Initializing database connection")
		db, err := database.NewConfiguredPostgresDatabase(config)
		if err != nil {
			fail("Failed to initialize database connection", "error", err.Error())
		}
		logger.Info("Initialized database connection")

		schemaName := database.GetSchemaName(!config.IsProduction())

		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			fail("Failed to migrate database", "error", err.Error())
		}

		snapshotRepo = snapshotrepository.NewPostgresSnapshotRepository(db, schemaName)
		logger.Info("Initialized SnapshotRepository")
	}

	scopes, err := cachekey.NewScopeList(tenantScopedNames, tenantScopedPaths)
	if err != nil {
		fail("Failed to initialize tenant scopes", "error", err.Error())
	}
	deriver := cachekey.NewDeriver(scopes)

	settingsResolver, stopSettingsResolver, err := fetch.NewResolver[*domain.ClinicSettings]("settings", deriver, time.Now, time.After)
	if err != nil {
		fail("Failed to initialize settings resolver", "error", err.Error())
	}
	defer stopSettingsResolver()

	appointmentsResolver, stopAppointmentsResolver, err := fetch.NewResolver[[]domain.Appointment]("appointments", deriver, time.Now, time.After)
	if err != nil {
		fail("Failed to initialize appointments resolver", "error", err.Error())
	}
	defer stopAppointmentsResolver()

	patientResolver, stopPatientResolver, err := fetch.NewResolver[*domain.Patient]("patient", deriver, time.Now, time.After)
	if err != nil {
		fail("Failed to initialize patient resolver", "error", err.Error())
	}
	defer stopPatientResolver()

	getClinicSettings := app.BuildGetClinicSettings(settingsResolver, clinicProvider, snapshotRepo)
	listAppointments := app.BuildListAppointments(appointmentsResolver, clinicProvider, snapshotRepo)
	getPatient := app.BuildGetPatient(patientResolver, clinicProvider, snapshotRepo)

	http.HandleFunc(
		"GET /v1/settings",
		ports.MakeGetSettingsHandler(
			getClinicSettings,
			logger.With("port", "settings"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"GET /v1/appointments",
		ports.MakeListAppointmentsHandler(
			listAppointments,
			logger.With("port", "appointments"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"GET /v1/patients/{patientId}",
		ports.MakeGetPatientHandler(
			getPatient,
			logger.With("port", "patients"),
			sentryMiddleware,
		),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", config.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
