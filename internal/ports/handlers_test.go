package ports_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinova/beacon/internal/domain"
	e "github.com/clinova/beacon/internal/errors"
	"github.com/clinova/beacon/internal/ports"
	"github.com/clinova/beacon/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return next
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestGetSettingsHandler(t *testing.T) {
	t.Parallel()

	queriedAt := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
	settings := &domain.ClinicSettings{
		QueriedAt:       queriedAt,
		ClinicID:        "clinic-1",
		Name:            "Sakura Dental",
		Timezone:        "Asia/Tokyo",
		SlotMinutes:     30,
		BookingLeadDays: 14,
		ClosedWeekdays:  []time.Weekday{time.Sunday},
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var gotClinicID string
		var gotForce bool
		var gotTenant string
		handler := ports.MakeGetSettingsHandler(
			func(ctx context.Context, clinicID string, forceRefresh bool) (*domain.ClinicSettings, error) {
				gotClinicID = clinicID
				gotForce = forceRefresh
				gotTenant = tenant.FromContext(ctx)
				return settings, nil
			},
			testLogger(),
			noopMiddleware,
		)

		request := httptest.NewRequest("GET", "/v1/settings", nil)
		request.Header.Set("X-Clinic-Id", "clinic-1")
		recorder := httptest.NewRecorder()
		handler(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "clinic-1", gotClinicID)
		assert.Equal(t, "clinic-1", gotTenant)
		assert.False(t, gotForce)

		var body map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "Sakura Dental", body["name"])
		assert.Equal(t, "Asia/Tokyo", body["timezone"])
		assert.Equal(t, "2026-08-25T12:00:00Z", body["queriedAt"])
	})

	t.Run("cache-control no-cache forces a refresh", func(t *testing.T) {
		t.Parallel()

		var gotForce bool
		handler := ports.MakeGetSettingsHandler(
			func(ctx context.Context, clinicID string, forceRefresh bool) (*domain.ClinicSettings, error) {
				gotForce = forceRefresh
				return settings, nil
			},
			testLogger(),
			noopMiddleware,
		)

		request := httptest.NewRequest("GET", "/v1/settings", nil)
		request.Header.Set("X-Clinic-Id", "clinic-1")
		request.Header.Set("Cache-Control", "no-cache")
		recorder := httptest.NewRecorder()
		handler(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, gotForce)
	})

	t.Run("missing clinic id", func(t *testing.T) {
		t.Parallel()

		handler := ports.MakeGetSettingsHandler(
			func(ctx context.Context, clinicID string, forceRefresh bool) (*domain.ClinicSettings, error) {
				t.Error("should not be called")
				return nil, nil
			},
			testLogger(),
			noopMiddleware,
		)

		request := httptest.NewRequest("GET", "/v1/settings", nil)
		recorder := httptest.NewRecorder()
		handler(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("error mapping", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name       string
			err        error
			statusCode int
		}{
			{name: "not found", err: fmt.Errorf("%w: gone", domain.ErrNotFound), statusCode: http.StatusNotFound},
			{name: "ratelimited", err: fmt.Errorf("%w: slow down %w", e.RatelimitExceededError, domain.ErrTemporarilyUnavailable), statusCode: http.StatusTooManyRequests},
			{name: "unavailable", err: fmt.Errorf("%w: maintenance %w", e.APIServerError, domain.ErrTemporarilyUnavailable), statusCode: http.StatusServiceUnavailable},
			{name: "client error", err: fmt.Errorf("%w: bad credentials", e.APIClientError), statusCode: http.StatusBadRequest},
			{name: "unknown", err: errors.New("upstream exploded"), statusCode: http.StatusInternalServerError},
		}

		for _, testCase := range cases {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				handler := ports.MakeGetSettingsHandler(
					func(ctx context.Context, clinicID string, forceRefresh bool) (*domain.ClinicSettings, error) {
						return nil, testCase.err
					},
					testLogger(),
					noopMiddleware,
				)

				request := httptest.NewRequest("GET", "/v1/settings", nil)
				request.Header.Set("X-Clinic-Id", "clinic-1")
				recorder := httptest.NewRecorder()
				handler(recorder, request)

				assert.Equal(t, testCase.statusCode, recorder.Code)

				var body map[string]any
				require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
			})
		}
	})
}

func TestListAppointmentsHandler(t *testing.T) {
	t.Parallel()

	queriedAt := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
	appointments := []domain.Appointment{
		{
			QueriedAt: queriedAt,
			ID:        "appt-1",
			ClinicID:  "clinic-1",
			PatientID: "patient-1",
			StartsAt:  queriedAt.Add(time.Hour),
			EndsAt:    queriedAt.Add(90 * time.Minute),
			Status:    domain.AppointmentStatusBooked,
		},
	}

	t.Run("explicit window", func(t *testing.T) {
		t.Parallel()

		var gotFrom, gotTo time.Time
		handler := ports.MakeListAppointmentsHandler(
			func(ctx context.Context, clinicID string, from, to time.Time, forceRefresh bool) ([]domain.Appointment, error) {
				gotFrom = from
				gotTo = to
				return appointments, nil
			},
			testLogger(),
			noopMiddleware,
		)

		request := httptest.NewRequest("GET", "/v1/appointments?from=2026-08-25T00:00:00Z&to=2026-08-26T00:00:00Z", nil)
		request.Header.Set("X-Clinic-Id", "clinic-1")
		recorder := httptest.NewRecorder()
		handler(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, gotFrom.Equal(time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC)))
		assert.True(t, gotTo.Equal(time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)))

		var body map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		list, ok := body["appointments"].([]any)
		require.True(t, ok)
		require.Len(t, list, 1)
	})

	t.Run("default window is seven days", func(t *testing.T) {
		t.Parallel()

		var gotFrom, gotTo time.Time
		handler := ports.MakeListAppointmentsHandler(
			func(ctx context.Context, clinicID string, from, to time.Time, forceRefresh bool) ([]domain.Appointment, error) {
				gotFrom = from
				gotTo = to
				return nil, nil
			},
			testLogger(),
			noopMiddleware,
		)

		request := httptest.NewRequest("GET", "/v1/appointments", nil)
		request.Header.Set("X-Clinic-Id", "clinic-1")
		recorder := httptest.NewRecorder()
		handler(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 7*24*time.Hour, gotTo.Sub(gotFrom))
	})

	t.Run("invalid from", func(t *testing.T) {
		t.Parallel()

		handler := ports.MakeListAppointmentsHandler(
			func(ctx context.Context, clinicID string, from, to time.Time, forceRefresh bool) ([]domain.Appointment, error) {
				t.Error("should not be called")
				return nil, nil
			},
			testLogger(),
			noopMiddleware,
		)

		request := httptest.NewRequest("GET", "/v1/appointments?from=yesterday", nil)
		request.Header.Set("X-Clinic-Id", "clinic-1")
		recorder := httptest.NewRecorder()
		handler(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("empty window", func(t *testing.T) {
		t.Parallel()

		handler := ports.MakeListAppointmentsHandler(
			func(ctx context.Context, clinicID string, from, to time.Time, forceRefresh bool) ([]domain.Appointment, error) {
				t.Error("should not be called")
				return nil, nil
			},
			testLogger(),
			noopMiddleware,
		)

		request := httptest.NewRequest("GET", "/v1/appointments?from=2026-08-25T00:00:00Z&to=2026-08-25T00:00:00Z", nil)
		request.Header.Set("X-Clinic-Id", "clinic-1")
		recorder := httptest.NewRecorder()
		handler(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestGetPatientHandler(t *testing.T) {
	t.Parallel()

	queriedAt := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
	patient := &domain.Patient{
		QueriedAt:   queriedAt,
		ID:          "patient-1",
		ClinicID:    "clinic-1",
		DisplayName: "山田 太郎",
	}

	t.Run("success through mux", func(t *testing.T) {
		t.Parallel()

		var gotPatientID string
		handler := ports.MakeGetPatientHandler(
			func(ctx context.Context, clinicID string, patientID string, forceRefresh bool) (*domain.Patient, error) {
				gotPatientID = patientID
				return patient, nil
			},
			testLogger(),
			noopMiddleware,
		)

		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/patients/{patientId}", handler)

		request := httptest.NewRequest("GET", "/v1/patients/patient-1", nil)
		request.Header.Set("X-Clinic-Id", "clinic-1")
		recorder := httptest.NewRecorder()
		mux.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "patient-1", gotPatientID)

		var body map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "patient-1", body["id"])
		assert.Equal(t, "山田 太郎", body["displayName"])
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		handler := ports.MakeGetPatientHandler(
			func(ctx context.Context, clinicID string, patientID string, forceRefresh bool) (*domain.Patient, error) {
				return nil, fmt.Errorf("%w: no such patient", domain.ErrNotFound)
			},
			testLogger(),
			noopMiddleware,
		)

		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/patients/{patientId}", handler)

		request := httptest.NewRequest("GET", "/v1/patients/patient-unknown", nil)
		request.Header.Set("X-Clinic-Id", "clinic-1")
		recorder := httptest.NewRecorder()
		mux.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("missing patient id", func(t *testing.T) {
		t.Parallel()

		handler := ports.MakeGetPatientHandler(
			func(ctx context.Context, clinicID string, patientID string, forceRefresh bool) (*domain.Patient, error) {
				t.Error("should not be called")
				return nil, nil
			},
			testLogger(),
			noopMiddleware,
		)

		request := httptest.NewRequest("GET", "/v1/patients/", nil)
		request.Header.Set("X-Clinic-Id", "clinic-1")
		recorder := httptest.NewRecorder()
		handler(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
