package clinicapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clinova/beacon/internal/domain"
	e "github.com/clinova/beacon/internal/errors"
	"github.com/clinova/beacon/internal/logging"
	"github.com/clinova/beacon/internal/reporting"
)

func checkForClinicAPIError(ctx context.Context, statusCode int, data []byte) error {
	if statusCode == 200 {
		// Check for HTML response
		if len(data) > 0 && data[0] == '<' {
			return fmt.Errorf("%w: clinic API returned HTML", e.APIServerError)
		}
		return nil
	}

	err := fmt.Errorf("%w: clinic API returned unsupported status code: %d", e.APIServerError, statusCode)

	switch statusCode {
	case 404:
		err = fmt.Errorf("%w: clinic API returned 404", domain.ErrNotFound)
	case 401, 403:
		err = fmt.Errorf("%w: clinic API rejected credentials (%d)", e.APIClientError, statusCode)
	case 429:
		err = fmt.Errorf("%w: clinic API ratelimit exceeded %w", e.RatelimitExceededError, domain.ErrTemporarilyUnavailable)
	case 500, 502, 503, 504, 520, 521, 522, 523, 524:
		err = fmt.Errorf("%w: clinic API returned status code %d (%s) %w", e.APIServerError, statusCode, http.StatusText(statusCode), domain.ErrTemporarilyUnavailable)
	}

	return err
}

func parsePayload[T any](ctx context.Context, data []byte, statusCode int) (*T, error) {
	err := checkForClinicAPIError(ctx, statusCode, data)
	if err != nil {
		reporting.Report(
			ctx,
			err,
			map[string]string{
				"statusCode": fmt.Sprint(statusCode),
				"data":       string(data),
			},
		)
		logging.FromContext(ctx).Error(
			"Got response from clinic API",
			"status", "error",
			"error", err.Error(),
			"statusCode", statusCode,
			"contentLength", len(data),
		)
		return nil, err
	}

	logging.FromContext(ctx).Info(
		"Got response from clinic API",
		"status", "success",
		"statusCode", statusCode,
		"contentLength", len(data),
	)

	var parsed T
	if err := json.Unmarshal(data, &parsed); err != nil {
		err = fmt.Errorf("%w: failed to parse clinic API response: %w", e.APIServerError, err)
		reporting.Report(
			ctx,
			err,
			map[string]string{
				"statusCode": fmt.Sprint(statusCode),
				"data":       string(data),
			},
		)
		return nil, err
	}

	return &parsed, nil
}

func settingsToDomain(response *clinicSettingsResponse, clinicID string, queriedAt time.Time) (*domain.ClinicSettings, error) {
	if response.Error != nil {
		return nil, fmt.Errorf("%w: %s", e.APIServerError, *response.Error)
	}
	if response.Clinic == nil {
		return nil, fmt.Errorf("%w: clinic API returned no clinic", domain.ErrNotFound)
	}

	clinic := response.Clinic
	if clinic.Name == nil || clinic.Timezone == nil || clinic.SlotMinutes == nil || clinic.BookingLeadDays == nil {
		return nil, fmt.Errorf("%w: clinic settings missing required fields", e.APIServerError)
	}

	closedWeekdays := make([]time.Weekday, 0, len(clinic.ClosedWeekdays))
	for _, day := range clinic.ClosedWeekdays {
		if day < 0 || day > 6 {
			return nil, fmt.Errorf("%w: invalid weekday %d", e.APIServerError, day)
		}
		closedWeekdays = append(closedWeekdays, time.Weekday(day))
	}

	return &domain.ClinicSettings{
		QueriedAt: queriedAt,

		ClinicID: clinicID,

		Name:            *clinic.Name,
		Timezone:        *clinic.Timezone,
		SlotMinutes:     *clinic.SlotMinutes,
		BookingLeadDays: *clinic.BookingLeadDays,
		ClosedWeekdays:  closedWeekdays,
		LineChannelID:   clinic.LineChannelID,
	}, nil
}

func appointmentsToDomain(response *appointmentListResponse, clinicID string, queriedAt time.Time) ([]domain.Appointment, error) {
	if response.Error != nil {
		return nil, fmt.Errorf("%w: %s", e.APIServerError, *response.Error)
	}

	appointments := make([]domain.Appointment, 0, len(response.Appointments))
	for _, apiAppointment := range response.Appointments {
		if apiAppointment.ID == nil || apiAppointment.PatientID == nil || apiAppointment.StartsAt == nil || apiAppointment.EndsAt == nil || apiAppointment.Status == nil {
			return nil, fmt.Errorf("%w: appointment missing required fields", e.APIServerError)
		}

		startsAt, err := time.Parse(time.RFC3339, *apiAppointment.StartsAt)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid appointment start time: %w", e.APIServerError, err)
		}
		endsAt, err := time.Parse(time.RFC3339, *apiAppointment.EndsAt)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid appointment end time: %w", e.APIServerError, err)
		}

		status := domain.AppointmentStatus(*apiAppointment.Status)
		switch status {
		case domain.AppointmentStatusBooked, domain.AppointmentStatusConfirmed, domain.AppointmentStatusCancelled, domain.AppointmentStatusCompleted:
		default:
			return nil, fmt.Errorf("%w: unknown appointment status: %s", e.APIServerError, *apiAppointment.Status)
		}

		appointments = append(appointments, domain.Appointment{
			QueriedAt: queriedAt,

			ID:        *apiAppointment.ID,
			ClinicID:  clinicID,
			PatientID: *apiAppointment.PatientID,

			StartsAt: startsAt,
			EndsAt:   endsAt,
			Status:   status,

			PractitionerName: apiAppointment.PractitionerName,
			Note:             apiAppointment.Note,
		})
	}

	return appointments, nil
}

func patientToDomain(response *patientResponse, clinicID string, queriedAt time.Time) (*domain.Patient, error) {
	if response.Error != nil {
		return nil, fmt.Errorf("%w: %s", e.APIServerError, *response.Error)
	}
	if response.Patient == nil {
		return nil, fmt.Errorf("%w: clinic API returned no patient", domain.ErrNotFound)
	}

	apiPatient := response.Patient
	if apiPatient.ID == nil || apiPatient.DisplayName == nil {
		return nil, fmt.Errorf("%w: patient missing required fields", e.APIServerError)
	}

	var birthDate *time.Time
	if apiPatient.BirthDate != nil {
		parsed, err := time.Parse("2006-01-02", *apiPatient.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid patient birth date: %w", e.APIServerError, err)
		}
		birthDate = &parsed
	}

	return &domain.Patient{
		QueriedAt: queriedAt,

		ID:       *apiPatient.ID,
		ClinicID: clinicID,

		DisplayName: *apiPatient.DisplayName,
		Kana:        apiPatient.Kana,
		BirthDate:   birthDate,
		Phone:       apiPatient.Phone,
		LineUserID:  apiPatient.LineUserID,
	}, nil
}
