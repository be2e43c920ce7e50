package ports

import (
	"time"

	"github.com/clinova/beacon/internal/domain"
)

type clinicSettingsResponse struct {
	ClinicID        string  `json:"clinicId"`
	Name            string  `json:"name"`
	Timezone        string  `json:"timezone"`
	SlotMinutes     int     `json:"slotMinutes"`
	BookingLeadDays int     `json:"bookingLeadDays"`
	ClosedWeekdays  []int   `json:"closedWeekdays"`
	LineChannelID   *string `json:"lineChannelId,omitempty"`
	QueriedAt       string  `json:"queriedAt"`
}

func clinicSettingsToResponse(settings *domain.ClinicSettings) clinicSettingsResponse {
	closedWeekdays := make([]int, 0, len(settings.ClosedWeekdays))
	for _, day := range settings.ClosedWeekdays {
		closedWeekdays = append(closedWeekdays, int(day))
	}

	return clinicSettingsResponse{
		ClinicID:        settings.ClinicID,
		Name:            settings.Name,
		Timezone:        settings.Timezone,
		SlotMinutes:     settings.SlotMinutes,
		BookingLeadDays: settings.BookingLeadDays,
		ClosedWeekdays:  closedWeekdays,
		LineChannelID:   settings.LineChannelID,
		QueriedAt:       settings.QueriedAt.UTC().Format(time.RFC3339),
	}
}

type appointmentResponse struct {
	ID               string  `json:"id"`
	PatientID        string  `json:"patientId"`
	StartsAt         string  `json:"startsAt"`
	EndsAt           string  `json:"endsAt"`
	Status           string  `json:"status"`
	PractitionerName *string `json:"practitionerName,omitempty"`
	Note             *string `json:"note,omitempty"`
}

type appointmentListResponse struct {
	Appointments []appointmentResponse `json:"appointments"`
	QueriedAt    string                `json:"queriedAt"`
}

func appointmentsToResponse(appointments []domain.Appointment, queriedAt time.Time) appointmentListResponse {
	converted := make([]appointmentResponse, 0, len(appointments))
	for _, appointment := range appointments {
		converted = append(converted, appointmentResponse{
			ID:               appointment.ID,
			PatientID:        appointment.PatientID,
			StartsAt:         appointment.StartsAt.UTC().Format(time.RFC3339),
			EndsAt:           appointment.EndsAt.UTC().Format(time.RFC3339),
			Status:           string(appointment.Status),
			PractitionerName: appointment.PractitionerName,
			Note:             appointment.Note,
		})
	}

	return appointmentListResponse{
		Appointments: converted,
		QueriedAt:    queriedAt.UTC().Format(time.RFC3339),
	}
}

type patientResponse struct {
	ID          string  `json:"id"`
	ClinicID    string  `json:"clinicId"`
	DisplayName string  `json:"displayName"`
	Kana        *string `json:"kana,omitempty"`
	BirthDate   *string `json:"birthDate,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	LineUserID  *string `json:"lineUserId,omitempty"`
	QueriedAt   string  `json:"queriedAt"`
}

func patientToResponse(patient *domain.Patient) patientResponse {
	var birthDate *string
	if patient.BirthDate != nil {
		formatted := patient.BirthDate.Format("2006-01-02")
		birthDate = &formatted
	}

	return patientResponse{
		ID:          patient.ID,
		ClinicID:    patient.ClinicID,
		DisplayName: patient.DisplayName,
		Kana:        patient.Kana,
		BirthDate:   birthDate,
		Phone:       patient.Phone,
		LineUserID:  patient.LineUserID,
		QueriedAt:   patient.QueriedAt.UTC().Format(time.RFC3339),
	}
}
