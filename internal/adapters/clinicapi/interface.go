package clinicapi

import (
	"context"
	"time"

	"github.com/clinova/beacon/internal/domain"
)

// ClinicProvider returns domain data for a clinic from the upstream API.
type ClinicProvider interface {
	GetClinicSettings(ctx context.Context, clinicID string) (*domain.ClinicSettings, error)
	ListAppointments(ctx context.Context, clinicID string, from, to time.Time) ([]domain.Appointment, error)
	GetPatient(ctx context.Context, clinicID string, patientID string) (*domain.Patient, error)
}
