package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/clinova/beacon/internal/cachekey"
	"github.com/clinova/beacon/internal/domain"
	"github.com/clinova/beacon/internal/fetch"
	"github.com/stretchr/testify/require"
)

type fakeClinicProvider struct {
	lock sync.Mutex

	settingsCalls     int
	appointmentsCalls int
	patientCalls      int

	settings     *domain.ClinicSettings
	appointments []domain.Appointment
	patient      *domain.Patient
	err          error
}

func (p *fakeClinicProvider) GetClinicSettings(ctx context.Context, clinicID string) (*domain.ClinicSettings, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.settingsCalls++
	if p.err != nil {
		return nil, p.err
	}
	settings := *p.settings
	settings.ClinicID = clinicID
	return &settings, nil
}

func (p *fakeClinicProvider) ListAppointments(ctx context.Context, clinicID string, from, to time.Time) ([]domain.Appointment, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.appointmentsCalls++
	if p.err != nil {
		return nil, p.err
	}
	return p.appointments, nil
}

func (p *fakeClinicProvider) GetPatient(ctx context.Context, clinicID string, patientID string) (*domain.Patient, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.patientCalls++
	if p.err != nil {
		return nil, p.err
	}
	patient := *p.patient
	patient.ID = patientID
	patient.ClinicID = clinicID
	return &patient, nil
}

func (p *fakeClinicProvider) SettingsCalls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.settingsCalls
}

func (p *fakeClinicProvider) AppointmentsCalls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.appointmentsCalls
}

func (p *fakeClinicProvider) PatientCalls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.patientCalls
}

func testDeriver(t *testing.T) *cachekey.Deriver {
	t.Helper()

	// Scope by endpoint path, like production: every descriptor here names a
	// clinic-scoped upstream route.
	scopes, err := cachekey.NewScopeList(nil, []string{`^/v1/clinics/`})
	require.NoError(t, err)
	return cachekey.NewDeriver(scopes)
}

func newResolver[T any](t *testing.T, name string) *fetch.Resolver[T] {
	t.Helper()

	resolver, stop, err := fetch.NewResolver[T](name, testDeriver(t), time.Now, time.After)
	require.NoError(t, err)
	t.Cleanup(stop)
	return resolver
}

func testSettings(queriedAt time.Time) *domain.ClinicSettings {
	return &domain.ClinicSettings{
		QueriedAt: queriedAt,

		Name:            "Sakura Dental",
		Timezone:        "Asia/Tokyo",
		SlotMinutes:     30,
		BookingLeadDays: 14,
		ClosedWeekdays:  []time.Weekday{time.Sunday},
	}
}
