package app

import (
	"context"
	"fmt"
	"time"

	"github.com/clinova/beacon/internal/adapters/clinicapi"
	"github.com/clinova/beacon/internal/adapters/snapshotrepository"
	"github.com/clinova/beacon/internal/cachekey"
	"github.com/clinova/beacon/internal/domain"
	"github.com/clinova/beacon/internal/fetch"
	"github.com/clinova/beacon/internal/logging"
	"github.com/clinova/beacon/internal/reporting"
)

type ListAppointments func(ctx context.Context, clinicID string, from, to time.Time, forceRefresh bool) ([]domain.Appointment, error)

var appointmentsDescriptor = cachekey.Descriptor{
	Name: "appointments.list",
	Path: "/v1/clinics/{clinicId}/appointments",
}

// Appointment lists churn much faster than settings, so they get a shorter
// cache lifetime.
const appointmentsTTL = 1 * time.Minute
const appointmentsFreshFor = 15 * time.Second

func BuildListAppointments(
	resolver *fetch.Resolver[[]domain.Appointment],
	provider clinicapi.ClinicProvider,
	repo snapshotrepository.SnapshotRepository,
) ListAppointments {
	return func(ctx context.Context, clinicID string, from, to time.Time, forceRefresh bool) ([]domain.Appointment, error) {
		if clinicID == "" {
			err := fmt.Errorf("missing clinic id")
			logging.FromContext(ctx).Error(err.Error())
			reporting.Report(ctx, err)
			return nil, err
		}
		if !to.After(from) {
			err := fmt.Errorf("appointment window is empty")
			logging.FromContext(ctx).Error(err.Error(), "from", from, "to", to)
			return nil, err
		}

		op := fetch.Operation[[]domain.Appointment]{
			Descriptor: appointmentsDescriptor,
			Fetch: func(ctx context.Context) ([]domain.Appointment, error) {
				appointments, err := provider.ListAppointments(ctx, clinicID, from, to)
				if err != nil {
					// NOTE: ClinicProvider implementations handle their own error reporting
					return nil, fmt.Errorf("could not list appointments: %w", err)
				}

				queriedAt := time.Now()
				if len(appointments) > 0 {
					queriedAt = appointments[0].QueriedAt
				}
				persistSnapshot(ctx, repo, clinicID, "appointments", windowResourceID(from, to), queriedAt, appointments)

				return appointments, nil
			},
		}

		opts := fetch.NewOptions[[]domain.Appointment]()
		opts.Dependencies = []cachekey.Dep{
			cachekey.String(clinicID),
			cachekey.String(from.UTC().Format(time.RFC3339)),
			cachekey.String(to.UTC().Format(time.RFC3339)),
		}
		opts.TTL = appointmentsTTL
		opts.FreshFor = appointmentsFreshFor

		if forceRefresh {
			return resolver.Fetch(ctx, op, opts)
		}
		return resolver.Get(ctx, op, opts)
	}
}

func windowResourceID(from, to time.Time) string {
	return fmt.Sprintf("%s/%s", from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}
