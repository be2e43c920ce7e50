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

type GetPatient func(ctx context.Context, clinicID string, patientID string, forceRefresh bool) (*domain.Patient, error)

var patientDescriptor = cachekey.Descriptor{
	Name: "patient.get",
	Path: "/v1/clinics/{clinicId}/patients/{patientId}",
}

// Patient records change rarely but contain personal data, so they are not
// kept around for long.
const patientTTL = 10 * time.Minute

func BuildGetPatient(
	resolver *fetch.Resolver[*domain.Patient],
	provider clinicapi.ClinicProvider,
	repo snapshotrepository.SnapshotRepository,
) GetPatient {
	return func(ctx context.Context, clinicID string, patientID string, forceRefresh bool) (*domain.Patient, error) {
		if clinicID == "" || patientID == "" {
			err := fmt.Errorf("missing clinic id or patient id")
			logging.FromContext(ctx).Error(err.Error())
			reporting.Report(ctx, err)
			return nil, err
		}

		op := fetch.Operation[*domain.Patient]{
			Descriptor: patientDescriptor,
			Fetch: func(ctx context.Context) (*domain.Patient, error) {
				patient, err := provider.GetPatient(ctx, clinicID, patientID)
				if err != nil {
					// NOTE: ClinicProvider implementations handle their own error reporting
					return nil, fmt.Errorf("could not get patient: %w", err)
				}

				persistSnapshot(ctx, repo, clinicID, "patient", patientID, patient.QueriedAt, patient)

				return patient, nil
			},
		}

		opts := fetch.NewOptions[*domain.Patient]()
		opts.Dependencies = []cachekey.Dep{
			cachekey.String(clinicID),
			cachekey.String(patientID),
		}
		opts.TTL = patientTTL

		if forceRefresh {
			return resolver.Fetch(ctx, op, opts)
		}
		return resolver.Get(ctx, op, opts)
	}
}
