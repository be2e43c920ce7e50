package app

import (
	"context"
	"fmt"

	"github.com/clinova/beacon/internal/adapters/clinicapi"
	"github.com/clinova/beacon/internal/adapters/snapshotrepository"
	"github.com/clinova/beacon/internal/cachekey"
	"github.com/clinova/beacon/internal/domain"
	"github.com/clinova/beacon/internal/fetch"
	"github.com/clinova/beacon/internal/logging"
	"github.com/clinova/beacon/internal/reporting"
)

type GetClinicSettings func(ctx context.Context, clinicID string, forceRefresh bool) (*domain.ClinicSettings, error)

var settingsDescriptor = cachekey.Descriptor{
	Name: "settings.get",
	Path: "/v1/clinics/{clinicId}/settings",
}

func BuildGetClinicSettings(
	resolver *fetch.Resolver[*domain.ClinicSettings],
	provider clinicapi.ClinicProvider,
	repo snapshotrepository.SnapshotRepository,
) GetClinicSettings {
	return func(ctx context.Context, clinicID string, forceRefresh bool) (*domain.ClinicSettings, error) {
		if clinicID == "" {
			err := fmt.Errorf("missing clinic id")
			logging.FromContext(ctx).Error(err.Error())
			reporting.Report(ctx, err)
			return nil, err
		}

		op := fetch.Operation[*domain.ClinicSettings]{
			Descriptor: settingsDescriptor,
			Fetch: func(ctx context.Context) (*domain.ClinicSettings, error) {
				settings, err := provider.GetClinicSettings(ctx, clinicID)
				if err != nil {
					// NOTE: ClinicProvider implementations handle their own error reporting
					return nil, fmt.Errorf("could not get clinic settings: %w", err)
				}

				persistSnapshot(ctx, repo, clinicID, "settings", clinicID, settings.QueriedAt, settings)

				return settings, nil
			},
		}

		opts := fetch.NewOptions[*domain.ClinicSettings]()
		opts.Dependencies = []cachekey.Dep{cachekey.String(clinicID)}

		if forceRefresh {
			return resolver.Fetch(ctx, op, opts)
		}
		return resolver.Get(ctx, op, opts)
	}
}
