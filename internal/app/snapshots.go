package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clinova/beacon/internal/adapters/snapshotrepository"
	"github.com/clinova/beacon/internal/logging"
)

// persistSnapshot stores the fetched value best-effort: a failed write is
// logged and the request is served anyway.
func persistSnapshot(ctx context.Context, repo snapshotrepository.SnapshotRepository, clinicID, resource, resourceID string, queriedAt time.Time, value any) {
	logger := logging.FromContext(ctx)

	payload, err := json.Marshal(value)
	if err != nil {
		logger.Error("failed to serialize snapshot", "resource", resource, "error", err.Error())
		return
	}

	// Ignore cancellations from the request context and try to store the data anyway
	// Take a maximum of 1 second to not block the request for too long
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 1*time.Second)
	defer cancel()

	err = repo.StoreSnapshot(storeCtx, snapshotrepository.Snapshot{
		ClinicID:   clinicID,
		Resource:   resource,
		ResourceID: resourceID,
		QueriedAt:  queriedAt,
		Payload:    payload,
	})
	if err != nil {
		// NOTE: SnapshotRepository implementations handle their own error reporting
		logger.Error("failed to store snapshot", "resource", resource, "error", err.Error())
	}
}
