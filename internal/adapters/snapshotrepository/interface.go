package snapshotrepository

import (
	"context"
	"time"
)

// Snapshot is one observed upstream payload for a resource, kept for audit
// and offline debugging. Payload is the serialized domain value, not the raw
// upstream response.
type Snapshot struct {
	ClinicID   string
	Resource   string
	ResourceID string
	QueriedAt  time.Time
	Payload    []byte
}

type SnapshotRepository interface {
	StoreSnapshot(ctx context.Context, snapshot Snapshot) error
	LatestSnapshot(ctx context.Context, clinicID, resource, resourceID string) (*Snapshot, error)
}
