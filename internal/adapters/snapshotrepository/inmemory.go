package snapshotrepository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clinova/beacon/internal/domain"
)

// InMemorySnapshotRepository backs development environments without a
// database. Same dedup behavior as the postgres implementation.
type InMemorySnapshotRepository struct {
	lock      sync.Mutex
	snapshots []Snapshot
}

func NewInMemorySnapshotRepository() *InMemorySnapshotRepository {
	return &InMemorySnapshotRepository{}
}

func (r *InMemorySnapshotRepository) StoreSnapshot(ctx context.Context, snapshot Snapshot) error {
	if snapshot.ClinicID == "" || snapshot.Resource == "" {
		return fmt.Errorf("snapshot missing clinic id or resource")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	cutoff := snapshot.QueriedAt.Add(-time.Minute)
	for _, stored := range r.snapshots {
		if stored.ClinicID == snapshot.ClinicID &&
			stored.Resource == snapshot.Resource &&
			stored.ResourceID == snapshot.ResourceID &&
			stored.QueriedAt.After(cutoff) {
			return nil
		}
	}

	r.snapshots = append(r.snapshots, snapshot)
	return nil
}

func (r *InMemorySnapshotRepository) LatestSnapshot(ctx context.Context, clinicID, resource, resourceID string) (*Snapshot, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var latest *Snapshot
	for i := range r.snapshots {
		stored := &r.snapshots[i]
		if stored.ClinicID != clinicID || stored.Resource != resource || stored.ResourceID != resourceID {
			continue
		}
		if latest == nil || stored.QueriedAt.After(latest.QueriedAt) {
			latest = stored
		}
	}

	if latest == nil {
		return nil, fmt.Errorf("%w: no snapshot stored", domain.ErrNotFound)
	}

	snapshot := *latest
	return &snapshot, nil
}
