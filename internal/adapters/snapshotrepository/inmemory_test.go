package snapshotrepository

import (
	"testing"
	"time"

	"github.com/clinova/beacon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySnapshotRepository(t *testing.T) {
	t.Parallel()

	queriedAt := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)

	t.Run("store and read back latest", func(t *testing.T) {
		t.Parallel()

		repo := NewInMemorySnapshotRepository()

		require.NoError(t, repo.StoreSnapshot(t.Context(), Snapshot{
			ClinicID:   "clinic-1",
			Resource:   "settings",
			ResourceID: "clinic-1",
			QueriedAt:  queriedAt,
			Payload:    []byte(`{"name":"old"}`),
		}))
		require.NoError(t, repo.StoreSnapshot(t.Context(), Snapshot{
			ClinicID:   "clinic-1",
			Resource:   "settings",
			ResourceID: "clinic-1",
			QueriedAt:  queriedAt.Add(time.Hour),
			Payload:    []byte(`{"name":"new"}`),
		}))

		snapshot, err := repo.LatestSnapshot(t.Context(), "clinic-1", "settings", "clinic-1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"name":"new"}`), snapshot.Payload)
		assert.Equal(t, queriedAt.Add(time.Hour), snapshot.QueriedAt)
	})

	t.Run("recent duplicate is skipped", func(t *testing.T) {
		t.Parallel()

		repo := NewInMemorySnapshotRepository()

		require.NoError(t, repo.StoreSnapshot(t.Context(), Snapshot{
			ClinicID:   "clinic-1",
			Resource:   "settings",
			ResourceID: "clinic-1",
			QueriedAt:  queriedAt,
			Payload:    []byte(`{"name":"first"}`),
		}))
		require.NoError(t, repo.StoreSnapshot(t.Context(), Snapshot{
			ClinicID:   "clinic-1",
			Resource:   "settings",
			ResourceID: "clinic-1",
			QueriedAt:  queriedAt.Add(30 * time.Second),
			Payload:    []byte(`{"name":"second"}`),
		}))

		snapshot, err := repo.LatestSnapshot(t.Context(), "clinic-1", "settings", "clinic-1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"name":"first"}`), snapshot.Payload)
	})

	t.Run("resources are isolated", func(t *testing.T) {
		t.Parallel()

		repo := NewInMemorySnapshotRepository()

		require.NoError(t, repo.StoreSnapshot(t.Context(), Snapshot{
			ClinicID:   "clinic-1",
			Resource:   "settings",
			ResourceID: "clinic-1",
			QueriedAt:  queriedAt,
			Payload:    []byte(`{}`),
		}))

		_, err := repo.LatestSnapshot(t.Context(), "clinic-2", "settings", "clinic-2")
		require.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.LatestSnapshot(t.Context(), "clinic-1", "patient", "patient-1")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing clinic id is rejected", func(t *testing.T) {
		t.Parallel()

		repo := NewInMemorySnapshotRepository()
		err := repo.StoreSnapshot(t.Context(), Snapshot{Resource: "settings", QueriedAt: queriedAt})
		require.Error(t, err)
	})
}
