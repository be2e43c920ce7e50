package snapshotrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clinova/beacon/internal/domain"
	"github.com/clinova/beacon/internal/reporting"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PostgresSnapshotRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresSnapshotRepository(db *sqlx.DB, schema string) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db, schema}
}

type dbSnapshot struct {
	ID         string    `db:"id"`
	ClinicID   string    `db:"clinic_id"`
	Resource   string    `db:"resource"`
	ResourceID string    `db:"resource_id"`
	QueriedAt  time.Time `db:"queried_at"`
	Payload    []byte    `db:"payload"`
}

func (p *PostgresSnapshotRepository) StoreSnapshot(ctx context.Context, snapshot Snapshot) error {
	extras := map[string]string{
		"clinicId":   snapshot.ClinicID,
		"resource":   snapshot.Resource,
		"resourceId": snapshot.ResourceID,
	}

	if snapshot.ClinicID == "" || snapshot.Resource == "" {
		err := fmt.Errorf("snapshot missing clinic id or resource")
		reporting.Report(ctx, err, extras)
		return err
	}

	dbID, err := uuid.NewV7()
	if err != nil {
		err := fmt.Errorf("failed to generate db id: %w", err)
		reporting.Report(ctx, err, extras)
		return err
	}

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err, extras)
		return err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, extras)
		return err
	}

	// Skip the write when a snapshot of the same resource landed very
	// recently: back-to-back resolutions would otherwise fill the table with
	// near-identical rows.
	var count int
	err = txx.QueryRowxContext(
		ctx,
		`SELECT COUNT(*) FROM snapshots
		WHERE clinic_id = $1 AND resource = $2 AND resource_id = $3 AND queried_at > $4`,
		snapshot.ClinicID,
		snapshot.Resource,
		snapshot.ResourceID,
		snapshot.QueriedAt.Add(-time.Minute),
	).Scan(&count)
	if err != nil {
		err := fmt.Errorf("failed to query recent snapshots: %w", err)
		reporting.Report(ctx, err, extras)
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO snapshots
		(id, clinic_id, resource, resource_id, queried_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		dbID.String(),
		snapshot.ClinicID,
		snapshot.Resource,
		snapshot.ResourceID,
		snapshot.QueriedAt,
		snapshot.Payload,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert snapshot: %w", err)
		reporting.Report(ctx, err, extras)
		return err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err, extras)
		return err
	}

	return nil
}

func (p *PostgresSnapshotRepository) LatestSnapshot(ctx context.Context, clinicID, resource, resourceID string) (*Snapshot, error) {
	txx, err := p.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		return nil, fmt.Errorf("failed to set search path: %w", err)
	}

	var stored dbSnapshot
	err = txx.QueryRowxContext(
		ctx,
		`SELECT id, clinic_id, resource, resource_id, queried_at, payload
		FROM snapshots
		WHERE clinic_id = $1 AND resource = $2 AND resource_id = $3
		ORDER BY queried_at DESC LIMIT 1`,
		clinicID,
		resource,
		resourceID,
	).StructScan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no snapshot stored", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	return &Snapshot{
		ClinicID:   stored.ClinicID,
		Resource:   stored.Resource,
		ResourceID: stored.ResourceID,
		QueriedAt:  stored.QueriedAt,
		Payload:    stored.Payload,
	}, nil
}
