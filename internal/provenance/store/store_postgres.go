package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kycvault/internal/provenance"
	id "kycvault/pkg/domain"
	"kycvault/pkg/platform/sentinel"
	txcontext "kycvault/pkg/platform/tx"
)

// Postgres persists provenance events. Registrations join the caller's
// transaction via tx context so the registry row and its compliance event
// commit or roll back together.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Append(ctx context.Context, event provenance.Event) error {
	query := `
		INSERT INTO provenance_events (
			id, archive_name, category, action, actor, digest, detail,
			occurred_at, hash, prev_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(event.ID),
		event.ArchiveName,
		string(event.Action.Category()),
		string(event.Action),
		event.Actor,
		event.Digest,
		event.Detail,
		event.Timestamp,
		event.Hash,
		event.PrevHash,
	)
	if err != nil {
		return fmt.Errorf("insert provenance event: %w", err)
	}
	return nil
}

func (s *Postgres) Last(ctx context.Context, archiveName string) (provenance.Event, error) {
	query := `
		SELECT id, archive_name, action, actor, digest, detail, occurred_at, hash, prev_hash
		FROM provenance_events
		WHERE archive_name = $1
		ORDER BY occurred_at DESC, hash DESC
		LIMIT 1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, archiveName)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return provenance.Event{}, sentinel.ErrNotFound
	}
	if err != nil {
		return provenance.Event{}, fmt.Errorf("select last provenance event: %w", err)
	}
	return event, nil
}

func (s *Postgres) ListByArchive(ctx context.Context, archiveName string) ([]provenance.Event, error) {
	query := `
		SELECT id, archive_name, action, actor, digest, detail, occurred_at, hash, prev_hash
		FROM provenance_events
		WHERE archive_name = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, archiveName)
	if err != nil {
		return nil, fmt.Errorf("select provenance events: %w", err)
	}
	defer rows.Close()

	var events []provenance.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provenance event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (provenance.Event, error) {
	var event provenance.Event
	var eventID uuid.UUID
	var action string
	err := row.Scan(
		&eventID,
		&event.ArchiveName,
		&action,
		&event.Actor,
		&event.Digest,
		&event.Detail,
		&event.Timestamp,
		&event.Hash,
		&event.PrevHash,
	)
	if err != nil {
		return provenance.Event{}, err
	}
	event.ID = id.EventID(eventID)
	event.Action = provenance.Action(action)
	return event, nil
}
