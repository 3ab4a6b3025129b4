package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kycvault/internal/archive"
	"kycvault/pkg/platform/sentinel"
	txcontext "kycvault/pkg/platform/tx"
)

// Postgres persists registry records. The archives table has a primary key
// on name, which enforces the never-overwrite invariant at the database.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is applied by the operator (or integration tests) before first use.
const Schema = `
CREATE TABLE IF NOT EXISTS archives (
	name           TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	city           TEXT NOT NULL DEFAULT '',
	country        TEXT NOT NULL DEFAULT '',
	version        INT NOT NULL,
	digest         TEXT NOT NULL,
	size_bytes     BIGINT NOT NULL,
	registered_at  TIMESTAMPTZ NOT NULL,
	registered_by  TEXT NOT NULL DEFAULT '',
	superseded_by  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS archive_verifications (
	id            BIGSERIAL PRIMARY KEY,
	archive_name  TEXT NOT NULL REFERENCES archives(name),
	digest        TEXT NOT NULL,
	match         BOOLEAN NOT NULL,
	checked_at    TIMESTAMPTZ NOT NULL,
	checked_by    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS provenance_events (
	id            UUID PRIMARY KEY,
	archive_name  TEXT NOT NULL,
	category      TEXT NOT NULL,
	action        TEXT NOT NULL,
	actor         TEXT NOT NULL DEFAULT '',
	digest        TEXT NOT NULL DEFAULT '',
	detail        TEXT NOT NULL DEFAULT '',
	occurred_at   TIMESTAMPTZ NOT NULL,
	hash          TEXT NOT NULL,
	prev_hash     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS provenance_events_archive_idx
	ON provenance_events (archive_name, occurred_at);

CREATE TABLE IF NOT EXISTS qa_notes (
	id                TEXT PRIMARY KEY,
	archive_name      TEXT NOT NULL,
	row_count         BIGINT NOT NULL,
	settlement_count  BIGINT NOT NULL,
	population_sum    BIGINT NOT NULL,
	reviewer          TEXT NOT NULL DEFAULT '',
	validated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS qa_notes_archive_idx
	ON qa_notes (archive_name, validated_at);
`

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

func (s *Postgres) Save(ctx context.Context, record archive.Record) error {
	query := `
		INSERT INTO archives (
			name, kind, city, country, version, digest, size_bytes,
			registered_at, registered_by, superseded_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '')
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		record.Name,
		string(record.Kind),
		record.City,
		record.Country,
		record.Version,
		record.Digest,
		record.SizeBytes,
		record.RegisteredAt,
		record.RegisteredBy,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert archive: %w", err)
	}
	return nil
}

func (s *Postgres) FindByName(ctx context.Context, name string) (archive.Record, error) {
	query := `
		SELECT name, kind, city, country, version, digest, size_bytes,
		       registered_at, registered_by, superseded_by
		FROM archives
		WHERE name = $1
	`
	record, err := scanRecord(s.execer(ctx).QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return archive.Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return archive.Record{}, fmt.Errorf("select archive: %w", err)
	}
	return record, nil
}

func (s *Postgres) List(ctx context.Context) ([]archive.Record, error) {
	query := `
		SELECT name, kind, city, country, version, digest, size_bytes,
		       registered_at, registered_by, superseded_by
		FROM archives
		ORDER BY registered_at DESC, name ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select archives: %w", err)
	}
	defer rows.Close()

	var records []archive.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Postgres) MarkSuperseded(ctx context.Context, name, successorName string) error {
	query := `
		UPDATE archives
		SET superseded_by = $2
		WHERE name = $1 AND superseded_by = ''
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, name, successorName)
	if err != nil {
		return fmt.Errorf("mark archive superseded: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish unknown archive from one already replaced.
		if _, findErr := s.FindByName(ctx, name); findErr != nil {
			return findErr
		}
		return sentinel.ErrSuperseded
	}
	return nil
}

func (s *Postgres) SaveVerification(ctx context.Context, v archive.Verification) error {
	query := `
		INSERT INTO archive_verifications (archive_name, digest, match, checked_at, checked_by)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		v.ArchiveName, v.Digest, v.Match, v.CheckedAt, v.CheckedBy,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

func (s *Postgres) ListVerifications(ctx context.Context, name string) ([]archive.Verification, error) {
	query := `
		SELECT archive_name, digest, match, checked_at, checked_by
		FROM archive_verifications
		WHERE archive_name = $1
		ORDER BY checked_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("select verifications: %w", err)
	}
	defer rows.Close()

	var checks []archive.Verification
	for rows.Next() {
		var v archive.Verification
		if err := rows.Scan(&v.ArchiveName, &v.Digest, &v.Match, &v.CheckedAt, &v.CheckedBy); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		checks = append(checks, v)
	}
	return checks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (archive.Record, error) {
	var record archive.Record
	var kind string
	err := row.Scan(
		&record.Name,
		&kind,
		&record.City,
		&record.Country,
		&record.Version,
		&record.Digest,
		&record.SizeBytes,
		&record.RegisteredAt,
		&record.RegisteredBy,
		&record.SupersededBy,
	)
	if err != nil {
		return archive.Record{}, err
	}
	record.Kind = archive.Kind(kind)
	return record, nil
}
