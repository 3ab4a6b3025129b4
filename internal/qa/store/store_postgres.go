package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kycvault/internal/qa"
	"kycvault/pkg/domain"
	"kycvault/pkg/platform/sentinel"
	txcontext "kycvault/pkg/platform/tx"
)

// Postgres persists notes in the qa_notes table.
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

func (s *Postgres) Save(ctx context.Context, note qa.Note) error {
	query := `
		INSERT INTO qa_notes (
			id, archive_name, row_count, settlement_count,
			population_sum, reviewer, validated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		note.ID.String(),
		note.ArchiveName,
		note.RowCount,
		note.SettlementCount,
		note.PopulationSum,
		note.Reviewer,
		note.ValidatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert qa note: %w", err)
	}
	return nil
}

func (s *Postgres) LastForArchive(ctx context.Context, archiveName string) (qa.Note, error) {
	query := `
		SELECT id, archive_name, row_count, settlement_count,
		       population_sum, reviewer, validated_at
		FROM qa_notes
		WHERE archive_name = $1
		ORDER BY validated_at DESC
		LIMIT 1
	`
	note, err := scanNote(s.execer(ctx).QueryRowContext(ctx, query, archiveName))
	if errors.Is(err, sql.ErrNoRows) {
		return qa.Note{}, sentinel.ErrNotFound
	}
	if err != nil {
		return qa.Note{}, fmt.Errorf("select qa note: %w", err)
	}
	return note, nil
}

func (s *Postgres) ListForArchive(ctx context.Context, archiveName string) ([]qa.Note, error) {
	query := `
		SELECT id, archive_name, row_count, settlement_count,
		       population_sum, reviewer, validated_at
		FROM qa_notes
		WHERE archive_name = $1
		ORDER BY validated_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, archiveName)
	if err != nil {
		return nil, fmt.Errorf("select qa notes: %w", err)
	}
	defer rows.Close()

	var notes []qa.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan qa note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (qa.Note, error) {
	var note qa.Note
	var id string
	err := row.Scan(
		&id,
		&note.ArchiveName,
		&note.RowCount,
		&note.SettlementCount,
		&note.PopulationSum,
		&note.Reviewer,
		&note.ValidatedAt,
	)
	if err != nil {
		return qa.Note{}, err
	}
	noteID, err := domain.ParseNoteID(id)
	if err != nil {
		return qa.Note{}, fmt.Errorf("parse note id: %w", err)
	}
	note.ID = noteID
	return note, nil
}
