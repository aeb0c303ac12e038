package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("version not found")

const selectColumns = `SELECT seq, id, fingerprint, format, output, document, created_at FROM versions`

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id.String())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// Latest returns the most recently appended record, or ErrNotFound on an
// empty history.
func (s *Store) Latest(ctx context.Context) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` ORDER BY seq DESC LIMIT 1`)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// List returns up to limit records, newest first. A limit of zero or
// less returns every record. The result is never nil.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, selectColumns+` ORDER BY seq DESC LIMIT ?`, limit)
}

// ByFingerprint returns every record of the given document fingerprint,
// oldest first.
func (s *Store) ByFingerprint(ctx context.Context, fingerprint string) ([]Record, error) {
	return s.query(ctx, selectColumns+` WHERE fingerprint = ? ORDER BY seq ASC`, fingerprint)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec       Record
		id        string
		document  string
		createdAt string
	)
	if err := row.Scan(&rec.Seq, &id, &rec.Fingerprint, &rec.Format, &rec.Output, &document, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan version: %w", err)
	}

	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("scan version: id: %w", err)
	}
	if rec.Document, err = unmarshalDocument(document); err != nil {
		return Record{}, fmt.Errorf("scan version %s: %w", id, err)
	}
	if rec.CreatedAt, err = unmarshalTime(createdAt); err != nil {
		return Record{}, fmt.Errorf("scan version %s: %w", id, err)
	}
	return rec, nil
}
