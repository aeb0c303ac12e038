package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/zerv/internal/ir"
	"github.com/roach88/zerv/internal/logger"
)

// Record is one rendered version in the history.
type Record struct {
	ID          uuid.UUID
	Seq         int64
	Fingerprint string
	Format      string
	Output      string
	Document    ir.Document
	CreatedAt   time.Time
}

// Append stores rec and returns it with ID, Seq, Fingerprint, and
// CreatedAt filled in. A zero ID gets a fresh random UUID, a zero
// CreatedAt the current time. Writing an ID that already exists is a
// no-op and returns the stored record.
func (s *Store) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	fp, err := ir.Fingerprint(rec.Document)
	if err != nil {
		return Record{}, fmt.Errorf("append version: %w", err)
	}
	if rec.Fingerprint != "" && rec.Fingerprint != fp {
		return Record{}, fmt.Errorf("append version: fingerprint %s does not match document (%s)", rec.Fingerprint, fp)
	}
	rec.Fingerprint = fp

	doc, err := marshalDocument(rec.Document)
	if err != nil {
		return Record{}, fmt.Errorf("append version: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO versions
		(id, fingerprint, format, output, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID.String(),
		rec.Fingerprint,
		rec.Format,
		rec.Output,
		doc,
		marshalTime(rec.CreatedAt),
	)
	if err != nil {
		return Record{}, fmt.Errorf("append version: %w", err)
	}

	stored, err := s.Get(ctx, rec.ID)
	if err != nil {
		return Record{}, fmt.Errorf("append version: %w", err)
	}
	logger.DebugKV(ctx, "recorded version",
		"id", stored.ID, "seq", stored.Seq, "output", stored.Output, "fingerprint", stored.Fingerprint)
	return stored, nil
}
