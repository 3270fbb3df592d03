package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ride-hail-realtime/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool the journal needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Journal records handled inbound message ids per identity so redelivered
// envelopes survive process restarts.
type Journal struct {
	db       DBTX
	identity string
}

var _ ports.EnvelopeJournal = (*Journal)(nil)

// NewJournal binds the journal to one client identity.
func NewJournal(db DBTX, identity string) *Journal {
	return &Journal{db: db, identity: strings.TrimSpace(identity)}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS handled_envelopes (
	identity     TEXT        NOT NULL,
	message_id   TEXT        NOT NULL,
	message_type TEXT        NOT NULL,
	handled_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (identity, message_id)
)`

// EnsureSchema creates the journal table when missing.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("journal schema: %w", err)
	}
	return nil
}

// MarkHandled inserts messageID and reports whether it was not seen before.
func (j *Journal) MarkHandled(ctx context.Context, messageID, messageType string) (bool, error) {
	tag, err := j.db.Exec(ctx, `
		INSERT INTO handled_envelopes (identity, message_id, message_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (identity, message_id) DO NOTHING
	`, j.identity, messageID, messageType)
	if err != nil {
		return false, fmt.Errorf("journal mark %s: %w", messageID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Prune deletes rows older than retention and returns how many went away.
func (j *Journal) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := j.db.Exec(ctx, `
		DELETE FROM handled_envelopes
		WHERE identity = $1 AND handled_at < $2
	`, j.identity, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("journal prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
