package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/querychain/internal/engine"
	"github.com/roach88/querychain/internal/session"
)

// SessionInfo is the journal record of a builder session.
type SessionInfo struct {
	ID         string
	Collection string
	MaxLinks   int
}

// ErrSessionExists is returned when a session id is already recorded.
var ErrSessionExists = errors.New("session already recorded")

// CreateSession inserts a session record. A second session under the same id
// fails with ErrSessionExists so two runs never share one history.
func (j *Journal) CreateSession(ctx context.Context, info SessionInfo) error {
	if info.ID == "" {
		return fmt.Errorf("create session: id is required")
	}
	maxLinks := info.MaxLinks
	if maxLinks <= 0 {
		maxLinks = engine.DefaultMaxLinks
	}

	res, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, collection, max_links)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, info.ID, info.Collection, maxLinks)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("create session %s: %w", info.ID, ErrSessionExists)
	}
	return nil
}

// RecordStep appends one builder step. A step already recorded under the
// same seq is left untouched.
func (j *Journal) RecordStep(ctx context.Context, sessionID string, step session.Step) error {
	payload, err := engine.EncodeAction(step.Action)
	if err != nil {
		return fmt.Errorf("record step %d: %w", step.Seq, err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO actions (session_id, seq, payload, reason, chains_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`, sessionID, step.Seq, string(payload), string(step.Outcome.Reason), step.ChainsHash)
	if err != nil {
		return fmt.Errorf("record step %d: %w", step.Seq, err)
	}
	return nil
}

// RecordSteps appends steps in one transaction.
func (j *Journal) RecordSteps(ctx context.Context, sessionID string, steps []session.Step) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record steps: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO actions (session_id, seq, payload, reason, chains_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("record steps: prepare: %w", err)
	}
	defer stmt.Close()

	for _, step := range steps {
		payload, err := engine.EncodeAction(step.Action)
		if err != nil {
			return fmt.Errorf("record steps: seq %d: %w", step.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx, sessionID, step.Seq, string(payload),
			string(step.Outcome.Reason), step.ChainsHash); err != nil {
			return fmt.Errorf("record steps: seq %d: %w", step.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record steps: commit: %w", err)
	}
	return nil
}

// RecordCompile appends a compiled query string. afterSeq is the seq of the
// last action applied before compiling.
func (j *Journal) RecordCompile(ctx context.Context, sessionID string, afterSeq int64, query string) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO compiles (session_id, after_seq, query)
		VALUES (?, ?, ?)
	`, sessionID, afterSeq, query)
	if err != nil {
		return fmt.Errorf("record compile: %w", err)
	}
	return nil
}

// RecordBuilder stores a builder's session record, its full history and
// its current compiled query.
func (j *Journal) RecordBuilder(ctx context.Context, b *session.Builder, collection string, maxLinks int) error {
	if err := j.CreateSession(ctx, SessionInfo{ID: b.ID(), Collection: collection, MaxLinks: maxLinks}); err != nil {
		return err
	}
	if err := j.RecordSteps(ctx, b.ID(), b.History()); err != nil {
		return err
	}
	return j.RecordCompile(ctx, b.ID(), b.Seq(), b.Compile())
}
