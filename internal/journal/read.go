package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/querychain/internal/engine"
)

// ErrSessionNotFound is returned when a session id has no record.
var ErrSessionNotFound = errors.New("session not found")

// Entry is one recorded action.
type Entry struct {
	Seq        int64
	Action     engine.Action
	Reason     engine.Reason
	ChainsHash string
}

// CompileRecord is one recorded query string.
type CompileRecord struct {
	AfterSeq int64
	Query    string
}

// ReadSession returns the session record for id.
func (j *Journal) ReadSession(ctx context.Context, id string) (SessionInfo, error) {
	var info SessionInfo
	err := j.db.QueryRowContext(ctx, `
		SELECT id, collection, max_links
		FROM sessions
		WHERE id = ?
	`, id).Scan(&info.ID, &info.Collection, &info.MaxLinks)
	if errors.Is(err, sql.ErrNoRows) {
		return info, fmt.Errorf("read session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return info, fmt.Errorf("read session %s: %w", id, err)
	}
	return info, nil
}

// ListSessions returns all session ids in id order. UUIDv7 ids sort by
// creation time.
func (j *Journal) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id FROM sessions ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

// ReadEntries returns the recorded actions of a session ordered by seq.
// Returns an empty slice (not nil) when none exist.
func (j *Journal) ReadEntries(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, payload, reason, chains_hash
		FROM actions
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			payload string
			reason  string
		)
		if err := rows.Scan(&e.Seq, &payload, &reason, &e.ChainsHash); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		e.Action, err = engine.DecodeAction([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("action seq %d: %w", e.Seq, err)
		}
		e.Reason = engine.Reason(reason)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return entries, nil
}

// ReadCompiles returns the recorded query strings of a session in the order
// they were compiled.
func (j *Journal) ReadCompiles(ctx context.Context, sessionID string) ([]CompileRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT after_seq, query
		FROM compiles
		WHERE session_id = ?
		ORDER BY after_seq ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query compiles: %w", err)
	}
	defer rows.Close()

	out := []CompileRecord{}
	for rows.Next() {
		var c CompileRecord
		if err := rows.Scan(&c.AfterSeq, &c.Query); err != nil {
			return nil, fmt.Errorf("scan compile: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compiles: %w", err)
	}
	return out, nil
}
