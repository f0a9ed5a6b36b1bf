package journal

import (
	"context"
	"fmt"

	"github.com/roach88/querychain/internal/chain"
	"github.com/roach88/querychain/internal/engine"
)

// Mismatch is a replayed step that disagrees with the journal.
type Mismatch struct {
	Seq      int64  `json:"seq"`
	What     string `json:"what"` // "reason" or "chains_hash"
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// ReplayResult is the outcome of replaying one session.
type ReplayResult struct {
	SessionID  string
	Steps      int
	Chains     chain.Chains
	Mismatches []Mismatch
}

// Deterministic reports whether every step reproduced its recorded outcome
// and chains hash.
func (r ReplayResult) Deterministic() bool {
	return len(r.Mismatches) == 0
}

// Replay re-applies the recorded actions of a session to empty chains with
// an engine built from the session's max links and opts. Pass
// engine.WithRegistry when the session was recorded with templates.
func (j *Journal) Replay(ctx context.Context, sessionID string, opts ...engine.Option) (ReplayResult, error) {
	result := ReplayResult{SessionID: sessionID}

	info, err := j.ReadSession(ctx, sessionID)
	if err != nil {
		return result, fmt.Errorf("replay: %w", err)
	}
	entries, err := j.ReadEntries(ctx, sessionID)
	if err != nil {
		return result, fmt.Errorf("replay: %w", err)
	}

	e := engine.New(append([]engine.Option{engine.WithMaxLinks(info.MaxLinks)}, opts...)...)

	c := chain.New()
	for _, entry := range entries {
		var out engine.Outcome
		c, out = e.Try(c, entry.Action)

		if out.Reason != entry.Reason {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Seq:      entry.Seq,
				What:     "reason",
				Recorded: string(entry.Reason),
				Replayed: string(out.Reason),
			})
		}
		hash, err := chain.Hash(c)
		if err != nil {
			return result, fmt.Errorf("replay: seq %d: %w", entry.Seq, err)
		}
		if hash != entry.ChainsHash {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Seq:      entry.Seq,
				What:     "chains_hash",
				Recorded: entry.ChainsHash,
				Replayed: hash,
			})
		}
		result.Steps++
	}

	result.Chains = c
	return result, nil
}
