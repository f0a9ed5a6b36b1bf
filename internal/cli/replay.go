package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/chain"
	"github.com/roach88/querychain/internal/engine"
	"github.com/roach88/querychain/internal/journal"
	"github.com/roach88/querychain/internal/template"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	Session   string // optional - specific session only
	Templates string // templates for sessions recorded against a collection
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string             `json:"session"`
	Collection    string             `json:"collection,omitempty"`
	Steps         int                `json:"steps"`
	ChainsHash    string             `json:"chains_hash"`
	Deterministic bool               `json:"deterministic"`
	Mismatches    []journal.Mismatch `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled sessions and verify determinism",
		Long: `Replay the actions recorded in a journal against empty chains and check
that every step reproduces its recorded reason and chains hash.

Exit codes:
  0 - All sessions are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (journal not found, etc.)

Examples:
  querychain replay --db ./querychain.db
  querychain replay --db ./querychain.db --session 0190c5d2-...
  querychain replay --db ./querychain.db --templates ./templates --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the journal database (default: journal.path from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")
	cmd.Flags().StringVar(&opts.Templates, "templates", "", "templates path (default: templates.path from config)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Journal.Path
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "journal path required: pass --db or set journal.path")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("journal not found: %s", dbPath), nil)
	}

	j, err := journal.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	var sessions []string
	if opts.Session != "" {
		sessions = []string{opts.Session}
	} else {
		sessions, err = j.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
	}

	if len(sessions) == 0 {
		return formatter.Result(true, ReplayResult{Sessions: []ReplaySessionResult{}, AllDeterministic: true}, nil, func(w io.Writer) {
			fmt.Fprintln(w, "No sessions found in journal.")
		})
	}

	templatesPath := opts.Templates
	if templatesPath == "" {
		templatesPath = cfg.Templates.Path
	}
	r := &replayer{journal: j, templatesPath: templatesPath, log: opts.logger()}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}
	for _, id := range sessions {
		sessionResult, err := r.replay(ctx, id)
		if err != nil {
			if errors.Is(err, journal.ErrSessionNotFound) {
				return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("session not found: %s", id), nil)
			}
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
			}
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", id), err)
		}
		result.Sessions = append(result.Sessions, sessionResult)
		if !sessionResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	var cliErr *CLIError
	if !result.AllDeterministic {
		cliErr = &CLIError{Code: ErrCodeDeterminism, Message: "determinism verification failed"}
	}
	if err := formatter.Result(result.AllDeterministic, result, cliErr, func(w io.Writer) {
		writeReplay(w, result, opts.Verbose)
	}); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// replayer replays sessions, loading templates on first use.
type replayer struct {
	journal       *journal.Journal
	templatesPath string
	registry      *template.Registry
	log           logrus.FieldLogger
}

func (r *replayer) replay(ctx context.Context, id string) (ReplaySessionResult, error) {
	info, err := r.journal.ReadSession(ctx, id)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	opts := []engine.Option{engine.WithLogger(r.log)}
	if info.Collection != "" {
		if r.registry == nil {
			reg, err := LoadTemplates(r.templatesPath)
			if err != nil {
				return ReplaySessionResult{}, err
			}
			r.registry = reg
		}
		if r.registry.Templates(info.Collection) == nil {
			return ReplaySessionResult{}, &LoadError{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("collection %q of session %s not found in %s", info.Collection, id, r.templatesPath),
			}
		}
		opts = append(opts, engine.WithRegistry(r.registry, info.Collection))
	}

	replayed, err := r.journal.Replay(ctx, id, opts...)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	r.log.WithFields(logrus.Fields{
		"session":       id,
		"steps":         replayed.Steps,
		"deterministic": replayed.Deterministic(),
	}).Debug("session replayed")

	hash, err := chain.Hash(replayed.Chains)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	return ReplaySessionResult{
		Session:       id,
		Collection:    info.Collection,
		Steps:         replayed.Steps,
		ChainsHash:    hash,
		Deterministic: replayed.Deterministic(),
		Mismatches:    replayed.Mismatches,
	}, nil
}

func writeReplay(w io.Writer, result ReplayResult, verbose bool) {
	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s (%d steps)\n", status, s.Session, s.Steps)
		if verbose {
			fmt.Fprintf(w, "  chains: %s\n", s.ChainsHash)
		}
		for _, m := range s.Mismatches {
			fmt.Fprintf(w, "  seq %d %s: recorded %s, replayed %s\n", m.Seq, m.What, m.Recorded, m.Replayed)
		}
	}

	fmt.Fprintln(w)
	if result.AllDeterministic {
		fmt.Fprintln(w, "All sessions deterministic")
	} else {
		fmt.Fprintln(w, "Determinism verification FAILED")
	}
}
