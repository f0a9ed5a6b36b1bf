package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/harness"
	"github.com/roach88/querychain/internal/journal"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Journal string // journal database path
}

// CompileResult is the JSON payload of the compile command.
type CompileResult struct {
	Session string   `json:"session"`
	Query   string   `json:"query"`
	Pass    bool     `json:"pass"`
	Errors  []string `json:"errors,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <scenario>",
		Short: "Apply a scenario's steps and print the compiled query string",
		Long: `Apply the steps of a scenario file to a fresh session and print the
query string compiled from the final state.

With --journal the session, every applied action and every compiled query
are recorded in a SQLite journal that "querychain replay" can verify.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Journal, "journal", "j", "", "record the session in this journal database")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	scenario, loadErr := loadScenario(path)
	if loadErr != nil {
		return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}

	runOpts := []harness.RunOption{
		harness.WithDefaults(cfg.Builder.MaxLinks, cfg.Builder.DefaultLimit),
		harness.WithLogger(opts.logger()),
	}

	journalPath := opts.Journal
	if journalPath == "" {
		journalPath = cfg.Journal.Path
	}
	if journalPath != "" {
		j, err := journal.Open(journalPath)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("failed to open journal: %v", err), nil)
		}
		defer j.Close()
		runOpts = append(runOpts, harness.WithJournal(j))
		formatter.VerboseLog("Recording session in %s", journalPath)
	}

	result, err := harness.Run(ctx, scenario, runOpts...)
	if errors.Is(err, journal.ErrSessionExists) {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	data := CompileResult{
		Session: result.SessionID,
		Query:   result.Query,
		Pass:    result.Pass,
		Errors:  result.Errors,
	}
	var cliErr *CLIError
	if !result.Pass {
		cliErr = &CLIError{Code: ErrCodeGeneric, Message: result.Errors[0]}
	}
	if err := formatter.Result(result.Pass, data, cliErr, func(w io.Writer) {
		fmt.Fprintln(w, result.Query)
		writeFailures(w, result.Errors)
	}); err != nil {
		return err
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d error(s)", scenario.Name, len(result.Errors)))
	}
	return nil
}

// loadScenario loads a scenario file, mapping failures to error codes.
func loadScenario(path string) (*harness.Scenario, *LoadError) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenario not found: %s", path)}
	}
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return scenario, nil
}

func writeFailures(w io.Writer, errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintln(w, "✗ Scenario failed")
	for _, e := range errs {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
