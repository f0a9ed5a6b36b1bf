package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern)
	Golden string // golden trace directory
	Update bool   // regenerate golden files
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-path>...",
		Short: "Run scenario files and check their expectations",
		Long: `Run scenario files and check their step expectations and assertions.

Each path is a scenario file or a directory of *.yaml scenarios. With
--golden every trace is also compared with {dir}/{scenario}.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  querychain test ./scenarios
  querychain test ./scenarios --filter "dedup*"
  querychain test ./scenarios --golden ./golden --update
  querychain test ./scenarios --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "compare traces with golden files in this directory")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	if opts.Update && opts.Golden == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	files, err := harness.ExpandPaths(paths)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}
	files, err = filterScenarioFiles(files, opts.Filter)
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}

	if len(files) == 0 {
		return formatter.Result(true, harness.SuiteResult{Scenarios: []harness.ScenarioOutcome{}}, nil, func(w io.Writer) {
			fmt.Fprintln(w, "No scenarios found.")
		})
	}

	runOpts := []harness.RunOption{
		harness.WithDefaults(cfg.Builder.MaxLinks, cfg.Builder.DefaultLimit),
		harness.WithLogger(opts.logger()),
	}
	if opts.Golden != "" {
		runOpts = append(runOpts, harness.WithGolden(opts.Golden, opts.Update))
	}

	result, err := harness.RunSuite(cmd.Context(), files, runOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	var cliErr *CLIError
	if !result.OK() {
		cliErr = &CLIError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%d scenario(s) failed", result.Failed)}
	}
	if err := formatter.Result(result.OK(), result, cliErr, func(w io.Writer) {
		writeSuite(w, result, opts.Update)
	}); err != nil {
		return err
	}

	if !result.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total))
	}
	return nil
}

// filterScenarioFiles keeps files whose base name, without extension,
// matches the glob pattern.
func filterScenarioFiles(files []string, pattern string) ([]string, error) {
	if pattern == "" {
		return files, nil
	}
	var out []string
	for _, f := range files {
		base := filepath.Base(f)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, f)
		}
	}
	return out, nil
}

func writeSuite(w io.Writer, result *harness.SuiteResult, updated bool) {
	for _, s := range result.Scenarios {
		if s.Pass {
			if updated {
				fmt.Fprintf(w, "✓ %s (golden updated)\n", s.Name)
			} else {
				fmt.Fprintf(w, "✓ %s\n", s.Name)
			}
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
