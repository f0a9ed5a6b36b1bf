package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool              `json:"valid"`
	Collections []string          `json:"collections,omitempty"`
	Errors      []ValidationError `json:"errors,omitempty"`
}

// ValidationError is one template problem.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <templates>",
		Short: "Validate field templates",
		Long: `Validate field templates from a directory of CUE files or a YAML file.

Checks that every field has a name and a known kind, that listed operators
exist and that options are only given to select fields.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	reg, err := LoadTemplates(path)
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		switch loadErr.Code {
		case ErrCodeNotFound, ErrCodeScanError, ErrCodeNoFiles:
			return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidationErrors(formatter, []ValidationError{{
			Code:    loadErr.Code,
			Message: loadErr.Message,
			Line:    loadErr.Line(),
		}})
	}

	collections := reg.Collections()
	formatter.VerboseLog("Loaded %d collection(s) from %s", len(collections), path)

	return formatter.Result(true, ValidationResult{Valid: true, Collections: collections}, nil, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Templates valid (%d collection(s))\n", len(collections))
	})
}

// outputValidationErrors outputs template problems. Invalid templates are a
// validation failure (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	err := formatter.Result(false, ValidationResult{Valid: false, Errors: errs}, &CLIError{
		Code:    errs[0].Code,
		Message: errs[0].Message,
	}, func(w io.Writer) {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, e := range errs {
			if e.Line > 0 {
				fmt.Fprintf(w, "line %d\n", e.Line)
			}
			fmt.Fprintf(w, "  %s: %s\n\n", e.Code, e.Message)
		}
	})
	if err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s): %s", len(errs), errs[0].Code))
}
