package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/harness"
)

// DescribeResult is the JSON payload of the describe command.
type DescribeResult struct {
	Session   string   `json:"session"`
	Sentences []string `json:"sentences"`
	Query     string   `json:"query"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <scenario>",
		Short: "Print the chains of a scenario as sentences",
		Long: `Apply the steps of a scenario file and print one sentence per link of
the resulting filter and sort chains.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], cmd)
		},
	}
}

func runDescribe(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	scenario, loadErr := loadScenario(path)
	if loadErr != nil {
		return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}

	result, err := harness.Run(context.Background(), scenario,
		harness.WithDefaults(cfg.Builder.MaxLinks, cfg.Builder.DefaultLimit),
		harness.WithLogger(opts.logger()),
	)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	data := DescribeResult{
		Session:   result.SessionID,
		Sentences: result.Sentences,
		Query:     result.Query,
	}
	return formatter.Result(true, data, nil, func(w io.Writer) {
		if len(result.Sentences) == 0 {
			fmt.Fprintln(w, "No filters or sorts.")
			return
		}
		for _, s := range result.Sentences {
			fmt.Fprintln(w, s)
		}
	})
}
