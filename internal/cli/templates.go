package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/template"
)

// CollectionSummary is one collection in the templates listing.
type CollectionSummary struct {
	Name   string `json:"name"`
	Fields int    `json:"fields"`
}

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates <templates> [collection]",
		Short: "List template collections or the fields of one collection",
		Long: `Without a collection, list every collection in the templates with its
field count. With a collection, list its fields with their kind, allowed
operators and options.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := ""
			if len(args) == 2 {
				collection = args[1]
			}
			return runTemplates(rootOpts, args[0], collection, cmd)
		},
	}
}

func runTemplates(opts *RootOptions, path, collection string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	reg, err := LoadTemplates(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if collection == "" {
		summaries := make([]CollectionSummary, 0, len(reg.Collections()))
		for _, name := range reg.Collections() {
			summaries = append(summaries, CollectionSummary{Name: name, Fields: len(reg.Templates(name))})
		}
		return formatter.Result(true, summaries, nil, func(w io.Writer) {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "COLLECTION\tFIELDS")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%d\n", s.Name, s.Fields)
			}
			tw.Flush()
		})
	}

	fields := reg.Templates(collection)
	if fields == nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("collection %q not found (have %s)", collection, strings.Join(reg.Collections(), ", ")), nil)
	}

	return formatter.Result(true, fields, nil, func(w io.Writer) {
		writeFields(w, fields)
	})
}

func writeFields(w io.Writer, fields []template.FieldTemplate) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tKIND\tOPERATORS\tOPTIONS")
	for _, f := range fields {
		ops := make([]string, len(f.Operators))
		for i, op := range f.Operators {
			ops[i] = string(op)
		}
		options := "-"
		if len(f.Options) > 0 {
			options = strings.Join(f.Options, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.Kind, strings.Join(ops, ", "), options)
	}
	tw.Flush()
}
