// Package fetch implements the fetch command: one aggregate query across
// the selected sources.
package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/permitmap/cmd/application"
	"github.com/agentstation/permitmap/internal/cmd/output"
	"github.com/agentstation/permitmap/pkg/constants"
)

// NewCommand creates the fetch command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		cities  []string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:     "fetch [query...]",
		Aliases: []string{"search"},
		GroupID: "core",
		Short:   "Query every selected source and merge the permits",
		Long: `Fetch runs one query against every selected source concurrently,
normalizes the records and prints the merged result with per-source
outcomes and a confidence score.

Sources that fail or time out are reported, never fatal.`,
		Example: `  # All sources
  permitmap fetch roof

  # Two cities, JSON output
  permitmap fetch "solar panel" --city seattle,chicago -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res := client.Aggregate(ctx, strings.Join(args, " "), cities...)
			return output.Aggregate(app.Stdout(), output.DetectFormat(app.OutputFormat()), res)
		},
	}

	cmd.Flags().StringSliceVarP(&cities, "city", "c", nil, "registry keys to query (default all)")
	cmd.Flags().DurationVar(&timeout, "deadline", constants.CommandTimeout, "overall command deadline")

	return cmd
}
