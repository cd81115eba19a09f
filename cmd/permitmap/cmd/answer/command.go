// Package answer implements the answer command, which prints the
// single-answer envelope with confidence, provenance and notes.
package answer

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/permitmap/cmd/application"
	"github.com/agentstation/permitmap/internal/cmd/output"
	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/errors"
)

// NewCommand creates the answer command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		cities  []string
		timeout time.Duration
		strict  bool
	)

	cmd := &cobra.Command{
		Use:     "answer [query...]",
		GroupID: "core",
		Short:   "Answer a permit query with confidence and provenance",
		Example: `  permitmap answer roof --city seattle
  permitmap answer roof --strict && echo "at least one source answered"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			ans := client.Answer(ctx, strings.Join(args, " "), cities...)
			if err := output.Answer(app.Stdout(), output.DetectFormat(app.OutputFormat()), ans); err != nil {
				return err
			}
			if strict && !ans.OK {
				return errors.ErrNoData
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&cities, "city", "c", nil, "registry keys to query (default all)")
	cmd.Flags().DurationVar(&timeout, "deadline", constants.CommandTimeout, "overall command deadline")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when no source responded")

	return cmd
}
