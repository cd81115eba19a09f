// Package sources implements the sources command, which lists or shows
// registry entries.
package sources

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/permitmap/cmd/application"
	"github.com/agentstation/permitmap/internal/cmd/output"
	"github.com/agentstation/permitmap/pkg/errors"
)

// NewCommand creates the sources command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "sources [city]",
		Aliases: []string{"cities"},
		GroupID: "management",
		Short:   "List registered sources or show one",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			reg := client.Registry()
			format := output.DetectFormat(app.OutputFormat())

			if len(args) == 0 {
				return output.Sources(app.Stdout(), format, reg.Entries())
			}

			entry, ok := reg.Get(args[0])
			if !ok {
				return errors.NewNotFoundError("source", args[0])
			}
			return output.Source(app.Stdout(), format, entry)
		},
	}
}
