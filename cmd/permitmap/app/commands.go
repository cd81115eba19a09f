package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/permitmap/cmd/permitmap/cmd/answer"
	"github.com/agentstation/permitmap/cmd/permitmap/cmd/fetch"
	"github.com/agentstation/permitmap/cmd/permitmap/cmd/serve"
	"github.com/agentstation/permitmap/cmd/permitmap/cmd/sources"
)

// registerCommands wires every subcommand to the app.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(fetch.NewCommand(a))
	rootCmd.AddCommand(answer.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a))

	rootCmd.AddCommand(sources.NewCommand(a))

	rootCmd.AddCommand(a.newVersionCommand())
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("permitmap %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
