package commands

import (
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/socialnet/internal/client/cli"
)

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	ctx := cmd.Context()
	app, err := cli.NewApp(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
