package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/socialnet/internal/client/client"
)

func clientsCmd() *cobra.Command {
	var operator string

	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List clients connected to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			gc, err := client.NewGRPCClient(cfg.DiagnosticsAddr, operator, []byte(cfg.SecretKey))
			if err != nil {
				return err
			}
			defer gc.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ReadTimeout)
			defer cancel()

			entries, err := gc.ListClients(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clients connected.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tADDRESS\tPORT\tCONNECTED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.ID, e.Address, e.Port, e.ConnectedAt)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "operator", "operator name placed in the token")
	return cmd
}
