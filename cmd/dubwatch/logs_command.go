package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubwatch/internal/ipc"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LogsTail(ipc.LogsTailRequest{Offset: -1, Limit: lines})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, line := range resp.Lines {
					fmt.Fprintln(out, line)
				}
				if !follow {
					return nil
				}

				offset := resp.Offset
				for {
					next, err := client.LogsTail(ipc.LogsTailRequest{
						Offset:      offset,
						Follow:      true,
						WaitSeconds: 5,
					})
					if err != nil {
						return err
					}
					for _, line := range next.Lines {
						fmt.Fprintln(out, line)
					}
					offset = next.Offset

					select {
					case <-cmd.Context().Done():
						return nil
					default:
					}
				}
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new lines")
	return cmd
}
