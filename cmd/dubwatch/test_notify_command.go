package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubwatch/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test push notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				if resp.Sent {
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent.")
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Not sent: %s\n", resp.Message)
				}
				return nil
			})
		},
	}
	return cmd
}
