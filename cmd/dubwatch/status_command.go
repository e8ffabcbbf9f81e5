package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dubwatch/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), status)
				}
				renderStatus(cmd, status)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	return cmd
}

func renderStatus(cmd *cobra.Command, status *ipc.StatusResponse) {
	out := cmd.OutOrStdout()

	if status.Running {
		fmt.Fprintf(out, "Daemon:      running (pid %d)\n", status.PID)
	} else {
		fmt.Fprintln(out, "Daemon:      stopped")
	}
	fmt.Fprintf(out, "Scope:       %s\n", status.Scope)
	fmt.Fprintf(out, "Active jobs: %d (%d subscribed)\n", status.ActiveJobs, status.Subscribed)
	fmt.Fprintf(out, "Database:    %s (healthy: %s)\n", status.DBPath, yesNo(status.StoreOK))
	if !status.LastRefresh.IsZero() {
		fmt.Fprintf(out, "Refreshed:   %s ago\n", time.Since(status.LastRefresh).Round(time.Second))
	}
	if status.LastError != "" {
		fmt.Fprintf(out, "Last error:  %s\n", status.LastError)
	}

	if len(status.StatusCounts) > 0 {
		parts := make([]string, 0, len(status.StatusCounts))
		for name, count := range status.StatusCounts {
			parts = append(parts, fmt.Sprintf("%s=%d", name, count))
		}
		sort.Strings(parts)
		fmt.Fprintf(out, "Statuses:    %s\n", strings.Join(parts, " "))
	}
}
