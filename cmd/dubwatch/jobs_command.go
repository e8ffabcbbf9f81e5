package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dubwatch/internal/ipc"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	var activeOnly bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List localization jobs",
		Long:  "List job snapshots for the configured scope, optionally filtered by status or restricted to the live active set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobsList(statusFilters, activeOnly)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs found.")
					return nil
				}
				renderJobsTable(cmd, resp.Jobs)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by job status (repeatable)")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "List only the live active set")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output jobs as JSON")
	return cmd
}

func renderJobsTable(cmd *cobra.Command, jobs []ipc.JobSummary) {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			j.ID,
			j.Status,
			strconv.Itoa(j.Progress) + "%",
			strings.Join(j.TargetLanguages, ","),
			j.SourceVideoID,
			formatAge(j.CreatedAt),
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(out,
		[]string{"JOB", "STATUS", "PROGRESS", "LANGUAGES", "VIDEO", "AGE"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
	))
}

func formatAge(created time.Time) string {
	if created.IsZero() {
		return "-"
	}
	age := time.Since(created)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}
