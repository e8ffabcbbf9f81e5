package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dubwatch/internal/ipc"
	"dubwatch/internal/language"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Long:  "Show a job's status, aggregated pipeline stages, and the per-language localization matrix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobDescribe(args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				renderJobDetail(cmd, resp)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the detail view as JSON")
	return cmd
}

func renderJobDetail(cmd *cobra.Command, resp *ipc.JobDescribeResponse) {
	out := cmd.OutOrStdout()
	j := resp.Job

	fmt.Fprintf(out, "Job:       %s\n", j.ID)
	fmt.Fprintf(out, "Status:    %s (%d%%)\n", j.Status, j.Progress)
	fmt.Fprintf(out, "Video:     %s\n", j.SourceVideoID)
	if j.SourceChannelID != "" {
		fmt.Fprintf(out, "Channel:   %s\n", j.SourceChannelID)
	}
	fmt.Fprintf(out, "Languages: %s\n", strings.Join(languageNames(j.TargetLanguages), ", "))
	fmt.Fprintf(out, "Matrix:    %s\n", resp.MatrixLabel)
	if resp.RequiresReview {
		fmt.Fprintln(out, "Review:    awaiting approval")
	}
	if j.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", j.ErrorMessage)
	}
	if resp.Stale {
		fmt.Fprintln(out, "Note:      engine unreachable, showing the last persisted snapshot")
	}

	if len(resp.Stages) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(resp.Stages))
		for _, stage := range resp.Stages {
			rows = append(rows, []string{stage.Group, stage.Status})
		}
		fmt.Fprintln(out, renderTable(out,
			[]string{"STAGE", "STATUS"},
			rows,
			[]columnAlignment{alignLeft, alignLeft},
		))
	}

	if len(resp.Localizations) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(resp.Localizations))
		for _, loc := range resp.Localizations {
			confidence := "-"
			if loc.HasConfidence {
				confidence = strconv.Itoa(loc.Confidence) + "%"
			}
			views := "-"
			if loc.Status == "live" {
				views = strconv.FormatInt(loc.Views, 10)
			}
			rows = append(rows, []string{
				language.DisplayName(loc.Language),
				loc.Status,
				confidence,
				views,
				loc.URL,
			})
		}
		fmt.Fprintln(out, renderTable(out,
			[]string{"LANGUAGE", "STATUS", "CONFIDENCE", "VIEWS", "URL"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}
}

func languageNames(codes []string) []string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, language.DisplayName(code))
	}
	return names
}
