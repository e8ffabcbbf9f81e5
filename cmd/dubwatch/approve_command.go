package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubwatch/internal/ipc"
	"dubwatch/internal/language"
)

func newApproveCommand(ctx *commandContext) *cobra.Command {
	var showPreviews bool

	cmd := &cobra.Command{
		Use:   "approve <job-id>",
		Short: "Approve a job awaiting review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if showPreviews {
					previews, err := client.Previews(args[0])
					if err != nil {
						return err
					}
					renderPreviews(cmd, previews.Previews)
				}

				resp, err := client.Approve(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s: %s\n", args[0], resp.Message)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showPreviews, "previews", false, "Show the per-language previews before approving")
	return cmd
}

func renderPreviews(cmd *cobra.Command, previews []ipc.Preview) {
	if len(previews) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No previews available.")
		return
	}
	rows := make([][]string, 0, len(previews))
	for _, p := range previews {
		rows = append(rows, []string{
			language.DisplayName(p.Language),
			p.Status,
			p.Title,
			p.VideoURL,
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(out,
		[]string{"LANGUAGE", "STATUS", "TITLE", "PREVIEW"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	))
}
