package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubwatch/internal/ipc"
	"dubwatch/internal/language"
)

func newSelectCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <video-id> <language>",
		Short: "Toggle a localization in the publish staging area",
		Long:  "Toggle one (video, language) localization in the staging area. Selecting the same pair again removes it.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := language.Normalize(args[1])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SelectionToggle(args[0], code)
				if err != nil {
					return err
				}
				verb := "removed from"
				if resp.Staged {
					verb = "added to"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s selection (%d staged)\n",
					args[0], language.DisplayName(code), verb, resp.Count)
				return nil
			})
		},
	}
	return cmd
}

func newSelectionCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selection",
		Short: "Inspect or clear the publish staging area",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSelectionListCommand(ctx))
	cmd.AddCommand(newSelectionClearCommand(ctx))
	return cmd
}

func newSelectionListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List staged localizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SelectionList()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				if len(resp.Keys) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing staged.")
					return nil
				}
				rows := make([][]string, 0, len(resp.Keys))
				for _, key := range resp.Keys {
					rows = append(rows, []string{key.VideoID, language.DisplayName(key.Language)})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"VIDEO", "LANGUAGE"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the selection as JSON")
	return cmd
}

func newSelectionClearCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all staged localizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.SelectionClear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Selection cleared.")
				return nil
			})
		},
	}
	return cmd
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Bulk-approve the staged localizations",
		Long:  "Approve every job backing the staged localizations. The batch is taken atomically, so selections made while the publish runs land in the next batch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PublishSelection()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				out := cmd.OutOrStdout()
				if resp.Batch == 0 {
					fmt.Fprintln(out, "Nothing staged to publish.")
					return nil
				}
				fmt.Fprintf(out, "Published %d of %d staged localizations (%d failed)\n",
					resp.Published, resp.Batch, resp.Failed)
				for _, message := range resp.Errors {
					fmt.Fprintf(out, "  - %s\n", message)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the publish result as JSON")
	return cmd
}
