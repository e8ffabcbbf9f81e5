package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dubwatch/internal/ipc"
	"dubwatch/internal/language"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var channelID string
	var languages []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "create <video-id>",
		Short: "Create a localization job",
		Long:  "Submit a new localization job for a source video. The daemon begins watching the job immediately.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(languages) == 0 {
				return fmt.Errorf("at least one --lang is required")
			}
			normalized, err := language.NormalizeList(languages)
			if err != nil {
				return err
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobCreate(ipc.JobCreateRequest{
					SourceVideoID:   strings.TrimSpace(args[0]),
					SourceChannelID: strings.TrimSpace(channelID),
					TargetLanguages: normalized,
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				j := resp.Job
				fmt.Fprintf(cmd.OutOrStdout(), "Created job %s (%s) for %s\n",
					j.ID, j.Status, strings.Join(languageNames(j.TargetLanguages), ", "))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channelID, "channel", "", "Source channel identifier")
	cmd.Flags().StringSliceVarP(&languages, "lang", "l", nil, "Target language code (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the created job as JSON")
	return cmd
}
