package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptfile/promptfile/engine"
	"github.com/promptfile/promptfile/internal/app"
	"github.com/promptfile/promptfile/internal/config"
)

var (
	runThreadID string
	runFileIDs  []string
)

var runCmd = &cobra.Command{
	Use:   "run <prompt> <content...>",
	Short: "Run one prompt and print the response",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runThreadID, "thread", "", "thread id to continue a prior conversation")
	runCmd.Flags().StringSliceVar(&runFileIDs, "file", nil, "uploaded file id to attach (repeatable)")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(logOutput, cfg)

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("new app: %w", err)
	}

	result, err := application.Engine().Run(cmd.Context(), engine.RunInput{
		PromptName: args[0],
		Content:    strings.Join(args[1:], " "),
		ThreadID:   runThreadID,
		FileIDs:    runFileIDs,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Text)
	fmt.Fprintf(cmd.ErrOrStderr(), "thread: %s\n", result.ThreadID)
	for _, attachment := range result.Attachments {
		fmt.Fprintf(cmd.ErrOrStderr(), "attachment: %s (%s)\n", attachment.Filename, attachment.FileID)
	}
	return nil
}
