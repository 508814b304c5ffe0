package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptfile/promptfile/definition"
	"github.com/promptfile/promptfile/internal/config"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List available prompt definitions",
	RunE:  runPrompts,
}

func init() {
	rootCmd.AddCommand(promptsCmd)
}

func runPrompts(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	loader, err := definition.NewLoader(cfg.PromptDir)
	if err != nil {
		return fmt.Errorf("open prompt directory: %w", err)
	}
	names, err := loader.Names()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
