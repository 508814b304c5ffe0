package main

import (
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "promptfile",
	Short: "Run AI agents declared as markdown prompt definitions",
	Long: `promptfile serves and runs prompt definitions: markdown documents that
declare an agent's instructions, model, tools, and prompt template. The
serve command exposes them over HTTP; run executes one prompt from the
command line.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (default: ./promptfile.yaml if present)")
}
