package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "plazactl",
	Short: "Plaza administration tool",
	Long: `plazactl is a command-line interface for operating a Plaza deployment.

Available commands:
  serve          Run the chat and catalog server
  create-admin   Create an administrator account
  version        Print the version number

Use "plazactl [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
