package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatctl",
	Short: "CampusLink chat CLI",
	Long: `chatctl is a command-line client for the CampusLink chat endpoint.

Available commands:
  connect    Join a chat room and exchange messages from the terminal

Use "chatctl [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
