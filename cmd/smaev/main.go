// Smaev is a command line client for SMA EV Chargers.
//
// It talks to a charger's local HTTP API: discovering chargers on the
// network, reading live measurements and parameters, changing settings such
// as the charge mode, and watching measurements on a live dashboard.
//
// Usage:
//
//	smaev [command] [flags]
//
// See 'smaev --help' for available commands. Set SMAEV_LOG_LEVEL to enable
// diagnostic logging.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/smaev/internal/logging"
	"github.com/muurk/smaev/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "smaev",
	Short: "SMA EV Charger command line client",
	Long: `A command line client for SMA EV Chargers.

Connects to a charger's local HTTP API to read live measurements and
parameters, change settings such as the charge mode, and watch
measurements on a live dashboard. Chargers on the local network can be
found with 'smaev scan' and remembered for later use.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("smaev %s\n", version.Full())
	},
}
