// Package cmd implements the askgate command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "askgate",
	Short: "Question answering gateway for browser clients",
	Long: `askgate answers questions from browser clients by forwarding them to
Gemini, OpenRouter, or Groq, and returns a cleaned plain-text answer.

It also stores client telemetry and verifies license keys against Square
or Stripe.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $ASKGATE_CONFIG, ./config.yaml, /etc/askgate/config.yaml)")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
