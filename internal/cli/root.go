// Package cli implements the focusera command-line interface using Cobra.
// Commands other than serve run the focus service in-process against the
// configured store.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var userFlag string

var rootCmd = &cobra.Command{
	Use:   "focusera",
	Short: "focusera: grow a world with your focus time",
	Long: `focusera turns completed focus sessions into progress through
themed eras: Ancient Egypt, the Renaissance and the Future.

Run 'focusera serve' for the HTTP API, or use the commands below to
record sessions and inspect progress from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "",
		"User id to act as (default $FOCUSERA_USER, then \"local\")")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
