package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "behaviors-demo",
	Short: "Runs a clock host driven by reusable behaviors",
	Long: `behaviors-demo mounts a clock host whose timers, change tracking,
render timing and lifecycle logging are all provided by behaviors.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("dir", ".", "Directory searched for behaviors.yaml")
}
