// Command feedwatch is a reference platform renderer for
// internal/scrollwindow: a terminal chat-feed viewer that exercises the
// Manager's full Live/Backward/Forward cycle against a SQLite-backed
// engine, using key presses to stand in for scroll events.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "feedwatch",
	Short: "Reference scrollwindow-backed chat feed viewer",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
