// Package cmd implements the nbview command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "nbview",
	Short: "Terminal notebook viewer",
	Long: `nbview displays notebook documents in the terminal.

Documents open as tabs in editor groups; each pane borrows a render widget
from a shared pool, and scroll/selection state survives switching between
documents and application restarts.

Examples:
  nbview open analysis.ipynb            # open a notebook
  nbview open a.ipynb b.ipynb           # open several as tabs
  nbview open sftp://host/nb.ipynb      # open a remote notebook
  nbview state list                     # inspect saved view state`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config file (default: auto-detected)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
