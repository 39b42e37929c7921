package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crisprflow",
	Short: "crisprflow is a guided CRISPR experiment-design assistant",
	Long: `crisprflow runs multi-step design workflows (knockout, base editing,
prime editing, activation/repression, off-target analysis, troubleshooting)
as resumable chat sessions, served over HTTP or an interactive terminal.`,
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
}
