package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bioseqlab/crisprflow/config"
	"github.com/bioseqlab/crisprflow/protocol"
)

var protocolCmd = &cobra.Command{
	Use:   "protocol <session-id>",
	Short: "Render the protocol document for a persisted session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		store, err := buildStore(cfg)
		if err != nil {
			return err
		}

		state, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load session %s: %w", args[0], err)
		}

		fmt.Fprint(cmd.OutOrStdout(), protocol.Generate(state))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(protocolCmd)
}
