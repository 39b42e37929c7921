package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bioseqlab/crisprflow/config"
	"github.com/bioseqlab/crisprflow/core"
)

// sessionLister is satisfied by the memory, file and redis stores.
type sessionLister interface {
	ListSessions(ctx context.Context) ([]string, error)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List persisted sessions and their cursors",
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
		lister, ok := store.(sessionLister)
		if !ok {
			return fmt.Errorf("store backend %q does not support listing", cfg.Store.Backend)
		}

		ctx := cmd.Context()
		ids, err := lister.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tWORKFLOW\tSTEP\tAWAITING\tUPDATED")
		for _, id := range ids {
			state, err := store.Load(ctx, id)
			if err != nil {
				// The session may have expired between list and load.
				if errors.Is(err, core.ErrSessionNotFound) {
					continue
				}
				return fmt.Errorf("load session %s: %w", id, err)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%s\n",
				id, state.WorkflowID, state.StepIndex, state.AwaitingInput,
				state.Updated.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
