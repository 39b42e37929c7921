package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bioseqlab/crisprflow"
	"github.com/bioseqlab/crisprflow/config"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive design session in the terminal",
	Long: `Runs a single session as a terminal REPL. Type "exit" or press Ctrl-D
to quit; type "new" to discard the session and start over.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger := buildLogger(cfg, os.Stderr)

		store, err := buildStore(cfg)
		if err != nil {
			return err
		}
		sink, closeSink, err := buildSink(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeSink(); err != nil {
				logger.Error("closing audit sink", "error", err)
			}
		}()
		mdl, err := buildModel(cfg)
		if err != nil {
			return err
		}

		app := crisprflow.New(func(o *crisprflow.Options) {
			o.Model = mdl
			o.SessionStore = store
			o.AuditSink = sink
			o.Logger = logger
			o.DefaultWorkflow = cfg.DefaultWorkflow
		})

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = app.NewSessionID()
		}
		fmt.Printf("session %s (model: %s)\n\n", sessionID, cfg.Model.Provider)

		ctx := cmd.Context()

		// An empty first turn surfaces the opening prompt.
		printTurn(ctx, app, sessionID, "")

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "exit" || line == "quit" {
				return nil
			}
			printTurn(ctx, app, sessionID, line)
		}
	},
}

// printTurn runs one turn and prints its messages. A failed turn already
// carries a user-facing notice in its messages, so the session keeps going.
func printTurn(ctx context.Context, app *crisprflow.CrisprFlow, sessionID, input string) {
	result, err := app.HandleTurn(ctx, sessionID, input)
	for _, msg := range result.Messages {
		fmt.Println(msg)
		fmt.Println()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "turn failed: %v\n", err)
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "Resume an existing session id")
}
