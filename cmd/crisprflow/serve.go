package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bioseqlab/crisprflow"
	"github.com/bioseqlab/crisprflow/config"
	"github.com/bioseqlab/crisprflow/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Starts the crisprflow engine in server mode, exposing sessions as a JSON API over HTTP.`,
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

		registry := prometheus.NewRegistry()
		handler := server.NewHandler(app.Runner(), app.SessionStore(), func(o *server.Options) {
			o.Logger = logger
			o.Registry = registry
		})

		srv := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting server", "addr", srv.Addr, "store", cfg.Store.Backend, "audit", cfg.Audit.Backend, "model", cfg.Model.Provider)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("closing server: %w", err)
				}
			}
			logger.Info("server stopped")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
