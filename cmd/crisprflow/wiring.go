package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/bioseqlab/crisprflow/audit"
	"github.com/bioseqlab/crisprflow/config"
	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/logging"
	"github.com/bioseqlab/crisprflow/model"
	"github.com/bioseqlab/crisprflow/model/anthropic"
	"github.com/bioseqlab/crisprflow/model/openai"
	"github.com/bioseqlab/crisprflow/session"
)

func buildLogger(cfg *config.Config, w io.Writer) logging.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Log.Format == "text" {
		return logging.NewTextLogger(w, level)
	}
	return logging.NewJSONLogger(w, level)
}

func buildStore(cfg *config.Config) (core.SessionStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		return session.NewInMemoryStore(), nil
	case "file":
		return session.NewFileStore(cfg.Store.Dir)
	case "redis":
		var opts []session.RedisOption
		if cfg.Store.RedisTTL > 0 {
			opts = append(opts, session.WithTTL(cfg.Store.RedisTTL))
		}
		return session.NewRedisStore(cfg.Store.RedisAddr, os.Getenv("CRISPRFLOW_REDIS_PASSWORD"), 0, opts...), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildSink returns the configured audit sink plus a close function for
// backends that hold resources.
func buildSink(cfg *config.Config) (core.AuditSink, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Audit.Backend {
	case "memory":
		return audit.NewInMemorySink(), noop, nil
	case "file":
		sink, err := audit.NewFileSink(cfg.Audit.Dir)
		return sink, noop, err
	case "sqlite":
		sink, err := audit.NewSQLiteSink(cfg.Audit.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sink, sink.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown audit backend %q", cfg.Audit.Backend)
	}
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Model.Provider {
	case "mock":
		return model.NewMockModel("crisprflow-mock"), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}
