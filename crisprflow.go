// Package crisprflow provides a high-level façade over the pipeline Runner
// and its collaborators (session store, audit sink, model, safety screen)
// for building guided CRISPR experiment-design assistants. Most applications
// interact with this package by:
//  1. Creating a CrisprFlow via New() (optionally overriding the default
//     in-memory services)
//  2. Feeding user messages through HandleTurn
//
// The façade delegates turn execution to runner.Runner while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply durable stores, a real
// model provider and a structured logger.
package crisprflow

import (
	"context"

	"github.com/bioseqlab/crisprflow/audit"
	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/internal/util"
	"github.com/bioseqlab/crisprflow/logging"
	"github.com/bioseqlab/crisprflow/model"
	"github.com/bioseqlab/crisprflow/runner"
	"github.com/bioseqlab/crisprflow/safety"
	"github.com/bioseqlab/crisprflow/session"
	"github.com/bioseqlab/crisprflow/workflow"
)

// Options configures the CrisprFlow instance.
type Options struct {
	// Model powers language-model assisted input parsing. Defaults to the
	// deterministic mock, which keeps every workflow runnable offline.
	Model model.Model

	// SessionStore persists state between turns (defaults to in-memory).
	SessionStore core.SessionStore

	// AuditSink receives per-session audit events (defaults to in-memory).
	AuditSink core.AuditSink

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger

	// Screen vets user input before any step runs. Defaults to the
	// biosafety keyword screen; set to nil to disable screening.
	Screen runner.InputScreen

	// DefaultWorkflow is the sequence a fresh session starts in.
	DefaultWorkflow string

	// ToolkitOptions override the offline design collaborators.
	ToolkitOptions []workflow.ToolkitOption
}

// CrisprFlow is the high-level façade aggregating the router, runner and
// services.
type CrisprFlow struct {
	opts   Options
	router *core.Router
	runner *runner.Runner
}

// New creates a CrisprFlow instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *CrisprFlow {
	opts := Options{
		Model:           model.NewMockModel("crisprflow-mock"),
		SessionStore:    session.NewInMemoryStore(),
		AuditSink:       audit.NewInMemorySink(),
		Logger:          logging.NoOpLogger{},
		Screen:          safety.NewScreen(),
		DefaultWorkflow: workflow.WorkflowIntake,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	tk := workflow.NewToolkit(opts.Model, opts.ToolkitOptions...)
	router := workflow.BuildRouter(tk)

	r := runner.New(router, func(o *runner.Options) {
		o.SessionStore = opts.SessionStore
		o.AuditSink = opts.AuditSink
		o.Logger = opts.Logger
		o.Screen = opts.Screen
		o.DefaultWorkflow = opts.DefaultWorkflow
	})

	return &CrisprFlow{opts: opts, router: router, runner: r}
}

// HandleTurn processes one inbound user message for sessionID.
func (f *CrisprFlow) HandleTurn(ctx context.Context, sessionID, input string) (runner.TurnResult, error) {
	return f.runner.HandleTurn(ctx, sessionID, input)
}

// Runner exposes the underlying turn loop for transports that need it.
func (f *CrisprFlow) Runner() *runner.Runner { return f.runner }

// Router exposes the registered workflow sequences.
func (f *CrisprFlow) Router() *core.Router { return f.router }

// SessionStore returns the configured session store.
func (f *CrisprFlow) SessionStore() core.SessionStore { return f.opts.SessionStore }

// NewSessionID generates a fresh session identifier.
func (f *CrisprFlow) NewSessionID() string { return util.NewSessionID() }
