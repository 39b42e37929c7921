package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownWorkflow marks a configuration fault: a step referenced a branch
// target (or a session was persisted with a workflow id) that was never
// registered. It is never caused by user input.
var ErrUnknownWorkflow = errors.New("unknown workflow")

// Router maps workflow identifiers to their ordered step sequences and
// resolves branch requests. Registration happens once at process start;
// after that the Router is read-only and safe for concurrent use without
// locking.
type Router struct {
	routes map[string][]Step
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[string][]Step)}
}

// Register binds an ordered step sequence to workflowID. Identifiers are
// case-insensitive. Registering the same id twice replaces the sequence;
// call only during process initialization.
func (r *Router) Register(workflowID string, steps ...Step) {
	r.routes[strings.ToLower(workflowID)] = steps
}

// Resolve returns the step sequence registered under workflowID.
func (r *Router) Resolve(workflowID string) ([]Step, error) {
	steps, ok := r.routes[strings.ToLower(workflowID)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrUnknownWorkflow, workflowID, strings.Join(r.Workflows(), ", "))
	}
	return steps, nil
}

// BranchTarget resolves a BRANCH request to its new workflow id and starting
// index. All branches currently enter at index 0; the pair return keeps room
// for named entry points without changing the Runner.
func (r *Router) BranchTarget(requested string) (string, int, error) {
	id := strings.ToLower(requested)
	if _, ok := r.routes[id]; !ok {
		return "", 0, fmt.Errorf("branch target %w: %q", ErrUnknownWorkflow, requested)
	}
	return id, 0, nil
}

// Workflows lists the registered workflow identifiers, sorted.
func (r *Router) Workflows() []string {
	ids := make([]string, 0, len(r.routes))
	for id := range r.routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LongestSequence returns the length of the longest registered sequence.
// The Runner derives its per-turn iteration cap from it.
func (r *Router) LongestSequence() int {
	longest := 0
	for _, steps := range r.routes {
		if len(steps) > longest {
			longest = len(steps)
		}
	}
	return longest
}
