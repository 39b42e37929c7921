package workflow

import (
	"context"

	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/protocol"
)

// protocolStep renders the accumulated design into a bench protocol and
// closes the sequence.
type protocolStep struct{}

func (protocolStep) Name() string { return "protocol_generation" }

func (protocolStep) Execute(_ context.Context, state *core.State, _ *string) (core.Outcome, error) {
	rendered := protocol.Generate(state)
	if rendered == "" {
		return core.Done("No protocol steps could be generated from the current session."), nil
	}
	return core.Done(rendered), nil
}
