package workflow

import (
	"context"

	"github.com/bioseqlab/crisprflow/core"
)

// promptStep builds the common two-phase step shape: with no pending input it
// pauses and shows prompt; once the user replies, handle consumes the reply.
// handle returns WaitForInput again to re-ask after invalid input.
func promptStep(name, prompt string, handle func(ctx context.Context, state *core.State, input string) (core.Outcome, error)) core.StepFunc {
	return core.NewStep(name, func(ctx context.Context, state *core.State, input *string) (core.Outcome, error) {
		if input == nil {
			return core.WaitForInput(prompt), nil
		}
		return handle(ctx, state, *input)
	})
}
