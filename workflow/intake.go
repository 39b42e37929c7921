package workflow

import (
	"context"
	"strings"

	"github.com/bioseqlab/crisprflow/core"
)

// WelcomeMessage is the intake menu shown at the start of every new session.
const WelcomeMessage = `**Welcome to CRISPRFlow**

I can help you design and optimize CRISPR experiments. Choose a workflow to get started:

1. **Knockout** — Gene knockout via guide RNA design
2. **Base Editing** — CBE (C>T) or ABE (A>G) base editing
3. **Prime Editing** — PE2/PE3/PEmax precise editing
4. **Activation** — CRISPRa gene activation
5. **Repression** — CRISPRi gene repression
6. **Off-Target Analysis** — Score and assess guide specificity
7. **Troubleshoot** — Diagnose failed experiments

Type a number or workflow name to begin.`

// modalityAliases maps menu numbers and free-text names to canonical
// workflow identifiers.
var modalityAliases = map[string]string{
	"1":               WorkflowKnockout,
	"2":               WorkflowBaseEditing,
	"3":               WorkflowPrimeEditing,
	"4":               WorkflowActivation,
	"5":               WorkflowRepression,
	"6":               WorkflowOffTarget,
	"7":               WorkflowTroubleshoot,
	"knockout":        WorkflowKnockout,
	"base editing":    WorkflowBaseEditing,
	"base_editing":    WorkflowBaseEditing,
	"prime editing":   WorkflowPrimeEditing,
	"prime_editing":   WorkflowPrimeEditing,
	"activation":      WorkflowActivation,
	"crispra":         WorkflowActivation,
	"repression":      WorkflowRepression,
	"crispri":         WorkflowRepression,
	"off-target":      WorkflowOffTarget,
	"off target":      WorkflowOffTarget,
	"off_target":      WorkflowOffTarget,
	"troubleshoot":    WorkflowTroubleshoot,
	"troubleshooting": WorkflowTroubleshoot,
}

// ResolveModality maps a user menu choice to a canonical workflow id. The
// second return is false when the choice is not recognized.
func ResolveModality(choice string) (string, bool) {
	id, ok := modalityAliases[strings.ToLower(strings.TrimSpace(choice))]
	return id, ok
}

// newIntakeSelect builds the single intake step: show the menu, then branch
// to the chosen modality.
func newIntakeSelect() core.Step {
	return promptStep("intake_select_modality", WelcomeMessage,
		func(_ context.Context, state *core.State, input string) (core.Outcome, error) {
			modality, ok := ResolveModality(input)
			if !ok {
				return core.WaitForInput("I didn't recognize that workflow.\n\n" + WelcomeMessage), nil
			}
			state.Modality = modality
			return core.Branch(modality, ""), nil
		})
}
