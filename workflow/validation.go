package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioseqlab/crisprflow/core"
)

const validationEntryText = `## Validation Planning

To confirm editing you will need:
1. **PCR primers** flanking the target site (amplicon 400-700 bp)
2. A **detection assay** — T7E1 for indels, Sanger + ICE/TIDE for precise quantification
3. Optional **specificity verification** of the primer pair

I will design candidate primer pairs next.`

// validationEntryStep introduces the validation phase.
type validationEntryStep struct{}

func (validationEntryStep) Name() string { return "validation_entry" }

func (validationEntryStep) Execute(_ context.Context, _ *core.State, _ *string) (core.Outcome, error) {
	return core.Continue(validationEntryText), nil
}

// primerDesignStep designs PCR primers flanking the edit site.
type primerDesignStep struct {
	tk *Toolkit
}

func (s *primerDesignStep) Name() string { return "validation_primer_design" }

func (s *primerDesignStep) Execute(ctx context.Context, state *core.State, _ *string) (core.Outcome, error) {
	if state.TargetGene == "" {
		return core.Continue("Could not design primers without a target gene. " +
			"You can design primers manually using Primer3 (https://primer3.ut.ee/)."), nil
	}

	pairs, err := s.tk.Primers.DesignPrimers(ctx, state.TargetGene, state.Species)
	if err != nil || len(pairs) == 0 {
		return core.Continue("Primer design returned no results. " +
			"You can design primers manually using Primer3 (https://primer3.ut.ee/)."), nil
	}
	state.Primers = pairs

	lines := []string{
		"## Validation Primer Candidates",
		"",
		"| Pair | Forward | Reverse | Tm(F) | Tm(R) | Size |",
		"|------|---------|---------|-------|-------|------|",
	}
	for i, p := range pairs {
		lines = append(lines, fmt.Sprintf("| %d | `%s` | `%s` | %.1f | %.1f | %d |",
			i+1, p.Forward, p.Reverse, p.TmForward, p.TmReverse, p.ProductSize))
	}
	return core.Continue(strings.Join(lines, "\n")), nil
}

// newSpecificityCheck offers an optional specificity verification of the
// first primer pair and records the validation strategy.
func newSpecificityCheck(tk *Toolkit) core.Step {
	return promptStep("validation_specificity_check",
		"Would you like to verify primer specificity against the reference genome? (yes/no)",
		func(ctx context.Context, state *core.State, input string) (core.Outcome, error) {
			choice := strings.ToLower(strings.TrimSpace(input))
			wantsCheck := strings.HasPrefix(choice, "y")

			if state.ValidationStrategy == "" {
				state.ValidationStrategy = "T7E1 + Sanger/ICE"
			}

			if !wantsCheck || len(state.Primers) == 0 {
				return core.Continue("Skipping specificity verification. Validation planning complete."), nil
			}

			pair := state.Primers[0]
			specific, detail, err := tk.Specificity.CheckPrimers(ctx, pair, state.Species)
			if err != nil {
				return core.Continue("Specificity check is unavailable right now; " +
					"you can verify the primers with NCBI Primer-BLAST instead. Validation planning complete."), nil
			}

			if specific {
				state.Primers[0].SpecificityStatus = "specific"
				return core.Continue(fmt.Sprintf("**Primers are specific.**\n\n%s\n\nValidation planning complete.", detail)), nil
			}
			state.Primers[0].SpecificityStatus = "non-specific"
			return core.Continue(fmt.Sprintf("**Primers may not be specific.**\n\n%s\n\n"+
				"Consider redesigning primers or using a different pair.", detail)), nil
		})
}
