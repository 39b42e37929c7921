package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioseqlab/crisprflow/core"
)

const primeEditingEntryText = `## Prime Editing Setup

Prime editing installs precise edits (substitutions, small insertions and
deletions) without double-strand breaks. We will walk through:
1. Editor system selection (PE2/PE3/PE3b/PEmax)
2. Target and edit capture
3. pegRNA design parameters`

const primeEditorSelectPrompt = `Choose a prime editing system:
1. **PE2** — pegRNA only, lower efficiency, fewer indels
2. **PE3** — adds a nicking sgRNA, higher efficiency, more indels
3. **PE3b** — edit-specific nicking guide, balanced efficiency and purity
4. **PEmax** — optimized editor architecture, best with engineered pegRNAs

If unsure, PE2 is the safest starting point.`

const primeEditingTargetPrompt = `Describe the intended edit:
1. Gene
2. Species
3. Edit type (substitution, insertion, deletion)
4. The exact change (for example, "insert GGC after codon 12")`

// primeEditingEntryStep introduces the prime editing flow.
type primeEditingEntryStep struct{}

func (primeEditingEntryStep) Name() string { return "prime_editing_entry" }

func (primeEditingEntryStep) Execute(_ context.Context, _ *core.State, _ *string) (core.Outcome, error) {
	return core.Continue(primeEditingEntryText), nil
}

// newPrimeEditorSelect records the chosen PE system.
func newPrimeEditorSelect() core.Step {
	return promptStep("prime_editing_system_select", primeEditorSelectPrompt,
		func(_ context.Context, state *core.State, input string) (core.Outcome, error) {
			low := strings.ToLower(strings.TrimSpace(input))
			system := "PE2"
			switch {
			case low == "3" || strings.Contains(low, "pe3b"):
				system = "PE3b"
			case low == "2" || strings.Contains(low, "pe3"):
				system = "PE3"
			case low == "4" || strings.Contains(low, "pemax"):
				system = "PEmax"
			}
			state.PrimeEditor = system

			msg := fmt.Sprintf("Selected prime editing system: **%s**", system)
			if system == "PE3" || system == "PE3b" {
				msg += "\n\n*Note: You will also need to design a nicking sgRNA for the non-edited strand.*"
			}
			return core.Continue(msg), nil
		})
}

// primeEditingTargetStep captures the gene and edit description.
type primeEditingTargetStep struct {
	tk *Toolkit
}

func (s *primeEditingTargetStep) Name() string { return "prime_editing_target" }

func (s *primeEditingTargetStep) Execute(ctx context.Context, state *core.State, input *string) (core.Outcome, error) {
	if input == nil {
		return core.WaitForInput(primeEditingTargetPrompt), nil
	}

	gene, species, _ := parseTargetReply(ctx, s.tk.Model, *input)
	if gene == "" {
		return core.WaitForInput("I couldn't identify a gene symbol. Please provide one along with the edit description."), nil
	}

	state.TargetGene = gene
	state.Species = species
	state.Extra["edit_description"] = strings.TrimSpace(*input)

	msg := fmt.Sprintf("**Target gene:** %s\n**Species:** %s\n**System:** %s\n\n"+
		"**pegRNA design will require 3 components:**\n"+
		"1. Spacer (20 nt) — positions Cas9 nick near edit site\n"+
		"2. Primer Binding Site (PBS, ~13 nt) — primes RT\n"+
		"3. RT template (~10-30 nt) — encodes the edit",
		gene, species, state.PrimeEditor)
	return core.Continue(msg), nil
}

// pegRNADesignStep presents design parameter recommendations.
type pegRNADesignStep struct{}

func (pegRNADesignStep) Name() string { return "prime_editing_pegrna_design" }

func (pegRNADesignStep) Execute(_ context.Context, state *core.State, _ *string) (core.Outcome, error) {
	state.PegRNAExtension = "PBS 13 nt, RT template 15 nt"

	msg := fmt.Sprintf("**pegRNA Design Recommendations for %s:**\n\n"+
		"- **PBS length:** 13 nt (start here, test the 10-15 nt range)\n"+
		"- **RT template length:** 15 nt (start here, test the 10-25 nt range)\n"+
		"- **Spacer:** choose 3-5 spacers with NGG PAM within 0-15 nt of the edit site",
		state.PrimeEditor)
	if state.PrimeEditor == "PE3" || state.PrimeEditor == "PE3b" {
		state.NickGuide = "nick 40-90 bp 3' of the pegRNA-induced nick"
		msg += fmt.Sprintf("\n\n**Nicking guide design (%s):**\n"+
			"- Place the nick 40-90 bp 3' of the pegRNA-induced nick", state.PrimeEditor)
		if state.PrimeEditor == "PE3b" {
			msg += "\n- Design the nicking guide to only match the edited sequence"
		}
	}
	msg += "\n\n**Recommended tools:**\n" +
		"- PrimeDesign: https://primedesign.pinellolab.partners.org/\n" +
		"- pegFinder: https://pegfinder.sidichenlab.org/"
	return core.Continue(msg), nil
}
