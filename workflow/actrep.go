package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioseqlab/crisprflow/core"
)

const actRepEntryText = `## CRISPRa / CRISPRi Setup

Now, let's design your experiment for transcriptional modulation:
1. Selecting an activation or repression system
2. Defining the target gene and regulatory region
3. Designing guide RNAs targeting the promoter/TSS region

**CRISPRa (Activation):** catalytically dead Cas9 (dCas9) fused to transcriptional activators.
**CRISPRi (Repression):** dCas9 fused to transcriptional repressors.`

const actRepSystemPrompt = `Please select the CRISPRa/CRISPRi system you would like to use:

**CRISPRa (Activation) Systems:**
1. **dCas9-VP64** — simple activation, moderate (2-10x) upregulation
2. **dCas9-VPR** — VP64-p65-Rta fusion, very strong activation
3. **SunTag-VP64** — array-based recruitment, strong and tunable activation

**CRISPRi (Repression) Systems:**
4. **dCas9-KRAB** — standard repression, 50-90% knockdown
5. **dCas9-KRAB-MeCP2** — enhanced repression with an additional silencing domain`

const actRepTargetPrompt = `Please describe your target:

1. What **gene** do you want to activate or repress?
2. What **species** (human/mouse)?
3. What **cell type** are you working with?

**Guide placement:**
- CRISPRa: guides target **upstream** of the TSS (typically -400 to -50 bp)
- CRISPRi: guides target **around the TSS** (typically +50 to -50 bp)`

// actRepEntryStep introduces the CRISPRa/CRISPRi flow.
type actRepEntryStep struct{}

func (actRepEntryStep) Name() string { return "actrep_entry" }

func (actRepEntryStep) Execute(_ context.Context, _ *core.State, _ *string) (core.Outcome, error) {
	return core.Continue(actRepEntryText), nil
}

// newActRepSystemSelect records the effector system and aligns the session
// modality with the chosen mode.
func newActRepSystemSelect() core.Step {
	return promptStep("actrep_system_select", actRepSystemPrompt,
		func(_ context.Context, state *core.State, input string) (core.Outcome, error) {
			low := strings.ToLower(strings.TrimSpace(input))
			system := "dCas9-VP64"
			mode := "activation"
			switch {
			case low == "2" || strings.Contains(low, "vpr"):
				system = "dCas9-VPR"
			case low == "3" || strings.Contains(low, "suntag"):
				system = "SunTag-VP64"
			case low == "5" || strings.Contains(low, "mecp2"):
				system, mode = "dCas9-KRAB-MeCP2", "repression"
			case low == "4" || strings.Contains(low, "krab"):
				system, mode = "dCas9-KRAB", "repression"
			case state.Modality == WorkflowRepression:
				system, mode = "dCas9-KRAB", "repression"
			}
			state.EffectorSystem = system
			state.Modality = mode
			return core.Continue(fmt.Sprintf("Selected system: **%s** (%s)", system, mode)), nil
		})
}

// actRepTargetStep captures the target gene and TSS targeting window.
type actRepTargetStep struct {
	tk *Toolkit
}

func (s *actRepTargetStep) Name() string { return "actrep_target" }

func (s *actRepTargetStep) Execute(ctx context.Context, state *core.State, input *string) (core.Outcome, error) {
	if input == nil {
		return core.WaitForInput(actRepTargetPrompt), nil
	}

	gene, species, _ := parseTargetReply(ctx, s.tk.Model, *input)
	if gene == "" {
		return core.WaitForInput("I couldn't identify a gene symbol. Please provide one along with the species."), nil
	}

	state.TargetGene = gene
	state.Species = species
	if state.Modality == "repression" {
		state.TargetRegion = "+50 to -50 bp relative to TSS"
	} else {
		state.TargetRegion = "-400 to -50 bp upstream of TSS"
	}

	msg := fmt.Sprintf("**Target gene:** %s\n**Species:** %s\n**System:** %s\n**TSS targeting:** %s",
		gene, species, state.EffectorSystem, state.TargetRegion)
	return core.Continue(msg), nil
}

// actRepGuideStep closes the design portion with placement recommendations.
type actRepGuideStep struct {
	tk *Toolkit
}

func (s *actRepGuideStep) Name() string { return "actrep_guide_design" }

func (s *actRepGuideStep) Execute(ctx context.Context, state *core.State, _ *string) (core.Outcome, error) {
	guides, err := s.tk.Guides.DesignGuides(ctx, state.TargetGene, state.Species)
	if err == nil && len(guides) > 0 {
		state.Guides = guides
	}

	msg := fmt.Sprintf("Guide design recommendations for %s:\n\n"+
		"- Target gene: %s\n"+
		"- Placement window: %s\n"+
		"- Use 2-5 guides per gene for robust effects\n"+
		"- Non-template strand guides preferred for CRISPRi\n\n"+
		"**Recommended tools:**\n"+
		"- CRISPick (Broad Institute)\n"+
		"- CHOPCHOP CRISPRa/CRISPRi mode",
		state.EffectorSystem, state.TargetGene, state.TargetRegion)
	return core.Continue(msg), nil
}
