package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/model"
)

const baseEditingEntryText = `## Base Editing Setup

We will walk through:
1. Editor family selection
2. Target and base-change capture
3. Guide strategy checks for editor window compatibility

Reminder:
- CBE typically supports C>T conversions
- ABE typically supports A>G conversions`

const baseEditorSelectPrompt = `Choose a base editor family:
1. CBE
2. ABE
3. Dual editor

If unsure, describe your desired mutation and I will infer a recommendation.`

const baseEditingTargetPrompt = `Describe the intended edit:
1. Gene
2. Species
3. Base change (for example, C>T or A>G)
4. Optional codon/protein position details`

const baseEditingTargetInstructions = `You extract base editing parameters from a user message. Reply with a
single JSON object with keys "target_gene" (gene symbol, uppercase),
"species" (default "human") and "base_change" (for example "C>T").`

// editingWindow returns the active protospacer window for an editor family.
func editingWindow(editor string) string {
	if editor == "ABE" {
		return "4-7"
	}
	return "4-8"
}

// baseEditingEntryStep introduces the base editing flow.
type baseEditingEntryStep struct{}

func (baseEditingEntryStep) Name() string { return "base_editing_entry" }

func (baseEditingEntryStep) Execute(_ context.Context, _ *core.State, _ *string) (core.Outcome, error) {
	return core.Continue(baseEditingEntryText), nil
}

// newBaseEditorSelect records the chosen editor family.
func newBaseEditorSelect() core.Step {
	return promptStep("base_editing_system_select", baseEditorSelectPrompt,
		func(_ context.Context, state *core.State, input string) (core.Outcome, error) {
			low := strings.ToLower(strings.TrimSpace(input))
			editor := "CBE"
			switch {
			case low == "2" || strings.Contains(low, "abe") || strings.Contains(low, "a>g"):
				editor = "ABE"
			case low == "3" || strings.Contains(low, "dual"):
				editor = "Dual"
			}
			state.BaseEditor = editor
			return core.Continue(fmt.Sprintf("Selected base editing system: **%s**", editor)), nil
		})
}

// baseEditingTargetStep captures the gene and desired base change, warning
// on editor/change mismatches.
type baseEditingTargetStep struct {
	tk *Toolkit
}

func (s *baseEditingTargetStep) Name() string { return "base_editing_target" }

func (s *baseEditingTargetStep) Execute(ctx context.Context, state *core.State, input *string) (core.Outcome, error) {
	if input == nil {
		return core.WaitForInput(baseEditingTargetPrompt), nil
	}

	gene, species, change := parseBaseEditReply(ctx, s.tk.Model, *input)
	if gene == "" {
		return core.WaitForInput("I couldn't identify a gene symbol. Please provide one along with the desired base change."), nil
	}

	state.TargetGene = gene
	state.Species = species
	state.TargetBaseChange = change
	if state.CasSystem == "" {
		state.CasSystem = "SpCas9"
	}

	warning := ""
	switch {
	case state.BaseEditor == "CBE" && strings.Contains(change, "A>G"):
		warning = "\n\n**Note:** You selected CBE but described an A>G change. CBE performs C>T. Consider switching to ABE."
	case state.BaseEditor == "ABE" && strings.Contains(change, "C>T"):
		warning = "\n\n**Note:** You selected ABE but described a C>T change. ABE performs A>G. Consider switching to CBE."
	}

	msg := fmt.Sprintf("**Target gene:** %s\n**Species:** %s\n**Desired change:** %s\n**Editing window:** Positions %s of protospacer%s",
		gene, species, change, editingWindow(state.BaseEditor), warning)
	return core.Continue(msg), nil
}

func parseBaseEditReply(ctx context.Context, m model.Model, text string) (gene, species, change string) {
	species = "human"

	if m != nil {
		obj, err := model.ChatJSON(ctx, m, baseEditingTargetInstructions, text)
		if err == nil {
			gene = strings.ToUpper(strings.TrimSpace(model.StringField(obj, "target_gene", "")))
			species = model.StringField(obj, "species", species)
			change = model.StringField(obj, "base_change", "")
			if gene != "" {
				return gene, species, change
			}
		}
	}

	gene, species, _ = parseTargetReply(ctx, nil, text)
	up := strings.ToUpper(text)
	for _, c := range []string{"C>T", "A>G", "G>A", "T>C"} {
		if strings.Contains(up, c) {
			change = c
			break
		}
	}
	return gene, species, change
}

// baseEditingGuideStep designs window-constrained guides and ends the
// editing-specific portion of the sequence.
type baseEditingGuideStep struct {
	tk *Toolkit
}

func (s *baseEditingGuideStep) Name() string { return "base_editing_guide_design" }

func (s *baseEditingGuideStep) Execute(ctx context.Context, state *core.State, _ *string) (core.Outcome, error) {
	editor := state.BaseEditor
	if editor == "" {
		editor = "CBE"
	}
	window := editingWindow(editor)

	guides, err := s.tk.Guides.DesignGuides(ctx, state.TargetGene, state.Species)
	if err == nil && len(guides) > 0 {
		state.Guides = guides
	}

	msg := fmt.Sprintf("Guide RNA design parameters for %s base editing:\n\n"+
		"- Editing window: positions %s\n"+
		"- Target gene: %s\n"+
		"- PAM: NGG (SpCas9-based)\n"+
		"- Avoid unintended bystander edits inside the active window\n\n"+
		"**Additional design resources:**\n"+
		"- BE-Designer: http://www.rgenome.net/be-designer/\n"+
		"- CRISPRscan: https://www.crisprscan.org/",
		editor, window, state.TargetGene)
	return core.Continue(msg), nil
}
