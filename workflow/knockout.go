package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/model"
)

const knockoutTargetPrompt = `## Step: Knockout Target Selection

To design guide RNAs for gene knockout, please provide:

1. **Target gene** — gene symbol (e.g., TP53, BRCA1, CD274)
2. **Species** — human, mouse, rat, zebrafish, or drosophila
3. **Any preferences?** — specific exons, functional domains, or constraints

**Design strategy:**
- We target early constitutive exons to maximize frameshift probability
- Guides are scored for on-target efficiency and off-target specificity
- Multiple guides (3-5) are recommended for reliable knockout`

const knockoutTargetInstructions = `You extract CRISPR knockout target parameters from a user message.
Reply with a single JSON object with keys "target_gene" (gene symbol,
uppercase), "species" (one of human, mouse, rat, zebrafish, drosophila)
and "preferred_exon" (short free text, default "early constitutive").`

const guideReviewIntro = `## Guide RNA Candidates

Guide RNA candidates for your knockout target, ranked by specificity score.

**Scoring criteria:**
- **Specificity score** (0-100): higher means fewer predicted off-targets. Aim for >80.
- **Off-target count**: number of predicted off-target sites in the genome.`

// knockoutTargetStep collects the target gene and species.
type knockoutTargetStep struct {
	tk *Toolkit
}

func (s *knockoutTargetStep) Name() string { return "knockout_target_input" }

func (s *knockoutTargetStep) Execute(ctx context.Context, state *core.State, input *string) (core.Outcome, error) {
	if input == nil {
		return core.WaitForInput(knockoutTargetPrompt), nil
	}

	gene, species, exon := parseTargetReply(ctx, s.tk.Model, *input)
	if gene == "" {
		return core.WaitForInput("I couldn't identify a gene symbol. Please provide one (e.g., TP53) along with the species."), nil
	}

	state.TargetGene = gene
	state.Species = species
	if state.CasSystem == "" {
		state.CasSystem = "SpCas9"
	}
	state.Extra["preferred_exon"] = exon

	msg := fmt.Sprintf("**Target gene:** %s\n**Species:** %s\n**Cas system:** %s\n**Strategy:** Target %s exons",
		gene, species, state.CasSystem, exon)
	return core.Continue(msg), nil
}

// parseTargetReply extracts gene/species/exon preference from free text,
// asking the model first and falling back to token heuristics when the model
// is unavailable or returns something unusable.
func parseTargetReply(ctx context.Context, m model.Model, text string) (gene, species, exon string) {
	species = "human"
	exon = "early constitutive"

	if m != nil {
		obj, err := model.ChatJSON(ctx, m, knockoutTargetInstructions, text)
		if err == nil {
			gene = strings.ToUpper(strings.TrimSpace(model.StringField(obj, "target_gene", "")))
			species = model.StringField(obj, "species", species)
			exon = model.StringField(obj, "preferred_exon", exon)
			if gene != "" {
				return gene, species, exon
			}
		}
	}

	known := []string{"human", "mouse", "rat", "zebrafish", "drosophila"}
	for _, tok := range strings.Fields(text) {
		tok = strings.Trim(tok, ".,;:()")
		low := strings.ToLower(tok)
		isSpecies := false
		for _, sp := range known {
			if low == sp {
				species = sp
				isSpecies = true
				break
			}
		}
		if isSpecies {
			continue
		}
		if gene == "" && looksLikeGeneSymbol(tok) {
			gene = strings.ToUpper(tok)
		}
	}
	return gene, species, exon
}

// looksLikeGeneSymbol accepts short alphanumeric tokens that contain at
// least one letter, e.g. TP53, BRCA1, Cd274.
func looksLikeGeneSymbol(tok string) bool {
	if len(tok) < 2 || len(tok) > 12 {
		return false
	}
	hasLetter := false
	for _, c := range tok {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return hasLetter
}

// knockoutGuideDesignStep runs the guide designer and presents candidates.
type knockoutGuideDesignStep struct {
	tk *Toolkit
}

func (s *knockoutGuideDesignStep) Name() string { return "knockout_guide_design" }

func (s *knockoutGuideDesignStep) Execute(ctx context.Context, state *core.State, _ *string) (core.Outcome, error) {
	if state.TargetGene == "" {
		return core.WaitForInput("No target gene specified. Please provide a gene symbol."), nil
	}

	guides, err := s.tk.Guides.DesignGuides(ctx, state.TargetGene, state.Species)
	if err != nil || len(guides) == 0 {
		state.Guides = nil
		msg := fmt.Sprintf("Could not retrieve guide RNA candidates for **%s** (%s). "+
			"You can try again or provide guide sequences manually.", state.TargetGene, state.Species)
		return core.Continue(msg), nil
	}
	if len(guides) > 10 {
		guides = guides[:10]
	}
	state.Guides = guides

	lines := []string{
		guideReviewIntro,
		"",
		"| # | Sequence | Specificity | Off-targets |",
		"|---|----------|-------------|-------------|",
	}
	for i, g := range guides {
		if i == 5 {
			break
		}
		lines = append(lines, fmt.Sprintf("| %d | `%s` | %.1f | %d |", i+1, g.Sequence, g.Score, g.OffTargetCount))
	}
	return core.Continue(strings.Join(lines, "\n")), nil
}

// newKnockoutGuideSelect lets the user pick guides or accept the top ranked.
func newKnockoutGuideSelect() core.Step {
	return promptStep("knockout_guide_selection",
		"Please select guides to proceed with, or type 'all' to use top-ranked guides.",
		func(_ context.Context, state *core.State, input string) (core.Outcome, error) {
			if len(state.Guides) == 0 {
				return core.Continue("No guides available. Please provide sequences manually or try a different target."), nil
			}

			idx := 0
			choice := strings.ToLower(strings.TrimSpace(input))
			for i := range state.Guides {
				if choice == fmt.Sprintf("%d", i+1) {
					idx = i
					break
				}
			}
			state.SelectedGuideIndex = idx

			n := len(state.Guides)
			if n > 3 {
				n = 3
			}
			msg := fmt.Sprintf("Selected %d guide(s) for knockout of **%s**.", n, state.TargetGene)
			return core.Continue(msg), nil
		})
}
