package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/model"
)

const offTargetEntryText = `Now, let's analyze off-target effects for your CRISPR guide RNAs.

**Off-target editing** occurs when your guide RNA directs Cas nuclease to
unintended genomic sites with similar sequences. This is a critical safety
concern, especially for therapeutic applications.

This analysis will:
1. Accept your guide RNA sequence(s)
2. Predict off-target risk per guide
3. Produce a risk report with recommendations`

const offTargetInputPrompt = `Please provide:
1. Your guide RNA sequence(s), 20 nt each, one per line (names optional)
2. The species (human/mouse)
3. The Cas system (defaults to SpCas9)`

const offTargetInputInstructions = `You extract guide RNA sequences from a user message. Reply with a
single JSON object with keys "guides" (array of objects with "name" and
"sequence"), "species" (default "human") and "cas_system" (default
"SpCas9"). A guide sequence is a ~20 nt string over ACGT.`

// offTargetEntryStep introduces the analysis.
type offTargetEntryStep struct{}

func (offTargetEntryStep) Name() string { return "off_target_entry" }

func (offTargetEntryStep) Execute(_ context.Context, _ *core.State, _ *string) (core.Outcome, error) {
	return core.Continue(offTargetEntryText), nil
}

// offTargetInputStep parses user-supplied guide sequences into state.
type offTargetInputStep struct {
	tk *Toolkit
}

func (s *offTargetInputStep) Name() string { return "off_target_input" }

func (s *offTargetInputStep) Execute(ctx context.Context, state *core.State, input *string) (core.Outcome, error) {
	if input == nil {
		return core.WaitForInput(offTargetInputPrompt), nil
	}

	guides, species, cas := parseGuideReply(ctx, s.tk.Model, *input)
	if len(guides) == 0 {
		return core.WaitForInput("I couldn't find any guide sequences. Please paste 20 nt ACGT sequences, one per line."), nil
	}

	state.Guides = guides
	if species != "" {
		state.Species = species
	} else if state.Species == "" {
		state.Species = "human"
	}
	if cas != "" {
		state.CasSystem = cas
	} else if state.CasSystem == "" {
		state.CasSystem = "SpCas9"
	}

	msg := fmt.Sprintf("Parsed %d guide(s) for analysis.\n**Species:** %s\n**Cas system:** %s",
		len(guides), state.Species, state.CasSystem)
	return core.Continue(msg), nil
}

// parseGuideReply extracts guides via the model, falling back to scanning
// the raw text for spacer-shaped tokens.
func parseGuideReply(ctx context.Context, m model.Model, text string) (guides []core.GuideRNA, species, cas string) {
	if m != nil {
		obj, err := model.ChatJSON(ctx, m, offTargetInputInstructions, text)
		if err == nil {
			species = model.StringField(obj, "species", "")
			cas = model.StringField(obj, "cas_system", "")
			if raw, ok := obj["guides"].([]any); ok {
				for _, item := range raw {
					entry, ok := item.(map[string]any)
					if !ok {
						continue
					}
					seq := strings.ToUpper(strings.TrimSpace(model.StringField(entry, "sequence", "")))
					if !looksLikeSpacer(seq) {
						continue
					}
					guides = append(guides, core.GuideRNA{
						Sequence: seq,
						Source:   "user",
						Metadata: map[string]string{"name": model.StringField(entry, "name", "")},
					})
				}
			}
			if len(guides) > 0 {
				return guides, species, cas
			}
		}
	}

	for _, tok := range strings.Fields(text) {
		seq := strings.ToUpper(strings.Trim(tok, ".,;:`"))
		if looksLikeSpacer(seq) {
			guides = append(guides, core.GuideRNA{Sequence: seq, Source: "user"})
		}
	}
	return guides, species, cas
}

// looksLikeSpacer accepts 18-23 nt sequences over ACGT.
func looksLikeSpacer(seq string) bool {
	if len(seq) < 18 || len(seq) > 23 {
		return false
	}
	for _, c := range seq {
		switch c {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

// offTargetScoringStep scores the guides and builds the risk report.
type offTargetScoringStep struct {
	tk *Toolkit
}

func (s *offTargetScoringStep) Name() string { return "off_target_scoring" }

func (s *offTargetScoringStep) Execute(ctx context.Context, state *core.State, _ *string) (core.Outcome, error) {
	if len(state.Guides) == 0 {
		return core.WaitForInput("No guides to analyze. Please provide guide sequences."), nil
	}

	sequences := make([]string, 0, len(state.Guides))
	for _, g := range state.Guides {
		if g.Sequence != "" {
			sequences = append(sequences, g.Sequence)
		}
	}

	findings, err := s.tk.Scorer.ScoreGuides(ctx, sequences, state.Species)
	if err != nil {
		return core.Continue("Off-target scoring is unavailable right now. " +
			"You can score the guides with CRISPOR (http://crispor.tefor.net/) instead."), nil
	}

	for i := range findings {
		if name := guideName(state.Guides, findings[i].Sequence); name != "" {
			findings[i].GuideName = name
		}
	}
	state.OffTargetFindings = findings

	lines := []string{"## Off-Target Analysis Report", ""}
	for _, f := range findings {
		lines = append(lines, fmt.Sprintf("- **%s** (`%s`): **%s** risk. %s",
			f.GuideName, f.Sequence, strings.ToUpper(f.RiskLevel), f.Recommendation))
	}
	return core.Continue(strings.Join(lines, "\n")), nil
}

func guideName(guides []core.GuideRNA, seq string) string {
	for _, g := range guides {
		if g.Sequence == seq && g.Metadata != nil && g.Metadata["name"] != "" {
			return g.Metadata["name"]
		}
	}
	return ""
}

// newOffTargetReport offers deep-analysis instructions and ends the sequence.
func newOffTargetReport() core.Step {
	return promptStep("off_target_report",
		"Would you like instructions for a deeper bulge-tolerant off-target search? (yes/no)",
		func(_ context.Context, _ *core.State, input string) (core.Outcome, error) {
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
				return core.Done("**Deep Analysis Instructions:**\n\n" +
					"1. Install CRISPRitz from the official repository: https://github.com/pinellolab/CRISPRitz\n" +
					"2. Follow the documented conda/source installation steps.\n" +
					"3. Prepare a guide file (one sequence per line).\n" +
					"4. Run the search with your reference genome and PAM settings.\n" +
					"5. Review output for bulge-tolerant off-targets.\n\n" +
					"Off-target analysis complete."), nil
			}
			return core.Done("Off-target analysis complete."), nil
		})
}
