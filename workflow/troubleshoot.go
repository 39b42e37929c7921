package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/model"
)

const troubleshootEntryPrompt = `**Troubleshooting Mode**

I can help diagnose issues with your CRISPR experiment. What problem are you experiencing?

1. Low or no editing efficiency
2. High toxicity / low cell viability
3. Off-target effects detected
4. Unexpected phenotype or no phenotype
5. Other issue (please describe)`

const troubleshootDetailsPrompt = `To help diagnose the issue, please provide the following details about your experiment:

1. **Cell type/line** used (e.g., HEK293T, K562, primary T cells)
2. **Delivery method** (e.g., lipofection, electroporation, viral transduction)
3. **CRISPR system** used (e.g., SpCas9 RNP, plasmid-based, lentiviral)
4. **Guide RNA details** (how many guides tested, any validation done?)
5. **Transfection/transduction efficiency** (if measured)
6. **Time point** of analysis after delivery

Please share whatever details you have — even partial information helps.`

const troubleshootCategoryInstructions = `You categorize a CRISPR experiment problem. Reply with a single JSON
object with keys "category" (one of low_efficiency, high_toxicity,
off_target, unexpected_phenotype, other) and "summary" (one sentence).`

// issueCategory labels the fixed failure-mode categories.
var issueCategories = map[string]string{
	"low_efficiency":       "Low or no editing efficiency",
	"high_toxicity":        "High toxicity or low cell viability",
	"off_target":           "Off-target effects detected",
	"unexpected_phenotype": "Unexpected phenotype or no observable phenotype",
	"other":                "Other issue",
}

// failureKnowledge holds curated causes and checks per issue category.
type failureKnowledge struct {
	CommonCauses []string
	QuickChecks  []string
}

var troubleshootKnowledge = map[string]failureKnowledge{
	"low_efficiency": {
		CommonCauses: []string{
			"Poor guide RNA design with low on-target activity score",
			"Insufficient delivery: low transfection/transduction efficiency",
			"Suboptimal Cas protein expression: promoter not active in cell type",
			"Target site accessibility: chromatin state blocking Cas access",
			"Incorrect PAM orientation or mismatch",
			"RNP degradation: nuclease/guide not forming a proper complex",
		},
		QuickChecks: []string{
			"Verify transfection efficiency with a fluorescent reporter",
			"Test a validated positive-control guide in parallel",
			"Check Cas9 expression by Western blot",
			"Try multiple guides targeting different exons",
			"Test RNP delivery if using a plasmid-based approach",
		},
	},
	"high_toxicity": {
		CommonCauses: []string{
			"DNA damage response to double-strand breaks, especially with multiple guides",
			"Innate immune sensing of Cas9 mRNA or plasmid DNA",
			"Too much transfection reagent",
			"Electroporation conditions too harsh",
			"Essential gene targeted: editing causes cell death",
			"Endotoxin contamination in plasmid preparations",
		},
		QuickChecks: []string{
			"Reduce transfection reagent amount or electroporation voltage",
			"Use RNP delivery to reduce innate immune activation",
			"Test a non-targeting control guide at the same conditions",
			"Check endotoxin levels in plasmid preparations",
		},
	},
	"off_target": {
		CommonCauses: []string{
			"Guide RNA has too many similar sites in the genome",
			"Excess Cas protein or long expression duration",
			"Using wild-type SpCas9 instead of a high-fidelity variant",
			"Bulge-tolerant off-targets not predicted by mismatch-only tools",
		},
		QuickChecks: []string{
			"Re-check guide specificity with multiple tools (CRISPOR, Cas-OFFinder)",
			"Switch to a high-fidelity Cas9 variant (eSpCas9, HF-Cas9, HiFi Cas9)",
			"Reduce Cas9 amount or shorten the expression window",
			"Use RNP delivery for transient activity",
			"Perform GUIDE-seq or CIRCLE-seq for unbiased off-target detection",
		},
	},
	"unexpected_phenotype": {
		CommonCauses: []string{
			"In-frame deletion: knockout not achieved despite indels",
			"Genetic compensation: upregulation of paralog genes",
			"Mosaic editing: mixed population of edited and unedited cells",
			"Wrong gene targeted: verify gene symbol and coordinates",
			"Cell line already carries a mutation in the target gene",
		},
		QuickChecks: []string{
			"Sequence the target site to confirm frameshift/premature stop",
			"Verify protein loss by Western blot, not just DNA editing",
			"Isolate single-cell clones for homogeneous populations",
			"Verify the exact genomic coordinates of your guide",
		},
	},
	"other": {
		CommonCauses: []string{
			"Review experimental timeline and conditions",
			"Check all reagent expiration dates and storage conditions",
			"Verify cell line identity by STR profiling",
		},
		QuickChecks: []string{
			"Repeat with fresh reagents",
			"Consult published protocols for your specific cell type",
			"Contact the Cas9/guide RNA vendor technical support",
		},
	},
}

// troubleshootEntryStep categorizes the reported problem.
type troubleshootEntryStep struct {
	tk *Toolkit
}

func (s *troubleshootEntryStep) Name() string { return "troubleshoot_entry" }

func (s *troubleshootEntryStep) Execute(ctx context.Context, state *core.State, input *string) (core.Outcome, error) {
	if input == nil {
		return core.WaitForInput(troubleshootEntryPrompt), nil
	}

	category, summary := categorizeIssue(ctx, s.tk.Model, *input)
	state.TroubleshootIssue = category
	state.Extra["troubleshoot_summary"] = summary

	msg := fmt.Sprintf("**Issue category:** %s\n**Summary:** %s", issueCategories[category], summary)
	return core.Continue(msg), nil
}

// categorizeIssue maps the user's description to a failure category, via the
// model with a menu-number/keyword fallback.
func categorizeIssue(ctx context.Context, m model.Model, text string) (category, summary string) {
	trimmed := strings.TrimSpace(text)
	summary = trimmed

	if m != nil {
		obj, err := model.ChatJSON(ctx, m, troubleshootCategoryInstructions, text)
		if err == nil {
			cat := model.StringField(obj, "category", "")
			if _, ok := issueCategories[cat]; ok {
				return cat, model.StringField(obj, "summary", trimmed)
			}
		}
	}

	low := strings.ToLower(trimmed)
	switch {
	case low == "1" || strings.Contains(low, "efficienc") || strings.Contains(low, "no editing"):
		return "low_efficiency", summary
	case low == "2" || strings.Contains(low, "toxic") || strings.Contains(low, "viabilit") || strings.Contains(low, "dying"):
		return "high_toxicity", summary
	case low == "3" || strings.Contains(low, "off-target") || strings.Contains(low, "off target"):
		return "off_target", summary
	case low == "4" || strings.Contains(low, "phenotype"):
		return "unexpected_phenotype", summary
	default:
		return "other", summary
	}
}

// newTroubleshootDiagnose collects experimental details and surfaces likely
// causes for the categorized issue.
func newTroubleshootDiagnose() core.Step {
	return promptStep("troubleshoot_diagnose", troubleshootDetailsPrompt,
		func(_ context.Context, state *core.State, input string) (core.Outcome, error) {
			state.Extra["troubleshoot_details"] = input

			category := state.TroubleshootIssue
			if category == "" {
				category = "other"
			}
			knowledge := troubleshootKnowledge[category]

			lines := []string{"## Diagnosis", "", "Likely causes for **" + issueCategories[category] + "**:", ""}
			for _, cause := range knowledge.CommonCauses {
				lines = append(lines, "- "+cause)
			}
			return core.Continue(strings.Join(lines, "\n")), nil
		})
}

// troubleshootAdviseStep produces the prioritized action plan.
type troubleshootAdviseStep struct {
	tk *Toolkit
}

func (s *troubleshootAdviseStep) Name() string { return "troubleshoot_advise" }

func (s *troubleshootAdviseStep) Execute(_ context.Context, state *core.State, _ *string) (core.Outcome, error) {
	category := state.TroubleshootIssue
	if category == "" {
		category = "other"
	}
	knowledge := troubleshootKnowledge[category]

	state.TroubleshootRecommendations = append([]string(nil), knowledge.QuickChecks...)

	lines := []string{"## Troubleshooting Plan", ""}
	for i, action := range knowledge.QuickChecks {
		lines = append(lines, fmt.Sprintf("%d. **%s**", i+1, action))
	}
	lines = append(lines, "",
		"Work through the checks in order; each one isolates a different failure mode. "+
			"Re-run the experiment after each change so effects stay attributable.")
	return core.Done(strings.Join(lines, "\n")), nil
}
