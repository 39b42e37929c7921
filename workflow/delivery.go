package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/model"
)

const deliveryEntryText = `## Delivery Planning

Delivery strategy usually determines whether a design succeeds in practice.
Key tradeoffs:
- transfection/transduction efficiency
- viability impact and stress response
- persistence of editor exposure (transient vs sustained)
- fit for in vivo constraints

I will suggest a method and payload format using your context.`

const deliverySelectPrompt = `Please share:
1. Cell or tissue context (for example: HEK293T, primary T cells, iPSC-derived neurons, mouse liver)
2. In vitro vs in vivo
3. Any hard constraints (toxicity ceiling, stable integration requirement, AAV size limit, throughput)

Free-form descriptions are fine.`

const deliverySelectInstructions = `You recommend a CRISPR delivery strategy from a user's cell/tissue
context. Reply with a single JSON object with keys "delivery_method"
(lipofection, electroporation, lentiviral, AAV, or LNP), "format"
(plasmid, RNP, or mRNA), "specific_product", "reasoning" and
"alternatives".

Heuristics:
- easy-to-transfect lines (HEK293T, HeLa): lipofection with plasmid
- primary cells, iPSC, T cells: electroporation with RNP
- in vivo liver: LNP with mRNA
- in vivo non-liver or sustained expression: AAV (mind the packaging limit)
- pooled screens: lentiviral`

// deliveryEntryStep recaps the experiment context before method selection.
type deliveryEntryStep struct{}

func (deliveryEntryStep) Name() string { return "delivery_entry" }

func (deliveryEntryStep) Execute(_ context.Context, state *core.State, _ *string) (core.Outcome, error) {
	text := deliveryEntryText

	var ctxLines []string
	if state.Modality != "" {
		ctxLines = append(ctxLines, fmt.Sprintf("**Current workflow:** %s", state.Modality))
	}
	if state.CasSystem != "" {
		ctxLines = append(ctxLines, fmt.Sprintf("**CRISPR system:** %s", state.CasSystem))
	}
	if state.TargetGene != "" {
		ctxLines = append(ctxLines, fmt.Sprintf("**Target gene:** %s", state.TargetGene))
	}
	if state.Species != "" {
		ctxLines = append(ctxLines, fmt.Sprintf("**Species:** %s", state.Species))
	}
	if len(ctxLines) > 0 {
		text += "\n\n**Your experiment context:**\n" + strings.Join(ctxLines, "\n")
	}

	switch {
	case state.CasSystem == "SaCas9":
		text += "\n\n*Note: SaCas9 is compact enough for AAV packaging — consider AAV delivery for in vivo applications.*"
	case strings.Contains(state.CasSystem, "Cas12a"):
		text += "\n\n*Note: Cas12a systems work well with both RNP and plasmid delivery.*"
	}

	return core.Continue(text), nil
}

// deliverySelectStep collects cell-type context and records the recommended
// delivery plan.
type deliverySelectStep struct {
	tk *Toolkit
}

func (s *deliverySelectStep) Name() string { return "delivery_select" }

func (s *deliverySelectStep) Execute(ctx context.Context, state *core.State, input *string) (core.Outcome, error) {
	if input == nil {
		return core.WaitForInput(deliverySelectPrompt), nil
	}

	plan := recommendDelivery(ctx, s.tk.Model, *input)
	state.Delivery = plan

	msg := fmt.Sprintf("**Recommended delivery method:** %s\n**Format:** %s", plan.Method, plan.Format)
	if plan.Product != "" {
		msg += fmt.Sprintf("\n**Specific product:** %s", plan.Product)
	}
	if plan.Reasoning != "" {
		msg += fmt.Sprintf("\n\n**Reasoning:** %s", plan.Reasoning)
	}
	if plan.Alternatives != "" {
		msg += fmt.Sprintf("\n\n**Alternative:** %s", plan.Alternatives)
	}
	return core.Continue(msg), nil
}

// recommendDelivery asks the model for a plan and falls back to keyword
// heuristics mirroring the model instructions when it is unavailable.
func recommendDelivery(ctx context.Context, m model.Model, text string) core.DeliveryPlan {
	if m != nil {
		obj, err := model.ChatJSON(ctx, m, deliverySelectInstructions, text)
		if err == nil {
			method := model.StringField(obj, "delivery_method", "")
			if method != "" {
				return core.DeliveryPlan{
					Method:       method,
					Format:       model.StringField(obj, "format", "plasmid"),
					Product:      model.StringField(obj, "specific_product", ""),
					Reasoning:    model.StringField(obj, "reasoning", ""),
					Alternatives: model.StringField(obj, "alternatives", ""),
				}
			}
		}
	}

	low := strings.ToLower(text)
	switch {
	case strings.Contains(low, "in vivo") && strings.Contains(low, "liver"):
		return core.DeliveryPlan{Method: "LNP", Format: "mRNA",
			Reasoning: "Lipid nanoparticles with mRNA cargo are the established route for hepatic in vivo editing."}
	case strings.Contains(low, "in vivo"):
		return core.DeliveryPlan{Method: "AAV", Format: "plasmid",
			Reasoning: "AAV provides tissue-targeted in vivo delivery; mind the ~4.7 kb packaging limit."}
	case strings.Contains(low, "primary") || strings.Contains(low, "t cell") ||
		strings.Contains(low, "ipsc") || strings.Contains(low, "stem"):
		return core.DeliveryPlan{Method: "electroporation", Format: "RNP",
			Reasoning: "Hard-to-transfect primary and stem cells respond best to RNP electroporation with low toxicity and no integration risk."}
	case strings.Contains(low, "screen") || strings.Contains(low, "pooled"):
		return core.DeliveryPlan{Method: "lentiviral", Format: "plasmid",
			Reasoning: "Pooled screens need stable single-copy integration, which lentiviral transduction provides."}
	default:
		return core.DeliveryPlan{Method: "lipofection", Format: "plasmid",
			Product:   "Lipofectamine 3000",
			Reasoning: "Standard transfectable cell lines reach high efficiency with lipofection at minimal cost."}
	}
}
