// Package protocol renders a bench-ready markdown protocol document from the
// session state. Protocols are pure data: templated step lists selected by
// the state's delivery method and validation strategy, with no dynamic
// execution of any kind.
package protocol

import (
	"fmt"
	"strings"
	"time"

	"github.com/bioseqlab/crisprflow/core"
)

type section struct {
	Title string
	Steps []string
}

var cellCulture = section{
	Title: "Cell Culture Preparation",
	Steps: []string{
		"Thaw and culture target cells in recommended medium",
		"Passage cells to 70-80% confluency",
		"Prepare sufficient wells for experiment + controls",
	},
}

var lipofection = section{
	Title: "Lipofection",
	Steps: []string{
		"Dilute DNA/RNP in Opti-MEM",
		"Add lipofection reagent and mix gently",
		"Incubate 10-15 min at room temperature",
		"Add complex dropwise to cells",
	},
}

var electroporation = section{
	Title: "Electroporation",
	Steps: []string{
		"Harvest cells and wash with PBS",
		"Resuspend 2e5 cells in nucleofection buffer",
		"Add DNA/RNP to cell suspension",
		"Electroporate using the recommended program",
		"Transfer to pre-warmed medium immediately",
	},
}

var t7e1Assay = section{
	Title: "T7 Endonuclease I Assay",
	Steps: []string{
		"Extract genomic DNA 48-72h post-delivery",
		"PCR amplify target region with validation primers",
		"Denature and re-anneal PCR product (95C 5min, ramp to 25C at 0.1C/s)",
		"Add T7 Endonuclease I, incubate 37C for 30 min",
		"Run on 2% agarose gel and image",
	},
}

var sangerValidation = section{
	Title: "Sanger Sequencing Validation",
	Steps: []string{
		"Extract genomic DNA 48-72h post-delivery",
		"PCR amplify target region",
		"Purify PCR product",
		"Submit for Sanger sequencing",
		"Analyze with ICE (Synthego) or TIDE",
	},
}

// Generate renders a markdown protocol for the session. Sections are chosen
// from the recorded delivery method and validation strategy; experiment
// parameters and selected reagents come from the state itself.
func Generate(state *core.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# CRISPR Experiment Protocol\n\n")
	fmt.Fprintf(&b, "*Session %s — generated %s*\n\n", state.SessionID, time.Now().UTC().Format("2006-01-02"))

	b.WriteString("## Experiment Summary\n\n")
	writeField(&b, "Modality", state.Modality)
	writeField(&b, "Target gene", state.TargetGene)
	writeField(&b, "Species", state.Species)
	writeField(&b, "Cas system", state.CasSystem)
	writeField(&b, "Base editor", state.BaseEditor)
	writeField(&b, "Prime editor", state.PrimeEditor)
	writeField(&b, "Effector system", state.EffectorSystem)
	b.WriteString("\n")

	if len(state.Guides) > 0 {
		b.WriteString("## Guide RNAs\n\n")
		b.WriteString("| # | Sequence | PAM | Score | Off-targets |\n")
		b.WriteString("|---|----------|-----|-------|-------------|\n")
		for i, g := range state.Guides {
			fmt.Fprintf(&b, "| %d | `%s` | %s | %.1f | %d |\n", i+1, g.Sequence, g.PAM, g.Score, g.OffTargetCount)
		}
		b.WriteString("\n")
	}

	sections := []section{cellCulture}
	switch strings.ToLower(state.Delivery.Method) {
	case "electroporation", "nucleofection":
		sections = append(sections, electroporation)
	case "":
		// No delivery decision recorded yet; skip the delivery section.
	default:
		sections = append(sections, lipofection)
	}
	if strings.Contains(strings.ToLower(state.ValidationStrategy), "sanger") {
		sections = append(sections, sangerValidation)
	} else if len(state.Primers) > 0 {
		sections = append(sections, t7e1Assay)
	}

	for _, sec := range sections {
		fmt.Fprintf(&b, "## %s\n\n", sec.Title)
		for i, step := range sec.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
		b.WriteString("\n")
	}

	if len(state.Primers) > 0 {
		b.WriteString("## Validation Primers\n\n")
		b.WriteString("| Pair | Forward | Reverse | Size | Tm(F) | Tm(R) |\n")
		b.WriteString("|------|---------|---------|------|-------|-------|\n")
		for i, p := range state.Primers {
			fmt.Fprintf(&b, "| %d | `%s` | `%s` | %d | %.1f | %.1f |\n",
				i+1, p.Forward, p.Reverse, p.ProductSize, p.TmForward, p.TmReverse)
		}
		b.WriteString("\n")
	}

	if state.Delivery.Method != "" {
		b.WriteString("## Delivery Notes\n\n")
		writeField(&b, "Method", state.Delivery.Method)
		writeField(&b, "Format", state.Delivery.Format)
		writeField(&b, "Product", state.Delivery.Product)
		if state.Delivery.Reasoning != "" {
			fmt.Fprintf(&b, "\n%s\n", state.Delivery.Reasoning)
		}
	}

	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- **%s:** %s\n", label, value)
}
