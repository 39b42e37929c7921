package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bioseqlab/crisprflow/core"
)

func knockoutState() *core.State {
	state := core.NewState("sess-1", "knockout")
	state.Modality = "knockout"
	state.TargetGene = "TP53"
	state.Species = "human"
	state.CasSystem = "SpCas9"
	state.Guides = []core.GuideRNA{
		{Sequence: "ACGTACGTACGTACGTACGT", PAM: "NGG", Score: 91.2, OffTargetCount: 0},
		{Sequence: "TGCATGCATGCATGCATGCA", PAM: "NGG", Score: 85.4, OffTargetCount: 2},
	}
	return state
}

func TestGenerateSummaryAndGuides(t *testing.T) {
	out := Generate(knockoutState())

	assert.Contains(t, out, "# CRISPR Experiment Protocol")
	assert.Contains(t, out, "Session sess-1")
	assert.Contains(t, out, "- **Target gene:** TP53")
	assert.Contains(t, out, "- **Cas system:** SpCas9")
	assert.Contains(t, out, "`ACGTACGTACGTACGTACGT`")
	assert.Contains(t, out, "## Cell Culture Preparation")

	// Unset parameters stay out of the summary.
	assert.NotContains(t, out, "Base editor")
	assert.NotContains(t, out, "Prime editor")
}

func TestGenerateDeliverySections(t *testing.T) {
	state := knockoutState()
	state.Delivery = core.DeliveryPlan{Method: "electroporation", Format: "RNP", Product: "Lonza 4D-Nucleofector"}
	out := Generate(state)
	assert.Contains(t, out, "## Electroporation")
	assert.NotContains(t, out, "## Lipofection")
	assert.Contains(t, out, "- **Product:** Lonza 4D-Nucleofector")

	state.Delivery = core.DeliveryPlan{Method: "lipofection", Format: "plasmid"}
	out = Generate(state)
	assert.Contains(t, out, "## Lipofection")
	assert.NotContains(t, out, "## Electroporation")

	// No recorded decision, no delivery section.
	state.Delivery = core.DeliveryPlan{}
	out = Generate(state)
	assert.NotContains(t, out, "## Lipofection")
	assert.NotContains(t, out, "## Delivery Notes")
}

func TestGenerateValidationSections(t *testing.T) {
	state := knockoutState()
	state.Primers = []core.PrimerPair{{
		Forward: "ACGTACGTACGTACGTACGT", Reverse: "TGCATGCATGCATGCATGCA",
		ProductSize: 420, TmForward: 59.5, TmReverse: 60.1,
	}}

	// Primers without a Sanger strategy select the T7E1 assay.
	out := Generate(state)
	assert.Contains(t, out, "## T7 Endonuclease I Assay")
	assert.Contains(t, out, "## Validation Primers")
	assert.Contains(t, out, "| 1 | `ACGTACGTACGTACGTACGT` |")

	state.ValidationStrategy = "T7E1 + Sanger/ICE"
	out = Generate(state)
	assert.Contains(t, out, "## Sanger Sequencing Validation")
	assert.NotContains(t, out, "## T7 Endonuclease I Assay")
}

func TestGenerateMinimalState(t *testing.T) {
	out := Generate(core.NewState("sess-2", "intake"))

	assert.Contains(t, out, "## Cell Culture Preparation")
	assert.NotContains(t, out, "## Guide RNAs")
	assert.NotContains(t, out, "## Validation Primers")
	// Numbered steps render in order.
	assert.True(t, strings.Index(out, "1. Thaw and culture") < strings.Index(out, "2. Passage cells"))
}
