package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	state := NewState("sess-1", "intake")

	assert.Equal(t, "sess-1", state.SessionID)
	assert.Equal(t, "intake", state.WorkflowID)
	assert.Equal(t, 0, state.StepIndex)
	assert.False(t, state.AwaitingInput)
	assert.Equal(t, -1, state.SelectedGuideIndex)
	assert.NotNil(t, state.Extra)
	assert.False(t, state.Created.IsZero())
	assert.Equal(t, state.Created, state.Updated)
}

func TestAppendMessage(t *testing.T) {
	state := NewState("sess-1", "intake")
	before := state.Updated

	state.AppendMessage("user", "knockout")
	state.AppendMessage("assistant", "Which gene?")

	require.Len(t, state.Transcript, 2)
	assert.Equal(t, "user", state.Transcript[0].Role)
	assert.Equal(t, "knockout", state.Transcript[0].Content)
	assert.Equal(t, "assistant", state.Transcript[1].Role)
	assert.False(t, state.Updated.Before(before))
}

func TestCloneIsDeep(t *testing.T) {
	state := NewState("sess-1", "knockout")
	state.TargetGene = "TP53"
	state.Guides = []GuideRNA{{
		Sequence: "ACGTACGTACGTACGTACGT",
		Score:    91.5,
		Metadata: map[string]string{"cut_site": "exon 4"},
	}}
	state.Primers = []PrimerPair{{Forward: "ACGT", Reverse: "TGCA", SpecificityStatus: "pending"}}
	state.OffTargetFindings = []OffTargetFinding{{Sequence: "ACGT", RiskLevel: "low"}}
	state.TroubleshootRecommendations = []string{"check guide design"}
	state.AppendMessage("user", "hello")
	state.Extra["preferred_exon"] = "4"

	clone := state.Clone()

	// Mutating the clone must leave the original untouched.
	clone.TargetGene = "BRCA1"
	clone.Guides[0].Sequence = "TTTTTTTTTTTTTTTTTTTT"
	clone.Guides[0].Metadata["cut_site"] = "exon 9"
	clone.Primers[0].SpecificityStatus = "specific"
	clone.OffTargetFindings[0].RiskLevel = "high"
	clone.TroubleshootRecommendations[0] = "something else"
	clone.Transcript[0].Content = "rewritten"
	clone.Extra["preferred_exon"] = "9"

	assert.Equal(t, "TP53", state.TargetGene)
	assert.Equal(t, "ACGTACGTACGTACGTACGT", state.Guides[0].Sequence)
	assert.Equal(t, "exon 4", state.Guides[0].Metadata["cut_site"])
	assert.Equal(t, "pending", state.Primers[0].SpecificityStatus)
	assert.Equal(t, "low", state.OffTargetFindings[0].RiskLevel)
	assert.Equal(t, "check guide design", state.TroubleshootRecommendations[0])
	assert.Equal(t, "hello", state.Transcript[0].Content)
	assert.Equal(t, "4", state.Extra["preferred_exon"])
}

func TestCloneNilSlices(t *testing.T) {
	state := NewState("sess-1", "intake")
	clone := state.Clone()

	assert.Nil(t, clone.Guides)
	assert.Nil(t, clone.Transcript)
	assert.NotNil(t, clone.Extra)
}
