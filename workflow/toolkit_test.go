package workflow

import (
	"context"
	"strings"
	"testing"

	"github.com/bioseqlab/crisprflow/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDesigner_DesignGuides_Deterministic(t *testing.T) {
	d := StaticDesigner{}

	first, err := d.DesignGuides(context.Background(), "TP53", "human")
	require.NoError(t, err)
	second, err := d.DesignGuides(context.Background(), "tp53", "human")
	require.NoError(t, err)

	require.Len(t, first, guideCandidates)
	assert.Equal(t, first, second)

	for _, g := range first {
		assert.Len(t, g.Sequence, 20)
		assert.Equal(t, "NGG", g.PAM)
		assert.Equal(t, "designer", g.Source)
	}
	assert.Greater(t, first[0].Score, first[1].Score)
}

func TestStaticDesigner_DesignGuides_EmptyGene(t *testing.T) {
	d := StaticDesigner{}

	_, err := d.DesignGuides(context.Background(), "  ", "human")
	assert.Error(t, err)
}

func TestStaticDesigner_ScoreGuides(t *testing.T) {
	d := StaticDesigner{}

	findings, err := d.ScoreGuides(context.Background(), []string{
		"ACGTACGTACGTACGTACGT", // balanced GC, no runs
		"AAAAAAAAAAAAAAAAAAAA", // homopolymer, no GC
	}, "human")
	require.NoError(t, err)
	require.Len(t, findings, 2)

	assert.Equal(t, "low", findings[0].RiskLevel)
	assert.Equal(t, "high", findings[1].RiskLevel)
	assert.Equal(t, "guide 1", findings[0].GuideName)
	assert.NotEmpty(t, findings[1].Recommendation)
}

func TestStaticDesigner_ScoreGuides_Empty(t *testing.T) {
	d := StaticDesigner{}

	_, err := d.ScoreGuides(context.Background(), nil, "human")
	assert.Error(t, err)
}

func TestStaticDesigner_DesignPrimers(t *testing.T) {
	d := StaticDesigner{}

	pairs, err := d.DesignPrimers(context.Background(), "BRCA1", "human")
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	for _, p := range pairs {
		assert.Len(t, p.Forward, 20)
		assert.Len(t, p.Reverse, 20)
		assert.Greater(t, p.ProductSize, 400)
		assert.Equal(t, "pending", p.SpecificityStatus)
	}
}

func TestStaticDesigner_CheckPrimers(t *testing.T) {
	d := StaticDesigner{}

	specific, detail, err := d.CheckPrimers(context.Background(), core.PrimerPair{
		Forward: "ACGTACGTACGTACGTACGT",
		Reverse: "TGCATGCATGCATGCATGCA",
	}, "human")
	require.NoError(t, err)
	assert.True(t, specific)
	assert.Contains(t, detail, "human")

	specific, detail, err = d.CheckPrimers(context.Background(), core.PrimerPair{
		Forward: "ACGT", // too short
		Reverse: "TGCATGCATGCATGCATGCA",
	}, "human")
	require.NoError(t, err)
	assert.False(t, specific)
	assert.Contains(t, detail, "18-30")

	specific, _, err = d.CheckPrimers(context.Background(), core.PrimerPair{
		Forward: "AAAAAAAAAAAAAAAAAAAA", // no GC
		Reverse: "TGCATGCATGCATGCATGCA",
	}, "human")
	require.NoError(t, err)
	assert.False(t, specific)
}

func TestNewToolkit_Defaults(t *testing.T) {
	tk := NewToolkit(nil)

	assert.NotNil(t, tk.Guides)
	assert.NotNil(t, tk.Scorer)
	assert.NotNil(t, tk.Primers)
	assert.NotNil(t, tk.Specificity)
}

func TestNewToolkit_Overrides(t *testing.T) {
	custom := StaticDesigner{}
	tk := NewToolkit(nil, WithGuideDesigner(custom), WithSpecificityChecker(custom))

	assert.Equal(t, custom, tk.Guides)
	assert.Equal(t, custom, tk.Specificity)
}

func TestSyntheticSpacer_Alphabet(t *testing.T) {
	seq := syntheticSpacer("CD274", 3)

	assert.Len(t, seq, 20)
	for _, c := range seq {
		assert.True(t, strings.ContainsRune(spacerAlphabet, c))
	}
}
