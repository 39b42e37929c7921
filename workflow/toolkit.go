package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/model"
)

// GuideDesigner proposes guide RNAs against a target gene.
type GuideDesigner interface {
	DesignGuides(ctx context.Context, gene, species string) ([]core.GuideRNA, error)
}

// GuideScorer scores candidate guide sequences for off-target risk.
type GuideScorer interface {
	ScoreGuides(ctx context.Context, sequences []string, species string) ([]core.OffTargetFinding, error)
}

// PrimerDesigner proposes a validation primer pair around the edit site.
type PrimerDesigner interface {
	DesignPrimers(ctx context.Context, gene, species string) ([]core.PrimerPair, error)
}

// SpecificityChecker verifies that a primer pair amplifies a single locus.
type SpecificityChecker interface {
	CheckPrimers(ctx context.Context, pair core.PrimerPair, species string) (bool, string, error)
}

// Toolkit bundles the collaborators the workflow steps depend on. The zero
// value is not usable; construct it with NewToolkit.
type Toolkit struct {
	Model       model.Model
	Guides      GuideDesigner
	Scorer      GuideScorer
	Primers     PrimerDesigner
	Specificity SpecificityChecker
}

// ToolkitOption customizes a Toolkit.
type ToolkitOption func(*Toolkit)

// WithGuideDesigner overrides the guide designer.
func WithGuideDesigner(d GuideDesigner) ToolkitOption {
	return func(t *Toolkit) { t.Guides = d }
}

// WithGuideScorer overrides the off-target scorer.
func WithGuideScorer(s GuideScorer) ToolkitOption {
	return func(t *Toolkit) { t.Scorer = s }
}

// WithPrimerDesigner overrides the primer designer.
func WithPrimerDesigner(d PrimerDesigner) ToolkitOption {
	return func(t *Toolkit) { t.Primers = d }
}

// WithSpecificityChecker overrides the specificity checker.
func WithSpecificityChecker(c SpecificityChecker) ToolkitOption {
	return func(t *Toolkit) { t.Specificity = c }
}

// NewToolkit returns a Toolkit backed by m and the built-in offline
// designers. The offline designers are deterministic stand-ins for external
// design services, so every workflow stays runnable without network access.
func NewToolkit(m model.Model, optFns ...ToolkitOption) *Toolkit {
	tk := &Toolkit{
		Model:       m,
		Guides:      StaticDesigner{},
		Scorer:      StaticDesigner{},
		Primers:     StaticDesigner{},
		Specificity: StaticDesigner{},
	}
	for _, fn := range optFns {
		fn(tk)
	}
	return tk
}

// StaticDesigner is the built-in offline implementation of the design
// collaborators. All outputs are deterministic functions of the inputs.
type StaticDesigner struct{}

var (
	_ GuideDesigner      = StaticDesigner{}
	_ GuideScorer        = StaticDesigner{}
	_ PrimerDesigner     = StaticDesigner{}
	_ SpecificityChecker = StaticDesigner{}
)

const guideCandidates = 4

// DesignGuides derives candidate spacers deterministically from the gene
// symbol so that repeated runs for the same target agree.
func (StaticDesigner) DesignGuides(_ context.Context, gene, species string) ([]core.GuideRNA, error) {
	gene = strings.ToUpper(strings.TrimSpace(gene))
	if gene == "" {
		return nil, fmt.Errorf("design guides: empty gene symbol")
	}
	guides := make([]core.GuideRNA, 0, guideCandidates)
	for i := 0; i < guideCandidates; i++ {
		seq := syntheticSpacer(gene, i)
		strand := "+"
		if i%2 == 1 {
			strand = "-"
		}
		guides = append(guides, core.GuideRNA{
			Sequence:       seq,
			PAM:            "NGG",
			Strand:         strand,
			Score:          92.0 - 6.5*float64(i),
			OffTargetCount: i,
			Source:         "designer",
			Metadata: map[string]string{
				"cut_site": fmt.Sprintf("%s exon %d", gene, 1+i%3),
				"species":  species,
			},
		})
	}
	return guides, nil
}

// ScoreGuides estimates off-target risk from sequence composition. Guides
// with low GC or long homopolymer runs score worse.
func (StaticDesigner) ScoreGuides(_ context.Context, sequences []string, species string) ([]core.OffTargetFinding, error) {
	if len(sequences) == 0 {
		return nil, fmt.Errorf("score guides: no sequences")
	}
	org := species
	if org == "" {
		org = "the target genome"
	}
	findings := make([]core.OffTargetFinding, 0, len(sequences))
	for i, seq := range sequences {
		s := strings.ToUpper(strings.TrimSpace(seq))
		gc := gcFraction(s)
		risk := "low"
		rec := "Suitable for use; confirm top candidates with targeted deep sequencing."
		switch {
		case gc < 0.35 || gc > 0.75 || longestRun(s) >= 5:
			risk = "high"
			rec = fmt.Sprintf("Avoid if possible: skewed composition (GC %.0f%%) predicts promiscuous binding in %s.", gc*100, org)
		case gc < 0.45 || gc > 0.65 || longestRun(s) == 4:
			risk = "moderate"
			rec = "Usable with caution; validate the top predicted off-target loci by amplicon sequencing."
		}
		findings = append(findings, core.OffTargetFinding{
			GuideName:      fmt.Sprintf("guide %d", i+1),
			Sequence:       s,
			RiskLevel:      risk,
			Recommendation: rec,
		})
	}
	return findings, nil
}

// DesignPrimers returns a deterministic primer pair flanking the cut site.
func (StaticDesigner) DesignPrimers(_ context.Context, gene, species string) ([]core.PrimerPair, error) {
	gene = strings.ToUpper(strings.TrimSpace(gene))
	if gene == "" {
		return nil, fmt.Errorf("design primers: empty gene symbol")
	}
	return []core.PrimerPair{
		{
			Forward:           "GC" + syntheticSpacer(gene, 7)[:18],
			Reverse:           "CA" + syntheticSpacer(gene, 11)[:18],
			ProductSize:       420 + 10*(len(gene)%6),
			TmForward:         59.5,
			TmReverse:         60.1,
			SpecificityStatus: "pending",
		},
		{
			Forward:           "AG" + syntheticSpacer(gene, 19)[:18],
			Reverse:           "TG" + syntheticSpacer(gene, 23)[:18],
			ProductSize:       610 + 10*(len(gene)%4),
			TmForward:         58.8,
			TmReverse:         59.4,
			SpecificityStatus: "pending",
		},
	}, nil
}

// CheckPrimers applies composition heuristics: primers between 18 and 30 nt
// with balanced GC are reported as locus-specific.
func (StaticDesigner) CheckPrimers(_ context.Context, pair core.PrimerPair, species string) (bool, string, error) {
	for _, p := range []string{pair.Forward, pair.Reverse} {
		n := len(p)
		if n < 18 || n > 30 {
			return false, fmt.Sprintf("primer %s is %d nt, outside the 18-30 nt window", p, n), nil
		}
		gc := gcFraction(p)
		if gc < 0.40 || gc > 0.60 {
			return false, fmt.Sprintf("primer %s has %.0f%% GC, outside the 40-60%% window", p, gc*100), nil
		}
	}
	org := species
	if org == "" {
		org = "the target genome"
	}
	return true, fmt.Sprintf("both primers pass composition checks for %s; single predicted amplicon", org), nil
}

const spacerAlphabet = "ACGT"

// syntheticSpacer produces a 20 nt sequence from a simple rolling hash of
// the gene symbol, offset by salt.
func syntheticSpacer(gene string, salt int) string {
	h := uint32(2166136261)
	for _, c := range gene {
		h = (h ^ uint32(c)) * 16777619
	}
	h ^= uint32(salt) * 0x9e3779b9
	var b strings.Builder
	b.Grow(20)
	for i := 0; i < 20; i++ {
		h = h*1664525 + 1013904223
		b.WriteByte(spacerAlphabet[(h>>16)&3])
	}
	return b.String()
}

func gcFraction(seq string) float64 {
	if seq == "" {
		return 0
	}
	gc := 0
	for _, c := range seq {
		if c == 'G' || c == 'C' {
			gc++
		}
	}
	return float64(gc) / float64(len(seq))
}

func longestRun(seq string) int {
	best, run := 0, 0
	var prev rune
	for _, c := range seq {
		if c == prev {
			run++
		} else {
			run = 1
			prev = c
		}
		if run > best {
			best = run
		}
	}
	return best
}
