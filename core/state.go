package core

import (
	"time"
)

// GuideRNA is a single guide RNA candidate accumulated during guide design
// or supplied by the user for off-target analysis.
type GuideRNA struct {
	Sequence       string            `json:"sequence"`
	PAM            string            `json:"pam,omitempty"`
	Strand         string            `json:"strand,omitempty"`
	Score          float64           `json:"score"`
	OffTargetCount int               `json:"off_target_count"`
	Source         string            `json:"source,omitempty"` // "designer", "user"
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// DeliveryPlan captures the delivery method recommendation for the session.
type DeliveryPlan struct {
	Method       string `json:"method,omitempty"` // lipofection, electroporation, lentiviral, AAV, LNP
	Format       string `json:"format,omitempty"` // plasmid, RNP, mRNA
	Product      string `json:"product,omitempty"`
	Reasoning    string `json:"reasoning,omitempty"`
	Alternatives string `json:"alternatives,omitempty"`
}

// PrimerPair is a pair of validation primers flanking the edit site.
type PrimerPair struct {
	Forward           string  `json:"forward"`
	Reverse           string  `json:"reverse"`
	ProductSize       int     `json:"product_size"`
	TmForward         float64 `json:"tm_forward"`
	TmReverse         float64 `json:"tm_reverse"`
	SpecificityStatus string  `json:"specificity_status,omitempty"` // "specific", "non-specific", "pending"
}

// OffTargetFinding is one per-guide risk assessment entry.
type OffTargetFinding struct {
	GuideName      string `json:"guide_name,omitempty"`
	Sequence       string `json:"sequence"`
	RiskLevel      string `json:"risk_level"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Message is one transcript entry of the session conversation.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the typed, mutable record of everything discovered or decided so
// far in one session. Exactly one session owns a State instance; it is only
// mutated inside the Runner's turn loop while the per-session lock is held.
//
// The engine-owned cursor fields (WorkflowID, StepIndex, AwaitingInput)
// locate the session inside the Router's registered sequences. Invariant:
// 0 <= StepIndex <= len(sequence named by WorkflowID); StepIndex equal to the
// sequence length means the sequence is complete.
type State struct {
	SessionID string `json:"session_id"`

	// Engine cursor.
	WorkflowID    string `json:"workflow_id"`
	StepIndex     int    `json:"step_index"`
	AwaitingInput bool   `json:"awaiting_input"`

	// Core experiment parameters.
	TargetGene string `json:"target_gene,omitempty"`
	Species    string `json:"species,omitempty"`
	Modality   string `json:"modality,omitempty"`   // knockout, base_editing, ...
	CasSystem  string `json:"cas_system,omitempty"` // SpCas9, SaCas9, enCas12a, ...

	// Guide RNA results.
	Guides             []GuideRNA `json:"guides,omitempty"`
	SelectedGuideIndex int        `json:"selected_guide_index"`

	// Base editing specifics.
	BaseEditor       string `json:"base_editor,omitempty"` // CBE, ABE
	TargetBaseChange string `json:"target_base_change,omitempty"`

	// Prime editing specifics.
	PrimeEditor     string `json:"prime_editor,omitempty"` // PE2, PE3, PEmax
	PegRNAExtension string `json:"pegrna_extension,omitempty"`
	NickGuide       string `json:"nick_guide,omitempty"`

	// Activation / repression specifics.
	EffectorSystem string `json:"effector_system,omitempty"` // dCas9-VP64, dCas9-KRAB, ...
	TargetRegion   string `json:"target_region,omitempty"`

	// Delivery and validation.
	Delivery           DeliveryPlan `json:"delivery"`
	Primers            []PrimerPair `json:"primers,omitempty"`
	ValidationStrategy string       `json:"validation_strategy,omitempty"`

	// Off-target analysis.
	OffTargetFindings []OffTargetFinding `json:"off_target_findings,omitempty"`

	// Troubleshooting.
	TroubleshootIssue           string   `json:"troubleshoot_issue,omitempty"`
	TroubleshootRecommendations []string `json:"troubleshoot_recommendations,omitempty"`

	// Conversation transcript for this session.
	Transcript []Message `json:"transcript,omitempty"`

	// Escape hatch for workflow-specific scratch values. Steps write to it
	// directly, so it must stay non-nil across persistence round trips.
	Extra map[string]string `json:"extra"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// NewState creates a fresh State positioned at the start of workflowID.
func NewState(sessionID, workflowID string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID:          sessionID,
		WorkflowID:         workflowID,
		SelectedGuideIndex: -1,
		Extra:              map[string]string{},
		Created:            now,
		Updated:            now,
	}
}

// AppendMessage records a transcript entry and bumps the Updated timestamp.
func (s *State) AppendMessage(role, content string) {
	s.Transcript = append(s.Transcript, Message{Role: role, Content: content, Timestamp: time.Now().UTC()})
	s.Updated = time.Now().UTC()
}

// Touch bumps the Updated timestamp.
func (s *State) Touch() { s.Updated = time.Now().UTC() }

// Clone returns a deep copy safe for independent mutation. Stores hand out
// clones so a session's mutations stay invisible outside the Runner loop.
func (s *State) Clone() *State {
	clone := *s
	if s.Guides != nil {
		clone.Guides = make([]GuideRNA, len(s.Guides))
		copy(clone.Guides, s.Guides)
		for i, g := range s.Guides {
			if g.Metadata != nil {
				m := make(map[string]string, len(g.Metadata))
				for k, v := range g.Metadata {
					m[k] = v
				}
				clone.Guides[i].Metadata = m
			}
		}
	}
	if s.Primers != nil {
		clone.Primers = make([]PrimerPair, len(s.Primers))
		copy(clone.Primers, s.Primers)
	}
	if s.OffTargetFindings != nil {
		clone.OffTargetFindings = make([]OffTargetFinding, len(s.OffTargetFindings))
		copy(clone.OffTargetFindings, s.OffTargetFindings)
	}
	if s.TroubleshootRecommendations != nil {
		clone.TroubleshootRecommendations = make([]string, len(s.TroubleshootRecommendations))
		copy(clone.TroubleshootRecommendations, s.TroubleshootRecommendations)
	}
	if s.Transcript != nil {
		clone.Transcript = make([]Message, len(s.Transcript))
		copy(clone.Transcript, s.Transcript)
	}
	if s.Extra != nil {
		clone.Extra = make(map[string]string, len(s.Extra))
		for k, v := range s.Extra {
			clone.Extra[k] = v
		}
	}
	return &clone
}
