package workflow

import (
	"github.com/bioseqlab/crisprflow/core"
)

// Canonical workflow identifiers registered by BuildRouter.
const (
	WorkflowIntake       = "intake"
	WorkflowKnockout     = "knockout"
	WorkflowBaseEditing  = "base_editing"
	WorkflowPrimeEditing = "prime_editing"
	WorkflowActivation   = "activation"
	WorkflowRepression   = "repression"
	WorkflowOffTarget    = "off_target"
	WorkflowTroubleshoot = "troubleshoot"
	WorkflowDelivery     = "delivery"
	WorkflowValidation   = "validation"
)

// BuildRouter registers every workflow modality and returns the router the
// Runner executes against. The editing modalities chain into the shared
// delivery and validation steps; delivery and validation are additionally
// registered standalone so sessions can branch straight into them.
func BuildRouter(tk *Toolkit) *core.Router {
	deliverySteps := []core.Step{
		deliveryEntryStep{},
		&deliverySelectStep{tk: tk},
	}
	validationSteps := []core.Step{
		validationEntryStep{},
		&primerDesignStep{tk: tk},
		newSpecificityCheck(tk),
	}

	router := core.NewRouter()

	router.Register(WorkflowIntake, newIntakeSelect())

	router.Register(WorkflowKnockout, chain(
		[]core.Step{
			&knockoutTargetStep{tk: tk},
			&knockoutGuideDesignStep{tk: tk},
			newKnockoutGuideSelect(),
		},
		deliverySteps,
		validationSteps,
		[]core.Step{protocolStep{}},
	)...)

	router.Register(WorkflowBaseEditing, chain(
		[]core.Step{
			baseEditingEntryStep{},
			newBaseEditorSelect(),
			&baseEditingTargetStep{tk: tk},
			&baseEditingGuideStep{tk: tk},
		},
		deliverySteps,
		validationSteps,
	)...)

	router.Register(WorkflowPrimeEditing, chain(
		[]core.Step{
			primeEditingEntryStep{},
			newPrimeEditorSelect(),
			&primeEditingTargetStep{tk: tk},
			pegRNADesignStep{},
		},
		deliverySteps,
		validationSteps,
	)...)

	actRepSteps := []core.Step{
		actRepEntryStep{},
		newActRepSystemSelect(),
		&actRepTargetStep{tk: tk},
		&actRepGuideStep{tk: tk},
	}
	router.Register(WorkflowActivation, chain(actRepSteps, deliverySteps)...)
	router.Register(WorkflowRepression, chain(actRepSteps, deliverySteps)...)

	router.Register(WorkflowOffTarget,
		offTargetEntryStep{},
		&offTargetInputStep{tk: tk},
		&offTargetScoringStep{tk: tk},
		newOffTargetReport(),
	)

	router.Register(WorkflowTroubleshoot,
		&troubleshootEntryStep{tk: tk},
		newTroubleshootDiagnose(),
		&troubleshootAdviseStep{tk: tk},
	)

	router.Register(WorkflowDelivery, deliverySteps...)
	router.Register(WorkflowValidation, validationSteps...)

	return router
}

func chain(groups ...[]core.Step) []core.Step {
	var steps []core.Step
	for _, g := range groups {
		steps = append(steps, g...)
	}
	return steps
}
