// Package envelope validates and repairs the structured reply the AI is
// expected to return each turn. It is the primary defense against the model
// returning malformed, partially shaped, or off-schema output: validation
// never fails, it always produces a structurally valid envelope for the
// expected stage, substituting defaults or a complete fallback when needed.
package envelope

import (
	"github.com/sundale/projectcoach-backend/internal/domain"
)

// Interaction types the AI may declare for a turn.
const (
	InteractionStandard         = "standard"
	InteractionWelcome          = "welcome"
	InteractionGuide            = "guide"
	InteractionConvIdeation     = "conversationalIdeation"
	InteractionConvJourney      = "conversationalJourney"
	InteractionConvDeliverables = "conversationalDeliverables"
)

var validInteractionTypes = map[string]bool{
	InteractionStandard:         true,
	InteractionWelcome:          true,
	InteractionGuide:            true,
	InteractionConvIdeation:     true,
	InteractionConvJourney:      true,
	InteractionConvDeliverables: true,
}

// defaultInteractionType is the interaction type substituted when the AI
// omits the field or declares something outside the enum.
func defaultInteractionType(stage domain.Stage) string {
	switch stage {
	case domain.StageIdeation:
		return InteractionConvIdeation
	case domain.StageLearningJourney:
		return InteractionConvJourney
	case domain.StageDeliverables:
		return InteractionConvDeliverables
	default:
		return InteractionStandard
	}
}

// Assignment sub-fields that must all be present for a newAssignment object
// to survive repair; a partially populated assignment is discarded to null
// rather than emitted half-formed.
var assignmentRequiredFields = []string{"title", "description"}

// Result is the outcome of validating one raw AI reply. Envelope is always a
// complete, correctly shaped object for the expected stage; Errors lists
// every repair applied, in order, as human-readable diagnostics.
type Result struct {
	IsValid  bool           `json:"is_valid"`
	Errors   []string       `json:"errors"`
	Envelope map[string]any `json:"envelope"`
}
