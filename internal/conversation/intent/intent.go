// Package intent scores free-text user messages against a fixed set of
// conversational intent categories. It is a deliberate, inspectable rule
// engine: lexical pattern tables plus message-structure heuristics plus
// conversation-context multipliers. No model, no randomness.
package intent

import (
	"github.com/sundale/projectcoach-backend/internal/domain"
)

// Kind is one of the seven intent categories.
type Kind string

const (
	Exploring   Kind = "exploring"
	Questioning Kind = "questioning"
	Submitting  Kind = "submitting"
	Elaborating Kind = "elaborating"
	Confirming  Kind = "confirming"
	Refining    Kind = "refining"
	Uncertain   Kind = "uncertain"
)

// Kinds is the fixed enumeration order. Scoring ties resolve to the earliest
// entry, so this order must never be reshuffled.
var Kinds = [...]Kind{Exploring, Questioning, Submitting, Elaborating, Confirming, Refining, Uncertain}

// ResponseMode is the suggested way to respond to the classified message.
type ResponseMode string

const (
	ModeEngage  ResponseMode = "engage"
	ModeClarify ResponseMode = "clarify"
	ModeConfirm ResponseMode = "confirm"
	ModeGuide   ResponseMode = "guide"
)

// Classification is the result of classifying one message. Confidence is the
// winning category's share of the total score, 0-100.
type Classification struct {
	Intent                Kind         `json:"intent"`
	Confidence            int          `json:"confidence"`
	SuggestedResponseMode ResponseMode `json:"suggested_response_mode"`
}

// StepPosition locates the current slot within its stage.
type StepPosition string

const (
	StepIntro   StepPosition = "intro"
	StepMiddle  StepPosition = "middle"
	StepClosing StepPosition = "closing"
)

// Context carries the conversation state the classifier is allowed to see.
type Context struct {
	Stage           domain.Stage
	Step            StepPosition
	PreviousIntent  Kind
	AIAskedQuestion bool // the AI's previous message ended in a question
}
