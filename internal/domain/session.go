package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Stage identifies one step of the project-design wizard. Stages only ever
// advance forward.
type Stage string

const (
	StageIdeation        Stage = "ideation"
	StageLearningJourney Stage = "learning_journey"
	StageDeliverables    Stage = "deliverables"
	StageComplete        Stage = "complete"
)

// Next returns the stage that follows s. Complete is terminal.
func (s Stage) Next() Stage {
	switch s {
	case StageIdeation:
		return StageLearningJourney
	case StageLearningJourney:
		return StageDeliverables
	case StageDeliverables:
		return StageComplete
	default:
		return StageComplete
	}
}

func (s Stage) Valid() bool {
	switch s {
	case StageIdeation, StageLearningJourney, StageDeliverables, StageComplete:
		return true
	default:
		return false
	}
}

// Slot names one piece of information the wizard collects within a stage.
const (
	SlotBigIdea           = "big_idea"
	SlotEssentialQuestion = "essential_question"
	SlotChallenge         = "challenge"
	SlotPhases            = "phases"
	SlotMilestones        = "milestones"
	SlotDeliverables      = "deliverables"
	SlotAssessmentMethods = "assessment_methods"
)

// NavEvent records one navigation choice taken inside the current slot.
type NavEvent struct {
	Choice string    `json:"choice"`
	Kind   string    `json:"kind"`
	At     time.Time `json:"at"`
}

// NavState is the per-slot branching state. It resets whenever the session
// advances to a new slot.
type NavState struct {
	Depth        int        `json:"depth"`
	Interactions int        `json:"interactions"`
	Events       []NavEvent `json:"events"`
}

// ConversationSession is one in-progress project design. CapturedValues maps
// slot name to its confirmed text; a slot is written once and only rewritten
// through an explicit refinement.
type ConversationSession struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Subject       string    `gorm:"column:subject" json:"subject"`
	AgeGroup      string    `gorm:"column:age_group" json:"age_group"`
	EducatorLevel string    `gorm:"column:educator_level" json:"educator_level"` // novice|intermediate|expert

	Stage       Stage  `gorm:"column:stage;not null;default:'ideation';index" json:"stage"`
	CurrentSlot string `gorm:"column:current_slot;not null;default:'big_idea'" json:"current_slot"`

	CapturedValues datatypes.JSONMap `gorm:"column:captured_values" json:"captured_values"`
	Navigation     datatypes.JSON    `gorm:"column:navigation" json:"navigation"`

	LastIntent string `gorm:"column:last_intent" json:"last_intent,omitempty"`
	TurnCount  int    `gorm:"column:turn_count;not null;default:0" json:"turn_count"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ConversationSession) TableName() string { return "conversation_session" }

// CapturedValue returns the confirmed text for a slot, or "".
func (s *ConversationSession) CapturedValue(slot string) string {
	if s.CapturedValues == nil {
		return ""
	}
	if v, ok := s.CapturedValues[slot]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// StageSlotsComplete reports whether every slot in required has a non-empty
// captured value. isStageComplete may only be true once this holds.
func (s *ConversationSession) StageSlotsComplete(required []string) bool {
	for _, slot := range required {
		if s.CapturedValue(slot) == "" {
			return false
		}
	}
	return true
}
