package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Turn input kinds. A turn's "user text" is either freely typed or a sentinel
// carrying which UI affordance was clicked.
const (
	TurnSourceTyped  = "typed"
	TurnSourceChip   = "chip"   // a suggestion chip was clicked
	TurnSourceAction = "action" // a keep/refine style button was clicked
)

// Turn is one user/AI exchange. Rows are append-only: a turn is created when
// the orchestrator receives input and finalized once the repaired envelope is
// emitted, then never mutated.
type Turn struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_turn_session_seq,unique,priority:1" json:"session_id"`
	Seq       int       `gorm:"not null;index:idx_turn_session_seq,unique,priority:2" json:"seq"`

	UserText   string `gorm:"column:user_text" json:"user_text"`
	SourceKind string `gorm:"column:source_kind;not null;default:'typed'" json:"source_kind"`

	Stage      Stage  `gorm:"column:stage;not null" json:"stage"`
	Slot       string `gorm:"column:slot;not null" json:"slot"`
	Intent     string `gorm:"column:intent" json:"intent,omitempty"`
	Confidence int    `gorm:"column:confidence" json:"confidence"`

	RawEnvelope      datatypes.JSON `gorm:"column:raw_envelope" json:"raw_envelope,omitempty"`
	RepairedEnvelope datatypes.JSON `gorm:"column:repaired_envelope" json:"repaired_envelope,omitempty"`
	Repairs          datatypes.JSON `gorm:"column:repairs" json:"repairs,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Turn) TableName() string { return "turn" }
