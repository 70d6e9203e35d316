package model

import "time"

// ConversationStep enumerates the booking flow states. The absence of a
// ConversationState document is the implicit initial state.
type ConversationStep string

const (
	StepSelectService      ConversationStep = "SELECT_SERVICE"
	StepSelectProfessional ConversationStep = "SELECT_PROFESSIONAL"
	StepSelectDate         ConversationStep = "SELECT_DATE"
	StepSelectTime         ConversationStep = "SELECT_TIME"
)

// Next returns the step that follows s in the fixed booking order.
func (s ConversationStep) Next() ConversationStep {
	switch s {
	case StepSelectService:
		return StepSelectProfessional
	case StepSelectProfessional:
		return StepSelectDate
	case StepSelectDate:
		return StepSelectTime
	}
	return s
}

// BookingData carries the selections accumulated so far. Each handler only
// reads the fields filled in by earlier steps.
type BookingData struct {
	ServiceID      string `json:"service_id,omitempty" bson:"service_id,omitempty"`
	ProfessionalID string `json:"professional_id,omitempty" bson:"professional_id,omitempty"`
	Date           string `json:"date,omitempty" bson:"date,omitempty"` // YYYY-MM-DD
}

type ConversationState struct {
	Phone     string           `json:"phone" bson:"_id" validate:"required,e164"`
	Step      ConversationStep `json:"step" bson:"step" validate:"required,oneof=SELECT_SERVICE SELECT_PROFESSIONAL SELECT_DATE SELECT_TIME"`
	Data      BookingData      `json:"data" bson:"data"`
	UpdatedAt time.Time        `json:"updated_at" bson:"updated_at"`
}

// ConversationLock is an advisory lock keyed by phone. It serializes message
// dispatch for a single conversation across concurrent consumers.
type ConversationLock struct {
	Phone     string    `bson:"_id" json:"phone"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
