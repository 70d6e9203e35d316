package model

import "time"

type AppointmentStatus string

const (
	AppointmentScheduled   AppointmentStatus = "SCHEDULED"
	AppointmentCanceled    AppointmentStatus = "CANCELED"
	AppointmentCompleted   AppointmentStatus = "COMPLETED"
	AppointmentRescheduled AppointmentStatus = "RESCHEDULED"
)

// Appointment is the committed booking. Rows are never deleted; cancellation
// is a status transition so historical references stay intact.
type Appointment struct {
	ID             string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID         string            `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	ProfessionalID string            `json:"professional_id" bson:"professional_id" validate:"required,mongodb"`
	ServiceID      string            `json:"service_id" bson:"service_id" validate:"required,mongodb"`
	StartTime      time.Time         `json:"start_time" bson:"start_time" validate:"required"`
	EndTime        time.Time         `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Status         AppointmentStatus `json:"status" bson:"status" validate:"required,oneof=SCHEDULED CANCELED COMPLETED RESCHEDULED"`
	GoogleEventID  string            `json:"google_event_id,omitempty" bson:"google_event_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
}
