package model

import "time"

// Service is immutable reference data read by the scheduling engine.
type Service struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name            string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	DurationMinutes int       `json:"duration_minutes" bson:"duration_minutes" validate:"required,min=5,max=480"`
	Price           float64   `json:"price" bson:"price" validate:"omitempty,min=0"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// Duration returns the service length, falling back to one hour when the
// stored value is missing.
func (s *Service) Duration() time.Duration {
	if s.DurationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.DurationMinutes) * time.Minute
}
