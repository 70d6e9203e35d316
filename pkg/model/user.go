package model

import "time"

// User is resolved lazily from the phone number when a message arrives.
type User struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Phone     string    `json:"phone" bson:"phone" validate:"required,e164"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,max=100"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
