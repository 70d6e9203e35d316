package model

import "time"

// Professional is a bookable person. Soft-deletable: DeletedAt is set instead
// of removing the document so past appointments keep a valid reference.
type Professional struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Specialty string `json:"specialty" bson:"specialty" validate:"required,min=2,max=100"`

	// External calendar identity and OAuth credentials, consumed by the
	// calendar gateway.
	CalendarID         string     `json:"calendar_id" bson:"calendar_id" validate:"required"`
	GoogleAccessToken  string     `json:"-" bson:"google_access_token,omitempty"`
	GoogleRefreshToken string     `json:"-" bson:"google_refresh_token,omitempty"`
	TokenExpiry        *time.Time `json:"-" bson:"token_expiry,omitempty"`

	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// ProfessionalTokens carries the OAuth credentials written back after a
// consent code exchange or an access-token refresh.
type ProfessionalTokens struct {
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	Expiry       *time.Time `json:"-"`
}

type ProfessionalUpdate struct {
	Name       string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Specialty  string `json:"specialty,omitempty" validate:"omitempty,min=2,max=100"`
	CalendarID string `json:"calendar_id,omitempty" validate:"omitempty"`
}
