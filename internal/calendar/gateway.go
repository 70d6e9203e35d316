// Package calendar defines the external calendar contract used by the
// scheduling engine and implements it against a Google-style REST API.
package calendar

import (
	"context"
	"time"

	"agendazap/pkg/model"
)

// Event is the payload for calendar event creation.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// Tokens holds the OAuth credential set returned by a code exchange or a
// refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Gateway is the calendar collaborator contract. CheckAvailability returns
// the professional's busy intervals inside [start, end); free-gap computation
// is the caller's concern.
type Gateway interface {
	CheckAvailability(ctx context.Context, professional *model.Professional, start, end time.Time) ([]model.TimePeriod, error)
	CreateEvent(ctx context.Context, professional *model.Professional, event Event) (string, error)
	DeleteEvent(ctx context.Context, professional *model.Professional, eventID string) error
}

// Authorizer covers the OAuth consent flow used when connecting a
// professional's calendar.
type Authorizer interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (Tokens, error)
}
