package errors

import "errors"

var (
	ErrStateNotFound = errors.New("conversation state not found")

	ErrInvalidPhone = errors.New("inbound message has no phone number")

	ErrAppointmentNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrConversationLocked means another dispatch currently holds the
	// per-phone advisory lock.
	ErrConversationLocked = errors.New("conversation is being processed by another dispatch")
)
