package errors

import "errors"

var (
	ErrServiceNotFound = errors.New("service not found")

	ErrInvalidID = errors.New("invalid service ID format")
)
