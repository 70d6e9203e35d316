package validator

import (
	"errors"
	"fmt"
	"strings"

	"agendazap/pkg/logger"
	"agendazap/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ProfessionalValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewProfessionalValidator(log *logger.Logger) *ProfessionalValidator {
	return &ProfessionalValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (pv *ProfessionalValidator) Validate(professional *model.Professional) error {
	return pv.translate(pv.validate.Struct(professional))
}

func (pv *ProfessionalValidator) ValidateUpdate(updates *model.ProfessionalUpdate) error {
	return pv.translate(pv.validate.Struct(updates))
}

func (pv *ProfessionalValidator) translate(err error) error {
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("invalid validation target: %w", err)
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	result := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		result = append(result, ValidationError{
			Field:   fe.Field(),
			Message: messageForTag(fe),
		})
	}
	return result
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "mongodb":
		return "must be a valid object ID"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
