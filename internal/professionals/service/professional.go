package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agendazap/internal/calendar"
	"agendazap/internal/notifier"
	professionalserrors "agendazap/internal/professionals/errors"
	professionalsrepo "agendazap/internal/professionals/repository"
	"agendazap/internal/professionals/validator"
	schedulingrepo "agendazap/internal/scheduling/repository"
	usersrepo "agendazap/internal/users/repository"
	"agendazap/pkg/config"
	apperrors "agendazap/pkg/errors"
	"agendazap/pkg/locale"
	"agendazap/pkg/model"
	"agendazap/pkg/sanitizer"
	"agendazap/pkg/sealer"
)

// CascadeFailure records one best-effort side effect that did not complete
// during a removal cascade.
type CascadeFailure struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

// RemovalReport is the outcome of a professional removal. Cancellations are
// the source of truth; notification and calendar-deletion failures are
// collected here so operators can retry them deterministically.
type RemovalReport struct {
	ProfessionalID       string           `json:"professional_id"`
	CanceledAppointments []string         `json:"canceled_appointments"`
	FailedCancellations  []CascadeFailure `json:"failed_cancellations,omitempty"`
	FailedNotifications  []CascadeFailure `json:"failed_notifications,omitempty"`
	FailedEventDeletions []CascadeFailure `json:"failed_event_deletions,omitempty"`
}

// Clean reports whether every side effect of the cascade completed.
func (r *RemovalReport) Clean() bool {
	return len(r.FailedCancellations) == 0 &&
		len(r.FailedNotifications) == 0 &&
		len(r.FailedEventDeletions) == 0
}

type ProfessionalService interface {
	Create(ctx context.Context, professional *model.Professional) error
	GetByID(ctx context.Context, id string) (*model.Professional, error)
	List(ctx context.Context) ([]*model.Professional, error)
	Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) error
	Remove(ctx context.Context, id string) (*RemovalReport, error)
	ConnectURL(ctx context.Context, id string) (string, error)
	CompleteConnect(ctx context.Context, state, code string) error
}

type professionalService struct {
	repo         professionalsrepo.ProfessionalRepository
	appointments schedulingrepo.AppointmentRepository
	users        usersrepo.UserRepository
	gateway      calendar.Gateway
	authorizer   calendar.Authorizer
	sink         notifier.Sink
	validator    *validator.ProfessionalValidator
	cfg          *config.Config
}

func NewProfessionalService(
	repo professionalsrepo.ProfessionalRepository,
	appointments schedulingrepo.AppointmentRepository,
	users usersrepo.UserRepository,
	gateway calendar.Gateway,
	authorizer calendar.Authorizer,
	sink notifier.Sink,
	validator *validator.ProfessionalValidator,
	cfg *config.Config,
) ProfessionalService {
	return &professionalService{
		repo:         repo,
		appointments: appointments,
		users:        users,
		gateway:      gateway,
		authorizer:   authorizer,
		sink:         sink,
		validator:    validator,
		cfg:          cfg,
	}
}

func (s *professionalService) Create(ctx context.Context, professional *model.Professional) error {
	professional.Name = sanitizer.NormalizeName(professional.Name)
	professional.Specialty = sanitizer.NormalizeName(professional.Specialty)

	if err := s.validator.Validate(professional); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			details := make(map[string]any, len(vErrs))
			for _, ve := range vErrs {
				details[ve.Field] = ve.Message
			}
			return apperrors.Validation("Professional validation failed", details)
		}
		return apperrors.Internal("Failed to validate professional", err)
	}

	if err := s.repo.Create(ctx, professional); err != nil {
		s.cfg.Log.Error("Failed to create professional", "error", err)
		return apperrors.Internal("Failed to create professional", err)
	}

	s.cfg.Log.Info("Professional created", "id", professional.ID, "name", professional.Name)
	return nil
}

func (s *professionalService) GetByID(ctx context.Context, id string) (*model.Professional, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}

	professional, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, professionalserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Professional", id)
		}
		if errors.Is(err, professionalserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid professional ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve professional", err)
	}
	return professional, nil
}

func (s *professionalService) List(ctx context.Context) ([]*model.Professional, error) {
	professionals, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list professionals", err)
	}
	return professionals, nil
}

func (s *professionalService) Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Professional ID cannot be empty")
	}
	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Specialty != "" {
		updates.Specialty = sanitizer.NormalizeName(updates.Specialty)
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			details := make(map[string]any, len(vErrs))
			for _, ve := range vErrs {
				details[ve.Field] = ve.Message
			}
			return apperrors.Validation("Professional update validation failed", details)
		}
		return apperrors.Internal("Failed to validate professional update", err)
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, professionalserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Professional", id)
		}
		if errors.Is(err, professionalserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid professional ID format")
		}
		return apperrors.Internal("Failed to update professional", err)
	}
	return nil
}

// Remove cancels every future scheduled appointment of the professional,
// notifies the affected users, deletes the matching calendar events, and
// soft-deletes the professional. Cancellation is persisted first; the
// notification and calendar deletion are attempted once each and their
// failures end up in the report, never aborting the cascade.
func (s *professionalService) Remove(ctx context.Context, id string) (*RemovalReport, error) {
	professional, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	future, err := s.appointments.FindFutureScheduled(ctx, professional.ID, time.Now().UTC())
	if err != nil {
		return nil, apperrors.Internal("Failed to load future appointments", err)
	}

	report := &RemovalReport{ProfessionalID: professional.ID}
	for _, appointment := range future {
		if err := s.appointments.UpdateStatus(ctx, appointment.ID, model.AppointmentCanceled); err != nil {
			s.cfg.Log.Error("Failed to cancel appointment",
				"appointment_id", appointment.ID,
				"professional_id", professional.ID,
				"error", err,
			)
			report.FailedCancellations = append(report.FailedCancellations, CascadeFailure{
				AppointmentID: appointment.ID,
				Reason:        err.Error(),
			})
			// Without the persisted cancellation the side effects would
			// contradict the stored status.
			continue
		}
		report.CanceledAppointments = append(report.CanceledAppointments, appointment.ID)

		if err := s.notifyCancellation(ctx, professional, appointment); err != nil {
			s.cfg.Log.Warn("Failed to notify user about cancellation",
				"appointment_id", appointment.ID,
				"error", err,
			)
			report.FailedNotifications = append(report.FailedNotifications, CascadeFailure{
				AppointmentID: appointment.ID,
				Reason:        err.Error(),
			})
		}

		if appointment.GoogleEventID != "" {
			if err := s.gateway.DeleteEvent(ctx, professional, appointment.GoogleEventID); err != nil {
				s.cfg.Log.Warn("Failed to delete calendar event",
					"appointment_id", appointment.ID,
					"event_id", appointment.GoogleEventID,
					"error", err,
				)
				report.FailedEventDeletions = append(report.FailedEventDeletions, CascadeFailure{
					AppointmentID: appointment.ID,
					Reason:        err.Error(),
				})
			}
		}
	}

	if err := s.repo.SoftDelete(ctx, professional.ID); err != nil {
		return report, apperrors.Internal("Failed to remove professional", err)
	}

	s.cfg.Log.Info("Professional removed",
		"id", professional.ID,
		"canceled_appointments", len(report.CanceledAppointments),
		"failed_cancellations", len(report.FailedCancellations),
		"failed_notifications", len(report.FailedNotifications),
		"failed_event_deletions", len(report.FailedEventDeletions),
	)
	return report, nil
}

func (s *professionalService) notifyCancellation(ctx context.Context, professional *model.Professional, appointment *model.Appointment) error {
	user, err := s.users.FindByID(ctx, appointment.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}
	if user.Phone == "" {
		return fmt.Errorf("user %s has no contact phone", user.ID)
	}

	loc, err := time.LoadLocation(locale.InferTimezoneFromPhone(user.Phone))
	if err != nil {
		loc = time.UTC
	}
	start := appointment.StartTime.In(loc)
	text := fmt.Sprintf(
		"Seu agendamento de %s às %s com %s foi cancelado. Pedimos desculpas pelo transtorno; responda \"agendar\" para marcar um novo horário.",
		start.Format("02/01/2006"), start.Format("15:04"), professional.Name,
	)
	return s.sink.SendText(ctx, user.Phone, text)
}

func (s *professionalService) ConnectURL(ctx context.Context, id string) (string, error) {
	professional, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	// The professional ID rides the OAuth redirect as a sealed state token,
	// so the fixed callback URL can resolve who just granted consent.
	state, err := sealer.CreateOpaqueToken(professional.ID)
	if err != nil {
		return "", apperrors.Internal("Failed to create state token", err)
	}
	return s.authorizer.AuthURL(state), nil
}

func (s *professionalService) CompleteConnect(ctx context.Context, state, code string) error {
	if code == "" {
		return apperrors.InvalidInput("Authorization code cannot be empty")
	}
	id, err := sealer.ParseOpaqueToken(state)
	if err != nil {
		return apperrors.InvalidInput("Invalid state token")
	}
	professional, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tokens, err := s.authorizer.ExchangeCode(ctx, code)
	if err != nil {
		s.cfg.Log.Error("Failed to exchange authorization code", "professional_id", id, "error", err)
		return apperrors.Internal("Failed to exchange authorization code", err)
	}

	expiry := tokens.Expiry
	if err := s.repo.SaveTokens(ctx, professional.ID, &model.ProfessionalTokens{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Expiry:       &expiry,
	}); err != nil {
		return apperrors.Internal("Failed to store calendar credentials", err)
	}

	s.cfg.Log.Info("Calendar connected", "professional_id", professional.ID)
	return nil
}
