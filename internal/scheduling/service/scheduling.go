package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"agendazap/internal/availability"
	"agendazap/internal/calendar"
	catalogerrors "agendazap/internal/catalog/errors"
	catalogrepo "agendazap/internal/catalog/repository"
	"agendazap/internal/notifier"
	professionalserrors "agendazap/internal/professionals/errors"
	professionalsrepo "agendazap/internal/professionals/repository"
	schedulingerrors "agendazap/internal/scheduling/errors"
	"agendazap/internal/scheduling/repository"
	usersrepo "agendazap/internal/users/repository"
	"agendazap/pkg/config"
	"agendazap/pkg/locale"
	"agendazap/pkg/model"
	"agendazap/pkg/sanitizer"
)

// User-facing messages (pt-BR, the channel language).
const (
	msgCanceled        = "Agendamento cancelado. Quando quiser, é só chamar!"
	msgNothingToCancel = "Não há agendamento em andamento."
	msgNoServices      = "Desculpe, não temos serviços disponíveis no momento."
	msgChooseService   = "Olá! Vamos agendar. Escolha um serviço:"
	msgInvalidService  = "Serviço inválido. Por favor, selecione uma opção da lista."
	msgInvalidPro      = "Profissional inválido. Por favor, selecione uma opção da lista."
	msgInvalidDate     = "Data inválida. Use o formato DD/MM/AAAA ou \"hoje\"/\"amanhã\"."
	msgPastDate        = "A data deve ser futura. Tente novamente."
	msgNoCalendar      = "Erro ao buscar agenda do profissional."
	msgNoFreeSlots     = "Não há horários livres nesta data. Por favor, digite outra data:"
	msgNoFittingSlots  = "Não há horários suficientes para este serviço nesta data. Tente outra data."
	msgAvailableTimes  = "Horários disponíveis:"
	msgInvalidTime     = "Horário inválido. Selecione da lista."
	msgGenericError    = "Desculpe, ocorreu um erro. Por favor, tente novamente digitando \"cancelar\" e recomeçando."
	affirmativeReply   = "sim"
)

var timeLabelRegex = regexp.MustCompile(`^\d{2}:\d{2}$`)

type SchedulingService interface {
	HandleMessage(ctx context.Context, msg *model.InboundMessage) error
}

type schedulingService struct {
	states        repository.StateRepository
	appointments  repository.AppointmentRepository
	locks         repository.LockRepository
	users         usersrepo.UserRepository
	services      catalogrepo.ServiceRepository
	professionals professionalsrepo.ProfessionalRepository
	gateway       calendar.Gateway
	sink          notifier.Sink
	cfg           *config.Config
}

func NewSchedulingService(
	states repository.StateRepository,
	appointments repository.AppointmentRepository,
	locks repository.LockRepository,
	users usersrepo.UserRepository,
	services catalogrepo.ServiceRepository,
	professionals professionalsrepo.ProfessionalRepository,
	gateway calendar.Gateway,
	sink notifier.Sink,
	cfg *config.Config,
) SchedulingService {
	return &schedulingService{
		states:        states,
		appointments:  appointments,
		locks:         locks,
		users:         users,
		services:      services,
		professionals: professionals,
		gateway:       gateway,
		sink:          sink,
		cfg:           cfg,
	}
}

// stepOutcome is the closed result set a step handler can produce. The
// dispatcher owns state persistence so handlers cannot leave the machine in
// an undefined position.
type stepOutcome int

const (
	outcomeStay     stepOutcome = iota // state untouched, user was re-prompted
	outcomeAdvance                     // move to the next step and persist
	outcomeRevert                      // roll the step back and persist, data kept
	outcomeComplete                    // booking committed, delete the state
)

type stepResult struct {
	outcome  stepOutcome
	revertTo model.ConversationStep
	reply    func(ctx context.Context) error // sent after persistence
}

func stay(reply func(ctx context.Context) error) stepResult {
	return stepResult{outcome: outcomeStay, reply: reply}
}

// HandleMessage drives the conversation state machine for one inbound
// message. The per-phone advisory lock serializes dispatch; a locked
// conversation returns ErrConversationLocked so the consumer can retry.
func (s *schedulingService) HandleMessage(ctx context.Context, msg *model.InboundMessage) error {
	phone := msg.Phone
	if phone == "" {
		return schedulingerrors.ErrInvalidPhone
	}

	if err := s.locks.Acquire(ctx, phone); err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.locks.Release(context.WithoutCancel(ctx), phone); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release conversation lock", "phone", phone, "error", releaseErr)
		}
	}()

	s.cfg.Log.Info("Handling message", "phone", phone, "kind", msg.Kind)

	user, err := s.users.FindOrCreate(ctx, phone)
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	state, err := s.states.Get(ctx, phone)
	if err != nil && !errors.Is(err, schedulingerrors.ErrStateNotFound) {
		return fmt.Errorf("failed to load conversation state: %w", err)
	}

	normalized := sanitizer.NormalizeReply(msg.Text)

	if normalized == sanitizer.NormalizeReply(s.cfg.CancellationKeyword) {
		return s.handleCancellation(ctx, phone, state)
	}

	if state == nil {
		if s.hasBookingIntent(normalized, msg) {
			return s.startBooking(ctx, phone)
		}
		// Unrelated chatter with no conversation in progress is ignored.
		return nil
	}

	if err := s.dispatch(ctx, user, state, msg); err != nil {
		s.cfg.Log.Error("Scheduling flow failed",
			"phone", phone,
			"step", state.Step,
			"error", err,
		)
		if sendErr := s.sink.SendText(ctx, phone, msgGenericError); sendErr != nil {
			s.cfg.Log.Warn("Failed to send error message", "phone", phone, "error", sendErr)
		}
	}
	return nil
}

func (s *schedulingService) handleCancellation(ctx context.Context, phone string, state *model.ConversationState) error {
	if state == nil {
		return s.sink.SendText(ctx, phone, msgNothingToCancel)
	}
	if err := s.states.Delete(ctx, phone); err != nil {
		return fmt.Errorf("failed to delete conversation state: %w", err)
	}
	s.cfg.Log.Info("Conversation canceled", "phone", phone, "step", state.Step)
	return s.sink.SendText(ctx, phone, msgCanceled)
}

func (s *schedulingService) hasBookingIntent(normalized string, msg *model.InboundMessage) bool {
	if strings.Contains(normalized, "agendar") || strings.Contains(normalized, "marcar") {
		return true
	}
	if msg.Kind != model.KindButtonResponse {
		return false
	}
	return normalized == affirmativeReply ||
		strings.ToLower(msg.Payload.Label) == affirmativeReply ||
		msg.Payload.SelectedButtonID == affirmativeReply
}

func (s *schedulingService) startBooking(ctx context.Context, phone string) error {
	services, err := s.services.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}
	if len(services) == 0 {
		return s.sink.SendText(ctx, phone, msgNoServices)
	}

	state := &model.ConversationState{
		Phone: phone,
		Step:  model.StepSelectService,
	}
	if err := s.states.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to create conversation state: %w", err)
	}
	s.cfg.Log.Info("Booking started", "phone", phone)

	rows := make([]model.OptionRow, 0, len(services))
	for _, svc := range services {
		rows = append(rows, model.OptionRow{
			ID:          svc.ID,
			Title:       svc.Name,
			Description: serviceDescription(svc),
		})
	}
	return s.sink.SendOptionList(ctx, phone, msgChooseService,
		[]model.OptionSection{{Title: "Serviços", Rows: rows}},
		model.SendOptions{Title: "Agendamento", ButtonLabel: "Ver Serviços"},
	)
}

func serviceDescription(svc *model.Service) string {
	if svc.Price > 0 {
		return fmt.Sprintf("R$ %.2f - %d min", svc.Price, svc.DurationMinutes)
	}
	return fmt.Sprintf("Sob consulta - %d min", svc.DurationMinutes)
}

func (s *schedulingService) dispatch(ctx context.Context, user *model.User, state *model.ConversationState, msg *model.InboundMessage) error {
	var result stepResult
	var err error

	switch state.Step {
	case model.StepSelectService:
		result, err = s.handleSelectService(ctx, state, msg)
	case model.StepSelectProfessional:
		result, err = s.handleSelectProfessional(ctx, state, msg)
	case model.StepSelectDate:
		result, err = s.handleSelectDate(ctx, state, msg)
	case model.StepSelectTime:
		result, err = s.handleSelectTime(ctx, user, state, msg)
	default:
		s.cfg.Log.Warn("Unknown conversation step", "phone", state.Phone, "step", state.Step)
		return nil
	}
	if err != nil {
		return err
	}

	switch result.outcome {
	case outcomeAdvance:
		state.Step = state.Step.Next()
		if err := s.states.Save(ctx, state); err != nil {
			return fmt.Errorf("failed to persist conversation state: %w", err)
		}
	case outcomeRevert:
		state.Step = result.revertTo
		if err := s.states.Save(ctx, state); err != nil {
			return fmt.Errorf("failed to persist reverted conversation state: %w", err)
		}
	case outcomeComplete:
		if err := s.states.Delete(ctx, state.Phone); err != nil {
			return fmt.Errorf("failed to clear conversation state: %w", err)
		}
	}

	if result.reply != nil {
		return result.reply(ctx)
	}
	return nil
}

// selection extracts the value the user picked: the structured row id when
// present, otherwise the raw text.
func selection(msg *model.InboundMessage) string {
	if msg.Payload.SelectedRowID != "" {
		return msg.Payload.SelectedRowID
	}
	return strings.TrimSpace(msg.Text)
}

func (s *schedulingService) handleSelectService(ctx context.Context, state *model.ConversationState, msg *model.InboundMessage) (stepResult, error) {
	serviceID := selection(msg)

	svc, err := s.services.FindByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrServiceNotFound) || errors.Is(err, catalogerrors.ErrInvalidID) {
			return stay(func(ctx context.Context) error {
				return s.sink.SendText(ctx, state.Phone, msgInvalidService)
			}), nil
		}
		return stepResult{}, fmt.Errorf("failed to resolve service: %w", err)
	}

	professionals, err := s.professionals.List(ctx)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to list professionals: %w", err)
	}

	state.Data.ServiceID = svc.ID
	rows := make([]model.OptionRow, 0, len(professionals))
	for _, p := range professionals {
		rows = append(rows, model.OptionRow{
			ID:          p.ID,
			Title:       p.Name,
			Description: p.Specialty,
		})
	}
	return stepResult{
		outcome: outcomeAdvance,
		reply: func(ctx context.Context) error {
			return s.sink.SendOptionList(ctx, state.Phone,
				fmt.Sprintf("Você escolheu %s. Agora escolha um profissional:", svc.Name),
				[]model.OptionSection{{Title: "Profissionais", Rows: rows}},
				model.SendOptions{Title: "Profissionais", ButtonLabel: "Ver Profissionais"},
			)
		},
	}, nil
}

func (s *schedulingService) handleSelectProfessional(ctx context.Context, state *model.ConversationState, msg *model.InboundMessage) (stepResult, error) {
	professionalID := selection(msg)

	professional, err := s.professionals.FindByID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, professionalserrors.ErrNotFound) || errors.Is(err, professionalserrors.ErrInvalidID) {
			return stay(func(ctx context.Context) error {
				return s.sink.SendText(ctx, state.Phone, msgInvalidPro)
			}), nil
		}
		return stepResult{}, fmt.Errorf("failed to resolve professional: %w", err)
	}

	state.Data.ProfessionalID = professional.ID
	return stepResult{
		outcome: outcomeAdvance,
		reply: func(ctx context.Context) error {
			return s.sink.SendText(ctx, state.Phone,
				fmt.Sprintf("Certo, com %s. Por favor, digite a data desejada (ex: 25/10/2023 ou amanhã):", professional.Name),
			)
		},
	}, nil
}

func (s *schedulingService) handleSelectDate(ctx context.Context, state *model.ConversationState, msg *model.InboundMessage) (stepResult, error) {
	loc := s.userLocation(state.Phone)
	now := time.Now().In(loc)

	date, err := parseDate(msg.Text, now)
	if err != nil {
		return stay(func(ctx context.Context) error {
			return s.sink.SendText(ctx, state.Phone, msgInvalidDate)
		}), nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if date.Before(today) {
		return stay(func(ctx context.Context) error {
			return s.sink.SendText(ctx, state.Phone, msgPastDate)
		}), nil
	}

	professional, err := s.professionals.FindByID(ctx, state.Data.ProfessionalID)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to resolve professional: %w", err)
	}
	if professional.CalendarID == "" {
		return stay(func(ctx context.Context) error {
			return s.sink.SendText(ctx, state.Phone, msgNoCalendar)
		}), nil
	}

	svc, err := s.services.FindByID(ctx, state.Data.ServiceID)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to resolve service: %w", err)
	}

	// Tentative advance, persisted before the gateway round-trip: a retry
	// after a gateway failure must not lose the parsed date.
	state.Data.Date = date.Format("2006-01-02")
	state.Step = model.StepSelectTime
	if err := s.states.Save(ctx, state); err != nil {
		return stepResult{}, fmt.Errorf("failed to persist conversation state: %w", err)
	}

	windowStart := s.businessTime(date, s.cfg.BusinessDayStart, loc)
	windowEnd := s.businessTime(date, s.cfg.BusinessDayEnd, loc)

	busy, err := s.gateway.CheckAvailability(ctx, professional, windowStart, windowEnd)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to check calendar availability: %w", err)
	}

	free := availability.FreeSlots(windowStart, windowEnd, busy)
	if len(free) == 0 {
		return stepResult{
			outcome:  outcomeRevert,
			revertTo: model.StepSelectDate,
			reply: func(ctx context.Context) error {
				return s.sink.SendText(ctx, state.Phone, msgNoFreeSlots)
			},
		}, nil
	}

	labels := availability.GenerateSlots(free, svc.Duration(), s.cfg.SlotStep)
	if len(labels) == 0 {
		return stepResult{
			outcome:  outcomeRevert,
			revertTo: model.StepSelectDate,
			reply: func(ctx context.Context) error {
				return s.sink.SendText(ctx, state.Phone, msgNoFittingSlots)
			},
		}, nil
	}

	// Channel cap on selectable rows.
	if len(labels) > s.cfg.MaxListRows {
		labels = labels[:s.cfg.MaxListRows]
	}
	rows := make([]model.OptionRow, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, model.OptionRow{ID: label, Title: label})
	}
	return stay(func(ctx context.Context) error {
		return s.sink.SendOptionList(ctx, state.Phone, msgAvailableTimes,
			[]model.OptionSection{{Title: "Manhã/Tarde", Rows: rows}},
			model.SendOptions{Title: "Horários", ButtonLabel: "Ver Horários"},
		)
	}), nil
}

func (s *schedulingService) handleSelectTime(ctx context.Context, user *model.User, state *model.ConversationState, msg *model.InboundMessage) (stepResult, error) {
	timeLabel := selection(msg)
	if !timeLabelRegex.MatchString(timeLabel) {
		return stay(func(ctx context.Context) error {
			return s.sink.SendText(ctx, state.Phone, msgInvalidTime)
		}), nil
	}

	svc, err := s.services.FindByID(ctx, state.Data.ServiceID)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to resolve service: %w", err)
	}
	professional, err := s.professionals.FindByID(ctx, state.Data.ProfessionalID)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to resolve professional: %w", err)
	}

	loc := s.userLocation(state.Phone)
	startTime, err := time.ParseInLocation("2006-01-02 15:04", state.Data.Date+" "+timeLabel, loc)
	if err != nil {
		return stay(func(ctx context.Context) error {
			return s.sink.SendText(ctx, state.Phone, msgInvalidTime)
		}), nil
	}
	endTime := startTime.Add(svc.Duration())

	eventID, err := s.gateway.CreateEvent(ctx, professional, calendar.Event{
		Summary:     fmt.Sprintf("Agendamento: %s - %s", svc.Name, professional.Name),
		Description: fmt.Sprintf("Cliente: %s", state.Phone),
		Start:       startTime,
		End:         endTime,
	})
	if err != nil {
		// State stays at SELECT_TIME so the user can pick again.
		return stepResult{}, fmt.Errorf("failed to create calendar event: %w", err)
	}

	appointment := &model.Appointment{
		UserID:         user.ID,
		ProfessionalID: professional.ID,
		ServiceID:      svc.ID,
		StartTime:      startTime.UTC(),
		EndTime:        endTime.UTC(),
		Status:         model.AppointmentScheduled,
		GoogleEventID:  eventID,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return stepResult{}, fmt.Errorf("failed to persist appointment: %w", err)
	}

	s.cfg.Log.Info("Booking committed",
		"phone", state.Phone,
		"appointment_id", appointment.ID,
		"professional_id", professional.ID,
		"service_id", svc.ID,
		"start_time", startTime,
		"event_id", eventID,
	)

	dateStr := state.Data.Date
	return stepResult{
		outcome: outcomeComplete,
		reply: func(ctx context.Context) error {
			return s.sink.SendText(ctx, state.Phone,
				fmt.Sprintf("Agendamento confirmado para %s às %s! Protocolo: %s", dateStr, timeLabel, eventID),
			)
		},
	}, nil
}

// businessTime anchors an HH:MM config value on the given calendar date in
// the user's wall-clock location.
func (s *schedulingService) businessTime(date time.Time, hhmm string, loc *time.Location) time.Time {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		parsed, _ = time.Parse("15:04", config.DefaultBusinessDayStart)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc)
}

func (s *schedulingService) userLocation(phone string) *time.Location {
	tz := locale.InferTimezoneFromPhone(phone)
	loc, err := time.LoadLocation(tz)
	if err == nil {
		return loc
	}
	loc, err = time.LoadLocation(s.cfg.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
