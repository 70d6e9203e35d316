package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"agendazap/internal/calendar"
	catalogerrors "agendazap/internal/catalog/errors"
	professionalserrors "agendazap/internal/professionals/errors"
	schedulingerrors "agendazap/internal/scheduling/errors"
	"agendazap/pkg/config"
	"agendazap/pkg/logger"
	"agendazap/pkg/model"
)

const testPhone = "+5511999990000"

// Mock repositories for testing

type mockStateRepository struct {
	getFunc    func(ctx context.Context, phone string) (*model.ConversationState, error)
	saveFunc   func(ctx context.Context, state *model.ConversationState) error
	deleteFunc func(ctx context.Context, phone string) error
}

func (m *mockStateRepository) Get(ctx context.Context, phone string) (*model.ConversationState, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, phone)
	}
	return nil, schedulingerrors.ErrStateNotFound
}

func (m *mockStateRepository) Save(ctx context.Context, state *model.ConversationState) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, state)
	}
	return nil
}

func (m *mockStateRepository) Delete(ctx context.Context, phone string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, phone)
	}
	return nil
}

type mockAppointmentRepository struct {
	createFunc              func(ctx context.Context, appointment *model.Appointment) error
	findFutureScheduledFunc func(ctx context.Context, professionalID string, after time.Time) ([]*model.Appointment, error)
	updateStatusFunc        func(ctx context.Context, id string, status model.AppointmentStatus) error
}

func (m *mockAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, appointment)
	}
	return nil
}

func (m *mockAppointmentRepository) FindFutureScheduled(ctx context.Context, professionalID string, after time.Time) ([]*model.Appointment, error) {
	if m.findFutureScheduledFunc != nil {
		return m.findFutureScheduledFunc(ctx, professionalID, after)
	}
	return nil, nil
}

func (m *mockAppointmentRepository) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

type mockLockRepository struct {
	acquireFunc func(ctx context.Context, phone string) error
	releaseFunc func(ctx context.Context, phone string) error
}

func (m *mockLockRepository) Acquire(ctx context.Context, phone string) error {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, phone)
	}
	return nil
}

func (m *mockLockRepository) Release(ctx context.Context, phone string) error {
	if m.releaseFunc != nil {
		return m.releaseFunc(ctx, phone)
	}
	return nil
}

type mockUserRepository struct {
	findOrCreateFunc func(ctx context.Context, phone string) (*model.User, error)
}

func (m *mockUserRepository) FindOrCreate(ctx context.Context, phone string) (*model.User, error) {
	if m.findOrCreateFunc != nil {
		return m.findOrCreateFunc(ctx, phone)
	}
	return &model.User{ID: "64b0c8f2a1d2e3f405060708", Phone: phone}, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return &model.User{ID: id, Phone: testPhone}, nil
}

type mockServiceRepository struct {
	listFunc     func(ctx context.Context) ([]*model.Service, error)
	findByIDFunc func(ctx context.Context, id string) (*model.Service, error)
}

func (m *mockServiceRepository) List(ctx context.Context) ([]*model.Service, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockServiceRepository) FindByID(ctx context.Context, id string) (*model.Service, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, catalogerrors.ErrServiceNotFound
}

type mockProfessionalRepository struct {
	createFunc     func(ctx context.Context, professional *model.Professional) error
	findByIDFunc   func(ctx context.Context, id string) (*model.Professional, error)
	listFunc       func(ctx context.Context) ([]*model.Professional, error)
	updateFunc     func(ctx context.Context, id string, updates *model.ProfessionalUpdate) error
	saveTokensFunc func(ctx context.Context, id string, tokens *model.ProfessionalTokens) error
	softDeleteFunc func(ctx context.Context, id string) error
}

func (m *mockProfessionalRepository) Create(ctx context.Context, professional *model.Professional) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, professional)
	}
	return nil
}

func (m *mockProfessionalRepository) FindByID(ctx context.Context, id string) (*model.Professional, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, professionalserrors.ErrNotFound
}

func (m *mockProfessionalRepository) List(ctx context.Context) ([]*model.Professional, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockProfessionalRepository) Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, updates)
	}
	return nil
}

func (m *mockProfessionalRepository) SaveTokens(ctx context.Context, id string, tokens *model.ProfessionalTokens) error {
	if m.saveTokensFunc != nil {
		return m.saveTokensFunc(ctx, id, tokens)
	}
	return nil
}

func (m *mockProfessionalRepository) SoftDelete(ctx context.Context, id string) error {
	if m.softDeleteFunc != nil {
		return m.softDeleteFunc(ctx, id)
	}
	return nil
}

type mockGateway struct {
	checkAvailabilityFunc func(ctx context.Context, professional *model.Professional, start, end time.Time) ([]model.TimePeriod, error)
	createEventFunc       func(ctx context.Context, professional *model.Professional, event calendar.Event) (string, error)
	deleteEventFunc       func(ctx context.Context, professional *model.Professional, eventID string) error
}

func (m *mockGateway) CheckAvailability(ctx context.Context, professional *model.Professional, start, end time.Time) ([]model.TimePeriod, error) {
	if m.checkAvailabilityFunc != nil {
		return m.checkAvailabilityFunc(ctx, professional, start, end)
	}
	return nil, nil
}

func (m *mockGateway) CreateEvent(ctx context.Context, professional *model.Professional, event calendar.Event) (string, error) {
	if m.createEventFunc != nil {
		return m.createEventFunc(ctx, professional, event)
	}
	return "evt-1", nil
}

func (m *mockGateway) DeleteEvent(ctx context.Context, professional *model.Professional, eventID string) error {
	if m.deleteEventFunc != nil {
		return m.deleteEventFunc(ctx, professional, eventID)
	}
	return nil
}

// mockSink records every outbound message.
type mockSink struct {
	texts       []string
	optionLists []struct {
		text     string
		sections []model.OptionSection
	}
	buttonLists []string
}

func (m *mockSink) SendText(ctx context.Context, phone, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockSink) SendOptionList(ctx context.Context, phone, text string, sections []model.OptionSection, opts model.SendOptions) error {
	m.optionLists = append(m.optionLists, struct {
		text     string
		sections []model.OptionSection
	}{text, sections})
	return nil
}

func (m *mockSink) SendButtonList(ctx context.Context, phone, text string, buttons []model.Button) error {
	m.buttonLists = append(m.buttonLists, text)
	return nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &config.Config{
		Log:                 log,
		BusinessDayStart:    "08:00",
		BusinessDayEnd:      "18:00",
		SlotStep:            time.Hour,
		MaxListRows:         10,
		DefaultTimezone:     "America/Sao_Paulo",
		CancellationKeyword: "cancelar",
	}
}

type engineFixture struct {
	states        *mockStateRepository
	appointments  *mockAppointmentRepository
	locks         *mockLockRepository
	users         *mockUserRepository
	services      *mockServiceRepository
	professionals *mockProfessionalRepository
	gateway       *mockGateway
	sink          *mockSink
	engine        *schedulingService
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		states:        &mockStateRepository{},
		appointments:  &mockAppointmentRepository{},
		locks:         &mockLockRepository{},
		users:         &mockUserRepository{},
		services:      &mockServiceRepository{},
		professionals: &mockProfessionalRepository{},
		gateway:       &mockGateway{},
		sink:          &mockSink{},
	}
	f.engine = &schedulingService{
		states:        f.states,
		appointments:  f.appointments,
		locks:         f.locks,
		users:         f.users,
		services:      f.services,
		professionals: f.professionals,
		gateway:       f.gateway,
		sink:          f.sink,
		cfg:           testConfig(),
	}
	return f
}

func textMessage(text string) *model.InboundMessage {
	return &model.InboundMessage{Phone: testPhone, Text: text, Kind: model.KindText}
}

func listReply(rowID string) *model.InboundMessage {
	return &model.InboundMessage{
		Phone:   testPhone,
		Kind:    model.KindListResponse,
		Payload: model.InboundPayload{SelectedRowID: rowID},
	}
}

func TestHandleMessage_CancelWithoutState(t *testing.T) {
	f := newEngineFixture()
	saved := false
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		saved = true
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("Cancelar")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved {
		t.Error("cancellation must not create a state")
	}
	if len(f.sink.texts) != 1 || f.sink.texts[0] != msgNothingToCancel {
		t.Errorf("expected %q, got %v", msgNothingToCancel, f.sink.texts)
	}
}

func TestHandleMessage_CancelDeletesState(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return &model.ConversationState{Phone: phone, Step: model.StepSelectDate}, nil
	}
	var deleted string
	f.states.deleteFunc = func(ctx context.Context, phone string) error {
		deleted = phone
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("cancelar")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != testPhone {
		t.Errorf("expected state for %s deleted, got %q", testPhone, deleted)
	}
	if len(f.sink.texts) != 1 || f.sink.texts[0] != msgCanceled {
		t.Errorf("expected cancellation ack, got %v", f.sink.texts)
	}
}

func TestHandleMessage_ConfiguredCancellationKeyword(t *testing.T) {
	f := newEngineFixture()
	f.engine.cfg.CancellationKeyword = "Desistir"
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return &model.ConversationState{Phone: phone, Step: model.StepSelectService}, nil
	}
	var deleted string
	f.states.deleteFunc = func(ctx context.Context, phone string) error {
		deleted = phone
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("desistir")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != testPhone {
		t.Errorf("expected state for %s deleted, got %q", testPhone, deleted)
	}

	// The default keyword no longer cancels.
	f2 := newEngineFixture()
	f2.engine.cfg.CancellationKeyword = "desistir"
	f2.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return &model.ConversationState{Phone: phone, Step: model.StepSelectService}, nil
	}
	canceled := false
	f2.states.deleteFunc = func(ctx context.Context, phone string) error {
		canceled = true
		return nil
	}
	if err := f2.engine.HandleMessage(context.Background(), textMessage("cancelar")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if canceled {
		t.Error("default keyword must not cancel when another keyword is configured")
	}
}

func TestHandleMessage_IgnoresUnrelatedText(t *testing.T) {
	f := newEngineFixture()

	if err := f.engine.HandleMessage(context.Background(), textMessage("bom dia")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sink.texts) != 0 || len(f.sink.optionLists) != 0 {
		t.Errorf("unrelated text must be a no-op, sent %v %v", f.sink.texts, f.sink.optionLists)
	}
}

func TestHandleMessage_LockedConversation(t *testing.T) {
	f := newEngineFixture()
	f.locks.acquireFunc = func(ctx context.Context, phone string) error {
		return schedulingerrors.ErrConversationLocked
	}

	err := f.engine.HandleMessage(context.Background(), textMessage("agendar"))
	if !errors.Is(err, schedulingerrors.ErrConversationLocked) {
		t.Fatalf("expected ErrConversationLocked, got %v", err)
	}
}

func TestStartBooking_SendsServiceList(t *testing.T) {
	f := newEngineFixture()
	f.services.listFunc = func(ctx context.Context) ([]*model.Service, error) {
		return []*model.Service{
			{ID: "svc1", Name: "Corte", DurationMinutes: 60, Price: 50},
			{ID: "svc2", Name: "Barba", DurationMinutes: 30},
		}, nil
	}
	var savedState *model.ConversationState
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		savedState = state
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("quero agendar um horário")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if savedState == nil || savedState.Step != model.StepSelectService {
		t.Fatalf("expected state at SELECT_SERVICE, got %+v", savedState)
	}
	if len(f.sink.optionLists) != 1 {
		t.Fatalf("expected one option list, got %d", len(f.sink.optionLists))
	}
	rows := f.sink.optionLists[0].sections[0].Rows
	if len(rows) != 2 || rows[0].ID != "svc1" {
		t.Errorf("unexpected rows: %+v", rows)
	}
	if !strings.Contains(rows[0].Description, "R$ 50.00") {
		t.Errorf("expected price in description, got %q", rows[0].Description)
	}
	if !strings.Contains(rows[1].Description, "Sob consulta") {
		t.Errorf("expected consulta fallback for zero price, got %q", rows[1].Description)
	}
}

func TestStartBooking_ButtonAffirmative(t *testing.T) {
	f := newEngineFixture()
	f.services.listFunc = func(ctx context.Context) ([]*model.Service, error) {
		return []*model.Service{{ID: "svc1", Name: "Corte", DurationMinutes: 60}}, nil
	}
	saved := false
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		saved = true
		return nil
	}

	msg := &model.InboundMessage{
		Phone:   testPhone,
		Kind:    model.KindButtonResponse,
		Payload: model.InboundPayload{SelectedButtonID: "sim"},
	}
	if err := f.engine.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !saved {
		t.Error("affirmative button must start a booking")
	}
}

func TestStartBooking_NoServices(t *testing.T) {
	f := newEngineFixture()
	saved := false
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		saved = true
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("agendar")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved {
		t.Error("empty catalog must not create a state")
	}
	if len(f.sink.texts) != 1 || f.sink.texts[0] != msgNoServices {
		t.Errorf("expected %q, got %v", msgNoServices, f.sink.texts)
	}
}

func TestSelectService_InvalidSelectionStays(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return &model.ConversationState{Phone: phone, Step: model.StepSelectService}, nil
	}
	saved := false
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		saved = true
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), listReply("nope")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved {
		t.Error("invalid selection must not advance the state")
	}
	if len(f.sink.texts) != 1 || f.sink.texts[0] != msgInvalidService {
		t.Errorf("expected re-prompt, got %v", f.sink.texts)
	}
}

func TestSelectService_AdvancesToProfessional(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return &model.ConversationState{Phone: phone, Step: model.StepSelectService}, nil
	}
	f.services.findByIDFunc = func(ctx context.Context, id string) (*model.Service, error) {
		return &model.Service{ID: id, Name: "Corte", DurationMinutes: 60}, nil
	}
	f.professionals.listFunc = func(ctx context.Context) ([]*model.Professional, error) {
		return []*model.Professional{{ID: "pro1", Name: "Ana", Specialty: "Cabelo"}}, nil
	}
	var savedState *model.ConversationState
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		savedState = state
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), listReply("svc1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if savedState == nil || savedState.Step != model.StepSelectProfessional {
		t.Fatalf("expected SELECT_PROFESSIONAL, got %+v", savedState)
	}
	if savedState.Data.ServiceID != "svc1" {
		t.Errorf("expected service id stored, got %q", savedState.Data.ServiceID)
	}
	if len(f.sink.optionLists) != 1 {
		t.Fatalf("expected professional list, got %d lists", len(f.sink.optionLists))
	}
	if f.sink.optionLists[0].sections[0].Rows[0].ID != "pro1" {
		t.Errorf("unexpected professional rows: %+v", f.sink.optionLists[0].sections)
	}
}

func TestSelectProfessional_AdvancesToDate(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return &model.ConversationState{
			Phone: phone,
			Step:  model.StepSelectProfessional,
			Data:  model.BookingData{ServiceID: "svc1"},
		}, nil
	}
	f.professionals.findByIDFunc = func(ctx context.Context, id string) (*model.Professional, error) {
		return &model.Professional{ID: id, Name: "Ana", Specialty: "Cabelo", CalendarID: "cal1"}, nil
	}
	var savedState *model.ConversationState
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		savedState = state
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), listReply("pro1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if savedState == nil || savedState.Step != model.StepSelectDate {
		t.Fatalf("expected SELECT_DATE, got %+v", savedState)
	}
	if savedState.Data.ProfessionalID != "pro1" {
		t.Errorf("expected professional id stored, got %q", savedState.Data.ProfessionalID)
	}
	if len(f.sink.texts) != 1 || !strings.Contains(f.sink.texts[0], "Ana") {
		t.Errorf("expected date prompt naming the professional, got %v", f.sink.texts)
	}
}

func dateState(phone string) *model.ConversationState {
	return &model.ConversationState{
		Phone: phone,
		Step:  model.StepSelectDate,
		Data:  model.BookingData{ServiceID: "svc1", ProfessionalID: "pro1"},
	}
}

func TestSelectDate_UnparseableReprompts(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return dateState(phone), nil
	}
	saved := false
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		saved = true
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("depois do carnaval")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved {
		t.Error("unparseable date must not advance state")
	}
	if len(f.sink.texts) != 1 || f.sink.texts[0] != msgInvalidDate {
		t.Errorf("expected %q, got %v", msgInvalidDate, f.sink.texts)
	}
}

func TestSelectDate_PastDateReprompts(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return dateState(phone), nil
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("01/01/2020")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sink.texts) != 1 || f.sink.texts[0] != msgPastDate {
		t.Errorf("expected %q, got %v", msgPastDate, f.sink.texts)
	}
}

func TestSelectDate_NoAvailabilityRevertsStep(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return dateState(phone), nil
	}
	f.professionals.findByIDFunc = func(ctx context.Context, id string) (*model.Professional, error) {
		return &model.Professional{ID: id, Name: "Ana", CalendarID: "cal1"}, nil
	}
	f.services.findByIDFunc = func(ctx context.Context, id string) (*model.Service, error) {
		return &model.Service{ID: id, Name: "Corte", DurationMinutes: 60}, nil
	}
	f.gateway.checkAvailabilityFunc = func(ctx context.Context, professional *model.Professional, start, end time.Time) ([]model.TimePeriod, error) {
		// Whole window busy.
		return []model.TimePeriod{{Start: start, End: end}}, nil
	}
	var steps []model.ConversationStep
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		steps = append(steps, state.Step)
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("amanhã")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Tentative advance, then rollback.
	if len(steps) != 2 || steps[0] != model.StepSelectTime || steps[1] != model.StepSelectDate {
		t.Fatalf("expected advance then revert, got %v", steps)
	}
	if len(f.sink.texts) != 1 || f.sink.texts[0] != msgNoFreeSlots {
		t.Errorf("expected %q, got %v", msgNoFreeSlots, f.sink.texts)
	}
}

func TestSelectDate_OffersCappedSlotList(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return dateState(phone), nil
	}
	f.professionals.findByIDFunc = func(ctx context.Context, id string) (*model.Professional, error) {
		return &model.Professional{ID: id, Name: "Ana", CalendarID: "cal1"}, nil
	}
	f.services.findByIDFunc = func(ctx context.Context, id string) (*model.Service, error) {
		return &model.Service{ID: id, Name: "Corte", DurationMinutes: 60}, nil
	}
	var savedState *model.ConversationState
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		savedState = state
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("amanhã")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if savedState == nil || savedState.Step != model.StepSelectTime {
		t.Fatalf("expected SELECT_TIME, got %+v", savedState)
	}
	if savedState.Data.Date == "" {
		t.Error("expected date stored in state data")
	}
	if len(f.sink.optionLists) != 1 {
		t.Fatalf("expected slot list, got %d lists", len(f.sink.optionLists))
	}
	rows := f.sink.optionLists[0].sections[0].Rows
	// 08:00-18:00 window, 60 min service, hourly step: 08:00..17:00 is ten
	// slots, exactly the channel cap.
	if len(rows) != 10 {
		t.Fatalf("expected 10 slot rows, got %d", len(rows))
	}
	if rows[0].ID != "08:00" || rows[9].ID != "17:00" {
		t.Errorf("unexpected slot bounds: first %q last %q", rows[0].ID, rows[9].ID)
	}
}

func TestSelectTime_InvalidFormatReprompts(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return &model.ConversationState{
			Phone: phone,
			Step:  model.StepSelectTime,
			Data:  model.BookingData{ServiceID: "svc1", ProfessionalID: "pro1", Date: "2030-05-10"},
		}, nil
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("dez da manhã")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sink.texts) != 1 || f.sink.texts[0] != msgInvalidTime {
		t.Errorf("expected %q, got %v", msgInvalidTime, f.sink.texts)
	}
}

func TestSelectTime_CommitsBooking(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return &model.ConversationState{
			Phone: phone,
			Step:  model.StepSelectTime,
			Data:  model.BookingData{ServiceID: "svc1", ProfessionalID: "pro1", Date: "2030-05-10"},
		}, nil
	}
	f.services.findByIDFunc = func(ctx context.Context, id string) (*model.Service, error) {
		return &model.Service{ID: id, Name: "Corte", DurationMinutes: 60}, nil
	}
	f.professionals.findByIDFunc = func(ctx context.Context, id string) (*model.Professional, error) {
		return &model.Professional{ID: id, Name: "Ana", CalendarID: "cal1"}, nil
	}
	f.gateway.createEventFunc = func(ctx context.Context, professional *model.Professional, event calendar.Event) (string, error) {
		if !strings.Contains(event.Summary, "Corte") || !strings.Contains(event.Summary, "Ana") {
			t.Errorf("unexpected event summary: %q", event.Summary)
		}
		if event.End.Sub(event.Start) != time.Hour {
			t.Errorf("expected 1h event, got %s", event.End.Sub(event.Start))
		}
		return "evt-42", nil
	}
	var created *model.Appointment
	f.appointments.createFunc = func(ctx context.Context, appointment *model.Appointment) error {
		created = appointment
		return nil
	}
	var deleted string
	f.states.deleteFunc = func(ctx context.Context, phone string) error {
		deleted = phone
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), listReply("10:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected appointment persisted")
	}
	if created.Status != model.AppointmentScheduled {
		t.Errorf("expected SCHEDULED, got %s", created.Status)
	}
	if created.GoogleEventID != "evt-42" {
		t.Errorf("expected event id stored, got %q", created.GoogleEventID)
	}
	if deleted != testPhone {
		t.Error("expected conversation state deleted after commit")
	}
	if len(f.sink.texts) != 1 || !strings.Contains(f.sink.texts[0], "evt-42") {
		t.Errorf("expected confirmation with event reference, got %v", f.sink.texts)
	}
}

func TestSelectTime_GatewayFailureKeepsState(t *testing.T) {
	f := newEngineFixture()
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		return &model.ConversationState{
			Phone: phone,
			Step:  model.StepSelectTime,
			Data:  model.BookingData{ServiceID: "svc1", ProfessionalID: "pro1", Date: "2030-05-10"},
		}, nil
	}
	f.services.findByIDFunc = func(ctx context.Context, id string) (*model.Service, error) {
		return &model.Service{ID: id, Name: "Corte", DurationMinutes: 60}, nil
	}
	f.professionals.findByIDFunc = func(ctx context.Context, id string) (*model.Professional, error) {
		return &model.Professional{ID: id, Name: "Ana", CalendarID: "cal1"}, nil
	}
	f.gateway.createEventFunc = func(ctx context.Context, professional *model.Professional, event calendar.Event) (string, error) {
		return "", errors.New("calendar unreachable")
	}
	deleted := false
	f.states.deleteFunc = func(ctx context.Context, phone string) error {
		deleted = true
		return nil
	}

	if err := f.engine.HandleMessage(context.Background(), listReply("10:00")); err != nil {
		t.Fatalf("dispatcher must swallow handler errors, got %v", err)
	}
	if deleted {
		t.Error("gateway failure must keep the state for retry")
	}
	if len(f.sink.texts) != 1 || f.sink.texts[0] != msgGenericError {
		t.Errorf("expected generic error message, got %v", f.sink.texts)
	}
}

// TestFullBookingFlow walks the whole conversation against an in-memory
// state store: intent, service, professional, date, time, commit.
func TestFullBookingFlow(t *testing.T) {
	f := newEngineFixture()

	store := map[string]*model.ConversationState{}
	f.states.getFunc = func(ctx context.Context, phone string) (*model.ConversationState, error) {
		state, ok := store[phone]
		if !ok {
			return nil, schedulingerrors.ErrStateNotFound
		}
		copied := *state
		return &copied, nil
	}
	f.states.saveFunc = func(ctx context.Context, state *model.ConversationState) error {
		copied := *state
		store[state.Phone] = &copied
		return nil
	}
	f.states.deleteFunc = func(ctx context.Context, phone string) error {
		delete(store, phone)
		return nil
	}

	f.services.listFunc = func(ctx context.Context) ([]*model.Service, error) {
		return []*model.Service{{ID: "svc1", Name: "Haircut", DurationMinutes: 60, Price: 80}}, nil
	}
	f.services.findByIDFunc = func(ctx context.Context, id string) (*model.Service, error) {
		if id != "svc1" {
			return nil, catalogerrors.ErrServiceNotFound
		}
		return &model.Service{ID: "svc1", Name: "Haircut", DurationMinutes: 60, Price: 80}, nil
	}
	f.professionals.listFunc = func(ctx context.Context) ([]*model.Professional, error) {
		return []*model.Professional{{ID: "pro1", Name: "P1", Specialty: "Hair", CalendarID: "cal1"}}, nil
	}
	f.professionals.findByIDFunc = func(ctx context.Context, id string) (*model.Professional, error) {
		if id != "pro1" {
			return nil, professionalserrors.ErrNotFound
		}
		return &model.Professional{ID: "pro1", Name: "P1", Specialty: "Hair", CalendarID: "cal1"}, nil
	}

	var created *model.Appointment
	f.appointments.createFunc = func(ctx context.Context, appointment *model.Appointment) error {
		created = appointment
		return nil
	}
	f.gateway.createEventFunc = func(ctx context.Context, professional *model.Professional, event calendar.Event) (string, error) {
		return "evt-e2e", nil
	}

	ctx := context.Background()
	steps := []*model.InboundMessage{
		textMessage("quero marcar um horário"),
		listReply("svc1"),
		listReply("pro1"),
		textMessage("amanhã"),
		listReply("10:00"),
	}
	for i, msg := range steps {
		if err := f.engine.HandleMessage(ctx, msg); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
	}

	if created == nil {
		t.Fatal("expected committed appointment")
	}
	if created.Status != model.AppointmentScheduled || created.GoogleEventID != "evt-e2e" {
		t.Errorf("unexpected appointment: %+v", created)
	}
	if _, ok := store[testPhone]; ok {
		t.Error("conversation state must be deleted after commit")
	}

	confirmation := f.sink.texts[len(f.sink.texts)-1]
	if !strings.Contains(confirmation, "evt-e2e") || !strings.Contains(confirmation, "10:00") {
		t.Errorf("unexpected confirmation: %q", confirmation)
	}

	// Re-sending the time selection after completion is a no-op: no state
	// exists and a bare "10:00" carries no booking intent.
	before := len(f.sink.texts) + len(f.sink.optionLists)
	if err := f.engine.HandleMessage(ctx, listReply("10:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sink.texts)+len(f.sink.optionLists) != before {
		t.Error("duplicate submission after completion must be silent")
	}
}

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	now := time.Date(2026, 8, 31, 15, 30, 0, 0, loc)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "hoje", input: "hoje", want: time.Date(2026, 8, 31, 0, 0, 0, 0, loc)},
		{name: "amanha accented", input: "Amanhã", want: time.Date(2026, 9, 1, 0, 0, 0, 0, loc)},
		{name: "amanha plain", input: "amanha", want: time.Date(2026, 9, 1, 0, 0, 0, 0, loc)},
		{name: "day month", input: "25/12", want: time.Date(2026, 12, 25, 0, 0, 0, 0, loc)},
		{name: "full date", input: "25/10/2027", want: time.Date(2027, 10, 25, 0, 0, 0, 0, loc)},
		{name: "whitespace", input: "  05/09  ", want: time.Date(2026, 9, 5, 0, 0, 0, 0, loc)},
		{name: "rollover day", input: "32/01", wantErr: true},
		{name: "rollover month", input: "10/13", wantErr: true},
		{name: "not a date", input: "segunda-feira", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "too many parts", input: "1/2/3/4", wantErr: true},
		{name: "non-numeric", input: "dd/mm", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.input, now)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseDate(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDate(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate_LeapYear(t *testing.T) {
	now := time.Date(2028, 1, 10, 12, 0, 0, 0, time.UTC)

	if _, err := parseDate("29/02", now); err != nil {
		t.Errorf("29/02 must parse in a leap year: %v", err)
	}

	now = time.Date(2027, 1, 10, 12, 0, 0, 0, time.UTC)
	if got, err := parseDate("29/02", now); err == nil {
		t.Errorf("29/02/2027 is not a real date, got %v", got)
	}
}

func TestBusinessTime(t *testing.T) {
	f := newEngineFixture()
	loc := time.UTC
	date := time.Date(2030, 5, 10, 0, 0, 0, 0, loc)

	start := f.engine.businessTime(date, "08:00", loc)
	if start.Hour() != 8 || start.Minute() != 0 {
		t.Errorf("expected 08:00, got %s", start.Format("15:04"))
	}
	end := f.engine.businessTime(date, "18:30", loc)
	if end.Hour() != 18 || end.Minute() != 30 {
		t.Errorf("expected 18:30, got %s", end.Format("15:04"))
	}
}

func TestHandleMessage_UserUpsertFailurePropagates(t *testing.T) {
	f := newEngineFixture()
	f.users.findOrCreateFunc = func(ctx context.Context, phone string) (*model.User, error) {
		return nil, fmt.Errorf("mongo down")
	}

	if err := f.engine.HandleMessage(context.Background(), textMessage("agendar")); err == nil {
		t.Fatal("expected error when the user upsert fails")
	}
	if len(f.sink.texts) != 0 {
		t.Errorf("no message should be sent before the user resolves, got %v", f.sink.texts)
	}
}
