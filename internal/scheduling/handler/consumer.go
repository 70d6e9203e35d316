package handler

import (
	"context"
	"errors"

	schedulingerrors "agendazap/internal/scheduling/errors"
	"agendazap/internal/scheduling/service"
	"agendazap/pkg/config"
	"agendazap/pkg/kafka"
	"agendazap/pkg/model"
	"agendazap/pkg/sanitizer"
)

// InboundHandler turns inbound topic messages into state-machine dispatches.
type InboundHandler struct {
	engine service.SchedulingService
	cfg    *config.Config
}

func NewInboundHandler(engine service.SchedulingService, cfg *config.Config) *InboundHandler {
	return &InboundHandler{
		engine: engine,
		cfg:    cfg,
	}
}

// Handle is the kafka.MessageHandler for the inbound topic. Malformed
// payloads are permanent failures headed for the DLQ; a held conversation
// lock is transient so redelivery retries it.
func (h *InboundHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var inbound model.InboundMessage
	if err := msg.DecodeValue(&inbound); err != nil {
		return kafka.NewPermanentError("failed to decode inbound message", err)
	}
	if inbound.Phone == "" {
		inbound.Phone = msg.Key
	}
	inbound.Phone = sanitizer.NormalizePhone(inbound.Phone)
	if inbound.Phone == "" {
		return kafka.NewPermanentError("inbound message has no phone", schedulingerrors.ErrInvalidPhone)
	}

	if err := h.engine.HandleMessage(ctx, &inbound); err != nil {
		if errors.Is(err, schedulingerrors.ErrConversationLocked) {
			return kafka.NewTransientError("conversation busy", err)
		}
		h.cfg.Log.Error("Inbound dispatch failed", "phone", inbound.Phone, "error", err)
		return kafka.NewTransientError("inbound dispatch failed", err)
	}
	return nil
}
