package messenger

import (
	"context"
	"fmt"

	"agendazap/internal/notifier"
	"agendazap/pkg/config"
	"agendazap/pkg/kafka"
	"agendazap/pkg/model"
)

// OutboundHandler consumes the outbound topic and delivers each message
// through the WhatsApp provider.
type OutboundHandler struct {
	sink notifier.Sink
	cfg  *config.Config
}

func NewOutboundHandler(sink notifier.Sink, cfg *config.Config) *OutboundHandler {
	return &OutboundHandler{
		sink: sink,
		cfg:  cfg,
	}
}

func (h *OutboundHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var out model.OutboundMessage
	if err := msg.DecodeValue(&out); err != nil {
		return kafka.NewPermanentError("failed to decode outbound message", err)
	}
	if out.Phone == "" {
		return kafka.NewPermanentError("outbound message has no phone", fmt.Errorf("empty phone"))
	}

	var err error
	switch out.Type {
	case model.OutboundText:
		err = h.sink.SendText(ctx, out.Phone, out.Text)
	case model.OutboundOptionList:
		err = h.sink.SendOptionList(ctx, out.Phone, out.Text, out.Sections, out.Options)
	case model.OutboundButtonList:
		err = h.sink.SendButtonList(ctx, out.Phone, out.Text, out.Buttons)
	default:
		return kafka.NewPermanentError("unknown outbound message type", fmt.Errorf("type %q", out.Type))
	}
	if err != nil {
		// Provider hiccups are worth a redelivery.
		return kafka.NewTransientError("provider delivery failed", err)
	}
	return nil
}
