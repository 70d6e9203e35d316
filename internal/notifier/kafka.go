package notifier

import (
	"context"
	"fmt"

	"agendazap/pkg/kafka"
	"agendazap/pkg/model"
)

// Event types published on the outbound topic.
const (
	EventOutboundText       = "whatsapp.outbound.text"
	EventOutboundOptionList = "whatsapp.outbound.option_list"
	EventOutboundButtonList = "whatsapp.outbound.button_list"
)

// publisher is the subset of the Kafka producer the sink needs.
type publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaSink publishes outbound messages keyed by phone so replies to one
// conversation stay ordered on a single partition.
type KafkaSink struct {
	producer publisher
	source   string
}

func NewKafkaSink(producer publisher, source string) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		source:   source,
	}
}

func (s *KafkaSink) SendText(ctx context.Context, phone, text string) error {
	return s.publish(ctx, EventOutboundText, &model.OutboundMessage{
		Phone: phone,
		Type:  model.OutboundText,
		Text:  text,
	})
}

func (s *KafkaSink) SendOptionList(ctx context.Context, phone, text string, sections []model.OptionSection, opts model.SendOptions) error {
	return s.publish(ctx, EventOutboundOptionList, &model.OutboundMessage{
		Phone:    phone,
		Type:     model.OutboundOptionList,
		Text:     text,
		Sections: sections,
		Options:  opts,
	})
}

func (s *KafkaSink) SendButtonList(ctx context.Context, phone, text string, buttons []model.Button) error {
	return s.publish(ctx, EventOutboundButtonList, &model.OutboundMessage{
		Phone:   phone,
		Type:    model.OutboundButtonList,
		Text:    text,
		Buttons: buttons,
	})
}

func (s *KafkaSink) publish(ctx context.Context, eventType string, out *model.OutboundMessage) error {
	msg := kafka.NewMessage().
		WithKey(out.Phone).
		WithValue(out).
		WithEventType(eventType).
		WithSource(s.source).
		Build()

	if err := s.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish outbound message: %w", err)
	}
	return nil
}
