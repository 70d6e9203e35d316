package notifier

import (
	"context"

	"agendazap/pkg/model"
)

// Sink delivers replies to a WhatsApp user. The conversation engine only
// depends on this interface; the production implementation publishes to the
// outbound topic for the messenger service to deliver.
type Sink interface {
	SendText(ctx context.Context, phone, text string) error
	SendOptionList(ctx context.Context, phone, text string, sections []model.OptionSection, opts model.SendOptions) error
	SendButtonList(ctx context.Context, phone, text string, buttons []model.Button) error
}
