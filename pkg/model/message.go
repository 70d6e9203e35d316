package model

import "time"

// Inbound message kinds as reported by the WhatsApp webhook bridge.
const (
	KindText           = "text"
	KindButtonResponse = "button_response"
	KindListResponse   = "list_response"
)

// InboundPayload carries the structured part of an interactive reply.
type InboundPayload struct {
	SelectedRowID    string `json:"selected_row_id,omitempty"`
	SelectedButtonID string `json:"selected_button_id,omitempty"`
	Label            string `json:"label,omitempty"`
}

// InboundMessage is the Kafka payload for one user message. The topic is
// keyed by phone so a single partition sees every message of a conversation
// in order.
type InboundMessage struct {
	Phone      string         `json:"phone" validate:"required"`
	Text       string         `json:"text"`
	Kind       string         `json:"kind" validate:"required,oneof=text button_response list_response"`
	Payload    InboundPayload `json:"payload,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Outbound message types.
const (
	OutboundText       = "text"
	OutboundOptionList = "option_list"
	OutboundButtonList = "button_list"
)

type OptionRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type OptionSection struct {
	Title string      `json:"title"`
	Rows  []OptionRow `json:"rows"`
}

type Button struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SendOptions tunes the interactive message chrome.
type SendOptions struct {
	Title       string `json:"title,omitempty"`
	ButtonLabel string `json:"button_label,omitempty"`
	Footer      string `json:"footer,omitempty"`
}

// OutboundMessage is the Kafka payload for one reply to a user. Type selects
// which of the optional fields are meaningful.
type OutboundMessage struct {
	Phone    string          `json:"phone" validate:"required"`
	Type     string          `json:"type" validate:"required,oneof=text option_list button_list"`
	Text     string          `json:"text"`
	Sections []OptionSection `json:"sections,omitempty"`
	Buttons  []Button        `json:"buttons,omitempty"`
	Options  SendOptions     `json:"options,omitempty"`
}
