// Package messenger delivers outbound conversation messages through a
// WhatsApp HTTP provider (Z-API wire shape).
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"agendazap/pkg/config"
	"agendazap/pkg/logger"
	"agendazap/pkg/model"
)

// ZAPIProvider implements notifier.Sink against the Z-API send endpoints.
type ZAPIProvider struct {
	baseURL     string
	instanceID  string
	token       string
	clientToken string
	httpClient  *http.Client
	log         *logger.Logger
}

func NewZAPIProvider(cfg *config.Config) *ZAPIProvider {
	if cfg.ZAPIInstanceID == "" || cfg.ZAPIToken == "" {
		cfg.Log.Warn("Z-API credentials not fully configured")
	}
	return &ZAPIProvider{
		baseURL:     strings.TrimRight(cfg.ZAPIBaseURL, "/"),
		instanceID:  cfg.ZAPIInstanceID,
		token:       cfg.ZAPIToken,
		clientToken: cfg.ZAPIClientToken,
		httpClient:  &http.Client{Timeout: cfg.GatewayTimeout},
		log:         cfg.Log,
	}
}

type sendResponse struct {
	MessageID string `json:"messageId"`
	ZaapID    string `json:"zaapId"`
	ID        string `json:"id"`
}

func (p *ZAPIProvider) SendText(ctx context.Context, phone, text string) error {
	payload := map[string]any{
		"phone":   phone,
		"message": text,
	}
	return p.post(ctx, "send-text", phone, payload)
}

func (p *ZAPIProvider) SendOptionList(ctx context.Context, phone, text string, sections []model.OptionSection, opts model.SendOptions) error {
	// Z-API takes a single {title, rows} object; multiple sections fall
	// back to the sections array form.
	var optionList any
	switch len(sections) {
	case 0:
		return fmt.Errorf("option list requires at least one section")
	case 1:
		optionList = map[string]any{
			"title": sections[0].Title,
			"rows":  sections[0].Rows,
		}
	default:
		title := opts.Title
		if title == "" {
			title = "Menu"
		}
		optionList = map[string]any{
			"title":    title,
			"sections": sections,
		}
	}

	buttonLabel := opts.ButtonLabel
	if buttonLabel == "" {
		buttonLabel = "Opções"
	}
	payload := map[string]any{
		"phone":       phone,
		"message":     text,
		"title":       opts.Title,
		"footer":      opts.Footer,
		"buttonLabel": buttonLabel,
		"optionList":  optionList,
	}
	return p.post(ctx, "send-option-list", phone, payload)
}

func (p *ZAPIProvider) SendButtonList(ctx context.Context, phone, text string, buttons []model.Button) error {
	payload := map[string]any{
		"phone":   phone,
		"message": text,
		"buttonList": map[string]any{
			"buttons": buttons,
		},
	}
	return p.post(ctx, "send-button-list", phone, payload)
}

func (p *ZAPIProvider) post(ctx context.Context, endpoint, phone string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", endpoint, err)
	}

	url := fmt.Sprintf("%s/instances/%s/token/%s/%s", p.baseURL, p.instanceID, p.token, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-Token", p.clientToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, respBody)
	}

	var result sendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		p.log.Warn("Unexpected provider response", "endpoint", endpoint, "error", err)
		return nil
	}
	p.log.Info("Message delivered", "endpoint", endpoint, "phone", phone, "message_id", result.MessageID)
	return nil
}
