package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agendazap/pkg/config"
	"agendazap/pkg/logger"
	"agendazap/pkg/model"
)

const authEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"

// GoogleGateway talks to the Google Calendar v3 REST surface using the
// professional's stored OAuth credentials. Calls are bounded by the
// configured gateway timeout so a slow calendar surfaces as an ordinary
// handler failure instead of stalling the dispatcher.
type GoogleGateway struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	baseURL      string
	httpClient   *http.Client
	log          *logger.Logger
}

func NewGoogleGateway(cfg *config.Config) *GoogleGateway {
	return &GoogleGateway{
		clientID:     cfg.GoogleClientID,
		clientSecret: cfg.GoogleClientSecret,
		redirectURI:  cfg.GoogleRedirectURI,
		tokenURL:     cfg.GoogleTokenURL,
		baseURL:      strings.TrimRight(cfg.GoogleCalendarBaseURL, "/"),
		httpClient:   &http.Client{Timeout: cfg.GatewayTimeout},
		log:          cfg.Log,
	}
}

func (g *GoogleGateway) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", g.clientID)
	q.Set("redirect_uri", g.redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "https://www.googleapis.com/auth/calendar")
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("state", state)
	return authEndpoint + "?" + q.Encode()
}

func (g *GoogleGateway) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", g.redirectURI)
	return g.tokenRequest(ctx, form)
}

func (g *GoogleGateway) refreshTokens(ctx context.Context, refreshToken string) (Tokens, error) {
	form := url.Values{}
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")
	return g.tokenRequest(ctx, form)
}

func (g *GoogleGateway) tokenRequest(ctx context.Context, form url.Values) (Tokens, error) {
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Tokens{}, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Tokens{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return Tokens{}, fmt.Errorf("token endpoint returned no access token")
	}

	return Tokens{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		Expiry:       time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}

// accessToken returns a usable bearer token for the professional, refreshing
// through the token endpoint when the stored one is missing or expired.
func (g *GoogleGateway) accessToken(ctx context.Context, professional *model.Professional) (string, error) {
	if professional.GoogleAccessToken == "" && professional.GoogleRefreshToken == "" {
		return "", fmt.Errorf("professional %s has no calendar credentials", professional.ID)
	}

	expired := professional.TokenExpiry != nil && !professional.TokenExpiry.After(time.Now())
	if professional.GoogleAccessToken != "" && !expired {
		return professional.GoogleAccessToken, nil
	}
	if professional.GoogleRefreshToken == "" {
		return professional.GoogleAccessToken, nil
	}

	tokens, err := g.refreshTokens(ctx, professional.GoogleRefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh calendar token: %w", err)
	}
	g.log.Info("Refreshed calendar access token", "professional_id", professional.ID)
	return tokens.AccessToken, nil
}

func (g *GoogleGateway) CheckAvailability(ctx context.Context, professional *model.Professional, start, end time.Time) ([]model.TimePeriod, error) {
	reqBody := map[string]any{
		"timeMin": start.Format(time.RFC3339),
		"timeMax": end.Format(time.RFC3339),
		"items":   []map[string]string{{"id": professional.CalendarID}},
	}

	var payload struct {
		Calendars map[string]struct {
			Busy []struct {
				Start string `json:"start"`
				End   string `json:"end"`
			} `json:"busy"`
		} `json:"calendars"`
	}

	if err := g.doJSON(ctx, professional, http.MethodPost, "/freeBusy", reqBody, &payload); err != nil {
		return nil, fmt.Errorf("freebusy query for %s failed: %w", professional.CalendarID, err)
	}

	var busy []model.TimePeriod
	for _, entry := range payload.Calendars[professional.CalendarID].Busy {
		startTime, errStart := time.Parse(time.RFC3339, entry.Start)
		endTime, errEnd := time.Parse(time.RFC3339, entry.End)
		if errStart != nil || errEnd != nil {
			g.log.Warn("Discarding malformed busy interval",
				"calendar_id", professional.CalendarID,
				"start", entry.Start,
				"end", entry.End,
			)
			continue
		}
		busy = append(busy, model.TimePeriod{Start: startTime, End: endTime})
	}

	return busy, nil
}

func (g *GoogleGateway) CreateEvent(ctx context.Context, professional *model.Professional, event Event) (string, error) {
	attendees := make([]map[string]string, 0, len(event.Attendees))
	for _, email := range event.Attendees {
		attendees = append(attendees, map[string]string{"email": email})
	}

	reqBody := map[string]any{
		"summary":     event.Summary,
		"description": event.Description,
		"start":       map[string]string{"dateTime": event.Start.Format(time.RFC3339)},
		"end":         map[string]string{"dateTime": event.End.Format(time.RFC3339)},
	}
	if len(attendees) > 0 {
		reqBody["attendees"] = attendees
	}

	var payload struct {
		ID string `json:"id"`
	}

	path := "/calendars/" + url.PathEscape(professional.CalendarID) + "/events"
	if err := g.doJSON(ctx, professional, http.MethodPost, path, reqBody, &payload); err != nil {
		return "", fmt.Errorf("event creation in %s failed: %w", professional.CalendarID, err)
	}
	if payload.ID == "" {
		return "", fmt.Errorf("event created in %s but no ID returned", professional.CalendarID)
	}

	g.log.Info("Calendar event created", "calendar_id", professional.CalendarID, "event_id", payload.ID)
	return payload.ID, nil
}

func (g *GoogleGateway) DeleteEvent(ctx context.Context, professional *model.Professional, eventID string) error {
	path := "/calendars/" + url.PathEscape(professional.CalendarID) + "/events/" + url.PathEscape(eventID)
	if err := g.doJSON(ctx, professional, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("event deletion %s from %s failed: %w", eventID, professional.CalendarID, err)
	}

	g.log.Info("Calendar event deleted", "calendar_id", professional.CalendarID, "event_id", eventID)
	return nil
}

func (g *GoogleGateway) doJSON(ctx context.Context, professional *model.Professional, method, path string, reqBody, target any) error {
	token, err := g.accessToken(ctx, professional)
	if err != nil {
		return err
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("calendar API returned %d: %s", resp.StatusCode, respBody)
	}

	if target != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
