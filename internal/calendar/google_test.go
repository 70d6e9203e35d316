package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agendazap/pkg/config"
	"agendazap/pkg/logger"
	"agendazap/pkg/model"
)

func testGateway(t *testing.T, handler http.Handler) (*GoogleGateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		GoogleClientID:        "client-id",
		GoogleClientSecret:    "client-secret",
		GoogleRedirectURI:     "https://example.com/callback",
		GoogleTokenURL:        server.URL + "/token",
		GoogleCalendarBaseURL: server.URL,
		GatewayTimeout:        5 * time.Second,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
	return NewGoogleGateway(cfg), server
}

func validProfessional() *model.Professional {
	expiry := time.Now().Add(time.Hour)
	return &model.Professional{
		ID:                "68b1c2d3e4f5a6b7c8d9e0f1",
		Name:              "Ana",
		CalendarID:        "ana@example.com",
		GoogleAccessToken: "valid-token",
		TokenExpiry:       &expiry,
	}
}

func TestCheckAvailability_MapsBusyIntervals(t *testing.T) {
	gateway, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/freeBusy" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer valid-token" {
			t.Errorf("unexpected auth header: %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"calendars": map[string]any{
				"ana@example.com": map[string]any{
					"busy": []map[string]string{
						{"start": "2025-03-10T10:00:00Z", "end": "2025-03-10T11:00:00Z"},
						{"start": "not-a-time", "end": "2025-03-10T12:00:00Z"},
					},
				},
			},
		})
	}))

	busy, err := gateway.CheckAvailability(context.Background(), validProfessional(),
		time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(busy) != 1 {
		t.Fatalf("expected malformed interval to be discarded, got %d intervals", len(busy))
	}
	if busy[0].Start.Hour() != 10 || busy[0].End.Hour() != 11 {
		t.Errorf("unexpected interval: %v-%v", busy[0].Start, busy[0].End)
	}
}

func TestCreateEvent_ReturnsEventID(t *testing.T) {
	var captured map[string]any
	gateway, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendars/ana%40example.com/events" && r.URL.Path != "/calendars/ana@example.com/events" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "evt-123"})
	}))

	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	eventID, err := gateway.CreateEvent(context.Background(), validProfessional(), Event{
		Summary:     "Agendamento: Corte - Ana",
		Description: "Cliente: +5511999990000",
		Start:       start,
		End:         start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eventID != "evt-123" {
		t.Errorf("expected event id evt-123, got %s", eventID)
	}
	if captured["summary"] != "Agendamento: Corte - Ana" {
		t.Errorf("unexpected summary: %v", captured["summary"])
	}
}

func TestCreateEvent_MissingIDIsAnError(t *testing.T) {
	gateway, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))

	_, err := gateway.CreateEvent(context.Background(), validProfessional(), Event{
		Summary: "x",
		Start:   time.Now(),
		End:     time.Now().Add(time.Hour),
	})
	if err == nil {
		t.Fatal("expected error when no event ID is returned")
	}
}

func TestDeleteEvent_SurfacesAPIErrors(t *testing.T) {
	gateway, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))

	err := gateway.DeleteEvent(context.Background(), validProfessional(), "evt-gone")
	if err == nil {
		t.Fatal("expected error from 404 response")
	}
}

func TestAccessToken_RefreshesExpiredToken(t *testing.T) {
	var refreshed bool
	gateway, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			refreshed = true
			if err := r.ParseForm(); err != nil {
				t.Fatalf("failed to parse form: %v", err)
			}
			if r.Form.Get("grant_type") != "refresh_token" {
				t.Errorf("unexpected grant type: %s", r.Form.Get("grant_type"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "fresh-token",
				"expires_in":   3600,
			})
		case "/freeBusy":
			if got := r.Header.Get("Authorization"); got != "Bearer fresh-token" {
				t.Errorf("expected refreshed token, got %s", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"calendars": map[string]any{}})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))

	expired := time.Now().Add(-time.Minute)
	professional := validProfessional()
	professional.TokenExpiry = &expired
	professional.GoogleRefreshToken = "refresh-token"

	_, err := gateway.CheckAvailability(context.Background(), professional, time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !refreshed {
		t.Error("expected token refresh to be attempted")
	}
}

func TestAccessToken_NoCredentialsFails(t *testing.T) {
	gateway, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	professional := &model.Professional{ID: "p1", CalendarID: "cal"}
	_, err := gateway.CheckAvailability(context.Background(), professional, time.Now(), time.Now().Add(time.Hour))
	if err == nil || !strings.Contains(err.Error(), "no calendar credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestAuthURL_CarriesStateAndScope(t *testing.T) {
	gateway, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	authURL := gateway.AuthURL("prof-42")

	if !strings.HasPrefix(authURL, authEndpoint+"?") {
		t.Fatalf("unexpected auth endpoint: %s", authURL)
	}
	if !strings.Contains(authURL, "state=prof-42") {
		t.Error("auth URL missing state")
	}
	if !strings.Contains(authURL, "access_type=offline") {
		t.Error("auth URL missing offline access")
	}
}
