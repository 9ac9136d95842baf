// If you are AI: This file contains unit tests for API handlers.
// Tests verify JSON responses and error handling.

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeBotProvider struct{ status BotStatus }

func (f fakeBotProvider) BotStatus() BotStatus { return f.status }

type fakeSourceProvider struct{ status SourceStatus }

func (f fakeSourceProvider) SourceStatus() SourceStatus { return f.status }

func TestHandleServer(t *testing.T) {
	service := NewService(nil, nil)

	req := httptest.NewRequest("GET", "/api/server", nil)
	w := httptest.NewRecorder()

	service.handleServer(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response ServerResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Version == "" {
		t.Error("Version should not be empty")
	}
	if response.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
}

func TestHandleBotDisabledWhenNoProvider(t *testing.T) {
	service := NewService(nil, nil)

	req := httptest.NewRequest("GET", "/api/bot", nil)
	w := httptest.NewRecorder()

	service.handleBot(w, req)

	var response BotStatus
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Enabled {
		t.Error("expected Enabled false with no bot provider")
	}
}

func TestHandleBotReportsProviderStatus(t *testing.T) {
	service := NewService(fakeBotProvider{status: BotStatus{
		Enabled:    true,
		BotID:      "front-door",
		Configured: true,
	}}, nil)

	req := httptest.NewRequest("GET", "/api/bot", nil)
	w := httptest.NewRecorder()

	service.handleBot(w, req)

	var response BotStatus
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !response.Enabled || response.BotID != "front-door" || !response.Configured {
		t.Errorf("unexpected bot status: %+v", response)
	}
}

func TestHandleSourceReportsProviderStatus(t *testing.T) {
	service := NewService(nil, fakeSourceProvider{status: SourceStatus{Mode: "url", Connected: true}})

	req := httptest.NewRequest("GET", "/api/source", nil)
	w := httptest.NewRecorder()

	service.handleSource(w, req)

	var response SourceStatus
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Mode != "url" || !response.Connected {
		t.Errorf("unexpected source status: %+v", response)
	}
}

func TestHandleServerRejectsNonGet(t *testing.T) {
	service := NewService(nil, nil)

	req := httptest.NewRequest("POST", "/api/server", nil)
	w := httptest.NewRecorder()

	service.handleServer(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}
