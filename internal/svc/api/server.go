// If you are AI: This file provides HTTP API service integration.
// The API exposes bot and source state without blocking media paths.

package api

import (
	"net/http"
	"time"
)

// BotStatus summarizes the current bot instance for API responses.
type BotStatus struct {
	Enabled        bool   `json:"enabled"`
	BotID          string `json:"bot_id,omitempty"`
	Configured     bool   `json:"configured"`
	CurrentFrameI1 int64  `json:"current_frame_i1"`
	CurrentFrameI2 int64  `json:"current_frame_i2"`
}

// SourceStatus summarizes the current video source for API responses.
type SourceStatus struct {
	Mode      string `json:"mode"`
	Connected bool   `json:"connected"`
}

// BotStatusProvider is implemented by whatever wraps the live bot
// instance, keeping this package decoupled from internal/bot.
type BotStatusProvider interface {
	BotStatus() BotStatus
}

// SourceStatusProvider is implemented by whatever wraps the live video
// source.
type SourceStatusProvider interface {
	SourceStatus() SourceStatus
}

// Service provides HTTP API functionality.
type Service struct {
	bot       BotStatusProvider
	source    SourceStatusProvider
	startTime int64
}

// NewService creates a new API service.
func NewService(bot BotStatusProvider, source SourceStatusProvider) *Service {
	return &Service{
		bot:       bot,
		source:    source,
		startTime: getCurrentTime(),
	}
}

// RegisterRoutes registers API routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/server", s.handleServer)
	mux.HandleFunc("/api/bot", s.handleBot)
	mux.HandleFunc("/api/source", s.handleSource)
}

// getCurrentTime returns current Unix timestamp.
// Extracted for testability.
func getCurrentTime() int64 {
	return time.Now().Unix()
}
