// If you are AI: This file defines the configuration structure for the video bot runner.
// It uses strict YAML decoding and explicit defaults.

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the complete bot-process configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Bus     BusConfig     `yaml:"bus"`
	Source  SourceConfig  `yaml:"source"`
	Decoder DecoderConfig `yaml:"decoder"`
	Sink    SinkConfig    `yaml:"sink"`
	Bot     BotConfig     `yaml:"bot,omitempty"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	HealthPort int `yaml:"health_port"` // Defaulted and validated only; nothing listens on it
	HTTPPort   int `yaml:"http_port"`   // Port for the introspection API, /healthz and /metrics
}

// BusConfig defines the messaging-bus client connection.
type BusConfig struct {
	URL string `yaml:"url"` // Messaging-bus connection URL
}

// SourceConfig selects and configures the video source.
type SourceConfig struct {
	Mode            string `yaml:"mode"`                        // "bus" or "url"
	MetadataChannel string `yaml:"metadata_channel,omitempty"` // bus mode: inbound metadata channel
	FramesChannel   string `yaml:"frames_channel,omitempty"`   // bus mode: inbound frames channel
	URL             string `yaml:"url,omitempty"`              // url mode: rtmp://, file path, or device URL
}

// DecoderConfig configures the decode stage's output pixel format.
type DecoderConfig struct {
	PixelFormat string `yaml:"pixel_format"` // One of RGB0, BGR, I420
}

// SinkConfig selects and configures the output sink.
type SinkConfig struct {
	Mode            string `yaml:"mode"`                       // "bus" or "container"
	AnalysisChannel string `yaml:"analysis_channel,omitempty"` // bus mode
	DebugChannel    string `yaml:"debug_channel,omitempty"`    // bus mode
	ControlChannel  string `yaml:"control_channel,omitempty"`  // bus mode: outbound channel for CONTROL messages; nothing subscribes to it, so no inbound control reaches the bot
	ContainerPath   string `yaml:"container_path,omitempty"`   // container mode: output file path, used as given
	Transcode       bool   `yaml:"transcode,omitempty"`        // re-encode decoded frames to VP9 before the container sink
}

// BotConfig controls whether a bot instance runs at all.
type BotConfig struct {
	Enabled bool `yaml:"enabled"` // false for the recorder variant
}

// Load reads configuration from a YAML file.
// Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Server.HealthPort == 0 {
		c.Server.HealthPort = 8080
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8081
	}
	if c.Bus.URL == "" {
		c.Bus.URL = "nats://127.0.0.1:4222"
	}
	if c.Decoder.PixelFormat == "" {
		c.Decoder.PixelFormat = "RGB0"
	}
	if c.Sink.Mode == "" {
		c.Sink.Mode = "bus"
	}
	if c.Source.Mode == "" {
		c.Source.Mode = "bus"
	}
}
