// If you are AI: This file validates configuration values and returns descriptive errors.

package config

import (
	"fmt"
)

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source config: %w", err)
	}
	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder config: %w", err)
	}
	if err := c.Sink.Validate(); err != nil {
		return fmt.Errorf("sink config: %w", err)
	}
	return nil
}

// Validate checks server configuration values.
func (s *ServerConfig) Validate() error {
	if s.HealthPort <= 0 || s.HealthPort > 65535 {
		return fmt.Errorf("health_port must be between 1 and 65535, got %d", s.HealthPort)
	}
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535, got %d", s.HTTPPort)
	}
	if s.HealthPort == s.HTTPPort {
		return fmt.Errorf("health_port and http_port must be different, both are %d", s.HealthPort)
	}
	return nil
}

// Validate checks source configuration values.
func (s *SourceConfig) Validate() error {
	switch s.Mode {
	case "bus":
		if s.MetadataChannel == "" || s.FramesChannel == "" {
			return fmt.Errorf("bus mode requires metadata_channel and frames_channel")
		}
	case "url":
		if s.URL == "" {
			return fmt.Errorf("url mode requires url")
		}
	default:
		return fmt.Errorf("mode must be \"bus\" or \"url\", got %q", s.Mode)
	}
	return nil
}

// Validate checks decoder configuration values.
func (d *DecoderConfig) Validate() error {
	switch d.PixelFormat {
	case "RGB0", "BGR", "I420":
		return nil
	default:
		return fmt.Errorf("pixel_format must be one of RGB0, BGR, I420, got %q", d.PixelFormat)
	}
}

// Validate checks sink configuration values.
func (s *SinkConfig) Validate() error {
	switch s.Mode {
	case "bus":
		if s.AnalysisChannel == "" || s.DebugChannel == "" {
			return fmt.Errorf("bus mode requires analysis_channel and debug_channel")
		}
	case "container":
		if s.ContainerPath == "" {
			return fmt.Errorf("container mode requires container_path")
		}
	default:
		return fmt.Errorf("mode must be \"bus\" or \"container\", got %q", s.Mode)
	}
	return nil
}
