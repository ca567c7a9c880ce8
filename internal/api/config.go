package api

import (
	"time"

	"github.com/FocuswithJustin/writings/internal/config"
)

// Config holds the API server configuration.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Auth           AuthConfig
	RateLimit      RateLimiterConfig
	AllowedOrigins []string
	WebSocket      WebSocketConfig

	// Snapshot updates started through the API.
	SnapshotDir string
	ArchiveDir  string
	Compress    bool
}

// WebSocketConfig bounds what one websocket client may send.
type WebSocketConfig struct {
	MaxMessageRate int   // messages per second
	MaxMessageSize int64 // bytes
}

// DefaultWebSocketConfig returns the websocket limits used when none are set.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{MaxMessageRate: 10, MaxMessageSize: 4096}
}

// FromConfig derives the server configuration from the application's.
func FromConfig(c *config.Config) Config {
	return Config{
		Addr:         c.Server.Addr(),
		ReadTimeout:  c.Server.ReadTimeout,
		WriteTimeout: c.Server.WriteTimeout,
		Auth: AuthConfig{
			Enabled: c.Server.APIKey != "",
			APIKey:  c.Server.APIKey,
		},
		RateLimit: RateLimiterConfig{
			RequestsPerMinute: c.Server.RateLimit,
			BurstSize:         c.Server.RateBurst,
		},
		AllowedOrigins: c.Server.AllowedOrigins,
		WebSocket:      DefaultWebSocketConfig(),
		SnapshotDir:    c.Corpus.SnapshotDir,
		ArchiveDir:     c.Corpus.ArchiveDir,
		Compress:       c.Corpus.Compress,
	}
}
