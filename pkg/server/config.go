package server

import (
	"net/http"
	"time"

	"github.com/termchat-dev/termchat/pkg/protocol"
)

// Config holds configuration for the relay server.
type Config struct {
	// Addr is the address to listen on.
	// Default: "127.0.0.1:8080" (loopback only).
	Addr string

	// RoomName is the room label surfaced via ServerInfo.
	// Default: "Terminal Chat Room".
	RoomName string

	// NgrokURL is an optional public tunnel URL surfaced via ServerInfo.
	// Default: "" (omitted from ServerInfo).
	NgrokURL string

	// HandshakeTimeout is how long a fresh connection has to send its
	// Join message before being dropped.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// WriteTimeout is the per-message transport write deadline.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// ReadLimit is the maximum inbound WebSocket message size.
	// Default: protocol.MaxMessageSize.
	ReadLimit int64

	// EventQueueSize is the reliable lane capacity per session; this is
	// the high-water mark beyond which a session is considered
	// unresponsive and disconnected.
	// Default: 256.
	EventQueueSize int

	// VideoQueueSize is the best-effort video lane capacity per session.
	// On overflow the oldest pending frame from the same sender is
	// discarded.
	// Default: 8.
	VideoQueueSize int

	// EchoChat controls whether a sender receives its own Chat messages,
	// so its transcript shows them in send order.
	// Default: true.
	EchoChat bool

	// EchoOwnVideo controls whether a sender receives its own
	// VideoFrame messages. Clients already hold their locally generated
	// frames.
	// Default: false.
	EchoOwnVideo bool

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// CheckOrigin validates the WebSocket request origin. The default
	// allows all origins; the reference deployment binds loopback only.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:             "127.0.0.1:8080",
		RoomName:         "Terminal Chat Room",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadLimit:        protocol.MaxMessageSize,
		EventQueueSize:   256,
		VideoQueueSize:   8,
		EchoChat:         true,
		EchoOwnVideo:     false,
		ShutdownTimeout:  10 * time.Second,
		CheckOrigin:      func(*http.Request) bool { return true },
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// WithAddr sets the listen address and returns the config for chaining.
func (c *Config) WithAddr(addr string) *Config {
	c.Addr = addr
	return c
}

// WithRoomName sets the room name and returns the config for chaining.
func (c *Config) WithRoomName(name string) *Config {
	c.RoomName = name
	return c
}

// WithNgrokURL sets the tunnel URL and returns the config for chaining.
func (c *Config) WithNgrokURL(url string) *Config {
	c.NgrokURL = url
	return c
}

// withDefaults fills in zero-valued fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	defaults := DefaultConfig()
	merged := c.Clone()
	if merged.Addr == "" {
		merged.Addr = defaults.Addr
	}
	if merged.RoomName == "" {
		merged.RoomName = defaults.RoomName
	}
	if merged.HandshakeTimeout == 0 {
		merged.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if merged.WriteTimeout == 0 {
		merged.WriteTimeout = defaults.WriteTimeout
	}
	if merged.ReadLimit == 0 {
		merged.ReadLimit = defaults.ReadLimit
	}
	if merged.EventQueueSize == 0 {
		merged.EventQueueSize = defaults.EventQueueSize
	}
	if merged.VideoQueueSize == 0 {
		merged.VideoQueueSize = defaults.VideoQueueSize
	}
	if merged.ShutdownTimeout == 0 {
		merged.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if merged.CheckOrigin == nil {
		merged.CheckOrigin = defaults.CheckOrigin
	}
	return merged
}
