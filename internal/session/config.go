package session

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/aiton-rag/uploadui/pkg/protocol"
)

// Config tunes each websocket session. Zero fields take the values of
// DefaultConfig.
type Config struct {
	// ReadTimeout bounds the wait for any frame or pong (60s).
	ReadTimeout time.Duration
	// WriteTimeout bounds a single frame write (10s).
	WriteTimeout time.Duration
	// HeartbeatInterval is the ping period. Values not below
	// ReadTimeout fall back to half of it.
	HeartbeatInterval time.Duration
	// MaxMessageSize caps inbound frames (protocol.MaxFrameSize).
	MaxMessageSize int64

	// EventRate and EventBurst throttle inbound DOM events (20/s, 50).
	// Dragging a file over the page alone produces several a second.
	// dragleave and drop always pass so the highlight can be cleared.
	EventRate  rate.Limit
	EventBurst int

	// EventQueue is how many events may wait for the event loop (64).
	// The reader blocks while it is full.
	EventQueue int

	// SendQueue is how many outbound control frames may wait (32).
	SendQueue int

	// MaxSessions caps live sessions; 0 is unlimited.
	MaxSessions int
}

// DefaultConfig returns the defaults listed on Config.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:       time.Minute,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    protocol.MaxFrameSize,
		EventRate:         20,
		EventBurst:        50,
		EventQueue:        64,
		SendQueue:         32,
	}
}

func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func orDefault[T time.Duration | int64 | int | rate.Limit](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	c.ReadTimeout = orDefault(c.ReadTimeout, d.ReadTimeout)
	c.WriteTimeout = orDefault(c.WriteTimeout, d.WriteTimeout)
	if c.HeartbeatInterval <= 0 || c.HeartbeatInterval >= c.ReadTimeout {
		c.HeartbeatInterval = c.ReadTimeout / 2
	}
	c.MaxMessageSize = orDefault(c.MaxMessageSize, d.MaxMessageSize)
	c.EventRate = orDefault(c.EventRate, d.EventRate)
	c.EventBurst = orDefault(c.EventBurst, d.EventBurst)
	c.EventQueue = orDefault(c.EventQueue, d.EventQueue)
	c.SendQueue = orDefault(c.SendQueue, d.SendQueue)
}
