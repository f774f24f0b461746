package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/aiton-rag/uploadui/internal/metrics"
	"github.com/aiton-rag/uploadui/pkg/middleware"
	"github.com/aiton-rag/uploadui/pkg/render"
)

// ErrTooManySessions is returned when MaxSessions is reached.
var ErrTooManySessions = errors.New("session: too many sessions")

// Option configures a Manager.
type Option func(*Manager)

// WithConfig sets the session configuration.
func WithConfig(cfg *Config) Option {
	return func(m *Manager) {
		if cfg != nil {
			m.cfg = cfg.Clone()
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the collectors sessions report to.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithMiddleware appends event middleware. Panic recovery is always
// installed outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(m *Manager) {
		m.middleware = append(m.middleware, mws...)
	}
}

// WithCheckOrigin sets the WebSocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(m *Manager) {
		m.upgrader.CheckOrigin = fn
	}
}

// Manager accepts WebSocket connections and tracks live sessions.
type Manager struct {
	cfg        *Config
	factory    Factory
	upgrader   websocket.Upgrader
	renderer   *render.Renderer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	middleware []middleware.Middleware

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	active   int
	closing  bool
	wg       sync.WaitGroup
}

// NewManager creates a manager that builds sessions with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		cfg:      DefaultConfig(),
		factory:  factory,
		renderer: render.NewRenderer(render.RendererConfig{}),
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cfg.applyDefaults()
	m.logger = m.logger.With("component", "session_manager")
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// ServeHTTP upgrades the request and runs a session until it ends.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !m.reserve() {
		m.logger.Warn("session rejected", "error", ErrTooManySessions, "remote", r.RemoteAddr)
		http.Error(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}
	defer m.release()

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.metrics.WebSocketError("upgrade")
		m.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s, err := newSession(conn, sessionDeps{
		cfg:        m.cfg,
		factory:    m.factory,
		renderer:   m.renderer,
		logger:     m.logger,
		metrics:    m.metrics,
		middleware: m.middleware,
	})
	if err != nil {
		m.logger.Error("session setup failed", "error", err)
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session setup failed")
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
		conn.Close()
		return
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.sessions, s.ID)
		m.mu.Unlock()
	}()

	if err := s.Run(m.ctx); err != nil {
		s.log.Debug("session closed with error", "error", err)
	}
}

// reserve claims a session slot.
func (m *Manager) reserve() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closing {
		return false
	}
	if m.cfg.MaxSessions > 0 && m.active >= m.cfg.MaxSessions {
		return false
	}
	m.active++
	m.wg.Add(1)
	return true
}

func (m *Manager) release() {
	m.mu.Lock()
	m.active--
	m.mu.Unlock()
	m.wg.Done()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every session and waits for them to end or for ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closing = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
