package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/aiton-rag/uploadui/internal/metrics"
	"github.com/aiton-rag/uploadui/pkg/middleware"
	"github.com/aiton-rag/uploadui/pkg/protocol"
	"github.com/aiton-rag/uploadui/pkg/render"
	"github.com/aiton-rag/uploadui/pkg/vdom"
)

// Controller is the page behavior a session drives.
// *controller.Controller implements it.
type Controller interface {
	Dispatch(ctx context.Context, e *protocol.Event) error
	View(fn func(root *vdom.VNode))
	Close()
}

// Factory builds the controller of a new session. onChange must be
// called whenever the document changed outside of Dispatch.
type Factory func(onChange func(), logger *slog.Logger) (Controller, error)

// Session is one connected page.
type Session struct {
	ID string

	conn     *websocket.Conn
	cfg      *Config
	ctrl     Controller
	handler  middleware.Handler
	renderer *render.Renderer
	log      *slog.Logger
	metrics  *metrics.Metrics
	limiter  *rate.Limiter

	dirty  chan struct{}
	out    chan *protocol.Frame
	events chan *protocol.Event

	// seq is only touched by the write loop.
	seq uint64
}

type sessionDeps struct {
	cfg        *Config
	factory    Factory
	renderer   *render.Renderer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	middleware []middleware.Middleware
}

func newSession(conn *websocket.Conn, deps sessionDeps) (*Session, error) {
	id := uuid.NewString()
	s := &Session{
		ID:       id,
		conn:     conn,
		cfg:      deps.cfg,
		renderer: deps.renderer,
		log:      deps.logger.With("session_id", id),
		metrics:  deps.metrics,
		limiter:  rate.NewLimiter(deps.cfg.EventRate, deps.cfg.EventBurst),
		dirty:    make(chan struct{}, 1),
		out:      make(chan *protocol.Frame, deps.cfg.SendQueue),
		events:   make(chan *protocol.Event, deps.cfg.EventQueue),
	}

	ctrl, err := deps.factory(s.requestRender, s.log)
	if err != nil {
		return nil, err
	}
	s.ctrl = ctrl

	mws := append([]middleware.Middleware{middleware.Recover(s.log)}, deps.middleware...)
	s.handler = middleware.Chain(ctrl.Dispatch, mws...)
	return s, nil
}

// Run serves the connection until the client leaves or ctx is done.
// The first render frame is sent right away. Events are handled one at
// a time in arrival order.
func (s *Session) Run(ctx context.Context) error {
	s.metrics.SessionOpened()
	s.log.Info("session started")
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	s.requestRender()
	g.Go(func() error { return s.readLoop(gctx) })
	g.Go(func() error { return s.writeLoop(gctx) })
	g.Go(func() error { return s.eventLoop(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		s.conn.Close()
		return nil
	})
	err := g.Wait()
	if errors.Is(err, errClientGone) {
		err = nil
	}

	s.ctrl.Close()
	s.metrics.SessionClosed()
	s.log.Info("session ended", "duration", time.Since(start).Round(time.Millisecond), "renders", s.seq)
	return err
}

// requestRender marks the document dirty. Pending requests coalesce.
func (s *Session) requestRender() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// send queues a control frame without blocking the caller.
func (s *Session) send(f *protocol.Frame) {
	select {
	case s.out <- f:
	default:
		s.metrics.WebSocketError("send_queue_full")
		s.log.Warn("send queue full, dropping frame", "type", f.Type)
	}
}

func (s *Session) readLoop(ctx context.Context) error {
	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				s.metrics.WebSocketError("read")
				s.log.Warn("read error", "error", err)
				return err
			}
			return errClientGone
		}
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.log.Debug("frame decode error", "error", err)
			s.send(protocol.NewError(decodeErrorCode(err), err.Error()))
			continue
		}

		switch frame.Type {
		case protocol.FramePing:
			s.send(protocol.NewPong(frame.TS))
		case protocol.FrameEvent:
			if !frame.Event.Type.EndsDrag() && !s.limiter.Allow() {
				s.send(protocol.NewError(protocol.ErrRateLimited, "too many events"))
				continue
			}
			select {
			case s.events <- frame.Event:
			case <-ctx.Done():
				return nil
			}
		default:
			s.log.Debug("unexpected frame from client", "type", frame.Type)
		}
	}
}

// eventLoop dispatches queued events in order. Handlers that start
// uploads return once the upload is under way, so the loop stays free
// for drag and click events.
func (s *Session) eventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-s.events:
			s.handleEvent(ctx, e)
		}
	}
}

func (s *Session) handleEvent(ctx context.Context, e *protocol.Event) {
	err := s.handler(middleware.WithSessionID(ctx, s.ID), e)
	var pe *middleware.PanicError
	switch {
	case errors.As(err, &pe):
		s.send(protocol.NewError(protocol.ErrHandlerPanic, "internal error"))
	case err != nil:
		s.log.Debug("event handler returned error", "event", e.Type, "target", e.Target, "error", err)
	}
	s.requestRender()
}

func (s *Session) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
			return nil

		case <-s.dirty:
			if err := s.writeRender(); err != nil {
				return err
			}

		case f := <-s.out:
			if err := s.writeFrame(f); err != nil {
				return err
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.metrics.WebSocketError("ping")
				return err
			}
		}
	}
}

func (s *Session) writeRender() error {
	var (
		buf bytes.Buffer
		err error
	)
	s.ctrl.View(func(root *vdom.VNode) {
		err = s.renderer.RenderChildren(&buf, root)
	})
	if err != nil {
		s.log.Error("render failed", "error", err)
		return s.writeFrame(protocol.NewError(protocol.ErrServerError, "render failed"))
	}

	s.seq++
	if err := s.writeFrame(protocol.NewRender(s.seq, buf.String())); err != nil {
		return err
	}
	s.metrics.RenderSent()
	return nil
}

func (s *Session) writeFrame(f *protocol.Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.metrics.WebSocketError("write")
		s.log.Warn("write error", "error", err)
		return err
	}
	return nil
}

var errClientGone = errors.New("session: client disconnected")

func decodeErrorCode(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, protocol.ErrInvalidEventType),
		errors.Is(err, protocol.ErrInvalidTarget),
		errors.Is(err, protocol.ErrInvalidFiles),
		errors.Is(err, protocol.ErrMissingEvent):
		return protocol.ErrInvalidEvent
	default:
		return protocol.ErrInvalidFrame
	}
}
