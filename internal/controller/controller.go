package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aiton-rag/uploadui/pkg/protocol"
	"github.com/aiton-rag/uploadui/pkg/toast"
	"github.com/aiton-rag/uploadui/pkg/upload"
	"github.com/aiton-rag/uploadui/pkg/vdom"
)

// Defaults.
const (
	DefaultStatsDelay = 2 * time.Second
	DefaultAlertTTL   = toast.DefaultTTL
	DefaultMaxFiles   = 64
)

// Controller errors.
var (
	ErrNoFile           = errors.New("controller: no file selected")
	ErrUploadInProgress = errors.New("controller: upload already in progress")
	ErrFormInvalid      = errors.New("controller: form failed constraint validation")
	ErrClosed           = errors.New("controller: closed")
	ErrTooManyFiles     = errors.New("controller: too many files")
)

// Uploader sends files to the API and reads its health document.
// *upload.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, f upload.SelectedFile) (*upload.Result, error)
	Health(ctx context.Context) (*upload.HealthResponse, error)
}

// Recorder receives controller metrics. Outcome is one of "success",
// "server_error" or "transport_error"; source is "form" or "drop".
type Recorder interface {
	UploadStarted(source string)
	UploadFinished(source, outcome string, d time.Duration)
	ValidationFailed(reason string)
	StatsRefreshed(ok bool)
}

// EventHandler is the handler type bound to elements for protocol events.
type EventHandler = func(ctx context.Context, e *protocol.Event) error

// Options configure a Controller.
type Options struct {
	// Uploader is required.
	Uploader Uploader

	// Store resolves staged files referenced by events.
	Store upload.Store

	// Constraints default to upload.DefaultConstraints.
	Constraints *upload.Constraints

	// StatsDelay is the wait between a successful upload and the stats
	// refresh. AlertTTL is the lifetime of banners and settled indicators.
	StatsDelay time.Duration
	AlertTTL   time.Duration

	// MaxConcurrent caps parallel uploads of one drop. Zero is unbounded.
	MaxConcurrent int

	// MaxFiles caps the files taken from one drop or pick. The rest are
	// released with a warning. Default: DefaultMaxFiles.
	MaxFiles int

	// Async makes event handlers return once the document shows the
	// upload as started; the upload itself continues in the background
	// and Close waits for it. Sessions set it so one slow upload does
	// not hold up the events behind it.
	Async bool

	// AfterFunc schedules timed work. Defaults to time.AfterFunc.
	AfterFunc func(time.Duration, func()) func() bool
	Now       func() time.Time

	Logger  *slog.Logger
	Metrics Recorder

	// OnChange is called after the document changed outside of a
	// Dispatch call, e.g. when a timer or an upload completion fired.
	OnChange func()
}

// Controller is the upload page behavior bound to one document.
type Controller struct {
	mu       sync.Mutex
	el       Elements
	opts     Options
	rules    upload.Constraints
	banners  *toast.Banners
	log      *slog.Logger
	metrics  Recorder
	bg       context.Context
	cancelBg context.CancelFunc

	// Guarded by mu.
	selected   *upload.SelectedFile
	uploading  bool
	dragging   bool
	indicators int

	timerMu   sync.Mutex
	timers    map[int]func() bool
	nextTimer int
	closed    bool
	work      sync.WaitGroup
}

// New creates a controller over el and binds its handlers.
func New(el Elements, opts Options) *Controller {
	if opts.StatsDelay <= 0 {
		opts.StatsDelay = DefaultStatsDelay
	}
	if opts.AlertTTL <= 0 {
		opts.AlertTTL = DefaultAlertTTL
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	if el.Root == nil {
		el.Root = vdom.Div()
	}

	rules := upload.DefaultConstraints()
	if opts.Constraints != nil {
		rules = *opts.Constraints
	}

	c := &Controller{
		el:      el,
		opts:    opts,
		rules:   rules,
		log:     opts.Logger.With("component", "upload_controller"),
		metrics: opts.Metrics,
		timers:  make(map[int]func() bool),
	}
	c.bg, c.cancelBg = context.WithCancel(context.Background())

	alerts := el.Alerts
	if alerts == nil {
		alerts = el.Root
	}
	c.banners = toast.New(toast.Options{
		Root:      el.Root,
		Container: alerts,
		TTL:       opts.AlertTTL,
		AfterFunc: c.afterFunc,
		Locker:    &c.mu,
		OnChange:  c.notify,
	})

	c.mu.Lock()
	c.bind()
	c.mu.Unlock()
	return c
}

// Constraints returns the validation rules in effect.
func (c *Controller) Constraints() upload.Constraints {
	return c.rules
}

// bind attaches handlers and client markers to the elements.
func (c *Controller) bind() {
	el := c.el
	if el.canSubmit() {
		el.Form.On(vdom.EventSubmit, EventHandler(c.onSubmit))
		el.FileInput.On(vdom.EventChange, EventHandler(c.onFileChange))
		el.FileInput.SetAttr("accept", c.rules.Accept())
		c.setUploadState(false)
	}

	for _, form := range vdom.QueryByClass(el.Root, ClassNeedsValidation) {
		if form == el.Form && el.canSubmit() {
			continue
		}
		form.On(vdom.EventSubmit, EventHandler(c.onValidatedSubmit))
	}

	if el.canDrop() {
		dz := el.DropZone
		dz.On(vdom.EventDragEnter, EventHandler(c.onDragEnter))
		dz.On(vdom.EventDragOver, EventHandler(c.onDragEnter))
		dz.On(vdom.EventDragLeave, EventHandler(c.onDragLeave))
		dz.On(vdom.EventDrop, EventHandler(c.onDrop))
		dz.SetAttr(AttrPreventDefault, strings.Join(vdom.DragEvents, " "))
		dz.SetAttr(AttrPickerFor, IDDropZoneInput)
		el.DropZoneInput.On(vdom.EventChange, EventHandler(c.onPicked))
		el.DropZoneInput.SetAttr("accept", c.rules.Accept())
		if el.Body != nil {
			el.Body.SetAttr(AttrPreventDefault, strings.Join(vdom.DragEvents, " "))
		}
	}
}

// View runs fn with the document locked. fn must not retain root.
func (c *Controller) View(fn func(root *vdom.VNode)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.el.Root)
}

// Dispatch routes a client event to the handler bound on its target.
// Events for unknown targets or unbound event types are ignored.
func (c *Controller) Dispatch(ctx context.Context, e *protocol.Event) error {
	if e == nil {
		return nil
	}
	if c.isClosed() {
		return ErrClosed
	}

	c.mu.Lock()
	target := vdom.GetElementByID(c.el.Root, e.Target)
	var handler any
	if target != nil {
		handler = target.Handler(string(e.Type))
	}

	switch h := handler.(type) {
	case func():
		h()
		c.mu.Unlock()
		c.notify()
		return nil
	case EventHandler:
		c.mu.Unlock()
		return h(ctx, e)
	case nil:
		c.mu.Unlock()
		c.log.Debug("event ignored", "type", e.Type, "target", e.Target)
		return nil
	default:
		c.mu.Unlock()
		return fmt.Errorf("controller: unsupported handler %T on #%s", handler, e.Target)
	}
}

// Close stops pending timers, cancels background work and waits for it,
// then releases the staged copy of the form selection.
func (c *Controller) Close() {
	c.timerMu.Lock()
	if c.closed {
		c.timerMu.Unlock()
		return
	}
	c.closed = true
	stops := make([]func() bool, 0, len(c.timers))
	for id, stop := range c.timers {
		stops = append(stops, stop)
		delete(c.timers, id)
	}
	c.timerMu.Unlock()

	for _, stop := range stops {
		stop()
	}
	c.cancelBg()
	c.work.Wait()

	c.mu.Lock()
	selected := c.selected
	c.selected = nil
	c.mu.Unlock()
	if selected != nil {
		c.discard(context.Background(), *selected)
	}
}

// goTracked runs fn on its own goroutine with a context that ends with
// ctx or Close, whichever comes first. It does nothing once closed.
func (c *Controller) goTracked(ctx context.Context, fn func(context.Context)) {
	c.timerMu.Lock()
	if c.closed {
		c.timerMu.Unlock()
		return
	}
	c.work.Add(1)
	c.timerMu.Unlock()

	go func() {
		defer c.work.Done()
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(c.bg, cancel)
		defer stop()
		fn(wctx)
	}()
}

// spawn runs fn in the background when Async is set, inline otherwise.
func (c *Controller) spawn(ctx context.Context, fn func(context.Context)) {
	if !c.opts.Async {
		fn(ctx)
		return
	}
	c.goTracked(ctx, fn)
}

func (c *Controller) isClosed() bool {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	return c.closed
}

// afterFunc schedules fn unless the controller is closed and tracks the
// timer so Close can stop it.
func (c *Controller) afterFunc(d time.Duration, fn func()) func() bool {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.closed {
		return func() bool { return false }
	}
	c.nextTimer++
	id := c.nextTimer
	stop := c.opts.AfterFunc(d, func() {
		c.timerMu.Lock()
		_, pending := c.timers[id]
		delete(c.timers, id)
		c.timerMu.Unlock()
		if pending {
			fn()
		}
	})
	c.timers[id] = stop
	return func() bool {
		c.timerMu.Lock()
		delete(c.timers, id)
		c.timerMu.Unlock()
		return stop()
	}
}

func (c *Controller) notify() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}

type nopRecorder struct{}

func (nopRecorder) UploadStarted(string)                         {}
func (nopRecorder) UploadFinished(string, string, time.Duration) {}
func (nopRecorder) ValidationFailed(string)                      {}
func (nopRecorder) StatsRefreshed(bool)                          {}
