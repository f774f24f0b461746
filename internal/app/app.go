package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/aiton-rag/uploadui/internal/config"
	"github.com/aiton-rag/uploadui/internal/controller"
	"github.com/aiton-rag/uploadui/internal/metrics"
	"github.com/aiton-rag/uploadui/internal/page"
	"github.com/aiton-rag/uploadui/internal/session"
	"github.com/aiton-rag/uploadui/internal/web"
	"github.com/aiton-rag/uploadui/pkg/middleware"
	"github.com/aiton-rag/uploadui/pkg/render"
	"github.com/aiton-rag/uploadui/pkg/upload"
)

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithRegistry sets the Prometheus registry collectors are registered
// with and /metrics serves. Defaults to a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) {
		a.registry = reg
	}
}

// WithTracerProvider sets the provider used for event and upstream
// spans. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *App) {
		a.tracer = tp
	}
}

// WithStore replaces the configured staging backend.
func WithStore(store upload.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithUploader replaces the upstream API client.
func WithUploader(u controller.Uploader) Option {
	return func(a *App) {
		a.uploader = u
	}
}

// WithDevMode disables asset caching.
func WithDevMode(dev bool) Option {
	return func(a *App) {
		a.dev = dev
	}
}

// WithStyleSheets links extra stylesheets (Bootstrap, Font Awesome)
// ahead of the bundled one.
func WithStyleSheets(sheets ...string) Option {
	return func(a *App) {
		a.styleSheets = append(a.styleSheets, sheets...)
	}
}

// App is the assembled upload server.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	tracer      trace.TracerProvider
	store       upload.Store
	uploader    controller.Uploader
	sessions    *session.Manager
	renderer    *render.Renderer
	pageOpts    page.Options
	styleSheets []string
	dev         bool
	router      chi.Router
}

// New wires an App from cfg. cfg must already be validated.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if a.tracer == nil {
		a.tracer = otel.GetTracerProvider()
	}
	a.metrics = metrics.New(metrics.WithRegistry(a.registry))

	if a.store == nil {
		store, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	if a.uploader == nil {
		a.uploader = upload.NewClient(cfg.APIBaseURL,
			upload.WithTimeout(cfg.UploadTimeout()),
			upload.WithTracerProvider(a.tracer),
			upload.WithLogger(a.logger),
		)
	}

	a.renderer = render.NewRenderer(render.RendererConfig{})
	a.pageOpts = page.Options{
		Constraints: cfg.Constraints(),
		StyleSheets: a.styleSheets,
	}

	sessCfg := session.DefaultConfig()
	sessCfg.MaxSessions = cfg.Session.MaxSessions
	sessCfg.ReadTimeout = cfg.ReadTimeout()
	a.sessions = session.NewManager(a.newController,
		session.WithConfig(sessCfg),
		session.WithLogger(a.logger),
		session.WithMetrics(a.metrics),
		session.WithCheckOrigin(a.checkOrigin),
		session.WithMiddleware(
			middleware.OpenTelemetry(middleware.WithTracerProvider(a.tracer)),
			middleware.Prometheus(a.metrics),
			middleware.Logging(a.logger),
		),
	)

	a.router = a.routes()
	return a, nil
}

func (a *App) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(a.logger))
	r.Use(chimw.Recoverer)

	r.Get("/", a.servePage)
	r.Get("/healthz", a.serveHealthz)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	r.Handle(page.DefaultWSPath, a.sessions)
	r.Handle("/static/*", http.StripPrefix("/static/", web.Handler(a.dev)))

	trusted := newProxyMatcher(a.cfg.Staging.TrustedProxies, a.logger)
	limiter := newIPLimiter(rate.Limit(a.cfg.Staging.RateLimit), a.cfg.Staging.RateBurst)
	r.Group(func(r chi.Router) {
		if len(a.cfg.AllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: a.cfg.AllowedOrigins,
				AllowedMethods: []string{http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
				MaxAge:         300,
			}))
		}
		r.Use(rateLimit(limiter, trusted))
		r.Post(page.DefaultStagePath, a.stageHandler())
	})
	return r
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Sessions returns the WebSocket session manager.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// newController is the session factory: every connection gets its own
// document and controller, and the stats are fetched once up front.
// Uploads run off the session's event loop so drag events keep flowing.
func (a *App) newController(onChange func(), logger *slog.Logger) (session.Controller, error) {
	doc := page.Build(a.pageOpts)
	rules := a.cfg.Constraints()
	ctrl := controller.New(controller.ElementsFrom(doc), controller.Options{
		Uploader:      a.uploader,
		Store:         a.store,
		Constraints:   &rules,
		StatsDelay:    a.cfg.StatsDelay(),
		AlertTTL:      a.cfg.AlertTTL(),
		MaxConcurrent: a.cfg.Upload.MaxConcurrent,
		MaxFiles:      a.cfg.Upload.MaxFiles,
		Async:         true,
		Logger:        logger,
		Metrics:       a.metrics,
		OnChange:      onChange,
	})
	ctrl.RefreshStatsAsync()
	return ctrl, nil
}

// servePage renders the initial document. Its controller is bound and
// closed straight away so the markup carries the event markers the
// client needs before its WebSocket connects.
func (a *App) servePage(w http.ResponseWriter, r *http.Request) {
	doc := page.Build(a.pageOpts)
	rules := a.cfg.Constraints()
	ctrl := controller.New(controller.ElementsFrom(doc), controller.Options{
		Uploader:    a.uploader,
		Constraints: &rules,
		Logger:      a.logger,
	})
	ctrl.Close()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := a.renderer.RenderPage(w, page.Data(doc, a.pageOpts)); err != nil {
		a.logger.Error("render page failed", "error", err)
	}
}

func (a *App) serveHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (a *App) stageHandler() http.HandlerFunc {
	h := upload.HandlerWithConfig(a.store, upload.HandlerConfig{
		MaxFileSize: a.cfg.Upload.MaxFileSize,
		Logger:      a.logger,
	})
	return func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		h.ServeHTTP(ww, r)
		status := ww.Status()
		a.metrics.Staged(status == 0 || status < http.StatusBadRequest)
	}
}

// checkOrigin accepts same-host WebSocket upgrades and any origin listed
// in AllowedOrigins.
func (a *App) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range a.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// RunCleanup removes stale staged files every interval until ctx is
// done. The interval is a quarter of the staging max age, at least one
// minute.
func (a *App) RunCleanup(ctx context.Context) {
	maxAge := a.cfg.StagingMaxAge()
	interval := maxAge / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.store.Cleanup(ctx, maxAge); err != nil {
				a.logger.Warn("staging cleanup failed", "error", err)
			}
		}
	}
}

// Shutdown closes every session and waits for them to finish.
func (a *App) Shutdown(ctx context.Context) error {
	return a.sessions.Shutdown(ctx)
}
