package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// API paths on the AITON-RAG server.
const (
	UploadPath = "/api/upload"
	HealthPath = "/api/v1/health"
)

const tracerName = "github.com/aiton-rag/uploadui/pkg/upload"

// maxResponseBytes bounds how much of an API response is decoded.
const maxResponseBytes = 1 << 20

// Client talks to the upload and health endpoints of the API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets a whole-request timeout. Zero leaves the transport's
// own behavior in charge.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithTracerProvider uses tp instead of the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. "http://localhost:5000").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tracer:     otel.Tracer(tracerName),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload POSTs f as multipart form data under FormField.
//
// A response with success=false yields a *ServerError carrying the API's
// message; network, status and decode failures yield a *TransportError.
func (c *Client) Upload(ctx context.Context, f SelectedFile) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "upload.Upload",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upload.file_name", f.Name),
			attribute.Int64("upload.file_size", f.Size),
		),
	)
	defer span.End()

	res, err := c.upload(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("upload.stored_name", res.Filename))
	span.SetStatus(codes.Ok, "")
	return res, nil
}

func (c *Client) upload(ctx context.Context, f SelectedFile) (*Result, error) {
	body, contentType, err := encodeMultipart(ctx, f)
	if err != nil {
		return nil, &TransportError{Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UploadPath, body)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	var res Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&res); err != nil {
		return nil, &TransportError{Op: "decode", Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
	}
	if !res.Success {
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: res.Error}
	}

	c.logger.Debug("upload accepted", "file", f.Name, "stored_as", res.Filename, "status", resp.StatusCode)
	return &res, nil
}

// encodeMultipart buffers the file into a multipart body. Files are
// bounded by validation, so buffering keeps Content-Length known.
func encodeMultipart(ctx context.Context, f SelectedFile) (io.Reader, string, error) {
	src, err := f.Open(ctx)
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FormField, escapeQuotes(f.Name)))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Health fetches the API health document, which carries the knowledge
// base stats.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	ctx, span := c.tracer.Start(ctx, "upload.Health", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	health, err := c.health(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("upload.health_success", health.Success))
	return health, nil
}

func (c *Client) health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "get", Err: err}
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&health); err != nil {
		return nil, &TransportError{Op: "decode", Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
	}
	return &health, nil
}
