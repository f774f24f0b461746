package config

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aiton-rag/uploadui/internal/errors"
	"github.com/aiton-rag/uploadui/pkg/upload"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "uploadui.json"

	// DefaultAPIBaseURL is where the AITON-RAG API listens in development.
	DefaultAPIBaseURL = "http://localhost:8000"

	// DefaultListenAddr is the address `uploadui serve` binds to.
	DefaultListenAddr = ":8080"
)

// Staging backends.
const (
	BackendDisk   = "disk"
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config represents the complete uploadui.json configuration.
type Config struct {
	// APIBaseURL is the origin of the AITON-RAG API.
	APIBaseURL string `json:"api_base_url,omitempty"`

	// ListenAddr is the HTTP listen address.
	ListenAddr string `json:"listen_addr,omitempty"`

	Upload  UploadConfig  `json:"upload"`
	Staging StagingConfig `json:"staging"`
	Session SessionConfig `json:"session"`
	Log     LogConfig     `json:"log"`

	// AllowedOrigins are the CORS origins allowed to call the staging
	// endpoint and open WebSockets. Empty means same-origin only.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// UploadConfig holds the controller settings.
type UploadConfig struct {
	// MaxFileSize is the largest accepted file in bytes.
	MaxFileSize int64 `json:"max_file_size,omitempty"`

	// SupportedExtensions are lowercase extensions including the dot.
	SupportedExtensions []string `json:"supported_extensions,omitempty"`

	// StatsRefreshDelay is the wait after a successful upload before the
	// stats are refreshed (e.g. "2s").
	StatsRefreshDelay string `json:"stats_refresh_delay,omitempty"`

	// AlertTTL is the lifetime of banners and settled indicators.
	AlertTTL string `json:"alert_ttl,omitempty"`

	// MaxConcurrent caps parallel uploads of one drop. 0 is unbounded.
	MaxConcurrent int `json:"max_concurrent,omitempty"`

	// MaxFiles caps the files taken from one drop; the rest are skipped
	// with a warning. 0 uses the controller default of 64.
	MaxFiles int `json:"max_files,omitempty"`

	// Timeout bounds one API request. Empty or "0s" uses the transport
	// default.
	Timeout string `json:"timeout,omitempty"`
}

// StagingConfig holds the staging store settings.
type StagingConfig struct {
	// Backend is "disk", "memory" or "s3".
	Backend string `json:"backend,omitempty"`

	// Dir is the disk backend's directory.
	Dir string `json:"dir,omitempty"`

	// MaxAge is how long an unclaimed staged file is kept.
	MaxAge string `json:"max_age,omitempty"`

	// RateLimit is the number of staging requests per second allowed
	// per client IP, with bursts of RateBurst.
	RateLimit float64 `json:"rate_limit,omitempty"`
	RateBurst int     `json:"rate_burst,omitempty"`

	// TrustedProxies are proxy IPs or CIDRs whose forwarding headers
	// are believed when resolving the client IP.
	TrustedProxies []string `json:"trusted_proxies,omitempty"`

	S3 S3Config `json:"s3"`
}

// S3Config holds the S3 backend settings.
type S3Config struct {
	Bucket          string `json:"bucket,omitempty"`
	Prefix          string `json:"prefix,omitempty"`
	Region          string `json:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	UsePathStyle    bool   `json:"use_path_style,omitempty"`
}

// SessionConfig holds WebSocket session settings.
type SessionConfig struct {
	// MaxSessions is the maximum number of concurrent sessions. 0 means
	// no limit.
	MaxSessions int `json:"max_sessions,omitempty"`

	// ReadTimeout is the idle time after which a silent client is
	// dropped (e.g. "60s").
	ReadTimeout string `json:"read_timeout,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		APIBaseURL: DefaultAPIBaseURL,
		ListenAddr: DefaultListenAddr,
		Upload: UploadConfig{
			MaxFileSize:         upload.MaxFileSize,
			SupportedExtensions: append([]string(nil), upload.DefaultExtensions...),
			StatsRefreshDelay:   "2s",
			AlertTTL:            "5s",
			MaxConcurrent:       4,
		},
		Staging: StagingConfig{
			Backend:   BackendDisk,
			Dir:       filepath.Join(os.TempDir(), "uploadui"),
			MaxAge:    "1h",
			RateLimit: 5,
			RateBurst: 20,
		},
		Session: SessionConfig{
			ReadTimeout: "60s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for uploadui.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'uploadui init' to write one with the defaults")
		}
		return nil, errors.New("E101").Wrap(err).WithDetail(err.Error())
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		e := errors.New("E101").
			Wrap(err).
			WithDetail(err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
		if line, col, ok := offsetPosition(data, err); ok {
			e = e.WithLocation(path, line, col)
		}
		return nil, e
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// offsetPosition converts the byte offset of a JSON error to a 1-based
// line and column.
func offsetPosition(data []byte, err error) (line, col int, ok bool) {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		offset    int64
	)
	switch {
	case stderrors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case stderrors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0, 0, false
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col, true
}

// Resolve builds the effective configuration for dir: uploadui.json when
// present (defaults otherwise), then the environment overlay, then
// validation.
func Resolve(dir string, envFiles ...string) (*Config, error) {
	cfg, err := Load(dir)
	if err != nil {
		var e *errors.Error
		if !stderrors.As(err, &e) || e.Code != "E100" {
			return nil, err
		}
		cfg = New()
	}
	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E101").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E101").Wrap(err).WithDetail(err.Error())
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.APIBaseURL == "" {
		c.APIBaseURL = d.APIBaseURL
	}
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}

	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = d.Upload.MaxFileSize
	}
	if len(c.Upload.SupportedExtensions) == 0 {
		c.Upload.SupportedExtensions = d.Upload.SupportedExtensions
	}
	if c.Upload.StatsRefreshDelay == "" {
		c.Upload.StatsRefreshDelay = d.Upload.StatsRefreshDelay
	}
	if c.Upload.AlertTTL == "" {
		c.Upload.AlertTTL = d.Upload.AlertTTL
	}

	if c.Staging.Backend == "" {
		c.Staging.Backend = d.Staging.Backend
	}
	if c.Staging.Dir == "" {
		c.Staging.Dir = d.Staging.Dir
	}
	if c.Staging.MaxAge == "" {
		c.Staging.MaxAge = d.Staging.MaxAge
	}
	if c.Staging.RateLimit == 0 {
		c.Staging.RateLimit = d.Staging.RateLimit
	}
	if c.Staging.RateBurst == 0 {
		c.Staging.RateBurst = d.Staging.RateBurst
	}

	if c.Session.ReadTimeout == "" {
		c.Session.ReadTimeout = d.Session.ReadTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("E106").
			WithDetailf("%q is not an http(s) URL", c.APIBaseURL).
			WithSuggestion("Set api_base_url or API_BASE_URL to e.g. http://localhost:8000")
	}

	if c.Upload.MaxFileSize <= 0 {
		return errors.New("E102").WithDetail("max_file_size must be positive")
	}
	for _, ext := range c.Upload.SupportedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return errors.New("E102").
				WithDetailf("supported extension %q must start with a dot", ext).
				WithSuggestion(`Write extensions like ".pdf"`)
		}
	}
	if c.Upload.MaxConcurrent < 0 {
		return errors.New("E102").WithDetail("max_concurrent must not be negative")
	}
	if c.Upload.MaxFiles < 0 {
		return errors.New("E102").WithDetail("max_files must not be negative")
	}

	for _, d := range []struct{ name, value string }{
		{"stats_refresh_delay", c.Upload.StatsRefreshDelay},
		{"alert_ttl", c.Upload.AlertTTL},
		{"timeout", c.Upload.Timeout},
		{"max_age", c.Staging.MaxAge},
		{"read_timeout", c.Session.ReadTimeout},
	} {
		if _, err := parseDuration(d.value); err != nil {
			return errors.New("E103").
				Wrap(err).
				WithDetailf("%s: %q is not a duration", d.name, d.value).
				WithSuggestion(`Use Go duration syntax such as "2s" or "1h30m"`)
		}
	}

	switch c.Staging.Backend {
	case BackendDisk, BackendMemory:
	case BackendS3:
		if c.Staging.S3.Bucket == "" {
			return errors.New("E105").
				WithSuggestion("Set staging.s3.bucket or S3_BUCKET")
		}
	default:
		return errors.New("E104").
			WithDetailf("%q is not one of disk, memory, s3", c.Staging.Backend)
	}
	if c.Staging.RateLimit < 0 || c.Staging.RateBurst < 0 {
		return errors.New("E102").WithDetail("staging rate_limit and rate_burst must not be negative")
	}

	if c.Session.MaxSessions < 0 {
		return errors.New("E102").WithDetail("max_sessions must not be negative")
	}

	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return errors.New("E102").WithDetailf("log level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return errors.New("E102").WithDetailf("log format %q is not text or json", c.Log.Format)
	}
	return nil
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseDuration accepts "" as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func mustDuration(s string) time.Duration {
	d, _ := parseDuration(s)
	return d
}

// Constraints returns the validation rules for the controller.
func (c *Config) Constraints() upload.Constraints {
	return upload.Constraints{
		MaxFileSize:       c.Upload.MaxFileSize,
		AllowedExtensions: append([]string(nil), c.Upload.SupportedExtensions...),
	}
}

// StatsDelay returns the parsed stats refresh delay.
func (c *Config) StatsDelay() time.Duration { return mustDuration(c.Upload.StatsRefreshDelay) }

// AlertTTL returns the parsed banner lifetime.
func (c *Config) AlertTTL() time.Duration { return mustDuration(c.Upload.AlertTTL) }

// UploadTimeout returns the parsed API request timeout.
func (c *Config) UploadTimeout() time.Duration { return mustDuration(c.Upload.Timeout) }

// StagingMaxAge returns how long unclaimed staged files are kept.
func (c *Config) StagingMaxAge() time.Duration { return mustDuration(c.Staging.MaxAge) }

// ReadTimeout returns the session read timeout.
func (c *Config) ReadTimeout() time.Duration { return mustDuration(c.Session.ReadTimeout) }

// LogLevel returns the slog level for Log.Level.
func (c *Config) LogLevel() slog.Level {
	return levels[strings.ToLower(c.Log.Level)]
}
