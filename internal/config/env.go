package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/aiton-rag/uploadui/internal/errors"
)

// Environment keys.
const (
	EnvAPIBaseURL          = "API_BASE_URL"
	EnvListenAddr          = "LISTEN_ADDR"
	EnvMaxFileSize         = "MAX_FILE_SIZE"
	EnvSupportedExtensions = "SUPPORTED_EXTENSIONS"
	EnvStatsRefreshDelay   = "STATS_REFRESH_DELAY"
	EnvAlertTTL            = "ALERT_TTL"
	EnvMaxConcurrent       = "MAX_CONCURRENT_UPLOADS"
	EnvMaxFiles            = "MAX_FILES_PER_DROP"
	EnvUploadTimeout       = "UPLOAD_TIMEOUT"
	EnvStagingBackend      = "STAGING_BACKEND"
	EnvStagingDir          = "STAGING_DIR"
	EnvStagingMaxAge       = "STAGING_MAX_AGE"
	EnvStageRateLimit      = "STAGE_RATE_LIMIT"
	EnvStageRateBurst      = "STAGE_RATE_BURST"
	EnvTrustedProxies      = "TRUSTED_PROXIES"
	EnvS3Bucket            = "S3_BUCKET"
	EnvS3Prefix            = "S3_PREFIX"
	EnvS3Region            = "S3_REGION"
	EnvS3Endpoint          = "S3_ENDPOINT"
	EnvS3AccessKeyID       = "S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey   = "S3_SECRET_ACCESS_KEY"
	EnvS3UsePathStyle      = "S3_USE_PATH_STYLE"
	EnvMaxSessions         = "MAX_SESSIONS"
	EnvReadTimeout         = "SESSION_READ_TIMEOUT"
	EnvLogLevel            = "LOG_LEVEL"
	EnvLogFormat           = "LOG_FORMAT"
	EnvAllowedOrigins      = "ALLOWED_ORIGINS"
)

// LoadEnvFiles loads .env files into the process environment without
// overriding variables that are already set. With no arguments it reads
// ".env" in the working directory. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.New("E107").Wrap(err).WithDetailf("%s: %v", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields with the environment variables lookup finds.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.str(EnvAPIBaseURL, &c.APIBaseURL)
	e.str(EnvListenAddr, &c.ListenAddr)
	e.int64(EnvMaxFileSize, &c.Upload.MaxFileSize)
	e.extensions(EnvSupportedExtensions, &c.Upload.SupportedExtensions)
	e.str(EnvStatsRefreshDelay, &c.Upload.StatsRefreshDelay)
	e.str(EnvAlertTTL, &c.Upload.AlertTTL)
	e.int(EnvMaxConcurrent, &c.Upload.MaxConcurrent)
	e.int(EnvMaxFiles, &c.Upload.MaxFiles)
	e.str(EnvUploadTimeout, &c.Upload.Timeout)

	e.str(EnvStagingBackend, &c.Staging.Backend)
	e.str(EnvStagingDir, &c.Staging.Dir)
	e.str(EnvStagingMaxAge, &c.Staging.MaxAge)
	e.float(EnvStageRateLimit, &c.Staging.RateLimit)
	e.int(EnvStageRateBurst, &c.Staging.RateBurst)
	e.list(EnvTrustedProxies, &c.Staging.TrustedProxies)
	e.str(EnvS3Bucket, &c.Staging.S3.Bucket)
	e.str(EnvS3Prefix, &c.Staging.S3.Prefix)
	e.str(EnvS3Region, &c.Staging.S3.Region)
	e.str(EnvS3Endpoint, &c.Staging.S3.Endpoint)
	e.str(EnvS3AccessKeyID, &c.Staging.S3.AccessKeyID)
	e.str(EnvS3SecretAccessKey, &c.Staging.S3.SecretAccessKey)
	e.bool(EnvS3UsePathStyle, &c.Staging.S3.UsePathStyle)

	e.int(EnvMaxSessions, &c.Session.MaxSessions)
	e.str(EnvReadTimeout, &c.Session.ReadTimeout)
	e.str(EnvLogLevel, &c.Log.Level)
	e.str(EnvLogFormat, &c.Log.Format)
	e.list(EnvAllowedOrigins, &c.AllowedOrigins)
	return e.err
}

// envReader records the first malformed value.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) fail(key, value, kind string) {
	if e.err == nil {
		e.err = errors.New("E102").WithDetailf("%s=%q is not %s", key, value, kind)
	}
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, "an integer")
			return
		}
		*dst = n
	}
}

func (e *envReader) int64(key string, dst *int64) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.fail(key, v, "an integer")
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, "a number")
			return
		}
		*dst = f
	}
}

func (e *envReader) bool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, "a boolean")
			return
		}
		*dst = b
	}
}

// list splits a comma separated value.
func (e *envReader) list(key string, dst *[]string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	*dst = out
}

// extensions reads a list such as "pdf, .DOCX" as [".pdf", ".docx"].
func (e *envReader) extensions(key string, dst *[]string) {
	var exts []string
	e.list(key, &exts)
	if exts == nil {
		return
	}
	for i, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[i] = ext
	}
	*dst = exts
}
