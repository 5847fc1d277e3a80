package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ggoodman/moodlews-go/cache"
	"github.com/joeshaw/envdecode"
)

// Config holds connection settings. Fields can be populated from the
// environment with ConfigFromEnv.
type Config struct {
	// URL of the Moodle site or of its REST endpoint. ENV: MOODLE_URL
	URL string `env:"MOODLE_URL,required"`
	// Token is the web-service token. ENV: MOODLE_TOKEN
	Token string `env:"MOODLE_TOKEN,required"`
	// Timeout bounds each HTTP request. ENV: MOODLE_TIMEOUT
	Timeout time.Duration `env:"MOODLE_TIMEOUT,default=30s"`
	// DumpDir, when set, receives a pretty-printed copy of every answer,
	// one file per web-service function. ENV: MOODLE_DUMP_DIR
	DumpDir string `env:"MOODLE_DUMP_DIR"`
	// CacheTTL is the lifetime of cached read-only answers; zero keeps them
	// until evicted. Only used with WithCache. ENV: MOODLE_CACHE_TTL
	CacheTTL time.Duration `env:"MOODLE_CACHE_TTL"`
}

// ConfigFromEnv reads Config from the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("client config: %w", err)
	}
	return cfg, nil
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Config.Timeout is not applied to
// a caller-supplied client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithCache enables answer caching for read-only calls.
func WithCache(cc cache.Cache) Option {
	return func(c *Client) { c.cache = cc }
}

// WithDumpDir overrides Config.DumpDir.
func WithDumpDir(dir string) Option {
	return func(c *Client) { c.dumpDir = dir }
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	ignoreWarnings bool
	noCache        bool
	invalidates    []string
}

// IgnoreWarnings accepts answers whose warnings array is not empty. The
// warnings are logged and returned in the Envelope.
func IgnoreWarnings() CallOption {
	return func(o *callOptions) { o.ignoreWarnings = true }
}

// NoCache bypasses the answer cache for this call.
func NoCache() CallOption {
	return func(o *callOptions) { o.noCache = true }
}

// Invalidates drops the cached answers of the named functions once the call
// succeeds. Used by calls that modify server state.
func Invalidates(functions ...string) CallOption {
	return func(o *callOptions) { o.invalidates = append(o.invalidates, functions...) }
}
