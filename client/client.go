// Package client performs web-service calls over HTTP and hands the answers
// to the codec: parameters are flattened with package params, answers parsed
// with package jsonval and checked with package envelope.
//
// The client never retries. A failed call surfaces one of *HTTPError,
// *ExceptionError, *envelope.MalformedError or *envelope.WarningsError (or a
// transport error) and recovery is left to the caller.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/ggoodman/moodlews-go/cache"
	"github.com/ggoodman/moodlews-go/envelope"
	"github.com/ggoodman/moodlews-go/internal/logctx"
	"github.com/ggoodman/moodlews-go/jsonval"
	"github.com/ggoodman/moodlews-go/params"
	"github.com/google/uuid"
)

// RESTPath is the REST endpoint below a Moodle site root.
const RESTPath = "/webservice/rest/server.php"

const maxAnswerBytes = 64 << 20

var jsonMediaType = contenttype.NewMediaType("application/json")

// Client calls web-service functions of one Moodle site. It is safe for
// concurrent use.
type Client struct {
	endpoint *url.URL
	token    string
	http     *http.Client
	log      *slog.Logger
	cache    cache.Cache
	cacheTTL time.Duration
	dumpDir  string
}

// New builds a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("client: token is required")
	}
	endpoint, err := resolveEndpoint(cfg.URL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
		cacheTTL: cfg.CacheTTL,
		dumpDir:  cfg.DumpDir,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logctx.Wrap(c.log)
	return c, nil
}

func resolveEndpoint(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("client: url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("client: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("client: unsupported url scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, ".php") {
		u.Path = strings.TrimSuffix(u.Path, "/") + RESTPath
	}
	u.RawQuery = ""
	return u, nil
}

// Endpoint returns the REST endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint.String() }

// Call invokes function and validates the answer envelope. A void answer
// yields an Envelope without elements.
func (c *Client) Call(ctx context.Context, function string, p params.Map, opts ...CallOption) (*envelope.Envelope, error) {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}

	flat, err := params.Encode(p)
	if err != nil {
		return nil, err
	}
	ctx = c.withCall(ctx, function, flat)

	cacheKey := requestKey(function, flat)
	useCache := c.cache != nil && !o.noCache
	if useCache {
		item, err := c.cache.Get(ctx, cacheKey, cache.WithNamespace(function))
		if err != nil {
			c.log.WarnContext(ctx, "cache lookup failed", slog.String("err", err.Error()))
		} else if item != nil {
			c.log.DebugContext(ctx, "answer served from cache", slog.Int("bytes", len(item.Data)))
			return c.interpret(ctx, function, item.Data, o)
		}
	}

	body, err := c.send(ctx, function, flat)
	if err != nil {
		return nil, err
	}
	env, err := c.interpret(ctx, function, body, o)
	if err != nil {
		return nil, err
	}

	if useCache && !envelope.IsVoid(body) && env.Warnings.Len() == 0 {
		var setOpts []cache.Option
		setOpts = append(setOpts, cache.WithNamespace(function))
		if c.cacheTTL > 0 {
			setOpts = append(setOpts, cache.WithTTL(c.cacheTTL))
		}
		if err := c.cache.Set(ctx, cacheKey, body, setOpts...); err != nil {
			c.log.WarnContext(ctx, "cache store failed", slog.String("err", err.Error()))
		}
	}
	c.invalidate(ctx, o.invalidates)
	return env, nil
}

// CallVoid invokes a function that answers with null, such as a save
// operation. Any other answer is an error.
func (c *Client) CallVoid(ctx context.Context, function string, p params.Map, opts ...CallOption) error {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}

	flat, err := params.Encode(p)
	if err != nil {
		return err
	}
	ctx = c.withCall(ctx, function, flat)

	body, err := c.send(ctx, function, flat)
	if err != nil {
		return err
	}
	if !envelope.IsVoid(body) {
		if exc := asException(function, body); exc != nil {
			return exc
		}
		return fmt.Errorf("%w: %s expected null, got %d bytes", ErrUnexpectedAnswer, function, len(body))
	}
	c.invalidate(ctx, o.invalidates)
	return nil
}

// CallRaw invokes function and returns the unparsed answer body. Exceptions
// reported by the server are still turned into *ExceptionError.
func (c *Client) CallRaw(ctx context.Context, function string, p params.Map) ([]byte, error) {
	flat, err := params.Encode(p)
	if err != nil {
		return nil, err
	}
	ctx = c.withCall(ctx, function, flat)
	body, err := c.send(ctx, function, flat)
	if err != nil {
		return nil, err
	}
	if exc := asException(function, body); exc != nil {
		return nil, exc
	}
	return body, nil
}

func (c *Client) withCall(ctx context.Context, function string, flat *params.Flattened) context.Context {
	return logctx.WithCallData(ctx, &logctx.CallData{
		CallID:   uuid.NewString(),
		Function: function,
		Params:   flat.Len(),
		Server:   c.endpoint.Host,
	})
}

func (c *Client) interpret(ctx context.Context, function string, body []byte, o *callOptions) (*envelope.Envelope, error) {
	if envelope.IsVoid(body) {
		return &envelope.Envelope{Warnings: jsonval.ArrayValue()}, nil
	}
	root, err := jsonval.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("client: %s: %w", function, err)
	}
	if exc := exceptionFrom(function, root); exc != nil {
		return nil, exc
	}
	c.dump(ctx, function, body)

	env, err := envelope.Validate(root, o.ignoreWarnings)
	if err != nil {
		return nil, err
	}
	if env.Warnings.Len() > 0 {
		c.log.WarnContext(ctx, "server reported warnings", slog.String("warnings", env.Warnings.String()))
	}
	c.log.DebugContext(ctx, "answer validated", slog.String("data_key", env.DataKey), slog.Int("elements", env.Len()))
	return env, nil
}

func (c *Client) send(ctx context.Context, function string, flat *params.Flattened) ([]byte, error) {
	u := *c.endpoint
	u.RawQuery = buildQuery(c.token, function, flat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: %s: build request: %w", function, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.log.DebugContext(ctx, "calling web service")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s: %w", function, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Function: function}
	}
	if err := checkContentType(resp.Header.Get("Content-Type")); err != nil {
		return nil, fmt.Errorf("client: %s: %w", function, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerBytes))
	if err != nil {
		return nil, fmt.Errorf("client: %s: read answer: %w", function, err)
	}
	c.log.DebugContext(ctx, "received answer",
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

// buildQuery keeps the flattened parameters in emission order; url.Values
// would sort them.
func buildQuery(token, function string, flat *params.Flattened) string {
	var b strings.Builder
	b.WriteString("moodlewsrestformat=json&wstoken=")
	b.WriteString(url.QueryEscape(token))
	b.WriteString("&wsfunction=")
	b.WriteString(url.QueryEscape(function))
	for _, p := range flat.Pairs() {
		b.WriteByte('&')
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func checkContentType(header string) error {
	if header == "" {
		return nil
	}
	mt := contenttype.NewMediaType(header)
	if mt.Type != jsonMediaType.Type || mt.Subtype != jsonMediaType.Subtype {
		return fmt.Errorf("%w: %q", ErrUnexpectedContentType, header)
	}
	return nil
}

func requestKey(function string, flat *params.Flattened) string {
	h := sha256.New()
	h.Write([]byte(function))
	for _, p := range flat.Pairs() {
		h.Write([]byte{0})
		h.Write([]byte(p.Key))
		h.Write([]byte{0})
		h.Write([]byte(p.Value))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Client) invalidate(ctx context.Context, functions []string) {
	if c.cache == nil {
		return
	}
	for _, fn := range functions {
		if err := c.cache.Delete(ctx, cache.WithNamespace(fn)); err != nil {
			c.log.WarnContext(ctx, "cache invalidation failed", slog.String("target", fn), slog.String("err", err.Error()))
		}
	}
}

func (c *Client) dump(ctx context.Context, function string, body []byte) {
	if c.dumpDir == "" {
		return
	}
	if !dumpable(function) {
		c.log.WarnContext(ctx, "answer not dumped, function name is not a file name")
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(body)
	}
	path := filepath.Join(c.dumpDir, function+".json")
	if err := os.WriteFile(path, pretty.Bytes(), 0o644); err != nil {
		c.log.WarnContext(ctx, "answer dump failed", slog.String("path", path), slog.String("err", err.Error()))
	}
}

// dumpable reports whether function can name a file inside the dump
// directory without leaving it.
func dumpable(function string) bool {
	return function != "" &&
		!strings.ContainsAny(function, `/\`) &&
		!strings.Contains(function, "..") &&
		filepath.Base(function) == function
}

func asException(function string, body []byte) *ExceptionError {
	root, err := jsonval.Parse(body)
	if err != nil {
		return nil
	}
	return exceptionFrom(function, root)
}

func exceptionFrom(function string, root jsonval.Value) *ExceptionError {
	exc, ok := root.Get("exception")
	if !ok {
		return nil
	}
	e := &ExceptionError{Function: function}
	e.Exception, _ = exc.AsString()
	if v, ok := root.Get("errorcode"); ok {
		e.ErrorCode, _ = v.AsString()
	}
	if v, ok := root.Get("message"); ok {
		e.Message, _ = v.AsString()
	}
	if v, ok := root.Get("debuginfo"); ok {
		e.DebugInfo, _ = v.AsString()
	}
	return e
}
