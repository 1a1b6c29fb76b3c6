// Package api is the client for the EYSH REST backend. Reads go through the
// session response cache; writes always reach the backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/eysh-app/eysh/internal/reqcache"
)

// DefaultTimeout bounds one HTTP exchange when no client is supplied.
const DefaultTimeout = 30 * time.Second

// Client talks to one backend.
type Client struct {
	baseURL       string
	http          *http.Client
	cache         *reqcache.Cache
	authorization string
	userAgent     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache routes GET requests through cache.
func WithCache(cache *reqcache.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithAuthorization sets the Authorization header value sent on every
// request, e.g. "Bearer <token>".
func WithAuthorization(value string) Option {
	return func(c *Client) { c.authorization = value }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: "eysh",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// SetAuthorization replaces the Authorization header value.
func (c *Client) SetAuthorization(value string) { c.authorization = value }

// Authorized reports whether requests carry credentials.
func (c *Client) Authorized() bool { return c.authorization != "" }

func (c *Client) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if c.authorization != "" {
		h["Authorization"] = c.authorization
	}
	return h
}

// Get performs an uncached GET of path with cfg.Params as the query string.
// Non-2xx responses are returned as *Error. It satisfies reqcache.Getter.
func (c *Client) Get(ctx context.Context, path string, cfg *reqcache.RequestConfig) (*reqcache.Envelope, error) {
	u, err := c.resolve(path, cfg)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(resp.StatusCode, body)
	}
	return &reqcache.Envelope{
		Data:       asJSON(body),
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    resp.Header,
		Config:     cfg,
	}, nil
}

// getJSON reads path through the cache and decodes the payload into out.
func (c *Client) getJSON(ctx context.Context, path string, params any, out any) error {
	cfg := &reqcache.RequestConfig{Params: params, Headers: c.headers()}
	env, err := c.cache.Get(ctx, c, path, cfg, requestOptions(ctx))
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := env.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// send issues a JSON request that bypasses the cache.
func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// sendForm posts a form-encoded body.
func (c *Client) sendForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	for k, v := range c.headers() {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	slog.Debug("api request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration", time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// resolve joins path onto the base URL and appends cfg.Params as a query.
func (c *Client) resolve(path string, cfg *reqcache.RequestConfig) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if cfg == nil || cfg.Params == nil {
		return u.String(), nil
	}
	q := u.Query()
	if err := addParams(q, cfg.Params); err != nil {
		return "", err
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func addParams(q url.Values, params any) error {
	switch p := params.(type) {
	case url.Values:
		for k, vs := range p {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
	case map[string]string:
		for k, v := range p {
			q.Set(k, v)
		}
	case map[string]any:
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			q.Set(k, fmt.Sprint(p[k]))
		}
	default:
		return fmt.Errorf("unsupported params type %T", params)
	}
	return nil
}

// asJSON returns body when it is JSON and a JSON string of it otherwise.
func asJSON(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	s, _ := json.Marshal(string(body))
	return s
}
