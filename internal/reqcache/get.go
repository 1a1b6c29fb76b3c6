package reqcache

import (
	"context"
	"encoding/json"
	"net/http"
)

// RequestConfig is the per-call configuration handed to a Getter.
type RequestConfig struct {
	Params  any
	Headers map[string]string
}

func (cfg *RequestConfig) authorization() string {
	if cfg == nil {
		return ""
	}
	if v := cfg.Headers["Authorization"]; v != "" {
		return v
	}
	return cfg.Headers["authorization"]
}

func (cfg *RequestConfig) params() any {
	if cfg == nil {
		return nil
	}
	return cfg.Params
}

// Envelope is a decoded response as returned by a Getter.
type Envelope struct {
	Data       json.RawMessage
	Status     int
	StatusText string
	Headers    http.Header
	Config     *RequestConfig
}

// Decode unmarshals the envelope data into v.
func (e *Envelope) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Getter is a client exposing a structured GET.
type Getter interface {
	Get(ctx context.Context, url string, cfg *RequestConfig) (*Envelope, error)
}

// Get performs a cached GET through getter. The key covers url, cfg.Params
// and the Authorization header in cfg.Headers. A hit is answered without
// calling getter, with StatusText "OK", empty headers and the caller's
// config. Successful 2xx envelopes are stored.
func (c *Cache) Get(ctx context.Context, getter Getter, url string, cfg *RequestConfig, opts RequestOptions) (*Envelope, error) {
	if !c.enabled() {
		if c != nil {
			c.metrics.request(resultPassthrough)
		}
		return getter.Get(ctx, url, cfg)
	}

	key := Key(http.MethodGet, url, cfg.params(), cfg.authorization())
	if e := c.lookupKey(ctx, key, opts); e != nil {
		return &Envelope{
			Data:       e.Data,
			Status:     e.StatusCode(),
			StatusText: "OK",
			Headers:    http.Header{},
			Config:     cfg,
		}, nil
	}

	env, err := getter.Get(ctx, url, cfg)
	if err != nil {
		return env, err
	}
	if env != nil && env.Status >= 200 && env.Status < 300 {
		c.write(ctx, key, env.Data, env.Status)
	}
	return env, nil
}
