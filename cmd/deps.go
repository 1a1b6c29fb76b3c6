package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/eysh-app/eysh/internal/advisor"
	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/auth"
	"github.com/eysh-app/eysh/internal/config"
	"github.com/eysh-app/eysh/internal/llm"
	"github.com/eysh-app/eysh/internal/output"
	"github.com/eysh-app/eysh/internal/reqcache"
	"github.com/eysh-app/eysh/internal/store"
)

// invocation holds what one run of the binary has opened. Everything past
// cfg and out is created on first use.
type invocation struct {
	cfg *config.Config
	out *output.Writer

	cache *reqcache.Cache
	store *store.Store
	creds *auth.Store
}

var env invocation

func (e *invocation) close() {
	if e.cache != nil {
		slog.Debug("response cache", "stats", e.cache.Stats())
		if err := e.cache.Close(); err != nil {
			slog.Debug("close cache", "err", err)
		}
		e.cache = nil
	}
	if e.store != nil {
		e.store.Close()
		e.store = nil
	}
}

// responseCache builds the cache for the configured backend. A storage
// that cannot be opened degrades to no caching.
func (e *invocation) responseCache(ctx context.Context) *reqcache.Cache {
	if e.cache != nil {
		return e.cache
	}
	c, err := newCache(ctx, e.cfg)
	if err != nil {
		slog.Warn("response cache unavailable", "backend", e.cfg.Cache.Backend, "err", err)
		c = reqcache.Disabled()
	}
	e.cache = c
	return c
}

func newCache(ctx context.Context, cfg *config.Config) (*reqcache.Cache, error) {
	var storage reqcache.Storage
	switch cfg.Cache.Backend {
	case config.CacheOff:
		return reqcache.Disabled(), nil
	case config.CacheFile:
		fs, err := reqcache.NewFileStorage(cfg.Cache.SessionDir())
		if err != nil {
			return nil, err
		}
		storage = fs
	case config.CacheRedis:
		rs, err := reqcache.NewRedisStorage(ctx, reqcache.RedisConfig{URL: cfg.Cache.RedisURL, Namespace: cfg.Cache.Session})
		if err != nil {
			return nil, err
		}
		storage = rs
	default:
		storage = reqcache.NewMemoryStorage()
	}
	return reqcache.New(reqcache.Options{
		Storage:    storage,
		Navigation: reqcache.ParseNavigation(cfg.Navigation),
		TTL:        cfg.Cache.TTL.Std(),
		Logger:     slog.Default(),
	}), nil
}

func (e *invocation) credentials() *auth.Store {
	if e.creds != nil {
		return e.creds
	}
	dir, err := auth.DefaultDir()
	if err != nil {
		dir = e.cfg.Cache.Dir
	}
	e.creds = auth.NewStore(dir, e.cfg.NoKeyring)
	return e.creds
}

// authorization returns the header value for the configured backend:
// EYSH_TOKEN first, then saved credentials. Empty means logged out.
func (e *invocation) authorization() (string, error) {
	if e.cfg.Token != "" {
		return (&auth.Credentials{AccessToken: e.cfg.Token}).Authorization(), nil
	}
	creds, err := e.credentials().Load(e.cfg.APIURL)
	if errors.Is(err, auth.ErrNotLoggedIn) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if info, err := auth.Inspect(creds.AccessToken); err == nil && info.Expired(time.Now()) {
		fmt.Fprintln(os.Stderr, "warning: saved login has expired; run: eysh login")
	}
	return creds.Authorization(), nil
}

// client builds an API client. With requireAuth a missing login fails
// before any request is made.
func (e *invocation) client(ctx context.Context, requireAuth bool) (*api.Client, error) {
	authz, err := e.authorization()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if requireAuth && authz == "" {
		return nil, output.ErrAuth("not logged in", auth.ErrNotLoggedIn)
	}
	return api.New(e.cfg.APIURL,
		api.WithHTTPClient(&http.Client{Timeout: e.cfg.HTTPTimeout.Std()}),
		api.WithCache(e.responseCache(ctx)),
		api.WithAuthorization(authz),
		api.WithUserAgent("eysh/"+version),
	), nil
}

func (e *invocation) openStore() (*store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	path := e.cfg.DBPath
	if path == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		path = p
	} else if err := store.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.store = st
	return st, nil
}

// provider builds the configured LLM provider, logging requests to events.
func provider(ctx context.Context, events store.EventRepo) (llm.Provider, error) {
	return llm.NewProvider(ctx, llm.ConfigFromEnv(), events)
}

// studyAdvisor never fails: without a usable provider it serves static
// tips.
func studyAdvisor(ctx context.Context, events store.EventRepo) *advisor.Service {
	p, err := provider(ctx, events)
	if err != nil {
		if !errors.Is(err, llm.ErrDisabled) {
			fmt.Fprintln(os.Stderr, "warning: LLM provider not configured:", err)
		}
		return advisor.NewService(nil, advisor.DefaultConfig())
	}
	return advisor.NewService(p, advisor.DefaultConfig())
}

// classify maps an error to its user-facing form and exit code.
func classify(err error) *output.Error {
	var oe *output.Error
	if errors.As(err, &oe) {
		return oe
	}
	var netErr net.Error
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		return output.ErrAuth("not logged in", err)
	case api.IsUnauthorized(err):
		return output.ErrAuth("the server rejected your login", err)
	case errors.Is(err, context.Canceled):
		return &output.Error{Code: output.CodeAPI, Message: "interrupted", Cause: err}
	case api.IsNotFound(err):
		return &output.Error{Code: output.CodeNotFound, Message: err.Error(), Cause: err}
	case errors.As(err, &netErr):
		return output.ErrNetwork(err)
	}
	return output.AsError(err)
}
