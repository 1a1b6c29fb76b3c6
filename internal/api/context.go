package api

import (
	"context"

	"github.com/eysh-app/eysh/internal/reqcache"
)

type contextKey string

const refreshKey contextKey = "api_refresh"

// WithRefresh marks reads made with ctx to skip cached entries. Fresh
// responses are still stored.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey, true)
}

func requestOptions(ctx context.Context) reqcache.RequestOptions {
	force, _ := ctx.Value(refreshKey).(bool)
	return reqcache.RequestOptions{Force: force}
}
