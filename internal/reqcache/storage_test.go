package reqcache

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis answers the commands RedisStorage issues from an in-memory map,
// using go-redis result constructors. Scan pages one key at a time.
type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	closed bool
	scans  int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		return redis.NewStatusResult("", errors.New("unsupported value type"))
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Scan(_ context.Context, cursor uint64, match string, _ int64) *redis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++

	prefix := strings.TrimSuffix(match, "*")
	var matched []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	sort.Strings(matched)
	if int(cursor) >= len(matched) {
		return redis.NewScanCmdResult(nil, 0, nil)
	}
	next := cursor + 1
	if int(next) >= len(matched) {
		next = 0
	}
	return redis.NewScanCmdResult(matched[cursor:cursor+1], next, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func storages(t *testing.T) map[string]Storage {
	t.Helper()
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"file":   fs,
		"redis":  newRedisStorage(newFakeRedis(), 0, "s1"),
	}
}

func TestStorageContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			v, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, v)

			require.NoError(t, s.Set(ctx, Prefix+"GET:/a?|", []byte(`{"t":1}`)))
			require.NoError(t, s.Set(ctx, Prefix+"GET:/b?|Bearer x", []byte(`{"t":2}`)))
			require.NoError(t, s.Set(ctx, "other", []byte(`x`)))

			v, err = s.Get(ctx, Prefix+"GET:/a?|")
			require.NoError(t, err)
			assert.Equal(t, `{"t":1}`, string(v))

			require.NoError(t, s.Set(ctx, Prefix+"GET:/a?|", []byte(`{"t":3}`)))
			v, _ = s.Get(ctx, Prefix+"GET:/a?|")
			assert.Equal(t, `{"t":3}`, string(v))

			keys, err := s.Keys(ctx, Prefix)
			require.NoError(t, err)
			sort.Strings(keys)
			assert.Equal(t, []string{Prefix + "GET:/a?|", Prefix + "GET:/b?|Bearer x"}, keys)

			require.NoError(t, s.Delete(ctx, Prefix+"GET:/a?|"))
			require.NoError(t, s.Delete(ctx, Prefix+"GET:/a?|"))
			v, _ = s.Get(ctx, Prefix+"GET:/a?|")
			assert.Nil(t, v)

			keys, _ = s.Keys(ctx, "")
			assert.Len(t, keys, 2)
			assert.NoError(t, s.Close())
		})
	}
}

func TestStorage_CacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			c := New(Options{Storage: s, Navigation: StaticNavigation(NavigationReload)})
			key := Key("GET", "/api/roadmap", nil, "Bearer t")
			c.write(ctx, key, []byte(`{"weeks":[]}`), 200)

			e, res := c.read(ctx, key, DefaultTTL)
			require.Equal(t, lookupHit, res)
			assert.JSONEq(t, `{"weeks":[]}`, string(e.Data))

			removed, err := c.Clear(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)
		})
	}
}

func TestRedisStorage_ScanWalksAllPages(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	s := newRedisStorage(fake, time.Hour, "")
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, Prefix+k, []byte("1")))
	}

	keys, err := s.Keys(ctx, Prefix)
	require.NoError(t, err)
	assert.Len(t, keys, 3)
	assert.Equal(t, 3, fake.scans)

	require.NoError(t, s.Close())
	assert.True(t, fake.closed)
}

func TestRedisStorage_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	srv, hits := backend(t, http.StatusOK, "application/json", `{"weeks":[]}`)
	url := srv.URL + "/api/roadmap"

	a := New(Options{Storage: newRedisStorage(fake, 0, "tty-a")})
	b := New(Options{Storage: newRedisStorage(fake, 0, "tty-b")})

	get(t, a, url, "tok", RequestOptions{})
	get(t, b, url, "tok", RequestOptions{})
	assert.Equal(t, int32(2), hits.Load(), "another session must not read this one's entry")

	get(t, a, url, "tok", RequestOptions{})
	assert.Equal(t, int32(2), hits.Load(), "the same session still hits")

	// A reload in session b purges only b.
	reloaded := New(Options{Storage: newRedisStorage(fake, 0, "tty-b"), Navigation: StaticNavigation(NavigationReload)})
	reloaded.purgeOnReload(ctx)
	n, err := reloaded.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = a.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err := a.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	keys, err := newRedisStorage(fake, 0, "tty-a").Keys(ctx, Prefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Empty(t, fake.data)
}

func TestRedisStorage_NamespacedKeys(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	s := newRedisStorage(fake, 0, "tty-a")
	key := Key("GET", "/api/roadmap", nil, "Bearer t")
	require.NoError(t, s.Set(ctx, key, []byte("1")))

	_, stored := fake.data["eysh_session:tty-a:"+key]
	assert.True(t, stored)
	keys, err := s.Keys(ctx, Prefix)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `eysh_cache:`, escapeGlob("eysh_cache:"))
	assert.Equal(t, `a\*b\?\[c\]`, escapeGlob("a*b?[c]"))
}

func TestFileStorage_CollisionReadsAsMiss(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	// A different key stored under k2's file name.
	require.NoError(t, os.WriteFile(fs.path("k2"), []byte("k1\nv"), 0o600))
	v, err := fs.Get(ctx, "k2")
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, fs.Set(ctx, "bad\nkey", []byte("v")))
}
