package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears every variable Load reads and points config lookups at a
// temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{
		"EYSH_API_URL", "EYSH_TOKEN", "EYSH_DB", "EYSH_LOG_LEVEL", "EYSH_SUBJECT",
		"EYSH_CACHE", "EYSH_REDIS_URL", "EYSH_CACHE_DIR", "EYSH_SESSION",
		"EYSH_NAVIGATION", "EYSH_CACHE_TTL", "EYSH_HTTP_TIMEOUT",
		"EYSH_QUESTION_COUNT", "EYSH_NO_KEYRING", "EYSH_CONFIG",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", dir)
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "eysh", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL.Std())
	assert.Equal(t, 20, cfg.QuestionCount)
	assert.Equal(t, filepath.Join(dir, "eysh"), cfg.Cache.Dir)
	assert.NotEmpty(t, cfg.Cache.Session)
	assert.Equal(t, SourceDefault, cfg.SourceOf("api_url"))
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, `
api_url: https://file.example/
log_level: info
question_count: 10
cache:
  backend: file
  ttl: 90
`)

	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "https://file.example", cfg.APIURL)
	assert.Equal(t, SourceFile, cfg.SourceOf("api_url"))
	assert.Equal(t, CacheFile, cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL.Std())
	assert.Equal(t, 10, cfg.QuestionCount)

	t.Setenv("EYSH_API_URL", "https://env.example")
	t.Setenv("EYSH_CACHE_TTL", "2m")
	cfg, err = Load(FlagOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.APIURL)
	assert.Equal(t, SourceEnv, cfg.SourceOf("api_url"))
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL.Std())

	cfg, err = Load(FlagOverrides{APIURL: "https://flag.example", NoCache: true, Reload: true, Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example", cfg.APIURL)
	assert.Equal(t, CacheOff, cfg.Cache.Backend)
	assert.Equal(t, "reload", cfg.Navigation)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, SourceFlag, cfg.SourceOf("cache.backend"))
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	isolate(t)
	_, err := Load(FlagOverrides{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoad_MalformedFileFails(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "cache: [unclosed")
	_, err := Load(FlagOverrides{})
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	isolate(t)

	t.Setenv("EYSH_CACHE", "memcached")
	_, err := Load(FlagOverrides{})
	assert.ErrorContains(t, err, "unknown cache backend")

	t.Setenv("EYSH_CACHE", "redis")
	_, err = Load(FlagOverrides{})
	assert.ErrorContains(t, err, "EYSH_REDIS_URL")

	t.Setenv("EYSH_REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)

	t.Setenv("EYSH_QUESTION_COUNT", "80")
	_, err = Load(FlagOverrides{})
	assert.Error(t, err)
}

func TestLoad_SessionAndNavigationFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("EYSH_SESSION", "tab-7")
	t.Setenv("EYSH_NAVIGATION", "reload")
	t.Setenv("EYSH_NO_KEYRING", "1")

	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "tab-7", cfg.Cache.Session)
	assert.Equal(t, filepath.Join(cfg.Cache.Dir, "sessions", "tab-7"), cfg.Cache.SessionDir())
	assert.Equal(t, "reload", cfg.Navigation)
	assert.True(t, cfg.NoKeyring)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"300", 5 * time.Minute, false},
		{"90s", 90 * time.Second, false},
		{"1h", time.Hour, false},
		{"-5", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
