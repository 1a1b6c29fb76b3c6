// Package config provides layered configuration loading.
//
// Precedence: flags > environment (including .env) > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheOff    = "off"
)

// Config holds the resolved configuration.
type Config struct {
	APIURL        string      `yaml:"api_url"`
	Token         string      `yaml:"-"`
	DBPath        string      `yaml:"db"`
	LogLevel      string      `yaml:"log_level"`
	HTTPTimeout   Duration    `yaml:"http_timeout"`
	NoKeyring     bool        `yaml:"no_keyring"`
	Subject       string      `yaml:"subject"`
	QuestionCount int         `yaml:"question_count"`
	Cache         CacheConfig `yaml:"cache"`

	// Navigation is "reload" when this invocation should start with a fresh
	// cache namespace. Never read from the file.
	Navigation string `yaml:"-"`

	// Sources tracks where each value came from.
	Sources map[string]Source `yaml:"-"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Backend  string   `yaml:"backend"`
	TTL      Duration `yaml:"ttl"`
	RedisURL string   `yaml:"redis_url"`
	Dir      string   `yaml:"dir"`
	Session  string   `yaml:"-"`
}

// SessionDir is the directory file-backed caches use for this session.
func (c CacheConfig) SessionDir() string {
	return filepath.Join(c.Dir, "sessions", c.Session)
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values. Zero values do not override.
type FlagOverrides struct {
	ConfigPath string
	APIURL     string
	DBPath     string
	Reload     bool
	NoCache    bool
	Verbose    bool
}

// Default returns the default configuration.
func Default() *Config {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, _ := os.UserHomeDir()
		cacheHome = filepath.Join(home, ".cache")
	}
	return &Config{
		APIURL:        "http://localhost:8000",
		LogLevel:      "warn",
		HTTPTimeout:   Duration(30 * time.Second),
		QuestionCount: 20,
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     Duration(5 * time.Minute),
			Dir:     filepath.Join(cacheHome, "eysh"),
			Session: defaultSession(),
		},
		Sources: make(map[string]Source),
	}
}

// Load resolves the configuration from every layer.
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	// A missing .env is fine; real environment variables always win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed .env: %v\n", err)
	}

	path := overrides.ConfigPath
	explicit := path != ""
	if !explicit {
		path = os.Getenv("EYSH_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath()
	}
	if err := loadFromFile(cfg, path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	ApplyOverrides(cfg, overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath is $XDG_CONFIG_HOME/eysh/config.yaml.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "eysh", "config.yaml")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(cfg, &cfg.APIURL, fileCfg.APIURL, "api_url", SourceFile)
	setString(cfg, &cfg.DBPath, fileCfg.DBPath, "db", SourceFile)
	setString(cfg, &cfg.LogLevel, fileCfg.LogLevel, "log_level", SourceFile)
	setString(cfg, &cfg.Subject, fileCfg.Subject, "subject", SourceFile)
	setString(cfg, &cfg.Cache.Backend, fileCfg.Cache.Backend, "cache.backend", SourceFile)
	setString(cfg, &cfg.Cache.RedisURL, fileCfg.Cache.RedisURL, "cache.redis_url", SourceFile)
	setString(cfg, &cfg.Cache.Dir, fileCfg.Cache.Dir, "cache.dir", SourceFile)
	if fileCfg.HTTPTimeout > 0 {
		cfg.HTTPTimeout = fileCfg.HTTPTimeout
		cfg.Sources["http_timeout"] = SourceFile
	}
	if fileCfg.Cache.TTL > 0 {
		cfg.Cache.TTL = fileCfg.Cache.TTL
		cfg.Sources["cache.ttl"] = SourceFile
	}
	if fileCfg.QuestionCount > 0 {
		cfg.QuestionCount = fileCfg.QuestionCount
		cfg.Sources["question_count"] = SourceFile
	}
	if fileCfg.NoKeyring {
		cfg.NoKeyring = true
		cfg.Sources["no_keyring"] = SourceFile
	}
	return nil
}

// LoadFromEnv applies EYSH_* environment variables.
func LoadFromEnv(cfg *Config) error {
	setString(cfg, &cfg.APIURL, os.Getenv("EYSH_API_URL"), "api_url", SourceEnv)
	setString(cfg, &cfg.Token, os.Getenv("EYSH_TOKEN"), "token", SourceEnv)
	setString(cfg, &cfg.DBPath, os.Getenv("EYSH_DB"), "db", SourceEnv)
	setString(cfg, &cfg.LogLevel, os.Getenv("EYSH_LOG_LEVEL"), "log_level", SourceEnv)
	setString(cfg, &cfg.Subject, os.Getenv("EYSH_SUBJECT"), "subject", SourceEnv)
	setString(cfg, &cfg.Cache.Backend, os.Getenv("EYSH_CACHE"), "cache.backend", SourceEnv)
	setString(cfg, &cfg.Cache.RedisURL, os.Getenv("EYSH_REDIS_URL"), "cache.redis_url", SourceEnv)
	setString(cfg, &cfg.Cache.Dir, os.Getenv("EYSH_CACHE_DIR"), "cache.dir", SourceEnv)
	setString(cfg, &cfg.Cache.Session, os.Getenv("EYSH_SESSION"), "cache.session", SourceEnv)
	setString(cfg, &cfg.Navigation, os.Getenv("EYSH_NAVIGATION"), "navigation", SourceEnv)

	if v := os.Getenv("EYSH_CACHE_TTL"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("EYSH_CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = Duration(d)
		cfg.Sources["cache.ttl"] = SourceEnv
	}
	if v := os.Getenv("EYSH_HTTP_TIMEOUT"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("EYSH_HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = Duration(d)
		cfg.Sources["http_timeout"] = SourceEnv
	}
	if v := os.Getenv("EYSH_QUESTION_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EYSH_QUESTION_COUNT: %w", err)
		}
		cfg.QuestionCount = n
		cfg.Sources["question_count"] = SourceEnv
	}
	if v := os.Getenv("EYSH_NO_KEYRING"); v != "" && v != "0" && !strings.EqualFold(v, "false") {
		cfg.NoKeyring = true
		cfg.Sources["no_keyring"] = SourceEnv
	}
	return nil
}

// ApplyOverrides applies command-line flag values.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	setString(cfg, &cfg.APIURL, o.APIURL, "api_url", SourceFlag)
	setString(cfg, &cfg.DBPath, o.DBPath, "db", SourceFlag)
	if o.Reload {
		cfg.Navigation = "reload"
		cfg.Sources["navigation"] = SourceFlag
	}
	if o.NoCache {
		cfg.Cache.Backend = CacheOff
		cfg.Sources["cache.backend"] = SourceFlag
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
		cfg.Sources["log_level"] = SourceFlag
	}
}

// Validate checks values that would otherwise fail far from their source.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheFile, CacheOff:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New("cache backend redis requires EYSH_REDIS_URL or cache.redis_url")
		}
	default:
		return fmt.Errorf("unknown cache backend %q (want memory, file, redis or off)", c.Cache.Backend)
	}
	if c.QuestionCount < 1 || c.QuestionCount > 50 {
		return fmt.Errorf("question count %d out of range 1-50", c.QuestionCount)
	}
	if strings.TrimSpace(c.APIURL) == "" {
		return errors.New("API URL is empty")
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	return nil
}

// SourceOf reports where key was set, defaulting to SourceDefault.
func (c *Config) SourceOf(key string) Source {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}

func setString(cfg *Config, dst *string, v, key string, src Source) {
	if v == "" {
		return
	}
	*dst = v
	cfg.Sources[key] = src
}

// defaultSession scopes the session to the parent shell, so each terminal
// gets its own cache namespace that survives across invocations.
func defaultSession() string {
	return fmt.Sprintf("ppid-%d", os.Getppid())
}
