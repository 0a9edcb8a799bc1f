package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Quotes    QuotesConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Auth.Enabled && cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("%s is required when auth is enabled", EnvAuthSecret)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COVERLANE_APP_ENV" required:"true"`
	Port         string `envconfig:"COVERLANE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"COVERLANE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"COVERLANE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"COVERLANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RedisConfig describes the response-cache backend. URL is optional: when
// empty the service falls back to the in-process cache.
type RedisConfig struct {
	URL          string        `envconfig:"COVERLANE_REDIS_URL"`
	Address      string        `envconfig:"COVERLANE_REDIS_ADDR"`
	Password     string        `envconfig:"COVERLANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"COVERLANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COVERLANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COVERLANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COVERLANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COVERLANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COVERLANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

// AuthConfig controls the optional bearer-token check on dealer traffic.
type AuthConfig struct {
	Enabled bool   `envconfig:"COVERLANE_AUTH_ENABLED" default:"false"`
	Secret  string `envconfig:"COVERLANE_AUTH_JWT_SECRET"`
	Issuer  string `envconfig:"COVERLANE_AUTH_JWT_ISSUER" default:"coverlane"`
}

type RateLimitConfig struct {
	Window  time.Duration `envconfig:"COVERLANE_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"COVERLANE_RATE_LIMIT_IP_LIMIT" default:"120"`
}

type QuotesConfig struct {
	CacheTTL        time.Duration `envconfig:"COVERLANE_QUOTES_CACHE_TTL" default:"600s"`
	ProviderTimeout time.Duration `envconfig:"COVERLANE_QUOTES_PROVIDER_TIMEOUT" default:"2s"`
}
