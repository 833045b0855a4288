package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
	AppEnvTest = "test"
)

// EnvPrefix is empty because every field below carries its full variable name.
const EnvPrefix = ""

const (
	EnvAppEnv             = "RELAY_APP_ENV"
	EnvPort               = "RELAY_APP_PORT"
	EnvUtmifyAPIToken     = "RELAY_UTMIFY_API_TOKEN"
	EnvUtmifyAPIURL       = "RELAY_UTMIFY_API_URL"
	EnvUtmifyRetries      = "RELAY_UTMIFY_RETRY_ATTEMPTS"
	EnvUtmifyRetryDelay   = "RELAY_UTMIFY_RETRY_DELAY_MS"
	EnvSamCartSecret      = "RELAY_SAMCART_WEBHOOK_SECRET"
	EnvMappingFeeRate     = "RELAY_MAPPING_GATEWAY_FEE_RATE"
	EnvRedisURL           = "RELAY_REDIS_URL"
	EnvWebhookDedupeTTL   = "RELAY_WEBHOOK_DEDUPE_TTL"
	EnvRateLimitRPS       = "RELAY_RATE_LIMIT_RPS"
	EnvWebhookProcessTime = "RELAY_WEBHOOK_PROCESS_TIMEOUT"
)

type Config struct {
	App       AppConfig
	Utmify    UtmifyConfig
	SamCart   SamCartConfig
	Mapping   MappingConfig
	Webhook   WebhookConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// Load reads the process environment once. Callers pass the result into
// constructors; nothing below cmd/ reads the environment directly.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field rules envconfig tags cannot express.
func (c *Config) Validate() error {
	env := strings.ToLower(strings.TrimSpace(c.App.Env))
	switch env {
	case AppEnvDev, AppEnvProd, AppEnvTest:
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s (got %q)", EnvAppEnv, AppEnvDev, AppEnvProd, AppEnvTest, c.App.Env)
	}
	c.App.Env = env

	if err := c.Utmify.validate(); err != nil {
		return err
	}
	if c.Mapping.GatewayFeeRate < 0 || c.Mapping.GatewayFeeRate > 1 {
		return fmt.Errorf("%s must be within [0,1], got %v", EnvMappingFeeRate, c.Mapping.GatewayFeeRate)
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must be non-negative")
	}

	if c.App.IsProd() {
		missing := []string{}
		if strings.TrimSpace(c.Utmify.APIToken) == "" {
			missing = append(missing, EnvUtmifyAPIToken)
		}
		if strings.TrimSpace(c.SamCart.WebhookSecret) == "" {
			missing = append(missing, EnvSamCartSecret)
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required production config: %s", strings.Join(missing, ", "))
		}
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"RELAY_APP_ENV" required:"true"`
	Port         string `envconfig:"RELAY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RELAY_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"RELAY_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"RELAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

func (a AppConfig) IsTest() bool {
	return strings.EqualFold(a.Env, AppEnvTest)
}

type UtmifyConfig struct {
	APIToken        string        `envconfig:"RELAY_UTMIFY_API_TOKEN"`
	APIURL          string        `envconfig:"RELAY_UTMIFY_API_URL" default:"https://api.utmify.com.br/api-credentials/orders"`
	RetryAttempts   int           `envconfig:"RELAY_UTMIFY_RETRY_ATTEMPTS" default:"3"`
	RetryDelayMS    int           `envconfig:"RELAY_UTMIFY_RETRY_DELAY_MS" default:"1000"`
	MaxRetryDelayMS int           `envconfig:"RELAY_UTMIFY_MAX_RETRY_DELAY_MS" default:"30000"`
	RequestTimeout  time.Duration `envconfig:"RELAY_UTMIFY_REQUEST_TIMEOUT" default:"10s"`
}

// RetryDelay returns the base backoff delay.
func (u UtmifyConfig) RetryDelay() time.Duration {
	return time.Duration(u.RetryDelayMS) * time.Millisecond
}

// MaxRetryDelay returns the backoff ceiling.
func (u UtmifyConfig) MaxRetryDelay() time.Duration {
	return time.Duration(u.MaxRetryDelayMS) * time.Millisecond
}

func (u UtmifyConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(u.APIURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", EnvUtmifyAPIURL, u.APIURL)
	}
	if u.RetryAttempts <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvUtmifyRetries, u.RetryAttempts)
	}
	if u.RetryDelayMS < 0 {
		return fmt.Errorf("%s must be non-negative, got %d", EnvUtmifyRetryDelay, u.RetryDelayMS)
	}
	if u.MaxRetryDelayMS > 0 && u.MaxRetryDelayMS < u.RetryDelayMS {
		return fmt.Errorf("max retry delay %dms is below base delay %dms", u.MaxRetryDelayMS, u.RetryDelayMS)
	}
	return nil
}

type SamCartConfig struct {
	WebhookSecret   string `envconfig:"RELAY_SAMCART_WEBHOOK_SECRET"`
	PlatformName    string `envconfig:"RELAY_SAMCART_PLATFORM_NAME" default:"SamCart"`
	SignatureHeader string `envconfig:"RELAY_SAMCART_SIGNATURE_HEADER" default:"X-SamCart-Signature"`
}

type MappingConfig struct {
	GatewayFeeRate  float64 `envconfig:"RELAY_MAPPING_GATEWAY_FEE_RATE" default:"0.05"`
	DefaultCurrency string  `envconfig:"RELAY_MAPPING_DEFAULT_CURRENCY" default:"BRL"`
	DefaultCountry  string  `envconfig:"RELAY_MAPPING_DEFAULT_COUNTRY" default:"BR"`
}

type WebhookConfig struct {
	MaxBodyBytes   int64         `envconfig:"RELAY_WEBHOOK_MAX_BODY_BYTES" default:"1048576"`
	ProcessTimeout time.Duration `envconfig:"RELAY_WEBHOOK_PROCESS_TIMEOUT" default:"60s"`
	DedupeTTL      time.Duration `envconfig:"RELAY_WEBHOOK_DEDUPE_TTL" default:"24h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RELAY_REDIS_URL"`
	PoolSize     int           `envconfig:"RELAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RELAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RELAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RELAY_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"RELAY_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a Redis URL was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type RateLimitConfig struct {
	RPS   float64 `envconfig:"RELAY_RATE_LIMIT_RPS" default:"50"`
	Burst int     `envconfig:"RELAY_RATE_LIMIT_BURST" default:"100"`
}
