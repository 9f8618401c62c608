package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port               int      `env:"PORT" envDefault:"5000"`
	DatabaseURL        string   `env:"DATABASE_URL,required"`
	RedisURL           string   `env:"REDIS_URL,required"`
	JWTSecret          string   `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTExpirationHours int      `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
	ClassTTLSeconds    int      `env:"CLASS_TTL_SECONDS" envDefault:"21600"`
	PresenceTTLSeconds int      `env:"PRESENCE_TTL_SECONDS" envDefault:"43200"`
	DatasetPath        string   `env:"DATASET_PATH" envDefault:"data/phrases.csv"`
	MigrationsDir      string   `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	AutoMigrate        bool     `env:"AUTO_MIGRATE" envDefault:"true"`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES" envDefault:"262144"`
	AllowedOrigins     []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RateLimitPerMin    int      `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	GoogleClientID     string   `env:"GOOGLE_CLIENT_ID"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	Environment        string   `env:"APP_ENV" envDefault:"development"`
}

func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWTExpirationHours) * time.Hour
}

func (c *Config) ClassTTL() time.Duration {
	return time.Duration(c.ClassTTLSeconds) * time.Second
}

func (c *Config) PresenceTTL() time.Duration {
	return time.Duration(c.PresenceTTLSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate(isProduction bool) error {
	if c.JWTExpirationHours <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be positive")
	}
	if c.ClassTTLSeconds <= 0 {
		return fmt.Errorf("CLASS_TTL_SECONDS must be positive")
	}

	if isProduction {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		for _, origin := range c.AllowedOrigins {
			if origin == "*" {
				log.Warn().Msg("ALLOWED_ORIGINS contains * in production")
			}
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	APIURL                string `env:"CLASSROOM_API_URL" envDefault:"http://localhost:5000"`
	SessionFile           string `env:"CLASSROOM_SESSION_FILE"`
	PollIntervalMS        int    `env:"POLL_INTERVAL_MS" envDefault:"1000"`
	GracePeriodSeconds    int    `env:"GRACE_PERIOD_SECONDS" envDefault:"15"`
	MissThreshold         int    `env:"MISS_THRESHOLD" envDefault:"10"`
	RequestTimeoutSeconds int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"10"`
	AudioEnabled          bool   `env:"AUDIO_ENABLED" envDefault:"true"`
	TargetLanguage        string `env:"TARGET_LANGUAGE" envDefault:"bodo"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"warn"`
}

func (c *ClientConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c *ClientConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodSeconds) * time.Second
}

func (c *ClientConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *ClientConfig) Validate() error {
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if c.MissThreshold <= 0 {
		return fmt.Errorf("MISS_THRESHOLD must be positive")
	}
	if c.GracePeriodSeconds < 0 {
		return fmt.Errorf("GRACE_PERIOD_SECONDS must not be negative")
	}
	switch c.TargetLanguage {
	case "bodo", "mizo":
	default:
		return fmt.Errorf("TARGET_LANGUAGE must be bodo or mizo, got %q", c.TargetLanguage)
	}
	return nil
}

func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	return &cfg, nil
}
