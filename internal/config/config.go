package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the notification service.
// It is loaded once at process start and never mutated afterwards.
type Config struct {
	App      AppConfig
	Provider ProviderConfig
	Service  ServiceConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// ZeptoMailConfig stores credentials for the ZeptoMail HTTP API.
type ZeptoMailConfig struct {
	APIKey  string
	BaseURL string
}

// SMTPConfig stores SMTP credentials for the smtp provider backend.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
}

// ProviderConfig wraps configuration for the external email providers.
type ProviderConfig struct {
	Backend   string
	ZeptoMail ZeptoMailConfig
	SMTP      SMTPConfig
	FromEmail string
	FromName  string
}

// ServiceConfig contains tuning knobs for the send pipeline.
type ServiceConfig struct {
	ProviderTimeoutSeconds int
	MaxConcurrentSends     int
}

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance.
//
// A missing ZeptoMail API key is deliberately not a load error: the
// service must start without credentials and fail individual sends
// instead.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.Port = ldr.getInt("APP_PORT", 5050, false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.Provider.Backend = strings.ToLower(ldr.getString("EMAIL_PROVIDER", "mock", false))
	cfg.Provider.ZeptoMail.APIKey = ldr.getString("ZEPTOMAIL_API_KEY", "", false)
	cfg.Provider.ZeptoMail.BaseURL = ldr.getString("ZEPTOMAIL_BASE_URL", "https://api.zeptomail.com/v1.1", false)
	cfg.Provider.SMTP.Host = ldr.getString("SMTP_HOST", "", false)
	cfg.Provider.SMTP.Port = ldr.getInt("SMTP_PORT", 587, false)
	cfg.Provider.SMTP.User = ldr.getString("SMTP_USER", "", false)
	cfg.Provider.SMTP.Pass = ldr.getString("SMTP_PASS", "", false)
	cfg.Provider.FromEmail = ldr.getString("FROM_EMAIL", "registration@chayannito26.com", false)
	cfg.Provider.FromName = ldr.getString("FROM_NAME", "Chayannito 26 Registration", false)

	cfg.Service.ProviderTimeoutSeconds = ldr.getInt("PROVIDER_TIMEOUT_SECONDS", 30, false)
	cfg.Service.MaxConcurrentSends = ldr.getInt("MAX_CONCURRENT_SENDS", 10, false)

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider.Backend {
	case "zeptomail", "smtp", "mock":
	default:
		return nil, fmt.Errorf("config validation failed: EMAIL_PROVIDER must be one of zeptomail, smtp, mock; got %q", cfg.Provider.Backend)
	}

	if cfg.Service.MaxConcurrentSends <= 0 {
		return nil, fmt.Errorf("config validation failed: MAX_CONCURRENT_SENDS must be positive")
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			l.addError(fmt.Sprintf("%s must be a valid integer", key))
			return def
		}
		return i
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
