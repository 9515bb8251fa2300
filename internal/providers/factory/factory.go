package factory

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chayannito26/order-notify/internal/config"
	emailprovider "github.com/chayannito26/order-notify/internal/providers/email"
)

// Email constructs the configured email provider, supporting ZeptoMail,
// SMTP and mock backends.
func Email(cfg config.ProviderConfig, logger zerolog.Logger) (emailprovider.Provider, error) {
	backend := normalize(cfg.Backend, "mock")
	switch backend {
	case "zeptomail":
		provider := emailprovider.NewZeptoMailProvider(cfg.ZeptoMail, logger)
		logger.Info().
			Str("backend", "zeptomail").
			Bool("api_key_configured", strings.TrimSpace(cfg.ZeptoMail.APIKey) != "").
			Msg("email provider initialised")
		return provider, nil
	case "smtp":
		provider, err := emailprovider.NewSMTPProvider(cfg.SMTP, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: smtp provider init: %w", err)
		}
		logger.Info().
			Str("backend", "smtp").
			Msg("email provider initialised")
		return provider, nil
	case "mock":
		provider := emailprovider.NewMockProvider(logger)
		logger.Info().
			Str("backend", "mock").
			Msg("email provider initialised")
		return provider, nil
	default:
		return nil, fmt.Errorf("factory: unsupported email provider backend %q", cfg.Backend)
	}
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
