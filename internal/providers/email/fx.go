package email

import (
	"github.com/smallbiznis/zalci/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

// NewFromConfig picks the delivery driver. Resend without an API key degrades to no-op.
func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	log = log.Named("email.provider")
	switch cfg.Email.Driver {
	case "smtp":
		return NewSMTP(SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.From,
		})
	case "resend", "":
		if cfg.Email.ResendAPIKey == "" {
			log.Warn("RESEND_API_KEY is not configured, emails are skipped")
			return &NoOpProvider{Log: log}
		}
		return NewResend(ResendConfig{
			APIKey:  cfg.Email.ResendAPIKey,
			BaseURL: cfg.Email.ResendAPIURL,
			From:    cfg.Email.From,
		}, log)
	default:
		return &NoOpProvider{Log: log}
	}
}
