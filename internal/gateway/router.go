package gateway

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/unclebandit/mailing-service/internal/config"
)

// New builds the configured provider, instrumented. Pacing is applied by the
// caller outside the per-send timeout, see NewPacer.
func New(cfg config.EmailConfig, log zerolog.Logger) Sender {
	provider := strings.ToLower(cfg.Provider)

	var s Sender
	switch provider {
	case "smtp":
		s = NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From)
	case "resend":
		s = NewResend(cfg.ResendAPIKey, cfg.From)
	default:
		provider = "log"
		s = &LogSender{Log: log.With().Str("component", "gateway").Logger()}
	}

	return &Instrumented{Next: s, Provider: provider}
}
