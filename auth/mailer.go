package auth

import (
	"context"

	"github.com/rs/zerolog/log"
)

const devEnv = "DEV"

// Mailer delivers password reset links. It returns a link that may be shown to the caller
// in place of real delivery, or "" if the link must not be exposed.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) (preview string, err error)
}

// LogMailer logs reset links instead of sending them. The link is only returned as the
// preview when ExposeLink is set, which is limited to local development.
type LogMailer struct {
	ExposeLink bool
}

// NewLogMailer returns a LogMailer that exposes links in the DEV environment only
func NewLogMailer(env string) LogMailer {
	return LogMailer{ExposeLink: env == devEnv}
}

func (m LogMailer) SendPasswordReset(_ context.Context, email, link string) (string, error) {
	log.Info().Str("email", email).Str("link", link).Msg("password reset requested")
	if !m.ExposeLink {
		return "", nil
	}
	return link, nil
}
