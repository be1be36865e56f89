package notify

import (
	"context"

	"github.com/tbourn/dealership-backend/internal/sysutil"
)

// LogMailer writes messages to the logger instead of sending them. It is
// the default provider for local development.
type LogMailer struct{}

// Send implements Mailer.
func (LogMailer) Send(ctx context.Context, msg Message) error {
	sysutil.Logger(ctx).Info().
		Str("to", sysutil.RedactEmail(msg.To)).
		Str("reply_to", sysutil.RedactEmail(msg.ReplyTo)).
		Str("subject", msg.Subject).
		Int("text_len", len(msg.Text)).
		Msg("email_logged")
	return nil
}
