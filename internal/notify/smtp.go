package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SMTPOptions configures SMTPMailer.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer sends multipart/alternative mail through a plain SMTP relay.
type SMTPMailer struct {
	opts     SMTPOptions
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns a mailer backed by smtp.SendMail.
func NewSMTPMailer(o SMTPOptions) *SMTPMailer {
	return &SMTPMailer{opts: o, sendMail: smtp.SendMail}
}

// Send implements Mailer. smtp.SendMail has no context support, so the
// call runs in a goroutine and Send returns early when ctx is done.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(m.opts.Host, strconv.Itoa(m.opts.Port))

	var auth smtp.Auth
	if m.opts.Username != "" {
		auth = smtp.PlainAuth("", m.opts.Username, m.opts.Password, m.opts.Host)
	}
	body := buildMIME(m.opts.From, m.opts.FromName, msg)

	done := make(chan error, 1)
	go func() {
		done <- m.sendMail(addr, auth, m.opts.From, []string{msg.To}, body)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("notify: smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMIME(from, fromName string, msg Message) []byte {
	boundary := "b-" + strings.ReplaceAll(uuid.NewString(), "-", "")

	var b strings.Builder
	if fromName != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", headerSafe(fromName), from)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", headerSafe(msg.To))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", headerSafe(msg.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", headerSafe(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.Text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// headerSafe strips CR and LF so values cannot inject extra headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
