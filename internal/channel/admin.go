package channel

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"

	"go.uber.org/zap"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/logger"
)

// Alerter is the operator-facing administrative channel. It is invoked
// for fetch failures and critical delivery failures, and must never
// block or fail the main run: its own errors are logged and dropped.
type Alerter interface {
	Alert(ctx context.Context, msg string)
}

// EmailAlerter delivers admin alerts over authenticated STARTTLS SMTP.
// Every alert is also written to the error log, which reaches Sentry
// when a DSN is configured, so a broken admin mailbox still leaves a
// trace.
type EmailAlerter struct {
	enabled    bool
	host       string
	port       int
	username   string
	password   string
	from       string
	replyTo    string
	recipients []string
	clock      adapter.Clock
	send       smtpSendAuthFunc
}

// smtpSendAuthFunc mirrors smtp.SendMail; a seam for tests.
type smtpSendAuthFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// NewEmailAlerter creates the administrative alert channel. When not
// enabled, alerts go to the log alone.
func NewEmailAlerter(clock adapter.Clock, enabled bool, host string, port int, username, password, from, replyTo string, recipients []string) *EmailAlerter {
	return &EmailAlerter{
		enabled:    enabled,
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		from:       from,
		replyTo:    replyTo,
		recipients: recipients,
		clock:      clock,
		send:       smtp.SendMail,
	}
}

// Alert reports an operator-facing problem. Best effort only.
func (a *EmailAlerter) Alert(_ context.Context, msg string) {
	logger.Error(fmt.Errorf("admin alert: %s", msg))

	if !a.enabled {
		logger.Warn("admin alerts disabled", zap.String("alert", msg))
		return
	}

	subject := fmt.Sprintf("Alert: WA Covid Mailer Error (%s)",
		a.clock.Now().Format("02/01/2006 15:04:05"))
	addr := a.host + ":" + strconv.Itoa(a.port)
	auth := smtp.PlainAuth("", a.username, a.password, a.host)

	for _, recipient := range a.recipients {
		body := fmt.Sprintf("To: %s\r\nFrom: %s\r\nReply-To: %s\r\nSubject: %s\r\n\r\n%s\r\n",
			recipient, a.from, a.replyTo, subject, msg)

		if err := a.send(addr, auth, a.from, []string{recipient}, []byte(body)); err != nil {
			logger.Error(fmt.Errorf("admin alert delivery failed: %w", err),
				zap.String("recipient", recipient))
		}
	}
}
