package channel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"

	"go.uber.org/zap"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/logger"
)

// smtpSendFunc delivers one message; a seam so tests do not need a mail
// server.
type smtpSendFunc func(addr, host, from, to string, msg []byte) error

// Email sends the report over implicit-TLS SMTP, one message per
// recipient the way announce lists expect.
type Email struct {
	host       string
	port       int
	from       string
	replyTo    string
	recipients []string
	critical   bool
	clock      adapter.Clock
	send       smtpSendFunc
}

// NewEmail creates an SMTP dispatcher.
func NewEmail(clock adapter.Clock, host string, port int, from, replyTo string, recipients []string, critical bool) *Email {
	return &Email{
		host:       host,
		port:       port,
		from:       from,
		replyTo:    replyTo,
		recipients: recipients,
		critical:   critical,
		clock:      clock,
		send:       sendOverTLS,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Critical() bool { return e.critical }

// Send mails the report to every recipient. A failure for one recipient
// fails the channel; the run wrapper decides whether that matters.
func (e *Email) Send(ctx context.Context, report string) error {
	subject := fmt.Sprintf("Alert: Updated WA covid-19 exposure sites (%s)",
		e.clock.Now().Format("02/01/2006 15:04:05"))
	addr := e.host + ":" + strconv.Itoa(e.port)

	for _, recipient := range e.recipients {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := fmt.Sprintf("To: %s\r\nFrom: %s\r\nReply-To: %s\r\nSubject: %s\r\n\r\n%s\r\n",
			recipient, e.from, e.replyTo, subject, report)

		if err := e.send(addr, e.host, e.from, recipient, []byte(msg)); err != nil {
			return fmt.Errorf("smtp send to %s: %w", recipient, err)
		}
		logger.Debug("email sent", zap.String("recipient", recipient))
	}

	return nil
}

// sendOverTLS delivers one message over an implicit-TLS SMTP session.
func sendOverTLS(addr, host, from, to string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("tls dial: %w", err)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
