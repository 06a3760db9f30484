package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/Simplici0/invoice-roi/internal/config"
)

const implicitTLSPort = 465

// SMTPMailer sends through an authenticated SMTP relay. Port 465 uses
// implicit TLS; other ports upgrade with STARTTLS when the server offers it.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	now      func() time.Time
	// tlsConfig is nil in production; tests inject one for self-signed servers.
	tlsConfig *tls.Config
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		now:      time.Now,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	raw, err := Build(msg, m.now())
	if err != nil {
		return err
	}

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("open SMTP session: %w", err)
	}
	defer client.Close()

	if m.port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(m.clientTLS()); err != nil {
				return fmt.Errorf("start TLS: %w", err)
			}
		}
	}

	if ok, _ := client.Extension("AUTH"); ok && m.username != "" {
		if err := client.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("set recipient %s: %w", msg.To, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data writer: %w", err)
	}

	return client.Quit()
}

func (m *SMTPMailer) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	if m.port == implicitTLSPort {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: m.clientTLS()}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (m *SMTPMailer) clientTLS() *tls.Config {
	if m.tlsConfig != nil {
		return m.tlsConfig
	}
	return &tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12}
}
