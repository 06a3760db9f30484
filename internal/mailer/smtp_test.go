package mailer

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/invoice-roi/internal/config"
)

// fakeSMTP accepts one session, advertises AUTH PLAIN, and records what it
// was sent.
type fakeSMTP struct {
	ln net.Listener

	mu       sync.Mutex
	commands []string
	data     string
	done     chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeSMTP{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { _ = ln.Close() })

	go s.serve()
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) serve() {
	defer close(s.done)

	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 localhost ESMTP")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.commands = append(s.commands, line)
		s.mu.Unlock()

		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO":
			_ = tp.PrintfLine("250-localhost")
			_ = tp.PrintfLine("250 AUTH PLAIN")
		case "AUTH":
			_ = tp.PrintfLine("235 2.7.0 Authentication successful")
		case "MAIL", "RCPT":
			_ = tp.PrintfLine("250 OK")
		case "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = strings.Join(lines, "\n")
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK: queued")
		case "QUIT":
			_ = tp.PrintfLine("221 Bye")
			return
		default:
			_ = tp.PrintfLine("502 Command not implemented")
		}
	}
}

func (s *fakeSMTP) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("fake SMTP session did not finish")
	}
}

func TestSMTPMailerDeliversAuthenticatedMessage(t *testing.T) {
	server := startFakeSMTP(t)

	m := NewSMTPMailer(config.SMTPConfig{
		Host:     "127.0.0.1",
		Port:     server.port(),
		Username: "reports@example.com",
		Password: "secret",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Send(ctx, reportMessage()))
	server.wait(t)

	server.mu.Lock()
	defer server.mu.Unlock()

	joined := strings.Join(server.commands, "\n")
	assert.Contains(t, joined, "AUTH PLAIN")
	assert.Contains(t, joined, "MAIL FROM:<reports@example.com>")
	assert.Contains(t, joined, "RCPT TO:<cfo@example.com>")
	assert.Contains(t, server.data, "Subject: "+ReportSubject)
	assert.Contains(t, server.data, "filename=roi-report.pdf")
}

func TestSMTPMailerConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	m := NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: port, Username: "u", Password: "p"})
	err = m.Send(context.Background(), reportMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to SMTP server")
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: 2525})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, reportMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientTLSVerifiesServerName(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: implicitTLSPort})
	cfg := m.clientTLS()
	assert.Equal(t, "smtp.example.com", cfg.ServerName)
	assert.False(t, cfg.InsecureSkipVerify)
}
