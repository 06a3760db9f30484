package mailer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

const (
	ReportSubject = "Your Invoicing ROI Simulation Report"
	PDFType       = "application/pdf"
)

// ErrNotConfigured is returned by Noop; the dispatcher treats it as a skip.
var ErrNotConfigured = errors.New("mail transport not configured")

var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidAddress reports whether s looks like local@domain.tld.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Noop drops every message.
type Noop struct{}

func (Noop) Send(context.Context, Message) error {
	return ErrNotConfigured
}

// NewReportMessage builds the report mail with the PDF attached.
func NewReportMessage(from, to, summary, appURL string, pdf []byte, filename string) Message {
	return Message{
		From:    from,
		To:      to,
		Subject: ReportSubject,
		Body: fmt.Sprintf("Thanks for exploring automation ROI with us!\n\nKey results:\n%s\n\nView more at %s.",
			summary, appURL),
		Attachments: []Attachment{{
			Filename:    filename,
			ContentType: PDFType,
			Data:        pdf,
		}},
	}
}
