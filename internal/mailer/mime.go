package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"
)

const lineLength = 76

// Build encodes msg as a multipart/mixed RFC 5322 message with CRLF line
// endings.
func Build(msg Message, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	if err := writeQuotedPrintable(textPart, msg.Body); err != nil {
		return nil, fmt.Errorf("write text part: %w", err)
	}

	for _, att := range msg.Attachments {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(att.ContentType, map[string]string{"name": att.Filename})},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename})},
		})
		if err != nil {
			return nil, fmt.Errorf("create attachment part %s: %w", att.Filename, err)
		}
		if _, err := part.Write(wrapBase64(att.Data)); err != nil {
			return nil, fmt.Errorf("write attachment part %s: %w", att.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var out bytes.Buffer
	header := []struct{ key, value string }{
		{"From", msg.From},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mw.Boundary()})},
	}
	for _, h := range header {
		fmt.Fprintf(&out, "%s: %s\r\n", h.key, h.value)
	}
	out.WriteString("\r\n")
	out.Write(body.Bytes())

	return out.Bytes(), nil
}

func writeQuotedPrintable(w io.Writer, text string) error {
	qp := quotedprintable.NewWriter(w)
	normalized := strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", "\r\n")
	if _, err := qp.Write([]byte(normalized)); err != nil {
		return err
	}
	return qp.Close()
}

func wrapBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	for len(encoded) > lineLength {
		b.WriteString(encoded[:lineLength])
		b.WriteString("\r\n")
		encoded = encoded[lineLength:]
	}
	b.WriteString(encoded)
	b.WriteString("\r\n")
	return []byte(b.String())
}
