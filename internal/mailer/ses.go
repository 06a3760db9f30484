package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESMailer sends raw MIME messages through Amazon SES so the PDF
// attachment survives.
type SESMailer struct {
	client SESAPI
	now    func() time.Time
}

// NewSESMailer loads AWS credentials from the default chain.
func NewSESMailer(ctx context.Context, region string) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESMailerWithClient(ses.NewFromConfig(cfg)), nil
}

func NewSESMailerWithClient(client SESAPI) *SESMailer {
	return &SESMailer{client: client, now: time.Now}
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	raw, err := Build(msg, m.now())
	if err != nil {
		return err
	}

	out, err := m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage:   &types.RawMessage{Data: raw},
		Source:       aws.String(msg.From),
		Destinations: []string{msg.To},
	})
	if err != nil {
		return fmt.Errorf("ses send raw email: %w", err)
	}
	if out == nil || out.MessageId == nil {
		return fmt.Errorf("ses returned no message id")
	}
	return nil
}
