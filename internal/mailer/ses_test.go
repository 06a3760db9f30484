package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*ses.SendRawEmailOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func reportMessage() Message {
	return NewReportMessage("reports@example.com", "cfo@example.com", "Monthly Savings: 43,725", "https://roi.example.com", []byte("%PDF-1.3"), "roi-report.pdf")
}

func TestSESMailerSendsRawMessage(t *testing.T) {
	client := new(MockSES)
	client.On("SendRawEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendRawEmailInput) bool {
		return aws.ToString(in.Source) == "reports@example.com" &&
			len(in.Destinations) == 1 && in.Destinations[0] == "cfo@example.com" &&
			strings.Contains(string(in.RawMessage.Data), "filename=roi-report.pdf")
	})).Return(&ses.SendRawEmailOutput{MessageId: aws.String("msg-1")}, nil)

	err := NewSESMailerWithClient(client).Send(context.Background(), reportMessage())
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestSESMailerWrapsErrors(t *testing.T) {
	client := new(MockSES)
	client.On("SendRawEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := NewSESMailerWithClient(client).Send(context.Background(), reportMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestSESMailerRequiresMessageID(t *testing.T) {
	client := new(MockSES)
	client.On("SendRawEmail", mock.Anything, mock.Anything).Return(&ses.SendRawEmailOutput{}, nil)

	assert.Error(t, NewSESMailerWithClient(client).Send(context.Background(), reportMessage()))
}
