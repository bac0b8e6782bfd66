package notifications

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// EmailSender delivers transactional email through SES.
type EmailSender struct {
	client *sesv2.Client
	from   string
	logger *zap.Logger
}

func NewEmailSender(ctx context.Context, from string, logger *zap.Logger) (*EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &EmailSender{
		client: sesv2.NewFromConfig(cfg),
		from:   from,
		logger: logger,
	}, nil
}

func (e *EmailSender) Send(ctx context.Context, to, subject, body string) error {
	_, err := e.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(e.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	e.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
