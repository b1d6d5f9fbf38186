package notifications

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SESEmailSender implements EmailSender on Amazon SES
type SESEmailSender struct {
	client *sesv2.Client
	from   string
}

// SNSSMSSender implements SMSSender on Amazon SNS
type SNSSMSSender struct {
	client *sns.Client
}

// NewAWSSenders creates SES and SNS backed channel senders sharing one
// AWS configuration
func NewAWSSenders(ctx context.Context, cfg Config) (*SESEmailSender, *SNSSMSSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	email := &SESEmailSender{
		client: sesv2.NewFromConfig(awsCfg),
		from:   cfg.EmailFrom,
	}
	sms := &SNSSMSSender{
		client: sns.NewFromConfig(awsCfg),
	}
	return email, sms, nil
}

// SendEmail delivers a single email through SES
func (s *SESEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}
	return nil
}

// SendSMS delivers a single SMS through SNS
func (s *SNSSMSSender) SendSMS(ctx context.Context, to, body string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("sns publish failed: %w", err)
	}
	return nil
}
