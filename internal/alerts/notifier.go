package alerts

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Notifier delivers a single critical alert to operators
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// DigestSender mails a periodic alert digest
type DigestSender interface {
	SendDigest(ctx context.Context, recipients []string, subject, body string) error
}

// SNSPublisher is the subset of the SNS client used for alert fan-out
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes critical alerts to an SNS topic
type SNSNotifier struct {
	client   SNSPublisher
	topicARN string
}

func NewSNSNotifier(client SNSPublisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

func (n *SNSNotifier) Notify(ctx context.Context, alert Alert) error {
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(fmt.Sprintf("[%s] Certificate verification alert", strings.ToUpper(string(alert.Level)))),
		Message:  aws.String(fmt.Sprintf("Certificate %s: %s (flagged %s)", alert.CertID, alert.Reason, alert.FlaggedAt.Format("2006-01-02 15:04:05 MST"))),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"level": {DataType: aws.String("String"), StringValue: aws.String(string(alert.Level))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert %s: %w", alert.ID, err)
	}
	return nil
}

// SESEmailer is the subset of the SESv2 client used for digests
type SESEmailer interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESDigestSender mails digests through SES
type SESDigestSender struct {
	client SESEmailer
	from   string
}

func NewSESDigestSender(client SESEmailer, from string) *SESDigestSender {
	return &SESDigestSender{client: client, from: from}
}

func (s *SESDigestSender) SendDigest(ctx context.Context, recipients []string, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &sestypes.Destination{ToAddresses: recipients},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body:    &sestypes.Body{Text: &sestypes.Content{Data: aws.String(body)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send alert digest: %w", err)
	}
	return nil
}
