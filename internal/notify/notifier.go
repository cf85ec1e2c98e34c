// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"time"

	awsclients "chat-engine/internal/common/aws"
	"chat-engine/internal/common/logger"
	"chat-engine/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Reason tells the tenant why a visitor needs a human.
type Reason string

const (
	ReasonQuotaExhausted Reason = "quota_exhausted"
	ReasonAIFailure      Reason = "ai_failure"
	ReasonHumanRequested Reason = "human_requested"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	Enabled   bool
	AWSRegion string
	FromEmail string
	Timeout   time.Duration
}

// Notifier alerts tenant staff when a conversation falls out of the
// automated flow. Sends are best-effort: failures are logged, never
// surfaced to the visitor.
type Notifier struct {
	config    *Config
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func New(config *Config, log logger.Logger) (*Notifier, error) {
	ctx := context.Background()

	sesClient, err := awsclients.NewSESClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init SES client: %w", err)
	}
	snsClient, err := awsclients.NewSNSClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init SNS client: %w", err)
	}

	return NewWithClients(config, log, sesClient, snsClient), nil
}

// NewWithClients is used by tests and by callers that manage AWS clients themselves.
func NewWithClients(config *Config, log logger.Logger, sesClient SESService, snsClient SNSService) *Notifier {
	return &Notifier{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

// Handover notifies the tenant that a visitor needs human follow-up.
// Safe to call from a goroutine; uses its own timeout.
func (n *Notifier) Handover(tenant *models.Tenant, reason Reason, visitorMessage string) {
	if !n.config.Enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.config.Timeout)
	defer cancel()

	subject, body := n.buildMessage(tenant, reason, visitorMessage)

	emailSent := false
	if tenant.NotificationEmail != "" {
		if err := n.sendEmail(ctx, tenant.NotificationEmail, subject, body); err != nil {
			n.logger.Error("handover email failed", map[string]interface{}{
				"error":    err,
				"tenantId": tenant.ID,
				"reason":   string(reason),
			})
		} else {
			emailSent = true
		}
	}

	// SMS only for urgent handovers, and only when a phone is on file.
	if tenant.NotificationPhone != "" && reason == ReasonHumanRequested {
		if err := n.sendSMS(ctx, tenant.NotificationPhone, body); err != nil {
			n.logger.Error("handover SMS failed", map[string]interface{}{
				"error":    err,
				"tenantId": tenant.ID,
			})
		}
	}

	n.logger.Info("handover notification processed", map[string]interface{}{
		"tenantId":  tenant.ID,
		"reason":    string(reason),
		"emailSent": emailSent,
	})
}

func (n *Notifier) buildMessage(tenant *models.Tenant, reason Reason, visitorMessage string) (string, string) {
	var why string
	switch reason {
	case ReasonQuotaExhausted:
		why = "den daglige AI-grænse er nået"
	case ReasonAIFailure:
		why = "AI-tjenesten fejlede"
	default:
		why = "en besøgende bad om at tale med en medarbejder"
	}

	subject := fmt.Sprintf("Chat-henvendelse kræver opfølgning (%s)", tenant.CompanyName)
	body := fmt.Sprintf(
		"En besøgende på %s har brug for hjælp, fordi %s.\n\nSeneste besked:\n%s\n",
		tenant.CompanyName, why, visitorMessage,
	)
	return subject, body
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
