package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"hajiri.service/internal/ports/messaging"
)

// AlertService delivers operational alerts to the ops mailbox.
type AlertService interface {
	SendSiteConfigAlert(ctx context.Context, event messaging.SiteConfigAlertEvent) error
}

// SESAlertService sends alert emails through AWS SES.
type SESAlertService struct {
	client    *ses.Client
	sender    string
	recipient string
}

func NewSESAlertService(client *ses.Client, sender, recipient string) *SESAlertService {
	return &SESAlertService{client: client, sender: sender, recipient: recipient}
}

// SendSiteConfigAlert mails the ops team about an organization whose
// workers are pinging locations while no usable site is configured.
func (s *SESAlertService) SendSiteConfigAlert(ctx context.Context, event messaging.SiteConfigAlertEvent) error {
	tracer := otel.Tracer("ses-alert-service")
	ctx, span := tracer.Start(ctx, "send_alert_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	body := fmt.Sprintf(
		"A worker tried to punch in but organization %s has no site with coordinates configured.\n\n"+
			"Sender: %s\nTime: %s\n\n"+
			"Add a site (with latitude and longitude) for this organization so geofence checks can succeed.",
		event.OrgID, event.SenderID, event.OccurredAt.Format("2006-01-02 15:04:05 MST"),
	)

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{s.recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Hajiri: organization has no sites configured"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}
