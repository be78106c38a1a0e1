package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes events to the reply and alert queues through a
// MessageSender.
type Producer struct {
	sender        MessageSender
	replyQueueURL string
	alertQueueURL string
}

func NewProducer(sender MessageSender, replyQueueURL, alertQueueURL string) *Producer {
	return &Producer{
		sender:        sender,
		replyQueueURL: replyQueueURL,
		alertQueueURL: alertQueueURL,
	}
}

// NewSQSProducer creates a Producer backed by an AWS SQS sender.
func NewSQSProducer(client SQSClient, replyQueueURL, alertQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, replyQueueURL, alertQueueURL)
}

func (p *Producer) PublishReply(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.replyQueueURL, body)
}

func (p *Producer) PublishAlert(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.alertQueueURL, body)
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with the recipient if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		var payload struct {
			To string `json:"to"`
		}
		if err := json.Unmarshal(b, &payload); err == nil && payload.To != "" {
			span.SetAttributes(attribute.String("app.recipient", payload.To))
		}
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
