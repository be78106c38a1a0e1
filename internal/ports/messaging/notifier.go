package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QueueNotifier adapts the queue producer to the engine's notifier and
// alert ports. Replies are queued rather than sent inline so a slow or
// failing Meta API never adds latency to the webhook path; the notify
// worker owns delivery and retries.
type QueueNotifier struct {
	producer QueueProducer
}

func NewQueueNotifier(p QueueProducer) *QueueNotifier {
	return &QueueNotifier{producer: p}
}

func (n *QueueNotifier) SendText(ctx context.Context, to string, text string) error {
	return n.producer.PublishReply(ctx, ReplyEvent{
		To:         to,
		Text:       text,
		OccurredAt: time.Now().UTC(),
	})
}

func (n *QueueNotifier) PublishSiteConfigAlert(ctx context.Context, orgID uuid.UUID, senderID string) error {
	return n.producer.PublishAlert(ctx, SiteConfigAlertEvent{
		OrgID:      orgID,
		SenderID:   senderID,
		OccurredAt: time.Now().UTC(),
	})
}
