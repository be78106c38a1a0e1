package messaging

import (
	"time"

	"github.com/google/uuid"
)

// ReplyEvent is the JSON payload queued for the notify worker; one per
// outbound WhatsApp reply.
type ReplyEvent struct {
	To         string    `json:"to"`
	Text       string    `json:"text"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SiteConfigAlertEvent is queued for the alert worker whenever a
// location ping hits an organization with no usable sites.
type SiteConfigAlertEvent struct {
	OrgID      uuid.UUID `json:"orgId"`
	SenderID   string    `json:"senderId"`
	OccurredAt time.Time `json:"occurredAt"`
}
