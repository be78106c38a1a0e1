package alert

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"hajiri.service/internal/core"
	"hajiri.service/internal/ports/messaging"
)

// AlertProcessor handles jobs from the alert queue by mailing the ops
// team through the alert service.
type AlertProcessor struct {
	alerts core.AlertService
}

// NewProcessor sets up a new processor for site configuration alerts.
func NewProcessor(alerts core.AlertService) *AlertProcessor {
	return &AlertProcessor{alerts: alerts}
}

// Process sends one alert email. Failures are retried after a short
// delay; a stale alert is still useful, a lost one is not.
func (p *AlertProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.SiteConfigAlertEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal alert event")
		return false, 0, err // Do not retry on malformed message
	}

	if err := p.alerts.SendSiteConfigAlert(ctx, event); err != nil {
		return true, 30, err
	}

	log.Ctx(ctx).Info().Str("org_id", event.OrgID.String()).Msg("Site configuration alert sent")
	return false, 0, nil
}
