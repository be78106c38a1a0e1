package notify

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"hajiri.service/internal/ports/messaging"
	"hajiri.service/internal/worker/whatsapp"
)

// NotifyProcessor handles jobs from the reply queue, which involves
// calling the Meta Graph API. It uses a circuit breaker to avoid
// hammering Meta when the API is having issues.
type NotifyProcessor struct {
	whatsapp whatsapp.Client
	cb       *gobreaker.CircuitBreaker
}

// NewProcessor creates a new processor for the reply queue. It sets up
// a circuit breaker in front of the Graph API client.
func NewProcessor(client whatsapp.Client) *NotifyProcessor {
	settings := gobreaker.Settings{
		Name:        "Meta-Graph-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger than 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &NotifyProcessor{
		whatsapp: client,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

// Process delivers one queued reply. Replies are best-effort end to
// end, but within the queue we still retry transient Graph API errors
// with exponential backoff before giving up.
func (p *NotifyProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.ReplyEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal reply event")
		return false, 0, err // Do not retry on malformed message
	}

	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.whatsapp.SendText(ctx, event.To, event.Text)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Ctx(ctx).Warn().Msg("Circuit breaker is OPEN; skipping Graph API call")
		}
		delay := calculateBackoff(receiveCount(msg))
		return true, delay, err
	}

	return false, 0, nil
}

// receiveCount reads how many times SQS has delivered this message, so
// backoff grows across redeliveries without any state of our own.
func receiveCount(msg types.Message) int {
	v, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// calculateBackoff determines how long to wait before retrying a failed job.
// It increases the delay exponentially with each retry.
func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 {
		return 3600 // max at 1 hour
	}
	return backoff
}
