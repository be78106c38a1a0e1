package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"hajiri.service/internal/core/model"
)

// AttendanceEngine is what the webhook needs from the decision engine.
type AttendanceEngine interface {
	HandleLocation(ctx context.Context, ping model.LocationPing) (model.Decision, error)
	HandleText(ctx context.Context, senderID string)
}

// WebhookHandler terminates the Meta webhook: the GET verification
// handshake and the POST message deliveries.
type WebhookHandler struct {
	Engine      AttendanceEngine
	VerifyToken string
}

// Verify answers the Meta subscription handshake by echoing the
// challenge when the verify token matches. No business logic involved.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == h.VerifyToken {
		log.Ctx(r.Context()).Info().Msg("Webhook verified successfully")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	http.Error(w, "Forbidden", http.StatusForbidden)
}

// Receive handles one webhook delivery. Business outcomes always answer
// 200 so the provider never retries them; only transient collaborator
// failures answer 500 and invite a redelivery.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	event, err := ParseEnvelope(body)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("Rejected webhook payload")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if event == nil {
		// Status callbacks and other message-less deliveries.
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	switch event.Type {
	case EventLocation:
		ping := model.LocationPing{
			SenderID: event.SenderID,
			Coordinate: model.Coordinate{
				Latitude:  event.Latitude,
				Longitude: event.Longitude,
			},
			ReceivedAt: time.Now(),
		}
		decision, err := h.Engine.HandleLocation(ctx, ping)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("sender", event.SenderID).Msg("Attendance decision aborted")
			http.Error(w, "Service error processing event", http.StatusInternalServerError)
			return
		}
		log.Ctx(ctx).Info().
			Str("sender", event.SenderID).
			Str("outcome", string(decision.Outcome)).
			Float64("distance_m", decision.DistanceMeters).
			Msg("Attendance decision made")
	default:
		// Anything that is not a location share gets the static
		// instructional reply and never reaches the decision engine.
		h.Engine.HandleText(ctx, event.SenderID)
	}

	w.WriteHeader(http.StatusOK)
}
