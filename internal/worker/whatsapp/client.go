package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Client contract for the outbound WhatsApp text channel.
type Client interface {
	SendText(ctx context.Context, to string, text string) error
}

// HTTPClient sends messages through the Meta Graph API.
type HTTPClient struct {
	client      *http.Client
	baseURL     string
	accessToken string
	phoneID     string
}

// NewHTTPClient new HTTPClient for the Graph API messages endpoint.
func NewHTTPClient(baseURL, accessToken, phoneID string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		accessToken: accessToken,
		phoneID:     phoneID,
	}
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// SendText posts one text message to the Graph API. A non-2xx response
// is an error so the queue worker can retry delivery.
func (c *HTTPClient) SendText(ctx context.Context, to string, text string) error {
	if c.accessToken == "" || c.phoneID == "" {
		// Credentials are optional in local dev; log instead of failing
		// so the rest of the pipeline stays exercisable.
		log.Ctx(ctx).Warn().Str("to", to).Msg("WhatsApp credentials not set. Message not sent")
		return nil
	}

	p := textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
	}
	p.Text.Body = text

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call graph api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("graph api returned non-successful status code: %d", resp.StatusCode)
	}

	return nil
}
