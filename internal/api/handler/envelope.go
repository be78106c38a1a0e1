package handler

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedEnvelope marks a payload the parser refused; the webhook
// answers 400 so the provider knows the delivery itself was bad.
var ErrMalformedEnvelope = errors.New("malformed webhook envelope")

// EventType tags the parsed inbound event.
type EventType string

const (
	EventLocation EventType = "location"
	EventText     EventType = "text"
	EventOther    EventType = "other"
)

// InboundEvent is the validated, tagged form of one inbound message.
// The raw Meta envelope never travels past this package.
type InboundEvent struct {
	Type      EventType
	SenderID  string
	Latitude  float64
	Longitude float64
}

// Typed mirror of the Meta Cloud API webhook envelope. Unknown fields
// are ignored; the fields the engine needs are validated strictly.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From     string `json:"from"`
	Type     string `json:"type"`
	Location *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"location"`
}

// ParseEnvelope validates one webhook POST body. It returns (nil, nil)
// for envelopes that carry no message at all (delivery/read status
// callbacks), which the webhook acknowledges and drops.
func ParseEnvelope(body []byte) (*InboundEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	if len(env.Entry) == 0 || len(env.Entry[0].Changes) == 0 {
		return nil, nil
	}
	msgs := env.Entry[0].Changes[0].Value.Messages
	if len(msgs) == 0 {
		return nil, nil
	}

	msg := msgs[0]
	if msg.From == "" {
		return nil, fmt.Errorf("%w: message without sender", ErrMalformedEnvelope)
	}

	switch msg.Type {
	case "location":
		if msg.Location == nil || msg.Location.Latitude == nil || msg.Location.Longitude == nil {
			return nil, fmt.Errorf("%w: location message without coordinates", ErrMalformedEnvelope)
		}
		return &InboundEvent{
			Type:      EventLocation,
			SenderID:  msg.From,
			Latitude:  *msg.Location.Latitude,
			Longitude: *msg.Location.Longitude,
		}, nil
	case "text":
		return &InboundEvent{Type: EventText, SenderID: msg.From}, nil
	default:
		return &InboundEvent{Type: EventOther, SenderID: msg.From}, nil
	}
}
