package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	destinations []string
	bodies       [][]byte
	err          error
}

func (f *fakeSender) SendMessage(_ context.Context, destination string, body []byte) error {
	f.destinations = append(f.destinations, destination)
	f.bodies = append(f.bodies, body)
	return f.err
}

func TestProducerRoutesByEventKind(t *testing.T) {
	sender := &fakeSender{}
	p := NewProducer(sender, "reply-queue", "alert-queue")

	reply := ReplyEvent{To: "919876543210", Text: "Attendance Marked!", OccurredAt: time.Now().UTC()}
	require.NoError(t, p.PublishReply(context.Background(), reply))
	require.NoError(t, p.PublishAlert(context.Background(), SiteConfigAlertEvent{SenderID: "919876543210"}))

	require.Equal(t, []string{"reply-queue", "alert-queue"}, sender.destinations)

	var decoded ReplyEvent
	require.NoError(t, json.Unmarshal(sender.bodies[0], &decoded))
	assert.Equal(t, reply.To, decoded.To)
	assert.Equal(t, reply.Text, decoded.Text)
}

func TestProducerWrapsSenderError(t *testing.T) {
	sender := &fakeSender{err: errors.New("queue unreachable")}
	p := NewProducer(sender, "reply-queue", "alert-queue")

	err := p.PublishReply(context.Background(), ReplyEvent{To: "919876543210"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send message")
}

func TestQueueNotifierPublishesReply(t *testing.T) {
	sender := &fakeSender{}
	n := NewQueueNotifier(NewProducer(sender, "reply-queue", "alert-queue"))

	require.NoError(t, n.SendText(context.Background(), "919876543210", "hello"))

	require.Len(t, sender.bodies, 1)
	var decoded ReplyEvent
	require.NoError(t, json.Unmarshal(sender.bodies[0], &decoded))
	assert.Equal(t, "919876543210", decoded.To)
	assert.Equal(t, "hello", decoded.Text)
	assert.False(t, decoded.OccurredAt.IsZero())
}
