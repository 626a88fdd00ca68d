package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
)

type capturedMessage struct {
	Topic   string
	Message kafka.Message
}

type fakeWriter struct {
	messages []capturedMessage
}

func (w *fakeWriter) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	for _, msg := range msgs {
		w.messages = append(w.messages, capturedMessage{Topic: topic, Message: msg})
	}
	return nil
}

func runRelay(t *testing.T, evts ...domain.Event) *fakeWriter {
	t.Helper()
	writer := &fakeWriter{}
	relay := NewKafkaRelay(writer)

	stream := make(chan domain.Event, len(evts))
	for _, event := range evts {
		stream <- event
	}
	close(stream)

	relay.Start(context.Background(), stream)
	relay.Wait()
	return writer
}

func decodeEnvelope(t *testing.T, msg kafka.Message) relayEnvelope {
	t.Helper()
	var envelope relayEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	return envelope
}

func TestRelayRoutesByEventKind(t *testing.T) {
	status := "running"
	instance := domain.LiveActivityInstance{
		ID: "t1",
		Config: domain.ActivityConfig{
			ID:       "t1",
			Type:     domain.TypeTimer,
			Title:    "Focus session",
			Content:  domain.ActivityContent{Status: &status},
			Priority: domain.PriorityNormal,
		},
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
		NativeActivityID: "notification_x",
	}

	writer := runRelay(t,
		domain.Event{Kind: domain.EventStarted, Activity: &instance},
		domain.Event{Kind: domain.EventUserAction, Action: &domain.UserAction{
			ActivityID: "t1", ActionID: "pause", Timestamp: time.Now().UTC(),
		}},
		domain.Event{Kind: domain.EventError, Err: domain.ErrActivityNotFound("ghost")},
	)

	require.Len(t, writer.messages, 3)
	assert.Equal(t, "live_activity_lifecycle", writer.messages[0].Topic)
	assert.Equal(t, "live_activity_user_actions", writer.messages[1].Topic)
	assert.Equal(t, "live_activity_errors", writer.messages[2].Topic)
}

func TestRelayEnvelopeForStartedActivity(t *testing.T) {
	expiry := time.Date(2026, time.March, 1, 14, 0, 0, 0, time.UTC)
	instance := domain.LiveActivityInstance{
		ID: "t1",
		Config: domain.ActivityConfig{
			ID:             "t1",
			Type:           domain.TypeFoodDelivery,
			Title:          "Order #42",
			ExpirationDate: &expiry,
			Priority:       domain.PriorityHigh,
		},
		IsActive:         true,
		CreatedAt:        time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
		NativeActivityID: "notification_x",
	}

	writer := runRelay(t, domain.Event{Kind: domain.EventStarted, Activity: &instance})
	require.Len(t, writer.messages, 1)

	// Messages are keyed by activity id so per-activity ordering survives partitioning.
	assert.Equal(t, "t1", string(writer.messages[0].Message.Key))

	envelope := decodeEnvelope(t, writer.messages[0].Message)
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, "started", envelope.Kind)
	assert.Equal(t, "t1", envelope.ActivityID)
	assert.False(t, envelope.OccurredAt.IsZero())

	var payload ActivityStarted
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "foodDelivery", payload.ActivityType)
	assert.Equal(t, "Order #42", payload.Title)
	assert.Equal(t, "high", payload.Priority)
	assert.Equal(t, "notification_x", payload.NativeID)
	require.NotNil(t, payload.ExpiresAt)
	assert.True(t, payload.ExpiresAt.Equal(expiry))
}

func TestRelayEnvelopeForEndedActivity(t *testing.T) {
	done := "delivered"
	writer := runRelay(t, domain.Event{Kind: domain.EventEnded, End: &domain.EndRequest{
		ActivityID:      "t1",
		FinalContent:    &domain.ActivityContent{Status: &done},
		DismissalPolicy: domain.DismissalAfter,
	}})
	require.Len(t, writer.messages, 1)

	envelope := decodeEnvelope(t, writer.messages[0].Message)
	var payload ActivityEnded
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "after", payload.DismissalPolicy)
	assert.Equal(t, "delivered", payload.FinalContent["status"])
}

func TestRelaySkipsEventsWithMissingPayload(t *testing.T) {
	writer := runRelay(t, domain.Event{Kind: domain.EventStarted})
	require.Len(t, writer.messages, 1)

	envelope := decodeEnvelope(t, writer.messages[0].Message)
	assert.Empty(t, envelope.ActivityID)
	assert.Empty(t, envelope.Payload)
}

func TestRelayStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	relay := NewKafkaRelay(&fakeWriter{})

	stream := make(chan domain.Event)
	go relay.Start(ctx, stream)
	cancel()

	done := make(chan struct{})
	go func() {
		relay.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after cancellation")
	}
}
