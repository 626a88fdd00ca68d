package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
	"github.com/HeoJeongBo/expo-live-activity/internal/observability"
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// KafkaProducer lazily manages writers per topic.
type KafkaProducer struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

// WriteMessages writes messages to the given topic, creating a writer if necessary.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	writer := p.writerForTopic(topic)
	return writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}

var relayTopics = map[domain.EventKind]string{
	domain.EventStarted:    "live_activity_lifecycle",
	domain.EventUpdated:    "live_activity_lifecycle",
	domain.EventEnded:      "live_activity_lifecycle",
	domain.EventUserAction: "live_activity_user_actions",
	domain.EventError:      "live_activity_errors",
}

// relayEnvelope is the wire shape of a relayed event.
type relayEnvelope struct {
	EventID    string          `json:"event_id"`
	Kind       string          `json:"kind"`
	ActivityID string          `json:"activity_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// KafkaRelay forwards published events to Kafka topics keyed by event kind.
// It is one subscriber among others; the in-process stream stays authoritative
// and delivery remains best-effort.
type KafkaRelay struct {
	producer         messageWriter
	shutdownComplete chan struct{}
}

// NewKafkaRelay constructs a KafkaRelay on top of a producer.
func NewKafkaRelay(producer messageWriter) *KafkaRelay {
	return &KafkaRelay{
		producer:         producer,
		shutdownComplete: make(chan struct{}),
	}
}

// Start consumes the subscription until ctx is cancelled or the channel
// closes. It should be called in a goroutine.
func (r *KafkaRelay) Start(ctx context.Context, stream <-chan domain.Event) {
	defer close(r.shutdownComplete)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-stream:
			if !ok {
				return
			}
			if err := r.forward(ctx, event); err != nil {
				log.Printf("event relay: delivery failure: %v", err)
			}
		}
	}
}

// Wait blocks until the relay stops.
func (r *KafkaRelay) Wait() {
	<-r.shutdownComplete
}

func (r *KafkaRelay) forward(ctx context.Context, event domain.Event) error {
	topic := relayTopics[event.Kind]
	if topic == "" {
		return nil
	}

	activityID, payload, err := envelopePayload(event)
	if err != nil {
		return err
	}

	envelope := relayEnvelope{
		EventID:    uuid.NewString(),
		Kind:       string(event.Kind),
		ActivityID: activityID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(activityID),
		Value: body,
	}
	if err := r.producer.WriteMessages(ctx, topic, msg); err != nil {
		return err
	}
	observability.RecordEventRelayed(topic)
	return nil
}

func envelopePayload(event domain.Event) (string, json.RawMessage, error) {
	var (
		activityID string
		payload    any
	)
	switch event.Kind {
	case domain.EventStarted:
		if event.Activity != nil {
			activityID = event.Activity.ID
			payload = ActivityStarted{
				ActivityID:   event.Activity.ID,
				ActivityType: string(event.Activity.Config.Type),
				Title:        event.Activity.Config.Title,
				Priority:     string(event.Activity.Config.Priority),
				NativeID:     event.Activity.NativeActivityID,
				CreatedAt:    event.Activity.CreatedAt,
				ExpiresAt:    event.Activity.Config.ExpirationDate,
			}
		}
	case domain.EventUpdated:
		if event.Update != nil {
			activityID = event.Update.ActivityID
			payload = ActivityUpdated{
				ActivityID: event.Update.ActivityID,
				Content:    contentMap(event.Update.Content),
				Timestamp:  event.Update.Timestamp,
			}
		}
	case domain.EventEnded:
		if event.End != nil {
			activityID = event.End.ActivityID
			ended := ActivityEnded{
				ActivityID:      event.End.ActivityID,
				DismissalPolicy: string(event.End.DismissalPolicy),
			}
			if event.End.FinalContent != nil {
				ended.FinalContent = contentMap(*event.End.FinalContent)
			}
			payload = ended
		}
	case domain.EventUserAction:
		if event.Action != nil {
			activityID = event.Action.ActivityID
			payload = UserActionOccurred{
				ActivityID: event.Action.ActivityID,
				ActionID:   event.Action.ActionID,
				Timestamp:  event.Action.Timestamp,
			}
		}
	case domain.EventError:
		if event.Err != nil {
			payload = LifecycleError{
				Code:    string(event.Err.Code),
				Message: event.Err.Message,
			}
		}
	}

	if payload == nil {
		return activityID, nil, nil
	}
	raw, err := json.Marshal(payload)
	return activityID, raw, err
}
