package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	EventTypeTrackQueued  EventType = "track_queued"
	EventTypeVoteRecorded EventType = "vote_recorded"
	EventTypeTrackStarted EventType = "track_started"
	EventTypeQueueEnded   EventType = "queue_ended"
	EventTypeUserJoined   EventType = "user_joined"
	EventTypeUserLeft     EventType = "user_left"
)

type Event struct {
	Type      EventType       `json:"type"`
	RoomID    string          `json:"room_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Publisher mirrors room lifecycle events to Kafka for operability and
// offline analytics. The live fan-out to clients does not go through here;
// a broker outage only costs the mirror. A nil Publisher is a valid no-op,
// used when no brokers are configured.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Publisher{writer: writer}
}

// Publish emits one room event. Keyed by room id so per-room ordering is
// preserved across partitions.
func (p *Publisher) Publish(ctx context.Context, eventType EventType, roomID string, payload interface{}) error {
	if p == nil {
		return nil
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		raw = data
	}

	event := Event{
		Type:      eventType,
		RoomID:    roomID,
		Timestamp: time.Now(),
		Payload:   raw,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(roomID),
		Value: eventJSON,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

// Event payload types
type TrackQueuedPayload struct {
	ItemID    string `json:"item_id"`
	TrackID   string `json:"track_id"`
	TrackName string `json:"track_name"`
	Artist    string `json:"artist"`
	UserID    string `json:"user_id"`
}

type VoteRecordedPayload struct {
	ItemID string `json:"item_id"`
	UserID string `json:"user_id"`
	Votes  int    `json:"votes"`
}

type TrackStartedPayload struct {
	TrackID   string `json:"track_id"`
	TrackName string `json:"track_name"`
	Artist    string `json:"artist"`
}

type UserPayload struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}
