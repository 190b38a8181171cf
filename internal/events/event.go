package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topics group related event types so subscribers can filter cheaply.
const (
	TopicProfile = "profile"
	TopicSession = "session"
	TopicAvatar  = "avatar"
)

// ValidTopic reports whether topic is one this service publishes.
func ValidTopic(topic string) bool {
	switch topic {
	case TopicProfile, TopicSession, TopicAvatar:
		return true
	}
	return false
}

// Event types published by the state layer.
const (
	EventTypeProfileUpdated       = "profile.updated"
	EventTypeProfileAvatarChanged = "profile.avatar_changed"
	EventTypeProfileReset         = "profile.reset"
	EventTypeSessionPhaseChanged  = "session.phase_changed"
	EventTypeAvatarLoadFailed     = "avatar.load_failed"
)

// Event is the envelope delivered to subscribers, relayed over Redis and
// written to WebSocket clients.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	// Origin is the ID of the bus that first published the event.
	Origin string `json:"origin,omitempty"`
}

// New builds an event with a fresh ID and the current UTC timestamp.
func New(topic, eventType string, payload any) (Event, error) {
	evt := Event{
		ID:        uuid.New(),
		Type:      eventType,
		Topic:     topic,
		Timestamp: time.Now().UTC(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		evt.Payload = data
	}
	return evt, nil
}

// Decode unmarshals the payload into dest.
func (e Event) Decode(dest any) error {
	return json.Unmarshal(e.Payload, dest)
}
