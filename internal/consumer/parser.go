package consumer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// eventMessage is the wire shape of a queued behavioral event.
type eventMessage struct {
	EventID                string  `json:"event_id"`
	CustomerID             string  `json:"customer_id"`
	EventType              string  `json:"event_type"`
	EventDate              string  `json:"event_date"`
	DeviceType             string  `json:"device_type"`
	SessionDurationMinutes float64 `json:"session_duration_minutes"`
	PagesViewed            int32   `json:"pages_viewed"`
}

// JSONEventParser implements MessageParser for JSON-formatted event messages.
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser.
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse parses a JSON message body into a BehavioralEvent. Messages without a
// customer, an event type, or a parseable event date are rejected.
func (p *JSONEventParser) Parse(body []byte) (*domain.BehavioralEvent, error) {
	var msg eventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	if msg.CustomerID == "" {
		return nil, fmt.Errorf("missing customer_id")
	}
	if msg.EventType == "" {
		return nil, fmt.Errorf("missing event_type")
	}
	eventDate, err := time.Parse("2006-01-02", msg.EventDate)
	if err != nil {
		return nil, fmt.Errorf("invalid event_date %q: %w", msg.EventDate, err)
	}
	if msg.SessionDurationMinutes < 0 {
		return nil, fmt.Errorf("negative session duration: %f", msg.SessionDurationMinutes)
	}
	if msg.PagesViewed < 0 {
		return nil, fmt.Errorf("negative pages viewed: %d", msg.PagesViewed)
	}

	now := time.Now()
	return &domain.BehavioralEvent{
		EventID:                msg.EventID,
		CustomerID:             msg.CustomerID,
		EventDate:              eventDate,
		EventType:              msg.EventType,
		DeviceType:             msg.DeviceType,
		SessionDurationMinutes: msg.SessionDurationMinutes,
		PagesViewed:            msg.PagesViewed,
		ProcessedAt:            now,
		Version:                uint64(now.UnixNano()),
	}, nil
}
