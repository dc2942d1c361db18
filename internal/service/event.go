package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/dto"
	"github.com/kbai612/churn-analytics-service/internal/queue"
)

// EventService validates behavioral events and publishes them to the queue.
type EventService struct {
	publisher queue.QueuePublisher
	clock     func() time.Time
	log       *zap.Logger
}

// NewEventService creates a new event service.
func NewEventService(publisher queue.QueuePublisher, log *zap.Logger) *EventService {
	return &EventService{
		publisher: publisher,
		clock:     time.Now,
		log:       log,
	}
}

// computeEventID generates a deterministic event ID from the event content.
// Identical submissions map to the same ID, so queue redeliveries collapse in
// the warehouse's deduplicating merge.
func computeEventID(event *dto.PublishEventRequest) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%f|%d",
		event.CustomerID,
		event.EventType,
		event.EventDate,
		event.DeviceType,
		event.SessionDurationMinutes,
		event.PagesViewed,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ProcessEvent validates and publishes a single event.
func (s *EventService) ProcessEvent(event *dto.PublishEventRequest) (string, error) {
	ctx := context.Background()

	eventDate, err := time.Parse("2006-01-02", event.EventDate)
	if err != nil {
		s.log.Warn("Event date validation failed",
			zap.String("event_date", event.EventDate),
			zap.String("event_type", event.EventType))
		return "", fmt.Errorf("invalid event_date %q: %w", event.EventDate, err)
	}

	today := s.clock().UTC().Truncate(24 * time.Hour)
	if eventDate.After(today) {
		s.log.Warn("Event date validation failed: future date",
			zap.Time("event_date", eventDate),
			zap.Time("today", today),
			zap.String("event_type", event.EventType))
		return "", fmt.Errorf("event_date cannot be in the future: %s", event.EventDate)
	}

	eventID := computeEventID(event)

	if err := s.publisher.PublishEvent(ctx, event, eventID); err != nil {
		return "", fmt.Errorf("failed to publish event to queue: %w", err)
	}

	return eventID, nil
}

// ProcessBulkEvents validates and publishes multiple events. Events that fail
// validation or publishing are reported, not fatal to the batch.
func (s *EventService) ProcessBulkEvents(events []dto.PublishEventRequest) ([]string, []string, error) {
	var eventIDs []string
	var errors []string

	for i, event := range events {
		eventID, err := s.ProcessEvent(&event)
		if err != nil {
			errors = append(errors, err.Error())
			s.log.Warn("Failed to process event in bulk",
				zap.Int("index", i),
				zap.Error(err),
				zap.String("event_type", event.EventType))
			continue
		}
		eventIDs = append(eventIDs, eventID)
	}

	return eventIDs, errors, nil
}
