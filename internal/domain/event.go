package domain

import "time"

// Behavioral event types emitted by the product.
const (
	EventLogin         = "login"
	EventSupportTicket = "support_ticket"
	EventAppCrash      = "app_crash"
	FeatureEventPrefix = "feature_"
)

// BehavioralEvent represents an append-only product usage fact.
type BehavioralEvent struct {
	EventID                string    `ch:"event_id"`
	CustomerID             string    `ch:"customer_id"`
	EventDate              time.Time `ch:"event_date"`
	EventType              string    `ch:"event_type"`
	DeviceType             string    `ch:"device_type"`
	SessionDurationMinutes float64   `ch:"session_duration_minutes"`
	PagesViewed            int32     `ch:"pages_viewed"`
	ProcessedAt            time.Time `ch:"processed_at"`
	Version                uint64    `ch:"version"`
}

// IsFeatureUsage reports whether the event is a feature_* usage event.
func (e BehavioralEvent) IsFeatureUsage() bool {
	return len(e.EventType) > len(FeatureEventPrefix) &&
		e.EventType[:len(FeatureEventPrefix)] == FeatureEventPrefix
}
