package consumer

import (
	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// MessageParser defines the interface for parsing raw message bytes into
// behavioral events.
type MessageParser interface {
	Parse(body []byte) (*domain.BehavioralEvent, error)
}
