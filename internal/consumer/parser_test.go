package consumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJSONEventParser_Parse_Valid(t *testing.T) {
	parser := NewJSONEventParser()

	body := []byte(`{
		"event_id": "evt_1",
		"customer_id": "cust_1",
		"event_type": "login",
		"event_date": "2026-02-10",
		"device_type": "Mobile",
		"session_duration_minutes": 14.5,
		"pages_viewed": 6
	}`)

	event, err := parser.Parse(body)
	assert.NoError(t, err)
	assert.Equal(t, "evt_1", event.EventID)
	assert.Equal(t, "cust_1", event.CustomerID)
	assert.Equal(t, "login", event.EventType)
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), event.EventDate)
	assert.Equal(t, "Mobile", event.DeviceType)
	assert.InDelta(t, 14.5, event.SessionDurationMinutes, 1e-9)
	assert.Equal(t, int32(6), event.PagesViewed)
	assert.False(t, event.ProcessedAt.IsZero())
	assert.NotZero(t, event.Version)
}

func TestJSONEventParser_Parse_Invalid(t *testing.T) {
	parser := NewJSONEventParser()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"customer_id": `},
		{"missing customer", `{"event_type":"login","event_date":"2026-02-10"}`},
		{"missing event type", `{"customer_id":"cust_1","event_date":"2026-02-10"}`},
		{"bad date", `{"customer_id":"cust_1","event_type":"login","event_date":"Feb 10"}`},
		{"negative duration", `{"customer_id":"cust_1","event_type":"login","event_date":"2026-02-10","session_duration_minutes":-1}`},
		{"negative pages", `{"customer_id":"cust_1","event_type":"login","event_date":"2026-02-10","pages_viewed":-2}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.Parse([]byte(tc.body))
			assert.Error(t, err)
		})
	}
}
