package dto

// PublishEventRequest represents a behavioral event ingestion request.
type PublishEventRequest struct {
	CustomerID             string  `json:"customer_id" binding:"required" example:"a3f1c9d2-5b6e-4f7a-8c9d-0e1f2a3b4c5d"`
	EventType              string  `json:"event_type" binding:"required" example:"login"`
	EventDate              string  `json:"event_date" binding:"required" example:"2026-02-10"`
	DeviceType             string  `json:"device_type" example:"Mobile"`
	SessionDurationMinutes float64 `json:"session_duration_minutes" binding:"gte=0" example:"14.5"`
	PagesViewed            int32   `json:"pages_viewed" binding:"gte=0" example:"6"`
}

// PublishEventsBulkRequest represents a bulk event ingestion request.
type PublishEventsBulkRequest struct {
	Events []PublishEventRequest `json:"events" binding:"required,min=1,max=1000,dive"`
}

// PredictRequest represents a churn scoring request. Features is the raw
// feature map; absent numeric features are imputed with training medians and
// absent categorical features fall back to the missing-value class.
type PredictRequest struct {
	Features map[string]any `json:"features" binding:"required"`
	Model    string         `json:"model" example:"Gradient Boosting"`
}

// ExplainRequest represents a churn attribution request.
type ExplainRequest struct {
	Features map[string]any `json:"features" binding:"required"`
	Model    string         `json:"model" example:"Gradient Boosting"`
	TopN     int            `json:"top_n" binding:"gte=0" example:"10"`
}
