package service

import (
	"context"

	"github.com/kbai612/churn-analytics-service/internal/dto"
)

// EventServicer defines the interface for event ingestion operations.
type EventServicer interface {
	ProcessEvent(event *dto.PublishEventRequest) (string, error)
	ProcessBulkEvents(events []dto.PublishEventRequest) ([]string, []string, error)
}

// InsightServicer defines the interface for feature mart read operations.
type InsightServicer interface {
	Summary(ctx context.Context) (*dto.SummaryResponse, error)
	Customer(ctx context.Context, customerID string) (*dto.CustomerInsightResponse, error)
}

// PredictServicer defines the interface for model serving operations.
type PredictServicer interface {
	Score(req *dto.PredictRequest) (*dto.PredictResponse, error)
	Explain(req *dto.ExplainRequest) (*dto.ExplainResponse, error)
}
