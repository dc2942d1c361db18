package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/dto"
	"github.com/kbai612/churn-analytics-service/internal/repository"
)

// InsightService serves read queries over the churn feature mart.
type InsightService struct {
	marts repository.MartRepository
	log   *zap.Logger
}

// NewInsightService creates a new insight service.
func NewInsightService(marts repository.MartRepository, log *zap.Logger) *InsightService {
	return &InsightService{marts: marts, log: log}
}

// Summary returns the aggregated churn dashboard view.
func (s *InsightService) Summary(ctx context.Context) (*dto.SummaryResponse, error) {
	summary, err := s.marts.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}

	resp := &dto.SummaryResponse{
		TotalCustomers:     summary.TotalCustomers,
		ChurnedCustomers:   summary.ChurnedCustomers,
		ChurnRate:          summary.ChurnRate,
		TotalRevenueAtRisk: summary.TotalRevenueAtRisk,
		AvgRiskScore:       summary.AvgRiskScore,
		RiskTiers:          make([]dto.RiskTierCount, 0, len(summary.RiskTiers)),
	}
	for _, tier := range summary.RiskTiers {
		resp.RiskTiers = append(resp.RiskTiers, dto.RiskTierCount{
			Tier:      tier.Tier,
			Customers: tier.Customers,
		})
	}

	s.log.Info("Summary served",
		zap.Uint64("total_customers", summary.TotalCustomers),
		zap.Float64("churn_rate", summary.ChurnRate))

	return resp, nil
}

// Customer returns the feature mart view of one customer.
func (s *InsightService) Customer(ctx context.Context, customerID string) (*dto.CustomerInsightResponse, error) {
	rec, err := s.marts.CustomerFeature(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}

	return &dto.CustomerInsightResponse{
		CustomerID:               rec.CustomerID,
		AsOfDate:                 rec.AsOfDate.Format("2006-01-02"),
		ChurnFlag:                rec.ChurnFlag,
		ChurnRiskScore:           rec.ChurnRiskScore,
		RiskTier:                 rec.RiskTier,
		RecommendedAction:        rec.RecommendedAction,
		RFMSegment:               rec.RFMSegment,
		RFMCompositeScore:        rec.RFMCompositeScore,
		EngagementSegment:        rec.EngagementSegment,
		EngagementCompositeScore: rec.EngagementCompositeScore,
		TenureDays:               rec.TenureDays,
		RecencyDays:              rec.RecencyDays,
		Monetary:                 rec.Monetary,
		EstimatedLifetimeValue:   rec.EstimatedLifetimeValue,
		RevenueAtRisk:            rec.RevenueAtRisk,
	}, nil
}
