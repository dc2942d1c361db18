package dto

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"customer_id is required"`
}

// PublishEventResponse represents a successful event ingestion response.
type PublishEventResponse struct {
	EventID string `json:"event_id" example:"evt_1a2b3c4d5e6f"`
	Status  string `json:"status" example:"accepted"`
}

// PublishBulkEventsResponse represents a successful bulk ingestion response.
type PublishBulkEventsResponse struct {
	Accepted int      `json:"accepted" example:"5"`
	Rejected int      `json:"rejected" example:"0"`
	EventIDs []string `json:"event_ids,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// RiskTierCount represents one risk tier in the summary breakdown.
type RiskTierCount struct {
	Tier      string `json:"tier" example:"Critical"`
	Customers uint64 `json:"customers" example:"312"`
}

// SummaryResponse represents the aggregated churn dashboard view.
type SummaryResponse struct {
	TotalCustomers     uint64          `json:"total_customers" example:"25000"`
	ChurnedCustomers   uint64          `json:"churned_customers" example:"6800"`
	ChurnRate          float64         `json:"churn_rate" example:"0.272"`
	TotalRevenueAtRisk float64         `json:"total_revenue_at_risk" example:"1250000.50"`
	AvgRiskScore       float64         `json:"avg_risk_score" example:"41.3"`
	RiskTiers          []RiskTierCount `json:"risk_tiers"`
}

// CustomerInsightResponse represents the feature mart view of one customer.
type CustomerInsightResponse struct {
	CustomerID               string  `json:"customer_id"`
	AsOfDate                 string  `json:"as_of_date" example:"2026-02-10"`
	ChurnFlag                uint8   `json:"churn_flag" example:"0"`
	ChurnRiskScore           int32   `json:"churn_risk_score" example:"65"`
	RiskTier                 string  `json:"risk_tier" example:"High"`
	RecommendedAction        string  `json:"recommended_action" example:"Urgent intervention required"`
	RFMSegment               string  `json:"rfm_segment" example:"At Risk"`
	RFMCompositeScore        float64 `json:"rfm_composite_score" example:"2.3"`
	EngagementSegment        string  `json:"engagement_segment" example:"Low Engagement"`
	EngagementCompositeScore float64 `json:"engagement_composite_score" example:"1.67"`
	TenureDays               int32   `json:"tenure_days" example:"540"`
	RecencyDays              int32   `json:"recency_days" example:"120"`
	Monetary                 float64 `json:"monetary" example:"734.5"`
	EstimatedLifetimeValue   float64 `json:"estimated_lifetime_value" example:"1101.75"`
	RevenueAtRisk            float64 `json:"revenue_at_risk" example:"826.31"`
}

// ContributionEntry represents one feature's signed attribution.
type ContributionEntry struct {
	Feature      string  `json:"feature" example:"recency_days"`
	Value        float64 `json:"value" example:"1.84"`
	Contribution float64 `json:"contribution" example:"0.12"`
}

// PredictResponse represents a churn scoring response.
type PredictResponse struct {
	Model            string  `json:"model" example:"Gradient Boosting"`
	Prediction       int     `json:"prediction" example:"1"`
	ChurnProbability float64 `json:"churn_probability" example:"0.82"`
	RiskCategory     string  `json:"risk_category" example:"Critical"`
}

// ExplainResponse represents a churn attribution response.
type ExplainResponse struct {
	Model            string              `json:"model" example:"Gradient Boosting"`
	ChurnProbability float64             `json:"churn_probability" example:"0.82"`
	RiskCategory     string              `json:"risk_category" example:"Critical"`
	BaseValue        float64             `json:"base_value" example:"0.27"`
	Contributions    []ContributionEntry `json:"contributions"`
}
