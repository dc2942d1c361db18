package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// healthyInput matches no cascade rule and falls through to the default.
func healthyInput() riskInput {
	return riskInput{
		RecencyDays:         5,
		DaysSinceLastEvent:  2,
		TenureDays:          400,
		LoginsLast30:        15,
		RecencyScore:        5,
		FrequencyScore:      5,
		MonetaryScore:       5,
		EngagementComposite: 4.5,
	}
}

func TestChurnRiskScore(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *riskInput)
		want   int
	}{
		{"healthy default", func(in *riskInput) {}, 30},
		{"churned", func(in *riskInput) {
			in.Churned = true
		}, 100},
		{"long inactive and disengaged", func(in *riskInput) {
			in.RecencyDays = 80
			in.EngagementComposite = 1.0
		}, 95},
		{"stale low frequency no logins", func(in *riskInput) {
			in.RecencyDays = 65
			in.FrequencyScore = 2
			in.LoginsLast30 = 1
			in.EngagementComposite = 2.0
		}, 90},
		{"support ticket heavy", func(in *riskInput) {
			in.TicketsLast90 = 3
			in.EngagementComposite = 2.0
		}, 85},
		{"month to month stale", func(in *riskInput) {
			in.MonthToMonth = true
			in.RecencyDays = 50
			in.EngagementComposite = 1.8
		}, 80},
		{"crash prone gone quiet", func(in *riskInput) {
			in.CrashesLast90 = 4
			in.DaysSinceLastEvent = 20
		}, 75},
		{"stale low value", func(in *riskInput) {
			in.RecencyDays = 35
			in.MonetaryScore = 2
		}, 70},
		{"quiet low frequency", func(in *riskInput) {
			in.DaysSinceLastEvent = 40
			in.FrequencyScore = 2
		}, 65},
		{"early tenure low engagement", func(in *riskInput) {
			in.TenureDays = 30
			in.EngagementComposite = 2.0
			in.DaysSinceLastEvent = 10
		}, 60},
		{"month to month low value", func(in *riskInput) {
			in.MonthToMonth = true
			in.MonetaryScore = 2
		}, 50},
		{"softening engagement", func(in *riskInput) {
			in.EngagementComposite = 2.8
			in.RecencyScore = 3
			in.DaysSinceLastEvent = 10
		}, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := healthyInput()
			tt.mutate(&in)
			assert.Equal(t, tt.want, churnRiskScore(in))
		})
	}
}

// Earlier rules take priority over later ones when several match.
func TestChurnRiskScore_FirstMatchWins(t *testing.T) {
	in := healthyInput()
	in.Churned = true
	in.RecencyDays = 120
	in.EngagementComposite = 0.5
	in.TicketsLast90 = 10
	in.MonthToMonth = true
	in.MonetaryScore = 1
	in.FrequencyScore = 1

	assert.Equal(t, 100, churnRiskScore(in))
}

func TestChurnRiskScore_Bounds(t *testing.T) {
	for _, rule := range riskCascade {
		assert.GreaterOrEqual(t, rule.score, riskScoreDefault, rule.name)
		assert.LessOrEqual(t, rule.score, riskScoreMax, rule.name)
	}
}

func TestRiskTier(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, domain.TierCritical},
		{80, domain.TierCritical},
		{79, domain.TierHigh},
		{60, domain.TierHigh},
		{59, domain.TierMedium},
		{45, domain.TierMedium},
		{44, domain.TierLow},
		{30, domain.TierLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, riskTier(tt.score), "score %d", tt.score)
	}
}

func TestRevenueAtRiskMultiplier(t *testing.T) {
	tests := []struct {
		score int
		want  float64
	}{
		{100, 0.90},
		{90, 0.90},
		{85, 0.75},
		{75, 0.75},
		{70, 0.60},
		{60, 0.60},
		{50, 0.40},
		{45, 0.40},
		{40, 0.20},
		{30, 0.20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, revenueAtRiskMultiplier(tt.score), "score %d", tt.score)
	}
}
