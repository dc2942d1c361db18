package feature

import "github.com/kbai612/churn-analytics-service/internal/domain"

// Bounds of the rule-based churn risk score.
const (
	riskScoreMax     = 100
	riskScoreDefault = 30
)

// riskInput carries the fields the risk cascade predicates read.
type riskInput struct {
	Churned             bool
	RecencyDays         int
	DaysSinceLastEvent  int
	TenureDays          int
	LoginsLast30        int
	TicketsLast90       int
	CrashesLast90       int
	RecencyScore        int
	FrequencyScore      int
	MonetaryScore       int
	EngagementComposite float64
	MonthToMonth        bool
}

// riskRule is one step of the risk cascade.
type riskRule struct {
	name    string
	score   int
	matches func(in riskInput) bool
}

// riskCascade is an ordered priority cascade: rules are evaluated top to
// bottom and the first match wins. It is not a weighted sum; a customer
// matching several rules gets the score of the highest-priority one.
var riskCascade = []riskRule{
	{"churned", 100, func(in riskInput) bool {
		return in.Churned
	}},
	{"long_inactive_disengaged", 95, func(in riskInput) bool {
		return in.RecencyDays > 75 && in.EngagementComposite < 1.5
	}},
	{"stale_low_frequency_no_logins", 90, func(in riskInput) bool {
		return in.RecencyDays > 60 && in.FrequencyScore <= 2 && in.LoginsLast30 < 2
	}},
	{"support_ticket_heavy", 85, func(in riskInput) bool {
		return in.TicketsLast90 >= 3 && in.EngagementComposite < 2.5
	}},
	{"month_to_month_stale", 80, func(in riskInput) bool {
		return in.MonthToMonth && in.RecencyDays > 45 && in.EngagementComposite < 2.0
	}},
	{"crash_prone_gone_quiet", 75, func(in riskInput) bool {
		return in.CrashesLast90 >= 3 && in.DaysSinceLastEvent > 14
	}},
	{"stale_low_value", 70, func(in riskInput) bool {
		return in.RecencyDays > 30 && in.MonetaryScore <= 2
	}},
	{"quiet_low_frequency", 65, func(in riskInput) bool {
		return in.DaysSinceLastEvent > 30 && in.FrequencyScore <= 2
	}},
	{"early_tenure_low_engagement", 60, func(in riskInput) bool {
		return in.TenureDays < 90 && in.EngagementComposite < 2.5
	}},
	{"month_to_month_low_value", 50, func(in riskInput) bool {
		return in.MonthToMonth && in.MonetaryScore <= 2
	}},
	{"softening_engagement", 40, func(in riskInput) bool {
		return in.EngagementComposite < 3.0 && in.RecencyScore <= 3
	}},
}

// churnRiskScore runs the cascade and returns the matched score in [30,100].
func churnRiskScore(in riskInput) int {
	for _, rule := range riskCascade {
		if rule.matches(in) {
			return rule.score
		}
	}
	return riskScoreDefault
}

// riskTier buckets the rule-based risk score. The four tiers partition
// [30,100] with no gaps and no overlaps.
func riskTier(score int) string {
	switch {
	case score >= 80:
		return domain.TierCritical
	case score >= 60:
		return domain.TierHigh
	case score >= 45:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

// revenueAtRiskMultiplier maps the risk score to the fraction of lifetime
// value considered at risk.
func revenueAtRiskMultiplier(score int) float64 {
	switch {
	case score >= 90:
		return 0.90
	case score >= 75:
		return 0.75
	case score >= 60:
		return 0.60
	case score >= 45:
		return 0.40
	default:
		return 0.20
	}
}
