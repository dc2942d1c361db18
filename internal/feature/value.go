package feature

// Flat lifetime-value fallback for customers with no purchase history.
const baselineLifetimeValue = 25.0

// estimatedLifetimeValue projects customer value as a piecewise percentage of
// monetary history keyed on purchase frequency and engagement, with a flat
// fallback for customers who never bought anything.
func estimatedLifetimeValue(monetary float64, frequency int, engagement float64) float64 {
	switch {
	case monetary > 0 && frequency >= 10 && engagement >= 4:
		return monetary * 2.5
	case monetary > 0 && frequency >= 5 && engagement >= 3:
		return monetary * 1.8
	case monetary > 0 && frequency >= 2:
		return monetary * 1.2
	case monetary > 0:
		return monetary * 0.8
	default:
		return baselineLifetimeValue
	}
}

// actionRule is one step of the recommended-action cascade.
type actionRule struct {
	action  string
	matches func(in actionInput) bool
}

// actionInput carries the labels the action cascade reads.
type actionInput struct {
	Churned           bool
	RiskScore         int
	EngagementSegment string
	RFMSegment        string
}

// actionCascade is ordered, first match wins.
var actionCascade = []actionRule{
	{"Win-back campaign", func(in actionInput) bool {
		return in.Churned
	}},
	{"Immediate account-team outreach", func(in actionInput) bool {
		return in.RiskScore >= 80 && (in.RFMSegment == "Champions" ||
			in.RFMSegment == "Loyal Customers" || in.RFMSegment == "Cant Lose Them")
	}},
	{"Retention offer with discount", func(in actionInput) bool {
		return in.RiskScore >= 80
	}},
	{"Re-engagement email sequence", func(in actionInput) bool {
		return in.RiskScore >= 60 && (in.EngagementSegment == "Barely Engaged" ||
			in.EngagementSegment == "No Data")
	}},
	{"Check-in survey and support follow-up", func(in actionInput) bool {
		return in.RiskScore >= 60
	}},
	{"Onboarding nurture program", func(in actionInput) bool {
		return in.RFMSegment == "New Customers"
	}},
	{"Educational content and feature tips", func(in actionInput) bool {
		return in.RiskScore >= 45
	}},
	{"Referral and loyalty rewards", func(in actionInput) bool {
		return in.EngagementSegment == "Highly Engaged" && in.RFMSegment == "Champions"
	}},
}

// recommendedAction labels the next-best action for a customer.
func recommendedAction(in actionInput) string {
	for _, rule := range actionCascade {
		if rule.matches(in) {
			return rule.action
		}
	}
	return "Standard newsletter cadence"
}
