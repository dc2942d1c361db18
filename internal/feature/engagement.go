package feature

// Engagement sub-scores are bucketed 1-5 like the RFM scores, with 0 reserved
// for customers with no behavioral data at all.

// engagementRecencyScore buckets days since the last behavioral event.
func engagementRecencyScore(daysSinceLastEvent int, hasEvents bool) int {
	if !hasEvents {
		return 0
	}
	switch {
	case daysSinceLastEvent <= 3:
		return 5
	case daysSinceLastEvent <= 7:
		return 4
	case daysSinceLastEvent <= 14:
		return 3
	case daysSinceLastEvent <= 30:
		return 2
	default:
		return 1
	}
}

// engagementFrequencyScore buckets logins in the trailing 30 days.
func engagementFrequencyScore(loginsLast30 int, hasEvents bool) int {
	if !hasEvents {
		return 0
	}
	switch {
	case loginsLast30 >= 20:
		return 5
	case loginsLast30 >= 10:
		return 4
	case loginsLast30 >= 5:
		return 3
	case loginsLast30 >= 1:
		return 2
	default:
		return 1
	}
}

// featureAdoptionScore buckets feature-usage events in the trailing 30 days.
func featureAdoptionScore(featureUsageLast30 int, hasEvents bool) int {
	if !hasEvents {
		return 0
	}
	switch {
	case featureUsageLast30 >= 15:
		return 5
	case featureUsageLast30 >= 8:
		return 4
	case featureUsageLast30 >= 4:
		return 3
	case featureUsageLast30 >= 1:
		return 2
	default:
		return 1
	}
}

// engagementComposite is the arithmetic mean of the three sub-scores.
func engagementComposite(recency, frequency, adoption int) float64 {
	return float64(recency+frequency+adoption) / 3.0
}

// engagementSegment labels the composite engagement score.
func engagementSegment(composite float64) string {
	switch {
	case composite >= 4:
		return "Highly Engaged"
	case composite >= 3:
		return "Moderately Engaged"
	case composite >= 2:
		return "Lightly Engaged"
	case composite > 0:
		return "Barely Engaged"
	default:
		return "No Data"
	}
}
