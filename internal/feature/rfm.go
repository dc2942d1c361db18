package feature

// RFM composite weights: recency dominates.
const (
	recencyWeight   = 0.4
	frequencyWeight = 0.3
	monetaryWeight  = 0.3
)

// rfmRule is one row of the segment decision table.
type rfmRule struct {
	segment string
	matches func(r, f, m int) bool
}

// rfmSegmentTable is evaluated top to bottom, first match wins. The order is
// load-bearing: several predicates overlap, and reordering changes labels.
var rfmSegmentTable = []rfmRule{
	{"Champions", func(r, f, m int) bool {
		return r >= 4 && f >= 4 && m >= 4
	}},
	{"Cant Lose Them", func(r, f, m int) bool {
		return r <= 2 && f >= 4 && m >= 4
	}},
	{"Loyal Customers", func(r, f, m int) bool {
		return r >= 3 && f >= 4 && m >= 3
	}},
	{"At Risk", func(r, f, m int) bool {
		return r <= 2 && f >= 3 && m >= 3
	}},
	{"New Customers", func(r, f, m int) bool {
		return r >= 4 && f <= 2 && m <= 2
	}},
	{"Potential Loyalists", func(r, f, m int) bool {
		return r >= 4 && f >= 2 && m >= 2
	}},
	{"Promising", func(r, f, m int) bool {
		return r >= 3 && f <= 2 && m <= 2
	}},
	{"About to Sleep", func(r, f, m int) bool {
		return r == 3 && f <= 3 && m <= 3
	}},
	// Shadowed by "New Customers" above (identical predicate); kept to match
	// the upstream decision table rather than silently repairing it.
	{"Need Attention", func(r, f, m int) bool {
		return r >= 4 && f <= 2 && m <= 2
	}},
	{"Hibernating", func(r, f, m int) bool {
		return r == 2 && f <= 2 && m <= 2
	}},
	{"Lost", func(r, f, m int) bool {
		return r <= 1 && f <= 2 && m <= 2
	}},
}

// rfmSegment labels a customer from its three quantile scores.
func rfmSegment(r, f, m int) string {
	for _, rule := range rfmSegmentTable {
		if rule.matches(r, f, m) {
			return rule.segment
		}
	}
	return "Other"
}

// rfmComposite is the weighted RFM sub-score in [1,5].
func rfmComposite(r, f, m int) float64 {
	return recencyWeight*float64(r) + frequencyWeight*float64(f) + monetaryWeight*float64(m)
}
