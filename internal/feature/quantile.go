package feature

import "sort"

// quintile buckets per RFM metric
const quintiles = 5

// quintileScores assigns each customer a score in [1,5] by ranking the whole
// population on one metric and cutting it into five equal-sized buckets
// (NTILE semantics: earlier buckets absorb the remainder). Correctness
// depends on ranking the full snapshot at once, not on per-row thresholds.
//
// Customers sort ascending by value, so the highest values land in the last
// bucket and receive score 5. Callers that want "lower is better" (recency)
// negate the metric. Ties are broken by customer ID so a rerun over the same
// snapshot produces identical scores.
func quintileScores(ids []string, values []float64) map[string]int {
	n := len(ids)
	scores := make(map[string]int, n)
	if n == 0 {
		return scores
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if values[ia] != values[ib] {
			return values[ia] < values[ib]
		}
		return ids[ia] < ids[ib]
	})

	base := n / quintiles
	remainder := n % quintiles

	rank := 0
	for bucket := 0; bucket < quintiles; bucket++ {
		size := base
		if bucket < remainder {
			size++
		}
		for i := 0; i < size; i++ {
			scores[ids[order[rank]]] = bucket + 1
			rank++
		}
	}

	return scores
}
