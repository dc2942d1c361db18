package feature

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuintileScores_EqualBuckets(t *testing.T) {
	ids := make([]string, 10)
	values := make([]float64, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("CUST-%03d", i)
		values[i] = float64(i)
	}

	scores := quintileScores(ids, values)

	assert.Len(t, scores, 10)
	counts := make(map[int]int)
	for _, s := range scores {
		counts[s]++
	}
	for bucket := 1; bucket <= 5; bucket++ {
		assert.Equal(t, 2, counts[bucket], "bucket %d", bucket)
	}
	// Highest values land in the top bucket.
	assert.Equal(t, 5, scores["CUST-009"])
	assert.Equal(t, 1, scores["CUST-000"])
}

func TestQuintileScores_RemainderGoesToEarlierBuckets(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	values := []float64{1, 2, 3, 4, 5, 6, 7}

	scores := quintileScores(ids, values)

	counts := make(map[int]int)
	for _, s := range scores {
		counts[s]++
	}
	assert.Equal(t, 2, counts[1])
	assert.Equal(t, 2, counts[2])
	assert.Equal(t, 1, counts[3])
	assert.Equal(t, 1, counts[4])
	assert.Equal(t, 1, counts[5])
}

func TestQuintileScores_TiesBreakByID(t *testing.T) {
	ids := []string{"b", "a", "d", "c", "e"}
	values := []float64{1, 1, 1, 1, 1}

	scores := quintileScores(ids, values)

	assert.Equal(t, 1, scores["a"])
	assert.Equal(t, 2, scores["b"])
	assert.Equal(t, 3, scores["c"])
	assert.Equal(t, 4, scores["d"])
	assert.Equal(t, 5, scores["e"])
}

func TestQuintileScores_Deterministic(t *testing.T) {
	ids := []string{"x", "y", "z", "w", "v", "u"}
	values := []float64{3, 3, 1, 9, 1, 5}

	first := quintileScores(ids, values)
	second := quintileScores(ids, values)

	assert.Equal(t, first, second)
}

func TestQuintileScores_FewerCustomersThanBuckets(t *testing.T) {
	scores := quintileScores([]string{"a", "b"}, []float64{1, 2})

	assert.Equal(t, 1, scores["a"])
	assert.Equal(t, 2, scores["b"])
}

func TestQuintileScores_Empty(t *testing.T) {
	assert.Empty(t, quintileScores(nil, nil))
}
