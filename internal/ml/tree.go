package ml

import (
	"math/rand"
	"sort"
)

// treeParams bound the growth of one CART tree.
type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	// maxFeatures is the number of candidate features per split; zero means
	// all features.
	maxFeatures int
}

// treeNode is one node of a fitted tree, serialized flat by index so the
// ensembles marshal to plain JSON.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	// Value is the weighted mean target of the node's training samples. It is
	// kept on internal nodes too so path attributions can diff parent and
	// child expectations.
	Value float64 `json:"value"`
	Leaf  bool    `json:"leaf"`
}

// decisionTree is a weighted regression CART. On 0/1 targets the weighted
// variance criterion coincides with gini impurity, so the same tree serves
// the forest (probabilities) and the booster (residuals).
type decisionTree struct {
	Nodes []treeNode `json:"nodes"`
}

// fit grows the tree over the sample indices in idx.
func (t *decisionTree) fit(X [][]float64, target, weight []float64, idx []int, params treeParams, rng *rand.Rand) {
	t.Nodes = t.Nodes[:0]
	t.grow(X, target, weight, idx, params, rng, 0)
}

// grow appends the subtree for idx and returns its node index.
func (t *decisionTree) grow(X [][]float64, target, weight []float64, idx []int, params treeParams, rng *rand.Rand, depth int) int {
	var wSum, wTargetSum float64
	for _, i := range idx {
		wSum += weight[i]
		wTargetSum += weight[i] * target[i]
	}
	value := 0.0
	if wSum > 0 {
		value = wTargetSum / wSum
	}

	nodeIdx := len(t.Nodes)
	t.Nodes = append(t.Nodes, treeNode{Value: value, Leaf: true})

	if depth >= params.maxDepth || len(idx) < params.minSamplesSplit {
		return nodeIdx
	}

	feature, threshold, ok := t.bestSplit(X, target, weight, idx, params, rng)
	if !ok {
		return nodeIdx
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < params.minSamplesLeaf || len(right) < params.minSamplesLeaf {
		return nodeIdx
	}

	leftIdx := t.grow(X, target, weight, left, params, rng, depth+1)
	rightIdx := t.grow(X, target, weight, right, params, rng, depth+1)

	node := &t.Nodes[nodeIdx]
	node.Feature = feature
	node.Threshold = threshold
	node.Left = leftIdx
	node.Right = rightIdx
	node.Leaf = false
	return nodeIdx
}

// bestSplit finds the weighted-variance-minimizing split over a random
// feature subset.
func (t *decisionTree) bestSplit(X [][]float64, target, weight []float64, idx []int, params treeParams, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(X[idx[0]])
	candidates := make([]int, nFeatures)
	for j := range candidates {
		candidates[j] = j
	}
	if params.maxFeatures > 0 && params.maxFeatures < nFeatures {
		rng.Shuffle(nFeatures, func(a, b int) {
			candidates[a], candidates[b] = candidates[b], candidates[a]
		})
		candidates = candidates[:params.maxFeatures]
	}

	var totalW, totalWT, totalWTT float64
	for _, i := range idx {
		w, tv := weight[i], target[i]
		totalW += w
		totalWT += w * tv
		totalWTT += w * tv * tv
	}
	if totalW == 0 {
		return 0, 0, false
	}
	parentSSE := totalWTT - totalWT*totalWT/totalW

	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(idx))
	for _, feature := range candidates {
		copy(order, idx)
		f := feature
		sort.Slice(order, func(a, b int) bool {
			return X[order[a]][f] < X[order[b]][f]
		})

		var leftW, leftWT, leftWTT float64
		leftCount := 0
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			w, tv := weight[i], target[i]
			leftW += w
			leftWT += w * tv
			leftWTT += w * tv * tv
			leftCount++

			cur, next := X[i][f], X[order[k+1]][f]
			if cur == next {
				continue
			}
			if leftCount < params.minSamplesLeaf || len(order)-leftCount < params.minSamplesLeaf {
				continue
			}

			rightW := totalW - leftW
			if leftW == 0 || rightW == 0 {
				continue
			}
			rightWT := totalWT - leftWT
			rightWTT := totalWTT - leftWTT
			sse := (leftWTT - leftWT*leftWT/leftW) + (rightWTT - rightWT*rightWT/rightW)
			gain := parentSSE - sse
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// predict returns the leaf value for one row.
func (t *decisionTree) predict(x []float64) float64 {
	node := &t.Nodes[0]
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = &t.Nodes[node.Left]
		} else {
			node = &t.Nodes[node.Right]
		}
	}
	return node.Value
}

// pathContributions walks the decision path of x and adds the change in node
// expectation at every step to contrib, scaled by factor. The sum of added
// contributions equals factor * (leaf value - root value).
func (t *decisionTree) pathContributions(x []float64, contrib []float64, factor float64) {
	node := &t.Nodes[0]
	for !node.Leaf {
		var child *treeNode
		if x[node.Feature] <= node.Threshold {
			child = &t.Nodes[node.Left]
		} else {
			child = &t.Nodes[node.Right]
		}
		contrib[node.Feature] += factor * (child.Value - node.Value)
		node = child
	}
}
