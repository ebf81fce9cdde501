package forest

import (
	"math"
	"math/rand"
)

// treeNode is a node in a regression tree. Leaves carry the mean target
// of the samples that reached them.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// treeParams controls how a single tree is grown.
type treeParams struct {
	maxDepth      int
	minLeafSize   int
	featureSubset int
}

// growTree builds a regression tree on the given sample indices using
// variance-reduction splits. The rng drives feature subsampling only;
// the split chosen for a fixed feature set is deterministic.
func growTree(X [][]float64, y []float64, indices []int, params treeParams, depth int, rng *rand.Rand) *treeNode {
	if len(indices) == 0 {
		return &treeNode{leaf: true, value: 0}
	}

	mean := meanAt(y, indices)
	if depth >= params.maxDepth || len(indices) <= params.minLeafSize || pureAt(y, indices) {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, ok := bestSplit(X, y, indices, params, rng)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}

	var left, right []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{leaf: true, value: mean}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(X, y, left, params, depth+1, rng),
		right:     growTree(X, y, right, params, depth+1, rng),
	}
}

// bestSplit searches a random feature subset for the split minimizing
// the weighted sum of child variances.
func bestSplit(X [][]float64, y []float64, indices []int, params treeParams, rng *rand.Rand) (int, float64, bool) {
	numFeatures := len(X[indices[0]])
	subset := sampleFeatures(numFeatures, params.featureSubset, rng)

	bestScore := math.Inf(1)
	bestFeature := -1
	bestThreshold := 0.0

	for _, f := range subset {
		thresholds := candidateThresholds(X, indices, f)
		for _, t := range thresholds {
			score := splitScore(X, y, indices, f, t)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = t
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// candidateThresholds returns midpoints between consecutive distinct
// values of the feature within the sample.
func candidateThresholds(X [][]float64, indices []int, feature int) []float64 {
	values := make([]float64, 0, len(indices))
	for _, idx := range indices {
		values = append(values, X[idx][feature])
	}
	sortFloats(values)

	var thresholds []float64
	for i := 1; i < len(values); i++ {
		if values[i] != values[i-1] {
			thresholds = append(thresholds, (values[i]+values[i-1])/2)
		}
	}
	return thresholds
}

// splitScore computes the weighted child variance for a candidate split.
func splitScore(X [][]float64, y []float64, indices []int, feature int, threshold float64) float64 {
	var leftSum, leftSq, rightSum, rightSq float64
	var leftN, rightN int

	for _, idx := range indices {
		v := y[idx]
		if X[idx][feature] <= threshold {
			leftSum += v
			leftSq += v * v
			leftN++
		} else {
			rightSum += v
			rightSq += v * v
			rightN++
		}
	}
	if leftN == 0 || rightN == 0 {
		return math.Inf(1)
	}

	leftVar := leftSq - leftSum*leftSum/float64(leftN)
	rightVar := rightSq - rightSum*rightSum/float64(rightN)
	return leftVar + rightVar
}

// sampleFeatures draws a subset of feature indices without replacement.
func sampleFeatures(numFeatures, subset int, rng *rand.Rand) []int {
	if subset >= numFeatures {
		all := make([]int, numFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := rng.Perm(numFeatures)
	return perm[:subset]
}

// predict walks the tree down to a leaf.
func (n *treeNode) predict(x []float64) float64 {
	node := n
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func meanAt(y []float64, indices []int) float64 {
	sum := 0.0
	for _, idx := range indices {
		sum += y[idx]
	}
	return sum / float64(len(indices))
}

func pureAt(y []float64, indices []int) bool {
	first := y[indices[0]]
	for _, idx := range indices[1:] {
		if y[idx] != first {
			return false
		}
	}
	return true
}

// sortFloats is an insertion sort; candidate sets here are small and
// this avoids an interface allocation per split.
func sortFloats(v []float64) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}
