package randomforest

import (
	"math"
	"sort"

	"github.com/zappai-go/zappai/floatsunrolled"
)

// treeNode is one node of a CART regression tree: either a leaf carrying a
// predicted value, or a split on a single feature/threshold.
type treeNode struct {
	isLeaf    bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// buildTree grows a single regression tree over the given row subset of x/y
// using squared-error reduction as the split criterion.
func buildTree(x [][]float64, y []float64, rows []int, opt *Options, depth int) *treeNode {
	if len(rows) < opt.MinSamplesSplit || (opt.MaxDepth > 0 && depth >= opt.MaxDepth) || isPure(y, rows) {
		return leaf(y, rows)
	}

	numFeatures := len(x[rows[0]])
	bestFeature := -1
	bestThreshold := 0.0
	bestScore := math.Inf(1)
	var bestLeft, bestRight []int

	for f := 0; f < numFeatures; f++ {
		sorted := append([]int(nil), rows...)
		sort.Slice(sorted, func(i, j int) bool { return x[sorted[i]][f] < x[sorted[j]][f] })

		for i := 1; i < len(sorted); i++ {
			if x[sorted[i-1]][f] == x[sorted[i]][f] {
				continue
			}
			left := sorted[:i]
			right := sorted[i:]

			score := weightedImpurity(x, y, left, right)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (x[sorted[i-1]][f] + x[sorted[i]][f]) / 2
				bestLeft = append([]int(nil), left...)
				bestRight = append([]int(nil), right...)
			}
		}
	}

	if bestFeature == -1 {
		return leaf(y, rows)
	}

	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      buildTree(x, y, bestLeft, opt, depth+1),
		right:     buildTree(x, y, bestRight, opt, depth+1),
	}
}

func leaf(y []float64, rows []int) *treeNode {
	sum := 0.0
	for _, r := range rows {
		sum += y[r]
	}
	return &treeNode{isLeaf: true, value: sum / float64(len(rows))}
}

func isPure(y []float64, rows []int) bool {
	first := y[rows[0]]
	for _, r := range rows[1:] {
		if y[r] != first {
			return false
		}
	}
	return true
}

// weightedImpurity is the sum of squared-error around the mean in the left
// and right candidate partitions, the quantity a split search minimizes.
func weightedImpurity(x [][]float64, y []float64, left, right []int) float64 {
	return nodeImpurity(gatherY(y, left)) + nodeImpurity(gatherY(y, right))
}

func gatherY(y []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}

// nodeImpurity is sum((y_i - mean(y))^2), computed via floatsunrolled.Dot over
// the mean-centered values, the hot loop of the split search above.
func nodeImpurity(y []float64) float64 {
	n := len(y)
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	mean := sum / float64(n)

	centered := make([]float64, n)
	for i, v := range y {
		centered[i] = v - mean
	}
	return sumOfSquares(centered)
}

// sumOfSquares pads to a multiple of floatsunrolled.UnrollBatch with zeros
// (which do not change the sum) so Dot can be used unconditionally.
func sumOfSquares(v []float64) float64 {
	if rem := len(v) % floatsunrolled.UnrollBatch; rem != 0 {
		padded := make([]float64, len(v)+(floatsunrolled.UnrollBatch-rem))
		copy(padded, v)
		v = padded
	}
	return floatsunrolled.Dot(v, v)
}

func predictOne(node *treeNode, row []float64) float64 {
	for !node.isLeaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}
