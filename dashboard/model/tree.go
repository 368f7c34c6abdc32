package model

import "sort"

// Regression tree with squared-error splits, stored as a flat node arena so
// the artifact gob-encodes cleanly.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int

	Value    float64
	Leaf     bool
	Impurity float64
	Samples  int
}

type Tree struct {
	Nodes []TreeNode
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
}

type splitCandidate struct {
	feature   int
	threshold float64
	score     float64
	found     bool
}

func meanAndImpurity(samples []int, targets []float64) (float64, float64) {
	var sum float64
	for _, idx := range samples {
		sum += targets[idx]
	}
	mean := sum / float64(len(samples))

	var sumSq float64
	for _, idx := range samples {
		sumSq += (targets[idx] - mean) * (targets[idx] - mean)
	}
	return mean, sumSq / float64(len(samples))
}

// bestSplit scans every feature with a sorted sweep, minimizing the weighted
// sum of child variances. Computed via sum/sum-of-squares prefixes.
func bestSplit(samples []int, features [][]float64, targets []float64, params treeParams) splitCandidate {
	best := splitCandidate{score: 0, found: false}
	n := len(samples)

	order := make([]int, n)
	for feature := 0; feature < len(features[samples[0]]); feature++ {
		copy(order, samples)
		sort.SliceStable(order, func(a, b int) bool {
			return features[order[a]][feature] < features[order[b]][feature]
		})

		var totalSum, totalSumSq float64
		for _, idx := range order {
			totalSum += targets[idx]
			totalSumSq += targets[idx] * targets[idx]
		}

		var leftSum, leftSumSq float64
		for i := 0; i < n-1; i++ {
			idx := order[i]
			leftSum += targets[idx]
			leftSumSq += targets[idx] * targets[idx]

			leftCount := i + 1
			rightCount := n - leftCount
			if leftCount < params.minSamplesLeaf || rightCount < params.minSamplesLeaf {
				continue
			}

			current := features[idx][feature]
			next := features[order[i+1]][feature]
			if current == next {
				continue
			}

			rightSum := totalSum - leftSum
			rightSumSq := totalSumSq - leftSumSq

			leftScore := leftSumSq - leftSum*leftSum/float64(leftCount)
			rightScore := rightSumSq - rightSum*rightSum/float64(rightCount)
			score := leftScore + rightScore

			if !best.found || score < best.score {
				best = splitCandidate{
					feature:   feature,
					threshold: (current + next) / 2,
					score:     score,
					found:     true,
				}
			}
		}
	}

	return best
}

func buildTree(samples []int, features [][]float64, targets []float64, params treeParams) Tree {
	tree := Tree{}

	var build func(samples []int, depth int) int
	build = func(samples []int, depth int) int {
		mean, impurity := meanAndImpurity(samples, targets)

		node := TreeNode{
			Value:    mean,
			Leaf:     true,
			Impurity: impurity,
			Samples:  len(samples),
		}
		idx := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, node)

		if depth >= params.maxDepth || len(samples) < params.minSamplesSplit || impurity == 0 {
			return idx
		}

		split := bestSplit(samples, features, targets, params)
		if !split.found {
			return idx
		}

		var left, right []int
		for _, s := range samples {
			if features[s][split.feature] <= split.threshold {
				left = append(left, s)
			} else {
				right = append(right, s)
			}
		}
		if len(left) < params.minSamplesLeaf || len(right) < params.minSamplesLeaf {
			return idx
		}

		leftIdx := build(left, depth+1)
		rightIdx := build(right, depth+1)

		tree.Nodes[idx].Leaf = false
		tree.Nodes[idx].Feature = split.feature
		tree.Nodes[idx].Threshold = split.threshold
		tree.Nodes[idx].Left = leftIdx
		tree.Nodes[idx].Right = rightIdx

		return idx
	}

	build(samples, 0)
	return tree
}

func (t *Tree) Predict(features []float64) float64 {
	idx := 0
	for {
		node := &t.Nodes[idx]
		if node.Leaf {
			return node.Value
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// accumulateImportance adds each internal node's impurity decrease, weighted
// by sample count, into the per-feature totals.
func (t *Tree) accumulateImportance(importance []float64) {
	for i := range t.Nodes {
		node := &t.Nodes[i]
		if node.Leaf {
			continue
		}
		left := &t.Nodes[node.Left]
		right := &t.Nodes[node.Right]
		decrease := float64(node.Samples)*node.Impurity -
			float64(left.Samples)*left.Impurity -
			float64(right.Samples)*right.Impurity
		if decrease > 0 {
			importance[node.Feature] += decrease
		}
	}
}
