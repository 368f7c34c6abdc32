package model

import (
	"math"
	"math/rand"
)

// Random forest regressor. Hyperparameters match the single pipeline
// definition this service trains: 100 trees, depth 10, squared-error splits.
const (
	numTrees        = 100
	maxTreeDepth    = 10
	minSamplesSplit = 5
	minSamplesLeaf  = 2
)

type Forest struct {
	Trees []Tree
}

// fitForest trains the ensemble on bootstrap samples drawn from a seeded
// source, so identical data and seed always yield an identical forest.
func fitForest(features [][]float64, targets []float64, seed int64) *Forest {
	rng := rand.New(rand.NewSource(seed))
	params := treeParams{
		maxDepth:        maxTreeDepth,
		minSamplesSplit: minSamplesSplit,
		minSamplesLeaf:  minSamplesLeaf,
	}

	n := len(features)
	forest := &Forest{Trees: make([]Tree, 0, numTrees)}
	for t := 0; t < numTrees; t++ {
		samples := make([]int, n)
		for i := range samples {
			samples[i] = rng.Intn(n)
		}
		forest.Trees = append(forest.Trees, buildTree(samples, features, targets, params))
	}

	return forest
}

func (f *Forest) Predict(features []float64) float64 {
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(features)
	}
	return sum / float64(len(f.Trees))
}

// PerTreePredictions exposes the individual tree estimates, used for the
// spread-based confidence heuristic.
func (f *Forest) PerTreePredictions(features []float64) []float64 {
	out := make([]float64, len(f.Trees))
	for i := range f.Trees {
		out[i] = f.Trees[i].Predict(features)
	}
	return out
}

func (f *Forest) featureImportance(width int) []float64 {
	importance := make([]float64, width)
	for i := range f.Trees {
		f.Trees[i].accumulateImportance(importance)
	}

	var total float64
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}
	return importance
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sumSq float64
	for _, v := range values {
		sumSq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
