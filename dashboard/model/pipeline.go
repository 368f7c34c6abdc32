package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"insurance_platform/dashboard/dataset"
)

const (
	// DefaultSeed makes training reproducible: identical dataset and seed
	// produce identical metrics.
	DefaultSeed = 42

	testFraction = 0.2

	modelType = "random_forest"
)

var (
	ErrModelNotLoaded     = errors.New("model not loaded, train the model first")
	ErrTrainingInProgress = errors.New("a retrain is already in progress")
	ErrTrainingFailed     = errors.New("model training failed")
)

// Pipeline is the serialized unit: preprocessing parameters plus the fitted
// ensemble.
type Pipeline struct {
	Preprocessor *Preprocessor
	Forest       *Forest
}

type Metadata struct {
	TrainingDate    string   `json:"training_date"`
	TrainingSamples int      `json:"training_samples"`
	TestSamples     int      `json:"test_samples"`
	TrainRmse       float64  `json:"train_rmse"`
	TestRmse        float64  `json:"test_rmse"`
	TrainR2         float64  `json:"train_r2"`
	TestR2          float64  `json:"test_r2"`
	Features        []string `json:"features"`
	ModelType       string   `json:"model_type"`
}

// FeatureInput is one prediction request. PremiumAnnualInr defaults to zero
// when the caller omits it.
type FeatureInput struct {
	Age              int     `json:"age"`
	Bmi              float64 `json:"bmi"`
	Gender           string  `json:"gender"`
	Smoker           string  `json:"smoker"`
	Region           string  `json:"region"`
	PremiumAnnualInr float64 `json:"premium_annual_inr"`
}

func (in *FeatureInput) row() dataset.Row {
	return dataset.Row{
		Age:              float64(in.Age),
		Bmi:              in.Bmi,
		Gender:           in.Gender,
		Smoker:           in.Smoker,
		Region:           in.Region,
		PremiumAnnualInr: in.PremiumAnnualInr,
		ClaimAmountInr:   math.NaN(),
	}
}

func rmse(predictions, targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	var sumSq float64
	for i := range targets {
		diff := predictions[i] - targets[i]
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(targets)))
}

func rSquared(predictions, targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	var sum float64
	for _, t := range targets {
		sum += t
	}
	mean := sum / float64(len(targets))

	var ssRes, ssTot float64
	for i := range targets {
		ssRes += (targets[i] - predictions[i]) * (targets[i] - predictions[i])
		ssTot += (targets[i] - mean) * (targets[i] - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// Train fits the pipeline on an 80/20 split of the given frame. Rows without
// a claim amount are dropped before splitting.
func Train(frame *dataset.Frame, seed int64) (*Pipeline, *Metadata, error) {
	rows := make([]dataset.Row, 0, frame.Len())
	for _, row := range frame.Rows {
		if !math.IsNaN(row.ClaimAmountInr) {
			rows = append(rows, row)
		}
	}

	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%w: dataset has %d usable rows, need at least 2", ErrTrainingFailed, len(rows))
	}

	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(len(rows))

	testCount := int(float64(len(rows)) * testFraction)
	if testCount == 0 {
		testCount = 1
	}
	trainCount := len(rows) - testCount
	if trainCount == 0 {
		return nil, nil, fmt.Errorf("%w: empty training split", ErrTrainingFailed)
	}

	trainRows := make([]dataset.Row, 0, trainCount)
	testRows := make([]dataset.Row, 0, testCount)
	for i, idx := range order {
		if i < trainCount {
			trainRows = append(trainRows, rows[idx])
		} else {
			testRows = append(testRows, rows[idx])
		}
	}

	preprocessor := FitPreprocessor(trainRows)

	trainFeatures := preprocessor.TransformAll(trainRows)
	trainTargets := make([]float64, len(trainRows))
	for i := range trainRows {
		trainTargets[i] = trainRows[i].ClaimAmountInr
	}

	forest := fitForest(trainFeatures, trainTargets, seed)

	pipeline := &Pipeline{Preprocessor: preprocessor, Forest: forest}

	trainPredictions := make([]float64, len(trainRows))
	for i := range trainFeatures {
		trainPredictions[i] = forest.Predict(trainFeatures[i])
	}

	testFeatures := preprocessor.TransformAll(testRows)
	testTargets := make([]float64, len(testRows))
	testPredictions := make([]float64, len(testRows))
	for i := range testRows {
		testTargets[i] = testRows[i].ClaimAmountInr
		testPredictions[i] = forest.Predict(testFeatures[i])
	}

	metadata := &Metadata{
		TrainingDate:    time.Now().UTC().Format(time.RFC3339),
		TrainingSamples: len(trainRows),
		TestSamples:     len(testRows),
		TrainRmse:       rmse(trainPredictions, trainTargets),
		TestRmse:        rmse(testPredictions, testTargets),
		TrainR2:         rSquared(trainPredictions, trainTargets),
		TestR2:          rSquared(testPredictions, testTargets),
		Features:        FeatureColumns(),
		ModelType:       modelType,
	}

	return pipeline, metadata, nil
}

// Predict returns a non-negative point estimate and a heuristic confidence in
// [0,1] derived from the spread of per-tree predictions. The confidence is an
// ad-hoc uncertainty proxy, not a calibrated interval.
func (p *Pipeline) Predict(input FeatureInput) (float64, float64) {
	row := input.row()
	features := p.Preprocessor.Transform(&row)

	perTree := p.Forest.PerTreePredictions(features)
	if len(perTree) == 0 {
		return 0, 0.5
	}

	confidence := 1.0 / (1.0 + stddev(perTree))

	var sum float64
	for _, v := range perTree {
		sum += v
	}
	prediction := sum / float64(len(perTree))

	return math.Max(0, prediction), confidence
}

// FeatureImportance maps transformed feature names (one-hot columns included)
// to normalized impurity-decrease scores.
func (p *Pipeline) FeatureImportance() map[string]float64 {
	names := p.Preprocessor.TransformedFeatureNames()
	scores := p.Forest.featureImportance(p.Preprocessor.Width())

	importance := make(map[string]float64, len(names))
	for i, name := range names {
		importance[name] = scores[i]
	}
	return importance
}
