package model

import (
	"fmt"
	"math"
	"testing"

	"insurance_platform/dashboard/dataset"
	"insurance_platform/dashboard/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingFrame(n int) *dataset.Frame {
	frame := &dataset.Frame{}
	regions := []string{"North", "South", "East", "West"}

	for i := 0; i < n; i++ {
		age := 22.0 + float64((i*3)%55)
		bmi := 18.0 + float64(i%15)
		smoker := "No"
		claim := 8000.0 + age*150 + bmi*100
		if i%2 == 1 {
			smoker = "Yes"
			claim += 12000
		}
		// Gender and premium vary on a longer stride than the smoker flag so
		// neither column duplicates the smoker signal.
		gender := "Male"
		if (i/2)%2 == 0 {
			gender = "Female"
		}

		frame.Rows = append(frame.Rows, dataset.Row{
			Age:              age,
			Bmi:              bmi,
			Gender:           gender,
			Smoker:           smoker,
			Region:           regions[i%len(regions)],
			PremiumAnnualInr: 10000 + float64((i/2)%10)*1500,
			ClaimAmountInr:   claim,
		})
	}

	return frame
}

func TestTrainDeterministic(t *testing.T) {
	frame := trainingFrame(80)

	_, first, err := Train(frame, DefaultSeed)
	require.NoError(t, err)

	_, second, err := Train(frame, DefaultSeed)
	require.NoError(t, err)

	assert.Equal(t, first.TrainRmse, second.TrainRmse)
	assert.Equal(t, first.TestRmse, second.TestRmse)
	assert.Equal(t, first.TrainR2, second.TrainR2)
	assert.Equal(t, first.TestR2, second.TestR2)
}

func TestTrainSplitAndMetrics(t *testing.T) {
	frame := trainingFrame(100)

	_, metadata, err := Train(frame, DefaultSeed)
	require.NoError(t, err)

	assert.Equal(t, 80, metadata.TrainingSamples)
	assert.Equal(t, 20, metadata.TestSamples)
	assert.Equal(t, "random_forest", metadata.ModelType)
	assert.Equal(t, FeatureColumns(), metadata.Features)

	assert.False(t, math.IsNaN(metadata.TrainRmse))
	assert.False(t, math.IsNaN(metadata.TestRmse))
	assert.Greater(t, metadata.TrainR2, 0.0, "model should fit the generated signal")
}

func TestTrainDropsRowsWithoutClaim(t *testing.T) {
	frame := trainingFrame(50)
	for i := 0; i < 10; i++ {
		row := frame.Rows[i]
		row.ClaimAmountInr = math.NaN()
		frame.Rows = append(frame.Rows, row)
	}

	_, metadata, err := Train(frame, DefaultSeed)
	require.NoError(t, err)

	assert.Equal(t, 50, metadata.TrainingSamples+metadata.TestSamples)
}

func TestTrainRejectsTinyDatasets(t *testing.T) {
	_, _, err := Train(&dataset.Frame{}, DefaultSeed)
	require.ErrorIs(t, err, ErrTrainingFailed)

	frame := trainingFrame(1)
	_, _, err = Train(frame, DefaultSeed)
	require.ErrorIs(t, err, ErrTrainingFailed)
}

func TestPredictBounds(t *testing.T) {
	pipeline, _, err := Train(trainingFrame(80), DefaultSeed)
	require.NoError(t, err)

	inputs := []FeatureInput{
		{Age: 45, Bmi: 27.5, Gender: "Male", Smoker: "Yes", Region: "North", PremiumAnnualInr: 25000},
		{Age: 23, Bmi: 19.0, Gender: "Female", Smoker: "No", Region: "South"},
		// Unseen categorical levels should not fail.
		{Age: 60, Bmi: 35.0, Gender: "Other", Smoker: "Maybe", Region: "Central", PremiumAnnualInr: 5000},
	}

	for i, input := range inputs {
		prediction, confidence := pipeline.Predict(input)
		assert.GreaterOrEqual(t, prediction, 0.0, "input %d", i)
		assert.GreaterOrEqual(t, confidence, 0.0, "input %d", i)
		assert.LessOrEqual(t, confidence, 1.0, "input %d", i)
	}
}

func TestPredictSmokerEffect(t *testing.T) {
	pipeline, _, err := Train(trainingFrame(120), DefaultSeed)
	require.NoError(t, err)

	smoker, _ := pipeline.Predict(FeatureInput{Age: 40, Bmi: 25, Gender: "Male", Smoker: "Yes", Region: "North", PremiumAnnualInr: 15000})
	nonSmoker, _ := pipeline.Predict(FeatureInput{Age: 40, Bmi: 25, Gender: "Male", Smoker: "No", Region: "North", PremiumAnnualInr: 15000})

	assert.Greater(t, smoker, nonSmoker, "smokers should predict higher claims on this data")

	// The effect must come from the smoker columns themselves, not from a
	// correlated column standing in for them.
	importance := pipeline.FeatureImportance()
	assert.Greater(t, importance["smoker_Yes"]+importance["smoker_No"], 0.0,
		"the ensemble should split on smoker status")
}

func TestFeatureImportance(t *testing.T) {
	pipeline, _, err := Train(trainingFrame(80), DefaultSeed)
	require.NoError(t, err)

	importance := pipeline.FeatureImportance()
	require.NotEmpty(t, importance)

	var total float64
	for name, score := range importance {
		assert.GreaterOrEqual(t, score, 0.0, "feature %v", name)
		total += score
	}
	assert.InDelta(t, 1.0, total, 1e-9, "importance scores should be normalized")
}

func TestManagerPersistAndReload(t *testing.T) {
	store := storage.NewLocalDisk(t.TempDir())

	manager := NewManager(store)
	require.NoError(t, manager.Load())
	assert.False(t, manager.Loaded())

	_, err := manager.Retrain(trainingFrame(80))
	require.NoError(t, err)
	require.True(t, manager.Loaded())

	original, err := manager.Active()
	require.NoError(t, err)

	reloaded := NewManager(store)
	require.NoError(t, reloaded.Load())
	require.True(t, reloaded.Loaded())

	restored, err := reloaded.Active()
	require.NoError(t, err)

	input := FeatureInput{Age: 45, Bmi: 27.5, Gender: "Male", Smoker: "Yes", Region: "North", PremiumAnnualInr: 25000}
	originalPrediction, _ := original.Predict(input)
	restoredPrediction, _ := restored.Predict(input)
	assert.Equal(t, originalPrediction, restoredPrediction, "restored model should predict identically")

	metadata, err := reloaded.Metadata()
	require.NoError(t, err)
	assert.Equal(t, 64, metadata.TrainingSamples)
}

func TestManagerRejectsConcurrentRetrain(t *testing.T) {
	manager := NewManager(storage.NewLocalDisk(t.TempDir()))

	require.True(t, manager.trainMu.TryLock())
	defer manager.trainMu.Unlock()

	_, err := manager.Retrain(trainingFrame(80))
	require.ErrorIs(t, err, ErrTrainingInProgress)
}

func TestManagerActiveWithoutModel(t *testing.T) {
	manager := NewManager(storage.NewLocalDisk(t.TempDir()))

	_, err := manager.Active()
	require.ErrorIs(t, err, ErrModelNotLoaded)

	_, err = manager.Metadata()
	require.ErrorIs(t, err, ErrModelNotLoaded)
}

func TestPreprocessorTransform(t *testing.T) {
	rows := trainingFrame(40).Rows
	p := FitPreprocessor(rows)

	require.Equal(t, p.Width(), len(p.TransformedFeatureNames()))

	for i := range rows {
		features := p.Transform(&rows[i])
		require.Len(t, features, p.Width())
		for j, value := range features {
			require.False(t, math.IsNaN(value), fmt.Sprintf("row %d feature %d", i, j))
		}
	}

	// Unseen level encodes to an all-zero one-hot block.
	unknown := dataset.Row{Age: 30, Bmi: 22, Gender: "Unseen", Smoker: "No", Region: "North", PremiumAnnualInr: 12000}
	features := p.Transform(&unknown)
	require.Len(t, features, p.Width())
}
