package model

import (
	"math"
	"sort"

	"insurance_platform/dashboard/dataset"
)

var (
	numericFeatures     = []string{"age", "bmi", "premium_annual_inr"}
	categoricalFeatures = []string{"gender", "smoker", "region"}
)

// FeatureColumns is the input schema the pipeline consumes, in order.
func FeatureColumns() []string {
	return append(append([]string{}, numericFeatures...), categoricalFeatures...)
}

const unknownLevel = "Unknown"

// Preprocessor standard-scales the numeric features and one-hot encodes the
// categorical ones. Missing numerics are imputed with the column median,
// missing categoricals with "Unknown". Levels unseen during fitting encode
// to an all-zero block rather than failing.
type Preprocessor struct {
	Medians []float64
	Means   []float64
	Stds    []float64

	Levels [][]string
}

func numericValues(row *dataset.Row) []float64 {
	return []float64{row.Age, row.Bmi, row.PremiumAnnualInr}
}

func categoricalValues(row *dataset.Row) []string {
	return []string{row.Gender, row.Smoker, row.Region}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func FitPreprocessor(rows []dataset.Row) *Preprocessor {
	p := &Preprocessor{
		Medians: make([]float64, len(numericFeatures)),
		Means:   make([]float64, len(numericFeatures)),
		Stds:    make([]float64, len(numericFeatures)),
		Levels:  make([][]string, len(categoricalFeatures)),
	}

	for i := range numericFeatures {
		var present []float64
		for r := range rows {
			value := numericValues(&rows[r])[i]
			if !math.IsNaN(value) {
				present = append(present, value)
			}
		}
		p.Medians[i] = median(present)

		var sum float64
		for r := range rows {
			value := numericValues(&rows[r])[i]
			if math.IsNaN(value) {
				value = p.Medians[i]
			}
			sum += value
		}
		mean := 0.0
		if len(rows) > 0 {
			mean = sum / float64(len(rows))
		}
		p.Means[i] = mean

		var sumSq float64
		for r := range rows {
			value := numericValues(&rows[r])[i]
			if math.IsNaN(value) {
				value = p.Medians[i]
			}
			sumSq += (value - mean) * (value - mean)
		}
		std := 0.0
		if len(rows) > 0 {
			std = math.Sqrt(sumSq / float64(len(rows)))
		}
		if std == 0 {
			std = 1
		}
		p.Stds[i] = std
	}

	for i := range categoricalFeatures {
		seen := map[string]struct{}{}
		for r := range rows {
			value := categoricalValues(&rows[r])[i]
			if value == "" {
				value = unknownLevel
			}
			seen[value] = struct{}{}
		}
		levels := make([]string, 0, len(seen))
		for level := range seen {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		p.Levels[i] = levels
	}

	return p
}

// Width is the length of the transformed feature vector.
func (p *Preprocessor) Width() int {
	width := len(numericFeatures)
	for _, levels := range p.Levels {
		width += len(levels)
	}
	return width
}

func (p *Preprocessor) Transform(row *dataset.Row) []float64 {
	out := make([]float64, 0, p.Width())

	numeric := numericValues(row)
	for i := range numericFeatures {
		value := numeric[i]
		if math.IsNaN(value) {
			value = p.Medians[i]
		}
		out = append(out, (value-p.Means[i])/p.Stds[i])
	}

	categorical := categoricalValues(row)
	for i := range categoricalFeatures {
		value := categorical[i]
		if value == "" {
			value = unknownLevel
		}
		for _, level := range p.Levels[i] {
			if value == level {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}

	return out
}

func (p *Preprocessor) TransformAll(rows []dataset.Row) [][]float64 {
	out := make([][]float64, len(rows))
	for i := range rows {
		out[i] = p.Transform(&rows[i])
	}
	return out
}

// TransformedFeatureNames names each position of the transformed vector,
// one-hot columns as feature_level.
func (p *Preprocessor) TransformedFeatureNames() []string {
	names := append([]string{}, numericFeatures...)
	for i, feature := range categoricalFeatures {
		for _, level := range p.Levels[i] {
			names = append(names, feature+"_"+level)
		}
	}
	return names
}
