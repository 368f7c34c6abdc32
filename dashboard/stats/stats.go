package stats

import (
	"math"

	"insurance_platform/dashboard/dataset"
)

// GlobalStats summarizes a dataset. Every mean is coerced finite so the JSON
// encoding never carries NaN or Inf.
type GlobalStats struct {
	TotalPolicies      int                `json:"total_policies"`
	AvgPremium         float64            `json:"avg_premium"`
	AvgClaim           float64            `json:"avg_claim"`
	AvgAge             float64            `json:"avg_age"`
	AvgBmi             float64            `json:"avg_bmi"`
	SmokerPercentage   float64            `json:"smoker_percentage"`
	Regions            map[string]int     `json:"regions"`
	GenderDistribution map[string]int     `json:"gender_distribution"`
}

func safeFloat(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0.0
	}
	return value
}

type meanAccumulator struct {
	sum   float64
	count int
}

func (a *meanAccumulator) add(value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	a.sum += value
	a.count++
}

func (a *meanAccumulator) mean() float64 {
	if a.count == 0 {
		return 0.0
	}
	return safeFloat(a.sum / float64(a.count))
}

// Global computes dataset-wide statistics. An empty frame yields a zeroed
// struct with empty maps rather than an error.
func Global(frame *dataset.Frame) GlobalStats {
	stats := GlobalStats{
		Regions:            map[string]int{},
		GenderDistribution: map[string]int{},
	}
	if frame == nil || frame.Len() == 0 {
		return stats
	}

	var premium, claim, age, bmi meanAccumulator
	smokers := 0
	for i := range frame.Rows {
		row := &frame.Rows[i]
		premium.add(row.PremiumAnnualInr)
		claim.add(row.ClaimAmountInr)
		age.add(row.Age)
		bmi.add(row.Bmi)

		if row.Smoker == "Yes" {
			smokers++
		}
		if row.Region != "" {
			stats.Regions[row.Region]++
		}
		if row.Gender != "" {
			stats.GenderDistribution[row.Gender]++
		}
	}

	stats.TotalPolicies = frame.Len()
	stats.AvgPremium = premium.mean()
	stats.AvgClaim = claim.mean()
	stats.AvgAge = age.mean()
	stats.AvgBmi = bmi.mean()
	stats.SmokerPercentage = safeFloat(float64(smokers) / float64(frame.Len()) * 100)

	return stats
}
