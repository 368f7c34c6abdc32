package stats

import (
	"math"
	"sort"

	"insurance_platform/dashboard/dataset"
)

var (
	ageBinEdges  = []float64{0, 30, 40, 50, 60, 100}
	ageBinLabels = []string{"<30", "30-40", "40-50", "50-60", "60+"}

	premiumBinLabels = []string{"Low", "Medium-Low", "Medium", "Medium-High", "High"}
)

// GroupAverages holds per-group mean claim and mean premium, keyed by group
// label.
type GroupAverages struct {
	Claim   map[string]float64 `json:"claim_amount_inr"`
	Premium map[string]float64 `json:"premium_annual_inr"`
}

type RegionClaim struct {
	Mean  map[string]float64 `json:"mean"`
	Count map[string]int     `json:"count"`
}

type RegionBreakdown struct {
	Claim   RegionClaim        `json:"claim_amount_inr"`
	Premium map[string]float64 `json:"premium_annual_inr"`
}

type ClaimsAnalysis struct {
	AgeGroups       GroupAverages      `json:"age_groups"`
	RegionAnalysis  RegionBreakdown    `json:"region_analysis"`
	SmokerAnalysis  GroupAverages      `json:"smoker_analysis"`
	PremiumVsClaims map[string]float64 `json:"premium_vs_claims"`
}

func newGroupAverages() GroupAverages {
	return GroupAverages{
		Claim:   map[string]float64{},
		Premium: map[string]float64{},
	}
}

func emptyClaimsAnalysis() ClaimsAnalysis {
	return ClaimsAnalysis{
		AgeGroups: newGroupAverages(),
		RegionAnalysis: RegionBreakdown{
			Claim:   RegionClaim{Mean: map[string]float64{}, Count: map[string]int{}},
			Premium: map[string]float64{},
		},
		SmokerAnalysis:  newGroupAverages(),
		PremiumVsClaims: map[string]float64{},
	}
}

// ageGroup buckets an age into right-inclusive bins (0,30], (30,40], (40,50],
// (50,60], (60,100]. Ages outside the range are unbinned.
func ageGroup(age float64) (string, bool) {
	if math.IsNaN(age) || age <= ageBinEdges[0] || age > ageBinEdges[len(ageBinEdges)-1] {
		return "", false
	}
	for i := 1; i < len(ageBinEdges); i++ {
		if age <= ageBinEdges[i] {
			return ageBinLabels[i-1], true
		}
	}
	return "", false
}

// quantile with linear interpolation over a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// premiumBinner assigns premiums to quantile bins labeled Low through High.
// With fewer than 5 distinct premiums it degrades to fewer bins instead of
// failing.
type premiumBinner struct {
	edges  []float64
	labels []string
}

func newPremiumBinner(premiums []float64) *premiumBinner {
	finite := make([]float64, 0, len(premiums))
	for _, p := range premiums {
		if !math.IsNaN(p) && !math.IsInf(p, 0) {
			finite = append(finite, p)
		}
	}
	if len(finite) == 0 {
		return &premiumBinner{}
	}

	sort.Float64s(finite)

	distinct := 1
	for i := 1; i < len(finite); i++ {
		if finite[i] != finite[i-1] {
			distinct++
		}
	}

	bins := len(premiumBinLabels)
	if distinct < bins {
		bins = distinct
	}
	if bins < 1 {
		bins = 1
	}

	// Interior quantile edges. Duplicate edges collapse into fewer bins.
	edges := make([]float64, 0, bins-1)
	for i := 1; i < bins; i++ {
		edge := quantile(finite, float64(i)/float64(bins))
		if len(edges) == 0 || edge > edges[len(edges)-1] {
			edges = append(edges, edge)
		}
	}

	return &premiumBinner{
		edges:  edges,
		labels: premiumBinLabels[:len(edges)+1],
	}
}

func (b *premiumBinner) bin(premium float64) (string, bool) {
	if len(b.labels) == 0 || math.IsNaN(premium) || math.IsInf(premium, 0) {
		return "", false
	}
	for i, edge := range b.edges {
		if premium <= edge {
			return b.labels[i], true
		}
	}
	return b.labels[len(b.labels)-1], true
}

// Claims breaks claim amounts down by age bin, region, smoker status, and
// premium quantile. An empty frame yields empty maps, not an error.
func Claims(frame *dataset.Frame) ClaimsAnalysis {
	analysis := emptyClaimsAnalysis()
	if frame == nil || frame.Len() == 0 {
		return analysis
	}

	ageClaim := map[string]*meanAccumulator{}
	agePremium := map[string]*meanAccumulator{}
	regionClaim := map[string]*meanAccumulator{}
	regionPremium := map[string]*meanAccumulator{}
	regionCount := map[string]int{}
	smokerClaim := map[string]*meanAccumulator{}
	smokerPremium := map[string]*meanAccumulator{}
	binClaim := map[string]*meanAccumulator{}

	accumulate := func(groups map[string]*meanAccumulator, key string, value float64) {
		acc, ok := groups[key]
		if !ok {
			acc = &meanAccumulator{}
			groups[key] = acc
		}
		acc.add(value)
	}

	premiums := make([]float64, frame.Len())
	for i := range frame.Rows {
		premiums[i] = frame.Rows[i].PremiumAnnualInr
	}
	binner := newPremiumBinner(premiums)

	for i := range frame.Rows {
		row := &frame.Rows[i]

		if group, ok := ageGroup(row.Age); ok {
			accumulate(ageClaim, group, row.ClaimAmountInr)
			accumulate(agePremium, group, row.PremiumAnnualInr)
		}

		if row.Region != "" {
			accumulate(regionClaim, row.Region, row.ClaimAmountInr)
			accumulate(regionPremium, row.Region, row.PremiumAnnualInr)
			regionCount[row.Region]++
		}

		if row.Smoker != "" {
			accumulate(smokerClaim, row.Smoker, row.ClaimAmountInr)
			accumulate(smokerPremium, row.Smoker, row.PremiumAnnualInr)
		}

		if label, ok := binner.bin(row.PremiumAnnualInr); ok {
			accumulate(binClaim, label, row.ClaimAmountInr)
		}
	}

	collect := func(groups map[string]*meanAccumulator, out map[string]float64) {
		for key, acc := range groups {
			out[key] = acc.mean()
		}
	}

	collect(ageClaim, analysis.AgeGroups.Claim)
	collect(agePremium, analysis.AgeGroups.Premium)
	collect(regionClaim, analysis.RegionAnalysis.Claim.Mean)
	collect(regionPremium, analysis.RegionAnalysis.Premium)
	collect(smokerClaim, analysis.SmokerAnalysis.Claim)
	collect(smokerPremium, analysis.SmokerAnalysis.Premium)
	collect(binClaim, analysis.PremiumVsClaims)

	for region, count := range regionCount {
		analysis.RegionAnalysis.Claim.Count[region] = count
	}

	return analysis
}
