package tests

import (
	"math"
	"strings"
	"testing"
)

type statsResult struct {
	TotalPolicies      int                `json:"total_policies"`
	AvgPremium         float64            `json:"avg_premium"`
	AvgClaim           float64            `json:"avg_claim"`
	AvgAge             float64            `json:"avg_age"`
	AvgBmi             float64            `json:"avg_bmi"`
	SmokerPercentage   float64            `json:"smoker_percentage"`
	Regions            map[string]int     `json:"regions"`
	GenderDistribution map[string]int     `json:"gender_distribution"`
}

func (s *statsResult) assertFinite(t *testing.T) {
	t.Helper()
	for name, value := range map[string]float64{
		"avg_premium":       s.AvgPremium,
		"avg_claim":         s.AvgClaim,
		"avg_age":           s.AvgAge,
		"avg_bmi":           s.AvgBmi,
		"smoker_percentage": s.SmokerPercentage,
	} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			t.Fatalf("%v must be finite, got %v", name, value)
		}
	}
}

func TestGlobalStats(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.adminClient(t)

	if err := admin.uploadCsv("insurance.csv", sampleCsv(60), nil); err != nil {
		t.Fatal(err)
	}

	var stats statsResult
	client := env.newClient()
	if err := client.Get("/stats").Do(&stats); err != nil {
		t.Fatal(err)
	}

	stats.assertFinite(t)

	if stats.TotalPolicies != 60 {
		t.Fatalf("expected 60 policies, got %d", stats.TotalPolicies)
	}
	// The fixture alternates smokers, so the split is exactly even.
	if stats.SmokerPercentage != 50.0 {
		t.Fatalf("expected smoker percentage 50.0, got %v", stats.SmokerPercentage)
	}
	if len(stats.Regions) != 4 {
		t.Fatalf("expected 4 regions, got %v", stats.Regions)
	}

	avgPremium, avgClaim := sampleAverages(60)
	if math.Abs(stats.AvgPremium-avgPremium) > 1e-6 {
		t.Fatalf("expected avg premium %v, got %v", avgPremium, stats.AvgPremium)
	}
	if math.Abs(stats.AvgClaim-avgClaim) > 1e-6 {
		t.Fatalf("expected avg claim %v, got %v", avgClaim, stats.AvgClaim)
	}
}

func TestStatsWithoutDataset(t *testing.T) {
	env := setupTestEnv(t)
	client := env.newClient()

	err := client.Get("/stats").Do(nil)
	if err == nil {
		t.Fatal("stats without a dataset should fail")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestLiveStatsIncludePredictions(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.adminClient(t)

	if err := admin.uploadCsv("insurance.csv", sampleCsv(60), nil); err != nil {
		t.Fatal(err)
	}

	user := env.userClient(t)
	if err := user.Post("/predict").Json(predictRequest()).Do(nil); err != nil {
		t.Fatal(err)
	}

	var live statsResult
	client := env.newClient()
	if err := client.Get("/live-stats").Do(&live); err != nil {
		t.Fatal(err)
	}

	live.assertFinite(t)
	if live.TotalPolicies != 61 {
		t.Fatalf("live stats should include the prediction, got %d policies", live.TotalPolicies)
	}
}

type claimsResult struct {
	AgeGroups struct {
		Claim   map[string]float64 `json:"claim_amount_inr"`
		Premium map[string]float64 `json:"premium_annual_inr"`
	} `json:"age_groups"`
	RegionAnalysis struct {
		Claim struct {
			Mean  map[string]float64 `json:"mean"`
			Count map[string]int     `json:"count"`
		} `json:"claim_amount_inr"`
		Premium map[string]float64 `json:"premium_annual_inr"`
	} `json:"region_analysis"`
	SmokerAnalysis struct {
		Claim   map[string]float64 `json:"claim_amount_inr"`
		Premium map[string]float64 `json:"premium_annual_inr"`
	} `json:"smoker_analysis"`
	PremiumVsClaims map[string]float64 `json:"premium_vs_claims"`
}

func TestClaimsAnalysis(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.adminClient(t)

	if err := admin.uploadCsv("insurance.csv", sampleCsv(60), nil); err != nil {
		t.Fatal(err)
	}

	var claims claimsResult
	client := env.newClient()
	if err := client.Get("/claims-analysis").Do(&claims); err != nil {
		t.Fatal(err)
	}

	if len(claims.AgeGroups.Claim) == 0 {
		t.Fatal("age groups should not be empty")
	}
	if len(claims.RegionAnalysis.Claim.Mean) != 4 {
		t.Fatalf("expected 4 regions, got %v", claims.RegionAnalysis.Claim.Mean)
	}

	total := 0
	for _, count := range claims.RegionAnalysis.Claim.Count {
		total += count
	}
	if total != 60 {
		t.Fatalf("region counts should cover all rows, got %d", total)
	}

	if claims.SmokerAnalysis.Claim["Yes"] <= claims.SmokerAnalysis.Claim["No"] {
		t.Fatalf("smokers should have higher mean claims: %v", claims.SmokerAnalysis.Claim)
	}

	if len(claims.PremiumVsClaims) == 0 || len(claims.PremiumVsClaims) > 5 {
		t.Fatalf("expected 1-5 premium bins, got %v", claims.PremiumVsClaims)
	}
}

func TestUserClaimsAnalysisEmpty(t *testing.T) {
	env := setupTestEnv(t)
	user := env.userClient(t)

	var claims claimsResult
	if err := user.Get("/user-claims-analysis").Do(&claims); err != nil {
		t.Fatal(err)
	}

	if len(claims.AgeGroups.Claim) != 0 || len(claims.RegionAnalysis.Claim.Mean) != 0 {
		t.Fatalf("user with no predictions should get empty analysis: %+v", claims)
	}
}
