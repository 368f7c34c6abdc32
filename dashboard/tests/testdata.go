package tests

import (
	"fmt"
	"strings"
)

var regions = []string{"North", "South", "East", "West"}

type sampleRow struct {
	age     int
	bmi     float64
	gender  string
	smoker  string
	region  string
	premium float64
	claim   float64
}

// sampleRows generates a deterministic dataset with an even smoker split and
// a clear smoker effect on claim amounts. Gender and premium vary on a longer
// stride than the smoker flag so neither column duplicates the smoker signal.
func sampleRows(n int) []sampleRow {
	rows := make([]sampleRow, 0, n)
	for i := 0; i < n; i++ {
		row := sampleRow{
			age:     22 + (i*3)%55,
			bmi:     18.0 + float64(i%15),
			gender:  "Male",
			smoker:  "No",
			region:  regions[i%len(regions)],
			premium: 10000.0 + float64((i/2)%10)*1500,
		}
		if (i/2)%2 == 0 {
			row.gender = "Female"
		}
		row.claim = 8000.0 + float64(row.age)*150 + row.bmi*100
		if i%2 == 1 {
			row.smoker = "Yes"
			row.claim += 12000
		}
		rows = append(rows, row)
	}
	return rows
}

func sampleCsv(n int) string {
	var b strings.Builder
	b.WriteString("age,bmi,gender,smoker,region,premium_annual_inr,claim_amount_inr\n")

	for _, row := range sampleRows(n) {
		fmt.Fprintf(&b, "%d,%.1f,%s,%s,%s,%.1f,%.1f\n",
			row.age, row.bmi, row.gender, row.smoker, row.region, row.premium, row.claim)
	}

	return b.String()
}

// sampleAverages computes the premium and claim means of the generated rows,
// for checking stats endpoints against the fixture.
func sampleAverages(n int) (avgPremium, avgClaim float64) {
	rows := sampleRows(n)
	for _, row := range rows {
		avgPremium += row.premium
		avgClaim += row.claim
	}
	return avgPremium / float64(len(rows)), avgClaim / float64(len(rows))
}
