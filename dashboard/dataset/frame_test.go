package dataset

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	csv := `age,bmi,gender,smoker,region,premium_annual_inr,claim_amount_inr
30,22.5,Male,No,North,15000,9000
45,,Female,Yes,South,22000,21000
oops,31.2,Male,No,East,,12500
`

	frame, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 3, frame.Len())

	assert.Equal(t, 30.0, frame.Rows[0].Age)
	assert.Equal(t, "North", frame.Rows[0].Region)

	assert.True(t, math.IsNaN(frame.Rows[1].Bmi), "missing bmi should parse as NaN")
	assert.True(t, math.IsNaN(frame.Rows[2].Age), "malformed age should parse as NaN")
	assert.True(t, math.IsNaN(frame.Rows[2].PremiumAnnualInr))
}

func TestParseCSVExtraColumns(t *testing.T) {
	csv := `policy_id,age,bmi,gender,smoker,region,premium_annual_inr,claim_amount_inr
P-1,30,22.5,Male,No,North,15000,9000
`

	frame, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 1, frame.Len())
	assert.Equal(t, 9000.0, frame.Rows[0].ClaimAmountInr)
}

func TestParseCSVMissingColumns(t *testing.T) {
	csv := "age,bmi,gender\n30,22.5,Male\n"

	_, err := ParseCSV(strings.NewReader(csv))

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.ElementsMatch(t, []string{"smoker", "region", "premium_annual_inr", "claim_amount_inr"}, missing.Missing)
}

func TestParseCSVEmptyFile(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	require.True(t, errors.Is(err, ErrEmptyFile))
}

func TestSanitizeFilename(t *testing.T) {
	clean := sanitizeFilename("../../etc/passwd$#!.csv")
	assert.NotContains(t, clean, "/")
	assert.NotContains(t, clean, "$")
	assert.True(t, strings.HasSuffix(clean, ".csv"))
}
