package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// The column schema every uploaded dataset must carry. The first six are the
// model features, claim_amount_inr is the regression target.
var RequiredColumns = []string{
	"age", "bmi", "gender", "smoker", "region", "premium_annual_inr", "claim_amount_inr",
}

// Row is one policy record. Missing numeric values are NaN, missing
// categorical values are the empty string; imputation happens downstream.
type Row struct {
	Age              float64
	Bmi              float64
	Gender           string
	Smoker           string
	Region           string
	PremiumAnnualInr float64
	ClaimAmountInr   float64
}

type Frame struct {
	Rows []Row
}

func (f *Frame) Len() int {
	return len(f.Rows)
}

type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %v", strings.Join(e.Missing, ", "))
}

var ErrEmptyFile = errors.New("uploaded file is empty")

func parseNumeric(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return math.NaN()
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return parsed
}

// ParseCSV reads a dataset, verifying the header contains every required
// column. Extra columns are ignored, malformed numeric cells become NaN.
func ParseCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("error reading csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	cell := func(record []string, name string) string {
		idx := columns[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	frame := &Frame{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv record: %w", err)
		}

		frame.Rows = append(frame.Rows, Row{
			Age:              parseNumeric(cell(record, "age")),
			Bmi:              parseNumeric(cell(record, "bmi")),
			Gender:           cell(record, "gender"),
			Smoker:           cell(record, "smoker"),
			Region:           cell(record, "region"),
			PremiumAnnualInr: parseNumeric(cell(record, "premium_annual_inr")),
			ClaimAmountInr:   parseNumeric(cell(record, "claim_amount_inr")),
		})
	}

	return frame, nil
}
