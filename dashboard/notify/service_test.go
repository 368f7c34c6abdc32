package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"insurance_platform/dashboard/model"
	"insurance_platform/dashboard/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&schema.EmailReport{}))
	return db
}

func testInput() model.FeatureInput {
	return model.FeatureInput{
		Age: 45, Bmi: 27.5, Gender: "Male", Smoker: "Yes", Region: "North", PremiumAnnualInr: 25000,
	}
}

type stubMailer struct {
	err   error
	calls int
	sent  []Message
}

func (m *stubMailer) Send(ctx context.Context, msg Message) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestValidRecipient(t *testing.T) {
	for _, valid := range []string{"user@example.com", "first.last+tag@sub.domain.org"} {
		assert.True(t, ValidRecipient(valid), valid)
	}
	for _, invalid := range []string{"invalid-email", "@gmail.com", "test@", "", "a@b", "user@domain.c"} {
		assert.False(t, ValidRecipient(invalid), invalid)
	}
}

func TestSendRecordsSentStatus(t *testing.T) {
	db := testDb(t)
	mailer := &stubMailer{}
	service := NewService(db, mailer, time.Second)

	err := service.Send(context.Background(), "patient@mail.com", testInput(), 24500, 0.85)
	require.NoError(t, err)
	require.Equal(t, 1, mailer.calls)

	var report schema.EmailReport
	require.NoError(t, db.First(&report).Error)
	assert.Equal(t, schema.DeliverySent, report.Status)
	assert.Equal(t, "patient@mail.com", report.Recipient)
	assert.Equal(t, 24500.0, report.Prediction)
}

func TestSendNeverReportsFailureAsSuccess(t *testing.T) {
	db := testDb(t)
	mailer := &stubMailer{err: errors.New("smtp auth failed")}
	service := NewService(db, mailer, 30*time.Second)

	err := service.Send(context.Background(), "patient@mail.com", testInput(), 24500, 0.85)
	require.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, maxAttempts, mailer.calls, "delivery should be retried")

	var report schema.EmailReport
	require.NoError(t, db.First(&report).Error)
	assert.Equal(t, schema.DeliveryFailed, report.Status)
	assert.Contains(t, report.Detail, "smtp auth failed")
}

func TestSendRejectsInvalidRecipient(t *testing.T) {
	db := testDb(t)
	mailer := &stubMailer{}
	service := NewService(db, mailer, time.Second)

	err := service.Send(context.Background(), "invalid-email", testInput(), 24500, 0.85)
	require.ErrorIs(t, err, ErrInvalidEmailFormat)
	assert.Zero(t, mailer.calls, "no delivery should be attempted")

	var count int64
	require.NoError(t, db.Model(&schema.EmailReport{}).Count(&count).Error)
	assert.Zero(t, count, "validation failures are rejected before the audit trail")
}

func TestRenderReport(t *testing.T) {
	subject, html, err := renderReport(testInput(), 24500, 0.85)
	require.NoError(t, err)

	assert.Equal(t, "MediCare+ Prediction Report - ₹24,500", subject)
	assert.Contains(t, html, "₹24,500")
	assert.Contains(t, html, "85%")
	assert.Contains(t, html, "Overweight")
	assert.Contains(t, html, "45 years")
}

func TestRenderReportEstimatedPremium(t *testing.T) {
	input := testInput()
	input.PremiumAnnualInr = 0

	_, html, err := renderReport(input, 12000, 0.5)
	require.NoError(t, err)
	assert.Contains(t, html, "Estimated")
}

func TestAnalyzeBmi(t *testing.T) {
	cases := map[float64]string{
		17.0: "Underweight",
		22.0: "Normal Weight",
		27.0: "Overweight",
		32.0: "Obese",
	}
	for bmi, expected := range cases {
		assert.Equal(t, expected, analyzeBmi(bmi).Category, "bmi %v", bmi)
	}

	assert.Equal(t, "High", analyzeBmi(35).RiskLevel)
	assert.Equal(t, "Low", analyzeBmi(22).RiskLevel)
}

func TestFormatInr(t *testing.T) {
	cases := map[float64]string{
		0:        "₹0",
		999:      "₹999",
		24500:    "₹24,500",
		1234567:  "₹1,234,567",
		-4500:    "-₹4,500",
		24500.49: "₹24,500",
	}
	for value, expected := range cases {
		assert.Equal(t, expected, formatInr(value), "value %v", value)
	}
}

func TestSendTimesOut(t *testing.T) {
	db := testDb(t)
	slow := mailerFunc(func(ctx context.Context, msg Message) error {
		<-ctx.Done()
		return ctx.Err()
	})
	service := NewService(db, slow, 50*time.Millisecond)

	err := service.Send(context.Background(), "patient@mail.com", testInput(), 24500, 0.85)
	require.ErrorIs(t, err, ErrDeliveryTimedOut)

	var report schema.EmailReport
	require.NoError(t, db.First(&report).Error)
	assert.Equal(t, schema.DeliveryTimedOut, report.Status)
	assert.True(t, strings.Contains(report.Detail, "deadline") || strings.Contains(report.Detail, "context"))
}

type mailerFunc func(ctx context.Context, msg Message) error

func (f mailerFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
