package notify

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"insurance_platform/dashboard/model"
	"insurance_platform/dashboard/schema"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrDeliveryFailed     = errors.New("email delivery failed")
	ErrDeliveryTimedOut   = errors.New("email delivery timed out")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func ValidRecipient(email string) bool {
	return emailPattern.MatchString(email)
}

const (
	defaultBudget = 60 * time.Second

	maxAttempts  = 3
	retryBackoff = 2 * time.Second
)

// Service sends prediction reports and keeps an EmailReport audit row for
// every request. The reported status always reflects the relay outcome, a
// failed delivery is never recorded as sent.
type Service struct {
	db     *gorm.DB
	mailer Mailer
	budget time.Duration
}

func NewService(db *gorm.DB, mailer Mailer, budget time.Duration) *Service {
	if budget <= 0 {
		budget = defaultBudget
	}
	return &Service{db: db, mailer: mailer, budget: budget}
}

func (s *Service) audit(recipient, status, detail string, prediction, confidence float64) {
	report := schema.EmailReport{
		Id:         uuid.New(),
		Recipient:  recipient,
		Status:     status,
		Detail:     detail,
		Prediction: prediction,
		Confidence: confidence,
		CreatedAt:  time.Now().UTC(),
	}
	if result := s.db.Create(&report); result.Error != nil {
		slog.Error("sql error creating email report", "recipient", recipient, "error", result.Error)
	}
}

// Send validates the recipient, renders the report, and delivers it with up
// to 3 attempts inside a single delivery budget.
func (s *Service) Send(ctx context.Context, recipient string, input model.FeatureInput, prediction, confidence float64) error {
	if !ValidRecipient(recipient) {
		return ErrInvalidEmailFormat
	}

	subject, html, err := renderReport(input, prediction, confidence)
	if err != nil {
		s.audit(recipient, schema.DeliveryFailed, err.Error(), prediction, confidence)
		return err
	}

	msg := Message{To: recipient, Subject: subject, Html: html}

	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewConstant(retryBackoff))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := s.mailer.Send(ctx, msg); err != nil {
			slog.Error("email delivery attempt failed", "recipient", recipient, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.audit(recipient, schema.DeliveryTimedOut, err.Error(), prediction, confidence)
			return ErrDeliveryTimedOut
		}
		s.audit(recipient, schema.DeliveryFailed, err.Error(), prediction, confidence)
		return ErrDeliveryFailed
	}

	s.audit(recipient, schema.DeliverySent, "", prediction, confidence)
	slog.Info("prediction report sent", "recipient", recipient, "attempts", attempt)

	return nil
}
