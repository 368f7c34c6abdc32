package schema

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email    string `gorm:"unique;size:254;not null"`
	Password []byte

	IsAdmin bool `gorm:"not null;default:false"`

	CreatedAt time.Time
}

// Dataset records one uploaded CSV. Uploads are immutable, a new upload
// always creates a new row, the "current" dataset is the most recent one.
type Dataset struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Filename string `gorm:"size:254;not null"`
	RowCount int    `gorm:"not null"`
	Columns  string `gorm:"size:500;not null"`

	UploadedBy string `gorm:"size:254"`
	UploadedAt time.Time
}

type PredictionRecord struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserEmail string `gorm:"size:254;not null;index"`

	Age              int
	Bmi              float64
	Gender           string `gorm:"size:50"`
	Smoker           string `gorm:"size:50"`
	Region           string `gorm:"size:50"`
	PremiumAnnualInr float64

	Prediction float64
	Confidence float64

	CreatedAt time.Time
}

const (
	DeliverySent     = "sent"
	DeliveryFailed   = "failed"
	DeliveryTimedOut = "timed_out"
)

// EmailReport is the audit record for one delivery. Its status always
// reflects the relay outcome.
type EmailReport struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Recipient string `gorm:"size:254;not null"`
	Status    string `gorm:"size:50;not null"`
	Detail    string

	Prediction float64
	Confidence float64

	CreatedAt time.Time
}
