package schema

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDatasetNotFound = errors.New("no dataset found")
	ErrDbAccessFailed  = errors.New("database access failed")
)

func GetUserByEmail(email string, db *gorm.DB) (User, error) {
	var user User
	result := db.First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		slog.Error("sql error looking up user by email", "error", result.Error)
		return User{}, ErrDbAccessFailed
	}
	return user, nil
}

func LatestDataset(db *gorm.DB) (Dataset, error) {
	var dataset Dataset
	result := db.Order("uploaded_at DESC").First(&dataset)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Dataset{}, ErrDatasetNotFound
		}
		slog.Error("sql error looking up latest dataset", "error", result.Error)
		return Dataset{}, ErrDbAccessFailed
	}
	return dataset, nil
}

func ListPredictions(db *gorm.DB, userEmail string) ([]PredictionRecord, error) {
	var records []PredictionRecord
	query := db.Order("created_at ASC")
	if userEmail != "" {
		query = query.Where("user_email = ?", userEmail)
	}
	result := query.Find(&records)
	if result.Error != nil {
		slog.Error("sql error listing prediction records", "error", result.Error)
		return nil, ErrDbAccessFailed
	}
	return records, nil
}
