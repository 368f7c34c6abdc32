package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"insurance_platform/dashboard/schema"
	"insurance_platform/dashboard/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const dataDir = "data"

var ErrNotCsv = errors.New("only CSV files are allowed")

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-.]`)

// Store tracks uploaded datasets: files live under <storage>/data, one
// schema.Dataset row per upload. The most recent upload is the current
// dataset; concurrent uploads are last-writer-wins.
type Store struct {
	db      *gorm.DB
	storage storage.Storage
}

func NewStore(db *gorm.DB, storage storage.Storage) *Store {
	return &Store{db: db, storage: storage}
}

func sanitizeFilename(filename string) string {
	clean := unsafeFilenameChars.ReplaceAllString(filepath.Base(filename), "_")
	clean = strings.TrimSuffix(clean, ".csv")
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%v_%v.csv", clean, timestamp)
}

// Upload validates and persists a new dataset. The parsed frame is returned
// so callers can retrain without re-reading the file.
func (s *Store) Upload(content []byte, filename, uploadedBy string) (schema.Dataset, *Frame, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return schema.Dataset{}, nil, ErrNotCsv
	}
	if len(content) == 0 {
		return schema.Dataset{}, nil, ErrEmptyFile
	}

	frame, err := ParseCSV(bytes.NewReader(content))
	if err != nil {
		return schema.Dataset{}, nil, err
	}

	clean := sanitizeFilename(filename)
	path := filepath.Join(dataDir, clean)
	if err := s.storage.Write(path, bytes.NewReader(content)); err != nil {
		return schema.Dataset{}, nil, fmt.Errorf("error saving dataset file: %w", err)
	}

	record := schema.Dataset{
		Id:         uuid.New(),
		Filename:   clean,
		RowCount:   frame.Len(),
		Columns:    strings.Join(RequiredColumns, ","),
		UploadedBy: uploadedBy,
		UploadedAt: time.Now().UTC(),
	}

	result := s.db.Create(&record)
	if result.Error != nil {
		slog.Error("sql error creating dataset entry", "filename", clean, "error", result.Error)
		if err := s.storage.Delete(path); err != nil {
			slog.Error("error removing dataset file after failed insert", "path", path, "error", err)
		}
		return schema.Dataset{}, nil, schema.ErrDbAccessFailed
	}

	slog.Info("dataset uploaded", "filename", clean, "rows", frame.Len(), "uploaded_by", uploadedBy)

	return record, frame, nil
}

// Latest returns the most recently uploaded dataset.
func (s *Store) Latest() (*Frame, schema.Dataset, error) {
	record, err := schema.LatestDataset(s.db)
	if err != nil {
		return nil, schema.Dataset{}, err
	}

	file, err := s.storage.Read(filepath.Join(dataDir, record.Filename))
	if err != nil {
		return nil, schema.Dataset{}, fmt.Errorf("error opening dataset %v: %w", record.Filename, err)
	}
	defer file.Close()

	frame, err := ParseCSV(file)
	if err != nil {
		return nil, schema.Dataset{}, fmt.Errorf("error parsing dataset %v: %w", record.Filename, err)
	}

	return frame, record, nil
}

// Snapshot merges the current dataset with logged predictions so "live"
// endpoints reflect recent user activity. The predicted value stands in for
// the claim amount.
func (s *Store) Snapshot(records []schema.PredictionRecord) (*Frame, error) {
	frame, _, err := s.Latest()
	if err != nil {
		return nil, err
	}

	frame.Rows = append(frame.Rows, rowsFromPredictions(records)...)
	return frame, nil
}

// FromPredictions builds a frame solely from prediction records, used for
// per-user statistics.
func FromPredictions(records []schema.PredictionRecord) *Frame {
	return &Frame{Rows: rowsFromPredictions(records)}
}

func rowsFromPredictions(records []schema.PredictionRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, Row{
			Age:              float64(record.Age),
			Bmi:              record.Bmi,
			Gender:           record.Gender,
			Smoker:           record.Smoker,
			Region:           record.Region,
			PremiumAnnualInr: record.PremiumAnnualInr,
			ClaimAmountInr:   record.Prediction,
		})
	}
	return rows
}
