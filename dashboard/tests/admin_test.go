package tests

import (
	"errors"
	"strings"
	"testing"
)

type uploadResult struct {
	Message           string `json:"message"`
	DatasetRows       int    `json:"dataset_rows"`
	Filename          string `json:"filename"`
	TrainingCompleted bool   `json:"training_completed"`
}

func TestUploadAndRetrain(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.adminClient(t)

	var result uploadResult
	if err := admin.uploadCsv("insurance.csv", sampleCsv(60), &result); err != nil {
		t.Fatal(err)
	}

	if result.DatasetRows != 60 || !result.TrainingCompleted {
		t.Fatalf("unexpected upload result %+v", result)
	}

	var retrain struct {
		Message string `json:"message"`
		Metrics struct {
			TrainingSamples int     `json:"training_samples"`
			TestSamples     int     `json:"test_samples"`
			TestRmse        float64 `json:"test_rmse"`
		} `json:"metrics"`
	}
	if err := admin.Post("/admin/retrain").Do(&retrain); err != nil {
		t.Fatal(err)
	}

	if retrain.Metrics.TrainingSamples != 48 || retrain.Metrics.TestSamples != 12 {
		t.Fatalf("unexpected train/test split %+v", retrain.Metrics)
	}
}

func TestUploadRequiresAdmin(t *testing.T) {
	env := setupTestEnv(t)
	user := env.userClient(t)

	err := user.uploadCsv("insurance.csv", sampleCsv(20), nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if err := user.Post("/admin/retrain").Do(nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUploadRejectsMissingColumns(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.adminClient(t)

	err := admin.uploadCsv("bad.csv", "age,bmi\n30,22.5\n", nil)
	if err == nil {
		t.Fatal("upload with missing columns should fail")
	}
	if !strings.Contains(err.Error(), "missing required columns") {
		t.Fatalf("error should name the missing columns, got %v", err)
	}
}

func TestUploadRejectsNonCsv(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.adminClient(t)

	if err := admin.uploadCsv("data.txt", sampleCsv(10), nil); err == nil {
		t.Fatal("upload of non csv file should fail")
	}

	if err := admin.uploadCsv("empty.csv", "", nil); err == nil {
		t.Fatal("upload of empty file should fail")
	}
}

func TestRetrainWithoutDataset(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.adminClient(t)

	err := admin.Post("/admin/retrain").Do(nil)
	if err == nil {
		t.Fatal("retrain without dataset should fail")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404, got %v", err)
	}
}
