package model

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"insurance_platform/dashboard/dataset"
	"insurance_platform/dashboard/storage"
)

const (
	modelDir     = "models"
	pipelineFile = "model_pipeline.gob"
	metadataFile = "training_metadata.json"
)

// Manager owns the active pipeline. Readers take a snapshot under RLock, so
// predictions keep serving against the old model while a retrain runs.
// Retrains are serialized: a second concurrent Retrain fails fast with
// ErrTrainingInProgress instead of queueing.
type Manager struct {
	storage storage.Storage

	mu       sync.RWMutex
	pipeline *Pipeline
	metadata *Metadata

	trainMu sync.Mutex
}

func NewManager(storage storage.Storage) *Manager {
	return &Manager{storage: storage}
}

// Load restores the persisted artifact, if any. A missing artifact is not an
// error: the service starts without a model and reports it via /model-status.
func (m *Manager) Load() error {
	exists, err := m.storage.Exists(filepath.Join(modelDir, pipelineFile))
	if err != nil {
		return err
	}
	if !exists {
		slog.Info("no model artifact found, starting without a model")
		return nil
	}

	file, err := m.storage.Read(filepath.Join(modelDir, pipelineFile))
	if err != nil {
		return err
	}
	defer file.Close()

	pipeline := &Pipeline{}
	if err := gob.NewDecoder(file).Decode(pipeline); err != nil {
		return fmt.Errorf("error decoding model artifact: %w", err)
	}

	metadata, err := m.readMetadata()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.pipeline = pipeline
	m.metadata = metadata
	m.mu.Unlock()

	slog.Info("model artifact loaded", "trained_at", metadata.TrainingDate, "training_samples", metadata.TrainingSamples)

	return nil
}

func (m *Manager) readMetadata() (*Metadata, error) {
	file, err := m.storage.Read(filepath.Join(modelDir, metadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Metadata{ModelType: modelType, Features: FeatureColumns()}, nil
		}
		return nil, err
	}
	defer file.Close()

	metadata := &Metadata{}
	if err := json.NewDecoder(file).Decode(metadata); err != nil {
		return nil, fmt.Errorf("error decoding training metadata: %w", err)
	}
	return metadata, nil
}

func (m *Manager) persist(pipeline *Pipeline, metadata *Metadata) error {
	var encoded bytes.Buffer
	if err := gob.NewEncoder(&encoded).Encode(pipeline); err != nil {
		return fmt.Errorf("error encoding model artifact: %w", err)
	}
	if err := m.storage.Write(filepath.Join(modelDir, pipelineFile), &encoded); err != nil {
		return err
	}

	serialized, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding training metadata: %w", err)
	}
	return m.storage.Write(filepath.Join(modelDir, metadataFile), bytes.NewReader(serialized))
}

// Retrain fits a fresh pipeline on the given frame and swaps it in only after
// the artifact is persisted. On any failure the previous model keeps serving.
func (m *Manager) Retrain(frame *dataset.Frame) (*Metadata, error) {
	if !m.trainMu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer m.trainMu.Unlock()

	pipeline, metadata, err := Train(frame, DefaultSeed)
	if err != nil {
		slog.Error("model training failed", "error", err)
		return nil, err
	}

	if err := m.persist(pipeline, metadata); err != nil {
		slog.Error("error persisting model artifact", "error", err)
		return nil, err
	}

	m.mu.Lock()
	m.pipeline = pipeline
	m.metadata = metadata
	m.mu.Unlock()

	slog.Info("model retrained",
		"training_samples", metadata.TrainingSamples,
		"test_samples", metadata.TestSamples,
		"test_rmse", metadata.TestRmse,
		"test_r2", metadata.TestR2,
	)

	return metadata, nil
}

// Active returns the current pipeline snapshot, or ErrModelNotLoaded.
func (m *Manager) Active() (*Pipeline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pipeline == nil {
		return nil, ErrModelNotLoaded
	}
	return m.pipeline, nil
}

// Metadata returns the metrics of the active model, or ErrModelNotLoaded.
func (m *Manager) Metadata() (Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.metadata == nil || m.pipeline == nil {
		return Metadata{}, ErrModelNotLoaded
	}
	return *m.metadata, nil
}

// Loaded reports whether a model is currently serving.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pipeline != nil
}
