package services

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"insurance_platform/dashboard/auth"
	"insurance_platform/dashboard/dataset"
	"insurance_platform/dashboard/model"
	"insurance_platform/utils"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

const maxUploadSize = 32 << 20

type AdminService struct {
	db       *gorm.DB
	datasets *dataset.Store
	models   *model.Manager
	userAuth auth.IdentityProvider
}

func (s *AdminService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)
	r.Use(auth.AdminOnly())

	r.Post("/upload", s.Upload)
	r.Post("/retrain", s.Retrain)

	return r
}

type uploadResponse struct {
	Message           string `json:"message"`
	DatasetRows       int    `json:"dataset_rows"`
	Filename          string `json:"filename"`
	TrainingCompleted bool   `json:"training_completed"`
}

// Upload stores a new dataset and synchronously retrains the model on it.
// The upload succeeds even when training fails, the response carries a
// training_completed flag.
func (s *AdminService) Upload(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, fmt.Sprintf("error parsing upload form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("missing file in upload: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("error reading uploaded file: %v", err), http.StatusInternalServerError)
		return
	}

	record, frame, err := s.datasets.Upload(content, header.Filename, user.Email)
	if err != nil {
		var missingCols *dataset.MissingColumnsError
		responseCode := http.StatusInternalServerError
		switch {
		case errors.As(err, &missingCols),
			errors.Is(err, dataset.ErrNotCsv),
			errors.Is(err, dataset.ErrEmptyFile):
			responseCode = http.StatusBadRequest
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	response := uploadResponse{
		DatasetRows: frame.Len(),
		Filename:    header.Filename,
	}

	if _, err := s.models.Retrain(frame); err != nil {
		trainingRuns.WithLabelValues("failed").Inc()
		slog.Error("training failed after dataset upload", "filename", record.Filename, "error", err)
		response.Message = fmt.Sprintf("File uploaded successfully but model training failed: %v", err)
		response.TrainingCompleted = false
	} else {
		trainingRuns.WithLabelValues("success").Inc()
		response.Message = fmt.Sprintf("File uploaded successfully and model retrained. Dataset has %d rows.", frame.Len())
		response.TrainingCompleted = true
	}

	utils.WriteJsonResponse(w, response)
}

type retrainResponse struct {
	Message string         `json:"message"`
	Metrics model.Metadata `json:"metrics"`
}

func (s *AdminService) Retrain(w http.ResponseWriter, r *http.Request) {
	frame, record, err := s.datasets.Latest()
	if err != nil {
		writeCodedError(w, codeDatasetError(err))
		return
	}

	metadata, err := s.models.Retrain(frame)
	if err != nil {
		if errors.Is(err, model.ErrTrainingInProgress) {
			trainingRuns.WithLabelValues("rejected").Inc()
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		trainingRuns.WithLabelValues("failed").Inc()
		http.Error(w, fmt.Sprintf("model training failed: %v", err), http.StatusInternalServerError)
		return
	}

	trainingRuns.WithLabelValues("success").Inc()

	utils.WriteJsonResponse(w, retrainResponse{
		Message: fmt.Sprintf("Model retrained successfully on dataset %v.", record.Filename),
		Metrics: *metadata,
	})
}
