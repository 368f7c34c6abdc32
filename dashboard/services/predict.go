package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"insurance_platform/dashboard/auth"
	"insurance_platform/dashboard/model"
	"insurance_platform/dashboard/notify"
	"insurance_platform/dashboard/schema"
	"insurance_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Retained prediction records are capped, older rows are pruned so the live
// stats endpoints stay bounded.
const predictionRecordCap = 1000

type PredictService struct {
	db       *gorm.DB
	models   *model.Manager
	notifier *notify.Service
	userAuth auth.IdentityProvider
}

func (s *PredictService) AddRoutes(r chi.Router) {
	r.Get("/model-status", s.ModelStatus)

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Post("/predict", s.Predict)
		r.Get("/model-info", s.ModelInfo)
		r.Post("/send-prediction-email", s.SendPredictionEmail)
	})
}

type predictResponse struct {
	Prediction float64            `json:"prediction"`
	Confidence float64            `json:"confidence"`
	InputData  model.FeatureInput `json:"input_data"`
}

func (s *PredictService) Predict(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var input model.FeatureInput
	if !utils.ParseRequestBody(w, r, &input) {
		return
	}

	pipeline, err := s.models.Active()
	if err != nil {
		http.Error(w, "Model not loaded. Please train the model first.", http.StatusServiceUnavailable)
		return
	}

	prediction, confidence := pipeline.Predict(input)

	predictionsServed.Inc()

	s.recordPrediction(user.Email, input, prediction, confidence)

	utils.WriteJsonResponse(w, predictResponse{
		Prediction: prediction,
		Confidence: confidence,
		InputData:  input,
	})
}

// recordPrediction appends an audit row, best effort. A failure to store the
// record never fails the prediction itself.
func (s *PredictService) recordPrediction(email string, input model.FeatureInput, prediction, confidence float64) {
	record := schema.PredictionRecord{
		Id:               uuid.New(),
		UserEmail:        email,
		Age:              input.Age,
		Bmi:              input.Bmi,
		Gender:           input.Gender,
		Smoker:           input.Smoker,
		Region:           input.Region,
		PremiumAnnualInr: input.PremiumAnnualInr,
		Prediction:       prediction,
		Confidence:       confidence,
		CreatedAt:        time.Now().UTC(),
	}

	if result := s.db.Create(&record); result.Error != nil {
		slog.Error("sql error storing prediction record", "user", email, "error", result.Error)
		return
	}

	var stale []schema.PredictionRecord
	result := s.db.Order("created_at DESC").Offset(predictionRecordCap).Find(&stale)
	if result.Error != nil {
		slog.Error("sql error finding stale prediction records", "error", result.Error)
		return
	}
	if len(stale) > 0 {
		if result := s.db.Delete(&stale); result.Error != nil {
			slog.Error("sql error pruning stale prediction records", "error", result.Error)
		}
	}
}

func (s *PredictService) ModelInfo(w http.ResponseWriter, r *http.Request) {
	metadata, err := s.models.Metadata()
	if err != nil {
		utils.WriteJsonResponse(w, map[string]interface{}{"status": "No model loaded"})
		return
	}

	pipeline, err := s.models.Active()
	if err != nil {
		utils.WriteJsonResponse(w, map[string]interface{}{"status": "No model loaded"})
		return
	}

	info := map[string]interface{}{
		"status":             "Model loaded",
		"training_date":      metadata.TrainingDate,
		"training_samples":   metadata.TrainingSamples,
		"test_samples":       metadata.TestSamples,
		"train_rmse":         metadata.TrainRmse,
		"test_rmse":          metadata.TestRmse,
		"train_r2":           metadata.TrainR2,
		"test_r2":            metadata.TestR2,
		"features":           metadata.Features,
		"model_type":         metadata.ModelType,
		"feature_importance": pipeline.FeatureImportance(),
	}

	utils.WriteJsonResponse(w, info)
}

func (s *PredictService) ModelStatus(w http.ResponseWriter, r *http.Request) {
	if !s.models.Loaded() {
		utils.WriteJsonResponse(w, map[string]interface{}{
			"status":       "No model loaded",
			"model_loaded": false,
		})
		return
	}

	info := map[string]interface{}{
		"status":       "Model loaded",
		"model_loaded": true,
		"timestamp":    time.Now().Format(time.RFC3339),
	}
	if metadata, err := s.models.Metadata(); err == nil {
		info["training_date"] = metadata.TrainingDate
		info["model_type"] = metadata.ModelType
	}

	utils.WriteJsonResponse(w, info)
}

type emailPredictionRequest struct {
	Email      string `json:"email"`
	Prediction struct {
		Prediction float64 `json:"prediction"`
		Confidence float64 `json:"confidence"`
	} `json:"prediction"`
	PatientData model.FeatureInput `json:"patient_data"`
}

type emailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SendPredictionEmail delivers a prediction report. The success flag always
// reflects the relay outcome.
func (s *PredictService) SendPredictionEmail(w http.ResponseWriter, r *http.Request) {
	var params emailPredictionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if !notify.ValidRecipient(params.Email) {
		emailDeliveries.WithLabelValues("rejected").Inc()
		http.Error(w, fmt.Sprintf("Invalid email format: %v", params.Email), http.StatusBadRequest)
		return
	}

	err := s.notifier.Send(r.Context(), params.Email, params.PatientData, params.Prediction.Prediction, params.Prediction.Confidence)
	if err != nil {
		message := fmt.Sprintf("Failed to send email to %v. Please try again or contact support.", params.Email)
		status := schema.DeliveryFailed
		if errors.Is(err, notify.ErrDeliveryTimedOut) {
			message = fmt.Sprintf("Email delivery to %v timed out. Please try again later.", params.Email)
			status = schema.DeliveryTimedOut
		}
		emailDeliveries.WithLabelValues(status).Inc()
		utils.WriteJsonResponse(w, emailResponse{Success: false, Message: message})
		return
	}

	emailDeliveries.WithLabelValues(schema.DeliverySent).Inc()
	utils.WriteJsonResponse(w, emailResponse{
		Success: true,
		Message: fmt.Sprintf("Prediction report sent successfully to %v! Check your inbox.", params.Email),
	})
}
