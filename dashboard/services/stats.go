package services

import (
	"errors"
	"net/http"

	"insurance_platform/dashboard/auth"
	"insurance_platform/dashboard/dataset"
	"insurance_platform/dashboard/schema"
	"insurance_platform/dashboard/stats"
	"insurance_platform/utils"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type StatsService struct {
	db       *gorm.DB
	datasets *dataset.Store
	userAuth auth.IdentityProvider
}

func (s *StatsService) AddRoutes(r chi.Router) {
	r.Get("/stats", s.GlobalStats)
	r.Get("/live-stats", s.LiveStats)
	r.Get("/claims-analysis", s.ClaimsAnalysis)
	r.Get("/live-claims-analysis", s.LiveClaimsAnalysis)

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/user-stats", s.UserStats)
		r.Get("/user-claims-analysis", s.UserClaimsAnalysis)
	})
}

func codeDatasetError(err error) error {
	if errors.Is(err, schema.ErrDatasetNotFound) {
		return CodedError(errors.New("No dataset found. Please upload a dataset first."), http.StatusNotFound)
	}
	return CodedError(err, http.StatusInternalServerError)
}

func (s *StatsService) currentFrame() (*dataset.Frame, error) {
	frame, _, err := s.datasets.Latest()
	if err != nil {
		return nil, codeDatasetError(err)
	}
	return frame, nil
}

// liveFrame is the current dataset extended with logged predictions, so
// recent user activity shows up in the numbers.
func (s *StatsService) liveFrame() (*dataset.Frame, error) {
	records, err := schema.ListPredictions(s.db, "")
	if err != nil {
		return nil, CodedError(err, http.StatusInternalServerError)
	}

	frame, err := s.datasets.Snapshot(records)
	if err != nil {
		return nil, codeDatasetError(err)
	}
	return frame, nil
}

func (s *StatsService) userFrame(r *http.Request) (*dataset.Frame, error) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		return nil, CodedError(err, http.StatusInternalServerError)
	}

	records, err := schema.ListPredictions(s.db, user.Email)
	if err != nil {
		return nil, CodedError(err, http.StatusInternalServerError)
	}

	return dataset.FromPredictions(records), nil
}

func (s *StatsService) GlobalStats(w http.ResponseWriter, r *http.Request) {
	frame, err := s.currentFrame()
	if err != nil {
		writeCodedError(w, err)
		return
	}
	utils.WriteJsonResponse(w, stats.Global(frame))
}

func (s *StatsService) LiveStats(w http.ResponseWriter, r *http.Request) {
	frame, err := s.liveFrame()
	if err != nil {
		writeCodedError(w, err)
		return
	}
	utils.WriteJsonResponse(w, stats.Global(frame))
}

func (s *StatsService) UserStats(w http.ResponseWriter, r *http.Request) {
	frame, err := s.userFrame(r)
	if err != nil {
		writeCodedError(w, err)
		return
	}
	utils.WriteJsonResponse(w, stats.Global(frame))
}

func (s *StatsService) ClaimsAnalysis(w http.ResponseWriter, r *http.Request) {
	frame, err := s.currentFrame()
	if err != nil {
		writeCodedError(w, err)
		return
	}
	utils.WriteJsonResponse(w, stats.Claims(frame))
}

func (s *StatsService) LiveClaimsAnalysis(w http.ResponseWriter, r *http.Request) {
	frame, err := s.liveFrame()
	if err != nil {
		writeCodedError(w, err)
		return
	}
	utils.WriteJsonResponse(w, stats.Claims(frame))
}

func (s *StatsService) UserClaimsAnalysis(w http.ResponseWriter, r *http.Request) {
	frame, err := s.userFrame(r)
	if err != nil {
		writeCodedError(w, err)
		return
	}
	utils.WriteJsonResponse(w, stats.Claims(frame))
}
