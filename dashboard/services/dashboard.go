package services

import (
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"insurance_platform/dashboard/auth"
	"insurance_platform/dashboard/dataset"
	"insurance_platform/dashboard/model"
	"insurance_platform/dashboard/notify"
	"insurance_platform/dashboard/schema"
	"insurance_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const (
	apiName    = "India Medical Insurance ML Dashboard API"
	apiVersion = "1.0.0"
)

// Dashboard aggregates the route services behind a single router.
type Dashboard struct {
	user    UserService
	predict PredictService
	stats   StatsService
	admin   AdminService

	db       *gorm.DB
	datasets *dataset.Store
	models   *model.Manager
}

func NewDashboard(
	db *gorm.DB, datasets *dataset.Store, models *model.Manager, notifier *notify.Service, userAuth auth.IdentityProvider,
) Dashboard {
	return Dashboard{
		user:    UserService{db: db, userAuth: userAuth},
		predict: PredictService{db: db, models: models, notifier: notifier, userAuth: userAuth},
		stats:   StatsService{db: db, datasets: datasets, userAuth: userAuth},
		admin:   AdminService{db: db, datasets: datasets, models: models, userAuth: userAuth},

		db:       db,
		datasets: datasets,
		models:   models,
	}
}

func (d *Dashboard) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	d.user.AddRoutes(r)
	d.predict.AddRoutes(r)
	d.stats.AddRoutes(r)

	r.Mount("/admin", d.admin.Routes())

	r.Get("/", d.Root)
	r.Get("/health", d.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (d *Dashboard) Root(w http.ResponseWriter, r *http.Request) {
	utils.WriteJsonResponse(w, map[string]string{
		"message": apiName,
		"version": apiVersion,
	})
}

func (d *Dashboard) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJsonResponse(w, map[string]interface{}{
		"status":       "healthy",
		"timestamp":    time.Now().Format(time.RFC3339),
		"version":      apiVersion,
		"model_loaded": d.models.Loaded(),
	})
}

// Bootstrap restores the persisted model, or trains one from the current
// dataset if no artifact exists yet. Both steps are best effort, the server
// starts either way.
func (d *Dashboard) Bootstrap() {
	if err := d.models.Load(); err != nil {
		slog.Error("error loading model artifact at startup", "error", err)
	}
	if d.models.Loaded() {
		return
	}

	frame, record, err := d.datasets.Latest()
	if err != nil {
		if !errors.Is(err, schema.ErrDatasetNotFound) {
			slog.Error("error loading dataset at startup", "error", err)
		}
		return
	}

	slog.Info("no model artifact, training from current dataset", "filename", record.Filename)
	if _, err := d.models.Retrain(frame); err != nil {
		trainingRuns.WithLabelValues("failed").Inc()
		slog.Error("startup training failed", "error", err)
		return
	}
	trainingRuns.WithLabelValues("success").Inc()
}
