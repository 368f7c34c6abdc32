package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_predictions_total",
		Help: "Number of claim predictions served.",
	})

	trainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_training_runs_total",
		Help: "Number of model training runs, by outcome.",
	}, []string{"outcome"})

	emailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_email_deliveries_total",
		Help: "Number of prediction report deliveries, by status.",
	}, []string{"status"})
)
