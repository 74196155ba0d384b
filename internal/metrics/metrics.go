// Package metrics expone los collectors Prometheus del servicio de inferencia.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SimulationsTotal cuenta corridas por resultado: ok | invalid | failed.
	SimulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bayesab_simulations_total",
		Help: "Simulations executed, by outcome",
	}, []string{"outcome"})

	// SimulationDuration mide el tiempo de una corrida del motor.
	SimulationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bayesab_simulation_duration_seconds",
		Help:    "Time to sample, bin and locate percentiles for one experiment",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	})

	// SamplesDrawn cuenta pares (a_i, b_i) extraídos.
	SamplesDrawn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bayesab_samples_drawn_total",
		Help: "Posterior sample pairs drawn",
	})

	// WinProbability registra la distribución de P(B > A) servida.
	WinProbability = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bayesab_win_probability",
		Help:    "Distribution of reported P(B > A)",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
	})

	// StoreErrors cuenta fallos al persistir corridas (no abortan la corrida).
	StoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bayesab_store_errors_total",
		Help: "Failures persisting runs to the history store",
	})

	// HTTPRequests cuenta requests de la API por ruta y código.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bayesab_http_requests_total",
		Help: "HTTP API requests by route and status code",
	}, []string{"route", "code"})
)

// Outcome labels para SimulationsTotal.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)
