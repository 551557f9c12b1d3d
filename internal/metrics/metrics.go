// Package metrics provides Prometheus metrics for the surveillance engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics collects and exposes engine Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Analysis metrics
	MarketsAnalyzed *prometheus.CounterVec
	AnalysisErrors  *prometheus.CounterVec

	// Signal metrics
	SignalsTotal *prometheus.CounterVec

	// Opportunity metrics
	OpportunitiesFlagged *prometheus.CounterVec
	OpportunityEV        prometheus.Histogram

	// Risk metrics
	RiskRefusals    *prometheus.CounterVec
	CurrentExposure prometheus.Gauge
	OpenPositions   prometheus.Gauge
}

// New creates the metrics collector with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		MarketsAnalyzed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgebot_markets_analyzed_total",
				Help: "Total number of markets analyzed",
			},
			[]string{"category"},
		),
		AnalysisErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgebot_analysis_errors_total",
				Help: "Total number of per-market analysis failures",
			},
			[]string{"stage"},
		),
		SignalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgebot_signals_total",
				Help: "Total number of signals fired by type",
			},
			[]string{"type"},
		),
		OpportunitiesFlagged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgebot_opportunities_flagged_total",
				Help: "Total number of opportunities flagged by signal type",
			},
			[]string{"type"},
		),
		OpportunityEV: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "edgebot_opportunity_ev_usd",
				Help:    "Expected value in USD of flagged opportunities",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
		),
		RiskRefusals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgebot_risk_refusals_total",
				Help: "Total number of opportunities refused by the risk manager",
			},
			[]string{"reason"},
		),
		CurrentExposure: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "edgebot_current_exposure_usd",
				Help: "Sum of suggested sizes across unresolved opportunities",
			},
		),
		OpenPositions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "edgebot_open_positions",
				Help: "Current number of unresolved opportunities",
			},
		),
	}

	registry.MustRegister(
		m.MarketsAnalyzed,
		m.AnalysisErrors,
		m.SignalsTotal,
		m.OpportunitiesFlagged,
		m.OpportunityEV,
		m.RiskRefusals,
		m.CurrentExposure,
		m.OpenPositions,
	)

	return m
}

// Registry returns the prometheus registry for HTTP exposure.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSignal increments the signal counter for one fired signal.
func (m *Metrics) RecordSignal(signalType string) {
	m.SignalsTotal.WithLabelValues(signalType).Inc()
}

// RecordOpportunity records a flagged opportunity and its expected value.
func (m *Metrics) RecordOpportunity(signalType string, ev decimal.Decimal) {
	m.OpportunitiesFlagged.WithLabelValues(signalType).Inc()
	f, _ := ev.Float64()
	m.OpportunityEV.Observe(f)
}

// UpdatePortfolio refreshes the exposure and position gauges.
func (m *Metrics) UpdatePortfolio(exposure decimal.Decimal, openPositions int) {
	f, _ := exposure.Float64()
	m.CurrentExposure.Set(f)
	m.OpenPositions.Set(float64(openPositions))
}
