// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package health exposes the bridge's Statistics Engine and egress
// health as Prometheus gauges on a small HTTP surface (SPEC_FULL.md
// §A.4): /healthz for a liveness probe, /metrics for scraping.
package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/historianio/pnbridge/internal/egress"
	"github.com/historianio/pnbridge/internal/egress/influx"
	"github.com/historianio/pnbridge/internal/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves /healthz and /metrics over HTTP.
type Server struct {
	http *http.Server

	statsEng      *stats.Engine
	egress        *egress.Egress
	influxSink    *influx.Sink // nil if the influx sink is disabled
	statAvg        *prometheus.GaugeVec
	statCount      *prometheus.GaugeVec
	statMax        *prometheus.GaugeVec
	statAllTimeMax *prometheus.GaugeVec
	enqueueFailed  prometheus.CounterFunc
	ringOverruns  prometheus.CounterFunc
}

// New builds a Server listening on addr. influxSink may be nil if that
// sink was disabled by configuration.
func New(addr string, statsEng *stats.Engine, eg *egress.Egress, influxSink *influx.Sink) *Server {
	reg := prometheus.NewRegistry()

	statAvg := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pnbridge_stat_avg",
		Help: "Rolling average of a tracked sampler statistic, microseconds.",
	}, []string{"name"})
	statCount := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pnbridge_stat_count",
		Help: "Sample count accumulated since the last flush.",
	}, []string{"name"})
	statMax := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pnbridge_stat_max",
		Help: "Maximum of a tracked sampler statistic since the last flush, microseconds.",
	}, []string{"name"})
	statAllTimeMax := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pnbridge_stat_alltimemax",
		Help: "All-time maximum of a tracked sampler statistic, microseconds.",
	}, []string{"name"})
	enqueueFailed := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "pnbridge_egress_enqueue_failures_total",
		Help: "Egress enqueue calls that returned an error, across all sinks.",
	}, func() float64 { return float64(eg.EnqueueFailures()) })
	ringOverruns := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "pnbridge_influx_ring_overruns_total",
		Help: "Batch-ring overruns in the line-protocol UDP sink.",
	}, func() float64 {
		if influxSink == nil {
			return 0
		}
		return float64(influxSink.Overruns())
	})
	reg.MustRegister(statAvg, statCount, statMax, statAllTimeMax, enqueueFailed, ringOverruns)

	s := &Server{
		statsEng:       statsEng,
		egress:         eg,
		influxSink:     influxSink,
		statAvg:        statAvg,
		statCount:      statCount,
		statMax:        statMax,
		statAllTimeMax: statAllTimeMax,
		enqueueFailed:  enqueueFailed,
		ringOverruns:   ringOverruns,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.serveHealthz)
	metrics := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.refresh()
		metrics.ServeHTTP(w, r)
	})
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe blocks serving HTTP until the server is shut down.
// ErrServerClosed is not an error from the caller's perspective.
func (s *Server) ListenAndServe() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// refresh copies the live accumulator snapshots into the Prometheus
// gauges. It does not flush the accumulators: that remains the
// sampler's job on its own 10s cadence (spec.md §4.5), so scraping
// /metrics has no side effect on the egress stream.
func (s *Server) refresh() {
	for _, name := range s.statsEng.Names() {
		snap := s.statsEng.Accumulator(name).Peek()
		s.statCount.WithLabelValues(string(name)).Set(float64(snap.Count))
		s.statMax.WithLabelValues(string(name)).Set(float64(snap.Max))
		s.statAllTimeMax.WithLabelValues(string(name)).Set(float64(snap.AllTimeMax))
		if snap.AvgValid {
			s.statAvg.WithLabelValues(string(name)).Set(snap.Avg)
		}
	}
}

type healthBody struct {
	Status          string `json:"status"`
	EnqueueFailures uint64 `json:"enqueueFailures"`
	RingOverruns    uint64 `json:"ringOverruns,omitempty"`
}

func (s *Server) serveHealthz(w http.ResponseWriter, r *http.Request) {
	s.refresh()
	body := healthBody{
		Status:          "ok",
		EnqueueFailures: s.egress.EnqueueFailures(),
	}
	if s.influxSink != nil {
		body.RingOverruns = s.influxSink.Overruns()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
