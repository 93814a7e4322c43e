// Copyright 2026 The mripipes Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics registers the Prometheus counters and histograms a
// pipeline run publishes, and serves them over HTTP for `mripipes run
// --metrics-addr`.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	elementsPulled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mripipes_elements_pulled_total",
			Help: "Total elements pulled through a source's typed accessor, by tool type.",
		},
		[]string{"tool"},
	)

	shortReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mripipes_short_reads_total",
			Help: "Total pulls that returned fewer elements than requested, by tool type.",
		},
		[]string{"tool"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mripipes_run_duration_seconds",
			Help:    "Wall-clock duration of a full pipeline run, from Init through the last Execute.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"graph"},
	)
)

// RecordPull records a pull of n elements against a tool's accessor,
// where n may be less than requested (a short read).
func RecordPull(tool string, requested, got int64) {
	elementsPulled.WithLabelValues(tool).Add(float64(got))
	if got < requested {
		shortReads.WithLabelValues(tool).Inc()
	}
}

// ObserveRunDuration records the duration, in seconds, of a completed run
// of the named graph.
func ObserveRunDuration(graph string, seconds float64) {
	runDuration.WithLabelValues(graph).Observe(seconds)
}

// Handler returns the HTTP handler serving the registered metrics in the
// Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts an HTTP server on addr exposing Handler at /metrics. It
// blocks until the server stops and returns its error, mirroring the
// caller-owned-lifecycle pattern used by cmd/mripipes's other long-running
// subcommands (run --watch, run --glob).
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
