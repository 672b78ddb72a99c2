// Copyright 2025 Gosayram Contributors
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

// Package metrics provides Prometheus metrics for OpenACVP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrialsTotal counts executed trials by algorithm and result code
	TrialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openacvp_trials_total",
			Help: "Total number of HMAC trials by result code",
		},
		[]string{"algorithm", "code"},
	)

	// TrialDuration tracks trial execution time in seconds
	TrialDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openacvp_trial_duration_seconds",
			Help:    "Duration of HMAC trials in seconds",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
		[]string{"algorithm"},
	)

	// VectorSetsTotal counts processed vector sets by status
	VectorSetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openacvp_vectorsets_total",
			Help: "Total number of processed vector sets",
		},
		[]string{"status"},
	)

	// OperationDuration tracks the duration of HTTP operations in seconds
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openacvp_http_request_duration_seconds",
			Help:    "Duration of HTTP operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	// OperationTotal tracks the total number of HTTP operations
	OperationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openacvp_http_requests_total",
			Help: "Total number of HTTP operations",
		},
		[]string{"operation", "status"},
	)

	// ErrorRate tracks error rate by operation type
	ErrorRate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openacvp_errors_total",
			Help: "Total number of errors",
		},
		[]string{"operation", "error_type"},
	)
)

// RecordTrial records one trial with its result code and duration
func RecordTrial(algorithm, code string, duration float64) {
	TrialsTotal.WithLabelValues(algorithm, code).Inc()
	TrialDuration.WithLabelValues(algorithm).Observe(duration)
}

// RecordVectorSet records a processed vector set
func RecordVectorSet(status string) {
	VectorSetsTotal.WithLabelValues(status).Inc()
}

// RecordOperation records an operation with duration and status
func RecordOperation(operation, status string, duration float64) {
	OperationDuration.WithLabelValues(operation, status).Observe(duration)
	OperationTotal.WithLabelValues(operation, status).Inc()
}

// RecordError records an error
func RecordError(operation, errorType string) {
	ErrorRate.WithLabelValues(operation, errorType).Inc()
}
