/*
Copyright © 2024 the AtmRTM authors.
This file is part of AtmRTM.

AtmRTM is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AtmRTM is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AtmRTM.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package metrics holds Prometheus instrumentation for batch runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atmrtm_points_total",
			Help: "Total number of profiles processed, by outcome.",
		},
		[]string{"outcome"},
	)

	batchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atmrtm_batch_duration_seconds",
			Help:    "Batch run duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"outcome"},
	)

	pointsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atmrtm_points_remaining",
			Help: "Number of profiles remaining in the current batch.",
		},
	)
)

// Outcomes used as metric labels.
const (
	OK        = "ok"
	Failed    = "failed"
	Cancelled = "cancelled"
)

func init() {
	prometheus.MustRegister(pointsTotal)
	prometheus.MustRegister(batchDurationSeconds)
	prometheus.MustRegister(pointsInProgress)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// PointDone records one processed profile with the given outcome.
func PointDone(outcome string) {
	pointsTotal.WithLabelValues(outcome).Inc()
}

// Remaining sets the number of profiles remaining in the current batch.
func Remaining(n int) {
	pointsInProgress.Set(float64(n))
}

// BatchDone records the duration of a batch that started at start.
func BatchDone(outcome string, start time.Time) {
	batchDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
