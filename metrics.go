// Copyright 2026 DecentraMind Labs
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

package govengine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type engineMetrics struct {
	proposalsCreated *prometheus.CounterVec
	endorsements     prometheus.Counter
	votes            *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	errors           *prometheus.CounterVec
	sweeps           prometheus.Counter
	sweepAdvanced    prometheus.Counter
}

func (e *Engine) initMetrics() {
	promautoFactory := promauto.With(e.config.promRegistry)
	e.metrics = &engineMetrics{}
	e.metrics.proposalsCreated = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govengine_proposals_created_total",
			Help: "proposals created by category",
		},
		[]string{"category"},
	)
	e.metrics.endorsements = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "govengine_endorsements_total",
		Help: "endorsements recorded",
	})
	e.metrics.votes = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govengine_votes_total",
			Help: "votes cast by choice",
		},
		[]string{"choice"},
	)
	e.metrics.transitions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govengine_transitions_total",
			Help: "proposal status transitions by target status",
		},
		[]string{"status"},
	)
	e.metrics.errors = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govengine_operation_errors_total",
			Help: "failed engine operations by operation and error kind",
		},
		[]string{"operation", "kind"},
	)
	e.metrics.sweeps = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "govengine_sweeps_total",
		Help: "periodic sweeps run",
	})
	e.metrics.sweepAdvanced = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "govengine_sweep_advanced_total",
		Help: "proposals advanced by periodic sweeps",
	})
}
