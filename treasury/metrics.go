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

package treasury

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type gateMetrics struct {
	transactions     *prometheus.CounterVec
	approvals        prometheus.Counter
	transferFailures prometheus.Counter
}

func (g *Gate) initMetrics() {
	promautoFactory := promauto.With(g.promRegistry)
	g.metrics = &gateMetrics{}
	g.metrics.transactions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govengine_treasury_transactions_total",
			Help: "treasury transactions entering each status",
		},
		[]string{"status"},
	)
	g.metrics.approvals = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "govengine_treasury_approvals_total",
		Help: "distinct treasury approvals recorded",
	})
	g.metrics.transferFailures = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "govengine_treasury_transfer_failures_total",
		Help: "funds transfers that failed or timed out",
	})
}
