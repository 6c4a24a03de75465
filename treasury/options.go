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
	"log/slog"
	"time"

	"github.com/decentramind-labs/govengine/event"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultThreshold       = 3
	DefaultSender          = "treasury"
	DefaultTransferTimeout = 10 * time.Second
)

type GateOptionFunc func(*Gate)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) GateOptionFunc {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) GateOptionFunc {
	return func(g *Gate) {
		g.promRegistry = registry
	}
}

// WithEventBus specifies the event bus that receives transaction status events
func WithEventBus(eventBus *event.EventBus) GateOptionFunc {
	return func(g *Gate) {
		g.eventBus = eventBus
	}
}

// WithThreshold specifies the number of distinct approvals required for execution
func WithThreshold(threshold int) GateOptionFunc {
	return func(g *Gate) {
		g.threshold = threshold
	}
}

// WithSigners restricts approval and rejection to the given identities. An empty
// list allows any identity.
func WithSigners(signers ...string) GateOptionFunc {
	return func(g *Gate) {
		g.signers = make(map[string]struct{}, len(signers))
		for _, s := range signers {
			g.signers[s] = struct{}{}
		}
	}
}

// WithSender specifies the treasury account that funds are moved from
func WithSender(sender string) GateOptionFunc {
	return func(g *Gate) {
		g.sender = sender
	}
}

// WithTransferTimeout bounds each call to the funds transfer
func WithTransferTimeout(timeout time.Duration) GateOptionFunc {
	return func(g *Gate) {
		g.timeout = timeout
	}
}

// WithClock specifies the time source. It is mostly useful for tests.
func WithClock(clock func() time.Time) GateOptionFunc {
	return func(g *Gate) {
		g.clock = clock
	}
}
