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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/decentramind-labs/govengine/database"
	"github.com/decentramind-labs/govengine/event"
	"github.com/decentramind-labs/govengine/governance"
	"github.com/decentramind-labs/govengine/holdings"
	"github.com/decentramind-labs/govengine/power"
	"github.com/decentramind-labs/govengine/treasury"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	db              *database.Database
	provider        power.Provider
	transfer        treasury.FundsTransfer
	eventBus        *event.EventBus
	clock           func() time.Time
	idFunc          func() string
	params          governance.Params
	currency        string
	treasurySender  string
	treasurySigners []string
	transferTimeout time.Duration
}

// ConfigOptionFunc is a type that represents functions that modify the engine config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new engine config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		clock:           time.Now,
		idFunc:          uuid.NewString,
		params:          governance.DefaultParams(),
		currency:        holdings.DefaultCurrency,
		treasurySender:  treasury.DefaultSender,
		transferTimeout: treasury.DefaultTransferTimeout,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *Config) validate() error {
	if c.db == nil {
		return errors.New("no database configured")
	}
	if c.provider == nil {
		return errors.New("no balance provider configured")
	}
	if c.transfer == nil {
		return errors.New("no funds transfer configured")
	}
	if c.currency == "" {
		return errors.New("treasury currency must not be empty")
	}
	if err := c.params.Validate(); err != nil {
		return fmt.Errorf("governance parameters: %w", err)
	}
	return nil
}

// WithDatabase specifies the database that stores proposals, votes and treasury transactions
func WithDatabase(db *database.Database) ConfigOptionFunc {
	return func(c *Config) {
		c.db = db
	}
}

// WithProvider specifies the source of token balances and staked amounts
func WithProvider(provider power.Provider) ConfigOptionFunc {
	return func(c *Config) {
		c.provider = provider
	}
}

// WithFundsTransfer specifies the collaborator that moves treasury funds
func WithFundsTransfer(transfer treasury.FundsTransfer) ConfigOptionFunc {
	return func(c *Config) {
		c.transfer = transfer
	}
}

// WithEventBus specifies the event bus for lifecycle events. No events are
// published without one.
func WithEventBus(eventBus *event.EventBus) ConfigOptionFunc {
	return func(c *Config) {
		c.eventBus = eventBus
	}
}

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithParams specifies the governance parameters. The default is governance.DefaultParams()
func WithParams(params governance.Params) ConfigOptionFunc {
	return func(c *Config) {
		c.params = params
	}
}

// WithClock specifies the time source used for windows and timestamps
func WithClock(clock func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clock
	}
}

// WithIDGenerator specifies the function that assigns proposal ids. The default generates UUIDs
func WithIDGenerator(idFunc func() string) ConfigOptionFunc {
	return func(c *Config) {
		c.idFunc = idFunc
	}
}

// WithCurrency specifies the currency of treasury funding. The default is holdings.DefaultCurrency
func WithCurrency(currency string) ConfigOptionFunc {
	return func(c *Config) {
		c.currency = currency
	}
}

// WithTreasurySender specifies the account treasury funds are paid from
func WithTreasurySender(sender string) ConfigOptionFunc {
	return func(c *Config) {
		c.treasurySender = sender
	}
}

// WithTreasurySigners restricts treasury approvals to the given identities
func WithTreasurySigners(signers ...string) ConfigOptionFunc {
	return func(c *Config) {
		c.treasurySigners = signers
	}
}

// WithTransferTimeout bounds each funds transfer. The default is 10 seconds
func WithTransferTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.transferTimeout = timeout
	}
}
