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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/decentramind-labs/govengine/governance"
	"github.com/decentramind-labs/govengine/holdings"
	"github.com/decentramind-labs/govengine/treasury"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "govengine.config"

const (
	DefaultShutdownTimeout = 30 * time.Second
	DefaultSweepInterval   = time.Minute
	DefaultApiPort         = 9090
	DefaultMetricsPort     = 12798
	EnvPrefix              = "govengine"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	DataDir           string           `yaml:"dataDir"           split_words:"true"`
	HoldingsFile      string           `yaml:"holdingsFile"      split_words:"true"`
	BindAddr          string           `yaml:"bindAddr"          split_words:"true"`
	TlsCertFilePath   string           `yaml:"tlsCertFilePath"   envconfig:"TLS_CERT_FILE_PATH"`
	TlsKeyFilePath    string           `yaml:"tlsKeyFilePath"    envconfig:"TLS_KEY_FILE_PATH"`
	Currency          string           `yaml:"currency"`
	TreasurySender    string           `yaml:"treasurySender"    split_words:"true"`
	TracingEndpoint   string           `yaml:"tracingEndpoint"   split_words:"true"`
	TreasurySigners   []string         `yaml:"treasurySigners"   split_words:"true"`
	ApiPort           uint             `yaml:"apiPort"           split_words:"true"`
	MetricsPort       uint             `yaml:"metricsPort"       split_words:"true"`
	ProposalCacheSize int              `yaml:"proposalCacheSize" split_words:"true"`
	ShutdownTimeout   time.Duration    `yaml:"shutdownTimeout"   split_words:"true"`
	SweepInterval     time.Duration    `yaml:"sweepInterval"     split_words:"true"`
	TransferTimeout   time.Duration    `yaml:"transferTimeout"   split_words:"true"`
	Tracing           bool             `yaml:"tracing"`
	TracingStdout     bool             `yaml:"tracingStdout"     split_words:"true"`
	Governance        GovernanceConfig `yaml:"governance"`
	Storage           StorageConfig    `yaml:"storage"`
}

// StorageConfig tunes the stores. Zero values keep the defaults, a negative
// metadataVacuumInterval disables vacuuming.
type StorageConfig struct {
	BlobBlockCacheSize     uint64        `yaml:"blobBlockCacheSize"     split_words:"true"`
	BlobIndexCacheSize     uint64        `yaml:"blobIndexCacheSize"     split_words:"true"`
	BlobGcInterval         time.Duration `yaml:"blobGcInterval"         split_words:"true"`
	MetadataVacuumInterval time.Duration `yaml:"metadataVacuumInterval" split_words:"true"`
	BlobGcDisabled         bool          `yaml:"blobGcDisabled"         split_words:"true"`
}

// GovernanceConfig holds the governance parameters. Categories can only be set
// from the config file.
type GovernanceConfig struct {
	CirculatingSupply         decimal.Decimal           `yaml:"circulatingSupply"         split_words:"true"`
	MinEndorserPower          decimal.Decimal           `yaml:"minEndorserPower"          split_words:"true"`
	MinVotingPower            decimal.Decimal           `yaml:"minVotingPower"            split_words:"true"`
	MinProposalCreatorBalance decimal.Decimal           `yaml:"minProposalCreatorBalance" split_words:"true"`
	StakingBonusFactor        decimal.Decimal           `yaml:"stakingBonusFactor"        split_words:"true"`
	Majority                  MajorityConfig            `yaml:"majority"`
	Categories                map[string]CategoryConfig `yaml:"categories"                ignored:"true"`
	MinEndorsements           int                       `yaml:"minEndorsements"           split_words:"true"`
	MultiSigThreshold         int                       `yaml:"multiSigThreshold"         split_words:"true"`
	ProviderTimeout           time.Duration             `yaml:"providerTimeout"           split_words:"true"`
}

type MajorityConfig struct {
	Standard     decimal.Decimal `yaml:"standard"`
	Constitution decimal.Decimal `yaml:"constitution"`
	Emergency    decimal.Decimal `yaml:"emergency"`
}

// CategoryConfig overrides the parameters of one category. Zero fields keep the default.
type CategoryConfig struct {
	Quorum           decimal.Decimal `yaml:"quorum"`
	DiscussionPeriod time.Duration   `yaml:"discussionPeriod"`
	VotingPeriod     time.Duration   `yaml:"votingPeriod"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	params := governance.DefaultParams()
	return &Config{
		DataDir:         ".govengine",
		HoldingsFile:    "holdings.yaml",
		BindAddr:        "0.0.0.0",
		Currency:        holdings.DefaultCurrency,
		TreasurySender:  treasury.DefaultSender,
		ApiPort:         DefaultApiPort,
		MetricsPort:     DefaultMetricsPort,
		ShutdownTimeout: DefaultShutdownTimeout,
		SweepInterval:   DefaultSweepInterval,
		TransferTimeout: treasury.DefaultTransferTimeout,
		Governance: GovernanceConfig{
			CirculatingSupply:         params.CirculatingSupply,
			MinEndorserPower:          params.MinEndorserPower,
			MinVotingPower:            params.MinVotingPower,
			MinProposalCreatorBalance: params.MinProposalCreatorBalance,
			StakingBonusFactor:        params.StakingBonusFactor,
			MinEndorsements:           params.MinEndorsements,
			MultiSigThreshold:         params.MultiSigThreshold,
			ProviderTimeout:           params.ProviderTimeout,
			Majority: MajorityConfig{
				Standard:     params.Majority.Standard,
				Constitution: params.Majority.Constitution,
				Emergency:    params.Majority.Emergency,
			},
		},
	}
}

// LoadConfig reads configFile, or the first of ~/.govengine/govengine.yaml and
// /etc/govengine/govengine.yaml that exists, then applies GOVENGINE_*
// environment variables and validates the result.
func LoadConfig(configFile string) (*Config, error) {
	cfg := Default()
	if configFile == "" {
		// Check for config file in this path: ~/.govengine/govengine.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".govengine", "govengine.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/govengine/govengine.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the process settings and the governance parameters
func (c *Config) Validate() error {
	var errs []error
	if c.ApiPort == 0 || c.ApiPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid apiPort: %d", c.ApiPort))
	}
	if c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid metricsPort: %d", c.MetricsPort))
	}
	if (c.TlsCertFilePath == "") != (c.TlsKeyFilePath == "") {
		errs = append(errs, errors.New("tlsCertFilePath and tlsKeyFilePath must be set together"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid shutdownTimeout: %s", c.ShutdownTimeout))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid sweepInterval: %s", c.SweepInterval))
	}
	if c.TransferTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid transferTimeout: %s", c.TransferTimeout))
	}
	if c.Storage.BlobGcInterval < 0 {
		errs = append(errs, fmt.Errorf("invalid storage.blobGcInterval: %s", c.Storage.BlobGcInterval))
	}
	if c.Currency == "" {
		errs = append(errs, errors.New("currency must not be empty"))
	}
	if _, err := c.Params(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Params converts the governance section into engine parameters
func (c *Config) Params() (governance.Params, error) {
	g := c.Governance
	params := governance.DefaultParams()
	params.CirculatingSupply = g.CirculatingSupply
	params.MinEndorserPower = g.MinEndorserPower
	params.MinVotingPower = g.MinVotingPower
	params.MinProposalCreatorBalance = g.MinProposalCreatorBalance
	params.StakingBonusFactor = g.StakingBonusFactor
	params.MinEndorsements = g.MinEndorsements
	params.MultiSigThreshold = g.MultiSigThreshold
	params.ProviderTimeout = g.ProviderTimeout
	params.Majority = governance.MajorityParams{
		Standard:     g.Majority.Standard,
		Constitution: g.Majority.Constitution,
		Emergency:    g.Majority.Emergency,
	}
	for name, override := range g.Categories {
		category, err := governance.ParseCategory(name)
		if err != nil {
			return governance.Params{}, fmt.Errorf("governance.categories: %w", err)
		}
		current := params.Categories[category]
		if !override.Quorum.IsZero() {
			current.QuorumFraction = override.Quorum
		}
		if override.DiscussionPeriod != 0 {
			current.DiscussionPeriod = override.DiscussionPeriod
		}
		if override.VotingPeriod != 0 {
			current.VotingPeriod = override.VotingPeriod
		}
		params.Categories[category] = current
	}
	if err := params.Validate(); err != nil {
		return governance.Params{}, fmt.Errorf("governance: %w", err)
	}
	return params, nil
}
