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

package governance

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryParams holds the quorum and timing configuration of a single category
type CategoryParams struct {
	// QuorumFraction is the share of circulating supply that must vote (0.0-1.0]
	QuorumFraction   decimal.Decimal
	DiscussionPeriod time.Duration
	VotingPeriod     time.Duration
}

// MajorityParams holds the majority fractions applied to non-abstain votes
type MajorityParams struct {
	Standard     decimal.Decimal
	Constitution decimal.Decimal
	Emergency    decimal.Decimal
}

// Params is the full set of governance parameters used by the engine
type Params struct {
	Categories                map[Category]CategoryParams
	Majority                  MajorityParams
	CirculatingSupply         decimal.Decimal
	MinEndorserPower          decimal.Decimal
	MinVotingPower            decimal.Decimal
	MinProposalCreatorBalance decimal.Decimal
	StakingBonusFactor        decimal.Decimal
	MinEndorsements           int
	MultiSigThreshold         int
	ProviderTimeout           time.Duration
}

// Thresholds are the quorum and majority fixed on a proposal at creation
type Thresholds struct {
	Quorum   decimal.Decimal
	Majority decimal.Decimal
}

const day = 24 * time.Hour

// DefaultParams returns the default governance parameters
func DefaultParams() Params {
	return Params{
		CirculatingSupply:         decimal.NewFromInt(1_000_000),
		MinEndorsements:           3,
		MinEndorserPower:          decimal.NewFromInt(100),
		MinVotingPower:            decimal.NewFromInt(100),
		MinProposalCreatorBalance: decimal.NewFromInt(1000),
		StakingBonusFactor:        decimal.RequireFromString("1.5"),
		MultiSigThreshold:         3,
		ProviderTimeout:           5 * time.Second,
		Majority: MajorityParams{
			Standard:     decimal.RequireFromString("0.5"),
			Constitution: decimal.RequireFromString("0.67"),
			Emergency:    decimal.RequireFromString("0.75"),
		},
		Categories: map[Category]CategoryParams{
			CategoryPlatformDevelopment: {
				QuorumFraction:   decimal.RequireFromString("0.10"),
				DiscussionPeriod: 3 * day,
				VotingPeriod:     7 * day,
			},
			CategoryEconomicPolicy: {
				QuorumFraction:   decimal.RequireFromString("0.15"),
				DiscussionPeriod: 3 * day,
				VotingPeriod:     7 * day,
			},
			CategoryTreasuryManagement: {
				QuorumFraction:   decimal.RequireFromString("0.20"),
				DiscussionPeriod: 3 * day,
				VotingPeriod:     7 * day,
			},
			CategoryGovernance: {
				QuorumFraction:   decimal.RequireFromString("0.25"),
				DiscussionPeriod: 7 * day,
				VotingPeriod:     14 * day,
			},
			CategoryEmergency: {
				QuorumFraction:   decimal.RequireFromString("0.05"),
				DiscussionPeriod: 12 * time.Hour,
				VotingPeriod:     2 * day,
			},
		},
	}
}

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// fraction checks that 0 < v <= 1
func fraction(name string, v decimal.Decimal) error {
	if !v.GreaterThan(zero) || v.GreaterThan(one) {
		return fmt.Errorf("%s must be in (0, 1], got %s", name, v.String())
	}
	return nil
}

func nonNegative(name string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%s must not be negative, got %s", name, v.String())
	}
	return nil
}

// Validate checks the parameters for consistency
func (p Params) Validate() error {
	var errs []error
	if !p.CirculatingSupply.IsPositive() {
		errs = append(errs, fmt.Errorf(
			"circulating supply must be positive, got %s",
			p.CirculatingSupply.String(),
		))
	}
	if !p.StakingBonusFactor.IsPositive() {
		errs = append(errs, fmt.Errorf(
			"staking bonus factor must be positive, got %s",
			p.StakingBonusFactor.String(),
		))
	}
	if p.MinEndorsements < 1 {
		errs = append(errs, fmt.Errorf(
			"minimum endorsements must be at least 1, got %d",
			p.MinEndorsements,
		))
	}
	if p.MultiSigThreshold < 1 {
		errs = append(errs, fmt.Errorf(
			"multisig threshold must be at least 1, got %d",
			p.MultiSigThreshold,
		))
	}
	if p.ProviderTimeout <= 0 {
		errs = append(errs, fmt.Errorf(
			"provider timeout must be positive, got %s",
			p.ProviderTimeout,
		))
	}
	errs = append(errs,
		nonNegative("minimum endorser power", p.MinEndorserPower),
		nonNegative("minimum voting power", p.MinVotingPower),
		nonNegative("minimum creator balance", p.MinProposalCreatorBalance),
		fraction("standard majority", p.Majority.Standard),
		fraction("constitution majority", p.Majority.Constitution),
		fraction("emergency majority", p.Majority.Emergency),
	)
	for _, category := range Categories {
		cp, ok := p.Categories[category]
		if !ok {
			errs = append(errs, fmt.Errorf("missing parameters for category %s", category))
			continue
		}
		errs = append(errs, fraction(string(category)+" quorum fraction", cp.QuorumFraction))
		if cp.DiscussionPeriod <= 0 {
			errs = append(errs, fmt.Errorf("%s discussion period must be positive", category))
		}
		if cp.VotingPeriod <= 0 {
			errs = append(errs, fmt.Errorf("%s voting period must be positive", category))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

// Thresholds computes the quorum and majority for a new proposal of the given category
func (p Params) Thresholds(category Category) (Thresholds, error) {
	cp, ok := p.Categories[category]
	if !ok {
		return Thresholds{}, fmt.Errorf(
			"%w: no parameters for category %q",
			ErrInvalidArgument,
			category,
		)
	}
	majority := p.Majority.Standard
	switch category {
	case CategoryGovernance:
		majority = p.Majority.Constitution
	case CategoryEmergency:
		majority = p.Majority.Emergency
	}
	return Thresholds{
		Quorum:   p.CirculatingSupply.Mul(cp.QuorumFraction),
		Majority: majority,
	}, nil
}
