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
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParamsValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestParamsValidate(t *testing.T) {
	testDefs := []struct {
		name   string
		modify func(*Params)
	}{
		{"zero supply", func(p *Params) { p.CirculatingSupply = decimal.Zero }},
		{"zero bonus", func(p *Params) { p.StakingBonusFactor = decimal.Zero }},
		{"no endorsements", func(p *Params) { p.MinEndorsements = 0 }},
		{"no signers", func(p *Params) { p.MultiSigThreshold = 0 }},
		{"no timeout", func(p *Params) { p.ProviderTimeout = 0 }},
		{"negative voting power", func(p *Params) { p.MinVotingPower = d("-1") }},
		{"majority above one", func(p *Params) { p.Majority.Standard = d("1.01") }},
		{"zero majority", func(p *Params) { p.Majority.Emergency = decimal.Zero }},
		{"missing category", func(p *Params) { delete(p.Categories, CategoryEmergency) }},
		{
			"zero voting period",
			func(p *Params) {
				cp := p.Categories[CategoryGovernance]
				cp.VotingPeriod = 0
				p.Categories[CategoryGovernance] = cp
			},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			p := DefaultParams()
			testDef.modify(&p)
			require.ErrorIs(t, p.Validate(), ErrInvalidArgument)
		})
	}
}

func TestThresholds(t *testing.T) {
	p := DefaultParams()
	p.CirculatingSupply = d("2000000")
	testDefs := []struct {
		category Category
		quorum   string
		majority string
	}{
		{CategoryPlatformDevelopment, "200000", "0.5"},
		{CategoryEconomicPolicy, "300000", "0.5"},
		{CategoryTreasuryManagement, "400000", "0.5"},
		{CategoryGovernance, "500000", "0.67"},
		{CategoryEmergency, "100000", "0.75"},
	}
	for _, testDef := range testDefs {
		th, err := p.Thresholds(testDef.category)
		require.NoError(t, err)
		assert.True(t, th.Quorum.Equal(d(testDef.quorum)), "%s quorum %s", testDef.category, th.Quorum)
		assert.True(t, th.Majority.Equal(d(testDef.majority)), "%s majority", testDef.category)
	}
	_, err := p.Thresholds("unknown")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCategoryTiming(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 12*time.Hour, p.Categories[CategoryEmergency].DiscussionPeriod)
	assert.Equal(t, 48*time.Hour, p.Categories[CategoryEmergency].VotingPeriod)
	assert.Equal(t, 14*24*time.Hour, p.Categories[CategoryGovernance].VotingPeriod)
}
