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

package models

import (
	"testing"
	"time"

	"github.com/decentramind-labs/govengine/governance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalConversion(t *testing.T) {
	now := time.Date(2026, 5, 4, 3, 2, 1, 123456789, time.UTC)
	p, err := governance.NewProposal(
		"8d0c3f40-0000-4000-8000-000000000001",
		governance.ProposalRequest{
			Creator:       "alice",
			Title:         "Fund the audit",
			Category:      governance.CategoryTreasuryManagement,
			FundingAmount: decimal.NewNullDecimal(decimal.RequireFromString("2500.75")),
			Tags:          []string{"security"},
		},
		governance.DefaultParams(),
		now,
	)
	require.NoError(t, err)
	executed := now.Add(time.Hour)
	p.ExecutedAt = &executed
	p.Endorsers = []string{"bob", "carol"}
	p.TreasuryTxID = "tx-1"

	got := NewProposal(p).Domain()
	assert.Equal(t, p, got)
}

func TestVoteConversion(t *testing.T) {
	v := governance.Vote{
		ID:           "v1",
		ProposalID:   "p1",
		Voter:        "bob",
		VoterAccount: "bob-wallet",
		Choice:       governance.ChoiceAgainst,
		Weight:       decimal.RequireFromString("150.5"),
		CastAt:       time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
	}
	assert.Equal(t, v, NewVote(v).Domain())
}
