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
	"github.com/decentramind-labs/govengine/governance"
	"github.com/shopspring/decimal"
)

// Vote is the stored form of a vote. A voter has at most one vote per proposal.
type Vote struct {
	ID           uint            `gorm:"primarykey"`
	VoteID       string          `gorm:"uniqueIndex;size:36;not null"`
	ProposalID   string          `gorm:"index:idx_vote_proposal;uniqueIndex:idx_vote_unique,priority:1;size:36;not null"`
	Voter        string          `gorm:"uniqueIndex:idx_vote_unique,priority:2;not null"`
	VoterAccount string          `gorm:"not null"`
	Choice       string          `gorm:"not null"`
	Weight       decimal.Decimal `gorm:"type:text;not null"`
	CastAt       int64           `gorm:"index;not null"`
}

// TableName returns the table name
func (Vote) TableName() string {
	return "vote"
}

// NewVote converts a domain vote into its stored form
func NewVote(v governance.Vote) *Vote {
	return &Vote{
		VoteID:       v.ID,
		ProposalID:   v.ProposalID,
		Voter:        v.Voter,
		VoterAccount: v.VoterAccount,
		Choice:       string(v.Choice),
		Weight:       v.Weight,
		CastAt:       toNanos(v.CastAt),
	}
}

// Domain converts the stored form into a domain vote
func (v *Vote) Domain() governance.Vote {
	return governance.Vote{
		ID:           v.VoteID,
		ProposalID:   v.ProposalID,
		Voter:        v.Voter,
		VoterAccount: v.VoterAccount,
		Choice:       governance.Choice(v.Choice),
		Weight:       v.Weight,
		CastAt:       fromNanos(v.CastAt),
	}
}
