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
	"time"

	"github.com/decentramind-labs/govengine/database/types"
	"github.com/decentramind-labs/govengine/governance"
	"github.com/shopspring/decimal"
)

// Proposal is the stored form of a governance proposal. Timestamps are unix
// nanoseconds so that ordering in SQL is exact.
type Proposal struct {
	ID             uint                `gorm:"primarykey"`
	ProposalID     string              `gorm:"uniqueIndex;size:36;not null"`
	Creator        string              `gorm:"index;not null"`
	CreatorAccount string              `gorm:"not null"`
	Title          string              `gorm:"not null"`
	Description    string              `gorm:"not null"`
	Category       string              `gorm:"index;not null"`
	FundingAmount  decimal.NullDecimal `gorm:"type:text"`
	Tags           types.StringList    `gorm:"type:text;not null"`
	Status         string              `gorm:"index;not null"`
	CreatedAt      int64               `gorm:"index;not null;autoCreateTime:false"`
	DiscussionEnd  int64               `gorm:"not null"`
	VotingStart    int64               `gorm:"not null"`
	VotingEnd      int64               `gorm:"not null"`
	ExecutedAt     *int64
	Quorum         decimal.Decimal  `gorm:"type:text;not null"`
	Majority       decimal.Decimal  `gorm:"type:text;not null"`
	ForVotes       decimal.Decimal  `gorm:"type:text;not null"`
	AgainstVotes   decimal.Decimal  `gorm:"type:text;not null"`
	AbstainVotes   decimal.Decimal  `gorm:"type:text;not null"`
	TotalVotes     decimal.Decimal  `gorm:"type:text;not null"`
	Endorsers      types.StringList `gorm:"type:text;not null"`
	TreasuryTxID   string           `gorm:"size:36"`
	Revision       uint64           `gorm:"not null"`
}

// TableName returns the table name
func (Proposal) TableName() string {
	return "proposal"
}

func toNanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// NewProposal converts a domain proposal into its stored form
func NewProposal(p governance.Proposal) *Proposal {
	ret := &Proposal{
		ProposalID:     p.ID,
		Creator:        p.Creator,
		CreatorAccount: p.CreatorAccount,
		Title:          p.Title,
		Description:    p.Description,
		Category:       string(p.Category),
		FundingAmount:  p.FundingAmount,
		Tags:           types.StringList(p.Tags),
		Status:         string(p.Status),
		CreatedAt:      toNanos(p.CreatedAt),
		DiscussionEnd:  toNanos(p.DiscussionEnd),
		VotingStart:    toNanos(p.VotingStart),
		VotingEnd:      toNanos(p.VotingEnd),
		Quorum:         p.Quorum,
		Majority:       p.Majority,
		ForVotes:       p.Tally.For,
		AgainstVotes:   p.Tally.Against,
		AbstainVotes:   p.Tally.Abstain,
		TotalVotes:     p.Tally.Total,
		Endorsers:      types.StringList(p.Endorsers),
		TreasuryTxID:   p.TreasuryTxID,
		Revision:       p.Revision,
	}
	if p.ExecutedAt != nil {
		tmp := toNanos(*p.ExecutedAt)
		ret.ExecutedAt = &tmp
	}
	return ret
}

// Domain converts the stored form into a domain proposal
func (p *Proposal) Domain() governance.Proposal {
	ret := governance.Proposal{
		ID:             p.ProposalID,
		Creator:        p.Creator,
		CreatorAccount: p.CreatorAccount,
		Title:          p.Title,
		Description:    p.Description,
		Category:       governance.Category(p.Category),
		FundingAmount:  p.FundingAmount,
		Tags:           append([]string{}, p.Tags...),
		Status:         governance.Status(p.Status),
		CreatedAt:      fromNanos(p.CreatedAt),
		DiscussionEnd:  fromNanos(p.DiscussionEnd),
		VotingStart:    fromNanos(p.VotingStart),
		VotingEnd:      fromNanos(p.VotingEnd),
		Quorum:         p.Quorum,
		Majority:       p.Majority,
		Tally: governance.Tally{
			For:     p.ForVotes,
			Against: p.AgainstVotes,
			Abstain: p.AbstainVotes,
			Total:   p.TotalVotes,
		},
		Endorsers:    append([]string{}, p.Endorsers...),
		TreasuryTxID: p.TreasuryTxID,
		Revision:     p.Revision,
	}
	if p.ExecutedAt != nil {
		tmp := fromNanos(*p.ExecutedAt)
		ret.ExecutedAt = &tmp
	}
	return ret
}
