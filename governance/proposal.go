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
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tally holds the accumulated vote weight of a proposal
type Tally struct {
	For     decimal.Decimal `json:"for"`
	Against decimal.Decimal `json:"against"`
	Abstain decimal.Decimal `json:"abstain"`
	Total   decimal.Decimal `json:"total"`
}

// Add returns a copy of the tally with weight added to the bucket for choice and to the total
func (t Tally) Add(choice Choice, weight decimal.Decimal) Tally {
	switch choice {
	case ChoiceFor:
		t.For = t.For.Add(weight)
	case ChoiceAgainst:
		t.Against = t.Against.Add(weight)
	case ChoiceAbstain:
		t.Abstain = t.Abstain.Add(weight)
	default:
		return t
	}
	t.Total = t.Total.Add(weight)
	return t
}

// Consistent returns true if the total equals the sum of the buckets
func (t Tally) Consistent() bool {
	return t.Total.Equal(t.For.Add(t.Against).Add(t.Abstain))
}

// Equal returns true if every bucket of both tallies is numerically equal
func (t Tally) Equal(o Tally) bool {
	return t.For.Equal(o.For) &&
		t.Against.Equal(o.Against) &&
		t.Abstain.Equal(o.Abstain) &&
		t.Total.Equal(o.Total)
}

// covers returns true if no bucket of o is below the matching bucket of t
func (t Tally) covers(o Tally) bool {
	return !o.For.LessThan(t.For) &&
		!o.Against.LessThan(t.Against) &&
		!o.Abstain.LessThan(t.Abstain) &&
		!o.Total.LessThan(t.Total)
}

// Proposal is a governance change request
type Proposal struct {
	ID             string              `json:"id"`
	Creator        string              `json:"creator"`
	CreatorAccount string              `json:"creatorAccount"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Category       Category            `json:"category"`
	FundingAmount  decimal.NullDecimal `json:"fundingAmount"`
	Tags           []string            `json:"tags"`
	Status         Status              `json:"status"`
	CreatedAt      time.Time           `json:"createdAt"`
	DiscussionEnd  time.Time           `json:"discussionEnd"`
	VotingStart    time.Time           `json:"votingStart"`
	VotingEnd      time.Time           `json:"votingEnd"`
	ExecutedAt     *time.Time          `json:"executedAt,omitempty"`
	Quorum         decimal.Decimal     `json:"quorum"`
	Majority       decimal.Decimal     `json:"majority"`
	Tally          Tally               `json:"tally"`
	Endorsers      []string            `json:"endorsers"`
	TreasuryTxID   string              `json:"treasuryTxId,omitempty"`
	Revision       uint64              `json:"revision"`
}

// Clone returns a deep copy of the proposal
func (p Proposal) Clone() Proposal {
	p.Tags = slices.Clone(p.Tags)
	p.Endorsers = slices.Clone(p.Endorsers)
	if p.ExecutedAt != nil {
		t := *p.ExecutedAt
		p.ExecutedAt = &t
	}
	return p
}

// Endorsed returns true if identity is among the endorsers
func (p Proposal) Endorsed(identity string) bool {
	return slices.Contains(p.Endorsers, identity)
}

// VotingOpen returns true if a vote cast at now is inside the voting window
func (p Proposal) VotingOpen(now time.Time) bool {
	return p.Status == StatusVoting &&
		!now.Before(p.VotingStart) &&
		now.Before(p.VotingEnd)
}

// Funding returns the requested funding, or zero if none was requested
func (p Proposal) Funding() decimal.Decimal {
	if !p.FundingAmount.Valid {
		return decimal.Zero
	}
	return p.FundingAmount.Decimal
}

// ProposalRequest holds the caller supplied content of a new proposal
type ProposalRequest struct {
	Creator        string              `json:"creator"`
	CreatorAccount string              `json:"creatorAccount"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Category       Category            `json:"category"`
	FundingAmount  decimal.NullDecimal `json:"fundingAmount"`
	Tags           []string            `json:"tags"`
}

// Validate checks the request content
func (r ProposalRequest) Validate() error {
	if strings.TrimSpace(r.Creator) == "" {
		return fmt.Errorf("%w: creator must not be empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidArgument)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, r.Category)
	}
	if r.FundingAmount.Valid && r.FundingAmount.Decimal.IsNegative() {
		return fmt.Errorf(
			"%w: funding amount must not be negative, got %s",
			ErrInvalidArgument,
			r.FundingAmount.Decimal.String(),
		)
	}
	return nil
}

// NormalizeTags trims tags, drops empty ones and removes duplicates keeping first occurrence order
func NormalizeTags(tags []string) []string {
	ret := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(ret, tag) {
			continue
		}
		ret = append(ret, tag)
	}
	return ret
}

// NewProposal builds a draft proposal from a validated request. The windows are derived from
// the category timing and the thresholds are fixed for the life of the proposal.
func NewProposal(
	id string,
	req ProposalRequest,
	params Params,
	now time.Time,
) (Proposal, error) {
	if err := req.Validate(); err != nil {
		return Proposal{}, err
	}
	cp, ok := params.Categories[req.Category]
	if !ok {
		return Proposal{}, fmt.Errorf(
			"%w: no parameters for category %q",
			ErrInvalidArgument,
			req.Category,
		)
	}
	thresholds, err := params.Thresholds(req.Category)
	if err != nil {
		return Proposal{}, err
	}
	account := req.CreatorAccount
	if account == "" {
		account = req.Creator
	}
	discussionEnd := now.Add(cp.DiscussionPeriod)
	return Proposal{
		ID:             id,
		Creator:        req.Creator,
		CreatorAccount: account,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Category:       req.Category,
		FundingAmount:  req.FundingAmount,
		Tags:           NormalizeTags(req.Tags),
		Status:         StatusDraft,
		CreatedAt:      now,
		DiscussionEnd:  discussionEnd,
		VotingStart:    discussionEnd,
		VotingEnd:      discussionEnd.Add(cp.VotingPeriod),
		Quorum:         thresholds.Quorum,
		Majority:       thresholds.Majority,
		Tally: Tally{
			For:     decimal.Zero,
			Against: decimal.Zero,
			Abstain: decimal.Zero,
			Total:   decimal.Zero,
		},
		Endorsers: []string{},
		Revision:  1,
	}, nil
}

// Vote is a single weighted vote on a proposal
type Vote struct {
	ID           string          `json:"id"`
	ProposalID   string          `json:"proposalId"`
	Voter        string          `json:"voter"`
	VoterAccount string          `json:"voterAccount"`
	Choice       Choice          `json:"choice"`
	Weight       decimal.Decimal `json:"weight"`
	CastAt       time.Time       `json:"castAt"`
}

// VoteRequest holds the caller supplied content of a vote
type VoteRequest struct {
	ProposalID   string `json:"proposalId"`
	Voter        string `json:"voter"`
	VoterAccount string `json:"voterAccount"`
	Choice       Choice `json:"choice"`
}

// Validate checks the request content
func (r VoteRequest) Validate() error {
	if r.ProposalID == "" {
		return fmt.Errorf("%w: proposal id must not be empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(r.Voter) == "" {
		return fmt.Errorf("%w: voter must not be empty", ErrInvalidArgument)
	}
	if !r.Choice.Valid() {
		return fmt.Errorf("%w: unknown vote choice %q", ErrInvalidArgument, r.Choice)
	}
	return nil
}

// Filter selects proposals for listing. Zero fields match everything.
type Filter struct {
	Status   Status   `json:"status,omitempty"`
	Category Category `json:"category,omitempty"`
	Creator  string   `json:"creator,omitempty"`
	// Limit caps the number of results, 0 means no limit
	Limit int `json:"limit,omitempty"`
}

// Validate checks the filter values
func (f Filter) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, f.Status)
	}
	if f.Category != "" && !f.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, f.Category)
	}
	if f.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidArgument)
	}
	return nil
}

// Match returns true if the proposal satisfies the filter
func (f Filter) Match(p Proposal) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Creator != "" && p.Creator != f.Creator {
		return false
	}
	return true
}
