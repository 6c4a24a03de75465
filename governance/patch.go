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
	"time"

	"github.com/shopspring/decimal"
)

// Patch describes a change to a stored proposal. Nil fields are left unchanged.
//
// Only the lifecycle fields may be set. The content fields exist so that an
// attempt to change them can be rejected with ErrImmutableField rather than
// silently ignored.
type Patch struct {
	Status        *Status
	Tally         *Tally
	Endorsers     []string
	DiscussionEnd *time.Time
	VotingStart   *time.Time
	VotingEnd     *time.Time
	ExecutedAt    *time.Time
	TreasuryTxID  *string

	Title       *string
	Description *string
	Category    *Category
	Creator     *string
	Quorum      *decimal.Decimal
	Majority    *decimal.Decimal
}

// StatusPatch returns a patch that only changes the status
func StatusPatch(status Status) Patch {
	return Patch{Status: &status}
}

func (p Patch) immutable() []string {
	var ret []string
	if p.Title != nil {
		ret = append(ret, "title")
	}
	if p.Description != nil {
		ret = append(ret, "description")
	}
	if p.Category != nil {
		ret = append(ret, "category")
	}
	if p.Creator != nil {
		ret = append(ret, "creator")
	}
	if p.Quorum != nil {
		ret = append(ret, "quorum")
	}
	if p.Majority != nil {
		ret = append(ret, "majority")
	}
	return ret
}

// Apply returns a copy of the proposal with the patch applied and the revision bumped.
// The input proposal is never modified.
func (p Patch) Apply(current Proposal) (Proposal, error) {
	if fields := p.immutable(); len(fields) > 0 {
		return Proposal{}, fmt.Errorf("%w: %v", ErrImmutableField, fields)
	}
	if current.Status.Terminal() {
		return Proposal{}, NewPhaseError("update", current.Status)
	}
	next := current.Clone()
	if p.Status != nil && *p.Status != current.Status {
		if !ValidTransition(current.Status, *p.Status) {
			return Proposal{}, &PhaseError{
				Operation: fmt.Sprintf("transition to %s", *p.Status),
				Status:    string(current.Status),
			}
		}
		next.Status = *p.Status
	}
	if p.Tally != nil && !p.Tally.Equal(current.Tally) {
		if current.Status != StatusVoting {
			return Proposal{}, NewPhaseError("tally update", current.Status)
		}
		if !current.Tally.covers(*p.Tally) {
			return Proposal{}, fmt.Errorf("%w: tally may not decrease", ErrImmutableField)
		}
		if !p.Tally.Consistent() {
			return Proposal{}, fmt.Errorf(
				"%w: total %s does not match bucket sum",
				ErrInvalidArgument,
				p.Tally.Total.String(),
			)
		}
		next.Tally = *p.Tally
	}
	if p.Endorsers != nil && !slices.Equal(p.Endorsers, current.Endorsers) {
		if current.Status != StatusDraft {
			return Proposal{}, NewPhaseError("endorsement", current.Status)
		}
		// endorsements are append-only
		if len(p.Endorsers) < len(current.Endorsers) ||
			!slices.Equal(p.Endorsers[:len(current.Endorsers)], current.Endorsers) {
			return Proposal{}, fmt.Errorf("%w: endorsers may only be appended", ErrImmutableField)
		}
		next.Endorsers = slices.Clone(p.Endorsers)
	}
	if p.DiscussionEnd != nil {
		next.DiscussionEnd = *p.DiscussionEnd
	}
	if p.VotingStart != nil {
		next.VotingStart = *p.VotingStart
	}
	if p.VotingEnd != nil {
		next.VotingEnd = *p.VotingEnd
	}
	if !next.VotingStart.Equal(next.DiscussionEnd) {
		return Proposal{}, fmt.Errorf(
			"%w: voting start must equal discussion end",
			ErrInvalidArgument,
		)
	}
	if !next.VotingEnd.After(next.VotingStart) {
		return Proposal{}, fmt.Errorf(
			"%w: voting end must be after voting start",
			ErrInvalidArgument,
		)
	}
	if p.ExecutedAt != nil {
		if next.Status != StatusExecuted {
			return Proposal{}, NewPhaseError("set execution time", next.Status)
		}
		t := *p.ExecutedAt
		next.ExecutedAt = &t
	}
	if p.TreasuryTxID != nil {
		if next.TreasuryTxID != "" && next.TreasuryTxID != *p.TreasuryTxID {
			return Proposal{}, fmt.Errorf("%w: treasury transaction already linked", ErrImmutableField)
		}
		next.TreasuryTxID = *p.TreasuryTxID
	}
	next.Revision = current.Revision + 1
	return next, nil
}
