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
	"time"

	"github.com/shopspring/decimal"
)

var transitions = map[Status][]Status{
	StatusDraft:      {StatusDiscussion, StatusCancelled},
	StatusDiscussion: {StatusVoting, StatusCancelled},
	StatusVoting:     {StatusPassed, StatusFailed},
	StatusPassed:     {StatusExecuted},
}

// ValidTransition returns true if a proposal may move directly from one status to another
func ValidTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Decide closes a vote. Quorum is checked first and overrides the split. Abstain weight
// counts toward quorum but not toward the majority ratio, and the comparison is strict so
// a tie at the threshold fails.
func Decide(tally Tally, quorum, majority decimal.Decimal) Status {
	if tally.Total.LessThan(quorum) {
		return StatusFailed
	}
	if tally.For.GreaterThan(tally.For.Add(tally.Against).Mul(majority)) {
		return StatusPassed
	}
	return StatusFailed
}

// NextTransition returns the status that time alone moves the proposal to at now
func NextTransition(p Proposal, now time.Time) (Status, bool) {
	switch p.Status {
	case StatusDiscussion:
		if !now.Before(p.DiscussionEnd) {
			return StatusVoting, true
		}
	case StatusVoting:
		if !now.Before(p.VotingEnd) {
			return Decide(p.Tally, p.Quorum, p.Majority), true
		}
	}
	return "", false
}

// Settle applies every elapsed time based transition and returns the resulting proposal
// along with the statuses passed through. The input is not modified.
func Settle(p Proposal, now time.Time) (Proposal, []Status, error) {
	var (
		steps []Status
		err   error
	)
	for {
		next, ok := NextTransition(p, now)
		if !ok {
			return p, steps, nil
		}
		p, err = StatusPatch(next).Apply(p)
		if err != nil {
			return Proposal{}, nil, err
		}
		steps = append(steps, next)
	}
}
