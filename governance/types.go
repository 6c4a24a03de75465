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

import "fmt"

// Status is the lifecycle phase of a proposal
type Status string

const (
	StatusDraft      Status = "draft"
	StatusDiscussion Status = "discussion"
	StatusVoting     Status = "voting"
	StatusPassed     Status = "passed"
	StatusFailed     Status = "failed"
	StatusExecuted   Status = "executed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every proposal status in lifecycle order
var Statuses = []Status{
	StatusDraft,
	StatusDiscussion,
	StatusVoting,
	StatusPassed,
	StatusFailed,
	StatusExecuted,
	StatusCancelled,
}

// Valid returns true if the Status is a known value
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusDiscussion, StatusVoting, StatusPassed,
		StatusFailed, StatusExecuted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true for statuses that admit no further transitions
func (s Status) Terminal() bool {
	switch s {
	case StatusFailed, StatusExecuted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Decided returns true once the vote has been closed, whatever came after
func (s Status) Decided() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusExecuted:
		return true
	default:
		return false
	}
}

// ParseStatus converts a string into a Status
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, value)
	}
	return s, nil
}

// Category is the ProposalType of a proposal. The set is closed.
type Category string

const (
	CategoryPlatformDevelopment Category = "platformDevelopment"
	CategoryEconomicPolicy      Category = "economicPolicy"
	CategoryTreasuryManagement  Category = "treasuryManagement"
	CategoryGovernance          Category = "governance"
	CategoryEmergency           Category = "emergency"
)

// Categories lists every proposal category
var Categories = []Category{
	CategoryPlatformDevelopment,
	CategoryEconomicPolicy,
	CategoryTreasuryManagement,
	CategoryGovernance,
	CategoryEmergency,
}

// Valid returns true if the Category is part of the closed set
func (c Category) Valid() bool {
	switch c {
	case CategoryPlatformDevelopment, CategoryEconomicPolicy,
		CategoryTreasuryManagement, CategoryGovernance, CategoryEmergency:
		return true
	default:
		return false
	}
}

// ParseCategory converts a string into a Category
func ParseCategory(value string) (Category, error) {
	c := Category(value)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, value)
	}
	return c, nil
}

// Choice is the option selected by a voter
type Choice string

const (
	ChoiceFor     Choice = "for"
	ChoiceAgainst Choice = "against"
	ChoiceAbstain Choice = "abstain"
)

// Valid returns true if the Choice is a known value
func (c Choice) Valid() bool {
	switch c {
	case ChoiceFor, ChoiceAgainst, ChoiceAbstain:
		return true
	default:
		return false
	}
}

// ParseChoice converts a string into a Choice
func ParseChoice(value string) (Choice, error) {
	c := Choice(value)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown vote choice %q", ErrInvalidArgument, value)
	}
	return c, nil
}
