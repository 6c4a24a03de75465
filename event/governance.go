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

package event

import (
	"github.com/decentramind-labs/govengine/governance"
	"github.com/shopspring/decimal"
)

const (
	ProposalCreatedEventType  EventType = "governance.proposal.created"
	ProposalEndorsedEventType EventType = "governance.proposal.endorsed"
	ProposalStatusEventType   EventType = "governance.proposal.status"
	VoteCastEventType         EventType = "governance.vote.cast"
	TreasuryTxEventType       EventType = "governance.treasury.transaction"
)

// ProposalCreatedEvent is published after a proposal is stored
type ProposalCreatedEvent struct {
	ProposalID string
	Creator    string
	Category   governance.Category
}

// ProposalEndorsedEvent is published after an endorsement is recorded
type ProposalEndorsedEvent struct {
	ProposalID   string
	Endorser     string
	Endorsements int
}

// ProposalStatusEvent is published for every status transition
type ProposalStatusEvent struct {
	ProposalID string
	From       governance.Status
	To         governance.Status
}

// VoteCastEvent is published after a vote and its tally update are committed
type VoteCastEvent struct {
	ProposalID string
	Voter      string
	Choice     governance.Choice
	Weight     decimal.Decimal
	Tally      governance.Tally
}

// TreasuryTxEvent is published when a treasury transaction is created or changes status
type TreasuryTxEvent struct {
	TransactionID string
	ProposalID    string
	Status        governance.TxStatus
	Approvals     int
}
