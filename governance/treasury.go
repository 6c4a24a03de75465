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

// TxKind is the purpose of a treasury transaction
type TxKind string

const (
	TxKindSpending   TxKind = "spending"
	TxKindReceiving  TxKind = "receiving"
	TxKindInvestment TxKind = "investment"
	TxKindEmergency  TxKind = "emergency"
)

// Valid returns true if the TxKind is a known value
func (k TxKind) Valid() bool {
	switch k {
	case TxKindSpending, TxKindReceiving, TxKindInvestment, TxKindEmergency:
		return true
	default:
		return false
	}
}

// TxStatus is the approval state of a treasury transaction
type TxStatus string

const (
	TxStatusPending  TxStatus = "pending"
	TxStatusApproved TxStatus = "approved"
	TxStatusExecuted TxStatus = "executed"
	TxStatusRejected TxStatus = "rejected"
)

// Valid returns true if the TxStatus is a known value
func (s TxStatus) Valid() bool {
	switch s {
	case TxStatusPending, TxStatusApproved, TxStatusExecuted, TxStatusRejected:
		return true
	default:
		return false
	}
}

// Terminal returns true once the transaction can no longer change
func (s TxStatus) Terminal() bool {
	return s == TxStatusExecuted || s == TxStatusRejected
}

// TreasuryTransaction is a multisig gated movement of treasury funds
type TreasuryTransaction struct {
	ID          string          `json:"id"`
	Kind        TxKind          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Sender      string          `json:"sender"`
	Recipient   string          `json:"recipient"`
	Description string          `json:"description"`
	ProposalID  string          `json:"proposalId,omitempty"`
	Threshold   int             `json:"threshold"`
	Approvers   []string        `json:"approvers"`
	Status      TxStatus        `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	ExecutedAt  *time.Time      `json:"executedAt,omitempty"`
	RejectedBy  string          `json:"rejectedBy,omitempty"`
}

// Clone returns a deep copy of the transaction
func (t TreasuryTransaction) Clone() TreasuryTransaction {
	t.Approvers = slices.Clone(t.Approvers)
	if t.ExecutedAt != nil {
		e := *t.ExecutedAt
		t.ExecutedAt = &e
	}
	return t
}

// Approved returns true if the approver set has reached the threshold
func (t TreasuryTransaction) Approved() bool {
	return len(t.Approvers) >= t.Threshold
}

// HasApprover returns true if identity already approved the transaction
func (t TreasuryTransaction) HasApprover(identity string) bool {
	return slices.Contains(t.Approvers, identity)
}

// TransactionRequest holds the content of a new treasury transaction
type TransactionRequest struct {
	Kind        TxKind          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Recipient   string          `json:"recipient"`
	Description string          `json:"description"`
	ProposalID  string          `json:"proposalId,omitempty"`
}

// Validate checks the request content
func (r TransactionRequest) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown transaction kind %q", ErrInvalidArgument, r.Kind)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf(
			"%w: amount must be positive, got %s",
			ErrInvalidArgument,
			r.Amount.String(),
		)
	}
	if strings.TrimSpace(r.Recipient) == "" {
		return fmt.Errorf("%w: recipient must not be empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(r.Currency) == "" {
		return fmt.Errorf("%w: currency must not be empty", ErrInvalidArgument)
	}
	return nil
}
