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
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientCreatorBalance is returned when a proposal creator holds less than the admission minimum
	ErrInsufficientCreatorBalance = errors.New("insufficient creator balance")

	// ErrInsufficientPower is returned when a voter or endorser has less weight than required
	ErrInsufficientPower = errors.New("insufficient voting power")

	// ErrInvalidPhase is returned for an operation attempted outside its valid state
	ErrInvalidPhase = errors.New("invalid phase")

	// ErrAlreadyEndorsed is returned when an identity endorses the same proposal twice
	ErrAlreadyEndorsed = errors.New("already endorsed")

	// ErrDuplicateVote is returned when a voter votes on the same proposal twice
	ErrDuplicateVote = errors.New("duplicate vote")

	// ErrAlreadyExecuted is returned when executing something that was already executed
	ErrAlreadyExecuted = errors.New("already executed")

	// ErrImmutableField is returned when a frozen field is the target of an update
	ErrImmutableField = errors.New("immutable field")

	// ErrNotApproved is returned when a treasury transaction lacks enough approvals
	ErrNotApproved = errors.New("not approved")

	// ErrProviderUnavailable is returned when an external dependency times out or fails
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNotFound is returned when a proposal or treasury transaction does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for malformed requests
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthorized is returned when the actor may not perform the operation
	ErrUnauthorized = errors.New("unauthorized")
)

// PhaseError describes an operation rejected because of the current status
type PhaseError struct {
	Operation string
	Status    string
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf(
		"%s: operation %q not allowed in status %q",
		ErrInvalidPhase,
		e.Operation,
		e.Status,
	)
}

func (e *PhaseError) Unwrap() error {
	return ErrInvalidPhase
}

// NewPhaseError creates a PhaseError for the given operation and status
func NewPhaseError[S ~string](operation string, status S) error {
	return &PhaseError{Operation: operation, Status: string(status)}
}

// PowerError describes a balance or weight that did not meet a threshold.
// Err is either ErrInsufficientPower or ErrInsufficientCreatorBalance.
type PowerError struct {
	Err      error
	Identity string
	Have     decimal.Decimal
	Need     decimal.Decimal
}

func (e *PowerError) Error() string {
	return fmt.Sprintf(
		"%s: identity %s has %s, needs %s",
		e.Err,
		e.Identity,
		e.Have.String(),
		e.Need.String(),
	)
}

func (e *PowerError) Unwrap() error {
	return e.Err
}

// Unavailable classifies a failure of an external collaborator (balance provider,
// persistent store, funds transfer) as ErrProviderUnavailable. Errors that are
// already classified pass through unchanged.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrProviderUnavailable, err)
}

var taxonomy = []error{
	ErrInsufficientCreatorBalance,
	ErrInsufficientPower,
	ErrInvalidPhase,
	ErrAlreadyEndorsed,
	ErrDuplicateVote,
	ErrAlreadyExecuted,
	ErrImmutableField,
	ErrNotApproved,
	ErrProviderUnavailable,
	ErrNotFound,
	ErrInvalidArgument,
	ErrUnauthorized,
}

// Classified returns true if err wraps one of the package sentinel errors
func Classified(err error) bool {
	return Kind(err) != nil
}

// Kind returns the sentinel error wrapped by err, or nil if it has none
func Kind(err error) error {
	for _, sentinel := range taxonomy {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// KindName returns a short stable label for the kind of err, for metrics and logs
func KindName(err error) string {
	switch Kind(err) {
	case ErrInsufficientCreatorBalance:
		return "insufficient_creator_balance"
	case ErrInsufficientPower:
		return "insufficient_power"
	case ErrInvalidPhase:
		return "invalid_phase"
	case ErrAlreadyEndorsed:
		return "already_endorsed"
	case ErrDuplicateVote:
		return "duplicate_vote"
	case ErrAlreadyExecuted:
		return "already_executed"
	case ErrImmutableField:
		return "immutable_field"
	case ErrNotApproved:
		return "not_approved"
	case ErrProviderUnavailable:
		return "provider_unavailable"
	case ErrNotFound:
		return "not_found"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}
