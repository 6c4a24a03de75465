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
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func votingProposal(t *testing.T) Proposal {
	t.Helper()
	p := testProposal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	p.Status = StatusVoting
	return p
}

func TestPatchImmutableFields(t *testing.T) {
	p := votingProposal(t)
	title := "other"
	category := CategoryEmergency
	quorum := decimal.NewFromInt(1)
	for _, patch := range []Patch{
		{Title: &title},
		{Description: &title},
		{Creator: &title},
		{Category: &category},
		{Quorum: &quorum},
		{Majority: &quorum},
	} {
		_, err := patch.Apply(p)
		require.ErrorIs(t, err, ErrImmutableField)
	}
}

func TestPatchTally(t *testing.T) {
	p := votingProposal(t)
	next := p.Tally.Add(ChoiceFor, d("150"))
	updated, err := Patch{Tally: &next}.Apply(p)
	require.NoError(t, err)
	assert.True(t, updated.Tally.For.Equal(d("150")))
	assert.True(t, updated.Tally.Total.Equal(d("150")))
	assert.Equal(t, p.Revision+1, updated.Revision)
	assert.True(t, p.Tally.Total.IsZero(), "input proposal must not change")

	// decrease
	lower := updated.Tally
	lower.For = d("100")
	lower.Total = d("100")
	_, err = Patch{Tally: &lower}.Apply(updated)
	require.ErrorIs(t, err, ErrImmutableField)

	// inconsistent total
	bad := updated.Tally
	bad.Against = d("10")
	_, err = Patch{Tally: &bad}.Apply(updated)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// outside voting
	draft := p
	draft.Status = StatusDraft
	_, err = Patch{Tally: &next}.Apply(draft)
	require.ErrorIs(t, err, ErrInvalidPhase)
	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, "draft", phaseErr.Status)
}

func TestPatchTerminalFrozen(t *testing.T) {
	for _, s := range []Status{StatusFailed, StatusExecuted, StatusCancelled} {
		p := votingProposal(t)
		p.Status = s
		id := "tx"
		for _, patch := range []Patch{
			StatusPatch(StatusVoting),
			{TreasuryTxID: &id},
			{Endorsers: []string{"bob"}},
		} {
			_, err := patch.Apply(p)
			require.ErrorIs(t, err, ErrInvalidPhase, "status %s", s)
		}
	}
}

func TestPatchStatus(t *testing.T) {
	p := votingProposal(t)
	_, err := StatusPatch(StatusExecuted).Apply(p)
	require.ErrorIs(t, err, ErrInvalidPhase)
	_, err = StatusPatch(StatusCancelled).Apply(p)
	require.ErrorIs(t, err, ErrInvalidPhase)
	passed, err := StatusPatch(StatusPassed).Apply(p)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, passed.Status)

	now := time.Now()
	// execution time only with execution
	_, err = Patch{ExecutedAt: &now}.Apply(passed)
	require.ErrorIs(t, err, ErrInvalidPhase)
	executed := StatusExecuted
	done, err := Patch{Status: &executed, ExecutedAt: &now}.Apply(passed)
	require.NoError(t, err)
	require.NotNil(t, done.ExecutedAt)
	assert.Equal(t, now, *done.ExecutedAt)
}

func TestPatchEndorsers(t *testing.T) {
	p := votingProposal(t)
	p.Status = StatusDraft
	p.Endorsers = []string{"bob"}
	updated, err := Patch{Endorsers: []string{"bob", "carol"}}.Apply(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, updated.Endorsers)

	_, err = Patch{Endorsers: []string{"carol"}}.Apply(p)
	require.ErrorIs(t, err, ErrImmutableField)

	p.Status = StatusDiscussion
	_, err = Patch{Endorsers: []string{"bob", "carol"}}.Apply(p)
	require.ErrorIs(t, err, ErrInvalidPhase)
}

func TestPatchWindowInvariant(t *testing.T) {
	p := votingProposal(t)
	shifted := p.DiscussionEnd.Add(time.Hour)
	_, err := Patch{DiscussionEnd: &shifted}.Apply(p)
	require.ErrorIs(t, err, ErrInvalidArgument)
	updated, err := Patch{DiscussionEnd: &shifted, VotingStart: &shifted}.Apply(p)
	require.NoError(t, err)
	assert.Equal(t, shifted, updated.VotingStart)
	end := shifted
	_, err = Patch{VotingEnd: &end}.Apply(updated)
	require.ErrorIs(t, err, ErrInvalidArgument)
}
