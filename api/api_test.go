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

package api_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/decentramind-labs/govengine"
	"github.com/decentramind-labs/govengine/api"
	"github.com/decentramind-labs/govengine/database"
	"github.com/decentramind-labs/govengine/governance"
	"github.com/decentramind-labs/govengine/holdings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestServer(t *testing.T) (*api.Client, *holdings.Ledger, *testClock) {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ledger := holdings.New(holdings.DefaultCurrency, nil)
	clock := &testClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	params := governance.DefaultParams()
	params.CirculatingSupply = decimal.NewFromInt(10_000)
	engine, err := govengine.New(govengine.NewConfig(
		govengine.WithDatabase(db),
		govengine.WithProvider(ledger),
		govengine.WithFundsTransfer(ledger),
		govengine.WithPrometheusRegistry(prometheus.NewRegistry()),
		govengine.WithParams(params),
		govengine.WithClock(clock.Now),
	))
	require.NoError(t, err)
	server := httptest.NewServer(api.NewAPI(api.APIConfig{Engine: engine}).Handler())
	t.Cleanup(server.Close)
	return api.NewClient(server.Client(), server.URL), ledger, clock
}

func fund(t *testing.T, ledger *holdings.Ledger, identity string, balance int64) {
	t.Helper()
	require.NoError(t, ledger.SetAccount(identity, holdings.Account{
		Balance: decimal.NewFromInt(balance),
		Staked:  decimal.Zero,
	}))
}

func TestProposalLifecycle(t *testing.T) {
	client, ledger, clock := newTestServer(t)
	ctx := context.Background()
	fund(t, ledger, "creator", 1000)
	fund(t, ledger, "treasury", 10_000)

	p, err := client.CreateProposal(ctx, governance.ProposalRequest{
		Creator:       "creator",
		Title:         "Fund the indexer",
		Category:      governance.CategoryTreasuryManagement,
		FundingAmount: decimal.NewNullDecimal(decimal.NewFromInt(2500)),
	})
	require.NoError(t, err)
	assert.Equal(t, governance.StatusDraft, p.Status)
	assert.True(t, p.FundingAmount.Decimal.Equal(decimal.NewFromInt(2500)))

	for _, endorser := range []string{"e1", "e2", "e3"} {
		fund(t, ledger, endorser, 100)
		p, err = client.Endorse(ctx, p.ID, endorser)
		require.NoError(t, err)
	}
	assert.Equal(t, governance.StatusDiscussion, p.Status)

	clock.Set(p.DiscussionEnd)
	fund(t, ledger, "alice", 2100)
	res, err := client.CastVote(ctx, governance.VoteRequest{
		ProposalID: p.ID,
		Voter:      "alice",
		Choice:     governance.ChoiceFor,
	})
	require.NoError(t, err)
	assert.True(t, res.Vote.Weight.Equal(decimal.NewFromInt(2100)))
	assert.Equal(t, governance.StatusVoting, res.Proposal.Status)

	votes, err := client.ListVotes(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "alice", votes[0].Voter)

	clock.Set(p.VotingEnd)
	p, err = client.Advance(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, governance.StatusPassed, p.Status)

	exec, err := client.Execute(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, governance.StatusExecuted, exec.Proposal.Status)
	require.NotNil(t, exec.Transaction)
	txID := exec.Transaction.ID

	txs, err := client.ListTransactions(ctx, api.ListTransactionsRequest{ProposalID: p.ID})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, txID, txs[0].ID)

	for _, signer := range []string{"s1", "s2", "s3"} {
		_, err = client.ApproveTransaction(ctx, txID, signer)
		require.NoError(t, err)
	}
	tx, err := client.ExecuteTransaction(ctx, txID)
	require.NoError(t, err)
	assert.Equal(t, governance.TxStatusExecuted, tx.Status)

	tx, err = client.GetTransaction(ctx, txID)
	require.NoError(t, err)
	assert.Equal(t, governance.TxStatusExecuted, tx.Status)
	creator, _ := ledger.Account("creator")
	assert.True(t, creator.Balance.Equal(decimal.NewFromInt(3500)))

	summary, err := client.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[governance.StatusExecuted])
	assert.True(t, summary.SuccessRate.Equal(decimal.NewFromInt(1)))

	listed, err := client.ListProposals(ctx, governance.Filter{Status: governance.StatusExecuted})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)
}

func TestErrorMapping(t *testing.T) {
	client, ledger, _ := newTestServer(t)
	ctx := context.Background()

	_, err := client.GetProposal(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, governance.ErrNotFound)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.CreateProposal(ctx, governance.ProposalRequest{
		Creator:  "poor",
		Title:    "Nothing",
		Category: governance.CategoryGovernance,
	})
	assert.ErrorIs(t, err, governance.ErrInsufficientCreatorBalance)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	fund(t, ledger, "creator", 1000)
	p, err := client.CreateProposal(ctx, governance.ProposalRequest{
		Creator:  "creator",
		Title:    "Rename the council",
		Category: governance.CategoryGovernance,
	})
	require.NoError(t, err)

	fund(t, ledger, "e1", 100)
	_, err = client.Endorse(ctx, p.ID, "e1")
	require.NoError(t, err)
	_, err = client.Endorse(ctx, p.ID, "e1")
	assert.ErrorIs(t, err, governance.ErrAlreadyEndorsed)
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))

	_, err = client.CastVote(ctx, governance.VoteRequest{
		ProposalID: p.ID,
		Voter:      "e1",
		Choice:     governance.ChoiceFor,
	})
	assert.ErrorIs(t, err, governance.ErrInvalidPhase)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = client.Cancel(ctx, p.ID, "mallory")
	assert.ErrorIs(t, err, governance.ErrUnauthorized)
	assert.False(t, errors.Is(err, governance.ErrNotFound))
}
