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

package treasury

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/decentramind-labs/govengine/database"
	"github.com/decentramind-labs/govengine/governance"
	"github.com/decentramind-labs/govengine/holdings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type fakeTransfer struct {
	calls atomic.Int32
	fail  atomic.Bool
	block chan struct{}
}

func (f *fakeTransfer) Transfer(
	ctx context.Context,
	sender string,
	recipient string,
	amount decimal.Decimal,
	currency string,
) error {
	if f.block != nil {
		<-f.block
	}
	if f.fail.Load() {
		return errors.New("ledger offline")
	}
	f.calls.Add(1)
	return nil
}

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestGate(
	t *testing.T,
	transfer FundsTransfer,
	opts ...GateOptionFunc,
) *Gate {
	t.Helper()
	opts = append(
		[]GateOptionFunc{WithClock(func() time.Time { return testNow })},
		opts...,
	)
	g, err := New(newTestDatabase(t), transfer, opts...)
	require.NoError(t, err)
	return g
}

func spending(amount int64) governance.TransactionRequest {
	return governance.TransactionRequest{
		Kind:       governance.TxKindSpending,
		Amount:     decimal.NewFromInt(amount),
		Currency:   holdings.DefaultCurrency,
		Recipient:  "alice",
		ProposalID: "p1",
	}
}

func approveAll(t *testing.T, g *Gate, id string, signers ...string) governance.TreasuryTransaction {
	t.Helper()
	var tx governance.TreasuryTransaction
	for _, s := range signers {
		var err error
		tx, err = g.Approve(context.Background(), id, s)
		require.NoError(t, err)
	}
	return tx
}

func TestProposeValidates(t *testing.T) {
	g := newTestGate(t, &fakeTransfer{})
	req := spending(0)
	_, err := g.Propose(context.Background(), req, nil)
	require.ErrorIs(t, err, governance.ErrInvalidArgument)

	tx, err := g.Propose(context.Background(), spending(2500), nil)
	require.NoError(t, err)
	assert.Equal(t, governance.TxStatusPending, tx.Status)
	assert.Equal(t, DefaultSender, tx.Sender)
	assert.Equal(t, DefaultThreshold, tx.Threshold)
	assert.Equal(t, testNow, tx.CreatedAt)
	assert.Empty(t, tx.Approvers)

	got, err := g.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.True(t, tx.Amount.Equal(got.Amount))
}

func TestApproveReachesThreshold(t *testing.T) {
	g := newTestGate(t, &fakeTransfer{})
	ctx := context.Background()
	tx, err := g.Propose(ctx, spending(2500), nil)
	require.NoError(t, err)

	tx = approveAll(t, g, tx.ID, "s1", "s2")
	assert.Equal(t, governance.TxStatusPending, tx.Status)
	// repeated approval does not count twice
	tx = approveAll(t, g, tx.ID, "s2")
	assert.Len(t, tx.Approvers, 2)
	assert.Equal(t, governance.TxStatusPending, tx.Status)

	tx = approveAll(t, g, tx.ID, "s3")
	assert.Equal(t, governance.TxStatusApproved, tx.Status)
	assert.Equal(t, []string{"s1", "s2", "s3"}, tx.Approvers)
}

func TestApproveSignerAllowList(t *testing.T) {
	g := newTestGate(t, &fakeTransfer{}, WithSigners("s1", "s2"), WithThreshold(2))
	ctx := context.Background()
	tx, err := g.Propose(ctx, spending(10), nil)
	require.NoError(t, err)
	_, err = g.Approve(ctx, tx.ID, "mallory")
	require.ErrorIs(t, err, governance.ErrUnauthorized)
	_, err = g.Approve(ctx, tx.ID, "")
	require.ErrorIs(t, err, governance.ErrInvalidArgument)
	tx = approveAll(t, g, tx.ID, "s1", "s2")
	assert.Equal(t, governance.TxStatusApproved, tx.Status)
}

func TestExecute(t *testing.T) {
	transfer := &fakeTransfer{}
	reg := prometheus.NewRegistry()
	g := newTestGate(t, transfer, WithPromRegistry(reg))
	ctx := context.Background()
	tx, err := g.Propose(ctx, spending(2500), nil)
	require.NoError(t, err)

	_, err = g.Execute(ctx, tx.ID)
	require.ErrorIs(t, err, governance.ErrNotApproved)
	approveAll(t, g, tx.ID, "s1", "s2", "s3")

	executed, err := g.Execute(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, governance.TxStatusExecuted, executed.Status)
	require.NotNil(t, executed.ExecutedAt)
	assert.Equal(t, testNow, *executed.ExecutedAt)

	_, err = g.Execute(ctx, tx.ID)
	require.ErrorIs(t, err, governance.ErrAlreadyExecuted)
	_, err = g.Approve(ctx, tx.ID, "s4")
	require.ErrorIs(t, err, governance.ErrInvalidPhase)
	assert.Equal(t, int32(1), transfer.calls.Load())

	assert.InDelta(t, 1, testutil.ToFloat64(
		g.metrics.transactions.WithLabelValues(string(governance.TxStatusExecuted)),
	), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(g.metrics.approvals), 0)
}

func TestExecuteConcurrentMovesFundsOnce(t *testing.T) {
	transfer := &fakeTransfer{}
	g := newTestGate(t, transfer)
	ctx := context.Background()
	tx, err := g.Propose(ctx, spending(2500), nil)
	require.NoError(t, err)
	approveAll(t, g, tx.ID, "s1", "s2", "s3")

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		already   atomic.Int32
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Execute(ctx, tx.ID)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, governance.ErrAlreadyExecuted):
				already.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(9), already.Load())
	assert.Equal(t, int32(1), transfer.calls.Load())
}

func TestExecuteTransferFailureKeepsState(t *testing.T) {
	transfer := &fakeTransfer{}
	transfer.fail.Store(true)
	reg := prometheus.NewRegistry()
	g := newTestGate(t, transfer, WithPromRegistry(reg))
	ctx := context.Background()
	tx, err := g.Propose(ctx, spending(2500), nil)
	require.NoError(t, err)
	approveAll(t, g, tx.ID, "s1", "s2", "s3")

	_, err = g.Execute(ctx, tx.ID)
	require.ErrorIs(t, err, governance.ErrProviderUnavailable)
	got, err := g.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, governance.TxStatusApproved, got.Status)
	assert.Nil(t, got.ExecutedAt)
	assert.InDelta(t, 1, testutil.ToFloat64(g.metrics.transferFailures), 0)

	transfer.fail.Store(false)
	got, err = g.Execute(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, governance.TxStatusExecuted, got.Status)
}

func TestExecuteTransferTimeout(t *testing.T) {
	transfer := &fakeTransfer{block: make(chan struct{})}
	g := newTestGate(t, transfer, WithTransferTimeout(20*time.Millisecond))
	ctx := context.Background()
	tx, err := g.Propose(ctx, spending(2500), nil)
	require.NoError(t, err)
	approveAll(t, g, tx.ID, "s1", "s2", "s3")

	start := time.Now()
	_, err = g.Execute(ctx, tx.ID)
	require.ErrorIs(t, err, governance.ErrProviderUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	// the transfer is still running, so neither a retry nor a rejection may proceed
	_, err = g.Execute(ctx, tx.ID)
	require.ErrorIs(t, err, governance.ErrInvalidPhase)
	_, err = g.Reject(ctx, tx.ID, "s1")
	require.ErrorIs(t, err, governance.ErrInvalidPhase)

	close(transfer.block)
	require.Eventually(t, func() bool {
		got, err := g.Get(ctx, tx.ID)
		return err == nil && got.Status == governance.TxStatusExecuted
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return !g.transferPending(tx.ID)
	}, 2*time.Second, 5*time.Millisecond)

	got, err := g.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ExecutedAt)
	_, err = g.Execute(ctx, tx.ID)
	require.ErrorIs(t, err, governance.ErrAlreadyExecuted)
	assert.Equal(t, int32(1), transfer.calls.Load())
}

func TestExecuteTransferTimeoutLateFailure(t *testing.T) {
	transfer := &fakeTransfer{block: make(chan struct{})}
	transfer.fail.Store(true)
	g := newTestGate(t, transfer, WithTransferTimeout(20*time.Millisecond))
	ctx := context.Background()
	tx, err := g.Propose(ctx, spending(2500), nil)
	require.NoError(t, err)
	approveAll(t, g, tx.ID, "s1", "s2", "s3")

	_, err = g.Execute(ctx, tx.ID)
	require.ErrorIs(t, err, governance.ErrProviderUnavailable)
	close(transfer.block)
	require.Eventually(t, func() bool {
		return !g.transferPending(tx.ID)
	}, 2*time.Second, 5*time.Millisecond)

	got, err := g.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, governance.TxStatusApproved, got.Status)
	assert.Nil(t, got.ExecutedAt)

	transfer.fail.Store(false)
	got, err = g.Execute(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, governance.TxStatusExecuted, got.Status)
	assert.Equal(t, int32(1), transfer.calls.Load())
}

func TestExecuteWithLedger(t *testing.T) {
	ledger := holdings.New(holdings.DefaultCurrency, nil)
	require.NoError(t, ledger.SetAccount(DefaultSender, holdings.Account{
		Balance: decimal.NewFromInt(10_000),
	}))
	g := newTestGate(t, ledger, WithThreshold(1))
	ctx := context.Background()
	tx, err := g.Propose(ctx, spending(2500), nil)
	require.NoError(t, err)
	approveAll(t, g, tx.ID, "s1")
	_, err = g.Execute(ctx, tx.ID)
	require.NoError(t, err)

	treasuryAcct, _ := ledger.Account(DefaultSender)
	aliceAcct, _ := ledger.Account("alice")
	assert.True(t, treasuryAcct.Balance.Equal(decimal.NewFromInt(7500)))
	assert.True(t, aliceAcct.Balance.Equal(decimal.NewFromInt(2500)))

	// insufficient funds surfaces as an unavailable collaborator
	tx, err = g.Propose(ctx, spending(1_000_000), nil)
	require.NoError(t, err)
	approveAll(t, g, tx.ID, "s1")
	_, err = g.Execute(ctx, tx.ID)
	require.ErrorIs(t, err, governance.ErrProviderUnavailable)
	require.ErrorIs(t, err, holdings.ErrInsufficientFunds)
}

func TestReject(t *testing.T) {
	transfer := &fakeTransfer{}
	g := newTestGate(t, transfer)
	ctx := context.Background()
	tx, err := g.Propose(ctx, spending(2500), nil)
	require.NoError(t, err)

	rejected, err := g.Reject(ctx, tx.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, governance.TxStatusRejected, rejected.Status)
	assert.Equal(t, "s1", rejected.RejectedBy)

	_, err = g.Reject(ctx, tx.ID, "s2")
	require.ErrorIs(t, err, governance.ErrInvalidPhase)
	_, err = g.Approve(ctx, tx.ID, "s2")
	require.ErrorIs(t, err, governance.ErrInvalidPhase)
	_, err = g.Execute(ctx, tx.ID)
	require.ErrorIs(t, err, governance.ErrInvalidPhase)
	assert.Equal(t, int32(0), transfer.calls.Load())
}

func TestNotFound(t *testing.T) {
	g := newTestGate(t, &fakeTransfer{})
	ctx := context.Background()
	_, err := g.Get(ctx, "missing")
	require.ErrorIs(t, err, governance.ErrNotFound)
	_, err = g.Approve(ctx, "missing", "s1")
	require.ErrorIs(t, err, governance.ErrNotFound)
	_, err = g.Execute(ctx, "missing")
	require.ErrorIs(t, err, governance.ErrNotFound)
}

func TestList(t *testing.T) {
	g := newTestGate(t, &fakeTransfer{})
	ctx := context.Background()
	first, err := g.Propose(ctx, spending(1), nil)
	require.NoError(t, err)
	g.clock = func() time.Time { return testNow.Add(time.Minute) }
	second, err := g.Propose(ctx, spending(2), nil)
	require.NoError(t, err)
	_, err = g.Reject(ctx, first.ID, "s1")
	require.NoError(t, err)

	all, err := g.List(ctx, database.TreasuryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	pending, err := g.List(ctx, database.TreasuryFilter{Status: governance.TxStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}

func TestNewRejectsBadConfig(t *testing.T) {
	db := newTestDatabase(t)
	_, err := New(nil, &fakeTransfer{})
	require.Error(t, err)
	_, err = New(db, nil)
	require.Error(t, err)
	_, err = New(db, &fakeTransfer{}, WithThreshold(0))
	require.ErrorIs(t, err, governance.ErrInvalidArgument)
}
