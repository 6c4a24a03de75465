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

package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/decentramind-labs/govengine/database/models"
	"github.com/decentramind-labs/govengine/database/types"
	"github.com/decentramind-labs/govengine/governance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newTestDatabase(t *testing.T, dataDir string) *Database {
	t.Helper()
	db, err := New(&Config{
		DataDir:      dataDir,
		PromRegistry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	return db
}

func newTestProposal(t *testing.T, id string, created time.Time) governance.Proposal {
	t.Helper()
	p, err := governance.NewProposal(
		id,
		governance.ProposalRequest{
			Creator:  "alice",
			Title:    "Proposal " + id,
			Category: governance.CategoryEconomicPolicy,
		},
		governance.DefaultParams(),
		created,
	)
	require.NoError(t, err)
	return p
}

// assertSameJSON compares values through their JSON form, which normalizes decimals
func assertSameJSON(t *testing.T, expected, actual any) {
	t.Helper()
	expectedJSON, err := json.Marshal(expected)
	require.NoError(t, err)
	actualJSON, err := json.Marshal(actual)
	require.NoError(t, err)
	assert.JSONEq(t, string(expectedJSON), string(actualJSON))
}

func TestProposalCreateGet(t *testing.T) {
	db := newTestDatabase(t, "")
	p := newTestProposal(t, "p1", testNow)
	require.NoError(t, db.CreateProposal(p, nil))

	got, err := db.GetProposal("p1", nil)
	require.NoError(t, err)
	assertSameJSON(t, p, got)

	// bypass the cache
	txn := db.Transaction(false)
	got, err = db.GetProposal("p1", txn)
	txn.Release()
	require.NoError(t, err)
	assertSameJSON(t, p, got)

	_, err = db.GetProposal("missing", nil)
	require.ErrorIs(t, err, governance.ErrNotFound)
}

func TestListProposalsOrder(t *testing.T) {
	db := newTestDatabase(t, "")
	require.NoError(t, db.CreateProposal(newTestProposal(t, "old", testNow), nil))
	require.NoError(t, db.CreateProposal(newTestProposal(t, "new", testNow.Add(time.Hour)), nil))
	// same timestamp as "new", inserted later
	tie := newTestProposal(t, "tie", testNow.Add(time.Hour))
	tie.Creator = "bob"
	require.NoError(t, db.CreateProposal(tie, nil))

	list, err := db.ListProposals(governance.Filter{}, nil)
	require.NoError(t, err)
	var ids []string
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"tie", "new", "old"}, ids)

	list, err = db.ListProposals(governance.Filter{Creator: "bob"}, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "tie", list[0].ID)

	list, err = db.ListProposals(governance.Filter{Limit: 2}, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = db.ListProposals(
		governance.Filter{Category: governance.CategoryEmergency},
		nil,
	)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateProposal(t *testing.T) {
	db := newTestDatabase(t, "")
	p := newTestProposal(t, "p1", testNow)
	require.NoError(t, db.CreateProposal(p, nil))

	// warm the cache
	_, err := db.GetProposal("p1", nil)
	require.NoError(t, err)

	updated, err := db.UpdateProposal(
		"p1",
		governance.Patch{Endorsers: []string{"bob"}},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), updated.Revision)

	got, err := db.GetProposal("p1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, got.Endorsers)
	assert.Equal(t, uint64(2), got.Revision)

	title := "changed"
	_, err = db.UpdateProposal("p1", governance.Patch{Title: &title}, nil)
	require.ErrorIs(t, err, governance.ErrImmutableField)

	_, err = db.UpdateProposal("p1", governance.StatusPatch(governance.StatusVoting), nil)
	require.ErrorIs(t, err, governance.ErrInvalidPhase)

	_, err = db.UpdateProposal("missing", governance.StatusPatch(governance.StatusVoting), nil)
	require.ErrorIs(t, err, governance.ErrNotFound)

	got, err = db.GetProposal("p1", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Revision)
	assert.Equal(t, "Proposal p1", got.Title)
}

func TestUpdateProposalConflict(t *testing.T) {
	db := newTestDatabase(t, "")
	p := newTestProposal(t, "p1", testNow)
	require.NoError(t, db.CreateProposal(p, nil))
	// write a stale revision directly
	stale := p
	stale.Status = governance.StatusDiscussion
	stale.Revision = 7
	err := db.Metadata().UpdateProposal(
		models.NewProposal(stale),
		5,
		nil,
	)
	require.ErrorIs(t, err, types.ErrConflict)
}

func TestTxnRollback(t *testing.T) {
	db := newTestDatabase(t, "")
	txn := db.Transaction(true)
	require.NoError(t, db.CreateProposal(newTestProposal(t, "p1", testNow), txn))
	require.NoError(t, txn.Rollback())
	_, err := db.GetProposal("p1", nil)
	require.ErrorIs(t, err, governance.ErrNotFound)

	err = db.Transaction(true).Do(func(txn *Txn) error {
		if err := db.CreateProposal(newTestProposal(t, "p2", testNow), txn); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	_, err = db.GetProposal("p2", nil)
	require.ErrorIs(t, err, governance.ErrNotFound)
}

func TestTxnInvalidatesCache(t *testing.T) {
	db := newTestDatabase(t, "")
	require.NoError(t, db.CreateProposal(newTestProposal(t, "p1", testNow), nil))
	_, err := db.GetProposal("p1", nil)
	require.NoError(t, err)

	txn := db.Transaction(true)
	_, err = db.UpdateProposal("p1", governance.StatusPatch(governance.StatusDiscussion), txn)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	got, err := db.GetProposal("p1", nil)
	require.NoError(t, err)
	assert.Equal(t, governance.StatusDiscussion, got.Status)
}

func TestVotes(t *testing.T) {
	db := newTestDatabase(t, "")
	require.NoError(t, db.CreateProposal(newTestProposal(t, "p1", testNow), nil))
	vote := governance.Vote{
		ID:           "v1",
		ProposalID:   "p1",
		Voter:        "bob",
		VoterAccount: "bob",
		Choice:       governance.ChoiceFor,
		Weight:       decimal.NewFromInt(150),
		CastAt:       testNow,
	}
	require.NoError(t, db.AddVote(vote, nil))
	vote2 := vote
	vote2.ID = "v2"
	err := db.AddVote(vote2, nil)
	require.ErrorIs(t, err, governance.ErrDuplicateVote)

	// the unique index holds even without the pre-check
	err = db.Metadata().AddVote(models.NewVote(vote2), nil)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err), err.Error())

	got, err := db.GetVote("p1", "bob", nil)
	require.NoError(t, err)
	assertSameJSON(t, vote, got)
	_, err = db.GetVote("p1", "carol", nil)
	require.ErrorIs(t, err, governance.ErrNotFound)

	carol := vote
	carol.ID = "v3"
	carol.Voter = "carol"
	carol.CastAt = testNow.Add(time.Minute)
	require.NoError(t, db.AddVote(carol, nil))
	votes, err := db.GetVotes("p1", nil)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, "bob", votes[0].Voter)
	assert.Equal(t, "carol", votes[1].Voter)
}

func TestConcurrentTransactions(t *testing.T) {
	db := newTestDatabase(t, "")
	var wg sync.WaitGroup
	errCh := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- db.CreateProposal(
				newTestProposal(t, fmt.Sprintf("p%d", i), testNow.Add(time.Duration(i)*time.Second)),
				nil,
			)
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}
	list, err := db.ListProposals(governance.Filter{}, nil)
	require.NoError(t, err)
	require.Len(t, list, 20)
	assert.Equal(t, "p19", list[0].ID)
}

func TestPersistence(t *testing.T) {
	dataDir := t.TempDir()
	db, err := New(&Config{DataDir: dataDir})
	require.NoError(t, err)
	require.NoError(t, db.CreateProposal(newTestProposal(t, "p1", testNow), nil))
	require.NoError(t, db.SetTreasuryTransaction(newTestTreasuryTx("t1", testNow), nil))
	require.NoError(t, db.Close())

	db, err = New(&Config{DataDir: dataDir})
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	p, err := db.GetProposal("p1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Proposal p1", p.Title)
	tx, err := db.GetTreasuryTransaction("t1", nil)
	require.NoError(t, err)
	assert.Equal(t, governance.TxStatusPending, tx.Status)
}

func TestCommitTimestampMismatch(t *testing.T) {
	dataDir := t.TempDir()
	db, err := New(&Config{DataDir: dataDir})
	require.NoError(t, err)
	require.NoError(t, db.CreateProposal(newTestProposal(t, "p1", testNow), nil))
	// advance only the metadata timestamp
	mtxn := db.Metadata().Transaction()
	require.NoError(t, db.Metadata().SetCommitTimestamp(1, mtxn))
	require.NoError(t, mtxn.Commit())
	require.NoError(t, db.Close())

	db, err = New(&Config{DataDir: dataDir})
	require.Error(t, err)
	var tsErr CommitTimestampError
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, int64(1), tsErr.MetadataTimestamp)
	require.NotNil(t, db)
	require.NoError(t, db.Close())
}
