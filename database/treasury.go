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

	"github.com/decentramind-labs/govengine/database/types"
	"github.com/decentramind-labs/govengine/governance"
)

// TreasuryFilter selects treasury transactions. Zero fields match everything.
type TreasuryFilter struct {
	Status     governance.TxStatus
	ProposalID string
	Limit      int
}

func (f TreasuryFilter) match(tx governance.TreasuryTransaction) bool {
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if f.ProposalID != "" && tx.ProposalID != f.ProposalID {
		return false
	}
	return true
}

// SetTreasuryTransaction creates or replaces a treasury transaction record
func (d *Database) SetTreasuryTransaction(
	tx governance.TreasuryTransaction,
	txn *Txn,
) (err error) {
	txn, finish := d.ownTxn(txn)
	defer finish(&err)
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode treasury transaction %s: %w", tx.ID, err)
	}
	if err := d.blob.Set(txn.Blob(), types.TreasuryTxBlobKey(tx.ID), data); err != nil {
		return fmt.Errorf("set treasury transaction %s: %w", tx.ID, err)
	}
	indexKey := types.TreasuryTxIndexBlobKey(tx.CreatedAt.UnixNano(), tx.ID)
	if err := d.blob.Set(txn.Blob(), indexKey, []byte(tx.ID)); err != nil {
		return fmt.Errorf("set treasury transaction index %s: %w", tx.ID, err)
	}
	return nil
}

// GetTreasuryTransaction returns the treasury transaction with the given id, or
// governance.ErrNotFound
func (d *Database) GetTreasuryTransaction(
	id string,
	txn *Txn,
) (governance.TreasuryTransaction, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	return d.getTreasuryTransaction(id, txn)
}

func (d *Database) getTreasuryTransaction(
	id string,
	txn *Txn,
) (governance.TreasuryTransaction, error) {
	data, err := d.blob.Get(txn.Blob(), types.TreasuryTxBlobKey(id))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return governance.TreasuryTransaction{}, fmt.Errorf(
				"treasury transaction %s: %w",
				id,
				governance.ErrNotFound,
			)
		}
		return governance.TreasuryTransaction{}, fmt.Errorf(
			"get treasury transaction %s: %w",
			id,
			err,
		)
	}
	var ret governance.TreasuryTransaction
	if err := json.Unmarshal(data, &ret); err != nil {
		return governance.TreasuryTransaction{}, fmt.Errorf(
			"decode treasury transaction %s: %w",
			id,
			err,
		)
	}
	return ret, nil
}

// ListTreasuryTransactions returns treasury transactions matching the filter, newest first
func (d *Database) ListTreasuryTransactions(
	filter TreasuryFilter,
	txn *Txn,
) ([]governance.TreasuryTransaction, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	prefix := []byte(types.TreasuryTxIndexBlobKeyPrefix)
	iter := d.blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix, Reverse: true},
	)
	defer iter.Close()
	var ids []string
	// Reverse iteration starts at the last key with the prefix
	for iter.Seek(append(prefix, 0xff)); iter.ValidForPrefix(prefix); iter.Next() {
		val, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("read treasury index: %w", err)
		}
		ids = append(ids, string(val))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("read treasury index: %w", err)
	}
	ret := []governance.TreasuryTransaction{}
	for _, id := range ids {
		tx, err := d.getTreasuryTransaction(id, txn)
		if err != nil {
			return nil, err
		}
		if !filter.match(tx) {
			continue
		}
		ret = append(ret, tx)
		if filter.Limit > 0 && len(ret) >= filter.Limit {
			break
		}
	}
	return ret, nil
}
