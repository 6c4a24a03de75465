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
	"errors"
	"fmt"

	"github.com/decentramind-labs/govengine/database/models"
	"github.com/decentramind-labs/govengine/database/plugin/metadata/sqlite"
	"github.com/decentramind-labs/govengine/database/types"
	"github.com/decentramind-labs/govengine/governance"
)

func (t *Txn) metadataOrNil() types.Txn {
	if t == nil {
		return nil
	}
	return t.Metadata()
}

// ownTxn returns txn, or a new read-write transaction owned by the caller when
// txn is nil. The returned finish func commits an owned transaction on success
// and releases it otherwise.
func (d *Database) ownTxn(txn *Txn) (*Txn, func(*error)) {
	if txn != nil {
		return txn, func(*error) {}
	}
	txn = d.Transaction(true)
	return txn, func(errp *error) {
		if *errp != nil {
			txn.Release()
			return
		}
		if err := txn.Commit(); err != nil {
			*errp = fmt.Errorf("commit transaction: %w", err)
		}
	}
}

// CreateProposal stores a new proposal
func (d *Database) CreateProposal(
	proposal governance.Proposal,
	txn *Txn,
) (err error) {
	txn, finish := d.ownTxn(txn)
	defer finish(&err)
	if err := d.metadata.CreateProposal(
		models.NewProposal(proposal),
		txn.Metadata(),
	); err != nil {
		return fmt.Errorf("create proposal %s: %w", proposal.ID, err)
	}
	txn.touch(proposal.ID, proposal.Revision)
	return nil
}

// GetProposal returns the proposal with the given id, or governance.ErrNotFound.
// Reads outside a transaction are served from the cache when possible.
func (d *Database) GetProposal(
	id string,
	txn *Txn,
) (governance.Proposal, error) {
	if txn == nil {
		if p, ok := d.cache.Get(id); ok {
			return p, nil
		}
	}
	tmpProposal, err := d.metadata.GetProposal(id, txn.metadataOrNil())
	if err != nil {
		return governance.Proposal{}, fmt.Errorf("get proposal %s: %w", id, err)
	}
	if tmpProposal == nil {
		return governance.Proposal{}, fmt.Errorf(
			"proposal %s: %w",
			id,
			governance.ErrNotFound,
		)
	}
	ret := tmpProposal.Domain()
	if txn == nil {
		d.cache.Put(ret)
	}
	return ret, nil
}

// ListProposals returns proposals matching the filter, newest first
func (d *Database) ListProposals(
	filter governance.Filter,
	txn *Txn,
) ([]governance.Proposal, error) {
	return d.queryProposals(
		sqlite.ProposalQuery{
			Status:   string(filter.Status),
			Category: string(filter.Category),
			Creator:  filter.Creator,
			Limit:    filter.Limit,
		},
		txn,
	)
}

// ListProposalsByStatus returns every proposal in one of the given statuses, newest first
func (d *Database) ListProposalsByStatus(
	statuses []governance.Status,
	txn *Txn,
) ([]governance.Proposal, error) {
	query := sqlite.ProposalQuery{}
	for _, s := range statuses {
		query.Statuses = append(query.Statuses, string(s))
	}
	return d.queryProposals(query, txn)
}

func (d *Database) queryProposals(
	query sqlite.ProposalQuery,
	txn *Txn,
) ([]governance.Proposal, error) {
	tmpProposals, err := d.metadata.GetProposals(query, txn.metadataOrNil())
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	ret := make([]governance.Proposal, 0, len(tmpProposals))
	for i := range tmpProposals {
		ret = append(ret, tmpProposals[i].Domain())
	}
	return ret, nil
}

// UpdateProposal applies patch to the stored proposal and returns the result. The
// write is conditional on the revision read, so a concurrent writer produces
// types.ErrConflict rather than a lost update.
func (d *Database) UpdateProposal(
	id string,
	patch governance.Patch,
	txn *Txn,
) (ret governance.Proposal, err error) {
	txn, finish := d.ownTxn(txn)
	defer finish(&err)
	current, err := d.GetProposal(id, txn)
	if err != nil {
		return governance.Proposal{}, err
	}
	next, err := patch.Apply(current)
	if err != nil {
		return governance.Proposal{}, err
	}
	if err := d.metadata.UpdateProposal(
		models.NewProposal(next),
		current.Revision,
		txn.Metadata(),
	); err != nil {
		if errors.Is(err, types.ErrConflict) {
			return governance.Proposal{}, fmt.Errorf(
				"update proposal %s at revision %d: %w",
				id,
				current.Revision,
				err,
			)
		}
		return governance.Proposal{}, fmt.Errorf("update proposal %s: %w", id, err)
	}
	txn.touch(id, next.Revision)
	return next, nil
}
