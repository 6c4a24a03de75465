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
	"strings"

	"github.com/decentramind-labs/govengine/database/models"
	"github.com/decentramind-labs/govengine/governance"
	"gorm.io/gorm"
)

// AddVote stores a vote. A second vote by the same voter on the same proposal
// returns governance.ErrDuplicateVote.
func (d *Database) AddVote(vote governance.Vote, txn *Txn) (err error) {
	txn, finish := d.ownTxn(txn)
	defer finish(&err)
	existing, err := d.metadata.GetVote(vote.ProposalID, vote.Voter, txn.Metadata())
	if err != nil {
		return fmt.Errorf("get vote: %w", err)
	}
	if existing != nil {
		return fmt.Errorf(
			"voter %s on proposal %s: %w",
			vote.Voter,
			vote.ProposalID,
			governance.ErrDuplicateVote,
		)
	}
	if err := d.metadata.AddVote(models.NewVote(vote), txn.Metadata()); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf(
				"voter %s on proposal %s: %w",
				vote.Voter,
				vote.ProposalID,
				governance.ErrDuplicateVote,
			)
		}
		return fmt.Errorf("add vote: %w", err)
	}
	return nil
}

// GetVote returns the vote of voter on a proposal, or governance.ErrNotFound
func (d *Database) GetVote(
	proposalID string,
	voter string,
	txn *Txn,
) (governance.Vote, error) {
	tmpVote, err := d.metadata.GetVote(proposalID, voter, txn.metadataOrNil())
	if err != nil {
		return governance.Vote{}, fmt.Errorf("get vote: %w", err)
	}
	if tmpVote == nil {
		return governance.Vote{}, fmt.Errorf(
			"vote by %s on proposal %s: %w",
			voter,
			proposalID,
			governance.ErrNotFound,
		)
	}
	return tmpVote.Domain(), nil
}

// GetVotes returns the votes on a proposal in the order they were cast
func (d *Database) GetVotes(
	proposalID string,
	txn *Txn,
) ([]governance.Vote, error) {
	tmpVotes, err := d.metadata.GetVotes(proposalID, txn.metadataOrNil())
	if err != nil {
		return nil, fmt.Errorf("get votes: %w", err)
	}
	ret := make([]governance.Vote, 0, len(tmpVotes))
	for i := range tmpVotes {
		ret = append(ret, tmpVotes[i].Domain())
	}
	return ret, nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
