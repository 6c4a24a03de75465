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

package sqlite

import (
	"errors"

	"github.com/decentramind-labs/govengine/database/models"
	"github.com/decentramind-labs/govengine/database/types"
	"gorm.io/gorm"
)

// GetVote retrieves the vote of voter on a proposal. Returns nil if there is none.
func (d *MetadataStoreSqlite) GetVote(
	proposalID string,
	voter string,
	txn types.Txn,
) (*models.Vote, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var vote models.Vote
	if result := db.Where(
		"proposal_id = ? AND voter = ?",
		proposalID,
		voter,
	).First(&vote); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &vote, nil
}

// GetVotes retrieves all votes for a proposal in the order they were cast
func (d *MetadataStoreSqlite) GetVotes(
	proposalID string,
	txn types.Txn,
) ([]models.Vote, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var votes []models.Vote
	if result := db.Where("proposal_id = ?", proposalID).
		Order("cast_at ASC").
		Order("id ASC").
		Find(&votes); result.Error != nil {
		return nil, result.Error
	}
	return votes, nil
}

// AddVote inserts a vote. A second vote by the same voter on the same proposal
// violates the unique index and returns gorm.ErrDuplicatedKey.
func (d *MetadataStoreSqlite) AddVote(
	vote *models.Vote,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(vote).Error
}
