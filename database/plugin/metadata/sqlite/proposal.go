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

// ProposalQuery selects proposals. Empty fields match everything.
type ProposalQuery struct {
	Status   string
	Statuses []string
	Category string
	Creator  string
	Limit    int
}

// GetProposal retrieves a proposal by its public id. Returns nil if it does not exist.
func (d *MetadataStoreSqlite) GetProposal(
	proposalID string,
	txn types.Txn,
) (*models.Proposal, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var proposal models.Proposal
	if result := db.Where("proposal_id = ?", proposalID).First(&proposal); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &proposal, nil
}

// GetProposals returns proposals matching the query, newest first. Proposals created
// at the same instant are returned in reverse insertion order.
func (d *MetadataStoreSqlite) GetProposals(
	query ProposalQuery,
	txn types.Txn,
) ([]models.Proposal, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	q := db.Model(&models.Proposal{})
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if len(query.Statuses) > 0 {
		q = q.Where("status IN ?", query.Statuses)
	}
	if query.Category != "" {
		q = q.Where("category = ?", query.Category)
	}
	if query.Creator != "" {
		q = q.Where("creator = ?", query.Creator)
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	var proposals []models.Proposal
	if result := q.Order("created_at DESC").Order("id DESC").Find(&proposals); result.Error != nil {
		return nil, result.Error
	}
	return proposals, nil
}

// CreateProposal inserts a new proposal
func (d *MetadataStoreSqlite) CreateProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(proposal).Error
}

// UpdateProposal writes every column of proposal if the stored revision still equals
// expectedRevision. Returns types.ErrConflict otherwise.
func (d *MetadataStoreSqlite) UpdateProposal(
	proposal *models.Proposal,
	expectedRevision uint64,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Proposal{}).
		Where("proposal_id = ? AND revision = ?", proposal.ProposalID, expectedRevision).
		Select("*").
		Omit("id", "proposal_id").
		Updates(proposal)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrConflict
	}
	return nil
}
