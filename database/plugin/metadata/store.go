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

package metadata

import (
	"github.com/decentramind-labs/govengine/database/models"
	"github.com/decentramind-labs/govengine/database/plugin/metadata/sqlite"
	"github.com/decentramind-labs/govengine/database/types"
	"gorm.io/gorm"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Proposals
	GetProposal(string, types.Txn) (*models.Proposal, error)
	GetProposals(sqlite.ProposalQuery, types.Txn) ([]models.Proposal, error)
	CreateProposal(*models.Proposal, types.Txn) error
	UpdateProposal(*models.Proposal, uint64, types.Txn) error

	// Votes
	GetVote(string, string, types.Txn) (*models.Vote, error)
	GetVotes(string, types.Txn) ([]models.Vote, error)
	AddVote(*models.Vote, types.Txn) error
}

// New returns a SQLite backed metadata store
func New(opts ...sqlite.SqliteOptionFunc) (MetadataStore, error) {
	store, err := sqlite.New(opts...)
	if store == nil {
		return nil, err
	}
	return store, err
}
