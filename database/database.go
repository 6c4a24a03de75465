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
	"io"
	"log/slog"
	"time"

	"github.com/decentramind-labs/govengine/database/plugin/blob"
	"github.com/decentramind-labs/govengine/database/plugin/blob/badger"
	"github.com/decentramind-labs/govengine/database/plugin/metadata"
	"github.com/decentramind-labs/govengine/database/plugin/metadata/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultProposalCacheSize = 1024

// Config holds the database configuration
type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// DataDir is the storage directory. Both stores run in memory when it is empty.
	DataDir string
	// ProposalCacheSize is the number of proposals kept in the read cache. Zero uses
	// the default, a negative value disables the cache.
	ProposalCacheSize int
	// BlobBlockCacheSize and BlobIndexCacheSize size the blob store caches in
	// bytes. Zero uses the defaults.
	BlobBlockCacheSize uint64
	BlobIndexCacheSize uint64
	// BlobGcInterval is how often the blob value log is collected. Zero uses the
	// default.
	BlobGcInterval time.Duration
	BlobGcDisabled bool
	// MetadataVacuumInterval is how often the metadata store is vacuumed. Zero uses
	// the default, a negative value disables vacuuming.
	MetadataVacuumInterval time.Duration
}

// Database is the proposal store. Proposals and votes live in the metadata store,
// treasury transactions in the blob store.
type Database struct {
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
	cache    *ProposalCache
	dataDir  string
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

func (d *Database) init() error {
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return nil
}

// New creates a new database instance with optional persistence using the configured data directory
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	logger = logger.With("component", "database")
	metadataDb, err := metadata.New(
		sqlite.WithDataDir(config.DataDir),
		sqlite.WithLogger(logger),
		sqlite.WithPromRegistry(config.PromRegistry),
		sqlite.WithVacuumInterval(config.MetadataVacuumInterval),
	)
	if err != nil {
		if metadataDb != nil {
			_ = metadataDb.Close()
		}
		return nil, err
	}
	blobOpts := []badger.BlobStoreBadgerOptionFunc{
		badger.WithDataDir(config.DataDir),
		badger.WithLogger(logger),
		badger.WithPromRegistry(config.PromRegistry),
		badger.WithGc(!config.BlobGcDisabled),
		badger.WithGcInterval(config.BlobGcInterval),
	}
	if config.BlobBlockCacheSize > 0 {
		blobOpts = append(blobOpts, badger.WithBlockCacheSize(config.BlobBlockCacheSize))
	}
	if config.BlobIndexCacheSize > 0 {
		blobOpts = append(blobOpts, badger.WithIndexCacheSize(config.BlobIndexCacheSize))
	}
	blobDb, err := blob.New(blobOpts...)
	if err != nil {
		_ = metadataDb.Close()
		if blobDb != nil {
			_ = blobDb.Close()
		}
		return nil, err
	}
	cacheSize := config.ProposalCacheSize
	if cacheSize == 0 {
		cacheSize = DefaultProposalCacheSize
	}
	db := &Database{
		logger:   logger,
		blob:     blobDb,
		metadata: metadataDb,
		cache:    NewProposalCache(cacheSize),
		dataDir:  config.DataDir,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
