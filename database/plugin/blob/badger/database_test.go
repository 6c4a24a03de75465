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

package badger

import (
	"testing"
	"time"

	"github.com/decentramind-labs/govengine/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions(t *testing.T) {
	db, err := New(
		WithDataDir(t.TempDir()),
		WithBlockCacheSize(8<<20),
		WithIndexCacheSize(2<<20),
		WithGcInterval(time.Hour),
	)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	assert.Equal(t, uint64(8<<20), db.blockCacheSize)
	assert.Equal(t, uint64(2<<20), db.indexCacheSize)
	assert.Equal(t, time.Hour, db.gcInterval)
	assert.True(t, db.gcEnabled)
	assert.NotNil(t, db.gcTicker)
}

func TestNewGcDisabled(t *testing.T) {
	testDefs := []struct {
		name    string
		dataDir bool
		opts    []BlobStoreBadgerOptionFunc
	}{
		{name: "explicitly disabled", dataDir: true, opts: []BlobStoreBadgerOptionFunc{WithGc(false)}},
		{name: "in memory", opts: []BlobStoreBadgerOptionFunc{WithGc(true)}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			opts := testDef.opts
			if testDef.dataDir {
				opts = append(opts, WithDataDir(t.TempDir()))
			}
			db, err := New(opts...)
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			assert.False(t, db.gcEnabled)
			assert.Nil(t, db.gcTicker)
		})
	}
}

func TestWithGcIntervalIgnoresZero(t *testing.T) {
	db, err := New(WithGcInterval(0))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	assert.Equal(t, DefaultGcInterval, db.gcInterval)
}

func TestValidateTxn(t *testing.T) {
	db, err := New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	other, err := New()
	require.NoError(t, err)
	defer func() { _ = other.Close() }()

	_, err = db.validateTxn(nil)
	require.ErrorIs(t, err, types.ErrNilTxn)
	_, err = db.validateTxn(newBadgerTxn(db, nil))
	require.ErrorIs(t, err, types.ErrBlobStoreUnavailable)
	otherTxn := other.NewTransaction(false)
	defer func() { _ = otherTxn.Rollback() }()
	_, err = db.validateTxn(otherTxn)
	require.Error(t, err)

	txn := db.NewTransaction(true)
	require.NoError(t, db.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	_, err = db.validateTxn(txn)
	require.Error(t, err)
}
