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

package types

import (
	"encoding/binary"
	"slices"
)

const (
	TreasuryTxBlobKeyPrefix      = "tt"
	TreasuryTxIndexBlobKeyPrefix = "ti"
)

func BlobKeyUint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

// TreasuryTxBlobKey returns the key of the record for a treasury transaction
func TreasuryTxBlobKey(id string) []byte {
	return slices.Concat([]byte(TreasuryTxBlobKeyPrefix), []byte(id))
}

// TreasuryTxIndexBlobKey returns the creation ordered index key for a treasury
// transaction. Keys sort by creation time, then by id.
func TreasuryTxIndexBlobKey(createdAtNanos int64, id string) []byte {
	return slices.Concat(
		[]byte(TreasuryTxIndexBlobKeyPrefix),
		BlobKeyUint64ToBytes(uint64(createdAtNanos)), //nolint:gosec
		[]byte(id),
	)
}
