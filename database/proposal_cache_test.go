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
	"fmt"
	"testing"

	"github.com/decentramind-labs/govengine/governance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheProposal(id string, revision uint64) governance.Proposal {
	return governance.Proposal{ID: id, Revision: revision, Endorsers: []string{"a"}}
}

func TestProposalCacheGetPut(t *testing.T) {
	c := NewProposalCache(2)
	_, ok := c.Get("p1")
	assert.False(t, ok)

	c.Put(cacheProposal("p1", 1))
	got, ok := c.Get("p1")
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.Revision)

	// returned copies do not alias the cached value
	got.Endorsers[0] = "mutated"
	again, _ := c.Get("p1")
	assert.Equal(t, "a", again.Endorsers[0])
}

func TestProposalCacheRejectsOlderRevision(t *testing.T) {
	c := NewProposalCache(4)
	c.Put(cacheProposal("p1", 3))
	c.Put(cacheProposal("p1", 2))
	got, ok := c.Get("p1")
	require.True(t, ok)
	assert.Equal(t, uint64(3), got.Revision)
}

func TestProposalCacheInvalidate(t *testing.T) {
	c := NewProposalCache(4)
	c.Put(cacheProposal("p1", 1))
	c.Invalidate("p1", 2)
	_, ok := c.Get("p1")
	assert.False(t, ok)

	// a reader that fetched revision 1 before the write must not restore it
	c.Put(cacheProposal("p1", 1))
	_, ok = c.Get("p1")
	assert.False(t, ok)

	c.Put(cacheProposal("p1", 2))
	got, ok := c.Get("p1")
	require.True(t, ok)
	assert.Equal(t, uint64(2), got.Revision)
}

func TestProposalCacheEviction(t *testing.T) {
	c := NewProposalCache(3)
	for i := range 5 {
		c.Put(cacheProposal(fmt.Sprintf("p%d", i), 1))
	}
	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("p0")
	assert.False(t, ok)
	_, ok = c.Get("p4")
	assert.True(t, ok)

	// touching p2 keeps it over p3
	_, ok = c.Get("p2")
	require.True(t, ok)
	c.Put(cacheProposal("p5", 1))
	_, ok = c.Get("p2")
	assert.True(t, ok)
	_, ok = c.Get("p3")
	assert.False(t, ok)
}

func TestProposalCacheDisabled(t *testing.T) {
	c := NewProposalCache(-1)
	c.Put(cacheProposal("p1", 1))
	c.Invalidate("p1", 1)
	_, ok := c.Get("p1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
