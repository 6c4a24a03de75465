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
	"container/list"
	"sync"

	"github.com/decentramind-labs/govengine/governance"
)

type proposalCacheEntry struct {
	id       string
	revision uint64
	// proposal is nil for an invalidated entry, which only remembers the
	// revision so that a slower reader cannot put an older copy back
	proposal *governance.Proposal
}

// ProposalCache is a thread-safe LRU read cache of proposals keyed by id. It is
// never authoritative: entries are dropped when a transaction that wrote the
// proposal commits, and puts older than the newest known revision are ignored.
type ProposalCache struct {
	mu         sync.Mutex
	maxEntries int
	cache      map[string]*list.Element
	lruList    *list.List
}

// NewProposalCache creates a ProposalCache holding up to maxEntries proposals.
// A maxEntries of zero or less disables the cache.
func NewProposalCache(maxEntries int) *ProposalCache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &ProposalCache{
		maxEntries: maxEntries,
		cache:      make(map[string]*list.Element),
		lruList:    list.New(),
	}
}

// Get returns a copy of the cached proposal
func (c *ProposalCache) Get(id string) (governance.Proposal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.cache[id]
	if !ok {
		return governance.Proposal{}, false
	}
	entry := elem.Value.(*proposalCacheEntry)
	if entry.proposal == nil {
		return governance.Proposal{}, false
	}
	c.lruList.MoveToFront(elem)
	return entry.proposal.Clone(), true
}

// Put stores a copy of the proposal unless a newer revision is already known
func (c *ProposalCache) Put(p governance.Proposal) {
	if c.maxEntries == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	tmp := p.Clone()
	if elem, ok := c.cache[p.ID]; ok {
		entry := elem.Value.(*proposalCacheEntry)
		if p.Revision < entry.revision {
			return
		}
		entry.revision = p.Revision
		entry.proposal = &tmp
		c.lruList.MoveToFront(elem)
		return
	}
	elem := c.lruList.PushFront(&proposalCacheEntry{
		id:       p.ID,
		revision: p.Revision,
		proposal: &tmp,
	})
	c.cache[p.ID] = elem
	for c.lruList.Len() > c.maxEntries {
		c.evictOldest()
	}
}

// Invalidate drops the cached copy of a proposal that was written at revision
func (c *ProposalCache) Invalidate(id string, revision uint64) {
	if c.maxEntries == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[id]; ok {
		entry := elem.Value.(*proposalCacheEntry)
		entry.proposal = nil
		entry.revision = max(entry.revision, revision)
		return
	}
	elem := c.lruList.PushFront(&proposalCacheEntry{id: id, revision: revision})
	c.cache[id] = elem
	for c.lruList.Len() > c.maxEntries {
		c.evictOldest()
	}
}

// Len returns the number of entries, including invalidated ones
func (c *ProposalCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

// evictOldest removes the least recently used entry from the cache.
// Must be called with the mutex held.
func (c *ProposalCache) evictOldest() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*proposalCacheEntry)
	delete(c.cache, entry.id)
	c.lruList.Remove(elem)
}
