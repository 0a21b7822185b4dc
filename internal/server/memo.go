package server

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// memo is a bounded, insertion-ordered cache of estimate responses keyed by
// the xxhash of the canonical request body. The oldest entry is evicted
// first. A capacity of 0 disables caching.
type memo struct {
	mu      sync.Mutex
	entries map[uint64]estimateResponse
	order   []uint64
	limit   int
	hits    uint64
	misses  uint64
}

func newMemo(limit int) *memo {
	if limit < 0 {
		limit = 0
	}
	return &memo{
		entries: make(map[uint64]estimateResponse, limit),
		limit:   limit,
	}
}

func memoKey(canonical []byte) uint64 {
	return xxhash.Sum64(canonical)
}

func (m *memo) get(key uint64) (estimateResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	return v, ok
}

func (m *memo) put(key uint64, v estimateResponse) {
	if m.limit == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; exists {
		m.entries[key] = v
		return
	}
	if len(m.order) >= m.limit {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	m.entries[key] = v
	m.order = append(m.order, key)
}

type memoStats struct {
	Entries int    `json:"entries"`
	Limit   int    `json:"limit"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

func (m *memo) stats() memoStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memoStats{Entries: len(m.entries), Limit: m.limit, Hits: m.hits, Misses: m.misses}
}
