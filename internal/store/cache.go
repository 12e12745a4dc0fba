package store

import (
	"strings"
	"sync"
	"time"

	util "whatbeats/internal/util"
)

// VerdictCache memoizes oracle verdicts per (current word, guess) pair so an
// identical matchup never hits the oracle twice within the TTL.
type VerdictCache interface {
	Get(currentWord, guess string) (verdict bool, ok bool)
	Set(currentWord, guess string, verdict bool)
}

type verdictEntry struct {
	verdict   bool
	expiresAt time.Time
}

type MemoryVerdictCache struct {
	mu      sync.RWMutex
	entries map[string]verdictEntry
	ttl     time.Duration
}

func NewMemoryVerdictCache(ttl time.Duration) *MemoryVerdictCache {
	return &MemoryVerdictCache{
		entries: make(map[string]verdictEntry),
		ttl:     ttl,
	}
}

// verdictKey mirrors the redis-style layout: verdict:{current}:{guess}, both
// lowercased and trimmed.
func verdictKey(currentWord, guess string) string {
	return "verdict:" + strings.ToLower(strings.TrimSpace(currentWord)) +
		":" + strings.ToLower(strings.TrimSpace(guess))
}

func (c *MemoryVerdictCache) Get(currentWord, guess string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[verdictKey(currentWord, guess)]
	if !ok || time.Now().After(entry.expiresAt) {
		return false, false
	}
	return entry.verdict, true
}

func (c *MemoryVerdictCache) Set(currentWord, guess string, verdict bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[verdictKey(currentWord, guess)] = verdictEntry{
		verdict:   verdict,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *MemoryVerdictCache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		util.LogInfo("Cleaned up %d expired verdict cache entries", removed)
	}
}

// StartCleanup sweeps expired verdicts on the given interval.
func (c *MemoryVerdictCache) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			c.cleanupExpired()
		}
	}()
}
