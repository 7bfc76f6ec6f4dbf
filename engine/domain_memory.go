package engine

import (
	"sync"
	"time"
)

// domainEntry stores the preferred retrieval engine for a host with a TTL.
type domainEntry struct {
	engineName string
	expiresAt  time.Time
}

// DomainMemory remembers which retrieval engine last succeeded for each
// host, so batches against the same CDN skip the engines that will fail.
// Entries expire after the configured TTL. Safe for concurrent use.
type DomainMemory struct {
	mu    sync.RWMutex
	store map[string]domainEntry
	ttl   time.Duration
	done  chan struct{}
}

// NewDomainMemory creates a DomainMemory with the given TTL and starts a
// background goroutine that prunes expired entries every hour.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		store: make(map[string]domainEntry),
		ttl:   ttl,
		done:  make(chan struct{}),
	}
	go dm.cleanupLoop()
	return dm
}

// Get returns the remembered engine name for a domain, or "" when unknown
// or expired.
func (dm *DomainMemory) Get(domain string) string {
	dm.mu.RLock()
	entry, ok := dm.store[domain]
	dm.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return ""
	}
	return entry.engineName
}

// Set records which engine succeeded for a domain.
func (dm *DomainMemory) Set(domain, engineName string) {
	dm.mu.Lock()
	dm.store[domain] = domainEntry{
		engineName: engineName,
		expiresAt:  time.Now().Add(dm.ttl),
	}
	dm.mu.Unlock()
}

// Delete removes the memory for a domain.
func (dm *DomainMemory) Delete(domain string) {
	dm.mu.Lock()
	delete(dm.store, domain)
	dm.mu.Unlock()
}

// Stop terminates the background cleanup goroutine.
func (dm *DomainMemory) Stop() {
	close(dm.done)
}

// cleanupLoop runs every hour, deleting expired entries.
func (dm *DomainMemory) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			now := time.Now()
			dm.mu.Lock()
			for domain, entry := range dm.store {
				if now.After(entry.expiresAt) {
					delete(dm.store, domain)
				}
			}
			dm.mu.Unlock()
		}
	}
}
