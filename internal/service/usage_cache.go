package service

import "sync"

// usageCacheGuard orders usage snapshot writes against invalidations. A
// snapshot is stored only if no invalidation touched its business since the
// snapshot's reads started, so a projection computed before a write commits
// never outlives that write's invalidation.
type usageCacheGuard struct {
	mu       sync.Mutex
	epoch    uint64
	versions map[string]uint64
}

type usageVersion struct {
	epoch   uint64
	version uint64
}

func newUsageCacheGuard() *usageCacheGuard {
	return &usageCacheGuard{versions: make(map[string]uint64)}
}

func (g *usageCacheGuard) current(businessID string) usageVersion {
	if g == nil {
		return usageVersion{}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return usageVersion{epoch: g.epoch, version: g.versions[businessID]}
}

// invalidate bumps the version of one business, or of every business when
// all is set, and runs drop while holding the guard
func (g *usageCacheGuard) invalidate(businessID string, all bool, drop func()) {
	if g == nil {
		drop()
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if all {
		g.epoch++
	} else {
		g.versions[businessID]++
	}
	drop()
}

// storeIfCurrent runs store only when the business is still at version v
func (g *usageCacheGuard) storeIfCurrent(businessID string, v usageVersion, store func()) bool {
	if g == nil {
		store()
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.epoch != v.epoch || g.versions[businessID] != v.version {
		return false
	}
	store()
	return true
}
