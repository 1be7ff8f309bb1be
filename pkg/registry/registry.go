// Package registry implements the Strategy Registry (§4.1): the
// in-memory {strategy_id -> Strategy} index every mutating operation
// reads from and commits back to. Grounded on the teacher's constructor
// + method-set pattern (a single owning struct, no package-level global
// state), generalized from a single Blackhole instance to an index of
// many strategies.
package registry

import (
	"sync"

	"github.com/liquidops/apyvault/pkg/apyerr"
	"github.com/liquidops/apyvault/pkg/strategy"
)

var buildErrorCode = apyerr.BuildErrorCode(apyerr.AreaServices, apyerr.DomainEngine, apyerr.ComponentEngineRegistry)

// Store persists Strategy state across process restarts; the registry
// holds the authoritative in-memory copy and pushes every mutation
// through Save.
type Store interface {
	LoadAll() (map[uint64]*strategy.State, error)
	Save(id uint64, s *strategy.State) error
}

// entry pairs a strategy's immutable catalog metadata with its mutable,
// registry-owned state.
type entry struct {
	catalog strategy.Catalog
	state   *strategy.State
}

// Registry is the in-memory index of every known strategy. Safe for
// concurrent use; §5 requires share computation to read state at the
// moment of commit, so every accessor that feeds a commit holds the lock
// across read-compute-write.
type Registry struct {
	mu      sync.Mutex
	entries map[uint64]*entry
	store   Store
}

// New loads the registry from catalog (startup-seeded, immutable) merged
// with whatever mutable state the store has persisted, defaulting to a
// fresh State for any catalog entry the store has never seen.
func New(catalog []strategy.Catalog, store Store) (*Registry, error) {
	persisted, err := store.LoadAll()
	if err != nil {
		return nil, apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 1), "registry.New",
			"failed to load persisted strategy state", nil)
	}

	entries := make(map[uint64]*entry, len(catalog))
	for _, c := range catalog {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		s, ok := persisted[c.ID]
		if !ok {
			s = strategy.NewState()
		}
		entries[c.ID] = &entry{catalog: c, state: s}
	}
	return &Registry{entries: entries, store: store}, nil
}

// Lookup returns the catalog and live state for id, or NotFound.
func (r *Registry) Lookup(id uint64) (strategy.Catalog, *strategy.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return strategy.Catalog{}, nil, apyerr.NotFound(buildErrorCode(apyerr.KindNotFound, 1), "registry.Lookup",
			"unknown strategy id", nil)
	}
	return e.catalog, e.state, nil
}

// List returns every strategy's catalog entry, sorted by id.
func (r *Registry) List() []strategy.Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]strategy.Catalog, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.catalog)
	}
	sortCatalogsByID(out)
	return out
}

// ListForUser returns the catalog entries of every strategy user holds a
// nonzero share balance in.
func (r *Registry) ListForUser(user string) []strategy.Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]strategy.Catalog, 0)
	for _, e := range r.entries {
		if shares, ok := e.state.UserShares[user]; ok && shares.Sign() > 0 {
			out = append(out, e.catalog)
		}
	}
	sortCatalogsByID(out)
	return out
}

// WithLock runs fn with the registry locked, handing it the live state
// for id so the caller can read-compute-write atomically — the §5
// "share computation must read registry state at the moment of commit"
// contract. fn's return error aborts without persisting.
func (r *Registry) WithLock(id uint64, fn func(catalog strategy.Catalog, state *strategy.State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return apyerr.NotFound(buildErrorCode(apyerr.KindNotFound, 2), "registry.WithLock",
			"unknown strategy id", nil)
	}
	if err := fn(e.catalog, e.state); err != nil {
		return err
	}
	if err := e.state.CheckInvariants(e.catalog.CandidatePools); err != nil {
		return err
	}
	if err := r.store.Save(id, e.state); err != nil {
		return apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 2), "registry.WithLock",
			"failed to persist strategy state", nil)
	}
	return nil
}

func sortCatalogsByID(cs []strategy.Catalog) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j-1].ID > cs[j].ID; j-- {
			cs[j-1], cs[j] = cs[j], cs[j-1]
		}
	}
}
