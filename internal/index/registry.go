package index

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry is the process-owned store of built indices, keyed by repo ID.
// It has an explicit lifecycle: populated on first build, replaced
// atomically on rebuild, evictable by policy. It is passed by reference to
// components rather than accessed as global state.
type Registry struct {
	mu      sync.RWMutex
	indices map[string]*Index
	group   singleflight.Group
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		indices: make(map[string]*Index),
	}
}

// Get returns the index for repoID if one is loaded.
func (r *Registry) Get(repoID string) (*Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indices[repoID]
	return idx, ok
}

// Put publishes an index, atomically replacing any previous one for the
// same repo ID. Readers holding the old index keep a consistent snapshot;
// there is no partial-index visibility.
func (r *Registry) Put(idx *Index) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indices[idx.repoID] = idx
}

// Evict removes the index for repoID, if present.
func (r *Registry) Evict(repoID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indices, repoID)
}

// Repos returns the IDs of all resident indices.
func (r *Registry) Repos() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.indices))
	for id := range r.indices {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of loaded indices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.indices)
}

// BuildOnce runs build with at-most-one execution in flight per repo ID.
// Concurrent callers for the same repo join the in-flight build and share
// its result instead of starting a duplicate. The built index is published
// to the registry before BuildOnce returns.
func (r *Registry) BuildOnce(repoID string, build func() (*Index, error)) (*Index, error) {
	v, err, _ := r.group.Do(repoID, func() (interface{}, error) {
		idx, err := build()
		if err != nil {
			// A previously published index for this repo stays servable.
			return nil, err
		}
		r.Put(idx)
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}
