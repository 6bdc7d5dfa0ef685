package source

import (
	"sort"
	"strings"
	"sync"

	"github.com/tealfin/candlecache/internal/core"
)

// Registry manages candle fetchers keyed by source name. It is an
// explicit instance wired in at startup, never a process-wide map.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRegistry creates a new fetcher registry
func NewRegistry() *Registry {
	return &Registry{
		fetchers: make(map[string]Fetcher),
	}
}

// Register adds a fetcher under a lowercase-normalized name.
// Registering a name twice returns ErrDuplicateSource; use Replace
// when overwriting is intended.
func (r *Registry) Register(name string, f Fetcher) error {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fetchers[key]; ok {
		return core.ErrDuplicateSource
	}
	r.fetchers[key] = f
	return nil
}

// Replace sets the fetcher for a name, overwriting any previous one.
func (r *Registry) Replace(name string, f Fetcher) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[key] = f
}

// Resolve retrieves a fetcher by source name.
func (r *Registry) Resolve(name string) (Fetcher, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fetchers[key]
	if !ok {
		return nil, core.ErrUnknownSource
	}
	return f, nil
}

// Names returns all registered source names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fetchers))
	for name := range r.fetchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
