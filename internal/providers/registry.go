package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry resolves provider ids to bound providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register binds credentials to a descriptor. It should be called at startup.
func (r *Registry) Register(d Descriptor, creds Credentials) error {
	id := normalize(d.ID)
	if id == "" {
		return fmt.Errorf("providers: descriptor without id")
	}
	if strings.TrimSpace(creds.ClientID) == "" {
		return fmt.Errorf("providers: %s: client_id required", id)
	}
	if strings.TrimSpace(creds.RedirectURI) == "" {
		return fmt.Errorf("providers: %s: redirect_uri required", id)
	}

	d.ID = id
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[id] = Provider{Descriptor: d, Credentials: creds}
	return nil
}

// Resolve returns the provider for id or ErrUnsupportedProvider.
func (r *Registry) Resolve(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[normalize(id)]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, id)
	}
	return p, nil
}

// List returns the registered providers sorted by id.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
