package module

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrKeyRequired indicates a registration without a bundle key.
	ErrKeyRequired = errors.New("bundle key is required")
	// ErrLoaderRequired indicates a registration without a loader.
	ErrLoaderRequired = errors.New("bundle loader is required")
	// ErrAlreadyRegistered indicates a duplicate bundle registration.
	ErrAlreadyRegistered = errors.New("bundle already registered")
	// ErrNoBundle indicates a loader that returned neither a bundle nor an error.
	ErrNoBundle = errors.New("loader returned no bundle")
)

// Group is a bundle namespace. Job bundles are keyed by the combatant's job,
// boss bundles by the fight's encounter.
type Group string

const (
	GroupBoss Group = "boss"
	GroupJob  Group = "job"
)

// loadOrder fixes how bundles are merged: boss modules come before job
// modules unless a declared dependency says otherwise.
var loadOrder = []Group{GroupBoss, GroupJob}

// Bundle is a named group of module descriptors.
type Bundle struct {
	Name    string
	Modules []Descriptor
}

// Loader lazily produces a bundle. Loaders for different keys share no state
// and may run concurrently.
type Loader func(ctx context.Context) (*Bundle, error)

// Static returns a Loader that always yields b.
func Static(b *Bundle) Loader {
	return func(context.Context) (*Bundle, error) { return b, nil }
}

// Registry maps job and boss keys to bundle loaders.
type Registry struct {
	mu      sync.RWMutex
	loaders map[Group]map[string]Loader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		loaders: map[Group]map[string]Loader{
			GroupBoss: {},
			GroupJob:  {},
		},
	}
}

// RegisterJob adds the bundle loader for a job key ("WAR").
func (r *Registry) RegisterJob(key string, l Loader) error {
	return r.register(GroupJob, key, l)
}

// RegisterBoss adds the bundle loader for an encounter key ("ifrit").
func (r *Registry) RegisterBoss(key string, l Loader) error {
	return r.register(GroupBoss, key, l)
}

func (r *Registry) register(g Group, key string, l Loader) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrKeyRequired
	}
	if l == nil {
		return ErrLoaderRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loaders[g][key]; ok {
		return fmt.Errorf("%w: %s %q", ErrAlreadyRegistered, g, key)
	}
	r.loaders[g][key] = l
	return nil
}

// Lookup returns the loader registered for key in group g.
func (r *Registry) Lookup(g Group, key string) (Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[g][key]
	return l, ok
}

// Keys returns the registered keys of group g, sorted.
func (r *Registry) Keys(g Group) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.loaders[g]))
	for k := range r.loaders[g] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load loads the bundles that apply to job and boss and merges their
// descriptors, boss first. Keys with no registered bundle contribute
// nothing. Applicable bundles load concurrently; any failure is returned as
// a *BundleLoadError once every load has finished.
func (r *Registry) Load(ctx context.Context, job, boss string) ([]Descriptor, error) {
	keys := map[Group]string{GroupBoss: boss, GroupJob: job}
	bundles := make([]*Bundle, len(loadOrder))

	g, gctx := errgroup.WithContext(ctx)
	for i, grp := range loadOrder {
		i, grp := i, grp
		l, ok := r.Lookup(grp, keys[grp])
		if !ok {
			continue
		}
		g.Go(func() error {
			b, err := l(gctx)
			if err == nil && b == nil {
				err = ErrNoBundle
			}
			if err != nil {
				return &BundleLoadError{Group: grp, Key: keys[grp], Err: err}
			}
			bundles[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []Descriptor
	for _, b := range bundles {
		if b != nil {
			merged = append(merged, b.Modules...)
		}
	}
	return merged, nil
}
