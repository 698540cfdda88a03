package tool

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/miesc-dev/miesc/pkg/aocerrors"
	"github.com/miesc-dev/miesc/pkg/finding"
)

// ProbeTimeout bounds a single Adapter.Availability call during a registry
// snapshot, so one misbehaving tool can't stall doctor/get_availability
// indefinitely (spec.md §4.3).
const ProbeTimeout = 5 * time.Second

// Registry holds every Adapter known to the core, keyed by tool id (spec.md
// §4.3). It is not a package-level singleton: each cmd/miesc invocation
// constructs its own Registry from config so tests can run isolated,
// disjoint registries in parallel.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an Adapter under its Metadata().ID. Registering a second
// Adapter under the same id returns aocerrors.KindRegistryConflict rather
// than silently overwriting the first — spec.md §4.3's closed-world
// assumption that tool ids are unique within a deployment.
func (r *Registry) Register(a Adapter) error {
	meta := a.Metadata()
	if meta.ID == "" {
		return aocerrors.Wrapf(aocerrors.KindRegistryConflict, "registry.Register", "adapter metadata has empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[meta.ID]; exists {
		return aocerrors.Wrapf(aocerrors.KindRegistryConflict, "registry.Register", "tool %q already registered", meta.ID)
	}
	r.adapters[meta.ID] = a
	return nil
}

// Get returns the Adapter registered under id.
func (r *Registry) Get(id string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	if !ok {
		return nil, aocerrors.New(aocerrors.KindToolUnavailable, "registry.Get", aocerrors.ErrNotFound)
	}
	return a, nil
}

// All returns every registered Adapter's metadata, sorted by (layer, id) for
// deterministic iteration order — the scheduler relies on this ordering to
// build waves (spec.md §4.5).
func (r *Registry) All() []finding.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]finding.Tool, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a.Metadata())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Layer != out[j].Layer {
			return out[i].Layer < out[j].Layer
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ByLayer returns the ids of adapters registered at the given layer,
// sorted, matching the wave construction the scheduler performs per layer.
func (r *Registry) ByLayer(layer int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, a := range r.adapters {
		if a.Metadata().Layer == layer {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ByCategory returns the ids of adapters registered under the given
// category, sorted.
func (r *Registry) ByCategory(cat finding.Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, a := range r.adapters {
		if a.Metadata().Category == cat {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// AvailabilitySnapshot probes every registered adapter's availability
// concurrently, bounding each probe to ProbeTimeout so a single hung tool
// doesn't block the snapshot. Used by `miesc doctor` and the
// get_availability RPC (spec.md §6.2).
func (r *Registry) AvailabilitySnapshot(ctx context.Context) map[string]finding.Availability {
	r.mu.RLock()
	ids := make([]string, 0, len(r.adapters))
	adapters := make([]Adapter, 0, len(r.adapters))
	for id, a := range r.adapters {
		ids = append(ids, id)
		adapters = append(adapters, a)
	}
	r.mu.RUnlock()

	result := make(map[string]finding.Availability, len(ids))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := range ids {
		id, a := ids[i], adapters[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, ProbeTimeout)
			defer cancel()
			avail := a.Availability(probeCtx)
			mu.Lock()
			result[id] = avail
			mu.Unlock()
		}()
	}
	wg.Wait()
	return result
}

// AvailableOnly returns the ids of adapters currently AVAILABLE, in
// (layer, id) order. Used by the scheduler to build waves that only include
// runnable tools (spec.md §4.3: optional tools that are unavailable are
// skipped, not failed).
func (r *Registry) AvailableOnly(ctx context.Context) []string {
	snap := r.AvailabilitySnapshot(ctx)
	all := r.All()
	var ids []string
	for _, t := range all {
		if snap[t.ID] == finding.AvailabilityAvailable {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
