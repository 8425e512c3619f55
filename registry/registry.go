// Package registry holds the immutable set of models the orchestrator knows
// about, resolved from configuration at process start.
package registry

import "sort"

// ModelDescriptor is the static description of one orchestratable model.
type ModelDescriptor struct {
	ID                 string
	Provider           string
	VendorModelName    string
	RequiresCredential string
}

// Registry resolves model IDs to their descriptors. It is built once at
// process start via New and never mutated afterward, so reads never take a
// lock.
type Registry struct {
	byID map[string]ModelDescriptor
	all  []ModelDescriptor
}

// New builds a Registry from descriptors. Later entries with a duplicate ID
// overwrite earlier ones; callers are expected to pass a deduplicated
// configuration, but New does not raise on a collision.
func New(descriptors []ModelDescriptor) *Registry {
	byID := make(map[string]ModelDescriptor, len(descriptors))
	for _, d := range descriptors {
		byID[d.ID] = d
	}

	all := make([]ModelDescriptor, 0, len(byID))
	for _, d := range byID {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return &Registry{byID: byID, all: all}
}

// Resolve looks up a model by its public ID.
func (r *Registry) Resolve(modelID string) (ModelDescriptor, bool) {
	d, ok := r.byID[modelID]
	return d, ok
}

// All returns every known model descriptor, sorted by ID.
func (r *Registry) All() []ModelDescriptor {
	return r.all
}
