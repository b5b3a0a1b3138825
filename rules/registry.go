package rules

import (
	"sort"
	"sync"

	"github.com/kelpbot/engine/msg"
)

// Factory builds a Rule instance from configuration values that have
// already passed the kind's Schema.Validate.
type Factory func(values map[string]Value) (Rule, error)

type kindEntry struct {
	schema  Schema
	factory Factory
}

// Registry holds every registered rule kind and every installed named
// instance, and maintains the autocorrect automaton over installed
// command names.
type Registry struct {
	mu          sync.RWMutex
	kinds       map[string]kindEntry
	instances   map[string]*Instance
	autocorrect *Autocorrect
}

func NewRegistry() *Registry {
	return &Registry{
		kinds:       make(map[string]kindEntry),
		instances:   make(map[string]*Instance),
		autocorrect: NewAutocorrect(nil),
	}
}

// rebuildAutocorrect must be called with mu held.
func (r *Registry) rebuildAutocorrect() {
	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	r.autocorrect = NewAutocorrect(names)
}

// Suggest returns installed command names close to input, for use when an
// exact command lookup has already missed.
func (r *Registry) Suggest(input string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autocorrect.Suggest(input)
}

// RegisterKind makes a rule kind available for Install. Called once per
// kind at startup, before any configuration is loaded.
func (r *Registry) RegisterKind(schema Schema, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[schema.Kind] = kindEntry{schema: schema, factory: factory}
}

// Schema returns the registered schema for kind, and whether it exists.
func (r *Registry) Schema(kind string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.kinds[kind]
	return e.schema, ok
}

// DumpSchema returns every registered schema, sorted by kind name, for the
// operator-facing schema dump.
func (r *Registry) DumpSchema() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Schema, 0, len(r.kinds))
	for _, e := range r.kinds {
		out = append(out, e.schema)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Install validates values against kind's schema, builds the rule, and
// installs it under name, replacing any prior instance of that name.
func (r *Registry) Install(name, kind string, platform msg.Platform, minPerm msg.Permission, values map[string]Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.kinds[kind]
	if !ok {
		return ErrUnknownKind
	}
	if err := entry.schema.Validate(values); err != nil {
		return err
	}
	rule, err := entry.factory(values)
	if err != nil {
		return err
	}
	r.instances[name] = &Instance{Name: name, Kind: kind, Platform: platform, MinPerm: minPerm, Values: values, Rule: rule}
	r.rebuildAutocorrect()
	return nil
}

// Remove uninstalls the named instance, if present.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, name)
	r.rebuildAutocorrect()
}

// Lookup returns the named instance, or nil.
func (r *Registry) Lookup(name string) *Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instances[name]
}

// All returns every installed instance, sorted by name, for dump
// operations and the background task supervisor's timer scan.
func (r *Registry) All() []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the installed command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
