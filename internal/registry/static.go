package registry

import (
	"sync"
)

// Entry is one static tool: a descriptor plus its bound handler. The schema
// is computed once at registration from the handler's declared signature
// and never changes afterwards.
type Entry struct {
	Descriptor
	sig *handlerSig
}

// StaticTable is the registry of tools whose descriptor is fully known at
// registration time. Mutation happens during startup registration; steady
// state is read-only, so lookups take only the read lock.
type StaticTable struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewStaticTable creates an empty static tool table.
func NewStaticTable() *StaticTable {
	return &StaticTable{entries: make(map[string]*Entry)}
}

func (t *StaticTable) put(e *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[e.Name] = e
}

func (t *StaticTable) remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, name)
}

// Lookup returns the entry for name, O(1).
func (t *StaticTable) Lookup(name string) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[name]
	return e, ok
}

func (t *StaticTable) has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// List returns the descriptors of all static tools. Order is unspecified;
// the catalog resolver imposes the final ordering at merge time.
func (t *StaticTable) List() []Descriptor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Descriptor, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.Descriptor)
	}
	return out
}
