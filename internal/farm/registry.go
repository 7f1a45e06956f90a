package farm

import (
	"strings"
	"sync"
)

// Registry is the single owner of all farm records for the process lifetime.
// Other components refer to farms by name only and fetch fresh copies through
// the registry; they never hold mutable record pointers across calls.
type Registry struct {
	mu    sync.RWMutex
	farms []*Record // insertion order preserved for the status board
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) indexOf(norm string) int {
	for i, f := range r.farms {
		if NormalizeName(f.Name) == norm {
			return i
		}
	}
	return -1
}

// Add inserts a new record. Returns ErrDuplicate when a farm with the same
// normalized name already exists.
func (r *Registry) Add(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(NormalizeName(rec.Name)) >= 0 {
		return ErrDuplicate
	}
	cp := rec
	r.farms = append(r.farms, &cp)
	return nil
}

// Get returns a copy of the record for the exact (normalized) name.
func (r *Registry) Get(name string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(NormalizeName(name))
	if i < 0 {
		return Record{}, ErrNotFound
	}
	return *r.farms[i], nil
}

// Update replaces the stored record for name via mutate, which receives the
// current value and returns the new one. The farm keeps its position.
func (r *Registry) Update(name string, mutate func(Record) Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(NormalizeName(name))
	if i < 0 {
		return ErrNotFound
	}
	next := mutate(*r.farms[i])
	r.farms[i] = &next
	return nil
}

// Remove deletes the record for name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(NormalizeName(name))
	if i < 0 {
		return ErrNotFound
	}
	r.farms = append(r.farms[:i], r.farms[i+1:]...)
	return nil
}

// Resolve matches a free-text farm phrase against known names: exact
// normalized match first, otherwise substring match against all names.
// All matches are returned; the caller decides what zero or many means.
func (r *Registry) Resolve(raw string) []Record {
	norm := NormalizeName(raw)
	if norm == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(norm); i >= 0 {
		return []Record{*r.farms[i]}
	}
	var out []Record
	for _, f := range r.farms {
		if strings.Contains(NormalizeName(f.Name), norm) {
			out = append(out, *f)
		}
	}
	return out
}

// Names returns display names whose normalized form contains the normalized
// prefix filter, capped at limit (UI suggestion use). limit <= 0 means no cap.
func (r *Registry) Names(filter string, limit int) []string {
	norm := NormalizeName(filter)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.farms))
	for _, f := range r.farms {
		if norm == "" || strings.Contains(NormalizeName(f.Name), norm) {
			out = append(out, f.Name)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// Snapshot returns copies of all records in insertion order.
func (r *Registry) Snapshot() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.farms))
	for _, f := range r.farms {
		out = append(out, *f)
	}
	return out
}

// Replace swaps the full farm set, used when loading a snapshot from disk.
func (r *Registry) Replace(recs []Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.farms = make([]*Record, 0, len(recs))
	for i := range recs {
		cp := recs[i]
		r.farms = append(r.farms, &cp)
	}
}

// Len reports the number of tracked farms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.farms)
}
