// Package environ holds the shell variable state consumed by expansion,
// arithmetic and loop binding.
package environ

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store is the variable-manager interface the engine depends on. The
// front end may supply its own implementation.
type Store interface {
	// Get returns the value of name and whether it is set.
	Get(name string) (string, bool)
	// Set assigns value to name, creating it if needed.
	Set(name, value string)
	// Unset removes name.
	Unset(name string)
	// Environ returns all scalar variables as "key=value" pairs.
	Environ() []string
}

// ArrayStore extends Store with indexed arrays (name=(a b c)).
type ArrayStore interface {
	Store
	// GetArray returns the elements of an array variable.
	GetArray(name string) ([]string, bool)
	// SetArray replaces the elements of an array variable.
	SetArray(name string, values []string)
}

// NewMapStore creates an empty in-memory Store.
func NewMapStore() *MapStore {
	return &MapStore{}
}

// NewMapStoreFromEnviron creates a Store seeded with "key=value" pairs,
// typically os.Environ().
func NewMapStoreFromEnviron(environ []string) *MapStore {
	out := &MapStore{}
	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		out.Set(key, value)
	}
	return out
}

// MapStore implements an in-memory ArrayStore.
type MapStore struct {
	rw     sync.RWMutex
	vars   map[string]string
	arrays map[string][]string
}

var _ ArrayStore = (*MapStore)(nil)

// Get implements Store.Get.
func (m *MapStore) Get(name string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	if val, ok := m.vars[name]; ok {
		return val, true
	}
	// A bare reference to an array yields its first element.
	if arr, ok := m.arrays[name]; ok && len(arr) > 0 {
		return arr[0], true
	}
	return "", false
}

// Set implements Store.Set. Setting a scalar clears any array by the same
// name.
func (m *MapStore) Set(name, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.vars == nil {
		m.vars = make(map[string]string)
	}
	delete(m.arrays, name)
	m.vars[name] = value
}

// Unset implements Store.Unset.
func (m *MapStore) Unset(name string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	delete(m.vars, name)
	delete(m.arrays, name)
}

// GetArray implements ArrayStore.GetArray. A scalar variable reads as a
// one-element array.
func (m *MapStore) GetArray(name string) ([]string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	if arr, ok := m.arrays[name]; ok {
		out := make([]string, len(arr))
		copy(out, arr)
		return out, true
	}
	if val, ok := m.vars[name]; ok {
		return []string{val}, true
	}
	return nil, false
}

// SetArray implements ArrayStore.SetArray.
func (m *MapStore) SetArray(name string, values []string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.arrays == nil {
		m.arrays = make(map[string][]string)
	}
	delete(m.vars, name)
	out := make([]string, len(values))
	copy(out, values)
	m.arrays[name] = out
}

// Index returns element i of an array, or "" when out of range. Scalars act
// as one-element arrays.
func Index(s Store, name string, i int) string {
	if as, ok := s.(ArrayStore); ok {
		if arr, found := as.GetArray(name); found {
			if i >= 0 && i < len(arr) {
				return arr[i]
			}
			return ""
		}
	}
	if i == 0 {
		val, _ := s.Get(name)
		return val
	}
	return ""
}

// Environ implements Store.Environ. Output is sorted for determinism.
func (m *MapStore) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	var env []string
	for k, v := range m.vars {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)
	return env
}
