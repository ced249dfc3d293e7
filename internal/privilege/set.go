package privilege

import "sort"

// Named is implemented by every entity that is identified by its name.
type Named interface {
	Name() string
}

// Set is an insertion-ordered collection keyed by member name. It has no
// exported mutators; members are fixed by whoever constructs it.
type Set[T Named] struct {
	order []string
	items map[string]T
}

// NewSet builds a set from members. The first member with a given name wins and
// members with an empty name are skipped.
func NewSet[T Named](members ...T) Set[T] {
	var s Set[T]
	for _, m := range members {
		s.add(m)
	}
	return s
}

func (s *Set[T]) add(m T) bool {
	name := m.Name()
	if name == "" {
		return false
	}
	if _, exists := s.items[name]; exists {
		return false
	}
	if s.items == nil {
		s.items = make(map[string]T)
	}
	s.items[name] = m
	s.order = append(s.order, name)
	return true
}

func (s Set[T]) Contains(name string) bool {
	if name == "" {
		return false
	}
	_, ok := s.items[name]
	return ok
}

func (s Set[T]) Get(name string) (T, bool) {
	m, ok := s.items[name]
	return m, ok
}

func (s Set[T]) Len() int {
	return len(s.order)
}

// Names returns member names in insertion order.
func (s Set[T]) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// SortedNames returns member names in lexical order.
func (s Set[T]) SortedNames() []string {
	out := s.Names()
	sort.Strings(out)
	return out
}

// Members returns a copy of the members in insertion order.
func (s Set[T]) Members() []T {
	out := make([]T, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.items[name])
	}
	return out
}

// SameNames reports whether both sets hold exactly the same member names.
func (s Set[T]) SameNames(other Set[T]) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, name := range s.order {
		if !other.Contains(name) {
			return false
		}
	}
	return true
}
