package checkpoint

import "sort"

// Set is an unordered collection of identifiers
type Set map[string]struct{}

// NewSet returns a set holding ids
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Has reports whether id is in the set. A nil set is empty.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id
func (s Set) Add(id string) {
	s[id] = struct{}{}
}

// Len returns the number of identifiers
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the identifiers in ascending order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set with every identifier of s and others
func (s Set) Union(others ...Set) Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	for _, o := range others {
		for id := range o {
			out[id] = struct{}{}
		}
	}
	return out
}
