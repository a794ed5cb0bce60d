package common

import "sort"

// StringSet is a set of strings
type StringSet map[string]struct{}

// Contains checks if Stringset contains the string
func (ss StringSet) Contains(elem string) bool {
	_, ok := ss[elem]
	return ok
}

// Add adds the string to StringSet
func (ss StringSet) Add(elem string) {
	ss[elem] = struct{}{}
}

// Remove removes the string from StringSet
func (ss StringSet) Remove(elem string) {
	delete(ss, elem)
}

// ToList convert StringSet to a sorted string slice
func (ss StringSet) ToList() []string {
	keys := make([]string, 0, len(ss))
	for s := range ss {
		keys = append(keys, s)
	}
	sort.Strings(keys)
	return keys
}

// PlayerIDSet is a set of player IDs
type PlayerIDSet map[PlayerID]struct{}

// NewPlayerIDSet creates a set containing the given ids
func NewPlayerIDSet(ids ...PlayerID) PlayerIDSet {
	s := make(PlayerIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add adds a player ID to the set
func (s PlayerIDSet) Add(id PlayerID) {
	s[id] = struct{}{}
}

// Del removes a player ID from the set
func (s PlayerIDSet) Del(id PlayerID) {
	delete(s, id)
}

// Contains checks if player ID is in the set
func (s PlayerIDSet) Contains(id PlayerID) bool {
	_, ok := s[id]
	return ok
}

// ToList returns the ids in ascending order
func (s PlayerIDSet) ToList() []PlayerID {
	list := make([]PlayerID, 0, len(s))
	for id := range s {
		list = append(list, id)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i] < list[j]
	})
	return list
}

// Copy returns an independent copy of the set
func (s PlayerIDSet) Copy() PlayerIDSet {
	c := make(PlayerIDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Equal checks if two sets contain the same ids
func (s PlayerIDSet) Equal(other PlayerIDSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}
