package memtable

import "slices"

// ID addresses a row within a table. See Addressing for what an ID means.
type ID uint64

// idSet is a bucket: a sorted set of row IDs sharing one index key.
type idSet []ID

func (s idSet) has(id ID) bool {
	_, ok := slices.BinarySearch(s, id)
	return ok
}

func (s *idSet) add(id ID) bool {
	i, ok := slices.BinarySearch(*s, id)
	if ok {
		return false
	}
	*s = slices.Insert(*s, i, id)
	return true
}

func (s *idSet) remove(id ID) bool {
	i, ok := slices.BinarySearch(*s, id)
	if !ok {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}

// ascend returns false if yield asked to stop.
func (s idSet) ascend(yield func(ID) bool) bool {
	for _, id := range s {
		if !yield(id) {
			return false
		}
	}
	return true
}

func (s idSet) descend(yield func(ID) bool) bool {
	for i := len(s) - 1; i >= 0; i-- {
		if !yield(s[i]) {
			return false
		}
	}
	return true
}
