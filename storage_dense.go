package memtable

import "fmt"

// denseStore keeps rows in a contiguous slice; an ID is a position.
type denseStore[Row any] struct {
	rows []*Row
}

func (s *denseStore[Row]) get(id ID) (*Row, bool) {
	if id >= ID(len(s.rows)) {
		return nil, false
	}
	return s.rows[id], true
}

func (s *denseStore[Row]) insertAt(id ID, row *Row) {
	if id != ID(len(s.rows)) {
		panic(fmt.Errorf("dense store: inserting at %d, tail is %d", id, len(s.rows)))
	}
	s.rows = append(s.rows, row)
}

func (s *denseStore[Row]) replace(id ID, row *Row) {
	if id >= ID(len(s.rows)) {
		panic(fmt.Errorf("dense store: replacing missing ID %d", id))
	}
	s.rows[id] = row
}

// remove swap-removes the row at id: the last row takes its slot.
func (s *denseStore[Row]) remove(id ID) (*Row, ID, bool) {
	n := ID(len(s.rows))
	if id >= n {
		return nil, 0, false
	}
	last := n - 1
	removed := s.rows[id]
	moved := id != last
	if moved {
		s.rows[id] = s.rows[last]
	}
	s.rows[last] = nil // ensure it gets collected
	s.rows = s.rows[:last]
	if moved {
		return removed, last, true
	}
	return removed, 0, false
}

func (s *denseStore[Row]) len() int {
	return len(s.rows)
}

func (s *denseStore[Row]) ascend(yield func(ID, *Row) bool) {
	for i, row := range s.rows {
		if !yield(ID(i), row) {
			return
		}
	}
}

func (s *denseStore[Row]) descend(yield func(ID, *Row) bool) {
	for i := len(s.rows) - 1; i >= 0; i-- {
		if !yield(ID(i), s.rows[i]) {
			return
		}
	}
}
