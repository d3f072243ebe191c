package memtable

import (
	"fmt"
	"iter"
)

// idSource is a double-ended sequence of IDs. Either func may be nil, meaning
// the sequence is empty.
type idSource struct {
	ascend  func(yield func(ID) bool)
	descend func(yield func(ID) bool)
}

// Rows is a lazy sequence of (ID, row) pairs produced by a query. Nothing is
// computed until the sequence is iterated, and it can be iterated any number
// of times; each pass sees the table as it is at that moment.
//
// The table must not be mutated while a pass is in progress; doing so panics.
// Collect the IDs first if you need to modify rows you are iterating over.
//
// Rows returned by the sequence are read-only views of the table's copy;
// use Table.Update to change them.
type Rows[Row any] struct {
	tbl     *Table[Row]
	src     idSource
	reverse bool
}

func (tbl *Table[Row]) rows(src idSource) Rows[Row] {
	return Rows[Row]{tbl: tbl, src: src}
}

// Reversed returns the same sequence in the opposite order.
func (r Rows[Row]) Reversed() Rows[Row] {
	r.reverse = !r.reverse
	return r
}

func (r Rows[Row]) ids(yield func(ID) bool) {
	f := r.src.ascend
	if r.reverse {
		f = r.src.descend
	}
	if f == nil || r.tbl == nil {
		return
	}
	modCount := r.tbl.modCount
	f(func(id ID) bool {
		if !yield(id) {
			return false
		}
		r.tbl.ensureUnmodified(modCount)
		return true
	})
}

// ensureUnmodified panics if the table was mutated since modCount was taken.
func (tbl *Table[Row]) ensureUnmodified(modCount uint64) {
	if tbl.modCount != modCount {
		panic(fmt.Errorf("%s: table modified during iteration", tbl.name))
	}
}

// All returns the (ID, row) pairs of the sequence.
func (r Rows[Row]) All() iter.Seq2[ID, *Row] {
	return func(yield func(ID, *Row) bool) {
		r.ids(func(id ID) bool {
			row, ok := r.tbl.store.get(id)
			if !ok {
				if r.tbl.strict {
					panic(invariantErrf(r.tbl.name, "", id, true, "index refers to a missing row"))
				}
				return true
			}
			return yield(id, row)
		})
	}
}

// IDs returns the IDs of the sequence without resolving rows.
func (r Rows[Row]) IDs() iter.Seq[ID] {
	return r.ids
}

// Collect returns the rows of the sequence.
func (r Rows[Row]) Collect() []*Row {
	var result []*Row
	for _, row := range r.All() {
		result = append(result, row)
	}
	return result
}

// CollectIDs returns the IDs of the sequence.
func (r Rows[Row]) CollectIDs() []ID {
	var result []ID
	for id := range r.ids {
		result = append(result, id)
	}
	return result
}

func (r Rows[Row]) Count() int {
	var n int
	for range r.ids {
		n++
	}
	return n
}

// First returns the first pair of the sequence.
func (r Rows[Row]) First() (ID, *Row, bool) {
	for id, row := range r.All() {
		return id, row, true
	}
	return 0, nil, false
}
