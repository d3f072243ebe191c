package memtable

import "fmt"

// Addressing selects how a table assigns IDs to rows.
type Addressing int

const (
	// Stable IDs are allocated from a counter and never reused. Lookups by ID
	// are O(log n).
	Stable Addressing = iota

	// Dense IDs are slice positions. Lookups by ID are O(1), but removing a
	// row renumbers the last row to take its place.
	Dense
)

func (a Addressing) String() string {
	switch a {
	case Stable:
		return "stable"
	case Dense:
		return "dense"
	default:
		return fmt.Sprintf("invalid addressing %d", int(a))
	}
}

// rowStore owns the canonical copy of every row.
type rowStore[Row any] interface {
	// get resolves an ID to its row.
	get(id ID) (*Row, bool)

	// insertAt stores a row under a fresh ID. Dense stores require id to be
	// the current length.
	insertAt(id ID, row *Row)

	// replace swaps the row stored under an existing ID.
	replace(id ID, row *Row)

	// remove deletes the row under id and returns it (nil if absent). When
	// another row had to be relocated into id, moved is its previous ID.
	remove(id ID) (removed *Row, moved ID, wasMoved bool)

	// len returns the number of rows.
	len() int

	// ascend and descend visit rows in ID order until yield returns false.
	ascend(yield func(ID, *Row) bool)
	descend(yield func(ID, *Row) bool)
}

func newRowStore[Row any](a Addressing) rowStore[Row] {
	switch a {
	case Stable:
		return newStableStore[Row]()
	case Dense:
		return &denseStore[Row]{}
	default:
		panic(fmt.Errorf("invalid addressing %d", int(a)))
	}
}
