package memtable

import (
	"fmt"

	"github.com/google/btree"
)

const btreeDegree = 16

type stableItem[Row any] struct {
	id  ID
	row *Row
}

// stableStore is a sparse ID -> row mapping ordered by ID.
type stableStore[Row any] struct {
	tree *btree.BTreeG[stableItem[Row]]
}

func newStableStore[Row any]() *stableStore[Row] {
	return &stableStore[Row]{
		tree: btree.NewG(btreeDegree, func(a, b stableItem[Row]) bool {
			return a.id < b.id
		}),
	}
}

func (s *stableStore[Row]) get(id ID) (*Row, bool) {
	item, ok := s.tree.Get(stableItem[Row]{id: id})
	if !ok {
		return nil, false
	}
	return item.row, true
}

func (s *stableStore[Row]) insertAt(id ID, row *Row) {
	if _, replaced := s.tree.ReplaceOrInsert(stableItem[Row]{id, row}); replaced {
		panic(fmt.Errorf("stable store: ID %d reused", id))
	}
}

func (s *stableStore[Row]) replace(id ID, row *Row) {
	if _, replaced := s.tree.ReplaceOrInsert(stableItem[Row]{id, row}); !replaced {
		panic(fmt.Errorf("stable store: replacing missing ID %d", id))
	}
}

func (s *stableStore[Row]) remove(id ID) (*Row, ID, bool) {
	item, ok := s.tree.Delete(stableItem[Row]{id: id})
	if !ok {
		return nil, 0, false
	}
	return item.row, 0, false
}

func (s *stableStore[Row]) len() int {
	return s.tree.Len()
}

func (s *stableStore[Row]) ascend(yield func(ID, *Row) bool) {
	s.tree.Ascend(func(item stableItem[Row]) bool {
		return yield(item.id, item.row)
	})
}

func (s *stableStore[Row]) descend(yield func(ID, *Row) bool) {
	s.tree.Descend(func(item stableItem[Row]) bool {
		return yield(item.id, item.row)
	})
}
