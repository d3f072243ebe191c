package memtable

// Verify checks that the table is consistent:
//
//  1. no ordered or hash index has an empty bucket;
//  2. no unique key is held by two rows;
//  3. every row is filed in every index exactly under its current keys, and
//     every index entry refers to a stored row carrying that key.
//
// It returns the first *InvariantError found.
func (tbl *Table[Row]) Verify() error {
	for _, idx := range tbl.indices {
		if err := idx.verify(); err != nil {
			return err
		}
	}

	var err error
	tbl.store.ascend(func(id ID, row *Row) bool {
		if row == nil {
			err = invariantErrf(tbl.name, "", id, true, "nil row in store")
			return false
		}
		for _, idx := range tbl.indices {
			if !idx.contains(row, id) {
				err = invariantErrf(tbl.name, idx.base().name, id, true, "row is missing from the index")
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	if tbl.addressing == Stable {
		var last ID
		var found bool
		tbl.store.descend(func(id ID, _ *Row) bool {
			last, found = id, true
			return false
		})
		if found && last >= tbl.nextID {
			return invariantErrf(tbl.name, "", last, true, "ID not below the next ID %d", tbl.nextID)
		}
	}
	return nil
}
