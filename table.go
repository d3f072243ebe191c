package memtable

import (
	"fmt"
	"log/slog"
)

// Table holds one canonical copy of each row plus every declared index. It is
// the unit of consistency: after each successful call, every index agrees
// with the stored rows.
type Table[Row any] struct {
	name          string
	addressing    Addressing
	store         rowStore[Row]
	indices       []index[Row]
	indicesByName map[string]index[Row]
	uniques       []uniqueIndex[Row]

	// nextID is the Stable ID counter; only successful inserts advance it.
	nextID   ID
	modCount uint64

	logger          *slog.Logger
	verbose         bool
	strict          bool
	suppressContent bool
}

type Options struct {
	Logger  *slog.Logger
	Verbose bool

	// Strict verifies every invariant after each mutation and panics on
	// dangling index entries. Meant for tests.
	Strict bool
}

type tableOpt int

const (
	SuppressContentWhenLogging = tableOpt(1)
)

// NewTable creates an empty table. Declare indexes with AddOrderedIndex,
// AddHashIndex and AddUniqueIndex before inserting the first row.
func NewTable[Row any](name string, addressing Addressing, opt Options, opts ...any) *Table[Row] {
	tbl := &Table[Row]{
		name:          name,
		addressing:    addressing,
		store:         newRowStore[Row](addressing),
		indicesByName: make(map[string]index[Row]),
		logger:        opt.Logger,
		verbose:       opt.Verbose,
		strict:        opt.Strict,
	}
	if tbl.logger == nil {
		tbl.logger = slog.Default()
	}

	for _, opt := range opts {
		switch opt := opt.(type) {
		case tableOpt:
			if opt == SuppressContentWhenLogging {
				tbl.suppressContent = true
			}
		default:
			panic(fmt.Errorf("invalid option %T %v", opt, opt))
		}
	}
	return tbl
}

func (tbl *Table[Row]) Name() string {
	return tbl.name
}

func (tbl *Table[Row]) Addressing() Addressing {
	return tbl.addressing
}

// Len returns the number of rows.
func (tbl *Table[Row]) Len() int {
	return tbl.store.len()
}

// Get returns the row stored under id. The row must not be modified.
func (tbl *Table[Row]) Get(id ID) (*Row, bool) {
	return tbl.store.get(id)
}

// Scan returns all rows in ID order.
func (tbl *Table[Row]) Scan() Rows[Row] {
	return tbl.rows(idSource{
		ascend: func(yield func(ID) bool) {
			tbl.store.ascend(func(id ID, _ *Row) bool {
				return yield(id)
			})
		},
		descend: func(yield func(ID) bool) {
			tbl.store.descend(func(id ID, _ *Row) bool {
				return yield(id)
			})
		},
	})
}

// Insert stores row and files it in every index. Keys that are not equal to
// themselves (NaN) cannot go into hash or unique indexes; Insert panics on
// them without changing anything. If a unique index already
// holds one of the row's keys, Insert returns a *ConflictError carrying the
// conflicting row's ID and changes nothing. When several unique keys clash,
// the first unique index in declaration order is reported.
func (tbl *Table[Row]) Insert(row Row) (ID, error) {
	tbl.checkKeys(&row)
	if err := tbl.checkUnique(&row, 0, false); err != nil {
		tbl.logMutation("INSERT.CONFLICT", 0, &row, slog.String("err", err.Error()))
		return 0, err
	}

	id := tbl.allocateID()
	tbl.modCount++
	tbl.store.insertAt(id, &row)
	for _, idx := range tbl.indices {
		idx.add(&row, id)
	}
	if tbl.addressing == Stable {
		tbl.nextID++
	}

	tbl.logMutation("INSERT", id, &row)
	tbl.afterMutation()
	return id, nil
}

// InsertAll inserts rows in order, stopping at the first conflict. It returns
// the number of rows inserted.
func (tbl *Table[Row]) InsertAll(rows ...Row) (int, error) {
	for i, row := range rows {
		if _, err := tbl.Insert(row); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}

// Remove deletes the row stored under id and returns it. Removing a missing
// ID is a no-op returning false.
//
// Under Dense addressing, the last row moves into the freed slot and takes
// over id.
func (tbl *Table[Row]) Remove(id ID) (Row, bool) {
	row, ok := tbl.store.get(id)
	if !ok {
		tbl.logMutation("REMOVE.NOOP", id, nil)
		var zero Row
		return zero, false
	}

	tbl.modCount++
	for _, idx := range tbl.indices {
		idx.remove(row, id)
	}
	_, from, moved := tbl.store.remove(id)
	if moved {
		movedRow, _ := tbl.store.get(id)
		for _, idx := range tbl.indices {
			idx.remove(movedRow, from)
		}
		for _, idx := range tbl.indices {
			idx.add(movedRow, id)
		}
		tbl.logMutation("MOVE", id, movedRow, slog.Uint64("from", uint64(from)))
	}

	tbl.logMutation("REMOVE", id, row)
	tbl.afterMutation()
	return *row, true
}

// Update applies f to a copy of the row stored under id and stores the result
// under the same ID, refiling it in every index. If the new row would
// duplicate a unique key held by another row, Update returns a *ConflictError
// and changes nothing. Update returns false if there is no such row.
//
// The copy is shallow: f must not modify slices or maps shared with the old
// row in place.
func (tbl *Table[Row]) Update(id ID, f func(row *Row)) (bool, error) {
	old, ok := tbl.store.get(id)
	if !ok {
		tbl.logMutation("UPDATE.NOOP", id, nil)
		return false, nil
	}

	row := new(Row)
	*row = *old
	f(row)

	tbl.checkKeys(row)
	if err := tbl.checkUnique(row, id, true); err != nil {
		tbl.logMutation("UPDATE.CONFLICT", id, row, slog.String("err", err.Error()))
		return true, err
	}

	tbl.modCount++
	for _, idx := range tbl.indices {
		idx.remove(old, id)
	}
	tbl.store.replace(id, row)
	for _, idx := range tbl.indices {
		idx.add(row, id)
	}

	tbl.logMutation("UPDATE", id, row)
	tbl.afterMutation()
	return true, nil
}

func (tbl *Table[Row]) checkKeys(row *Row) {
	for _, idx := range tbl.indices {
		idx.checkKey(row)
	}
}

// checkUnique runs every unique check, ignoring a match against self.
func (tbl *Table[Row]) checkUnique(row *Row, self ID, hasSelf bool) error {
	for _, u := range tbl.uniques {
		key, id, found := u.conflict(row)
		if found && !(hasSelf && id == self) {
			return &ConflictError{
				Table: tbl.name,
				Index: u.base().name,
				Key:   key,
				ID:    id,
			}
		}
	}
	return nil
}

func (tbl *Table[Row]) allocateID() ID {
	if tbl.addressing == Dense {
		return ID(tbl.store.len())
	}
	return tbl.nextID
}

func (tbl *Table[Row]) afterMutation() {
	if tbl.strict {
		if err := tbl.Verify(); err != nil {
			panic(err)
		}
		return
	}
	for _, idx := range tbl.indices {
		if idx.base().verifyEach {
			if err := idx.verify(); err != nil {
				panic(err)
			}
		}
	}
}
