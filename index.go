package memtable

import (
	"fmt"
	"strings"
)

// IndexKind is the closed set of index variants a table can declare.
type IndexKind int

const (
	KindOrdered IndexKind = iota + 1
	KindHash
	KindUnique
)

func (k IndexKind) String() string {
	switch k {
	case KindOrdered:
		return "ordered"
	case KindHash:
		return "hash"
	case KindUnique:
		return "unique"
	default:
		return fmt.Sprintf("invalid index kind %d", int(k))
	}
}

type IndexOpt int

const (
	// IndexOptDebugScans logs every lookup and range scan of the index.
	IndexOptDebugScans IndexOpt = iota
	// IndexOptVerify checks the index against the row store after every
	// mutation and panics on inconsistency.
	IndexOptVerify
)

// index is the type-erased view of an index the table fans mutations out to.
type index[Row any] interface {
	base() *indexBase[Row]

	// checkKey panics if the row's key cannot be filed; it runs before any
	// mutation.
	checkKey(row *Row)

	add(row *Row, id ID)
	remove(row *Row, id ID)

	// contains reports whether id is filed under the row's current key.
	contains(row *Row, id ID) bool

	// verify checks that every entry resolves to a row carrying the entry's
	// key and that no bucket is empty.
	verify() error

	stats() IndexStats
	digest() uint64
	dump(w *strings.Builder, prefix string)
}

type uniqueIndex[Row any] interface {
	index[Row]

	// conflict returns the row already holding the row's key.
	conflict(row *Row) (key any, id ID, found bool)
}

type indexBase[Row any] struct {
	table *Table[Row]
	pos   int // index in table.indices
	name  string
	kind  IndexKind

	debugScans bool
	verifyEach bool
}

func (idx *indexBase[Row]) base() *indexBase[Row] {
	return idx
}

func (idx *indexBase[Row]) Table() *Table[Row] {
	return idx.table
}

func (idx *indexBase[Row]) Kind() IndexKind {
	return idx.kind
}

func (idx *indexBase[Row]) ShortName() string {
	return idx.name
}

func (idx *indexBase[Row]) FullName() string {
	return idx.table.name + "." + idx.name
}

func (idx *indexBase[Row]) invariantErrf(id ID, hasID bool, format string, args ...any) error {
	return invariantErrf(idx.table.name, idx.name, id, hasID, format, args...)
}

// ensureFileable panics on map keys not equal to themselves, like a NaN
// float, which could never be found again.
func ensureFileable[Row any, K comparable](idx *indexBase[Row], k K) {
	if k != k {
		panic(fmt.Errorf("%s: key %v is not equal to itself and cannot be indexed", idx.FullName(), k))
	}
}

func (tbl *Table[Row]) addIndex(idx index[Row], name string, kind IndexKind, opts []any) {
	if name == "" {
		panic(fmt.Errorf("%s: index name must not be empty", tbl.name))
	}
	if tbl.indicesByName[name] != nil {
		panic(fmt.Errorf("table %s already has index named %q", tbl.name, name))
	}
	if n := tbl.store.len(); n > 0 {
		panic(fmt.Errorf("%s: cannot add index %q to a table with %d rows", tbl.name, name, n))
	}

	b := idx.base()
	b.table = tbl
	b.pos = len(tbl.indices)
	b.name = name
	b.kind = kind

	for _, opt := range opts {
		switch opt := opt.(type) {
		case IndexOpt:
			switch opt {
			case IndexOptDebugScans:
				b.debugScans = true
			case IndexOptVerify:
				b.verifyEach = true
			default:
				panic(fmt.Errorf("invalid option %T %v", opt, opt))
			}
		default:
			panic(fmt.Errorf("invalid option %T %v", opt, opt))
		}
	}

	tbl.indices = append(tbl.indices, idx)
	tbl.indicesByName[name] = idx
	if u, ok := idx.(uniqueIndex[Row]); ok {
		tbl.uniques = append(tbl.uniques, u)
	}
}
