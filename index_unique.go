package memtable

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// UniqueIndex maps a key to the single row holding it. Insert and Update
// reject rows that would duplicate a key.
type UniqueIndex[Row any, K comparable] struct {
	indexBase[Row]
	key     func(row *Row) K
	entries map[K]ID
}

// AddUniqueIndex declares a unique index on tbl keyed by key(row). Unique
// indexes are checked in declaration order.
func AddUniqueIndex[Row any, K comparable](tbl *Table[Row], name string, key func(row *Row) K, opts ...any) *UniqueIndex[Row, K] {
	if key == nil {
		panic(fmt.Errorf("%s.%s: key func is required", tbl.name, name))
	}
	idx := &UniqueIndex[Row, K]{
		key:     key,
		entries: make(map[K]ID),
	}
	tbl.addIndex(idx, name, KindUnique, opts)
	return idx
}

// Check returns the ID of the row holding k, if any. It never mutates.
func (idx *UniqueIndex[Row, K]) Check(k K) (ID, bool) {
	id, ok := idx.entries[k]
	return id, ok
}

func (idx *UniqueIndex[Row, K]) conflict(row *Row) (any, ID, bool) {
	k := idx.key(row)
	id, ok := idx.entries[k]
	return k, id, ok
}

// insert overwrites unconditionally; callers run Check first.
func (idx *UniqueIndex[Row, K]) insert(k K, id ID) {
	idx.entries[k] = id
}

func (idx *UniqueIndex[Row, K]) delete(k K, id ID) bool {
	if cur, ok := idx.entries[k]; !ok || cur != id {
		return false
	}
	delete(idx.entries, k)
	return true
}

func (idx *UniqueIndex[Row, K]) checkKey(row *Row) {
	ensureFileable(&idx.indexBase, idx.key(row))
}

func (idx *UniqueIndex[Row, K]) add(row *Row, id ID) {
	idx.insert(idx.key(row), id)
}

func (idx *UniqueIndex[Row, K]) remove(row *Row, id ID) {
	idx.delete(idx.key(row), id)
}

func (idx *UniqueIndex[Row, K]) contains(row *Row, id ID) bool {
	cur, ok := idx.entries[idx.key(row)]
	return ok && cur == id
}

// Lookup returns the row holding k, or nil.
func (idx *UniqueIndex[Row, K]) Lookup(k K) *Row {
	id, ok := idx.LookupID(k)
	if !ok {
		return nil
	}
	row, ok := idx.table.store.get(id)
	if !ok {
		if idx.table.strict {
			panic(idx.invariantErrf(id, true, "key %v refers to a missing row", k))
		}
		return nil
	}
	return row
}

// LookupID returns the ID of the row holding k.
func (idx *UniqueIndex[Row, K]) LookupID(k K) (ID, bool) {
	id, ok := idx.entries[k]
	if idx.debugScans {
		idx.table.logScan("LOOKUP_ID", idx.FullName(), k)
	}
	return id, ok
}

// Exists reports whether any row holds k.
func (idx *UniqueIndex[Row, K]) Exists(k K) bool {
	_, ok := idx.entries[k]
	return ok
}

// Len returns the number of keys, which equals the number of rows.
func (idx *UniqueIndex[Row, K]) Len() int {
	return len(idx.entries)
}

func (idx *UniqueIndex[Row, K]) verify() error {
	seen := make(map[ID]struct{}, len(idx.entries))
	for k, id := range idx.entries {
		if _, dup := seen[id]; dup {
			return idx.invariantErrf(id, true, "row is filed under more than one key")
		}
		seen[id] = struct{}{}
		row, ok := idx.table.store.get(id)
		if !ok {
			return idx.invariantErrf(id, true, "key %v refers to a missing row", k)
		}
		if actual := idx.key(row); actual != k {
			return idx.invariantErrf(id, true, "filed under key %v, row has %v", k, actual)
		}
	}
	if n, rows := len(idx.entries), idx.table.store.len(); n != rows {
		return idx.invariantErrf(0, false, "%d entries for %d rows", n, rows)
	}
	return nil
}

func (idx *UniqueIndex[Row, K]) stats() IndexStats {
	return IndexStats{Name: idx.name, Kind: idx.kind, Keys: len(idx.entries), Entries: len(idx.entries)}
}

func (idx *UniqueIndex[Row, K]) digest() uint64 {
	buf := encodeValue(acquireDigestBuf(), idx.name)
	sum := xxhash.Sum64(buf)
	ids := make(idSet, 1)
	for k, id := range idx.entries {
		ids[0] = id
		buf = encodeBucket(buf[:0], k, ids)
		sum += xxhash.Sum64(buf)
	}
	releaseDigestBuf(buf)
	return sum
}

func (idx *UniqueIndex[Row, K]) dump(w *strings.Builder, prefix string) {
	lines := make([]string, 0, len(idx.entries))
	for k, id := range idx.entries {
		lines = append(lines, fmt.Sprintf("%s => %d", loggableKey(k), id))
	}
	dumpSortedLines(w, prefix, lines)
}
