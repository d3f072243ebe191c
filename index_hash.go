package memtable

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashIndex maps a key to the rows holding it. It supports point lookups only;
// its key order carries no meaning, so there is no Range.
type HashIndex[Row any, K comparable] struct {
	indexBase[Row]
	key     func(row *Row) K
	buckets map[K]idSet
	entries int
}

// AddHashIndex declares a hash index on tbl keyed by key(row).
func AddHashIndex[Row any, K comparable](tbl *Table[Row], name string, key func(row *Row) K, opts ...any) *HashIndex[Row, K] {
	if key == nil {
		panic(fmt.Errorf("%s.%s: key func is required", tbl.name, name))
	}
	idx := &HashIndex[Row, K]{
		key:     key,
		buckets: make(map[K]idSet),
	}
	tbl.addIndex(idx, name, KindHash, opts)
	return idx
}

func (idx *HashIndex[Row, K]) insert(k K, id ID) {
	s := idx.buckets[k]
	if s.add(id) {
		idx.entries++
	}
	idx.buckets[k] = s
}

func (idx *HashIndex[Row, K]) delete(k K, id ID) bool {
	s, ok := idx.buckets[k]
	if !ok || !s.remove(id) {
		return false
	}
	idx.entries--
	if len(s) == 0 {
		delete(idx.buckets, k)
	} else {
		idx.buckets[k] = s
	}
	return true
}

func (idx *HashIndex[Row, K]) checkKey(row *Row) {
	ensureFileable(&idx.indexBase, idx.key(row))
}

func (idx *HashIndex[Row, K]) add(row *Row, id ID) {
	idx.insert(idx.key(row), id)
}

func (idx *HashIndex[Row, K]) remove(row *Row, id ID) {
	idx.delete(idx.key(row), id)
}

func (idx *HashIndex[Row, K]) contains(row *Row, id ID) bool {
	return idx.buckets[idx.key(row)].has(id)
}

// Lookup returns the rows whose key equals k, in ID order.
func (idx *HashIndex[Row, K]) Lookup(k K) Rows[Row] {
	if idx.debugScans {
		idx.table.logScan("LOOKUP", idx.FullName(), k)
	}
	return idx.table.rows(idSource{
		ascend: func(yield func(ID) bool) {
			idx.buckets[k].ascend(yield)
		},
		descend: func(yield func(ID) bool) {
			idx.buckets[k].descend(yield)
		},
	})
}

// Count returns the number of rows whose key equals k.
func (idx *HashIndex[Row, K]) Count(k K) int {
	return len(idx.buckets[k])
}

// Len returns the number of distinct keys.
func (idx *HashIndex[Row, K]) Len() int {
	return len(idx.buckets)
}

func (idx *HashIndex[Row, K]) verify() error {
	var n int
	for k, s := range idx.buckets {
		if len(s) == 0 {
			return idx.invariantErrf(0, false, "empty bucket for key %v", k)
		}
		for _, id := range s {
			row, ok := idx.table.store.get(id)
			if !ok {
				return idx.invariantErrf(id, true, "key %v refers to a missing row", k)
			}
			if actual := idx.key(row); actual != k {
				return idx.invariantErrf(id, true, "filed under key %v, row has %v", k, actual)
			}
		}
		n += len(s)
	}
	if n != idx.entries {
		return idx.invariantErrf(0, false, "%d entries, counter says %d", n, idx.entries)
	}
	if rows := idx.table.store.len(); n != rows {
		return idx.invariantErrf(0, false, "%d entries for %d rows", n, rows)
	}
	return nil
}

func (idx *HashIndex[Row, K]) stats() IndexStats {
	return IndexStats{Name: idx.name, Kind: idx.kind, Keys: len(idx.buckets), Entries: idx.entries}
}

// digest sums per-bucket hashes, so map iteration order does not matter.
func (idx *HashIndex[Row, K]) digest() uint64 {
	buf := encodeValue(acquireDigestBuf(), idx.name)
	sum := xxhash.Sum64(buf)
	for k, s := range idx.buckets {
		buf = encodeBucket(buf[:0], k, s)
		sum += xxhash.Sum64(buf)
	}
	releaseDigestBuf(buf)
	return sum
}

func (idx *HashIndex[Row, K]) dump(w *strings.Builder, prefix string) {
	lines := make([]string, 0, len(idx.buckets))
	for k, s := range idx.buckets {
		lines = append(lines, fmt.Sprintf("%s => %v", loggableKey(k), []ID(s)))
	}
	dumpSortedLines(w, prefix, lines)
}
