package memtable

import (
	"cmp"
	"fmt"
	"iter"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/btree"
)

type orderedBucket[K any] struct {
	key K
	ids idSet
}

// OrderedIndex maps a key to the rows holding it and keeps keys sorted,
// supporting range scans in both directions.
type OrderedIndex[Row, K any] struct {
	indexBase[Row]
	key     func(row *Row) K
	cmp     func(a, b K) int
	tree    *btree.BTreeG[*orderedBucket[K]]
	entries int
}

// AddOrderedIndex declares an ordered index on tbl keyed by key(row).
func AddOrderedIndex[Row any, K cmp.Ordered](tbl *Table[Row], name string, key func(row *Row) K, opts ...any) *OrderedIndex[Row, K] {
	return AddOrderedIndexFunc(tbl, name, key, cmp.Compare[K], opts...)
}

// AddOrderedIndexFunc is like AddOrderedIndex, but orders keys with compare,
// which must return a negative number when a < b, zero when a == b and a
// positive number when a > b.
func AddOrderedIndexFunc[Row, K any](tbl *Table[Row], name string, key func(row *Row) K, compare func(a, b K) int, opts ...any) *OrderedIndex[Row, K] {
	if key == nil || compare == nil {
		panic(fmt.Errorf("%s.%s: key and compare funcs are required", tbl.name, name))
	}
	idx := &OrderedIndex[Row, K]{
		key: key,
		cmp: compare,
		tree: btree.NewG(btreeDegree, func(a, b *orderedBucket[K]) bool {
			return compare(a.key, b.key) < 0
		}),
	}
	tbl.addIndex(idx, name, KindOrdered, opts)
	return idx
}

func (idx *OrderedIndex[Row, K]) bucket(k K) (*orderedBucket[K], bool) {
	return idx.tree.Get(&orderedBucket[K]{key: k})
}

func (idx *OrderedIndex[Row, K]) insert(k K, id ID) {
	b, ok := idx.bucket(k)
	if !ok {
		b = &orderedBucket[K]{key: k}
		idx.tree.ReplaceOrInsert(b)
	}
	if b.ids.add(id) {
		idx.entries++
	}
}

func (idx *OrderedIndex[Row, K]) delete(k K, id ID) bool {
	b, ok := idx.bucket(k)
	if !ok || !b.ids.remove(id) {
		return false
	}
	idx.entries--
	if len(b.ids) == 0 {
		idx.tree.Delete(b)
	}
	return true
}

// checkKey accepts everything: compare decides equality, so any key can be
// found again.
func (idx *OrderedIndex[Row, K]) checkKey(row *Row) {}

func (idx *OrderedIndex[Row, K]) add(row *Row, id ID) {
	idx.insert(idx.key(row), id)
}

// remove also re-reads the bucket key from a remaining row, since compare may
// treat distinct values as equal and the departing row may have supplied it.
func (idx *OrderedIndex[Row, K]) remove(row *Row, id ID) {
	k := idx.key(row)
	if !idx.delete(k, id) {
		return
	}
	if b, ok := idx.bucket(k); ok {
		if other, ok := idx.table.store.get(b.ids[0]); ok {
			b.key = idx.key(other)
		}
	}
}

func (idx *OrderedIndex[Row, K]) contains(row *Row, id ID) bool {
	b, ok := idx.bucket(idx.key(row))
	return ok && b.ids.has(id)
}

// buckets visits the buckets within r in key order (descending if reverse)
// and returns false if yield asked to stop.
func (idx *OrderedIndex[Row, K]) buckets(r Range[K], reverse bool, yield func(b *orderedBucket[K]) bool) bool {
	stopped := false
	if !reverse {
		visit := func(b *orderedBucket[K]) bool {
			if r.HasUpper && !r.belowUpper(idx.cmp(b.key, r.Upper)) {
				return false
			}
			if r.HasLower && !r.aboveLower(idx.cmp(b.key, r.Lower)) {
				return true
			}
			if !yield(b) {
				stopped = true
				return false
			}
			return true
		}
		if r.HasLower {
			idx.tree.AscendGreaterOrEqual(&orderedBucket[K]{key: r.Lower}, visit)
		} else {
			idx.tree.Ascend(visit)
		}
	} else {
		visit := func(b *orderedBucket[K]) bool {
			if r.HasLower && !r.aboveLower(idx.cmp(b.key, r.Lower)) {
				return false
			}
			if r.HasUpper && !r.belowUpper(idx.cmp(b.key, r.Upper)) {
				return true
			}
			if !yield(b) {
				stopped = true
				return false
			}
			return true
		}
		if r.HasUpper {
			idx.tree.DescendLessOrEqual(&orderedBucket[K]{key: r.Upper}, visit)
		} else {
			idx.tree.Descend(visit)
		}
	}
	return !stopped
}

// Lookup returns the rows whose key equals k, in ID order.
func (idx *OrderedIndex[Row, K]) Lookup(k K) Rows[Row] {
	if idx.debugScans {
		idx.table.logScan("LOOKUP", idx.FullName(), k)
	}
	return idx.table.rows(idSource{
		ascend: func(yield func(ID) bool) {
			if b, ok := idx.bucket(k); ok {
				b.ids.ascend(yield)
			}
		},
		descend: func(yield func(ID) bool) {
			if b, ok := idx.bucket(k); ok {
				b.ids.descend(yield)
			}
		},
	})
}

// Range returns the rows whose key falls within r, ordered by key and then
// by ID. Reversing the result yields the same rows in the opposite order.
func (idx *OrderedIndex[Row, K]) Range(r Range[K]) Rows[Row] {
	if idx.debugScans {
		idx.table.logScan("RANGE", idx.FullName(), r)
	}
	return idx.table.rows(idSource{
		ascend: func(yield func(ID) bool) {
			idx.buckets(r, false, func(b *orderedBucket[K]) bool {
				return b.ids.ascend(yield)
			})
		},
		descend: func(yield func(ID) bool) {
			idx.buckets(r, true, func(b *orderedBucket[K]) bool {
				return b.ids.descend(yield)
			})
		},
	})
}

// Keys returns the distinct keys present within r, in ascending order. Like
// Rows, it panics if the table is mutated during a pass.
func (idx *OrderedIndex[Row, K]) Keys(r Range[K]) iter.Seq[K] {
	return func(yield func(K) bool) {
		modCount := idx.table.modCount
		idx.buckets(r, false, func(b *orderedBucket[K]) bool {
			if !yield(b.key) {
				return false
			}
			idx.table.ensureUnmodified(modCount)
			return true
		})
	}
}

// Count returns the number of rows whose key equals k.
func (idx *OrderedIndex[Row, K]) Count(k K) int {
	b, ok := idx.bucket(k)
	if !ok {
		return 0
	}
	return len(b.ids)
}

// Len returns the number of distinct keys.
func (idx *OrderedIndex[Row, K]) Len() int {
	return idx.tree.Len()
}

func (idx *OrderedIndex[Row, K]) Min() (K, bool) {
	b, ok := idx.tree.Min()
	if !ok {
		var zero K
		return zero, false
	}
	return b.key, true
}

func (idx *OrderedIndex[Row, K]) Max() (K, bool) {
	b, ok := idx.tree.Max()
	if !ok {
		var zero K
		return zero, false
	}
	return b.key, true
}

func (idx *OrderedIndex[Row, K]) verify() error {
	var err error
	var n int
	idx.tree.Ascend(func(b *orderedBucket[K]) bool {
		if len(b.ids) == 0 {
			err = idx.invariantErrf(0, false, "empty bucket for key %v", b.key)
			return false
		}
		for _, id := range b.ids {
			row, ok := idx.table.store.get(id)
			if !ok {
				err = idx.invariantErrf(id, true, "key %v refers to a missing row", b.key)
				return false
			}
			if actual := idx.key(row); idx.cmp(actual, b.key) != 0 {
				err = idx.invariantErrf(id, true, "filed under key %v, row has %v", b.key, actual)
				return false
			}
		}
		n += len(b.ids)
		return true
	})
	if err != nil {
		return err
	}
	if n != idx.entries {
		return idx.invariantErrf(0, false, "%d entries, counter says %d", n, idx.entries)
	}
	if rows := idx.table.store.len(); n != rows {
		return idx.invariantErrf(0, false, "%d entries for %d rows", n, rows)
	}
	return nil
}

func (idx *OrderedIndex[Row, K]) stats() IndexStats {
	return IndexStats{Name: idx.name, Kind: idx.kind, Keys: idx.tree.Len(), Entries: idx.entries}
}

func (idx *OrderedIndex[Row, K]) digest() uint64 {
	d := xxhash.New()
	buf := encodeValue(acquireDigestBuf(), idx.name)
	d.Write(buf)
	idx.tree.Ascend(func(b *orderedBucket[K]) bool {
		buf = encodeBucket(buf[:0], b.key, b.ids)
		d.Write(buf)
		return true
	})
	releaseDigestBuf(buf)
	return d.Sum64()
}

func (idx *OrderedIndex[Row, K]) dump(w *strings.Builder, prefix string) {
	var pos int
	idx.tree.Ascend(func(b *orderedBucket[K]) bool {
		pos++
		fmt.Fprintf(w, "%s.%d: %s => %v\n", prefix, pos, loggableKey(b.key), []ID(b.ids))
		return true
	})
}
