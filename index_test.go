package memtable

import (
	"math"
	"slices"
	"strings"
	"testing"
)

type item struct {
	K int    `msgpack:"k" json:"k"`
	V string `msgpack:"v" json:"v"`
}

func newItemTable(t testing.TB, a Addressing, items ...item) (*Table[item], *OrderedIndex[item, int]) {
	t.Helper()
	tbl := NewTable[item]("items", a, Options{Strict: true})
	byK := AddOrderedIndex(tbl, "k", func(r *item) int { return r.K })
	for _, it := range items {
		if _, err := tbl.Insert(it); err != nil {
			t.Fatal(err)
		}
	}
	return tbl, byK
}

func TestOrderedRange(t *testing.T) {
	_, byK := newItemTable(t, Stable,
		item{10, "a"}, // 0
		item{20, "b"}, // 1
		item{30, "c"}, // 2
		item{10, "d"}, // 3
		item{30, "e"}, // 4
		item{40, "f"}, // 5
	)

	o := func(name string, r Range[int], exp ...ID) {
		t.Run(name, func(t *testing.T) {
			t.Helper()
			deepEqual(t, byK.Range(r).CollectIDs(), exp)

			rev := slices.Clone(exp)
			slices.Reverse(rev)
			deepEqual(t, byK.Range(r).Reversed().CollectIDs(), rev)
		})
	}
	o("OO", RangeOO[int](), 0, 3, 1, 2, 4, 5)
	o("IO", RangeIO(20), 1, 2, 4, 5)
	o("EO", RangeEO(20), 2, 4, 5)
	o("IO missing", RangeIO(15), 1, 2, 4, 5)
	o("EO missing", RangeEO(15), 1, 2, 4, 5)
	o("IO past end", RangeIO(50))
	o("OI", RangeOI(30), 0, 3, 1, 2, 4)
	o("OE", RangeOE(30), 0, 3, 1)
	o("OE first", RangeOE(10))
	o("OI first", RangeOI(10), 0, 3)
	o("II", RangeII(20, 30), 1, 2, 4)
	o("IE", RangeIE(20, 30), 1)
	o("EI", RangeEI(20, 30), 2, 4)
	o("EE", RangeEE(20, 30))
	o("EE wide", RangeEE(10, 40), 1, 2, 4)
	o("exact", Exact(30), 2, 4)
	o("exact missing", Exact(25))
	o("inverted", RangeII(30, 20))
}

func TestOrderedRangeEmptyIndex(t *testing.T) {
	_, byK := newItemTable(t, Dense)
	isempty(t, byK.Range(RangeOO[int]()).CollectIDs())
	isempty(t, byK.Range(RangeII(1, 2)).Reversed().CollectIDs())
	_, ok := byK.Min()
	deepEqual(t, ok, false)
}

func TestOrderedKeysCountMinMax(t *testing.T) {
	_, byK := newItemTable(t, Dense, item{3, "a"}, item{1, "b"}, item{3, "c"}, item{2, "d"})
	deepEqual(t, slices.Collect(byK.Keys(RangeOO[int]())), []int{1, 2, 3})
	deepEqual(t, slices.Collect(byK.Keys(RangeEO(1))), []int{2, 3})
	deepEqual(t, byK.Count(3), 2)
	deepEqual(t, byK.Count(4), 0)
	deepEqual(t, byK.Len(), 3)

	lo, _ := byK.Min()
	hi, _ := byK.Max()
	deepEqual(t, []int{lo, hi}, []int{1, 3})
}

func TestOrderedIndexFunc(t *testing.T) {
	tbl := NewTable[item]("items", Stable, Options{Strict: true})
	byV := AddOrderedIndexFunc(tbl, "v", func(r *item) string { return r.V }, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	mustOK(tbl.InsertAll(item{V: "b"}, item{V: "A"}, item{V: "a"}, item{V: "C"}))

	deepEqual(t, byV.Lookup("a").CollectIDs(), []ID{1, 2})
	deepEqual(t, byV.Range(RangeIE("a", "c")).CollectIDs(), []ID{1, 2, 0})
	deepEqual(t, slices.Collect(byV.Keys(RangeOO[string]())), []string{"A", "b", "C"})

	tbl.Remove(1)
	deepEqual(t, byV.Lookup("A").CollectIDs(), []ID{2})
	deepEqual(t, slices.Collect(byV.Keys(RangeOO[string]())), []string{"a", "b", "C"})
	lo, _ := byV.Min()
	deepEqual(t, lo, "a")
	ok2(t, tbl.Verify())

	tbl.Update(3, func(r *item) { r.V = "B" })
	deepEqual(t, slices.Collect(byV.Keys(RangeOO[string]())), []string{"a", "b"})
	tbl.Remove(0)
	deepEqual(t, slices.Collect(byV.Keys(RangeOO[string]())), []string{"a", "B"})
}

func TestOrderedIndexFuncDenseKeepsHeldKey(t *testing.T) {
	tbl := NewTable[item]("items", Dense, Options{Strict: true})
	byV := AddOrderedIndexFunc(tbl, "v", func(r *item) string { return r.V }, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	mustOK(tbl.InsertAll(item{V: "X"}, item{V: "y"}, item{V: "x"}))

	// x moves into slot 0 and becomes the only holder of the bucket
	tbl.Remove(0)
	deepEqual(t, byV.Lookup("x").CollectIDs(), []ID{0})
	deepEqual(t, slices.Collect(byV.Keys(RangeOO[string]())), []string{"x", "y"})
}

type measurement struct {
	Label string
	Value float64
	Code  float64
}

func TestKeysNotEqualToThemselvesAreRejected(t *testing.T) {
	nan := math.NaN()
	forEachAddressing(t, func(t *testing.T, a Addressing) {
		tbl := NewTable[measurement]("measurements", a, Options{Strict: true})
		byLabel := AddOrderedIndex(tbl, "label", func(m *measurement) string { return m.Label })
		byValue := AddHashIndex(tbl, "value", func(m *measurement) float64 { return m.Value })
		byCode := AddUniqueIndex(tbl, "code", func(m *measurement) float64 { return m.Code })

		assertPanics(t, func() {
			tbl.Insert(measurement{Label: "a", Value: nan, Code: 1})
		})
		assertPanics(t, func() {
			tbl.Insert(measurement{Label: "b", Value: 1, Code: nan})
		})
		deepEqual(t, tbl.Len(), 0)
		deepEqual(t, byLabel.Len(), 0)
		deepEqual(t, byValue.Len(), 0)
		deepEqual(t, byCode.Len(), 0)

		id, err := tbl.Insert(measurement{Label: "c", Value: 2, Code: 3})
		ok2(t, err)
		sum := tbl.Checksum()
		assertPanics(t, func() {
			tbl.Update(id, func(m *measurement) { m.Value = nan })
		})
		deepEqual(t, tbl.Checksum(), sum)
		deepEqual(t, byValue.Lookup(2).CollectIDs(), []ID{id})

		tbl.Remove(id)
		deepEqual(t, byValue.Len(), 0)
		deepEqual(t, byCode.Len(), 0)
		ok2(t, tbl.Verify())
	})
}

func TestOrderedIndexAcceptsNaN(t *testing.T) {
	tbl := NewTable[measurement]("measurements", Stable, Options{Strict: true})
	byValue := AddOrderedIndex(tbl, "value", func(m *measurement) float64 { return m.Value })
	mustOK(tbl.InsertAll(measurement{Value: math.NaN()}, measurement{Value: 1}, measurement{Value: math.NaN()}))

	deepEqual(t, byValue.Len(), 2)
	deepEqual(t, byValue.Range(RangeOO[float64]()).CollectIDs(), []ID{0, 2, 1})
	tbl.Remove(0)
	tbl.Remove(2)
	deepEqual(t, byValue.Len(), 1)
	ok2(t, tbl.Verify())
}

func TestOrderedLookupReversed(t *testing.T) {
	_, byK := newItemTable(t, Stable, item{1, "a"}, item{2, "b"}, item{1, "c"}, item{1, "d"})
	deepEqual(t, byK.Lookup(1).CollectIDs(), []ID{0, 2, 3})
	deepEqual(t, byK.Lookup(1).Reversed().CollectIDs(), []ID{3, 2, 0})
	isempty(t, byK.Lookup(5).CollectIDs())
}

func TestOrderedBucketRemovedWhenEmpty(t *testing.T) {
	tbl, byK := newItemTable(t, Stable, item{1, "a"}, item{2, "b"})
	tbl.Remove(0)
	deepEqual(t, byK.Len(), 1)
	deepEqual(t, byK.Count(1), 0)
	deepEqual(t, byK.stats(), IndexStats{Name: "k", Kind: KindOrdered, Keys: 1, Entries: 1})
}

func TestHashIndex(t *testing.T) {
	pt := newPersonTable(t, Stable)
	for i, age := range []int{30, 40, 30, 50, 30} {
		mustInsert(t, pt, Person{Name: "p", Age: age, Ident: uint64(i)})
	}
	deepEqual(t, pt.byAge.Lookup(30).CollectIDs(), []ID{0, 2, 4})
	deepEqual(t, pt.byAge.Lookup(30).Reversed().CollectIDs(), []ID{4, 2, 0})
	deepEqual(t, pt.byAge.Count(30), 3)
	deepEqual(t, pt.byAge.Count(99), 0)
	isempty(t, pt.byAge.Lookup(99).Collect())
	deepEqual(t, pt.byAge.Len(), 3)

	pt.Remove(3)
	deepEqual(t, pt.byAge.Len(), 2)
	deepEqual(t, pt.byAge.stats().Entries, 4)
}

func TestUniqueIndex(t *testing.T) {
	pt := newPersonTable(t, Stable)
	mustInsert(t, pt, Person{Name: "foo", Ident: 7})
	mustInsert(t, pt, Person{Name: "bar", Ident: 8})

	id, ok := pt.byIdent.Check(8)
	deepEqual(t, id, ID(1))
	deepEqual(t, ok, true)
	_, ok = pt.byIdent.Check(9)
	deepEqual(t, ok, false)

	deepEqual(t, pt.byIdent.Lookup(7).Name, "foo")
	isnil(t, pt.byIdent.Lookup(9))
	deepEqual(t, pt.byIdent.Exists(8), true)
	deepEqual(t, pt.byIdent.Len(), 2)

	pt.Remove(0)
	deepEqual(t, pt.byIdent.Exists(7), false)
	deepEqual(t, pt.byIdent.Len(), 1)
}

func TestUniqueDeleteIgnoresOtherRow(t *testing.T) {
	pt := newPersonTable(t, Stable)
	mustInsert(t, pt, Person{Name: "foo", Ident: 7})
	deepEqual(t, pt.byIdent.delete(7, 5), false)
	deepEqual(t, pt.byIdent.Exists(7), true)
	deepEqual(t, pt.byIdent.delete(7, 0), true)
	deepEqual(t, pt.byIdent.Exists(7), false)
}

func TestIndexAccessors(t *testing.T) {
	pt := newPersonTable(t, Stable)
	deepEqual(t, pt.byName.FullName(), "people.name")
	deepEqual(t, pt.byAge.ShortName(), "age")
	deepEqual(t, pt.byIdent.Kind(), KindUnique)
	deepEqual(t, pt.bySurname.Table(), pt.Table)
	deepEqual(t, KindHash.String(), "hash")
	deepEqual(t, IndexKind(9).String(), "invalid index kind 9")
}

func TestIndexOptVerify(t *testing.T) {
	tbl := NewTable[item]("items", Stable, Options{})
	byK := AddOrderedIndex(tbl, "k", func(r *item) int { return r.K }, IndexOptVerify, IndexOptDebugScans)
	mustOK(tbl.Insert(item{1, "a"}))

	byK.insert(2, 0)
	assertPanics(t, func() {
		tbl.Insert(item{3, "b"})
	})
}
