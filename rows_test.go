package memtable

import (
	"errors"
	"slices"
	"testing"
)

func TestRowsAreLazy(t *testing.T) {
	pt := newPersonTable(t, Stable)
	foos := pt.byName.Lookup("foo")
	deepEqual(t, foos.Count(), 0)

	mustInsert(t, pt, Person{Name: "foo", Ident: 1})
	mustInsert(t, pt, Person{Name: "bar", Ident: 2})
	mustInsert(t, pt, Person{Name: "foo", Ident: 3})
	deepEqual(t, foos.CollectIDs(), []ID{0, 2})
	deepEqual(t, foos.CollectIDs(), []ID{0, 2})
	deepEqual(t, foos.Count(), 2)

	var idents []uint64
	for _, p := range foos.Reversed().All() {
		idents = append(idents, p.Ident)
	}
	deepEqual(t, idents, []uint64{3, 1})
}

func TestRowsFirst(t *testing.T) {
	pt := newPersonTable(t, Dense)
	_, _, ok := pt.Scan().First()
	deepEqual(t, ok, false)

	mustInsert(t, pt, Person{Name: "foo", Ident: 1})
	mustInsert(t, pt, Person{Name: "bar", Ident: 2})
	id, p, ok := pt.byName.Range(RangeOO[string]()).First()
	deepEqual(t, ok, true)
	deepEqual(t, id, ID(1))
	deepEqual(t, p.Name, "bar")

	id, _, _ = pt.Scan().Reversed().First()
	deepEqual(t, id, ID(1))
}

func TestRowsPanicWhenTableModified(t *testing.T) {
	forEachAddressing(t, func(t *testing.T, a Addressing) {
		pt := newPersonTable(t, a)
		for i := range 3 {
			mustInsert(t, pt, Person{Name: "foo", Ident: uint64(i)})
		}
		assertPanics(t, func() {
			for id := range pt.Scan().IDs() {
				pt.Remove(id)
			}
		})
		assertPanics(t, func() {
			for id := range pt.byName.Lookup("foo").IDs() {
				pt.Update(id, func(p *Person) { p.Name = "bar" })
			}
		})
	})
}

func TestKeysPanicWhenTableModified(t *testing.T) {
	forEachAddressing(t, func(t *testing.T, a Addressing) {
		tbl, byK := newItemTable(t, a)
		for i := range 50 {
			mustOK(tbl.Insert(item{K: i}))
		}
		visited := 0
		assertPanics(t, func() {
			for k := range byK.Keys(RangeOO[int]()) {
				visited++
				tbl.Remove(ID(k))
			}
		})
		deepEqual(t, visited, 1)
		deepEqual(t, tbl.Len(), 49)

		// stopping right after a mutation is fine
		for k := range byK.Keys(RangeIO(10)) {
			tbl.Remove(ID(k))
			break
		}
		deepEqual(t, tbl.Len(), 48)

		for _, k := range slices.Collect(byK.Keys(RangeOO[int]())) {
			if _, _, ok := byK.Lookup(k).First(); !ok {
				t.Fatalf("key %d has no rows", k)
			}
		}
	})
}

func TestRowsModifyThenStop(t *testing.T) {
	pt := newPersonTable(t, Stable)
	for i := range 3 {
		mustInsert(t, pt, Person{Name: "foo", Ident: uint64(i)})
	}
	for id := range pt.byName.Lookup("foo").IDs() {
		pt.Remove(id)
		break
	}
	deepEqual(t, pt.Len(), 2)

	for _, id := range pt.Scan().CollectIDs() {
		pt.Remove(id)
	}
	deepEqual(t, pt.Len(), 0)
}

func TestRowsDanglingEntry(t *testing.T) {
	tbl := NewTable[item]("items", Stable, Options{})
	byK := AddOrderedIndex(tbl, "k", func(r *item) int { return r.K })
	mustOK(tbl.Insert(item{1, "a"}))
	byK.insert(1, 42)

	deepEqual(t, byK.Lookup(1).CollectIDs(), []ID{0, 42})
	deepEqual(t, len(byK.Lookup(1).Collect()), 1)

	var ie *InvariantError
	if err := tbl.Verify(); !errors.As(err, &ie) {
		t.Fatalf("Verify() = %v, wanted *InvariantError", err)
	}
	deepEqual(t, ie.Index, "k")
	deepEqual(t, ie.ID, ID(42))

	tbl.strict = true
	assertPanics(t, func() {
		byK.Lookup(1).Collect()
	})
}

func TestRowsZeroValue(t *testing.T) {
	var r Rows[item]
	isempty(t, r.CollectIDs())
	isempty(t, r.Collect())
}
