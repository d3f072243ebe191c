/*
Package memtable implements an in-memory indexed record store: a single table of
rows plus a set of secondary indexes kept in sync with it.

We implement:

1. Tables, holding one canonical copy of every row of a given Go type.

2. Ordered indexes, allowing point lookups and sorted range scans by a key
extracted from the row.

3. Hash indexes, allowing point lookups only.

4. Unique indexes, enforcing that at most one row holds a given key.

# Technical Details

**Identifiers.**
Rows are addressed by an integer ID. The addressing strategy is chosen per table:

  - Stable: IDs come from a counter owned by the table, starting at zero and
    incremented once per successful insert. IDs are never reused, so callers may
    hold on to them across mutations. Rows live in a B-tree keyed by ID.

  - Dense: IDs are positions in a contiguous slice. Removing row k moves the last
    row into slot k, so the ID of the previously-last row changes to k. All index
    entries of the moved row are re-keyed as part of the removal.

**Buckets.**
Ordered and hash indexes map a key to a bucket, the sorted set of IDs of rows
holding that key. A bucket is deleted as soon as its last member goes away, so
empty buckets are never observable.

**Atomicity.**
Insert and Update run every unique check before the first mutation. A rejected
call returns a *ConflictError carrying the ID of the conflicting row and leaves
the table exactly as it was (see Table.Checksum).

**Queries.**
Indexes store IDs only. Lookups and ranges return Rows, a lazy, restartable,
reversible sequence that resolves IDs through the table when iterated.

**Concurrency.**
There is no internal locking. Callers must serialize mutations; concurrent
readers are fine while no mutation is in flight.
*/
package memtable
