package memtable

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

type TableStats struct {
	Rows      int
	IndexRows int
	Indices   []IndexStats
}

type IndexStats struct {
	Name string
	Kind IndexKind

	// Keys is the number of distinct keys (buckets) in the index.
	Keys int

	// Entries is the number of (key, ID) pairs; equals the row count in a
	// consistent table.
	Entries int
}

func (tbl *Table[Row]) Stats() TableStats {
	result := TableStats{
		Rows:    tbl.store.len(),
		Indices: make([]IndexStats, 0, len(tbl.indices)),
	}
	for _, idx := range tbl.indices {
		s := idx.stats()
		result.IndexRows += s.Entries
		result.Indices = append(result.Indices, s)
	}
	return result
}

// Checksum returns a digest of the table's entire state: the msgpack encoding
// of every row with its ID, and every index entry. Two tables with equal
// checksums hold rows with the same exported fields under the same IDs,
// indexed the same way. Unexported fields are not covered. Checksum panics if
// a row or key cannot be encoded with msgpack.
func (tbl *Table[Row]) Checksum() uint64 {
	d := xxhash.New()
	buf := acquireDigestBuf()
	buf = binary.AppendUvarint(buf, uint64(tbl.store.len()))
	buf = binary.AppendUvarint(buf, uint64(tbl.nextID))
	d.Write(buf)

	tbl.store.ascend(func(id ID, row *Row) bool {
		buf = encodeRow(buf[:0], id, row)
		d.Write(buf)
		return true
	})

	for _, idx := range tbl.indices {
		buf = binary.LittleEndian.AppendUint64(buf[:0], idx.digest())
		d.Write(buf)
	}
	releaseDigestBuf(buf)
	return d.Sum64()
}

func (tbl *Table[Row]) loggableRow(row *Row) string {
	if row == nil {
		return "<none>"
	}
	if tbl.suppressContent {
		return "<suppressed>"
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Sprintf("%+v", *row)
	}
	return string(raw)
}

func loggableKey(k any) string {
	raw, err := json.Marshal(k)
	if err != nil {
		return fmt.Sprint(k)
	}
	return string(raw)
}
