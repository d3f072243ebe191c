package memtable

import (
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

type bytesBuilder struct {
	Buf []byte
}

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = append(bb.Buf, b...)
	return len(b), nil
}

func (bb *bytesBuilder) WriteByte(v byte) error {
	bb.Buf = append(bb.Buf, v)
	return nil
}

// encodeValue appends the msgpack encoding of v to buf. Map keys are sorted so
// equal values always encode to equal bytes.
func encodeValue(buf []byte, v any) []byte {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.ResetDict(&bb, nil)
	enc.SetSortMapKeys(true)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(fmt.Errorf("failed to encode %T using MsgPack: %w", v, err))
	}
	return bb.Buf
}

// encodeRow appends id and the encoded row.
func encodeRow[Row any](buf []byte, id ID, row *Row) []byte {
	buf = binary.AppendUvarint(buf, uint64(id))
	return encodeValue(buf, row)
}

// encodeBucket appends the encoded key followed by the count and IDs of the bucket.
func encodeBucket[K any](buf []byte, key K, ids idSet) []byte {
	buf = encodeValue(buf, key)
	buf = binary.AppendUvarint(buf, uint64(len(ids)))
	for _, id := range ids {
		buf = binary.AppendUvarint(buf, uint64(id))
	}
	return buf
}
