// Package boltsrc feeds rows stored in a Bolt bucket into a memtable.Table.
//
// Each value in the bucket is one msgpack-encoded row; keys only determine the
// load order. Nested buckets are skipped.
package boltsrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/andreyvit/memtable"
)

var ErrBucketNotFound = errors.New("bucket not found")

// DecodeError is returned when a stored value cannot be decoded into a row.
type DecodeError struct {
	Bucket string
	Key    []byte
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("boltsrc: %s/%x: %v", e.Bucket, e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type Options[Row any] struct {
	// OnConflict is called when a row is rejected by a unique index. Returning
	// nil skips the row; returning an error aborts the load with it. When
	// OnConflict is nil, the first conflict aborts the load.
	OnConflict func(key []byte, row *Row, err error) error

	Logger  *slog.Logger
	Verbose bool
}

type Result struct {
	Loaded  int
	Skipped int
}

// Load inserts every row stored in bucket into tbl, in key order. Rows loaded
// before an error stay in the table.
func Load[Row any](btx *bbolt.Tx, bucket string, tbl *memtable.Table[Row], opt Options[Row]) (Result, error) {
	var res Result
	buck := btx.Bucket([]byte(bucket))
	if buck == nil {
		return res, fmt.Errorf("boltsrc: %w: %s", ErrBucketNotFound, bucket)
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := buck.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if v == nil {
			continue
		}
		var row Row
		if err := decodeRow(v, &row); err != nil {
			return res, &DecodeError{Bucket: bucket, Key: slices.Clone(k), Err: err}
		}
		id, err := tbl.Insert(row)
		if err != nil {
			if opt.OnConflict == nil {
				return res, fmt.Errorf("boltsrc: %s/%x: %w", bucket, k, err)
			}
			if err := opt.OnConflict(k, &row, err); err != nil {
				return res, err
			}
			res.Skipped++
			if opt.Verbose {
				logger.LogAttrs(context.Background(), slog.LevelDebug, "boltsrc: SKIP", slog.String("bucket", bucket), hexAttr("key", k))
			}
			continue
		}
		res.Loaded++
		if opt.Verbose {
			logger.LogAttrs(context.Background(), slog.LevelDebug, "boltsrc: LOAD", slog.String("bucket", bucket), hexAttr("key", k), slog.Uint64("id", uint64(id)))
		}
	}
	return res, nil
}

// LoadFile opens the Bolt database at path read-only and loads bucket into tbl.
func LoadFile[Row any](path string, bucket string, tbl *memtable.Table[Row], opt Options[Row]) (Result, error) {
	bdb, err := bbolt.Open(path, 0666, &bbolt.Options{
		ReadOnly: true,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return Result{}, fmt.Errorf("boltsrc: %w", err)
	}
	defer bdb.Close()

	var res Result
	err = bdb.View(func(btx *bbolt.Tx) error {
		var err error
		res, err = Load(btx, bucket, tbl, opt)
		return err
	})
	return res, err
}

// Put stores row under key in bucket, creating the bucket if needed, using
// the encoding Load expects.
func Put[Row any](btx *bbolt.Tx, bucket string, key []byte, row *Row) error {
	buck, err := btx.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return fmt.Errorf("boltsrc: %w", err)
	}
	raw, err := msgpack.Marshal(row)
	if err != nil {
		return fmt.Errorf("boltsrc: failed to encode %T: %w", row, err)
	}
	return buck.Put(key, raw)
}

func decodeRow[Row any](buf []byte, row *Row) error {
	var r bytes.Reader
	r.Reset(buf)
	dec := msgpack.GetDecoder()
	dec.ResetDict(&r, nil)
	err := dec.Decode(row)
	msgpack.PutDecoder(dec)
	return err
}
