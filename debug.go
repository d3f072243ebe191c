package memtable

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

type DumpFlags uint64

const (
	DumpTableHeaders = DumpFlags(1 << iota)
	DumpRows
	DumpStats
	DumpIndices
	DumpIndexRows

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the table as text, for debugging and test failure messages.
func (tbl *Table[Row]) Dump(f DumpFlags) string {
	var w strings.Builder
	prefix := tbl.name
	s := tbl.Stats()

	if f.Contains(DumpTableHeaders) {
		fmt.Fprintln(&w, dumpSep1)
		fmt.Fprintf(&w, "%s (%d rows, %s)\n", prefix, s.Rows, tbl.addressing)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(&w, "%s.stats: index_rows = %d, next_id = %d\n", prefix, s.IndexRows, tbl.nextID)
	}

	if f.Contains(DumpRows) {
		if f.Contains(DumpStats) {
			fmt.Fprintln(&w, dumpSep2)
		}
		tbl.store.ascend(func(id ID, row *Row) bool {
			fmt.Fprintf(&w, "%s.%d = %s\n", prefix, id, tbl.loggableRow(row))
			return true
		})
	}

	if f.Contains(DumpIndices) {
		for i, idx := range tbl.indices {
			fmt.Fprintln(&w, dumpSep2)
			ip := prefix + ".i." + idx.base().name
			is := s.Indices[i]
			fmt.Fprintf(&w, "%s (%s, %d keys, %d entries)\n", ip, is.Kind, is.Keys, is.Entries)
			if f.Contains(DumpIndexRows) {
				idx.dump(&w, ip)
			}
		}
	}
	return w.String()
}

// dumpSortedLines prints lines of an unordered index in a stable order.
func dumpSortedLines(w *strings.Builder, prefix string, lines []string) {
	slices.Sort(lines)
	for i, line := range lines {
		fmt.Fprintf(w, "%s.%d: %s\n", prefix, i+1, line)
	}
}

func (tbl *Table[Row]) logMutation(op string, id ID, row *Row, attrs ...slog.Attr) {
	if !tbl.verbose {
		return
	}
	attrs = append(attrs,
		slog.String("table", tbl.name),
		slog.Uint64("id", uint64(id)),
		slog.String("row", tbl.loggableRow(row)))
	tbl.logger.LogAttrs(context.Background(), slog.LevelDebug, "memtable: "+op, attrs...)
}

func (tbl *Table[Row]) logScan(op, index string, arg any) {
	tbl.logger.LogAttrs(context.Background(), slog.LevelDebug, "memtable: "+op,
		slog.String("index", index),
		slog.String("arg", fmt.Sprint(arg)))
}
