package memtable

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConflict is matched (via errors.Is) by every *ConflictError.
var ErrConflict = errors.New("unique constraint violation")

// ConflictError is returned by Insert and Update when a row would duplicate
// the key of another row in a unique index. ID is the row already holding Key.
type ConflictError struct {
	Table string
	Index string
	Key   any
	ID    ID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s.%s: duplicate key %v, conflicts with row %d", e.Table, e.Index, e.Key, e.ID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ConflictID returns the ID of the conflicting row if err is a *ConflictError.
func ConflictID(err error) (ID, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.ID, true
	}
	return 0, false
}

// InvariantError describes an inconsistency between the row store and an
// index, as found by Table.Verify.
type InvariantError struct {
	Table string
	Index string
	ID    ID
	HasID bool
	Msg   string
}

func invariantErrf(table, index string, id ID, hasID bool, format string, args ...any) error {
	return &InvariantError{table, index, id, hasID, fmt.Sprintf(format, args...)}
}

func (e *InvariantError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Table)
	if e.Index != "" {
		buf.WriteByte('.')
		buf.WriteString(e.Index)
	}
	if e.HasID {
		fmt.Fprintf(&buf, "/%d", e.ID)
	}
	buf.WriteString(": ")
	buf.WriteString(e.Msg)
	return buf.String()
}
