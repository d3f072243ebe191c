package memtable

import (
	"fmt"
	"strings"
)

// Range defines a range of index keys. The constructors use mnemonics:
// O means open, I means inclusive, E means exclusive; the first letter is for
// the lower bound, the second for the upper bound.
type Range[K any] struct {
	Lower    K
	Upper    K
	HasLower bool
	HasUpper bool
	LowerInc bool
	UpperInc bool
}

func RangeOO[K any]() Range[K]    { return Range[K]{} }
func RangeIO[K any](l K) Range[K] { return Range[K]{Lower: l, HasLower: true, LowerInc: true} }
func RangeEO[K any](l K) Range[K] { return Range[K]{Lower: l, HasLower: true} }
func RangeOI[K any](u K) Range[K] { return Range[K]{Upper: u, HasUpper: true, UpperInc: true} }
func RangeOE[K any](u K) Range[K] { return Range[K]{Upper: u, HasUpper: true} }
func RangeII[K any](l, u K) Range[K] {
	return Range[K]{Lower: l, Upper: u, HasLower: true, HasUpper: true, LowerInc: true, UpperInc: true}
}
func RangeIE[K any](l, u K) Range[K] {
	return Range[K]{Lower: l, Upper: u, HasLower: true, HasUpper: true, LowerInc: true}
}
func RangeEI[K any](l, u K) Range[K] {
	return Range[K]{Lower: l, Upper: u, HasLower: true, HasUpper: true, UpperInc: true}
}
func RangeEE[K any](l, u K) Range[K] {
	return Range[K]{Lower: l, Upper: u, HasLower: true, HasUpper: true}
}

// Exact is the range holding just k.
func Exact[K any](k K) Range[K] { return RangeII(k, k) }

// aboveLower reports whether a key compared to the lower bound (c = cmp(key, lower))
// is inside the range.
func (r *Range[K]) aboveLower(c int) bool {
	return c > 0 || (c == 0 && r.LowerInc)
}

func (r *Range[K]) belowUpper(c int) bool {
	return c < 0 || (c == 0 && r.UpperInc)
}

func (r Range[K]) String() string {
	var buf strings.Builder
	if r.HasLower {
		if r.LowerInc {
			buf.WriteByte('[')
		} else {
			buf.WriteByte('(')
		}
		fmt.Fprint(&buf, r.Lower)
	} else {
		buf.WriteString("(-inf")
	}
	buf.WriteString(", ")
	if r.HasUpper {
		fmt.Fprint(&buf, r.Upper)
		if r.UpperInc {
			buf.WriteByte(']')
		} else {
			buf.WriteByte(')')
		}
	} else {
		buf.WriteString("+inf)")
	}
	return buf.String()
}
