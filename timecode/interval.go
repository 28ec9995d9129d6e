package timecode

import "fmt"

// Interval is a half-open time range [In, Out).
type Interval struct {
	In, Out Rational
}

// NewInterval returns [in, out).
func NewInterval(in, out Rational) Interval { return Interval{In: in, Out: out} }

// Contains reports whether t lies in [In, Out).
func (iv Interval) Contains(t Rational) bool {
	return iv.In.LessEq(t) && t.Less(iv.Out)
}

// Overlaps reports whether iv and o share any instant.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.In.Less(o.Out) && o.In.Less(iv.Out)
}

// Length returns Out - In.
func (iv Interval) Length() Rational { return iv.Out.Sub(iv.In) }

// IsEmpty reports whether the interval covers no instant.
func (iv Interval) IsEmpty() bool { return !iv.In.Less(iv.Out) }

// Intersect returns the overlap of iv and o; ok is false when they are
// disjoint.
func (iv Interval) Intersect(o Interval) (Interval, bool) {
	in := iv.In
	if o.In.Cmp(in) > 0 {
		in = o.In
	}
	out := iv.Out
	if o.Out.Cmp(out) < 0 {
		out = o.Out
	}
	if !in.Less(out) {
		return Interval{}, false
	}
	return Interval{In: in, Out: out}, true
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.In, iv.Out)
}
