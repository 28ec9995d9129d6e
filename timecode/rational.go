// Package timecode implements exact rational timestamps for a continuous
// editing timeline, half-open intervals over them, and disjoint range sets.
//
// Rational is a value type and comparable, so it can key a map directly.
// All arithmetic is exact; there is no float conversion on any hot path.
package timecode

import "fmt"

// Rational is an exact num/den timestamp. Values produced by the
// constructors and arithmetic methods are always normalized (den > 0,
// reduced by gcd), so == and map-key equality agree with Cmp.
//
// The zero value Rational{} behaves as 0 in arithmetic but is not the
// canonical zero; use Zero() or FromInt(0) when the value will key a map.
type Rational struct {
	num, den int64
}

// Zero returns the canonical zero timestamp.
func Zero() Rational { return Rational{0, 1} }

// FromInt returns n expressed as a rational.
func FromInt(n int64) Rational { return Rational{n, 1} }

// New returns num/den normalized. A zero denominator yields Zero.
func New(num, den int64) Rational {
	if den == 0 {
		return Zero()
	}
	if den < 0 {
		num, den = -num, -den
	}
	if g := gcd(abs(num), den); g > 1 {
		num /= g
		den /= g
	}
	if num == 0 {
		return Zero()
	}
	return Rational{num, den}
}

// Num returns the normalized numerator.
func (r Rational) Num() int64 { return r.norm().num }

// Den returns the normalized denominator (always > 0).
func (r Rational) Den() int64 { return r.norm().den }

func (r Rational) norm() Rational {
	if r.den == 0 {
		return Rational{r.num, 1}
	}
	return r
}

func (r Rational) Add(o Rational) Rational {
	r, o = r.norm(), o.norm()
	return New(r.num*o.den+o.num*r.den, r.den*o.den)
}

func (r Rational) Sub(o Rational) Rational {
	r, o = r.norm(), o.norm()
	return New(r.num*o.den-o.num*r.den, r.den*o.den)
}

func (r Rational) Mul(o Rational) Rational {
	r, o = r.norm(), o.norm()
	return New(r.num*o.num, r.den*o.den)
}

// Div returns r/o. Division by zero yields Zero.
func (r Rational) Div(o Rational) Rational {
	r, o = r.norm(), o.norm()
	if o.num == 0 {
		return Zero()
	}
	return New(r.num*o.den, r.den*o.num)
}

func (r Rational) Neg() Rational {
	r = r.norm()
	return Rational{-r.num, r.den}
}

// Cmp returns -1, 0 or +1 as r is less than, equal to or greater than o.
func (r Rational) Cmp(o Rational) int {
	r, o = r.norm(), o.norm()
	l := r.num * o.den
	rr := o.num * r.den
	switch {
	case l < rr:
		return -1
	case l > rr:
		return 1
	default:
		return 0
	}
}

func (r Rational) Less(o Rational) bool   { return r.Cmp(o) < 0 }
func (r Rational) LessEq(o Rational) bool { return r.Cmp(o) <= 0 }

// Sign returns -1, 0 or +1.
func (r Rational) Sign() int {
	switch {
	case r.num < 0:
		return -1
	case r.num > 0:
		return 1
	default:
		return 0
	}
}

func (r Rational) IsZero() bool { return r.num == 0 }

func (r Rational) Float64() float64 {
	r = r.norm()
	return float64(r.num) / float64(r.den)
}

func (r Rational) String() string {
	r = r.norm()
	if r.den == 1 {
		return fmt.Sprintf("%d", r.num)
	}
	return fmt.Sprintf("%d/%d", r.num, r.den)
}

// SnapToTimebase returns the grid instant nearest to t on the grid defined
// by tb (ties round forward). tb must be positive; a non-positive tb
// returns t unchanged.
func SnapToTimebase(t, tb Rational) Rational {
	if tb.Sign() <= 0 {
		return t.norm()
	}
	f := floorDivRat(t, tb)
	rem := t.Sub(tb.Mul(FromInt(f)))
	// round half forward: rem*2 >= tb -> next instant
	if rem.Add(rem).Cmp(tb) >= 0 {
		f++
	}
	return tb.Mul(FromInt(f))
}

// floorDivRat returns floor(a/b) for positive b.
func floorDivRat(a, b Rational) int64 {
	a, b = a.norm(), b.norm()
	// a/b = (a.num*b.den) / (a.den*b.num); both a.den and b stay positive
	return floorDiv(a.num*b.den, a.den*b.num)
}

func floorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}
