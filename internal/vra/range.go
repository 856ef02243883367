package vra

import "math"

// Range is a closed interval [Min, Max] over the extended reals, the
// lattice this analysis propagates. Bottom (not yet computed) is
// represented as [+Inf, -Inf]; Top (unknown) is [-Inf, +Inf].
type Range struct {
	Min, Max float64
	// Fixed ranges reject enlargement by MergeInto and Scope.MergeWith;
	// Merge and Operand.widenTo do not check the flag.
	Fixed bool
}

// NewRange canonicalises swapped endpoints so Min <= Max always holds
// for non-bottom ranges.
func NewRange(lo, hi float64) Range {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Range{Min: lo, Max: hi}
}

// Point returns a fixed, single-value range [v, v].
func Point(v float64) Range {
	return Range{Min: v, Max: v, Fixed: true}
}

// Bottom is the empty range, identity element of Merge.
func Bottom() Range { return Range{Min: math.Inf(1), Max: math.Inf(-1)} }

// Top is the fully unknown range.
func Top() Range { return Range{Min: math.Inf(-1), Max: math.Inf(1)} }

// IsBottom reports whether r is the empty/unreached range.
func (r Range) IsBottom() bool { return r.Min > r.Max }

// IsTop reports whether r spans the whole extended real line.
func (r Range) IsTop() bool {
	return math.IsInf(r.Min, -1) && math.IsInf(r.Max, 1)
}

// ContainsZero reports whether 0 lies within [Min, Max].
func (r Range) ContainsZero() bool {
	return !r.IsBottom() && r.Min <= 0 && r.Max >= 0
}

// Merge computes the join of two ranges: the smallest interval
// enclosing both. Bottom is the identity element.
func Merge(a, b Range) Range {
	if a.IsBottom() {
		return b
	}
	if b.IsBottom() {
		return a
	}
	return Range{Min: math.Min(a.Min, b.Min), Max: math.Max(a.Max, b.Max)}
}

// MergeInto enlarges r to also cover other, unless r is Fixed.
func (r Range) MergeInto(other Range) Range {
	if r.Fixed {
		return r
	}
	return Merge(r, other)
}

// Add models repeated accumulation of b into a across a loop with the
// given iteration bounds. minIter == maxIter == 1 gives ordinary
// interval addition.
func Add(a, b Range, minIter, maxIter uint64) Range {
	if a.IsBottom() || b.IsBottom() {
		return Bottom()
	}
	return Range{
		Min: a.Min + float64(minIter)*b.Min,
		Max: a.Max + float64(maxIter)*b.Max,
	}
}

// Sub mirrors Add for subtraction: the subtrahend's contribution is
// inverted, so the conservative envelope swaps which bound drives min
// vs max.
func Sub(a, b Range, minIter, maxIter uint64) Range {
	if a.IsBottom() || b.IsBottom() {
		return Bottom()
	}
	return Range{
		Min: a.Min - float64(maxIter)*b.Max,
		Max: a.Max - float64(minIter)*b.Min,
	}
}

// Mul is the standard four-corners rule for interval multiplication.
func Mul(a, b Range) Range {
	if a.IsBottom() || b.IsBottom() {
		return Bottom()
	}
	corners := [4]float64{
		a.Min * b.Min,
		a.Min * b.Max,
		a.Max * b.Min,
		a.Max * b.Max,
	}
	return envelope(corners[:])
}

// Div is four-corners division; it is only defined when b does not
// straddle zero. Callers must check ContainsZero first per §4.A.
func Div(a, b Range) Range {
	if a.IsBottom() || b.IsBottom() || b.ContainsZero() {
		return Top()
	}
	corners := [4]float64{
		a.Min / b.Min,
		a.Min / b.Max,
		a.Max / b.Min,
		a.Max / b.Max,
	}
	return envelope(corners[:])
}

// MulOnLoop models a * b^i for i ranging over a representative sample
// of the loop's iteration bounds: {minIter, minIter+1, maxIter-1,
// maxIter}, duplicates removed. This is a conservative but cheap
// sampling of the geometric-growth curve rather than an exact
// integration over every i.
func MulOnLoop(a, b Range, minIter, maxIter uint64) Range {
	if a.IsBottom() || b.IsBottom() {
		return Bottom()
	}
	samples := sampleExponents(minIter, maxIter)

	result := Bottom()
	for _, i := range samples {
		pow := powInterval(b, i)
		result = Merge(result, Mul(a, pow))
	}
	return result
}

// sampleExponents returns the deduplicated, sorted sample points used
// by MulOnLoop.
func sampleExponents(minIter, maxIter uint64) []uint64 {
	candidates := []uint64{minIter}
	if maxIter > 0 {
		candidates = append(candidates, minIter+1, maxIter-1, maxIter)
	} else {
		candidates = append(candidates, maxIter)
	}

	seen := make(map[uint64]bool, len(candidates))
	var out []uint64
	for _, c := range candidates {
		if c < minIter || c > maxIter {
			continue
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		out = append(out, minIter)
	}
	return out
}

// powInterval computes b^exp as an interval. At exp == 0 it is the
// point [1,1]. If b straddles zero and exp is even, the result cannot
// go negative, so the lower bound is clamped to 0.
func powInterval(b Range, exp uint64) Range {
	if exp == 0 {
		return Point(1)
	}

	lo := math.Pow(b.Min, float64(exp))
	hi := math.Pow(b.Max, float64(exp))
	r := NewRange(lo, hi)

	if b.ContainsZero() && exp%2 == 0 {
		r.Min = 0
	}
	return r
}

func envelope(vals []float64) Range {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return Range{Min: lo, Max: hi}
}
