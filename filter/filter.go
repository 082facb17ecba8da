// Package filter implements the composable address/port predicates the
// capture worker evaluates against every parsed packet before it is
// aggregated.
package filter

import (
	"cmp"
	"net/netip"
)

// Filter is a membership test over a comparable value: either an exact
// set (FromList) or an inclusive range (FromRange/FromAddrRange). The
// inner variant is kept private: callers only ever see the constructors
// and Matches.
//
// Range membership is expressed via an explicit less function rather
// than the `<` operator, so the same generic type serves both natively
// ordered values (ports, via FromRange's cmp.Ordered constraint) and
// net/netip.Addr (via FromAddrRange and Addr.Less) — netip.Addr is a
// struct and does not satisfy cmp.Ordered.
type Filter[T comparable] struct {
	kind   kind
	values map[T]struct{} // kind == kindList
	lo, hi T              // kind == kindRange
	less   func(a, b T) bool
}

type kind int

const (
	kindList kind = iota
	kindRange
)

// FromList builds a Filter that matches exactly the given values.
func FromList[T comparable](values ...T) Filter[T] {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return Filter[T]{kind: kindList, values: set}
}

// fromRange builds a range filter given an explicit strict-less-than
// function, swapping its arguments into ascending order first so range
// filters are identical regardless of argument order.
func fromRange[T comparable](a, b T, less func(x, y T) bool) Filter[T] {
	lo, hi := a, b
	if less(hi, lo) {
		lo, hi = hi, lo
	}
	return Filter[T]{kind: kindRange, lo: lo, hi: hi, less: less}
}

// FromRange builds a Filter that matches any value in [min(a,b), max(a,b)],
// inclusive on both ends, for a natively ordered type (e.g. uint16 ports).
// Arguments given in either order produce an identical filter.
func FromRange[T cmp.Ordered](a, b T) Filter[T] {
	return fromRange(a, b, func(x, y T) bool { return x < y })
}

// FromAddrRange is FromRange's equivalent for net/netip.Addr, which has
// no `<` operator but does define Less.
func FromAddrRange(a, b netip.Addr) Filter[netip.Addr] {
	return fromRange(a, b, func(x, y netip.Addr) bool { return x.Less(y) })
}

// Matches reports whether x satisfies the filter.
func (f Filter[T]) Matches(x T) bool {
	switch f.kind {
	case kindRange:
		return !f.less(x, f.lo) && !f.less(f.hi, x)
	default:
		_, ok := f.values[x]
		return ok
	}
}

// Direction controls which side(s) of a (source, destination) pair a
// DirectedFilter consults.
type Direction int

const (
	SourceOnly Direction = iota
	DestinationOnly
	BothDirections
)

// DirectedFilter wraps a Filter with a Direction, giving it the
// (src, dst) -> bool shape a filter Set composes over.
type DirectedFilter[T comparable] struct {
	f   Filter[T]
	dir Direction
}

// NewDirectedFilter pairs a Filter with the direction it should be
// evaluated against.
func NewDirectedFilter[T comparable](f Filter[T], dir Direction) DirectedFilter[T] {
	return DirectedFilter[T]{f: f, dir: dir}
}

// Accepts implements this filter's direction semantics: SourceOnly tests
// only src, DestinationOnly only dst, BothDirections either.
func (d DirectedFilter[T]) Accepts(src, dst T) bool {
	switch d.dir {
	case SourceOnly:
		return d.f.Matches(src)
	case DestinationOnly:
		return d.f.Matches(dst)
	default: // BothDirections
		return d.f.Matches(src) || d.f.Matches(dst)
	}
}
