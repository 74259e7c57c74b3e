package token

// Edge identifies the direction of a clock or pin transition.
type Edge int

const (
	Rising Edge = iota
	Falling
)

func (e Edge) String() string {
	if e == Rising {
		return "rising"
	}
	return "falling"
}

// Signal is a port's pin value: either a fixed constant, or a periodic clock defined
// by a phase and half-period in simulated ticks (spec.md §9 "Signal / edge iterator").
// The zero value is a constant signal holding 0.
type Signal struct {
	constant    bool
	value       uint32
	phaseTicks  uint64
	halfPeriod  uint64
	periodic    bool
}

// Constant returns a signal that never changes value.
func Constant(value uint32) Signal {
	return Signal{constant: true, value: value}
}

// Periodic returns a signal alternating between 0 and 1 with the given half-period,
// first transitioning to RISING at phaseTicks.
func Periodic(phaseTicks, halfPeriodTicks uint64) Signal {
	if halfPeriodTicks == 0 {
		return Constant(0)
	}
	return Signal{periodic: true, phaseTicks: phaseTicks, halfPeriod: halfPeriodTicks}
}

// IsConstant reports whether the signal never edges.
func (s Signal) IsConstant() bool { return !s.periodic }

// ValueAt returns the pin value at the given simulated time.
func (s Signal) ValueAt(time uint64) uint32 {
	if !s.periodic {
		return s.value
	}
	if time < s.phaseTicks {
		return 0
	}
	elapsed := time - s.phaseTicks
	halfPeriods := elapsed / s.halfPeriod
	if halfPeriods%2 == 0 {
		return 1 // the edge opening this half-period was rising
	}
	return 0
}

// EdgeIterator walks the edges of a Signal forward from a starting time. A constant
// signal's iterator is always empty, matching spec.md §9.
type EdgeIterator struct {
	sig  Signal
	next uint64
	n    uint64 // index of the next edge since phaseTicks
}

// Edges returns an iterator over s's edges starting at or after `from`.
func (s Signal) Edges(from uint64) *EdgeIterator {
	it := &EdgeIterator{sig: s}
	if s.IsConstant() {
		return it
	}
	if from <= s.phaseTicks {
		it.n = 0
		it.next = s.phaseTicks
		return it
	}
	elapsed := from - s.phaseTicks
	n := elapsed / s.halfPeriod
	if elapsed%s.halfPeriod != 0 {
		n++
	}
	it.n = n
	it.next = s.phaseTicks + n*s.halfPeriod
	return it
}

// Next returns the next (time, edge) pair and advances the iterator. ok is false only
// for a constant signal, whose iterator never yields an edge.
func (it *EdgeIterator) Next() (time uint64, edge Edge, ok bool) {
	if it.sig.IsConstant() {
		return 0, Rising, false
	}
	time = it.next
	if it.n%2 == 0 {
		edge = Rising
	} else {
		edge = Falling
	}
	it.n++
	it.next += it.sig.halfPeriod
	return time, edge, true
}
