package port

import (
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/token"
)

// ClockBlock is a programmable divider or edge-forwarding element providing the clock
// for its attached ports (spec.md §3/§4.2, component E).
type ClockBlock struct {
	resource.Base

	source  *Port // non-nil when source-driven; divide is then forced to 1
	divide  uint8
	running bool

	readyIn         *Port
	readyInCaptured uint32

	attachedPorts []*Port

	phase      uint64 // time at which the current signal definition took effect
	lastUpdate uint64
}

// NewClockBlock constructs a stopped, reference-divided (divide=1) clock block.
func NewClockBlock(id resource.ID) *ClockBlock {
	cb := &ClockBlock{divide: 1}
	cb.Base = resource.NewBase(id)
	return cb
}

func (cb *ClockBlock) attach(p *Port) {
	cb.attachedPorts = append(cb.attachedPorts, p)
}

// signal returns the clock's current edge source: the attached source port's pin
// signal when source-driven, a periodic divide of the reference clock when running,
// or a non-edging constant when stopped (spec.md §4.2 "Clock block states").
func (cb *ClockBlock) signal() token.Signal {
	if cb.source != nil {
		return cb.source.pin
	}
	if !cb.running {
		return token.Constant(0)
	}
	return token.Periodic(cb.phase, uint64(cb.divide))
}

// updateAttachedPorts drains every attached port up to `time` under the clock's
// *current* signal definition, before any pending mutation is applied — the ordering
// spec.md §4.2 requires ("every state change calls updateAttachedPorts to advance them
// to the current time before the change is applied").
func (cb *ClockBlock) updateAttachedPorts(time uint64) {
	sig := cb.signal()
	for _, p := range cb.attachedPorts {
		it := sig.Edges(cb.lastUpdate)
		for {
			t, edge, ok := it.Next()
			if !ok || t > time {
				break
			}
			p.OnEdge(edge, t)
		}
	}
	cb.lastUpdate = time
}

// SetDivide changes the reference-clock divider (1..255). Forced to 1 while
// source-driven, per spec.md §4.2.
func (cb *ClockBlock) SetDivide(time uint64, divide uint8) {
	cb.updateAttachedPorts(time)
	if cb.source != nil {
		divide = 1
	}
	if divide == 0 {
		divide = 1
	}
	cb.divide = divide
	cb.phase = time
}

// SetSource switches the clock to source-driven mode, or back to reference-divided
// mode when src is nil.
func (cb *ClockBlock) SetSource(time uint64, src *Port) {
	cb.updateAttachedPorts(time)
	cb.source = src
	if src != nil {
		cb.divide = 1
	}
	cb.phase = time
}

// Start begins the reference-clock divider running.
func (cb *ClockBlock) Start(time uint64) {
	cb.updateAttachedPorts(time)
	cb.running = true
	cb.phase = time
}

// Stop halts the reference-clock divider.
func (cb *ClockBlock) Stop(time uint64) {
	cb.updateAttachedPorts(time)
	cb.running = false
}

// SetReadyIn records this clock's ready-in port after draining attached ports up to
// time. Start and Stop do not consult it, and no ready-in value is captured.
func (cb *ClockBlock) SetReadyIn(time uint64, r *Port) {
	cb.updateAttachedPorts(time)
	cb.readyIn = r
}

// Running reports whether the reference divider is currently running.
func (cb *ClockBlock) Running() bool { return cb.running }

// Divide returns the current divider value.
func (cb *ClockBlock) Divide() uint8 { return cb.divide }

// UpdateTo drains every attached port's edges up to time; the scheduler's event
// wheel drives it between instruction quanta.
func (cb *ClockBlock) UpdateTo(time uint64) { cb.updateAttachedPorts(time) }

// NeedsUpdates reports whether any attached port has deferred work that future
// edges could complete; the event wheel disarms an idle clock.
func (cb *ClockBlock) NeedsUpdates() bool {
	for _, p := range cb.attachedPorts {
		if p.Active() {
			return true
		}
	}
	return false
}

// NextEventTime returns the next time at which this clock's own state will cause
// attached-port work (spec.md §4.2 "Scheduling": "the port computes the next wall
// clock time at which its own state will change... and schedules a resource update").
// ok is false when the clock is stopped and not source-driven (no future edges).
func (cb *ClockBlock) NextEventTime(from uint64) (uint64, bool) {
	sig := cb.signal()
	if sig.IsConstant() {
		return 0, false
	}
	t, _, ok := sig.Edges(from).Next()
	return t, ok
}
