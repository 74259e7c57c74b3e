// Package port implements the clocked, condition-filtered port I/O model of spec.md
// §4.2 (component E): Port and ClockBlock.
package port

import (
	"github.com/zotley-sim/xtilesim/xcore/exec"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/token"
)

// Mode is a port's current transfer direction.
type Mode int

const (
	ModeInput Mode = iota
	ModeOutput
)

// Condition gates which samples a port latches (spec.md §4.2).
type Condition int

const (
	CondFull Condition = iota // unconditional
	CondEQ
	CondNEQ
	CondPinsEQ
	CondPinsNEQ
)

// ReadyMode selects the ready-in/ready-out handshake protocol (spec.md §4.2).
type ReadyMode int

const (
	ReadyNone ReadyMode = iota
	ReadyStrobedMaster
	ReadyStrobedSlave
	ReadyHandshake
)

// Width is a port's pin-group width in bits. Valid values are 1, 4, 8, 16, 32.
type Width int

// Port is a hardware pin group (spec.md §3/§4.2).
type Port struct {
	resource.Base

	Width         Width
	TransferWidth int
	Buffered      bool
	Mode          Mode
	Ready         ReadyMode

	cond      Condition
	comparand uint32
	hasTS     bool
	timestamp uint32

	clock *ClockBlock
	readyIn, readyOut *Port

	pin         token.Signal // externally-driven input value, used when Mode==ModeInput
	lastObserve uint64

	shiftReg        uint32
	shiftRegEntries int
	transferReg     uint32
	transferValid   bool
	outputValue     uint32

	counter uint32

	pausedIn  resource.PauseSlot
	pausedOut resource.PauseSlot
	pausedSync resource.PauseSlot

	waker   resource.Waker
	events  resource.EventRaiser
	watcher PinWatcher
}

// PinWatcher observes pin-value changes on a port; the waveform tracer installs one.
type PinWatcher interface {
	PinsChanged(id resource.ID, value uint32, time uint64)
}

// NewPort constructs an input-mode, unbuffered, unconditional port of the given width.
func NewPort(id resource.ID, width Width) *Port {
	p := &Port{Width: width, TransferWidth: int(width)}
	p.Base = resource.NewBase(id)
	return p
}

// SetWaker installs the scheduler resume hook.
func (p *Port) SetWaker(w resource.Waker) { p.waker = w }

// SetEvents installs the scheduler event-raise hook.
func (p *Port) SetEvents(e resource.EventRaiser) { p.events = e }

// AttachClock binds this port to the clock block that drives its edges, matching the
// Port ↔ ClockBlock back-reference of spec.md §3.
func (p *Port) AttachClock(cb *ClockBlock) {
	p.clock = cb
	cb.attach(p)
}

// SetReadyIn / SetReadyOut wire the handshake ports (spec.md §4.2 "Ready handshake").
func (p *Port) SetReadyIn(r *Port)  { p.readyIn = r }
func (p *Port) SetReadyOut(r *Port) { p.readyOut = r }

// SetC configures the latch condition and comparand together.
func (p *Port) SetC(cond Condition, comparand uint32) {
	p.cond = cond
	p.comparand = comparand
}

// SetCond configures the latch condition alone (SETC); the comparand arrives
// separately through SetData (SETD).
func (p *Port) SetCond(cond Condition) { p.cond = cond }

// SetData sets the condition comparand (the SETD instruction on a port).
func (p *Port) SetData(comparand uint32) { p.comparand = comparand }

// SetTransferWidth configures the shift-register slot width (the SETTW
// instruction). The width must be a multiple of the port width and at most 32.
func (p *Port) SetTransferWidth(w uint32) bool {
	if w == 0 || w > 32 || int(w)%int(p.Width) != 0 {
		return false
	}
	p.TransferWidth = int(w)
	return true
}

// GetTimestamp returns the port counter (the GETTS instruction).
func (p *Port) GetTimestamp() uint32 { return p.counter }

// TransferValid reports whether a completed input word is waiting in the transfer
// register (the condition an enabled port event fires on).
func (p *Port) TransferValid() bool { return p.transferValid }

// Clock returns the attached clock block, or nil before SETCLK.
func (p *Port) Clock() *ClockBlock { return p.clock }

// Active reports whether the port currently has deferred work an edge could
// complete: a parked thread, events enabled, or a waveform watcher attached.
func (p *Port) Active() bool {
	return p.pausedIn.Armed() || p.pausedOut.Armed() || p.pausedSync.Armed() ||
		p.Base.Events || p.watcher != nil ||
		(p.Mode == ModeOutput && p.shiftRegEntries > 0)
}

// Sync parks the caller until the output shift register fully drains (the SYNCR
// instruction).
func (p *Port) Sync(caller resource.ThreadID) exec.Outcome {
	if p.Mode != ModeOutput || (p.shiftRegEntries == 0 && !p.transferValid) {
		return exec.Cont
	}
	p.pausedSync.Park(caller)
	return exec.Desched
}

// SetPT arms a timestamp comparand (the SETPT instruction): the first sample whose
// port counter equals the timestamp is latched.
func (p *Port) SetPT(ts uint32) {
	p.hasTS = true
	p.timestamp = ts
}

// ClearPT disarms the timestamp condition.
func (p *Port) ClearPT() { p.hasTS = false }

// SetWatcher installs the pin-change observer.
func (p *Port) SetWatcher(w PinWatcher) { p.watcher = w }

func (p *Port) pinsChanged(value uint32, time uint64) {
	if p.watcher != nil {
		p.watcher.PinsChanged(p.Base.ID, value&p.mask(), time)
	}
}

// SetPinSignal drives this port's input pin externally (test harnesses / peripheral
// models use this; it is also how a 1-bit source port feeds a ClockBlock).
func (p *Port) SetPinSignal(s token.Signal) { p.pin = s }

func (p *Port) mask() uint32 {
	if p.Width >= 32 {
		return 0xffffffff
	}
	return (uint32(1) << uint(p.Width)) - 1
}

// PinValue returns this port's pin value at the given time: the externally driven
// Signal when input, or the current output shift-register slot when output.
func (p *Port) PinValue(time uint64) uint32 {
	if p.Mode == ModeOutput {
		return p.outputValue & p.mask()
	}
	return p.pin.ValueAt(time) & p.mask()
}

func (p *Port) valueMeetsCondition(v uint32) bool {
	switch p.cond {
	case CondFull:
		return true
	case CondEQ:
		return v&p.mask() == p.comparand&p.mask()
	case CondNEQ:
		return v&p.mask() != p.comparand&p.mask()
	case CondPinsEQ:
		return v&p.mask() == p.comparand&p.mask()
	case CondPinsNEQ:
		return v&p.mask() != p.comparand&p.mask()
	default:
		return true
	}
}

func (p *Port) slots() int {
	if p.Width == 0 {
		return 1
	}
	n := p.TransferWidth / int(p.Width)
	if n <= 0 {
		n = 1
	}
	return n
}

// Out implements the OUT instruction on a buffered output port (spec.md §4.2): set the
// transfer register; if the shift register is empty the value transfers immediately
// and output begins on the next falling edge, otherwise the caller parks until the
// shift register drains.
func (p *Port) Out(caller resource.ThreadID, value uint32, time uint64) exec.Outcome {
	p.Mode = ModeOutput
	if p.transferValid {
		p.pausedOut.Park(caller)
		return exec.Desched
	}
	p.transferReg = value
	p.transferValid = true
	if p.shiftRegEntries == 0 {
		p.loadShiftFromTransfer(time)
	}
	return exec.Cont
}

func (p *Port) loadShiftFromTransfer(time uint64) {
	p.shiftReg = p.transferReg
	p.shiftRegEntries = p.slots()
	p.transferValid = false
	if out := p.shiftReg & p.mask(); out != p.outputValue {
		p.outputValue = out
		p.pinsChanged(out, time)
	}
	p.pausedOut.Resume(p.waker)
}

// In implements the IN instruction: if the transfer register is already full
// (shiftRegEntries drained to zero on the input side), the value is returned
// immediately; otherwise the caller parks until a qualifying sample completes it.
func (p *Port) In(caller resource.ThreadID) (uint32, exec.Outcome) {
	p.Mode = ModeInput
	if p.transferValid {
		v := p.transferReg
		p.transferValid = false
		return v, exec.Cont
	}
	p.pausedIn.Park(caller)
	return 0, exec.Desched
}

// onRisingEdge samples the pin (input mode) and shifts it into the shift register;
// when the shift register fills, the transfer register becomes valid and unblocks a
// parked IN, subject to the configured condition and any armed timestamp.
func (p *Port) onRisingEdge(time uint64) {
	if p.Mode != ModeInput {
		p.counter++
		return
	}
	if p.Ready == ReadyStrobedSlave || p.Ready == ReadyHandshake {
		if p.readyIn == nil || p.readyIn.PinValue(time)&1 == 0 {
			p.counter++
			return
		}
	}
	sample := p.pin.ValueAt(time) & p.mask()
	if p.hasTS && p.counter != p.timestamp {
		p.counter++
		return
	}
	if !p.valueMeetsCondition(sample) {
		p.counter++
		return
	}
	p.shiftReg = (p.shiftReg << uint(p.Width)) | sample
	p.shiftRegEntries++
	p.counter++
	if p.shiftRegEntries >= p.slots() {
		p.transferReg = p.shiftReg
		p.transferValid = true
		p.shiftReg = 0
		p.shiftRegEntries = 0
		p.hasTS = false
		if p.pausedIn.Armed() {
			p.pausedIn.Resume(p.waker)
		} else if p.Base.Events && p.events != nil {
			p.events.RaiseEvent(p.Base.Owner, p.Base.ID)
		}
	}
}

// onFallingEdge rotates the output shift register and, once drained, reloads it from
// a pending transfer register (spec.md §4.2 buffered-output algorithm).
func (p *Port) onFallingEdge(time uint64) {
	if p.Mode != ModeOutput {
		return
	}
	if p.shiftRegEntries > 0 {
		p.shiftRegEntries--
		p.shiftReg >>= uint(p.Width)
		if out := p.shiftReg & p.mask(); out != p.outputValue {
			p.outputValue = out
			p.pinsChanged(out, time)
		}
	}
	if p.shiftRegEntries == 0 && p.transferValid {
		p.loadShiftFromTransfer(time)
	}
	if p.shiftRegEntries == 0 && !p.transferValid {
		p.pausedSync.Resume(p.waker)
	}
	if p.Ready == ReadyStrobedMaster || p.Ready == ReadyHandshake {
		if p.readyOut != nil {
			p.readyOut.SetPinSignal(token.Constant(1))
		}
	}
}

// OnEdge applies one clock edge to this port; called by the attached ClockBlock's
// updateAttachedPorts sweep.
func (p *Port) OnEdge(e token.Edge, time uint64) {
	p.lastObserve = time
	if e == token.Rising {
		p.onRisingEdge(time)
	} else {
		p.onFallingEdge(time)
	}
}

// LastObservedTime returns the latest time this port has been advanced to, for the
// e >= P.lastObservedTime monotonicity invariant of spec.md §8.
func (p *Port) LastObservedTime() uint64 { return p.lastObserve }

// Counter returns the port's sample counter (used by SETPT/timestamp matching).
func (p *Port) Counter() uint32 { return p.counter }
