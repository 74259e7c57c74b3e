// Package thread holds the per-thread architectural state of spec.md §3 component J:
// the register file, PC, status register, simulated time, and the event/exception
// entry mechanics. The interpreter dispatch that drives this state lives beside the
// scheduler in xcore/system.
package thread

import (
	"github.com/zotley-sim/xtilesim/xcore/isa"
	"github.com/zotley-sim/xtilesim/xcore/resource"
)

// Status register bits.
const (
	SREEBLE   uint32 = 1 << 0 // events enabled
	SRIEBLE   uint32 = 1 << 1 // interrupts enabled
	SRINENB   uint32 = 1 << 2
	SRINK     uint32 = 1 << 3 // in kernel mode
	SRSINK    uint32 = 1 << 4
	SRWAITING uint32 = 1 << 5 // descheduled, held by a resource
	SRFAST    uint32 = 1 << 6
	SRKEDI    uint32 = 1 << 7
	SRDI      uint32 = 1 << 8
	SREBP     uint32 = 1 << 9
	SRSBP     uint32 = 1 << 10
)

// State is one hardware thread. PC is a half-word index into the owning core's RAM;
// Time counts processor cycles and is monotonically non-decreasing.
type State struct {
	resource.Base

	Regs [isa.NumRegs]uint32
	SR   uint32
	PC   uint32
	Time uint64

	// IllegalPC holds the offending byte address while the thread is parked on the
	// core's illegal-PC trap slot (a TINITPC with an unmappable target).
	IllegalPC uint32

	// Sync binding: SyncID/HasSync name the synchroniser of a child forked by GETST
	// and stay set until the thread is freed. InSSync is set when the thread is
	// allocated and cleared once it is first started or woken.
	SyncID  resource.ID
	HasSync bool
	InSSync bool

	pendingEvent  bool
	eventVector   uint32
	eventData     uint32
	eventIsIntr   bool
}

// Reset returns the thread to its power-on state, keeping its identity.
func (t *State) Reset() {
	for i := range t.Regs {
		t.Regs[i] = 0
	}
	t.SR = 0
	t.PC = 0
	t.IllegalPC = 0
	t.HasSync = false
	t.InSSync = false
	t.pendingEvent = false
}

// Waiting reports whether the thread is descheduled on a resource.
func (t *State) Waiting() bool { return t.SR&SRWAITING != 0 }

// SetWaiting flips the WAITING bit, which by invariant mirrors the thread's absence
// from the runnable queue.
func (t *State) SetWaiting(w bool) {
	if w {
		t.SR |= SRWAITING
	} else {
		t.SR &^= SRWAITING
	}
}

// EventsEnabled reports whether the thread currently accepts events.
func (t *State) EventsEnabled() bool { return t.SR&SREEBLE != 0 }

// InterruptsEnabled reports whether the thread currently accepts interrupts.
func (t *State) InterruptsEnabled() bool { return t.SR&SRIEBLE != 0 }

// EnableEvents is the WAITEU/WAITET/WAITEF entry: the thread sleeps with events on.
func (t *State) EnableEvents() { t.SR |= SREEBLE }

// ClearEventState disables events and interrupts and drops any pending delivery
// (the CLRE instruction).
func (t *State) ClearEventState() {
	t.SR &^= SREEBLE | SRIEBLE
	t.pendingEvent = false
}

// SetPendingEvent records an event (or interrupt) for delivery at the next safe
// point. A later event overwrites an undelivered earlier one; hardware arbitration
// keeps a single pending slot per thread.
func (t *State) SetPendingEvent(vector, data uint32, interrupt bool) {
	t.pendingEvent = true
	t.eventVector = vector
	t.eventData = data
	t.eventIsIntr = interrupt
}

// HasPendingEvent reports whether an event is awaiting delivery.
func (t *State) HasPendingEvent() bool { return t.pendingEvent }

// EventDeliverable reports whether the pending event may be taken now, honouring
// the EEBLE/IEBLE gates.
func (t *State) EventDeliverable() bool {
	if !t.pendingEvent {
		return false
	}
	if t.eventIsIntr {
		return t.InterruptsEnabled()
	}
	return t.EventsEnabled()
}

// TakeEvent diverts the thread to its pending vector. Plain events load ED and
// disable further events; interrupts additionally save SPC/SSR/SED and enter kernel
// mode (spec.md §4.8 "Event/interrupt delivery").
func (t *State) TakeEvent(fromPC func(uint32) uint32) {
	if !t.pendingEvent {
		return
	}
	t.pendingEvent = false
	if t.eventIsIntr {
		t.Regs[isa.SPC] = fromPC(t.PC)
		t.Regs[isa.SSR] = t.SR
		t.Regs[isa.SED] = t.Regs[isa.ED]
		t.SR |= SRINK
		t.SR &^= SREEBLE | SRIEBLE
	} else {
		t.SR &^= SREEBLE
	}
	t.Regs[isa.ED] = t.eventData
	t.PC = t.eventVector
}

// Trap enters the exception path for kind/data at the current PC: SPC, SSR and SED
// are saved, ET/ED are loaded, the thread switches to kernel mode, and the PC is
// redirected to the kernel entry point plus the trap displacement (spec.md §7).
func (t *State) Trap(kind uint32, data uint32, fromPC, toPC func(uint32) uint32) {
	t.Regs[isa.SPC] = fromPC(t.PC)
	t.Regs[isa.SSR] = t.SR
	t.Regs[isa.SED] = t.Regs[isa.ED]
	t.Regs[isa.ET] = kind
	t.Regs[isa.ED] = data
	target := t.Regs[isa.KEP]
	if t.SR&SRINK != 0 {
		target += 64
	}
	t.SR |= SRINK
	t.SR &^= SREEBLE | SRIEBLE
	t.PC = toPC(target)
}

// Kret is the KRET return-from-kernel: restore PC, ED and SR from the saved copies,
// clearing WAITING in the restored word.
func (t *State) Kret(toPC func(uint32) uint32) {
	t.PC = toPC(t.Regs[isa.SPC])
	t.Regs[isa.ED] = t.Regs[isa.SED]
	t.SR = t.Regs[isa.SSR] &^ SRWAITING
}
