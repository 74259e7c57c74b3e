package system

import (
	"container/heap"

	"github.com/zotley-sim/xtilesim/xcore/node"
	"github.com/zotley-sim/xtilesim/xcore/port"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/sswitch"
	"github.com/zotley-sim/xtilesim/xcore/trace"
	"github.com/zotley-sim/xtilesim/xcore/xchan"
	"github.com/zotley-sim/xtilesim/xcore/xsync"
)

// ExitStatus is the scheduler's verdict for one run.
type ExitStatus int

const (
	// Exited means a thread performed the exit syscall; Code carries its status.
	Exited ExitStatus = iota
	// TimedOut means the configured simulation timeout elapsed.
	TimedOut
	// NoRunnableThreads means every thread is parked and no deferred work remains.
	NoRunnableThreads
)

// RunResult is what SystemState.Run returns to the host.
type RunResult struct {
	Status ExitStatus
	Code   int
	Time   uint64
}

// SyscallOutcomeKind is the verdict of an external syscall handler.
type SyscallOutcomeKind int

const (
	SyscallContinue SyscallOutcomeKind = iota
	SyscallExit
	SyscallTrap
)

// SyscallOutcome is returned by a SyscallHandler.
type SyscallOutcome struct {
	Kind     SyscallOutcomeKind
	ExitCode int
	TrapKind uint32
	TrapData uint32
}

// SyscallHandler receives control when a thread reaches a syscall breakpoint
// (spec.md §6 "Syscall dispatch interface"). It may read and mutate the thread's
// register file.
type SyscallHandler interface {
	Syscall(s *SystemState, th *Thread) SyscallOutcome
	Exception(s *SystemState, th *Thread) SyscallOutcome
}

// wheelItem is one deferred-work entry: the single source of truth for clock-block
// (port edge) updates and timer triggers (spec.md §4.8). Chanend wake-ups happen
// directly on token arrival and are not queued on the wheel.
type wheelItem struct {
	time  uint64
	order uint64 // resource id; breaks ties between same-time events
	seq   uint64
	run   func(now uint64)
}

type eventWheel []wheelItem

func (w eventWheel) Len() int { return len(w) }
func (w eventWheel) Less(i, j int) bool {
	if w[i].time != w[j].time {
		return w[i].time < w[j].time
	}
	if w[i].order != w[j].order {
		return w[i].order < w[j].order
	}
	return w[i].seq < w[j].seq
}
func (w eventWheel) Swap(i, j int)      { w[i], w[j] = w[j], w[i] }
func (w *eventWheel) Push(x any)        { *w = append(*w, x.(wheelItem)) }
func (w *eventWheel) Pop() any {
	old := *w
	n := len(old)
	item := old[n-1]
	*w = old[:n-1]
	return item
}

// SystemState owns every node and core, the global runnable queue and the event
// wheel, and the monotone "latest observed thread time" clock (spec.md §3).
type SystemState struct {
	nodes   []*node.Node
	cores   []*Core
	threads []*Thread

	runnable []*Thread
	wheel    eventWheel
	wheelSeq uint64

	time    uint64
	Timeout uint64 // cycles; 0 disables

	switches []switchEntry

	tracer   trace.Tracer
	syscalls SyscallHandler

	exited   bool
	exitCode int
}

// New returns an empty system with the discarding tracer.
func New() *SystemState {
	return &SystemState{tracer: trace.Null{}}
}

// SetTracer installs tr (trace.Multi fans out to several).
func (s *SystemState) SetTracer(tr trace.Tracer) {
	if tr == nil {
		tr = trace.Null{}
	}
	s.tracer = tr
}

// Tracer returns the active tracer.
func (s *SystemState) Tracer() trace.Tracer { return s.tracer }

// SetSyscallHandler installs the host syscall dispatcher.
func (s *SystemState) SetSyscallHandler(h SyscallHandler) { s.syscalls = h }

// Time returns the latest observed simulated time in cycles.
func (s *SystemState) Time() uint64 { return s.time }

// AddNode registers a node and wires its switch endpoint.
func (s *SystemState) AddNode(n *node.Node) {
	s.nodes = append(s.nodes, n)
	n.SetResolver(&nodeCores{sys: s, node: n})
}

// Nodes returns the registered nodes in creation order.
func (s *SystemState) Nodes() []*node.Node { return s.nodes }

// Cores returns every core in creation order.
func (s *SystemState) Cores() []*Core { return s.cores }

// ThreadByID returns the thread with global index t.
func (s *SystemState) ThreadByID(t resource.ThreadID) *Thread {
	if int(t) < 0 || int(t) >= len(s.threads) {
		return nil
	}
	return s.threads[t]
}

// nodeCores resolves node-local chanend numbers across the node's cores.
type nodeCores struct {
	sys  *SystemState
	node *node.Node
}

func (nc *nodeCores) LocalChanendDest(num uint32) (xchan.Destination, bool) {
	for _, c := range nc.sys.cores {
		if c.node != nc.node {
			continue
		}
		if idx, ok := c.localChanendIndex(num); ok {
			ch := c.chanends.At(idx)
			if ch == nil || !ch.InUse {
				return nil, false
			}
			return ch, true
		}
	}
	return nil, false
}

// switchEntry binds a node to its switch endpoint; kept beside the scheduler so the
// topology package stays free of the protocol endpoint.
type switchEntry struct {
	node *node.Node
	sw   *sswitch.SSwitch
}

// AttachSwitch binds a switch endpoint to a node.
func (s *SystemState) AttachSwitch(n *node.Node, sw *sswitch.SSwitch) {
	s.switches = append(s.switches, switchEntry{node: n, sw: sw})
}

// SwitchFor returns the switch endpoint of node n, or nil.
func (s *SystemState) SwitchFor(n *node.Node) *sswitch.SSwitch {
	for _, e := range s.switches {
		if e.node == n {
			return e.sw
		}
	}
	return nil
}

func (s *SystemState) findNode(id uint32) *node.Node {
	for _, n := range s.nodes {
		if n.NodeID() == id {
			return n
		}
	}
	return nil
}

// Wake implements resource.Waker: move a descheduled thread back onto the runnable
// queue, advancing its local clock to the global one. Spurious wakes of running
// threads are ignored.
func (s *SystemState) Wake(t resource.ThreadID) {
	th := s.ThreadByID(t)
	if th == nil || !th.Waiting() {
		return
	}
	th.SetWaiting(false)
	th.InSSync = false
	if th.Time < s.time {
		th.Time = s.time
	}
	s.runnable = append(s.runnable, th)
}

// RaiseEvent implements resource.EventRaiser: record a pending event (or interrupt)
// from resource id on thread t and wake it if it is waiting (spec.md §4.8).
func (s *SystemState) RaiseEvent(t resource.ThreadID, id resource.ID) {
	th := s.ThreadByID(t)
	if th == nil {
		return
	}
	base := th.core.eventableBase(id)
	if base == nil {
		return
	}
	if base.Interrupt {
		if !th.InterruptsEnabled() && !th.Waiting() {
			return
		}
		th.SetPendingEvent(base.Vector, base.EV, true)
		s.tracer.Interrupt(t, id, base.Vector)
	} else {
		th.SetPendingEvent(base.Vector, base.EV, false)
		s.tracer.Event(t, id, base.Vector, base.EV)
	}
	if th.Waiting() {
		s.Wake(t)
	}
}

// eventableBase finds the Base of an eventable resource of this core by its arena
// ID (chanends use core-qualified IDs; the rest are core-local).
func (c *Core) eventableBase(id resource.ID) *resource.Base {
	switch id.Kind() {
	case resource.KindChanend:
		ch := c.chanends.At(id.Num() & 0xff)
		if ch != nil && ch.Base.ID == id {
			return &ch.Base
		}
	case resource.KindTimer:
		if t := c.timers.Get(id); t != nil {
			return &t.Base
		}
	case resource.KindPort:
		if p := c.ports[id.Num()]; p != nil {
			return &p.Base
		}
	}
	return nil
}

// ScheduleAt enqueues deferred work on the event wheel; order breaks ties between
// events at the same time. Clock-block updates pass the clock block's ID and timer
// triggers the timer's ID, so same-time port edges are ordered by clock block, not
// by port ID.
func (s *SystemState) ScheduleAt(time uint64, order uint64, run func(now uint64)) {
	s.wheelSeq++
	heap.Push(&s.wheel, wheelItem{time: time, order: order, seq: s.wheelSeq, run: run})
}

// armClock keeps a clock block's attached ports advancing through the wheel while
// any of them has deferred work; an idle clock disarms until re-armed by the next
// port operation.
func (s *SystemState) armClock(cb *port.ClockBlock, from uint64) {
	if cb == nil {
		return
	}
	if !cb.NeedsUpdates() {
		return
	}
	t, ok := cb.NextEventTime(from)
	if !ok {
		return
	}
	s.ScheduleAt(t, uint64(cb.Base.ID), func(now uint64) {
		cb.UpdateTo(now)
		s.armClock(cb, now+1)
	})
}

// armTimer schedules the tick that satisfies a timer's AFTER condition.
func (s *SystemState) armTimer(tm *xsync.Timer, nowTicks uint64) {
	t, ok := tm.WakeTick(nowTicks)
	if !ok {
		return
	}
	s.ScheduleAt(t*CyclesPerTick, uint64(tm.Base.ID), func(now uint64) {
		tm.Tick(now / CyclesPerTick)
	})
}

// Exit records a program exit; the scheduler stops at the next boundary.
func (s *SystemState) Exit(code int) {
	s.exited = true
	s.exitCode = code
}

// Run drives the main loop of spec.md §4.8 until exit, timeout, or deadlock.
func (s *SystemState) Run() RunResult {
	for {
		if s.exited {
			return RunResult{Status: Exited, Code: s.exitCode, Time: s.time}
		}
		if s.Timeout != 0 && s.time > s.Timeout {
			s.tracer.Timeout(s.time)
			return RunResult{Status: TimedOut, Time: s.time}
		}
		if len(s.runnable) == 0 {
			if len(s.wheel) == 0 {
				s.tracer.NoRunnableThreads(s.time)
				return RunResult{Status: NoRunnableThreads, Time: s.time}
			}
			item := heap.Pop(&s.wheel).(wheelItem)
			if item.time > s.time {
				s.time = item.time
			}
			item.run(s.time)
			continue
		}
		th := s.runnable[0]
		s.runnable = s.runnable[1:]
		requeue := s.runThread(th)
		if th.Time > s.time {
			s.time = th.Time
		}
		if requeue {
			s.runnable = append(s.runnable, th)
		}
	}
}

// Schedule puts a thread on the runnable queue for the first time (at boot; TSTART
// and later resumptions go through Wake).
func (s *SystemState) Schedule(th *Thread) {
	th.SetWaiting(false)
	if th.Time < s.time {
		th.Time = s.time
	}
	s.runnable = append(s.runnable, th)
}

var _ resource.Waker = (*SystemState)(nil)
var _ resource.EventRaiser = (*SystemState)(nil)
