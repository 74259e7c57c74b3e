// Package xsync implements the thread join/mutual-exclusion/timestamp-wait primitives
// of spec.md §4.3 (component D): Synchroniser, Lock, Timer.
package xsync

import (
	"github.com/zotley-sim/xtilesim/xcore/exec"
	"github.com/zotley-sim/xtilesim/xcore/resource"
)

// MaxChildren is the maximum number of threads a Synchroniser can fork (spec.md §3:
// "the set of child threads (≤ 8)").
const MaxChildren = 8

// joinMode records what a parked master is waiting for.
type joinMode int

const (
	joinNone joinMode = iota
	joinMSync
	joinMJoin
)

// Synchroniser forks child threads via GETST and joins them via MSYNC/MJOIN. A
// freshly forked child sits at the sync point (synced) until the master's MSYNC
// releases the group; thereafter each SSYNC parks the child until every sibling and
// the master reach the sync point again.
type Synchroniser struct {
	resource.Base

	master   resource.ThreadID
	children []resource.ThreadID
	synced   map[resource.ThreadID]bool
	parked   map[resource.ThreadID]bool

	masterMode   joinMode
	pausedMaster resource.PauseSlot
	waker        resource.Waker
}

// NewSynchroniser constructs an empty synchroniser.
func NewSynchroniser(id resource.ID) *Synchroniser {
	s := &Synchroniser{
		synced: make(map[resource.ThreadID]bool),
		parked: make(map[resource.ThreadID]bool),
	}
	s.Base = resource.NewBase(id)
	return s
}

// SetWaker installs the scheduler resume hook.
func (s *Synchroniser) SetWaker(w resource.Waker) { s.waker = w }

// Bind associates this synchroniser with its master thread on allocation.
func (s *Synchroniser) Bind(master resource.ThreadID) {
	s.master = master
	s.masterMode = joinNone
	s.children = s.children[:0]
	for k := range s.synced {
		delete(s.synced, k)
	}
	for k := range s.parked {
		delete(s.parked, k)
	}
}

// Master returns the owning master thread.
func (s *Synchroniser) Master() resource.ThreadID { return s.master }

// NumChildren returns the number of live child threads.
func (s *Synchroniser) NumChildren() int { return len(s.children) }

// AddChild registers a newly forked child thread (GETST). The child starts at the
// sync point, waiting for the master's MSYNC to release the group.
func (s *Synchroniser) AddChild(child resource.ThreadID) error {
	if len(s.children) >= MaxChildren {
		return &resource.ErrIllegalResource{ID: s.Base.ID, Reason: "synchroniser child limit exceeded"}
	}
	s.children = append(s.children, child)
	s.synced[child] = true
	s.parked[child] = true
	return nil
}

func (s *Synchroniser) allSynced() bool {
	for _, c := range s.children {
		if !s.synced[c] {
			return false
		}
	}
	return true
}

// releaseGroup resets the sync point and wakes every parked child.
func (s *Synchroniser) releaseGroup() {
	for _, c := range s.children {
		s.synced[c] = false
		if s.parked[c] {
			s.parked[c] = false
			if s.waker != nil {
				s.waker.Wake(c)
			}
		}
	}
}

// SSync is a child arriving at the sync point. If the master is already waiting in
// MSYNC and every sibling has arrived, the whole group proceeds; otherwise the child
// parks (spec.md §4.3).
func (s *Synchroniser) SSync(child resource.ThreadID) exec.Outcome {
	s.synced[child] = true
	if s.masterMode == joinMSync && s.allSynced() {
		s.masterMode = joinNone
		s.releaseGroup()
		s.pausedMaster.Resume(s.waker)
		return exec.Cont
	}
	s.parked[child] = true
	return exec.Desched
}

// MSync parks the master until every child has reached the sync point, then releases
// the group.
func (s *Synchroniser) MSync(caller resource.ThreadID) exec.Outcome {
	if s.allSynced() {
		s.releaseGroup()
		return exec.Cont
	}
	s.masterMode = joinMSync
	s.pausedMaster.Park(caller)
	return exec.Desched
}

// RemoveChild marks a child as terminated (FREET). The last termination wakes a
// master parked in MJOIN.
func (s *Synchroniser) RemoveChild(child resource.ThreadID) {
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			break
		}
	}
	delete(s.synced, child)
	delete(s.parked, child)
	if len(s.children) == 0 && s.masterMode == joinMJoin {
		s.masterMode = joinNone
		s.pausedMaster.Resume(s.waker)
	}
}

// MJoin parks the master until all children have terminated.
func (s *Synchroniser) MJoin(caller resource.ThreadID) exec.Outcome {
	if len(s.children) == 0 {
		return exec.Cont
	}
	s.masterMode = joinMJoin
	s.pausedMaster.Park(caller)
	return exec.Desched
}

// Lock is a mutual-exclusion resource with a FIFO wait queue (spec.md §4.3).
type Lock struct {
	resource.Base

	owner resource.ThreadID
	held  bool
	// granted marks an ownership handover from Out to a queued thread that has
	// not yet re-issued its IN; the re-issue completes instead of trapping as a
	// self-acquire.
	granted bool
	queue   []resource.ThreadID

	waker resource.Waker
}

// NewLock constructs a free lock.
func NewLock(id resource.ID) *Lock {
	l := &Lock{owner: resource.NoThread}
	l.Base = resource.NewBase(id)
	return l
}

// SetWaker installs the scheduler resume hook.
func (l *Lock) SetWaker(w resource.Waker) { l.waker = w }

// In acquires the lock (the IN instruction on a lock resource). Acquiring a lock
// already held by the calling thread is an error per spec.md §4.3.
func (l *Lock) In(caller resource.ThreadID) exec.Outcome {
	if l.held && l.owner == caller {
		if l.granted {
			l.granted = false
			return exec.Cont
		}
		return exec.Except(exec.ExIllegalResource, uint32(l.Base.ID))
	}
	if !l.held {
		l.held = true
		l.owner = caller
		return exec.Cont
	}
	l.queue = append(l.queue, caller)
	return exec.Desched
}

// Out releases the lock (the OUT instruction). The next FIFO waiter, if any, becomes
// the new owner and is woken.
func (l *Lock) Out(caller resource.ThreadID) exec.Outcome {
	if !l.held || l.owner != caller {
		return exec.Except(exec.ExIllegalResource, uint32(l.Base.ID))
	}
	if len(l.queue) == 0 {
		l.held = false
		l.owner = resource.NoThread
		return exec.Cont
	}
	next := l.queue[0]
	l.queue = l.queue[1:]
	l.owner = next
	l.granted = true
	if l.waker != nil {
		l.waker.Wake(next)
	}
	return exec.Cont
}

// Condition selects what a Timer's IN waits for.
type Condition int

const (
	CondUnconditional Condition = iota
	CondAfter
	CondDisabled
)

// Timer reads or waits on the reference clock (spec.md §4.3). The condition is set
// by SETC, the comparand by SETD; IN with an AFTER condition parks until the
// reference time passes the comparand.
type Timer struct {
	resource.Base

	cond      Condition
	comparand uint32

	paused resource.PauseSlot
	waker  resource.Waker
	events resource.EventRaiser
}

// NewTimer constructs a timer in the unconditional (free-running read) mode.
func NewTimer(id resource.ID) *Timer {
	t := &Timer{}
	t.Base = resource.NewBase(id)
	return t
}

// SetWaker installs the scheduler resume hook.
func (t *Timer) SetWaker(w resource.Waker) { t.waker = w }

// SetEvents installs the scheduler event-raise hook.
func (t *Timer) SetEvents(e resource.EventRaiser) { t.events = e }

// SetCond selects the wait condition (the SETC instruction).
func (t *Timer) SetCond(c Condition) { t.cond = c }

// Cond returns the current condition.
func (t *Timer) Cond() Condition { return t.cond }

// SetD sets the AFTER comparand (the SETD instruction).
func (t *Timer) SetD(comparand uint32) { t.comparand = comparand }

// Comparand returns the configured comparand.
func (t *Timer) Comparand() uint32 { return t.comparand }

// ConditionMet reports whether an IN at the given reference time would complete.
func (t *Timer) ConditionMet(nowTicks uint64) bool {
	if t.cond != CondAfter {
		return t.cond != CondDisabled
	}
	return int32(uint32(nowTicks)-t.comparand) >= 0
}

// WakeTick returns the earliest reference tick at which an armed AFTER condition
// becomes true. ok is false when the condition already holds or no AFTER is armed.
func (t *Timer) WakeTick(nowTicks uint64) (uint64, bool) {
	if t.cond != CondAfter {
		return 0, false
	}
	delta := int32(t.comparand - uint32(nowTicks))
	if delta <= 0 {
		return 0, false
	}
	return nowTicks + uint64(delta), true
}

// In reads the current reference time unconditionally, or parks the caller until the
// AFTER comparand elapses.
func (t *Timer) In(caller resource.ThreadID, nowTicks uint64) (uint32, exec.Outcome) {
	if t.ConditionMet(nowTicks) {
		return uint32(nowTicks), exec.Cont
	}
	t.paused.Park(caller)
	return 0, exec.Desched
}

// Tick is invoked from the event wheel when an armed comparand elapses; it wakes a
// parked thread and raises the owner's event when events are enabled.
func (t *Timer) Tick(nowTicks uint64) {
	if !t.ConditionMet(nowTicks) {
		return
	}
	if t.paused.Armed() {
		t.paused.Resume(t.waker)
		return
	}
	if t.Base.Events && t.events != nil {
		t.events.RaiseEvent(t.Base.Owner, t.Base.ID)
	}
}
