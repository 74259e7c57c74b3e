package resource

// Waker lets a resource hand a parked thread back to the scheduler without importing
// the scheduler package (avoids an import cycle between the resource-kind packages and
// xcore/system). The scheduler implements it and passes itself into resource
// operations that may need to resume a previously descheduled thread.
type Waker interface {
	Wake(t ThreadID)
}

// EventRaiser lets a resource signal that t has an event pending, without importing
// the thread/scheduler package. The scheduler implements it; resources with events
// enabled on their owner call RaiseEvent whenever new data/state makes the event
// condition true (spec.md §4.1 "Eventing", §4.8 "Event/interrupt delivery").
type EventRaiser interface {
	RaiseEvent(t ThreadID, id ID)
}

// PauseSlot tracks at most one thread parked on a resource for one reason, matching
// spec.md §4.8 ("the resource that paused it retains a single back-pointer; it clears
// that pointer when it later reschedules the thread").
type PauseSlot struct {
	thread ThreadID
	armed  bool
}

// Park records t as the parked thread. Panics if a thread is already parked here,
// since spec.md §3 guarantees at most one thread per pause slot (e.g. pausedIn /
// pausedOut on a chanend).
func (p *PauseSlot) Park(t ThreadID) {
	if p.armed {
		panic("resource: PauseSlot already holds a parked thread")
	}
	p.thread = t
	p.armed = true
}

// Armed reports whether a thread is currently parked.
func (p *PauseSlot) Armed() bool { return p.armed }

// Thread returns the parked thread id; valid only when Armed.
func (p *PauseSlot) Thread() ThreadID { return p.thread }

// Resume clears the slot and wakes the parked thread via w, if any.
func (p *PauseSlot) Resume(w Waker) {
	if !p.armed {
		return
	}
	t := p.thread
	p.armed = false
	p.thread = NoThread
	if w != nil {
		w.Wake(t)
	}
}
