// Package resource implements the common lifecycle and ownership model shared by every
// allocatable hardware object in a core: chanends, timers, locks, synchronisers,
// threads, ports, clock blocks, and the switch configuration resource.
package resource

import "fmt"

// Kind identifies the hardware object kind encoded in the top 8 bits of a ResourceID.
type Kind uint8

// Kind values match the architectural resource-type numbering carried in wire
// ResourceIDs, so GETR operands and SETD destinations need no translation.
const (
	KindPort         Kind = 0
	KindTimer        Kind = 1
	KindChanend      Kind = 2
	KindSynchroniser Kind = 3
	KindThread       Kind = 4
	KindLock         Kind = 5
	KindClkblk       Kind = 6
	KindConfig       Kind = 12
)

func (k Kind) String() string {
	switch k {
	case KindChanend:
		return "chanend"
	case KindTimer:
		return "timer"
	case KindLock:
		return "lock"
	case KindSynchroniser:
		return "sync"
	case KindThread:
		return "thread"
	case KindPort:
		return "port"
	case KindClkblk:
		return "clkblk"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// ID is a 32-bit resource identifier: an 8-bit kind tag plus a per-core number.
type ID uint32

// MakeID packs a kind and number into a ResourceID.
func MakeID(kind Kind, num uint32) ID {
	return ID(uint32(kind)<<24 | (num & 0x00ffffff))
}

// Kind extracts the resource kind.
func (id ID) Kind() Kind { return Kind(uint32(id) >> 24) }

// Num extracts the per-core resource number.
func (id ID) Num() uint32 { return uint32(id) & 0x00ffffff }

func (id ID) String() string {
	return fmt.Sprintf("%s[%d]", id.Kind(), id.Num())
}

// ThreadID addresses a thread within a core by its slot number. Resources reference
// their owning thread by this small value rather than a pointer, per spec.md §9's
// arena-by-index guidance; the thread arena itself lives in the owning Core.
type ThreadID int

// NoThread is the sentinel (-1) meaning "unowned" / "no pending event"; the zero
// ThreadID is thread 0.
const NoThread ThreadID = -1

// Base is embedded by every concrete resource kind. It is not used polymorphically;
// each kind is a tagged-union member (spec.md §9) and dispatches on its own Kind, but
// all of them share this bookkeeping.
type Base struct {
	ID        ID
	InUse     bool
	Owner     ThreadID
	Vector    uint32 // saved event/interrupt vector address
	EV        uint32 // saved EV word (environment data delivered with the event)
	Events    bool   // events currently enabled on Owner
	Interrupt bool   // deliver as interrupt rather than event (SETC IE mode)
}

// NewBase constructs a free (not in-use) resource base of the given ID.
func NewBase(id ID) Base {
	return Base{ID: id, Owner: NoThread}
}

// Alloc marks the resource in-use and bound to owner. Callers must have already
// verified the resource was free.
func (b *Base) Alloc(owner ThreadID) {
	b.InUse = true
	b.Owner = owner
	b.Events = false
}

// Free clears in-use and ownership. Callers are responsible for draining any
// kind-specific pending state first (spec.md §3 Lifecycle).
func (b *Base) Free() {
	b.InUse = false
	b.Owner = NoThread
	b.Events = false
}

// ErrIllegalResource is returned (wrapped with the offending ID) when an operation
// targets a resource that is free, of the wrong kind, or not owned by the calling
// thread — the ET_ILLEGAL_RESOURCE condition of spec.md §7.
type ErrIllegalResource struct {
	ID     ID
	Reason string
}

func (e *ErrIllegalResource) Error() string {
	return fmt.Sprintf("illegal resource %s: %s", e.ID, e.Reason)
}

// CheckOwned verifies the resource is in-use and owned by caller; it is the
// "operations other than alloc require in-use=true and owner=calling thread"
// invariant from spec.md §3, shared by every non-channel resource kind.
func (b *Base) CheckOwned(caller ThreadID) error {
	if !b.InUse {
		return &ErrIllegalResource{ID: b.ID, Reason: "not allocated"}
	}
	if b.Owner != caller {
		return &ErrIllegalResource{ID: b.ID, Reason: "not owned by calling thread"}
	}
	return nil
}
