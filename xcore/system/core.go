// Package system implements components J and K of spec.md §2: the Core arena owning
// RAM, the resource pools and the decode cache; the per-thread interpreter dispatch;
// and the SystemState scheduler with its runnable queue and time-ordered event wheel.
package system

import (
	"encoding/binary"
	"fmt"

	"github.com/zotley-sim/xtilesim/xcore/isa"
	"github.com/zotley-sim/xtilesim/xcore/node"
	"github.com/zotley-sim/xtilesim/xcore/port"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/thread"
	"github.com/zotley-sim/xtilesim/xcore/xchan"
	"github.com/zotley-sim/xtilesim/xcore/xsync"
)

// Per-core resource pool sizes and timing constants.
const (
	NumThreads     = 8
	NumChanends    = 32
	NumTimers      = 16
	NumLocks       = 8
	NumSyncs       = 4
	NumClockBlocks = 8

	// CyclesPerTick divides thread cycles down to the reference clock.
	CyclesPerTick = 4

	// DefaultTimeSlice is the cycle quantum one thread runs before the scheduler
	// considers switching.
	DefaultTimeSlice = 2500
)

// illegalPCThreadSlot is the sentinel PC a thread parks on when TINITPC was given an
// unmappable target; executing it raises ET_ILLEGAL_PC with the recorded address.
const illegalPCThreadSlot = 0xffffffff

// Thread is one hardware thread bound to its core and globally indexed by the
// scheduler.
type Thread struct {
	thread.State
	core *Core
	gid  resource.ThreadID
}

// Core returns the owning core.
func (t *Thread) Core() *Core { return t.core }

// GlobalID returns the scheduler-wide thread index.
func (t *Thread) GlobalID() resource.ThreadID { return t.gid }

// Core is the arena owning one tile's RAM and resources (spec.md §3 "Core").
type Core struct {
	sys         *SystemState
	node        *node.Node
	indexInNode int

	ramBase uint32
	ramSize uint32
	ram     []byte

	vectorBase uint32
	variant    isa.Variant

	threads  []*Thread
	chanends *resource.Pool[xchan.Chanend]
	timers   *resource.Pool[xsync.Timer]
	locks    *resource.Pool[xsync.Lock]
	syncs    *resource.Pool[xsync.Synchroniser]
	clkblks  *resource.Pool[port.ClockBlock]
	ports    map[uint32]*port.Port
	portList []*port.Port

	cache      []isa.Decoded
	cacheValid []bool

	breakpoints *BreakpointManager
}

// portWidths is the architecture-specific port set: count per width.
var portWidths = []struct {
	width port.Width
	count int
}{
	{1, 16}, {4, 6}, {8, 4}, {16, 2}, {32, 1},
}

// PortNum packs a port's wire resource number from its width and index.
func PortNum(width port.Width, index int) uint32 {
	return uint32(width)<<8 | uint32(index)
}

// NewCore constructs a core with the given RAM geometry (base a multiple of size,
// both powers of two) attached to n as core indexInNode.
func NewCore(s *SystemState, n *node.Node, indexInNode int, ramBase, ramSize uint32, variant isa.Variant) (*Core, error) {
	if ramSize == 0 || ramSize&(ramSize-1) != 0 || ramBase%ramSize != 0 {
		return nil, fmt.Errorf("core ram geometry base=%#x size=%#x not power-of-two aligned", ramBase, ramSize)
	}
	c := &Core{
		sys:         s,
		node:        n,
		indexInNode: indexInNode,
		ramBase:     ramBase,
		ramSize:     ramSize,
		ram:         make([]byte, ramSize),
		variant:     variant,
		cache:       make([]isa.Decoded, ramSize/2),
		cacheValid:  make([]bool, ramSize/2),
		breakpoints: NewBreakpointManager(),
		ports:       make(map[uint32]*port.Port),
	}

	coreGlobal := uint32(len(s.cores))
	for i := 0; i < NumThreads; i++ {
		th := &Thread{core: c, gid: resource.ThreadID(len(s.threads))}
		th.Base = resource.NewBase(resource.MakeID(resource.KindThread, uint32(i)))
		c.threads = append(c.threads, th)
		s.threads = append(s.threads, th)
	}

	c.chanends = resource.NewPool(resource.KindChanend, NumChanends,
		func(ch *xchan.Chanend) *resource.Base { return &ch.Base },
		func(id resource.ID, ch *xchan.Chanend) {
			*ch = *xchan.NewChanend(resource.MakeID(resource.KindChanend, coreGlobal<<8|id.Num()))
			ch.SetWaker(s)
			ch.SetEvents(s)
		})
	c.timers = resource.NewPool(resource.KindTimer, NumTimers,
		func(t *xsync.Timer) *resource.Base { return &t.Base },
		func(id resource.ID, t *xsync.Timer) {
			*t = *xsync.NewTimer(id)
			t.SetWaker(s)
			t.SetEvents(s)
		})
	c.locks = resource.NewPool(resource.KindLock, NumLocks,
		func(l *xsync.Lock) *resource.Base { return &l.Base },
		func(id resource.ID, l *xsync.Lock) {
			*l = *xsync.NewLock(id)
			l.SetWaker(s)
		})
	c.syncs = resource.NewPool(resource.KindSynchroniser, NumSyncs,
		func(sy *xsync.Synchroniser) *resource.Base { return &sy.Base },
		func(id resource.ID, sy *xsync.Synchroniser) {
			*sy = *xsync.NewSynchroniser(id)
			sy.SetWaker(s)
		})
	c.clkblks = resource.NewPool(resource.KindClkblk, NumClockBlocks,
		func(cb *port.ClockBlock) *resource.Base { return &cb.Base },
		func(id resource.ID, cb *port.ClockBlock) {
			*cb = *port.NewClockBlock(id)
		})
	for _, pw := range portWidths {
		for i := 0; i < pw.count; i++ {
			num := PortNum(pw.width, i)
			p := port.NewPort(resource.MakeID(resource.KindPort, num), pw.width)
			p.SetWaker(s)
			p.SetEvents(s)
			c.ports[num] = p
			c.portList = append(c.portList, p)
		}
	}

	s.cores = append(s.cores, c)
	return c, nil
}

// Node returns the node this core belongs to.
func (c *Core) Node() *node.Node { return c.node }

// Variant returns the decoded instruction-set variant.
func (c *Core) Variant() isa.Variant { return c.variant }

// Breakpoints returns the core's breakpoint manager.
func (c *Core) Breakpoints() *BreakpointManager { return c.breakpoints }

// RAMBase and RAMSize describe the core's address window.
func (c *Core) RAMBase() uint32 { return c.ramBase }
func (c *Core) RAMSize() uint32 { return c.ramSize }

// Thread returns thread slot i.
func (c *Core) Thread(i int) *Thread {
	if i < 0 || i >= len(c.threads) {
		return nil
	}
	return c.threads[i]
}

// Port returns the port with wire number num, or nil.
func (c *Core) Port(num uint32) *port.Port { return c.ports[num] }

// Ports returns every port in the core in a stable order.
func (c *Core) Ports() []*port.Port { return c.portList }

// ClockBlock returns clock block slot i, or nil.
func (c *Core) ClockBlock(i uint32) *port.ClockBlock { return c.clkblks.At(i) }

// ValidAddress reports whether a byte address falls inside this core's RAM.
func (c *Core) ValidAddress(addr uint32) bool { return addr-c.ramBase < c.ramSize }

func (c *Core) physical(addr uint32) uint32 { return addr - c.ramBase }

// CheckAddrWord and CheckAddrShort add the alignment requirement.
func (c *Core) CheckAddrWord(addr uint32) bool  { return c.ValidAddress(addr) && addr&3 == 0 }
func (c *Core) CheckAddrShort(addr uint32) bool { return c.ValidAddress(addr) && addr&1 == 0 }

// LoadWord etc. read little-endian RAM at a pre-checked byte address.
func (c *Core) LoadWord(addr uint32) uint32 {
	return binary.LittleEndian.Uint32(c.ram[c.physical(addr):])
}

func (c *Core) LoadShort(addr uint32) uint16 {
	return binary.LittleEndian.Uint16(c.ram[c.physical(addr):])
}

func (c *Core) LoadByte(addr uint32) uint8 { return c.ram[c.physical(addr)] }

// invalidate drops decode-cache entries that could cover the stored half-word: the
// entry at that PC and the one before it (a 32-bit instruction spans two).
func (c *Core) invalidate(addr uint32) {
	pc := c.physical(addr) >> 1
	c.cacheValid[pc] = false
	if pc > 0 {
		c.cacheValid[pc-1] = false
	}
}

// StoreWord etc. write little-endian RAM at a pre-checked byte address and keep the
// decode cache coherent with self-modifying code.
func (c *Core) StoreWord(value, addr uint32) {
	binary.LittleEndian.PutUint32(c.ram[c.physical(addr):], value)
	c.invalidate(addr)
	c.invalidate(addr + 2)
}

func (c *Core) StoreShort(value uint16, addr uint32) {
	binary.LittleEndian.PutUint16(c.ram[c.physical(addr):], value)
	c.invalidate(addr)
}

func (c *Core) StoreByte(value uint8, addr uint32) {
	c.ram[c.physical(addr)] = value
	c.invalidate(addr)
}

// WriteBlock copies a loaded image segment into RAM.
func (c *Core) WriteBlock(addr uint32, data []byte) error {
	if !c.ValidAddress(addr) || !c.ValidAddress(addr+uint32(len(data))-1) {
		return fmt.Errorf("segment [%#x,%#x) outside RAM", addr, addr+uint32(len(data)))
	}
	copy(c.ram[c.physical(addr):], data)
	for i := range c.cacheValid {
		c.cacheValid[i] = false
	}
	return nil
}

// ValidPC reports whether a half-word PC is inside RAM (the decode transform's
// branch-target check).
func (c *Core) ValidPC(pc uint32) bool { return pc < c.ramSize/2 }

// FromPC converts a half-word PC to a byte address.
func (c *Core) FromPC(pc uint32) uint32 { return c.ramBase + pc<<1 }

// ToPC converts a byte address to a half-word PC; ok is false for odd or
// out-of-RAM addresses.
func (c *Core) ToPC(addr uint32) (uint32, bool) {
	if addr&1 != 0 || !c.ValidAddress(addr) {
		return 0, false
	}
	return (addr - c.ramBase) >> 1, true
}

var breakpointEntry = isa.Decoded{Op: isa.BREAKPOINT, Size: 2, Transformed: true}

// DecodeAt returns the decode-cache entry for pc, filling it (decode then a single
// transform pass) on miss. Breakpoint addresses bypass the cache so clearing one
// does not require invalidation.
func (c *Core) DecodeAt(pc uint32) *isa.Decoded {
	if c.breakpoints.IsBreakpoint(c.FromPC(pc)) {
		return &breakpointEntry
	}
	if c.cacheValid[pc] {
		return &c.cache[pc]
	}
	low := c.LoadShort(c.FromPC(pc))
	var high uint16
	highValid := c.ValidPC(pc + 1)
	if highValid {
		high = c.LoadShort(c.FromPC(pc + 1))
	}
	d := isa.Decode(low, high, highValid, c.variant)
	isa.Transform(&d, pc, c)
	c.cache[pc] = d
	c.cacheValid[pc] = true
	return &c.cache[pc]
}

// ChanendWireID returns the wire ResourceID a program uses for chanend slot idx:
// the node ID and the node-local chanend number packed below the resource type,
// which MakeID keeps in the top byte.
func (c *Core) ChanendWireID(idx uint32) resource.ID {
	num := c.node.NodeID()<<8 | uint32(c.indexInNode)*64 | idx
	return resource.MakeID(resource.KindChanend, num)
}

// localChanendIndex extracts this core's chanend slot from a node-local number,
// checking the core part matches.
func (c *Core) localChanendIndex(nodeLocal uint32) (uint32, bool) {
	if int(nodeLocal>>6) != c.indexInNode {
		return 0, false
	}
	return nodeLocal & 0x3f, true
}

// AllocThread takes a free thread slot for GETST, leaving it parked in its initial
// sync point.
func (c *Core) AllocThread(owner resource.ThreadID) *Thread {
	for _, th := range c.threads[1:] { // slot 0 is the boot thread
		if !th.InUse {
			th.Reset()
			th.Base.Alloc(owner)
			th.SetWaiting(true)
			th.InSSync = true
			return th
		}
	}
	return nil
}

// FreeThread releases a terminated thread's slot.
func (c *Core) FreeThread(th *Thread) {
	th.Base.Free()
	th.HasSync = false
	th.InSSync = false
}
