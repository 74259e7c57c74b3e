package system

import (
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/xchan"
	"github.com/zotley-sim/xtilesim/xcore/xsync"
)

// ownChanend resolves a wire chanend ID to this core's slot, verifying the node and
// core parts address us. Returns nil for a foreign or unallocated chanend.
func (c *Core) ownChanend(id resource.ID) *xchan.Chanend {
	if id.Kind() != resource.KindChanend {
		return nil
	}
	num := id.Num()
	if num>>8 != c.node.NodeID() {
		return nil
	}
	idx, ok := c.localChanendIndex(num & 0xff)
	if !ok {
		return nil
	}
	ch := c.chanends.At(idx)
	if ch == nil || !ch.InUse {
		return nil
	}
	return ch
}

// Resolve implements xchan.Router for packets leaving this core: a chanend wire ID
// resolves through the node topology to the live endpoint, and a config ID resolves
// to the target node's switch. Failure is the LinkError condition of spec.md §7.
func (c *Core) Resolve(id resource.ID) (xchan.Destination, bool) {
	num := id.Num()
	destNode := num >> 8
	switch id.Kind() {
	case resource.KindChanend:
		if destNode == c.node.NodeID() {
			return c.node.LocalChanendDest(num & 0xff)
		}
		if !c.node.Reachable(destNode) {
			return nil, false
		}
		n := c.sys.findNode(destNode)
		if n == nil {
			return nil, false
		}
		return n.LocalChanendDest(num & 0xff)
	case resource.KindConfig:
		if destNode != c.node.NodeID() && !c.node.Reachable(destNode) {
			return nil, false
		}
		n := c.sys.findNode(destNode)
		if n == nil {
			return nil, false
		}
		sw := c.sys.SwitchFor(n)
		if sw == nil {
			return nil, false
		}
		return sw, true
	}
	return nil, false
}

// ConfigWireID returns the wire ResourceID addressing a node's switch registers.
func ConfigWireID(nodeID uint32) resource.ID {
	return resource.MakeID(resource.KindConfig, nodeID<<8)
}

// AllocResource implements GETR for the standard resource kinds, returning the wire
// ResourceID the program will use, or 0 on pool exhaustion.
func (c *Core) AllocResource(owner resource.ThreadID, kind resource.Kind) (uint32, bool) {
	switch kind {
	case resource.KindChanend:
		for i := uint32(0); i < uint32(c.chanends.Len()); i++ {
			ch := c.chanends.At(i)
			if !ch.InUse {
				ch.Base.Alloc(owner)
				wire := c.ChanendWireID(i)
				ch.Base.EV = uint32(wire)
				return uint32(wire), true
			}
		}
	case resource.KindTimer:
		if t, ok := c.timers.Alloc(owner); ok {
			t.SetCond(xsync.CondUnconditional)
			t.Base.EV = uint32(t.Base.ID)
			return uint32(t.Base.ID), true
		}
	case resource.KindLock:
		if l, ok := c.locks.Alloc(owner); ok {
			return uint32(l.Base.ID), true
		}
	case resource.KindSynchroniser:
		if sy, ok := c.syncs.Alloc(owner); ok {
			sy.Bind(owner)
			return uint32(sy.Base.ID), true
		}
	}
	return 0, false
}

// FreeResource implements FREER by clearing the resource's in-use flag (for every
// kind but chanends, only when the caller owns it). No kind-specific state is drained.
func (c *Core) FreeResource(th *Thread, id resource.ID) bool {
	switch id.Kind() {
	case resource.KindChanend:
		ch := c.ownChanend(id)
		if ch == nil {
			return false
		}
		ch.Base.Free()
		return true
	case resource.KindTimer:
		if t := c.timers.Get(id); t != nil && t.InUse && t.Owner == th.gid {
			t.Base.Free()
			return true
		}
	case resource.KindLock:
		if l := c.locks.Get(id); l != nil && l.InUse && l.Owner == th.gid {
			l.Base.Free()
			return true
		}
	case resource.KindSynchroniser:
		if sy := c.syncs.Get(id); sy != nil && sy.InUse && sy.Owner == th.gid {
			sy.Base.Free()
			return true
		}
	case resource.KindPort:
		if p := c.ports[id.Num()]; p != nil && p.InUse && p.Owner == th.gid {
			p.Base.Free()
			return true
		}
	case resource.KindClkblk:
		if cb := c.clkblks.Get(id); cb != nil && cb.InUse && cb.Owner == th.gid {
			cb.Base.Free()
			return true
		}
	}
	return false
}
