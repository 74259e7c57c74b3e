package system

import (
	"github.com/zotley-sim/xtilesim/xcore/port"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/xchan"
	"github.com/zotley-sim/xtilesim/xcore/xsync"
)

// SETC mode words. The low bits select the operation class; richer modes (ready
// handshakes, master/slave, port roles) use the high half.
const (
	SetcInUseOff   uint32 = 0x0000
	SetcInUseOn    uint32 = 0x0008
	SetcCondFull   uint32 = 0x0001
	SetcCondAfter  uint32 = 0x0009
	SetcCondEq     uint32 = 0x0011
	SetcCondNeq    uint32 = 0x0019
	SetcCondPinsEq  uint32 = 0x0021
	SetcCondPinsNeq uint32 = 0x0029
	SetcIEModeEvent     uint32 = 0x0002
	SetcIEModeInterrupt uint32 = 0x000a
	SetcRunStop  uint32 = 0x0007
	SetcRunStart uint32 = 0x000f
	SetcRunClrBuf uint32 = 0x0017
	SetcBufNoBuffers uint32 = 0x0006
	SetcBufBuffers   uint32 = 0x000e
	SetcRdyNoReady   uint32 = 0x000c
	SetcRdyStrobed   uint32 = 0x300c
	SetcRdyHandshake uint32 = 0x3014
	SetcMSMaster uint32 = 0x1007
	SetcMSSlave  uint32 = 0x100f
)

// setC applies a SETC mode word to a resource (spec.md §4.2 conditions and clock
// control; §3 lifecycle for the in-use transitions). Returns false for an illegal
// resource/mode pairing, which the interpreter turns into ET_ILLEGAL_RESOURCE.
func (c *Core) setC(th *Thread, id resource.ID, val uint32, time uint64) bool {
	switch id.Kind() {
	case resource.KindPort:
		p := c.ports[id.Num()]
		if p == nil {
			return false
		}
		return c.setCPort(th, p, val, time)
	case resource.KindClkblk:
		cb := c.clkblks.Get(id)
		if cb == nil {
			return false
		}
		return c.setCClockBlock(th, cb, val, time)
	case resource.KindTimer:
		t := c.timers.Get(id)
		if t == nil || !t.InUse || t.Owner != th.gid {
			return false
		}
		return c.setCTimer(t, val)
	case resource.KindChanend:
		ch := c.ownChanend(id)
		if ch == nil {
			return false
		}
		return c.setCChanend(ch, val)
	}
	return false
}

func setIEMode(b *resource.Base, val uint32) bool {
	switch val {
	case SetcIEModeEvent:
		b.Interrupt = false
	case SetcIEModeInterrupt:
		b.Interrupt = true
	default:
		return false
	}
	return true
}

func (c *Core) setCPort(th *Thread, p *port.Port, val uint32, time uint64) bool {
	switch val {
	case SetcInUseOn:
		if p.InUse {
			return false
		}
		p.Base.Alloc(th.gid)
		p.Base.EV = uint32(p.Base.ID)
		return true
	case SetcInUseOff:
		p.Base.Free()
		return true
	case SetcCondFull:
		p.SetCond(port.CondFull)
	case SetcCondEq:
		p.SetCond(port.CondEQ)
	case SetcCondNeq:
		p.SetCond(port.CondNEQ)
	case SetcCondPinsEq:
		p.SetCond(port.CondPinsEQ)
	case SetcCondPinsNeq:
		p.SetCond(port.CondPinsNEQ)
	case SetcIEModeEvent, SetcIEModeInterrupt:
		return setIEMode(&p.Base, val)
	case SetcBufNoBuffers:
		p.Buffered = false
	case SetcBufBuffers:
		p.Buffered = true
	case SetcRdyNoReady:
		p.Ready = port.ReadyNone
	case SetcRdyStrobed:
		p.Ready = port.ReadyStrobedMaster
	case SetcRdyHandshake:
		p.Ready = port.ReadyHandshake
	case SetcMSMaster:
		if p.Ready == port.ReadyStrobedSlave {
			p.Ready = port.ReadyStrobedMaster
		}
	case SetcMSSlave:
		if p.Ready == port.ReadyStrobedMaster {
			p.Ready = port.ReadyStrobedSlave
		}
	default:
		return false
	}
	if cb := p.Clock(); cb != nil {
		c.sys.armClock(cb, time)
	}
	return true
}

func (c *Core) setCClockBlock(th *Thread, cb *port.ClockBlock, val uint32, time uint64) bool {
	switch val {
	case SetcInUseOn:
		if cb.InUse {
			return false
		}
		cb.Base.Alloc(th.gid)
		return true
	case SetcInUseOff:
		cb.Stop(time)
		cb.Base.Free()
		return true
	case SetcRunStart:
		cb.Start(time)
		c.sys.armClock(cb, time)
		return true
	case SetcRunStop:
		cb.Stop(time)
		return true
	}
	return false
}

func (c *Core) setCTimer(t *xsync.Timer, val uint32) bool {
	switch val {
	case SetcInUseOff:
		t.Base.Free()
	case SetcCondFull:
		t.SetCond(xsync.CondUnconditional)
	case SetcCondAfter:
		t.SetCond(xsync.CondAfter)
	case SetcIEModeEvent, SetcIEModeInterrupt:
		return setIEMode(&t.Base, val)
	default:
		return false
	}
	return true
}

func (c *Core) setCChanend(ch *xchan.Chanend, val uint32) bool {
	switch val {
	case SetcInUseOff:
		ch.SetJunkIncoming(false)
		ch.Base.Free()
	case SetcIEModeEvent, SetcIEModeInterrupt:
		return setIEMode(&ch.Base, val)
	case SetcCondFull:
		// Channel input is always level-triggered on buffered data.
	default:
		return false
	}
	return true
}
