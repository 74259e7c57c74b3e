package system

import (
	"github.com/zotley-sim/xtilesim/xcore/exec"
	"github.com/zotley-sim/xtilesim/xcore/isa"
	"github.com/zotley-sim/xtilesim/xcore/port"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/thread"
	"github.com/zotley-sim/xtilesim/xcore/xsync"
)

// Architectural exception-type codes loaded into ET on a trap.
const (
	ETLinkError          uint32 = 1
	ETIllegalPC          uint32 = 2
	ETIllegalInstruction uint32 = 3
	ETIllegalResource    uint32 = 4
	ETLoadStore          uint32 = 5
	ETIllegalPS          uint32 = 6
	ETArithmetic         uint32 = 7
	ETECall              uint32 = 8
)

func etCode(k exec.ExceptionKind) uint32 {
	switch k {
	case exec.ExLoadStore:
		return ETLoadStore
	case exec.ExIllegalPC:
		return ETIllegalPC
	case exec.ExIllegalInstruction:
		return ETIllegalInstruction
	case exec.ExIllegalResource:
		return ETIllegalResource
	case exec.ExArithmetic:
		return ETArithmetic
	case exec.ExEcall:
		return ETECall
	case exec.ExLinkError:
		return ETLinkError
	}
	return ETIllegalInstruction
}

// Processor-state register numbers (GETPS/SETPS).
const (
	PSRamBase    uint32 = 0x00b
	PSVectorBase uint32 = 0x10b
)

// ClkRef is the SETCLK source value selecting the divided reference clock.
const ClkRef uint32 = 1

type stepResult int

const (
	stepContinue stepResult = iota
	stepDesched
	stepEndTrace
	stepThreadEnded
)

// runThread executes one thread for a time-slice quantum (spec.md §4.7). It returns
// true when the thread should be requeued.
func (s *SystemState) runThread(th *Thread) bool {
	sliceEnd := th.Time + DefaultTimeSlice
	c := th.core
	for {
		if s.exited {
			return false
		}
		if th.EventDeliverable() {
			th.TakeEvent(c.FromPC)
		}
		if th.PC == illegalPCThreadSlot {
			if !s.trapThread(th, exec.ExIllegalPC, th.IllegalPC) {
				th.SetWaiting(true)
				return false
			}
			continue
		}
		if !c.ValidPC(th.PC) {
			if !s.trapThread(th, exec.ExIllegalPC, c.FromPC(th.PC)) {
				th.SetWaiting(true)
				return false
			}
			continue
		}
		d := c.DecodeAt(th.PC)
		if isa.GetInfo(d.Op).Sync && th.Time >= sliceEnd {
			return true
		}
		switch s.execute(th, d) {
		case stepContinue:
			if th.Time >= sliceEnd {
				return true
			}
		case stepDesched:
			th.SetWaiting(true)
			return false
		case stepEndTrace:
			return true
		case stepThreadEnded:
			return false
		}
	}
}

// trapThread enters the per-thread exception path (spec.md §7). It returns false
// when the thread's kernel entry point is itself unmappable; such a thread cannot
// make progress and parks until the global timeout collects it.
func (s *SystemState) trapThread(th *Thread, kind exec.ExceptionKind, data uint32) bool {
	c := th.core
	s.tracer.Exception(th.gid, kind, etCode(kind), data, c.FromPC(th.PC))
	target := th.Regs[isa.KEP]
	if th.SR&thread.SRINK != 0 {
		target += 64
	}
	if pc, ok := c.ToPC(target); !ok || !c.ValidPC(pc) {
		return false
	}
	th.Trap(etCode(kind), data, c.FromPC, func(addr uint32) uint32 {
		pc, _ := c.ToPC(addr)
		return pc
	})
	return true
}

// ictx is the per-instruction execution context: the typed operand view the match
// arms operate on.
type ictx struct {
	s      *SystemState
	th     *Thread
	c      *Core
	d      *isa.Decoded
	info   *isa.Info
	nextPC uint32
}

func (x *ictx) op(i int) uint32 { return x.d.Operands.Ops[i] }

func (x *ictx) r(i int) uint32 { return x.th.Regs[x.op(i)] }

func (x *ictx) setR(i int, v uint32) {
	reg := isa.Reg(x.op(i))
	x.th.Regs[reg] = v
	x.s.tracer.RegWrite(x.th.gid, reg, v)
}

func (x *ictx) reg(r isa.Reg) uint32 { return x.th.Regs[r] }

func (x *ictx) setReg(r isa.Reg, v uint32) {
	x.th.Regs[r] = v
	x.s.tracer.RegWrite(x.th.gid, r, v)
}

func (x *ictx) refTicks() uint64 { return x.th.Time / CyclesPerTick }

// cont retires the instruction: cycle cost, PC advance, then the post-writeback
// event check (spec.md §4.7 step 6).
func (x *ictx) cont() stepResult {
	x.th.Time += uint64(x.info.Cycles)
	x.th.PC = x.nextPC
	if x.info.CanEvent && x.th.EventDeliverable() {
		x.th.TakeEvent(x.c.FromPC)
	}
	x.s.tracer.InstructionEnd(x.th.gid)
	return stepContinue
}

// contAt retires with a taken forward branch.
func (x *ictx) contAt(pc uint32) stepResult {
	x.nextPC = pc
	return x.cont()
}

// endTrace retires a taken branch that re-enters the scheduler.
func (x *ictx) endTrace(pc uint32) stepResult {
	x.th.Time += uint64(x.info.Cycles)
	x.th.PC = pc
	if x.info.CanEvent && x.th.EventDeliverable() {
		x.th.TakeEvent(x.c.FromPC)
	}
	x.s.tracer.InstructionEnd(x.th.gid)
	return stepEndTrace
}

// trap aborts the instruction with a thread exception; the saved SPC names the
// faulting instruction while Trap redirects into the kernel. A thread that cannot
// enter the kernel parks indefinitely.
func (x *ictx) trap(kind exec.ExceptionKind, data uint32) stepResult {
	x.th.Time += uint64(x.info.Cycles)
	x.s.tracer.InstructionEnd(x.th.gid)
	if !x.s.trapThread(x.th, kind, data) {
		return stepDesched
	}
	return stepContinue
}

// desched parks the thread on the resource that refused the operation; the PC is
// left at the instruction so it re-issues on wake. A deliverable pending event
// pre-empts the deschedule.
func (x *ictx) desched() stepResult {
	x.th.Time += uint64(x.info.Cycles)
	if x.info.CanEvent && x.th.EventDeliverable() {
		x.th.TakeEvent(x.c.FromPC)
		x.s.tracer.InstructionEnd(x.th.gid)
		return stepContinue
	}
	x.s.tracer.InstructionEnd(x.th.gid)
	return stepDesched
}

// outcome maps a resource operation result onto the instruction outcome; commit runs
// only on Continue, before retirement.
func (x *ictx) outcome(o exec.Outcome, commit func()) stepResult {
	switch o.Kind {
	case exec.Continue:
		if commit != nil {
			commit()
		}
		return x.cont()
	case exec.Deschedule:
		return x.desched()
	case exec.Exception:
		return x.trap(o.ExKind, o.ExtraData)
	}
	return x.cont()
}

func (x *ictx) checkThread(wire uint32) *Thread {
	id := resource.ID(wire)
	if id.Kind() != resource.KindThread {
		return nil
	}
	t := x.c.Thread(int(id.Num()))
	if t == nil || !t.InUse {
		return nil
	}
	return t
}

func (x *ictx) checkSync(wire uint32) *xsync.Synchroniser {
	id := resource.ID(wire)
	sy := x.c.syncs.Get(id)
	if sy == nil || !sy.InUse || sy.Owner != x.th.gid {
		return nil
	}
	return sy
}

// execute dispatches one decoded instruction. Operand read order, writeback order,
// cycle counting and the event check follow the ordering of spec.md §4.7.
func (s *SystemState) execute(th *Thread, d *isa.Decoded) stepResult {
	c := th.core
	info := isa.GetInfo(d.Op)
	x := &ictx{s: s, th: th, c: c, d: d, info: info, nextPC: th.PC + d.Size/2}
	s.tracer.InstructionBegin(th.gid, c.FromPC(th.PC), d.Op)

	if info.Unimplemented {
		return x.trap(exec.ExIllegalInstruction, 0)
	}

	switch d.Op {
	// ---- arithmetic and logic ----
	case isa.ADD_3r:
		v := x.r(1) + x.r(2)
		x.setR(0, v)
		return x.cont()
	case isa.ADD_2rus:
		x.setR(0, x.r(1)+x.op(2))
		return x.cont()
	case isa.ADD_mov_2rus:
		x.setR(0, x.r(1))
		return x.cont()
	case isa.SUB_3r:
		x.setR(0, x.r(1)-x.r(2))
		return x.cont()
	case isa.SUB_2rus:
		x.setR(0, x.r(1)-x.op(2))
		return x.cont()
	case isa.EQ_3r:
		x.setR(0, b2u(x.r(1) == x.r(2)))
		return x.cont()
	case isa.EQ_2rus:
		x.setR(0, b2u(x.r(1) == x.op(2)))
		return x.cont()
	case isa.LSS_3r:
		x.setR(0, b2u(int32(x.r(1)) < int32(x.r(2))))
		return x.cont()
	case isa.LSU_3r:
		x.setR(0, b2u(x.r(1) < x.r(2)))
		return x.cont()
	case isa.AND_3r:
		x.setR(0, x.r(1)&x.r(2))
		return x.cont()
	case isa.OR_3r:
		x.setR(0, x.r(1)|x.r(2))
		return x.cont()
	case isa.XOR_l3r:
		x.setR(0, x.r(1)^x.r(2))
		return x.cont()
	case isa.SHL_3r:
		if n := x.r(2); n >= 32 {
			x.setR(0, 0)
		} else {
			x.setR(0, x.r(1)<<n)
		}
		return x.cont()
	case isa.SHL_2rus:
		x.setR(0, x.r(1)<<x.op(2))
		return x.cont()
	case isa.SHL_32_2rus, isa.SHR_32_2rus:
		x.setR(0, 0)
		return x.cont()
	case isa.SHR_3r:
		if n := x.r(2); n >= 32 {
			x.setR(0, 0)
		} else {
			x.setR(0, x.r(1)>>n)
		}
		return x.cont()
	case isa.SHR_2rus:
		x.setR(0, x.r(1)>>x.op(2))
		return x.cont()
	case isa.ASHR_l3r:
		if n := x.r(2); n >= 32 {
			x.setR(0, uint32(int32(x.r(1))>>31))
		} else {
			x.setR(0, uint32(int32(x.r(1))>>n))
		}
		return x.cont()
	case isa.ASHR_l2rus:
		x.setR(0, uint32(int32(x.r(1))>>x.op(2)))
		return x.cont()
	case isa.ASHR_32_l2rus:
		x.setR(0, uint32(int32(x.r(1))>>31))
		return x.cont()
	case isa.MUL_l3r:
		x.setR(0, x.r(1)*x.r(2))
		return x.cont()
	case isa.DIVS_l3r:
		a, b := x.r(1), x.r(2)
		if b == 0 || (a == 0x80000000 && b == 0xffffffff) {
			return x.trap(exec.ExArithmetic, 0)
		}
		x.setR(0, uint32(int32(a)/int32(b)))
		return x.cont()
	case isa.DIVU_l3r:
		if x.r(2) == 0 {
			return x.trap(exec.ExArithmetic, 0)
		}
		x.setR(0, x.r(1)/x.r(2))
		return x.cont()
	case isa.REMS_l3r:
		a, b := x.r(1), x.r(2)
		if b == 0 || (a == 0x80000000 && b == 0xffffffff) {
			return x.trap(exec.ExArithmetic, 0)
		}
		x.setR(0, uint32(int32(a)%int32(b)))
		return x.cont()
	case isa.REMU_l3r:
		if x.r(2) == 0 {
			return x.trap(exec.ExArithmetic, 0)
		}
		x.setR(0, x.r(1)%x.r(2))
		return x.cont()
	case isa.NOT_2r:
		x.setR(0, ^x.r(1))
		return x.cont()
	case isa.NEG_2r:
		x.setR(0, -x.r(1))
		return x.cont()
	case isa.SEXT_2r:
		x.setR(0, isa.SignExtend(x.r(0), x.r(1)))
		return x.cont()
	case isa.SEXT_rus:
		x.setR(0, isa.SignExtend(x.r(0), x.op(1)))
		return x.cont()
	case isa.ZEXT_2r:
		x.setR(0, isa.ZeroExtend(x.r(0), x.r(1)))
		return x.cont()
	case isa.ZEXT_rus:
		x.setR(0, isa.ZeroExtend(x.r(0), x.op(1)))
		return x.cont()
	case isa.ANDNOT_2r:
		x.setR(0, x.r(0)&^x.r(1))
		return x.cont()
	case isa.MKMSK_2r:
		x.setR(0, isa.MakeMask(x.r(1)))
		return x.cont()
	case isa.MKMSK_rus:
		x.setR(0, x.op(1)) // mask pre-computed by the transform
		return x.cont()
	case isa.BITREV_l2r:
		x.setR(0, isa.BitReverse(x.r(1)))
		return x.cont()
	case isa.BYTEREV_l2r:
		x.setR(0, isa.ByteReverse(x.r(1)))
		return x.cont()
	case isa.CLZ_l2r:
		x.setR(0, isa.CountLeadingZeros(x.r(1)))
		return x.cont()
	case isa.CRC_l3r:
		x.setR(0, isa.CRC32(x.r(0), x.r(1), x.r(2)))
		return x.cont()
	case isa.CRC8_l4r:
		x.setR(3, isa.CRC8(x.r(3), uint8(x.r(1)), x.r(2)))
		x.setR(0, x.r(1)>>8)
		return x.cont()
	case isa.MACCU_l4r:
		acc := uint64(x.r(0))<<32 | uint64(x.r(3))
		acc += uint64(x.r(1)) * uint64(x.r(2))
		x.setR(0, uint32(acc>>32))
		x.setR(3, uint32(acc))
		return x.cont()
	case isa.MACCS_l4r:
		acc := int64(x.r(0))<<32 | int64(x.r(3))
		acc += int64(int32(x.r(1))) * int64(int32(x.r(2)))
		x.setR(0, uint32(uint64(acc)>>32))
		x.setR(3, uint32(uint64(acc)))
		return x.cont()
	case isa.LADD_l5r:
		sum := uint64(x.r(1)) + uint64(x.r(2)) + uint64(x.r(4)&1)
		x.setR(3, uint32(sum>>32))
		x.setR(0, uint32(sum))
		return x.cont()
	case isa.LSUB_l5r:
		diff := uint64(x.r(1)) - uint64(x.r(2)) - uint64(x.r(4)&1)
		x.setR(3, uint32(diff>>32))
		x.setR(0, uint32(diff))
		return x.cont()
	case isa.LDIVU_l5r:
		hi, lo, divisor := x.r(4), x.r(1), x.r(2)
		if divisor == 0 || hi >= divisor {
			return x.trap(exec.ExArithmetic, 0)
		}
		dividend := uint64(hi)<<32 | uint64(lo)
		x.setR(0, uint32(dividend/uint64(divisor)))
		x.setR(3, uint32(dividend%uint64(divisor)))
		return x.cont()
	case isa.LMUL_l6r:
		res := uint64(x.r(1))*uint64(x.r(2)) + uint64(x.r(4)) + uint64(x.r(5))
		x.setR(0, uint32(res>>32))
		x.setR(3, uint32(res))
		return x.cont()
	case isa.LDC_ru6, isa.LDC_lru6:
		x.setR(0, x.op(1))
		return x.cont()

	// ---- loads and stores ----
	case isa.LDW_3r:
		return x.loadWordOp(x.r(1)+(x.r(2)<<2), 0)
	case isa.LDW_2rus:
		return x.loadWordOp(x.r(1)+x.op(2), 0)
	case isa.LD16S_3r:
		addr := x.r(1) + (x.r(2) << 1)
		if !c.CheckAddrShort(addr) {
			return x.trap(exec.ExLoadStore, addr)
		}
		x.setR(0, isa.SignExtend(uint32(c.LoadShort(addr)), 16))
		return x.cont()
	case isa.LD8U_3r:
		addr := x.r(1) + x.r(2)
		if !c.ValidAddress(addr) {
			return x.trap(exec.ExLoadStore, addr)
		}
		x.setR(0, uint32(c.LoadByte(addr)))
		return x.cont()
	case isa.STW_2rus:
		return x.storeWordOp(x.r(1)+x.op(2), x.r(0))
	case isa.STW_l3r:
		return x.storeWordOp(x.r(1)+(x.r(2)<<2), x.r(0))
	case isa.ST16_l3r:
		addr := x.r(1) + (x.r(2) << 1)
		if !c.CheckAddrShort(addr) {
			return x.trap(exec.ExLoadStore, addr)
		}
		c.StoreShort(uint16(x.r(0)), addr)
		return x.cont()
	case isa.ST8_l3r:
		addr := x.r(1) + x.r(2)
		if !c.ValidAddress(addr) {
			return x.trap(exec.ExLoadStore, addr)
		}
		c.StoreByte(uint8(x.r(0)), addr)
		return x.cont()
	case isa.LDAWF_l3r:
		x.setR(0, x.r(1)+(x.r(2)<<2))
		return x.cont()
	case isa.LDAWF_l2rus:
		x.setR(0, x.r(1)+x.op(2))
		return x.cont()
	case isa.LDAWB_l3r:
		x.setR(0, x.r(1)-(x.r(2)<<2))
		return x.cont()
	case isa.LDAWB_l2rus:
		x.setR(0, x.r(1)-x.op(2))
		return x.cont()
	case isa.LDA16F_l3r:
		x.setR(0, x.r(1)+(x.r(2)<<1))
		return x.cont()
	case isa.LDA16B_l3r:
		x.setR(0, x.r(1)-(x.r(2)<<1))
		return x.cont()
	case isa.LDWDP_ru6, isa.LDWDP_lru6:
		return x.loadWordOp(x.reg(isa.DP)+x.op(1), 0)
	case isa.LDWSP_ru6, isa.LDWSP_lru6:
		return x.loadWordOp(x.reg(isa.SP)+x.op(1), 0)
	case isa.LDWCP_ru6, isa.LDWCP_lru6:
		return x.loadWordOp(x.reg(isa.CP)+x.op(1), 0)
	case isa.STWDP_ru6, isa.STWDP_lru6:
		return x.storeWordOp(x.reg(isa.DP)+x.op(1), x.r(0))
	case isa.STWSP_ru6, isa.STWSP_lru6:
		return x.storeWordOp(x.reg(isa.SP)+x.op(1), x.r(0))
	case isa.LDAWDP_ru6, isa.LDAWDP_lru6:
		x.setR(0, x.reg(isa.DP)+x.op(1))
		return x.cont()
	case isa.LDAWSP_ru6, isa.LDAWSP_lru6:
		x.setR(0, x.reg(isa.SP)+x.op(1))
		return x.cont()
	case isa.LDAWCP_u6, isa.LDAWCP_lu6:
		x.setReg(isa.R11, x.reg(isa.CP)+x.op(0))
		return x.cont()
	case isa.LDWCPL_u10, isa.LDWCPL_lu10:
		addr := x.reg(isa.CP) + x.op(0)
		if !c.CheckAddrWord(addr) {
			return x.trap(exec.ExLoadStore, addr)
		}
		x.setReg(isa.R11, c.LoadWord(addr))
		return x.cont()
	case isa.LDAPF_u10, isa.LDAPF_lu10:
		x.setReg(isa.R11, c.FromPC(x.nextPC)+x.op(0))
		return x.cont()
	case isa.LDAPB_u10, isa.LDAPB_lu10:
		x.setReg(isa.R11, c.FromPC(x.nextPC)-x.op(0))
		return x.cont()

	// ---- stack and data pointers ----
	case isa.EXTSP_u6, isa.EXTSP_lu6:
		x.setReg(isa.SP, x.reg(isa.SP)-x.op(0))
		return x.cont()
	case isa.EXTDP_u6, isa.EXTDP_lu6:
		x.setReg(isa.DP, x.reg(isa.DP)-x.op(0))
		return x.cont()
	case isa.ENTSP_u6, isa.ENTSP_lu6:
		if x.op(0) > 0 {
			sp := x.reg(isa.SP)
			if !c.CheckAddrWord(sp) {
				return x.trap(exec.ExLoadStore, sp)
			}
			c.StoreWord(x.reg(isa.LR), sp)
			x.setReg(isa.SP, sp-x.op(0))
		}
		return x.cont()
	case isa.RETSP_u6, isa.RETSP_lu6:
		lr := x.reg(isa.LR)
		if x.op(0) > 0 {
			addr := x.reg(isa.SP) + x.op(0)
			if !c.CheckAddrWord(addr) {
				return x.trap(exec.ExLoadStore, addr)
			}
			x.setReg(isa.SP, addr)
			lr = c.LoadWord(addr)
			x.setReg(isa.LR, lr)
		}
		target, ok := c.ToPC(lr)
		if !ok || !c.ValidPC(target) {
			return x.trap(exec.ExIllegalPC, lr)
		}
		return x.endTrace(target)
	case isa.KRESTSP_u6, isa.KRESTSP_lu6:
		addr := x.reg(isa.SP) + x.op(0)
		if !c.CheckAddrWord(addr) {
			return x.trap(exec.ExLoadStore, addr)
		}
		x.setReg(isa.KSP, addr)
		x.setReg(isa.SP, c.LoadWord(addr))
		return x.cont()
	case isa.KENTSP_u6, isa.KENTSP_lu6:
		ksp := x.reg(isa.KSP)
		if !c.CheckAddrWord(ksp) {
			return x.trap(exec.ExLoadStore, ksp)
		}
		c.StoreWord(x.reg(isa.SP), ksp)
		x.setReg(isa.SP, ksp-x.op(0))
		return x.cont()
	case isa.SETSP_1r:
		x.setReg(isa.SP, x.r(0))
		return x.cont()
	case isa.SETDP_1r:
		x.setReg(isa.DP, x.r(0))
		return x.cont()
	case isa.SETCP_1r:
		x.setReg(isa.CP, x.r(0))
		return x.cont()
	case isa.LDSPC_0r:
		return x.loadSPSlot(isa.SPC, 1)
	case isa.LDSSR_0r:
		return x.loadSPSlot(isa.SSR, 2)
	case isa.LDSED_0r:
		return x.loadSPSlot(isa.SED, 3)
	case isa.LDET_0r:
		return x.loadSPSlot(isa.ET, 4)
	case isa.STSPC_0r:
		return x.storeSPSlot(isa.SPC, 1)
	case isa.STSSR_0r:
		return x.storeSPSlot(isa.SSR, 2)
	case isa.STSED_0r:
		return x.storeSPSlot(isa.SED, 3)
	case isa.STET_0r:
		return x.storeSPSlot(isa.ET, 4)

	// ---- branches and calls ----
	case isa.BRFT_ru6, isa.BRFT_lru6:
		if x.r(0) != 0 {
			return x.contAt(x.op(1))
		}
		return x.cont()
	case isa.BRFF_ru6, isa.BRFF_lru6:
		if x.r(0) == 0 {
			return x.contAt(x.op(1))
		}
		return x.cont()
	case isa.BRBT_ru6, isa.BRBT_lru6:
		if x.r(0) != 0 {
			return x.endTrace(x.op(1))
		}
		return x.cont()
	case isa.BRBF_ru6, isa.BRBF_lru6:
		if x.r(0) == 0 {
			return x.endTrace(x.op(1))
		}
		return x.cont()
	case isa.BRFT_illegal_ru6, isa.BRFT_illegal_lru6:
		if x.r(0) != 0 {
			return x.trap(exec.ExIllegalPC, c.FromPC(x.op(1)))
		}
		return x.cont()
	case isa.BRFF_illegal_ru6, isa.BRFF_illegal_lru6:
		if x.r(0) == 0 {
			return x.trap(exec.ExIllegalPC, c.FromPC(x.op(1)))
		}
		return x.cont()
	case isa.BRBT_illegal_ru6, isa.BRBT_illegal_lru6:
		if x.r(0) != 0 {
			return x.trap(exec.ExIllegalPC, c.FromPC(x.op(1)))
		}
		return x.cont()
	case isa.BRBF_illegal_ru6, isa.BRBF_illegal_lru6:
		if x.r(0) == 0 {
			return x.trap(exec.ExIllegalPC, c.FromPC(x.op(1)))
		}
		return x.cont()
	case isa.BRFU_u6, isa.BRFU_lu6:
		return x.contAt(x.op(0))
	case isa.BRBU_u6, isa.BRBU_lu6:
		return x.endTrace(x.op(0))
	case isa.BRFU_illegal_u6, isa.BRFU_illegal_lu6,
		isa.BRBU_illegal_u6, isa.BRBU_illegal_lu6:
		return x.trap(exec.ExIllegalPC, c.FromPC(x.op(0)))
	case isa.BLRF_u10, isa.BLRF_lu10:
		x.setReg(isa.LR, c.FromPC(x.nextPC))
		return x.contAt(x.op(0))
	case isa.BLRB_u10, isa.BLRB_lu10:
		x.setReg(isa.LR, c.FromPC(x.nextPC))
		return x.endTrace(x.op(0))
	case isa.BLRF_illegal_u10, isa.BLRF_illegal_lu10,
		isa.BLRB_illegal_u10, isa.BLRB_illegal_lu10:
		return x.trap(exec.ExIllegalPC, c.FromPC(x.op(0)))
	case isa.BAU_1r:
		return x.branchAbsolute(x.r(0), false)
	case isa.BLA_1r:
		return x.branchAbsolute(x.r(0), true)
	case isa.BRU_1r:
		target := x.nextPC + x.r(0)
		if !c.ValidPC(target) {
			return x.trap(exec.ExIllegalPC, c.FromPC(target))
		}
		return x.endTrace(target)
	case isa.BLACP_u10, isa.BLACP_lu10:
		addr := x.reg(isa.CP) + (x.op(0) << 2)
		if !c.CheckAddrWord(addr) {
			return x.trap(exec.ExLoadStore, addr)
		}
		return x.branchAbsolute(c.LoadWord(addr), true)

	// ---- status register and kernel state ----
	case isa.SETSR_u6, isa.SETSR_lu6:
		th.SR |= x.op(0)
		res := x.cont()
		s.seeEventEnableAll(th)
		return res
	case isa.CLRSR_u6, isa.CLRSR_lu6:
		th.SR &^= x.op(0)
		return x.cont()
	case isa.GETSR_u6, isa.GETSR_lu6:
		x.setReg(isa.R11, x.op(0)&th.SR)
		return x.cont()
	case isa.GETID_0r:
		x.setReg(isa.R11, uint32(th.Base.ID.Num()))
		return x.cont()
	case isa.GETET_0r:
		x.setReg(isa.R11, x.reg(isa.ET))
		return x.cont()
	case isa.GETED_0r:
		x.setReg(isa.R11, x.reg(isa.ED))
		return x.cont()
	case isa.GETKEP_0r:
		x.setReg(isa.R11, x.reg(isa.KEP))
		return x.cont()
	case isa.GETKSP_0r:
		x.setReg(isa.R11, x.reg(isa.KSP))
		return x.cont()
	case isa.SETKEP_0r:
		x.setReg(isa.KEP, x.reg(isa.R11)&^uint32(127))
		return x.cont()
	case isa.KRET_0r:
		spc := x.reg(isa.SPC)
		target, ok := c.ToPC(spc)
		if !ok || !c.ValidPC(target) {
			return x.trap(exec.ExIllegalPC, spc)
		}
		x.th.Time += uint64(x.info.Cycles)
		th.Kret(func(addr uint32) uint32 {
			pc, _ := c.ToPC(addr)
			return pc
		})
		s.tracer.InstructionEnd(th.gid)
		return stepEndTrace
	case isa.ECALLT_1r:
		if x.r(0) != 0 {
			return x.trap(exec.ExEcall, 0)
		}
		return x.cont()
	case isa.ECALLF_1r:
		if x.r(0) == 0 {
			return x.trap(exec.ExEcall, 0)
		}
		return x.cont()
	case isa.GETPS_l2r:
		switch x.r(1) {
		case PSRamBase:
			x.setR(0, c.ramBase)
			return x.cont()
		}
		return x.trap(exec.ExIllegalResource, x.r(1))
	case isa.SETPS_l2r:
		switch x.r(1) {
		case PSVectorBase:
			c.vectorBase = x.r(0)
			return x.cont()
		}
		return x.trap(exec.ExIllegalResource, x.r(1))
	case isa.CLRE_0r:
		th.ClearEventState()
		c.clre(th)
		return x.cont()
	case isa.WAITEU_0r:
		th.EnableEvents()
		return x.desched()
	case isa.WAITET_1r:
		if x.r(0) != 0 {
			th.EnableEvents()
			return x.desched()
		}
		return x.cont()
	case isa.WAITEF_1r:
		if x.r(0) == 0 {
			th.EnableEvents()
			return x.desched()
		}
		return x.cont()

	// ---- resources ----
	case isa.GETR_rus:
		kind := x.op(1)
		if kind > uint32(resource.KindLock) {
			x.setR(0, 1)
		} else if id, ok := c.AllocResource(th.gid, resource.Kind(kind)); ok {
			x.setR(0, id)
		} else {
			x.setR(0, 0)
		}
		return x.cont()
	case isa.FREER_1r:
		if !c.FreeResource(th, resource.ID(x.r(0))) {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		return x.cont()
	case isa.GETST_2r:
		sy := x.checkSync(x.r(1))
		if sy == nil {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		t := c.AllocThread(th.gid)
		if t == nil {
			x.setR(0, 0)
			return x.cont()
		}
		if err := sy.AddChild(t.gid); err != nil {
			c.FreeThread(t)
			x.setR(0, 0)
			return x.cont()
		}
		t.HasSync = true
		t.SyncID = sy.Base.ID
		x.setR(0, uint32(t.Base.ID))
		return x.cont()
	case isa.MSYNC_1r:
		sy := x.checkSync(x.r(0))
		if sy == nil {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		// Retire first: the sync point is consumed by the release, so a woken
		// master resumes after the instruction rather than re-issuing it.
		res := x.cont()
		if out := sy.MSync(th.gid); out.Kind == exec.Deschedule {
			th.SetWaiting(true)
			return stepDesched
		}
		return res
	case isa.MJOIN_1r:
		sy := x.checkSync(x.r(0))
		if sy == nil {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		res := x.cont()
		if out := sy.MJoin(th.gid); out.Kind == exec.Deschedule {
			th.SetWaiting(true)
			return stepDesched
		}
		return res
	case isa.SSYNC_0r:
		if !th.HasSync {
			return x.cont()
		}
		sy := c.syncs.Get(th.SyncID)
		if sy == nil {
			return x.cont()
		}
		// Retire first so the thread resumes after the sync point.
		res := x.cont()
		if out := sy.SSync(th.gid); out.Kind == exec.Deschedule {
			th.SetWaiting(true)
			return stepDesched
		}
		return res
	case isa.FREET_0r:
		if th.HasSync {
			if sy := c.syncs.Get(th.SyncID); sy != nil {
				sy.RemoveChild(th.gid)
			}
		}
		c.FreeThread(th)
		return stepThreadEnded
	case isa.TSTART_1r:
		t := x.checkThread(x.r(0))
		if t == nil || !t.InSSync || t.HasSync {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		s.Wake(t.gid)
		return x.cont()
	case isa.TINITPC_2r:
		t := x.checkThread(x.r(1))
		if t == nil || !t.InSSync {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		if pc, ok := c.ToPC(x.r(0)); ok && c.ValidPC(pc) {
			t.PC = pc
		} else {
			t.PC = illegalPCThreadSlot
			t.IllegalPC = x.r(0)
		}
		return x.cont()
	case isa.TINITDP_2r, isa.TINITSP_2r, isa.TINITCP_2r:
		t := x.checkThread(x.r(1))
		if t == nil || !t.InSSync {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		switch d.Op {
		case isa.TINITDP_2r:
			t.Regs[isa.DP] = x.r(0)
		case isa.TINITSP_2r:
			t.Regs[isa.SP] = x.r(0)
		case isa.TINITCP_2r:
			t.Regs[isa.CP] = x.r(0)
		}
		return x.cont()
	case isa.TINITLR_l2r:
		t := x.checkThread(x.r(1))
		if t == nil || !t.InSSync {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		t.Regs[isa.LR] = x.r(0)
		return x.cont()
	case isa.TSETR_3r:
		t := x.checkThread(x.r(2))
		if t == nil {
			return x.trap(exec.ExIllegalResource, x.r(2))
		}
		t.Regs[isa.Reg(x.op(0))] = x.r(1)
		return x.cont()
	case isa.TSETMR_2r:
		if !th.HasSync {
			return x.trap(exec.ExIllegalResource, 0)
		}
		sy := c.syncs.Get(th.SyncID)
		if sy == nil {
			return x.trap(exec.ExIllegalResource, uint32(th.SyncID))
		}
		master := s.ThreadByID(sy.Master())
		if master == nil {
			return x.trap(exec.ExIllegalResource, uint32(th.SyncID))
		}
		master.Regs[isa.Reg(x.op(0))] = x.r(1)
		return x.cont()

	// ---- channel, port, timer, lock I/O ----
	case isa.IN_2r:
		return x.resourceIn(x.r(1))
	case isa.OUT_2r:
		return x.resourceOut(x.r(1), x.r(0))
	case isa.OUTT_2r:
		ch := c.ownChanend(resource.ID(x.r(1)))
		if ch == nil {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		return x.outcome(ch.OutT(th.gid, byte(x.r(0)), th.Time, c), nil)
	case isa.OUTCT_2r:
		ch := c.ownChanend(resource.ID(x.r(0)))
		if ch == nil {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		return x.outcome(ch.OutCT(th.gid, byte(x.r(1)), th.Time, c), nil)
	case isa.OUTCT_rus:
		ch := c.ownChanend(resource.ID(x.r(0)))
		if ch == nil {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		return x.outcome(ch.OutCT(th.gid, byte(x.op(1)), th.Time, c), nil)
	case isa.INT_2r:
		ch := c.ownChanend(resource.ID(x.r(1)))
		if ch == nil {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		v, out := ch.InT(th.gid, th.Time)
		return x.outcome(out, func() { x.setR(0, uint32(v)) })
	case isa.INCT_2r:
		ch := c.ownChanend(resource.ID(x.r(1)))
		if ch == nil {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		v, out := ch.InCT(th.gid, th.Time)
		return x.outcome(out, func() { x.setR(0, uint32(v)) })
	case isa.CHKCT_2r:
		ch := c.ownChanend(resource.ID(x.r(0)))
		if ch == nil {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		return x.outcome(ch.ChkCT(th.gid, byte(x.r(1)), th.Time), nil)
	case isa.CHKCT_rus:
		ch := c.ownChanend(resource.ID(x.r(0)))
		if ch == nil {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		return x.outcome(ch.ChkCT(th.gid, byte(x.op(1)), th.Time), nil)
	case isa.TESTCT_2r:
		ch := c.ownChanend(resource.ID(x.r(1)))
		if ch == nil {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		if !ch.TestCT() {
			ch.ParkIn(th.gid, false)
			return x.desched()
		}
		isCt := ch.HeadIsControl()
		x.setR(0, b2u(isCt))
		return x.cont()
	case isa.TESTWCT_2r:
		ch := c.ownChanend(resource.ID(x.r(1)))
		if ch == nil {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		if !ch.TestWCTReady() {
			ch.ParkIn(th.gid, true)
			return x.desched()
		}
		x.setR(0, uint32(ch.TestWCT()))
		return x.cont()
	case isa.SETD_2r:
		return x.setD(x.r(1), x.r(0))
	case isa.SETC_ru6, isa.SETC_lru6:
		if !c.setC(th, resource.ID(x.r(0)), x.op(1), th.Time) {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		return x.cont()
	case isa.SETC_l2r:
		if !c.setC(th, resource.ID(x.r(0)), x.r(1), th.Time) {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		return x.cont()
	case isa.INSHR_2r:
		p := x.checkPort(x.r(1))
		if p == nil {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		v, out := p.In(th.gid)
		if out.Kind == exec.Deschedule {
			s.armClock(p.Clock(), th.Time)
		}
		return x.outcome(out, func() {
			width := uint(p.TransferWidth)
			x.setR(0, x.r(0)>>width|v<<(32-width))
		})
	case isa.OUTSHR_2r:
		p := x.checkPort(x.r(1))
		if p == nil {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		out := p.Out(th.gid, x.r(0), th.Time)
		if out.Kind == exec.Deschedule {
			s.armClock(p.Clock(), th.Time)
		}
		return x.outcome(out, func() {
			x.setR(0, x.r(0)>>uint(p.TransferWidth))
			s.armClock(p.Clock(), th.Time)
		})
	case isa.GETTS_2r:
		p := x.checkPort(x.r(1))
		if p == nil {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		x.setR(0, p.GetTimestamp())
		return x.cont()
	case isa.SETPT_2r:
		p := x.checkPort(x.r(1))
		if p == nil {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		p.SetPT(x.r(0))
		s.armClock(p.Clock(), th.Time)
		return x.cont()
	case isa.CLRPT_1r:
		p := x.checkPort(x.r(0))
		if p == nil {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		p.ClearPT()
		return x.cont()
	case isa.SYNCR_1r:
		p := x.checkPort(x.r(0))
		if p == nil {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		out := p.Sync(th.gid)
		if out.Kind == exec.Deschedule {
			s.armClock(p.Clock(), th.Time)
		}
		return x.outcome(out, nil)
	case isa.SETTW_l2r:
		p := x.checkPort(x.r(1))
		if p == nil || !p.SetTransferWidth(x.r(0)) {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		return x.cont()
	case isa.SETCLK_l2r:
		if !x.setClock(x.r(1), x.r(0)) {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		return x.cont()
	case isa.SETRDY_l2r:
		if !x.setReady(x.r(1), x.r(0)) {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		return x.cont()
	case isa.SETV_1r:
		base := x.eventableBaseChecked(x.r(0))
		if base == nil {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		target, ok := c.ToPC(x.reg(isa.R11))
		if !ok || !c.ValidPC(target) {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		base.Vector = target
		return x.cont()
	case isa.SETEV_1r:
		base := x.eventableBaseChecked(x.r(0))
		if base == nil {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		base.EV = x.reg(isa.R11)
		return x.cont()
	case isa.EEU_1r:
		if !c.eventEnable(th, resource.ID(x.r(0)), true) {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		return x.cont()
	case isa.EDU_1r:
		if !c.eventEnable(th, resource.ID(x.r(0)), false) {
			return x.trap(exec.ExIllegalResource, x.r(0))
		}
		return x.cont()
	case isa.EET_2r:
		if !c.eventEnable(th, resource.ID(x.r(1)), x.r(0) != 0) {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		return x.cont()
	case isa.EEF_2r:
		if !c.eventEnable(th, resource.ID(x.r(1)), x.r(0) == 0) {
			return x.trap(exec.ExIllegalResource, x.r(1))
		}
		return x.cont()

	// ---- host interception ----
	case isa.BREAKPOINT:
		return x.breakpoint()
	case isa.ILLEGAL_INSTRUCTION:
		return x.trap(exec.ExIllegalInstruction, 0)
	}

	return x.trap(exec.ExIllegalInstruction, 0)
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (x *ictx) loadWordOp(addr uint32, dst int) stepResult {
	if !x.c.CheckAddrWord(addr) {
		return x.trap(exec.ExLoadStore, addr)
	}
	x.setR(dst, x.c.LoadWord(addr))
	return x.cont()
}

func (x *ictx) storeWordOp(addr, value uint32) stepResult {
	if !x.c.CheckAddrWord(addr) {
		return x.trap(exec.ExLoadStore, addr)
	}
	x.c.StoreWord(value, addr)
	return x.cont()
}

func (x *ictx) loadSPSlot(dst isa.Reg, slot uint32) stepResult {
	addr := x.reg(isa.SP) + (slot << 2)
	if !x.c.CheckAddrWord(addr) {
		return x.trap(exec.ExLoadStore, addr)
	}
	x.setReg(dst, x.c.LoadWord(addr))
	return x.cont()
}

func (x *ictx) storeSPSlot(src isa.Reg, slot uint32) stepResult {
	addr := x.reg(isa.SP) + (slot << 2)
	if !x.c.CheckAddrWord(addr) {
		return x.trap(exec.ExLoadStore, addr)
	}
	x.c.StoreWord(x.reg(src), addr)
	return x.cont()
}

// branchAbsolute implements BAU/BLA/BLACP: a byte-address target with oddness and
// range checks, optionally linking.
func (x *ictx) branchAbsolute(addr uint32, link bool) stepResult {
	if addr&1 != 0 {
		return x.trap(exec.ExIllegalPC, addr)
	}
	target, ok := x.c.ToPC(addr)
	if !ok || !x.c.ValidPC(target) {
		return x.trap(exec.ExIllegalPC, addr)
	}
	if link {
		x.setReg(isa.LR, x.c.FromPC(x.nextPC))
	}
	return x.endTrace(target)
}

func (x *ictx) checkPort(wire uint32) *port.Port {
	id := resource.ID(wire)
	if id.Kind() != resource.KindPort {
		return nil
	}
	p := x.c.ports[id.Num()]
	if p == nil || !p.InUse || p.Owner != x.th.gid {
		return nil
	}
	return p
}

// resourceIn dispatches the IN instruction across resource kinds (spec.md §4.3).
func (x *ictx) resourceIn(wire uint32) stepResult {
	id := resource.ID(wire)
	switch id.Kind() {
	case resource.KindChanend:
		ch := x.c.ownChanend(id)
		if ch == nil {
			return x.trap(exec.ExIllegalResource, wire)
		}
		v, out := ch.In(x.th.gid, x.th.Time)
		return x.outcome(out, func() { x.setR(0, v) })
	case resource.KindTimer:
		t := x.c.timers.Get(id)
		if t == nil || !t.InUse || t.Owner != x.th.gid {
			return x.trap(exec.ExIllegalResource, wire)
		}
		v, out := t.In(x.th.gid, x.refTicks())
		if out.Kind == exec.Deschedule {
			x.s.armTimer(t, x.refTicks())
		}
		return x.outcome(out, func() { x.setR(0, v) })
	case resource.KindLock:
		l := x.c.locks.Get(id)
		if l == nil || !l.InUse {
			return x.trap(exec.ExIllegalResource, wire)
		}
		out := l.In(x.th.gid)
		return x.outcome(out, func() { x.setR(0, wire) })
	case resource.KindPort:
		p := x.checkPort(wire)
		if p == nil {
			return x.trap(exec.ExIllegalResource, wire)
		}
		v, out := p.In(x.th.gid)
		if out.Kind == exec.Deschedule {
			x.s.armClock(p.Clock(), x.th.Time)
		}
		return x.outcome(out, func() { x.setR(0, v) })
	}
	return x.trap(exec.ExIllegalResource, wire)
}

// resourceOut dispatches the OUT instruction across resource kinds.
func (x *ictx) resourceOut(wire, value uint32) stepResult {
	id := resource.ID(wire)
	switch id.Kind() {
	case resource.KindChanend:
		ch := x.c.ownChanend(id)
		if ch == nil {
			return x.trap(exec.ExIllegalResource, wire)
		}
		return x.outcome(ch.Out(x.th.gid, value, x.th.Time, x.c), nil)
	case resource.KindLock:
		l := x.c.locks.Get(id)
		if l == nil || !l.InUse {
			return x.trap(exec.ExIllegalResource, wire)
		}
		return x.outcome(l.Out(x.th.gid), nil)
	case resource.KindPort:
		p := x.checkPort(wire)
		if p == nil {
			return x.trap(exec.ExIllegalResource, wire)
		}
		out := p.Out(x.th.gid, value, x.th.Time)
		if out.Kind == exec.Deschedule {
			x.s.armClock(p.Clock(), x.th.Time)
		}
		return x.outcome(out, func() { x.s.armClock(p.Clock(), x.th.Time) })
	}
	return x.trap(exec.ExIllegalResource, wire)
}

// setD dispatches SETD: chanend destination, timer comparand, port comparand.
func (x *ictx) setD(wire, value uint32) stepResult {
	id := resource.ID(wire)
	switch id.Kind() {
	case resource.KindChanend:
		ch := x.c.ownChanend(id)
		if ch == nil {
			return x.trap(exec.ExIllegalResource, wire)
		}
		if err := ch.SetD(resource.ID(value)); err != nil {
			return x.trap(exec.ExIllegalResource, wire)
		}
		return x.cont()
	case resource.KindTimer:
		t := x.c.timers.Get(id)
		if t == nil || !t.InUse || t.Owner != x.th.gid {
			return x.trap(exec.ExIllegalResource, wire)
		}
		t.SetD(value)
		if t.Base.Events || t.Cond() == xsync.CondAfter {
			x.s.armTimer(t, x.refTicks())
		}
		return x.cont()
	case resource.KindPort:
		p := x.checkPort(wire)
		if p == nil {
			return x.trap(exec.ExIllegalResource, wire)
		}
		p.SetData(value)
		return x.cont()
	}
	return x.trap(exec.ExIllegalResource, wire)
}

// setClock implements SETCLK: attach a port to a clock block, or select a clock
// block's edge source.
func (x *ictx) setClock(targetWire, value uint32) bool {
	id := resource.ID(targetWire)
	switch id.Kind() {
	case resource.KindPort:
		p := x.checkPort(targetWire)
		if p == nil {
			return false
		}
		cb := x.c.clkblks.Get(resource.ID(value))
		if cb == nil || !cb.InUse {
			return false
		}
		p.AttachClock(cb)
		return true
	case resource.KindClkblk:
		cb := x.c.clkblks.Get(id)
		if cb == nil || !cb.InUse || cb.Owner != x.th.gid {
			return false
		}
		if value == ClkRef {
			cb.SetSource(x.th.Time, nil)
			return true
		}
		srcID := resource.ID(value)
		if srcID.Kind() != resource.KindPort {
			return false
		}
		src := x.c.ports[srcID.Num()]
		if src == nil || src.Width != 1 {
			return false
		}
		cb.SetSource(x.th.Time, src)
		return true
	}
	return false
}

// setReady implements SETRDY: wire a 1-bit ready port to a port or clock block.
func (x *ictx) setReady(targetWire, readyWire uint32) bool {
	readyID := resource.ID(readyWire)
	if readyID.Kind() != resource.KindPort {
		return false
	}
	ready := x.c.ports[readyID.Num()]
	if ready == nil || ready.Width != 1 {
		return false
	}
	id := resource.ID(targetWire)
	switch id.Kind() {
	case resource.KindPort:
		p := x.checkPort(targetWire)
		if p == nil {
			return false
		}
		p.SetReadyIn(ready)
		p.SetReadyOut(ready)
		return true
	case resource.KindClkblk:
		cb := x.c.clkblks.Get(id)
		if cb == nil || !cb.InUse {
			return false
		}
		cb.SetReadyIn(x.th.Time, ready)
		return true
	}
	return false
}

// eventableBaseChecked resolves an eventable wire ID owned by the calling thread.
func (x *ictx) eventableBaseChecked(wire uint32) *resource.Base {
	id := resource.ID(wire)
	switch id.Kind() {
	case resource.KindChanend:
		if ch := x.c.ownChanend(id); ch != nil && ch.Owner == x.th.gid {
			return &ch.Base
		}
	case resource.KindTimer:
		if t := x.c.timers.Get(id); t != nil && t.InUse && t.Owner == x.th.gid {
			return &t.Base
		}
	case resource.KindPort:
		if p := x.checkPort(wire); p != nil {
			return &p.Base
		}
	}
	return nil
}

// eventEnable flips the resource-level event enable, running the catch-up check on
// the enable edge (spec.md §4.1 seeEventEnable).
func (c *Core) eventEnable(th *Thread, id resource.ID, enable bool) bool {
	switch id.Kind() {
	case resource.KindChanend:
		ch := c.ownChanend(id)
		if ch == nil || ch.Owner != th.gid {
			return false
		}
		ch.Base.Events = enable
		if enable {
			ch.SeeEventEnable()
		}
		return true
	case resource.KindTimer:
		t := c.timers.Get(id)
		if t == nil || !t.InUse || t.Owner != th.gid {
			return false
		}
		t.Base.Events = enable
		if enable {
			c.sys.armTimer(t, th.Time/CyclesPerTick)
			if t.ConditionMet(th.Time / CyclesPerTick) {
				c.sys.RaiseEvent(t.Base.Owner, t.Base.ID)
			}
		}
		return true
	case resource.KindPort:
		p := c.ports[id.Num()]
		if p == nil || !p.InUse || p.Owner != th.gid {
			return false
		}
		p.Base.Events = enable
		if enable {
			c.sys.armClock(p.Clock(), th.Time)
			if p.TransferValid() {
				c.sys.RaiseEvent(p.Base.Owner, p.Base.ID)
			}
		}
		return true
	}
	return false
}

// clre disables events on every eventable resource owned by th (the CLRE
// instruction).
func (c *Core) clre(th *Thread) {
	for i := uint32(0); i < uint32(c.chanends.Len()); i++ {
		if ch := c.chanends.At(i); ch.InUse && ch.Owner == th.gid {
			ch.Base.Events = false
		}
	}
	for i := uint32(0); i < uint32(c.timers.Len()); i++ {
		if t := c.timers.At(i); t.InUse && t.Owner == th.gid {
			t.Base.Events = false
		}
	}
	for _, p := range c.portList {
		if p.InUse && p.Owner == th.gid {
			p.Base.Events = false
		}
	}
}

// seeEventEnableAll runs the enable-edge catch-up after SETSR sets EEBLE.
func (s *SystemState) seeEventEnableAll(th *Thread) {
	c := th.core
	for i := uint32(0); i < uint32(c.chanends.Len()); i++ {
		if ch := c.chanends.At(i); ch.InUse && ch.Owner == th.gid && ch.Base.Events {
			ch.SeeEventEnable()
		}
	}
}

// breakpoint hands control to the host when the PC reaches a designated syscall or
// exception interception address (spec.md §6).
func (x *ictx) breakpoint() stepResult {
	s, th, c := x.s, x.th, x.c
	kind, _ := c.breakpoints.Kind(c.FromPC(th.PC))
	if s.syscalls == nil {
		return x.trap(exec.ExIllegalInstruction, 0)
	}
	var out SyscallOutcome
	switch kind {
	case BreakSyscall:
		out = s.syscalls.Syscall(s, th)
	case BreakException:
		out = s.syscalls.Exception(s, th)
	default:
		return x.trap(exec.ExIllegalInstruction, 0)
	}
	switch out.Kind {
	case SyscallExit:
		s.Exit(out.ExitCode)
		return stepThreadEnded
	case SyscallTrap:
		return x.trap(exec.ExceptionKind(out.TrapKind), out.TrapData)
	}
	// Continue: the handler has written results; return to the caller.
	ret, ok := c.ToPC(th.Regs[isa.LR])
	if !ok || !c.ValidPC(ret) {
		return x.trap(exec.ExIllegalPC, th.Regs[isa.LR])
	}
	th.Time += uint64(x.info.Cycles)
	th.PC = ret
	s.tracer.InstructionEnd(th.gid)
	return stepEndTrace
}
