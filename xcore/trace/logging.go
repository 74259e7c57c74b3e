package trace

import (
	"fmt"
	"io"

	"github.com/zotley-sim/xtilesim/xcore/exec"
	"github.com/zotley-sim/xtilesim/xcore/isa"
	"github.com/zotley-sim/xtilesim/xcore/resource"
)

// Logging writes one line per callback to an io.Writer.
type Logging struct {
	Null
	w io.Writer
}

// NewLogging returns a tracer printing to w.
func NewLogging(w io.Writer) *Logging { return &Logging{w: w} }

func (l *Logging) InstructionBegin(t resource.ThreadID, pc uint32, op isa.Opcode) {
	fmt.Fprintf(l.w, "t%d @%#08x %s\n", t, pc, op)
}

func (l *Logging) RegWrite(t resource.ThreadID, reg isa.Reg, value uint32) {
	fmt.Fprintf(l.w, "t%d   %s <- %#x\n", t, reg, value)
}

func (l *Logging) Exception(t resource.ThreadID, kind exec.ExceptionKind, et, ed, spc uint32) {
	fmt.Fprintf(l.w, "t%d exception %s et=%#x ed=%#x spc=%#x\n", t, kind, et, ed, spc)
}

func (l *Logging) Event(t resource.ThreadID, id resource.ID, pc, ev uint32) {
	fmt.Fprintf(l.w, "t%d event from %s vector=%#x ev=%#x\n", t, id, pc, ev)
}

func (l *Logging) Interrupt(t resource.ThreadID, id resource.ID, pc uint32) {
	fmt.Fprintf(l.w, "t%d interrupt from %s vector=%#x\n", t, id, pc)
}

func (l *Logging) Syscall(t resource.ThreadID, name string, arg uint32) {
	fmt.Fprintf(l.w, "t%d syscall %s(%#x)\n", t, name, arg)
}

func (l *Logging) SSwitchRead(nodeID, retDest uint32, regNum uint16) {
	fmt.Fprintf(l.w, "sswitch node %d read reg %#x -> %#x\n", nodeID, regNum, retDest)
}

func (l *Logging) SSwitchWrite(nodeID, retDest uint32, regNum uint16, value uint32) {
	fmt.Fprintf(l.w, "sswitch node %d write reg %#x = %#x -> %#x\n", nodeID, regNum, value, retDest)
}

func (l *Logging) SSwitchAck(nodeID, dest uint32) {
	fmt.Fprintf(l.w, "sswitch node %d ack -> %#x\n", nodeID, dest)
}

func (l *Logging) SSwitchNack(nodeID, dest uint32) {
	fmt.Fprintf(l.w, "sswitch node %d nack -> %#x\n", nodeID, dest)
}

func (l *Logging) Timeout(time uint64) {
	fmt.Fprintf(l.w, "timeout at %d cycles\n", time)
}

func (l *Logging) NoRunnableThreads(time uint64) {
	fmt.Fprintf(l.w, "no runnable threads at %d cycles\n", time)
}

// Stats counts instruction executions per opcode; Report prints the distribution
// in opcode order.
type Stats struct {
	Null
	counts [isa.NumOpcodes]uint64
	total  uint64
}

// NewStats returns an instruction-statistics tracer.
func NewStats() *Stats { return &Stats{} }

func (s *Stats) InstructionBegin(t resource.ThreadID, pc uint32, op isa.Opcode) {
	s.counts[op]++
	s.total++
}

// Total returns the number of instructions observed.
func (s *Stats) Total() uint64 { return s.total }

// Count returns the executions of one opcode.
func (s *Stats) Count(op isa.Opcode) uint64 { return s.counts[op] }

// Report writes the per-opcode counts to w, skipping opcodes never executed.
func (s *Stats) Report(w io.Writer) {
	for op := isa.Opcode(0); op < isa.NumOpcodes; op++ {
		if s.counts[op] == 0 {
			continue
		}
		fmt.Fprintf(w, "%-12s %d\n", op.String(), s.counts[op])
	}
	fmt.Fprintf(w, "%-12s %d\n", "total", s.total)
}
