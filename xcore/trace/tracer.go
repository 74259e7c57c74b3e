// Package trace defines the tracer callback interface of spec.md §6 and its
// concrete implementations: the discarding default, a human-readable logging
// tracer, an instruction-statistics tracer, a fan-out tracer, and the VCD
// waveform dumper. All callbacks are non-blocking and mutate tracer-local
// state only.
package trace

import (
	"github.com/zotley-sim/xtilesim/xcore/exec"
	"github.com/zotley-sim/xtilesim/xcore/isa"
	"github.com/zotley-sim/xtilesim/xcore/resource"
)

// Tracer receives simulation callbacks. ThreadIDs are the global thread indices of
// the scheduler; PCs are byte addresses.
type Tracer interface {
	InstructionBegin(t resource.ThreadID, pc uint32, op isa.Opcode)
	InstructionEnd(t resource.ThreadID)
	RegWrite(t resource.ThreadID, reg isa.Reg, value uint32)
	Exception(t resource.ThreadID, kind exec.ExceptionKind, et, ed, spc uint32)
	Event(t resource.ThreadID, id resource.ID, pc, ev uint32)
	Interrupt(t resource.ThreadID, id resource.ID, pc uint32)
	Syscall(t resource.ThreadID, name string, arg uint32)
	SSwitchRead(nodeID uint32, retDest uint32, regNum uint16)
	SSwitchWrite(nodeID uint32, retDest uint32, regNum uint16, value uint32)
	SSwitchAck(nodeID uint32, dest uint32)
	SSwitchNack(nodeID uint32, dest uint32)
	Timeout(time uint64)
	NoRunnableThreads(time uint64)
}

// Null discards every callback; it is the default tracer.
type Null struct{}

func (Null) InstructionBegin(resource.ThreadID, uint32, isa.Opcode)               {}
func (Null) InstructionEnd(resource.ThreadID)                                     {}
func (Null) RegWrite(resource.ThreadID, isa.Reg, uint32)                          {}
func (Null) Exception(resource.ThreadID, exec.ExceptionKind, uint32, uint32, uint32) {}
func (Null) Event(resource.ThreadID, resource.ID, uint32, uint32)                 {}
func (Null) Interrupt(resource.ThreadID, resource.ID, uint32)                     {}
func (Null) Syscall(resource.ThreadID, string, uint32)                            {}
func (Null) SSwitchRead(uint32, uint32, uint16)                                   {}
func (Null) SSwitchWrite(uint32, uint32, uint16, uint32)                          {}
func (Null) SSwitchAck(uint32, uint32)                                            {}
func (Null) SSwitchNack(uint32, uint32)                                           {}
func (Null) Timeout(uint64)                                                       {}
func (Null) NoRunnableThreads(uint64)                                             {}

// Multi fans every callback out to each member tracer in order, letting a stats
// tracer and a logging tracer observe the same run.
type Multi []Tracer

func (m Multi) InstructionBegin(t resource.ThreadID, pc uint32, op isa.Opcode) {
	for _, tr := range m {
		tr.InstructionBegin(t, pc, op)
	}
}

func (m Multi) InstructionEnd(t resource.ThreadID) {
	for _, tr := range m {
		tr.InstructionEnd(t)
	}
}

func (m Multi) RegWrite(t resource.ThreadID, reg isa.Reg, value uint32) {
	for _, tr := range m {
		tr.RegWrite(t, reg, value)
	}
}

func (m Multi) Exception(t resource.ThreadID, kind exec.ExceptionKind, et, ed, spc uint32) {
	for _, tr := range m {
		tr.Exception(t, kind, et, ed, spc)
	}
}

func (m Multi) Event(t resource.ThreadID, id resource.ID, pc, ev uint32) {
	for _, tr := range m {
		tr.Event(t, id, pc, ev)
	}
}

func (m Multi) Interrupt(t resource.ThreadID, id resource.ID, pc uint32) {
	for _, tr := range m {
		tr.Interrupt(t, id, pc)
	}
}

func (m Multi) Syscall(t resource.ThreadID, name string, arg uint32) {
	for _, tr := range m {
		tr.Syscall(t, name, arg)
	}
}

func (m Multi) SSwitchRead(nodeID, retDest uint32, regNum uint16) {
	for _, tr := range m {
		tr.SSwitchRead(nodeID, retDest, regNum)
	}
}

func (m Multi) SSwitchWrite(nodeID, retDest uint32, regNum uint16, value uint32) {
	for _, tr := range m {
		tr.SSwitchWrite(nodeID, retDest, regNum, value)
	}
}

func (m Multi) SSwitchAck(nodeID, dest uint32) {
	for _, tr := range m {
		tr.SSwitchAck(nodeID, dest)
	}
}

func (m Multi) SSwitchNack(nodeID, dest uint32) {
	for _, tr := range m {
		tr.SSwitchNack(nodeID, dest)
	}
}

func (m Multi) Timeout(time uint64) {
	for _, tr := range m {
		tr.Timeout(time)
	}
}

func (m Multi) NoRunnableThreads(time uint64) {
	for _, tr := range m {
		tr.NoRunnableThreads(time)
	}
}
