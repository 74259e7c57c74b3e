// Package syscall implements the host side of the syscall dispatch interface of
// spec.md §6: when a thread reaches the designated syscall breakpoint, the handler
// reads the call number and arguments from the register file, performs the host
// operation, writes the result back, and returns a verdict to the interpreter.
//
// Calling convention: r0 carries the call number, r1..r3 the arguments, and r0 the
// result; the thread returns through LR.
package syscall

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zotley-sim/xtilesim/xcore/isa"
	"github.com/zotley-sim/xtilesim/xcore/system"
)

// Syscall numbers.
const (
	SysExit      uint32 = 0
	SysPrintChar uint32 = 1
	SysWrite     uint32 = 2 // r1 fd, r2 buffer, r3 length -> r0 bytes written
	SysRead      uint32 = 3 // r1 fd, r2 buffer, r3 length -> r0 bytes read
	SysOpen      uint32 = 4 // r1 path (NUL-terminated), r2 flags -> r0 fd or ^0
	SysClose     uint32 = 5 // r1 fd -> r0 0 or ^0
	SysArgc      uint32 = 6 // -> r0 argument count
	SysArgv      uint32 = 7 // r1 index, r2 buffer -> r0 length or ^0
)

// Open flag bits.
const (
	OpenWrite  uint32 = 1 << 0
	OpenRDWR   uint32 = 1 << 1
	OpenCreate uint32 = 1 << 8
	OpenTrunc  uint32 = 1 << 9
	OpenAppend uint32 = 1 << 10
)

const errResult = ^uint32(0)

// Handler performs host file and console I/O on behalf of simulated programs.
type Handler struct {
	Stdout io.Writer
	Stderr io.Writer
	// Args are the simulated program's command-line arguments (argv[0] first).
	Args []string
	// Dir, when set, roots relative paths opened by the program.
	Dir string

	files  map[uint32]*os.File
	nextFD uint32
}

// NewHandler returns a handler writing console output to stdout/stderr.
func NewHandler() *Handler {
	return &Handler{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		files:  make(map[uint32]*os.File),
		nextFD: 3,
	}
}

func (h *Handler) arg(th *system.Thread, i int) uint32 {
	return th.Regs[isa.Reg(int(isa.R0)+i)]
}

// readBlock copies length bytes of simulated RAM starting at addr.
func readBlock(th *system.Thread, addr, length uint32) ([]byte, bool) {
	c := th.Core()
	if length == 0 {
		return nil, true
	}
	if !c.ValidAddress(addr) || !c.ValidAddress(addr+length-1) {
		return nil, false
	}
	buf := make([]byte, length)
	for i := uint32(0); i < length; i++ {
		buf[i] = c.LoadByte(addr + i)
	}
	return buf, true
}

func writeBlock(th *system.Thread, addr uint32, data []byte) bool {
	c := th.Core()
	if len(data) == 0 {
		return true
	}
	if !c.ValidAddress(addr) || !c.ValidAddress(addr+uint32(len(data))-1) {
		return false
	}
	for i, b := range data {
		c.StoreByte(b, addr+uint32(i))
	}
	return true
}

func readCString(th *system.Thread, addr uint32) (string, bool) {
	c := th.Core()
	var out []byte
	for c.ValidAddress(addr) {
		b := c.LoadByte(addr)
		if b == 0 {
			return string(out), true
		}
		out = append(out, b)
		addr++
	}
	return "", false
}

// Syscall implements system.SyscallHandler.
func (h *Handler) Syscall(s *system.SystemState, th *system.Thread) system.SyscallOutcome {
	num := h.arg(th, 0)
	s.Tracer().Syscall(th.GlobalID(), sysName(num), h.arg(th, 1))
	switch num {
	case SysExit:
		return system.SyscallOutcome{Kind: system.SyscallExit, ExitCode: int(int32(h.arg(th, 1)))}
	case SysPrintChar:
		fmt.Fprintf(h.Stdout, "%c", rune(h.arg(th, 1)))
		th.Regs[isa.R0] = 0
	case SysWrite:
		h.sysWrite(th)
	case SysRead:
		h.sysRead(th)
	case SysOpen:
		h.sysOpen(th)
	case SysClose:
		h.sysClose(th)
	case SysArgc:
		th.Regs[isa.R0] = uint32(len(h.Args))
	case SysArgv:
		h.sysArgv(th)
	default:
		th.Regs[isa.R0] = errResult
	}
	return system.SyscallOutcome{Kind: system.SyscallContinue}
}

// Exception implements system.SyscallHandler: a thread that reaches the exception
// interception address reports failure to the host.
func (h *Handler) Exception(s *system.SystemState, th *system.Thread) system.SyscallOutcome {
	fmt.Fprintf(h.Stderr, "unhandled exception: et=%#x ed=%#x\n",
		th.Regs[isa.ET], th.Regs[isa.ED])
	return system.SyscallOutcome{Kind: system.SyscallExit, ExitCode: 1}
}

func (h *Handler) sysWrite(th *system.Thread) {
	fd, addr, length := h.arg(th, 1), h.arg(th, 2), h.arg(th, 3)
	data, ok := readBlock(th, addr, length)
	if !ok {
		th.Regs[isa.R0] = errResult
		return
	}
	switch fd {
	case 1:
		h.Stdout.Write(data)
		th.Regs[isa.R0] = length
	case 2:
		h.Stderr.Write(data)
		th.Regs[isa.R0] = length
	default:
		f := h.files[fd]
		if f == nil {
			th.Regs[isa.R0] = errResult
			return
		}
		n, err := f.Write(data)
		if err != nil {
			th.Regs[isa.R0] = errResult
			return
		}
		th.Regs[isa.R0] = uint32(n)
	}
}

func (h *Handler) sysRead(th *system.Thread) {
	fd, addr, length := h.arg(th, 1), h.arg(th, 2), h.arg(th, 3)
	f := h.files[fd]
	if f == nil {
		th.Regs[isa.R0] = errResult
		return
	}
	buf := make([]byte, length)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		th.Regs[isa.R0] = errResult
		return
	}
	if !writeBlock(th, addr, buf[:n]) {
		th.Regs[isa.R0] = errResult
		return
	}
	th.Regs[isa.R0] = uint32(n)
}

func (h *Handler) sysOpen(th *system.Thread) {
	path, ok := readCString(th, h.arg(th, 1))
	if !ok {
		th.Regs[isa.R0] = errResult
		return
	}
	if h.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(h.Dir, path)
	}
	flags := h.arg(th, 2)
	mode := os.O_RDONLY
	if flags&OpenRDWR != 0 {
		mode = os.O_RDWR
	} else if flags&OpenWrite != 0 {
		mode = os.O_WRONLY
	}
	if flags&OpenCreate != 0 {
		mode |= os.O_CREATE
	}
	if flags&OpenTrunc != 0 {
		mode |= os.O_TRUNC
	}
	if flags&OpenAppend != 0 {
		mode |= os.O_APPEND
	}
	f, err := os.OpenFile(path, mode, 0o644)
	if err != nil {
		th.Regs[isa.R0] = errResult
		return
	}
	fd := h.nextFD
	h.nextFD++
	h.files[fd] = f
	th.Regs[isa.R0] = fd
}

func (h *Handler) sysClose(th *system.Thread) {
	fd := h.arg(th, 1)
	f := h.files[fd]
	if f == nil {
		th.Regs[isa.R0] = errResult
		return
	}
	delete(h.files, fd)
	if err := f.Close(); err != nil {
		th.Regs[isa.R0] = errResult
		return
	}
	th.Regs[isa.R0] = 0
}

func (h *Handler) sysArgv(th *system.Thread) {
	idx, addr := h.arg(th, 1), h.arg(th, 2)
	if idx >= uint32(len(h.Args)) {
		th.Regs[isa.R0] = errResult
		return
	}
	data := append([]byte(h.Args[idx]), 0)
	if !writeBlock(th, addr, data) {
		th.Regs[isa.R0] = errResult
		return
	}
	th.Regs[isa.R0] = uint32(len(data) - 1)
}

func sysName(num uint32) string {
	switch num {
	case SysExit:
		return "exit"
	case SysPrintChar:
		return "printchar"
	case SysWrite:
		return "write"
	case SysRead:
		return "read"
	case SysOpen:
		return "open"
	case SysClose:
		return "close"
	case SysArgc:
		return "argc"
	case SysArgv:
		return "argv"
	}
	return "unknown"
}
