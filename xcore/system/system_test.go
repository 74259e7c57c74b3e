package system_test

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/zotley-sim/xtilesim/xcore/asm"
	"github.com/zotley-sim/xtilesim/xcore/isa"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/system"
	"github.com/zotley-sim/xtilesim/xcore/syscall"
	"github.com/zotley-sim/xtilesim/xcore/xsync"
)

const testTimeout = 500_000_000

// runProgram assembles p, loads it into a single-core system, wires the syscall
// handler at the "_DoSyscall" label, and runs from the "main" label.
func runProgram(t *testing.T, p *asm.Program, handler *syscall.Handler) system.RunResult {
	t.Helper()
	sys, core, err := system.SingleCore(isa.XS1B)
	if err != nil {
		t.Fatal(err)
	}
	image, labels, err := p.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	if err := core.WriteBlock(p.Base(), image); err != nil {
		t.Fatal(err)
	}
	if addr, ok := labels["_DoSyscall"]; ok {
		core.Breakpoints().Set(system.BreakSyscall, addr)
	}
	sys.SetSyscallHandler(handler)
	sys.Timeout = testTimeout

	boot := core.Thread(0)
	boot.Regs[isa.SP] = core.RAMBase() + core.RAMSize() - 4
	entry, ok := labels["main"]
	if !ok {
		t.Fatal("program has no main label")
	}
	if !sys.Start(boot, entry) {
		t.Fatalf("entry %#x outside RAM", entry)
	}
	return sys.Run()
}

// exitStub appends the shared exit path: code in r1, syscall number in r0.
// "exit0"/"exit1" are jump targets for success and failure.
func exitStub(p *asm.Program) {
	p.Label("exit0").
		I(isa.LDC_ru6, 1, 0).
		Bu("doexit")
	p.Label("exit1").
		I(isa.LDC_ru6, 1, 1)
	p.Label("doexit").
		I(isa.LDC_ru6, 0, syscall.SysExit).
		Bl("_DoSyscall")
	// The exit syscall never returns; anything after is unreachable.
	p.Label("_DoSyscall").Word(0)
}

func TestArithmeticSelfCheck(t *testing.T) {
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		Ldap("pool").
		I(isa.ADD_2rus, 10, 11, 0). // r10 = pool
		I(isa.LDW_2rus, 0, 10, 0).  // crc checksum
		I(isa.LDW_2rus, 1, 10, 1).  // crc data
		I(isa.LDW_2rus, 2, 10, 2).  // crc poly
		I(isa.LDW_2rus, 3, 10, 3).  // expected result
		I(isa.CRC_l3r, 0, 1, 2).
		I(isa.EQ_3r, 4, 0, 3).
		Bf(4, "exit1")

	// shr/shl/ashr by a register count of 32
	p.I(isa.MKMSK_rus, 5, 32). // r5 = 0xffffffff
		I(isa.LDC_ru6, 6, 32).
		I(isa.SHR_3r, 7, 5, 6). // 0xffffffff >> 32 == 0
		Bt(7, "exit1").
		I(isa.SHL_3r, 7, 5, 6). // 0xffffffff << 32 == 0
		Bt(7, "exit1").
		I(isa.LDC_ru6, 9, 31).
		I(isa.SHL_3r, 8, 5, 9).   // r8 = 0x80000000
		I(isa.ASHR_l3r, 7, 8, 6). // ashr 32 == sign fill
		I(isa.EQ_3r, 4, 7, 5).
		Bf(4, "exit1")

	// maccs((3,5), 1, -1) == (3, 4)
	p.I(isa.LDC_ru6, 0, 3).
		I(isa.LDC_ru6, 3, 5).
		I(isa.LDC_ru6, 1, 1).
		I(isa.LDC_ru6, 2, 0).
		I(isa.NOT_2r, 2, 2). // r2 = -1... bitwise not of 0 is 0xffffffff
		I(isa.MACCS_l4r, 0, 1, 2, 3).
		I(isa.EQ_2rus, 4, 0, 3).
		Bf(4, "exit1").
		I(isa.EQ_2rus, 4, 3, 4).
		Bf(4, "exit1")

	// maccu((3, 0xffffffff), 0x40, 0x40000001) == (0x14, 0x3f)
	p.I(isa.LDC_ru6, 0, 3).
		I(isa.MKMSK_rus, 3, 32).
		I(isa.LDC_lru6, 1, 0x40).
		Ldap("pool").
		I(isa.LDW_2rus, 2, 11, 4). // 0x40000001
		I(isa.MACCU_l4r, 0, 1, 2, 3).
		I(isa.LDC_lru6, 6, 0x14).
		I(isa.EQ_3r, 4, 0, 6).
		Bf(4, "exit1").
		I(isa.LDC_lru6, 6, 0x3f).
		I(isa.EQ_3r, 4, 3, 6).
		Bf(4, "exit1").
		Bu("exit0")

	exitStub(p)
	// CRC operands and expected result are the vector from the original
	// arithmetic self-check (checksum 55568178, data 7880939, poly 9335255
	// -> 10352975), verified against isa.CRC32.
	p.Label("pool").
		Word(0x034fe732).
		Word(0x007840eb).
		Word(0x008e71d7).
		Word(0x009df94f).
		Word(0x40000001)

	res := runProgram(t, p, syscall.NewHandler())
	if res.Status != system.Exited || res.Code != 0 {
		t.Fatalf("result = %+v, want clean exit 0", res)
	}
}

func TestPCRelativeAddressStability(t *testing.T) {
	// ldap of the same label must yield the same byte address regardless of the
	// surrounding instruction layout.
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		Ldap("main").
		I(isa.ADD_2rus, 0, 11, 0). // r0 = first ldap
		I(isa.ADD_2rus, 9, 9, 0).  // spacing
		Ldap("main").
		I(isa.ADD_2rus, 1, 11, 0). // r1 = second ldap
		I(isa.EQ_3r, 2, 0, 1).
		Bf(2, "exit1")
	// Both must equal the program base itself.
	p.I(isa.LDC_lru6, 3, system.DefaultRAMBase>>8).
		I(isa.LDC_ru6, 4, 8).
		I(isa.SHL_3r, 3, 3, 4).
		I(isa.EQ_3r, 2, 0, 3).
		Bf(2, "exit1").
		Bu("exit0")
	exitStub(p)

	res := runProgram(t, p, syscall.NewHandler())
	if res.Status != system.Exited || res.Code != 0 {
		t.Fatalf("result = %+v, want clean exit 0", res)
	}
}

func TestHelloWorldSyscall(t *testing.T) {
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		I(isa.LDC_ru6, 0, syscall.SysWrite).
		I(isa.LDC_ru6, 1, 1). // stdout
		Ldap("msg").
		I(isa.ADD_2rus, 2, 11, 0).
		I(isa.LDC_ru6, 3, 12).
		Bl("_DoSyscall").
		Bu("exit0")
	exitStub(p)
	p.Label("msg").
		Word(0x6c6c6548). // "Hell"
		Word(0x6f77206f). // "o wo"
		Word(0x0a646c72)  // "rld\n"

	var out bytes.Buffer
	h := syscall.NewHandler()
	h.Stdout = &out
	res := runProgram(t, p, h)
	if res.Status != system.Exited || res.Code != 0 {
		t.Fatalf("result = %+v, want clean exit 0", res)
	}
	if got := out.String(); got != "Hello world\n" {
		t.Fatalf("stdout = %q, want %q", got, "Hello world\n")
	}
}

func TestCommandLineArguments(t *testing.T) {
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		I(isa.LDC_ru6, 0, syscall.SysArgc).
		Bl("_DoSyscall").
		I(isa.EQ_2rus, 2, 0, 3). // argc == 3
		Bf(2, "exit1").
		// argv[1] must be "hello": fetch it and check length and first byte.
		I(isa.LDC_ru6, 0, syscall.SysArgv).
		I(isa.LDC_ru6, 1, 1).
		Ldap("buf").
		I(isa.ADD_2rus, 2, 11, 0).
		I(isa.ADD_2rus, 10, 11, 0). // keep buffer address
		Bl("_DoSyscall").
		I(isa.EQ_2rus, 2, 0, 5). // strlen("hello")
		Bf(2, "exit1").
		I(isa.LDC_ru6, 5, 0).
		I(isa.LD8U_3r, 3, 10, 5).     // buf[0]
		I(isa.LDC_lru6, 4, 'h').
		I(isa.EQ_3r, 2, 3, 4).
		Bf(2, "exit1").
		Bu("exit0")
	exitStub(p)
	p.Label("buf").Word(0).Word(0)

	h := syscall.NewHandler()
	h.Args = []string{"prog", "hello", "world"}
	res := runProgram(t, p, h)
	if res.Status != system.Exited || res.Code != 0 {
		t.Fatalf("result = %+v, want clean exit 0", res)
	}

	// Wrong argument count exits 1.
	h2 := syscall.NewHandler()
	h2.Args = []string{"prog", "hello"}
	res = runProgram(t, p, h2)
	if res.Status != system.Exited || res.Code != 1 {
		t.Fatalf("short-args result = %+v, want exit 1", res)
	}
}

func TestFileSyscalls(t *testing.T) {
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		// fd = open("f.f", write|create|trunc)
		I(isa.LDC_ru6, 0, syscall.SysOpen).
		Ldap("path").
		I(isa.ADD_2rus, 1, 11, 0).
		I(isa.LDC_lru6, 2, syscall.OpenWrite|syscall.OpenCreate|syscall.OpenTrunc).
		Bl("_DoSyscall").
		I(isa.ADD_2rus, 10, 0, 0). // r10 = fd
		I(isa.NOT_2r, 2, 0).
		Bf(2, "exit1"). // fd == ^0 -> failure
		// write(fd, "foo\0", 4)
		I(isa.LDC_ru6, 0, syscall.SysWrite).
		I(isa.ADD_2rus, 1, 10, 0).
		Ldap("payload").
		I(isa.ADD_2rus, 2, 11, 0).
		I(isa.LDC_ru6, 3, 4).
		Bl("_DoSyscall").
		I(isa.EQ_2rus, 2, 0, 4).
		Bf(2, "exit1").
		// close(fd)
		I(isa.LDC_ru6, 0, syscall.SysClose).
		I(isa.ADD_2rus, 1, 10, 0).
		Bl("_DoSyscall").
		// fd = open("f.f", readonly)
		I(isa.LDC_ru6, 0, syscall.SysOpen).
		Ldap("path").
		I(isa.ADD_2rus, 1, 11, 0).
		I(isa.LDC_ru6, 2, 0).
		Bl("_DoSyscall").
		I(isa.ADD_2rus, 10, 0, 0).
		// read(fd, buf, 4)
		I(isa.LDC_ru6, 0, syscall.SysRead).
		I(isa.ADD_2rus, 1, 10, 0).
		Ldap("buf").
		I(isa.ADD_2rus, 2, 11, 0).
		I(isa.ADD_2rus, 9, 11, 0).
		I(isa.LDC_ru6, 3, 4).
		Bl("_DoSyscall").
		I(isa.EQ_2rus, 2, 0, 4).
		Bf(2, "exit1").
		// the bytes read back must equal the payload word
		I(isa.LDC_ru6, 5, 0).
		I(isa.LDW_3r, 3, 9, 5).
		Ldap("payload").
		I(isa.LDW_2rus, 4, 11, 0).
		I(isa.EQ_3r, 2, 3, 4).
		Bf(2, "exit1").
		Bu("exit0")
	exitStub(p)
	p.Label("path").
		Word(0x00662e66) // "f.f\0"
	p.Label("payload").
		Word(0x006f6f66) // "foo\0"
	p.Label("buf").Word(0)

	h := syscall.NewHandler()
	h.Dir = t.TempDir()
	res := runProgram(t, p, h)
	if res.Status != system.Exited || res.Code != 0 {
		t.Fatalf("result = %+v, want clean exit 0", res)
	}
}

// fibProgram builds the recursive Fibonacci printer: 64-bit values held in register
// pairs, one recursion level per printed number, decimal output digit by digit
// through a second recursion.
func fibProgram() *asm.Program {
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		I(isa.LDC_lru6, 0, 80). // depth
		I(isa.LDC_ru6, 1, 0).   // current hi
		I(isa.LDC_ru6, 2, 1).   // current lo
		I(isa.LDC_ru6, 3, 0).   // next hi
		I(isa.LDC_ru6, 4, 1).   // next lo
		Bl("fibrec").
		Bu("exit0")
	exitStub(p)

	// fibrec(r0 depth, r1:r2 current, r3:r4 next)
	p.Label("fibrec").
		I(isa.ENTSP_u6, 6).
		Bf(0, "fibdone").
		I(isa.STWSP_ru6, 0, 5).
		I(isa.STWSP_ru6, 1, 1).
		I(isa.STWSP_ru6, 2, 2).
		I(isa.STWSP_ru6, 3, 3).
		I(isa.STWSP_ru6, 4, 4).
		// print current (hi in r0, lo in r1)
		I(isa.ADD_2rus, 0, 1, 0).
		I(isa.ADD_2rus, 1, 2, 0).
		Bl("print64").
		I(isa.LDC_lru6, 1, '\n').
		I(isa.LDC_ru6, 0, syscall.SysPrintChar).
		Bl("_DoSyscall").
		// (two.lo, carry) = cur.lo + next.lo; two.hi = cur.hi + next.hi + carry
		I(isa.LDWSP_ru6, 1, 1). // cur hi
		I(isa.LDWSP_ru6, 2, 2). // cur lo
		I(isa.LDWSP_ru6, 3, 3). // next hi
		I(isa.LDWSP_ru6, 4, 4). // next lo (depth stays in slot 5; slot 0 takes each callee's saved LR)
		I(isa.LDC_ru6, 6, 0).
		I(isa.LADD_l5r, 7, 2, 4, 8, 6). // r7 = lo sum, r8 = carry
		I(isa.LADD_l5r, 9, 1, 3, 10, 8). // r9 = hi sum (carry in r8)
		// recurse with (depth-1, next, two)
		I(isa.LDWSP_ru6, 0, 5).
		I(isa.SUB_2rus, 0, 0, 1).
		I(isa.ADD_2rus, 1, 3, 0). // current = next
		I(isa.ADD_2rus, 2, 4, 0).
		I(isa.ADD_2rus, 3, 9, 0). // next = two
		I(isa.ADD_2rus, 4, 7, 0).
		Bl("fibrec")
	p.Label("fibdone").
		I(isa.RETSP_u6, 6)

	// print64(r0 hi, r1 lo): recursive decimal print.
	p.Label("print64").
		I(isa.ENTSP_u6, 4).
		I(isa.LDC_ru6, 2, 10).
		Bt(0, "printwide").
		I(isa.LSU_3r, 3, 1, 2). // lo < 10?
		Bf(3, "printwide").
		// single digit
		I(isa.ADD_2rus, 1, 1, 0).
		I(isa.LDC_lru6, 3, '0').
		I(isa.ADD_3r, 1, 1, 3).
		I(isa.LDC_ru6, 0, syscall.SysPrintChar).
		Bl("_DoSyscall").
		Bu("printdone")
	p.Label("printwide").
		// split (hi:lo) / 10: qhi = hi/10, r = hi%10, (r:lo)/10 via ldivu
		I(isa.DIVU_l3r, 3, 0, 2).   // qhi
		I(isa.REMU_l3r, 4, 0, 2).   // r
		I(isa.LDIVU_l5r, 5, 1, 2, 6, 4). // r5 = qlo, r6 = rem
		I(isa.STWSP_ru6, 6, 1).     // save remainder digit
		I(isa.ADD_2rus, 0, 3, 0).
		I(isa.ADD_2rus, 1, 5, 0).
		Bl("print64").
		I(isa.LDWSP_ru6, 1, 1).
		I(isa.LDC_lru6, 3, '0').
		I(isa.ADD_3r, 1, 1, 3).
		I(isa.LDC_ru6, 0, syscall.SysPrintChar).
		Bl("_DoSyscall")
	p.Label("printdone").
		I(isa.RETSP_u6, 4)
	return p
}

func TestFibonacciRecursion(t *testing.T) {
	var out bytes.Buffer
	h := syscall.NewHandler()
	h.Stdout = &out
	res := runProgram(t, fibProgram(), h)
	if res.Status != system.Exited || res.Code != 0 {
		t.Fatalf("result = %+v, want clean exit 0", res)
	}
	lines := strings.Fields(strings.TrimSpace(out.String()))
	if len(lines) != 80 {
		t.Fatalf("printed %d numbers, want 80", len(lines))
	}
	want := []uint64{1, 1, 2, 3, 5}
	var prev uint64
	for i, line := range lines {
		v, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			t.Fatalf("line %d: %q is not a number", i, line)
		}
		if i < len(want) && v != want[i] {
			t.Fatalf("fib[%d] = %d, want %d", i+1, v, want[i])
		}
		if v < prev {
			t.Fatalf("sequence not monotonic at %d: %d after %d", i, v, prev)
		}
		prev = v
	}
}

func TestChannelRoundTripBetweenThreads(t *testing.T) {
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		I(isa.GETR_rus, 8, uint32(resource.KindSynchroniser)).
		Bf(8, "exit1").
		I(isa.GETST_2r, 9, 8). // r9 = child thread
		Bf(9, "exit1").
		I(isa.GETR_rus, 6, uint32(resource.KindChanend)). // A (master side)
		I(isa.GETR_rus, 7, uint32(resource.KindChanend)). // B (child side)
		I(isa.SETD_2r, 7, 6).                             // A.dest = B
		I(isa.SETD_2r, 6, 7).                             // B.dest = A
		// child setup: pc, sp, r0 = B
		Ldap("child").
		I(isa.TINITPC_2r, 11, 9).
		I(isa.LDC_lru6, 5, 0xf000).
		I(isa.LDC_lru6, 4, system.DefaultRAMBase>>8).
		I(isa.LDC_ru6, 3, 8).
		I(isa.SHL_3r, 4, 4, 3).
		I(isa.ADD_3r, 5, 4, 5). // stack for the child
		I(isa.TINITSP_2r, 5, 9).
		I(isa.TSETR_3r, 0, 7, 9). // child r0 = B
		I(isa.MSYNC_1r, 8).
		// receive the word the child sends
		I(isa.IN_2r, 2, 6).
		I(isa.CHKCT_rus, 6, 1). // CT_END
		I(isa.MJOIN_1r, 8).
		I(isa.LDC_lru6, 3, 0x2a).
		I(isa.EQ_3r, 4, 2, 3).
		Bf(4, "exit1").
		Bu("exit0")
	p.Label("child").
		I(isa.LDC_lru6, 1, 0x2a).
		I(isa.OUT_2r, 1, 0).    // out word over the chanend in r0
		I(isa.OUTCT_rus, 0, 1). // CT_END closes the packet
		I(isa.FREET_0r)
	exitStub(p)

	res := runProgram(t, p, syscall.NewHandler())
	if res.Status != system.Exited || res.Code != 0 {
		t.Fatalf("result = %+v, want clean exit 0", res)
	}
}

func TestTimerAfterWaitAdvancesTime(t *testing.T) {
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		I(isa.GETR_rus, 8, uint32(resource.KindTimer)).
		Bf(8, "exit1").
		I(isa.IN_2r, 0, 8). // current reference time
		I(isa.SETC_ru6, 8, system.SetcCondAfter).
		I(isa.LDC_lru6, 1, 5000).
		I(isa.ADD_3r, 1, 0, 1).
		I(isa.SETD_2r, 1, 8).
		I(isa.IN_2r, 2, 8). // parks until the comparand elapses
		I(isa.LSU_3r, 3, 2, 1). // now >= comparand
		Bt(3, "exit1").
		Bu("exit0")
	exitStub(p)

	res := runProgram(t, p, syscall.NewHandler())
	if res.Status != system.Exited || res.Code != 0 {
		t.Fatalf("result = %+v, want clean exit 0", res)
	}
	if res.Time < 5000*system.CyclesPerTick {
		t.Fatalf("simulated time %d did not advance past the timer wait", res.Time)
	}
}

func TestTimerEventThroughWaiteu(t *testing.T) {
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		I(isa.GETR_rus, 8, uint32(resource.KindTimer)).
		Bf(8, "exit1").
		I(isa.IN_2r, 0, 8).
		I(isa.SETC_ru6, 8, system.SetcCondAfter).
		I(isa.LDC_lru6, 1, 1000).
		I(isa.ADD_3r, 1, 0, 1).
		Ldap("handler").
		I(isa.SETV_1r, 8).
		I(isa.SETD_2r, 1, 8).
		I(isa.EEU_1r, 8).
		I(isa.WAITEU_0r).
		// never reached: the event vector takes over
		Bu("exit1")
	p.Label("handler").
		Bu("exit0")
	exitStub(p)

	res := runProgram(t, p, syscall.NewHandler())
	if res.Status != system.Exited || res.Code != 0 {
		t.Fatalf("result = %+v, want exit through the event vector", res)
	}
}

func TestLockContentionAcrossThreads(t *testing.T) {
	// The master takes the lock, starts a child that blocks acquiring it, then
	// releases; the child increments a counter word and frees itself.
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		I(isa.GETR_rus, 8, uint32(resource.KindSynchroniser)).
		I(isa.GETST_2r, 9, 8).
		I(isa.GETR_rus, 7, uint32(resource.KindLock)).
		Bf(7, "exit1").
		I(isa.IN_2r, 0, 7). // acquire
		Ldap("child").
		I(isa.TINITPC_2r, 11, 9).
		I(isa.LDC_lru6, 5, 0xf000).
		I(isa.LDC_lru6, 4, system.DefaultRAMBase>>8).
		I(isa.LDC_ru6, 3, 8).
		I(isa.SHL_3r, 4, 4, 3).
		I(isa.ADD_3r, 5, 4, 5).
		I(isa.TINITSP_2r, 5, 9).
		I(isa.TSETR_3r, 0, 7, 9). // child r0 = lock
		Ldap("counter").
		I(isa.TSETR_3r, 1, 11, 9). // child r1 = counter address
		I(isa.MSYNC_1r, 8).
		I(isa.OUT_2r, 0, 7). // release: the parked child becomes owner
		I(isa.MJOIN_1r, 8).
		Ldap("counter").
		I(isa.LDC_ru6, 5, 0).
		I(isa.LDW_3r, 2, 11, 5).
		I(isa.EQ_2rus, 3, 2, 1).
		Bf(3, "exit1").
		Bu("exit0")
	p.Label("child").
		I(isa.IN_2r, 2, 0).      // blocks until the master releases
		I(isa.LDC_ru6, 4, 0).
		I(isa.LDW_3r, 3, 1, 4).
		I(isa.ADD_2rus, 3, 3, 1).
		I(isa.STW_l3r, 3, 1, 4).
		I(isa.OUT_2r, 0, 0). // release
		I(isa.FREET_0r)
	exitStub(p)
	p.Label("counter").Word(0)

	res := runProgram(t, p, syscall.NewHandler())
	if res.Status != system.Exited || res.Code != 0 {
		t.Fatalf("result = %+v, want clean exit 0", res)
	}
}

func TestLoadStoreFaultRaisesTrap(t *testing.T) {
	// With no kernel entry installed the faulting thread parks and the run ends
	// with no runnable threads rather than a host error.
	p := asm.New(system.DefaultRAMBase)
	p.Label("main").
		I(isa.LDC_ru6, 0, 1). // misaligned address
		I(isa.LDC_ru6, 5, 0).
		I(isa.LDW_3r, 1, 0, 5).
		Bu("exit0")
	exitStub(p)

	res := runProgram(t, p, syscall.NewHandler())
	if res.Status != system.NoRunnableThreads {
		t.Fatalf("result = %+v, want NoRunnableThreads from an unhandled trap", res)
	}
}

func TestFreshThreadTimeAndTimerWakeTick(t *testing.T) {
	sys, core, err := system.SingleCore(isa.XS1B)
	if err != nil {
		t.Fatal(err)
	}
	_ = sys
	th := core.Thread(0)
	if th.Time != 0 {
		t.Fatalf("fresh thread time = %d", th.Time)
	}
	// WakeTick arithmetic mirrors the timer wait used by the scheduler.
	tm := xsync.NewTimer(resource.MakeID(resource.KindTimer, 0))
	tm.SetCond(xsync.CondAfter)
	tm.SetD(100)
	if tick, ok := tm.WakeTick(40); !ok || tick != 100 {
		t.Fatalf("WakeTick = (%d,%v)", tick, ok)
	}
}
