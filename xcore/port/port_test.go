package port

import (
	"testing"

	"github.com/zotley-sim/xtilesim/xcore/exec"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/token"
)

func TestPortBufferedOutputLoadsImmediatelyWhenEmpty(t *testing.T) {
	p := NewPort(resource.MakeID(resource.KindPort, 0), 8)
	p.Buffered = true
	p.TransferWidth = 8
	p.Mode = ModeOutput

	out := p.Out(0, 0xab, 0)
	if out.Kind != exec.Continue {
		t.Fatalf("Out = %v", out)
	}
	if p.outputValue != 0xab {
		t.Fatalf("outputValue = %#x, want 0xab (loaded immediately, shift reg was empty)", p.outputValue)
	}
}

func TestPortBufferedOutputParksWhenTransferRegFull(t *testing.T) {
	p := NewPort(resource.MakeID(resource.KindPort, 0), 8)
	p.Buffered = true
	p.TransferWidth = 16 // two 8-bit slots, so the first OUT leaves the shift reg busy
	p.Mode = ModeOutput

	if out := p.Out(0, 0x1122, 0); out.Kind != exec.Continue {
		t.Fatalf("first Out = %v", out)
	}
	if out := p.Out(1, 0x3344, 0); out.Kind != exec.Continue {
		t.Fatalf("second Out (transfer reg free) = %v", out)
	}
	if out := p.Out(2, 0x5566, 0); out.Kind != exec.Deschedule {
		t.Fatalf("third Out (transfer reg occupied) = %v, want Deschedule", out)
	}
}

func TestPortOutputRotatesOnFallingEdge(t *testing.T) {
	p := NewPort(resource.MakeID(resource.KindPort, 0), 8)
	p.Buffered = true
	p.TransferWidth = 16
	p.Mode = ModeOutput
	p.Out(0, 0x1122, 0)

	if p.outputValue != 0x1122&p.mask() {
		t.Fatalf("initial outputValue = %#x", p.outputValue)
	}
	p.OnEdge(token.Falling, 1)
	if p.shiftRegEntries != 1 {
		t.Fatalf("shiftRegEntries after one falling edge = %d, want 1", p.shiftRegEntries)
	}
}

func TestPortBufferedInputLatchesUnconditionally(t *testing.T) {
	p := NewPort(resource.MakeID(resource.KindPort, 0), 8)
	p.Buffered = true
	p.TransferWidth = 8
	p.Mode = ModeInput
	p.SetPinSignal(token.Constant(0x42))

	_, out := p.In(0)
	if out.Kind != exec.Deschedule {
		t.Fatalf("In before any sample = %v, want Deschedule", out)
	}

	p.OnEdge(token.Rising, 1)

	v, out := p.In(0)
	if out.Kind != exec.Continue {
		t.Fatalf("In after sample = %v", out)
	}
	if v != 0x42 {
		t.Fatalf("In value = %#x, want 0x42", v)
	}
}

func TestPortConditionEQFiltersSamples(t *testing.T) {
	p := NewPort(resource.MakeID(resource.KindPort, 0), 8)
	p.Buffered = true
	p.TransferWidth = 8
	p.Mode = ModeInput
	p.SetC(CondEQ, 0x7)
	p.SetPinSignal(token.Constant(0x5))

	p.OnEdge(token.Rising, 1)
	if p.transferValid {
		t.Fatalf("sample matched despite pin(0x5) != comparand(0x7)")
	}

	p.SetPinSignal(token.Constant(0x7))
	p.OnEdge(token.Rising, 2)
	if !p.transferValid {
		t.Fatalf("sample should have latched once pin == comparand")
	}
}

func TestClockBlockSourceDrivenForcesDivideOne(t *testing.T) {
	cb := NewClockBlock(resource.MakeID(resource.KindClkblk, 0))
	src := NewPort(resource.MakeID(resource.KindPort, 1), 1)
	src.SetPinSignal(token.Periodic(0, 3))

	cb.SetDivide(0, 10)
	cb.SetSource(0, src)
	if cb.Divide() != 1 {
		t.Fatalf("divide = %d, want 1 when source-driven", cb.Divide())
	}
}

func TestClockBlockStoppedYieldsNoEdges(t *testing.T) {
	cb := NewClockBlock(resource.MakeID(resource.KindClkblk, 0))
	if _, ok := cb.NextEventTime(0); ok {
		t.Fatalf("stopped, non-source-driven clock reported a next edge")
	}
}

func TestClockBlockRunningDividedHasEdges(t *testing.T) {
	cb := NewClockBlock(resource.MakeID(resource.KindClkblk, 0))
	cb.Start(0)
	cb.SetDivide(0, 4)
	if _, ok := cb.NextEventTime(0); !ok {
		t.Fatalf("running divided clock reported no next edge")
	}
}
