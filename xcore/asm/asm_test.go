package asm

import (
	"encoding/binary"
	"testing"

	"github.com/zotley-sim/xtilesim/xcore/isa"
)

func decodeAt(t *testing.T, image []byte, off uint32) isa.Decoded {
	t.Helper()
	low := binary.LittleEndian.Uint16(image[off:])
	var high uint16
	if int(off)+4 <= len(image) {
		high = binary.LittleEndian.Uint16(image[off+2:])
	}
	return isa.Decode(low, high, int(off)+4 <= len(image), isa.XS1B)
}

func TestAssembleStraightLine(t *testing.T) {
	p := New(0x10000)
	p.Label("main").
		I(isa.LDC_ru6, 0, 7).
		I(isa.ADD_3r, 1, 0, 0)
	image, labels, err := p.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	if labels["main"] != 0x10000 {
		t.Fatalf("main = %#x", labels["main"])
	}
	d := decodeAt(t, image, 0)
	if d.Op != isa.LDC_ru6 || d.Operands.Ops[0] != 0 || d.Operands.Ops[1] != 7 {
		t.Fatalf("first instr = %v %v", d.Op, d.Operands.Ops)
	}
	d = decodeAt(t, image, 2)
	if d.Op != isa.ADD_3r {
		t.Fatalf("second instr = %v", d.Op)
	}
}

func TestBackwardBranchSelectsBackwardForm(t *testing.T) {
	p := New(0x10000)
	p.Label("loop").
		I(isa.ADD_3r, 0, 0, 0).
		Bu("loop")
	image, _, err := p.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	d := decodeAt(t, image, 2)
	if d.Op != isa.BRBU_lu6 {
		t.Fatalf("backward branch decoded as %v", d.Op)
	}
	// After the transform the target must be the loop head.
	isa.Transform(&d, 1, allPC{})
	if d.Operands.Ops[0] != 0 {
		t.Fatalf("branch target pc = %#x, want 0", d.Operands.Ops[0])
	}
}

type allPC struct{}

func (allPC) ValidPC(uint32) bool { return true }

func TestUndefinedLabelFails(t *testing.T) {
	p := New(0x10000)
	p.Bu("nowhere")
	if _, _, err := p.Assemble(); err == nil {
		t.Fatal("expected undefined-label error")
	}
}

func TestWordAlignmentKeepsLabelOnData(t *testing.T) {
	p := New(0x10000)
	p.I(isa.ADD_3r, 0, 0, 0) // 2 bytes, leaves the cursor misaligned for a word
	p.Label("pool").Word(0xdeadbeef)
	image, labels, err := p.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	addr := labels["pool"]
	if addr%4 != 0 {
		t.Fatalf("pool label %#x not word aligned", addr)
	}
	if got := binary.LittleEndian.Uint32(image[addr-0x10000:]); got != 0xdeadbeef {
		t.Fatalf("pool word = %#x", got)
	}
}
