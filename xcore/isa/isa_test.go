package isa

import "testing"

// sampleOperands returns a handful of legal operand settings for op, exercising the
// field boundaries of its encoding.
func sampleOperands(op Opcode) []Operands {
	info := GetInfo(op)
	bitpIdx, isBitp := bitpOperand[op]
	immMax := map[encKind]uint32{
		encRU6: 0x3f, encSETC: 0x3f, encU6: 0x3f, encU10: 0x3ff,
	}
	longImmMax := uint32(0)
	spec := encTable[op]
	switch spec.kind {
	case encLongImm:
		if isU10(spec.short) {
			longImmMax = 0xfffff
		} else {
			longImmMax = 0xffff
		}
	}

	fieldMax := func(i int) uint32 {
		if isBitp && i == bitpIdx {
			return 0 // handled separately below
		}
		if info.Kinds[i] == OpImm {
			if longImmMax != 0 {
				return longImmMax
			}
			if m, ok := immMax[spec.kind]; ok {
				return m
			}
			return 11
		}
		return 11
	}

	var out []Operands
	for _, pick := range []func(i int) uint32{
		func(int) uint32 { return 0 },
		func(i int) uint32 { return fieldMax(i) },
		func(i int) uint32 { return fieldMax(i) / 2 },
		func(i int) uint32 { return uint32(i+1) % (fieldMax(i) + 1) },
	} {
		var ops Operands
		for i := 0; i < info.NumExplicit; i++ {
			ops.Ops[i] = pick(i)
		}
		if isBitp {
			for _, v := range []uint32{1, 8, 24, 32} {
				withBitp := ops
				withBitp.Ops[bitpIdx] = v
				out = append(out, withBitp)
			}
		} else {
			out = append(out, ops)
		}
	}
	return out
}

func TestDecodeRoundTrip(t *testing.T) {
	for op := Opcode(0); op < NumOpcodes; op++ {
		if !Encodable(op) {
			continue
		}
		for _, ops := range sampleOperands(op) {
			low, high, size, ok := Encode(op, ops)
			if !ok {
				t.Fatalf("%s: encode failed for %v", op, ops.Ops)
			}
			d := Decode(low, high, true, XS1B)
			if d.Op != op {
				t.Fatalf("%s: decoded as %s (low %#04x high %#04x)", op, d.Op, low, high)
			}
			if d.Size != size {
				t.Errorf("%s: size %d, want %d", op, d.Size, size)
			}
			if d.Operands != ops {
				t.Errorf("%s: operands %v, want %v", op, d.Operands.Ops, ops.Ops)
			}
		}
	}
}

func TestEncodableCoverage(t *testing.T) {
	// Every non-pseudo opcode either has an encoding or is a transform product.
	transformOnly := map[Opcode]bool{
		ADD_mov_2rus: true, SHL_32_2rus: true, SHR_32_2rus: true, ASHR_32_l2rus: true,
		BRFT_illegal_ru6: true, BRFT_illegal_lru6: true,
		BRBT_illegal_ru6: true, BRBT_illegal_lru6: true,
		BRFF_illegal_ru6: true, BRFF_illegal_lru6: true,
		BRBF_illegal_ru6: true, BRBF_illegal_lru6: true,
		BRFU_illegal_u6: true, BRFU_illegal_lu6: true,
		BRBU_illegal_u6: true, BRBU_illegal_lu6: true,
		BLRF_illegal_u10: true, BLRF_illegal_lu10: true,
		BLRB_illegal_u10: true, BLRB_illegal_lu10: true,
	}
	for op := Opcode(0); op < NumOpcodes; op++ {
		info := GetInfo(op)
		if info.Size == 0 || transformOnly[op] {
			if Encodable(op) {
				t.Errorf("%s: unexpectedly encodable", op)
			}
			continue
		}
		if !Encodable(op) {
			t.Errorf("%s: missing encoding", op)
		}
	}
}

type allValidPC struct{}

func (allValidPC) ValidPC(uint32) bool { return true }

type noValidPC struct{}

func (noValidPC) ValidPC(uint32) bool { return false }

func TestTransformAppliedOnce(t *testing.T) {
	d := Decoded{Op: LDWSP_ru6, Size: 2}
	d.Operands.Ops[0] = 3
	d.Operands.Ops[1] = 5
	Transform(&d, 0x10, allValidPC{})
	if got := d.Operands.Ops[1]; got != 5<<2 {
		t.Fatalf("ldwsp imm after transform = %d, want %d", got, 5<<2)
	}
	again := d
	Transform(&again, 0x10, allValidPC{})
	if again != d {
		t.Fatalf("second transform changed the record: %+v vs %+v", again, d)
	}
}

func TestTransformBranchTargets(t *testing.T) {
	tests := []struct {
		op     Opcode
		imm    uint32
		pc     uint32
		want   uint32
		wantOp Opcode
	}{
		{BRFU_u6, 4, 0x20, 0x20 + 1 + 4, BRFU_u6},
		{BRBU_u6, 4, 0x20, 0x20 + 1 - 4, BRBU_u6},
		{BRFU_lu6, 4, 0x20, 0x20 + 2 + 4, BRFU_lu6},
		{BLRF_u10, 8, 0x40, 0x40 + 1 + 8, BLRF_u10},
		{BLRB_lu10, 8, 0x40, 0x40 + 2 - 8, BLRB_lu10},
	}
	for _, tt := range tests {
		size := GetInfo(tt.op).Size
		d := Decoded{Op: tt.op, Size: size}
		d.Operands.Ops[0] = tt.imm
		Transform(&d, tt.pc, allValidPC{})
		if d.Op != tt.wantOp || d.Operands.Ops[0] != tt.want {
			t.Errorf("%s: got (%s, %#x), want (%s, %#x)",
				tt.op, d.Op, d.Operands.Ops[0], tt.wantOp, tt.want)
		}
	}
}

func TestTransformIllegalBranchRewrite(t *testing.T) {
	pairs := []struct{ op, illegal Opcode }{
		{BRFU_u6, BRFU_illegal_u6},
		{BRBT_ru6, BRBT_illegal_ru6},
		{BRFF_lru6, BRFF_illegal_lru6},
		{BLRF_u10, BLRF_illegal_u10},
		{BLRB_lu10, BLRB_illegal_lu10},
	}
	for _, p := range pairs {
		info := GetInfo(p.op)
		d := Decoded{Op: p.op, Size: info.Size}
		idx := 0
		if info.NumExplicit == 2 {
			idx = 1
		}
		d.Operands.Ops[idx] = 1
		Transform(&d, 0x100, noValidPC{})
		if d.Op != p.illegal {
			t.Errorf("%s with unreachable target: got %s, want %s", p.op, d.Op, p.illegal)
		}
	}
}

func TestTransformShiftBy32(t *testing.T) {
	for _, tt := range []struct{ op, want Opcode }{
		{SHL_2rus, SHL_32_2rus},
		{SHR_2rus, SHR_32_2rus},
		{ASHR_l2rus, ASHR_32_l2rus},
	} {
		d := Decoded{Op: tt.op, Size: GetInfo(tt.op).Size}
		d.Operands.Ops[2] = 32
		Transform(&d, 0, allValidPC{})
		if d.Op != tt.want {
			t.Errorf("%s by 32: got %s, want %s", tt.op, d.Op, tt.want)
		}
	}
}

func TestTransformAddImmZeroIsMove(t *testing.T) {
	d := Decoded{Op: ADD_2rus, Size: 2}
	d.Operands.Ops[0], d.Operands.Ops[1], d.Operands.Ops[2] = 1, 2, 0
	Transform(&d, 0, allValidPC{})
	if d.Op != ADD_mov_2rus {
		t.Fatalf("add r,r,0: got %s, want %s", d.Op, ADD_mov_2rus)
	}
}

func TestTransformMkmskPrecomputes(t *testing.T) {
	d := Decoded{Op: MKMSK_rus, Size: 2}
	d.Operands.Ops[1] = 8
	Transform(&d, 0, allValidPC{})
	if d.Operands.Ops[1] != 0xff {
		t.Fatalf("mkmsk 8: imm = %#x, want 0xff", d.Operands.Ops[1])
	}
}

func TestPfixEncodesTopFiveBits(t *testing.T) {
	var ops Operands
	ops.Ops[0] = 3
	ops.Ops[1] = 0x1234 // needs the prefix
	low, high, size, ok := Encode(LDC_lru6, ops)
	if !ok || size != 4 {
		t.Fatalf("ldc lru6 encode: ok=%v size=%d", ok, size)
	}
	if low>>11 != majorPfix {
		t.Fatalf("prefix half-word top bits = %#x, want %#x", low>>11, majorPfix)
	}
	d := Decode(low, high, true, XS1B)
	if d.Op != LDC_lru6 || d.Operands.Ops[1] != 0x1234 {
		t.Fatalf("prefixed decode: %s imm %#x", d.Op, d.Operands.Ops[1])
	}
}

func TestTruncatedLongDecodesIllegal(t *testing.T) {
	low, high, _, ok := Encode(MUL_l3r, Operands{Ops: [6]uint32{1, 2, 3}})
	if !ok {
		t.Fatal("mul encode failed")
	}
	if d := Decode(low, high, false, XS1B); d.Op != ILLEGAL_INSTRUCTION {
		t.Fatalf("truncated long decoded as %s", d.Op)
	}
}

func TestXS2DropsDebugEntries(t *testing.T) {
	low, high, _, ok := Encode(TSETMR_2r, Operands{Ops: [6]uint32{1, 2}})
	if !ok {
		t.Fatal("tsetmr encode failed")
	}
	if d := Decode(low, high, true, XS1B); d.Op != TSETMR_2r {
		t.Fatalf("xs1b: decoded as %s", d.Op)
	}
	if d := Decode(low, high, true, XS2A); d.Op != ILLEGAL_INSTRUCTION {
		t.Fatalf("xs2a: decoded as %s, want illegal", d.Op)
	}
}
