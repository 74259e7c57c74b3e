package isa

// The encoder is the exact inverse of Decode over every encodable opcode; it exists
// for the in-process assembler and for the decode round-trip tests. Transform-only
// opcodes (the _mov/_32/_illegal variants) and pseudo opcodes have no encoding and
// report ok = false.

type encKind int

const (
	encNone encKind = iota
	encPrimary
	enc2r
	enc1r
	enc0r
	encRU6
	encSETC
	encU6
	encU10
	encLongWide
	encLongL2R
	encLongImm // PFIX-prefixed variant of a short form
)

type encSpec struct {
	kind  encKind
	major uint32
	slot  uint32
	short Opcode // for encLongImm: the short form to prefix
}

var encTable [NumOpcodes]encSpec

func init() {
	for major := range regMajors {
		m := &regMajors[major]
		set := func(op Opcode, kind encKind, slot uint32) {
			if op != opNone {
				encTable[op] = encSpec{kind: kind, major: uint32(major), slot: slot}
			}
		}
		set(m.primary, encPrimary, 0)
		set(m.minor2r[0], enc2r, 0)
		set(m.minor2r[1], enc2r, 1)
		set(m.minor1r[0], enc1r, 0)
		set(m.minor1r[1], enc1r, 1)
		for i, op := range m.minor0r {
			set(op, enc0r, uint32(i))
		}
	}
	for i, pair := range ru6Majors {
		encTable[pair[0]] = encSpec{kind: encRU6, major: firstRU6Major + uint32(i), slot: 0}
		encTable[pair[1]] = encSpec{kind: encRU6, major: firstRU6Major + uint32(i), slot: 1}
	}
	for i, op := range u6Minors {
		if op != opNone {
			encTable[op] = encSpec{kind: encU6, major: u6Major, slot: uint32(i)}
		}
	}
	encTable[SETC_ru6] = encSpec{kind: encSETC, major: u6Major}
	for i, pair := range u10Majors {
		encTable[pair[0]] = encSpec{kind: encU10, major: firstU10Major + uint32(i), slot: 0}
		encTable[pair[1]] = encSpec{kind: encU10, major: firstU10Major + uint32(i), slot: 1}
	}
	for i, op := range longWideMinors {
		if op != opNone {
			encTable[op] = encSpec{kind: encLongWide, slot: uint32(i)}
		}
	}
	for i, op := range longL2RSubops {
		encTable[op] = encSpec{kind: encLongL2R, slot: uint32(i)}
	}
	for short, long := range longImmVariant {
		encTable[long] = encSpec{kind: encLongImm, short: short}
	}
}

func encodeBitp(op Opcode, ops *Operands) bool {
	idx, isBitp := bitpOperand[op]
	if !isBitp {
		return true
	}
	for enc, v := range bitpValues {
		if v == ops.Ops[idx] {
			ops.Ops[idx] = uint32(enc)
			return true
		}
	}
	return false
}

func regsValid(ops Operands, n int) bool {
	for i := 0; i < n; i++ {
		if ops.Ops[i] > 11 {
			return false
		}
	}
	return true
}

// Encode produces the half-words of op with the given (untransformed) operand fields.
// size is 2 or 4 bytes; high is meaningful only when size is 4. ok is false when op
// has no encoding or an operand is out of range for its field.
func Encode(op Opcode, operands Operands) (low, high uint16, size uint32, ok bool) {
	spec := encTable[op]
	if spec.kind == encNone {
		return 0, 0, 0, false
	}
	ops := operands
	if !encodeBitp(op, &ops) {
		return 0, 0, 0, false
	}
	mk := func(major, payload uint32) uint16 { return uint16(major<<11 | payload) }
	switch spec.kind {
	case encPrimary:
		if !regsValid(ops, 3) {
			return 0, 0, 0, false
		}
		return mk(spec.major, ops.Ops[0]*144+ops.Ops[1]*12+ops.Ops[2]), 0, 2, true
	case enc2r:
		if !regsValid(ops, 2) {
			return 0, 0, 0, false
		}
		return mk(spec.major, window2rA+spec.slot*144+ops.Ops[0]*12+ops.Ops[1]), 0, 2, true
	case enc1r:
		if !regsValid(ops, 1) {
			return 0, 0, 0, false
		}
		return mk(spec.major, window1rA+spec.slot*12+ops.Ops[0]), 0, 2, true
	case enc0r:
		return mk(spec.major, window0r+spec.slot), 0, 2, true
	case encRU6:
		if ops.Ops[0] > 11 || ops.Ops[1] > 0x3f {
			return 0, 0, 0, false
		}
		return mk(spec.major, spec.slot<<10|ops.Ops[0]<<6|ops.Ops[1]), 0, 2, true
	case encSETC:
		if ops.Ops[0] > 11 || ops.Ops[1] > 0x3f {
			return 0, 0, 0, false
		}
		return mk(spec.major, 0x400|ops.Ops[0]<<6|ops.Ops[1]), 0, 2, true
	case encU6:
		if ops.Ops[0] > 0x3f {
			return 0, 0, 0, false
		}
		return mk(spec.major, spec.slot<<6|ops.Ops[0]), 0, 2, true
	case encU10:
		if ops.Ops[0] > 0x3ff {
			return 0, 0, 0, false
		}
		return mk(spec.major, spec.slot<<10|ops.Ops[0]), 0, 2, true
	case encLongWide:
		n := GetInfo(op).NumExplicit
		if !regsValid(ops, n) {
			return 0, 0, 0, false
		}
		v := uint32(0)
		for i := n - 1; i >= 0; i-- {
			v = v*12 + ops.Ops[i]
		}
		return mk(majorLong, spec.slot<<6|v>>16), uint16(v), 4, true
	case encLongL2R:
		if !regsValid(ops, 2) {
			return 0, 0, 0, false
		}
		v := spec.slot*144 + ops.Ops[0]*12 + ops.Ops[1]
		return mk(majorLong, longL2RMinor<<6|v>>16), uint16(v), 4, true
	case encLongImm:
		info := GetInfo(spec.short)
		immIdx := 0
		if info.NumExplicit == 2 {
			immIdx = 1
		}
		shift := uint32(6)
		if isU10(spec.short) {
			shift = 10
		}
		imm := ops.Ops[immIdx]
		if imm>>shift > 0x3ff {
			return 0, 0, 0, false
		}
		shortOps := ops
		shortOps.Ops[immIdx] = imm & MakeMask(shift)
		sLow, _, _, sOK := Encode(spec.short, shortOps)
		if !sOK {
			return 0, 0, 0, false
		}
		return uint16(majorPfix<<11 | imm>>shift), sLow, 4, true
	}
	return 0, 0, 0, false
}

// Encodable reports whether op has a wire encoding (pseudo and transform-only
// opcodes do not).
func Encodable(op Opcode) bool { return encTable[op].kind != encNone }
