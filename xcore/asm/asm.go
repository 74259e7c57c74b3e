// Package asm is a small in-process assembler over the instruction encoder: enough
// to build test images and boot stubs without an external toolchain, the way the
// simulator's end-to-end tests drive it. Branches and calls always assemble to
// their 32-bit prefixed forms so layout is single-pass.
package asm

import (
	"encoding/binary"
	"fmt"

	"github.com/zotley-sim/xtilesim/xcore/isa"
)

type itemKind int

const (
	itemInstr itemKind = iota
	itemWord
	itemLabel
)

type item struct {
	kind   itemKind
	op     isa.Opcode
	ops    isa.Operands
	target string // label reference for the immediate operand
	word   uint32
	name   string
	offset uint32 // byte offset from base, assigned at layout
}

// Program accumulates instructions and data from a base byte address.
type Program struct {
	base  uint32
	items []item
}

// New returns an empty program placed at the given byte address.
func New(base uint32) *Program { return &Program{base: base} }

// Base returns the program's load address.
func (p *Program) Base() uint32 { return p.base }

// Label defines a label at the current position.
func (p *Program) Label(name string) *Program {
	p.items = append(p.items, item{kind: itemLabel, name: name})
	return p
}

// I appends an instruction with literal operand fields.
func (p *Program) I(op isa.Opcode, ops ...uint32) *Program {
	var operands isa.Operands
	copy(operands.Ops[:], ops)
	p.items = append(p.items, item{kind: itemInstr, op: op, ops: operands})
	return p
}

// Word appends a 32-bit literal, aligned to a word boundary.
func (p *Program) Word(v uint32) *Program {
	p.items = append(p.items, item{kind: itemWord, word: v})
	return p
}

// branchTo appends a PC-relative instruction whose immediate is resolved from a
// label; reg is ignored for the unconditional forms.
func (p *Program) branchTo(op isa.Opcode, reg uint32, label string) *Program {
	var ops isa.Operands
	ops.Ops[0] = reg
	p.items = append(p.items, item{kind: itemInstr, op: op, ops: ops, target: label})
	return p
}

// Bu branches unconditionally to label.
func (p *Program) Bu(label string) *Program { return p.branchTo(isa.BRFU_lu6, 0, label) }

// Bt branches to label when reg is true (non-zero).
func (p *Program) Bt(reg uint32, label string) *Program {
	return p.branchTo(isa.BRFT_lru6, reg, label)
}

// Bf branches to label when reg is false (zero).
func (p *Program) Bf(reg uint32, label string) *Program {
	return p.branchTo(isa.BRFF_lru6, reg, label)
}

// Bl calls label, linking into LR.
func (p *Program) Bl(label string) *Program { return p.branchTo(isa.BLRF_lu10, 0, label) }

// Ldap loads the byte address of label into r11.
func (p *Program) Ldap(label string) *Program { return p.branchTo(isa.LDAPF_lu10, 0, label) }

func instrSize(op isa.Opcode) uint32 { return isa.GetInfo(op).Size }

// fixupBranch rewrites a forward-form opcode and its label displacement into the
// correct direction variant with the encoded half-word distance.
func fixupBranch(op isa.Opcode, from, to uint32) (isa.Opcode, uint32, error) {
	next := from + instrSize(op) // byte address after the instruction
	var diff int64
	if to >= next {
		diff = int64(to-next) / 2
	} else {
		diff = -int64(next-to) / 2
	}
	switch op {
	case isa.BRFU_lu6:
		if diff < 0 {
			return isa.BRBU_lu6, uint32(-diff), nil
		}
		return op, uint32(diff), nil
	case isa.BRFT_lru6:
		if diff < 0 {
			return isa.BRBT_lru6, uint32(-diff), nil
		}
		return op, uint32(diff), nil
	case isa.BRFF_lru6:
		if diff < 0 {
			return isa.BRBF_lru6, uint32(-diff), nil
		}
		return op, uint32(diff), nil
	case isa.BLRF_lu10:
		if diff < 0 {
			return isa.BLRB_lu10, uint32(-diff), nil
		}
		return op, uint32(diff), nil
	case isa.LDAPF_lu10:
		// The operand transform scales ldap displacements by one bit.
		if diff < 0 {
			return isa.LDAPB_lu10, uint32(-diff), nil
		}
		return op, uint32(diff), nil
	}
	return op, 0, fmt.Errorf("asm: %v cannot take a label operand", op)
}

// Assemble lays the program out, resolves labels, and encodes every instruction.
// It returns the image bytes and the byte address of each label.
func (p *Program) Assemble() ([]byte, map[string]uint32, error) {
	labels := make(map[string]uint32)
	var pending []string
	bind := func(off uint32) error {
		for _, name := range pending {
			if _, dup := labels[name]; dup {
				return fmt.Errorf("asm: duplicate label %q", name)
			}
			labels[name] = p.base + off
		}
		pending = pending[:0]
		return nil
	}
	offset := uint32(0)
	for i := range p.items {
		it := &p.items[i]
		switch it.kind {
		case itemLabel:
			// Bound to the next item so alignment padding cannot split them.
			pending = append(pending, it.name)
		case itemWord:
			offset = (offset + 3) &^ 3
			it.offset = offset
			if err := bind(offset); err != nil {
				return nil, nil, err
			}
			offset += 4
		case itemInstr:
			it.offset = offset
			if err := bind(offset); err != nil {
				return nil, nil, err
			}
			offset += instrSize(it.op)
		}
	}
	if err := bind(offset); err != nil {
		return nil, nil, err
	}

	image := make([]byte, offset)
	for i := range p.items {
		it := &p.items[i]
		switch it.kind {
		case itemWord:
			binary.LittleEndian.PutUint32(image[it.offset:], it.word)
		case itemInstr:
			op, ops := it.op, it.ops
			if it.target != "" {
				to, ok := labels[it.target]
				if !ok {
					return nil, nil, fmt.Errorf("asm: undefined label %q", it.target)
				}
				var disp uint32
				var err error
				op, disp, err = fixupBranch(op, p.base+it.offset, to)
				if err != nil {
					return nil, nil, err
				}
				immIdx := 0
				if isa.GetInfo(op).NumExplicit == 2 {
					immIdx = 1
				}
				ops.Ops[immIdx] = disp
			}
			low, high, size, ok := isa.Encode(op, ops)
			if !ok {
				return nil, nil, fmt.Errorf("asm: cannot encode %v %v", op, ops.Ops)
			}
			binary.LittleEndian.PutUint16(image[it.offset:], low)
			if size == 4 {
				binary.LittleEndian.PutUint16(image[it.offset+2:], high)
			}
		}
	}
	return image, labels, nil
}
