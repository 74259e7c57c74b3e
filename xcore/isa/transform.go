package isa

// PCChecker reports whether a half-word PC lies inside executable RAM. The decode
// cache supplies it when filling an entry.
type PCChecker interface {
	ValidPC(pc uint32) bool
}

// Transform pre-scales a freshly decoded instruction's immediates for the decode
// cache: word and half-word addressed offsets are shifted into byte offsets,
// PC-relative branch targets become absolute (rewritten to the _illegal variant when
// out of range so the fast path needs no bounds check), masks are pre-computed, and
// by-32 shifts become their zero-producing variants. It is applied exactly once per
// cache fill; a second call on the same record is a no-op.
func Transform(d *Decoded, pc uint32, check PCChecker) {
	if d.Transformed {
		return
	}
	d.Transformed = true
	next := pc + d.Size/2
	ops := &d.Operands.Ops

	branch := func(idx int, target uint32, illegalOp Opcode) {
		ops[idx] = target
		if !check.ValidPC(target) {
			d.Op = illegalOp
		}
	}

	switch d.Op {
	case ADD_2rus:
		if ops[2] == 0 {
			d.Op = ADD_mov_2rus
		}
	case SHL_2rus:
		if ops[2] == 32 {
			d.Op = SHL_32_2rus
		}
	case SHR_2rus:
		if ops[2] == 32 {
			d.Op = SHR_32_2rus
		}
	case ASHR_l2rus:
		if ops[2] == 32 {
			d.Op = ASHR_32_l2rus
		}
	case STW_2rus, LDW_2rus, LDAWF_l2rus, LDAWB_l2rus:
		ops[2] <<= 2
	case STWDP_ru6, STWSP_ru6, LDWDP_ru6, LDWSP_ru6, LDAWDP_ru6, LDAWSP_ru6, LDWCP_ru6,
		STWDP_lru6, STWSP_lru6, LDWDP_lru6, LDWSP_lru6, LDAWDP_lru6, LDAWSP_lru6, LDWCP_lru6:
		ops[1] <<= 2
	case EXTDP_u6, ENTSP_u6, EXTSP_u6, RETSP_u6, KENTSP_u6, KRESTSP_u6, LDAWCP_u6,
		EXTDP_lu6, ENTSP_lu6, EXTSP_lu6, RETSP_lu6, KENTSP_lu6, KRESTSP_lu6, LDAWCP_lu6,
		LDWCPL_u10, LDWCPL_lu10:
		ops[0] <<= 2
	case LDAPF_u10, LDAPB_u10, LDAPF_lu10, LDAPB_lu10:
		ops[0] <<= 1
	case MKMSK_rus:
		ops[1] = MakeMask(ops[1])
	case BRFT_ru6:
		branch(1, next+ops[1], BRFT_illegal_ru6)
	case BRFT_lru6:
		branch(1, next+ops[1], BRFT_illegal_lru6)
	case BRBT_ru6:
		branch(1, next-ops[1], BRBT_illegal_ru6)
	case BRBT_lru6:
		branch(1, next-ops[1], BRBT_illegal_lru6)
	case BRFF_ru6:
		branch(1, next+ops[1], BRFF_illegal_ru6)
	case BRFF_lru6:
		branch(1, next+ops[1], BRFF_illegal_lru6)
	case BRBF_ru6:
		branch(1, next-ops[1], BRBF_illegal_ru6)
	case BRBF_lru6:
		branch(1, next-ops[1], BRBF_illegal_lru6)
	case BRFU_u6:
		branch(0, next+ops[0], BRFU_illegal_u6)
	case BRFU_lu6:
		branch(0, next+ops[0], BRFU_illegal_lu6)
	case BRBU_u6:
		branch(0, next-ops[0], BRBU_illegal_u6)
	case BRBU_lu6:
		branch(0, next-ops[0], BRBU_illegal_lu6)
	case BLRF_u10:
		branch(0, next+ops[0], BLRF_illegal_u10)
	case BLRF_lu10:
		branch(0, next+ops[0], BLRF_illegal_lu10)
	case BLRB_u10:
		branch(0, next-ops[0], BLRB_illegal_u10)
	case BLRB_lu10:
		branch(0, next-ops[0], BLRB_illegal_lu10)
	}
}
