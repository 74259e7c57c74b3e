package isa

// The instruction table is populated by the declarative builders below, which mirror
// the record shapes of the original build-time generator (name, encoding size, operand
// kinds, implicit registers, cycle cost, flags). Semantic bodies are match arms in the
// interpreter; the table carries everything else.

var infoTable [NumOpcodes]Info

type entry struct{ op Opcode }

func def(op Opcode, name string, size uint32, kinds ...OpKind) entry {
	in := &infoTable[op]
	in.Name = name
	in.Size = size
	in.NumExplicit = len(kinds)
	copy(in.Kinds[:], kinds)
	in.Cycles = CyclesPerInstruction
	return entry{op}
}

func (e entry) implicit(reg Reg, kind OpKind) entry {
	in := &infoTable[e.op]
	in.Kinds[in.NumOperands()] = kind
	in.Implicit = append(in.Implicit, reg)
	return e
}

func (e entry) cycles(n uint32) entry { infoTable[e.op].Cycles = n; return e }
func (e entry) sync() entry           { infoTable[e.op].Sync = true; return e }
func (e entry) canEvent() entry       { infoTable[e.op].CanEvent = true; return e }
func (e entry) unimplemented() entry  { infoTable[e.op].Unimplemented = true; return e }
func (e entry) custom() entry         { infoTable[e.op].Custom = true; return e }

func f3r(op Opcode, name string) entry      { return def(op, name, 2, OpOut, OpIn, OpIn) }
func f2rus(op Opcode, name string) entry    { return def(op, name, 2, OpOut, OpIn, OpImm) }
func f2rusIn(op Opcode, name string) entry  { return def(op, name, 2, OpIn, OpIn, OpImm) }
func f2r(op Opcode, name string) entry      { return def(op, name, 2, OpOut, OpIn) }
func f2rIn(op Opcode, name string) entry    { return def(op, name, 2, OpIn, OpIn) }
func f2rInout(op Opcode, name string) entry { return def(op, name, 2, OpInOut, OpIn) }
func frus(op Opcode, name string) entry     { return def(op, name, 2, OpOut, OpImm) }
func frusIn(op Opcode, name string) entry   { return def(op, name, 2, OpIn, OpImm) }
func frusInout(op Opcode, name string) entry {
	return def(op, name, 2, OpInOut, OpImm)
}
func f1r(op Opcode, name string) entry    { return def(op, name, 2, OpIn) }
func f1rOut(op Opcode, name string) entry { return def(op, name, 2, OpOut) }
func f0r(op Opcode, name string) entry    { return def(op, name, 2) }

func fru6(short, long Opcode, name string, kind OpKind) (entry, entry) {
	return def(short, name+"_ru6", 2, kind, OpImm), def(long, name+"_lru6", 4, kind, OpImm)
}
func fu6(short, long Opcode, name string) (entry, entry) {
	return def(short, name+"_u6", 2, OpImm), def(long, name+"_lu6", 4, OpImm)
}
func fu10(short, long Opcode, name string) (entry, entry) {
	return def(short, name+"_u10", 2, OpImm), def(long, name+"_lu10", 4, OpImm)
}

func fl3r(op Opcode, name string) entry      { return def(op, name, 4, OpOut, OpIn, OpIn) }
func fl3rIn(op Opcode, name string) entry    { return def(op, name, 4, OpIn, OpIn, OpIn) }
func fl3rInout(op Opcode, name string) entry { return def(op, name, 4, OpInOut, OpIn, OpIn) }
func fl2rus(op Opcode, name string) entry    { return def(op, name, 4, OpOut, OpIn, OpImm) }
func fl2rusIn(op Opcode, name string) entry  { return def(op, name, 4, OpIn, OpIn, OpImm) }
func fl2r(op Opcode, name string) entry      { return def(op, name, 4, OpOut, OpIn) }
func fl2rIn(op Opcode, name string) entry    { return def(op, name, 4, OpIn, OpIn) }
func fl4rInoutInout(op Opcode, name string) entry {
	return def(op, name, 4, OpInOut, OpIn, OpIn, OpInOut)
}
func fl4rOutInout(op Opcode, name string) entry {
	return def(op, name, 4, OpOut, OpIn, OpIn, OpInOut)
}
func fl5r(op Opcode, name string) entry {
	return def(op, name, 4, OpOut, OpIn, OpIn, OpOut, OpIn)
}
func fl6r(op Opcode, name string) entry {
	return def(op, name, 4, OpOut, OpIn, OpIn, OpOut, OpIn, OpIn)
}
func pseudo(op Opcode, name string) entry { return def(op, name, 0) }

func both(a, b entry) func(func(entry) entry) {
	return func(f func(entry) entry) {
		f(a)
		f(b)
	}
}

func init() {
	f3r(ADD_3r, "add")
	f2rus(ADD_2rus, "add")
	f2rus(ADD_mov_2rus, "mov")
	f3r(SUB_3r, "sub")
	f2rus(SUB_2rus, "sub")
	f3r(EQ_3r, "eq")
	f2rus(EQ_2rus, "eq")
	f3r(LSS_3r, "lss")
	f3r(LSU_3r, "lsu")
	f3r(AND_3r, "and")
	f3r(OR_3r, "or")
	f3r(SHL_3r, "shl")
	f2rus(SHL_2rus, "shl")
	f2rus(SHL_32_2rus, "shl32")
	f3r(SHR_3r, "shr")
	f2rus(SHR_2rus, "shr")
	f2rus(SHR_32_2rus, "shr32")
	f3r(LDW_3r, "ldw")
	f2rus(LDW_2rus, "ldw")
	f3r(LD16S_3r, "ld16s")
	f3r(LD8U_3r, "ld8u")
	f2rusIn(STW_2rus, "stw")
	def(TSETR_3r, "tsetr", 2, OpImm, OpIn, OpIn)

	fl3r(LDAWF_l3r, "ldawf")
	fl2rus(LDAWF_l2rus, "ldawf")
	fl3r(LDAWB_l3r, "ldawb")
	fl2rus(LDAWB_l2rus, "ldawb")
	fl3r(LDA16F_l3r, "lda16f")
	fl3r(LDA16B_l3r, "lda16b")
	fl3rIn(STW_l3r, "stw")
	fl3rIn(ST16_l3r, "st16")
	fl3rIn(ST8_l3r, "st8")
	fl3r(MUL_l3r, "mul")
	fl3r(DIVS_l3r, "divs").cycles(DivCycles)
	fl3r(DIVU_l3r, "divu").cycles(DivCycles)
	fl3r(REMS_l3r, "rems").cycles(DivCycles)
	fl3r(REMU_l3r, "remu").cycles(DivCycles)
	fl3r(XOR_l3r, "xor")
	fl3r(ASHR_l3r, "ashr")
	fl2rus(ASHR_l2rus, "ashr")
	fl2rus(ASHR_32_l2rus, "ashr32")
	fl2rusIn(OUTPW_l2rus, "outpw").unimplemented()
	fl2rus(INPW_l2rus, "inpw").unimplemented()
	fl3rInout(CRC_l3r, "crc32")
	fl4rInoutInout(MACCU_l4r, "maccu")
	fl4rInoutInout(MACCS_l4r, "maccs")
	fl4rOutInout(CRC8_l4r, "crc8")
	fl5r(LADD_l5r, "ladd")
	fl5r(LSUB_l5r, "lsub")
	fl5r(LDIVU_l5r, "ldivu").cycles(DivCycles)
	fl6r(LMUL_l6r, "lmul")

	both(fru6(LDAWDP_ru6, LDAWDP_lru6, "ldawdp", OpOut))(func(e entry) entry {
		return e.implicit(DP, OpIn)
	})
	both(fru6(LDWDP_ru6, LDWDP_lru6, "ldwdp", OpOut))(func(e entry) entry {
		return e.implicit(DP, OpIn)
	})
	both(fru6(LDWCP_ru6, LDWCP_lru6, "ldwcp", OpOut))(func(e entry) entry {
		return e.implicit(CP, OpIn)
	})
	both(fru6(LDWSP_ru6, LDWSP_lru6, "ldwsp", OpOut))(func(e entry) entry {
		return e.implicit(SP, OpIn)
	})
	both(fru6(STWDP_ru6, STWDP_lru6, "stwdp", OpIn))(func(e entry) entry {
		return e.implicit(DP, OpIn)
	})
	both(fru6(STWSP_ru6, STWSP_lru6, "stwsp", OpIn))(func(e entry) entry {
		return e.implicit(SP, OpIn)
	})
	both(fru6(LDAWSP_ru6, LDAWSP_lru6, "ldawsp", OpOut))(func(e entry) entry {
		return e.implicit(SP, OpIn)
	})
	fru6(LDC_ru6, LDC_lru6, "ldc", OpOut)
	fru6(BRFT_ru6, BRFT_lru6, "brft", OpIn)
	fru6(BRFT_illegal_ru6, BRFT_illegal_lru6, "brft_illegal", OpIn)
	fru6(BRBT_ru6, BRBT_lru6, "brbt", OpIn)
	fru6(BRBT_illegal_ru6, BRBT_illegal_lru6, "brbt_illegal", OpIn)
	fru6(BRFF_ru6, BRFF_lru6, "brff", OpIn)
	fru6(BRFF_illegal_ru6, BRFF_illegal_lru6, "brff_illegal", OpIn)
	fru6(BRBF_ru6, BRBF_lru6, "brbf", OpIn)
	fru6(BRBF_illegal_ru6, BRBF_illegal_lru6, "brbf_illegal", OpIn)
	both(fru6(SETC_ru6, SETC_lru6, "setc", OpIn))(func(e entry) entry {
		return e.sync().canEvent()
	})

	both(fu6(EXTSP_u6, EXTSP_lu6, "extsp"))(func(e entry) entry {
		return e.implicit(SP, OpInOut)
	})
	both(fu6(EXTDP_u6, EXTDP_lu6, "extdp"))(func(e entry) entry {
		return e.implicit(DP, OpInOut)
	})
	both(fu6(ENTSP_u6, ENTSP_lu6, "entsp"))(func(e entry) entry {
		return e.implicit(SP, OpInOut).implicit(LR, OpIn)
	})
	both(fu6(RETSP_u6, RETSP_lu6, "retsp"))(func(e entry) entry {
		return e.implicit(SP, OpInOut).implicit(LR, OpInOut).cycles(RetspCycles)
	})
	both(fu6(KRESTSP_u6, KRESTSP_lu6, "krestsp"))(func(e entry) entry {
		return e.implicit(SP, OpInOut).implicit(KSP, OpOut)
	})
	both(fu6(KENTSP_u6, KENTSP_lu6, "kentsp"))(func(e entry) entry {
		return e.implicit(SP, OpInOut).implicit(KSP, OpIn)
	})
	fu6(BRFU_u6, BRFU_lu6, "bu")
	fu6(BRFU_illegal_u6, BRFU_illegal_lu6, "bu_illegal")
	fu6(BRBU_u6, BRBU_lu6, "bu")
	fu6(BRBU_illegal_u6, BRBU_illegal_lu6, "bu_illegal")
	both(fu6(LDAWCP_u6, LDAWCP_lu6, "ldawcp"))(func(e entry) entry {
		return e.implicit(R11, OpOut).implicit(CP, OpIn)
	})
	both(fu6(SETSR_u6, SETSR_lu6, "setsr"))(func(e entry) entry {
		return e.implicit(RegSR, OpInOut).sync()
	})
	both(fu6(CLRSR_u6, CLRSR_lu6, "clrsr"))(func(e entry) entry {
		return e.implicit(RegSR, OpInOut).sync()
	})
	both(fu6(BLAT_u6, BLAT_lu6, "blat"))(func(e entry) entry {
		return e.implicit(R11, OpIn).unimplemented()
	})
	both(fu6(KCALL_u6, KCALL_lu6, "kcall"))(func(e entry) entry {
		return e.unimplemented()
	})
	both(fu6(GETSR_u6, GETSR_lu6, "getsr"))(func(e entry) entry {
		return e.implicit(R11, OpOut).implicit(RegSR, OpIn)
	})

	both(fu10(LDWCPL_u10, LDWCPL_lu10, "ldwcpl"))(func(e entry) entry {
		return e.implicit(R11, OpOut).implicit(CP, OpIn)
	})
	both(fu10(LDAPF_u10, LDAPF_lu10, "ldap"))(func(e entry) entry {
		return e.implicit(R11, OpOut)
	})
	both(fu10(LDAPB_u10, LDAPB_lu10, "ldap"))(func(e entry) entry {
		return e.implicit(R11, OpOut)
	})
	both(fu10(BLRF_u10, BLRF_lu10, "bl"))(func(e entry) entry {
		return e.implicit(LR, OpOut)
	})
	fu10(BLRF_illegal_u10, BLRF_illegal_lu10, "bl_illegal")
	both(fu10(BLRB_u10, BLRB_lu10, "bl"))(func(e entry) entry {
		return e.implicit(LR, OpOut)
	})
	fu10(BLRB_illegal_u10, BLRB_illegal_lu10, "bl_illegal")
	both(fu10(BLACP_u10, BLACP_lu10, "blacp"))(func(e entry) entry {
		return e.implicit(LR, OpOut).implicit(CP, OpIn)
	})

	f2r(NOT_2r, "not")
	f2r(NEG_2r, "neg")
	frusInout(SEXT_rus, "sext")
	f2rInout(SEXT_2r, "sext")
	frusInout(ZEXT_rus, "zext")
	f2rInout(ZEXT_2r, "zext")
	f2rInout(ANDNOT_2r, "andnot")
	f2r(MKMSK_2r, "mkmsk")
	frus(MKMSK_rus, "mkmsk")
	frus(GETR_rus, "getr")
	f2r(GETST_2r, "getst")
	f2r(PEEK_2r, "peek").unimplemented()
	f2r(ENDIN_2r, "endin").unimplemented()
	f2rIn(SETPSC_2r, "setpsc").unimplemented()
	fl2r(BITREV_l2r, "bitrev")
	fl2r(BYTEREV_l2r, "byterev")
	fl2r(CLZ_l2r, "clz")
	fl2rIn(TINITLR_l2r, "tinitlr")
	fl2r(GETD_l2r, "getd").unimplemented()
	fl2r(TESTLCL_l2r, "testlcl").unimplemented()
	fl2rIn(SETN_l2r, "setn").unimplemented()
	fl2r(GETN_l2r, "getn").unimplemented()
	fl2r(GETPS_l2r, "getps")
	fl2rIn(SETPS_l2r, "setps")
	fl2rIn(SETC_l2r, "setc").sync().canEvent()
	fl2rIn(SETCLK_l2r, "setclk").sync()
	fl2rIn(SETTW_l2r, "settw").sync()
	fl2rIn(SETRDY_l2r, "setrdy").sync()
	f2r(IN_2r, "in").sync()
	f2rIn(OUT_2r, "out").sync().canEvent()
	f2rIn(TINITPC_2r, "tinitpc")
	f2rIn(TINITDP_2r, "tinitdp")
	f2rIn(TINITSP_2r, "tinitsp")
	f2rIn(TINITCP_2r, "tinitcp")
	f2rIn(TSETMR_2r, "tsetmr").custom()
	f2rIn(SETD_2r, "setd").sync()
	f2rIn(OUTCT_2r, "outct").sync().canEvent()
	frusIn(OUTCT_rus, "outct").sync().canEvent()
	f2rIn(OUTT_2r, "outt").sync().canEvent()
	f2r(INT_2r, "int")
	f2r(INCT_2r, "inct")
	f2rIn(CHKCT_2r, "chkct")
	frusIn(CHKCT_rus, "chkct")
	f2r(TESTCT_2r, "testct")
	f2r(TESTWCT_2r, "testwct")
	f2rIn(EET_2r, "eet").sync().canEvent()
	f2rIn(EEF_2r, "eef").sync().canEvent()
	f2rInout(INSHR_2r, "inshr").sync()
	f2rInout(OUTSHR_2r, "outshr").sync()
	f2r(GETTS_2r, "getts").sync()
	f2rIn(SETPT_2r, "setpt").sync()

	f1r(SETSP_1r, "setsp").implicit(SP, OpOut)
	f1r(SETDP_1r, "setdp").implicit(DP, OpOut)
	f1r(SETCP_1r, "setcp").implicit(CP, OpOut)
	f1r(ECALLT_1r, "ecallt")
	f1r(ECALLF_1r, "ecallf")
	f1r(BAU_1r, "bau")
	f1r(BLA_1r, "bla").implicit(LR, OpOut)
	f1r(BRU_1r, "bru")
	f1r(TSTART_1r, "start")
	f1rOut(DGETREG_1r, "dgetreg").unimplemented()
	f1r(KCALL_1r, "kcall").unimplemented()
	f1r(FREER_1r, "freer")
	f1r(MSYNC_1r, "msync")
	f1r(MJOIN_1r, "mjoin")
	f1r(SETV_1r, "setv").implicit(R11, OpIn).sync()
	f1r(SETEV_1r, "setev").implicit(R11, OpIn).sync()
	f1r(EDU_1r, "edu").sync()
	f1r(EEU_1r, "eeu").sync().canEvent()
	f1r(WAITET_1r, "waitet").sync().canEvent()
	f1r(WAITEF_1r, "waitef").sync().canEvent()
	f1r(SYNCR_1r, "syncr").sync()
	f1r(CLRPT_1r, "clrpt").sync()

	f0r(GETID_0r, "getid").implicit(R11, OpOut)
	f0r(GETET_0r, "getet").implicit(R11, OpOut).implicit(ET, OpIn)
	f0r(GETED_0r, "geted").implicit(R11, OpOut).implicit(ED, OpIn)
	f0r(GETKEP_0r, "getkep").implicit(R11, OpOut).implicit(KEP, OpIn)
	f0r(GETKSP_0r, "getksp").implicit(R11, OpOut).implicit(KSP, OpIn)
	f0r(SETKEP_0r, "setkep").implicit(KEP, OpOut).implicit(R11, OpIn)
	f0r(KRET_0r, "kret").
		implicit(SPC, OpIn).implicit(SED, OpIn).implicit(SSR, OpIn).
		implicit(ED, OpOut).implicit(RegSR, OpOut).sync()
	f0r(DRESTSP_0r, "drestsp").unimplemented()
	f0r(LDSPC_0r, "ldspc").implicit(SPC, OpOut).implicit(SP, OpIn)
	f0r(LDSSR_0r, "ldssr").implicit(SSR, OpOut).implicit(SP, OpIn)
	f0r(LDSED_0r, "ldsed").implicit(SED, OpOut).implicit(SP, OpIn)
	f0r(LDET_0r, "ldet").implicit(ET, OpOut).implicit(SP, OpIn)
	f0r(STSPC_0r, "stspc").implicit(SPC, OpIn).implicit(SP, OpIn)
	f0r(STSSR_0r, "stssr").implicit(SSR, OpIn).implicit(SP, OpIn)
	f0r(STSED_0r, "stsed").implicit(SED, OpIn).implicit(SP, OpIn)
	f0r(STET_0r, "stet").implicit(ET, OpIn).implicit(SP, OpIn)
	f0r(FREET_0r, "freet").custom()
	f0r(DCALL_0r, "dcall").unimplemented()
	f0r(DRET_0r, "dret").unimplemented()
	f0r(DENTSP_0r, "dentsp").unimplemented()
	f0r(CLRE_0r, "clre").sync()
	f0r(WAITEU_0r, "waiteu").sync().canEvent()
	f0r(SSYNC_0r, "ssync").custom()

	pseudo(ILLEGAL_PC, "illegal_pc")
	pseudo(ILLEGAL_PC_THREAD, "illegal_pc_thread")
	pseudo(NO_THREADS, "no_threads")
	pseudo(ILLEGAL_INSTRUCTION, "illegal_instruction")
	pseudo(DECODE, "decode")
	pseudo(SYSCALL, "syscall")
	pseudo(EXCEPTION, "exception")
	pseudo(BREAKPOINT, "breakpoint")
}
