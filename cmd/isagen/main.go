// Command isagen re-emits the generated sources of the instruction set: the opcode
// enumeration consumed by the decoder and interpreter. The instruction table itself
// is data (xcore/isa/table.go); this tool exists so the enumeration stays mechanical
// output rather than hand-maintained source.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zotley-sim/xtilesim/xcore/isa"
)

// opcodes is the declarative, ordered list the enumeration is generated from.
var opcodes = []string{
	"ADD_3r",
	"SUB_3r",
	"EQ_3r",
	"LSS_3r",
	"LSU_3r",
	"AND_3r",
	"OR_3r",
	"SHL_3r",
	"SHR_3r",
	"LDW_3r",
	"LD16S_3r",
	"LD8U_3r",
	"TSETR_3r",
	"ADD_2rus",
	"ADD_mov_2rus",
	"SUB_2rus",
	"EQ_2rus",
	"SHL_2rus",
	"SHL_32_2rus",
	"SHR_2rus",
	"SHR_32_2rus",
	"LDW_2rus",
	"STW_2rus",
	"NOT_2r",
	"NEG_2r",
	"MKMSK_2r",
	"GETST_2r",
	"PEEK_2r",
	"ENDIN_2r",
	"IN_2r",
	"INT_2r",
	"INCT_2r",
	"TESTCT_2r",
	"TESTWCT_2r",
	"GETTS_2r",
	"SETPSC_2r",
	"OUT_2r",
	"TINITPC_2r",
	"TINITDP_2r",
	"TINITSP_2r",
	"TINITCP_2r",
	"TSETMR_2r",
	"SETD_2r",
	"OUTCT_2r",
	"OUTT_2r",
	"CHKCT_2r",
	"EET_2r",
	"EEF_2r",
	"SETPT_2r",
	"SEXT_2r",
	"ZEXT_2r",
	"ANDNOT_2r",
	"INSHR_2r",
	"OUTSHR_2r",
	"MKMSK_rus",
	"GETR_rus",
	"OUTCT_rus",
	"CHKCT_rus",
	"SEXT_rus",
	"ZEXT_rus",
	"SETSP_1r",
	"SETDP_1r",
	"SETCP_1r",
	"ECALLT_1r",
	"ECALLF_1r",
	"BAU_1r",
	"BLA_1r",
	"BRU_1r",
	"TSTART_1r",
	"DGETREG_1r",
	"KCALL_1r",
	"FREER_1r",
	"MSYNC_1r",
	"MJOIN_1r",
	"SETV_1r",
	"SETEV_1r",
	"EDU_1r",
	"EEU_1r",
	"WAITET_1r",
	"WAITEF_1r",
	"SYNCR_1r",
	"CLRPT_1r",
	"GETID_0r",
	"GETET_0r",
	"GETED_0r",
	"GETKEP_0r",
	"GETKSP_0r",
	"SETKEP_0r",
	"KRET_0r",
	"DRESTSP_0r",
	"LDSPC_0r",
	"LDSSR_0r",
	"LDSED_0r",
	"LDET_0r",
	"STSPC_0r",
	"STSSR_0r",
	"STSED_0r",
	"STET_0r",
	"FREET_0r",
	"DCALL_0r",
	"DRET_0r",
	"DENTSP_0r",
	"CLRE_0r",
	"WAITEU_0r",
	"SSYNC_0r",
	"STWDP_ru6",
	"STWDP_lru6",
	"STWSP_ru6",
	"STWSP_lru6",
	"LDWDP_ru6",
	"LDWDP_lru6",
	"LDWSP_ru6",
	"LDWSP_lru6",
	"LDAWDP_ru6",
	"LDAWDP_lru6",
	"LDAWSP_ru6",
	"LDAWSP_lru6",
	"LDC_ru6",
	"LDC_lru6",
	"LDWCP_ru6",
	"LDWCP_lru6",
	"SETC_ru6",
	"SETC_lru6",
	"BRFT_ru6",
	"BRFT_lru6",
	"BRFT_illegal_ru6",
	"BRFT_illegal_lru6",
	"BRBT_ru6",
	"BRBT_lru6",
	"BRBT_illegal_ru6",
	"BRBT_illegal_lru6",
	"BRFF_ru6",
	"BRFF_lru6",
	"BRFF_illegal_ru6",
	"BRFF_illegal_lru6",
	"BRBF_ru6",
	"BRBF_lru6",
	"BRBF_illegal_ru6",
	"BRBF_illegal_lru6",
	"EXTSP_u6",
	"EXTSP_lu6",
	"EXTDP_u6",
	"EXTDP_lu6",
	"ENTSP_u6",
	"ENTSP_lu6",
	"RETSP_u6",
	"RETSP_lu6",
	"KRESTSP_u6",
	"KRESTSP_lu6",
	"KENTSP_u6",
	"KENTSP_lu6",
	"BRFU_u6",
	"BRFU_lu6",
	"BRFU_illegal_u6",
	"BRFU_illegal_lu6",
	"BRBU_u6",
	"BRBU_lu6",
	"BRBU_illegal_u6",
	"BRBU_illegal_lu6",
	"LDAWCP_u6",
	"LDAWCP_lu6",
	"SETSR_u6",
	"SETSR_lu6",
	"CLRSR_u6",
	"CLRSR_lu6",
	"BLAT_u6",
	"BLAT_lu6",
	"KCALL_u6",
	"KCALL_lu6",
	"GETSR_u6",
	"GETSR_lu6",
	"LDWCPL_u10",
	"LDWCPL_lu10",
	"LDAPF_u10",
	"LDAPF_lu10",
	"LDAPB_u10",
	"LDAPB_lu10",
	"BLRF_u10",
	"BLRF_lu10",
	"BLRF_illegal_u10",
	"BLRF_illegal_lu10",
	"BLRB_u10",
	"BLRB_lu10",
	"BLRB_illegal_u10",
	"BLRB_illegal_lu10",
	"BLACP_u10",
	"BLACP_lu10",
	"LDAWF_l3r",
	"LDAWB_l3r",
	"LDA16F_l3r",
	"LDA16B_l3r",
	"STW_l3r",
	"ST16_l3r",
	"ST8_l3r",
	"MUL_l3r",
	"DIVS_l3r",
	"DIVU_l3r",
	"REMS_l3r",
	"REMU_l3r",
	"XOR_l3r",
	"ASHR_l3r",
	"CRC_l3r",
	"LDAWF_l2rus",
	"LDAWB_l2rus",
	"ASHR_l2rus",
	"ASHR_32_l2rus",
	"OUTPW_l2rus",
	"INPW_l2rus",
	"BITREV_l2r",
	"BYTEREV_l2r",
	"CLZ_l2r",
	"TINITLR_l2r",
	"GETD_l2r",
	"TESTLCL_l2r",
	"SETN_l2r",
	"GETN_l2r",
	"GETPS_l2r",
	"SETPS_l2r",
	"SETC_l2r",
	"SETCLK_l2r",
	"SETTW_l2r",
	"SETRDY_l2r",
	"MACCU_l4r",
	"MACCS_l4r",
	"CRC8_l4r",
	"LADD_l5r",
	"LSUB_l5r",
	"LDIVU_l5r",
	"LMUL_l6r",
	"ILLEGAL_PC",
	"ILLEGAL_PC_THREAD",
	"NO_THREADS",
	"ILLEGAL_INSTRUCTION",
	"DECODE",
	"SYSCALL",
	"EXCEPTION",
	"BREAKPOINT",
}

func main() {
	check := flag.Bool("check", false, "verify the list matches the compiled table")
	emit := flag.Bool("opcodes", true, "emit the opcode enumeration source")
	flag.Parse()

	if *check {
		if got, want := len(opcodes), int(isa.NumOpcodes); got != want {
			fmt.Fprintf(os.Stderr, "isagen: %d opcodes listed, table has %d\n", got, want)
			os.Exit(1)
		}
		for i, name := range opcodes {
			info := isa.GetInfo(isa.Opcode(i))
			if info.Name == "" {
				fmt.Fprintf(os.Stderr, "isagen: %s (index %d) missing from table\n", name, i)
				os.Exit(1)
			}
		}
	}
	if *emit {
		emitOpcodes(os.Stdout)
	}
}

func emitOpcodes(w *os.File) {
	fmt.Fprintln(w, "// Code generated by isagen; DO NOT EDIT.")
	fmt.Fprintln(w, "// Regenerate with: go run ./cmd/isagen -opcodes")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "package isa")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "// Opcode identifies one instruction table entry. Suffixes name the encoding format:")
	fmt.Fprintln(w, "// _3r/_2rus/_2r/_rus/_1r/_0r/_ru6/_u6/_u10 are 16-bit forms, _l* and _lru6/_lu6/_lu10")
	fmt.Fprintln(w, "// are 32-bit forms. _illegal variants are produced by the operand transform when a")
	fmt.Fprintln(w, "// branch target falls outside RAM; _mov/_32 variants are transform specialisations.")
	fmt.Fprintln(w, "type Opcode uint16")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "const (")
	for i, name := range opcodes {
		if i == 0 {
			fmt.Fprintf(w, "\t%s Opcode = iota\n", name)
		} else {
			fmt.Fprintf(w, "\t%s\n", name)
		}
	}
	fmt.Fprintln(w, "\tNumOpcodes")
	fmt.Fprintln(w, ")")
}
