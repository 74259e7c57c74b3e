package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zotley-sim/xtilesim/xcore/isa"
	"github.com/zotley-sim/xtilesim/xcore/port"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/token"
)

func TestStatsCountsPerOpcode(t *testing.T) {
	s := NewStats()
	s.InstructionBegin(0, 0x10000, isa.ADD_3r)
	s.InstructionBegin(0, 0x10002, isa.ADD_3r)
	s.InstructionBegin(1, 0x10004, isa.MUL_l3r)
	if s.Total() != 3 || s.Count(isa.ADD_3r) != 2 || s.Count(isa.MUL_l3r) != 1 {
		t.Fatalf("counts: total=%d add=%d mul=%d", s.Total(), s.Count(isa.ADD_3r), s.Count(isa.MUL_l3r))
	}
	var buf bytes.Buffer
	s.Report(&buf)
	if !strings.Contains(buf.String(), "add") {
		t.Fatalf("report missing opcode line: %q", buf.String())
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewStats(), NewStats()
	m := Multi{a, b}
	m.InstructionBegin(0, 0, isa.NOT_2r)
	if a.Total() != 1 || b.Total() != 1 {
		t.Fatalf("fan-out totals: %d, %d", a.Total(), b.Total())
	}
}

func TestVCDEmitsDeclarationsAndChanges(t *testing.T) {
	var buf bytes.Buffer
	v := NewVCD(&buf)
	p := port.NewPort(resource.MakeID(resource.KindPort, system1BitPortNum), 1)
	v.Add(p, "clkout")
	v.PinsChanged(p.Base.ID, 1, 40)
	v.PinsChanged(p.Base.ID, 0, 43)

	out := buf.String()
	for _, want := range []string{
		"$timescale", "100 ps", "$var wire 1 ! clkout $end", "$dumpvars",
		"#40", "1!", "#43", "0!",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("vcd output missing %q:\n%s", want, out)
		}
	}
}

// system1BitPortNum mirrors the core's port numbering without importing it.
const system1BitPortNum = 1<<8 | 0

func TestVCDIdentifiersAreCompactBase94(t *testing.T) {
	if makeIdentifier(0) != "!" {
		t.Fatalf("id(0) = %q", makeIdentifier(0))
	}
	if makeIdentifier(1) != "\"" {
		t.Fatalf("id(1) = %q", makeIdentifier(1))
	}
	if got := makeIdentifier(94); len(got) != 2 {
		t.Fatalf("id(94) = %q, want two characters", got)
	}
}

func TestTokenValuesVisibleToTracers(t *testing.T) {
	// A smoke check on the shared wire constants tracers format.
	if !token.Ctrl(token.CtEnd).IsEnd() || token.Data(token.CtEnd).IsEnd() {
		t.Fatal("control-token classification broken")
	}
}
