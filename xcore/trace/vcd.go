package trace

import (
	"fmt"
	"io"

	"github.com/zotley-sim/xtilesim/xcore/port"
	"github.com/zotley-sim/xtilesim/xcore/resource"
)

// VCD dumps pin-value changes of watched ports as an IEEE 1364 value change dump at
// the 100ps timescale. Add every port before the first change arrives; the
// declaration block is emitted lazily on the first dump.
type VCD struct {
	w          io.Writer
	wires      []vcdWire
	byID       map[resource.ID]int
	declared   bool
	curTime    uint64
	timeDumped bool
}

type vcdWire struct {
	port       *port.Port
	name       string
	identifier string
}

// NewVCD returns a waveform tracer writing to w.
func NewVCD(w io.Writer) *VCD {
	return &VCD{w: w, byID: map[resource.ID]int{}}
}

// makeIdentifier maps a wire index to the compact base-94 identifier code of the VCD
// format (printable characters '!' through '~').
func makeIdentifier(index int) string {
	const offset = '!'
	const base = '~' - '!' + 1
	if index == 0 {
		return string(rune(offset))
	}
	var id []byte
	for index != 0 {
		id = append(id, byte(offset+index%base))
		index /= base
	}
	return string(id)
}

// Add registers a port for dumping under the given signal name and installs this
// tracer as the port's pin watcher.
func (v *VCD) Add(p *port.Port, name string) {
	v.byID[p.Base.ID] = len(v.wires)
	v.wires = append(v.wires, vcdWire{port: p, name: name, identifier: makeIdentifier(len(v.wires))})
	p.SetWatcher(v)
}

func (v *VCD) declare() {
	fmt.Fprintf(v.w, "$version\n  xtilesim\n$end\n")
	fmt.Fprintf(v.w, "$timescale\n  100 ps\n$end\n")
	fmt.Fprintf(v.w, "$scope module ports $end\n")
	for _, wire := range v.wires {
		fmt.Fprintf(v.w, "$var wire %d %s %s $end\n", wire.port.Width, wire.identifier, wire.name)
	}
	fmt.Fprintf(v.w, "$upscope $end\n")
	fmt.Fprintf(v.w, "$enddefinitions $end\n")
	fmt.Fprintf(v.w, "$dumpvars\n")
	for i := range v.wires {
		v.dumpValue(i, 0)
	}
	fmt.Fprintf(v.w, "$end\n")
	v.declared = true
}

func (v *VCD) dumpValue(i int, value uint32) {
	wire := &v.wires[i]
	if wire.port.Width == 1 {
		// Scalar changes carry no space between value and identifier.
		fmt.Fprintf(v.w, "%d%s\n", value&1, wire.identifier)
		return
	}
	// Vector values appear in binary, shortest form, one space before the code.
	fmt.Fprintf(v.w, "b%b %s\n", value, wire.identifier)
}

// PinsChanged implements port.PinWatcher.
func (v *VCD) PinsChanged(id resource.ID, value uint32, time uint64) {
	if !v.declared {
		v.declare()
	}
	if time != v.curTime || !v.timeDumped {
		fmt.Fprintf(v.w, "#%d\n", time)
		v.curTime = time
		v.timeDumped = true
	}
	i, ok := v.byID[id]
	if !ok {
		return
	}
	v.dumpValue(i, value)
}
