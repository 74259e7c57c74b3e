package main

import (
	"bytes"
	"debug/elf"
	"encoding/xml"
	"fmt"

	"github.com/zotley-sim/xtilesim/xcore/isa"
	"github.com/zotley-sim/xtilesim/xcore/node"
	"github.com/zotley-sim/xtilesim/xcore/system"
	"github.com/zotley-sim/xtilesim/xcore/xe"
)

// xnConfig is the slice of the platform-description XML the loader cares about:
// the declared nodes and their links.
type xnConfig struct {
	Nodes []struct {
		ID    string `xml:"Id,attr"`
		Tiles []struct {
			Ref string `xml:"Reference,attr"`
		} `xml:"Tile"`
	} `xml:"Package>Nodes>Node"`
}

// buildSystem constructs the simulated topology. The CONFIG/XN sectors describe
// multi-node platforms; a single-node single-tile system is the fallback when the
// image carries no topology.
func buildSystem(im *xe.Image, xs2 bool) (*system.SystemState, *system.Core, error) {
	variant := isa.XS1B
	if xs2 {
		variant = isa.XS2A
	}
	nodes := 1
	for _, typ := range []uint16{xe.SectorXN, xe.SectorConfig} {
		sec := im.Sector(typ)
		if sec == nil {
			continue
		}
		var cfg xnConfig
		if err := xml.Unmarshal(sec.Data, &cfg); err == nil && len(cfg.Nodes) > 0 {
			nodes = len(cfg.Nodes)
			break
		}
	}
	if nodes == 1 {
		return mustSingle(variant)
	}
	sys := system.New()
	var first *system.Core
	built := make([]*node.Node, 0, nodes)
	for i := 0; i < nodes; i++ {
		n := sys.AddProcessorNode(16, 2)
		n.SetNodeID(uint32(i))
		c, err := system.NewCore(sys, n, 0, system.DefaultRAMBase, system.DefaultRAMSize, variant)
		if err != nil {
			return nil, nil, err
		}
		boot := c.Thread(0)
		boot.Base.Alloc(boot.GlobalID())
		boot.SetWaiting(true)
		if first == nil {
			first = c
		}
		built = append(built, n)
	}
	// Chain neighbouring nodes; boot code reconfigures the directions through the
	// switch registers.
	for i := 1; i < len(built); i++ {
		if err := built[i-1].Connect(1, built[i], 0); err != nil {
			return nil, nil, err
		}
	}
	return sys, first, nil
}

func mustSingle(variant isa.Variant) (*system.SystemState, *system.Core, error) {
	return system.SingleCore(variant)
}

// loadImage copies the image's code into RAM and returns the entry address.
// BINARY sectors load at the RAM base; ELF sectors load their program segments and
// register the _DoSyscall/_DoException interception symbols; GOTO/CALL sectors
// override the entry point.
func loadImage(im *xe.Image, core *system.Core) (uint32, bool) {
	entry := uint32(0)
	loaded := false
	for i := range im.Sectors {
		sec := &im.Sectors[i]
		switch sec.Type {
		case xe.SectorBinary:
			if core.WriteBlock(core.RAMBase(), sec.Data) == nil {
				entry = core.RAMBase()
				loaded = true
			}
		case xe.SectorELF:
			if e, ok := loadELF(sec.Data, core); ok {
				entry = e
				loaded = true
			}
		case xe.SectorGoto, xe.SectorCall:
			entry = uint32(sec.Address)
		}
	}
	return entry, loaded
}

func loadELF(data []byte, core *system.Core) (uint32, bool) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		fmt.Printf("warning: bad ELF sector: %v\n", err)
		return 0, false
	}
	defer f.Close()
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		seg := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(seg, 0); err != nil {
			continue
		}
		if err := core.WriteBlock(uint32(prog.Paddr), seg); err != nil {
			fmt.Printf("warning: %v\n", err)
		}
	}
	if syms, err := f.Symbols(); err == nil {
		for _, sym := range syms {
			switch sym.Name {
			case "_DoSyscall":
				core.Breakpoints().Set(system.BreakSyscall, uint32(sym.Value))
			case "_DoException":
				core.Breakpoints().Set(system.BreakException, uint32(sym.Value))
			}
		}
	}
	return uint32(f.Entry), true
}
