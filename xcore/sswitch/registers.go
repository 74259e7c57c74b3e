package sswitch

// Register numbers understood by the SSwitch control-register file
// (spec.md §4.4 component F; grounded on original_source/lib/SSwitchCtrlRegs.cpp).
const (
	RegDeviceID0 = 0x0
	RegDeviceID1 = 0x1
	RegDeviceID2 = 0x2
	RegDeviceID3 = 0x3 // doubles as a read/write scratch register on non-XS1_G nodes
	RegNodeConfig = 0x4
	RegNodeID     = 0x5
	RegDimensionDirection0 = 0xc
	RegDimensionDirection1 = 0xd
	RegSLink0 = 0x20 // 8 slinks: 0x20..0x27
	RegPLink0 = 0x40 // boundary: slink range ends here
	RegXLink0 = 0x80 // 8 xlinks: 0x80..0x87
	RegXStatic0 = 0xa0
)

const maxXLinksAddressable = RegPLink0 - RegSLink0

const (
	regRead  = 1
	regWrite = 1 << 1
	regRW    = regRead | regWrite
)

// NodeControl is the slice of node/XLink state the SSwitch register file reads and
// writes. The xcore/node package supplies the concrete implementation; this
// package stays decoupled from that package's layout.
type NodeControl interface {
	NodeID() uint32
	SetNodeID(id uint32)
	NodeNumberBits() uint
	NumXLinks() int
	Direction(bitIndex uint) uint8
	SetDirection(bitIndex uint, value uint8)
	XLinkState(i int) uint32
	SetXLinkState(i int, value uint32)
	XLinkDirNet(i int) uint32
	SetXLinkDirNet(i int, value uint32)
}

// RegisterFile is the SSwitch control-register address space of a single node
// (spec.md §4.4, grounded on original_source/lib/SSwitchCtrlRegs.{cpp,h}).
type RegisterFile struct {
	node    NodeControl
	flags   map[uint16]uint8
	scratch uint32
}

// NewRegisterFile builds the register map for a node, sizing the X-link windows to
// the node's actual link count (capped, as in the original, to what the address
// layout can address).
func NewRegisterFile(node NodeControl) *RegisterFile {
	r := &RegisterFile{node: node, flags: make(map[uint16]uint8)}
	r.initRegisters()
	return r
}

func (r *RegisterFile) initReg(num int, flags uint8) {
	r.flags[uint16(num)] = flags
}

func (r *RegisterFile) initRegisters() {
	numXLinks := r.node.NumXLinks()
	if numXLinks > maxXLinksAddressable {
		numXLinks = maxXLinksAddressable
	}
	r.initReg(RegNodeID, regRW)
	r.initReg(RegDeviceID3, regRW)
	numDirectionRegisters := int((r.node.NodeNumberBits() + 7) / 8)
	for i := 0; i < numDirectionRegisters; i++ {
		r.initReg(RegDimensionDirection0+i, regRW)
	}
	for i := 0; i < numXLinks; i++ {
		r.initReg(RegSLink0+i, regRW)
		r.initReg(RegXLink0+i, regRW)
	}
}

// Each DIMENSION_DIRECTION register packs eight 4-bit direction codes, one per
// outbound bit of node ID.
func readDirectionReg(node NodeControl, offset uint) uint32 {
	var value uint32
	end := offset + 8
	if max := node.NodeNumberBits(); end > max {
		end = max
	}
	for i := offset; i < end; i++ {
		value |= uint32(node.Direction(i)) << ((i - offset) * 4)
	}
	return value
}

func writeDirectionReg(node NodeControl, offset uint, value uint32) {
	end := offset + 8
	if max := node.NodeNumberBits(); end > max {
		end = max
	}
	for i := offset; i < end; i++ {
		d := uint8((value >> ((i - offset) * 4)) & 0xf)
		node.SetDirection(i, d)
	}
}

// Read returns a register's value. ok is false for an unmapped register number or
// one without the read flag set (a NACK response, per spec.md §4.4).
func (r *RegisterFile) Read(num uint16) (uint32, bool) {
	if flags, present := r.flags[num]; !present || flags&regRead == 0 {
		return 0, false
	}
	switch {
	case num >= RegSLink0 && num < RegPLink0:
		return r.node.XLinkDirNet(int(num - RegSLink0)), true
	case num >= RegXLink0 && num < RegXStatic0:
		return r.node.XLinkState(int(num - RegXLink0)), true
	}
	switch num {
	case RegDimensionDirection0, RegDimensionDirection1:
		return readDirectionReg(r.node, uint(num-RegDimensionDirection0)*8), true
	case RegNodeID:
		return r.node.NodeID(), true
	case RegDeviceID3:
		return r.scratch, true
	}
	return 0, false
}

// Write sets a register's value. ok is false for an unmapped register number or one
// without the write flag set.
func (r *RegisterFile) Write(num uint16, value uint32) bool {
	if flags, present := r.flags[num]; !present || flags&regWrite == 0 {
		return false
	}
	switch {
	case num >= RegSLink0 && num < RegPLink0:
		r.node.SetXLinkDirNet(int(num-RegSLink0), value)
		return true
	case num >= RegXLink0 && num < RegXStatic0:
		r.node.SetXLinkState(int(num-RegXLink0), value)
		return true
	}
	switch num {
	case RegDimensionDirection0, RegDimensionDirection1:
		writeDirectionReg(r.node, uint(num-RegDimensionDirection0)*8, value)
		return true
	case RegNodeID:
		bits := r.node.NodeNumberBits()
		mask := uint32(1)<<bits - 1
		if bits >= 32 {
			mask = 0xffffffff
		}
		r.node.SetNodeID(value & mask)
		return true
	case RegDeviceID3:
		r.scratch = value
		return true
	}
	return false
}
