package system

import (
	"github.com/zotley-sim/xtilesim/xcore/isa"
	"github.com/zotley-sim/xtilesim/xcore/node"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/sswitch"
	"github.com/zotley-sim/xtilesim/xcore/xchan"
)

// DefaultRAMBase and DefaultRAMSize are the usual tile memory geometry.
const (
	DefaultRAMBase uint32 = 0x10000
	DefaultRAMSize uint32 = 0x10000
)

// nodeRouter resolves destinations from a node's (rather than a core's)
// perspective; the node's switch uses it to send protocol responses.
type nodeRouter struct {
	sys  *SystemState
	node *node.Node
}

func (r *nodeRouter) Resolve(id resource.ID) (xchan.Destination, bool) {
	num := id.Num()
	destNode := num >> 8
	if id.Kind() != resource.KindChanend {
		return nil, false
	}
	if destNode == r.node.NodeID() {
		return r.node.LocalChanendDest(num & 0xff)
	}
	if !r.node.Reachable(destNode) {
		return nil, false
	}
	n := r.sys.findNode(destNode)
	if n == nil {
		return nil, false
	}
	return n.LocalChanendDest(num & 0xff)
}

// switchObserver relays switch protocol callbacks into the system tracer.
type switchObserver struct {
	sys  *SystemState
	node *node.Node
}

func (o *switchObserver) SSwitchRead(regNum uint16, retDest uint32) {
	o.sys.tracer.SSwitchRead(o.node.NodeID(), retDest, regNum)
}

func (o *switchObserver) SSwitchWrite(regNum uint16, value uint32, retDest uint32) {
	o.sys.tracer.SSwitchWrite(o.node.NodeID(), retDest, regNum, value)
}

func (o *switchObserver) SSwitchAck(dest uint32) {
	o.sys.tracer.SSwitchAck(o.node.NodeID(), dest)
}

func (o *switchObserver) SSwitchNack(dest uint32) {
	o.sys.tracer.SSwitchNack(o.node.NodeID(), dest)
}

// AddProcessorNode registers a node, builds its switch endpoint, and returns it.
func (s *SystemState) AddProcessorNode(nodeNumberBits uint, numXLinks int) *node.Node {
	n := node.New(node.Processor, nodeNumberBits, numXLinks)
	s.AddNode(n)
	sw := sswitch.NewSSwitch(ConfigWireID(n.NodeID()), n, &nodeRouter{sys: s, node: n})
	sw.SetObserver(&switchObserver{sys: s, node: n})
	s.AttachSwitch(n, sw)
	return n
}

// SingleCore builds the common one-node one-core system and returns it with the
// core; the boot thread (slot 0) is allocated but not yet scheduled.
func SingleCore(variant isa.Variant) (*SystemState, *Core, error) {
	s := New()
	n := s.AddProcessorNode(16, 0)
	c, err := NewCore(s, n, 0, DefaultRAMBase, DefaultRAMSize, variant)
	if err != nil {
		return nil, nil, err
	}
	boot := c.Thread(0)
	boot.Base.Alloc(boot.GlobalID())
	boot.SetWaiting(true)
	return s, c, nil
}

// Start schedules a thread at the given byte address entry point.
func (s *SystemState) Start(th *Thread, entry uint32) bool {
	pc, ok := th.core.ToPC(entry)
	if !ok || !th.core.ValidPC(pc) {
		return false
	}
	th.PC = pc
	th.InSSync = false
	s.Schedule(th)
	return true
}
