package sswitch

import (
	"testing"

	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/token"
	"github.com/zotley-sim/xtilesim/xcore/xchan"
)

type fakeNode struct {
	nodeID         uint32
	nodeNumberBits uint
	xlinks         int
	directions     [32]uint8
	xlinkState     [8]uint32
	xlinkDirNet    [8]uint32
}

func (n *fakeNode) NodeID() uint32             { return n.nodeID }
func (n *fakeNode) SetNodeID(id uint32)        { n.nodeID = id }
func (n *fakeNode) NodeNumberBits() uint       { return n.nodeNumberBits }
func (n *fakeNode) NumXLinks() int             { return n.xlinks }
func (n *fakeNode) Direction(i uint) uint8     { return n.directions[i] }
func (n *fakeNode) SetDirection(i uint, v uint8) { n.directions[i] = v }
func (n *fakeNode) XLinkState(i int) uint32    { return n.xlinkState[i] }
func (n *fakeNode) SetXLinkState(i int, v uint32) { n.xlinkState[i] = v }
func (n *fakeNode) XLinkDirNet(i int) uint32   { return n.xlinkDirNet[i] }
func (n *fakeNode) SetXLinkDirNet(i int, v uint32) { n.xlinkDirNet[i] = v }

// recordingDest is a minimal xchan.Destination that always claims immediately and
// records every pushed token, for asserting the response frame an SSwitch sends back.
type recordingDest struct {
	id          resource.ID
	received    []token.Token
	claimResult xchan.ClaimResult
}

func (d *recordingDest) EndpointID() resource.ID                 { return d.id }
func (d *recordingDest) NotifyDestClaimed(time uint64)           {}
func (d *recordingDest) NotifyDestCanAcceptTokens(time uint64)   {}
func (d *recordingDest) SpaceFor(n int) bool                     { return true }
func (d *recordingDest) PushToken(tok token.Token, time uint64) { d.received = append(d.received, tok) }
func (d *recordingDest) Claim(src xchan.Endpoint) xchan.ClaimResult {
	if d.claimResult != 0 {
		return d.claimResult
	}
	return xchan.ClaimSuccess
}
func (d *recordingDest) Release(time uint64) {}

type singleRouter struct {
	id  resource.ID
	dst xchan.Destination
}

func (r *singleRouter) Resolve(id resource.ID) (xchan.Destination, bool) {
	if id == r.id {
		return r.dst, true
	}
	return nil, false
}

func sendFrame(s *SSwitch, frame []token.Token, time uint64) {
	for _, t := range frame {
		s.PushToken(t, time)
	}
}

func TestSSwitchWriteThenReadRoundTrip(t *testing.T) {
	node := &fakeNode{nodeNumberBits: 8, xlinks: 0}
	s := NewSSwitch(resource.MakeID(resource.KindConfig, 0), node, nil)
	dest := &recordingDest{id: resource.MakeID(resource.KindChanend, 7)}
	s.SetRouter(&singleRouter{id: resource.MakeID(resource.KindChanend, 7), dst: dest})

	writeFrame := []token.Token{
		token.Ctrl(token.CtWritec),
		token.Data(0), token.Data(0), // return node
		token.Data(7),          // return num
		token.Data(0), token.Data(RegNodeID), // reg num
		token.Data(0), token.Data(0), token.Data(0), token.Data(0x2a), // data = 42
		token.Ctrl(token.CtEnd),
	}
	sendFrame(s, writeFrame, 0)

	if len(dest.received) != 2 {
		t.Fatalf("write response tokens = %v, want [ACK END]", dest.received)
	}
	if dest.received[0].Value != token.CtAck || !dest.received[0].Control {
		t.Fatalf("write response head = %v, want CT_ACK", dest.received[0])
	}

	dest.received = nil
	readFrame := []token.Token{
		token.Ctrl(token.CtReadc),
		token.Data(0), token.Data(0),
		token.Data(7),
		token.Data(0), token.Data(RegNodeID),
		token.Ctrl(token.CtEnd),
	}
	sendFrame(s, readFrame, 1)

	if len(dest.received) != 6 {
		t.Fatalf("read response tokens = %v, want ACK + 4 data + END", dest.received)
	}
	if dest.received[0].Value != token.CtAck {
		t.Fatalf("read response head = %v, want CT_ACK", dest.received[0])
	}
	got := uint32(dest.received[1].Value)<<24 | uint32(dest.received[2].Value)<<16 |
		uint32(dest.received[3].Value)<<8 | uint32(dest.received[4].Value)
	if got != 42 {
		t.Fatalf("read-back NODE_ID = %d, want 42 (value written earlier)", got)
	}
	if dest.received[5].Value != token.CtEnd {
		t.Fatalf("read response tail = %v, want CT_END", dest.received[5])
	}
}

func TestSSwitchReadUnmappedRegisterNacks(t *testing.T) {
	node := &fakeNode{nodeNumberBits: 8}
	s := NewSSwitch(resource.MakeID(resource.KindConfig, 0), node, nil)
	dest := &recordingDest{id: resource.MakeID(resource.KindChanend, 1)}
	s.SetRouter(&singleRouter{id: resource.MakeID(resource.KindChanend, 1), dst: dest})

	readFrame := []token.Token{
		token.Ctrl(token.CtReadc),
		token.Data(0), token.Data(0),
		token.Data(1),
		token.Data(0xff), token.Data(0xff), // unmapped register
		token.Ctrl(token.CtEnd),
	}
	sendFrame(s, readFrame, 0)

	if len(dest.received) != 2 || dest.received[0].Value != token.CtNack {
		t.Fatalf("response = %v, want [NACK END]", dest.received)
	}
}

func TestSSwitchParksResponseUntilClaimNotified(t *testing.T) {
	node := &fakeNode{nodeNumberBits: 8}
	s := NewSSwitch(resource.MakeID(resource.KindConfig, 0), node, nil)
	dest := &recordingDest{id: resource.MakeID(resource.KindChanend, 3), claimResult: xchan.ClaimPending}
	s.SetRouter(&singleRouter{id: resource.MakeID(resource.KindChanend, 3), dst: dest})

	writeFrame := []token.Token{
		token.Ctrl(token.CtWritec),
		token.Data(0), token.Data(0),
		token.Data(3),
		token.Data(0), token.Data(RegNodeID),
		token.Data(0), token.Data(0), token.Data(0), token.Data(9),
		token.Ctrl(token.CtEnd),
	}
	sendFrame(s, writeFrame, 0)

	if len(dest.received) != 0 {
		t.Fatalf("response sent despite a pending claim: %v", dest.received)
	}

	dest.claimResult = xchan.ClaimSuccess
	s.NotifyDestClaimed(1)
	if len(dest.received) != 2 || dest.received[0].Value != token.CtAck {
		t.Fatalf("response after retry = %v, want [ACK END]", dest.received)
	}
}
