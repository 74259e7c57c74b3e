package node

import "testing"

func TestOutboundLinkFollowsDirections(t *testing.T) {
	// Two nodes differing in ID bit 0; bit 0 routes through direction 5.
	a := New(Processor, 16, 4)
	b := New(Processor, 16, 4)
	a.SetNodeID(0)
	b.SetNodeID(1)
	if err := a.Connect(2, b, 3); err != nil {
		t.Fatal(err)
	}
	a.SetDirection(0, 5)
	a.XLinkAt(2).Direction = 5
	b.SetDirection(0, 9)
	b.XLinkAt(3).Direction = 9

	x, ok := a.OutboundLink(1)
	if !ok || x.Dest != b {
		t.Fatalf("a->1: ok=%v dest=%p want %p", ok, x, b)
	}
	back, ok := b.OutboundLink(0)
	if !ok || back.Dest != a {
		t.Fatalf("b->0: no route back")
	}
	if !a.Reachable(1) || !b.Reachable(0) {
		t.Fatal("reachability check failed")
	}
}

func TestOutboundLinkNoRoute(t *testing.T) {
	a := New(Processor, 16, 1)
	a.SetNodeID(0)
	if _, ok := a.OutboundLink(0); ok {
		t.Fatal("route to self should be local, not outbound")
	}
	if _, ok := a.OutboundLink(2); ok {
		t.Fatal("unwired direction should yield no route")
	}
	if a.Reachable(2) {
		t.Fatal("node 2 should be unreachable")
	}
}

func TestNodeIDMasking(t *testing.T) {
	n := New(Processor, 4, 0)
	n.SetNodeID(0xabcd)
	if got := n.NodeID(); got != 0xd {
		t.Fatalf("node id = %#x, want masked 0xd", got)
	}
}

func TestXLinkRegisterRoundTrip(t *testing.T) {
	var x XLink
	x.SetState(1<<31 | 1<<30 | 0x2a<<11 | 0x15)
	if !x.Enabled || !x.FiveWire || x.InterSymbolDelay != 0x2a || x.InterTokenDelay != 0x15 {
		t.Fatalf("xlink state decode: %+v", x)
	}
	if got := x.State(); got != 1<<31|1<<30|0x2a<<11|0x15 {
		t.Fatalf("xlink state re-encode = %#x", got)
	}
	x.SetDirNet(0x2<<8 | 0x7)
	if x.Direction != 7 || x.Network != 2 {
		t.Fatalf("slink decode: %+v", x)
	}
}

func TestLoopbackPair(t *testing.T) {
	a, b := NewLoopbackPair()
	if err := a.TransmitFrame([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, MaxFrameSize)
	n, ok, err := b.ReceiveFrame(buf)
	if err != nil || !ok || n != 3 || buf[0] != 1 || buf[2] != 3 {
		t.Fatalf("receive: n=%d ok=%v err=%v", n, ok, err)
	}
	if _, ok, _ := b.ReceiveFrame(buf); ok {
		t.Fatal("second receive should report nothing pending")
	}
}
