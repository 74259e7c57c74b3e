package xchan

import (
	"testing"

	"github.com/zotley-sim/xtilesim/xcore/exec"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/token"
)

// pairRouter resolves two chanends to each other, the minimal Router a round-trip
// test needs.
type pairRouter struct {
	a, b *Chanend
}

func (r *pairRouter) Resolve(id resource.ID) (Destination, bool) {
	if r.a != nil && id == r.a.Base.ID {
		return r.a, true
	}
	if r.b != nil && id == r.b.Base.ID {
		return r.b, true
	}
	return nil, false
}

func newPair() (*Chanend, *Chanend, *pairRouter) {
	a := NewChanend(resource.MakeID(resource.KindChanend, 0))
	b := NewChanend(resource.MakeID(resource.KindChanend, 1))
	_ = a.SetD(b.Base.ID)
	_ = b.SetD(a.Base.ID)
	return a, b, &pairRouter{a: a, b: b}
}

func TestChanendRoundTripBytes(t *testing.T) {
	a, b, r := newPair()
	msg := []byte("hi")
	for _, c := range msg {
		if out := a.OutT(0, c, 0, r); out.Kind != exec.Continue {
			t.Fatalf("OutT outcome = %v", out)
		}
	}
	if out := a.OutCT(0, token.CtEnd, 0, r); out.Kind != exec.Continue {
		t.Fatalf("OutCT outcome = %v", out)
	}
	for _, want := range msg {
		got, out := b.InT(0, 0)
		if out.Kind != exec.Continue {
			t.Fatalf("InT outcome = %v", out)
		}
		if got != want {
			t.Fatalf("InT = %q, want %q", got, want)
		}
	}
	if out := b.ChkCT(0, token.CtEnd, 0); out.Kind != exec.Continue {
		t.Fatalf("expected CT_END at end of packet, got out=%v", out)
	}
}

func TestChanendRoundTripWord(t *testing.T) {
	a, b, r := newPair()
	if out := a.Out(0, 0xdeadbeef, 0, r); out.Kind != exec.Continue {
		t.Fatalf("Out outcome = %v", out)
	}
	if out := a.OutCT(0, token.CtEnd, 0, r); out.Kind != exec.Continue {
		t.Fatalf("OutCT outcome = %v", out)
	}
	got, out := b.In(0, 0)
	if out.Kind != exec.Continue {
		t.Fatalf("In outcome = %v", out)
	}
	if got != 0xdeadbeef {
		t.Fatalf("In = %#x, want 0xdeadbeef", got)
	}
}

func TestClaimIdempotence(t *testing.T) {
	a, b, _ := newPair()
	if res := b.Claim(a); res != ClaimSuccess {
		t.Fatalf("first claim = %v, want success", res)
	}
	if res := b.Claim(a); res != ClaimSuccess {
		t.Fatalf("re-claim by same source = %v, want success (idempotent)", res)
	}
}

func TestReleaseOnEmptyQueueClearsSource(t *testing.T) {
	a, b, _ := newPair()
	b.Claim(a)
	b.Release(0)
	if b.Source() != nil {
		t.Fatalf("expected nil source after release with empty queue")
	}
}

func TestInWordHittingControlTokenIsIllegal(t *testing.T) {
	a, b, r := newPair()
	a.OutT(0, 1, 0, r)
	a.OutT(0, 2, 0, r)
	a.OutCT(0, token.CtEnd, 0, r)

	_, out := b.In(0, 0)
	if out.Kind != exec.Exception || out.ExKind != exec.ExIllegalResource {
		t.Fatalf("In across embedded control token: outcome = %v, want ExIllegalResource", out)
	}
}

func TestOutUnresolvedDestIsLinkError(t *testing.T) {
	a := NewChanend(resource.MakeID(resource.KindChanend, 0))
	_ = a.SetD(resource.MakeID(resource.KindChanend, 99))
	r := &pairRouter{} // resolves nothing
	out := a.OutT(0, 1, 0, r)
	if out.Kind != exec.Exception || out.ExKind != exec.ExLinkError {
		t.Fatalf("Out to unresolved dest: outcome = %v, want ExLinkError", out)
	}
}

func TestChanendBufferCapacityInvariant(t *testing.T) {
	a, _, r := newPair()
	for i := 0; i < token.DefaultBufferSize; i++ {
		if out := a.OutT(0, byte(i), 0, r); out.Kind != exec.Continue {
			t.Fatalf("fill %d: outcome = %v", i, out)
		}
	}
	// buffer is now full; one more send should park the sender.
	out := a.OutT(0, 0xff, 0, r)
	if out.Kind != exec.Deschedule {
		t.Fatalf("send into full buffer: outcome = %v, want Deschedule", out)
	}
}
