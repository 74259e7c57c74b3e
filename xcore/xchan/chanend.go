package xchan

import (
	"github.com/zotley-sim/xtilesim/xcore/exec"
	"github.com/zotley-sim/xtilesim/xcore/resource"
	"github.com/zotley-sim/xtilesim/xcore/token"
)

// Destination is what a Chanend needs from the endpoint it is sending into: the
// claim/release role plus the ability to accept tokens into its input buffer.
// SSwitch (component F) implements this differently (protocol framing instead of a
// plain buffer); Chanend implements it directly over its own ring buffer.
type Destination interface {
	Endpoint
	Claim(src Endpoint) ClaimResult
	Release(time uint64)
	SpaceFor(n int) bool
	PushToken(tok token.Token, time uint64)
}

// Router resolves a destination ResourceID to the live Destination it names, crossing
// cores and nodes as needed (component G). A failed resolution is the LinkError
// condition of spec.md §7.
type Router interface {
	Resolve(id resource.ID) (Destination, bool)
}

// Chanend is the per-thread channel endpoint resource (spec.md §3/§4.1).
type Chanend struct {
	resource.Base
	EndpointState

	dest      resource.ID
	destValid bool
	buffer    *token.RingBuffer

	inPacket   bool
	junkPacket bool

	pausedIn     resource.PauseSlot
	waitForWord  bool
	pausedOut    resource.PauseSlot

	waker  resource.Waker
	events resource.EventRaiser
}

// NewChanend constructs a chanend with the standard buffer capacity.
func NewChanend(id resource.ID) *Chanend {
	c := &Chanend{buffer: token.NewRingBuffer(token.DefaultBufferSize)}
	c.Base = resource.NewBase(id)
	return c
}

// SetWaker installs the scheduler hook used to resume threads this chanend has
// parked. Called once at core construction time.
func (c *Chanend) SetWaker(w resource.Waker) { c.waker = w }

// SetEvents installs the scheduler hook used to raise events on this chanend's
// owner thread.
func (c *Chanend) SetEvents(e resource.EventRaiser) { c.events = e }

// eventConditionMet reports whether a thread waiting on input (with the current
// waitForWord setting) would now be satisfiable.
func (c *Chanend) eventConditionMet() bool {
	if c.waitForWord {
		return c.TestWCTReady()
	}
	return c.TestCT()
}

func (c *Chanend) EndpointID() resource.ID { return c.Base.ID }

// SetD binds this chanend's destination. Disallowed mid-packet (spec.md §4.1).
func (c *Chanend) SetD(dest resource.ID) error {
	if c.inPacket {
		return &resource.ErrIllegalResource{ID: c.Base.ID, Reason: "SETD while inPacket"}
	}
	c.dest = dest
	c.destValid = true
	return nil
}

// Dest returns the configured destination ResourceID and whether one has been set.
func (c *Chanend) Dest() (resource.ID, bool) { return c.dest, c.destValid }

// NotifyDestClaimed is invoked on us (as a queued source) once our claim on the
// destination is finally granted; a thread parked in pausedOut can now proceed.
func (c *Chanend) NotifyDestClaimed(time uint64) {
	c.pausedOut.Resume(c.waker)
}

// NotifyDestCanAcceptTokens is invoked on our active source once we have drained
// enough of our input buffer to accept more; that source may have a thread parked on
// output waiting for buffer space.
func (c *Chanend) NotifyDestCanAcceptTokens(time uint64) {
	c.pausedOut.Resume(c.waker)
}

// SpaceFor reports whether our input buffer can accept n more tokens.
func (c *Chanend) SpaceFor(n int) bool { return c.buffer.Remaining() >= n }

// PushToken appends a token to our input buffer. If a thread is parked on input and
// its requirement (a byte, or a word/embedded control token) is now satisfiable, it is
// woken; if events are enabled on our owner and the same condition is newly met, the
// owner's event is raised (spec.md §4.1 "Eventing").
func (c *Chanend) PushToken(tok token.Token, time uint64) {
	c.buffer.Push(tok)
	if c.pausedIn.Armed() && c.eventConditionMet() {
		c.ResumePausedIn(c.waker)
		return
	}
	if c.Base.Events && c.events != nil && c.eventConditionMet() {
		c.events.RaiseEvent(c.Base.Owner, c.Base.ID)
	}
}

// ResumePausedOut wakes a thread parked on output once the route we were waiting on
// is granted or the destination gained buffer space.
func (c *Chanend) ResumePausedOut(w resource.Waker) {
	c.pausedOut.Resume(w)
}

// ResumePausedIn wakes a thread parked on input once enough tokens are queued.
func (c *Chanend) ResumePausedIn(w resource.Waker) {
	c.waitForWord = false
	c.pausedIn.Resume(w)
}

// openRoute attempts to open (or continue) a packet to dest via router, parking the
// caller on pausedOut if the claim is merely pending. Returns ok=true when the route
// is open and the caller may proceed to deliver tokens.
func (c *Chanend) openRoute(caller resource.ThreadID, time uint64, router Router) (dst Destination, ok bool, out exec.Outcome) {
	destID, valid := c.Dest()
	if !valid {
		return nil, false, exec.Except(exec.ExLinkError, uint32(c.Base.ID))
	}
	dst, found := router.Resolve(destID)
	if !found {
		return nil, false, exec.Except(exec.ExLinkError, uint32(destID))
	}
	if !c.inPacket {
		switch dst.Claim(c) {
		case ClaimJunked:
			c.junkPacket = true
			c.inPacket = true
			return dst, true, exec.Cont
		case ClaimPending:
			c.pausedOut.Park(caller)
			return nil, false, exec.Desched
		case ClaimSuccess:
			c.inPacket = true
		}
	}
	return dst, true, exec.Cont
}

// OutT sends a single data byte (spec.md §4.1).
func (c *Chanend) OutT(caller resource.ThreadID, b byte, time uint64, router Router) exec.Outcome {
	dst, ok, out := c.openRoute(caller, time, router)
	if !ok {
		return out
	}
	if c.junkPacket {
		return exec.Cont
	}
	if !dst.SpaceFor(1) {
		c.pausedOut.Park(caller)
		return exec.Desched
	}
	dst.PushToken(token.Data(b), time)
	return exec.Cont
}

// Out sends a 32-bit word as four big-endian data tokens (spec.md §4.1).
func (c *Chanend) Out(caller resource.ThreadID, word uint32, time uint64, router Router) exec.Outcome {
	dst, ok, out := c.openRoute(caller, time, router)
	if !ok {
		return out
	}
	if c.junkPacket {
		return exec.Cont
	}
	if !dst.SpaceFor(4) {
		c.pausedOut.Park(caller)
		return exec.Desched
	}
	dst.PushToken(token.Data(byte(word>>24)), time)
	dst.PushToken(token.Data(byte(word>>16)), time)
	dst.PushToken(token.Data(byte(word>>8)), time)
	dst.PushToken(token.Data(byte(word)), time)
	return exec.Cont
}

// OutCT sends a control token. END and PAUSE close the packet and release the route
// so a queued source can be served (spec.md §4.1).
func (c *Chanend) OutCT(caller resource.ThreadID, ctrl byte, time uint64, router Router) exec.Outcome {
	dst, ok, out := c.openRoute(caller, time, router)
	if !ok {
		return out
	}
	if !c.junkPacket {
		if !dst.SpaceFor(1) {
			c.pausedOut.Park(caller)
			return exec.Desched
		}
		dst.PushToken(token.Ctrl(ctrl), time)
	}
	if ctrl == token.CtEnd || ctrl == token.CtPause {
		c.inPacket = false
		c.junkPacket = false
		dst.Release(time)
	}
	return exec.Cont
}

// TestCT reports whether at least one token is buffered for input.
func (c *Chanend) TestCT() bool { return c.buffer.Size() >= 1 }

// HeadIsControl reports whether the next buffered token is a control token; callers
// must have verified TestCT.
func (c *Chanend) HeadIsControl() bool {
	tok, ok := c.buffer.Peek(0)
	return ok && tok.Control
}

// ParkIn records the caller as waiting for input availability (TESTCT/TESTWCT park
// here without consuming).
func (c *Chanend) ParkIn(caller resource.ThreadID, waitForWord bool) {
	c.waitForWord = waitForWord
	c.pausedIn.Park(caller)
}

// TestWCT returns the 1-based position of an embedded control token within the first
// four buffered tokens, or 0 when four full data tokens are available (spec.md §9
// open question: legacy behaviour conflated "no word yet" with "clean word", which
// this implementation resolves by having the caller check TestWCTReady first).
func (c *Chanend) TestWCT() int { return c.buffer.ContainsControlWithin(4) }

// TestWCTReady reports whether a full word (4 tokens, or an embedded control token)
// is available to test/consume.
func (c *Chanend) TestWCTReady() bool {
	return c.buffer.Size() >= 4 || c.buffer.ContainsControlWithin(c.buffer.Size()) > 0
}

// In pops a 32-bit big-endian data word. If the first four tokens contain a control
// token the operation fails with ILLEGAL per spec.md §4.1 ("IN of a data word that
// hits an embedded control token fails with ILLEGAL and the instruction aborts").
func (c *Chanend) In(caller resource.ThreadID, time uint64) (uint32, exec.Outcome) {
	if !c.TestWCTReady() {
		c.waitForWord = true
		c.pausedIn.Park(caller)
		return 0, exec.Desched
	}
	if pos := c.buffer.ContainsControlWithin(4); pos > 0 {
		return 0, exec.Except(exec.ExIllegalResource, uint32(c.Base.ID))
	}
	var word uint32
	for i := 0; i < 4; i++ {
		tok, _ := c.buffer.Pop()
		word = word<<8 | uint32(tok.Value)
	}
	if c.Source() != nil {
		c.Source().NotifyDestCanAcceptTokens(time)
	}
	return word, exec.Cont
}

// InT pops a single data byte; a control token at the head aborts the instruction.
func (c *Chanend) InT(caller resource.ThreadID, time uint64) (byte, exec.Outcome) {
	if !c.TestCT() {
		c.waitForWord = false
		c.pausedIn.Park(caller)
		return 0, exec.Desched
	}
	tok, _ := c.buffer.Peek(0)
	if tok.Control {
		return 0, exec.Except(exec.ExIllegalResource, uint32(c.Base.ID))
	}
	c.buffer.Pop()
	if c.Source() != nil {
		c.Source().NotifyDestCanAcceptTokens(time)
	}
	return tok.Value, exec.Cont
}

// InCT pops and returns a control token's value; callers must have already verified
// via ChkCT that the head token is in fact a control token.
func (c *Chanend) InCT(caller resource.ThreadID, time uint64) (byte, exec.Outcome) {
	if !c.TestCT() {
		c.waitForWord = false
		c.pausedIn.Park(caller)
		return 0, exec.Desched
	}
	tok, _ := c.buffer.Peek(0)
	if !tok.Control {
		return 0, exec.Except(exec.ExIllegalResource, uint32(c.Base.ID))
	}
	c.buffer.Pop()
	if c.Source() != nil {
		c.Source().NotifyDestCanAcceptTokens(time)
	}
	return tok.Value, exec.Cont
}

// ChkCT checks that the next buffered token is the expected control token and
// consumes it; any other token aborts the instruction.
func (c *Chanend) ChkCT(caller resource.ThreadID, ctrl byte, time uint64) exec.Outcome {
	if !c.TestCT() {
		c.waitForWord = false
		c.pausedIn.Park(caller)
		return exec.Desched
	}
	tok, _ := c.buffer.Peek(0)
	if !tok.Control || tok.Value != ctrl {
		return exec.Except(exec.ExIllegalResource, uint32(c.Base.ID))
	}
	c.buffer.Pop()
	if c.Source() != nil {
		c.Source().NotifyDestCanAcceptTokens(time)
	}
	return exec.Cont
}

// SeeEventEnable is called by the scheduler on the owner's disabled->enabled
// transition, to catch data that arrived while events were off (spec.md §4.1).
func (c *Chanend) SeeEventEnable() {
	if c.Base.Events && c.events != nil && c.eventConditionMet() {
		c.events.RaiseEvent(c.Base.Owner, c.Base.ID)
	}
}
