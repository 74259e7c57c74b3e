// Package xchan implements channel endpoints and the Chanend resource: routed packet
// claim/release between endpoints and the buffered token stream used for inter-thread
// and inter-tile communication (spec.md §4.1, component C).
package xchan

import "github.com/zotley-sim/xtilesim/xcore/resource"

// Endpoint is the role shared by Chanend and SSwitch: the target of a claim/release
// handshake over the switch fabric (spec.md §3 "Channel endpoint (super-type of
// Chanend and SSwitch)"). A resource kind implements it by embedding EndpointState and
// exposing its own identity and notification callbacks.
type Endpoint interface {
	EndpointID() resource.ID
	NotifyDestClaimed(time uint64)
	NotifyDestCanAcceptTokens(time uint64)
}

// ClaimResult is the outcome of EndpointState.Claim.
type ClaimResult int

const (
	ClaimSuccess ClaimResult = iota
	ClaimPending
	ClaimJunked
)

// EndpointState is embedded by every concrete channel endpoint. It tracks the endpoint
// currently transmitting a packet into us, the FIFO of other endpoints waiting their
// turn, and whether we are junking incoming packets (spec.md §3 invariants: "at most
// one active source at a time; when junkIncoming, claims succeed immediately but all
// tokens are dropped").
type EndpointState struct {
	source       Endpoint
	pending      []Endpoint
	junkIncoming bool
}

// JunkIncoming reports whether this endpoint is currently discarding all input.
func (e *EndpointState) JunkIncoming() bool { return e.junkIncoming }

// SetJunkIncoming sets the junking flag (used by SSwitch and by chanends whose dest
// was torn down).
func (e *EndpointState) SetJunkIncoming(v bool) { e.junkIncoming = v }

// Source returns the endpoint currently holding the route into us, or nil.
func (e *EndpointState) Source() Endpoint { return e.source }

// Claim implements the four-step algorithm of spec.md §4.1: a junking destination
// always succeeds immediately (the caller must separately mark its own packet as
// junked); re-claiming the already-installed source is idempotent success; a
// different active source causes src to queue (ClaimPending); otherwise src becomes
// the active source.
func (e *EndpointState) Claim(src Endpoint) ClaimResult {
	if e.junkIncoming {
		return ClaimJunked
	}
	if e.source != nil && e.source.EndpointID() == src.EndpointID() {
		return ClaimSuccess
	}
	if e.source != nil {
		e.pending = append(e.pending, src)
		return ClaimPending
	}
	e.source = src
	return ClaimSuccess
}

// Release pops the head of the pending queue (if any) and installs it as the new
// source, notifying it via NotifyDestClaimed. On an empty queue, source becomes nil
// (spec.md §8 idempotence: "release on an empty queue sets source = none").
func (e *EndpointState) Release(time uint64) {
	if len(e.pending) == 0 {
		e.source = nil
		return
	}
	next := e.pending[0]
	e.pending = e.pending[1:]
	e.source = next
	next.NotifyDestClaimed(time)
}
