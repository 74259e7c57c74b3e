package node

// MaxFrameSize is the largest frame a NetworkLink carries: an Ethernet payload plus
// header and tag.
const MaxFrameSize = 1500 + 18

// NetworkLink carries frames between the simulator and an external network segment
// (the transport behind a peripheral node's MAC, or an externally bridged link).
// ReceiveFrame is non-blocking: ok is false when nothing is pending.
type NetworkLink interface {
	TransmitFrame(data []byte) error
	ReceiveFrame(buf []byte) (n int, ok bool, err error)
	Close() error
}

// Loopback is the in-process NetworkLink used when no host device is attached: a pair
// of loopbacks created together exchange frames through bounded queues.
type Loopback struct {
	peer *Loopback
	in   chan []byte
}

// NewLoopbackPair returns two connected loopback links; frames transmitted on one are
// received on the other.
func NewLoopbackPair() (*Loopback, *Loopback) {
	a := &Loopback{in: make(chan []byte, 64)}
	b := &Loopback{in: make(chan []byte, 64)}
	a.peer = b
	b.peer = a
	return a, b
}

func (l *Loopback) TransmitFrame(data []byte) error {
	frame := make([]byte, len(data))
	copy(frame, data)
	select {
	case l.peer.in <- frame:
	default: // receiver backed up; the wire drops the frame
	}
	return nil
}

func (l *Loopback) ReceiveFrame(buf []byte) (int, bool, error) {
	select {
	case frame := <-l.in:
		return copy(buf, frame), true, nil
	default:
		return 0, false, nil
	}
}

func (l *Loopback) Close() error { return nil }
