//go:build linux

package node

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// TapLink is a NetworkLink backed by a host TAP device, letting a simulated MAC
// exchange frames with the host network stack.
type TapLink struct {
	f    *os.File
	Name string
}

// NewTapLink opens /dev/net/tun and binds it to ifname ("tap%d" picks the next free
// device). The descriptor is switched to non-blocking so ReceiveFrame can poll.
func NewTapLink(ifname string) (*TapLink, error) {
	fd, err := unix.Open("/dev/net/tun", unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/net/tun: %w", err)
	}
	if ifname == "" {
		ifname = "tap%d"
	}
	ifr, err := unix.NewIfreq(ifname)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tap ifname %q: %w", ifname, err)
	}
	ifr.SetUint16(unix.IFF_TAP | unix.IFF_NO_PI)
	if err := unix.IoctlIfreq(fd, unix.TUNSETIFF, ifr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("TUNSETIFF: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set nonblock: %w", err)
	}
	return &TapLink{f: os.NewFile(uintptr(fd), ifr.Name()), Name: ifr.Name()}, nil
}

func (t *TapLink) TransmitFrame(data []byte) error {
	if _, err := t.f.Write(data); err != nil {
		return fmt.Errorf("writing to tap interface: %w", err)
	}
	return nil
}

func (t *TapLink) ReceiveFrame(buf []byte) (int, bool, error) {
	n, err := t.f.Read(buf)
	if err != nil {
		// EAGAIN means nothing pending; EIO is returned while the device is not
		// yet configured.
		if err == unix.EAGAIN || err == unix.EIO {
			return 0, false, nil
		}
		if pe, okPath := err.(*os.PathError); okPath &&
			(pe.Err == unix.EAGAIN || pe.Err == unix.EIO) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("reading from tap interface: %w", err)
	}
	return n, true, nil
}

func (t *TapLink) Close() error { return t.f.Close() }
