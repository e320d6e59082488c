//go:build linux

package transport

import (
	"context"
	"errors"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
	"github.com/veesix-networks/checkdhcp/pkg/ethernet"
)

// BroadcastL2 injects requests as raw Ethernet broadcast frames, so the probe
// needs no address on the interface. Replies arrive through the kernel's UDP
// stack on the bootpc port.
type BroadcastL2 struct {
	fd      int
	ifindex int
	hwAddr  net.HardwareAddr
	conn    *net.UDPConn
}

func OpenBroadcast(ctx context.Context, link *Link) (*BroadcastL2, error) {
	// protocol 0: the socket is send-only and never queues received frames
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, 0)
	if err != nil {
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
			err = errors.Join(ErrNotPrivileged, err)
		}
		return nil, setupErr("open packet socket", err)
	}

	conn, err := listenUDP(ctx, link.Name, dhcp.ClientPort)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &BroadcastL2{
		fd:      fd,
		ifindex: link.Index,
		hwAddr:  link.HardwareAddr,
		conn:    conn,
	}, nil
}

// Frame returns the Ethernet frame Send would write for m. The source address
// is the message's chaddr when it is an Ethernet address.
func (b *BroadcastL2) Frame(m *dhcp.Message) ([]byte, error) {
	src := m.ClientHWAddr()
	if len(src) != 6 {
		src = b.hwAddr
	}
	return dhcp.BuildEthernetFrame(dhcp.BroadcastFrame(src), m)
}

func (b *BroadcastL2) Send(ctx context.Context, m *dhcp.Message) error {
	if err := ctx.Err(); err != nil {
		return sendErr("send broadcast", err)
	}

	frame, err := b.Frame(m)
	if err != nil {
		return sendErr("build frame", err)
	}

	addr := &unix.SockaddrLinklayer{
		Protocol: ethernet.Htons(ethernet.EtherTypeIPv4),
		Ifindex:  b.ifindex,
		Halen:    6,
	}
	copy(addr.Addr[:], ethernet.BroadcastMAC)

	if err := unix.Sendto(b.fd, frame, 0, addr); err != nil {
		return sendErr("send broadcast frame", err)
	}
	return nil
}

func (b *BroadcastL2) ReadFrom(p []byte) (int, net.Addr, error) {
	return b.conn.ReadFrom(p)
}

func (b *BroadcastL2) SetReadDeadline(t time.Time) error {
	return b.conn.SetReadDeadline(t)
}

func (b *BroadcastL2) Close() error {
	return errors.Join(unix.Close(b.fd), b.conn.Close())
}
