package probe

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
)

var (
	testMAC    = net.HardwareAddr{0x02, 0x00, 0x5e, 0x10, 0x20, 0x30}
	testServer = net.IPv4(192, 0, 2, 1).To4()
)

// fakeConn is an in-memory LinkTransport. Queued datagrams are returned in
// order; once drained every read times out.
type fakeConn struct {
	sent      []*dhcp.Message
	sendErr   error
	readErr   error
	queue     [][]byte
	deadlines []time.Time
}

func (f *fakeConn) Send(ctx context.Context, m *dhcp.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeConn) ReadFrom(b []byte) (int, net.Addr, error) {
	if len(f.queue) == 0 {
		if f.readErr != nil {
			return 0, nil, f.readErr
		}
		return 0, nil, os.ErrDeadlineExceeded
	}
	n := copy(b, f.queue[0])
	f.queue = f.queue[1:]
	return n, &net.UDPAddr{IP: testServer, Port: dhcp.ServerPort}, nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error {
	f.deadlines = append(f.deadlines, t)
	return nil
}

func (f *fakeConn) Close() error { return nil }

type replyOpt func(*dhcp.Message)

func withServerID(ip net.IP) replyOpt {
	return func(m *dhcp.Message) { _ = m.Options.AppendValue(dhcp.ServerID(ip)) }
}

func withSName(name string) replyOpt {
	return func(m *dhcp.Message) { copy(m.SName[:], name) }
}

func reply(xid uint32, mt dhcp.MessageType, yiaddr net.IP, opts ...replyOpt) []byte {
	m := dhcp.NewMessage(dhcp.OpBootReply, xid, testMAC)
	if yiaddr != nil {
		m.YIAddr = yiaddr.To4()
	}
	_ = m.Options.AppendValue(dhcp.MessageTypeValue(mt))
	for _, o := range opts {
		o(m)
	}
	return m.Encode()
}
