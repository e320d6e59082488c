//go:build linux

package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
)

// UnicastUDP talks to one server the way a relay agent does: it binds the
// bootps port and sends to the server's bootps port, so replies come back to
// the address in giaddr.
type UnicastUDP struct {
	conn   *net.UDPConn
	server *net.UDPAddr
}

func OpenUnicast(ctx context.Context, link *Link, server net.IP) (*UnicastUDP, error) {
	v4 := server.To4()
	if v4 == nil {
		return nil, setupErr("open unicast", fmt.Errorf("server %v is not ipv4", server))
	}

	conn, err := listenUDP(ctx, link.Name, dhcp.ServerPort)
	if err != nil {
		return nil, err
	}

	return &UnicastUDP{
		conn:   conn,
		server: &net.UDPAddr{IP: v4, Port: dhcp.ServerPort},
	}, nil
}

func (u *UnicastUDP) Send(ctx context.Context, m *dhcp.Message) error {
	if err := u.conn.SetWriteDeadline(deadlineFrom(ctx)); err != nil {
		return sendErr("set write deadline", err)
	}
	if _, err := u.conn.WriteToUDP(m.Encode(), u.server); err != nil {
		return sendErr("send to "+u.server.String(), err)
	}
	return nil
}

func (u *UnicastUDP) ReadFrom(b []byte) (int, net.Addr, error) {
	return u.conn.ReadFrom(b)
}

func (u *UnicastUDP) SetReadDeadline(t time.Time) error {
	return u.conn.SetReadDeadline(t)
}

func (u *UnicastUDP) Close() error {
	return u.conn.Close()
}

// Server is the destination requests are sent to.
func (u *UnicastUDP) Server() *net.UDPAddr {
	return u.server
}
