// Package transport delivers probe requests to the wire and hands replies back
// as UDP payloads.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
)

type Mode string

const (
	ModeBroadcast Mode = "broadcast"
	ModeUnicast   Mode = "unicast"
)

var (
	ErrNotPrivileged = errors.New("raw sockets require root")
	ErrUnsupported   = errors.New("transport not supported on this platform")
)

// LinkTransport sends one request and reads candidate replies. Received
// datagrams are UDP payloads; link and network headers are already stripped.
type LinkTransport interface {
	Send(ctx context.Context, m *dhcp.Message) error
	ReadFrom(b []byte) (int, net.Addr, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Framer is implemented by transports that can render the Ethernet frame for a
// request, used for packet captures.
type Framer interface {
	Frame(m *dhcp.Message) ([]byte, error)
}

type ErrorKind int

const (
	KindSetup ErrorKind = iota
	KindSend
	KindReceive
)

func (k ErrorKind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindSend:
		return "send"
	case KindReceive:
		return "receive"
	default:
		return "unknown"
	}
}

type TransportError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func setupErr(op string, err error) error {
	return &TransportError{Kind: KindSetup, Op: op, Err: err}
}

func sendErr(op string, err error) error {
	return &TransportError{Kind: KindSend, Op: op, Err: err}
}

// Spec selects and parameterises a transport.
type Spec struct {
	Mode      Mode
	Interface string
	// Server is the unicast destination.
	Server net.IP
}

// Link holds the facts about the probing interface a request needs.
type Link struct {
	Name         string
	Index        int
	HardwareAddr net.HardwareAddr
	IPv4         net.IP
}

func deadlineFrom(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Time{}
}
